// Package inference оборачивает предобученный классификатор и проверяет
// соответствие его выхода таблице классов.
package inference

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"cropscan/internal/domain/entity"
	"cropscan/internal/domain/port"
)

// Model исполнитель артефакта модели. Реализации не обязаны быть реентерабельными.
type Model interface {
	// Run принимает данные тензора 1×256×256×3 и возвращает выход модели
	Run(input []float32) ([]float32, error)

	// OutputSize ширина выхода по метаданным артефакта; 0 если неизвестна
	OutputSize() int

	// Version идентификатор артефакта
	Version() string

	Close() error
}

// Engine потокобезопасный классификатор поверх Model.
type Engine struct {
	mu      sync.Mutex // сериализует Run и защищает замену модели
	model   Model
	classes int
}

// NewEngine проверяет модель и создаёт движок для classes классов.
func NewEngine(model Model, classes int) (*Engine, error) {
	if model == nil {
		return nil, errors.New("inference: model is nil")
	}
	if err := checkContract(model, classes); err != nil {
		return nil, err
	}
	return &Engine{model: model, classes: classes}, nil
}

func checkContract(model Model, classes int) error {
	if n := model.OutputSize(); n > 0 && n != classes {
		return fmt.Errorf("%w: model %s has %d outputs, registry has %d classes",
			entity.ErrModelContract, model.Version(), n, classes)
	}
	return nil
}

// Classify запускает модель и проверяет длину вектора вероятностей.
func (e *Engine) Classify(tensor *entity.InputTensor) (entity.ProbabilityVector, error) {
	if err := tensor.Validate(); err != nil {
		return nil, err
	}

	e.mu.Lock()
	out, err := e.model.Run(tensor.Data)
	e.mu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("inference: %w", err)
	}

	if len(out) != e.classes {
		return nil, fmt.Errorf("%w: got %d probabilities for %d classes",
			entity.ErrModelContract, len(out), e.classes)
	}

	probs := make(entity.ProbabilityVector, len(out))
	copy(probs, out)
	if !probs.Valid() {
		slog.Warn("classifier output is outside [0,1]", "probabilities", probs)
	}
	return probs, nil
}

// Version версия загруженной модели.
func (e *Engine) Version() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.model.Version()
}

// Reload заменяет модель по явной команде оператора. Старая модель закрывается
// после того, как завершится текущий вызов Classify. При ошибке контракта
// новая модель не закрывается: она остаётся у вызывающего.
func (e *Engine) Reload(model Model) error {
	if model == nil {
		return errors.New("inference: model is nil")
	}
	if err := checkContract(model, e.classes); err != nil {
		return err
	}

	e.mu.Lock()
	old := e.model
	e.model = model
	e.mu.Unlock()

	slog.Info("classifier reloaded", "old", old.Version(), "new", model.Version())
	if err := old.Close(); err != nil {
		slog.Warn("close previous model", "version", old.Version(), "error", err)
	}
	return nil
}

// Close освобождает модель.
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.model.Close()
}

var _ port.Classifier = (*Engine)(nil)
