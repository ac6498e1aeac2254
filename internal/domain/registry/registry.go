// Package registry отображает индекс выхода модели в метку болезни.
package registry

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"cropscan/internal/domain/entity"
)

// DefaultClasses классы, на которых обучен исходный артефакт модели.
var DefaultClasses = []string{
	"Tomato-Bacterial_spot",
	"Potato-Barly_blight",
	"Corn-Common_rust",
}

// Metadata описание артефакта модели из YAML файла.
type Metadata struct {
	Version     string   `yaml:"version"`
	InputShape  []int64  `yaml:"input_shape"`
	OutputShape []int64  `yaml:"output_shape"`
	Classes     []string `yaml:"classes"`
}

// Registry неизменяемая таблица классов.
type Registry struct {
	version string
	labels  []entity.DiseaseLabel
}

// New строит реестр из имён классов вида "Crop-Disease".
// Пустой version заменяется хэшем списка классов.
func New(version string, classes []string) (*Registry, error) {
	if len(classes) == 0 {
		return nil, fmt.Errorf("class registry is empty")
	}

	labels := make([]entity.DiseaseLabel, 0, len(classes))
	seen := make(map[entity.DiseaseLabel]int, len(classes))
	for i, name := range classes {
		label, err := entity.ParseDiseaseLabel(name)
		if err != nil {
			return nil, fmt.Errorf("class %d: %w", i, err)
		}
		if j, dup := seen[label]; dup {
			return nil, fmt.Errorf("class %d duplicates class %d (%s)", i, j, label)
		}
		seen[label] = i
		labels = append(labels, label)
	}

	if version == "" {
		version = fingerprint(labels)
	}

	return &Registry{version: version, labels: labels}, nil
}

// Default реестр со встроенными классами.
func Default() *Registry {
	r, err := New("", DefaultClasses)
	if err != nil {
		panic(err)
	}
	return r
}

// Load читает реестр из YAML файла метаданных модели.
func Load(path string) (*Registry, *Metadata, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("read metadata: %w", err)
	}

	var meta Metadata
	if err := yaml.Unmarshal(data, &meta); err != nil {
		return nil, nil, fmt.Errorf("parse metadata: %w", err)
	}

	if n := len(meta.OutputShape); n > 0 && meta.OutputShape[n-1] > 0 && int(meta.OutputShape[n-1]) != len(meta.Classes) {
		return nil, nil, fmt.Errorf("%w: metadata declares %d outputs for %d classes",
			entity.ErrModelContract, meta.OutputShape[n-1], len(meta.Classes))
	}

	r, err := New(meta.Version, meta.Classes)
	if err != nil {
		return nil, nil, err
	}
	return r, &meta, nil
}

// Resolve возвращает метку по индексу класса.
func (r *Registry) Resolve(index int) (entity.DiseaseLabel, error) {
	if index < 0 || index >= len(r.labels) {
		return entity.DiseaseLabel{}, fmt.Errorf("%w: index %d of %d", entity.ErrUnknownClass, index, len(r.labels))
	}
	return r.labels[index], nil
}

// ResolveArgMax выбирает метку по максимальной вероятности.
func (r *Registry) ResolveArgMax(p entity.ProbabilityVector) (int, entity.DiseaseLabel, error) {
	i := p.ArgMax()
	label, err := r.Resolve(i)
	return i, label, err
}

// Count число классов.
func (r *Registry) Count() int {
	return len(r.labels)
}

// Version версия артефакта, к которому относится таблица.
func (r *Registry) Version() string {
	return r.version
}

// Labels копия таблицы меток.
func (r *Registry) Labels() []entity.DiseaseLabel {
	out := make([]entity.DiseaseLabel, len(r.labels))
	copy(out, r.labels)
	return out
}

func fingerprint(labels []entity.DiseaseLabel) string {
	names := make([]string, len(labels))
	for i, l := range labels {
		names[i] = l.String()
	}
	sum := sha256.Sum256([]byte(strings.Join(names, "\n")))
	return hex.EncodeToString(sum[:6])
}

// CheckInputShape сверяет заявленную форму входа с 1×256×256×3.
// Размерность -1 означает произвольное значение.
func (m *Metadata) CheckInputShape() error {
	if len(m.InputShape) == 0 {
		return nil
	}
	if len(m.InputShape) != len(entity.InputShape) {
		return fmt.Errorf("%w: metadata input shape %v, want %v", entity.ErrModelContract, m.InputShape, entity.InputShape)
	}
	for i, dim := range m.InputShape {
		if dim != -1 && dim != int64(entity.InputShape[i]) {
			return fmt.Errorf("%w: metadata input shape %v, want %v", entity.ErrModelContract, m.InputShape, entity.InputShape)
		}
	}
	return nil
}
