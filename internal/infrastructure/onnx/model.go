// Package onnx исполняет классификатор через ONNX Runtime.
package onnx

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"

	ort "github.com/yalue/onnxruntime_go"

	"cropscan/internal/domain/entity"
	"cropscan/internal/infrastructure/inference"
)

var (
	runtimeOnce sync.Once
	runtimeErr  error
)

// InitRuntime инициализирует ONNX Runtime один раз на процесс.
func InitRuntime(libraryPath string) error {
	runtimeOnce.Do(func() {
		if libraryPath != "" {
			ort.SetSharedLibraryPath(libraryPath)
		}
		runtimeErr = ort.InitializeEnvironment()
	})
	return runtimeErr
}

// Shutdown освобождает ONNX Runtime.
func Shutdown() error {
	return ort.DestroyEnvironment()
}

// Options параметры загрузки модели.
type Options struct {
	ModelPath   string
	LibraryPath string
	InputName   string // по умолчанию первый вход модели
	OutputName  string // по умолчанию первый выход модели
	NumThreads  int
}

// Model сессия ONNX Runtime с заранее выделенными тензорами.
// Сессия привязана к тензорам и не реентерабельна: вызовы Run сериализует inference.Engine.
type Model struct {
	session    *ort.AdvancedSession
	input      *ort.Tensor[float32]
	output     *ort.Tensor[float32]
	outputSize int
	version    string
}

// Load загружает модель и проверяет форму её входа.
func Load(opts Options) (*Model, error) {
	if err := InitRuntime(opts.LibraryPath); err != nil {
		return nil, fmt.Errorf("initialize onnx runtime: %w", err)
	}

	version, err := fileDigest(opts.ModelPath)
	if err != nil {
		return nil, fmt.Errorf("read model: %w", err)
	}

	inputs, outputs, err := ort.GetInputOutputInfo(opts.ModelPath)
	if err != nil {
		return nil, fmt.Errorf("inspect model: %w", err)
	}
	if len(inputs) == 0 || len(outputs) == 0 {
		return nil, fmt.Errorf("%w: model has no inputs or outputs", entity.ErrModelContract)
	}

	inputName := opts.InputName
	if inputName == "" {
		inputName = inputs[0].Name
	}
	outputName := opts.OutputName
	if outputName == "" {
		outputName = outputs[0].Name
	}

	if err := checkInputShape(findInfo(inputs, inputName)); err != nil {
		return nil, err
	}

	outInfo := findInfo(outputs, outputName)
	if outInfo == nil || len(outInfo.Dimensions) == 0 {
		return nil, fmt.Errorf("%w: output %q not found", entity.ErrModelContract, outputName)
	}
	outputSize := int(outInfo.Dimensions[len(outInfo.Dimensions)-1])
	if outputSize <= 0 {
		return nil, fmt.Errorf("%w: output %q has dynamic width %v", entity.ErrModelContract, outputName, outInfo.Dimensions)
	}

	s := entity.InputShape
	input, err := ort.NewEmptyTensor[float32](ort.NewShape(int64(s[0]), int64(s[1]), int64(s[2]), int64(s[3])))
	if err != nil {
		return nil, fmt.Errorf("failed to create input tensor: %w", err)
	}

	output, err := ort.NewEmptyTensor[float32](ort.NewShape(1, int64(outputSize)))
	if err != nil {
		input.Destroy()
		return nil, fmt.Errorf("failed to create output tensor: %w", err)
	}

	sessOpts, err := ort.NewSessionOptions()
	if err != nil {
		input.Destroy()
		output.Destroy()
		return nil, fmt.Errorf("session options: %w", err)
	}
	defer sessOpts.Destroy()

	if opts.NumThreads > 0 {
		if err := sessOpts.SetIntraOpNumThreads(opts.NumThreads); err != nil {
			input.Destroy()
			output.Destroy()
			return nil, fmt.Errorf("set threads: %w", err)
		}
	}

	session, err := ort.NewAdvancedSession(opts.ModelPath,
		[]string{inputName}, []string{outputName},
		[]ort.ArbitraryTensor{input}, []ort.ArbitraryTensor{output},
		sessOpts)
	if err != nil {
		input.Destroy()
		output.Destroy()
		return nil, fmt.Errorf("failed to create ONNX session: %w", err)
	}

	slog.Info("classifier loaded", "path", opts.ModelPath, "version", version,
		"input", inputName, "output", outputName, "classes", outputSize)

	return &Model{
		session:    session,
		input:      input,
		output:     output,
		outputSize: outputSize,
		version:    version,
	}, nil
}

func findInfo(infos []ort.InputOutputInfo, name string) *ort.InputOutputInfo {
	for i := range infos {
		if infos[i].Name == name {
			return &infos[i]
		}
	}
	return nil
}

// checkInputShape допускает динамическую ось батча: [-1, 256, 256, 3].
func checkInputShape(info *ort.InputOutputInfo) error {
	if info == nil {
		return fmt.Errorf("%w: input not found", entity.ErrModelContract)
	}
	dims := info.Dimensions
	want := entity.InputShape
	if len(dims) != len(want) {
		return fmt.Errorf("%w: model input %v, want %v", entity.ErrModelContract, dims, want)
	}
	for i, d := range dims {
		if d > 0 && int(d) != want[i] {
			return fmt.Errorf("%w: model input %v, want %v", entity.ErrModelContract, dims, want)
		}
	}
	return nil
}

func fileDigest(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)[:6]), nil
}

// Run копирует вход в тензор сессии и возвращает копию выхода.
func (m *Model) Run(input []float32) ([]float32, error) {
	copy(m.input.GetData(), input)

	if err := m.session.Run(); err != nil {
		return nil, err
	}

	out := make([]float32, m.outputSize)
	copy(out, m.output.GetData())
	return out, nil
}

// OutputSize ширина выхода модели.
func (m *Model) OutputSize() int {
	return m.outputSize
}

// Version короткий хэш файла модели.
func (m *Model) Version() string {
	return m.version
}

// Close освобождает сессию и тензоры.
func (m *Model) Close() error {
	var err error
	if m.session != nil {
		err = m.session.Destroy()
		m.session = nil
	}
	if m.input != nil {
		m.input.Destroy()
		m.input = nil
	}
	if m.output != nil {
		m.output.Destroy()
		m.output = nil
	}
	return err
}

var _ inference.Model = (*Model)(nil)
