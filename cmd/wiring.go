package main

import (
	"fmt"
	"log/slog"
	"net/http"

	"cropscan/config"
	app "cropscan/internal/application"
	"cropscan/internal/container"
	"cropscan/internal/domain/port"
	"cropscan/internal/domain/registry"
	"cropscan/internal/infrastructure/groq"
	"cropscan/internal/infrastructure/inference"
	"cropscan/internal/infrastructure/onnx"
	"cropscan/internal/infrastructure/storage"
	"cropscan/internal/infrastructure/vision"
)

// descriptionCacheSize сколько описаний держим в памяти
const descriptionCacheSize = 1024

// stack собранное приложение и ресурсы, которые нужно закрыть
type stack struct {
	container *container.Container
	engine    *inference.Engine
	cfg       *config.Config
}

// buildStack собирает конвейер. Ключ сервиса описаний ищется один раз здесь;
// его отсутствие считается ошибкой запуска, если describe == true.
func buildStack(cfg *config.Config, describe bool) (*stack, error) {
	labels, err := loadLabels(cfg.ModelMetadata)
	if err != nil {
		return nil, err
	}

	decoder, err := vision.NewDecoder(cfg.Decoder, int(cfg.MaxImagePixels))
	if err != nil {
		return nil, err
	}

	model, err := loadModel(cfg)
	if err != nil {
		return nil, err
	}

	engine, err := inference.NewEngine(model, labels.Count())
	if err != nil {
		model.Close()
		return nil, err
	}

	opts := app.DiagnosisOptions{Timeout: cfg.DescriptionTimeout}
	var describer port.DiseaseDescriber
	if describe {
		credential, err := config.ResolveCredential()
		if err != nil {
			engine.Close()
			return nil, err
		}
		opts.Credential = credential
		describer = groq.NewClient(cfg.DescriptionEndpoint, cfg.DescriptionModel, &http.Client{})
		if cfg.DescriptionCache {
			opts.Cache = storage.NewMemoryDescriptionCache(descriptionCacheSize)
		}
	}

	c := container.New(storage.NewMemoryUserRepository(), container.Pipeline{
		Decoder:      decoder,
		Preprocessor: vision.NewPreprocessor(),
		Classifier:   engine,
		Labels:       labels,
	}, describer, opts)

	slog.Info("classifier ready",
		"model", cfg.ModelPath,
		"model_version", engine.Version(),
		"classes", labels.Count(),
		"classes_version", labels.Version(),
		"decoder", cfg.Decoder,
		"describe", describe,
	)

	return &stack{container: c, engine: engine, cfg: cfg}, nil
}

func loadLabels(path string) (*registry.Registry, error) {
	if path == "" {
		return registry.Default(), nil
	}

	labels, meta, err := registry.Load(path)
	if err != nil {
		return nil, err
	}
	if err := meta.CheckInputShape(); err != nil {
		return nil, err
	}
	return labels, nil
}

func loadModel(cfg *config.Config) (*onnx.Model, error) {
	model, err := onnx.Load(onnx.Options{
		ModelPath:   cfg.ModelPath,
		LibraryPath: cfg.ONNXRuntimeLib,
	})
	if err != nil {
		return nil, fmt.Errorf("load model %s: %w", cfg.ModelPath, err)
	}
	return model, nil
}

// reload перечитывает артефакт модели по команде оператора.
func (s *stack) reload() error {
	model, err := loadModel(s.cfg)
	if err != nil {
		return err
	}
	if err := s.engine.Reload(model); err != nil {
		model.Close()
		return err
	}
	return nil
}

func (s *stack) Close() error {
	err := s.engine.Close()
	if shutdownErr := onnx.Shutdown(); err == nil {
		err = shutdownErr
	}
	return err
}
