package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"cropscan/internal/domain/entity"
	"cropscan/internal/domain/port"
	"cropscan/internal/domain/prompt"
)

// DiagnosisOptions параметры получения описаний.
type DiagnosisOptions struct {
	Credential string
	Timeout    time.Duration
	Cache      port.DescriptionCache // nil отключает кэш
}

// DiagnosisService ведёт изображение по этапам от декодирования до описания болезни.
type DiagnosisService struct {
	decoder      port.ImageDecoder
	preprocessor port.Preprocessor
	classifier   port.Classifier
	labels       port.LabelResolver
	describer    port.DiseaseDescriber
	opts         DiagnosisOptions
}

// NewDiagnosisService создаёт сервис диагностики.
func NewDiagnosisService(
	decoder port.ImageDecoder,
	preprocessor port.Preprocessor,
	classifier port.Classifier,
	labels port.LabelResolver,
	describer port.DiseaseDescriber,
	opts DiagnosisOptions,
) *DiagnosisService {
	return &DiagnosisService{
		decoder:      decoder,
		preprocessor: preprocessor,
		classifier:   classifier,
		labels:       labels,
		describer:    describer,
		opts:         opts,
	}
}

// Diagnose классифицирует изображение и запрашивает описание на языке lang.
// Ошибка классификации возвращается как *entity.StageError, и внешний сервис не вызывается.
// Ошибка получения описания не прерывает запрос и лежит в Diagnosis.Description.Err.
func (s *DiagnosisService) Diagnose(ctx context.Context, raw entity.RawImage, lang entity.Language) (*entity.Diagnosis, error) {
	if s.decoder == nil || s.preprocessor == nil || s.classifier == nil || s.labels == nil {
		return nil, errors.New("classifier pipeline is not configured")
	}

	requestID := uuid.NewString()
	log := slog.With("request_id", requestID)
	stage := entity.StageIdle

	advance := func(next entity.Stage) {
		log.Debug("diagnosis stage", "from", stage, "to", next)
		stage = next
	}
	fail := func(err error) (*entity.Diagnosis, error) {
		// Ошибки классификации ожидаемы, остальные пишем как Error
		level := slog.LevelError
		if entity.IsClassificationFailure(err) {
			level = slog.LevelWarn
		}
		log.Log(ctx, level, "diagnosis failed", "stage", stage, "kind", entity.KindOf(err), "error", err)
		return nil, &entity.StageError{Stage: stage, Err: err}
	}

	advance(entity.StageDecoding)
	grid, err := s.decoder.Decode(raw)
	if err != nil {
		return fail(err)
	}

	advance(entity.StagePreprocessing)
	tensor, err := s.preprocessor.Prepare(grid)
	if err != nil {
		return fail(err)
	}

	advance(entity.StageInferring)
	probs, err := s.classifier.Classify(tensor)
	if err != nil {
		return fail(err)
	}
	if len(probs) != s.labels.Count() {
		return fail(fmt.Errorf("%w: got %d probabilities for %d classes", entity.ErrModelContract, len(probs), s.labels.Count()))
	}

	advance(entity.StageResolvingLabel)
	index, label, err := s.labels.ResolveArgMax(probs)
	if err != nil {
		return fail(err)
	}

	advance(entity.StageBuildingPrompt)
	req := prompt.Build(label, lang)

	advance(entity.StageFetchingDescription)
	desc := s.describe(ctx, req)

	advance(entity.StageDone)
	log.Info("diagnosis done",
		"label", label.String(),
		"confidence", probs[index],
		"language", req.Language,
		"description_kind", desc.Kind(),
		"cached", desc.Cached,
	)

	return &entity.Diagnosis{
		RequestID:     requestID,
		ClassIndex:    index,
		Label:         label,
		Probabilities: probs,
		Confidence:    probs[index],
		Language:      req.Language,
		Description:   desc,
	}, nil
}

func (s *DiagnosisService) describe(ctx context.Context, req entity.DescriptionRequest) entity.DescriptionResult {
	if s.describer == nil {
		return entity.DescriptionResult{Err: entity.ErrDescriptionDisabled}
	}

	version := s.cacheVersion()
	if s.opts.Cache != nil {
		if text, ok := s.opts.Cache.Get(version, req.Label, req.Language); ok {
			return entity.DescriptionResult{Text: text, Cached: true}
		}
	}

	res := s.describer.Fetch(ctx, req, s.opts.Credential, s.opts.Timeout)
	if res.OK() && s.opts.Cache != nil {
		s.opts.Cache.Put(version, req.Label, req.Language, res.Text)
	}
	return res
}

// cacheVersion объединяет версии таблицы классов и артефакта модели.
func (s *DiagnosisService) cacheVersion() string {
	version := s.labels.Version()
	if v, ok := s.classifier.(interface{ Version() string }); ok {
		version += "/" + v.Version()
	}
	return version
}
