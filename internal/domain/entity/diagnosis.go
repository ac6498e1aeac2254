package entity

import "fmt"

// Stage этап конвейера диагностики.
type Stage string

const (
	StageIdle                Stage = "idle"
	StageDecoding            Stage = "decoding"
	StagePreprocessing       Stage = "preprocessing"
	StageInferring           Stage = "inferring"
	StageResolvingLabel      Stage = "resolving_label"
	StageBuildingPrompt      Stage = "building_prompt"
	StageFetchingDescription Stage = "fetching_description"
	StageDone                Stage = "done"
)

// StageError терминальное состояние Failed{stage, err}.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// DescriptionRequest текст запроса к сервису описаний.
type DescriptionRequest struct {
	Label    DiseaseLabel
	Language Language
	Prompt   string
}

// DescriptionResult либо текст описания, либо ошибка его получения.
type DescriptionResult struct {
	Text   string
	Err    error
	Cached bool
}

// OK сообщает об успешном получении описания.
func (r DescriptionResult) OK() bool {
	return r.Err == nil
}

// Kind вид ошибки описания или пустая строка.
func (r DescriptionResult) Kind() FailureKind {
	return KindOf(r.Err)
}

// Diagnosis итог одного запроса: классификация всегда присутствует,
// описание может содержать ошибку.
type Diagnosis struct {
	RequestID     string
	ClassIndex    int
	Label         DiseaseLabel
	Probabilities ProbabilityVector
	Confidence    float32
	Language      Language
	Description   DescriptionResult
}
