package rest

import (
	"errors"

	"cropscan/internal/domain/entity"
)

// DiagnoseResponse ответ POST /v1/diagnose.
type DiagnoseResponse struct {
	RequestID     string             `json:"request_id"`
	Crop          string             `json:"crop"`
	Disease       string             `json:"disease"`
	Class         string             `json:"class"`
	Headline      string             `json:"headline"`
	Confidence    float32            `json:"confidence"`
	Probabilities map[string]float32 `json:"probabilities"`
	Language      entity.Language    `json:"language"`
	Description   DescriptionBody    `json:"description"`
}

// DescriptionBody описание или ошибка его получения.
type DescriptionBody struct {
	Text   string     `json:"text,omitempty"`
	Cached bool       `json:"cached,omitempty"`
	Error  *ErrorBody `json:"error,omitempty"`
}

type ErrorBody struct {
	Kind       entity.FailureKind `json:"kind"`
	Message    string             `json:"message"`
	Stage      entity.Stage       `json:"stage,omitempty"`
	StatusCode int                `json:"status_code,omitempty"`
}

type ClassInfo struct {
	Index   int    `json:"index"`
	Class   string `json:"class"`
	Crop    string `json:"crop"`
	Disease string `json:"disease"`
}

type ClassesResponse struct {
	Version string      `json:"version"`
	Classes []ClassInfo `json:"classes"`
}

type LanguagesResponse struct {
	Default   entity.Language       `json:"default"`
	Languages []entity.LanguageInfo `json:"languages"`
}

func newDiagnoseResponse(d *entity.Diagnosis, classes []string) DiagnoseResponse {
	probs := make(map[string]float32, len(d.Probabilities))
	for i, p := range d.Probabilities {
		if i < len(classes) {
			probs[classes[i]] = p
		}
	}

	resp := DiagnoseResponse{
		RequestID:     d.RequestID,
		Crop:          d.Label.Crop,
		Disease:       d.Label.Disease,
		Class:         d.Label.String(),
		Headline:      d.Label.Headline(),
		Confidence:    d.Confidence,
		Probabilities: probs,
		Language:      d.Language,
	}

	if d.Description.OK() {
		resp.Description = DescriptionBody{Text: d.Description.Text, Cached: d.Description.Cached}
	} else {
		resp.Description = DescriptionBody{Error: newErrorBody(d.Description.Err)}
	}
	return resp
}

func newErrorBody(err error) *ErrorBody {
	body := &ErrorBody{Kind: entity.KindOf(err), Message: err.Error()}

	var stageErr *entity.StageError
	if errors.As(err, &stageErr) {
		body.Stage = stageErr.Stage
	}
	var upstream *entity.UpstreamError
	if errors.As(err, &upstream) {
		body.StatusCode = upstream.StatusCode
	}
	return body
}
