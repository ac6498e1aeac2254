package entity

import (
	"errors"
	"fmt"
)

// Ошибки классификации: прерывают запрос до обращения к внешнему сервису.
var (
	ErrDecode        = errors.New("image decode failed")
	ErrShape         = errors.New("unexpected image shape")
	ErrModelContract = errors.New("model output does not match class registry")
	ErrUnknownClass  = errors.New("class index is not registered")
)

// Ошибки получения описания: классификация при этом сохраняется.
var (
	ErrAuth     = errors.New("description service credential is missing or invalid")
	ErrNetwork  = errors.New("description service is unreachable")
	ErrTimeout  = errors.New("description service timed out")
	ErrUpstream = errors.New("description service returned an error")

	// ErrDescriptionDisabled описание не запрашивалось (запуск без сервиса описаний)
	ErrDescriptionDisabled = errors.New("description service is disabled")
)

// UpstreamError описывает неуспешный ответ сервиса описаний.
type UpstreamError struct {
	StatusCode int
	Message    string
}

func (e *UpstreamError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("upstream error: status %d", e.StatusCode)
	}
	return fmt.Sprintf("upstream error: status %d: %s", e.StatusCode, e.Message)
}

// Is позволяет сравнивать через errors.Is(err, ErrUpstream).
func (e *UpstreamError) Is(target error) bool {
	return target == ErrUpstream
}

// FailureKind стабильное имя вида ошибки для API и логов.
type FailureKind string

const (
	KindNone          FailureKind = ""
	KindDecode        FailureKind = "decode_error"
	KindShape         FailureKind = "shape_error"
	KindModelContract FailureKind = "model_contract_error"
	KindUnknownClass  FailureKind = "unknown_class_error"
	KindAuth          FailureKind = "auth_error"
	KindNetwork       FailureKind = "network_error"
	KindTimeout       FailureKind = "timeout"
	KindUpstream      FailureKind = "upstream_error"
	KindDisabled      FailureKind = "description_disabled"
	KindInternal      FailureKind = "internal_error"
)

var kinds = []struct {
	err  error
	kind FailureKind
}{
	{ErrDecode, KindDecode},
	{ErrShape, KindShape},
	{ErrModelContract, KindModelContract},
	{ErrUnknownClass, KindUnknownClass},
	{ErrAuth, KindAuth},
	{ErrTimeout, KindTimeout},
	{ErrNetwork, KindNetwork},
	{ErrUpstream, KindUpstream},
	{ErrDescriptionDisabled, KindDisabled},
}

// KindOf возвращает вид ошибки. Нераспознанные ошибки считаются внутренними.
func KindOf(err error) FailureKind {
	if err == nil {
		return KindNone
	}
	for _, k := range kinds {
		if errors.Is(err, k.err) {
			return k.kind
		}
	}
	return KindInternal
}

// IsClassificationFailure сообщает, что ошибка относится к этапу классификации.
func IsClassificationFailure(err error) bool {
	switch KindOf(err) {
	case KindDecode, KindShape, KindModelContract, KindUnknownClass:
		return true
	}
	return false
}
