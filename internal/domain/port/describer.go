package port

import (
	"context"
	"time"

	"cropscan/internal/domain/entity"
)

// DiseaseDescriber интерфейс сервиса описаний болезней
type DiseaseDescriber interface {
	// Fetch выполняет ровно один запрос и никогда не ждёт дольше timeout
	Fetch(ctx context.Context, req entity.DescriptionRequest, credential string, timeout time.Duration) entity.DescriptionResult
}

// DescriptionCache кэш успешных описаний
type DescriptionCache interface {
	// Get ищет описание по версии модели, метке и языку
	Get(version string, label entity.DiseaseLabel, lang entity.Language) (string, bool)

	// Put сохраняет описание
	Put(version string, label entity.DiseaseLabel, lang entity.Language, text string)
}
