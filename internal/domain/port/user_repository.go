package port

import (
	"context"

	"cropscan/internal/domain/entity"
)

// UserRepository интерфейс хранилища пользователей.
// Изменения выполняются атомарно внутри хранилища и возвращают копию
// пользователя после изменения; отсутствующий пользователь создаётся.
type UserRepository interface {
	// Get возвращает пользователя по ID, создаёт нового если не найден
	Get(ctx context.Context, userID, chatID int64) (*entity.User, error)

	// UpdateState обновляет состояние пользователя
	UpdateState(ctx context.Context, userID, chatID int64, state entity.UserState) (*entity.User, error)

	// UpdateLanguage меняет язык и возвращает пользователя в главное меню
	UpdateLanguage(ctx context.Context, userID, chatID int64, lang entity.Language) (*entity.User, error)
}
