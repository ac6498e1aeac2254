package app

import (
	"context"

	"cropscan/internal/domain/entity"
	"cropscan/internal/domain/port"
)

type UserService struct {
	repo port.UserRepository
}

func NewUserService(repo port.UserRepository) *UserService {
	return &UserService{repo: repo}
}

func (s *UserService) Get(ctx context.Context, userID, chatID int64) (*entity.User, error) {
	return s.repo.Get(ctx, userID, chatID)
}

func (s *UserService) SetState(ctx context.Context, userID, chatID int64, state entity.UserState) (*entity.User, error) {
	return s.repo.UpdateState(ctx, userID, chatID, state)
}

// SetLanguage сохраняет выбранный язык и возвращает пользователя в главное меню.
// Неизвестный код заменяется английским.
func (s *UserService) SetLanguage(ctx context.Context, userID, chatID int64, code string) (*entity.User, error) {
	return s.repo.UpdateLanguage(ctx, userID, chatID, entity.ParseLanguage(code))
}

func (s *UserService) BeginCheck(ctx context.Context, userID, chatID int64) (*entity.User, error) {
	return s.SetState(ctx, userID, chatID, entity.StateAwaitingPhoto)
}

func (s *UserService) BeginLanguageChoice(ctx context.Context, userID, chatID int64) (*entity.User, error) {
	return s.SetState(ctx, userID, chatID, entity.StateAwaitingLanguage)
}

func (s *UserService) Cancel(ctx context.Context, userID, chatID int64) (*entity.User, error) {
	return s.SetState(ctx, userID, chatID, entity.StateMainMenu)
}
