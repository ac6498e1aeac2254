package storage

import (
	"context"
	"sync"

	"cropscan/internal/domain/entity"
	"cropscan/internal/domain/port"
)

// MemoryUserRepository in-memory хранилище пользователей
type MemoryUserRepository struct {
	mu    sync.RWMutex
	users map[int64]*entity.User
}

// NewMemoryUserRepository создаёт новое in-memory хранилище
func NewMemoryUserRepository() *MemoryUserRepository {
	return &MemoryUserRepository{
		users: make(map[int64]*entity.User),
	}
}

// Get возвращает копию пользователя по ID, создаёт нового если не найден
func (r *MemoryUserRepository) Get(ctx context.Context, userID, chatID int64) (*entity.User, error) {
	r.mu.RLock()
	user, exists := r.users[userID]
	r.mu.RUnlock()

	if exists {
		u := *user
		return &u, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	// Другая горутина могла успеть создать пользователя
	u := *r.lookup(userID, chatID)
	return &u, nil
}

// UpdateState обновляет состояние пользователя
func (r *MemoryUserRepository) UpdateState(ctx context.Context, userID, chatID int64, state entity.UserState) (*entity.User, error) {
	return r.update(userID, chatID, func(u *entity.User) {
		u.SetState(state)
	}), nil
}

// UpdateLanguage меняет язык и сбрасывает состояние под одной блокировкой
func (r *MemoryUserRepository) UpdateLanguage(ctx context.Context, userID, chatID int64, lang entity.Language) (*entity.User, error) {
	return r.update(userID, chatID, func(u *entity.User) {
		u.SetLanguage(lang)
		u.SetState(entity.StateMainMenu)
	}), nil
}

func (r *MemoryUserRepository) update(userID, chatID int64, apply func(*entity.User)) *entity.User {
	r.mu.Lock()
	defer r.mu.Unlock()

	user := r.lookup(userID, chatID)
	apply(user)

	u := *user
	return &u
}

// lookup вызывается под r.mu
func (r *MemoryUserRepository) lookup(userID, chatID int64) *entity.User {
	if user, exists := r.users[userID]; exists {
		return user
	}
	user := entity.NewUser(userID, chatID)
	r.users[userID] = user
	return user
}

// Проверка реализации интерфейса
var _ port.UserRepository = (*MemoryUserRepository)(nil)
