package entity

// UserState состояние пользователя в диалоге
type UserState string

const (
	StateMainMenu         UserState = "main_menu"         // В главном меню
	StateAwaitingPhoto    UserState = "awaiting_photo"    // Ожидание фото листа
	StateAwaitingLanguage UserState = "awaiting_language" // Ожидание выбора языка
	StateProcessing       UserState = "processing"        // Обработка изображения
)

// User представляет пользователя бота
type User struct {
	ID       int64     // Telegram User ID
	ChatID   int64     // Telegram Chat ID
	State    UserState // Текущее состояние пользователя
	Language Language  // Язык описания болезни
}

// NewUser создаёт нового пользователя с начальным состоянием
func NewUser(userID, chatID int64) *User {
	return &User{
		ID:       userID,
		ChatID:   chatID,
		State:    StateMainMenu,
		Language: DefaultLanguage,
	}
}

// SetState обновляет состояние пользователя
func (u *User) SetState(state UserState) {
	u.State = state
}

// SetLanguage выбирает язык; неподдерживаемый код заменяется языком по умолчанию
func (u *User) SetLanguage(lang Language) Language {
	if !lang.Supported() {
		lang = DefaultLanguage
	}
	u.Language = lang
	return u.Language
}
