package telegram

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"golang.org/x/sync/errgroup"

	app "cropscan/internal/application"
	"cropscan/internal/container"
	"cropscan/internal/domain/entity"
)

// maxConcurrent сколько фото обрабатывается одновременно
const maxConcurrent = 4

// botAPI часть tgbotapi.BotAPI, которой пользуется бот
type botAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetFile(config tgbotapi.FileConfig) (tgbotapi.File, error)
}

// fetchFunc скачивает файл Telegram по его ID
type fetchFunc func(ctx context.Context, fileID string) ([]byte, error)

// Bot представляет Telegram-бота
type Bot struct {
	api      *tgbotapi.BotAPI
	client   botAPI
	token    string
	fetch    fetchFunc
	users    *app.UserService
	diagnose *app.DiagnosisService
	maxBytes int64
}

// NewBot создаёт нового бота
func NewBot(token string, c *container.Container, maxBytes int64) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, err
	}

	slog.Info("telegram bot authorized", "account", api.Self.UserName)

	b := &Bot{
		api:      api,
		client:   api,
		token:    token,
		users:    c.UserService,
		diagnose: c.DiagnosisService,
		maxBytes: maxBytes,
	}
	b.fetch = b.downloadFile
	return b, nil
}

// Run запускает основной цикл обработки сообщений до отмены ctx
func (b *Bot) Run(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)
	defer b.api.StopReceivingUpdates()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrent)

	for {
		select {
		case <-ctx.Done():
			return g.Wait()
		case update, ok := <-updates:
			if !ok {
				g.Wait()
				return errors.New("telegram updates channel closed")
			}
			if update.Message == nil || update.Message.From == nil {
				continue
			}
			msg := update.Message
			g.Go(func() error {
				b.handleMessage(gctx, msg)
				return nil
			})
		}
	}
}

// handleMessage обрабатывает входящее сообщение
func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	user, err := b.users.Get(ctx, msg.From.ID, msg.Chat.ID)
	if err != nil {
		slog.Error("get user", "user_id", msg.From.ID, "error", err)
		return
	}

	// Обработка команд
	if msg.IsCommand() {
		b.handleCommand(ctx, msg, user)
		return
	}

	// Обработка фото: сжатое фото или изображение, отправленное файлом
	if fileID, ok := imageFileID(msg); ok {
		b.handlePhoto(ctx, msg, user, fileID)
		return
	}

	if user.State == entity.StateAwaitingLanguage && strings.TrimSpace(msg.Text) != "" {
		b.chooseLanguage(ctx, msg, strings.TrimSpace(msg.Text))
		return
	}

	// Текстовое сообщение (не команда)
	b.sendMessage(msg.Chat.ID, msgSendPhoto)
}

// handleCommand обрабатывает команды бота
func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message, user *entity.User) {
	switch msg.Command() {
	case "start":
		b.users.Cancel(ctx, user.ID, msg.Chat.ID)
		b.sendMessage(msg.Chat.ID, fmt.Sprintf(msgStart, user.Language.Info().DisplayName()))

	case "help":
		b.sendMessage(msg.Chat.ID, msgHelp)

	case "check":
		b.users.BeginCheck(ctx, user.ID, msg.Chat.ID)
		b.sendMessage(msg.Chat.ID, msgAwaitingPhoto)

	case "language":
		if arg := strings.TrimSpace(msg.CommandArguments()); arg != "" {
			b.chooseLanguage(ctx, msg, arg)
			return
		}
		b.users.BeginLanguageChoice(ctx, user.ID, msg.Chat.ID)
		b.sendMessage(msg.Chat.ID, msgChooseLanguage+"\n\n"+formatLanguages(user.Language))

	case "languages":
		b.sendMessage(msg.Chat.ID, formatLanguages(user.Language))

	case "cancel":
		b.users.Cancel(ctx, user.ID, msg.Chat.ID)
		b.sendMessage(msg.Chat.ID, msgCancelled)

	default:
		b.sendMessage(msg.Chat.ID, msgUnknownCommand)
	}
}

// chooseLanguage сохраняет язык; неизвестный код даёт английский с предупреждением
func (b *Bot) chooseLanguage(ctx context.Context, msg *tgbotapi.Message, arg string) {
	user, err := b.users.SetLanguage(ctx, msg.From.ID, msg.Chat.ID, arg)
	if err != nil {
		slog.Error("set language", "user_id", msg.From.ID, "error", err)
		b.sendMessage(msg.Chat.ID, msgInternalError)
		return
	}
	b.sendMessage(msg.Chat.ID, formatLanguageChosen(arg, user.Language))
}

// handlePhoto обрабатывает входящее фото
func (b *Bot) handlePhoto(ctx context.Context, msg *tgbotapi.Message, user *entity.User, fileID string) {
	// Устанавливаем состояние "обработка"
	b.users.SetState(ctx, user.ID, msg.Chat.ID, entity.StateProcessing)
	// Возвращаем в главное меню в любом случае
	defer b.users.Cancel(ctx, user.ID, msg.Chat.ID)

	if _, err := b.client.Request(tgbotapi.NewChatAction(msg.Chat.ID, tgbotapi.ChatTyping)); err != nil {
		slog.Debug("send chat action", "error", err)
	}

	imageData, err := b.fetch(ctx, fileID)
	if err != nil {
		slog.Warn("download photo", "user_id", user.ID, "error", err)
		b.sendMessage(msg.Chat.ID, msgDownloadError)
		return
	}

	diagnosis, err := b.diagnose.Diagnose(ctx, entity.RawImage{Data: imageData}, user.Language)
	if err != nil {
		b.sendMessage(msg.Chat.ID, formatFailure(err))
		return
	}

	b.sendMessage(msg.Chat.ID, formatDiagnosis(diagnosis))
}

// imageFileID выбирает фото с максимальным разрешением или документ-изображение
func imageFileID(msg *tgbotapi.Message) (string, bool) {
	if len(msg.Photo) > 0 {
		return msg.Photo[len(msg.Photo)-1].FileID, true
	}
	if msg.Document != nil && strings.HasPrefix(msg.Document.MimeType, "image/") {
		return msg.Document.FileID, true
	}
	return "", false
}

// downloadFile скачивает файл из Telegram
func (b *Bot) downloadFile(ctx context.Context, fileID string) ([]byte, error) {
	file, err := b.client.GetFile(tgbotapi.FileConfig{FileID: fileID})
	if err != nil {
		return nil, fmt.Errorf("get file: %w", err)
	}
	if b.maxBytes > 0 && int64(file.FileSize) > b.maxBytes {
		return nil, fmt.Errorf("file is %d bytes, limit %d", file.FileSize, b.maxBytes)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, file.Link(b.token), nil)
	if err != nil {
		return nil, err
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download file: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download file: status %d", resp.StatusCode)
	}

	return readLimited(resp.Body, b.maxBytes)
}

func readLimited(r io.Reader, limit int64) ([]byte, error) {
	if limit <= 0 {
		return io.ReadAll(r)
	}
	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}
	if int64(len(data)) > limit {
		return nil, errors.New("file exceeds size limit")
	}
	return data, nil
}

// sendMessage отправляет текстовое сообщение
func (b *Bot) sendMessage(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := b.client.Send(msg); err != nil {
		slog.Error("send message", "chat_id", chatID, "error", err)
	}
}
