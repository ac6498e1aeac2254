package telegram

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"strings"
	"sync"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/require"

	app "cropscan/internal/application"
	"cropscan/internal/domain/entity"
	"cropscan/internal/domain/registry"
	"cropscan/internal/infrastructure/inference"
	"cropscan/internal/infrastructure/storage"
	"cropscan/internal/infrastructure/vision"
)

type fakeAPI struct {
	mu   sync.Mutex
	sent []string
}

func (f *fakeAPI) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if m, ok := c.(tgbotapi.MessageConfig); ok {
		f.sent = append(f.sent, m.Text)
	}
	return tgbotapi.Message{}, nil
}

func (f *fakeAPI) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	return &tgbotapi.APIResponse{Ok: true}, nil
}

func (f *fakeAPI) GetFile(config tgbotapi.FileConfig) (tgbotapi.File, error) {
	return tgbotapi.File{FileID: config.FileID}, nil
}

func (f *fakeAPI) last() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.sent) == 0 {
		return ""
	}
	return f.sent[len(f.sent)-1]
}

type fixedModel struct{ out []float32 }

func (m fixedModel) Run([]float32) ([]float32, error) { return m.out, nil }
func (m fixedModel) OutputSize() int                  { return len(m.out) }
func (m fixedModel) Version() string                  { return "test" }
func (m fixedModel) Close() error                     { return nil }

type fakeDescriber struct {
	res  entity.DescriptionResult
	lang entity.Language
}

func (d *fakeDescriber) Fetch(ctx context.Context, req entity.DescriptionRequest, credential string, timeout time.Duration) entity.DescriptionResult {
	d.lang = req.Language
	return d.res
}

func leafPNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, 64, 48))
	for i := range img.Pix {
		img.Pix[i] = 200
	}
	img.Set(3, 3, color.NRGBA{G: 255, A: 255})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func newTestBot(t *testing.T, describer *fakeDescriber, fetch fetchFunc) (*Bot, *fakeAPI) {
	t.Helper()
	labels := registry.Default()
	engine, err := inference.NewEngine(fixedModel{out: []float32{0.05, 0.9, 0.05}}, labels.Count())
	require.NoError(t, err)

	api := &fakeAPI{}
	return &Bot{
		client: api,
		fetch:  fetch,
		users:  app.NewUserService(storage.NewMemoryUserRepository()),
		diagnose: app.NewDiagnosisService(
			vision.NewNativeDecoder(), vision.NewPreprocessor(), engine, labels, describer,
			app.DiagnosisOptions{Credential: "key", Timeout: time.Second},
		),
	}, api
}

func message(text string) *tgbotapi.Message {
	msg := &tgbotapi.Message{
		Text: text,
		From: &tgbotapi.User{ID: 7},
		Chat: &tgbotapi.Chat{ID: 70},
	}
	if strings.HasPrefix(text, "/") {
		cmd, _, _ := strings.Cut(text, " ")
		msg.Entities = []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: len(cmd)}}
	}
	return msg
}

func photo(fileID string) *tgbotapi.Message {
	msg := message("")
	msg.Photo = []tgbotapi.PhotoSize{{FileID: "small"}, {FileID: fileID}}
	return msg
}

func TestBot_PhotoDiagnosis(t *testing.T) {
	describer := &fakeDescriber{res: entity.DescriptionResult{Text: "Late blight spreads in humid weather."}}
	var fetched string
	bot, api := newTestBot(t, describer, func(ctx context.Context, fileID string) ([]byte, error) {
		fetched = fileID
		return leafPNG(t), nil
	})
	ctx := context.Background()

	bot.handleMessage(ctx, photo("large"))

	require.Equal(t, "large", fetched)
	reply := api.last()
	require.Contains(t, reply, "This is Potato leaf with Barly blight")
	require.Contains(t, reply, "90.0%")
	require.Contains(t, reply, "Late blight spreads in humid weather.")

	user, err := bot.users.Get(ctx, 7, 70)
	require.NoError(t, err)
	require.Equal(t, entity.StateMainMenu, user.State)
}

func TestBot_LanguagePreferenceReachesDescriber(t *testing.T) {
	describer := &fakeDescriber{res: entity.DescriptionResult{Text: "ok"}}
	bot, api := newTestBot(t, describer, func(context.Context, string) ([]byte, error) { return leafPNG(t), nil })
	ctx := context.Background()

	bot.handleMessage(ctx, message("/language hi"))
	require.Contains(t, api.last(), "Hindi")

	bot.handleMessage(ctx, photo("leaf"))
	require.Equal(t, entity.LanguageHindi, describer.lang)
}

func TestBot_LanguageChoiceDialog(t *testing.T) {
	bot, api := newTestBot(t, &fakeDescriber{}, nil)
	ctx := context.Background()

	bot.handleMessage(ctx, message("/language"))
	require.Contains(t, api.last(), "ta — Tamil (தமிழ்)")

	bot.handleMessage(ctx, message("Klingon"))
	require.Contains(t, api.last(), `Unknown language "Klingon"`)

	user, err := bot.users.Get(ctx, 7, 70)
	require.NoError(t, err)
	require.Equal(t, entity.LanguageEnglish, user.Language)
	require.Equal(t, entity.StateMainMenu, user.State)
}

func TestBot_DescriptionFailureKeepsDiagnosis(t *testing.T) {
	describer := &fakeDescriber{res: entity.DescriptionResult{Err: &entity.UpstreamError{StatusCode: 429}}}
	bot, api := newTestBot(t, describer, func(context.Context, string) ([]byte, error) { return leafPNG(t), nil })

	bot.handleMessage(context.Background(), photo("leaf"))

	reply := api.last()
	require.Contains(t, reply, "Potato leaf")
	require.Contains(t, reply, "busy")
}

func TestBot_ClassificationFailure(t *testing.T) {
	bot, api := newTestBot(t, &fakeDescriber{}, func(context.Context, string) ([]byte, error) {
		return []byte("not an image"), nil
	})

	bot.handleMessage(context.Background(), photo("leaf"))
	require.Contains(t, api.last(), "not an image I can read")
}

func TestBot_DownloadFailure(t *testing.T) {
	bot, api := newTestBot(t, &fakeDescriber{}, func(context.Context, string) ([]byte, error) {
		return nil, errors.New("boom")
	})

	bot.handleMessage(context.Background(), photo("leaf"))
	require.Equal(t, msgDownloadError, api.last())
}

func TestBot_Commands(t *testing.T) {
	bot, api := newTestBot(t, &fakeDescriber{}, nil)
	ctx := context.Background()

	bot.handleMessage(ctx, message("/start"))
	require.Contains(t, api.last(), "Description language: English")

	bot.handleMessage(ctx, message("/check"))
	require.Equal(t, msgAwaitingPhoto, api.last())

	bot.handleMessage(ctx, message("/nope"))
	require.Equal(t, msgUnknownCommand, api.last())

	bot.handleMessage(ctx, message("hello"))
	require.Equal(t, msgSendPhoto, api.last())
}

func TestImageFileID(t *testing.T) {
	msg := message("")
	msg.Document = &tgbotapi.Document{FileID: "doc", MimeType: "image/png"}
	id, ok := imageFileID(msg)
	require.True(t, ok)
	require.Equal(t, "doc", id)

	msg.Document.MimeType = "application/pdf"
	_, ok = imageFileID(msg)
	require.False(t, ok)
}

func TestReadLimited(t *testing.T) {
	data, err := readLimited(strings.NewReader("12345"), 5)
	require.NoError(t, err)
	require.Equal(t, "12345", string(data))

	_, err = readLimited(strings.NewReader("123456"), 5)
	require.Error(t, err)
}

func TestFormatDiagnosis(t *testing.T) {
	d := &entity.Diagnosis{
		Label:      entity.DiseaseLabel{Crop: "Corn", Disease: "Common_rust"},
		Confidence: 0.5,
		Description: entity.DescriptionResult{
			Err: entity.ErrTimeout,
		},
	}
	text := formatDiagnosis(d)
	require.Contains(t, text, "This is Corn leaf with Common rust")
	require.Contains(t, text, "50.0%")
	require.Contains(t, text, "did not answer in time")
}

func TestDescribeFailure_Disabled(t *testing.T) {
	require.Contains(t, describeFailure(entity.ErrDescriptionDisabled), "turned off")
	require.Equal(t, "⚠️ Description is unavailable.", describeFailure(errors.New("boom")))
}
