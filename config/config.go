package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	DefaultHTTPAddr           = ":8080"
	DefaultModelPath          = "models/plant_disease.onnx"
	DefaultSecretsFile        = "secrets.yaml"
	DefaultDescriptionTimeout = 15 * time.Second
	DefaultMaxImageBytes      = 10 << 20
	DefaultMaxImagePixels     = 25_000_000

	credentialKey = "GROQ_API_KEY"
)

// ErrNoCredential ключ сервиса описаний не найден ни в одном источнике.
var ErrNoCredential = errors.New("description service credential is not configured")

type Config struct {
	TelegramToken  string
	HTTPAddr       string
	CORSOrigins    []string
	MaxImageBytes  int64
	MaxImagePixels int64 // предел width*height, проверяется по заголовку до декодирования

	ModelPath      string
	ModelMetadata  string // yaml с таблицей классов; пусто - встроенная таблица
	ONNXRuntimeLib string
	Decoder        string // native | gocv

	DescriptionEndpoint string
	DescriptionModel    string
	DescriptionTimeout  time.Duration
	DescriptionCache    bool

	LogLevel slog.Level
}

func Load() (*Config, error) {
	// Загружаем .env файл (игнорируем ошибку если файла нет)
	_ = godotenv.Load()

	timeout, err := Duration("DESCRIPTION_TIMEOUT", DefaultDescriptionTimeout)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		TelegramToken:  Var("TELEGRAM_TOKEN"),
		HTTPAddr:       String("HTTP_ADDR", DefaultHTTPAddr),
		CORSOrigins:    List("CORS_ORIGINS"),
		MaxImageBytes:  Int64("MAX_IMAGE_BYTES", DefaultMaxImageBytes),
		MaxImagePixels: Int64("MAX_IMAGE_PIXELS", DefaultMaxImagePixels),

		ModelPath:      String("MODEL_PATH", DefaultModelPath),
		ModelMetadata:  Var("MODEL_METADATA"),
		ONNXRuntimeLib: Var("ONNXRUNTIME_LIB"),
		Decoder:        String("DECODER", "native"),

		DescriptionEndpoint: Var("DESCRIPTION_ENDPOINT"),
		DescriptionModel:    Var("DESCRIPTION_MODEL"),
		DescriptionTimeout:  timeout,
		DescriptionCache:    Bool("DESCRIPTION_CACHE", true),

		LogLevel: LogLevel(),
	}

	return cfg, nil
}

// ResolveCredential ищет ключ один раз при старте: переменная GROQ_API_KEY,
// затем файл из GROQ_API_KEY_FILE, затем yaml из SECRETS_FILE.
func ResolveCredential() (string, error) {
	if key := Var(credentialKey); key != "" {
		return key, nil
	}

	if path := Var(credentialKey + "_FILE"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("read %s: %w", credentialKey+"_FILE", err)
		}
		if key := strings.TrimSpace(string(data)); key != "" {
			return key, nil
		}
	}

	path := String("SECRETS_FILE", DefaultSecretsFile)
	key, err := readSecret(path, credentialKey)
	switch {
	case errors.Is(err, os.ErrNotExist):
		return "", fmt.Errorf("%w: set %s, %s_FILE or %s", ErrNoCredential, credentialKey, credentialKey, path)
	case err != nil:
		return "", err
	case key == "":
		return "", fmt.Errorf("%w: %s has no %s", ErrNoCredential, path, credentialKey)
	}
	return key, nil
}

func readSecret(path, key string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}

	var secrets map[string]string
	if err := yaml.Unmarshal(data, &secrets); err != nil {
		return "", fmt.Errorf("parse secrets file %s: %w", path, err)
	}
	return strings.TrimSpace(secrets[key]), nil
}

// LogLevel уровень логирования из LOG_LEVEL: debug, info, warn, error.
func LogLevel() slog.Level {
	level := slog.LevelInfo
	if s := Var("LOG_LEVEL"); s != "" {
		if err := level.UnmarshalText([]byte(s)); err != nil {
			slog.Warn("invalid LOG_LEVEL, using info", "value", s)
			return slog.LevelInfo
		}
	}
	return level
}

// NewLogger JSON логгер в stderr.
func NewLogger(level slog.Level) *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// Var значение переменной окружения без пробелов и кавычек по краям.
func Var(key string) string {
	return strings.Trim(strings.TrimSpace(os.Getenv(key)), "\"'")
}

func String(key, defaultValue string) string {
	if s := Var(key); s != "" {
		return s
	}
	return defaultValue
}

func Bool(key string, defaultValue bool) bool {
	if s := Var(key); s != "" {
		b, err := strconv.ParseBool(s)
		if err != nil {
			slog.Warn("invalid environment variable, using default", "key", key, "value", s, "default", defaultValue)
			return defaultValue
		}
		return b
	}
	return defaultValue
}

func Int64(key string, defaultValue int64) int64 {
	if s := Var(key); s != "" {
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil || n <= 0 {
			slog.Warn("invalid environment variable, using default", "key", key, "value", s, "default", defaultValue)
			return defaultValue
		}
		return n
	}
	return defaultValue
}

// Duration в отличие от остальных геттеров возвращает ошибку:
// неверный таймаут считается ошибкой конфигурации.
func Duration(key string, defaultValue time.Duration) (time.Duration, error) {
	s := Var(key)
	if s == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		// Число без единиц трактуем как секунды
		n, nerr := strconv.ParseInt(s, 10, 64)
		if nerr != nil {
			return 0, fmt.Errorf("invalid %s %q: %w", key, s, err)
		}
		d = time.Duration(n) * time.Second
	}
	if d <= 0 {
		return 0, fmt.Errorf("invalid %s %q: must be positive", key, s)
	}
	return d, nil
}

// List значения через запятую без пустых элементов.
func List(key string) []string {
	var out []string
	for _, s := range strings.Split(Var(key), ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
