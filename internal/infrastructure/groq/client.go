// Package groq получает описания болезней у OpenAI-совместимого сервиса чата.
package groq

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"
	"unicode"

	"cropscan/internal/domain/entity"
	"cropscan/internal/domain/port"
)

const (
	DefaultEndpoint = "https://api.groq.com/openai/v1/chat/completions"
	DefaultModel    = "llama3-8b-8192"
	DefaultTimeout  = 15 * time.Second

	maxResponseSize = 1 << 20
	maxErrorMessage = 200
)

// Client клиент сервиса описаний. Повторов не делает.
type Client struct {
	endpoint string
	model    string
	http     *http.Client
}

// NewClient создаёт клиента. Пустые endpoint и model заменяются значениями Groq по умолчанию.
func NewClient(endpoint, model string, httpClient *http.Client) *Client {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	if model == "" {
		model = DefaultModel
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{endpoint: endpoint, model: model, http: httpClient}
}

// ValidateCredential проверяет ключ до обращения к сети.
func ValidateCredential(credential string) error {
	if strings.TrimSpace(credential) == "" {
		return fmt.Errorf("%w: empty credential", entity.ErrAuth)
	}
	for _, r := range credential {
		if unicode.IsSpace(r) || unicode.IsControl(r) {
			return fmt.Errorf("%w: credential contains whitespace or control characters", entity.ErrAuth)
		}
	}
	return nil
}

// Fetch выполняет один запрос описания, ограниченный timeout.
func (c *Client) Fetch(ctx context.Context, req entity.DescriptionRequest, credential string, timeout time.Duration) entity.DescriptionResult {
	if err := ValidateCredential(credential); err != nil {
		return entity.DescriptionResult{Err: err}
	}

	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	start := time.Now()
	text, err := c.complete(ctx, req.Prompt, credential)
	if err != nil {
		slog.Debug("description fetch failed", "kind", entity.KindOf(err), "elapsed", time.Since(start), "error", err)
		return entity.DescriptionResult{Err: err}
	}

	slog.Debug("description fetched", "elapsed", time.Since(start), "length", len(text))
	return entity.DescriptionResult{Text: text}
}

func (c *Client) complete(ctx context.Context, prompt, credential string) (string, error) {
	body, err := json.Marshal(ChatCompletionRequest{
		Model:    c.model,
		Messages: []Message{{Role: "user", Content: prompt}},
	})
	if err != nil {
		return "", err
	}

	request, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("%w: %v", entity.ErrNetwork, err)
	}
	request.Header.Set("Authorization", "Bearer "+credential)
	request.Header.Set("Content-Type", "application/json")
	request.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(request)
	if err != nil {
		return "", transportError(ctx, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return "", transportError(ctx, err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", checkError(resp.StatusCode, data)
	}

	var completion ChatCompletion
	if err := json.Unmarshal(data, &completion); err != nil {
		return "", &entity.UpstreamError{StatusCode: resp.StatusCode, Message: "decode response: " + err.Error()}
	}
	if len(completion.Choices) == 0 {
		return "", &entity.UpstreamError{StatusCode: resp.StatusCode, Message: "response has no choices"}
	}

	text := strings.TrimSpace(completion.Choices[0].Message.Content)
	if text == "" {
		return "", &entity.UpstreamError{StatusCode: resp.StatusCode, Message: "response has no content"}
	}
	return text, nil
}

// transportError различает истечение таймаута и прочие сбои соединения,
// включая отмену контекста вызывающей стороной.
func transportError(ctx context.Context, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%w: %w", entity.ErrTimeout, err)
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return fmt.Errorf("%w: %w", entity.ErrTimeout, err)
	}

	return fmt.Errorf("%w: %w", entity.ErrNetwork, err)
}

func checkError(status int, body []byte) error {
	var resp errorResponse
	msg := ""
	if err := json.Unmarshal(body, &resp); err == nil {
		msg = resp.Error.Message
	}
	if msg == "" {
		msg = strings.TrimSpace(string(body))
	}
	if len(msg) > maxErrorMessage {
		msg = msg[:maxErrorMessage]
	}
	return &entity.UpstreamError{StatusCode: status, Message: msg}
}

var _ port.DiseaseDescriber = (*Client)(nil)
