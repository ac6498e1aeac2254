package groq

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cropscan/internal/domain/entity"
)

var request = entity.DescriptionRequest{
	Label:    entity.DiseaseLabel{Crop: "Tomato", Disease: "Bacterial_spot"},
	Language: entity.LanguageEnglish,
	Prompt:   "Describe the plant disease: Bacterial spot.",
}

func TestFetch_Success(t *testing.T) {
	var got ChatCompletionRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"1","choices":[{"index":0,"message":{"role":"assistant","content":"  Small dark lesions.  "}}]}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "test-model", server.Client())
	res := client.Fetch(context.Background(), request, "secret", time.Second)

	require.True(t, res.OK())
	require.Equal(t, "Small dark lesions.", res.Text)
	require.Equal(t, "test-model", got.Model)
	require.Len(t, got.Messages, 1)
	require.Equal(t, "user", got.Messages[0].Role)
	require.Equal(t, request.Prompt, got.Messages[0].Content)
}

func TestFetch_StatusErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		msg    string
	}{
		{"rate limited", http.StatusTooManyRequests, `{"error":{"message":"Rate limit reached","type":"tokens"}}`, "Rate limit reached"},
		{"unauthorized", http.StatusUnauthorized, `{"error":{"message":"Invalid API Key"}}`, "Invalid API Key"},
		{"server error", http.StatusInternalServerError, `oops`, "oops"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer server.Close()

			res := NewClient(server.URL, "", server.Client()).Fetch(context.Background(), request, "secret", time.Second)

			var upstream *entity.UpstreamError
			require.ErrorAs(t, res.Err, &upstream)
			require.Equal(t, tt.status, upstream.StatusCode)
			require.Equal(t, tt.msg, upstream.Message)
			require.Equal(t, entity.KindUpstream, res.Kind())
		})
	}
}

func TestFetch_MalformedSuccess(t *testing.T) {
	bodies := []string{
		`not json`,
		`{"choices":[]}`,
		`{"choices":[{"message":{"role":"assistant"}}]}`,
	}
	for _, body := range bodies {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(body))
		}))

		res := NewClient(server.URL, "", server.Client()).Fetch(context.Background(), request, "secret", time.Second)
		server.Close()

		var upstream *entity.UpstreamError
		require.ErrorAs(t, res.Err, &upstream, body)
		require.Equal(t, http.StatusOK, upstream.StatusCode)
	}
}

func TestFetch_AuthErrorSkipsNetwork(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))
	defer server.Close()

	client := NewClient(server.URL, "", server.Client())
	for _, cred := range []string{"", "   ", "sec ret", "secret\n"} {
		res := client.Fetch(context.Background(), request, cred, time.Second)
		require.ErrorIs(t, res.Err, entity.ErrAuth, "%q", cred)
	}
	require.Zero(t, calls.Load())
}

func TestFetch_Timeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(5 * time.Second):
		}
	}))
	defer server.Close()

	start := time.Now()
	res := NewClient(server.URL, "", server.Client()).Fetch(context.Background(), request, "secret", 50*time.Millisecond)

	require.ErrorIs(t, res.Err, entity.ErrTimeout)
	require.Equal(t, entity.KindTimeout, res.Kind())
	require.Less(t, time.Since(start), 2*time.Second)
}

func TestFetch_NetworkError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	res := NewClient(url, "", nil).Fetch(context.Background(), request, "secret", time.Second)
	require.ErrorIs(t, res.Err, entity.ErrNetwork)
}

func TestFetch_CallerCancellation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(5 * time.Second):
		}
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(30*time.Millisecond, cancel)

	start := time.Now()
	res := NewClient(server.URL, "", server.Client()).Fetch(ctx, request, "secret", 10*time.Second)

	require.ErrorIs(t, res.Err, entity.ErrNetwork)
	require.ErrorIs(t, res.Err, context.Canceled)
	require.Less(t, time.Since(start), 2*time.Second)
}

func TestNewClient_Defaults(t *testing.T) {
	c := NewClient("", "", nil)
	require.Equal(t, DefaultEndpoint, c.endpoint)
	require.Equal(t, DefaultModel, c.model)
	require.Equal(t, http.DefaultClient, c.http)
}
