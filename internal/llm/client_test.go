package llm

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
)

func newTestClient(t *testing.T, baseURL string, opts ...Option) *Client {
	t.Helper()
	opts = append([]Option{
		WithAPIConfig(baseURL, "test-model"),
		WithRateLimit(6000, 100),
		WithBackoff(time.Millisecond),
	}, opts...)
	c, err := NewClient("test-key", opts...)
	require.NoError(t, err)
	return c
}

func TestNewClientRequiresKey(t *testing.T) {
	_, err := NewClient("")
	assert.ErrorIs(t, err, ErrNoAPIKey)
}

func TestClientAnthropicRequest(t *testing.T) {
	var got anthropicRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/messages", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("x-api-key"))
		assert.Equal(t, anthropicVersion, r.Header.Get("anthropic-version"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"content":[{"type":"text","text":"{\"ok\":true}"}],"usage":{"input_tokens":12,"output_tokens":3}}`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, WithCostLogging(true))
	text, err := c.Generate(context.Background(), "be terse", "hello", Options{MaxTokens: 1500, Temperature: 1})
	require.NoError(t, err)
	assert.Equal(t, `{"ok":true}`, text)

	assert.Equal(t, "test-model", got.Model)
	assert.Equal(t, "be terse", got.System)
	assert.Equal(t, 1500, got.MaxTokens)
	assert.Equal(t, 1.0, got.Temperature)
	require.Len(t, got.Messages, 1)
	assert.Equal(t, message{Role: "user", Content: "hello"}, got.Messages[0])
}

func TestClientOpenAIRequest(t *testing.T) {
	var got openAIRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/openai/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Write([]byte(`{"choices":[{"message":{"content":"hi"}}],"usage":{"prompt_tokens":1,"completion_tokens":1}}`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL+"/openai/v1")

	text, err := c.Generate(context.Background(), "sys", "usr", Options{Model: "gpt-test"})
	require.NoError(t, err)
	assert.Equal(t, "hi", text)
	assert.Equal(t, "gpt-test", got.Model)
	assert.Equal(t, defaultMaxTokens, got.MaxTokens)
	require.Len(t, got.Messages, 2)
	assert.Equal(t, "system", got.Messages[0].Role)
}

func TestClientStatusClassification(t *testing.T) {
	tests := []struct {
		status int
		kind   TransportKind
		calls  int32
	}{
		{http.StatusUnauthorized, KindAuth, 1},
		{http.StatusBadRequest, KindRequest, 1},
		{http.StatusTooManyRequests, KindRateLimit, 3},
		{http.StatusBadGateway, KindServer, 3},
	}
	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			var calls atomic.Int32
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				calls.Add(1)
				w.WriteHeader(tt.status)
				w.Write([]byte(`{"error":"nope"}`))
			}))
			defer srv.Close()

			c := newTestClient(t, srv.URL, WithRetry(2))
			_, err := c.Generate(context.Background(), "s", "u", Options{})

			var te *TransportError
			require.ErrorAs(t, err, &te)
			assert.Equal(t, tt.kind, te.Kind)
			assert.Equal(t, tt.status, te.StatusCode)
			assert.Equal(t, tt.calls, calls.Load())
		})
	}
}

func TestClientRetriesThenSucceeds(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(`{"content":[{"type":"text","text":"done"}]}`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	text, err := c.Generate(context.Background(), "s", "u", Options{})
	require.NoError(t, err)
	assert.Equal(t, "done", text)
	assert.Equal(t, int32(2), calls.Load())
}

func TestClientEmptyContent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"content":[]}`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, WithRetry(3))
	_, err := c.Generate(context.Background(), "s", "u", Options{})
	assert.ErrorIs(t, err, ErrEmptyReply)
	assert.True(t, IsContractError(err))
	assert.False(t, IsRetryable(err))
}

func TestClientEmptyContentFallsBack(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Write([]byte(`{"content":[{"type":"text","text":""}]}`))
	}))
	defer srv.Close()

	type reply struct {
		Answer string `json:"answer"`
	}
	fallback := reply{Answer: "placeholder"}

	c := newTestClient(t, srv.URL, WithRetry(3))
	res, err := GenerateWithFallback(context.Background(), c, "s", "u", fallback, Options{})
	require.NoError(t, err)
	assert.True(t, res.Degraded())
	assert.Equal(t, fallback, res.Value)
	assert.Equal(t, 2, res.Attempts)
	assert.ErrorIs(t, res.Cause, ErrEmptyReply)
	assert.Equal(t, int32(2), calls.Load())
}
