package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/FedericoTs/LinkedinAnalytics/domain/content"
)

type chatServer struct {
	body   map[string]interface{}
	status int
	reply  string
}

func (s *chatServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/v1/chat/completions" {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	_ = json.NewDecoder(r.Body).Decode(&s.body)

	w.Header().Set("Content-Type", "application/json")
	if s.status != 0 {
		w.WriteHeader(s.status)
	}
	_, _ = w.Write([]byte(s.reply))
}

func newTestClient(t *testing.T, srv *chatServer) *Client {
	t.Helper()
	ts := httptest.NewServer(srv)
	t.Cleanup(ts.Close)

	c, err := NewClient(Config{APIKey: "sk-test", BaseURL: ts.URL + "/v1/", Retries: 0}, zap.NewNop())
	require.NoError(t, err)
	return c
}

const okReply = `{
  "id": "chatcmpl-1",
  "object": "chat.completion",
  "created": 1700000000,
  "model": "gpt-4o-mini-2024-07-18",
  "choices": [{
    "index": 0,
    "finish_reason": "stop",
    "message": {"role": "assistant", "content": "  Five lessons from shipping graphs.\n#Data  "}
  }],
  "usage": {"prompt_tokens": 42, "completion_tokens": 18, "total_tokens": 60}
}`

func TestGenerate(t *testing.T) {
	srv := &chatServer{reply: okReply}
	client := newTestClient(t, srv)

	got, err := client.Generate(context.Background(), "Create a professional post", content.CompletionParams{
		Model:       "gpt-4o-mini",
		MaxTokens:   500,
		Temperature: 0.4,
	})
	require.NoError(t, err)

	assert.Equal(t, "Five lessons from shipping graphs.\n#Data", got.Text)
	assert.Equal(t, "gpt-4o-mini-2024-07-18", got.Model)
	assert.Equal(t, int64(42), got.Usage.PromptTokens)
	assert.Equal(t, int64(18), got.Usage.CompletionTokens)
	assert.Equal(t, int64(60), got.Usage.TotalTokens)

	assert.Equal(t, "gpt-4o-mini", srv.body["model"])
	assert.EqualValues(t, 500, srv.body["max_completion_tokens"])
	assert.InDelta(t, 0.4, srv.body["temperature"], 1e-9)

	messages, ok := srv.body["messages"].([]interface{})
	require.True(t, ok)
	require.Len(t, messages, 2)
	assert.Equal(t, "system", messages[0].(map[string]interface{})["role"])
	user := messages[1].(map[string]interface{})
	assert.Equal(t, "user", user["role"])
	assert.Equal(t, "Create a professional post", user["content"])
}

func TestGenerateProviderMessage(t *testing.T) {
	srv := &chatServer{
		status: http.StatusBadRequest,
		reply:  `{"error": {"message": "The model 'gpt-x' does not exist", "type": "invalid_request_error", "code": "model_not_found"}}`,
	}
	client := newTestClient(t, srv)

	_, err := client.Generate(context.Background(), "prompt", content.CompletionParams{Model: "gpt-x", Temperature: 0.7})
	require.Error(t, err)
	assert.Equal(t, "The model 'gpt-x' does not exist", err.Error())
}

func TestGenerateNoChoices(t *testing.T) {
	srv := &chatServer{reply: `{"id":"x","object":"chat.completion","model":"gpt-4o-mini","choices":[],"usage":{}}`}
	client := newTestClient(t, srv)

	_, err := client.Generate(context.Background(), "prompt", content.CompletionParams{Model: "gpt-4o-mini"})
	assert.ErrorIs(t, err, ErrEmptyCompletion)
}

func TestNewClientRequiresKey(t *testing.T) {
	_, err := NewClient(Config{}, nil)
	assert.Error(t, err)
}
