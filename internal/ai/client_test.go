package ai

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNewClient_UnknownType(t *testing.T) {
	_, err := NewClient(Config{Type: "gemini"}, zap.NewNop())
	assert.Error(t, err)
}

func TestNewClient_OpenAIRequiresKey(t *testing.T) {
	_, err := NewClient(Config{Type: "openai", Model: "gpt-4o-mini"}, zap.NewNop())
	assert.Error(t, err)
}

func TestOllamaClient_GenerateText(t *testing.T) {
	var captured map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/chat", r.URL.Path)
		body, _ := io.ReadAll(r.Body)
		assert.NoError(t, json.Unmarshal(body, &captured))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"model":"llama3","message":{"role":"assistant","content":"  A fine day at Waterloo.  "},"done":true,"prompt_eval_count":12,"eval_count":7}`))
	}))
	defer srv.Close()

	client, err := NewClient(Config{Type: "ollama", BaseURL: srv.URL + "/v1", Model: "llama3", Timeout: 5 * time.Second}, zap.NewNop())
	require.NoError(t, err)

	text, usage, err := client.GenerateText(context.Background(), "alice", "", "write", GenerationParams{Temperature: Float64(0.2), JSONMode: true})
	require.NoError(t, err)
	assert.Equal(t, "A fine day at Waterloo.", text)
	assert.Equal(t, 19, usage.TotalTokens)

	assert.Equal(t, "llama3", captured["model"])
	assert.Equal(t, "json", captured["format"])
	assert.Equal(t, false, captured["stream"])
	options, ok := captured["options"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, 0.2, options["temperature"])
	_, hasPredict := options["num_predict"]
	assert.False(t, hasPredict)
}

func TestOllamaClient_Errors(t *testing.T) {
	t.Run("Empty response", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"model":"llama3","message":{"role":"assistant","content":""},"done":true}`))
		}))
		defer srv.Close()

		client, err := NewClient(Config{Type: "ollama", BaseURL: srv.URL, Model: "llama3"}, zap.NewNop())
		require.NoError(t, err)
		_, _, err = client.GenerateText(context.Background(), "u", "sys", "", GenerationParams{})
		assert.ErrorIs(t, err, ErrAIGenerationFailed)
	})

	t.Run("Server error", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte(`{"error":"model not loaded"}`))
		}))
		defer srv.Close()

		client, err := NewClient(Config{Type: "ollama", BaseURL: srv.URL, Model: "llama3"}, zap.NewNop())
		require.NoError(t, err)
		_, _, err = client.GenerateText(context.Background(), "u", "sys", "", GenerationParams{})
		assert.ErrorIs(t, err, ErrAIGenerationFailed)
	})

	t.Run("Empty prompt", func(t *testing.T) {
		client, err := NewClient(Config{Type: "ollama", BaseURL: "http://127.0.0.1:1", Model: "llama3"}, zap.NewNop())
		require.NoError(t, err)
		_, _, err = client.GenerateText(context.Background(), "u", " ", "", GenerationParams{})
		assert.ErrorIs(t, err, ErrAIGenerationFailed)
	})
}

func TestOpenAIClient_GenerateText(t *testing.T) {
	var captured map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		body, _ := io.ReadAll(r.Body)
		assert.NoError(t, json.Unmarshal(body, &captured))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"c1","object":"chat.completion","model":"m","choices":[{"index":0,"message":{"role":"assistant","content":"{\"sentiment\":\"positive\"}"},"finish_reason":"stop"}],"usage":{"prompt_tokens":3,"completion_tokens":2,"total_tokens":5}}`))
	}))
	defer srv.Close()

	client, err := NewClient(Config{Type: "openai", BaseURL: srv.URL + "/v1", Model: "m", APIKey: "test-key", Timeout: 5 * time.Second}, zap.NewNop())
	require.NoError(t, err)

	text, usage, err := client.GenerateText(context.Background(), "scraper", "classify", "post", GenerationParams{JSONMode: true})
	require.NoError(t, err)
	assert.Equal(t, `{"sentiment":"positive"}`, text)
	assert.Equal(t, 5, usage.TotalTokens)
	assert.False(t, usage.Estimated)

	format, ok := captured["response_format"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "json_object", format["type"])
	messages, ok := captured["messages"].([]any)
	require.True(t, ok)
	assert.Len(t, messages, 2)
}
