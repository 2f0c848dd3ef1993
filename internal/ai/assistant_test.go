package ai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"innovatefund/internal/config"
)

func newTestAssistant(t *testing.T, handler http.HandlerFunc) *Assistant {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return NewAssistant(config.AIConfig{
		BaseURL: srv.URL,
		APIKey:  "test-key",
		Model:   "test-model",
	})
}

func TestCompleteHappyPath(t *testing.T) {
	assistant := newTestAssistant(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var req struct {
			Model    string    `json:"model"`
			Messages []Message `json:"messages"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "test-model", req.Model)
		require.Len(t, req.Messages, 1)

		json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": Message{Role: "assistant", Content: "Solar roads look promising."}},
			},
		})
	})

	reply, err := assistant.Complete(context.Background(), []Message{
		{Role: "user", Content: "What do you think of solar roads?"},
	})
	require.NoError(t, err)
	assert.Equal(t, "Solar roads look promising.", reply)
}

func TestCompleteProviderError(t *testing.T) {
	assistant := newTestAssistant(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]string{"message": "rate limited"},
		})
	})

	_, err := assistant.Complete(context.Background(), []Message{{Role: "user", Content: "hi"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rate limited")
}

func TestCompleteEmptyChoices(t *testing.T) {
	assistant := newTestAssistant(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"choices": []any{}})
	})

	_, err := assistant.Complete(context.Background(), []Message{{Role: "user", Content: "hi"}})
	assert.Error(t, err)
}
