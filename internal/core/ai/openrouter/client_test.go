package openrouter

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"sipsync/internal/core/ai/provider"
	"sipsync/internal/pkg/common"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(Config{APIKey: "sk-test", Model: "test-model", BaseURL: srv.URL, Timeout: 2 * time.Second})
}

func TestGenerate(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))

		var body Request
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "test-model", body.Model)
		assert.Equal(t, 200, body.MaxTokens)
		assert.Equal(t, 0.7, body.Temperature)
		require.Len(t, body.Messages, 1)
		assert.Equal(t, "hello", body.Messages[0].Content)

		_, _ = w.Write([]byte(`{"id":"1","choices":[{"message":{"role":"assistant","content":"  hi there "}}],"usage":{"total_tokens":7}}`))
	})

	resp, err := c.Generate(context.Background(), provider.UserPrompt("hello", 200, 0.7))
	require.NoError(t, err)
	assert.Equal(t, "hi there", resp.Content)
	assert.Equal(t, 7, resp.Usage.TotalTokens)
	assert.Equal(t, "openrouter", c.Name())
	assert.NoError(t, c.Close())
}

func TestGenerateFailures(t *testing.T) {
	tests := []struct {
		name string
		code int
		body string
		kind common.CollaboratorKind
	}{
		{"status", http.StatusTooManyRequests, `{"error":"rate limited"}`, common.KindStatus},
		{"malformed", http.StatusOK, `<html>`, common.KindMalformed},
		{"no choices", http.StatusOK, `{"choices":[]}`, common.KindDeclined},
		{"empty content", http.StatusOK, `{"choices":[{"message":{"content":"  "}}]}`, common.KindDeclined},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.code)
				_, _ = w.Write([]byte(tt.body))
			})

			_, err := c.Generate(context.Background(), provider.UserPrompt("hello", 10, 0))
			ce, ok := common.AsCollaboratorError(err)
			require.True(t, ok)
			assert.Equal(t, tt.kind, ce.Kind)
			assert.True(t, ce.Reachable())
		})
	}
}

func TestGenerateTimeout(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(time.Second):
		}
	})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := c.Generate(ctx, provider.UserPrompt("hello", 10, 0))
	ce, ok := common.AsCollaboratorError(err)
	require.True(t, ok)
	assert.Equal(t, common.KindTimeout, ce.Kind)
	assert.False(t, ce.Reachable())
}

func TestGenerateWithoutKey(t *testing.T) {
	c := NewClient(Config{BaseURL: "http://127.0.0.1:1"})
	_, err := c.Generate(context.Background(), provider.UserPrompt("hello", 10, 0))
	assert.True(t, common.IsConfigError(err))
}
