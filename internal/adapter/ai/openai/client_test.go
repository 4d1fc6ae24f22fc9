package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voxprep/interview-evaluator/internal/domain"
)

func TestChatReturnsCompletion(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/chat/completions", r.URL.Path)
		require.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		var req map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "gpt-4", req["model"])
		assert.InDelta(t, 0.5, req["temperature"].(float64), 1e-9)
		assert.InDelta(t, 1000, req["max_tokens"].(float64), 1e-9)
		msgs := req["messages"].([]any)
		require.Len(t, msgs, 2)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"content": "Score: 85/100\n\nKey Points:\n- solid answer"}},
			},
		})
	}))
	defer srv.Close()

	c := New(srv.URL, "sk-test", "gpt-4", 0)
	got, err := c.Chat(context.Background(), "You are an interviewer.", "Evaluate this.", 0.5, 1000)
	require.NoError(t, err)
	assert.Contains(t, got, "Key Points:")
}

func TestChatMissingKey(t *testing.T) {
	t.Parallel()
	c := New("http://localhost", "", "gpt-4", 0)
	_, err := c.Chat(context.Background(), "sys", "user", 0.5, 100)
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)
}

func TestChatRateLimited(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := New(srv.URL, "sk-test", "gpt-4", 0)
	_, err := c.Chat(context.Background(), "sys", "user", 0.5, 100)
	assert.ErrorIs(t, err, domain.ErrRateLimited)
}

func TestChatEmptyCompletion(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"choices": []any{}})
	}))
	defer srv.Close()

	c := New(srv.URL, "sk-test", "gpt-4", 0)
	_, err := c.Chat(context.Background(), "sys", "user", 0.5, 100)
	assert.ErrorIs(t, err, domain.ErrExternalService)
}

func TestChatPromptBudget(t *testing.T) {
	t.Parallel()
	longUser := strings.Repeat("the candidate said many things ", 200)
	var gotUser string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Messages []struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"messages"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Len(t, req.Messages, 2)
		gotUser = req.Messages[1].Content
		assert.Equal(t, "sys", req.Messages[0].Content)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"content": "ok"}},
			},
		})
	}))
	defer srv.Close()

	c := New(srv.URL, "sk-test", "gpt-4", 50)
	got, err := c.Chat(context.Background(), "sys", longUser, 0.5, 100)
	require.NoError(t, err)
	assert.Equal(t, "ok", got)
	assert.Less(t, len(gotUser), len(longUser))
	assert.True(t, strings.HasPrefix(longUser, gotUser))
}

func TestChatPromptBudgetUntouchedUnderCap(t *testing.T) {
	t.Parallel()
	var gotUser string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Messages []struct {
				Content string `json:"content"`
			} `json:"messages"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		gotUser = req.Messages[1].Content
		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"content": "ok"}},
			},
		})
	}))
	defer srv.Close()

	c := New(srv.URL, "sk-test", "gpt-4", 10000)
	_, err := c.Chat(context.Background(), "sys", "short answer", 0.5, 100)
	require.NoError(t, err)
	assert.Equal(t, "short answer", gotUser)
}
