package skills_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/reflex/pkg/adapters/memory"
	"github.com/aretw0/reflex/pkg/domain"
	"github.com/aretw0/reflex/pkg/skills"
)

type chatRequest struct {
	Model    string `json:"model"`
	Messages []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"messages"`
}

func chatServer(t *testing.T, status int, reply string, seen *chatRequest) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		if seen != nil {
			assert.NoError(t, json.NewDecoder(r.Body).Decode(seen))
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(reply))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newHuggingFace(t *testing.T, srv *httptest.Server, mem *memory.Store) *skills.HuggingFace {
	t.Helper()
	hf, err := skills.NewHuggingFace(skills.Deps{Memory: mem}, map[string]any{
		"base_url":    srv.URL,
		"api_key":     "test-key",
		"model":       "test-model",
		"max_history": 2,
	})
	require.NoError(t, err)
	return hf
}

const okReply = `{
	"id": "chatcmpl-1",
	"object": "chat.completion",
	"created": 1,
	"model": "test-model",
	"choices": [{"index": 0, "message": {"role": "assistant", "content": "  It is sunny.  "}, "finish_reason": "stop"}]
}`

func TestHuggingFace_Ask(t *testing.T) {
	ctx := context.Background()
	mem := memory.NewStore()
	require.NoError(t, mem.SetStateParam(ctx, skills.ParamConversationHistory, domain.List(
		domain.List(domain.String("user"), domain.String("hi")),
		domain.List(domain.String("assistant"), domain.String("hello")),
		domain.String("malformed"),
	)))

	var seen chatRequest
	hf := newHuggingFace(t, chatServer(t, http.StatusOK, okReply, &seen), mem)

	got := invoke(t, hf, "ask", domain.String("weather?"))
	assert.Equal(t, domain.String("It is sunny."), got)

	assert.Equal(t, "test-model", seen.Model)
	require.Len(t, seen.Messages, 4)
	assert.Equal(t, "system", seen.Messages[0].Role)
	assert.Equal(t, "hi", seen.Messages[1].Content)
	assert.Equal(t, "hello", seen.Messages[2].Content)
	assert.Equal(t, "user", seen.Messages[3].Role)
	assert.Equal(t, "weather?", seen.Messages[3].Content)

	last, _, _ := mem.GetStateParam(ctx, domain.ParamLastLLMResponse)
	assert.Equal(t, domain.String("It is sunny."), last)

	history, _, _ := mem.GetStateParam(ctx, skills.ParamConversationHistory)
	items, ok := history.AsList()
	require.True(t, ok)
	require.Len(t, items, 2, "history is capped")
	assert.True(t, items[0].Equal(domain.List(domain.String("user"), domain.String("weather?"))))
	assert.True(t, items[1].Equal(domain.List(domain.String("assistant"), domain.String("It is sunny."))))
}

func TestHuggingFace_Failures(t *testing.T) {
	mem := memory.NewStore()

	hf := newHuggingFace(t, chatServer(t, http.StatusServiceUnavailable, `{"error": {"message": "down"}}`, nil), mem)
	assert.Equal(t, domain.String(skills.ReplyError), invoke(t, hf, "ask", domain.String("hello")))

	hf = newHuggingFace(t, chatServer(t, http.StatusOK, `{"id": "x", "choices": []}`, nil), mem)
	assert.Equal(t, domain.String(skills.ReplyNoChoices), invoke(t, hf, "ask", domain.String("hello")))

	assert.Equal(t, domain.String(skills.ReplyEmptyPrompt), invoke(t, hf, "ask", domain.String(" ")))

	_, ok, _ := mem.GetStateParam(context.Background(), domain.ParamLastLLMResponse)
	assert.False(t, ok, "failed answers are not remembered")
}
