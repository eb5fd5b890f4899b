package skills

import (
	"context"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"

	"github.com/aretw0/reflex/internal/dto"
	"github.com/aretw0/reflex/pkg/domain"
	"github.com/aretw0/reflex/pkg/registry"
)

// Defaults for the HuggingFace router, which speaks the OpenAI chat API.
const (
	DefaultLLMBaseURL = "https://router.huggingface.co/v1"
	DefaultLLMModel   = "openai/gpt-oss-20b:together"
	DefaultAPIKeyEnv  = "HF_TOKEN"

	// ParamConversationHistory holds a list of [role, content] pairs.
	ParamConversationHistory = "conversationHistory"

	defaultSystemPrompt = "You are a helpful robot assistant. The user's current question is the most recent message. " +
		"Previous messages provide context from our conversation history. " +
		"Keep your answers short, don't use formatting or try to list things, keep a natural flow of conversation"
)

// Replies spoken when the model cannot answer.
const (
	ReplyEmptyPrompt = "Sorry, I received an empty prompt."
	ReplyError       = "Sorry, I encountered an error while processing your request."
	ReplyNoChoices   = "Sorry, I didn't receive a proper response from the AI service."
)

type chatClient interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// HuggingFace answers prompts with a hosted LLM, using the conversation
// history kept in Memory as context. ask never fails; errors become an
// apology the robot can speak.
type HuggingFace struct {
	base
	opts   dto.LLMOptions
	client chatClient
}

// NewHuggingFace creates the HuggingFace skill.
func NewHuggingFace(deps Deps, options map[string]any) (*HuggingFace, error) {
	b, _ := newBase("HuggingFace", deps, false)
	opts := dto.LLMOptions{
		BaseURL:      DefaultLLMBaseURL,
		Model:        DefaultLLMModel,
		APIKeyEnv:    DefaultAPIKeyEnv,
		SystemPrompt: defaultSystemPrompt,
		Timeout:      30 * time.Second,
		MaxHistory:   20,
	}
	if err := dto.Decode(options, &opts); err != nil {
		return nil, err
	}

	apiKey := opts.APIKey
	if apiKey == "" && opts.APIKeyEnv != "" {
		apiKey = os.Getenv(opts.APIKeyEnv)
	}
	if apiKey == "" {
		b.deps.Logger.Warn("No API key configured, requests will likely be rejected", "env", opts.APIKeyEnv)
	}

	config := openai.DefaultConfig(apiKey)
	config.BaseURL = opts.BaseURL
	config.HTTPClient = &http.Client{
		Timeout: opts.Timeout,
	}

	s := &HuggingFace{
		base:   b,
		opts:   opts,
		client: openai.NewClientWithConfig(config),
	}
	s.ops = registry.Operations{
		"ask": oneString(s.ask),
	}
	return s, nil
}

func (s *HuggingFace) ask(ctx context.Context, prompt string) (domain.Value, error) {
	if strings.TrimSpace(prompt) == "" {
		s.deps.Logger.Error("Prompt cannot be empty")
		return domain.String(ReplyEmptyPrompt), nil
	}

	history := s.history(ctx)
	messages := make([]openai.ChatCompletionMessage, 0, len(history)+2)
	messages = append(messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: s.opts.SystemPrompt})
	messages = append(messages, history...)
	messages = append(messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: prompt})

	resp, err := s.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:    s.opts.Model,
		Messages: messages,
	})
	if err != nil {
		s.deps.Logger.Error("Chat completion failed", "err", err)
		return domain.String(ReplyError), nil
	}
	if len(resp.Choices) == 0 {
		s.deps.Logger.Error("No choices in chat completion response")
		return domain.String(ReplyNoChoices), nil
	}

	answer := strings.TrimSpace(resp.Choices[0].Message.Content)
	s.remember(ctx, history, prompt, answer)
	return domain.String(answer), nil
}

// history reads [role, content] pairs from Memory. Malformed items are skipped.
func (s *HuggingFace) history(ctx context.Context) []openai.ChatCompletionMessage {
	if s.deps.Memory == nil {
		return nil
	}
	v, ok, err := s.deps.Memory.GetStateParam(ctx, ParamConversationHistory)
	if err != nil {
		s.deps.Logger.Warn("Failed to get conversation history from memory", "err", err)
		return nil
	}
	if !ok {
		return nil
	}
	items, ok := v.AsList()
	if !ok {
		return nil
	}

	messages := make([]openai.ChatCompletionMessage, 0, len(items))
	for _, item := range items {
		pair, ok := item.AsList()
		if !ok || len(pair) != 2 {
			continue
		}
		role, ok1 := pair[0].AsString()
		content, ok2 := pair[1].AsString()
		if !ok1 || !ok2 {
			continue
		}
		messages = append(messages, openai.ChatCompletionMessage{Role: role, Content: content})
	}
	return messages
}

// remember appends the exchange to the history and records the last answer.
func (s *HuggingFace) remember(ctx context.Context, history []openai.ChatCompletionMessage, prompt, answer string) {
	if s.deps.Memory == nil {
		return
	}

	history = append(history,
		openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: prompt},
		openai.ChatCompletionMessage{Role: openai.ChatMessageRoleAssistant, Content: answer},
	)
	if limit := s.opts.MaxHistory; limit > 0 && len(history) > limit {
		history = history[len(history)-limit:]
	}

	pairs := make([]domain.Value, len(history))
	for i, m := range history {
		pairs[i] = domain.List(domain.String(m.Role), domain.String(m.Content))
	}

	if err := s.deps.Memory.SetStateParam(ctx, ParamConversationHistory, domain.List(pairs...)); err != nil {
		s.deps.Logger.Warn("Failed to store conversation history", "err", err)
	}
	if err := s.deps.Memory.SetStateParam(ctx, domain.ParamLastLLMResponse, domain.String(answer)); err != nil {
		s.deps.Logger.Warn("Failed to store response", "err", err)
	}
}
