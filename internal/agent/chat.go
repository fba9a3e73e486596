package agent

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/rs/zerolog/log"
)

const defaultChatModel = "claude-sonnet-4-6"

// Responder answers a single message under a system instruction. It keeps
// no history between calls.
type Responder interface {
	Respond(ctx context.Context, systemPrompt, userText string) (string, error)
}

// ChatAgent is a Responder backed by the Anthropic Messages API (or a
// compatible endpoint)
type ChatAgent struct {
	client    *anthropic.Client
	model     string
	maxTokens int
}

// NewChatAgent creates a chat responder. An empty model selects the default;
// baseURL overrides the API endpoint for proxies and tests.
func NewChatAgent(apiKey, model, baseURL string, maxTokens int) *ChatAgent {
	if model == "" {
		model = defaultChatModel
	}
	if maxTokens <= 0 {
		maxTokens = 1024
	}
	opts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		// remote failures end the turn
		option.WithMaxRetries(0),
	}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	return &ChatAgent{
		client:    anthropic.NewClient(opts...),
		model:     model,
		maxTokens: maxTokens,
	}
}

// Model returns the model id used for completions.
func (a *ChatAgent) Model() string { return a.model }

// Respond sends the system instruction and the user text as a two-message
// exchange and returns the text of the first text block, trimmed. An empty
// string means the model produced no text.
func (a *ChatAgent) Respond(ctx context.Context, systemPrompt, userText string) (string, error) {
	start := time.Now()

	params := anthropic.MessageNewParams{
		Model:     anthropic.F(anthropic.Model(a.model)),
		MaxTokens: anthropic.F(int64(a.maxTokens)),
		Messages: anthropic.F([]anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(userText)),
		}),
	}
	if systemPrompt != "" {
		params.System = anthropic.F([]anthropic.TextBlockParam{
			anthropic.NewTextBlock(systemPrompt),
		})
	}

	resp, err := a.client.Messages.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("chat completion failed: %w", err)
	}

	var text string
	for _, block := range resp.Content {
		if b, ok := block.AsUnion().(anthropic.TextBlock); ok {
			text = b.Text
			break
		}
	}

	log.Debug().
		Str("model", a.model).
		Str("stop_reason", string(resp.StopReason)).
		Int("reply_len", len(text)).
		Dur("duration", time.Since(start)).
		Msg("chat completion")

	return strings.TrimSpace(text), nil
}
