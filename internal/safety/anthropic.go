package safety

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

const moderationSystem = "You are a content safety filter for a children's coloring book app (ages 3-12). " +
	"Review the prompt and respond with ONLY 'SAFE' or 'UNSAFE: <brief reason>'. " +
	"Flag anything violent, sexual, scary, involving real weapons, drugs, or inappropriate " +
	"for young children. Allow animals, fantasy, adventure, and family themes."

const moderationTimeout = 15 * time.Second

// AnthropicModerator implements Moderator on top of the Claude Messages API.
type AnthropicModerator struct {
	client  anthropic.Client
	model   anthropic.Model
	timeout time.Duration
}

// ModeratorOptions configures the Anthropic moderator.
type ModeratorOptions struct {
	APIKey  string
	Model   string
	Timeout time.Duration
}

// NewAnthropicModerator constructs a moderator. An empty API key is allowed;
// calls will fail and the filter falls back to layer 1.
func NewAnthropicModerator(opts ModeratorOptions) *AnthropicModerator {
	model := anthropic.Model(opts.Model)
	if model == "" {
		model = anthropic.Model("claude-haiku-4-5-20251001")
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = moderationTimeout
	}

	var clientOpts []option.RequestOption
	if opts.APIKey != "" {
		clientOpts = append(clientOpts, option.WithAPIKey(opts.APIKey))
	}
	return &AnthropicModerator{
		client:  anthropic.NewClient(clientOpts...),
		model:   model,
		timeout: timeout,
	}
}

// Classify asks the model for a two-state verdict under a bounded timeout.
func (m *AnthropicModerator) Classify(ctx context.Context, text string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	resp, err := m.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     m.model,
		MaxTokens: 100,
		System:    []anthropic.TextBlockParam{{Text: moderationSystem}},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock("Check this coloring book prompt: " + text)),
		},
	})
	if err != nil {
		return "", fmt.Errorf("moderation call: %w", err)
	}
	if len(resp.Content) == 0 {
		return "", errors.New("moderation: empty response")
	}
	return strings.TrimSpace(resp.Content[0].Text), nil
}

var _ Moderator = (*AnthropicModerator)(nil)
