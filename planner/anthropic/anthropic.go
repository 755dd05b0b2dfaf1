// Package anthropic implements planner.Planner using the Anthropic Messages
// API.
package anthropic

import (
	"context"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/agentloom/agentloom/core"
	"github.com/agentloom/agentloom/planner"
)

// Options configure the Anthropic planner adapter (model id, temperature,
// max tokens, API key).
type Options struct {
	Model       anthropic.Model
	Temperature float64
	MaxTokens   int64
	APIKey      string
}

// Planner wraps the Anthropic Messages API behind the planner.Planner
// interface.
type Planner struct {
	client *anthropic.Client
	opts   Options
}

func defaultOptions() Options {
	return Options{
		Model:       anthropic.ModelClaude3_5Sonnet20241022,
		Temperature: 0.2,
		MaxTokens:   1024,
	}
}

// New creates an adapter using the official client.
func New(optFns ...func(o *Options)) *Planner {
	opts := defaultOptions()
	for _, fn := range optFns {
		fn(&opts)
	}

	var clientOpts []option.RequestOption
	if opts.APIKey != "" {
		clientOpts = append(clientOpts, option.WithAPIKey(opts.APIKey))
	}
	client := anthropic.NewClient(clientOpts...)

	return &Planner{client: &client, opts: opts}
}

// NewFromClient creates an adapter from an existing client.
func NewFromClient(client *anthropic.Client, optFns ...func(o *Options)) *Planner {
	opts := defaultOptions()
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Planner{client: client, opts: opts}
}

// Plan implements planner.Planner.
func (p *Planner) Plan(ctx context.Context, conversation []core.Message, toolCatalog string) (planner.Decision, error) {
	text, err := p.complete(ctx, planner.BuildPlanPrompt(toolCatalog), conversation)
	if err != nil {
		return planner.Decision{}, err
	}
	return planner.ParseDecision(text)
}

// Answer implements planner.Planner.
func (p *Planner) Answer(ctx context.Context, conversation []core.Message, toolResults []core.ToolResult) (string, error) {
	text, err := p.complete(ctx, planner.BuildAnswerPrompt(toolResults), conversation)
	if err != nil {
		return "", err
	}
	if text == "" {
		return "", planner.Malformed("empty completion")
	}
	return text, nil
}

func (p *Planner) complete(ctx context.Context, systemPrompt string, conversation []core.Message) (string, error) {
	params := anthropic.MessageNewParams{
		Model:       p.opts.Model,
		Messages:    buildMessages(conversation),
		MaxTokens:   p.opts.MaxTokens,
		Temperature: anthropic.Float(p.opts.Temperature),
		System:      []anthropic.TextBlockParam{{Text: systemPrompt}},
	}

	resp, err := p.client.Messages.New(ctx, params)
	if err != nil {
		return "", planner.Unavailable(fmt.Errorf("anthropic api error: %w", err))
	}

	var b strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			b.WriteString(block.AsText().Text)
		}
	}
	return b.String(), nil
}

// buildMessages converts the conversation to Anthropic messages. The Messages
// API takes system instructions separately, so system-role entries are folded
// into user turns to preserve ordering.
func buildMessages(conversation []core.Message) []anthropic.MessageParam {
	messages := make([]anthropic.MessageParam, 0, len(conversation))
	for _, m := range conversation {
		block := anthropic.NewTextBlock(m.Content)
		if m.Role == core.RoleAssistant {
			messages = append(messages, anthropic.NewAssistantMessage(block))
			continue
		}
		messages = append(messages, anthropic.NewUserMessage(block))
	}
	return messages
}

// Interface compliance.
var _ planner.Planner = (*Planner)(nil)
