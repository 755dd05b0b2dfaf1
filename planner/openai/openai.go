// Package openai implements planner.Planner using the OpenAI Chat Completions
// API. The adapter is stateless: each call builds the prompt, performs one
// completion and classifies failures into the planner error taxonomy (API or
// transport problems as ErrUnavailable, unparseable output as
// ErrMalformedResponse). Retries are owned by the graph, not here.
package openai

import (
	"context"
	"fmt"

	"github.com/agentloom/agentloom/core"
	"github.com/agentloom/agentloom/planner"
	"github.com/openai/openai-go"
)

// Options configure the OpenAI planner adapter. Fields mirror a minimal
// subset of Chat Completion parameters; extend via functional options.
type Options struct {
	Model               string
	Temperature         float64
	MaxCompletionTokens int64
}

// Planner wraps the OpenAI client behind the planner.Planner interface.
type Planner struct {
	client *openai.Client
	opts   Options
}

// New creates an adapter using a client configured from the environment.
func New(optFns ...func(o *Options)) *Planner {
	client := openai.NewClient()
	return NewFromClient(&client, optFns...)
}

// NewFromClient creates an adapter from an existing client.
func NewFromClient(client *openai.Client, optFns ...func(o *Options)) *Planner {
	opts := Options{
		Model:               openai.ChatModelGPT4oMini,
		Temperature:         0.2,
		MaxCompletionTokens: 1024,
	}
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
	params := openai.ChatCompletionNewParams{
		Messages:            buildMessages(systemPrompt, conversation),
		Model:               p.opts.Model,
		Temperature:         openai.Float(p.opts.Temperature),
		MaxCompletionTokens: openai.Int(p.opts.MaxCompletionTokens),
	}

	resp, err := p.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", planner.Unavailable(fmt.Errorf("openai api error: %w", err))
	}
	if len(resp.Choices) == 0 {
		return "", planner.Malformed("no choices returned")
	}
	return resp.Choices[0].Message.Content, nil
}

// buildMessages converts the conversation into OpenAI chat messages with the
// system prompt first. Unknown roles are forwarded as user content.
func buildMessages(systemPrompt string, conversation []core.Message) []openai.ChatCompletionMessageParamUnion {
	messages := make([]openai.ChatCompletionMessageParamUnion, 0, len(conversation)+1)
	messages = append(messages, openai.SystemMessage(systemPrompt))
	for _, m := range conversation {
		switch m.Role {
		case core.RoleSystem:
			messages = append(messages, openai.SystemMessage(m.Content))
		case core.RoleAssistant:
			messages = append(messages, openai.AssistantMessage(m.Content))
		default:
			messages = append(messages, openai.UserMessage(m.Content))
		}
	}
	return messages
}

// Interface compliance.
var _ planner.Planner = (*Planner)(nil)
