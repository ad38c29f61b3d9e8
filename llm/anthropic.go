// Package llm is the remote model boundary: prompt assembly plus a
// streaming Anthropic client. Nothing in here decides routing; by the time
// this package runs, the request has already committed to the remote path.
package llm

import (
	"context"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/anthropics/anthropic-sdk-go/packages/ssestream"

	"beruang/contract"
	"beruang/domain"
)

const (
	defaultModel   = "claude-haiku-4-5"
	maxReplyTokens = 500
	defaultTemp    = 0.5
	// Grounded answers (web results present) get a colder temperature so
	// the model sticks to the provided sources.
	groundedTemp = 0.1
)

// AnthropicClient implements contract.LLMClient against the Anthropic
// messages API.
type AnthropicClient struct {
	client *anthropic.Client
	model  string
	// grounded switches the sampling temperature; set per construction,
	// the client itself stays stateless across calls.
	grounded bool
}

// NewAnthropic builds a client with a static API key. An empty model
// falls back to the default.
func NewAnthropic(apiKey, model string) *AnthropicClient {
	var opts []option.RequestOption
	if apiKey != "" {
		opts = append(opts, option.WithAPIKey(apiKey))
	}
	client := anthropic.NewClient(opts...)
	if model == "" {
		model = defaultModel
	}
	return &AnthropicClient{client: &client, model: model}
}

// Grounded returns a copy of the client that samples at the grounded
// temperature, used when web search results are part of the prompt.
func (c *AnthropicClient) Grounded() *AnthropicClient {
	copied := *c
	copied.grounded = true
	return &copied
}

func (c *AnthropicClient) params(messages []domain.PromptMessage) anthropic.MessageNewParams {
	converted := make([]anthropic.MessageParam, 0, len(messages))
	for _, m := range messages {
		switch m.Role {
		case "assistant":
			converted = append(converted, anthropic.NewAssistantMessage(anthropic.NewTextBlock(m.Content)))
		default:
			converted = append(converted, anthropic.NewUserMessage(anthropic.NewTextBlock(m.Content)))
		}
	}

	temperature := defaultTemp
	if c.grounded {
		temperature = groundedTemp
	}

	return anthropic.MessageNewParams{
		Model:       anthropic.Model(c.model),
		MaxTokens:   maxReplyTokens,
		Messages:    converted,
		System:      []anthropic.TextBlockParam{{Text: systemInstruction}},
		Temperature: anthropic.Float(temperature),
	}
}

// Chat returns a single completed answer.
func (c *AnthropicClient) Chat(ctx context.Context, messages []domain.PromptMessage) (string, error) {
	message, err := c.client.Messages.New(ctx, c.params(messages))
	if err != nil {
		return "", fmt.Errorf("remote completion: %w", err)
	}

	var content string
	for _, block := range message.Content {
		if textBlock, ok := block.AsAny().(anthropic.TextBlock); ok {
			content += textBlock.Text
		}
	}
	if content == "" {
		return "I couldn't generate a response.", nil
	}
	return content, nil
}

// Stream opens an incremental token stream.
func (c *AnthropicClient) Stream(ctx context.Context, messages []domain.PromptMessage) (contract.TokenStream, error) {
	stream := c.client.Messages.NewStreaming(ctx, c.params(messages))
	return &anthropicStream{inner: stream}, nil
}

// anthropicStream adapts the SDK event stream to the pipeline's token
// stream: only text deltas surface, everything else is skipped.
type anthropicStream struct {
	inner   *ssestream.Stream[anthropic.MessageStreamEventUnion]
	current string
}

func (s *anthropicStream) Next() bool {
	for s.inner.Next() {
		event := s.inner.Current()
		if delta, ok := event.AsAny().(anthropic.ContentBlockDeltaEvent); ok {
			if text, ok := delta.Delta.AsAny().(anthropic.TextDelta); ok && text.Text != "" {
				s.current = text.Text
				return true
			}
		}
	}
	return false
}

func (s *anthropicStream) Current() string {
	return s.current
}

func (s *anthropicStream) Err() error {
	return s.inner.Err()
}

func (s *anthropicStream) Close() error {
	return s.inner.Close()
}
