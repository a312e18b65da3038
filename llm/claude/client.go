package claude

import (
	"context"
	"strings"
	"sync"

	"github.com/Enigmora/claudian"
	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/m-mizutani/goerr/v2"
)

// generationParameters represents the parameters for text generation.
type generationParameters struct {
	// Temperature controls randomness in the output.
	// Higher values make the output more random, lower values make it more focused.
	Temperature float64

	// TopP controls diversity via nucleus sampling.
	// Higher values allow more diverse outputs.
	TopP float64

	// MaxTokens limits the number of tokens to generate.
	MaxTokens int64
}

// Client is a streaming client for the Anthropic API. It keeps the
// conversation history across calls so that continuation and retry
// messages land in the same thread.
type Client struct {
	// client is the underlying Anthropic client.
	client *anthropic.Client

	// defaultModel is used when the caller does not route to a
	// specific model.
	defaultModel string

	// generation parameters
	params generationParameters

	mu       sync.Mutex
	messages []anthropic.MessageParam
	abort    context.CancelFunc
}

// Option is a function that configures a Client.
type Option func(*Client)

// WithModel sets the default model to use for chat completions.
// The model name should be a valid Claude model identifier.
func WithModel(modelName string) Option {
	return func(c *Client) {
		c.defaultModel = modelName
	}
}

// WithTemperature sets the temperature parameter for text generation.
// Range: 0.0 to 1.0
// Default: 0.7
func WithTemperature(temp float64) Option {
	return func(c *Client) {
		c.params.Temperature = temp
	}
}

// WithTopP sets the top_p parameter for text generation.
// Range: 0.0 to 1.0
// Default: 1.0
func WithTopP(topP float64) Option {
	return func(c *Client) {
		c.params.TopP = topP
	}
}

// WithMaxTokens sets the maximum number of tokens to generate.
// Default: 4096
func WithMaxTokens(maxTokens int64) Option {
	return func(c *Client) {
		c.params.MaxTokens = maxTokens
	}
}

// New creates a new client for the Anthropic API.
// It requires an API key and can be configured with additional options.
func New(ctx context.Context, apiKey string, options ...Option) (*Client, error) {
	if apiKey == "" {
		return nil, goerr.New("api key is required")
	}

	client := &Client{
		defaultModel: string(claudian.ModelSonnet),
		params: generationParameters{
			Temperature: 0.7,
			TopP:        1.0,
			MaxTokens:   4096,
		},
	}

	for _, option := range options {
		option(client)
	}

	newClient := anthropic.NewClient(
		option.WithAPIKey(apiKey),
	)
	client.client = &newClient

	return client, nil
}

// Reset discards the conversation history.
func (c *Client) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.messages = nil
}

// Abort cancels the in-flight stream, if any. Safe to call at any
// time, including when no stream is running.
func (c *Client) Abort() {
	c.mu.Lock()
	abort := c.abort
	c.mu.Unlock()
	if abort != nil {
		abort()
	}
}

// SendStream appends message to the conversation, streams the model
// response through handler, and records the assistant reply in the
// history. The handler's OnComplete receives the full accumulated text.
func (c *Client) SendStream(ctx context.Context, message, systemPrompt string, handler claudian.StreamHandler, model claudian.ModelID) error {
	streamCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	c.mu.Lock()
	c.abort = cancel
	c.messages = append(c.messages, anthropic.NewUserMessage(
		anthropic.NewTextBlock(message),
	))
	params := c.createRequest(c.messages, systemPrompt, model)
	c.mu.Unlock()

	stream := c.client.Messages.NewStreaming(streamCtx, params)
	if stream == nil {
		return goerr.New("failed to create message stream")
	}

	var text strings.Builder
	var usage claudian.Usage

	for stream.Next() {
		event := stream.Current()

		switch event.Type {
		case "content_block_delta":
			deltaEvent := event.AsContentBlockDeltaEvent()
			if deltaEvent.Delta.Type == "text_delta" {
				textDelta := deltaEvent.Delta.AsTextContentBlockDelta()
				if textDelta.Text != "" {
					text.WriteString(textDelta.Text)
					if handler.OnToken != nil {
						if err := handler.OnToken(streamCtx, textDelta.Text); err != nil {
							cancel()
							return goerr.Wrap(err, "token handler aborted stream")
						}
					}
				}
			}

		case "message_start":
			startEvent := event.AsMessageStartEvent()
			usage.InputTokens = int(startEvent.Message.Usage.InputTokens)

		case "message_delta":
			deltaEvent := event.AsMessageDeltaEvent()
			usage.OutputTokens = int(deltaEvent.Usage.OutputTokens)
		}
	}

	if err := stream.Err(); err != nil {
		if handler.OnError != nil {
			handler.OnError(streamCtx, err)
		}
		return goerr.Wrap(err, "claude stream failed",
			goerr.V("model", params.Model),
		)
	}

	full := text.String()

	c.mu.Lock()
	c.abort = nil
	if full != "" {
		c.messages = append(c.messages, anthropic.NewAssistantMessage(
			anthropic.NewTextBlock(full),
		))
	}
	c.mu.Unlock()

	if handler.OnUsage != nil {
		handler.OnUsage(ctx, usage)
	}
	if handler.OnComplete != nil {
		if err := handler.OnComplete(ctx, full); err != nil {
			return goerr.Wrap(err, "completion handler failed")
		}
	}

	return nil
}

func (c *Client) createRequest(messages []anthropic.MessageParam, systemPrompt string, model claudian.ModelID) anthropic.MessageNewParams {
	name := c.defaultModel
	if model != "" {
		name = string(model)
	}

	params := anthropic.MessageNewParams{
		Model:       name,
		MaxTokens:   c.params.MaxTokens,
		Temperature: anthropic.Float(c.params.Temperature),
		TopP:        anthropic.Float(c.params.TopP),
		Messages:    messages,
	}
	if systemPrompt != "" {
		params.System = []anthropic.TextBlockParam{
			{Text: systemPrompt},
		}
	}

	return params
}
