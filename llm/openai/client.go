package openai

import (
	"context"
	"io"
	"strings"
	"sync"

	"github.com/Enigmora/claudian"
	"github.com/m-mizutani/goerr/v2"
	"github.com/sashabaranov/go-openai"
)

// Client is a streaming client for the OpenAI chat completion API.
// It keeps the conversation history across calls so that continuation
// and retry messages land in the same thread.
type Client struct {
	// client is the underlying OpenAI client.
	client *openai.Client

	// defaultModel is used when the caller does not route to a
	// specific model, or when the routed model has no mapping.
	defaultModel string

	// modelMap translates router model identifiers into OpenAI
	// model names.
	modelMap map[claudian.ModelID]string

	// baseURL overrides the API endpoint when set.
	baseURL string

	// generation parameters
	temperature float32
	maxTokens   int

	mu       sync.Mutex
	messages []openai.ChatCompletionMessage
	abort    context.CancelFunc
}

// Option is a function that configures a Client.
type Option func(*Client)

// WithModel sets the default model to use for chat completions.
func WithModel(modelName string) Option {
	return func(c *Client) {
		c.defaultModel = modelName
	}
}

// WithModelMap overrides the mapping from router model identifiers to
// OpenAI model names.
func WithModelMap(m map[claudian.ModelID]string) Option {
	return func(c *Client) {
		c.modelMap = m
	}
}

// WithTemperature sets the temperature parameter for text generation.
// Default: 0.7
func WithTemperature(temp float32) Option {
	return func(c *Client) {
		c.temperature = temp
	}
}

// WithMaxTokens sets the maximum number of tokens to generate.
// Default: 4096
func WithMaxTokens(maxTokens int) Option {
	return func(c *Client) {
		c.maxTokens = maxTokens
	}
}

// WithBaseURL sets a custom API endpoint. Useful for OpenAI-compatible
// gateways and local servers.
func WithBaseURL(url string) Option {
	return func(c *Client) {
		c.baseURL = url
	}
}

// New creates a new client for the OpenAI API.
// It requires an API key and can be configured with additional options.
func New(ctx context.Context, apiKey string, options ...Option) (*Client, error) {
	if apiKey == "" {
		return nil, goerr.New("api key is required")
	}

	client := &Client{
		defaultModel: openai.GPT4o,
		modelMap: map[claudian.ModelID]string{
			claudian.ModelHaiku:  openai.GPT4oMini,
			claudian.ModelSonnet: openai.GPT4o,
			claudian.ModelOpus:   openai.O1,
		},
		temperature: 0.7,
		maxTokens:   4096,
	}

	for _, option := range options {
		option(client)
	}

	config := openai.DefaultConfig(apiKey)
	if client.baseURL != "" {
		config.BaseURL = client.baseURL
	}
	client.client = openai.NewClientWithConfig(config)

	return client, nil
}

// Reset discards the conversation history.
func (c *Client) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.messages = nil
}

// Abort cancels the in-flight stream, if any.
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
// history.
func (c *Client) SendStream(ctx context.Context, message, systemPrompt string, handler claudian.StreamHandler, model claudian.ModelID) error {
	streamCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	c.mu.Lock()
	c.abort = cancel
	c.messages = append(c.messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: message,
	})
	req := c.createRequest(systemPrompt, model)
	c.mu.Unlock()

	stream, err := c.client.CreateChatCompletionStream(streamCtx, req)
	if err != nil {
		if handler.OnError != nil {
			handler.OnError(streamCtx, err)
		}
		return goerr.Wrap(err, "failed to create chat completion stream",
			goerr.V("model", req.Model),
		)
	}
	defer stream.Close()

	var text strings.Builder
	var usage claudian.Usage

	for {
		resp, err := stream.Recv()
		if err != nil {
			if err == io.EOF {
				break
			}
			if handler.OnError != nil {
				handler.OnError(streamCtx, err)
			}
			return goerr.Wrap(err, "failed to receive chat completion stream")
		}

		if resp.Usage != nil {
			usage.InputTokens = resp.Usage.PromptTokens
			usage.OutputTokens = resp.Usage.CompletionTokens
		}
		if len(resp.Choices) == 0 {
			continue
		}
		delta := resp.Choices[0].Delta.Content
		if delta != "" {
			text.WriteString(delta)
			if handler.OnToken != nil {
				if err := handler.OnToken(streamCtx, delta); err != nil {
					cancel()
					return goerr.Wrap(err, "token handler aborted stream")
				}
			}
		}
	}

	full := text.String()

	c.mu.Lock()
	c.abort = nil
	if full != "" {
		c.messages = append(c.messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleAssistant,
			Content: full,
		})
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

func (c *Client) createRequest(systemPrompt string, model claudian.ModelID) openai.ChatCompletionRequest {
	name := c.defaultModel
	if mapped, ok := c.modelMap[model]; ok {
		name = mapped
	}

	messages := make([]openai.ChatCompletionMessage, 0, len(c.messages)+1)
	if systemPrompt != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: systemPrompt,
		})
	}
	messages = append(messages, c.messages...)

	return openai.ChatCompletionRequest{
		Model:       name,
		Messages:    messages,
		Temperature: c.temperature,
		MaxTokens:   c.maxTokens,
		Stream:      true,
		StreamOptions: &openai.StreamOptions{
			IncludeUsage: true,
		},
	}
}
