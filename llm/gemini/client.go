package gemini

import (
	"context"
	"strings"
	"sync"

	"cloud.google.com/go/vertexai/genai"
	"github.com/Enigmora/claudian"
	"github.com/m-mizutani/goerr/v2"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
)

const (
	// DefaultModel is used when the caller does not route to a
	// specific model and no mapping matches.
	DefaultModel = "gemini-1.5-pro"
)

// Client is a streaming client for Gemini models on Vertex AI. It
// keeps the conversation history in a chat session so that
// continuation and retry messages land in the same thread.
type Client struct {
	// client is the underlying Vertex AI client.
	client *genai.Client

	// defaultModel is the model to use for chat completions.
	defaultModel string

	// modelMap translates router model identifiers into Gemini
	// model names.
	modelMap map[claudian.ModelID]string

	// gcpOptions are additional Google Cloud client options.
	gcpOptions []option.ClientOption

	// generation parameters
	temperature float32
	maxTokens   int32

	mu           sync.Mutex
	chat         *genai.ChatSession
	chatModel    string
	systemPrompt string
	abort        context.CancelFunc
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
// Gemini model names.
func WithModelMap(m map[claudian.ModelID]string) Option {
	return func(c *Client) {
		c.modelMap = m
	}
}

// WithGoogleCloudOptions sets additional options for the underlying
// Vertex AI client, such as credentials and endpoints.
func WithGoogleCloudOptions(opts ...option.ClientOption) Option {
	return func(c *Client) {
		c.gcpOptions = append(c.gcpOptions, opts...)
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
func WithMaxTokens(maxTokens int32) Option {
	return func(c *Client) {
		c.maxTokens = maxTokens
	}
}

// New creates a new client for Gemini models on Vertex AI.
// It requires a GCP project ID and location.
func New(ctx context.Context, projectID, location string, options ...Option) (*Client, error) {
	if projectID == "" || location == "" {
		return nil, goerr.New("project ID and location are required",
			goerr.V("project_id", projectID),
			goerr.V("location", location),
		)
	}

	client := &Client{
		defaultModel: DefaultModel,
		modelMap: map[claudian.ModelID]string{
			claudian.ModelHaiku:  "gemini-1.5-flash",
			claudian.ModelSonnet: "gemini-1.5-pro",
			claudian.ModelOpus:   "gemini-1.5-pro",
		},
		temperature: 0.7,
		maxTokens:   4096,
	}

	for _, option := range options {
		option(client)
	}

	newClient, err := genai.NewClient(ctx, projectID, location, client.gcpOptions...)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create Vertex AI client",
			goerr.V("project_id", projectID),
			goerr.V("location", location),
		)
	}
	client.client = newClient

	return client, nil
}

// Reset discards the conversation history.
func (c *Client) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.chat = nil
	c.chatModel = ""
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

// SendStream sends message into the chat session, streams the model
// response through handler, and leaves the exchange in the session
// history. Switching models or system prompts mid-conversation starts
// a fresh session.
func (c *Client) SendStream(ctx context.Context, message, systemPrompt string, handler claudian.StreamHandler, model claudian.ModelID) error {
	streamCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	name := c.defaultModel
	if mapped, ok := c.modelMap[model]; ok {
		name = mapped
	}

	c.mu.Lock()
	c.abort = cancel
	if c.chat == nil || c.chatModel != name || c.systemPrompt != systemPrompt {
		m := c.client.GenerativeModel(name)
		m.SetTemperature(c.temperature)
		m.SetMaxOutputTokens(c.maxTokens)
		if systemPrompt != "" {
			m.SystemInstruction = &genai.Content{
				Parts: []genai.Part{genai.Text(systemPrompt)},
			}
		}
		c.chat = m.StartChat()
		c.chatModel = name
		c.systemPrompt = systemPrompt
	}
	chat := c.chat
	c.mu.Unlock()

	iter := chat.SendMessageStream(streamCtx, genai.Text(message))

	var text strings.Builder
	var usage claudian.Usage

	for {
		resp, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			if handler.OnError != nil {
				handler.OnError(streamCtx, err)
			}
			return goerr.Wrap(err, "gemini stream failed",
				goerr.V("model", name),
			)
		}

		if resp.UsageMetadata != nil {
			usage.InputTokens = int(resp.UsageMetadata.PromptTokenCount)
			usage.OutputTokens = int(resp.UsageMetadata.CandidatesTokenCount)
		}
		for _, cand := range resp.Candidates {
			if cand.Content == nil {
				continue
			}
			for _, part := range cand.Content.Parts {
				if t, ok := part.(genai.Text); ok && string(t) != "" {
					text.WriteString(string(t))
					if handler.OnToken != nil {
						if err := handler.OnToken(streamCtx, string(t)); err != nil {
							cancel()
							return goerr.Wrap(err, "token handler aborted stream")
						}
					}
				}
			}
		}
	}

	c.mu.Lock()
	c.abort = nil
	c.mu.Unlock()

	if handler.OnUsage != nil {
		handler.OnUsage(ctx, usage)
	}
	if handler.OnComplete != nil {
		if err := handler.OnComplete(ctx, text.String()); err != nil {
			return goerr.Wrap(err, "completion handler failed")
		}
	}

	return nil
}

// Close releases the underlying Vertex AI client.
func (c *Client) Close() error {
	return c.client.Close()
}
