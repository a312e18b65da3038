package claudian

import "context"

// ModelID identifies one model offered by the configured provider.
type ModelID string

// Usage reports token accounting for one model call.
type Usage struct {
	InputTokens  int
	OutputTokens int
}

// StreamHandler receives streaming events for one model call. Tokens
// arrive in order and callbacks execute synchronously; they must not
// block. Exactly one of OnComplete or OnError fires, once.
type StreamHandler struct {
	// OnToken is called for each generated token. Returning an error
	// aborts the stream.
	OnToken func(ctx context.Context, token string) error

	// OnComplete is called once with the full accumulated text.
	OnComplete func(ctx context.Context, text string) error

	// OnError is called once when generation fails.
	OnError func(ctx context.Context, err error)

	// OnUsage is called with token accounting when the provider reports
	// it. Optional.
	OnUsage func(ctx context.Context, usage Usage)
}

// LLMClient is a streaming chat client for one provider. Implementations
// keep conversation history internally so the loop controller only sends
// the next user message.
type LLMClient interface {
	// SendStream sends one user message and streams the reply through
	// handler. It returns after OnComplete or OnError has fired. The
	// model argument overrides the client default when non-empty.
	SendStream(ctx context.Context, message, systemPrompt string, handler StreamHandler, model ModelID) error

	// Abort cancels the in-flight stream, if any. Safe to call when no
	// stream is active.
	Abort()
}
