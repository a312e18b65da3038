package claudian

import (
	"log/slog"
	"time"
)

const (
	// DefaultLoopLimit bounds agentic loop iterations per turn.
	DefaultLoopLimit = 5

	// DefaultRetryLimit is the combined budget for truncation
	// auto-continues and corrective validation retries per turn.
	DefaultRetryLimit = 5

	// DefaultBackoffUnit is multiplied by the attempt number before each
	// retry or continuation. Linear and unjittered: only one retry chain
	// is ever active.
	DefaultBackoffUnit = 2000 * time.Millisecond

	DefaultMaxTokens            = 4096
	DefaultMaxActionsPerMessage = 20
)

// Agent drives the multi-turn protocol between an LLM stream and the
// vault executor.
type Agent struct {
	llm      LLMClient
	executor Executor

	agentConfig
}

type agentConfig struct {
	mode                 RoutingMode
	agentMode            bool
	systemPrompt         string
	maxTokens            int
	maxActionsPerMessage int
	loopLimit            int
	retryLimit           int
	autoContinue         bool
	confirmDestructive   bool
	backoffUnit          time.Duration

	confirm ConfirmFunc

	messageHook  MessageHook
	progressHook ProgressHook
	streamHook   StreamHook
	logger       *slog.Logger
}

func (c *agentConfig) clone() *agentConfig {
	cloned := *c
	return &cloned
}

// New creates an agent over the given LLM client and vault executor.
func New(llm LLMClient, executor Executor, options ...Option) *Agent {
	a := &Agent{
		llm:      llm,
		executor: executor,
		agentConfig: agentConfig{
			mode:                 ModeAutomatic,
			agentMode:            true,
			maxTokens:            DefaultMaxTokens,
			maxActionsPerMessage: DefaultMaxActionsPerMessage,
			loopLimit:            DefaultLoopLimit,
			retryLimit:           DefaultRetryLimit,
			autoContinue:         true,
			confirmDestructive:   true,
			backoffUnit:          DefaultBackoffUnit,

			messageHook:  defaultMessageHook,
			progressHook: defaultProgressHook,
			streamHook:   defaultStreamHook,
			logger:       slog.New(slog.DiscardHandler),
		},
	}

	for _, opt := range options {
		opt(&a.agentConfig)
	}

	a.logger.Info("agent created",
		"mode", a.mode,
		"agent_mode", a.agentMode,
		"loop_limit", a.loopLimit,
		"retry_limit", a.retryLimit,
		"auto_continue", a.autoContinue,
		"confirm_destructive", a.confirmDestructive,
	)

	return a
}

// Option configures an Agent.
type Option func(*agentConfig)

// WithMode sets the routing mode. Default is automatic.
func WithMode(mode RoutingMode) Option {
	return func(c *agentConfig) {
		c.mode = mode
	}
}

// WithAgentMode toggles the structured JSON action protocol. Default on.
func WithAgentMode(enabled bool) Option {
	return func(c *agentConfig) {
		c.agentMode = enabled
	}
}

// WithSystemPrompt sets the system prompt sent with every model call.
func WithSystemPrompt(prompt string) Option {
	return func(c *agentConfig) {
		c.systemPrompt = prompt
	}
}

// WithMaxTokens sets the generation cap used for truncation detection.
func WithMaxTokens(n int) Option {
	return func(c *agentConfig) {
		c.maxTokens = n
	}
}

// WithMaxActionsPerMessage caps the actions accepted from one response.
// Excess actions are dropped with a warning; this is a policy check at
// the call site, not a property of the response type.
func WithMaxActionsPerMessage(n int) Option {
	return func(c *agentConfig) {
		c.maxActionsPerMessage = n
	}
}

// WithLoopLimit sets the maximum loop iterations per turn.
func WithLoopLimit(n int) Option {
	return func(c *agentConfig) {
		c.loopLimit = n
	}
}

// WithRetryLimit sets the combined continuation/retry budget per turn.
func WithRetryLimit(n int) Option {
	return func(c *agentConfig) {
		c.retryLimit = n
	}
}

// WithAutoContinue toggles automatic continuation of truncated responses.
// Default on.
func WithAutoContinue(enabled bool) Option {
	return func(c *agentConfig) {
		c.autoContinue = enabled
	}
}

// WithConfirmDestructive toggles blocking on user confirmation before
// destructive actions. Default on; without a ConfirmFunc the batch is
// rejected when confirmation would be required.
func WithConfirmDestructive(enabled bool) Option {
	return func(c *agentConfig) {
		c.confirmDestructive = enabled
	}
}

// WithConfirm sets the confirmation collaborator.
func WithConfirm(confirm ConfirmFunc) Option {
	return func(c *agentConfig) {
		c.confirm = confirm
	}
}

// WithBackoffUnit overrides the linear backoff unit. Intended for tests.
func WithBackoffUnit(d time.Duration) Option {
	return func(c *agentConfig) {
		c.backoffUnit = d
	}
}

// WithMessageHook sets a callback for each final assistant message.
func WithMessageHook(hook MessageHook) Option {
	return func(c *agentConfig) {
		c.messageHook = hook
	}
}

// WithProgressHook sets a callback for per-action execution progress.
func WithProgressHook(hook ProgressHook) Option {
	return func(c *agentConfig) {
		c.progressHook = hook
	}
}

// WithStreamHook sets a callback for streaming indicator stats.
func WithStreamHook(hook StreamHook) Option {
	return func(c *agentConfig) {
		c.streamHook = hook
	}
}

// WithLogger sets the logger. Default discards.
func WithLogger(logger *slog.Logger) Option {
	return func(c *agentConfig) {
		c.logger = logger
	}
}
