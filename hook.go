package claudian

import "context"

type (
	// MessageHook is called with the final assistant message of each loop
	// iteration.
	MessageHook func(ctx context.Context, msg string) error

	// ProgressHook is called before and after each action execution.
	ProgressHook func(ctx context.Context, progress Progress) error

	// StreamHook is called as tokens arrive with streaming indicator
	// stats: accumulated character count and the number of actions
	// detected so far in the partial text.
	StreamHook func(ctx context.Context, chars int, actions int) error
)

func defaultMessageHook(ctx context.Context, msg string) error {
	return nil
}

func defaultProgressHook(ctx context.Context, progress Progress) error {
	return nil
}

func defaultStreamHook(ctx context.Context, chars int, actions int) error {
	return nil
}
