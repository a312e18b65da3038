package claudian

import (
	"context"
	"encoding/json"
	"fmt"
	"hash/fnv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/m-mizutani/goerr/v2"
)

// TerminalReason names how a turn ended. Loop-safety terminations are
// reported here rather than as errors.
type TerminalReason string

const (
	TerminalCompleted          TerminalReason = "completed"
	TerminalLoopLimit          TerminalReason = "loop_limit"
	TerminalInfiniteLoop       TerminalReason = "infinite_loop"
	TerminalAllActionsFailed   TerminalReason = "all_actions_failed"
	TerminalCancelled          TerminalReason = "cancelled"
	TerminalConfirmationDenied TerminalReason = "confirmation_denied"
)

// TurnResult is the outcome of one user turn.
type TurnResult struct {
	Message    string
	Reason     TerminalReason
	Results    []ActionResult
	Route      RouteResult
	Iterations int
}

// loopSession owns all per-turn mutable state. It is created at turn
// start and discarded at turn end, never shared across turns, so
// concurrent turns cannot cross-contaminate counters.
type loopSession struct {
	// attempts is the combined budget for truncation auto-continues and
	// corrective validation retries, bounding worst-case API cost.
	attempts int

	// seenHashes records executed action-set hashes for the infinite
	// loop guard. Exact-match only; fuzzy matching of reordered but
	// equivalent sets is a possible enhancement.
	seenHashes map[uint64]bool
}

// Execute runs one user turn through the full protocol: route, stream,
// recover, validate, confirm, execute, and loop while the model awaits
// results. Loop-safety terminations (limit, repeat, all-failed) and
// cancellation are reported in the result, not as errors.
func (a *Agent) Execute(ctx context.Context, prompt string, options ...Option) (*TurnResult, error) {
	cfg := a.agentConfig.clone()
	for _, opt := range options {
		opt(cfg)
	}

	logger := cfg.logger.With("claudian.request_id", uuid.New().String())
	ctx = ctxWithLogger(ctx, logger)

	// One cancellation token stops both local waiting and the in-flight
	// request: ctx cancellation triggers the client's own abort.
	stopAbort := context.AfterFunc(ctx, a.llm.Abort)
	defer stopAbort()

	route := Route(ctx, prompt, cfg.agentMode, cfg.mode)
	logger.Info("turn started", "prompt", prompt, "model", route.Model, "mode", route.Mode)

	session := &loopSession{seenHashes: map[uint64]bool{}}
	result := &TurnResult{Route: route, Reason: TerminalCompleted}
	message := prompt

	for iteration := 0; ; iteration++ {
		if iteration >= cfg.loopLimit {
			result.Reason = TerminalLoopLimit
			result.Message = fmt.Sprintf("Loop limit reached: stopping after %d iterations.", cfg.loopLimit)
			logger.Info("loop limit reached", "iterations", iteration)
			return result, nil
		}
		result.Iterations = iteration + 1

		if ctx.Err() != nil {
			return cancelled(result), nil
		}

		parsed, validation, err := a.resolveResponse(ctx, cfg, session, message, route.Model)
		if err != nil {
			if ctx.Err() != nil {
				return cancelled(result), nil
			}
			return nil, err
		}

		if parsed == nil {
			if validation.IsValid {
				// Plain conversational answer with no action protocol.
				text := validation.rawText
				if err := cfg.messageHook(ctx, text); err != nil {
					return nil, goerr.Wrap(err, "message hook failed")
				}
				result.Message = text
				return result, nil
			}
			return nil, goerr.Wrap(ErrNoActionsRecovered, "response could not be recovered",
				goerr.V("warnings", validation.Warnings))
		}

		actions := parsed.Actions
		if len(actions) > cfg.maxActionsPerMessage {
			logger.Warn("action count exceeds per-message cap, truncating",
				"count", len(actions), "cap", cfg.maxActionsPerMessage)
			actions = actions[:cfg.maxActionsPerMessage]
		}

		if err := cfg.messageHook(ctx, parsed.Message); err != nil {
			return nil, goerr.Wrap(err, "message hook failed")
		}

		if len(actions) == 0 && !parsed.AwaitResults {
			result.Message = parsed.Message
			return result, nil
		}

		actions, proceed, err := a.gateDestructive(ctx, cfg, actions)
		if err != nil {
			if ctx.Err() != nil {
				return cancelled(result), nil
			}
			return nil, err
		}
		if !proceed {
			result.Reason = TerminalConfirmationDenied
			result.Message = "Destructive actions were not confirmed. Nothing was executed."
			return result, nil
		}

		results, err := a.executor.ExecuteAll(ctx, actions, func(p Progress) {
			if hookErr := cfg.progressHook(ctx, p); hookErr != nil {
				logger.Warn("progress hook failed", "error", hookErr)
			}
		})
		if err != nil {
			if ctx.Err() != nil {
				return cancelled(result), nil
			}
			return nil, goerr.Wrap(err, "executor failed")
		}
		result.Results = append(result.Results, results...)

		if !parsed.AwaitResults {
			result.Message = parsed.Message
			return result, nil
		}

		hash := hashActions(actions)
		if session.seenHashes[hash] {
			result.Reason = TerminalInfiniteLoop
			result.Message = "Infinite loop detected: the model requested the same actions again. Stopping."
			logger.Info("infinite loop detected", "hash", hash, "iteration", iteration)
			return result, nil
		}
		session.seenHashes[hash] = true

		if len(results) > 0 && allFailed(results) {
			result.Reason = TerminalAllActionsFailed
			result.Message = "All actions in the last batch failed. Stopping."
			logger.Info("all actions failed", "count", len(results))
			return result, nil
		}

		message = FormatResults(results)
	}
}

// resolveResponse obtains one coherent model response: stream, then a
// bounded auto-continue sub-loop for truncation, then a bounded
// corrective-retry sub-loop for validation failures. Both sub-loops draw
// from the same attempt budget.
func (a *Agent) resolveResponse(ctx context.Context, cfg *agentConfig, session *loopSession, message string, model ModelID) (*AgentResponse, *turnValidation, error) {
	logger := LoggerFromContext(ctx)

	text, err := a.streamOnce(ctx, cfg, message, model)
	if err != nil {
		return nil, nil, err
	}

	for {
		for {
			det := DetectTruncation(text, cfg.maxTokens, cfg.agentMode)
			if !det.IsTruncated || !cfg.autoContinue || session.attempts >= cfg.retryLimit {
				break
			}

			session.attempts++
			logger.Info("response truncated, requesting continuation",
				"confidence", det.Confidence, "reason", det.Reason, "attempt", session.attempts)

			if err := waitBackoff(ctx, cfg.backoffUnit, session.attempts); err != nil {
				return nil, nil, err
			}
			cont, err := a.streamOnce(ctx, cfg, det.SuggestedContinuation, model)
			if err != nil {
				return nil, nil, err
			}
			text = MergeResponses(text, cont)
		}

		parsed := ExtractResponse(text)
		validation := ValidateResponse(text, parsed)

		if validation.IsValid || !validation.ShouldRetry() || session.attempts >= cfg.retryLimit {
			return parsed, &turnValidation{ValidationResult: validation, rawText: text}, nil
		}

		session.attempts++
		logger.Info("response invalid, requesting correction",
			"warnings", validation.Warnings, "attempt", session.attempts)

		if err := waitBackoff(ctx, cfg.backoffUnit, session.attempts); err != nil {
			return nil, nil, err
		}
		text, err = a.streamOnce(ctx, cfg, validation.RetryPrompt(), model)
		if err != nil {
			return nil, nil, err
		}
	}
}

// turnValidation carries the validation verdict together with the raw
// text it judged, for plain-prose turns.
type turnValidation struct {
	*ValidationResult
	rawText string
}

func (a *Agent) streamOnce(ctx context.Context, cfg *agentConfig, message string, model ModelID) (string, error) {
	logger := LoggerFromContext(ctx)

	var full string
	var streamErr error
	var partial strings.Builder

	handler := StreamHandler{
		OnToken: func(ctx context.Context, token string) error {
			partial.WriteString(token)
			text := partial.String()
			return cfg.streamHook(ctx, len(text), strings.Count(text, `"action":`))
		},
		OnComplete: func(ctx context.Context, text string) error {
			full = text
			return nil
		},
		OnError: func(ctx context.Context, err error) {
			streamErr = err
		},
		OnUsage: func(ctx context.Context, usage Usage) {
			logger.Debug("usage reported",
				"input_tokens", usage.InputTokens, "output_tokens", usage.OutputTokens)
		},
	}

	if err := a.llm.SendStream(ctx, message, cfg.systemPrompt, handler, model); err != nil {
		return "", goerr.Wrap(err, "stream failed", goerr.V("model", model))
	}
	if streamErr != nil {
		return "", goerr.Wrap(streamErr, "stream failed", goerr.V("model", model))
	}
	return full, nil
}

// gateDestructive partitions the batch and blocks on the confirmation
// collaborator when destructive or overwriting actions are present.
// Confirmed overwrites are annotated so the executor replaces instead of
// failing. The bool result is false when the user declined.
func (a *Agent) gateDestructive(ctx context.Context, cfg *agentConfig, actions []VaultAction) ([]VaultAction, bool, error) {
	if !cfg.confirmDestructive || len(actions) == 0 {
		return actions, true, nil
	}

	overwrites, err := a.executor.OverwriteActions(ctx, actions)
	if err != nil {
		return nil, false, goerr.Wrap(err, "overwrite check failed")
	}
	overwriteSet := map[string]bool{}
	for _, o := range overwrites {
		overwriteSet[actionKey(o)] = true
	}

	var confirmRequired []VaultAction
	for _, action := range actions {
		if IsDestructive(action) || overwriteSet[actionKey(action)] {
			confirmRequired = append(confirmRequired, action)
		}
	}
	if len(confirmRequired) == 0 {
		return actions, true, nil
	}

	if cfg.confirm == nil {
		return nil, false, nil
	}
	ok, err := cfg.confirm(ctx, confirmRequired)
	if err != nil {
		return nil, false, goerr.Wrap(err, "confirmation failed")
	}
	if !ok {
		return nil, false, nil
	}

	out := make([]VaultAction, len(actions))
	for i, action := range actions {
		if overwriteSet[actionKey(action)] {
			out[i] = action.WithOverwrite()
		} else {
			out[i] = action
		}
	}
	return out, true, nil
}

func actionKey(a VaultAction) string {
	raw, err := json.Marshal(struct {
		Action ActionType     `json:"action"`
		Params map[string]any `json:"params"`
	}{a.Action, a.Params})
	if err != nil {
		return string(a.Action)
	}
	return string(raw)
}

// hashActions computes a stable hash of an executed action list.
// encoding/json sorts map keys, so equal action/param sets hash equally
// regardless of map iteration order.
func hashActions(actions []VaultAction) uint64 {
	h := fnv.New64a()
	for _, a := range actions {
		h.Write([]byte(actionKey(a)))
		h.Write([]byte{0})
	}
	return h.Sum64()
}

func allFailed(results []ActionResult) bool {
	for _, r := range results {
		if r.Success {
			return false
		}
	}
	return true
}

func cancelled(result *TurnResult) *TurnResult {
	result.Reason = TerminalCancelled
	result.Message = "Cancelled."
	return result
}

// waitBackoff sleeps for the deterministic linear backoff, honoring
// cancellation.
func waitBackoff(ctx context.Context, unit time.Duration, attempt int) error {
	timer := time.NewTimer(unit * time.Duration(attempt))
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
