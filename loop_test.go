package claudian_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/Enigmora/claudian"
	"github.com/Enigmora/claudian/mock"
	"github.com/m-mizutani/gt"
)

// scriptedLLM replies with the scripted texts in order, repeating the
// last one when the script runs out.
func scriptedLLM(texts ...string) *mock.LLMClientMock {
	calls := 0
	return &mock.LLMClientMock{
		SendStreamFunc: func(ctx context.Context, message, systemPrompt string, handler claudian.StreamHandler, model claudian.ModelID) error {
			text := texts[len(texts)-1]
			if calls < len(texts) {
				text = texts[calls]
			}
			calls++
			if handler.OnToken != nil {
				if err := handler.OnToken(ctx, text); err != nil {
					return err
				}
			}
			return handler.OnComplete(ctx, text)
		},
		AbortFunc: func() {},
	}
}

func okExecutor() *mock.ExecutorMock {
	return &mock.ExecutorMock{
		ExecuteAllFunc: func(ctx context.Context, actions []claudian.VaultAction, onProgress func(claudian.Progress)) ([]claudian.ActionResult, error) {
			results := make([]claudian.ActionResult, len(actions))
			for i, a := range actions {
				results[i] = claudian.ActionResult{Success: true, Action: a, Result: "ok"}
				if onProgress != nil {
					onProgress(claudian.Progress{Current: i + 1, Total: len(actions), Action: a, Result: &results[i]})
				}
			}
			return results, nil
		},
		OverwriteActionsFunc: func(ctx context.Context, actions []claudian.VaultAction) ([]claudian.VaultAction, error) {
			return nil, nil
		},
	}
}

func actionJSON(path string, await bool) string {
	return fmt.Sprintf(`{"thinking": "t", "actions": [{"action": "create-note", "params": {"path": %q}}], "message": "working", "awaitResults": %v, "requiresConfirmation": false}`, path, await)
}

func TestAgentExecute(t *testing.T) {
	ctx := t.Context()

	t.Run("single action turn", func(t *testing.T) {
		llm := scriptedLLM(actionJSON("a.md", false))
		exec := okExecutor()
		agent := claudian.New(llm, exec)

		result, err := agent.Execute(ctx, "create a note")
		gt.NoError(t, err)
		gt.Equal(t, result.Reason, claudian.TerminalCompleted)
		gt.Equal(t, result.Message, "working")
		gt.Equal(t, result.Iterations, 1)
		gt.Equal(t, len(result.Results), 1)
		gt.Equal(t, len(llm.SendStreamCalls()), 1)
		gt.Equal(t, len(exec.ExecuteAllCalls()), 1)
	})

	t.Run("plain prose turn bypasses the executor", func(t *testing.T) {
		llm := scriptedLLM("Your vault already has that note.")
		exec := okExecutor()
		agent := claudian.New(llm, exec)

		result, err := agent.Execute(ctx, "do I have a note about tea?")
		gt.NoError(t, err)
		gt.Equal(t, result.Reason, claudian.TerminalCompleted)
		gt.Equal(t, result.Message, "Your vault already has that note.")
		gt.Equal(t, len(exec.ExecuteAllCalls()), 0)
	})

	t.Run("await results feeds formatted results back", func(t *testing.T) {
		llm := scriptedLLM(
			actionJSON("a.md", true),
			`{"thinking": "t", "actions": [], "message": "all done", "requiresConfirmation": false}`,
		)
		agent := claudian.New(llm, okExecutor())

		result, err := agent.Execute(ctx, "create then verify")
		gt.NoError(t, err)
		gt.Equal(t, result.Reason, claudian.TerminalCompleted)
		gt.Equal(t, result.Message, "all done")
		gt.Equal(t, result.Iterations, 2)

		calls := llm.SendStreamCalls()
		gt.Equal(t, len(calls), 2)
		gt.True(t, strings.Contains(calls[1].Message, "Action results:"))
		gt.True(t, strings.Contains(calls[1].Message, "✓"))
	})

	t.Run("loop limit stops runaway turns", func(t *testing.T) {
		call := 0
		llm := &mock.LLMClientMock{
			SendStreamFunc: func(ctx context.Context, message, systemPrompt string, handler claudian.StreamHandler, model claudian.ModelID) error {
				call++
				return handler.OnComplete(ctx, actionJSON(fmt.Sprintf("note-%d.md", call), true))
			},
			AbortFunc: func() {},
		}
		agent := claudian.New(llm, okExecutor())

		result, err := agent.Execute(ctx, "keep going")
		gt.NoError(t, err)
		gt.Equal(t, result.Reason, claudian.TerminalLoopLimit)
		gt.Equal(t, len(llm.SendStreamCalls()), claudian.DefaultLoopLimit)
	})

	t.Run("identical action set twice is an infinite loop", func(t *testing.T) {
		llm := scriptedLLM(actionJSON("same.md", true))
		exec := okExecutor()
		agent := claudian.New(llm, exec)

		result, err := agent.Execute(ctx, "loop forever")
		gt.NoError(t, err)
		gt.Equal(t, result.Reason, claudian.TerminalInfiniteLoop)
		// The repeat is detected after execution, on the second batch.
		gt.Equal(t, len(exec.ExecuteAllCalls()), 2)
	})

	t.Run("all actions failing ends the turn", func(t *testing.T) {
		llm := scriptedLLM(actionJSON("a.md", true))
		exec := okExecutor()
		exec.ExecuteAllFunc = func(ctx context.Context, actions []claudian.VaultAction, onProgress func(claudian.Progress)) ([]claudian.ActionResult, error) {
			results := make([]claudian.ActionResult, len(actions))
			for i, a := range actions {
				results[i] = claudian.ActionResult{Success: false, Action: a, Error: "vault locked"}
			}
			return results, nil
		}
		agent := claudian.New(llm, exec)

		result, err := agent.Execute(ctx, "try anyway")
		gt.NoError(t, err)
		gt.Equal(t, result.Reason, claudian.TerminalAllActionsFailed)
		gt.Equal(t, len(exec.ExecuteAllCalls()), 1)
	})

	t.Run("destructive action denied without a confirmer", func(t *testing.T) {
		llm := scriptedLLM(`{"actions": [{"action": "delete-note", "params": {"path": "a.md"}}], "message": "deleting"}`)
		exec := okExecutor()
		agent := claudian.New(llm, exec)

		result, err := agent.Execute(ctx, "delete it")
		gt.NoError(t, err)
		gt.Equal(t, result.Reason, claudian.TerminalConfirmationDenied)
		gt.Equal(t, len(exec.ExecuteAllCalls()), 0)
	})

	t.Run("destructive action denied by the user", func(t *testing.T) {
		llm := scriptedLLM(`{"actions": [{"action": "delete-note", "params": {"path": "a.md"}}], "message": "deleting"}`)
		agent := claudian.New(llm, okExecutor(),
			claudian.WithConfirm(func(ctx context.Context, actions []claudian.VaultAction) (bool, error) {
				return false, nil
			}),
		)

		result, err := agent.Execute(ctx, "delete it")
		gt.NoError(t, err)
		gt.Equal(t, result.Reason, claudian.TerminalConfirmationDenied)
	})

	t.Run("confirmed overwrite is annotated", func(t *testing.T) {
		llm := scriptedLLM(actionJSON("existing.md", false))
		exec := okExecutor()
		exec.OverwriteActionsFunc = func(ctx context.Context, actions []claudian.VaultAction) ([]claudian.VaultAction, error) {
			return actions[:1], nil
		}
		var confirmed []claudian.VaultAction
		agent := claudian.New(llm, exec,
			claudian.WithConfirm(func(ctx context.Context, actions []claudian.VaultAction) (bool, error) {
				confirmed = actions
				return true, nil
			}),
		)

		result, err := agent.Execute(ctx, "create over the old one")
		gt.NoError(t, err)
		gt.Equal(t, result.Reason, claudian.TerminalCompleted)
		gt.Equal(t, len(confirmed), 1)

		executed := exec.ExecuteAllCalls()[0].Actions
		gt.Equal(t, executed[0].Params["overwrite"], true)
	})

	t.Run("confirmation skipped when disabled", func(t *testing.T) {
		llm := scriptedLLM(`{"actions": [{"action": "delete-note", "params": {"path": "a.md"}}], "message": "deleted"}`)
		exec := okExecutor()
		agent := claudian.New(llm, exec, claudian.WithConfirmDestructive(false))

		result, err := agent.Execute(ctx, "delete it")
		gt.NoError(t, err)
		gt.Equal(t, result.Reason, claudian.TerminalCompleted)
		gt.Equal(t, len(exec.ExecuteAllCalls()), 1)
	})

	t.Run("corrective retry after prose-only claim", func(t *testing.T) {
		llm := scriptedLLM(
			"I have created the note for you.",
			actionJSON("a.md", false),
		)
		agent := claudian.New(llm, okExecutor(), claudian.WithBackoffUnit(time.Millisecond))

		result, err := agent.Execute(ctx, "create a note")
		gt.NoError(t, err)
		gt.Equal(t, result.Reason, claudian.TerminalCompleted)

		calls := llm.SendStreamCalls()
		gt.Equal(t, len(calls), 2)
		gt.True(t, strings.Contains(calls[1].Message, "JSON"))
	})

	t.Run("truncated response is auto-continued and merged", func(t *testing.T) {
		first := `{"thinking": "t", "actions": [{"action": "create-note", "params": {"path": "a.md"}},`
		second := ` {"action": "create-note", "params": {"path": "b.md"}}], "message": "both created", "requiresConfirmation": false}`
		llm := scriptedLLM(first, second)
		exec := okExecutor()
		agent := claudian.New(llm, exec, claudian.WithBackoffUnit(time.Millisecond))

		result, err := agent.Execute(ctx, "create two notes")
		gt.NoError(t, err)
		gt.Equal(t, result.Reason, claudian.TerminalCompleted)
		gt.Equal(t, result.Message, "both created")

		calls := llm.SendStreamCalls()
		gt.Equal(t, len(calls), 2)
		gt.True(t, strings.Contains(calls[1].Message, "Continue"))
		gt.Equal(t, len(exec.ExecuteAllCalls()[0].Actions), 2)
	})

	t.Run("retry budget is shared and bounded", func(t *testing.T) {
		llm := scriptedLLM("I have created the note for you.")
		agent := claudian.New(llm, okExecutor(), claudian.WithBackoffUnit(time.Millisecond))

		_, err := agent.Execute(ctx, "create a note")
		gt.Error(t, err)
		gt.True(t, errors.Is(err, claudian.ErrNoActionsRecovered))
		// initial call plus the full retry budget
		gt.Equal(t, len(llm.SendStreamCalls()), claudian.DefaultRetryLimit+1)
	})

	t.Run("action count capped per message", func(t *testing.T) {
		var actions []string
		for i := 0; i < 5; i++ {
			actions = append(actions, fmt.Sprintf(`{"action": "create-note", "params": {"path": "n%d.md"}}`, i))
		}
		text := fmt.Sprintf(`{"actions": [%s], "message": "m"}`, strings.Join(actions, ","))
		llm := scriptedLLM(text)
		exec := okExecutor()
		agent := claudian.New(llm, exec, claudian.WithMaxActionsPerMessage(3))

		result, err := agent.Execute(ctx, "create many")
		gt.NoError(t, err)
		gt.Equal(t, result.Reason, claudian.TerminalCompleted)
		gt.Equal(t, len(exec.ExecuteAllCalls()[0].Actions), 3)
	})

	t.Run("cancellation before the first call", func(t *testing.T) {
		cancelledCtx, cancel := context.WithCancel(context.Background())
		cancel()

		llm := scriptedLLM(actionJSON("a.md", false))
		agent := claudian.New(llm, okExecutor())

		result, err := agent.Execute(cancelledCtx, "create a note")
		gt.NoError(t, err)
		gt.Equal(t, result.Reason, claudian.TerminalCancelled)
		gt.Equal(t, len(llm.SendStreamCalls()), 0)
	})

	t.Run("message hook sees each assistant message", func(t *testing.T) {
		llm := scriptedLLM(
			actionJSON("a.md", true),
			`{"actions": [], "message": "all done"}`,
		)
		var messages []string
		agent := claudian.New(llm, okExecutor(),
			claudian.WithMessageHook(func(ctx context.Context, msg string) error {
				messages = append(messages, msg)
				return nil
			}),
		)

		_, err := agent.Execute(ctx, "create then verify")
		gt.NoError(t, err)
		gt.Equal(t, messages, []string{"working", "all done"})
	})

	t.Run("stream hook receives running stats", func(t *testing.T) {
		llm := scriptedLLM(actionJSON("a.md", false))
		var lastChars, lastActions int
		agent := claudian.New(llm, okExecutor(),
			claudian.WithStreamHook(func(ctx context.Context, chars, actions int) error {
				lastChars, lastActions = chars, actions
				return nil
			}),
		)

		_, err := agent.Execute(ctx, "create a note")
		gt.NoError(t, err)
		gt.True(t, lastChars > 0)
		gt.Equal(t, lastActions, 1)
	})
}

func TestActionHashing(t *testing.T) {
	a := claudian.VaultAction{Action: claudian.ActionCreateNote, Params: map[string]any{"path": "a.md", "content": "x"}}
	b := claudian.VaultAction{Action: claudian.ActionCreateNote, Params: map[string]any{"content": "x", "path": "a.md"}}
	c := claudian.VaultAction{Action: claudian.ActionCreateNote, Params: map[string]any{"path": "b.md"}}

	t.Run("param order does not change the hash", func(t *testing.T) {
		gt.Equal(t,
			claudian.HashActions([]claudian.VaultAction{a}),
			claudian.HashActions([]claudian.VaultAction{b}),
		)
	})

	t.Run("different params change the hash", func(t *testing.T) {
		gt.NotEqual(t,
			claudian.HashActions([]claudian.VaultAction{a}),
			claudian.HashActions([]claudian.VaultAction{c}),
		)
	})

	t.Run("action order changes the hash", func(t *testing.T) {
		gt.NotEqual(t,
			claudian.HashActions([]claudian.VaultAction{a, c}),
			claudian.HashActions([]claudian.VaultAction{c, a}),
		)
	})
}
