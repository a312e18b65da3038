package claudian_test

import (
	"strings"
	"testing"

	"github.com/Enigmora/claudian"
	"github.com/m-mizutani/gt"
)

func TestFormatResults(t *testing.T) {
	t.Run("success and failure glyphs", func(t *testing.T) {
		results := []claudian.ActionResult{
			{
				Success: true,
				Action:  claudian.VaultAction{Action: claudian.ActionCreateNote, Description: "Create daily note"},
				Result:  "created",
			},
			{
				Success: false,
				Action:  claudian.VaultAction{Action: claudian.ActionDeleteNote},
				Error:   "note not found",
			},
		}

		out := claudian.FormatResults(results)
		gt.True(t, strings.HasPrefix(out, "Action results:\n"))
		gt.True(t, strings.Contains(out, "✓ Create daily note"))
		gt.True(t, strings.Contains(out, "  result: created"))
		gt.True(t, strings.Contains(out, "✗ delete-note"))
		gt.True(t, strings.Contains(out, "  error: note not found"))
	})

	t.Run("long string results are truncated", func(t *testing.T) {
		results := []claudian.ActionResult{
			{
				Success: true,
				Action:  claudian.VaultAction{Action: claudian.ActionReadNote},
				Result:  strings.Repeat("x", 500),
			},
		}

		out := claudian.FormatResults(results)
		gt.True(t, strings.Contains(out, strings.Repeat("x", 200)+"..."))
		gt.False(t, strings.Contains(out, strings.Repeat("x", 201)))
	})

	t.Run("structured results are pretty printed", func(t *testing.T) {
		results := []claudian.ActionResult{
			{
				Success: true,
				Action:  claudian.VaultAction{Action: claudian.ActionSearchNotes},
				Result:  map[string]any{"matches": []any{"a.md", "b.md"}},
			},
		}

		out := claudian.FormatResults(results)
		gt.True(t, strings.Contains(out, `"matches"`))
		gt.True(t, strings.Contains(out, "a.md"))
	})

	t.Run("nil result prints no result line", func(t *testing.T) {
		results := []claudian.ActionResult{
			{Success: true, Action: claudian.VaultAction{Action: claudian.ActionCreateFolder}},
		}

		out := claudian.FormatResults(results)
		gt.False(t, strings.Contains(out, "result:"))
	})
}

func TestSummary(t *testing.T) {
	results := []claudian.ActionResult{
		{Success: true, Action: claudian.VaultAction{Action: claudian.ActionCreateNote, Description: "Create a.md"}},
		{Success: true, Action: claudian.VaultAction{Action: claudian.ActionCreateNote, Description: "Create b.md"}},
		{Success: false, Action: claudian.VaultAction{Action: claudian.ActionMoveNote}, Error: "target exists"},
	}

	out := claudian.Summary(results)
	gt.True(t, strings.Contains(out, "✓ Create a.md"))
	gt.True(t, strings.Contains(out, "✗ move-note"))
	gt.True(t, strings.HasSuffix(out, "2/3 actions succeeded"))
}
