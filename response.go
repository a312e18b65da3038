package claudian

import (
	"encoding/json"
	"fmt"
	"strings"
)

// AgentResponse is the structured object recovered from one model turn.
type AgentResponse struct {
	Thinking             string        `json:"thinking,omitempty"`
	Actions              []VaultAction `json:"actions"`
	Message              string        `json:"message"`
	RequiresConfirmation bool          `json:"requiresConfirmation,omitempty"`
	AwaitResults         bool          `json:"awaitResults,omitempty"`
}

// RecoveredMessage marks a response synthesized from truncated-action
// recovery, where the original message was lost to truncation.
const RecoveredMessage = "(response truncated; recovered actions)"

const maxResultChars = 200

// FormatResults renders executed action results into the follow-up user
// message that feeds the next loop iteration. String results longer than
// maxResultChars are truncated, structured results are pretty-printed.
func FormatResults(results []ActionResult) string {
	var sb strings.Builder
	sb.WriteString("Action results:\n")

	for _, r := range results {
		glyph := "✓"
		if !r.Success {
			glyph = "✗"
		}

		desc := r.Action.Description
		if desc == "" {
			desc = string(r.Action.Action)
		}
		fmt.Fprintf(&sb, "%s %s\n", glyph, desc)

		if !r.Success {
			if r.Error != "" {
				fmt.Fprintf(&sb, "  error: %s\n", r.Error)
			}
			continue
		}

		if r.Result == nil {
			continue
		}
		fmt.Fprintf(&sb, "  result: %s\n", formatResultValue(r.Result))
	}

	return sb.String()
}

func formatResultValue(v any) string {
	switch val := v.(type) {
	case string:
		if len(val) > maxResultChars {
			return val[:maxResultChars] + "..."
		}
		return val
	case map[string]any, []any:
		raw, err := json.MarshalIndent(val, "  ", "  ")
		if err != nil {
			return fmt.Sprintf("%v", val)
		}
		return string(raw)
	default:
		return fmt.Sprintf("%v", val)
	}
}

// Summary renders a human-readable terminal summary of the executed batch.
func Summary(results []ActionResult) string {
	succeeded := 0
	var sb strings.Builder
	for _, r := range results {
		glyph := "✓"
		if r.Success {
			succeeded++
		} else {
			glyph = "✗"
		}
		desc := r.Action.Description
		if desc == "" {
			desc = string(r.Action.Action)
		}
		fmt.Fprintf(&sb, "%s %s\n", glyph, desc)
	}
	fmt.Fprintf(&sb, "%d/%d actions succeeded", succeeded, len(results))
	return sb.String()
}
