package claudian_test

import (
	"strings"
	"testing"

	"github.com/Enigmora/claudian"
	"github.com/m-mizutani/gt"
)

func TestValidateResponse(t *testing.T) {
	t.Run("claim without json is an error", func(t *testing.T) {
		text := "I have created the file for you."
		v := claudian.ValidateResponse(text, nil)
		gt.False(t, v.IsValid)
		gt.True(t, v.HasActionClaims)
		gt.False(t, v.HasActionJSON)
		gt.True(t, v.ShouldRetry())
		gt.True(t, hasWarning(v, claudian.WarningMissingJSON))
		gt.True(t, strings.Contains(v.RetryPrompt(), "JSON"))
	})

	t.Run("claim backed by matching action", func(t *testing.T) {
		text := `I've created the note. {"actions": [{"action": "create-note", "params": {"path": "a.md"}}], "message": "done"}`
		parsed := claudian.ExtractResponse(text)
		gt.NotNil(t, parsed)
		v := claudian.ValidateResponse(text, parsed)
		gt.True(t, v.IsValid)
		gt.False(t, v.ShouldRetry())
		gt.False(t, hasWarning(v, claudian.WarningClaimMismatch))
	})

	t.Run("claim with empty actions array", func(t *testing.T) {
		text := `I've created the note. {"actions": [], "message": "done"}`
		parsed := claudian.ExtractResponse(text)
		gt.NotNil(t, parsed)
		v := claudian.ValidateResponse(text, parsed)
		gt.False(t, v.IsValid)
		gt.False(t, v.ShouldRetry()) // empty_actions is not recoverable by re-prompting
		gt.True(t, hasWarning(v, claudian.WarningEmptyActions))
	})

	t.Run("capability confusion", func(t *testing.T) {
		text := "I cannot create files in your vault. As an AI, I can only suggest content."
		v := claudian.ValidateResponse(text, nil)
		gt.False(t, v.IsValid)
		gt.True(t, v.ShouldRetry())
		gt.True(t, hasWarning(v, claudian.WarningConfusion))
		gt.True(t, strings.Contains(v.RetryPrompt(), "agent mode"))
	})

	t.Run("confusion outranks missing json in retry prompt", func(t *testing.T) {
		text := "I cannot create files. However, I have created a draft for you."
		v := claudian.ValidateResponse(text, nil)
		gt.True(t, hasWarning(v, claudian.WarningConfusion))
		gt.True(t, hasWarning(v, claudian.WarningMissingJSON))
		gt.True(t, strings.Contains(v.RetryPrompt(), "agent mode"))
	})

	t.Run("claim category mismatch is informational", func(t *testing.T) {
		text := `I've deleted the old notes. {"actions": [{"action": "create-note", "params": {"path": "a.md"}}], "message": "done"}`
		parsed := claudian.ExtractResponse(text)
		v := claudian.ValidateResponse(text, parsed)
		gt.True(t, v.IsValid)
		gt.True(t, hasWarning(v, claudian.WarningClaimMismatch))
		gt.False(t, v.ShouldRetry())
	})

	t.Run("incomplete json noted when extraction failed", func(t *testing.T) {
		text := `{"thinking": "about to", "actions": [`
		gt.Nil(t, claudian.ExtractResponse(text))
		v := claudian.ValidateResponse(text, nil)
		gt.True(t, hasWarning(v, claudian.WarningIncompleteJSON))
	})

	t.Run("plain prose is valid", func(t *testing.T) {
		v := claudian.ValidateResponse("Your vault looks well organized already.", nil)
		gt.True(t, v.IsValid)
		gt.False(t, v.HasActionClaims)
		gt.Equal(t, len(v.Warnings), 0)
	})

	t.Run("claims deduplicated across locales", func(t *testing.T) {
		text := "I have created the note. ノートを作成しました。"
		v := claudian.ValidateResponse(text, nil)
		gt.Equal(t, v.ClaimedActions, []string{"create"})
	})

	t.Run("japanese claim without json", func(t *testing.T) {
		v := claudian.ValidateResponse("ファイルを削除しました。", nil)
		gt.False(t, v.IsValid)
		gt.True(t, hasWarning(v, claudian.WarningMissingJSON))
	})
}

func hasWarning(v *claudian.ValidationResult, warningType string) bool {
	for _, w := range v.Warnings {
		if w.Type == warningType {
			return true
		}
	}
	return false
}
