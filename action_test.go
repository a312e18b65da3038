package claudian_test

import (
	"testing"

	"github.com/Enigmora/claudian"
	"github.com/m-mizutani/gt"
)

func TestVaultAction(t *testing.T) {
	t.Run("WithParam leaves the original untouched", func(t *testing.T) {
		original := claudian.VaultAction{
			Action: claudian.ActionCreateNote,
			Params: map[string]any{"path": "a.md"},
		}

		modified := original.WithParam("content", "hello")
		gt.Equal(t, modified.Params["path"], "a.md")
		gt.Equal(t, modified.Params["content"], "hello")

		_, ok := original.Params["content"]
		gt.False(t, ok)
	})

	t.Run("WithOverwrite sets the overwrite param", func(t *testing.T) {
		action := claudian.VaultAction{
			Action: claudian.ActionCreateNote,
			Params: map[string]any{"path": "a.md"},
		}

		gt.Equal(t, action.WithOverwrite().Params["overwrite"], true)
		_, ok := action.Params["overwrite"]
		gt.False(t, ok)
	})
}

func TestIsDestructive(t *testing.T) {
	destructive := []claudian.ActionType{
		claudian.ActionDeleteNote,
		claudian.ActionDeleteFolder,
		claudian.ActionReplaceContent,
		claudian.ActionEditorSetContent,
	}
	for _, at := range destructive {
		t.Run(string(at), func(t *testing.T) {
			gt.True(t, claudian.IsDestructive(claudian.VaultAction{Action: at}))
		})
	}

	safe := []claudian.ActionType{
		claudian.ActionCreateNote,
		claudian.ActionReadNote,
		claudian.ActionSearchNotes,
		claudian.ActionMoveNote,
	}
	for _, at := range safe {
		t.Run(string(at), func(t *testing.T) {
			gt.False(t, claudian.IsDestructive(claudian.VaultAction{Action: at}))
		})
	}
}
