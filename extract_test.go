package claudian_test

import (
	"strings"
	"testing"

	"github.com/Enigmora/claudian"
	"github.com/m-mizutani/gt"
)

func TestExtractResponse(t *testing.T) {
	t.Run("fenced json block", func(t *testing.T) {
		text := "Sure, here is what I will do:\n```json\n{\"thinking\": \"plan\", \"actions\": [{\"action\": \"create-note\", \"params\": {\"path\": \"a.md\"}}], \"message\": \"created\"}\n```\nLet me know."
		resp := claudian.ExtractResponse(text)
		gt.NotNil(t, resp)
		gt.Equal(t, len(resp.Actions), 1)
		gt.Equal(t, resp.Actions[0].Action, claudian.ActionCreateNote)
		gt.Equal(t, resp.Message, "created")
	})

	t.Run("fence without language tag", func(t *testing.T) {
		text := "```\n{\"actions\": [], \"message\": \"nothing to do\"}\n```"
		resp := claudian.ExtractResponse(text)
		gt.NotNil(t, resp)
		gt.Equal(t, len(resp.Actions), 0)
		gt.Equal(t, resp.Message, "nothing to do")
	})

	t.Run("bare object surrounded by prose", func(t *testing.T) {
		text := "Here you go: {\"thinking\": \"t\", \"actions\": [{\"action\": \"read-note\", \"params\": {\"path\": \"b.md\"}}], \"message\": \"reading\"} done."
		resp := claudian.ExtractResponse(text)
		gt.NotNil(t, resp)
		gt.Equal(t, len(resp.Actions), 1)
		gt.Equal(t, resp.Actions[0].Action, claudian.ActionReadNote)
	})

	t.Run("restart artifact prefers second object", func(t *testing.T) {
		text := `{"thinking": "first", "actions": []} {"thinking": "second", "actions": [{"action": "create-note", "params": {"path": "c.md"}}], "message": "ok"}`
		resp := claudian.ExtractResponse(text)
		gt.NotNil(t, resp)
		gt.Equal(t, resp.Thinking, "second")
		gt.Equal(t, len(resp.Actions), 1)
	})

	t.Run("truncated actions array recovers complete objects", func(t *testing.T) {
		text := `{"thinking": "t", "actions": [{"action": "create-note", "params": {"path": "a.md"}}, {"action": "update-note", "params": {"path": "b.`
		resp := claudian.ExtractResponse(text)
		gt.NotNil(t, resp)
		gt.Equal(t, len(resp.Actions), 1)
		gt.Equal(t, resp.Actions[0].Action, claudian.ActionCreateNote)
		gt.Equal(t, resp.Message, claudian.RecoveredMessage)
		gt.False(t, resp.AwaitResults)
	})

	t.Run("object without actions key is skipped", func(t *testing.T) {
		gt.Nil(t, claudian.ExtractResponse(`{"message": "hi there"}`))
	})

	t.Run("prose only", func(t *testing.T) {
		gt.Nil(t, claudian.ExtractResponse("I looked around but found nothing to change."))
	})

	t.Run("empty input", func(t *testing.T) {
		gt.Nil(t, claudian.ExtractResponse("   \n  "))
	})

	t.Run("braces inside string literals", func(t *testing.T) {
		text := `{"thinking": "use {curly} braces", "actions": [{"action": "create-note", "params": {"path": "d.md", "content": "a } in text"}}], "message": "done"}`
		resp := claudian.ExtractResponse(text)
		gt.NotNil(t, resp)
		gt.Equal(t, len(resp.Actions), 1)
		gt.Equal(t, resp.Actions[0].Params["content"], "a } in text")
	})

	t.Run("null actions normalized to empty slice", func(t *testing.T) {
		resp := claudian.ExtractResponse(`{"actions": null, "message": "m"}`)
		gt.NotNil(t, resp)
		gt.NotNil(t, resp.Actions)
		gt.Equal(t, len(resp.Actions), 0)
	})
}

func FuzzExtractResponse(f *testing.F) {
	seeds := []string{
		`{"actions": [{"action": "create-note", "params": {"path": "a.md"}}], "message": "ok"}`,
		"```json\n{\"actions\": []}\n```",
		"{{{{{{{{",
		`}}}}{"actions": [`,
		strings.Repeat(`{"a":`, 64) + "1" + strings.Repeat("}", 64),
		`prose { with } stray {{ braces and "quotes \" inside`,
		`{"thinking"} {"thinking": "restart", "actions": []}`,
		"\xff\xfe{\"actions\": [",
		`{"actions": [{"action": "x", "params": {"p": "}"}},`,
		strings.Repeat(`} {"thinking"`, 32),
	}
	for _, s := range seeds {
		f.Add(s)
	}

	f.Fuzz(func(t *testing.T, text string) {
		resp := claudian.ExtractResponse(text)
		if resp == nil {
			return
		}
		// A recovered response always carries a non-nil actions slice.
		gt.NotNil(t, resp.Actions)
	})
}
