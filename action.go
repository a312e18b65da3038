package claudian

import (
	"context"
	"maps"
)

// ActionType identifies one discrete vault operation. The set mirrors the
// tool surface of the vault executor; the agent core never interprets
// params beyond partitioning and annotation.
type ActionType string

const (
	ActionCreateNote       ActionType = "create-note"
	ActionCreateFolder     ActionType = "create-folder"
	ActionDeleteNote       ActionType = "delete-note"
	ActionDeleteFolder     ActionType = "delete-folder"
	ActionMoveNote         ActionType = "move-note"
	ActionCopyNote         ActionType = "copy-note"
	ActionRenameNote       ActionType = "rename-note"
	ActionUpdateNote       ActionType = "update-note"
	ActionReplaceContent   ActionType = "replace-content"
	ActionEditorSetContent ActionType = "editor-set-content"
	ActionListFolder       ActionType = "list-folder"
	ActionReadNote         ActionType = "read-note"
	ActionSearchNotes      ActionType = "search-notes"
)

// VaultAction is one action requested by the model. It is immutable once
// parsed; annotations produce a shallow copy with modified params.
type VaultAction struct {
	Action      ActionType     `json:"action"`
	Params      map[string]any `json:"params"`
	Description string         `json:"description,omitempty"`
}

// WithParam returns a copy of the action with one parameter overridden.
// The original action is left untouched.
func (a VaultAction) WithParam(key string, value any) VaultAction {
	params := make(map[string]any, len(a.Params)+1)
	maps.Copy(params, a.Params)
	params[key] = value
	return VaultAction{
		Action:      a.Action,
		Params:      params,
		Description: a.Description,
	}
}

// WithOverwrite marks a create action to overwrite an existing file.
func (a VaultAction) WithOverwrite() VaultAction {
	return a.WithParam("overwrite", true)
}

// ActionResult is the executor's report for one action, order-preserving
// with respect to the requested batch.
type ActionResult struct {
	Success bool        `json:"success"`
	Action  VaultAction `json:"action"`
	Result  any         `json:"result,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// destructiveActions always require user confirmation before execution.
// A create-note that would overwrite an existing file joins this set at
// partition time via Executor.OverwriteActions.
var destructiveActions = map[ActionType]bool{
	ActionDeleteNote:       true,
	ActionDeleteFolder:     true,
	ActionReplaceContent:   true,
	ActionEditorSetContent: true,
}

// IsDestructive reports whether the action type itself is destructive,
// independent of vault state.
func IsDestructive(action VaultAction) bool {
	return destructiveActions[action.Action]
}

// Progress reports the state of a sequential batch execution. Result is
// nil before the action runs and set on the completion callback.
type Progress struct {
	Current int
	Total   int
	Action  VaultAction
	Result  *ActionResult
}

// Executor runs vault actions. It owns all filesystem and note semantics;
// the agent core treats it as opaque.
type Executor interface {
	// Execute runs a single action. Failures are reported in the result,
	// not as an error; an error return means the executor itself broke.
	Execute(ctx context.Context, action VaultAction) (ActionResult, error)

	// ExecuteAll runs actions strictly one at a time, in order, so later
	// actions observe the side effects of earlier ones. It keeps going
	// past individual failures and stops early only on ctx cancellation.
	ExecuteAll(ctx context.Context, actions []VaultAction, onProgress func(Progress)) ([]ActionResult, error)

	// OverwriteActions returns the subset of actions that would overwrite
	// an existing file.
	OverwriteActions(ctx context.Context, actions []VaultAction) ([]VaultAction, error)
}

// ConfirmFunc asks the user to approve destructive actions. It blocks
// until the user answers or ctx is cancelled.
type ConfirmFunc func(ctx context.Context, actions []VaultAction) (bool, error)
