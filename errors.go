package claudian

import "errors"

var (
	// ErrNoActionsRecovered is returned when no strategy can recover any
	// action from the raw response text.
	ErrNoActionsRecovered = errors.New("no actions recovered from response")

	ErrPlanAlreadyExecuted = errors.New("plan already executed")
	ErrInvalidPlanData     = errors.New("invalid plan data")
	ErrDependencyCycle     = errors.New("subtask dependency cycle")
)
