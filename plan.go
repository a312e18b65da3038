package claudian

import (
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/m-mizutani/goerr/v2"
)

// SubtaskStatus is the execution state of one subtask.
type SubtaskStatus string

const (
	SubtaskPending    SubtaskStatus = "pending"
	SubtaskInProgress SubtaskStatus = "in_progress"
	SubtaskCompleted  SubtaskStatus = "completed"
	SubtaskFailed     SubtaskStatus = "failed"
	SubtaskSkipped    SubtaskStatus = "skipped"
)

// Subtask is one bounded unit of a decomposed request. Dependencies name
// sibling subtask ids within the same plan and must form a DAG.
type Subtask struct {
	ID           string        `json:"id"`
	Index        int           `json:"index"`
	Description  string        `json:"description"`
	Prompt       string        `json:"prompt"`
	Dependencies []string      `json:"dependencies"`
	Status       SubtaskStatus `json:"status"`
	Result       string        `json:"result,omitempty"`
	Error        string        `json:"error,omitempty"`
}

// PlanStatus is the lifecycle state of a plan. Terminal states are
// monotonic: once completed, failed or cancelled, the plan never reverts.
type PlanStatus string

const (
	PlanPlanning  PlanStatus = "planning"
	PlanExecuting PlanStatus = "executing"
	PlanCompleted PlanStatus = "completed"
	PlanFailed    PlanStatus = "failed"
	PlanCancelled PlanStatus = "cancelled"
)

func (s PlanStatus) terminal() bool {
	return s == PlanCompleted || s == PlanFailed || s == PlanCancelled
}

// TaskPlan is a dependency-ordered decomposition of one oversized
// request. It persists across subtask executions until terminal.
type TaskPlan struct {
	ID                    string     `json:"id"`
	OriginalRequest       string     `json:"original_request"`
	Subtasks              []Subtask  `json:"subtasks"`
	TotalEstimatedActions int        `json:"total_estimated_actions"`
	CurrentSubtaskIndex   int        `json:"current_subtask_index"`
	Status                PlanStatus `json:"status"`
}

// PlanComplexity is the planner's own tier scale; unlike the classifier
// it has a very_complex tier for requests that need decomposition even
// under the strongest model.
type PlanComplexity string

const (
	PlanSimple      PlanComplexity = "simple"
	PlanModerate    PlanComplexity = "moderate"
	PlanComplex     PlanComplexity = "complex"
	PlanVeryComplex PlanComplexity = "very_complex"
)

// TaskAnalysis is the planner's pre-decomposition assessment.
type TaskAnalysis struct {
	MultiFile        bool
	Items            []string
	ComplexityScore  float64
	EstimatedActions int
	Complexity       PlanComplexity
	SuggestPlanning  bool
}

const (
	DefaultMaxSubtasks          = 10
	DefaultMaxActionsPerSubtask = 5
	maxDetectedItems            = 10
)

// Planner decomposes oversized requests into dependency-ordered subtasks.
type Planner struct {
	maxSubtasks          int
	maxActionsPerSubtask int
}

// PlannerOption configures a Planner.
type PlannerOption func(*Planner)

func WithMaxSubtasks(n int) PlannerOption {
	return func(p *Planner) {
		p.maxSubtasks = n
	}
}

func WithMaxActionsPerSubtask(n int) PlannerOption {
	return func(p *Planner) {
		p.maxActionsPerSubtask = n
	}
}

// NewPlanner creates a planner with default caps.
func NewPlanner(options ...PlannerOption) *Planner {
	p := &Planner{
		maxSubtasks:          DefaultMaxSubtasks,
		maxActionsPerSubtask: DefaultMaxActionsPerSubtask,
	}
	for _, opt := range options {
		opt(p)
	}
	return p
}

// Multi-file request detectors, tried in order. The first extractor
// yielding at least two items wins.
var multiFileDetectors = []struct {
	re      *regexp.Regexp
	extract func(m []string) []string
}{
	// "notes about: Elvis, Beatles, Madonna" / "notes on A, B and C"
	{
		regexp.MustCompile(`(?i)notes? (?:about|on|for):?\s+(.{2,200})`),
		func(m []string) []string { return splitItemList(m[1]) },
	},
	// numbered list items on separate lines
	{
		regexp.MustCompile(`(?m)^\s*\d+[.)]\s+(.+)$`),
		nil, // handled by FindAllStringSubmatch below
	},
	// explicit count: "create 5 notes about cooking"
	{
		regexp.MustCompile(`(?i)(?:create|make|write|generate)\s+(\d{1,2})\s+(?:notes?|files?)(?:\s+(?:about|on|for)\s+(.{2,100}))?`),
		func(m []string) []string { return expandCountedItems(m[1], m[2]) },
	},
}

// DetectMultiFileRequest returns the distinct items of a multi-file
// request, capped at ten, or nil when the request is not recognizably
// multi-file.
func (p *Planner) DetectMultiFileRequest(request string) []string {
	for _, d := range multiFileDetectors {
		var items []string
		if d.extract == nil {
			for _, m := range d.re.FindAllStringSubmatch(request, -1) {
				items = append(items, strings.TrimSpace(m[1]))
			}
		} else if m := d.re.FindStringSubmatch(request); m != nil {
			items = d.extract(m)
		}

		if len(items) >= 2 {
			if len(items) > maxDetectedItems {
				items = items[:maxDetectedItems]
			}
			return items
		}
	}
	return nil
}

func splitItemList(s string) []string {
	// Stop at sentence boundaries so trailing prose is not swallowed.
	if idx := strings.IndexAny(s, ".!?\n"); idx >= 0 {
		s = s[:idx]
	}

	s = regexp.MustCompile(`(?i)\s+(?:and|or|と|和)\s+`).ReplaceAllString(s, ",")
	parts := strings.Split(s, ",")

	var items []string
	for _, part := range parts {
		item := strings.TrimSpace(part)
		if item != "" {
			items = append(items, item)
		}
	}
	return items
}

func expandCountedItems(countStr, topic string) []string {
	count, err := strconv.Atoi(countStr)
	if err != nil || count < 2 {
		return nil
	}
	if count > maxDetectedItems {
		count = maxDetectedItems
	}

	topic = strings.TrimSpace(topic)
	if topic == "" {
		topic = "item"
	}

	items := make([]string, count)
	for i := range items {
		items[i] = fmt.Sprintf("%s %d", topic, i+1)
	}
	return items
}

// AnalyzeRequest scores a request and decides whether decomposition is
// worthwhile.
func (p *Planner) AnalyzeRequest(request string) TaskAnalysis {
	items := p.DetectMultiFileRequest(request)

	score := 0.0
	for _, cue := range complexityCues {
		if cue.re.MatchString(request) {
			score += cue.weight
		}
	}

	verbs := map[string]bool{}
	for _, m := range actionVerbPattern.FindAllStringSubmatch(request, -1) {
		verbs[strings.ToLower(m[1])] = true
	}
	if len(verbs) >= 3 {
		score += 1.0
	}

	maxNumber := 0
	for _, m := range numberPattern.FindAllStringSubmatch(request, -1) {
		if n, err := strconv.Atoi(m[1]); err == nil && n > maxNumber {
			maxNumber = n
		}
	}
	if maxNumber > 3 {
		score += 1.0
	}

	hasStructure := 0
	if structureWordPattern.MatchString(request) {
		hasStructure = 1
	}
	hasContent := 0
	if contentWordPattern.MatchString(request) {
		hasContent = 1
	}

	estimated := int(math.Round(math.Max(1,
		score*2+float64(maxNumber)+float64(5*hasStructure)+float64(3*hasContent))))

	var complexity PlanComplexity
	switch {
	case score <= 1:
		complexity = PlanSimple
	case score <= 3:
		complexity = PlanModerate
	case score <= 6:
		complexity = PlanComplex
	default:
		complexity = PlanVeryComplex
	}

	return TaskAnalysis{
		MultiFile:        len(items) > 0,
		Items:            items,
		ComplexityScore:  score,
		EstimatedActions: estimated,
		Complexity:       complexity,
		SuggestPlanning:  len(items) > 0 || (score >= 3 && estimated > p.maxActionsPerSubtask),
	}
}

// CreatePlan builds a dependency-ordered plan for the request, choosing
// the multi-file or simple decomposition based on the analysis.
func (p *Planner) CreatePlan(request string) (*TaskPlan, error) {
	analysis := p.AnalyzeRequest(request)

	var plan *TaskPlan
	if analysis.MultiFile {
		plan = p.createMultiFilePlan(request, analysis)
	} else {
		plan = p.createSimplePlan(request, analysis)
	}

	if err := validateDependencies(plan.Subtasks); err != nil {
		return nil, err
	}
	return plan, nil
}

func (p *Planner) createMultiFilePlan(request string, analysis TaskAnalysis) *TaskPlan {
	var subtasks []Subtask

	// A folder or structure mention gets one preparation subtask that
	// every item subtask depends on.
	var prepID string
	if structureWordPattern.MatchString(request) {
		prepID = "subtask-1"
		subtasks = append(subtasks, Subtask{
			ID:           prepID,
			Index:        0,
			Description:  "Prepare the folder structure",
			Prompt:       fmt.Sprintf("Create the folder structure needed for this request: %s", request),
			Dependencies: []string{},
			Status:       SubtaskPending,
		})
	}

	for _, item := range analysis.Items {
		if len(subtasks) >= p.maxSubtasks {
			break
		}
		deps := []string{}
		if prepID != "" {
			deps = []string{prepID}
		}
		subtasks = append(subtasks, Subtask{
			ID:           fmt.Sprintf("subtask-%d", len(subtasks)+1),
			Index:        len(subtasks),
			Description:  fmt.Sprintf("Create note for %s", item),
			Prompt:       fmt.Sprintf("Create the note about %q as part of this request: %s", item, request),
			Dependencies: deps,
			Status:       SubtaskPending,
		})
	}

	return &TaskPlan{
		ID:                    uuid.New().String(),
		OriginalRequest:       request,
		Subtasks:              subtasks,
		TotalEstimatedActions: analysis.EstimatedActions,
		Status:                PlanPlanning,
	}
}

func (p *Planner) createSimplePlan(request string, analysis TaskAnalysis) *TaskPlan {
	var subtasks []Subtask

	if analysis.EstimatedActions > p.maxActionsPerSubtask {
		subtasks = []Subtask{
			{
				ID:           "subtask-1",
				Index:        0,
				Description:  "Prepare folders and gather context",
				Prompt:       fmt.Sprintf("Prepare any folders and context needed for: %s", request),
				Dependencies: []string{},
				Status:       SubtaskPending,
			},
			{
				ID:           "subtask-2",
				Index:        1,
				Description:  "Execute the request",
				Prompt:       request,
				Dependencies: []string{"subtask-1"},
				Status:       SubtaskPending,
			},
		}
	} else {
		subtasks = []Subtask{
			{
				ID:           "subtask-1",
				Index:        0,
				Description:  "Execute the request",
				Prompt:       request,
				Dependencies: []string{},
				Status:       SubtaskPending,
			},
		}
	}

	return &TaskPlan{
		ID:                    uuid.New().String(),
		OriginalRequest:       request,
		Subtasks:              subtasks,
		TotalEstimatedActions: analysis.EstimatedActions,
		Status:                PlanPlanning,
	}
}

// validateDependencies rejects unknown dependency ids and cycles.
func validateDependencies(subtasks []Subtask) error {
	known := map[string]bool{}
	for _, s := range subtasks {
		known[s.ID] = true
	}

	deps := map[string][]string{}
	for _, s := range subtasks {
		for _, d := range s.Dependencies {
			if !known[d] {
				return goerr.Wrap(ErrInvalidPlanData, "unknown dependency", goerr.V("subtask", s.ID), goerr.V("dependency", d))
			}
		}
		deps[s.ID] = s.Dependencies
	}

	// Color-based cycle detection: 0 unvisited, 1 in progress, 2 done.
	state := map[string]int{}
	var visit func(id string) bool
	visit = func(id string) bool {
		switch state[id] {
		case 1:
			return false
		case 2:
			return true
		}
		state[id] = 1
		for _, d := range deps[id] {
			if !visit(d) {
				return false
			}
		}
		state[id] = 2
		return true
	}

	for id := range deps {
		if !visit(id) {
			return goerr.Wrap(ErrDependencyCycle, "plan is not a DAG", goerr.V("subtask", id))
		}
	}
	return nil
}

// NextSubtask returns the first pending subtask whose every dependency is
// completed, or nil when none is runnable.
func NextSubtask(plan *TaskPlan) *Subtask {
	done := map[string]bool{}
	for _, s := range plan.Subtasks {
		if s.Status == SubtaskCompleted {
			done[s.ID] = true
		}
	}

	for i := range plan.Subtasks {
		s := &plan.Subtasks[i]
		if s.Status != SubtaskPending {
			continue
		}
		ready := true
		for _, d := range s.Dependencies {
			if !done[d] {
				ready = false
				break
			}
		}
		if ready {
			return s
		}
	}
	return nil
}

// UpdateSubtaskStatus records a subtask transition and recomputes the
// plan status. Terminal plan states are never reverted.
func UpdateSubtaskStatus(plan *TaskPlan, subtaskID string, status SubtaskStatus, result, errMsg string) error {
	if plan.Status.terminal() {
		return goerr.Wrap(ErrPlanAlreadyExecuted, "plan is already terminal", goerr.V("status", plan.Status))
	}

	found := false
	for i := range plan.Subtasks {
		if plan.Subtasks[i].ID != subtaskID {
			continue
		}
		plan.Subtasks[i].Status = status
		plan.Subtasks[i].Result = result
		plan.Subtasks[i].Error = errMsg
		plan.CurrentSubtaskIndex = plan.Subtasks[i].Index
		found = true
		break
	}
	if !found {
		return goerr.Wrap(ErrInvalidPlanData, "unknown subtask", goerr.V("subtask_id", subtaskID))
	}

	plan.Status = recomputePlanStatus(plan)
	return nil
}

// recomputePlanStatus derives the plan state from its subtasks: completed
// when every subtask completed; failed when a subtask failed and no
// remaining pending subtask can still run (every pending subtask depends,
// directly or not, on a failed one).
func recomputePlanStatus(plan *TaskPlan) PlanStatus {
	failed := map[string]bool{}
	byID := map[string]*Subtask{}
	allCompleted := true
	anyFailed := false

	for i := range plan.Subtasks {
		s := &plan.Subtasks[i]
		byID[s.ID] = s
		if s.Status != SubtaskCompleted {
			allCompleted = false
		}
		if s.Status == SubtaskFailed {
			failed[s.ID] = true
			anyFailed = true
		}
	}

	if allCompleted {
		return PlanCompleted
	}
	if !anyFailed {
		return PlanExecuting
	}

	for i := range plan.Subtasks {
		s := &plan.Subtasks[i]
		if s.Status != SubtaskPending {
			continue
		}
		blocked := false
		for _, d := range s.Dependencies {
			if failed[d] {
				blocked = true
				break
			}
		}
		if !blocked {
			// At least one pending subtask can still make progress.
			return PlanExecuting
		}
	}
	return PlanFailed
}

// Cancel marks the plan cancelled unless it is already terminal.
func (p *TaskPlan) Cancel() {
	if !p.Status.terminal() {
		p.Status = PlanCancelled
	}
}

// Plan serialization follows a versioned envelope so persisted plans can
// be rejected cleanly after format changes.

const planVersion = 1

type planEnvelope struct {
	Version int      `json:"version"`
	Plan    TaskPlan `json:"plan"`
}

// Serialize encodes the plan for persistence.
func (p *TaskPlan) Serialize() ([]byte, error) {
	raw, err := json.Marshal(planEnvelope{Version: planVersion, Plan: *p})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to serialize plan")
	}
	return raw, nil
}

// RestorePlan decodes a plan persisted by Serialize, validating version
// and dependency structure.
func RestorePlan(data []byte) (*TaskPlan, error) {
	var env planEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, goerr.Wrap(ErrInvalidPlanData, "failed to unmarshal plan", goerr.V("cause", err.Error()))
	}
	if env.Version != planVersion {
		return nil, goerr.Wrap(ErrInvalidPlanData, "plan version mismatch",
			goerr.V("expected", planVersion), goerr.V("actual", env.Version))
	}
	if err := validateDependencies(env.Plan.Subtasks); err != nil {
		return nil, err
	}
	return &env.Plan, nil
}
