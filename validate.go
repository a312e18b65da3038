package claudian

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

// WarningSeverity grades validation findings.
type WarningSeverity string

const (
	SeverityError   WarningSeverity = "error"
	SeverityWarning WarningSeverity = "warning"
	SeverityInfo    WarningSeverity = "info"
)

// Warning types, in retry-prompt priority order.
const (
	WarningConfusion      = "confusion"
	WarningMissingJSON    = "missing_json"
	WarningEmptyActions   = "empty_actions"
	WarningIncompleteJSON = "incomplete_json"
	WarningClaimMismatch  = "claim_mismatch"
	WarningSchemaMismatch = "schema_mismatch"
)

// Warning is one validation finding.
type Warning struct {
	Type     string
	Message  string
	Severity WarningSeverity
}

// ValidationResult cross-checks the model's prose claims against the
// actions actually recovered from its JSON.
type ValidationResult struct {
	IsValid         bool
	HasActionClaims bool
	HasActionJSON   bool
	ClaimedActions  []string
	ActualActions   []ActionType
	Warnings        []Warning
	Suggestions     []string
}

// ShouldRetry reports whether a corrective retry is worth sending: only
// confusion and missing-JSON findings are recoverable by re-prompting.
func (r *ValidationResult) ShouldRetry() bool {
	for _, w := range r.Warnings {
		if w.Severity != SeverityError {
			continue
		}
		if w.Type == WarningConfusion || w.Type == WarningMissingJSON {
			return true
		}
	}
	return false
}

// RetryPrompt selects the corrective instruction for the highest-priority
// warning present.
func (r *ValidationResult) RetryPrompt() string {
	byType := map[string]bool{}
	for _, w := range r.Warnings {
		byType[w.Type] = true
	}

	switch {
	case byType[WarningConfusion]:
		return "Reminder: you are operating in agent mode and CAN perform vault operations. Respond with a JSON object containing an \"actions\" array; do not claim you lack the ability."
	case byType[WarningMissingJSON]:
		return "Your previous response described actions in prose but contained no action JSON. Respond again with a single JSON object: {\"thinking\": ..., \"actions\": [...], \"message\": ...}."
	case byType[WarningIncompleteJSON]:
		return "Your previous response contained incomplete JSON. Continue it exactly where it stopped, without restarting."
	default:
		return "Please respond again with a single well-formed JSON object containing an \"actions\" array."
	}
}

// agentResponseSchema is the structural contract of a parsed response.
// Violations are advisory; the claim/confusion rules decide validity.
const agentResponseSchema = `{
	"type": "object",
	"required": ["actions", "message"],
	"properties": {
		"thinking": {"type": "string"},
		"message": {"type": "string"},
		"requiresConfirmation": {"type": "boolean"},
		"awaitResults": {"type": "boolean"},
		"actions": {
			"type": "array",
			"items": {
				"type": "object",
				"required": ["action", "params"],
				"properties": {
					"action": {"type": "string", "minLength": 1},
					"params": {"type": "object"},
					"description": {"type": "string"}
				}
			}
		}
	}
}`

var (
	schemaOnce     sync.Once
	responseSchema *jsonschema.Schema
)

func compiledSchema() *jsonschema.Schema {
	schemaOnce.Do(func() {
		doc, err := jsonschema.UnmarshalJSON(strings.NewReader(agentResponseSchema))
		if err != nil {
			panic(fmt.Sprintf("agent response schema is not valid JSON: %v", err))
		}
		c := jsonschema.NewCompiler()
		if err := c.AddResource("agent_response.json", doc); err != nil {
			panic(fmt.Sprintf("failed to add agent response schema: %v", err))
		}
		sch, err := c.Compile("agent_response.json")
		if err != nil {
			panic(fmt.Sprintf("agent response schema does not compile: %v", err))
		}
		responseSchema = sch
	})
	return responseSchema
}

// ValidateResponse checks a model turn for coherence between what the
// text claims and what the parsed response will actually do. parsed may
// be nil when extraction failed.
func ValidateResponse(rawText string, parsed *AgentResponse) *ValidationResult {
	result := &ValidationResult{}

	// Claims: deduplicated semantic categories matched in any locale.
	seen := map[string]bool{}
	for _, p := range claimPatterns {
		if seen[p.tag] {
			continue
		}
		if p.re.MatchString(rawText) {
			seen[p.tag] = true
			result.ClaimedActions = append(result.ClaimedActions, p.tag)
		}
	}
	result.HasActionClaims = len(result.ClaimedActions) > 0

	confused := false
	for _, re := range confusionPatterns {
		if re.MatchString(rawText) {
			confused = true
			break
		}
	}

	if parsed != nil {
		for _, a := range parsed.Actions {
			result.ActualActions = append(result.ActualActions, a.Action)
		}
	}
	result.HasActionJSON = parsed != nil && len(parsed.Actions) > 0

	if confused {
		result.Warnings = append(result.Warnings, Warning{
			Type:     WarningConfusion,
			Message:  "model denied a capability it has through the action protocol",
			Severity: SeverityError,
		})
		result.Suggestions = append(result.Suggestions, "remind the model it is in agent mode")
	}

	switch {
	case result.HasActionClaims && parsed == nil:
		result.Warnings = append(result.Warnings, Warning{
			Type:     WarningMissingJSON,
			Message:  "text claims actions were performed but no action JSON was recovered",
			Severity: SeverityError,
		})
		result.Suggestions = append(result.Suggestions, "request the response in JSON action format")

	case result.HasActionClaims && parsed != nil && len(parsed.Actions) == 0:
		result.Warnings = append(result.Warnings, Warning{
			Type:     WarningEmptyActions,
			Message:  "text claims actions were performed but the actions array is empty",
			Severity: SeverityWarning,
		})
	}

	if parsed == nil && looksLikeJSON(rawText) && isUnbalanced(rawText) {
		result.Warnings = append(result.Warnings, Warning{
			Type:     WarningIncompleteJSON,
			Message:  "text resembles JSON but braces or brackets are unbalanced",
			Severity: SeverityWarning,
		})
		result.Suggestions = append(result.Suggestions, "request a continuation of the incomplete response")
	}

	if result.HasActionClaims && result.HasActionJSON {
		result.Warnings = append(result.Warnings, claimMismatches(result.ClaimedActions, result.ActualActions)...)
	}

	if parsed != nil {
		if w, ok := schemaWarning(parsed); ok {
			result.Warnings = append(result.Warnings, w)
		}
	}

	result.IsValid = !confused && (result.HasActionJSON || !result.HasActionClaims)
	return result
}

// claimMismatches records an info finding for each claim category whose
// expected action types are absent from the actual actions.
func claimMismatches(claimed []string, actual []ActionType) []Warning {
	actualSet := map[ActionType]bool{}
	for _, a := range actual {
		actualSet[a] = true
	}

	var warnings []Warning
	for _, claim := range claimed {
		expected, ok := claimExpectedActions[claim]
		if !ok {
			continue
		}
		matched := false
		for _, t := range expected {
			if actualSet[t] {
				matched = true
				break
			}
		}
		if !matched {
			warnings = append(warnings, Warning{
				Type:     WarningClaimMismatch,
				Message:  fmt.Sprintf("text claims %q but no matching action type is present", claim),
				Severity: SeverityInfo,
			})
		}
	}
	return warnings
}

func schemaWarning(parsed *AgentResponse) (Warning, bool) {
	raw, err := json.Marshal(parsed)
	if err != nil {
		return Warning{}, false
	}
	instance, err := jsonschema.UnmarshalJSON(strings.NewReader(string(raw)))
	if err != nil {
		return Warning{}, false
	}
	if err := compiledSchema().Validate(instance); err != nil {
		return Warning{
			Type:     WarningSchemaMismatch,
			Message:  fmt.Sprintf("parsed response violates the agent response schema: %v", err),
			Severity: SeverityInfo,
		}, true
	}
	return Warning{}, false
}

func looksLikeJSON(text string) bool {
	trimmed := strings.TrimSpace(text)
	return strings.HasPrefix(trimmed, "{") || strings.Contains(trimmed, `"actions"`)
}

func isUnbalanced(text string) bool {
	obj, arr := braceBalance(text)
	return obj != 0 || arr != 0
}
