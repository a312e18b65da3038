package claudian

import (
	"encoding/json"
	"regexp"
	"strings"
)

// Response extraction is deliberately forgiving: LLM output arrives
// wrapped in prose, fenced in markdown, truncated by token limits, or
// restarted mid-stream. Strategies are tried in order of trust:
//
//  1. a fenced code block holding JSON with an "actions" key
//  2. two concatenated objects (restart artifact) - prefer the second
//  3. brace-depth scan from the first "{", retrying on strictly shorter
//     suffixes after a parse failure
//  4. truncated-action recovery: salvage every fully closed action object
//     inside an unterminated "actions" array
//
// ExtractResponse never panics and returns nil only when no strategy can
// recover anything.

var (
	fencedBlockRegex = regexp.MustCompile("(?s)```(?:json)?\\s*(\\{.*?\\})\\s*```")

	// A closing brace immediately followed by a fresh object opening with
	// "thinking" is the signature of the model restarting its response.
	restartRegex = regexp.MustCompile(`\}\s*(\{\s*"thinking")`)
)

// ExtractResponse recovers a structured agent response from raw model
// output.
func ExtractResponse(text string) *AgentResponse {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	if resp := extractFromFence(text); resp != nil {
		return resp
	}

	// Restart artifact: the second object is the authoritative, complete
	// one. Recurse on it; the discarded prefix guarantees termination.
	if loc := restartRegex.FindStringSubmatchIndex(text); loc != nil {
		if resp := ExtractResponse(text[loc[2]:]); resp != nil {
			return resp
		}
	}

	if resp := extractByScan(text); resp != nil {
		return resp
	}

	return recoverTruncatedActions(text)
}

func extractFromFence(text string) *AgentResponse {
	for _, m := range fencedBlockRegex.FindAllStringSubmatch(text, -1) {
		body := m[1]
		if !strings.Contains(body, `"actions"`) {
			continue
		}
		if resp := unmarshalResponse(body); resp != nil {
			return resp
		}
	}
	return nil
}

// extractByScan walks the text from each "{" tracking brace depth and
// string state, retrying on strictly shorter suffixes after a failed
// parse. It gives up when the text ends mid-structure.
func extractByScan(text string) *AgentResponse {
	rest := text

	// Each iteration drops at least one byte from rest, bounding the
	// worst case on adversarial brace-heavy input.
	for {
		start := strings.Index(rest, "{")
		if start < 0 {
			return nil
		}

		slice, complete := scanObject(rest[start:])
		if !complete {
			return nil
		}

		if resp := unmarshalResponse(slice); resp != nil {
			return resp
		}

		rest = rest[start+1:]
	}
}

// scanObject returns the shortest prefix of s that forms a balanced JSON
// object, honoring string literals and escape sequences. complete is
// false when the text ends before the object closes.
func scanObject(s string) (string, bool) {
	depth := 0
	inString := false

	for i := 0; i < len(s); i++ {
		c := s[i]
		if inString {
			switch c {
			case '\\':
				i++ // skip the escaped character
			case '"':
				inString = false
			}
			continue
		}

		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[:i+1], true
			}
		}
	}

	return s, false
}

func unmarshalResponse(raw string) *AgentResponse {
	// Require an actions key so unrelated embedded JSON is skipped.
	var probe map[string]json.RawMessage
	if err := json.Unmarshal([]byte(raw), &probe); err != nil {
		return nil
	}
	if _, ok := probe["actions"]; !ok {
		return nil
	}

	var resp AgentResponse
	if err := json.Unmarshal([]byte(raw), &resp); err != nil {
		return nil
	}
	if resp.Actions == nil {
		resp.Actions = []VaultAction{}
	}
	return &resp
}

// recoverTruncatedActions salvages fully closed action objects from an
// unterminated response. Only objects carrying both "action" and "params"
// are kept, in their original order.
func recoverTruncatedActions(text string) *AgentResponse {
	marker := strings.Index(text, `"actions"`)
	if marker < 0 {
		return nil
	}
	open := strings.Index(text[marker:], "[")
	if open < 0 {
		return nil
	}

	body := text[marker+open+1:]
	actions := scanActionArray(body)
	if len(actions) == 0 {
		return nil
	}

	return &AgentResponse{
		Actions:              actions,
		Message:              RecoveredMessage,
		RequiresConfirmation: false,
		AwaitResults:         false,
	}
}

// scanActionArray captures complete {...} objects inside an array body,
// stopping at the "]" that closes the array or at EOF.
func scanActionArray(s string) []VaultAction {
	var actions []VaultAction
	depth := 0
	inString := false
	objStart := -1

	for i := 0; i < len(s); i++ {
		c := s[i]
		if inString {
			switch c {
			case '\\':
				i++
			case '"':
				inString = false
			}
			continue
		}

		switch c {
		case '"':
			inString = true
		case '{':
			if depth == 0 {
				objStart = i
			}
			depth++
		case '}':
			depth--
			if depth == 0 && objStart >= 0 {
				if a, ok := parseAction(s[objStart : i+1]); ok {
					actions = append(actions, a)
				}
				objStart = -1
			}
		case ']':
			if depth == 0 {
				return actions
			}
		}
	}

	return actions
}

func parseAction(raw string) (VaultAction, bool) {
	var probe map[string]json.RawMessage
	if err := json.Unmarshal([]byte(raw), &probe); err != nil {
		return VaultAction{}, false
	}
	if _, ok := probe["action"]; !ok {
		return VaultAction{}, false
	}
	if _, ok := probe["params"]; !ok {
		return VaultAction{}, false
	}

	var a VaultAction
	if err := json.Unmarshal([]byte(raw), &a); err != nil {
		return VaultAction{}, false
	}
	return a, true
}
