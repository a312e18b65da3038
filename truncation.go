package claudian

import (
	"regexp"
	"strings"
)

// TruncationConfidence grades how certain the detector is.
type TruncationConfidence string

const (
	TruncationHigh   TruncationConfidence = "high"
	TruncationMedium TruncationConfidence = "medium"
	TruncationLow    TruncationConfidence = "low"
)

// TruncationResult is the detector's verdict for one response.
type TruncationResult struct {
	IsTruncated           bool
	Confidence            TruncationConfidence
	Reason                string
	SuggestedContinuation string
}

type truncationSignal struct {
	weight float64
	reason string
	match  func(text string) bool
}

var (
	agentTailRegex    = regexp.MustCompile(`"requiresConfirmation"\s*:\s*(?:true|false)\s*\}\s*$`)
	numberedTailRegex = regexp.MustCompile(`\n\d+\.\s*$`)
)

var truncationSignals = []truncationSignal{
	{1.0, "unterminated JSON object", func(t string) bool {
		open, _ := braceBalance(t)
		return open > 0
	}},
	{0.8, "unterminated JSON array", func(t string) bool {
		_, open := braceBalance(t)
		return open > 0
	}},
	{0.8, "unterminated string", hasUnterminatedString},
	{0.9, "unterminated code fence", func(t string) bool {
		return strings.Count(t, "```")%2 == 1
	}},
	{0.5, "incomplete list item", func(t string) bool {
		trimmed := strings.TrimRight(t, " \t")
		return strings.HasSuffix(trimmed, "\n-") || strings.HasSuffix(trimmed, "\n- ") ||
			numberedTailRegex.MatchString(t)
	}},
	{0.6, "trailing conjunction or punctuation", func(t string) bool {
		trimmed := strings.TrimSpace(t)
		for _, suffix := range []string{" and", " or", ",", ":", ";", " the", " to", " with"} {
			if strings.HasSuffix(trimmed, suffix) {
				return true
			}
		}
		return false
	}},
}

var agentTruncationSignals = []truncationSignal{
	{1.0, "unterminated actions array", func(t string) bool {
		idx := strings.LastIndex(t, `"actions"`)
		if idx < 0 {
			return false
		}
		rest := t[idx:]
		return strings.Count(rest, "[") > strings.Count(rest, "]")
	}},
	{0.8, "unterminated params object", func(t string) bool {
		idx := strings.LastIndex(t, `"params"`)
		if idx < 0 {
			return false
		}
		open, _ := braceBalance(t[idx:])
		return open > 0
	}},
	{0.8, "unterminated message string", func(t string) bool {
		idx := strings.LastIndex(t, `"message"`)
		if idx < 0 {
			return false
		}
		return hasUnterminatedString(t[idx:])
	}},
}

var completionSignals = []truncationSignal{
	{1.0, "closed JSON tail", func(t string) bool {
		trimmed := strings.TrimSpace(t)
		if !strings.HasSuffix(trimmed, "}") {
			return false
		}
		obj, arr := braceBalance(trimmed)
		return obj == 0 && arr == 0
	}},
	{0.5, "closed code fence", func(t string) bool {
		n := strings.Count(t, "```")
		return n > 0 && n%2 == 0
	}},
	{0.7, "terminal punctuation", func(t string) bool {
		trimmed := strings.TrimSpace(t)
		for _, suffix := range []string{".", "!", "?", "。", "！", "？"} {
			if strings.HasSuffix(trimmed, suffix) {
				return true
			}
		}
		return false
	}},
	{1.5, "closed agent response tail", func(t string) bool {
		return agentTailRegex.MatchString(strings.TrimSpace(t))
	}},
}

// DetectTruncation classifies whether text was cut off by a token limit.
// maxTokens is the request's generation cap; proximity to it boosts the
// truncation score. Agent mode adds signals for the structured response
// protocol.
func DetectTruncation(text string, maxTokens int, agentMode bool) TruncationResult {
	var truncScore, complScore float64
	var reasons []string

	signals := truncationSignals
	if agentMode {
		signals = append(signals[:len(signals):len(signals)], agentTruncationSignals...)
	}

	for _, s := range signals {
		if s.match(text) {
			truncScore += s.weight
			reasons = append(reasons, s.reason)
		}
	}
	for _, s := range completionSignals {
		if s.match(text) {
			complScore += s.weight
		}
	}

	// Token-budget proximity. A response near the cap is far more likely
	// to have been cut.
	ratio := 0.0
	if maxTokens > 0 {
		ratio = float64(len(text)/4) / float64(maxTokens)
	}
	switch {
	case ratio > 0.95:
		truncScore *= 1.5
	case ratio > 0.85:
		truncScore *= 1.3
	}

	net := truncScore - complScore
	reason := strings.Join(reasons, "; ")

	result := TruncationResult{Reason: reason}
	switch {
	case net > 1.2:
		result.IsTruncated = true
		result.Confidence = TruncationHigh
	case net > 0.8 || (ratio > 0.95 && truncScore > 0.5):
		result.IsTruncated = true
		result.Confidence = TruncationMedium
	case net > 0.3 && ratio > 0.85:
		result.IsTruncated = true
		result.Confidence = TruncationLow
	default:
		return result
	}

	result.SuggestedContinuation = suggestContinuation(text, agentMode)
	return result
}

// suggestContinuation picks a continuation prompt keyed to whichever
// structure was left open.
func suggestContinuation(text string, agentMode bool) string {
	if agentMode {
		if idx := strings.LastIndex(text, `"actions"`); idx >= 0 &&
			strings.Count(text[idx:], "[") > strings.Count(text[idx:], "]") {
			return "Continue the actions array exactly where it stopped. Do not repeat actions that are already complete, and do not restart the JSON object."
		}
	}
	if hasUnterminatedString(text) {
		return "Continue the response exactly where it stopped, finishing the unterminated string first. Do not restart."
	}
	if open, _ := braceBalance(text); open > 0 {
		return "Continue the JSON object exactly where it stopped. Do not restart from the beginning."
	}
	if strings.Count(text, "```")%2 == 1 {
		return "Continue the code block exactly where it stopped."
	}
	return "Continue your previous response exactly where it stopped. Do not repeat what was already written."
}

// MergeResponses splices a continuation onto the original text, removing
// the longest overlap where a suffix of a equals a prefix of b. When the
// cut fell inside a string literal, the duplicated quote is dropped.
func MergeResponses(a, b string) string {
	max := 50
	if len(a) < max {
		max = len(a)
	}
	if len(b) < max {
		max = len(b)
	}

	for w := max; w >= 1; w-- {
		if strings.HasSuffix(a, b[:w]) {
			return a + b[w:]
		}
	}

	if strings.HasSuffix(a, `"`) && strings.HasPrefix(b, `"`) {
		return a + b[1:]
	}

	return a + b
}

// braceBalance counts unclosed objects and arrays outside string
// literals.
func braceBalance(s string) (objects, arrays int) {
	inString := false
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
			objects++
		case '}':
			objects--
		case '[':
			arrays++
		case ']':
			arrays--
		}
	}
	return objects, arrays
}

// hasUnterminatedString reports whether s ends inside a string literal.
func hasUnterminatedString(s string) bool {
	inString := false
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '\\':
			if inString {
				i++
			}
		case '"':
			inString = !inString
		}
	}
	return inString
}
