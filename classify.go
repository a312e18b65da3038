package claudian

import "regexp"

// Complexity is the tier driving model selection.
type Complexity string

const (
	ComplexitySimple   Complexity = "simple"
	ComplexityModerate Complexity = "moderate"
	ComplexityComplex  Complexity = "complex"
	ComplexityDeep     Complexity = "deep"
)

// TaskClassification is the classifier's verdict for one request.
type TaskClassification struct {
	Complexity     Complexity
	SuggestedModel ModelID
	Confidence     float64
	Reasoning      string
	Patterns       []string
}

const (
	baseConfidence    = 0.7
	defaultConfidence = 0.5
	maxConfidence     = 0.95
)

type classifierTier struct {
	complexity Complexity
	reasoning  string
	patterns   []*regexp.Regexp
}

// Tiers are checked deep-first; the first tier with at least one match
// wins.
var classifierTiers = []classifierTier{
	{ComplexityDeep, "deep analysis or synthesis language", deepPatterns},
	{ComplexityComplex, "batch, cross-reference or restructuring language", complexPatterns},
	{ComplexityModerate, "content creation or organization language", moderatePatterns},
	{ComplexitySimple, "single-shot read or file operation", simplePatterns},
}

// Classify scores the complexity of a user request. Agent mode demotes
// structured single-shot operations, which are cheap under the rigid JSON
// protocol.
func Classify(message string, agentMode bool) TaskClassification {
	c := TaskClassification{
		Complexity: ComplexityModerate,
		Confidence: defaultConfidence,
		Reasoning:  "no complexity pattern matched, defaulting to moderate",
	}

	for _, tier := range classifierTiers {
		var matched []string
		for _, re := range tier.patterns {
			if re.MatchString(message) {
				matched = append(matched, re.String())
			}
		}
		if len(matched) == 0 {
			continue
		}

		c.Complexity = tier.complexity
		c.Reasoning = tier.reasoning
		c.Patterns = matched
		c.Confidence = baseConfidence + 0.05*float64(len(matched))
		if c.Confidence > maxConfidence {
			c.Confidence = maxConfidence
		}
		break
	}

	// Long requests carry more implicit work than their verbs admit.
	switch {
	case len(message) > 1000 && c.Complexity == ComplexityModerate:
		c.Complexity = ComplexityComplex
		c.Reasoning += "; promoted by request length"
	case len(message) > 500 && c.Complexity == ComplexitySimple:
		c.Complexity = ComplexityModerate
		c.Reasoning += "; promoted by request length"
	}

	if agentMode && c.Complexity == ComplexityModerate && structuredOpPattern.MatchString(message) {
		c.Complexity = ComplexitySimple
		c.Reasoning += "; demoted, structured single-shot operation in agent mode"
	}

	c.SuggestedModel = modelTable[ModeAutomatic][c.Complexity]
	return c
}

