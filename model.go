package claudian

// RoutingMode selects how aggressively requests are routed to cheaper or
// stronger models.
type RoutingMode string

const (
	ModeAutomatic      RoutingMode = "automatic"
	ModeEconomic       RoutingMode = "economic"
	ModeMaximumQuality RoutingMode = "maximum_quality"
)

// Default model tiers. The ids follow the Anthropic naming since Claude
// is the primary provider; other providers map these through their client
// options.
const (
	ModelHaiku  ModelID = "claude-3-5-haiku-latest"
	ModelSonnet ModelID = "claude-sonnet-4-0"
	ModelOpus   ModelID = "claude-opus-4-0"
)

// modelTable is the full mode x complexity lookup. SelectModel is a pure
// function of it.
var modelTable = map[RoutingMode]map[Complexity]ModelID{
	ModeAutomatic: {
		ComplexitySimple:   ModelHaiku,
		ComplexityModerate: ModelSonnet,
		ComplexityComplex:  ModelSonnet,
		ComplexityDeep:     ModelOpus,
	},
	ModeEconomic: {
		ComplexitySimple:   ModelHaiku,
		ComplexityModerate: ModelHaiku,
		ComplexityComplex:  ModelHaiku,
		ComplexityDeep:     ModelHaiku,
	},
	ModeMaximumQuality: {
		ComplexitySimple:   ModelOpus,
		ComplexityModerate: ModelOpus,
		ComplexityComplex:  ModelOpus,
		ComplexityDeep:     ModelOpus,
	},
}

// SelectModel maps a classification and routing mode to a model id.
func SelectModel(c TaskClassification, mode RoutingMode) ModelID {
	tiers, ok := modelTable[mode]
	if !ok {
		tiers = modelTable[ModeAutomatic]
	}
	if model, ok := tiers[c.Complexity]; ok {
		return model
	}
	return tiers[ComplexityModerate]
}
