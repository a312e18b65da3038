package claudian

import "context"

// RouteResult is the routing decision for one request.
type RouteResult struct {
	Model          ModelID
	Classification TaskClassification
	Mode           RoutingMode
}

// Route decides which model serves a request. Economic and maximum
// quality modes short-circuit without running the classifier; automatic
// mode classifies and consults the lookup table.
func Route(ctx context.Context, message string, agentMode bool, mode RoutingMode) RouteResult {
	logger := LoggerFromContext(ctx)

	switch mode {
	case ModeEconomic, ModeMaximumQuality:
		model := modelTable[mode][ComplexityModerate]
		result := RouteResult{
			Model: model,
			Classification: TaskClassification{
				Complexity:     ComplexityModerate,
				SuggestedModel: model,
				Confidence:     1.0,
				Reasoning:      "mode override, classifier skipped",
			},
			Mode: mode,
		}
		logger.Debug("routed by mode override", "mode", mode, "model", model)
		return result
	}

	classification := Classify(message, agentMode)
	model := SelectModel(classification, ModeAutomatic)
	logger.Debug("routed by classification",
		"complexity", classification.Complexity,
		"confidence", classification.Confidence,
		"model", model,
	)

	return RouteResult{
		Model:          model,
		Classification: classification,
		Mode:           ModeAutomatic,
	}
}
