package claudian

// Internal accessors for testing
var (
	BraceBalance          = braceBalance
	HasUnterminatedString = hasUnterminatedString
	SuggestContinuation   = suggestContinuation
	HashActions           = hashActions
	ActionKey             = actionKey
	SplitItemList         = splitItemList
	ValidateDependencies  = validateDependencies
	RecomputePlanStatus   = recomputePlanStatus
	CtxWithLogger         = ctxWithLogger
)
