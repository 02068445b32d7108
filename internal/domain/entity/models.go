package entity

// ModelConfig names a provider backend plus its generation parameters.
// Configs are tried in slice order until one produces an in-range answer.
type ModelConfig struct {
	Name            string
	MaxOutputTokens int32
	// ThinkingBudget caps the provider's internal reasoning tokens. Nil
	// leaves the provider default; an explicit zero disables reasoning so it
	// cannot starve the visible output budget.
	ThinkingBudget *int32
}

// DefaultMaxOutputTokens is applied when a models file entry leaves the
// output budget unset.
const DefaultMaxOutputTokens = 256

// DefaultModelConfigs is the built-in fallback chain, used unless a models
// file overrides it.
func DefaultModelConfigs() []ModelConfig {
	return []ModelConfig{
		{Name: "gemini-2.5-flash", MaxOutputTokens: DefaultMaxOutputTokens, ThinkingBudget: Int32(0)},
		{Name: "gemini-2.5-flash-lite", MaxOutputTokens: DefaultMaxOutputTokens, ThinkingBudget: Int32(0)},
		{Name: "gemini-2.0-flash", MaxOutputTokens: DefaultMaxOutputTokens},
	}
}

// Int32 returns a pointer to v, for optional config fields.
func Int32(v int32) *int32 {
	return &v
}
