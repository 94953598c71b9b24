package model

// SamplerConfig carries sampling parameters forwarded to the model backend.
// Nil pointers mean "use the provider default" and are omitted from requests.
type SamplerConfig struct {
	Temperature *float64 `json:"temperature,omitempty" toml:"temperature,omitempty"`
	TopP        *float64 `json:"top_p,omitempty" toml:"top_p,omitempty"`
	MaxTokens   int      `json:"max_tokens,omitempty" toml:"max_tokens,omitempty"`
	Stop        []string `json:"stop,omitempty" toml:"stop,omitempty"`
}

// Float64 returns a pointer to v, for building SamplerConfig literals.
func Float64(v float64) *float64 {
	return &v
}
