package domain

// EffectFailurePolicy decides what a failed gateway call does to the run.
type EffectFailurePolicy string

const (
	// EffectFailureContinue logs the failure and follows the next edge.
	EffectFailureContinue EffectFailurePolicy = "continue"
	// EffectFailureHalt moves the run to the error status.
	EffectFailureHalt EffectFailurePolicy = "halt"
)

// UnmatchedBranchPolicy decides where a condition reply with no matching branch goes.
type UnmatchedBranchPolicy string

const (
	// UnmatchedFallback follows the first edge without a selector, else the first edge.
	// When every edge is a branch edge this routes the reply down the first
	// branch's edge instead of leaving the run stuck on the condition, which is
	// what UnmatchedStay does.
	UnmatchedFallback UnmatchedBranchPolicy = "fallback"
	// UnmatchedStay keeps the run waiting on the same condition node.
	UnmatchedStay UnmatchedBranchPolicy = "stay"
)

// RunConfig is the per-run configuration supplied by the caller.
type RunConfig struct {
	UseRealIntegrations   bool                  `json:"useRealIntegrations" yaml:"useRealIntegrations"`
	ContactName           string                `json:"contactName" yaml:"contactName"`
	ContactPhone          string                `json:"contactPhone" yaml:"contactPhone"`
	EffectFailurePolicy   EffectFailurePolicy   `json:"effectFailurePolicy,omitempty" yaml:"effectFailurePolicy,omitempty"`
	UnmatchedBranchPolicy UnmatchedBranchPolicy `json:"unmatchedBranchPolicy,omitempty" yaml:"unmatchedBranchPolicy,omitempty"`
}

// WithDefaults fills unset policies with their defaults.
func (c RunConfig) WithDefaults() RunConfig {
	if c.EffectFailurePolicy == "" {
		c.EffectFailurePolicy = EffectFailureContinue
	}
	if c.UnmatchedBranchPolicy == "" {
		c.UnmatchedBranchPolicy = UnmatchedFallback
	}
	return c
}
