package models

// StrategyName identifies a weighting profile.
type StrategyName string

const (
	StrategyBalanced  StrategyName = "balanced"
	StrategyDeadline  StrategyName = "deadline"
	StrategyQuickWins StrategyName = "quick_wins"
	StrategyImpact    StrategyName = "impact"
	StrategyCustom    StrategyName = "custom"
)

// Weights holds the relative importance of each scoring factor.
type Weights struct {
	Urgency    float64 `json:"urgency" yaml:"urgency"`
	Importance float64 `json:"importance" yaml:"importance"`
	Effort     float64 `json:"effort" yaml:"effort"`
	Dependency float64 `json:"dependency" yaml:"dependency"`
}

// Sum returns the total of all weights.
func (w Weights) Sum() float64 {
	return w.Urgency + w.Importance + w.Effort + w.Dependency
}

// Strategy is a named weighting profile.
type Strategy struct {
	Name        StrategyName `json:"name"`
	Description string       `json:"description,omitempty"`
	Weights     Weights      `json:"weights"`
}
