package priority

import (
	"math"
	"strings"

	"github.com/fitz/triage/internal/models"
)

// presets is the closed set of named strategies, in display order.
var presets = []models.Strategy{
	{
		Name:        models.StrategyBalanced,
		Description: "Even mix of deadline pressure, importance, effort and unblocking others",
		Weights:     models.Weights{Urgency: 0.35, Importance: 0.30, Effort: 0.15, Dependency: 0.20},
	},
	{
		Name:        models.StrategyDeadline,
		Description: "Deadline driven: due dates dominate",
		Weights:     models.Weights{Urgency: 0.70, Importance: 0.10, Effort: 0.05, Dependency: 0.15},
	},
	{
		Name:        models.StrategyQuickWins,
		Description: "Quick wins: cheapest tasks first",
		Weights:     models.Weights{Urgency: 0.10, Importance: 0.10, Effort: 0.70, Dependency: 0.10},
	},
	{
		Name:        models.StrategyImpact,
		Description: "High impact: importance and unblocking others first",
		Weights:     models.Weights{Urgency: 0.10, Importance: 0.60, Effort: 0.05, Dependency: 0.25},
	},
}

// DefaultStrategy is used when no strategy is named.
const DefaultStrategy = models.StrategyBalanced

// Strategies returns the preset strategies in display order.
func Strategies() []models.Strategy {
	out := make([]models.Strategy, len(presets))
	copy(out, presets)
	return out
}

// StrategyNames returns the preset names in display order.
func StrategyNames() []string {
	names := make([]string, 0, len(presets))
	for _, s := range presets {
		names = append(names, string(s.Name))
	}
	return names
}

// LookupStrategy resolves a preset by name. An empty name selects DefaultStrategy.
func LookupStrategy(name string) (models.Strategy, error) {
	name = strings.TrimSpace(strings.ToLower(name))
	if name == "" {
		name = string(DefaultStrategy)
	}
	for _, s := range presets {
		if string(s.Name) == name {
			return s, nil
		}
	}
	return models.Strategy{}, &strategyNameError{name: name}
}

type strategyNameError struct {
	name string
}

func (e *strategyNameError) Error() string {
	return ErrUnknownStrategy.Error() + ": " + e.name + " (must be one of: " + strings.Join(StrategyNames(), ", ") + ")"
}

func (e *strategyNameError) Unwrap() error { return ErrUnknownStrategy }

// CustomStrategy builds a normalized strategy from caller-supplied weights.
func CustomStrategy(w models.Weights) (models.Strategy, error) {
	return NormalizeStrategy(models.Strategy{Name: models.StrategyCustom, Weights: w})
}

// NormalizeStrategy validates the weights of s and rescales them to sum to 1.0.
func NormalizeStrategy(s models.Strategy) (models.Strategy, error) {
	w, err := NormalizeWeights(s.Weights)
	if err != nil {
		if s.Name != "" {
			return models.Strategy{}, invalidStrategy("%s: %v", s.Name, unwrapMsg(err))
		}
		return models.Strategy{}, err
	}
	s.Weights = w
	return s, nil
}

// NormalizeWeights rejects negative or non-finite weights and an all-zero set,
// then divides every weight by the total.
func NormalizeWeights(w models.Weights) (models.Weights, error) {
	factors := []struct {
		name  string
		value float64
	}{
		{"urgency", w.Urgency},
		{"importance", w.Importance},
		{"effort", w.Effort},
		{"dependency", w.Dependency},
	}
	for _, f := range factors {
		if math.IsNaN(f.value) || math.IsInf(f.value, 0) {
			return models.Weights{}, invalidStrategy("%s weight is not a finite number", f.name)
		}
		if f.value < 0 {
			return models.Weights{}, invalidStrategy("%s weight is negative (%g)", f.name, f.value)
		}
	}

	sum := w.Sum()
	if sum <= 0 {
		return models.Weights{}, invalidStrategy("weights sum to zero")
	}
	if math.Abs(sum-1.0) <= 1e-9 {
		return w, nil
	}
	return models.Weights{
		Urgency:    w.Urgency / sum,
		Importance: w.Importance / sum,
		Effort:     w.Effort / sum,
		Dependency: w.Dependency / sum,
	}, nil
}

func unwrapMsg(err error) string {
	return strings.TrimPrefix(err.Error(), ErrInvalidStrategy.Error()+": ")
}
