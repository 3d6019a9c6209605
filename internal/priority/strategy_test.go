package priority

import (
	"errors"
	"math"
	"testing"

	"github.com/fitz/triage/internal/models"
)

func TestPresets_SumToOne(t *testing.T) {
	if len(Strategies()) != 4 {
		t.Fatalf("expected 4 presets, got %d", len(Strategies()))
	}
	for _, s := range Strategies() {
		if math.Abs(s.Weights.Sum()-1.0) > 1e-9 {
			t.Errorf("%s weights sum to %v", s.Name, s.Weights.Sum())
		}
		w := s.Weights
		if w.Urgency < 0 || w.Importance < 0 || w.Effort < 0 || w.Dependency < 0 {
			t.Errorf("%s has a negative weight: %+v", s.Name, w)
		}
	}
}

func TestLookupStrategy(t *testing.T) {
	tests := []struct {
		input string
		want  models.StrategyName
	}{
		{"balanced", models.StrategyBalanced},
		{"deadline", models.StrategyDeadline},
		{"quick_wins", models.StrategyQuickWins},
		{"impact", models.StrategyImpact},
		{"  Impact ", models.StrategyImpact},
		{"", models.StrategyBalanced},
	}
	for _, tc := range tests {
		s, err := LookupStrategy(tc.input)
		if err != nil {
			t.Errorf("LookupStrategy(%q) failed: %v", tc.input, err)
			continue
		}
		if s.Name != tc.want {
			t.Errorf("LookupStrategy(%q) = %s, want %s", tc.input, s.Name, tc.want)
		}
	}

	_, err := LookupStrategy("yolo")
	if !errors.Is(err, ErrUnknownStrategy) {
		t.Errorf("expected ErrUnknownStrategy, got %v", err)
	}
}

func TestStrategies_ReturnsCopy(t *testing.T) {
	s := Strategies()
	s[0].Weights.Urgency = 99
	if Strategies()[0].Weights.Urgency == 99 {
		t.Error("Strategies must not expose the preset table")
	}
}

func TestNormalizeWeights(t *testing.T) {
	w, err := NormalizeWeights(models.Weights{Urgency: 2, Importance: 2, Effort: 1})
	if err != nil {
		t.Fatalf("NormalizeWeights failed: %v", err)
	}
	want := models.Weights{Urgency: 0.4, Importance: 0.4, Effort: 0.2}
	if math.Abs(w.Urgency-want.Urgency) > 1e-9 ||
		math.Abs(w.Importance-want.Importance) > 1e-9 ||
		math.Abs(w.Effort-want.Effort) > 1e-9 ||
		w.Dependency != 0 {
		t.Errorf("expected %+v, got %+v", want, w)
	}
}

func TestNormalizeWeights_Invalid(t *testing.T) {
	tests := []struct {
		name string
		w    models.Weights
	}{
		{"negative", models.Weights{Urgency: -0.1, Importance: 0.6, Effort: 0.3, Dependency: 0.2}},
		{"all zero", models.Weights{}},
		{"nan", models.Weights{Urgency: math.NaN(), Importance: 1}},
		{"inf", models.Weights{Urgency: math.Inf(1), Importance: 1}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := NormalizeWeights(tc.w); !errors.Is(err, ErrInvalidStrategy) {
				t.Errorf("expected ErrInvalidStrategy, got %v", err)
			}
		})
	}
}

func TestCustomStrategy(t *testing.T) {
	s, err := CustomStrategy(models.Weights{Urgency: 1, Importance: 1, Effort: 1, Dependency: 1})
	if err != nil {
		t.Fatalf("CustomStrategy failed: %v", err)
	}
	if s.Name != models.StrategyCustom {
		t.Errorf("expected custom name, got %s", s.Name)
	}
	if s.Weights.Urgency != 0.25 {
		t.Errorf("expected 0.25, got %v", s.Weights.Urgency)
	}

	if _, err := New(models.Strategy{Name: "bad", Weights: models.Weights{Effort: -1}}); !errors.Is(err, ErrInvalidStrategy) {
		t.Errorf("expected ErrInvalidStrategy from New, got %v", err)
	}
}
