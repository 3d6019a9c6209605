package priority

import (
	"math"
	"time"

	"github.com/fitz/triage/internal/models"
)

// Urgency scale. A task due today or in the future never exceeds MaxUrgency;
// an overdue task scores at least MaxUrgency + OverduePenaltyPerDay.
const (
	MaxUrgency           = 100.0
	NoDeadlineUrgency    = 10.0
	UrgencyDecayPerDay   = 5.0
	OverduePenaltyPerDay = 8.0
)

// Effort curve: full marks up to effortFullScoreMinutes, then
// 100 - a*x - b*x^2 with x = ln(minutes/30). a and b put 60 min at 85 and
// 600 min at 25.
const (
	effortFullScoreMinutes = 30.0
	effortLinear           = 20.6184
	effortQuadratic        = 1.47451
)

// Dependency scale.
const (
	BlockerBonus  = 15.0
	MaxDependency = 100.0
)

// urgency is the outcome of the urgency factor for one task.
type urgency struct {
	score        float64
	businessDays *int
	overdue      bool
}

func urgencyScore(due *time.Time, ref time.Time) urgency {
	if due == nil {
		return urgency{score: NoDeadlineUrgency}
	}

	bd := BusinessDaysBetween(ref, *due)
	if models.CalendarDay(*due).Before(models.CalendarDay(ref)) {
		// Late over a weekend still counts as one day late.
		late := -bd
		if late < 1 {
			late = 1
		}
		return urgency{
			score:        MaxUrgency + OverduePenaltyPerDay*float64(late),
			businessDays: &bd,
			overdue:      true,
		}
	}

	return urgency{
		score:        math.Max(NoDeadlineUrgency, MaxUrgency-UrgencyDecayPerDay*float64(bd)),
		businessDays: &bd,
	}
}

// UrgencyScore returns the urgency sub-score of a due date relative to ref.
func UrgencyScore(due *time.Time, ref time.Time) float64 {
	return urgencyScore(due, ref).score
}

// ImportanceScore maps an importance rating onto 0-100.
func ImportanceScore(importance int) float64 {
	if importance < models.MinImportance {
		importance = models.MinImportance
	}
	if importance > models.MaxImportance {
		importance = models.MaxImportance
	}
	return float64(importance) * 10
}

// EffortScore maps an effort estimate in minutes onto 0-100, cheaper is higher.
func EffortScore(minutes float64) float64 {
	if math.IsNaN(minutes) || minutes <= effortFullScoreMinutes {
		return 100
	}
	x := math.Log(minutes / effortFullScoreMinutes)
	return clamp(100-effortLinear*x-effortQuadratic*x*x, 0, 100)
}

// DependencyScore awards BlockerBonus per direct dependent, capped at MaxDependency.
func DependencyScore(dependents int) float64 {
	if dependents <= 0 {
		return 0
	}
	return math.Min(MaxDependency, BlockerBonus*float64(dependents))
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
