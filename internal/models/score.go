package models

// PriorityBand is a coarse label for a final score.
type PriorityBand string

const (
	BandCritical PriorityBand = "critical"
	BandModerate PriorityBand = "moderate"
	BandLow      PriorityBand = "low"
)

// ScoreResult is the per-task output of a scoring pass.
type ScoreResult struct {
	Final      float64 `json:"final"`
	Urgency    float64 `json:"urgency"`
	Importance float64 `json:"importance"`
	Effort     float64 `json:"effort"`
	Dependency float64 `json:"dependency"`

	Dependents int `json:"dependents"`
	// BusinessDays is the signed business-day distance to the due date
	// (negative when overdue); nil when the task has no due date.
	BusinessDays *int `json:"business_days,omitempty"`
	Overdue      bool `json:"overdue"`

	InCycle   bool     `json:"in_cycle"`
	CycleWith []string `json:"cycle_with,omitempty"`

	Band        PriorityBand `json:"band"`
	Explanation string       `json:"explanation"`
}

// Edge is a directed "blocks" relation between two task IDs.
type Edge struct {
	From string `json:"from"`
	To   string `json:"to"`
}
