// Package priority ranks tasks by a weighted blend of urgency, importance,
// effort and dependency impact, and flags tasks caught in dependency cycles.
//
// Scoring is a pure function of its inputs: a Prioritizer holds no mutable
// state and may be shared between goroutines.
package priority

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/fitz/triage/internal/models"
)

// Band thresholds on the final score.
const (
	CriticalThreshold = 80.0
	ModerateThreshold = 50.0
)

// ScoredTask pairs a task with its score.
type ScoredTask struct {
	Task  models.Task        `json:"task"`
	Score models.ScoreResult `json:"score"`
}

// Result is the ranked outcome of one scoring pass.
type Result struct {
	Strategy      models.Strategy `json:"strategy"`
	ReferenceDate time.Time       `json:"reference_date"`
	Tasks         []ScoredTask    `json:"tasks"`
	Cycles        [][]string      `json:"cycles,omitempty"`
	CyclePaths    [][]string      `json:"cycle_paths,omitempty"` // one per Cycles group
	Dangling      []models.Edge   `json:"dangling,omitempty"`
}

// Top returns at most n ranked tasks; n <= 0 returns all of them.
func (r *Result) Top(n int) []ScoredTask {
	if n <= 0 || n >= len(r.Tasks) {
		return r.Tasks
	}
	return r.Tasks[:n]
}

// Prioritizer scores task collections under one normalized strategy.
type Prioritizer struct {
	strategy models.Strategy
}

// New validates and normalizes strategy.
func New(strategy models.Strategy) (*Prioritizer, error) {
	s, err := NormalizeStrategy(strategy)
	if err != nil {
		return nil, err
	}
	return &Prioritizer{strategy: s}, nil
}

// NewFromName creates a Prioritizer for a preset strategy.
func NewFromName(name string) (*Prioritizer, error) {
	s, err := LookupStrategy(name)
	if err != nil {
		return nil, err
	}
	return New(s)
}

// Strategy returns the normalized strategy in use.
func (p *Prioritizer) Strategy() models.Strategy {
	return p.strategy
}

// Score ranks tasks as of ref. Results are sorted by descending final score,
// ties broken by ascending task ID. Tasks on a dependency cycle are scored
// normally and flagged. Blocks entries naming tasks outside the collection are
// ignored and reported in Result.Dangling.
func (p *Prioritizer) Score(tasks []models.Task, ref time.Time) (*Result, error) {
	seen := make(map[string]bool, len(tasks))
	for _, t := range tasks {
		if strings.TrimSpace(t.ID) == "" {
			return nil, invalidTask("", "task %q has an empty id", t.Title)
		}
		if seen[t.ID] {
			return nil, invalidTask(t.ID, "duplicate task id")
		}
		seen[t.ID] = true
	}

	ref = models.CalendarDay(ref)
	g := BuildGraph(tasks)
	cycles := g.Cycles()
	var paths [][]string
	for _, group := range cycles {
		paths = append(paths, g.CyclePath(group))
	}

	cycleOf := make(map[string][]string)
	for _, group := range cycles {
		for _, id := range group {
			cycleOf[id] = group
		}
	}

	scored := make([]ScoredTask, 0, len(tasks))
	for _, t := range tasks {
		sr := p.scoreTask(t, ref, g.DependentCount(t.ID))
		if group, ok := cycleOf[t.ID]; ok {
			sr.InCycle = true
			sr.CycleWith = others(group, t.ID)
		}
		sr.Band = bandFor(sr.Final)
		sr.Explanation = explain(t, sr)
		scored = append(scored, ScoredTask{Task: t, Score: sr})
	}

	sort.SliceStable(scored, func(i, j int) bool {
		if scored[i].Score.Final != scored[j].Score.Final {
			return scored[i].Score.Final > scored[j].Score.Final
		}
		return scored[i].Task.ID < scored[j].Task.ID
	})

	return &Result{
		Strategy:      p.strategy,
		ReferenceDate: ref,
		Tasks:         scored,
		Cycles:        cycles,
		CyclePaths:    paths,
		Dangling:      g.Dangling,
	}, nil
}

// Score is a convenience wrapper around New and Prioritizer.Score.
func Score(tasks []models.Task, strategy models.Strategy, ref time.Time) (*Result, error) {
	p, err := New(strategy)
	if err != nil {
		return nil, err
	}
	return p.Score(tasks, ref)
}

func (p *Prioritizer) scoreTask(t models.Task, ref time.Time, dependents int) models.ScoreResult {
	u := urgencyScore(t.DueDate, ref)
	sr := models.ScoreResult{
		Urgency:      u.score,
		Importance:   ImportanceScore(t.Importance),
		Effort:       EffortScore(t.EffortMinutes),
		Dependency:   DependencyScore(dependents),
		Dependents:   dependents,
		BusinessDays: u.businessDays,
		Overdue:      u.overdue,
	}
	w := p.strategy.Weights
	sr.Final = w.Urgency*sr.Urgency +
		w.Importance*sr.Importance +
		w.Effort*sr.Effort +
		w.Dependency*sr.Dependency
	return sr
}

func bandFor(final float64) models.PriorityBand {
	switch {
	case final > CriticalThreshold:
		return models.BandCritical
	case final > ModerateThreshold:
		return models.BandModerate
	default:
		return models.BandLow
	}
}

var bandHeadline = map[models.PriorityBand]string{
	models.BandCritical: "Critical priority: do immediately",
	models.BandModerate: "Moderate priority: schedule soon",
	models.BandLow:      "Low priority: backlog",
}

func explain(t models.Task, sr models.ScoreResult) string {
	var reasons []string

	switch {
	case sr.BusinessDays == nil:
		reasons = append(reasons, "no deadline")
	case sr.Overdue:
		late := -*sr.BusinessDays
		if late < 1 {
			late = 1
		}
		reasons = append(reasons, "overdue by "+plural(late, "business day"))
	case *sr.BusinessDays == 0:
		reasons = append(reasons, "due today")
	case *sr.BusinessDays <= 3:
		reasons = append(reasons, "due in "+plural(*sr.BusinessDays, "business day"))
	}

	if t.Importance >= 8 {
		reasons = append(reasons, "high importance")
	}
	if sr.Effort >= 85 {
		reasons = append(reasons, "quick win")
	}
	if sr.Dependents > 0 {
		reasons = append(reasons, "blocks "+plural(sr.Dependents, "task"))
	}
	if sr.InCycle {
		if len(sr.CycleWith) == 0 {
			reasons = append(reasons, "blocks itself")
		} else {
			reasons = append(reasons, "dependency cycle with "+strings.Join(sr.CycleWith, ", "))
		}
	}

	headline := bandHeadline[sr.Band]
	if len(reasons) == 0 {
		return headline
	}
	return headline + " (" + strings.Join(reasons, "; ") + ")"
}

func plural(n int, noun string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", noun)
	}
	return fmt.Sprintf("%d %ss", n, noun)
}

func others(group []string, id string) []string {
	out := make([]string, 0, len(group)-1)
	for _, g := range group {
		if g != id {
			out = append(out, g)
		}
	}
	return out
}
