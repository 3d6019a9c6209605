package priority

import (
	"testing"
	"time"

	"github.com/fitz/triage/internal/models"
)

func TestResult_Summarize(t *testing.T) {
	ref := time.Date(2024, 3, 13, 0, 0, 0, 0, time.UTC) // Wednesday
	day := func(d int) *time.Time {
		v := time.Date(2024, 3, d, 0, 0, 0, 0, time.UTC)
		return &v
	}
	tasks := []models.Task{
		{ID: "late", Title: "late", DueDate: day(11), Importance: 10, EffortMinutes: 30},
		{ID: "today", Title: "today", DueDate: day(13), Importance: 8, EffortMinutes: 60},
		{ID: "week", Title: "week", DueDate: day(20), Importance: 4, EffortMinutes: 240},
		{ID: "later", Title: "later", DueDate: day(21), Importance: 2, EffortMinutes: 600},
		{ID: "loose", Title: "loose", Importance: 6, EffortMinutes: 120, Blocks: []string{"loose"}},
	}

	r, err := mustBalanced(t).Score(tasks, ref)
	if err != nil {
		t.Fatalf("Score failed: %v", err)
	}
	s := r.Summarize()

	checks := []struct {
		name      string
		got, want int
	}{
		{"tasks", s.Tasks, 5},
		{"overdue", s.Overdue, 1},
		{"due today", s.DueToday, 1},
		{"due this week", s.DueThisWeek, 2},
		{"quick wins", s.QuickWins, 3},
		{"in cycle", s.InCycle, 1},
		{"bands", s.Critical + s.Moderate + s.Low, 5},
	}
	for _, c := range checks {
		if c.got != c.want {
			t.Errorf("%s = %d, want %d", c.name, c.got, c.want)
		}
	}
	if s.Critical < 1 {
		t.Errorf("expected the overdue task to be critical, got %+v", s)
	}
	if s.AverageImportance != 6 {
		t.Errorf("average importance = %v, want 6", s.AverageImportance)
	}
	if s.TotalEffortMinutes != 1050 {
		t.Errorf("total effort = %v, want 1050", s.TotalEffortMinutes)
	}
}

func TestResult_SummarizeEmpty(t *testing.T) {
	r, err := mustBalanced(t).Score(nil, time.Date(2024, 3, 13, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("Score failed: %v", err)
	}
	if s := r.Summarize(); s != (Stats{}) {
		t.Errorf("expected zero stats, got %+v", s)
	}
}
