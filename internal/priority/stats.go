package priority

import "github.com/fitz/triage/internal/models"

// QuickWinMinutes is the largest effort counted as a quick win in Stats.
const QuickWinMinutes = 120.0

// Stats summarizes a ranking by deadline, band and effort.
type Stats struct {
	Tasks              int     `json:"tasks"`
	Overdue            int     `json:"overdue"`
	DueToday           int     `json:"due_today"`
	DueThisWeek        int     `json:"due_this_week"`
	Critical           int     `json:"critical"`
	Moderate           int     `json:"moderate"`
	Low                int     `json:"low"`
	QuickWins          int     `json:"quick_wins"`
	InCycle            int     `json:"in_cycle"`
	AverageImportance  float64 `json:"average_importance"`
	TotalEffortMinutes float64 `json:"total_effort_minutes"`
}

// Summarize counts the ranked tasks. Due this week means due within the next
// seven calendar days of the reference date, today included.
func (r *Result) Summarize() Stats {
	s := Stats{Tasks: len(r.Tasks)}
	if s.Tasks == 0 {
		return s
	}

	ref := models.CalendarDay(r.ReferenceDate)
	weekEnd := ref.AddDate(0, 0, 7)
	importance := 0

	for _, st := range r.Tasks {
		t, sr := st.Task, st.Score

		if sr.Overdue {
			s.Overdue++
		} else if t.DueDate != nil {
			due := models.CalendarDay(*t.DueDate)
			if due.Equal(ref) {
				s.DueToday++
			}
			if !due.After(weekEnd) {
				s.DueThisWeek++
			}
		}

		switch sr.Band {
		case models.BandCritical:
			s.Critical++
		case models.BandModerate:
			s.Moderate++
		default:
			s.Low++
		}

		if t.EffortMinutes <= QuickWinMinutes {
			s.QuickWins++
		}
		if sr.InCycle {
			s.InCycle++
		}
		importance += t.Importance
		s.TotalEffortMinutes += t.EffortMinutes
	}

	s.AverageImportance = float64(importance) / float64(s.Tasks)
	return s
}
