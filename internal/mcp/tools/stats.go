package tools

import (
	"context"
	"fmt"

	"github.com/fitz/triage/internal/models"
	"github.com/fitz/triage/internal/priority"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// TaskStatsInput defines the input for the task_stats tool.
type TaskStatsInput struct {
	Strategy      string `json:"strategy,omitempty" jsonschema:"Preset strategy used to assign priority bands (default from configuration)"`
	ReferenceDate string `json:"reference_date,omitempty" jsonschema:"Date to count as of, YYYY-MM-DD (default: today)"`
}

// TaskStatsOutput defines the output for the task_stats tool. The ranking
// counts cover open tasks only.
type TaskStatsOutput struct {
	Strategy            string  `json:"strategy"`
	ReferenceDate       string  `json:"reference_date"`
	Total               int     `json:"total"`
	Completed           int     `json:"completed"`
	Cancelled           int     `json:"cancelled"`
	Open                int     `json:"open"`
	Overdue             int     `json:"overdue"`
	DueToday            int     `json:"due_today"`
	DueThisWeek         int     `json:"due_this_week"`
	Critical            int     `json:"critical"`
	Moderate            int     `json:"moderate"`
	Low                 int     `json:"low"`
	QuickWins           int     `json:"quick_wins"`
	InCycle             int     `json:"in_cycle"`
	AverageImportance   float64 `json:"average_importance"`
	TotalEstimatedHours float64 `json:"total_estimated_hours"`
}

// TaskStatsTool returns the tool definition for task_stats.
func TaskStatsTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "task_stats",
		Description: "Summarize stored tasks: totals by status, and for open tasks how many are overdue, due today or within 7 days, per priority band (critical > 80, moderate > 50, low), quick wins (2 hours or less), in dependency cycles, their average importance and total estimated hours.",
	}
}

// HandleTaskStats handles the task_stats tool call.
func (h *Handler) HandleTaskStats(ctx context.Context, req *mcp.CallToolRequest, input TaskStatsInput) (*mcp.CallToolResult, TaskStatsOutput, error) {
	h.Logger.Info("task_stats", "strategy", input.Strategy, "reference_date", input.ReferenceDate)

	strategy, err := h.resolveStrategy(PrioritizeTasksInput{Strategy: input.Strategy})
	if err != nil {
		return nil, TaskStatsOutput{}, err
	}
	ref, err := h.referenceDate(input.ReferenceDate)
	if err != nil {
		return nil, TaskStatsOutput{}, err
	}

	all, err := h.Store.Snapshot(ctx, true)
	if err != nil {
		h.Logger.Error("task_stats failed", "error", err)
		return nil, TaskStatsOutput{}, fmt.Errorf("failed to load tasks: %w", err)
	}

	result, err := priority.Score(models.OpenTasks(all), strategy, ref)
	if err != nil {
		h.Logger.Error("task_stats failed", "error", err)
		return nil, TaskStatsOutput{}, fmt.Errorf("failed to score tasks: %w", err)
	}
	s := result.Summarize()

	out := TaskStatsOutput{
		Strategy:            string(result.Strategy.Name),
		ReferenceDate:       result.ReferenceDate.Format(models.DateLayout),
		Total:               len(all),
		Open:                s.Tasks,
		Overdue:             s.Overdue,
		DueToday:            s.DueToday,
		DueThisWeek:         s.DueThisWeek,
		Critical:            s.Critical,
		Moderate:            s.Moderate,
		Low:                 s.Low,
		QuickWins:           s.QuickWins,
		InCycle:             s.InCycle,
		AverageImportance:   round2(s.AverageImportance),
		TotalEstimatedHours: round2(s.TotalEffortMinutes / 60),
	}
	for _, t := range all {
		switch t.Status {
		case models.TaskStatusCompleted:
			out.Completed++
		case models.TaskStatusCancelled:
			out.Cancelled++
		}
	}

	h.Logger.Info("task_stats complete", "total", out.Total, "open", out.Open, "overdue", out.Overdue)
	return nil, out, nil
}
