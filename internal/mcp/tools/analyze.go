package tools

import (
	"context"
	"errors"
	"fmt"

	"github.com/fitz/triage/internal/priority"
	"github.com/fitz/triage/internal/taskfile"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// AnalyzeTasksInput defines the input for the analyze_tasks tool. Tasks use
// the task file format and are not stored.
type AnalyzeTasksInput struct {
	Tasks         []taskfile.TaskEntry `json:"tasks" jsonschema:"Tasks to rank: id (required), title, status, due_date (YYYY-MM-DD), importance (1-10), effort_minutes or estimated_hours, blocks, depends_on, tags"`
	Strategy      string               `json:"strategy,omitempty" jsonschema:"Preset strategy: balanced, deadline, quick_wins, impact (default from configuration)"`
	Weights       *WeightsInput        `json:"weights,omitempty" jsonschema:"Custom weights; overrides strategy when given"`
	ReferenceDate string               `json:"reference_date,omitempty" jsonschema:"Date to rank as of, YYYY-MM-DD (default: today)"`
	IncludeClosed bool                 `json:"include_closed,omitempty" jsonschema:"Rank completed and cancelled tasks too"`
	Limit         int                  `json:"limit,omitempty" jsonschema:"Return only the top N tasks (default: all)"`
}

// AnalyzeTasksTool returns the tool definition for analyze_tasks.
func AnalyzeTasksTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "analyze_tasks",
		Description: "Rank a list of tasks given in the request without storing them. Same scoring and output as prioritize_tasks; depends_on entries naming unknown tasks are reported as warnings.",
	}
}

// HandleAnalyzeTasks handles the analyze_tasks tool call.
func (h *Handler) HandleAnalyzeTasks(ctx context.Context, req *mcp.CallToolRequest, input AnalyzeTasksInput) (*mcp.CallToolResult, PrioritizeTasksOutput, error) {
	h.Logger.Info("analyze_tasks", "tasks", len(input.Tasks), "strategy", input.Strategy, "custom_weights", input.Weights != nil, "reference_date", input.ReferenceDate)

	if len(input.Tasks) == 0 {
		return nil, PrioritizeTasksOutput{}, errors.New("no tasks provided")
	}

	file := taskfile.File{
		Strategy:      input.Strategy,
		ReferenceDate: input.ReferenceDate,
		Tasks:         input.Tasks,
	}
	if input.Weights != nil {
		w := taskfile.Weights(*input.Weights)
		file.Weights = &w
	} else if file.Strategy == "" {
		file.Strategy = h.Strategy
	}

	doc, err := file.Resolve()
	if err != nil {
		return nil, PrioritizeTasksOutput{}, fmt.Errorf("invalid tasks: %w", err)
	}

	ref, err := h.referenceDate("")
	if err != nil {
		return nil, PrioritizeTasksOutput{}, err
	}
	if doc.ReferenceDate != nil {
		ref = *doc.ReferenceDate
	}

	tasks := doc.Tasks
	if !input.IncludeClosed {
		tasks = doc.OpenTasks()
	}

	result, err := priority.Score(tasks, doc.Strategy, ref)
	if err != nil {
		h.Logger.Error("analyze_tasks failed", "error", err)
		return nil, PrioritizeTasksOutput{}, fmt.Errorf("failed to score tasks: %w", err)
	}

	out := toRankingOutput(result, input.Limit)
	out.Warnings = doc.Warnings

	h.Logger.Info("analyze_tasks complete", "strategy", out.Strategy.Name, "count", out.Count, "cycles", len(out.Cycles), "warnings", len(out.Warnings))
	return nil, out, nil
}
