package tools

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/fitz/triage/internal/models"
	"github.com/fitz/triage/internal/priority"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// WeightsInput carries custom strategy weights. All four are required and
// are normalized to sum to 1.
type WeightsInput struct {
	Urgency    *float64 `json:"urgency" jsonschema:"Weight of deadline pressure"`
	Importance *float64 `json:"importance" jsonschema:"Weight of the 1-10 importance rating"`
	Effort     *float64 `json:"effort" jsonschema:"Weight of low effort (quick wins)"`
	Dependency *float64 `json:"dependency" jsonschema:"Weight of blocking other tasks"`
}

// PrioritizeTasksInput defines the input for the prioritize_tasks tool.
type PrioritizeTasksInput struct {
	Strategy      string        `json:"strategy,omitempty" jsonschema:"Preset strategy: balanced, deadline, quick_wins, impact (default from configuration)"`
	Weights       *WeightsInput `json:"weights,omitempty" jsonschema:"Custom weights; overrides strategy when given"`
	ReferenceDate string        `json:"reference_date,omitempty" jsonschema:"Date to rank as of, YYYY-MM-DD (default: today)"`
	IncludeClosed bool          `json:"include_closed,omitempty" jsonschema:"Rank completed and cancelled tasks too"`
	Limit         int           `json:"limit,omitempty" jsonschema:"Return only the top N tasks (default: all)"`
}

// RankedTask is one row of a ranking.
type RankedTask struct {
	Rank         int      `json:"rank"`
	ID           string   `json:"id"`
	Title        string   `json:"title"`
	Status       string   `json:"status"`
	DueDate      string   `json:"due_date,omitempty"`
	Score        float64  `json:"score"`
	Urgency      float64  `json:"urgency"`
	Importance   float64  `json:"importance"`
	Effort       float64  `json:"effort"`
	Dependency   float64  `json:"dependency"`
	Dependents   int      `json:"dependents"`
	BusinessDays *int     `json:"business_days,omitempty"`
	Overdue      bool     `json:"overdue"`
	InCycle      bool     `json:"in_cycle"`
	CycleWith    []string `json:"cycle_with,omitempty"`
	Band         string   `json:"band"`
	Explanation  string   `json:"explanation"`
}

// StrategyOutput describes a weighting strategy.
type StrategyOutput struct {
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	Weights     models.Weights `json:"weights"`
}

// EdgeOutput is a blocks relation naming a task outside the ranked set.
type EdgeOutput struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// PrioritizeTasksOutput defines the output for the prioritize_tasks tool.
type PrioritizeTasksOutput struct {
	Strategy      StrategyOutput `json:"strategy"`
	ReferenceDate string         `json:"reference_date"`
	Tasks         []RankedTask   `json:"tasks"`
	Count         int            `json:"count"`
	Total         int            `json:"total"`
	Cycles        [][]string     `json:"cycles,omitempty"`
	CyclePaths    [][]string     `json:"cycle_paths,omitempty"`
	Dangling      []EdgeOutput   `json:"dangling,omitempty"`
	Warnings      []string       `json:"warnings,omitempty"`
}

// PrioritizeTasksTool returns the tool definition for prioritize_tasks.
func PrioritizeTasksTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "prioritize_tasks",
		Description: "Rank stored tasks by a weighted blend of urgency (business days to due date), importance, effort and how many tasks each one blocks. Returns tasks highest score first with sub-scores, a priority band, an explanation, and any dependency cycles.",
	}
}

// HandlePrioritizeTasks handles the prioritize_tasks tool call.
func (h *Handler) HandlePrioritizeTasks(ctx context.Context, req *mcp.CallToolRequest, input PrioritizeTasksInput) (*mcp.CallToolResult, PrioritizeTasksOutput, error) {
	h.Logger.Info("prioritize_tasks", "strategy", input.Strategy, "custom_weights", input.Weights != nil, "reference_date", input.ReferenceDate, "limit", input.Limit)

	strategy, err := h.resolveStrategy(input)
	if err != nil {
		return nil, PrioritizeTasksOutput{}, err
	}

	ref, err := h.referenceDate(input.ReferenceDate)
	if err != nil {
		return nil, PrioritizeTasksOutput{}, err
	}

	tasks, err := h.Store.Snapshot(ctx, input.IncludeClosed)
	if err != nil {
		h.Logger.Error("prioritize_tasks failed", "error", err)
		return nil, PrioritizeTasksOutput{}, fmt.Errorf("failed to load tasks: %w", err)
	}

	result, err := priority.Score(tasks, strategy, ref)
	if err != nil {
		h.Logger.Error("prioritize_tasks failed", "error", err)
		return nil, PrioritizeTasksOutput{}, fmt.Errorf("failed to score tasks: %w", err)
	}

	out := toRankingOutput(result, input.Limit)

	h.Logger.Info("prioritize_tasks complete", "strategy", out.Strategy.Name, "count", out.Count, "cycles", len(out.Cycles))
	return nil, out, nil
}

func (h *Handler) resolveStrategy(input PrioritizeTasksInput) (models.Strategy, error) {
	if w := input.Weights; w != nil {
		var missing []string
		if w.Urgency == nil {
			missing = append(missing, "urgency")
		}
		if w.Importance == nil {
			missing = append(missing, "importance")
		}
		if w.Effort == nil {
			missing = append(missing, "effort")
		}
		if w.Dependency == nil {
			missing = append(missing, "dependency")
		}
		if len(missing) > 0 {
			return models.Strategy{}, fmt.Errorf("weights: %w: missing %s", priority.ErrInvalidStrategy, strings.Join(missing, ", "))
		}
		return priority.CustomStrategy(models.Weights{
			Urgency:    *w.Urgency,
			Importance: *w.Importance,
			Effort:     *w.Effort,
			Dependency: *w.Dependency,
		})
	}

	name := input.Strategy
	if name == "" {
		name = h.Strategy
	}
	return priority.LookupStrategy(name)
}

func (h *Handler) referenceDate(s string) (time.Time, error) {
	ref, err := models.ParseDate(s)
	if err != nil {
		return time.Time{}, fmt.Errorf("reference_date: %w", err)
	}
	if ref != nil {
		return *ref, nil
	}
	if h.Now != nil {
		return h.Now(), nil
	}
	return time.Now(), nil
}

func toRankingOutput(result *priority.Result, limit int) PrioritizeTasksOutput {
	out := PrioritizeTasksOutput{
		Strategy:      toStrategyOutput(result.Strategy),
		ReferenceDate: result.ReferenceDate.Format(models.DateLayout),
		Tasks:         make([]RankedTask, 0, len(result.Tasks)),
		Total:         len(result.Tasks),
		Cycles:        result.Cycles,
		CyclePaths:    result.CyclePaths,
		Dangling:      toEdgeOutputs(result.Dangling),
	}
	for i, st := range result.Top(limit) {
		out.Tasks = append(out.Tasks, toRankedTask(i+1, st))
	}
	out.Count = len(out.Tasks)
	return out
}

func toRankedTask(rank int, st priority.ScoredTask) RankedTask {
	sr := st.Score
	return RankedTask{
		Rank:         rank,
		ID:           st.Task.ID,
		Title:        st.Task.Title,
		Status:       string(st.Task.Status),
		DueDate:      models.FormatDate(st.Task.DueDate),
		Score:        round2(sr.Final),
		Urgency:      round2(sr.Urgency),
		Importance:   round2(sr.Importance),
		Effort:       round2(sr.Effort),
		Dependency:   round2(sr.Dependency),
		Dependents:   sr.Dependents,
		BusinessDays: sr.BusinessDays,
		Overdue:      sr.Overdue,
		InCycle:      sr.InCycle,
		CycleWith:    sr.CycleWith,
		Band:         string(sr.Band),
		Explanation:  sr.Explanation,
	}
}

func toStrategyOutput(s models.Strategy) StrategyOutput {
	return StrategyOutput{
		Name:        string(s.Name),
		Description: s.Description,
		Weights:     s.Weights,
	}
}

func toEdgeOutputs(edges []models.Edge) []EdgeOutput {
	if len(edges) == 0 {
		return nil
	}
	out := make([]EdgeOutput, len(edges))
	for i, e := range edges {
		out[i] = EdgeOutput{From: e.From, To: e.To}
	}
	return out
}

func round2(v float64) float64 {
	if v < 0 {
		return -round2(-v)
	}
	return float64(int64(v*100+0.5)) / 100
}
