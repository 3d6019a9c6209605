package tools

import (
	"context"
	"fmt"

	"github.com/fitz/triage/internal/priority"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// CheckDependenciesInput defines the input for the check_dependencies tool.
type CheckDependenciesInput struct {
	IncludeClosed bool `json:"include_closed,omitempty" jsonschema:"Also check completed and cancelled tasks"`
}

// CheckDependenciesOutput defines the output for the check_dependencies tool.
// CyclePaths holds, per cycle, a closed path of real edges, e.g. [a c b a].
type CheckDependenciesOutput struct {
	TaskCount  int          `json:"task_count"`
	HasCycles  bool         `json:"has_cycles"`
	Cycles     [][]string   `json:"cycles"`
	CyclePaths [][]string   `json:"cycle_paths,omitempty"`
	Dangling   []EdgeOutput `json:"dangling,omitempty"`
}

// CheckDependenciesTool returns the tool definition for check_dependencies.
func CheckDependenciesTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "check_dependencies",
		Description: "Check the task dependency graph for cycles (tasks that transitively block themselves) and for blocks edges pointing at tasks outside the checked set.",
	}
}

// HandleCheckDependencies handles the check_dependencies tool call.
func (h *Handler) HandleCheckDependencies(ctx context.Context, req *mcp.CallToolRequest, input CheckDependenciesInput) (*mcp.CallToolResult, CheckDependenciesOutput, error) {
	h.Logger.Info("check_dependencies", "include_closed", input.IncludeClosed)

	tasks, err := h.Store.Snapshot(ctx, input.IncludeClosed)
	if err != nil {
		h.Logger.Error("check_dependencies failed", "error", err)
		return nil, CheckDependenciesOutput{}, fmt.Errorf("failed to load tasks: %w", err)
	}

	g := priority.BuildGraph(tasks)
	cycles := g.Cycles()
	if cycles == nil {
		cycles = [][]string{}
	}
	var paths [][]string
	for _, group := range cycles {
		paths = append(paths, g.CyclePath(group))
	}

	out := CheckDependenciesOutput{
		TaskCount:  g.Len(),
		HasCycles:  len(cycles) > 0,
		Cycles:     cycles,
		CyclePaths: paths,
		Dangling:   toEdgeOutputs(g.Dangling),
	}

	h.Logger.Info("check_dependencies complete", "tasks", out.TaskCount, "cycles", len(cycles), "dangling", len(out.Dangling))
	return nil, out, nil
}
