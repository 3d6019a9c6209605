package tools

import (
	"context"
	"fmt"

	"github.com/fitz/triage/internal/models"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// ListTasksInput defines the input for the list_tasks tool.
type ListTasksInput struct {
	Status        string   `json:"status,omitempty" jsonschema:"Filter by status: pending, in_progress, completed, cancelled, blocked"`
	Tags          []string `json:"tags,omitempty" jsonschema:"Filter by tags (tasks matching any of the tags are returned)"`
	IncludeClosed bool     `json:"include_closed,omitempty" jsonschema:"Include completed and cancelled tasks"`
	Limit         int      `json:"limit,omitempty" jsonschema:"Maximum number of tasks to return (default: 50)"`
}

// ListTasksOutput defines the output for the list_tasks tool.
type ListTasksOutput struct {
	Tasks []TaskSummary `json:"tasks"`
	Count int           `json:"count"`
}

// ListTasksTool returns the tool definition for list_tasks.
func ListTasksTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "list_tasks",
		Description: "List tasks with optional filtering by status and tags. Closed tasks are hidden unless include_closed is set or their status is requested. Ordered by most recently updated.",
	}
}

// HandleListTasks handles the list_tasks tool call.
func (h *Handler) HandleListTasks(ctx context.Context, req *mcp.CallToolRequest, input ListTasksInput) (*mcp.CallToolResult, ListTasksOutput, error) {
	h.Logger.Info("list_tasks", "status", input.Status, "tags", input.Tags, "limit", input.Limit)

	if err := validateStatus(input.Status); err != nil {
		return nil, ListTasksOutput{}, err
	}

	tasks, err := h.Store.List(ctx, models.TaskFilter{
		Status:        input.Status,
		Tags:          input.Tags,
		IncludeClosed: input.IncludeClosed,
		Limit:         input.Limit,
	})
	if err != nil {
		h.Logger.Error("list_tasks failed", "error", err)
		return nil, ListTasksOutput{}, fmt.Errorf("failed to list tasks: %w", err)
	}

	// Empty slice, not nil, so JSON renders [] rather than null
	summaries := make([]TaskSummary, 0, len(tasks))
	for _, t := range tasks {
		summaries = append(summaries, TaskSummary{
			ID:         t.ID,
			Title:      t.Title,
			Status:     string(t.Status),
			DueDate:    models.FormatDate(t.DueDate),
			Importance: t.Importance,
		})
	}

	h.Logger.Info("list_tasks complete", "count", len(summaries))
	return nil, ListTasksOutput{
		Tasks: summaries,
		Count: len(summaries),
	}, nil
}
