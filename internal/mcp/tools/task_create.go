package tools

import (
	"context"
	"fmt"

	"github.com/fitz/triage/internal/models"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// CreateTaskInput defines the input for the create_task tool.
type CreateTaskInput struct {
	ID             string   `json:"id,omitempty" jsonschema:"Optional task ID (a UUID is generated when omitted)"`
	Title          string   `json:"title" jsonschema:"Short description of the task"`
	Status         string   `json:"status,omitempty" jsonschema:"Task status: pending, in_progress, completed, cancelled, blocked (default: pending)"`
	DueDate        string   `json:"due_date,omitempty" jsonschema:"Due date as YYYY-MM-DD; omit for no deadline"`
	Importance     *int     `json:"importance,omitempty" jsonschema:"Importance from 1 (trivial) to 10 (critical), default 5"`
	EffortMinutes  *float64 `json:"effort_minutes,omitempty" jsonschema:"Estimated effort in minutes"`
	EstimatedHours *float64 `json:"estimated_hours,omitempty" jsonschema:"Estimated effort in hours, used when effort_minutes is not given"`
	Blocks         []string `json:"blocks,omitempty" jsonschema:"IDs of existing tasks that cannot start until this one is done"`
	Tags           []string `json:"tags,omitempty" jsonschema:"Tags for categorizing the task"`
}

// CreateTaskTool returns the tool definition for create_task.
func CreateTaskTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "create_task",
		Description: "Create a task with an optional due date, importance (1-10), effort estimate and the IDs of tasks it blocks. Returns the created task with its ID.",
	}
}

// HandleCreateTask handles the create_task tool call.
func (h *Handler) HandleCreateTask(ctx context.Context, req *mcp.CallToolRequest, input CreateTaskInput) (*mcp.CallToolResult, TaskOutput, error) {
	h.Logger.Info("create_task", "title_len", len(input.Title), "due_date", input.DueDate, "blocks", input.Blocks)

	if input.Title == "" {
		return nil, TaskOutput{}, fmt.Errorf("title is required")
	}
	if err := validateStatus(input.Status); err != nil {
		return nil, TaskOutput{}, err
	}

	due, err := models.ParseDate(input.DueDate)
	if err != nil {
		return nil, TaskOutput{}, fmt.Errorf("due_date: %w", err)
	}

	task := models.Task{
		ID:         input.ID,
		Title:      input.Title,
		Status:     models.TaskStatus(input.Status),
		DueDate:    due,
		Importance: models.DefaultImportance,
		Blocks:     input.Blocks,
		Tags:       input.Tags,
	}
	if input.Importance != nil {
		task.Importance = *input.Importance
	}
	if effort := effortFrom(input.EffortMinutes, input.EstimatedHours); effort != nil {
		task.EffortMinutes = *effort
	}

	created, err := h.Store.Add(ctx, task)
	if err != nil {
		h.Logger.Error("create_task failed", "error", err)
		return nil, TaskOutput{}, fmt.Errorf("failed to create task: %w", err)
	}

	h.Logger.Info("create_task complete", "id", created.ID, "status", created.Status)
	return nil, toTaskOutput(*created), nil
}
