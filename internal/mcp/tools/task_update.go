package tools

import (
	"context"
	"fmt"

	"github.com/fitz/triage/internal/models"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// UpdateTaskInput defines the input for the update_task tool.
type UpdateTaskInput struct {
	ID             string   `json:"id" jsonschema:"The ID of the task to update"`
	Title          *string  `json:"title,omitempty" jsonschema:"New title"`
	Status         *string  `json:"status,omitempty" jsonschema:"New status: pending, in_progress, completed, cancelled, blocked"`
	DueDate        *string  `json:"due_date,omitempty" jsonschema:"New due date as YYYY-MM-DD; an empty string removes the deadline"`
	Importance     *int     `json:"importance,omitempty" jsonschema:"New importance from 1 to 10"`
	EffortMinutes  *float64 `json:"effort_minutes,omitempty" jsonschema:"New effort estimate in minutes"`
	EstimatedHours *float64 `json:"estimated_hours,omitempty" jsonschema:"New effort estimate in hours, used when effort_minutes is not given"`
	Tags           []string `json:"tags,omitempty" jsonschema:"Replacement tag list"`
	AddBlocks      []string `json:"add_blocks,omitempty" jsonschema:"IDs of tasks this task should start blocking"`
	RemoveBlocks   []string `json:"remove_blocks,omitempty" jsonschema:"IDs of tasks this task should stop blocking"`
}

// UpdateTaskTool returns the tool definition for update_task.
func UpdateTaskTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "update_task",
		Description: "Update fields of an existing task. Only provided fields change. Use add_blocks and remove_blocks to edit dependencies; an empty due_date clears the deadline.",
	}
}

// HandleUpdateTask handles the update_task tool call.
func (h *Handler) HandleUpdateTask(ctx context.Context, req *mcp.CallToolRequest, input UpdateTaskInput) (*mcp.CallToolResult, TaskOutput, error) {
	h.Logger.Info("update_task", "id", input.ID)

	if input.ID == "" {
		return nil, TaskOutput{}, fmt.Errorf("id is required")
	}

	patch, err := input.toPatch()
	if err != nil {
		return nil, TaskOutput{}, err
	}

	updated, err := h.Store.Update(ctx, input.ID, patch)
	if err != nil {
		h.Logger.Error("update_task failed", "id", input.ID, "error", err)
		return nil, TaskOutput{}, fmt.Errorf("failed to update task: %w", err)
	}

	h.Logger.Info("update_task complete", "id", updated.ID)
	return nil, toTaskOutput(*updated), nil
}

func (in UpdateTaskInput) toPatch() (models.TaskPatch, error) {
	patch := models.TaskPatch{
		Title:         in.Title,
		Importance:    in.Importance,
		EffortMinutes: effortFrom(in.EffortMinutes, in.EstimatedHours),
		Tags:          in.Tags,
		AddBlocks:     in.AddBlocks,
		RemoveBlocks:  in.RemoveBlocks,
	}

	if in.Status != nil {
		if err := validateStatus(*in.Status); err != nil {
			return models.TaskPatch{}, err
		}
		if *in.Status == "" {
			return models.TaskPatch{}, fmt.Errorf("status cannot be empty")
		}
		patch.Status = in.Status
	}

	if in.DueDate != nil {
		due, err := models.ParseDate(*in.DueDate)
		if err != nil {
			return models.TaskPatch{}, fmt.Errorf("due_date: %w", err)
		}
		if due == nil {
			patch.ClearDueDate = true
		} else {
			patch.DueDate = due
		}
	}

	return patch, nil
}
