package tools

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// GetTaskInput defines the input for the get_task tool.
type GetTaskInput struct {
	ID string `json:"id" jsonschema:"The ID of the task to retrieve"`
}

// GetTaskTool returns the tool definition for get_task.
func GetTaskTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "get_task",
		Description: "Retrieve a task by ID, including the IDs of the tasks it blocks.",
	}
}

// HandleGetTask handles the get_task tool call.
func (h *Handler) HandleGetTask(ctx context.Context, req *mcp.CallToolRequest, input GetTaskInput) (*mcp.CallToolResult, TaskOutput, error) {
	h.Logger.Info("get_task", "id", input.ID)

	if input.ID == "" {
		return nil, TaskOutput{}, fmt.Errorf("id is required")
	}

	task, err := h.Store.GetByID(ctx, input.ID)
	if err != nil {
		h.Logger.Error("get_task failed", "id", input.ID, "error", err)
		return nil, TaskOutput{}, fmt.Errorf("failed to get task: %w", err)
	}
	if task == nil {
		return nil, TaskOutput{}, fmt.Errorf("task not found: %s", input.ID)
	}

	h.Logger.Info("get_task complete", "id", task.ID)
	return nil, toTaskOutput(*task), nil
}
