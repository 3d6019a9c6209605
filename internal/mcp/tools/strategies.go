package tools

import (
	"context"

	"github.com/fitz/triage/internal/priority"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// ListStrategiesInput defines the input for the list_strategies tool.
type ListStrategiesInput struct{}

// ListStrategiesOutput defines the output for the list_strategies tool.
type ListStrategiesOutput struct {
	Strategies []StrategyOutput `json:"strategies"`
	Default    string           `json:"default"`
}

// ListStrategiesTool returns the tool definition for list_strategies.
func ListStrategiesTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "list_strategies",
		Description: "List the preset prioritization strategies and their factor weights.",
	}
}

// HandleListStrategies handles the list_strategies tool call.
func (h *Handler) HandleListStrategies(ctx context.Context, req *mcp.CallToolRequest, input ListStrategiesInput) (*mcp.CallToolResult, ListStrategiesOutput, error) {
	h.Logger.Info("list_strategies")

	def := h.Strategy
	if def == "" {
		def = string(priority.DefaultStrategy)
	}

	presets := priority.Strategies()
	out := ListStrategiesOutput{
		Strategies: make([]StrategyOutput, 0, len(presets)),
		Default:    def,
	}
	for _, s := range presets {
		out.Strategies = append(out.Strategies, toStrategyOutput(s))
	}

	h.Logger.Info("list_strategies complete", "count", len(out.Strategies))
	return nil, out, nil
}
