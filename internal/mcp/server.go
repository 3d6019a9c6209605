package mcp

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/fitz/triage/internal/mcp/tools"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const (
	ServerName    = "triage"
	ServerVersion = "v1.0.0"
)

// Server wraps the MCP server with the triage tool set
type Server struct {
	mcpServer *mcp.Server
	logger    *slog.Logger
	handler   *tools.Handler
}

// NewServer creates a triage MCP server backed by store. strategy names the
// preset used when a ranking request does not choose one.
func NewServer(store tools.TaskStore, logger *slog.Logger, strategy string) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	mcpServer := mcp.NewServer(
		&mcp.Implementation{
			Name:    ServerName,
			Version: ServerVersion,
		},
		nil,
	)

	s := &Server{
		mcpServer: mcpServer,
		logger:    logger,
		handler:   tools.NewHandler(store, logger, strategy),
	}

	s.registerTools()
	return s
}

// registerTools adds all MCP tools to the server
func (s *Server) registerTools() {
	mcp.AddTool(s.mcpServer, tools.CreateTaskTool(), s.handler.HandleCreateTask)
	mcp.AddTool(s.mcpServer, tools.GetTaskTool(), s.handler.HandleGetTask)
	mcp.AddTool(s.mcpServer, tools.UpdateTaskTool(), s.handler.HandleUpdateTask)
	mcp.AddTool(s.mcpServer, tools.DeleteTaskTool(), s.handler.HandleDeleteTask)
	mcp.AddTool(s.mcpServer, tools.ListTasksTool(), s.handler.HandleListTasks)
	mcp.AddTool(s.mcpServer, tools.PrioritizeTasksTool(), s.handler.HandlePrioritizeTasks)
	mcp.AddTool(s.mcpServer, tools.ListStrategiesTool(), s.handler.HandleListStrategies)
	mcp.AddTool(s.mcpServer, tools.CheckDependenciesTool(), s.handler.HandleCheckDependencies)
	mcp.AddTool(s.mcpServer, tools.TaskStatsTool(), s.handler.HandleTaskStats)
	mcp.AddTool(s.mcpServer, tools.AnalyzeTasksTool(), s.handler.HandleAnalyzeTasks)
}

// HTTPHandler returns an http.Handler for the MCP server
func (s *Server) HTTPHandler() http.Handler {
	return mcp.NewStreamableHTTPHandler(
		func(r *http.Request) *mcp.Server {
			return s.mcpServer
		},
		&mcp.StreamableHTTPOptions{
			Logger: s.logger,
		},
	)
}

// Run starts the MCP server over stdio (for CLI usage)
func (s *Server) Run(ctx context.Context) error {
	return s.mcpServer.Run(ctx, &mcp.StdioTransport{})
}

// Connect serves a single session over transport and returns immediately.
func (s *Server) Connect(ctx context.Context, transport mcp.Transport) (*mcp.ServerSession, error) {
	return s.mcpServer.Connect(ctx, transport, nil)
}
