package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fitz/triage/internal/config"
	"github.com/fitz/triage/internal/docker"
	mcpserver "github.com/fitz/triage/internal/mcp"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MCP server",
	Long: `Start the Model Context Protocol server exposing task management and
prioritization tools backed by Neo4j, or PostgreSQL with Apache AGE when
TRIAGE_BACKEND=age.

By default the server speaks MCP over stdio, which is how agents launch it.
Use --http to serve the streamable HTTP transport instead.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		httpMode, _ := cmd.Flags().GetBool("http")
		port, _ := cmd.Flags().GetInt("port")
		waitForDB, _ := cmd.Flags().GetBool("wait")
		withDocker, _ := cmd.Flags().GetBool("docker")

		cfg, err := loadConfig(cmd)
		if err != nil {
			exitWithError(err)
		}
		if err := cfg.ValidateStore(); err != nil {
			exitWithError(fmt.Errorf("%w\nPlease run 'triage config set <KEY> <value>' to configure", err))
		}

		logger := newLogger(cfg)

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		go func() {
			<-sigChan
			logger.Info("shutting down...")
			cancel()
		}()

		if withDocker && cfg.Backend == config.BackendNeo4j {
			container := cfg.Container()
			prior, err := docker.NewManager(nil).Ensure(ctx, container)
			if err != nil {
				exitWithError(fmt.Errorf("failed to ensure Neo4j container: %w", err))
			}
			logger.Info("neo4j container ready", "name", container.Name, "previous_state", prior)
		}

		store, closeStore, err := openStore(ctx, cfg, waitForDB, logger)
		if err != nil {
			logger.Error("failed to open task store", "backend", cfg.Backend, "error", err)
			os.Exit(1)
		}
		defer closeStore()

		server := mcpserver.NewServer(store, logger, cfg.Strategy)

		if httpMode {
			addr := fmt.Sprintf(":%d", port)
			httpServer := &http.Server{
				Addr:              addr,
				Handler:           server.HTTPHandler(),
				ReadHeaderTimeout: 10 * time.Second,
			}

			go func() {
				<-ctx.Done()
				shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer shutdownCancel()
				_ = httpServer.Shutdown(shutdownCtx)
			}()

			logger.Info("starting HTTP server", "addr", addr)
			if err := httpServer.ListenAndServe(); err != http.ErrServerClosed {
				logger.Error("HTTP server error", "error", err)
				os.Exit(1)
			}
		} else {
			logger.Info("starting MCP server on stdio")
			if err := server.Run(ctx); err != nil {
				logger.Error("MCP server error", "error", err)
				os.Exit(1)
			}
		}

		logger.Info("server stopped")
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().Bool("http", false, "Serve the streamable HTTP transport instead of stdio")
	serveCmd.Flags().Int("port", 8080, "HTTP port to listen on (only used with --http)")
	serveCmd.Flags().Bool("wait", true, "Wait for the database to be available (with retries)")
	serveCmd.Flags().Bool("docker", false, "Create or start the local Neo4j container first (neo4j backend only)")
}
