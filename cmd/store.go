package cmd

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/fitz/triage/internal/config"
	"github.com/fitz/triage/internal/graph"
	"github.com/fitz/triage/internal/mcp/tools"
	"github.com/fitz/triage/internal/neo4j"
)

// openStore connects to the configured backend. With wait set, the
// connection is retried with backoff while the database starts up. The
// returned func closes the connection.
func openStore(ctx context.Context, cfg *config.Config, wait bool, logger *slog.Logger) (tools.TaskStore, func(), error) {
	if err := cfg.ValidateStore(); err != nil {
		return nil, nil, err
	}

	switch cfg.Backend {
	case config.BackendAGE:
		pg := cfg.Postgres()
		logger.Info("connecting to PostgreSQL/AGE", "host", pg.Host, "port", pg.Port, "database", pg.Database)

		var client *graph.Client
		var err error
		if wait {
			logger.Info("waiting for PostgreSQL to be available...")
			client, err = graph.NewClientWithRetry(ctx, pg, nil)
		} else {
			client, err = graph.NewClient(ctx, pg)
		}
		if err != nil {
			return nil, nil, fmt.Errorf("failed to connect to PostgreSQL/AGE: %w", err)
		}
		logger.Info("connected to PostgreSQL/AGE")
		return graph.NewTaskRepository(client), func() { client.Close(context.Background()) }, nil

	default:
		dbCfg := cfg.Neo4j()
		logger.Info("connecting to Neo4j", "uri", dbCfg.URI, "database", dbCfg.Database)

		var client *neo4j.Client
		var err error
		if wait {
			logger.Info("waiting for Neo4j to be available...")
			client, err = neo4j.NewClientWithRetry(ctx, dbCfg, nil)
		} else {
			client, err = neo4j.NewClient(ctx, dbCfg)
		}
		if err != nil {
			return nil, nil, fmt.Errorf("failed to connect to Neo4j: %w", err)
		}
		logger.Info("connected to Neo4j")
		return neo4j.NewTaskRepository(client), func() { client.Close(context.Background()) }, nil
	}
}
