// Package graph stores tasks in PostgreSQL using the Apache AGE graph
// extension. It is an alternative to the Neo4j store with the same semantics.
package graph

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
)

// GraphName is the name of the AGE graph
const GraphName = "triage"

// RetryOptions configures the connection retry behavior
type RetryOptions struct {
	// MaxAttempts is the maximum number of connection attempts (default: 30)
	MaxAttempts int
	// InitialDelay is the delay before the first retry (default: 1s)
	InitialDelay time.Duration
	// MaxDelay is the maximum delay between retries (default: 10s)
	MaxDelay time.Duration
}

// DefaultRetryOptions returns sensible defaults for waiting on PostgreSQL startup
func DefaultRetryOptions() RetryOptions {
	return RetryOptions{
		MaxAttempts:  30,
		InitialDelay: 1 * time.Second,
		MaxDelay:     10 * time.Second,
	}
}

// Client wraps the PostgreSQL/AGE connection pool.
type Client struct {
	db        *sql.DB
	graphName string
}

// Config holds PostgreSQL/AGE connection configuration
type Config struct {
	Host     string
	Port     string
	Username string
	Password string
	Database string
}

// DSN returns the PostgreSQL connection string. search_path is sent as a
// startup parameter so every pooled connection resolves AGE functions.
func (c Config) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=disable search_path=ag_catalog,public",
		c.Host, c.Port, c.Username, c.Password, c.Database,
	)
}

// NewClient opens the pool, verifies connectivity and prepares the graph.
func NewClient(ctx context.Context, cfg Config) (*Client, error) {
	db, err := sql.Open("postgres", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to PostgreSQL: %w", err)
	}

	client := &Client{
		db:        db,
		graphName: GraphName,
	}

	if err := client.initAGE(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize AGE: %w", err)
	}

	if err := client.initSchema(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return client, nil
}

// NewClientWithRetry keeps calling NewClient with exponential backoff until
// it succeeds, attempts run out or ctx is cancelled.
func NewClientWithRetry(ctx context.Context, cfg Config, opts *RetryOptions) (*Client, error) {
	if opts == nil {
		defaultOpts := DefaultRetryOptions()
		opts = &defaultOpts
	}
	attempts := opts.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		client, err := NewClient(ctx, cfg)
		if err == nil {
			return client, nil
		}
		lastErr = err

		if attempt == attempts {
			break
		}

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("context cancelled: %w", ctx.Err())
		case <-time.After(backoff(attempt, opts.InitialDelay, opts.MaxDelay)):
		}
	}

	return nil, fmt.Errorf("failed after %d attempts: %w", attempts, lastErr)
}

// backoff doubles the delay for each attempt, capped at max.
func backoff(attempt int, initial, max time.Duration) time.Duration {
	delay := initial * time.Duration(1<<(attempt-1))
	if delay > max || delay <= 0 {
		return max
	}
	return delay
}

// Close closes the database connection
func (c *Client) Close(ctx context.Context) error {
	return c.db.Close()
}

// BeginTx starts a new transaction
func (c *Client) BeginTx(ctx context.Context) (*sql.Tx, error) {
	return c.db.BeginTx(ctx, nil)
}

// initAGE loads the AGE extension and creates the graph if needed.
func (c *Client) initAGE(ctx context.Context) error {
	if _, err := c.db.ExecContext(ctx, "CREATE EXTENSION IF NOT EXISTS age"); err != nil {
		return fmt.Errorf("failed to create AGE extension: %w", err)
	}

	var exists bool
	err := c.db.QueryRowContext(ctx,
		"SELECT EXISTS(SELECT 1 FROM ag_catalog.ag_graph WHERE name = $1)",
		c.graphName).Scan(&exists)
	if err != nil {
		return fmt.Errorf("failed to check graph existence: %w", err)
	}

	if !exists {
		if _, err := c.db.ExecContext(ctx, fmt.Sprintf("SELECT create_graph('%s')", c.graphName)); err != nil {
			return fmt.Errorf("failed to create graph: %w", err)
		}
	}

	return nil
}

// initSchema makes sure the Task vertex and BLOCKS edge label tables exist,
// so that MATCH on an empty graph returns no rows instead of failing.
func (c *Client) initSchema(ctx context.Context) error {
	seed := []string{
		`CREATE (a:Task {id: '__seed_a__'})-[:BLOCKS]->(b:Task {id: '__seed_b__'})`,
		`MATCH (t:Task) WHERE t.id IN ['__seed_a__', '__seed_b__'] DETACH DELETE t`,
	}
	for _, cypher := range seed {
		if err := c.execCypherNoReturn(ctx, nil, cypher); err != nil {
			return fmt.Errorf("failed to seed label tables: %w", err)
		}
	}
	return nil
}

// execCypher runs a Cypher query through AGE's cypher() function. returnCols
// declares the agtype columns of the RETURN clause.
func (c *Client) execCypher(ctx context.Context, tx *sql.Tx, cypher string, returnCols string) (*sql.Rows, error) {
	query := fmt.Sprintf(
		`SELECT * FROM cypher('%s', $$ %s $$) as (%s)`,
		c.graphName, cypher, returnCols,
	)

	if tx != nil {
		return tx.QueryContext(ctx, query)
	}
	return c.db.QueryContext(ctx, query)
}

// execCypherNoReturn runs a mutation and drains its result.
func (c *Client) execCypherNoReturn(ctx context.Context, tx *sql.Tx, cypher string) error {
	rows, err := c.execCypher(ctx, tx, cypher, "v agtype")
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
	}
	return rows.Err()
}
