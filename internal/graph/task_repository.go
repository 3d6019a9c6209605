package graph

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/fitz/triage/internal/models"
	"github.com/google/uuid"
)

// DefaultListLimit caps List when the filter sets no limit.
const DefaultListLimit = 50

var closedStatuses = []string{string(models.TaskStatusCompleted), string(models.TaskStatusCancelled)}

// TaskRepository stores tasks as Task vertices and blocking relations as
// BLOCKS edges in an AGE graph.
type TaskRepository struct {
	client *Client
}

// NewTaskRepository creates a new task repository
func NewTaskRepository(client *Client) *TaskRepository {
	return &TaskRepository{client: client}
}

// Add validates and creates a task together with its BLOCKS edges in one
// transaction. Every blocked target must already exist.
func (r *TaskRepository) Add(ctx context.Context, task models.Task) (*models.Task, error) {
	if task.ID == "" {
		task.ID = uuid.New().String()
	}
	task = task.WithDefaults()
	if err := task.Validate(); err != nil {
		return nil, fmt.Errorf("invalid task: %w", err)
	}

	now := time.Now().UTC().Truncate(time.Second)
	task.CreatedAt = now
	task.UpdatedAt = now

	tx, err := r.client.BeginTx(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	existing, err := r.getTask(ctx, tx, task.ID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, fmt.Errorf("task %s already exists", task.ID)
	}

	if err := r.client.execCypherNoReturn(ctx, tx, "CREATE (t:Task "+propsLiteral(task)+")"); err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}
	if err := r.linkBlocks(ctx, tx, task.ID, task.Blocks); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit: %w", err)
	}
	return &task, nil
}

// GetByID retrieves a task and its outgoing BLOCKS edges. It returns nil, nil
// when no task has the given ID.
func (r *TaskRepository) GetByID(ctx context.Context, id string) (*models.Task, error) {
	return r.getTask(ctx, nil, id)
}

// Update applies patch to the task inside one transaction. AddBlocks targets
// must exist.
func (r *TaskRepository) Update(ctx context.Context, id string, patch models.TaskPatch) (*models.Task, error) {
	tx, err := r.client.BeginTx(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	current, err := r.getTask(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if current == nil {
		return nil, fmt.Errorf("%w: %s", models.ErrTaskNotFound, id)
	}

	task := current.Apply(patch)
	if err := task.Validate(); err != nil {
		return nil, fmt.Errorf("invalid task: %w", err)
	}
	task.UpdatedAt = time.Now().UTC().Truncate(time.Second)

	cypher := fmt.Sprintf(`MATCH (t:Task {id: %s}) %s`, quote(id), setClause("t", task))
	if err := r.client.execCypherNoReturn(ctx, tx, cypher); err != nil {
		return nil, fmt.Errorf("failed to update task: %w", err)
	}

	added, removed := models.DiffBlocks(current.Blocks, task.Blocks)
	if len(removed) > 0 {
		cypher := fmt.Sprintf(
			`MATCH (t:Task {id: %s})-[r:BLOCKS]->(b:Task) WHERE b.id IN %s DELETE r`,
			quote(id), stringList(removed))
		if err := r.client.execCypherNoReturn(ctx, tx, cypher); err != nil {
			return nil, fmt.Errorf("failed to remove blocks: %w", err)
		}
	}
	if err := r.linkBlocks(ctx, tx, id, added); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit: %w", err)
	}
	return &task, nil
}

// Delete removes a task and all its relationships
func (r *TaskRepository) Delete(ctx context.Context, id string) error {
	cypher := fmt.Sprintf(`MATCH (t:Task {id: %s}) DETACH DELETE t RETURN true`, quote(id))

	rows, err := r.client.execCypher(ctx, nil, cypher, "result agtype")
	if err != nil {
		return fmt.Errorf("delete failed: %w", err)
	}
	defer rows.Close()

	deleted := 0
	for rows.Next() {
		deleted++
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("delete failed: %w", err)
	}
	if deleted == 0 {
		return fmt.Errorf("%w: %s", models.ErrTaskNotFound, id)
	}
	return nil
}

// List retrieves tasks matching filter, most recently updated first. Closed
// tasks are left out unless the filter asks for them or names their status.
func (r *TaskRepository) List(ctx context.Context, filter models.TaskFilter) ([]models.Task, error) {
	tasks, err := r.queryTasks(ctx, nil, buildListCypher(filter))
	if err != nil {
		return nil, fmt.Errorf("list failed: %w", err)
	}
	if err := r.attachBlocks(ctx, nil, tasks, false); err != nil {
		return nil, err
	}
	return tasks, nil
}

// Snapshot loads every task for a scoring pass. When includeClosed is false,
// closed tasks and the edges pointing at them are left out.
func (r *TaskRepository) Snapshot(ctx context.Context, includeClosed bool) ([]models.Task, error) {
	where := ""
	if !includeClosed {
		where = "WHERE NOT t.status IN " + stringList(closedStatuses)
	}

	tx, err := r.client.BeginTx(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	tasks, err := r.queryTasks(ctx, tx, fmt.Sprintf("MATCH (t:Task) %s RETURN t ORDER BY t.id", where))
	if err != nil {
		return nil, fmt.Errorf("snapshot failed: %w", err)
	}
	if err := r.attachBlocks(ctx, tx, tasks, true); err != nil {
		return nil, err
	}
	return tasks, tx.Commit()
}

func buildListCypher(filter models.TaskFilter) string {
	limit := filter.Limit
	if limit <= 0 {
		limit = DefaultListLimit
	}

	var whereClauses []string
	if filter.Status != "" {
		whereClauses = append(whereClauses, "t.status = "+quote(filter.Status))
	} else if !filter.IncludeClosed {
		whereClauses = append(whereClauses, "NOT t.status IN "+stringList(closedStatuses))
	}
	if len(filter.Tags) > 0 {
		tagChecks := make([]string, len(filter.Tags))
		for i, tag := range filter.Tags {
			tagChecks[i] = quote(tag) + " IN t.tags"
		}
		whereClauses = append(whereClauses, "("+strings.Join(tagChecks, " OR ")+")")
	}

	whereClause := ""
	if len(whereClauses) > 0 {
		whereClause = "WHERE " + strings.Join(whereClauses, " AND ")
	}

	return fmt.Sprintf(`MATCH (t:Task) %s RETURN t ORDER BY t.updated_at DESC LIMIT %d`, whereClause, limit)
}

func (r *TaskRepository) getTask(ctx context.Context, tx *sql.Tx, id string) (*models.Task, error) {
	tasks, err := r.queryTasks(ctx, tx, fmt.Sprintf(`MATCH (t:Task {id: %s}) RETURN t`, quote(id)))
	if err != nil {
		return nil, fmt.Errorf("get failed: %w", err)
	}
	if len(tasks) == 0 {
		return nil, nil
	}
	if err := r.attachBlocks(ctx, tx, tasks[:1], false); err != nil {
		return nil, err
	}
	return &tasks[0], nil
}

// queryTasks runs a query returning a single vertex column t.
func (r *TaskRepository) queryTasks(ctx context.Context, tx *sql.Tx, cypher string) ([]models.Task, error) {
	rows, err := r.client.execCypher(ctx, tx, cypher, "t agtype")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tasks []models.Task
	for rows.Next() {
		var agtypeStr string
		if err := rows.Scan(&agtypeStr); err != nil {
			return nil, err
		}
		props, err := parseAGTypeProperties(agtypeStr)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, propsToTask(props))
	}
	return tasks, rows.Err()
}

// attachBlocks loads the BLOCKS edges leaving tasks. With onlyLoaded set,
// edges to tasks outside the slice are dropped.
func (r *TaskRepository) attachBlocks(ctx context.Context, tx *sql.Tx, tasks []models.Task, onlyLoaded bool) error {
	if len(tasks) == 0 {
		return nil
	}
	index := make(map[string]int, len(tasks))
	ids := make([]string, len(tasks))
	for i, t := range tasks {
		index[t.ID] = i
		ids[i] = t.ID
	}

	cypher := fmt.Sprintf(
		`MATCH (a:Task)-[:BLOCKS]->(b:Task) WHERE a.id IN %s RETURN a.id, b.id`,
		stringList(ids))
	rows, err := r.client.execCypher(ctx, tx, cypher, "a agtype, b agtype")
	if err != nil {
		return fmt.Errorf("failed to load blocks: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var fromStr, toStr string
		if err := rows.Scan(&fromStr, &toStr); err != nil {
			return err
		}
		from, err := parseAGTypeString(fromStr)
		if err != nil {
			return err
		}
		to, err := parseAGTypeString(toStr)
		if err != nil {
			return err
		}
		if _, ok := index[to]; onlyLoaded && !ok {
			continue
		}
		i := index[from]
		tasks[i].Blocks = append(tasks[i].Blocks, to)
	}
	if err := rows.Err(); err != nil {
		return err
	}

	for i := range tasks {
		sort.Strings(tasks[i].Blocks)
	}
	return nil
}

// linkBlocks creates BLOCKS edges from id to each target, failing if any
// target does not exist. Targets must not already be linked.
func (r *TaskRepository) linkBlocks(ctx context.Context, tx *sql.Tx, id string, targets []string) error {
	var missing []string
	for _, target := range targets {
		cypher := fmt.Sprintf(
			`MATCH (a:Task {id: %s}), (b:Task {id: %s}) CREATE (a)-[:BLOCKS]->(b) RETURN b.id`,
			quote(id), quote(target))
		rows, err := r.client.execCypher(ctx, tx, cypher, "id agtype")
		if err != nil {
			return fmt.Errorf("failed to create blocks relationship: %w", err)
		}
		linked := rows.Next()
		rows.Close()
		if !linked {
			missing = append(missing, target)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: blocked task(s) %s", models.ErrTaskNotFound, strings.Join(missing, ", "))
	}
	return nil
}
