package neo4j

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/fitz/triage/internal/models"
	"github.com/google/uuid"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

// DefaultListLimit caps List when the filter sets no limit.
const DefaultListLimit = 50

// ErrTaskNotFound is returned when an operation names a task that does not exist.
var ErrTaskNotFound = models.ErrTaskNotFound

// closedStatuses are excluded from listings and snapshots unless asked for.
var closedStatuses = []string{string(models.TaskStatusCompleted), string(models.TaskStatusCancelled)}

// TaskRepository stores tasks as (:Task) nodes and blocking relations as
// (:Task)-[:BLOCKS]->(:Task) edges.
type TaskRepository struct {
	client *Client
}

// NewTaskRepository creates a new task repository
func NewTaskRepository(client *Client) *TaskRepository {
	return &TaskRepository{client: client}
}

// Add validates and creates a task together with its BLOCKS edges. Every
// blocked target must already exist; otherwise nothing is written.
func (r *TaskRepository) Add(ctx context.Context, task models.Task) (*models.Task, error) {
	if task.ID == "" {
		task.ID = uuid.New().String()
	}
	task = task.WithDefaults()
	if err := task.Validate(); err != nil {
		return nil, fmt.Errorf("invalid task: %w", err)
	}

	now := time.Now().UTC()
	task.CreatedAt = now
	task.UpdatedAt = now

	session := r.client.Session(ctx)
	defer session.Close(ctx)

	params := taskParams(task)
	params["created_at"] = now.Format(time.RFC3339)

	cypher := `
CREATE (t:Task {
	id: $id,
	title: $title,
	status: $status,
	due_date: $due_date,
	importance: $importance,
	effort_minutes: $effort_minutes,
	tags: $tags,
	created_at: datetime($created_at),
	updated_at: datetime($updated_at)
})
RETURN t
`

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		result, err := tx.Run(ctx, cypher, params)
		if err != nil {
			return nil, fmt.Errorf("failed to create task: %w", err)
		}
		if _, err := result.Single(ctx); err != nil {
			return nil, fmt.Errorf("no result returned from create: %w", err)
		}
		return nil, linkBlocks(ctx, tx, task.ID, task.Blocks)
	})
	if err != nil {
		return nil, err
	}

	return &task, nil
}

// GetByID retrieves a task and its outgoing BLOCKS edges. It returns nil, nil
// when no task has the given ID.
func (r *TaskRepository) GetByID(ctx context.Context, id string) (*models.Task, error) {
	session := r.client.Session(ctx)
	defer session.Close(ctx)

	cypher := `
MATCH (t:Task {id: $id})
OPTIONAL MATCH (t)-[:BLOCKS]->(b:Task)
RETURN t, collect(b.id) AS blocks
`
	result, err := session.Run(ctx, cypher, map[string]any{"id": id})
	if err != nil {
		return nil, fmt.Errorf("get failed: %w", err)
	}

	if !result.Next(ctx) {
		return nil, result.Err()
	}

	task := recordToTask(result.Record())
	return &task, nil
}

// Update applies patch to the task inside one write transaction. The patched
// task is validated before anything is written; AddBlocks targets must exist.
func (r *TaskRepository) Update(ctx context.Context, id string, patch models.TaskPatch) (*models.Task, error) {
	session := r.client.Session(ctx)
	defer session.Close(ctx)

	out, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		result, err := tx.Run(ctx, `
MATCH (t:Task {id: $id})
OPTIONAL MATCH (t)-[:BLOCKS]->(b:Task)
RETURN t, collect(b.id) AS blocks
`, map[string]any{"id": id})
		if err != nil {
			return nil, fmt.Errorf("failed to load task: %w", err)
		}
		if !result.Next(ctx) {
			if err := result.Err(); err != nil {
				return nil, err
			}
			return nil, fmt.Errorf("%w: %s", ErrTaskNotFound, id)
		}

		current := recordToTask(result.Record())
		task := current.Apply(patch)
		if err := task.Validate(); err != nil {
			return nil, fmt.Errorf("invalid task: %w", err)
		}
		task.UpdatedAt = time.Now().UTC()

		if _, err := tx.Run(ctx, `
MATCH (t:Task {id: $id})
SET t.title = $title,
	t.status = $status,
	t.due_date = $due_date,
	t.importance = $importance,
	t.effort_minutes = $effort_minutes,
	t.tags = $tags,
	t.updated_at = datetime($updated_at)
`, taskParams(task)); err != nil {
			return nil, fmt.Errorf("failed to update task: %w", err)
		}

		added, removed := models.DiffBlocks(current.Blocks, task.Blocks)
		if len(removed) > 0 {
			if _, err := tx.Run(ctx, `
MATCH (t:Task {id: $id})-[r:BLOCKS]->(b:Task)
WHERE b.id IN $ids
DELETE r
`, map[string]any{"id": id, "ids": removed}); err != nil {
				return nil, fmt.Errorf("failed to remove blocks: %w", err)
			}
		}
		if err := linkBlocks(ctx, tx, id, added); err != nil {
			return nil, err
		}
		return task, nil
	})
	if err != nil {
		return nil, err
	}

	task := out.(models.Task)
	return &task, nil
}

// Delete removes a task and all its relationships
func (r *TaskRepository) Delete(ctx context.Context, id string) error {
	session := r.client.Session(ctx)
	defer session.Close(ctx)

	cypher := `
MATCH (t:Task {id: $id})
DETACH DELETE t
RETURN count(t) AS deleted
`

	result, err := session.Run(ctx, cypher, map[string]any{"id": id})
	if err != nil {
		return fmt.Errorf("delete failed: %w", err)
	}

	record, err := result.Single(ctx)
	if err != nil {
		return fmt.Errorf("delete failed: %w", err)
	}
	if deleted, _ := record.Get("deleted"); deleted == int64(0) {
		return fmt.Errorf("%w: %s", ErrTaskNotFound, id)
	}

	return nil
}

// List retrieves tasks matching filter, most recently updated first. Closed
// tasks are left out unless the filter asks for them or names their status.
func (r *TaskRepository) List(ctx context.Context, filter models.TaskFilter) ([]models.Task, error) {
	session := r.client.Session(ctx)
	defer session.Close(ctx)

	cypher, params := buildListQuery(filter)
	result, err := session.Run(ctx, cypher, params)
	if err != nil {
		return nil, fmt.Errorf("list failed: %w", err)
	}

	var tasks []models.Task
	for result.Next(ctx) {
		tasks = append(tasks, recordToTask(result.Record()))
	}

	return tasks, result.Err()
}

// Snapshot loads every task for a scoring pass. When includeClosed is false,
// closed tasks and the edges pointing at them are left out so they neither
// rank nor count as waiting dependents.
func (r *TaskRepository) Snapshot(ctx context.Context, includeClosed bool) ([]models.Task, error) {
	session := r.client.Session(ctx)
	defer session.Close(ctx)

	cypher := `
MATCH (t:Task)
WHERE $include_closed OR NOT t.status IN $closed
OPTIONAL MATCH (t)-[:BLOCKS]->(b:Task)
WHERE $include_closed OR NOT b.status IN $closed
RETURN t, collect(b.id) AS blocks
ORDER BY t.id
`
	result, err := session.Run(ctx, cypher, map[string]any{
		"include_closed": includeClosed,
		"closed":         closedStatuses,
	})
	if err != nil {
		return nil, fmt.Errorf("snapshot failed: %w", err)
	}

	var tasks []models.Task
	for result.Next(ctx) {
		tasks = append(tasks, recordToTask(result.Record()))
	}

	return tasks, result.Err()
}

// linkBlocks creates BLOCKS edges from id to each target, failing if any
// target does not exist.
func linkBlocks(ctx context.Context, tx neo4j.ManagedTransaction, id string, targets []string) error {
	if len(targets) == 0 {
		return nil
	}

	result, err := tx.Run(ctx, `
MATCH (a:Task {id: $id})
UNWIND $targets AS target
MATCH (b:Task {id: target})
MERGE (a)-[:BLOCKS]->(b)
RETURN collect(b.id) AS linked
`, map[string]any{"id": id, "targets": targets})
	if err != nil {
		return fmt.Errorf("failed to create blocks relationship: %w", err)
	}

	record, err := result.Single(ctx)
	if err != nil {
		return fmt.Errorf("failed to create blocks relationship: %w", err)
	}
	raw, _ := record.Get("linked")
	if missing := missingTargets(targets, toStrings(raw)); len(missing) > 0 {
		return fmt.Errorf("%w: blocked task(s) %s", ErrTaskNotFound, joinStrings(missing, ", "))
	}
	return nil
}

func buildListQuery(filter models.TaskFilter) (string, map[string]any) {
	limit := filter.Limit
	if limit <= 0 {
		limit = DefaultListLimit
	}
	params := map[string]any{"limit": limit}

	var whereClauses []string
	if filter.Status != "" {
		whereClauses = append(whereClauses, "t.status = $status")
		params["status"] = filter.Status
	} else if !filter.IncludeClosed {
		whereClauses = append(whereClauses, "NOT t.status IN $closed")
		params["closed"] = closedStatuses
	}
	if len(filter.Tags) > 0 {
		whereClauses = append(whereClauses, "any(tag IN $tags WHERE tag IN t.tags)")
		params["tags"] = filter.Tags
	}

	whereClause := ""
	if len(whereClauses) > 0 {
		whereClause = "WHERE " + joinStrings(whereClauses, " AND ")
	}

	cypher := fmt.Sprintf(`
MATCH (t:Task)
%s
OPTIONAL MATCH (t)-[:BLOCKS]->(b:Task)
RETURN t, collect(b.id) AS blocks
ORDER BY t.updated_at DESC
LIMIT $limit
`, whereClause)

	return cypher, params
}

func taskParams(task models.Task) map[string]any {
	var due any
	if task.DueDate != nil {
		due = neo4j.DateOf(*task.DueDate)
	}
	tags := task.Tags
	if tags == nil {
		tags = []string{}
	}
	return map[string]any{
		"id":             task.ID,
		"title":          task.Title,
		"status":         string(task.Status),
		"due_date":       due,
		"importance":     int64(task.Importance),
		"effort_minutes": task.EffortMinutes,
		"tags":           tags,
		"updated_at":     task.UpdatedAt.Format(time.RFC3339),
	}
}

// recordToTask reads a row of the form (t, blocks).
func recordToTask(record *neo4j.Record) models.Task {
	node, _ := record.Get("t")
	task := nodeToTask(node.(neo4j.Node))
	if raw, ok := record.Get("blocks"); ok {
		task.Blocks = toStrings(raw)
		sort.Strings(task.Blocks)
	}
	return task
}

// nodeToTask converts a Neo4j node to a Task struct
func nodeToTask(node neo4j.Node) models.Task {
	props := node.Props

	task := models.Task{
		ID:     getString(props, "id"),
		Title:  getString(props, "title"),
		Status: models.TaskStatus(getString(props, "status")),
	}

	if due, ok := props["due_date"].(neo4j.Date); ok {
		d := models.CalendarDay(due.Time())
		task.DueDate = &d
	}

	switch v := props["importance"].(type) {
	case int64:
		task.Importance = int(v)
	case float64:
		task.Importance = int(v)
	}

	switch v := props["effort_minutes"].(type) {
	case float64:
		task.EffortMinutes = v
	case int64:
		task.EffortMinutes = float64(v)
	}

	task.Tags = toStrings(props["tags"])

	if createdAt, ok := props["created_at"].(time.Time); ok {
		task.CreatedAt = createdAt
	}
	if updatedAt, ok := props["updated_at"].(time.Time); ok {
		task.UpdatedAt = updatedAt
	}

	return task
}
