//go:build integration
// +build integration

package graph

import (
	"context"
	"errors"
	"os"
	"reflect"
	"testing"
	"time"

	"github.com/fitz/triage/internal/models"
)

func getEnvOrDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

// Run with: go test -tags=integration -v ./internal/graph
func getTestRepo(t *testing.T) (*TaskRepository, context.Context) {
	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	t.Cleanup(cancel)

	cfg := Config{
		Host:     getEnvOrDefault("POSTGRES_HOST", "localhost"),
		Port:     getEnvOrDefault("POSTGRES_PORT", "5432"),
		Username: getEnvOrDefault("POSTGRES_USER", "triage"),
		Password: getEnvOrDefault("POSTGRES_PASSWORD", "password"),
		Database: getEnvOrDefault("POSTGRES_DB", "triage"),
	}
	client, err := NewClient(ctx, cfg)
	if err != nil {
		t.Fatalf("Failed to connect to PostgreSQL/AGE: %v", err)
	}
	t.Cleanup(func() { client.Close(context.Background()) })

	return NewTaskRepository(client), ctx
}

func cleanup(ctx context.Context, repo *TaskRepository, ids ...string) {
	for _, id := range ids {
		_ = repo.Delete(ctx, id)
	}
}

func TestTaskRepository_CRUD(t *testing.T) {
	repo, ctx := getTestRepo(t)
	due := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)

	blocked, err := repo.Add(ctx, models.Task{Title: "Deploy", Importance: 6, EffortMinutes: 20})
	if err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	defer cleanup(ctx, repo, blocked.ID)

	task, err := repo.Add(ctx, models.Task{
		Title:         "Quarterly report",
		DueDate:       &due,
		Importance:    8,
		EffortMinutes: 45,
		Blocks:        []string{blocked.ID},
		Tags:          []string{"integration-test"},
	})
	if err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	defer cleanup(ctx, repo, task.ID)

	got, err := repo.GetByID(ctx, task.ID)
	if err != nil || got == nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.Title != "Quarterly report" || models.FormatDate(got.DueDate) != "2024-03-15" || got.Importance != 8 {
		t.Errorf("unexpected task: %+v", got)
	}
	if !reflect.DeepEqual(got.Blocks, []string{blocked.ID}) {
		t.Errorf("expected blocks [%s], got %v", blocked.ID, got.Blocks)
	}

	listed, err := repo.List(ctx, models.TaskFilter{Tags: []string{"integration-test"}})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(listed) != 1 || listed[0].ID != task.ID {
		t.Errorf("expected only the tagged task, got %+v", listed)
	}

	status := string(models.TaskStatusCompleted)
	updated, err := repo.Update(ctx, task.ID, models.TaskPatch{Status: &status, ClearDueDate: true, RemoveBlocks: []string{blocked.ID}})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if updated.Status != models.TaskStatusCompleted || updated.DueDate != nil || len(updated.Blocks) != 0 {
		t.Errorf("unexpected updated task: %+v", updated)
	}
	if got, _ := repo.GetByID(ctx, task.ID); got == nil || got.DueDate != nil || len(got.Blocks) != 0 {
		t.Errorf("update was not persisted: %+v", got)
	}

	if err := repo.Delete(ctx, task.ID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if got, _ := repo.GetByID(ctx, task.ID); got != nil {
		t.Error("expected task to be gone")
	}
	if err := repo.Delete(ctx, task.ID); !errors.Is(err, models.ErrTaskNotFound) {
		t.Errorf("expected ErrTaskNotFound, got %v", err)
	}
}

func TestTaskRepository_RejectsUnknownBlockTarget(t *testing.T) {
	repo, ctx := getTestRepo(t)

	_, err := repo.Add(ctx, models.Task{ID: "orphan-edge-test", Title: "Orphan", Importance: 5, Blocks: []string{"does-not-exist"}})
	defer cleanup(ctx, repo, "orphan-edge-test")
	if !errors.Is(err, models.ErrTaskNotFound) {
		t.Fatalf("expected ErrTaskNotFound, got %v", err)
	}
	if got, _ := repo.GetByID(ctx, "orphan-edge-test"); got != nil {
		t.Error("expected the failed Add to be rolled back")
	}
}

func TestTaskRepository_SnapshotDropsClosed(t *testing.T) {
	repo, ctx := getTestRepo(t)

	ids := []string{"snap-open", "snap-done"}
	cleanup(ctx, repo, ids...)
	defer cleanup(ctx, repo, ids...)

	for _, task := range []models.Task{
		{ID: "snap-done", Title: "Done already", Status: models.TaskStatusCompleted},
		{ID: "snap-open", Title: "Open", Blocks: []string{"snap-done"}},
	} {
		if _, err := repo.Add(ctx, task); err != nil {
			t.Fatalf("Add %s failed: %v", task.ID, err)
		}
	}

	for _, includeClosed := range []bool{false, true} {
		tasks, err := repo.Snapshot(ctx, includeClosed)
		if err != nil {
			t.Fatalf("Snapshot failed: %v", err)
		}
		byID := make(map[string]models.Task)
		for _, task := range tasks {
			byID[task.ID] = task
		}
		_, hasDone := byID["snap-done"]
		if hasDone != includeClosed {
			t.Errorf("includeClosed=%v: closed task present=%v", includeClosed, hasDone)
		}
		if got := len(byID["snap-open"].Blocks); got != map[bool]int{false: 0, true: 1}[includeClosed] {
			t.Errorf("includeClosed=%v: unexpected blocks %v", includeClosed, byID["snap-open"].Blocks)
		}
	}
}

func TestTaskRepository_DollarSignsRoundTrip(t *testing.T) {
	repo, ctx := getTestRepo(t)

	title := "pay $$$ now'); DROP TABLE x; --"
	task, err := repo.Add(ctx, models.Task{ID: "dollar-$$$-test", Title: title, Tags: []string{"$$", "a$b"}})
	if err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	defer cleanup(ctx, repo, task.ID)

	got, err := repo.GetByID(ctx, "dollar-$$$-test")
	if err != nil || got == nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.Title != title || !reflect.DeepEqual(got.Tags, []string{"$$", "a$b"}) {
		t.Errorf("text changed on the way through: %q %v", got.Title, got.Tags)
	}

	listed, err := repo.List(ctx, models.TaskFilter{Tags: []string{"$$"}})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(listed) != 1 || listed[0].ID != task.ID {
		t.Errorf("expected to find the task by tag, got %+v", listed)
	}
}
