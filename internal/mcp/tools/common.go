package tools

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/fitz/triage/internal/models"
)

// TaskStore is the persistence the tool handlers need.
type TaskStore interface {
	Add(ctx context.Context, task models.Task) (*models.Task, error)
	GetByID(ctx context.Context, id string) (*models.Task, error)
	Update(ctx context.Context, id string, patch models.TaskPatch) (*models.Task, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, filter models.TaskFilter) ([]models.Task, error)
	Snapshot(ctx context.Context, includeClosed bool) ([]models.Task, error)
}

// Handler provides the dependencies needed by tool handlers.
type Handler struct {
	Store  TaskStore
	Logger *slog.Logger
	// Strategy is the preset used when a ranking request names none.
	Strategy string
	// Now supplies the reference date when a request omits one.
	Now func() time.Time
}

// NewHandler creates a new Handler with the given dependencies.
func NewHandler(store TaskStore, logger *slog.Logger, strategy string) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		Store:    store,
		Logger:   logger,
		Strategy: strategy,
		Now:      time.Now,
	}
}

// TaskOutput is the full view of a task returned by the task tools.
type TaskOutput struct {
	ID            string   `json:"id"`
	Title         string   `json:"title"`
	Status        string   `json:"status"`
	DueDate       string   `json:"due_date,omitempty"`
	Importance    int      `json:"importance"`
	EffortMinutes float64  `json:"effort_minutes"`
	Blocks        []string `json:"blocks,omitempty"`
	Tags          []string `json:"tags,omitempty"`
	CreatedAt     string   `json:"created_at"`
	UpdatedAt     string   `json:"updated_at"`
}

// TaskSummary is the compact view used in listings.
type TaskSummary struct {
	ID         string `json:"id"`
	Title      string `json:"title"`
	Status     string `json:"status"`
	DueDate    string `json:"due_date,omitempty"`
	Importance int    `json:"importance"`
}

func toTaskOutput(t models.Task) TaskOutput {
	return TaskOutput{
		ID:            t.ID,
		Title:         t.Title,
		Status:        string(t.Status),
		DueDate:       models.FormatDate(t.DueDate),
		Importance:    t.Importance,
		EffortMinutes: t.EffortMinutes,
		Blocks:        t.Blocks,
		Tags:          t.Tags,
		CreatedAt:     formatTimestamp(t.CreatedAt),
		UpdatedAt:     formatTimestamp(t.UpdatedAt),
	}
}

func formatTimestamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

func validateStatus(status string) error {
	if status != "" && !models.IsValidTaskStatus(status) {
		names := make([]string, len(models.ValidTaskStatuses))
		for i, s := range models.ValidTaskStatuses {
			names[i] = string(s)
		}
		return fmt.Errorf("invalid status: %s (must be one of: %s)", status, strings.Join(names, ", "))
	}
	return nil
}

// effortFrom picks minutes over hours; nil means the caller gave neither.
func effortFrom(minutes, hours *float64) *float64 {
	if minutes != nil {
		return minutes
	}
	if hours != nil {
		m := *hours * 60
		return &m
	}
	return nil
}
