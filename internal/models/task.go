package models

import (
	"errors"
	"fmt"
	"time"
)

// TaskStatus defines the status of a task
type TaskStatus string

const (
	TaskStatusPending    TaskStatus = "pending"
	TaskStatusInProgress TaskStatus = "in_progress"
	TaskStatusCompleted  TaskStatus = "completed"
	TaskStatusCancelled  TaskStatus = "cancelled"
	TaskStatusBlocked    TaskStatus = "blocked"
)

// ValidTaskStatuses contains all valid task status values
var ValidTaskStatuses = []TaskStatus{
	TaskStatusPending,
	TaskStatusInProgress,
	TaskStatusCompleted,
	TaskStatusCancelled,
	TaskStatusBlocked,
}

// IsValidTaskStatus checks if a status string is a valid TaskStatus
func IsValidTaskStatus(s string) bool {
	for _, status := range ValidTaskStatuses {
		if string(status) == s {
			return true
		}
	}
	return false
}

// IsClosed reports whether the status means no further work is expected.
func (s TaskStatus) IsClosed() bool {
	return s == TaskStatusCompleted || s == TaskStatusCancelled
}

// ErrTaskNotFound is returned when an operation names a task that does not exist.
var ErrTaskNotFound = errors.New("task not found")

// Importance bounds. Ratings outside the range are clamped when scored.
const (
	MinImportance     = 1
	MaxImportance     = 10
	DefaultImportance = 5
)

// Task represents a unit of work that can be ranked.
// Blocks lists the IDs of tasks that wait on this one.
type Task struct {
	ID            string     `json:"id"`
	Title         string     `json:"title"`
	Status        TaskStatus `json:"status"`
	DueDate       *time.Time `json:"due_date,omitempty"`
	Importance    int        `json:"importance"`
	EffortMinutes float64    `json:"effort_minutes"`
	Blocks        []string   `json:"blocks,omitempty"`
	Tags          []string   `json:"tags,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// Validate checks the invariants a stored task must satisfy.
func (t Task) Validate() error {
	if t.Title == "" {
		return fmt.Errorf("title is required")
	}
	if t.Status != "" && !IsValidTaskStatus(string(t.Status)) {
		return fmt.Errorf("invalid status: %s", t.Status)
	}
	if t.Importance < MinImportance || t.Importance > MaxImportance {
		return fmt.Errorf("importance must be between %d and %d, got %d", MinImportance, MaxImportance, t.Importance)
	}
	if t.EffortMinutes < 0 {
		return fmt.Errorf("effort_minutes must not be negative, got %g", t.EffortMinutes)
	}
	for _, id := range t.Blocks {
		if t.ID != "" && id == t.ID {
			return fmt.Errorf("task %s cannot block itself", t.ID)
		}
	}
	return nil
}

// TaskFilter narrows a task listing. Zero values mean "no filter".
type TaskFilter struct {
	Status        string
	Tags          []string
	IncludeClosed bool
	Limit         int
}

// TaskPatch carries the fields of an update; nil fields are left unchanged.
type TaskPatch struct {
	Title         *string
	Status        *string
	DueDate       *time.Time
	ClearDueDate  bool
	Importance    *int
	EffortMinutes *float64
	Tags          []string
	AddBlocks     []string
	RemoveBlocks  []string
}

// Apply returns a copy of t with the patch applied. Blocks edits are
// idempotent: adding an existing target or removing an absent one is a no-op.
func (t Task) Apply(p TaskPatch) Task {
	out := t
	if p.Title != nil {
		out.Title = *p.Title
	}
	if p.Status != nil {
		out.Status = TaskStatus(*p.Status)
	}
	switch {
	case p.ClearDueDate:
		out.DueDate = nil
	case p.DueDate != nil:
		d := CalendarDay(*p.DueDate)
		out.DueDate = &d
	}
	if p.Importance != nil {
		out.Importance = *p.Importance
	}
	if p.EffortMinutes != nil {
		out.EffortMinutes = *p.EffortMinutes
	}
	if p.Tags != nil {
		out.Tags = append([]string(nil), p.Tags...)
	}

	if len(p.AddBlocks) > 0 || len(p.RemoveBlocks) > 0 {
		remove := make(map[string]bool, len(p.RemoveBlocks))
		for _, id := range p.RemoveBlocks {
			remove[id] = true
		}
		seen := make(map[string]bool)
		var blocks []string
		for _, id := range append(append([]string(nil), t.Blocks...), p.AddBlocks...) {
			if remove[id] || seen[id] {
				continue
			}
			seen[id] = true
			blocks = append(blocks, id)
		}
		out.Blocks = blocks
	}
	return out
}

// WithDefaults fills the fields a new task may omit: status, importance and
// the calendar day of the due date. Repeated blocks targets are dropped.
func (t Task) WithDefaults() Task {
	out := t
	if out.Status == "" {
		out.Status = TaskStatusPending
	}
	if out.Importance == 0 {
		out.Importance = DefaultImportance
	}
	if out.DueDate != nil {
		d := CalendarDay(*out.DueDate)
		out.DueDate = &d
	}
	if len(t.Blocks) > 0 {
		seen := make(map[string]bool, len(t.Blocks))
		out.Blocks = make([]string, 0, len(t.Blocks))
		for _, id := range t.Blocks {
			if !seen[id] {
				seen[id] = true
				out.Blocks = append(out.Blocks, id)
			}
		}
	}
	return out
}

// DiffBlocks returns the targets present only in next (added) and only in prev (removed).
func DiffBlocks(prev, next []string) (added, removed []string) {
	inPrev := make(map[string]bool, len(prev))
	for _, id := range prev {
		inPrev[id] = true
	}
	inNext := make(map[string]bool, len(next))
	for _, id := range next {
		inNext[id] = true
		if !inPrev[id] {
			added = append(added, id)
		}
	}
	for _, id := range prev {
		if !inNext[id] {
			removed = append(removed, id)
		}
	}
	return added, removed
}

// OpenTasks returns the tasks that are not closed, with blocks entries
// pointing at closed tasks removed. tasks is not modified.
func OpenTasks(tasks []Task) []Task {
	closed := make(map[string]bool)
	for _, t := range tasks {
		if t.Status.IsClosed() {
			closed[t.ID] = true
		}
	}

	open := make([]Task, 0, len(tasks)-len(closed))
	for _, t := range tasks {
		if closed[t.ID] {
			continue
		}
		var blocks []string
		for _, id := range t.Blocks {
			if !closed[id] {
				blocks = append(blocks, id)
			}
		}
		t.Blocks = blocks
		open = append(open, t)
	}
	return open
}
