// Package taskfile loads task collections and strategy settings from YAML or
// JSON documents so a ranking can be computed without a database.
package taskfile

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fitz/triage/internal/models"
	"github.com/fitz/triage/internal/priority"
	"gopkg.in/yaml.v3"
)

// Format identifies the encoding of a task file.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

// ErrUnsupportedFormat is returned for files that are neither YAML nor JSON.
var ErrUnsupportedFormat = errors.New("unsupported task file format")

// File is the on-disk shape of a task document.
type File struct {
	Strategy      string      `yaml:"strategy,omitempty" json:"strategy,omitempty"`
	Weights       *Weights    `yaml:"weights,omitempty" json:"weights,omitempty"`
	ReferenceDate string      `yaml:"reference_date,omitempty" json:"reference_date,omitempty"`
	Tasks         []TaskEntry `yaml:"tasks" json:"tasks"`
}

// Weights are custom strategy weights; every factor must be present.
type Weights struct {
	Urgency    *float64 `yaml:"urgency" json:"urgency"`
	Importance *float64 `yaml:"importance" json:"importance"`
	Effort     *float64 `yaml:"effort" json:"effort"`
	Dependency *float64 `yaml:"dependency" json:"dependency"`
}

// TaskEntry is one task as written in a file.
type TaskEntry struct {
	ID             string   `yaml:"id" json:"id"`
	Title          string   `yaml:"title" json:"title"`
	Status         string   `yaml:"status,omitempty" json:"status,omitempty"`
	DueDate        string   `yaml:"due_date,omitempty" json:"due_date,omitempty"`
	Importance     *int     `yaml:"importance,omitempty" json:"importance,omitempty"`
	EffortMinutes  *float64 `yaml:"effort_minutes,omitempty" json:"effort_minutes,omitempty"`
	EstimatedHours *float64 `yaml:"estimated_hours,omitempty" json:"estimated_hours,omitempty"`
	Blocks         []string `yaml:"blocks,omitempty" json:"blocks,omitempty"`
	DependsOn      []string `yaml:"depends_on,omitempty" json:"depends_on,omitempty"`
	Tags           []string `yaml:"tags,omitempty" json:"tags,omitempty"`
}

// Document is a parsed and resolved task file.
type Document struct {
	Strategy models.Strategy
	// StrategyFromFile is set when the file names a strategy or weights.
	StrategyFromFile bool
	ReferenceDate    *time.Time
	Tasks            []models.Task
	// Warnings lists depends_on entries naming tasks absent from the file.
	Warnings []string
}

// FormatFromPath picks a format from the file extension.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".json":
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("%w: %s (use .yaml, .yml or .json)", ErrUnsupportedFormat, path)
	}
}

// Load reads and resolves the task file at path.
func Load(path string) (*Document, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read task file: %w", err)
	}
	doc, err := Parse(data, format)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return doc, nil
}

// Parse decodes data in the given format and resolves it into a Document.
func Parse(data []byte, format Format) (*Document, error) {
	var f File
	switch format {
	case FormatYAML:
		if err := yaml.Unmarshal(data, &f); err != nil {
			return nil, fmt.Errorf("failed to parse YAML: %w", err)
		}
	case FormatJSON:
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&f); err != nil {
			return nil, fmt.Errorf("failed to parse JSON: %w", err)
		}
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}
	return f.Resolve()
}

// Resolve validates the file and converts it into models.
func (f File) Resolve() (*Document, error) {
	doc := &Document{}

	strategy, err := f.resolveStrategy()
	if err != nil {
		return nil, err
	}
	doc.Strategy = strategy
	doc.StrategyFromFile = f.Strategy != "" || f.Weights != nil

	ref, err := models.ParseDate(f.ReferenceDate)
	if err != nil {
		return nil, fmt.Errorf("reference_date: %w", err)
	}
	doc.ReferenceDate = ref

	index := make(map[string]int, len(f.Tasks))
	for i, entry := range f.Tasks {
		task, err := entry.toTask()
		if err != nil {
			return nil, fmt.Errorf("task %d (%s): %w", i+1, entry.ID, err)
		}
		if _, dup := index[task.ID]; dup {
			return nil, fmt.Errorf("task %d: duplicate id %q", i+1, task.ID)
		}
		index[task.ID] = len(doc.Tasks)
		doc.Tasks = append(doc.Tasks, task)
	}

	// depends_on is the inverse of blocks: "b depends_on a" means a blocks b.
	for _, entry := range f.Tasks {
		for _, blocker := range entry.DependsOn {
			if blocker == entry.ID {
				return nil, fmt.Errorf("task %s cannot depend on itself", entry.ID)
			}
			i, ok := index[blocker]
			if !ok {
				doc.Warnings = append(doc.Warnings, fmt.Sprintf("task %s depends on unknown task %s", entry.ID, blocker))
				continue
			}
			if !contains(doc.Tasks[i].Blocks, entry.ID) {
				doc.Tasks[i].Blocks = append(doc.Tasks[i].Blocks, entry.ID)
			}
		}
	}

	return doc, nil
}

// OpenTasks returns the tasks that are not closed, with blocks entries
// pointing at closed tasks removed.
func (d *Document) OpenTasks() []models.Task {
	return models.OpenTasks(d.Tasks)
}

func (f File) resolveStrategy() (models.Strategy, error) {
	if f.Weights == nil {
		s, err := priority.LookupStrategy(f.Strategy)
		if err != nil {
			return models.Strategy{}, fmt.Errorf("strategy: %w", err)
		}
		return s, nil
	}

	var missing []string
	if f.Weights.Urgency == nil {
		missing = append(missing, "urgency")
	}
	if f.Weights.Importance == nil {
		missing = append(missing, "importance")
	}
	if f.Weights.Effort == nil {
		missing = append(missing, "effort")
	}
	if f.Weights.Dependency == nil {
		missing = append(missing, "dependency")
	}
	if len(missing) > 0 {
		return models.Strategy{}, fmt.Errorf("weights: %w: missing %s", priority.ErrInvalidStrategy, strings.Join(missing, ", "))
	}

	name := models.StrategyCustom
	if f.Strategy != "" {
		name = models.StrategyName(f.Strategy)
	}
	s, err := priority.NormalizeStrategy(models.Strategy{
		Name: name,
		Weights: models.Weights{
			Urgency:    *f.Weights.Urgency,
			Importance: *f.Weights.Importance,
			Effort:     *f.Weights.Effort,
			Dependency: *f.Weights.Dependency,
		},
	})
	if err != nil {
		return models.Strategy{}, fmt.Errorf("weights: %w", err)
	}
	return s, nil
}

func (e TaskEntry) toTask() (models.Task, error) {
	if strings.TrimSpace(e.ID) == "" {
		return models.Task{}, fmt.Errorf("id is required")
	}

	due, err := models.ParseDate(e.DueDate)
	if err != nil {
		return models.Task{}, fmt.Errorf("due_date: %w", err)
	}

	importance := models.DefaultImportance
	if e.Importance != nil {
		importance = *e.Importance
	}

	var effort float64
	switch {
	case e.EffortMinutes != nil:
		effort = *e.EffortMinutes
	case e.EstimatedHours != nil:
		effort = *e.EstimatedHours * 60
	}

	status := models.TaskStatusPending
	if e.Status != "" {
		status = models.TaskStatus(e.Status)
	}

	title := e.Title
	if title == "" {
		title = e.ID
	}

	task := models.Task{
		ID:            e.ID,
		Title:         title,
		Status:        status,
		DueDate:       due,
		Importance:    importance,
		EffortMinutes: effort,
		Blocks:        append([]string(nil), e.Blocks...),
		Tags:          e.Tags,
	}
	if err := task.Validate(); err != nil {
		return models.Task{}, err
	}
	return task, nil
}

func contains(slice []string, s string) bool {
	for _, item := range slice {
		if item == s {
			return true
		}
	}
	return false
}
