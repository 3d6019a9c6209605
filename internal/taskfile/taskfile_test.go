package taskfile

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/fitz/triage/internal/models"
	"github.com/fitz/triage/internal/priority"
)

const sampleYAML = `strategy: deadline
reference_date: 2024-03-13
tasks:
  - id: report
    title: Quarterly report
    due_date: 2024-03-15
    importance: 8
    effort_minutes: 45
  - id: fix-prod
    title: Fix prod bug
    due_date: 2024-03-12
    importance: 8
    estimated_hours: 0.75
    blocks: [deploy]
  - id: deploy
    title: Deploy
    depends_on: [report]
    tags: [release]
`

func TestParse_YAML(t *testing.T) {
	doc, err := Parse([]byte(sampleYAML), FormatYAML)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	if doc.Strategy.Name != models.StrategyDeadline || !doc.StrategyFromFile {
		t.Errorf("expected deadline strategy from file, got %s", doc.Strategy.Name)
	}
	if got := models.FormatDate(doc.ReferenceDate); got != "2024-03-13" {
		t.Errorf("expected reference date 2024-03-13, got %q", got)
	}
	if len(doc.Tasks) != 3 {
		t.Fatalf("expected 3 tasks, got %d", len(doc.Tasks))
	}

	fix := doc.Tasks[1]
	if fix.EffortMinutes != 45 {
		t.Errorf("expected 0.75h to become 45 minutes, got %v", fix.EffortMinutes)
	}
	if models.FormatDate(fix.DueDate) != "2024-03-12" {
		t.Errorf("unexpected due date %v", fix.DueDate)
	}

	report := doc.Tasks[0]
	if !reflect.DeepEqual(report.Blocks, []string{"deploy"}) {
		t.Errorf("expected depends_on to add deploy to report.Blocks, got %v", report.Blocks)
	}

	deploy := doc.Tasks[2]
	if deploy.Importance != models.DefaultImportance {
		t.Errorf("expected default importance, got %d", deploy.Importance)
	}
	if deploy.Title != "Deploy" || deploy.Status != models.TaskStatusPending {
		t.Errorf("unexpected deploy task %+v", deploy)
	}
	if deploy.DueDate != nil {
		t.Error("expected no due date for deploy")
	}
}

func TestParse_JSON(t *testing.T) {
	data := []byte(`{
  "weights": {"urgency": 2, "importance": 1, "effort": 1, "dependency": 0},
  "tasks": [
    {"id": "a", "title": "A", "importance": 3, "effort_minutes": 10, "blocks": ["b"]},
    {"id": "b", "title": "B"}
  ]
}`)
	doc, err := Parse(data, FormatJSON)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if doc.Strategy.Name != models.StrategyCustom {
		t.Errorf("expected custom strategy, got %s", doc.Strategy.Name)
	}
	if math.Abs(doc.Strategy.Weights.Urgency-0.5) > 1e-9 {
		t.Errorf("expected normalized urgency 0.5, got %v", doc.Strategy.Weights.Urgency)
	}
	if doc.ReferenceDate != nil {
		t.Error("expected no reference date")
	}
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name   string
		data   string
		format Format
		is     error
	}{
		{
			name:   "missing weight",
			data:   "weights: {urgency: 1, importance: 1, effort: 1}\ntasks: []\n",
			format: FormatYAML,
			is:     priority.ErrInvalidStrategy,
		},
		{
			name:   "negative weight",
			data:   "weights: {urgency: -1, importance: 1, effort: 1, dependency: 1}\ntasks: []\n",
			format: FormatYAML,
			is:     priority.ErrInvalidStrategy,
		},
		{
			name:   "unknown strategy",
			data:   "strategy: yolo\ntasks: []\n",
			format: FormatYAML,
			is:     priority.ErrUnknownStrategy,
		},
		{
			name:   "bad due date",
			data:   "tasks:\n  - id: a\n    due_date: next tuesday\n",
			format: FormatYAML,
		},
		{
			name:   "missing id",
			data:   "tasks:\n  - title: nameless\n",
			format: FormatYAML,
		},
		{
			name:   "duplicate id",
			data:   "tasks:\n  - id: a\n  - id: a\n",
			format: FormatYAML,
		},
		{
			name:   "blocks itself",
			data:   "tasks:\n  - id: a\n    blocks: [a]\n",
			format: FormatYAML,
		},
		{
			name:   "depends on itself",
			data:   "tasks:\n  - id: a\n    depends_on: [a]\n",
			format: FormatYAML,
		},
		{
			name:   "unknown json field",
			data:   `{"tasks": [], "extra": true}`,
			format: FormatJSON,
		},
		{
			name:   "unsupported format",
			data:   "",
			format: "toml",
			is:     ErrUnsupportedFormat,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse([]byte(tc.data), tc.format)
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if tc.is != nil && !errors.Is(err, tc.is) {
				t.Errorf("expected %v, got %v", tc.is, err)
			}
		})
	}
}

func TestParse_UnknownDependencyIsWarning(t *testing.T) {
	doc, err := Parse([]byte("tasks:\n  - id: a\n    depends_on: [ghost]\n"), FormatYAML)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if len(doc.Warnings) != 1 {
		t.Errorf("expected 1 warning, got %v", doc.Warnings)
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tasks.yml")
	if err := os.WriteFile(path, []byte(sampleYAML), 0644); err != nil {
		t.Fatalf("Failed to write task file: %v", err)
	}

	doc, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(doc.Tasks) != 3 {
		t.Errorf("expected 3 tasks, got %d", len(doc.Tasks))
	}

	if _, err := Load(filepath.Join(dir, "tasks.txt")); !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("expected ErrUnsupportedFormat, got %v", err)
	}
	if _, err := Load(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestLoadedTasksRank(t *testing.T) {
	doc, err := Parse([]byte(sampleYAML), FormatYAML)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	result, err := priority.Score(doc.Tasks, doc.Strategy, *doc.ReferenceDate)
	if err != nil {
		t.Fatalf("Score failed: %v", err)
	}
	if result.Tasks[0].Task.ID != "fix-prod" {
		t.Errorf("expected fix-prod to rank first, got %s", result.Tasks[0].Task.ID)
	}
}

func TestDocument_OpenTasks(t *testing.T) {
	data := `tasks:
  - id: a
    blocks: [b, c]
  - id: b
    status: completed
  - id: c
    status: blocked
  - id: d
    status: cancelled
`
	doc, err := Parse([]byte(data), FormatYAML)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if doc.StrategyFromFile {
		t.Error("expected no strategy from file")
	}

	open := doc.OpenTasks()
	if len(open) != 2 || open[0].ID != "a" || open[1].ID != "c" {
		t.Fatalf("expected open tasks [a c], got %+v", open)
	}
	if !reflect.DeepEqual(open[0].Blocks, []string{"c"}) {
		t.Errorf("expected edge to closed task dropped, got %v", open[0].Blocks)
	}
	if len(doc.Tasks[0].Blocks) != 2 {
		t.Error("OpenTasks must not modify the document")
	}
}
