package report

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/fitz/triage/internal/models"
	"github.com/fitz/triage/internal/priority"
)

func init() {
	color.NoColor = true
}

func balanced(t *testing.T) models.Strategy {
	t.Helper()
	s, err := priority.LookupStrategy("balanced")
	if err != nil {
		t.Fatalf("LookupStrategy failed: %v", err)
	}
	return s
}

func rankFixture(t *testing.T) *priority.Result {
	t.Helper()
	due := time.Date(2024, 3, 12, 0, 0, 0, 0, time.UTC)
	tasks := []models.Task{
		{ID: "fix", Title: "Fix prod bug", Status: models.TaskStatusPending, DueDate: &due, Importance: 10, EffortMinutes: 30},
		{ID: "a", Title: "Loop A", Status: models.TaskStatusPending, Importance: 3, EffortMinutes: 120, Blocks: []string{"b"}},
		{ID: "b", Title: "Loop B", Status: models.TaskStatusPending, Importance: 3, EffortMinutes: 120, Blocks: []string{"a", "ghost"}},
	}
	r, err := priority.Score(tasks, balanced(t), time.Date(2024, 3, 13, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("Score failed: %v", err)
	}
	return r
}

func TestPrintRanking(t *testing.T) {
	var buf bytes.Buffer
	PrintRanking(&buf, rankFixture(t), Options{Verbose: true})
	out := buf.String()

	for _, want := range []string{
		"strategy balanced",
		"as of 2024-03-13",
		"Fix prod bug [fix]",
		"CRITICAL",
		"2024-03-12",
		"Dependency cycles detected:",
		"a → b → a",
		"b blocks ghost",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("expected output to contain %q\n%s", want, out)
		}
	}

	if strings.Index(out, "[fix]") > strings.Index(out, "[a]") {
		t.Error("expected fix to be listed before a")
	}
}

func TestPrintRanking_CycleFollowsEdges(t *testing.T) {
	tasks := []models.Task{
		{ID: "a", Title: "A", Blocks: []string{"c"}},
		{ID: "b", Title: "B", Blocks: []string{"a"}},
		{ID: "c", Title: "C", Blocks: []string{"b"}},
	}
	r, err := priority.Score(tasks, balanced(t), time.Date(2024, 3, 13, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("Score failed: %v", err)
	}

	var buf bytes.Buffer
	PrintRanking(&buf, r, Options{})
	out := buf.String()

	if !strings.Contains(out, "a → c → b → a") {
		t.Errorf("expected cycle drawn along its edges\n%s", out)
	}
	if strings.Contains(out, "a → b") {
		t.Errorf("cycle drawn with an edge that does not exist\n%s", out)
	}
}

func TestCycleLine(t *testing.T) {
	tests := []struct {
		name  string
		group []string
		paths [][]string
		want  string
	}{
		{"path", []string{"a", "b"}, [][]string{{"a", "b", "a"}}, "a → b → a"},
		{"members off the path", []string{"a", "b", "c"}, [][]string{{"a", "b", "a"}}, "a → b → a (also c)"},
		{"no path", []string{"a", "b"}, nil, "a, b"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := cycleLine(tt.group, tt.paths, 0); got != tt.want {
				t.Errorf("cycleLine() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestPrintRanking_Limit(t *testing.T) {
	var buf bytes.Buffer
	PrintRanking(&buf, rankFixture(t), Options{Limit: 1})
	out := buf.String()

	if strings.Contains(out, "[b]") {
		t.Errorf("expected limit to hide b\n%s", out)
	}
	if !strings.Contains(out, "2 more") {
		t.Errorf("expected remainder notice\n%s", out)
	}
}

func TestPrintRanking_Empty(t *testing.T) {
	r, err := priority.Score(nil, balanced(t), time.Now())
	if err != nil {
		t.Fatalf("Score failed: %v", err)
	}
	var buf bytes.Buffer
	PrintRanking(&buf, r, Options{})
	if !strings.Contains(buf.String(), "no tasks to rank") {
		t.Errorf("unexpected output: %s", buf.String())
	}
}

func TestPrintJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := PrintJSON(&buf, rankFixture(t), 2); err != nil {
		t.Fatalf("PrintJSON failed: %v", err)
	}

	var decoded struct {
		Strategy struct {
			Name string `json:"name"`
		} `json:"strategy"`
		Tasks []struct {
			Task struct {
				ID string `json:"id"`
			} `json:"task"`
		} `json:"tasks"`
		Cycles [][]string `json:"cycles"`
	}
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if decoded.Strategy.Name != "balanced" {
		t.Errorf("expected balanced, got %q", decoded.Strategy.Name)
	}
	if len(decoded.Tasks) != 2 || decoded.Tasks[0].Task.ID != "fix" {
		t.Errorf("unexpected tasks: %+v", decoded.Tasks)
	}
	if len(decoded.Cycles) != 1 {
		t.Errorf("expected one cycle, got %v", decoded.Cycles)
	}
}

func TestPrintStrategies(t *testing.T) {
	var buf bytes.Buffer
	PrintStrategies(&buf, priority.Strategies(), "deadline")
	out := buf.String()

	if !strings.Contains(out, "deadline *") {
		t.Errorf("expected current strategy to be marked\n%s", out)
	}
	for _, name := range priority.StrategyNames() {
		if !strings.Contains(out, name) {
			t.Errorf("expected %s in output", name)
		}
	}
	if !strings.Contains(out, "urgency 0.70") {
		t.Errorf("expected deadline weights\n%s", out)
	}
}
