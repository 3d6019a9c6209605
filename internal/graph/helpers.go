package graph

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/fitz/triage/internal/models"
)

var agtypeSuffix = regexp.MustCompile(`::(?:vertex|edge)$`)

// EscapeCypherString escapes a string for safe interpolation into Cypher queries.
// The result never contains '$', so it cannot end the dollar-quoted query
// passed to cypher(); AGE decodes the \u0024 escape back to '$'.
func EscapeCypherString(s string) string {
	s = strings.ReplaceAll(s, "\\", "\\\\")
	s = strings.ReplaceAll(s, "'", "\\'")
	s = strings.ReplaceAll(s, "\"", "\\\"")
	s = strings.ReplaceAll(s, "\n", "\\n")
	s = strings.ReplaceAll(s, "\r", "\\r")
	s = strings.ReplaceAll(s, "\t", "\\t")
	s = strings.ReplaceAll(s, "\x00", "")
	s = strings.ReplaceAll(s, "$", `\u0024`)
	return s
}

func quote(s string) string {
	return "'" + EscapeCypherString(s) + "'"
}

// stringList converts a Go string slice to a Cypher list literal.
func stringList(items []string) string {
	if len(items) == 0 {
		return "[]"
	}
	quoted := make([]string, len(items))
	for i, s := range items {
		quoted[i] = quote(s)
	}
	return "[" + strings.Join(quoted, ", ") + "]"
}

func floatLiteral(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// taskAssignments renders the stored task properties as `key: value` pairs.
// A nil due date is rendered as null.
func taskAssignments(task models.Task) [][2]string {
	due := "null"
	if task.DueDate != nil {
		due = quote(models.FormatDate(task.DueDate))
	}
	return [][2]string{
		{"title", quote(task.Title)},
		{"status", quote(string(task.Status))},
		{"due_date", due},
		{"importance", strconv.Itoa(task.Importance)},
		{"effort_minutes", floatLiteral(task.EffortMinutes)},
		{"tags", stringList(task.Tags)},
		{"updated_at", quote(task.UpdatedAt.UTC().Format(time.RFC3339))},
	}
}

// propsLiteral renders a property map for CREATE. Null values are left out.
func propsLiteral(task models.Task) string {
	parts := []string{
		"id: " + quote(task.ID),
		"created_at: " + quote(task.CreatedAt.UTC().Format(time.RFC3339)),
	}
	for _, kv := range taskAssignments(task) {
		if kv[1] == "null" {
			continue
		}
		parts = append(parts, kv[0]+": "+kv[1])
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

// setClause renders a SET clause for variable v.
func setClause(v string, task models.Task) string {
	parts := make([]string, 0, 7)
	for _, kv := range taskAssignments(task) {
		parts = append(parts, fmt.Sprintf("%s.%s = %s", v, kv[0], kv[1]))
	}
	return "SET " + strings.Join(parts, ", ")
}

// parseAGTypeProperties parses the properties from an agtype vertex/edge string.
// AGE returns vertices like: {"id": 12345, "label": "Task", "properties": {"id": "abc", ...}}::vertex
func parseAGTypeProperties(agtypeStr string) (map[string]interface{}, error) {
	jsonStr := agtypeSuffix.ReplaceAllString(agtypeStr, "")

	var wrapper struct {
		Properties map[string]interface{} `json:"properties"`
	}
	if err := json.Unmarshal([]byte(jsonStr), &wrapper); err != nil {
		return nil, err
	}
	return wrapper.Properties, nil
}

// parseAGTypeString parses a scalar agtype string such as "abc".
func parseAGTypeString(agtypeStr string) (string, error) {
	var s string
	if err := json.Unmarshal([]byte(agtypeStr), &s); err != nil {
		return "", fmt.Errorf("unexpected agtype value %q: %w", agtypeStr, err)
	}
	return s, nil
}

// propsToTask converts a properties map to a Task. Blocks are loaded separately.
func propsToTask(props map[string]interface{}) models.Task {
	task := models.Task{
		ID:            getString(props, "id"),
		Title:         getString(props, "title"),
		Status:        models.TaskStatus(getString(props, "status")),
		Importance:    int(toFloat64(props["importance"])),
		EffortMinutes: toFloat64(props["effort_minutes"]),
	}

	if due, err := models.ParseDate(getString(props, "due_date")); err == nil {
		task.DueDate = due
	}

	if tagsArr, ok := props["tags"].([]interface{}); ok {
		for _, t := range tagsArr {
			if s, ok := t.(string); ok {
				task.Tags = append(task.Tags, s)
			}
		}
	}

	if createdStr := getString(props, "created_at"); createdStr != "" {
		if t, err := time.Parse(time.RFC3339, createdStr); err == nil {
			task.CreatedAt = t
		}
	}
	if updatedStr := getString(props, "updated_at"); updatedStr != "" {
		if t, err := time.Parse(time.RFC3339, updatedStr); err == nil {
			task.UpdatedAt = t
		}
	}

	return task
}

// getString extracts a string property from a map.
func getString(props map[string]interface{}, key string) string {
	if v, ok := props[key].(string); ok {
		return v
	}
	return ""
}

// toFloat64 converts various numeric types to float64.
func toFloat64(v interface{}) float64 {
	switch val := v.(type) {
	case float64:
		return val
	case float32:
		return float64(val)
	case int64:
		return float64(val)
	case int:
		return float64(val)
	case json.Number:
		if f, err := val.Float64(); err == nil {
			return f
		}
	}
	return 0
}
