// Package report renders rankings for the terminal.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/fitz/triage/internal/models"
	"github.com/fitz/triage/internal/priority"
)

// Options controls ranking output.
type Options struct {
	// Limit caps the number of rows; zero prints every task.
	Limit int
	// Verbose adds the explanation line under each row.
	Verbose bool
}

// PrintRanking writes a ranked table followed by cycle and dangling-edge warnings.
func PrintRanking(w io.Writer, r *priority.Result, opts Options) {
	fmt.Fprintf(w, "%s %s %s %s\n\n",
		BoldCyan("triage"),
		Dim("strategy"),
		Bold(string(r.Strategy.Name)),
		Dim(fmt.Sprintf("(as of %s, %s)", r.ReferenceDate.Format(models.DateLayout), formatWeights(r.Strategy.Weights))),
	)

	rows := r.Top(opts.Limit)
	if len(rows) == 0 {
		fmt.Fprintf(w, "  %s\n", Dim("no tasks to rank"))
		return
	}

	fmt.Fprintf(w, "  %s\n", Dim(fmt.Sprintf("%3s  %6s  %-8s  %-10s  %5s %5s %5s %5s  %s",
		"#", "SCORE", "BAND", "DUE", "URG", "IMP", "EFF", "DEP", "TASK")))

	for i, st := range rows {
		sr := st.Score
		marker := ""
		if sr.InCycle {
			marker = " " + Red("⟳")
		}
		fmt.Fprintf(w, "  %3d  %6.1f  %s  %s  %5.0f %5.0f %5.0f %5.0f  %s %s%s\n",
			i+1, sr.Final, BandLabel(sr.Band), DueLabel(st.Task, sr),
			sr.Urgency, sr.Importance, sr.Effort, sr.Dependency,
			Bold(st.Task.Title), Dim("["+st.Task.ID+"]"), marker)
		if opts.Verbose {
			fmt.Fprintf(w, "  %s %s\n", strings.Repeat(" ", 48), Dim(sr.Explanation))
		}
	}

	if len(rows) < len(r.Tasks) {
		fmt.Fprintf(w, "\n  %s\n", Dim(fmt.Sprintf("… %d more", len(r.Tasks)-len(rows))))
	}

	if len(r.Cycles) > 0 {
		fmt.Fprintf(w, "\n  %s\n", BoldRed("Dependency cycles detected:"))
		for i, group := range r.Cycles {
			fmt.Fprintf(w, "    %s %s\n", Red("⟳"), cycleLine(group, r.CyclePaths, i))
		}
	}

	if len(r.Dangling) > 0 {
		fmt.Fprintf(w, "\n  %s\n", Yellow("Ignored references to unknown tasks:"))
		for _, e := range r.Dangling {
			fmt.Fprintf(w, "    %s blocks %s\n", e.From, e.To)
		}
	}
}

// PrintJSON writes the result as indented JSON.
func PrintJSON(w io.Writer, r *priority.Result, limit int) error {
	out := *r
	out.Tasks = r.Top(limit)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

// PrintStrategies lists the preset strategies and their weights.
func PrintStrategies(w io.Writer, strategies []models.Strategy, current string) {
	for _, s := range strategies {
		name := string(s.Name)
		label := Bold(pad(name, 12))
		if name == current {
			label = Green(pad(name+" *", 12))
		}
		fmt.Fprintf(w, "  %s %s\n", label, Dim(formatWeights(s.Weights)))
		if s.Description != "" {
			fmt.Fprintf(w, "  %s %s\n", strings.Repeat(" ", 12), s.Description)
		}
	}
}

func formatWeights(w models.Weights) string {
	return fmt.Sprintf("urgency %.2f, importance %.2f, effort %.2f, dependency %.2f",
		w.Urgency, w.Importance, w.Effort, w.Dependency)
}

// cycleLine renders a cycle group as its closed path of real edges. Members
// not on that path are listed after it. Without a path the group is listed
// as a plain set.
func cycleLine(group []string, paths [][]string, i int) string {
	if i >= len(paths) || len(paths[i]) == 0 {
		return strings.Join(group, ", ")
	}
	path := paths[i]
	line := strings.Join(path, " → ")

	onPath := make(map[string]bool, len(path))
	for _, id := range path {
		onPath[id] = true
	}
	var rest []string
	for _, id := range group {
		if !onPath[id] {
			rest = append(rest, id)
		}
	}
	if len(rest) > 0 {
		line += " " + Dim("(also "+strings.Join(rest, ", ")+")")
	}
	return line
}
