package report

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/fitz/triage/internal/models"
)

// Sprint color functions for building styled strings.
var (
	Bold       = color.New(color.Bold).SprintFunc()
	Dim        = color.New(color.Faint).SprintFunc()
	Cyan       = color.New(color.FgCyan).SprintFunc()
	Green      = color.New(color.FgGreen).SprintFunc()
	Red        = color.New(color.FgRed).SprintFunc()
	Yellow     = color.New(color.FgYellow).SprintFunc()
	BoldCyan   = color.New(color.Bold, color.FgCyan).SprintFunc()
	BoldRed    = color.New(color.Bold, color.FgRed).SprintFunc()
	BoldYellow = color.New(color.Bold, color.FgYellow).SprintFunc()
)

// Column widths; values are padded before coloring so escapes don't skew alignment.
const (
	bandWidth = 8
	dueWidth  = 10
)

// BandLabel returns a padded, colored label for a priority band.
func BandLabel(b models.PriorityBand) string {
	switch b {
	case models.BandCritical:
		return BoldRed(pad("CRITICAL", bandWidth))
	case models.BandModerate:
		return BoldYellow(pad("MODERATE", bandWidth))
	default:
		return Dim(pad("LOW", bandWidth))
	}
}

// DueLabel renders the padded due-date column: red when overdue, yellow when
// due within two business days.
func DueLabel(t models.Task, sr models.ScoreResult) string {
	if t.DueDate == nil {
		return Dim(pad("-", dueWidth))
	}
	d := pad(models.FormatDate(t.DueDate), dueWidth)
	switch {
	case sr.Overdue:
		return Red(d)
	case sr.BusinessDays != nil && *sr.BusinessDays <= 2:
		return Yellow(d)
	default:
		return d
	}
}

func pad(s string, width int) string {
	return fmt.Sprintf("%-*s", width, s)
}
