package priority

import (
	"time"

	"github.com/fitz/triage/internal/models"
)

const day = 24 * time.Hour

// BusinessDaysBetween counts Monday-Friday days in (from, to] when to is after
// from, and returns the negated count of (to, from] when to is before from.
// Only calendar dates are compared; clock time is ignored.
func BusinessDaysBetween(from, to time.Time) int {
	from, to = models.CalendarDay(from), models.CalendarDay(to)
	if from.Equal(to) {
		return 0
	}

	sign := 1
	if to.Before(from) {
		from, to = to, from
		sign = -1
	}

	days := int(to.Sub(from) / day)
	weeks := days / 7
	n := weeks * 5

	cur := from.AddDate(0, 0, weeks*7)
	for cur.Before(to) {
		cur = cur.AddDate(0, 0, 1)
		if isBusinessDay(cur) {
			n++
		}
	}
	return sign * n
}

func isBusinessDay(t time.Time) bool {
	wd := t.Weekday()
	return wd != time.Saturday && wd != time.Sunday
}
