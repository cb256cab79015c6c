package planner

import "time"

// GetNextMonday returns midnight UTC of the Monday following t. A Monday input
// yields the Monday one week later.
func GetNextMonday(t time.Time) time.Time {
	t = t.UTC()
	daysUntil := (int(time.Monday) - int(t.Weekday()) + 7) % 7
	if daysUntil == 0 {
		daysUntil = 7
	}
	next := t.AddDate(0, 0, daysUntil)
	return time.Date(next.Year(), next.Month(), next.Day(), 0, 0, 0, 0, time.UTC)
}
