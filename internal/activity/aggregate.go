// Package activity derives UTC calendar-day statistics from the activity
// event log.
package activity

import (
	"time"

	"github.com/albapepper/petcare-telemetry/internal/model"
)

// WeekDays is the number of daily buckets in the trailing window.
const WeekDays = 7

// Bucket is the event count of one UTC calendar day.
type Bucket struct {
	Day         string `json:"day"`  // YYYY-MM-DD
	Date        string `json:"date"` // display label, e.g. "Oct 16"
	Count       int    `json:"count"`
	TotalEvents int    `json:"totalEvents"`
}

// Summary is today's activity.
type Summary struct {
	Count int
	Last  *time.Time
}

// StartOfDay truncates t to midnight UTC of its UTC date.
func StartOfDay(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

// WindowStart is the inclusive lower bound of the trailing week ending on
// now's UTC date.
func WindowStart(now time.Time) time.Time {
	return StartOfDay(now).AddDate(0, 0, -(WeekDays - 1))
}

// WindowEnd is the exclusive upper bound shared by today and the week.
func WindowEnd(now time.Time) time.Time {
	return StartOfDay(now).AddDate(0, 0, 1)
}

// Today counts the events in [startOfDay(now), startOfDay(now)+24h) and
// returns the latest of their timestamps. Input order does not matter.
func Today(events []model.ActivityEvent, now time.Time) Summary {
	from, to := StartOfDay(now), WindowEnd(now)

	var s Summary
	for _, ev := range events {
		ts := ev.Timestamp
		if ts.Before(from) || !ts.Before(to) {
			continue
		}
		s.Count++
		if s.Last == nil || ts.After(*s.Last) {
			last := ts.UTC()
			s.Last = &last
		}
	}
	return s
}

// Week returns exactly WeekDays buckets, oldest first, for the UTC days
// ending on now's date. Each event lands in at most one bucket, chosen by
// its own timestamp; events outside the window are ignored.
func Week(events []model.ActivityEvent, now time.Time) []Bucket {
	start := WindowStart(now)

	buckets := make([]Bucket, WeekDays)
	for i := range buckets {
		day := start.AddDate(0, 0, i)
		buckets[i] = Bucket{
			Day:  day.Format(time.DateOnly),
			Date: day.Format("Jan 2"),
		}
	}

	for _, ev := range events {
		ts := ev.Timestamp.UTC()
		if ts.Before(start) {
			continue
		}
		i := int(StartOfDay(ts).Sub(start) / (24 * time.Hour))
		if i >= WeekDays {
			continue
		}
		buckets[i].Count++
	}
	for i := range buckets {
		buckets[i].TotalEvents = buckets[i].Count
	}
	return buckets
}
