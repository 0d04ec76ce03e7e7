// Package schedule assigns events to booklet days and builds the ordered
// day-bucketed view of the season.
package schedule

import (
	"sort"
	"time"

	"oweek/internal/config"
	"oweek/internal/model"
)

// Day is one booklet day with its events, ordered by start time and then
// by name.
type Day struct {
	Date   time.Time
	Events []model.Event
}

// Schedule is the full day-bucketed view. During covers every day of the
// configured window, empty days included; Before and After carry days
// outside the window that nevertheless contain events.
type Schedule struct {
	Before []Day
	During []Day
	After  []Day
}

// Days returns Before, During and After as one chronological sequence.
func (s *Schedule) Days() []Day {
	out := make([]Day, 0, len(s.Before)+len(s.During)+len(s.After))
	out = append(out, s.Before...)
	out = append(out, s.During...)
	out = append(out, s.After...)
	return out
}

// Bucket computes the booklet day for a start timestamp: the start's
// calendar date, or the previous date when the event starts before the
// cutoff hour. Pure function of its inputs.
func Bucket(start time.Time, cutoff int) time.Time {
	date := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, start.Location())
	if start.Hour() < cutoff {
		return date.AddDate(0, 0, -1)
	}
	return date
}

// Assign fills each event's Day field from its start time. Events with an
// unparsed (zero) start keep a zero Day and are left out of Build's
// buckets; their timestamp problem is already on record.
func Assign(events []model.Event, cutoff int) {
	for i := range events {
		if events[i].Start.IsZero() {
			continue
		}
		events[i].Day = Bucket(events[i].Start, cutoff)
	}
}

// Build groups events into an ordered schedule for the configured window.
// Each event lands in exactly one bucket. Ordering is fully deterministic:
// days chronological, events by start time with name as tie-break, so a
// re-run over unchanged input reproduces byte-identical output.
func Build(events []model.Event, dates config.DatesConfig) Schedule {
	byDay := make(map[time.Time][]model.Event)
	for _, ev := range events {
		if ev.Day.IsZero() {
			continue
		}
		byDay[ev.Day] = append(byDay[ev.Day], ev)
	}

	var sched Schedule

	for d := dates.StartDate; !d.After(dates.EndDate); d = d.AddDate(0, 0, 1) {
		sched.During = append(sched.During, Day{Date: d, Events: byDay[d]})
		delete(byDay, d)
	}

	var outside []time.Time
	for d := range byDay {
		outside = append(outside, d)
	}
	sort.Slice(outside, func(i, j int) bool { return outside[i].Before(outside[j]) })
	for _, d := range outside {
		day := Day{Date: d, Events: byDay[d]}
		if d.Before(dates.StartDate) {
			sched.Before = append(sched.Before, day)
		} else {
			sched.After = append(sched.After, day)
		}
	}

	for i := range sched.Before {
		sortDay(&sched.Before[i])
	}
	for i := range sched.During {
		sortDay(&sched.During[i])
	}
	for i := range sched.After {
		sortDay(&sched.After[i])
	}

	return sched
}

func sortDay(d *Day) {
	sort.SliceStable(d.Events, func(i, j int) bool {
		a, b := d.Events[i], d.Events[j]
		if !a.Start.Equal(b.Start) {
			return a.Start.Before(b.Start)
		}
		return a.Name < b.Name
	})
}
