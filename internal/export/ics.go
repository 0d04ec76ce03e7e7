package export

import (
	"fmt"
	"io"

	ical "github.com/arran4/golang-ical"

	"oweek/internal/aggregate"
	"oweek/internal/model"
	"oweek/internal/resolve"
)

// WriteICS writes the booklet events as an iCalendar feed so students can
// subscribe from their own calendar apps. Events with unparsed timestamps
// are skipped; they are already in the problem report.
func WriteICS(w io.Writer, out *aggregate.Output, tables *resolve.Tables) error {
	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId("-//oweek//" + out.Name + "//EN")
	cal.SetName(out.Name)

	for _, ev := range out.Booklet {
		if ev.Start.IsZero() || ev.End.IsZero() {
			continue
		}
		ve := cal.AddEvent(icsUID(ev))
		ve.SetDtStampTime(out.Published)
		ve.SetStartAt(ev.Start)
		ve.SetEndAt(ev.End)
		ve.SetSummary(ev.Name)
		if ev.Location != "" {
			ve.SetLocation(ev.Location)
		}
		if ev.Description != "" {
			ve.SetDescription(ev.Description)
		}
		if dorm := displayDorm(ev, tables); dorm != "" {
			ve.SetOrganizer(dorm)
		}
	}

	return cal.SerializeTo(w)
}

// icsUID builds a stable per-event UID from the sheet ID when present,
// falling back to the row ordinal.
func icsUID(ev model.Event) string {
	if ev.ID != "" {
		return ev.ID + "@oweek"
	}
	return fmt.Sprintf("row-%d@oweek", ev.Ordinal)
}
