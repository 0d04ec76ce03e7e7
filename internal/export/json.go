// Package export serializes the output model for the machine feed, the
// calendar feed and the problem report. Rendering the printable booklet
// itself happens elsewhere; this package only emits data.
package export

import (
	"encoding/json"
	"io"
	"time"

	"oweek/internal/aggregate"
	"oweek/internal/model"
	"oweek/internal/resolve"
)

const dateLayout = "2006-01-02"

// eventDTO is the JSON shape of one feed event.
type eventDTO struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Dorm        string   `json:"dorm"`
	Group       *string  `json:"group"`
	Location    string   `json:"location"`
	Start       string   `json:"start"`
	End         string   `json:"end"`
	Description string   `json:"description"`
	Tags        []string `json:"tags"`
}

type colorsDTO struct {
	Dorms  map[string]string            `json:"dorms"`
	Groups map[string]map[string]string `json:"groups"`
	Tags   map[string]string            `json:"tags"`
}

// apiDTO mirrors the public api.json document.
type apiDTO struct {
	Name      string              `json:"name"`
	Published time.Time           `json:"published"`
	Events    []eventDTO          `json:"events"`
	Dorms     []string            `json:"dorms"`
	Groups    map[string][]string `json:"groups"`
	Tags      []string            `json:"tags"`
	Colors    colorsDTO           `json:"colors"`
	Start     string              `json:"start"`
	End       string              `json:"end"`
}

// WriteAPIJSON writes the machine feed document: feed-facet events with
// display names applied, plus the legend data the website needs.
func WriteAPIJSON(w io.Writer, out *aggregate.Output, tables *resolve.Tables) error {
	doc := apiDTO{
		Name:      out.Name,
		Published: out.Published,
		Events:    make([]eventDTO, 0, len(out.Feed)),
		Dorms:     make([]string, 0, len(out.Legend.Dorms)),
		Groups:    make(map[string][]string),
		Tags:      make([]string, 0, len(out.Legend.Tags)),
		Colors: colorsDTO{
			Dorms:  make(map[string]string),
			Groups: make(map[string]map[string]string),
			Tags:   make(map[string]string),
		},
		Start: out.Start.Format(dateLayout),
		End:   out.End.Format(dateLayout),
	}

	for _, ev := range out.Feed {
		doc.Events = append(doc.Events, toEventDTO(ev, tables))
	}

	for _, d := range out.Legend.Dorms {
		doc.Dorms = append(doc.Dorms, d.Name)
		doc.Colors.Dorms[d.Name] = d.Color
	}
	for dorm, groups := range out.Legend.Groups {
		names := make([]string, 0, len(groups))
		colors := make(map[string]string, len(groups))
		for _, g := range groups {
			names = append(names, g.Name)
			colors[g.Name] = g.Color
		}
		doc.Groups[dorm] = names
		doc.Colors.Groups[dorm] = colors
	}
	for _, t := range out.Legend.Tags {
		doc.Tags = append(doc.Tags, t.Name)
		doc.Colors.Tags[t.Name] = t.Color
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}

func toEventDTO(ev model.Event, tables *resolve.Tables) eventDTO {
	dto := eventDTO{
		ID:          ev.ID,
		Name:        ev.Name,
		Dorm:        displayDorm(ev, tables),
		Location:    ev.Location,
		Description: ev.Description,
		Tags:        ev.Tags,
	}
	if dto.Tags == nil {
		dto.Tags = []string{}
	}
	if !ev.Start.IsZero() {
		dto.Start = ev.Start.Format(time.RFC3339)
	}
	if !ev.End.IsZero() {
		dto.End = ev.End.Format(time.RFC3339)
	}
	if ev.Group != "" {
		group := ev.Group
		dto.Group = &group
	}
	return dto
}

// displayDorm applies rename_to; an unresolved dorm keeps its raw text so
// the feed never fabricates a canonical value.
func displayDorm(ev model.Event, tables *resolve.Tables) string {
	if ev.Dorm == "" {
		return ev.DormText
	}
	if d, ok := tables.ResolveDorm(ev.Dorm); ok {
		return d.DisplayName
	}
	return ev.Dorm
}
