// Package normalize turns raw spreadsheet rows into typed events. Every
// row produces an event, even a badly broken one: problems are collected
// alongside the value so downstream counts stay consistent and nothing
// vanishes silently.
package normalize

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"oweek/internal/config"
	"oweek/internal/model"
	"oweek/internal/resolve"
)

// Normalizer converts raw rows using the configured date format, timezone
// and name tables.
type Normalizer struct {
	tables       *resolve.Tables
	dateFormat   string
	location     *time.Location
	mandatoryTag string
}

// New builds a Normalizer from validated configuration and tables.
func New(cfg *config.Config, tables *resolve.Tables) *Normalizer {
	return &Normalizer{
		tables:       tables,
		dateFormat:   cfg.CSV.DateFormat,
		location:     cfg.CSV.Location,
		mandatoryTag: cfg.Orientation.MandatoryTag,
	}
}

// Row normalizes one raw row into an event plus its field-level problems.
// The ordinal is the row's stable position across all input files.
func (n *Normalizer) Row(row model.RawRow, ordinal int) (model.Event, []model.Problem) {
	var problems []model.Problem

	ev := model.Event{
		Ordinal:     ordinal,
		ID:          strings.TrimSpace(row.ID),
		Name:        strings.TrimSpace(row.Name),
		DormText:    strings.TrimSpace(row.Dorm),
		Location:    strings.TrimSpace(row.Location),
		Description: strings.TrimSpace(row.Description),
		Orientation: row.Orientation,
	}

	recordKind := func(kind model.ProblemKind) func(field, message string) {
		return func(field, message string) {
			problems = append(problems, model.Problem{
				Ordinal: ordinal,
				Event:   ev.Name,
				Field:   field,
				Message: message,
				Kind:    kind,
			})
		}
	}
	// Parse failures are field problems; unresolved names are referential.
	record := recordKind(model.KindField)
	recordRef := recordKind(model.KindReferential)

	// Fixed check order keeps the problem list stable across runs.
	for _, fv := range []struct{ field, value string }{
		{"name", ev.Name},
		{"location", ev.Location},
		{"description", ev.Description},
	} {
		if fv.value == "" {
			record(fv.field, "missing required field")
		}
	}

	ev.Start = n.parseTime(row.Start, "start", record)
	ev.End = n.parseTime(row.End, "end", record)
	if !ev.Start.IsZero() && !ev.End.IsZero() && !ev.End.After(ev.Start) {
		record("end", fmt.Sprintf("end %s is not after start %s",
			ev.End.Format(time.RFC3339), ev.Start.Format(time.RFC3339)))
	}

	// Publish flag fails closed: anything that is not a recognizable
	// boolean keeps the event out of the feed.
	switch strings.ToLower(strings.TrimSpace(row.Published)) {
	case "true":
		ev.Published = true
	case "false", "":
		ev.Published = false
	default:
		record("published", fmt.Sprintf("unrecognized boolean %q, treating as unpublished", row.Published))
	}

	n.resolveDormGroup(&ev, row, record, recordRef)
	ev.Tags = n.resolveTags(row.Tags, recordRef)
	ev.Mandatory = ev.HasTag(n.mandatoryTag)

	return ev, problems
}

func (n *Normalizer) parseTime(text, field string, record func(field, message string)) time.Time {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		record(field, "missing timestamp")
		return time.Time{}
	}
	t, err := time.ParseInLocation(n.dateFormat, trimmed, n.location)
	if err != nil {
		record(field, fmt.Sprintf("unparseable timestamp %q", trimmed))
		return time.Time{}
	}
	return t
}

// resolveDormGroup handles the dorm column, which may name a dorm, the
// orientation pseudo-dorm, or a group (in which case the parent dorm is
// implied). The optional group column is resolved within the event's dorm.
func (n *Normalizer) resolveDormGroup(ev *model.Event, row model.RawRow, record, recordRef func(field, message string)) {
	if ev.DormText == "" {
		record("dorm", "missing dorm")
	} else if dorm, ok := n.tables.ResolveDorm(ev.DormText); ok {
		ev.Dorm = dorm.Name
		if dorm.Orientation {
			ev.Orientation = true
		}
	} else if group, ok := n.tables.ResolveGroupAny(ev.DormText); ok {
		ev.Dorm = group.Dorm
		ev.Group = group.Name
	} else {
		recordRef("dorm", fmt.Sprintf("unknown dorm or group %q", ev.DormText))
	}

	groupText := strings.TrimSpace(row.Group)
	if groupText == "" || ev.Group != "" {
		return
	}
	if ev.Dorm == "" {
		recordRef("group", fmt.Sprintf("group %q cannot be resolved without a dorm", groupText))
		return
	}
	if group, ok := n.tables.ResolveGroup(ev.Dorm, groupText); ok {
		ev.Group = group.Name
	} else {
		recordRef("group", fmt.Sprintf("unknown group %q in dorm %q", groupText, ev.Dorm))
	}
}

// resolveTags splits the comma-separated tag column and resolves each
// piece. Unresolved tags are reported one problem apiece and dropped from
// the set; the rest of the event is unaffected.
func (n *Normalizer) resolveTags(text string, record func(field, message string)) []string {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil
	}

	seen := make(map[string]bool)
	var tags []string
	for _, piece := range strings.Split(trimmed, ",") {
		piece = strings.TrimSpace(piece)
		if piece == "" {
			continue
		}
		tag, ok := n.tables.ResolveTag(piece)
		if !ok {
			record("tags", fmt.Sprintf("unknown tag %q", piece))
			continue
		}
		if !seen[tag.Name] {
			seen[tag.Name] = true
			tags = append(tags, tag.Name)
		}
	}
	sort.Strings(tags)
	return tags
}
