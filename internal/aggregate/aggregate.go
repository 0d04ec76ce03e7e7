// Package aggregate merges normalized events, day buckets and config
// metadata into the single immutable output model handed to the rendering
// and serialization collaborators.
package aggregate

import (
	"sort"
	"time"

	"oweek/internal/config"
	"oweek/internal/model"
	"oweek/internal/resolve"
	"oweek/internal/schedule"
)

// tourTag separates campus tours from the day-by-day listing; tours are
// printed at the front of the booklet instead.
const tourTag = "tour"

// DormInfo is one legend entry for a dorm, under its display name.
type DormInfo struct {
	Name    string
	Color   string
	Contact string
	OnCover bool
}

// GroupInfo is one legend entry for a group.
type GroupInfo struct {
	Name  string
	Color string
}

// TagInfo is one legend entry for a tag.
type TagInfo struct {
	Name  string
	Color string
	Emoji string
}

// Legend lists the dorms, groups and tags actually referenced by the
// output events, with their display metadata.
type Legend struct {
	// Dorms is ordered case-insensitively, except renamed dorms which are
	// pinned to the front.
	Dorms []DormInfo

	// Groups maps a dorm display name to its referenced groups.
	Groups map[string][]GroupInfo

	Tags []TagInfo

	// CoverDorms are the referenced dorm display names flagged for the
	// booklet cover.
	CoverDorms []string
}

// Output is the final model of one pipeline run.
type Output struct {
	Name      string
	Published time.Time
	Start     time.Time
	End       time.Time

	// Feed holds published, non-orientation events for the machine feed.
	Feed []model.Event

	// Booklet holds every event printed in the booklet: published dorm
	// events plus orientation events when configured to show.
	Booklet []model.Event

	// Tours are booklet events tagged "tour", kept out of the day buckets.
	Tours []model.Event

	// Schedule is the day-bucketed view of the non-tour booklet events.
	Schedule schedule.Schedule

	Legend   Legend
	Problems []model.Problem
}

// Build assembles the output model. events is the full normalized set in
// row order; problems is the validator's collected list. published is the
// generation timestamp stamped into the feed.
func Build(cfg *config.Config, tables *resolve.Tables, events []model.Event, problems []model.Problem, published time.Time) *Output {
	schedule.Assign(events, cfg.Dates.HourCutoff)

	out := &Output{
		Name:      cfg.Name,
		Published: published,
		Start:     cfg.Dates.StartDate,
		End:       cfg.Dates.EndDate,
		Problems:  problems,
	}

	for _, ev := range events {
		if ev.Published && !ev.Orientation {
			out.Feed = append(out.Feed, ev)
		}
		if inBooklet(&ev, cfg) {
			out.Booklet = append(out.Booklet, ev)
		}
	}
	sortEvents(out.Feed)
	sortEvents(out.Booklet)

	var scheduled []model.Event
	for _, ev := range out.Booklet {
		if ev.HasTag(tourTag) {
			out.Tours = append(out.Tours, ev)
		} else {
			scheduled = append(scheduled, ev)
		}
	}
	out.Schedule = schedule.Build(scheduled, cfg.Dates)

	out.Legend = buildLegend(cfg, tables, out.Feed, out.Booklet)
	return out
}

func inBooklet(ev *model.Event, cfg *config.Config) bool {
	if ev.Orientation {
		return cfg.Orientation.IncludeInBooklet
	}
	return ev.Published
}

// sortEvents orders by start, then end, then name, then ordinal. The
// trailing tie-breaks make re-runs byte-identical even for duplicate rows.
func sortEvents(events []model.Event) {
	sort.SliceStable(events, func(i, j int) bool {
		a, b := events[i], events[j]
		if !a.Start.Equal(b.Start) {
			return a.Start.Before(b.Start)
		}
		if !a.End.Equal(b.End) {
			return a.End.Before(b.End)
		}
		if a.Name != b.Name {
			return a.Name < b.Name
		}
		return a.Ordinal < b.Ordinal
	})
}

func buildLegend(cfg *config.Config, tables *resolve.Tables, feed, booklet []model.Event) Legend {
	legend := Legend{Groups: make(map[string][]GroupInfo)}

	usedDorms := make(map[string]bool)   // canonical
	usedTags := make(map[string]bool)    // canonical
	usedGroups := make(map[string]map[string]bool)
	for _, set := range [][]model.Event{feed, booklet} {
		for _, ev := range set {
			if ev.Dorm != "" && ev.Dorm != resolve.OrientationDorm {
				usedDorms[ev.Dorm] = true
				if ev.Group != "" {
					if usedGroups[ev.Dorm] == nil {
						usedGroups[ev.Dorm] = make(map[string]bool)
					}
					usedGroups[ev.Dorm][ev.Group] = true
				}
			}
			for _, tag := range ev.Tags {
				usedTags[tag] = true
			}
		}
	}

	// Renamed dorms go first, the rest case-insensitively; the canonical
	// table order already provides the latter.
	var renamed, plain []string
	for _, name := range tables.DormNames() {
		if !usedDorms[name] {
			continue
		}
		if cfg.Dorms[name].RenameTo != "" {
			renamed = append(renamed, name)
		} else {
			plain = append(plain, name)
		}
	}
	for _, name := range append(renamed, plain...) {
		dorm, _ := tables.ResolveDorm(name)
		legend.Dorms = append(legend.Dorms, DormInfo{
			Name:    dorm.DisplayName,
			Color:   dorm.Color,
			Contact: dorm.Contact,
			OnCover: dorm.IncludeOnCover,
		})
		if dorm.IncludeOnCover {
			legend.CoverDorms = append(legend.CoverDorms, dorm.DisplayName)
		}

		var groups []GroupInfo
		for _, gname := range tables.GroupNames(name) {
			if !usedGroups[name][gname] {
				continue
			}
			g, _ := tables.ResolveGroup(name, gname)
			groups = append(groups, GroupInfo{Name: g.Name, Color: g.Color})
		}
		if len(groups) > 0 {
			legend.Groups[dorm.DisplayName] = groups
		}
	}

	for _, name := range tables.TagNames() {
		if !usedTags[name] {
			continue
		}
		tag, _ := tables.ResolveTag(name)
		legend.Tags = append(legend.Tags, TagInfo{Name: tag.Name, Color: tag.Color, Emoji: tag.Emoji})
	}

	return legend
}
