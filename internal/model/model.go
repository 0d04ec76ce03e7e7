package model

import "time"

// RawRow is one spreadsheet row as handed over by the CSV loader.
// All fields are free text exactly as they appeared in the sheet;
// nothing is trimmed or parsed yet.
type RawRow struct {
	ID          string
	Name        string
	Dorm        string
	Location    string
	Start       string
	End         string
	Description string
	Published   string
	Tags        string
	Group       string

	// Orientation marks rows that came from the orientation events file
	// rather than a dorm submission sheet.
	Orientation bool
}

// Event is the normalized, canonical event record. It is built once per
// run from a RawRow and never mutated after validation; derived fields
// (Day, Mandatory) are filled during normalization and scheduling.
type Event struct {
	// Ordinal is the stable position of the source row across all input
	// files, used as the event identity in problem reports.
	Ordinal int

	ID   string
	Name string

	// Dorm is the canonical dorm name, empty when the dorm column could
	// not be resolved. DormText keeps the raw column value for reporting.
	Dorm     string
	DormText string

	// Group is the canonical group name within Dorm, empty when the event
	// has no group.
	Group string

	Location    string
	Start       time.Time
	End         time.Time
	Description string

	// Tags holds resolved canonical tag names, deduplicated and sorted.
	Tags []string

	Published   bool
	Orientation bool

	// Mandatory is true when Tags contains the configured mandatory tag.
	Mandatory bool

	// Day is the booklet day bucket (midnight in the display timezone),
	// derived from Start and the configured hour cutoff.
	Day time.Time
}

// HasTag reports whether the event carries the given canonical tag.
func (e *Event) HasTag(tag string) bool {
	for _, t := range e.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// ProblemKind classifies a collected problem: field-level parse failures,
// unresolved references, and mandatory-event time conflicts. Configuration
// errors are ordinary Go errors and abort the run before any row is
// processed, so they never appear here.
type ProblemKind string

const (
	KindField       ProblemKind = "field"
	KindReferential ProblemKind = "referential"
	KindConflict    ProblemKind = "conflict"
)

// Problem is one collected data-quality issue. Problems annotate the run
// output; they never abort it.
type Problem struct {
	// Ordinal and Event identify the offending row.
	Ordinal int
	Event   string

	// Field names the offending column, or the rule name for cross-event
	// checks (e.g. "conflict").
	Field   string
	Message string
	Kind    ProblemKind
}
