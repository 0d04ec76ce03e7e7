// Package validate runs the per-event and cross-event checks over the
// full normalized event set. It only ever collects problems; the run is
// never aborted and no event is excluded from the output.
package validate

import (
	"fmt"
	"sort"

	"oweek/internal/config"
	"oweek/internal/model"
	"oweek/internal/resolve"
	"oweek/internal/schedule"
)

// Validator carries the configuration needed for referential and
// conflict checks.
type Validator struct {
	tables     *resolve.Tables
	hourCutoff int
}

// New builds a Validator.
func New(cfg *config.Config, tables *resolve.Tables) *Validator {
	return &Validator{
		tables:     tables,
		hourCutoff: cfg.Dates.HourCutoff,
	}
}

// Run validates the whole event set. normProblems are the problems the
// normalizer collected per row; they are funneled through here so a single
// ordered list reaches the report renderer. The cross-event pass requires
// the fully materialized event list and therefore runs strictly after the
// per-event pass.
func (v *Validator) Run(events []model.Event, normProblems []model.Problem) []model.Problem {
	problems := make([]model.Problem, 0, len(normProblems))
	problems = append(problems, normProblems...)

	for i := range events {
		problems = append(problems, v.checkReferences(&events[i])...)
	}

	sort.SliceStable(problems, func(i, j int) bool {
		return problems[i].Ordinal < problems[j].Ordinal
	})

	problems = append(problems, v.checkConflicts(events)...)
	return problems
}

// checkReferences re-verifies the referential invariants on a normalized
// event. The normalizer resolves names as it builds the event, so these
// mostly hold by construction; the group/dorm parent check guards against
// future callers constructing events by hand.
func (v *Validator) checkReferences(ev *model.Event) []model.Problem {
	var out []model.Problem
	if ev.Group == "" {
		return out
	}
	if _, ok := v.tables.ResolveGroup(ev.Dorm, ev.Group); !ok {
		out = append(out, model.Problem{
			Ordinal: ev.Ordinal,
			Event:   ev.Name,
			Field:   "group",
			Message: fmt.Sprintf("group %q does not belong to dorm %q", ev.Group, ev.Dorm),
			Kind:    model.KindReferential,
		})
	}
	return out
}

// checkConflicts reports a conflict for every pair of overlapping events
// where at least one is mandatory and both run under the same dorm or the
// same group. Overlap is half-open, so touching endpoints do not conflict,
// and the pair test is symmetric: detection does not depend on input
// order, and an event never conflicts with itself.
func (v *Validator) checkConflicts(events []model.Event) []model.Problem {
	var out []model.Problem

	for i := 0; i < len(events); i++ {
		for j := i + 1; j < len(events); j++ {
			a, b := &events[i], &events[j]
			if !a.Mandatory && !b.Mandatory {
				continue
			}
			if !sameDormOrGroup(a, b) {
				continue
			}
			if !overlap(a, b) {
				continue
			}

			// Reference the non-mandatory event when there is exactly one;
			// its dorm is the one that needs to reschedule.
			subject, other := a, b
			if a.Mandatory && !b.Mandatory {
				subject, other = b, a
			}
			out = append(out, model.Problem{
				Ordinal: subject.Ordinal,
				Event:   subject.Name,
				Field:   "conflict",
				Message: fmt.Sprintf("%s conflicts with mandatory event %s%s",
					subject.Name, other.Name, v.dateSuffix(subject, events)),
				Kind: model.KindConflict,
			})
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Ordinal < out[j].Ordinal
	})
	return out
}

func sameDormOrGroup(a, b *model.Event) bool {
	if a.Dorm != "" && a.Dorm == b.Dorm {
		return true
	}
	return a.Group != "" && a.Group == b.Group
}

// overlap is the half-open interval test startA < endB && startB < endA.
// Events with unparsed timestamps never overlap anything; their timestamp
// problems are already on record.
func overlap(a, b *model.Event) bool {
	if a.Start.IsZero() || a.End.IsZero() || b.Start.IsZero() || b.End.IsZero() {
		return false
	}
	return a.Start.Before(b.End) && b.Start.Before(a.End)
}

// dateSuffix disambiguates conflict messages when another event shares the
// subject's name on a different day, e.g. recurring study breaks submitted
// as separate rows.
func (v *Validator) dateSuffix(subject *model.Event, events []model.Event) string {
	if subject.Start.IsZero() {
		return ""
	}
	for i := range events {
		e := &events[i]
		if e.Ordinal == subject.Ordinal || e.Name != subject.Name {
			continue
		}
		if !e.Start.Equal(subject.Start) && !e.End.Equal(subject.End) {
			day := schedule.Bucket(subject.Start, v.hourCutoff)
			return " on " + day.Format("Jan 2")
		}
	}
	return ""
}
