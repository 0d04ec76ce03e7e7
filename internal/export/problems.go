package export

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"oweek/internal/aggregate"
	"oweek/internal/model"
	"oweek/internal/resolve"
)

// DormReport is the slice of the problem report owned by one dorm, with
// the contact addresses that should receive it.
type DormReport struct {
	Dorm     string   `json:"dorm"`
	Contacts []string `json:"contacts,omitempty"`
	Problems []string `json:"problems"`
}

// Report is the machine-readable problem report consumed by the error
// page renderer.
type Report struct {
	Name      string       `json:"name"`
	Generated time.Time    `json:"generated"`
	Dorms     []DormReport `json:"dorms"`
}

// unattributedKey groups problems whose event has no resolvable dorm.
const unattributedKey = "(unattributed)"

// BuildReport groups the collected problems by the offending event's dorm
// display name. events is the full normalized set, used to map problem
// ordinals back to dorms.
func BuildReport(out *aggregate.Output, events []model.Event, tables *resolve.Tables) Report {
	byOrdinal := make(map[int]*model.Event, len(events))
	for i := range events {
		byOrdinal[events[i].Ordinal] = &events[i]
	}

	grouped := make(map[string][]string)
	contacts := make(map[string]string)
	for _, p := range out.Problems {
		key := unattributedKey
		if ev, ok := byOrdinal[p.Ordinal]; ok && ev.Dorm != "" {
			if d, found := tables.ResolveDorm(ev.Dorm); found {
				key = d.DisplayName
				contacts[key] = d.Contact
			}
		}
		grouped[key] = append(grouped[key], formatProblem(p))
	}

	report := Report{Name: out.Name, Generated: out.Published}

	keys := make([]string, 0, len(grouped))
	for key := range grouped {
		if key != unattributedKey {
			keys = append(keys, key)
		}
	}
	sort.Slice(keys, func(i, j int) bool {
		return strings.ToLower(keys[i]) < strings.ToLower(keys[j])
	})
	if _, ok := grouped[unattributedKey]; ok {
		keys = append(keys, unattributedKey)
	}

	for _, key := range keys {
		dr := DormReport{Dorm: key, Problems: grouped[key]}
		if c := contacts[key]; c != "" {
			dr.Contacts = []string{c}
		}
		report.Dorms = append(report.Dorms, dr)
	}
	return report
}

// WriteProblems writes the report as indented JSON.
func WriteProblems(w io.Writer, report Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}

func formatProblem(p model.Problem) string {
	subject := p.Event
	if subject == "" {
		subject = fmt.Sprintf("row %d", p.Ordinal)
	}
	// Conflict messages already name both events.
	if p.Kind == model.KindConflict {
		return p.Message
	}
	return fmt.Sprintf("%s: %s: %s", subject, p.Field, p.Message)
}
