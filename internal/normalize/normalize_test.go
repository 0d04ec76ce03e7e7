package normalize

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"oweek/internal/config"
	"oweek/internal/model"
	"oweek/internal/resolve"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := &config.Config{
		Name: "REX 2025",
		Orientation: config.OrientationConfig{
			MandatoryTag:     "mandatory",
			IncludeInBooklet: true,
		},
		CSV: config.CSVConfig{
			DateFormat: "2006-01-02 15:04",
			Timezone:   "UTC",
		},
		Dates: config.DatesConfig{Start: "2025-08-23", End: "2025-08-31", HourCutoff: 4},
		Dorms: map[string]config.DormConfig{
			"Burton Conner": {
				Color:      "#1e90ff",
				Contact:    "bc@example.edu",
				RenameFrom: "Burton-Conner",
				Groups: map[string]config.GroupConfig{
					"B3rd": {Color: "#ff0000", RenameFrom: "Burton Third"},
				},
			},
		},
		Tags: map[string]config.TagConfig{
			"meal":      {Color: "#00ff00", RenameFrom: "Food (meal)"},
			"mandatory": {Color: "#000000"},
		},
	}
	cfg.Normalize()
	require.NoError(t, cfg.Validate())
	return cfg
}

func newNormalizer(t *testing.T) *Normalizer {
	t.Helper()
	cfg := testConfig(t)
	tables, err := resolve.NewTables(cfg)
	require.NoError(t, err)
	return New(cfg, tables)
}

func goodRow() model.RawRow {
	return model.RawRow{
		ID:          "ev1",
		Name:        "  Ice Cream Social ",
		Dorm:        "Burton Conner",
		Location:    "Courtyard",
		Start:       "2025-08-24 18:00",
		End:         "2025-08-24 19:30",
		Description: "Free ice cream.",
		Published:   "TRUE",
		Tags:        "meal",
	}
}

func TestRowHappyPath(t *testing.T) {
	n := newNormalizer(t)

	ev, problems := n.Row(goodRow(), 1)
	assert.Empty(t, problems)
	assert.Equal(t, 1, ev.Ordinal)
	assert.Equal(t, "Ice Cream Social", ev.Name)
	assert.Equal(t, "Burton Conner", ev.Dorm)
	assert.Equal(t, "Courtyard", ev.Location)
	assert.True(t, ev.Published)
	assert.Equal(t, []string{"meal"}, ev.Tags)
	assert.False(t, ev.Mandatory)
	assert.Equal(t, time.Date(2025, 8, 24, 18, 0, 0, 0, time.UTC), ev.Start)
	assert.True(t, ev.End.After(ev.Start))
}

func TestRowMissingFields(t *testing.T) {
	n := newNormalizer(t)

	row := goodRow()
	row.Name = "  "
	row.Location = ""
	row.Description = ""
	ev, problems := n.Row(row, 3)

	// Event is still produced with empty strings so counts stay stable.
	assert.Equal(t, "", ev.Name)
	require.Len(t, problems, 3)
	fields := []string{problems[0].Field, problems[1].Field, problems[2].Field}
	assert.Equal(t, []string{"name", "location", "description"}, fields)
	for _, p := range problems {
		assert.Equal(t, model.KindField, p.Kind)
		assert.Equal(t, 3, p.Ordinal)
	}
}

func TestRowBadTimestamps(t *testing.T) {
	n := newNormalizer(t)

	row := goodRow()
	row.Start = "yesterday-ish"
	row.End = ""
	ev, problems := n.Row(row, 1)

	assert.True(t, ev.Start.IsZero())
	assert.True(t, ev.End.IsZero())
	require.Len(t, problems, 2)
	assert.Contains(t, problems[0].Message, "unparseable")
	assert.Contains(t, problems[1].Message, "missing")
}

func TestRowInvertedRange(t *testing.T) {
	n := newNormalizer(t)

	row := goodRow()
	row.Start = "2025-08-24 19:30"
	row.End = "2025-08-24 18:00"
	ev, problems := n.Row(row, 1)

	// The event is emitted with its parsed times so the validator can
	// report it; it never silently vanishes.
	assert.False(t, ev.Start.IsZero())
	require.Len(t, problems, 1)
	assert.Equal(t, "end", problems[0].Field)
	assert.Contains(t, problems[0].Message, "not after")
}

func TestRowZeroDurationIsAProblem(t *testing.T) {
	n := newNormalizer(t)

	row := goodRow()
	row.End = row.Start
	_, problems := n.Row(row, 1)
	require.Len(t, problems, 1)
	assert.Equal(t, "end", problems[0].Field)
}

func TestRowPublishedFlag(t *testing.T) {
	n := newNormalizer(t)

	cases := []struct {
		value     string
		published bool
		problem   bool
	}{
		{"true", true, false},
		{"TRUE", true, false},
		{"False", false, false},
		{"", false, false},
		{"yes", false, true},
		{"1", false, true},
	}
	for _, tc := range cases {
		row := goodRow()
		row.Published = tc.value
		ev, problems := n.Row(row, 1)
		assert.Equal(t, tc.published, ev.Published, "value %q", tc.value)
		if tc.problem {
			// Fails closed: malformed flags never leak into the feed.
			require.Len(t, problems, 1, "value %q", tc.value)
			assert.Equal(t, "published", problems[0].Field)
			assert.False(t, ev.Published)
		} else {
			assert.Empty(t, problems, "value %q", tc.value)
		}
	}
}

func TestRowTags(t *testing.T) {
	n := newNormalizer(t)

	row := goodRow()
	row.Tags = " Food (meal) , mandatory, mystery , meal "
	ev, problems := n.Row(row, 1)

	// Alias and canonical collapse to one entry; unknown tag is a problem
	// but does not block the rest.
	assert.Equal(t, []string{"mandatory", "meal"}, ev.Tags)
	assert.True(t, ev.Mandatory)
	require.Len(t, problems, 1)
	assert.Equal(t, model.KindReferential, problems[0].Kind)
	assert.Contains(t, problems[0].Message, `"mystery"`)
}

func TestRowDormFallbackToGroup(t *testing.T) {
	n := newNormalizer(t)

	row := goodRow()
	row.Dorm = "Burton Third"
	ev, problems := n.Row(row, 1)

	assert.Empty(t, problems)
	assert.Equal(t, "Burton Conner", ev.Dorm)
	assert.Equal(t, "B3rd", ev.Group)
}

func TestRowUnknownDorm(t *testing.T) {
	n := newNormalizer(t)

	row := goodRow()
	row.Dorm = "Atlantis"
	ev, problems := n.Row(row, 1)

	assert.Equal(t, "", ev.Dorm)
	assert.Equal(t, "Atlantis", ev.DormText)
	require.Len(t, problems, 1)
	assert.Equal(t, model.KindReferential, problems[0].Kind)
}

func TestRowGroupColumn(t *testing.T) {
	n := newNormalizer(t)

	row := goodRow()
	row.Group = "B3rd"
	ev, problems := n.Row(row, 1)
	assert.Empty(t, problems)
	assert.Equal(t, "B3rd", ev.Group)

	row.Group = "Fifth West"
	_, problems = n.Row(row, 1)
	require.Len(t, problems, 1)
	assert.Equal(t, "group", problems[0].Field)
}

func TestRowOrientationPseudoDorm(t *testing.T) {
	n := newNormalizer(t)

	row := goodRow()
	row.Dorm = "Orientation"
	row.Tags = "mandatory"
	ev, problems := n.Row(row, 1)

	assert.Empty(t, problems)
	assert.True(t, ev.Orientation)
	assert.True(t, ev.Mandatory)
}
