package resolve

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"oweek/internal/config"
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
				Color:          "#1e90ff",
				Contact:        "bc@example.edu",
				RenameFrom:     "Burton-Conner",
				IncludeOnCover: true,
				Groups: map[string]config.GroupConfig{
					"B3rd": {Color: "#ff0000", RenameFrom: "Burton Third"},
				},
			},
			"New House": {
				Color:    "#00aa00",
				Contact:  "nh@example.edu",
				RenameTo: "House of New",
				Groups: map[string]config.GroupConfig{
					"La Casa": {Color: "#aa00aa"},
				},
			},
		},
		Tags: map[string]config.TagConfig{
			"meal":      {Color: "#00ff00", Emoji: "🍕", RenameFrom: "Food (meal)"},
			"mandatory": {Color: "#000000"},
		},
	}
	cfg.Normalize()
	require.NoError(t, cfg.Validate())
	return cfg
}

func TestResolveDorm(t *testing.T) {
	tables, err := NewTables(testConfig(t))
	require.NoError(t, err)

	d, ok := tables.ResolveDorm("Burton Conner")
	require.True(t, ok)
	assert.Equal(t, "Burton Conner", d.Name)
	assert.Equal(t, "#1e90ff", d.Color)
	assert.True(t, d.IncludeOnCover)

	// Alias resolves to the same canonical dorm.
	d, ok = tables.ResolveDorm("Burton-Conner")
	require.True(t, ok)
	assert.Equal(t, "Burton Conner", d.Name)

	// Surrounding whitespace is trimmed, interior matching is exact.
	d, ok = tables.ResolveDorm("  Burton Conner  ")
	require.True(t, ok)
	assert.Equal(t, "Burton Conner", d.Name)

	// Case-sensitive: no fuzzy match.
	_, ok = tables.ResolveDorm("burton conner")
	assert.False(t, ok)

	_, ok = tables.ResolveDorm("Random House")
	assert.False(t, ok)
}

func TestResolveDormRenameTo(t *testing.T) {
	tables, err := NewTables(testConfig(t))
	require.NoError(t, err)

	d, ok := tables.ResolveDorm("New House")
	require.True(t, ok)
	assert.Equal(t, "New House", d.Name)
	assert.Equal(t, "House of New", d.DisplayName)
}

func TestOrientationPseudoDorm(t *testing.T) {
	tables, err := NewTables(testConfig(t))
	require.NoError(t, err)

	d, ok := tables.ResolveDorm("Orientation")
	require.True(t, ok)
	assert.True(t, d.Orientation)
}

func TestResolveGroup(t *testing.T) {
	tables, err := NewTables(testConfig(t))
	require.NoError(t, err)

	g, ok := tables.ResolveGroup("Burton Conner", "B3rd")
	require.True(t, ok)
	assert.Equal(t, "B3rd", g.Name)
	assert.Equal(t, "Burton Conner", g.Dorm)

	g, ok = tables.ResolveGroup("Burton Conner", "Burton Third")
	require.True(t, ok)
	assert.Equal(t, "B3rd", g.Name)

	// Group is scoped to its dorm.
	_, ok = tables.ResolveGroup("New House", "B3rd")
	assert.False(t, ok)

	g, ok = tables.ResolveGroupAny("La Casa")
	require.True(t, ok)
	assert.Equal(t, "New House", g.Dorm)
}

func TestResolveTag(t *testing.T) {
	tables, err := NewTables(testConfig(t))
	require.NoError(t, err)

	tag, ok := tables.ResolveTag("meal")
	require.True(t, ok)
	assert.Equal(t, "🍕", tag.Emoji)

	// The declared rename_from resolves to the canonical tag.
	tag, ok = tables.ResolveTag("Food (meal)")
	require.True(t, ok)
	assert.Equal(t, "meal", tag.Name)

	// An unknown string never silently resolves.
	_, ok = tables.ResolveTag("food")
	assert.False(t, ok)
}

func TestAliasCollisionWithCanonical(t *testing.T) {
	cfg := testConfig(t)
	d := cfg.Dorms["New House"]
	d.RenameFrom = "Burton Conner"
	cfg.Dorms["New House"] = d

	_, err := NewTables(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "collides")
}

func TestAliasCollisionBetweenAliases(t *testing.T) {
	cfg := testConfig(t)
	cfg.Tags["snack"] = config.TagConfig{Color: "#111111", RenameFrom: "Food (meal)"}

	_, err := NewTables(cfg)
	require.Error(t, err)
}

func TestTagAliasCollidingWithCanonical(t *testing.T) {
	cfg := testConfig(t)
	cfg.Tags["snack"] = config.TagConfig{Color: "#111111", RenameFrom: "meal"}

	_, err := NewTables(cfg)
	require.Error(t, err)
}

func TestLegendOrderings(t *testing.T) {
	tables, err := NewTables(testConfig(t))
	require.NoError(t, err)

	assert.Equal(t, []string{"Burton Conner", "New House"}, tables.DormNames())
	assert.Equal(t, []string{"mandatory", "meal"}, tables.TagNames())
	assert.Equal(t, []string{"B3rd"}, tables.GroupNames("Burton Conner"))
}
