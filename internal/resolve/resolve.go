// Package resolve maps raw dorm/group/tag text from the spreadsheet onto
// canonical identifiers declared in configuration. Lookup tables are built
// once at startup; alias collisions are a fatal configuration error and
// are caught here rather than during row processing.
package resolve

import (
	"fmt"
	"sort"
	"strings"

	"oweek/internal/config"
)

// OrientationDorm is the pseudo-dorm the spreadsheet uses for events run
// by the orientation program rather than a dorm.
const OrientationDorm = "Orientation"

// Dorm is a resolved dorm with its display metadata.
type Dorm struct {
	Name           string // canonical name
	DisplayName    string // rename_to, or Name when not renamed
	Color          string
	Contact        string
	IncludeOnCover bool

	// Orientation marks the pseudo-dorm.
	Orientation bool
}

// Group is a resolved group with its parent dorm.
type Group struct {
	Dorm  string // canonical parent dorm
	Name  string // canonical group name
	Color string
}

// Tag is a resolved tag with its display metadata.
type Tag struct {
	Name  string // canonical name, lower-case
	Color string
	Emoji string
}

// Tables holds the three lookup tables. Resolution is exact-match after
// trimming surrounding whitespace and case-sensitive; there is no fuzzy
// matching. A miss returns ok=false, never an error: recording it as a
// validation problem is the caller's job.
type Tables struct {
	dorms  map[string]Dorm
	groups map[string]map[string]Group // parent dorm -> name/alias -> group
	tags   map[string]Tag

	// canonical orderings for legend building
	dormNames []string
	tagNames  []string
}

// NewTables builds the lookup tables from configuration. It returns an
// error when an alias collides with a canonical name or with another
// alias within the same scope.
func NewTables(cfg *config.Config) (*Tables, error) {
	t := &Tables{
		dorms:  make(map[string]Dorm),
		groups: make(map[string]map[string]Group),
		tags:   make(map[string]Tag),
	}

	for name, dc := range cfg.Dorms {
		display := name
		if dc.RenameTo != "" {
			display = dc.RenameTo
		}
		t.dorms[name] = Dorm{
			Name:           name,
			DisplayName:    display,
			Color:          dc.Color,
			Contact:        dc.Contact,
			IncludeOnCover: dc.IncludeOnCover,
		}
		t.dormNames = append(t.dormNames, name)
	}

	// The orientation pseudo-dorm is always resolvable even when it is not
	// declared in the config.
	if _, ok := t.dorms[OrientationDorm]; !ok {
		t.dorms[OrientationDorm] = Dorm{
			Name:        OrientationDorm,
			DisplayName: OrientationDorm,
			Orientation: true,
		}
	}

	// Aliases go in after every canonical name so collisions with
	// canonical names are always detected, regardless of map order.
	for name, dc := range cfg.Dorms {
		alias := strings.TrimSpace(dc.RenameFrom)
		if alias == "" {
			continue
		}
		if prev, exists := t.dorms[alias]; exists {
			return nil, fmt.Errorf("dorm alias %q for %q collides with %q", alias, name, prev.Name)
		}
		d := t.dorms[name]
		t.dorms[alias] = d
	}

	for dormName, dc := range cfg.Dorms {
		if len(dc.Groups) == 0 {
			continue
		}
		byName := make(map[string]Group, len(dc.Groups)*2)
		for gname, gc := range dc.Groups {
			byName[gname] = Group{Dorm: dormName, Name: gname, Color: gc.Color}
		}
		for gname, gc := range dc.Groups {
			alias := strings.TrimSpace(gc.RenameFrom)
			if alias == "" {
				continue
			}
			if prev, exists := byName[alias]; exists {
				return nil, fmt.Errorf("group alias %q for %q in dorm %q collides with %q", alias, gname, dormName, prev.Name)
			}
			byName[alias] = byName[gname]
		}
		t.groups[dormName] = byName
	}

	for name, tc := range cfg.Tags {
		t.tags[name] = Tag{Name: name, Color: tc.Color, Emoji: tc.Emoji}
		t.tagNames = append(t.tagNames, name)
	}
	for name, tc := range cfg.Tags {
		alias := strings.TrimSpace(tc.RenameFrom)
		if alias == "" {
			continue
		}
		if prev, exists := t.tags[alias]; exists {
			return nil, fmt.Errorf("tag alias %q for %q collides with %q", alias, name, prev.Name)
		}
		t.tags[alias] = t.tags[name]
	}

	sort.Slice(t.dormNames, func(i, j int) bool {
		return strings.ToLower(t.dormNames[i]) < strings.ToLower(t.dormNames[j])
	})
	sort.Strings(t.tagNames)

	return t, nil
}

// ResolveDorm resolves raw dorm text to a canonical dorm.
func (t *Tables) ResolveDorm(text string) (Dorm, bool) {
	d, ok := t.dorms[strings.TrimSpace(text)]
	return d, ok
}

// ResolveGroup resolves raw group text within the given canonical dorm.
func (t *Tables) ResolveGroup(dorm, text string) (Group, bool) {
	byName, ok := t.groups[dorm]
	if !ok {
		return Group{}, false
	}
	g, ok := byName[strings.TrimSpace(text)]
	return g, ok
}

// ResolveGroupAny searches every dorm's groups for the given text. This
// backs the dorm column fallback: a row may name a group instead of its
// dorm. Dorms are scanned in canonical order so the result is
// deterministic even if two dorms declare the same group name.
func (t *Tables) ResolveGroupAny(text string) (Group, bool) {
	trimmed := strings.TrimSpace(text)
	for _, dorm := range t.dormNames {
		if g, ok := t.groups[dorm][trimmed]; ok {
			return g, true
		}
	}
	return Group{}, false
}

// ResolveTag resolves raw tag text to a canonical tag.
func (t *Tables) ResolveTag(text string) (Tag, bool) {
	tag, ok := t.tags[strings.TrimSpace(text)]
	return tag, ok
}

// DormNames returns canonical dorm names sorted case-insensitively,
// excluding the orientation pseudo-dorm.
func (t *Tables) DormNames() []string {
	return t.dormNames
}

// TagNames returns canonical tag names, sorted.
func (t *Tables) TagNames() []string {
	return t.tagNames
}

// GroupNames returns the canonical group names declared under a dorm,
// sorted case-insensitively.
func (t *Tables) GroupNames(dorm string) []string {
	seen := make(map[string]bool)
	var names []string
	for _, g := range t.groups[dorm] {
		if !seen[g.Name] {
			seen[g.Name] = true
			names = append(names, g.Name)
		}
	}
	sort.Slice(names, func(i, j int) bool {
		return strings.ToLower(names[i]) < strings.ToLower(names[j])
	})
	return names
}
