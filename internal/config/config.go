package config

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// ErrInvalidConfig wraps every configuration validation failure so callers
// can distinguish a bad config file from I/O errors.
var ErrInvalidConfig = errors.New("invalid config")

const dateLayout = "2006-01-02"

// hexColor accepts #RGB and #RRGGBB forms.
var hexColor = regexp.MustCompile(`^#(?:[0-9a-fA-F]{3}|[0-9a-fA-F]{6})$`)

// GroupConfig describes a subcommunity within a dorm (e.g. a floor or
// living community that runs its own events).
type GroupConfig struct {
	// Color is a representative hex color used on the website and legend.
	Color string `yaml:"color"`

	// RenameFrom is an alternate historical or mis-typed name that should
	// resolve to this group.
	RenameFrom string `yaml:"rename_from,omitempty"`
}

// DormConfig describes one dorm and its groups.
type DormConfig struct {
	Color string `yaml:"color"`

	// Contact is the address that receives this dorm's problem report.
	Contact string `yaml:"contact"`

	// RenameFrom is an alternate name that should resolve to this dorm.
	RenameFrom string `yaml:"rename_from,omitempty"`

	// RenameTo, when set, replaces the canonical name for display in the
	// booklet and the feed.
	RenameTo string `yaml:"rename_to,omitempty"`

	// Groups maps group canonical names to their configuration.
	Groups map[string]GroupConfig `yaml:"groups,omitempty"`

	// IncludeOnCover controls whether the dorm appears on the booklet cover.
	IncludeOnCover bool `yaml:"include_on_cover"`
}

// TagConfig describes one event tag.
type TagConfig struct {
	Color string `yaml:"color"`

	// Emoji is shown next to the tag name in the booklet.
	Emoji string `yaml:"emoji,omitempty"`

	RenameFrom string `yaml:"rename_from,omitempty"`
}

// DatesConfig is the orientation week date window.
type DatesConfig struct {
	Start string `yaml:"start"`
	End   string `yaml:"end"`

	// HourCutoff is the hour in [0,24) before which an event is attributed
	// to the previous calendar day in the booklet.
	HourCutoff int `yaml:"hour_cutoff"`

	// StartDate / EndDate are filled by Validate from Start / End.
	StartDate time.Time `yaml:"-"`
	EndDate   time.Time `yaml:"-"`
}

// CSVConfig controls how spreadsheet rows are parsed.
type CSVConfig struct {
	// DateFormat is the Go reference layout used for the start/end columns,
	// e.g. "1/2/2006 15:04:05".
	DateFormat string `yaml:"date_format"`

	// Timezone is the IANA zone events are interpreted and displayed in.
	Timezone string `yaml:"timezone"`

	// Location is filled by Validate from Timezone.
	Location *time.Location `yaml:"-"`
}

// OrientationConfig configures the mandatory orientation events.
type OrientationConfig struct {
	// FileName is the CSV holding orientation events, relative to the
	// events directory. Empty means there is no orientation file.
	FileName string `yaml:"file_name,omitempty"`

	// MandatoryTag marks mandatory (blackout) events, used for conflict
	// checking. Stored lower-cased.
	MandatoryTag string `yaml:"mandatory_tag"`

	// IncludeInBooklet controls whether orientation events are printed.
	IncludeInBooklet bool `yaml:"include_in_booklet"`
}

// Config is the full declarative configuration for one orientation season.
type Config struct {
	// Name of the season, e.g. "REX 2025".
	Name string `yaml:"name"`

	Orientation OrientationConfig     `yaml:"orientation"`
	CSV         CSVConfig             `yaml:"csv"`
	Dates       DatesConfig           `yaml:"dates"`
	Dorms       map[string]DormConfig `yaml:"dorms"`
	Tags        map[string]TagConfig  `yaml:"tags"`
}

// Load reads and validates configuration from the given YAML path.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Normalize fills zero values with defaults and canonicalizes fields that
// have a single valid spelling (lower-cased tags, trimmed names).
func (c *Config) Normalize() {
	if c.CSV.Timezone == "" {
		c.CSV.Timezone = "America/New_York"
	}
	if c.CSV.DateFormat == "" {
		c.CSV.DateFormat = "1/2/2006 15:04:05"
	}

	c.Orientation.MandatoryTag = strings.ToLower(strings.TrimSpace(c.Orientation.MandatoryTag))
	c.Orientation.FileName = strings.TrimSpace(c.Orientation.FileName)

	// Tag canonical names are lower-cased; rebuild the map so lookups are
	// against the canonical spelling only.
	if c.Tags != nil {
		tags := make(map[string]TagConfig, len(c.Tags))
		for name, tc := range c.Tags {
			tags[strings.ToLower(strings.TrimSpace(name))] = tc
		}
		c.Tags = tags
	}

	if c.Dorms != nil {
		dorms := make(map[string]DormConfig, len(c.Dorms))
		for name, dc := range c.Dorms {
			dorms[strings.TrimSpace(name)] = dc
		}
		c.Dorms = dorms
	}
}

// Validate checks the whole configuration and resolves derived fields
// (parsed dates, timezone location). Any failure here is fatal: the
// pipeline must not process a single row against a broken config.
func (c *Config) Validate() error {
	if c.Name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidConfig)
	}
	if c.Orientation.MandatoryTag == "" {
		return fmt.Errorf("%w: orientation.mandatory_tag is required", ErrInvalidConfig)
	}

	loc, err := time.LoadLocation(c.CSV.Timezone)
	if err != nil {
		return fmt.Errorf("%w: csv.timezone %q: %v", ErrInvalidConfig, c.CSV.Timezone, err)
	}
	c.CSV.Location = loc

	if c.Dates.HourCutoff < 0 || c.Dates.HourCutoff >= 24 {
		return fmt.Errorf("%w: dates.hour_cutoff %d outside [0,24)", ErrInvalidConfig, c.Dates.HourCutoff)
	}

	start, err := time.ParseInLocation(dateLayout, c.Dates.Start, loc)
	if err != nil {
		return fmt.Errorf("%w: dates.start %q: %v", ErrInvalidConfig, c.Dates.Start, err)
	}
	end, err := time.ParseInLocation(dateLayout, c.Dates.End, loc)
	if err != nil {
		return fmt.Errorf("%w: dates.end %q: %v", ErrInvalidConfig, c.Dates.End, err)
	}
	if end.Before(start) {
		return fmt.Errorf("%w: dates.end %s before dates.start %s", ErrInvalidConfig, c.Dates.End, c.Dates.Start)
	}
	c.Dates.StartDate = start
	c.Dates.EndDate = end

	for name, dc := range c.Dorms {
		if name == "" {
			return fmt.Errorf("%w: empty dorm name", ErrInvalidConfig)
		}
		if !hexColor.MatchString(dc.Color) {
			return fmt.Errorf("%w: dorm %q color %q is not a hex color", ErrInvalidConfig, name, dc.Color)
		}
		if dc.Contact == "" || !strings.Contains(dc.Contact, "@") {
			return fmt.Errorf("%w: dorm %q contact %q is not an address", ErrInvalidConfig, name, dc.Contact)
		}
		for gname, gc := range dc.Groups {
			if gname == "" {
				return fmt.Errorf("%w: dorm %q has a group with an empty name", ErrInvalidConfig, name)
			}
			if gc.Color != "" && !hexColor.MatchString(gc.Color) {
				return fmt.Errorf("%w: group %q in dorm %q color %q is not a hex color", ErrInvalidConfig, gname, name, gc.Color)
			}
		}
	}

	for name, tc := range c.Tags {
		if name == "" {
			return fmt.Errorf("%w: empty tag name", ErrInvalidConfig)
		}
		if !hexColor.MatchString(tc.Color) {
			return fmt.Errorf("%w: tag %q color %q is not a hex color", ErrInvalidConfig, name, tc.Color)
		}
	}

	// Exercise the date layout once so a broken format string fails at
	// load time instead of poisoning every row with timestamp problems.
	probe := time.Now().In(loc).Format(c.CSV.DateFormat)
	if _, err := time.ParseInLocation(c.CSV.DateFormat, probe, loc); err != nil {
		return fmt.Errorf("%w: csv.date_format %q does not round-trip: %v", ErrInvalidConfig, c.CSV.DateFormat, err)
	}

	return nil
}

// DormNames returns the canonical dorm names, sorted case-insensitively.
func (c *Config) DormNames() []string {
	names := make([]string, 0, len(c.Dorms))
	for name := range c.Dorms {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		return strings.ToLower(names[i]) < strings.ToLower(names[j])
	})
	return names
}

// DisplayName returns the booklet/feed name for a dorm, honoring rename_to.
func (c *Config) DisplayName(dorm string) string {
	if dc, ok := c.Dorms[dorm]; ok && dc.RenameTo != "" {
		return dc.RenameTo
	}
	return dorm
}
