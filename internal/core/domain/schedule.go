package domain

import (
	"fmt"
	"time"
)

const unknownDescription = "Unknown"

// DayKey identifies a day of the week in the schedule.
type DayKey string

// Days of the week, in display order.
const (
	DaySunday    DayKey = "sun"
	DayMonday    DayKey = "mon"
	DayTuesday   DayKey = "tue"
	DayWednesday DayKey = "wed"
	DayThursday  DayKey = "thu"
	DayFriday    DayKey = "fri"
	DaySaturday  DayKey = "sat"
)

// AllDayKeys returns every day key, Sunday first.
func AllDayKeys() []DayKey {
	return []DayKey{
		DaySunday, DayMonday, DayTuesday, DayWednesday,
		DayThursday, DayFriday, DaySaturday,
	}
}

// IsValid returns true if the day key is recognised.
func (d DayKey) IsValid() bool {
	switch d {
	case DaySunday, DayMonday, DayTuesday, DayWednesday, DayThursday, DayFriday, DaySaturday:
		return true
	default:
		return false
	}
}

// Label returns the full English day name.
func (d DayKey) Label() string {
	switch d {
	case DaySunday:
		return "Sunday"
	case DayMonday:
		return "Monday"
	case DayTuesday:
		return "Tuesday"
	case DayWednesday:
		return "Wednesday"
	case DayThursday:
		return "Thursday"
	case DayFriday:
		return "Friday"
	case DaySaturday:
		return "Saturday"
	default:
		return unknownDescription
	}
}

// WeekStart is the first day shown in the exported week.
type WeekStart string

// Supported week starts.
const (
	WeekStartSunday WeekStart = "sun"
	WeekStartMonday WeekStart = "mon"
)

// IsValid returns true if the week start is recognised.
func (w WeekStart) IsValid() bool {
	return w == WeekStartSunday || w == WeekStartMonday
}

// TemplateID names a layout template for the exported graphic.
type TemplateID string

// TemplateElegantBlue is the only template currently shipped.
const TemplateElegantBlue TemplateID = "ElegantBlue"

// IsValid returns true if the template is recognised.
func (t TemplateID) IsValid() bool {
	return t == TemplateElegantBlue
}

// DefaultExportScale is the pixel ratio used when exporting the graphic.
const DefaultExportScale = 2

// DayPlan is the schedule entry for a single day.
type DayPlan struct {
	Enabled  bool   `json:"enabled"`
	GameName string `json:"gameName"`
	// Time is a 24h wall clock time, e.g. "20:00".
	Time string `json:"time"`
	// Timezone is an IANA zone name, e.g. "America/New_York".
	Timezone   string `json:"timezone"`
	LogoURL    Asset  `json:"logoUrl,omitzero"`
	GraphicURL Asset  `json:"graphicUrl,omitzero"`
}

// WeekPlan is the week being composed.
type WeekPlan struct {
	// WeekAnchorDate is an ISO date (YYYY-MM-DD) of any day within the week.
	WeekAnchorDate string             `json:"weekAnchorDate"`
	WeekStart      WeekStart          `json:"weekStart"`
	Days           map[DayKey]DayPlan `json:"days"`
}

// ConfigState is the persisted application configuration tree.
type ConfigState struct {
	Week        WeekPlan   `json:"week"`
	Template    TemplateID `json:"template"`
	HeroURL     Asset      `json:"heroUrl,omitzero"`
	ExportScale float64    `json:"exportScale"`
	WeekStart   WeekStart  `json:"weekStart"`
}

// DefaultDay returns an empty, disabled day in the local timezone.
func DefaultDay() DayPlan {
	return DayPlan{
		Timezone: LocalTimezone(),
	}
}

// DefaultDays returns a fresh default record for every day of the week.
func DefaultDays() map[DayKey]DayPlan {
	days := make(map[DayKey]DayPlan, 7)
	for _, key := range AllDayKeys() {
		days[key] = DefaultDay()
	}
	return days
}

// DefaultConfig returns the default configuration anchored on today.
func DefaultConfig() ConfigState {
	return DefaultConfigAt(time.Now())
}

// DefaultConfigAt returns the default configuration anchored on now.
func DefaultConfigAt(now time.Time) ConfigState {
	return ConfigState{
		Week: WeekPlan{
			WeekAnchorDate: now.UTC().Format(time.DateOnly),
			WeekStart:      WeekStartMonday,
			Days:           DefaultDays(),
		},
		Template:    TemplateElegantBlue,
		ExportScale: DefaultExportScale,
		WeekStart:   WeekStartMonday,
	}
}

// LocalTimezone returns the IANA name of the local zone, or UTC when the
// process has no named zone.
func LocalTimezone() string {
	name := time.Local.String()
	if name == "" || name == "Local" {
		return "UTC"
	}
	return name
}

// Clone returns a deep copy of the state.
func (c ConfigState) Clone() ConfigState {
	out := c
	out.HeroURL = c.HeroURL.Clone()
	if c.Week.Days != nil {
		out.Week.Days = make(map[DayKey]DayPlan, len(c.Week.Days))
		for key, day := range c.Week.Days {
			day.LogoURL = day.LogoURL.Clone()
			day.GraphicURL = day.GraphicURL.Clone()
			out.Week.Days[key] = day
		}
	}
	return out
}

// Day returns the plan for key, or the default day if none is set.
func (c *ConfigState) Day(key DayKey) DayPlan {
	if day, ok := c.Week.Days[key]; ok {
		return day
	}
	return DefaultDay()
}

// SetDay replaces the plan for key.
func (c *ConfigState) SetDay(key DayKey, day DayPlan) error {
	if !key.IsValid() {
		return fmt.Errorf("%w: unknown day %q", ErrInvalidInput, key)
	}
	if c.Week.Days == nil {
		c.Week.Days = DefaultDays()
	}
	c.Week.Days[key] = day
	return nil
}

// UpdateDay applies patch to the plan for key.
func (c *ConfigState) UpdateDay(key DayKey, patch func(*DayPlan)) error {
	day := c.Day(key)
	patch(&day)
	return c.SetDay(key, day)
}

// ResetDays restores every day to its default record.
// Week-level settings and the hero image are kept.
func (c *ConfigState) ResetDays() {
	c.Week.Days = DefaultDays()
}

// SetWeekStart updates both the top-level and week-level start day.
func (c *ConfigState) SetWeekStart(start WeekStart) error {
	if !start.IsValid() {
		return fmt.Errorf("%w: unknown week start %q", ErrInvalidInput, start)
	}
	c.WeekStart = start
	c.Week.WeekStart = start
	return nil
}

// SetExportScale updates the export pixel ratio.
func (c *ConfigState) SetExportScale(scale float64) error {
	if scale <= 0 {
		return fmt.Errorf("%w: export scale must be positive, got %v", ErrInvalidInput, scale)
	}
	c.ExportScale = scale
	return nil
}

// Assets returns every binary-capable field paired with its path.
func (c *ConfigState) Assets() map[string]Asset {
	out := map[string]Asset{HeroField().String(): c.HeroURL}
	for _, key := range AllDayKeys() {
		day := c.Day(key)
		out[DayLogoField(key).String()] = day.LogoURL
		out[DayGraphicField(key).String()] = day.GraphicURL
	}
	return out
}
