package models

// TimelineConfig is the process-wide grid configuration: the active service
// date, the service-hour window, slot granularity and view mode.
type TimelineConfig struct {
	Date        string `json:"date" yaml:"date"` // YYYY-MM-DD
	StartHour   int    `json:"start_hour" yaml:"start_hour"`
	EndHour     int    `json:"end_hour" yaml:"end_hour"`
	SlotMinutes int    `json:"slot_minutes" yaml:"slot_minutes"`
	ViewMode    string `json:"view_mode" yaml:"view_mode"`
}

// TimelineConfigPatch shallow-merges into an existing TimelineConfig.
// No validation of the resulting hour ordering happens here; that is the
// caller's responsibility.
type TimelineConfigPatch struct {
	Date        *string `json:"date,omitempty"`
	StartHour   *int    `json:"start_hour,omitempty"`
	EndHour     *int    `json:"end_hour,omitempty"`
	SlotMinutes *int    `json:"slot_minutes,omitempty"`
	ViewMode    *string `json:"view_mode,omitempty"`
}

func (p TimelineConfigPatch) Apply(c *TimelineConfig) {
	if p.Date != nil {
		c.Date = *p.Date
	}
	if p.StartHour != nil {
		c.StartHour = *p.StartHour
	}
	if p.EndHour != nil {
		c.EndHour = *p.EndHour
	}
	if p.SlotMinutes != nil {
		c.SlotMinutes = *p.SlotMinutes
	}
	if p.ViewMode != nil {
		c.ViewMode = *p.ViewMode
	}
}
