// Package timeslot maps wall-clock times on a service date to integer slot
// indices within a configured service window, and back.
package timeslot

import "time"

const dateLayout = "2006-01-02"

// Window describes a service window: slots start at StartHour and the last
// slot boundary lies strictly before EndHour.
type Window struct {
	StartHour   int
	EndHour     int
	SlotMinutes int
}

// ServiceStart returns the first slot boundary on the given date.
// A malformed date yields the zero time, which propagates to callers.
func (w Window) ServiceStart(date string) time.Time {
	day, err := time.Parse(dateLayout, date)
	if err != nil {
		return time.Time{}
	}
	return day.Add(time.Duration(w.StartHour) * time.Hour)
}

// SlotsForDate returns every slot boundary between StartHour and EndHour at
// SlotMinutes granularity, ascending. Boundaries at or after EndHour are not
// produced.
func (w Window) SlotsForDate(date string) []time.Time {
	if w.SlotMinutes <= 0 {
		return nil
	}
	start := w.ServiceStart(date)
	if start.IsZero() {
		return nil
	}
	end := start.Add(time.Duration(w.EndHour-w.StartHour) * time.Hour)

	var slots []time.Time
	for t := start; t.Before(end); t = t.Add(time.Duration(w.SlotMinutes) * time.Minute) {
		slots = append(slots, t)
	}
	return slots
}

// TimeToSlotIndex converts a time to its slot index on the given date.
// There is no bounds clamping: times outside the service window return
// negative or past-the-end indices. That is the contract, not an error.
func (w Window) TimeToSlotIndex(t time.Time, date string) int {
	if w.SlotMinutes <= 0 {
		return 0
	}
	offset := t.Sub(w.ServiceStart(date))
	slot := time.Duration(w.SlotMinutes) * time.Minute
	idx := offset / slot
	if offset < 0 && offset%slot != 0 {
		idx-- // floor, not truncation, for negative offsets
	}
	return int(idx)
}

// SlotIndexToTime is the exact inverse of TimeToSlotIndex for integral
// indices.
func (w Window) SlotIndexToTime(index int, date string) time.Time {
	return w.ServiceStart(date).Add(time.Duration(index*w.SlotMinutes) * time.Minute)
}

// MinutesToSlots truncates toward zero; callers needing exact durations must
// keep the original minute value (the reservation entity does).
func (w Window) MinutesToSlots(minutes int) int {
	if w.SlotMinutes <= 0 {
		return 0
	}
	return minutes / w.SlotMinutes
}

// SlotsToMinutes converts a slot count back to minutes.
func (w Window) SlotsToMinutes(slots int) int {
	return slots * w.SlotMinutes
}
