package models

const (
	StatusPending   = "pending"
	StatusConfirmed = "confirmed"
	StatusSeated    = "seated"
	StatusFinished  = "finished"
	StatusNoShow    = "no_show"
	StatusCancelled = "cancelled"
)

const (
	PriorityStandard   = "standard"
	PriorityVIP        = "vip"
	PriorityLargeGroup = "large_group"
)

const (
	ViewModeDay      = "day"
	ViewModeThreeDay = "three_day"
	ViewModeWeek     = "week"
)

const (
	// DefaultSlotMinutes is the default grid granularity.
	DefaultSlotMinutes = 15

	// DefaultStartHour and DefaultEndHour bound the default service window.
	DefaultStartHour = 10
	DefaultEndHour   = 23

	// DuplicateShiftMinutes is the start-time offset applied when a
	// reservation is duplicated.
	DuplicateShiftMinutes = 60

	// DefaultDurationMinutes is used for drafts with no duration set.
	DefaultDurationMinutes = 90

	// MaxDurationMinutes is the upper bound accepted by validation.
	MaxDurationMinutes = 360

	// MaxPartySize is the upper bound accepted by validation.
	MaxPartySize = 20

	// DefaultHistoryLimit is the undo stack depth.
	DefaultHistoryLimit = 50

	// DefaultSessionTTL is the lifetime of session UI state in Redis, seconds.
	DefaultSessionTTL = 24 * 60 * 60

	// RateLimitBurst is the default API limiter burst.
	RateLimitBurst = 5
)

// ValidStatuses lists the accepted reservation statuses in lifecycle order.
var ValidStatuses = []string{
	StatusPending,
	StatusConfirmed,
	StatusSeated,
	StatusFinished,
	StatusNoShow,
	StatusCancelled,
}

// IsValidStatus reports whether s is a known reservation status.
func IsValidStatus(s string) bool {
	for _, v := range ValidStatuses {
		if v == s {
			return true
		}
	}
	return false
}
