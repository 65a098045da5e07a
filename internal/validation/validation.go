// Package validation is the boundary every reservation draft passes before
// it reaches the store. It reports field-addressed messages and never
// panics past the boundary; the store itself trusts validated input.
package validation

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"tably/internal/models"
)

var emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// FieldError addresses one invalid form field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Draft is a reservation form as submitted, before identifiers and
// timestamps exist.
type Draft struct {
	TableID         string          `json:"table_id"`
	Customer        models.Customer `json:"customer"`
	PartySize       int             `json:"party_size"`
	StartTime       time.Time       `json:"start_time"`
	DurationMinutes int             `json:"duration_minutes"`
	Status          string          `json:"status,omitempty"`
	Priority        string          `json:"priority,omitempty"`
	Notes           string          `json:"notes,omitempty"`
	Source          string          `json:"source,omitempty"`
}

// ValidateDraft checks the draft against the current table list and the
// configured minimum duration. An empty result means the draft may be
// handed to the store.
func ValidateDraft(d Draft, tables []models.Table, minDurationMinutes int) []FieldError {
	var errs []FieldError

	if strings.TrimSpace(d.Customer.Name) == "" {
		errs = append(errs, FieldError{Field: "customer.name", Message: "customer name is required"})
	}
	if strings.TrimSpace(d.Customer.Phone) == "" {
		errs = append(errs, FieldError{Field: "customer.phone", Message: "customer phone is required"})
	}
	if d.Customer.Email != "" && !emailPattern.MatchString(d.Customer.Email) {
		errs = append(errs, FieldError{Field: "customer.email", Message: "email address is malformed"})
	}

	if d.TableID == "" {
		errs = append(errs, FieldError{Field: "table_id", Message: "table is required"})
	}
	if d.StartTime.IsZero() {
		errs = append(errs, FieldError{Field: "start_time", Message: "start time is required"})
	}

	if d.PartySize < 1 || d.PartySize > models.MaxPartySize {
		errs = append(errs, FieldError{
			Field:   "party_size",
			Message: fmt.Sprintf("party size must be between 1 and %d", models.MaxPartySize),
		})
	} else if d.TableID != "" {
		if table, ok := findTable(tables, d.TableID); ok {
			if d.PartySize < table.MinCapacity || d.PartySize > table.MaxCapacity {
				errs = append(errs, FieldError{
					Field: "party_size",
					Message: fmt.Sprintf("party size %d is outside table %s capacity %d-%d",
						d.PartySize, table.Name, table.MinCapacity, table.MaxCapacity),
				})
			}
		} else {
			errs = append(errs, FieldError{Field: "table_id", Message: "unknown table"})
		}
	}

	if d.DurationMinutes < minDurationMinutes || d.DurationMinutes > models.MaxDurationMinutes {
		errs = append(errs, FieldError{
			Field:   "duration_minutes",
			Message: fmt.Sprintf("duration must be between %d and %d minutes", minDurationMinutes, models.MaxDurationMinutes),
		})
	}

	if d.Status != "" && !models.IsValidStatus(d.Status) {
		errs = append(errs, FieldError{Field: "status", Message: "unknown status"})
	}

	return errs
}

func findTable(tables []models.Table, id string) (models.Table, bool) {
	for _, t := range tables {
		if t.ID == id {
			return t, true
		}
	}
	return models.Table{}, false
}
