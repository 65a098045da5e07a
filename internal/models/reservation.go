package models

import "time"

// Customer is embedded in a reservation, not a standalone entity.
type Customer struct {
	Name  string `json:"name" yaml:"name"`
	Phone string `json:"phone" yaml:"phone"`
	Email string `json:"email,omitempty" yaml:"email,omitempty"`
	Notes string `json:"notes,omitempty" yaml:"notes,omitempty"`
}

type Reservation struct {
	ID              string    `json:"id"`
	TableID         string    `json:"table_id"`
	Customer        Customer  `json:"customer"`
	PartySize       int       `json:"party_size"`
	StartTime       time.Time `json:"start_time"`
	EndTime         time.Time `json:"end_time"`
	DurationMinutes int       `json:"duration_minutes"`
	Status          string    `json:"status"` // pending, confirmed, seated, finished, no_show, cancelled
	Priority        string    `json:"priority"`
	Notes           string    `json:"notes,omitempty"`
	Source          string    `json:"source,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// ReservationPatch carries the fields of a partial update. Nil pointers
// leave the corresponding reservation field untouched.
type ReservationPatch struct {
	TableID         *string    `json:"table_id,omitempty"`
	Customer        *Customer  `json:"customer,omitempty"`
	PartySize       *int       `json:"party_size,omitempty"`
	StartTime       *time.Time `json:"start_time,omitempty"`
	EndTime         *time.Time `json:"end_time,omitempty"`
	DurationMinutes *int       `json:"duration_minutes,omitempty"`
	Status          *string    `json:"status,omitempty"`
	Priority        *string    `json:"priority,omitempty"`
	Notes           *string    `json:"notes,omitempty"`
	Source          *string    `json:"source,omitempty"`
}

// Apply merges the non-nil patch fields into the reservation.
// UpdatedAt stamping is the store's responsibility, not the patch's.
func (p ReservationPatch) Apply(r *Reservation) {
	if p.TableID != nil {
		r.TableID = *p.TableID
	}
	if p.Customer != nil {
		r.Customer = *p.Customer
	}
	if p.PartySize != nil {
		r.PartySize = *p.PartySize
	}
	if p.StartTime != nil {
		r.StartTime = *p.StartTime
	}
	if p.EndTime != nil {
		r.EndTime = *p.EndTime
	}
	if p.DurationMinutes != nil {
		r.DurationMinutes = *p.DurationMinutes
	}
	if p.Status != nil {
		r.Status = *p.Status
	}
	if p.Priority != nil {
		r.Priority = *p.Priority
	}
	if p.Notes != nil {
		r.Notes = *p.Notes
	}
	if p.Source != nil {
		r.Source = *p.Source
	}
}
