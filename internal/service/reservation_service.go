package service

import (
	"time"

	"tably/internal/domain"
	"tably/internal/events"
	"tably/internal/history"
	"tably/internal/models"
	"tably/internal/store"
	"tably/internal/timeslot"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// EditContext carries the fields a presentation layer needs to open a
// reservation for editing.
type EditContext struct {
	ID              string    `json:"id"`
	TableID         string    `json:"table_id"`
	StartTime       time.Time `json:"start_time"`
	DurationMinutes int       `json:"duration_minutes"`
}

// ReservationService composes store primitives into user-facing actions.
// Every mutating action pushes one history snapshot first, so each action
// is undoable as a unit.
type ReservationService struct {
	store    *store.Store
	history  *history.History
	eventBus domain.EventPublisher
	logger   *zerolog.Logger

	newID func() string
	now   func() time.Time
}

func NewReservationService(st *store.Store, hist *history.History, eventBus domain.EventPublisher, logger *zerolog.Logger) *ReservationService {
	return &ReservationService{
		store:    st,
		history:  hist,
		eventBus: eventBus,
		logger:   logger,
		newID:    uuid.NewString,
		now:      time.Now,
	}
}

// SaveToHistory snapshots the current state onto the undo stack.
func (s *ReservationService) SaveToHistory() {
	s.history.Push(s.store.Snapshot())
}

// Create assigns an identifier and timestamps when missing, inserts the
// reservation and publishes a created event.
func (s *ReservationService) Create(r models.Reservation) models.Reservation {
	s.SaveToHistory()

	if r.ID == "" {
		r.ID = s.newID()
	}
	now := s.now()
	if r.CreatedAt.IsZero() {
		r.CreatedAt = now
	}
	r.UpdatedAt = now
	if r.Status == "" {
		r.Status = models.StatusPending
	}
	if r.Priority == "" {
		r.Priority = models.PriorityStandard
	}
	if r.EndTime.IsZero() && r.DurationMinutes > 0 {
		r.EndTime = r.StartTime.Add(time.Duration(r.DurationMinutes) * time.Minute)
	}

	s.store.AddReservation(r)
	s.publish(events.EventReservationCreated, r)
	return r
}

// Update merges the patch into the reservation. Unknown ids fall through to
// the store's silent no-op.
func (s *ReservationService) Update(id string, patch models.ReservationPatch) {
	s.SaveToHistory()
	s.store.UpdateReservation(id, patch)
	if r, ok := s.store.Reservation(id); ok {
		s.publish(events.EventReservationUpdated, r)
	}
}

// ChangeStatus sets exactly the status field.
func (s *ReservationService) ChangeStatus(id, status string) {
	s.SaveToHistory()
	s.store.UpdateReservation(id, models.ReservationPatch{Status: &status})
	if r, ok := s.store.Reservation(id); ok {
		s.publish(events.EventReservationStatusChanged, r)
	}
}

// MarkNoShow is ChangeStatus specialized to no_show.
func (s *ReservationService) MarkNoShow(id string) {
	s.ChangeStatus(id, models.StatusNoShow)
}

// Cancel is ChangeStatus specialized to cancelled.
func (s *ReservationService) Cancel(id string) {
	s.ChangeStatus(id, models.StatusCancelled)
}

// Duplicate inserts a copy of the reservation shifted by the fixed offset,
// with a fresh identifier and timestamps, and selects the copy as the sole
// selection. The original is not mutated.
func (s *ReservationService) Duplicate(id string) (models.Reservation, bool) {
	original, ok := s.store.Reservation(id)
	if !ok {
		return models.Reservation{}, false
	}

	s.SaveToHistory()
	dup := s.duplicateOf(original)
	s.store.AddReservation(dup)
	s.store.SelectReservation(dup.ID, false)
	s.publish(events.EventReservationCreated, dup)
	return dup, true
}

// DuplicateBatch applies the duplicate transform to every id. History is
// snapshotted once for the whole batch and nothing is auto-selected.
// Unknown ids are skipped.
func (s *ReservationService) DuplicateBatch(ids []string) []models.Reservation {
	originals := make([]models.Reservation, 0, len(ids))
	for _, id := range ids {
		if r, ok := s.store.Reservation(id); ok {
			originals = append(originals, r)
		}
	}
	if len(originals) == 0 {
		return nil
	}

	s.SaveToHistory()
	dups := make([]models.Reservation, 0, len(originals))
	for _, original := range originals {
		dup := s.duplicateOf(original)
		s.store.AddReservation(dup)
		s.publish(events.EventReservationCreated, dup)
		dups = append(dups, dup)
	}
	return dups
}

func (s *ReservationService) duplicateOf(original models.Reservation) models.Reservation {
	dup := original
	dup.ID = s.newID()
	dup.StartTime = original.StartTime.Add(models.DuplicateShiftMinutes * time.Minute)
	dup.EndTime = dup.StartTime.Add(time.Duration(original.DurationMinutes) * time.Minute)
	now := s.now()
	dup.CreatedAt = now
	dup.UpdatedAt = now
	return dup
}

// Delete removes one reservation.
func (s *ReservationService) Delete(id string) {
	s.DeleteBatch([]string{id})
}

// DeleteBatch removes all given reservations under one history snapshot and
// returns how many actually existed. Unknown ids are skipped, and a batch of
// only unknown ids touches neither the store nor the history.
func (s *ReservationService) DeleteBatch(ids []string) int {
	existing := make([]models.Reservation, 0, len(ids))
	for _, id := range ids {
		if r, ok := s.store.Reservation(id); ok {
			existing = append(existing, r)
		}
	}
	if len(existing) == 0 {
		return 0
	}

	s.SaveToHistory()
	for _, r := range existing {
		s.publish(events.EventReservationDeleted, r)
	}
	s.store.DeleteReservations(ids)
	return len(existing)
}

// Copy places the given reservations into the store clipboard. Copying does
// not mutate the timeline, so no history snapshot is taken.
func (s *ReservationService) Copy(ids []string) int {
	buffer := make([]models.Reservation, 0, len(ids))
	for _, id := range ids {
		if r, ok := s.store.Reservation(id); ok {
			buffer = append(buffer, r)
		}
	}
	s.store.SetClipboard(buffer)
	return len(buffer)
}

// Paste inserts the clipboard at the start time of the first currently
// selected reservation, or at the start of service on the active date when
// nothing is selected.
func (s *ReservationService) Paste() []models.Reservation {
	if len(s.store.Clipboard()) == 0 {
		return nil
	}

	target := s.defaultPasteTarget()
	if selected := s.store.SelectedIDs(); len(selected) > 0 {
		if r, ok := s.store.Reservation(selected[0]); ok {
			target = r.StartTime
		}
	}

	s.SaveToHistory()
	pasted := s.store.PasteClipboard(target)
	for _, r := range pasted {
		s.publish(events.EventReservationPasted, r)
	}
	return pasted
}

func (s *ReservationService) defaultPasteTarget() time.Time {
	cfg := s.store.Config()
	w := timeslot.Window{StartHour: cfg.StartHour, EndHour: cfg.EndHour, SlotMinutes: cfg.SlotMinutes}
	return w.ServiceStart(cfg.Date)
}

// Edit resolves the context a presentation layer needs to edit the
// reservation.
func (s *ReservationService) Edit(id string) (EditContext, bool) {
	r, ok := s.store.Reservation(id)
	if !ok {
		return EditContext{}, false
	}
	return EditContext{
		ID:              r.ID,
		TableID:         r.TableID,
		StartTime:       r.StartTime,
		DurationMinutes: r.DurationMinutes,
	}, true
}

// Undo restores the previous snapshot; the replaced state becomes redoable.
func (s *ReservationService) Undo() bool {
	state, ok := s.history.Undo(s.store.Snapshot())
	if !ok {
		return false
	}
	s.store.Restore(state)
	return true
}

// Redo reverses the most recent undo.
func (s *ReservationService) Redo() bool {
	state, ok := s.history.Redo(s.store.Snapshot())
	if !ok {
		return false
	}
	s.store.Restore(state)
	return true
}

func (s *ReservationService) publish(eventType string, r models.Reservation) {
	if s.eventBus == nil {
		return
	}

	payload := events.ReservationEventPayload{
		ReservationID: r.ID,
		TableID:       r.TableID,
		CustomerName:  r.Customer.Name,
		CustomerPhone: r.Customer.Phone,
		PartySize:     r.PartySize,
		StartTime:     r.StartTime,
		Status:        r.Status,
		Priority:      r.Priority,
	}

	if err := s.eventBus.PublishJSON(eventType, payload); err != nil {
		s.logger.Error().Err(err).Str("event_type", eventType).Str("reservation_id", r.ID).Msg("publish event error")
	}
}
