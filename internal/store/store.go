// Package store holds the single source of truth for timeline data and UI
// selection/filter state. All mutations go through the Store's methods and
// every read hands out a snapshot copy, so no caller ever shares mutable
// state with another.
package store

import (
	"strings"
	"sync"
	"time"

	"tably/internal/models"

	"github.com/google/uuid"
)

// State is one complete timeline state: entity collections plus transient
// UI selection/filter fields. It is always copied wholesale across the
// Store boundary.
type State struct {
	Config           models.TimelineConfig `json:"config"`
	Sectors          []models.Sector       `json:"sectors"`
	Tables           []models.Table        `json:"tables"`
	Reservations     []models.Reservation  `json:"reservations"`
	SelectedIDs      []string              `json:"selected_ids"`
	SelectedSectors  []string              `json:"selected_sectors"`
	SelectedStatuses []string              `json:"selected_statuses"`
	CollapsedSectors []string              `json:"collapsed_sectors"`
	SearchQuery      string                `json:"search_query"`
	Zoom             float64               `json:"zoom"`
	Clipboard        []models.Reservation  `json:"clipboard,omitempty"`
}

func (s State) clone() State {
	out := s
	out.Sectors = append([]models.Sector(nil), s.Sectors...)
	out.Tables = append([]models.Table(nil), s.Tables...)
	out.Reservations = append([]models.Reservation(nil), s.Reservations...)
	out.SelectedIDs = append([]string(nil), s.SelectedIDs...)
	out.SelectedSectors = append([]string(nil), s.SelectedSectors...)
	out.SelectedStatuses = append([]string(nil), s.SelectedStatuses...)
	out.CollapsedSectors = append([]string(nil), s.CollapsedSectors...)
	out.Clipboard = append([]models.Reservation(nil), s.Clipboard...)
	return out
}

// Store serializes all state transitions behind one mutex, so concurrent
// HTTP handlers behave like a single logical actor and every mutation is
// atomic.
type Store struct {
	mu        sync.RWMutex
	state     State
	lastStamp time.Time

	now   func() time.Time
	newID func() string
}

func New(cfg models.TimelineConfig) *Store {
	return &Store{
		state: State{Config: cfg, Zoom: 1.0},
		now:   time.Now,
		newID: uuid.NewString,
	}
}

// Snapshot returns an independent copy of the full state.
func (s *Store) Snapshot() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.clone()
}

// Restore replaces the full state, used by undo/redo.
func (s *Store) Restore(state State) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = state.clone()
}

// Config returns the current timeline configuration.
func (s *Store) Config() models.TimelineConfig {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Config
}

// SetConfig shallow-merges the patch into the timeline configuration.
// The resulting start/end hour ordering is not validated here.
func (s *Store) SetConfig(patch models.TimelineConfigPatch) {
	s.mu.Lock()
	defer s.mu.Unlock()
	patch.Apply(&s.state.Config)
}

func (s *Store) SetSectors(sectors []models.Sector) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Sectors = append([]models.Sector(nil), sectors...)
}

func (s *Store) SetTables(tables []models.Table) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Tables = append([]models.Table(nil), tables...)
}

func (s *Store) SetReservations(reservations []models.Reservation) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Reservations = append([]models.Reservation(nil), reservations...)
}

// AddReservation appends to the collection. Identifier uniqueness and
// conflict-freedom are the caller's responsibility.
func (s *Store) AddReservation(r models.Reservation) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Reservations = append(s.state.Reservations, r)
}

// UpdateReservation merges the patch into the reservation with the given id
// and stamps UpdatedAt with a strictly increasing time. An unknown id is a
// silent no-op; every other reservation is left untouched.
func (s *Store) UpdateReservation(id string, patch models.ReservationPatch) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.state.Reservations {
		if s.state.Reservations[i].ID != id {
			continue
		}
		updated := s.state.Reservations[i]
		patch.Apply(&updated)
		updated.UpdatedAt = s.nextStamp()

		next := append([]models.Reservation(nil), s.state.Reservations...)
		next[i] = updated
		s.state.Reservations = next
		return
	}
}

// DeleteReservation removes the reservation and drops its id from the
// selection set in the same transition.
func (s *Store) DeleteReservation(id string) {
	s.DeleteReservations([]string{id})
}

// DeleteReservations removes all matching reservations and their ids from
// the selection set atomically; no intermediate state is observable.
func (s *Store) DeleteReservations(ids []string) {
	if len(ids) == 0 {
		return
	}
	drop := make(map[string]bool, len(ids))
	for _, id := range ids {
		drop[id] = true
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	kept := make([]models.Reservation, 0, len(s.state.Reservations))
	for _, r := range s.state.Reservations {
		if !drop[r.ID] {
			kept = append(kept, r)
		}
	}
	s.state.Reservations = kept

	selected := make([]string, 0, len(s.state.SelectedIDs))
	for _, id := range s.state.SelectedIDs {
		if !drop[id] {
			selected = append(selected, id)
		}
	}
	s.state.SelectedIDs = selected
}

// SelectReservation replaces the selection with {id} when multi is false,
// and toggles membership of id when multi is true. Order is preserved for
// multi-select.
func (s *Store) SelectReservation(id string, multi bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !multi {
		s.state.SelectedIDs = []string{id}
		return
	}

	for i, existing := range s.state.SelectedIDs {
		if existing == id {
			s.state.SelectedIDs = append(
				append([]string(nil), s.state.SelectedIDs[:i]...),
				s.state.SelectedIDs[i+1:]...,
			)
			return
		}
	}
	s.state.SelectedIDs = append(append([]string(nil), s.state.SelectedIDs...), id)
}

func (s *Store) ClearSelection() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.SelectedIDs = nil
}

// SelectedIDs returns a copy of the current selection in order.
func (s *Store) SelectedIDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.state.SelectedIDs...)
}

func (s *Store) SetZoom(zoom float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Zoom = zoom
}

func (s *Store) SetSelectedSectors(ids []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.SelectedSectors = append([]string(nil), ids...)
}

func (s *Store) SetSelectedStatuses(statuses []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.SelectedStatuses = append([]string(nil), statuses...)
}

func (s *Store) SetSearchQuery(query string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.SearchQuery = query
}

func (s *Store) ToggleSectorCollapse(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, existing := range s.state.CollapsedSectors {
		if existing == id {
			s.state.CollapsedSectors = append(
				append([]string(nil), s.state.CollapsedSectors[:i]...),
				s.state.CollapsedSectors[i+1:]...,
			)
			return
		}
	}
	s.state.CollapsedSectors = append(append([]string(nil), s.state.CollapsedSectors...), id)
}

// SetClipboard stores copies of the given reservations in the clipboard
// value slot.
func (s *Store) SetClipboard(reservations []models.Reservation) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Clipboard = append([]models.Reservation(nil), reservations...)
}

// Clipboard returns a copy of the clipboard contents.
func (s *Store) Clipboard() []models.Reservation {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.Reservation(nil), s.state.Clipboard...)
}

// PasteClipboard inserts copies of the clipboard reservations rebased so
// that the earliest buffered start lands on targetStart. Relative offsets
// between buffered reservations are kept; every copy gets a fresh
// identifier and timestamps. Returns the inserted reservations.
func (s *Store) PasteClipboard(targetStart time.Time) []models.Reservation {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.state.Clipboard) == 0 {
		return nil
	}

	earliest := s.state.Clipboard[0].StartTime
	for _, r := range s.state.Clipboard[1:] {
		if r.StartTime.Before(earliest) {
			earliest = r.StartTime
		}
	}
	shift := targetStart.Sub(earliest)

	pasted := make([]models.Reservation, 0, len(s.state.Clipboard))
	for _, r := range s.state.Clipboard {
		copyRes := r
		copyRes.ID = s.newID()
		copyRes.StartTime = r.StartTime.Add(shift)
		copyRes.EndTime = copyRes.StartTime.Add(time.Duration(r.DurationMinutes) * time.Minute)
		stamp := s.nextStamp()
		copyRes.CreatedAt = stamp
		copyRes.UpdatedAt = stamp
		pasted = append(pasted, copyRes)
	}

	s.state.Reservations = append(append([]models.Reservation(nil), s.state.Reservations...), pasted...)
	return pasted
}

// Reservation looks a reservation up by id.
func (s *Store) Reservation(id string) (models.Reservation, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, r := range s.state.Reservations {
		if r.ID == id {
			return r, true
		}
	}
	return models.Reservation{}, false
}

// VisibleReservations applies the current sector/status filters and search
// query and returns the matching reservations.
func (s *Store) VisibleReservations() []models.Reservation {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sectorOf := make(map[string]string, len(s.state.Tables))
	for _, t := range s.state.Tables {
		sectorOf[t.ID] = t.SectorID
	}

	sectors := toSet(s.state.SelectedSectors)
	statuses := toSet(s.state.SelectedStatuses)
	query := strings.ToLower(strings.TrimSpace(s.state.SearchQuery))

	var out []models.Reservation
	for _, r := range s.state.Reservations {
		if len(sectors) > 0 && !sectors[sectorOf[r.TableID]] {
			continue
		}
		if len(statuses) > 0 && !statuses[r.Status] {
			continue
		}
		if query != "" && !matchesQuery(r, query) {
			continue
		}
		out = append(out, r)
	}
	return out
}

func matchesQuery(r models.Reservation, query string) bool {
	return strings.Contains(strings.ToLower(r.Customer.Name), query) ||
		strings.Contains(strings.ToLower(r.Customer.Phone), query) ||
		strings.Contains(strings.ToLower(r.Customer.Email), query) ||
		strings.Contains(strings.ToLower(r.Notes), query)
}

func toSet(values []string) map[string]bool {
	set := make(map[string]bool, len(values))
	for _, v := range values {
		set[v] = true
	}
	return set
}

// nextStamp returns a strictly increasing timestamp. Callers hold the mutex.
func (s *Store) nextStamp() time.Time {
	stamp := s.now()
	if !stamp.After(s.lastStamp) {
		stamp = s.lastStamp.Add(time.Nanosecond)
	}
	s.lastStamp = stamp
	return stamp
}
