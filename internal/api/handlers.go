package api

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"tably/internal/export"
	"tably/internal/keymap"
	"tably/internal/metrics"
	"tably/internal/models"
	"tably/internal/timeslot"
	"tably/internal/validation"
)

func (s *HTTPServer) window() timeslot.Window {
	cfg := s.store.Config()
	return timeslot.Window{StartHour: cfg.StartHour, EndHour: cfg.EndHour, SlotMinutes: cfg.SlotMinutes}
}

func (s *HTTPServer) activeDate(r *http.Request) string {
	if date := strings.TrimSpace(r.URL.Query().Get("date")); date != "" {
		return date
	}
	return s.store.Config().Date
}

// GET /api/v1/slots?date=YYYY-MM-DD
func (s *HTTPServer) handleSlots(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("slots")
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	date := s.activeDate(r)
	slots := s.window().SlotsForDate(date)
	if len(slots) == 0 {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("no slots for date %q", date))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"date": date, "slots": slots})
}

// GET/PATCH /api/v1/config
func (s *HTTPServer) handleConfig(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("config")
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, s.store.Config())
	case http.MethodPatch:
		var patch models.TimelineConfigPatch
		if err := decodeJSON(r, &patch); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		s.store.SetConfig(patch)
		writeJSON(w, http.StatusOK, s.store.Config())
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

// GET /api/v1/tables
func (s *HTTPServer) handleTables(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("tables")
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	writeJSON(w, http.StatusOK, s.store.Snapshot().Tables)
}

// GET /api/v1/sectors
func (s *HTTPServer) handleSectors(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("sectors")
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	writeJSON(w, http.StatusOK, s.store.Snapshot().Sectors)
}

// POST /api/v1/sectors/{id}/collapse toggles the sector's collapsed state.
func (s *HTTPServer) handleSectorCollapse(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("sectors")
	rest := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/v1/sectors/"), "/")
	parts := strings.Split(rest, "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] != "collapse" {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	s.store.ToggleSectorCollapse(parts[0])
	collapsed := s.store.Snapshot().CollapsedSectors
	if collapsed == nil {
		collapsed = []string{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"collapsed_sectors": collapsed})
}

// GET lists visible reservations, POST creates one from a validated draft.
func (s *HTTPServer) handleReservations(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("reservations")
	switch r.Method {
	case http.MethodGet:
		reservations := s.store.VisibleReservations()
		if reservations == nil {
			reservations = []models.Reservation{}
		}
		writeJSON(w, http.StatusOK, reservations)
	case http.MethodPost:
		s.createReservation(w, r)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *HTTPServer) createReservation(w http.ResponseWriter, r *http.Request) {
	var draft validation.Draft
	if err := decodeJSON(r, &draft); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	state := s.store.Snapshot()
	if errs := validation.ValidateDraft(draft, state.Tables, s.timeline.MinDurationMinutes); len(errs) > 0 {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{"errors": errs})
		return
	}

	created := s.svc.Create(models.Reservation{
		TableID:         draft.TableID,
		Customer:        draft.Customer,
		PartySize:       draft.PartySize,
		StartTime:       draft.StartTime,
		DurationMinutes: draft.DurationMinutes,
		Status:          draft.Status,
		Priority:        draft.Priority,
		Notes:           draft.Notes,
		Source:          draft.Source,
	})
	metrics.IncAction("create")
	writeJSON(w, http.StatusCreated, created)
}

// Routes under /api/v1/reservations/: by-id operations plus the batch verbs.
func (s *HTTPServer) handleReservationByID(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("reservations")
	rest := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/v1/reservations/"), "/")
	parts := strings.Split(rest, "/")

	if parts[0] == "batch" {
		if len(parts) != 2 {
			writeError(w, http.StatusNotFound, "not found")
			return
		}
		s.handleBatch(w, r, parts[1])
		return
	}

	id := parts[0]
	if id == "" {
		writeError(w, http.StatusNotFound, "not found")
		return
	}

	if len(parts) == 2 {
		s.handleReservationVerb(w, r, id, parts[1])
		return
	}
	if len(parts) != 1 {
		writeError(w, http.StatusNotFound, "not found")
		return
	}

	switch r.Method {
	case http.MethodGet:
		reservation, ok := s.store.Reservation(id)
		if !ok {
			writeError(w, http.StatusNotFound, "reservation not found")
			return
		}
		writeJSON(w, http.StatusOK, reservation)
	case http.MethodPatch:
		var patch models.ReservationPatch
		if err := decodeJSON(r, &patch); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if patch.Status != nil && !models.IsValidStatus(*patch.Status) {
			writeError(w, http.StatusUnprocessableEntity, fmt.Sprintf("unknown status %q", *patch.Status))
			return
		}
		s.svc.Update(id, patch)
		metrics.IncAction("update")
		reservation, ok := s.store.Reservation(id)
		if !ok {
			writeError(w, http.StatusNotFound, "reservation not found")
			return
		}
		writeJSON(w, http.StatusOK, reservation)
	case http.MethodDelete:
		s.svc.Delete(id)
		metrics.IncAction("delete")
		writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *HTTPServer) handleReservationVerb(w http.ResponseWriter, r *http.Request, id, verb string) {
	switch verb {
	case "edit":
		if r.Method != http.MethodGet {
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		ctx, ok := s.svc.Edit(id)
		if !ok {
			writeError(w, http.StatusNotFound, "reservation not found")
			return
		}
		writeJSON(w, http.StatusOK, ctx)
		return
	}

	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	switch verb {
	case "status":
		var body struct {
			Status string `json:"status"`
		}
		if err := decodeJSON(r, &body); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if !models.IsValidStatus(body.Status) {
			writeError(w, http.StatusUnprocessableEntity, fmt.Sprintf("unknown status %q", body.Status))
			return
		}
		s.svc.ChangeStatus(id, body.Status)
		metrics.IncAction("status")
	case "no-show":
		s.svc.MarkNoShow(id)
		metrics.IncAction("status")
	case "cancel":
		s.svc.Cancel(id)
		metrics.IncAction("status")
	case "duplicate":
		dup, ok := s.svc.Duplicate(id)
		if !ok {
			writeError(w, http.StatusNotFound, "reservation not found")
			return
		}
		metrics.IncAction("duplicate")
		writeJSON(w, http.StatusCreated, dup)
		return
	default:
		writeError(w, http.StatusNotFound, "not found")
		return
	}

	reservation, ok := s.store.Reservation(id)
	if !ok {
		writeError(w, http.StatusNotFound, "reservation not found")
		return
	}
	writeJSON(w, http.StatusOK, reservation)
}

func (s *HTTPServer) handleBatch(w http.ResponseWriter, r *http.Request, verb string) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var body struct {
		IDs []string `json:"ids"`
	}
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(body.IDs) == 0 {
		body.IDs = s.store.SelectedIDs()
	}

	switch verb {
	case "delete":
		deleted := s.svc.DeleteBatch(body.IDs)
		metrics.IncAction("delete")
		writeJSON(w, http.StatusOK, map[string]int{"deleted": deleted})
	case "duplicate":
		dups := s.svc.DuplicateBatch(body.IDs)
		metrics.IncAction("duplicate")
		if dups == nil {
			dups = []models.Reservation{}
		}
		writeJSON(w, http.StatusCreated, dups)
	default:
		writeError(w, http.StatusNotFound, "not found")
	}
}

// POST toggles/replaces the selection, DELETE clears it, GET reads it.
func (s *HTTPServer) handleSelection(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("selection")
	switch r.Method {
	case http.MethodGet:
		ids := s.store.SelectedIDs()
		if ids == nil {
			ids = []string{}
		}
		writeJSON(w, http.StatusOK, map[string]any{"selected_ids": ids})
	case http.MethodPost:
		var body struct {
			ID    string `json:"id"`
			Multi bool   `json:"multi"`
		}
		if err := decodeJSON(r, &body); err != nil || body.ID == "" {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		s.store.SelectReservation(body.ID, body.Multi)
		writeJSON(w, http.StatusOK, map[string]any{"selected_ids": s.store.SelectedIDs()})
	case http.MethodDelete:
		s.store.ClearSelection()
		writeJSON(w, http.StatusOK, map[string]any{"selected_ids": []string{}})
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

// PUT replaces the filter and view state wholesale.
func (s *HTTPServer) handleFilters(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("filters")
	if r.Method != http.MethodPut {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var body struct {
		SelectedSectors  []string `json:"selected_sectors"`
		SelectedStatuses []string `json:"selected_statuses"`
		SearchQuery      string   `json:"search_query"`
		Zoom             *float64 `json:"zoom"`
	}
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	s.store.SetSelectedSectors(body.SelectedSectors)
	s.store.SetSelectedStatuses(body.SelectedStatuses)
	s.store.SetSearchQuery(body.SearchQuery)
	if body.Zoom != nil {
		s.store.SetZoom(*body.Zoom)
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// POST /api/v1/clipboard/copy copies the given ids, defaulting to the
// current selection. Copying never touches the undo history.
func (s *HTTPServer) handleCopy(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("clipboard")
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var body struct {
		IDs []string `json:"ids"`
	}
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(body.IDs) == 0 {
		body.IDs = s.store.SelectedIDs()
	}

	copied := s.svc.Copy(body.IDs)
	metrics.IncAction("copy")
	writeJSON(w, http.StatusOK, map[string]int{"copied": copied})
}

// POST /api/v1/clipboard/paste
func (s *HTTPServer) handlePaste(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("clipboard")
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	pasted := s.svc.Paste()
	metrics.IncAction("paste")
	metrics.SetUndoDepth(s.hist.Depth())
	if pasted == nil {
		pasted = []models.Reservation{}
	}
	writeJSON(w, http.StatusOK, pasted)
}

func (s *HTTPServer) handleUndo(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("history")
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	ok := s.svc.Undo()
	metrics.IncAction("undo")
	metrics.SetUndoDepth(s.hist.Depth())
	writeJSON(w, http.StatusOK, map[string]any{
		"undone":   ok,
		"can_undo": s.hist.CanUndo(),
		"can_redo": s.hist.CanRedo(),
	})
}

func (s *HTTPServer) handleRedo(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("history")
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	ok := s.svc.Redo()
	metrics.IncAction("redo")
	metrics.SetUndoDepth(s.hist.Depth())
	writeJSON(w, http.StatusOK, map[string]any{
		"redone":   ok,
		"can_undo": s.hist.CanUndo(),
		"can_redo": s.hist.CanRedo(),
	})
}

// GET /api/v1/export/csv?visible=true streams the reservation list.
func (s *HTTPServer) handleExportCSV(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("export")
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	state := s.store.Snapshot()
	reservations := state.Reservations
	if r.URL.Query().Get("visible") == "true" {
		reservations = s.store.VisibleReservations()
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=%q", "reservations_"+state.Config.Date+".csv"))
	if err := export.WriteCSV(w, reservations, state.Tables); err != nil {
		s.logger.Error().Err(err).Msg("csv export error")
	}
	metrics.IncAction("export_csv")
}

// GET /api/v1/export/grid streams the timeline workbook.
func (s *HTTPServer) handleExportGrid(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("export")
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	state := s.store.Snapshot()
	date := s.activeDate(r)
	window := s.window()
	if len(window.SlotsForDate(date)) == 0 {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("no slots for date %q", date))
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=%q", "timeline_"+date+".xlsx"))
	if err := export.WriteGridXLSX(w, date, state.Sectors, state.Tables, state.Reservations, window); err != nil {
		s.logger.Error().Err(err).Msg("grid export error")
	}
	metrics.IncAction("export_grid")
}

// GET /api/v1/shortcuts?category=
func (s *HTTPServer) handleShortcuts(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("shortcuts")
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	if category := r.URL.Query().Get("category"); category != "" {
		writeJSON(w, http.StatusOK, keymap.ByCategory(category))
		return
	}
	writeJSON(w, http.StatusOK, keymap.All())
}

// Session state round-trips through the session repository so a client can
// resume its view.
func (s *HTTPServer) handleSessions(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("sessions")
	sessionID := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/v1/sessions/"), "/")
	if sessionID == "" || strings.Contains(sessionID, "/") {
		writeError(w, http.StatusNotFound, "not found")
		return
	}

	switch r.Method {
	case http.MethodGet:
		state, err := s.sessions.GetSession(r.Context(), sessionID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "session lookup failed")
			return
		}
		if state == nil {
			writeError(w, http.StatusNotFound, "session not found")
			return
		}
		writeJSON(w, http.StatusOK, state)
	case http.MethodPut:
		var state models.SessionState
		if err := decodeJSON(r, &state); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		state.SessionID = sessionID
		if err := s.sessions.SetSession(r.Context(), &state); err != nil {
			writeError(w, http.StatusInternalServerError, "session save failed")
			return
		}
		writeJSON(w, http.StatusOK, state)
	case http.MethodDelete:
		if err := s.sessions.ClearSession(r.Context(), sessionID); err != nil {
			writeError(w, http.StatusInternalServerError, "session clear failed")
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "cleared"})
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

// POST /api/v1/daysheet/save archives the current day sheet.
func (s *HTTPServer) handleDaySheetSave(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("daysheet")
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	state := s.store.Snapshot()
	if err := s.archive.SaveDaySheet(r.Context(), state.Config.Date, state.Reservations); err != nil {
		s.logger.Error().Err(err).Str("date", state.Config.Date).Msg("day sheet save error")
		writeError(w, http.StatusInternalServerError, "day sheet save failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"date":  state.Config.Date,
		"saved": len(state.Reservations),
	})
}

// POST /api/v1/daysheet/load replaces the reservation collection with the
// archived sheet for the given date and makes that date active. Loading is
// undoable as one action.
func (s *HTTPServer) handleDaySheetLoad(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("daysheet")
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var body struct {
		Date string `json:"date"`
	}
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if _, err := time.Parse("2006-01-02", body.Date); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid date %q", body.Date))
		return
	}

	reservations, err := s.archive.LoadDaySheet(r.Context(), body.Date)
	if err != nil {
		s.logger.Error().Err(err).Str("date", body.Date).Msg("day sheet load error")
		writeError(w, http.StatusInternalServerError, "day sheet load failed")
		return
	}

	s.svc.SaveToHistory()
	s.store.SetReservations(reservations)
	s.store.SetConfig(models.TimelineConfigPatch{Date: &body.Date})
	s.store.ClearSelection()

	writeJSON(w, http.StatusOK, map[string]any{
		"date":   body.Date,
		"loaded": len(reservations),
	})
}

func (s *HTTPServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
