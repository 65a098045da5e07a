package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"tably/internal/config"
	"tably/internal/database"
	"tably/internal/history"
	"tably/internal/models"
	"tably/internal/repository"
	"tably/internal/service"
	"tably/internal/store"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSectors() []models.Sector {
	return []models.Sector{
		{ID: "main", Name: "Main Hall", Color: "#4caf50", SortOrder: 1},
		{ID: "terrace", Name: "Terrace", Color: "#2196f3", SortOrder: 2},
	}
}

func testTables() []models.Table {
	return []models.Table{
		{ID: "t1", SectorID: "main", Name: "Table 1", MinCapacity: 2, MaxCapacity: 4, SortOrder: 1},
		{ID: "t2", SectorID: "main", Name: "Table 2", MinCapacity: 2, MaxCapacity: 6, SortOrder: 2},
		{ID: "t3", SectorID: "terrace", Name: "Terrace 1", MinCapacity: 2, MaxCapacity: 8, SortOrder: 3},
	}
}

func newTestServer(t *testing.T) (*HTTPServer, *store.Store, *service.ReservationService) {
	t.Helper()

	st := store.New(models.TimelineConfig{
		Date:        "2026-03-14",
		StartHour:   10,
		EndHour:     23,
		SlotMinutes: 30,
		ViewMode:    models.ViewModeDay,
	})
	st.SetSectors(testSectors())
	st.SetTables(testTables())

	logger := zerolog.Nop()
	hist := history.New(models.DefaultHistoryLimit)
	svc := service.NewReservationService(st, hist, nil, &logger)

	db, err := database.NewDB(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	sessions := repository.NewMemorySessionRepository(time.Hour)

	cfg := config.APIConfig{
		Enabled: true,
		Port:    8080,
		Auth: config.APIAuthConfig{
			Enabled:      false,
			HeaderAPIKey: "x-api-key",
		},
	}
	timeline := config.TimelineConfig{MinDurationMinutes: 30}

	server := NewHTTPServer(cfg, timeline, st, svc, hist, db, sessions, &logger)
	return server, st, svc
}

func startTestServer(t *testing.T) (*httptest.Server, *store.Store, *service.ReservationService) {
	t.Helper()
	server, st, svc := newTestServer(t)
	ts := httptest.NewServer(server.server.Handler)
	t.Cleanup(ts.Close)
	return ts, st, svc
}

func postJSON(t *testing.T, url string, payload any) *http.Response {
	t.Helper()
	body, err := json.Marshal(payload)
	require.NoError(t, err)
	resp, err := http.Post(url, "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	return resp
}

func seedReservation(t *testing.T, svc *service.ReservationService, tableID string, start time.Time) models.Reservation {
	t.Helper()
	return svc.Create(models.Reservation{
		TableID:         tableID,
		Customer:        models.Customer{Name: "Anna Weiss", Phone: "+4915112345678"},
		PartySize:       3,
		StartTime:       start,
		DurationMinutes: 90,
	})
}

func TestSlots(t *testing.T) {
	ts, _, _ := startTestServer(t)

	resp, err := http.Get(ts.URL + "/api/v1/slots")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Date  string      `json:"date"`
		Slots []time.Time `json:"slots"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))

	assert.Equal(t, "2026-03-14", body.Date)
	// 13 hours at 30-minute granularity.
	assert.Len(t, body.Slots, 26)
	assert.Equal(t, 10, body.Slots[0].Hour())
	last := body.Slots[len(body.Slots)-1]
	assert.Equal(t, 22, last.Hour())
	assert.Equal(t, 30, last.Minute())
}

func TestSlotsBadDate(t *testing.T) {
	ts, _, _ := startTestServer(t)

	resp, err := http.Get(ts.URL + "/api/v1/slots?date=not-a-date")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestCreateReservation(t *testing.T) {
	ts, st, _ := startTestServer(t)

	resp := postJSON(t, ts.URL+"/api/v1/reservations", map[string]any{
		"table_id":         "t1",
		"customer":         map[string]string{"name": "Anna Weiss", "phone": "+4915112345678"},
		"party_size":       3,
		"start_time":       "2026-03-14T19:00:00Z",
		"duration_minutes": 90,
	})
	defer resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var created models.Reservation
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&created))

	assert.NotEmpty(t, created.ID)
	assert.Equal(t, models.StatusPending, created.Status)
	assert.Equal(t, models.PriorityStandard, created.Priority)

	_, ok := st.Reservation(created.ID)
	assert.True(t, ok)
}

func TestCreateReservationValidation(t *testing.T) {
	ts, st, _ := startTestServer(t)

	// Party of six against a table seating two to four.
	resp := postJSON(t, ts.URL+"/api/v1/reservations", map[string]any{
		"table_id":         "t1",
		"customer":         map[string]string{"name": "Anna Weiss", "phone": "+4915112345678"},
		"party_size":       6,
		"start_time":       "2026-03-14T19:00:00Z",
		"duration_minutes": 90,
	})
	defer resp.Body.Close()
	require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

	var body struct {
		Errors []struct {
			Field   string `json:"field"`
			Message string `json:"message"`
		} `json:"errors"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.Len(t, body.Errors, 1)
	assert.Equal(t, "party_size", body.Errors[0].Field)

	assert.Empty(t, st.Snapshot().Reservations)
}

func TestUpdateAndDeleteReservation(t *testing.T) {
	ts, st, svc := startTestServer(t)
	created := seedReservation(t, svc, "t1", time.Date(2026, 3, 14, 19, 0, 0, 0, time.UTC))

	req, err := http.NewRequest(http.MethodPatch, ts.URL+"/api/v1/reservations/"+created.ID,
		bytes.NewReader([]byte(`{"party_size": 4}`)))
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var updated models.Reservation
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&updated))
	assert.Equal(t, 4, updated.PartySize)
	assert.True(t, updated.UpdatedAt.After(created.UpdatedAt))

	del, err := http.NewRequest(http.MethodDelete, ts.URL+"/api/v1/reservations/"+created.ID, nil)
	require.NoError(t, err)
	delResp, err := http.DefaultClient.Do(del)
	require.NoError(t, err)
	delResp.Body.Close()
	require.Equal(t, http.StatusOK, delResp.StatusCode)

	_, ok := st.Reservation(created.ID)
	assert.False(t, ok)
}

func TestStatusVerbs(t *testing.T) {
	ts, st, svc := startTestServer(t)
	created := seedReservation(t, svc, "t1", time.Date(2026, 3, 14, 19, 0, 0, 0, time.UTC))

	t.Run("UnknownStatusRejected", func(t *testing.T) {
		resp := postJSON(t, fmt.Sprintf("%s/api/v1/reservations/%s/status", ts.URL, created.ID),
			map[string]string{"status": "vanished"})
		resp.Body.Close()
		assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	})

	t.Run("Confirm", func(t *testing.T) {
		resp := postJSON(t, fmt.Sprintf("%s/api/v1/reservations/%s/status", ts.URL, created.ID),
			map[string]string{"status": models.StatusConfirmed})
		resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode)

		r, ok := st.Reservation(created.ID)
		require.True(t, ok)
		assert.Equal(t, models.StatusConfirmed, r.Status)
	})

	t.Run("NoShow", func(t *testing.T) {
		resp := postJSON(t, fmt.Sprintf("%s/api/v1/reservations/%s/no-show", ts.URL, created.ID), map[string]any{})
		resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode)

		r, _ := st.Reservation(created.ID)
		assert.Equal(t, models.StatusNoShow, r.Status)
	})
}

func TestDuplicateEndpoint(t *testing.T) {
	ts, st, svc := startTestServer(t)
	created := seedReservation(t, svc, "t1", time.Date(2026, 3, 14, 19, 0, 0, 0, time.UTC))

	resp := postJSON(t, fmt.Sprintf("%s/api/v1/reservations/%s/duplicate", ts.URL, created.ID), map[string]any{})
	defer resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var dup models.Reservation
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&dup))

	assert.NotEqual(t, created.ID, dup.ID)
	assert.Equal(t, created.StartTime.Add(60*time.Minute), dup.StartTime)
	assert.Equal(t, []string{dup.ID}, st.SelectedIDs())
}

func TestBatchDelete(t *testing.T) {
	ts, st, svc := startTestServer(t)
	a := seedReservation(t, svc, "t1", time.Date(2026, 3, 14, 18, 0, 0, 0, time.UTC))
	b := seedReservation(t, svc, "t2", time.Date(2026, 3, 14, 19, 0, 0, 0, time.UTC))
	keep := seedReservation(t, svc, "t3", time.Date(2026, 3, 14, 20, 0, 0, 0, time.UTC))

	resp := postJSON(t, ts.URL+"/api/v1/reservations/batch/delete",
		map[string]any{"ids": []string{a.ID, b.ID}})
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	state := st.Snapshot()
	require.Len(t, state.Reservations, 1)
	assert.Equal(t, keep.ID, state.Reservations[0].ID)
}

func TestBatchDeleteReportsRemovedCount(t *testing.T) {
	ts, st, svc := startTestServer(t)
	a := seedReservation(t, svc, "t1", time.Date(2026, 3, 14, 18, 0, 0, 0, time.UTC))

	resp := postJSON(t, ts.URL+"/api/v1/reservations/batch/delete",
		map[string]any{"ids": []string{a.ID, "ghost-1", "ghost-2"}})
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Deleted int `json:"deleted"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, 1, body.Deleted)
	assert.Empty(t, st.Snapshot().Reservations)
}

func TestSelectionEndpoint(t *testing.T) {
	ts, st, svc := startTestServer(t)
	a := seedReservation(t, svc, "t1", time.Date(2026, 3, 14, 18, 0, 0, 0, time.UTC))
	b := seedReservation(t, svc, "t2", time.Date(2026, 3, 14, 19, 0, 0, 0, time.UTC))

	resp := postJSON(t, ts.URL+"/api/v1/selection", map[string]any{"id": a.ID, "multi": true})
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = postJSON(t, ts.URL+"/api/v1/selection", map[string]any{"id": b.ID, "multi": true})
	resp.Body.Close()
	assert.Equal(t, []string{a.ID, b.ID}, st.SelectedIDs())

	// Toggling an already-selected id removes it.
	resp = postJSON(t, ts.URL+"/api/v1/selection", map[string]any{"id": a.ID, "multi": true})
	resp.Body.Close()
	assert.Equal(t, []string{b.ID}, st.SelectedIDs())

	req, err := http.NewRequest(http.MethodDelete, ts.URL+"/api/v1/selection", nil)
	require.NoError(t, err)
	delResp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	delResp.Body.Close()
	assert.Empty(t, st.SelectedIDs())
}

func TestSectorCollapseEndpoint(t *testing.T) {
	ts, st, _ := startTestServer(t)

	resp := postJSON(t, ts.URL+"/api/v1/sectors/main/collapse", map[string]any{})
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Collapsed []string `json:"collapsed_sectors"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, []string{"main"}, body.Collapsed)
	assert.Equal(t, []string{"main"}, st.Snapshot().CollapsedSectors)

	// Toggling again restores the expanded state.
	again := postJSON(t, ts.URL+"/api/v1/sectors/main/collapse", map[string]any{})
	defer again.Body.Close()
	require.Equal(t, http.StatusOK, again.StatusCode)

	var second struct {
		Collapsed []string `json:"collapsed_sectors"`
	}
	require.NoError(t, json.NewDecoder(again.Body).Decode(&second))
	assert.Empty(t, second.Collapsed)

	missing := postJSON(t, ts.URL+"/api/v1/sectors/main/expand", map[string]any{})
	missing.Body.Close()
	assert.Equal(t, http.StatusNotFound, missing.StatusCode)
}

func TestCopyPasteFlow(t *testing.T) {
	ts, st, svc := startTestServer(t)
	src := seedReservation(t, svc, "t1", time.Date(2026, 3, 14, 19, 0, 0, 0, time.UTC))

	resp := postJSON(t, ts.URL+"/api/v1/clipboard/copy", map[string]any{"ids": []string{src.ID}})
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var copied struct {
		Copied int `json:"copied"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&copied))
	assert.Equal(t, 1, copied.Copied)

	// Nothing selected, so the paste target is the start of service.
	pasteResp := postJSON(t, ts.URL+"/api/v1/clipboard/paste", map[string]any{})
	defer pasteResp.Body.Close()
	require.Equal(t, http.StatusOK, pasteResp.StatusCode)

	var pasted []models.Reservation
	require.NoError(t, json.NewDecoder(pasteResp.Body).Decode(&pasted))
	require.Len(t, pasted, 1)
	assert.Equal(t, time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC), pasted[0].StartTime.UTC())
	assert.NotEqual(t, src.ID, pasted[0].ID)

	assert.Len(t, st.Snapshot().Reservations, 2)
}

func TestUndoRedoEndpoints(t *testing.T) {
	ts, st, svc := startTestServer(t)
	created := seedReservation(t, svc, "t1", time.Date(2026, 3, 14, 19, 0, 0, 0, time.UTC))

	resp := postJSON(t, ts.URL+"/api/v1/history/undo", map[string]any{})
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var undo struct {
		Undone  bool `json:"undone"`
		CanRedo bool `json:"can_redo"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&undo))
	assert.True(t, undo.Undone)
	assert.True(t, undo.CanRedo)
	assert.Empty(t, st.Snapshot().Reservations)

	redoResp := postJSON(t, ts.URL+"/api/v1/history/redo", map[string]any{})
	redoResp.Body.Close()
	require.Equal(t, http.StatusOK, redoResp.StatusCode)

	_, ok := st.Reservation(created.ID)
	assert.True(t, ok)
}

func TestExportCSVEndpoint(t *testing.T) {
	ts, _, svc := startTestServer(t)
	seedReservation(t, svc, "t1", time.Date(2026, 3, 14, 19, 0, 0, 0, time.UTC))

	resp, err := http.Get(ts.URL + "/api/v1/export/csv")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/csv", resp.Header.Get("Content-Type"))

	var buf bytes.Buffer
	_, err = buf.ReadFrom(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "Anna Weiss")
	assert.Contains(t, buf.String(), "Table 1")
}

func TestShortcutsEndpoint(t *testing.T) {
	ts, _, _ := startTestServer(t)

	resp, err := http.Get(ts.URL + "/api/v1/shortcuts?category=editing")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var shortcuts []struct {
		Keys     string `json:"keys"`
		Category string `json:"category"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&shortcuts))
	require.NotEmpty(t, shortcuts)
	for _, sc := range shortcuts {
		assert.Equal(t, "editing", sc.Category)
	}
}

func TestSessionEndpoints(t *testing.T) {
	ts, _, _ := startTestServer(t)

	state := models.SessionState{
		SelectedSectors: []string{"main"},
		SearchQuery:     "anna",
		Zoom:            1.5,
	}
	body, err := json.Marshal(state)
	require.NoError(t, err)

	req, err := http.NewRequest(http.MethodPut, ts.URL+"/api/v1/sessions/host-1", bytes.NewReader(body))
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	getResp, err := http.Get(ts.URL + "/api/v1/sessions/host-1")
	require.NoError(t, err)
	defer getResp.Body.Close()
	require.Equal(t, http.StatusOK, getResp.StatusCode)

	var loaded models.SessionState
	require.NoError(t, json.NewDecoder(getResp.Body).Decode(&loaded))
	assert.Equal(t, "host-1", loaded.SessionID)
	assert.Equal(t, []string{"main"}, loaded.SelectedSectors)
	assert.Equal(t, 1.5, loaded.Zoom)

	missing, err := http.Get(ts.URL + "/api/v1/sessions/unknown")
	require.NoError(t, err)
	missing.Body.Close()
	assert.Equal(t, http.StatusNotFound, missing.StatusCode)
}

func TestDaySheetRoundTrip(t *testing.T) {
	ts, st, svc := startTestServer(t)
	created := seedReservation(t, svc, "t1", time.Date(2026, 3, 14, 19, 0, 0, 0, time.UTC))

	saveResp := postJSON(t, ts.URL+"/api/v1/daysheet/save", map[string]any{})
	saveResp.Body.Close()
	require.Equal(t, http.StatusOK, saveResp.StatusCode)

	st.SetReservations(nil)

	loadResp := postJSON(t, ts.URL+"/api/v1/daysheet/load", map[string]string{"date": "2026-03-14"})
	defer loadResp.Body.Close()
	require.Equal(t, http.StatusOK, loadResp.StatusCode)

	var loaded struct {
		Date   string `json:"date"`
		Loaded int    `json:"loaded"`
	}
	require.NoError(t, json.NewDecoder(loadResp.Body).Decode(&loaded))
	assert.Equal(t, 1, loaded.Loaded)

	restored, ok := st.Reservation(created.ID)
	require.True(t, ok)
	assert.Equal(t, created.Customer.Name, restored.Customer.Name)
}

func TestHealthz(t *testing.T) {
	ts, _, _ := startTestServer(t)

	resp, err := http.Get(ts.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
