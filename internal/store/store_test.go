package store

import (
	"testing"
	"time"

	"tably/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() models.TimelineConfig {
	return models.TimelineConfig{
		Date:        "2025-06-01",
		StartHour:   10,
		EndHour:     23,
		SlotMinutes: 15,
		ViewMode:    models.ViewModeDay,
	}
}

func testReservation(id string, start time.Time) models.Reservation {
	return models.Reservation{
		ID:      id,
		TableID: "t1",
		Customer: models.Customer{
			Name:  "Ada Lovelace",
			Phone: "+4915200000000",
		},
		PartySize:       2,
		StartTime:       start,
		EndTime:         start.Add(90 * time.Minute),
		DurationMinutes: 90,
		Status:          models.StatusConfirmed,
		Priority:        models.PriorityStandard,
		CreatedAt:       start.Add(-24 * time.Hour),
		UpdatedAt:       start.Add(-24 * time.Hour),
	}
}

func TestSetConfigShallowMerge(t *testing.T) {
	s := New(testConfig())

	end := 22
	s.SetConfig(models.TimelineConfigPatch{EndHour: &end})

	cfg := s.Config()
	assert.Equal(t, 22, cfg.EndHour)
	assert.Equal(t, 10, cfg.StartHour)
	assert.Equal(t, "2025-06-01", cfg.Date)
}

func TestUpdateReservation(t *testing.T) {
	s := New(testConfig())
	start := time.Date(2025, 6, 1, 18, 0, 0, 0, time.UTC)
	s.SetReservations([]models.Reservation{
		testReservation("r1", start),
		testReservation("r2", start.Add(2*time.Hour)),
	})

	before, ok := s.Reservation("r1")
	require.True(t, ok)

	status := models.StatusSeated
	s.UpdateReservation("r1", models.ReservationPatch{Status: &status})

	after, ok := s.Reservation("r1")
	require.True(t, ok)
	assert.Equal(t, models.StatusSeated, after.Status)
	assert.True(t, after.UpdatedAt.After(before.UpdatedAt), "UpdatedAt must strictly increase")

	// Other reservations are untouched.
	other, ok := s.Reservation("r2")
	require.True(t, ok)
	assert.Equal(t, testReservation("r2", start.Add(2*time.Hour)), other)
}

func TestUpdateReservationUnknownIDIsNoOp(t *testing.T) {
	s := New(testConfig())
	start := time.Date(2025, 6, 1, 18, 0, 0, 0, time.UTC)
	s.SetReservations([]models.Reservation{testReservation("r1", start)})

	before := s.Snapshot()
	status := models.StatusCancelled
	assert.NotPanics(t, func() {
		s.UpdateReservation("missing", models.ReservationPatch{Status: &status})
	})
	assert.Equal(t, before, s.Snapshot())
}

func TestUpdatedAtStrictlyIncreasesUnderRapidUpdates(t *testing.T) {
	s := New(testConfig())
	start := time.Date(2025, 6, 1, 18, 0, 0, 0, time.UTC)
	s.SetReservations([]models.Reservation{testReservation("r1", start)})

	// Frozen clock: stamps must still increase.
	frozen := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return frozen }

	notes := "a"
	s.UpdateReservation("r1", models.ReservationPatch{Notes: &notes})
	first, _ := s.Reservation("r1")

	s.UpdateReservation("r1", models.ReservationPatch{Notes: &notes})
	second, _ := s.Reservation("r1")

	assert.True(t, second.UpdatedAt.After(first.UpdatedAt))
}

func TestDeleteReservationRemovesFromSelection(t *testing.T) {
	s := New(testConfig())
	start := time.Date(2025, 6, 1, 18, 0, 0, 0, time.UTC)
	s.SetReservations([]models.Reservation{
		testReservation("r1", start),
		testReservation("r2", start),
	})
	s.SelectReservation("r1", false)
	s.SelectReservation("r2", true)

	s.DeleteReservation("r1")

	_, ok := s.Reservation("r1")
	assert.False(t, ok)
	assert.Equal(t, []string{"r2"}, s.SelectedIDs())

	// Deleting an unselected reservation leaves the selection as-is.
	s.SetReservations([]models.Reservation{testReservation("r3", start)})
	s.SelectReservation("r2", false)
	s.DeleteReservation("r3")
	assert.Equal(t, []string{"r2"}, s.SelectedIDs())
}

func TestDeleteReservationsBatch(t *testing.T) {
	s := New(testConfig())
	start := time.Date(2025, 6, 1, 18, 0, 0, 0, time.UTC)
	s.SetReservations([]models.Reservation{
		testReservation("r1", start),
		testReservation("r2", start),
		testReservation("r3", start),
	})
	s.SelectReservation("r1", false)
	s.SelectReservation("r3", true)

	s.DeleteReservations([]string{"r1", "r3", "missing"})

	snap := s.Snapshot()
	require.Len(t, snap.Reservations, 1)
	assert.Equal(t, "r2", snap.Reservations[0].ID)
	assert.Empty(t, snap.SelectedIDs)
}

func TestSelectReservation(t *testing.T) {
	s := New(testConfig())

	s.SelectReservation("r1", false)
	s.SelectReservation("r2", false)
	assert.Equal(t, []string{"r2"}, s.SelectedIDs())

	s.SelectReservation("r1", true)
	s.SelectReservation("r3", true)
	assert.Equal(t, []string{"r2", "r1", "r3"}, s.SelectedIDs())

	// Toggle is its own inverse.
	s.SelectReservation("r1", true)
	assert.Equal(t, []string{"r2", "r3"}, s.SelectedIDs())
	s.SelectReservation("r1", true)
	assert.Equal(t, []string{"r2", "r3", "r1"}, s.SelectedIDs())

	s.ClearSelection()
	assert.Empty(t, s.SelectedIDs())
}

func TestToggleSectorCollapse(t *testing.T) {
	s := New(testConfig())

	s.ToggleSectorCollapse("terrace")
	assert.Equal(t, []string{"terrace"}, s.Snapshot().CollapsedSectors)

	s.ToggleSectorCollapse("terrace")
	assert.Empty(t, s.Snapshot().CollapsedSectors)
}

func TestIndependentUIFields(t *testing.T) {
	s := New(testConfig())

	s.SetZoom(1.5)
	s.SetSelectedSectors([]string{"main"})
	s.SetSelectedStatuses([]string{models.StatusPending})
	s.SetSearchQuery("ada")

	snap := s.Snapshot()
	assert.Equal(t, 1.5, snap.Zoom)
	assert.Equal(t, []string{"main"}, snap.SelectedSectors)
	assert.Equal(t, []string{models.StatusPending}, snap.SelectedStatuses)
	assert.Equal(t, "ada", snap.SearchQuery)
}

func TestSnapshotIsIndependentCopy(t *testing.T) {
	s := New(testConfig())
	start := time.Date(2025, 6, 1, 18, 0, 0, 0, time.UTC)
	s.SetReservations([]models.Reservation{testReservation("r1", start)})

	snap := s.Snapshot()
	snap.Reservations[0].Customer.Name = "mutated"

	current, _ := s.Reservation("r1")
	assert.Equal(t, "Ada Lovelace", current.Customer.Name)
}

func TestRestore(t *testing.T) {
	s := New(testConfig())
	start := time.Date(2025, 6, 1, 18, 0, 0, 0, time.UTC)
	s.SetReservations([]models.Reservation{testReservation("r1", start)})
	s.SelectReservation("r1", false)

	saved := s.Snapshot()

	s.DeleteReservation("r1")
	s.SetSearchQuery("gone")
	s.Restore(saved)

	assert.Equal(t, saved, s.Snapshot())
}

func TestPasteClipboard(t *testing.T) {
	s := New(testConfig())
	start := time.Date(2025, 6, 1, 18, 0, 0, 0, time.UTC)
	first := testReservation("r1", start)
	second := testReservation("r2", start.Add(30*time.Minute))
	s.SetClipboard([]models.Reservation{first, second})

	target := time.Date(2025, 6, 1, 20, 0, 0, 0, time.UTC)
	pasted := s.PasteClipboard(target)
	require.Len(t, pasted, 2)

	assert.Equal(t, target, pasted[0].StartTime)
	assert.Equal(t, target.Add(30*time.Minute), pasted[1].StartTime)
	assert.Equal(t, pasted[0].StartTime.Add(90*time.Minute), pasted[0].EndTime)
	assert.NotEqual(t, "r1", pasted[0].ID)
	assert.NotEqual(t, pasted[0].ID, pasted[1].ID)

	snap := s.Snapshot()
	assert.Len(t, snap.Reservations, 2)
	// Clipboard itself keeps the originals.
	assert.Equal(t, "r1", snap.Clipboard[0].ID)
}

func TestPasteEmptyClipboard(t *testing.T) {
	s := New(testConfig())
	assert.Nil(t, s.PasteClipboard(time.Now()))
	assert.Empty(t, s.Snapshot().Reservations)
}

func TestVisibleReservations(t *testing.T) {
	s := New(testConfig())
	s.SetTables([]models.Table{
		{ID: "t1", SectorID: "main", Name: "Table 1", MinCapacity: 2, MaxCapacity: 4},
		{ID: "t2", SectorID: "terrace", Name: "Table 2", MinCapacity: 2, MaxCapacity: 6},
	})

	start := time.Date(2025, 6, 1, 18, 0, 0, 0, time.UTC)
	inMain := testReservation("r1", start)
	onTerrace := testReservation("r2", start)
	onTerrace.TableID = "t2"
	onTerrace.Status = models.StatusPending
	onTerrace.Customer.Name = "Grace Hopper"
	s.SetReservations([]models.Reservation{inMain, onTerrace})

	s.SetSelectedSectors([]string{"terrace"})
	visible := s.VisibleReservations()
	require.Len(t, visible, 1)
	assert.Equal(t, "r2", visible[0].ID)

	s.SetSelectedSectors(nil)
	s.SetSelectedStatuses([]string{models.StatusConfirmed})
	visible = s.VisibleReservations()
	require.Len(t, visible, 1)
	assert.Equal(t, "r1", visible[0].ID)

	s.SetSelectedStatuses(nil)
	s.SetSearchQuery("grace")
	visible = s.VisibleReservations()
	require.Len(t, visible, 1)
	assert.Equal(t, "r2", visible[0].ID)
}
