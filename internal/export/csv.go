// Package export turns timeline data into downloadable artifacts: a flat
// CSV of reservations and a spreadsheet rendering of the grid.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"tably/internal/models"
)

var csvHeader = []string{
	"id", "customer_name", "phone", "email", "table",
	"party_size", "start_date", "start_time", "end_date", "end_time",
	"duration_minutes", "status", "priority", "source", "notes",
	"created_at", "updated_at",
}

// WriteCSV emits one row per reservation. Fields containing delimiters,
// quotes or newlines come out quote-escaped per standard CSV rules, which
// encoding/csv handles.
func WriteCSV(w io.Writer, reservations []models.Reservation, tables []models.Table) error {
	tableNames := make(map[string]string, len(tables))
	for _, t := range tables {
		tableNames[t.ID] = t.Name
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}

	for _, r := range reservations {
		row := []string{
			r.ID,
			r.Customer.Name,
			r.Customer.Phone,
			r.Customer.Email,
			tableNames[r.TableID],
			strconv.Itoa(r.PartySize),
			r.StartTime.Format("2006-01-02"),
			r.StartTime.Format("15:04"),
			r.EndTime.Format("2006-01-02"),
			r.EndTime.Format("15:04"),
			strconv.Itoa(r.DurationMinutes),
			r.Status,
			r.Priority,
			r.Source,
			r.Notes,
			r.CreatedAt.Format("2006-01-02 15:04:05"),
			r.UpdatedAt.Format("2006-01-02 15:04:05"),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}
