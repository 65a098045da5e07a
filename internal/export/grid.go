package export

import (
	"fmt"
	"io"
	"sort"
	"time"

	"tably/internal/models"
	"tably/internal/timeslot"

	"github.com/xuri/excelize/v2"
)

const gridSheet = "Timeline"

var statusFills = map[string]string{
	models.StatusPending:   "#FFEB9C",
	models.StatusConfirmed: "#C6EFCE",
	models.StatusSeated:    "#DDEBF7",
	models.StatusFinished:  "#EFEFEF",
	models.StatusNoShow:    "#FFC7CE",
	models.StatusCancelled: "#FFC7CE",
}

// WriteGridXLSX renders the timeline grid as a workbook: tables as rows
// grouped by sector, slot boundaries as columns, reservations painted over
// the slots they occupy and coloured by status.
func WriteGridXLSX(
	w io.Writer,
	date string,
	sectors []models.Sector,
	tables []models.Table,
	reservations []models.Reservation,
	window timeslot.Window,
) error {
	slots := window.SlotsForDate(date)
	if len(slots) == 0 {
		return fmt.Errorf("no slots for date %q", date)
	}

	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(gridSheet)
	if err != nil {
		return fmt.Errorf("create sheet: %w", err)
	}
	f.SetActiveSheet(index)

	writeSlotHeaders(f, date, slots)
	rowOf := writeTableRows(f, sectors, tables)
	writeReservationCells(f, reservations, rowOf, date, window, len(slots))

	_ = f.SetColWidth(gridSheet, "A", "A", 24)
	if lastCol, err := excelize.ColumnNumberToName(len(slots) + 1); err == nil {
		_ = f.SetColWidth(gridSheet, "B", lastCol, 10)
	}
	_ = f.DeleteSheet("Sheet1")

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func writeSlotHeaders(f *excelize.File, date string, slots []time.Time) {
	_ = f.SetCellValue(gridSheet, "A1", fmt.Sprintf("Timeline %s", date))

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#DDEBF7"}, Pattern: 1},
		Font:      &excelize.Font{Bold: true},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})

	for i, slot := range slots {
		cell, _ := excelize.CoordinatesToCellName(i+2, 2)
		_ = f.SetCellValue(gridSheet, cell, slot.Format("15:04"))
		_ = f.SetCellStyle(gridSheet, cell, cell, headerStyle)
	}
}

// writeTableRows emits one row per table, grouped under sector header rows,
// and returns the sheet row for each table id.
func writeTableRows(f *excelize.File, sectors []models.Sector, tables []models.Table) map[string]int {
	sorted := append([]models.Sector(nil), sectors...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].SortOrder < sorted[j].SortOrder })

	sectorStyle, _ := f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E2EFDA"}, Pattern: 1},
		Font: &excelize.Font{Bold: true},
	})

	rowOf := make(map[string]int, len(tables))
	row := 3
	for _, sector := range sorted {
		cell, _ := excelize.CoordinatesToCellName(1, row)
		_ = f.SetCellValue(gridSheet, cell, sector.Name)
		_ = f.SetCellStyle(gridSheet, cell, cell, sectorStyle)
		row++

		sectorTables := tablesOfSector(tables, sector.ID)
		for _, table := range sectorTables {
			cell, _ := excelize.CoordinatesToCellName(1, row)
			_ = f.SetCellValue(gridSheet, cell, fmt.Sprintf("%s (%d-%d)", table.Name, table.MinCapacity, table.MaxCapacity))
			rowOf[table.ID] = row
			row++
		}
	}
	return rowOf
}

func tablesOfSector(tables []models.Table, sectorID string) []models.Table {
	var out []models.Table
	for _, t := range tables {
		if t.SectorID == sectorID {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SortOrder < out[j].SortOrder })
	return out
}

func writeReservationCells(
	f *excelize.File,
	reservations []models.Reservation,
	rowOf map[string]int,
	date string,
	window timeslot.Window,
	slotCount int,
) {
	for _, r := range reservations {
		row, ok := rowOf[r.TableID]
		if !ok {
			continue
		}

		startIdx := window.TimeToSlotIndex(r.StartTime, date)
		endIdx := startIdx + window.MinutesToSlots(r.DurationMinutes)
		if endIdx <= 0 || startIdx >= slotCount {
			continue // entirely off the grid
		}
		if startIdx < 0 {
			startIdx = 0
		}
		if endIdx > slotCount {
			endIdx = slotCount
		}
		if endIdx == startIdx {
			endIdx = startIdx + 1 // shorter than one slot still occupies its cell
		}

		label := fmt.Sprintf("%s (%d)", r.Customer.Name, r.PartySize)
		if r.Priority == models.PriorityVIP {
			label = "VIP " + label
		}

		first, _ := excelize.CoordinatesToCellName(startIdx+2, row)
		last, _ := excelize.CoordinatesToCellName(endIdx+1, row)
		_ = f.SetCellValue(gridSheet, first, label)

		fill, ok := statusFills[r.Status]
		if !ok {
			fill = "#FFFFFF"
		}
		style, err := f.NewStyle(&excelize.Style{
			Fill:      excelize.Fill{Type: "pattern", Color: []string{fill}, Pattern: 1},
			Alignment: &excelize.Alignment{Horizontal: "left", Vertical: "center", WrapText: true},
		})
		if err == nil {
			_ = f.SetCellStyle(gridSheet, first, last, style)
		}
		if endIdx-startIdx > 1 {
			_ = f.MergeCell(gridSheet, first, last)
		}
	}
}
