// Package database is the day-sheet archive: reservations and reference
// data are saved and loaded wholesale per service date. The in-memory store
// remains the session's source of truth.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"tably/internal/models"

	_ "github.com/mattn/go-sqlite3"
)

type DB struct {
	db *sql.DB
}

func NewDB(path string) (*DB, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := createTables(db); err != nil {
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return &DB{db: db}, nil
}

func createTables(db *sql.DB) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS reservations (
            id TEXT PRIMARY KEY,
            service_date TEXT NOT NULL,
            table_id TEXT NOT NULL,
            customer_name TEXT NOT NULL,
            customer_phone TEXT NOT NULL,
            customer_email TEXT,
            customer_notes TEXT,
            party_size INTEGER NOT NULL,
            start_time DATETIME NOT NULL,
            end_time DATETIME NOT NULL,
            duration_minutes INTEGER NOT NULL,
            status TEXT NOT NULL DEFAULT 'pending',
            priority TEXT NOT NULL DEFAULT 'standard',
            notes TEXT,
            source TEXT,
            created_at DATETIME NOT NULL,
            updated_at DATETIME NOT NULL
        )`,
		`CREATE TABLE IF NOT EXISTS sectors (
            id TEXT PRIMARY KEY,
            name TEXT NOT NULL,
            color TEXT,
            sort_order INTEGER NOT NULL DEFAULT 0
        )`,
		`CREATE TABLE IF NOT EXISTS dining_tables (
            id TEXT PRIMARY KEY,
            sector_id TEXT NOT NULL,
            name TEXT NOT NULL,
            min_capacity INTEGER NOT NULL,
            max_capacity INTEGER NOT NULL,
            sort_order INTEGER NOT NULL DEFAULT 0
        )`,

		`CREATE INDEX IF NOT EXISTS idx_reservations_service_date ON reservations(service_date)`,
		`CREATE INDEX IF NOT EXISTS idx_reservations_table_id ON reservations(table_id)`,
		`CREATE INDEX IF NOT EXISTS idx_reservations_status ON reservations(status)`,
	}

	for _, query := range queries {
		if _, err := db.Exec(query); err != nil {
			return fmt.Errorf("error executing query %s: %w", query, err)
		}
	}
	return nil
}

// SaveDaySheet replaces the archived reservations of one service date in a
// single transaction.
func (d *DB) SaveDaySheet(ctx context.Context, date string, reservations []models.Reservation) error {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin day sheet tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM reservations WHERE service_date = ?`, date); err != nil {
		return fmt.Errorf("clear day sheet %s: %w", date, err)
	}

	stmt, err := tx.PrepareContext(ctx, `
        INSERT INTO reservations (
            id, service_date, table_id,
            customer_name, customer_phone, customer_email, customer_notes,
            party_size, start_time, end_time, duration_minutes,
            status, priority, notes, source, created_at, updated_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare day sheet insert: %w", err)
	}
	defer stmt.Close()

	for _, r := range reservations {
		_, err := stmt.ExecContext(ctx,
			r.ID, date, r.TableID,
			r.Customer.Name, r.Customer.Phone, r.Customer.Email, r.Customer.Notes,
			r.PartySize, r.StartTime, r.EndTime, r.DurationMinutes,
			r.Status, r.Priority, r.Notes, r.Source, r.CreatedAt, r.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("insert reservation %s: %w", r.ID, err)
		}
	}

	return tx.Commit()
}

// LoadDaySheet returns the archived reservations of one service date,
// ordered by start time.
func (d *DB) LoadDaySheet(ctx context.Context, date string) ([]models.Reservation, error) {
	rows, err := d.db.QueryContext(ctx, `
        SELECT id, table_id,
               customer_name, customer_phone, customer_email, customer_notes,
               party_size, start_time, end_time, duration_minutes,
               status, priority, notes, source, created_at, updated_at
        FROM reservations
        WHERE service_date = ?
        ORDER BY start_time, id`, date)
	if err != nil {
		return nil, fmt.Errorf("load day sheet %s: %w", date, err)
	}
	defer rows.Close()

	var reservations []models.Reservation
	for rows.Next() {
		var r models.Reservation
		err := rows.Scan(
			&r.ID, &r.TableID,
			&r.Customer.Name, &r.Customer.Phone, &r.Customer.Email, &r.Customer.Notes,
			&r.PartySize, &r.StartTime, &r.EndTime, &r.DurationMinutes,
			&r.Status, &r.Priority, &r.Notes, &r.Source, &r.CreatedAt, &r.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan reservation: %w", err)
		}
		reservations = append(reservations, r)
	}

	return reservations, rows.Err()
}

// SaveSectors replaces the sector reference data wholesale.
func (d *DB) SaveSectors(ctx context.Context, sectors []models.Sector) error {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin sectors tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM sectors`); err != nil {
		return fmt.Errorf("clear sectors: %w", err)
	}
	for _, s := range sectors {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO sectors (id, name, color, sort_order) VALUES (?, ?, ?, ?)`,
			s.ID, s.Name, s.Color, s.SortOrder,
		)
		if err != nil {
			return fmt.Errorf("insert sector %s: %w", s.ID, err)
		}
	}
	return tx.Commit()
}

// LoadSectors returns the sector reference data in sort order.
func (d *DB) LoadSectors(ctx context.Context) ([]models.Sector, error) {
	rows, err := d.db.QueryContext(ctx, `SELECT id, name, color, sort_order FROM sectors ORDER BY sort_order, id`)
	if err != nil {
		return nil, fmt.Errorf("load sectors: %w", err)
	}
	defer rows.Close()

	var sectors []models.Sector
	for rows.Next() {
		var s models.Sector
		if err := rows.Scan(&s.ID, &s.Name, &s.Color, &s.SortOrder); err != nil {
			return nil, fmt.Errorf("scan sector: %w", err)
		}
		sectors = append(sectors, s)
	}
	return sectors, rows.Err()
}

// SaveTables replaces the table reference data wholesale.
func (d *DB) SaveTables(ctx context.Context, tables []models.Table) error {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tables tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM dining_tables`); err != nil {
		return fmt.Errorf("clear tables: %w", err)
	}
	for _, t := range tables {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO dining_tables (id, sector_id, name, min_capacity, max_capacity, sort_order)
             VALUES (?, ?, ?, ?, ?, ?)`,
			t.ID, t.SectorID, t.Name, t.MinCapacity, t.MaxCapacity, t.SortOrder,
		)
		if err != nil {
			return fmt.Errorf("insert table %s: %w", t.ID, err)
		}
	}
	return tx.Commit()
}

// LoadTables returns the table reference data in sort order.
func (d *DB) LoadTables(ctx context.Context) ([]models.Table, error) {
	rows, err := d.db.QueryContext(ctx, `
        SELECT id, sector_id, name, min_capacity, max_capacity, sort_order
        FROM dining_tables ORDER BY sort_order, id`)
	if err != nil {
		return nil, fmt.Errorf("load tables: %w", err)
	}
	defer rows.Close()

	var tables []models.Table
	for rows.Next() {
		var t models.Table
		if err := rows.Scan(&t.ID, &t.SectorID, &t.Name, &t.MinCapacity, &t.MaxCapacity, &t.SortOrder); err != nil {
			return nil, fmt.Errorf("scan table: %w", err)
		}
		tables = append(tables, t)
	}
	return tables, rows.Err()
}

// ArchivedDates lists the distinct service dates present in the archive.
func (d *DB) ArchivedDates(ctx context.Context) ([]string, error) {
	rows, err := d.db.QueryContext(ctx, `SELECT DISTINCT service_date FROM reservations ORDER BY service_date`)
	if err != nil {
		return nil, fmt.Errorf("load archived dates: %w", err)
	}
	defer rows.Close()

	var dates []string
	for rows.Next() {
		var date string
		if err := rows.Scan(&date); err != nil {
			return nil, fmt.Errorf("scan date: %w", err)
		}
		dates = append(dates, date)
	}
	return dates, rows.Err()
}

func (d *DB) Close() error {
	return d.db.Close()
}
