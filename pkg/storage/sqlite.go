package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/billcast/billcast/pkg/types"
	"github.com/levenlabs/go-lflag"
	_ "modernc.org/sqlite"
)

// SQLiteDatabase stores meter readings in a local sqlite file, the default
// for a single-household install.
type SQLiteDatabase struct {
	path string
	conn *sql.DB
}

// configuredSQLite registers the sqlite flags and returns the provider.
func configuredSQLite() *SQLiteDatabase {
	s := &SQLiteDatabase{}
	path := lflag.String("sqlite-path", "billcast.db", "Path to the sqlite database file")

	lflag.Do(func() {
		s.path = *path
	})

	return s
}

// Init opens the database and creates the schema.
func (s *SQLiteDatabase) Init() error {
	conn, err := sql.Open("sqlite", s.path)
	if err != nil {
		return fmt.Errorf("opening sqlite database %s: %w", s.path, err)
	}

	schema := `
	CREATE TABLE IF NOT EXISTS gas_meter_readings (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		reading_ccf INTEGER NOT NULL,
		recorded_at TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_readings_recorded_at ON gas_meter_readings(recorded_at);
	`
	if _, err := conn.Exec(schema); err != nil {
		conn.Close()
		return fmt.Errorf("initializing sqlite schema: %w", err)
	}

	s.conn = conn
	return nil
}

// Close closes the database connection.
func (s *SQLiteDatabase) Close() error {
	if s.conn != nil {
		return s.conn.Close()
	}
	return nil
}

func (s *SQLiteDatabase) scanReading(row *sql.Row) (types.MeterReading, error) {
	var r types.MeterReading
	var recordedAt string
	if err := row.Scan(&r.ReadingCcf, &recordedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.MeterReading{}, ErrNoReadings
		}
		return types.MeterReading{}, fmt.Errorf("scanning meter reading: %w", err)
	}
	t, err := time.Parse(time.RFC3339, recordedAt)
	if err != nil {
		return types.MeterReading{}, fmt.Errorf("parsing recorded_at %q: %w", recordedAt, err)
	}
	r.RecordedAt = t
	return r, nil
}

// LatestReading returns the most recent reading.
func (s *SQLiteDatabase) LatestReading(ctx context.Context) (types.MeterReading, error) {
	row := s.conn.QueryRowContext(ctx, `
		SELECT reading_ccf, recorded_at
		FROM gas_meter_readings
		ORDER BY recorded_at DESC
		LIMIT 1`)
	return s.scanReading(row)
}

// ReadingOn returns the last reading recorded on or before the end of the
// given calendar day.
func (s *SQLiteDatabase) ReadingOn(ctx context.Context, date time.Time) (types.MeterReading, error) {
	endOfDay := types.DateOf(date).AddDate(0, 0, 1)
	row := s.conn.QueryRowContext(ctx, `
		SELECT reading_ccf, recorded_at
		FROM gas_meter_readings
		WHERE recorded_at < ?
		ORDER BY recorded_at DESC
		LIMIT 1`, endOfDay.UTC().Format(time.RFC3339))
	return s.scanReading(row)
}

// ReadingHistory returns readings recorded in [start, end], oldest first.
func (s *SQLiteDatabase) ReadingHistory(ctx context.Context, start, end time.Time) ([]types.MeterReading, error) {
	rows, err := s.conn.QueryContext(ctx, `
		SELECT reading_ccf, recorded_at
		FROM gas_meter_readings
		WHERE recorded_at >= ? AND recorded_at <= ?
		ORDER BY recorded_at ASC`,
		start.UTC().Format(time.RFC3339), end.UTC().Format(time.RFC3339))
	if err != nil {
		return nil, fmt.Errorf("querying meter readings: %w", err)
	}
	defer rows.Close()

	var out []types.MeterReading
	for rows.Next() {
		var r types.MeterReading
		var recordedAt string
		if err := rows.Scan(&r.ReadingCcf, &recordedAt); err != nil {
			return nil, fmt.Errorf("scanning meter reading: %w", err)
		}
		t, err := time.Parse(time.RFC3339, recordedAt)
		if err != nil {
			return nil, fmt.Errorf("parsing recorded_at %q: %w", recordedAt, err)
		}
		r.RecordedAt = t
		out = append(out, r)
	}
	return out, rows.Err()
}

// InsertReading records a new reading.
func (s *SQLiteDatabase) InsertReading(ctx context.Context, r types.MeterReading) error {
	recordedAt := r.RecordedAt
	if recordedAt.IsZero() {
		recordedAt = time.Now()
	}
	_, err := s.conn.ExecContext(ctx, `
		INSERT INTO gas_meter_readings (reading_ccf, recorded_at)
		VALUES (?, ?)`, r.ReadingCcf, recordedAt.UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("inserting meter reading: %w", err)
	}
	return nil
}
