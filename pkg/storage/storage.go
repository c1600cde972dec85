// Package storage persists gas meter readings. The estimation engine only
// reads from it; writes come from the external polling job and the manual
// logging tool.
package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/billcast/billcast/pkg/types"
	"github.com/levenlabs/go-lflag"
)

// ErrNoReadings is returned when a query matches no meter readings.
var ErrNoReadings = errors.New("no meter readings found")

// Database defines the interface for persisting and querying meter readings.
type Database interface {
	// LatestReading returns the most recent reading.
	LatestReading(ctx context.Context) (types.MeterReading, error)

	// ReadingOn returns the last reading recorded on or before the end of
	// the given calendar day. Used to find the cycle-start reference.
	ReadingOn(ctx context.Context, date time.Time) (types.MeterReading, error)

	// ReadingHistory returns readings recorded in [start, end], ordered by
	// time. Used by the offline slope calibration.
	ReadingHistory(ctx context.Context, start, end time.Time) ([]types.MeterReading, error)

	// InsertReading records a new reading.
	InsertReading(ctx context.Context, r types.MeterReading) error

	// Lifecycle
	Close() error
}

// Configured sets up the storage provider based on flags.
func Configured() Database {
	provider := lflag.String("storage-provider", "sqlite", "Storage provider to use (available: sqlite, firestore)")

	var p struct{ Database }

	sq := configuredSQLite()
	fs := configuredFirestore()

	lflag.Do(func() {
		switch *provider {
		case "sqlite":
			if err := sq.Init(); err != nil {
				panic(fmt.Sprintf("sqlite init failed: %v", err))
			}
			p.Database = sq
		case "firestore":
			if err := fs.Init(context.Background()); err != nil {
				panic(fmt.Sprintf("firestore init failed: %v", err))
			}
			p.Database = fs
		default:
			panic(fmt.Sprintf("unknown storage provider: %s", *provider))
		}
	})

	return &p
}
