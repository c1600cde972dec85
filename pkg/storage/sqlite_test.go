package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/billcast/billcast/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDB(t *testing.T) *SQLiteDatabase {
	t.Helper()
	s := &SQLiteDatabase{path: filepath.Join(t.TempDir(), "test.db")}
	require.NoError(t, s.Init())
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSQLiteReadings(t *testing.T) {
	ctx := context.Background()
	s := newTestDB(t)

	// readings mirroring the real Dec-Jan cycle: 1339 at cycle start,
	// periodic readings after
	seed := []types.MeterReading{
		{ReadingCcf: 1339, RecordedAt: time.Date(2025, 12, 11, 18, 0, 0, 0, time.UTC)},
		{ReadingCcf: 1361, RecordedAt: time.Date(2025, 12, 20, 9, 30, 0, 0, time.UTC)},
		{ReadingCcf: 1384, RecordedAt: time.Date(2025, 12, 29, 8, 0, 0, 0, time.UTC)},
		{ReadingCcf: 1409, RecordedAt: time.Date(2026, 1, 9, 7, 45, 0, 0, time.UTC)},
	}
	for _, r := range seed {
		require.NoError(t, s.InsertReading(ctx, r))
	}

	t.Run("latest", func(t *testing.T) {
		r, err := s.LatestReading(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(1409), r.ReadingCcf)
		assert.True(t, r.RecordedAt.Equal(seed[3].RecordedAt))
	})

	t.Run("reading on a day with a reading", func(t *testing.T) {
		r, err := s.ReadingOn(ctx, time.Date(2025, 12, 11, 0, 0, 0, 0, time.UTC))
		require.NoError(t, err)
		assert.Equal(t, int64(1339), r.ReadingCcf)
	})

	t.Run("reading on a day without falls back to prior", func(t *testing.T) {
		r, err := s.ReadingOn(ctx, time.Date(2025, 12, 25, 0, 0, 0, 0, time.UTC))
		require.NoError(t, err)
		assert.Equal(t, int64(1361), r.ReadingCcf)
	})

	t.Run("reading before any data", func(t *testing.T) {
		_, err := s.ReadingOn(ctx, time.Date(2025, 11, 1, 0, 0, 0, 0, time.UTC))
		assert.ErrorIs(t, err, ErrNoReadings)
	})

	t.Run("history", func(t *testing.T) {
		readings, err := s.ReadingHistory(ctx,
			time.Date(2025, 12, 15, 0, 0, 0, 0, time.UTC),
			time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
		require.NoError(t, err)
		require.Len(t, readings, 2)
		assert.Equal(t, int64(1361), readings[0].ReadingCcf)
		assert.Equal(t, int64(1384), readings[1].ReadingCcf)
	})

	t.Run("history outside range is empty", func(t *testing.T) {
		readings, err := s.ReadingHistory(ctx,
			time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
			time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC))
		require.NoError(t, err)
		assert.Empty(t, readings)
	})
}

func TestSQLiteEmpty(t *testing.T) {
	s := newTestDB(t)
	_, err := s.LatestReading(context.Background())
	assert.ErrorIs(t, err, ErrNoReadings)
}

func TestSQLiteInsertDefaultsTimestamp(t *testing.T) {
	ctx := context.Background()
	s := newTestDB(t)

	require.NoError(t, s.InsertReading(ctx, types.MeterReading{ReadingCcf: 100}))
	r, err := s.LatestReading(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(100), r.ReadingCcf)
	assert.WithinDuration(t, time.Now(), r.RecordedAt, time.Minute)
}
