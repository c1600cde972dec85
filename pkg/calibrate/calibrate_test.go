package calibrate

import (
	"context"
	"testing"
	"time"

	"github.com/billcast/billcast/pkg/engine"
	"github.com/billcast/billcast/pkg/storage/storagemock"
	"github.com/billcast/billcast/pkg/tariff"
	"github.com/billcast/billcast/pkg/types"
	"github.com/billcast/billcast/pkg/weather"
	"github.com/billcast/billcast/pkg/weather/weathermock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestSlope(t *testing.T) {
	t.Run("single interval", func(t *testing.T) {
		s, err := Slope([]Interval{{HDD: 100, UsageCcf: 12}})
		require.NoError(t, err)
		assert.InDelta(t, 0.12, s, 1e-9)
	})

	t.Run("least squares through origin", func(t *testing.T) {
		s, err := Slope([]Interval{
			{HDD: 200, UsageCcf: 22},
			{HDD: 200, UsageCcf: 23},
			{HDD: 180, UsageCcf: 25},
		})
		require.NoError(t, err)
		// (200*22 + 200*23 + 180*25) / (200^2 + 200^2 + 180^2)
		assert.InDelta(t, 13500.0/112400.0, s, 1e-9)
	})

	t.Run("no heating weather", func(t *testing.T) {
		_, err := Slope([]Interval{{HDD: 0, UsageCcf: 5}})
		assert.ErrorIs(t, err, ErrInsufficientData)
	})
}

func TestCalibratorRun(t *testing.T) {
	ctx := context.Background()
	cfg := tariff.Default()

	readings := []types.MeterReading{
		{ReadingCcf: 1339, RecordedAt: day(2025, 12, 11)},
		{ReadingCcf: 1361, RecordedAt: day(2025, 12, 21)},
		{ReadingCcf: 1384, RecordedAt: day(2025, 12, 31)},
		{ReadingCcf: 1409, RecordedAt: day(2026, 1, 9)},
	}

	// every day in the window at a constant 45F is 20 HDD
	var obs []weather.DailyObservation
	for d := day(2025, 12, 11); !d.After(day(2026, 1, 9)); d = d.AddDate(0, 0, 1) {
		hourly := make([]types.HourlySample, 24)
		for i := range hourly {
			hourly[i] = types.HourlySample{TS: d.Add(time.Duration(i) * time.Hour), TempF: 45}
		}
		obs = append(obs, weather.DailyObservation{Date: d, Hourly: hourly})
	}

	t.Run("fits the real winter", func(t *testing.T) {
		db := &storagemock.MockDatabase{}
		db.On("ReadingHistory", mock.Anything, mock.Anything, mock.Anything).Return(readings, nil)
		archive := &weathermock.MockArchive{}
		archive.On("Observations", mock.Anything, mock.Anything, mock.Anything).Return(obs, nil)

		res, err := New(db, archive, &cfg).Run(ctx, day(2025, 12, 1), day(2026, 1, 10))
		require.NoError(t, err)

		require.Len(t, res.Intervals, 3)
		assert.InDelta(t, 200, res.Intervals[0].HDD, 1e-9)
		assert.Equal(t, int64(22), res.Intervals[0].UsageCcf)
		assert.InDelta(t, 180, res.Intervals[2].HDD, 1e-9)
		assert.Equal(t, int64(25), res.Intervals[2].UsageCcf)
		assert.InDelta(t, 580, res.TotalHDD, 1e-9)
		assert.Equal(t, int64(70), res.TotalCcf)
		assert.InDelta(t, 13500.0/112400.0, res.SlopeCcfPerHDD, 1e-9)
	})

	t.Run("too few readings", func(t *testing.T) {
		db := &storagemock.MockDatabase{}
		db.On("ReadingHistory", mock.Anything, mock.Anything, mock.Anything).
			Return(readings[:1], nil)

		_, err := New(db, &weathermock.MockArchive{}, &cfg).Run(ctx, day(2025, 12, 1), day(2026, 1, 10))
		assert.ErrorIs(t, err, ErrInsufficientData)
	})

	t.Run("corrupted readings", func(t *testing.T) {
		db := &storagemock.MockDatabase{}
		db.On("ReadingHistory", mock.Anything, mock.Anything, mock.Anything).
			Return([]types.MeterReading{
				{ReadingCcf: 1400, RecordedAt: day(2025, 12, 11)},
				{ReadingCcf: 1339, RecordedAt: day(2025, 12, 21)},
			}, nil)
		archive := &weathermock.MockArchive{}
		archive.On("Observations", mock.Anything, mock.Anything, mock.Anything).Return(obs, nil)

		_, err := New(db, archive, &cfg).Run(ctx, day(2025, 12, 1), day(2026, 1, 10))
		assert.ErrorIs(t, err, engine.ErrInvalidMeterDelta)
	})
}
