package engine

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/billcast/billcast/pkg/degreeday"
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

func f64(v float64) *float64 { return &v }

// hourlyAt builds a full day of hourly samples at a constant temperature.
func hourlyAt(d time.Time, tempF float64, n int) []types.HourlySample {
	out := make([]types.HourlySample, n)
	for i := range out {
		out[i] = types.HourlySample{TS: d.Add(time.Duration(i) * time.Hour), TempF: tempF}
	}
	return out
}

func testConfig() *tariff.Config {
	cfg := tariff.Default()
	return &cfg
}

func TestResolverSelectionPolicy(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig()

	// Jan 1-5 elapsed, Jan 6-10 remaining
	cycle := types.BillingCycle{
		Start: day(2026, 1, 1),
		End:   day(2026, 1, 10),
		AsOf:  day(2026, 1, 6),
	}

	archive := &weathermock.MockArchive{}
	archive.On("Observations", mock.Anything, mock.Anything, mock.Anything).Return([]weather.DailyObservation{
		// full hourly day
		{Date: day(2026, 1, 1), Hourly: hourlyAt(day(2026, 1, 1), 45, 24)},
		// insufficient hourly but extremes recorded
		{Date: day(2026, 1, 2), HighF: f64(50), LowF: f64(30), Hourly: hourlyAt(day(2026, 1, 2), 40, 5)},
		// insufficient hourly and no extremes
		{Date: day(2026, 1, 3), Hourly: hourlyAt(day(2026, 1, 3), 40, 5)},
		// Jan 4-5 entirely absent
	}, nil)

	forecaster := &weathermock.MockForecaster{}
	forecaster.On("Forecast", mock.Anything).Return([]weather.DailyForecast{
		{Date: day(2026, 1, 6), HighF: f64(40), LowF: f64(20)},
		{Date: day(2026, 1, 7), HighF: f64(38), LowF: f64(24)},
		// final day has only a high
		{Date: day(2026, 1, 8), HighF: f64(44)},
		// Jan 9-10 beyond the forecast window
	}, nil)

	r := NewResolver(archive, forecaster, cfg)
	days, err := r.Resolve(ctx, cycle)
	require.NoError(t, err)
	require.Len(t, days, 10)

	// complete, ordered, gapless
	for i, d := range days {
		assert.True(t, d.Date.Equal(day(2026, 1, 1+i)), "day %d", i)
		assert.GreaterOrEqual(t, d.HDD, 0.0)
	}

	assert.Equal(t, types.HDDSourceHistorical, days[0].Source)
	assert.InDelta(t, 20, days[0].HDD, 1e-9)

	assert.Equal(t, types.HDDSourceHistoricalExtremes, days[1].Source)
	assert.InDelta(t, 25, days[1].HDD, 1e-9)

	assert.Equal(t, types.HDDSourceAssumed, days[2].Source)
	assert.InDelta(t, cfg.NormalFor(time.January), days[2].HDD, 1e-9)

	assert.Equal(t, types.HDDSourceAssumed, days[3].Source)
	assert.Equal(t, types.HDDSourceAssumed, days[4].Source)

	assert.Equal(t, types.HDDSourceForecast, days[5].Source)
	assert.InDelta(t, 35, days[5].HDD, 1e-9)

	assert.Equal(t, types.HDDSourceForecast, days[6].Source)

	assert.Equal(t, types.HDDSourceForecastSynthesizedLow, days[7].Source)
	assert.InDelta(t, degreeday.FromExtremes(44, 44-cfg.ForecastLowSpreadF), days[7].HDD, 1e-9)

	assert.Equal(t, types.HDDSourceAssumed, days[8].Source)
	assert.Equal(t, types.HDDSourceAssumed, days[9].Source)
}

func TestResolverSourceFailures(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig()
	cycle := types.BillingCycle{
		Start: day(2026, 1, 1),
		End:   day(2026, 1, 10),
		AsOf:  day(2026, 1, 6),
	}

	t.Run("forecast outage degrades all remaining days", func(t *testing.T) {
		archive := &weathermock.MockArchive{}
		archive.On("Observations", mock.Anything, mock.Anything, mock.Anything).
			Return([]weather.DailyObservation{}, nil)
		forecaster := &weathermock.MockForecaster{}
		forecaster.On("Forecast", mock.Anything).Return(nil, errors.New("api unavailable"))

		days, err := NewResolver(archive, forecaster, cfg).Resolve(ctx, cycle)
		require.NoError(t, err, "source unavailability must not abort the estimate")
		require.Len(t, days, 10)

		var assumed int
		for _, d := range days[5:] {
			if d.Source == types.HDDSourceAssumed {
				assumed++
			}
		}
		assert.Equal(t, 5, assumed, "every remaining day falls back to assumed")
	})

	t.Run("archive outage degrades all elapsed days", func(t *testing.T) {
		archive := &weathermock.MockArchive{}
		archive.On("Observations", mock.Anything, mock.Anything, mock.Anything).
			Return(nil, errors.New("station unreachable"))
		forecaster := &weathermock.MockForecaster{}
		forecaster.On("Forecast", mock.Anything).Return([]weather.DailyForecast{}, nil)

		days, err := NewResolver(archive, forecaster, cfg).Resolve(ctx, cycle)
		require.NoError(t, err)
		for _, d := range days {
			assert.Equal(t, types.HDDSourceAssumed, d.Source)
		}
	})
}

func TestResolverSkipsUnneededSources(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig()

	t.Run("entirely future cycle never queries the archive", func(t *testing.T) {
		forecaster := &weathermock.MockForecaster{}
		forecaster.On("Forecast", mock.Anything).Return([]weather.DailyForecast{}, nil)
		archive := &weathermock.MockArchive{}

		cycle := types.BillingCycle{
			Start: day(2026, 2, 1),
			End:   day(2026, 2, 10),
			AsOf:  day(2026, 1, 6),
		}
		days, err := NewResolver(archive, forecaster, cfg).Resolve(ctx, cycle)
		require.NoError(t, err)
		assert.Len(t, days, 10)
		archive.AssertNotCalled(t, "Observations", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("entirely elapsed cycle never queries the forecast", func(t *testing.T) {
		archive := &weathermock.MockArchive{}
		archive.On("Observations", mock.Anything, mock.Anything, mock.Anything).
			Return([]weather.DailyObservation{}, nil)
		forecaster := &weathermock.MockForecaster{}

		cycle := types.BillingCycle{
			Start: day(2025, 12, 1),
			End:   day(2025, 12, 10),
			AsOf:  day(2026, 1, 6),
		}
		days, err := NewResolver(archive, forecaster, cfg).Resolve(ctx, cycle)
		require.NoError(t, err)
		assert.Len(t, days, 10)
		forecaster.AssertNotCalled(t, "Forecast", mock.Anything)
	})
}

func TestResolverInvalidCycle(t *testing.T) {
	r := NewResolver(&weathermock.MockArchive{}, &weathermock.MockForecaster{}, testConfig())
	_, err := r.Resolve(context.Background(), types.BillingCycle{
		Start: day(2026, 1, 10),
		End:   day(2026, 1, 1),
		AsOf:  day(2026, 1, 6),
	})
	assert.ErrorIs(t, err, types.ErrInvalidCycle)
}
