// Package weather provides the two upstream temperature sources the
// estimation engine consumes: a historical hourly archive and a short-range
// forecast. Both are opaque collaborators; the engine only sees the
// interfaces and degrades gracefully when either is unavailable.
package weather

import (
	"context"
	"time"

	"github.com/billcast/billcast/pkg/types"
)

// DailyObservation is one calendar day of archived temperature data. A day
// may carry hourly samples, a daily high/low, both, or neither depending on
// what the source recorded.
type DailyObservation struct {
	Date   time.Time
	HighF  *float64
	LowF   *float64
	Hourly []types.HourlySample
}

// Archive provides historical hourly temperatures for the configured
// station. Days inside the range may be partially or wholly missing.
type Archive interface {
	// Observations returns per-day observations covering [start, end],
	// ordered by date. Missing days are simply absent.
	Observations(ctx context.Context, start, end time.Time) ([]DailyObservation, error)
}

// DailyForecast is one day of a short-range forecast. The final day of a
// forecast window commonly has a high but no overnight low.
type DailyForecast struct {
	Date  time.Time
	HighF *float64
	LowF  *float64
}

// Forecaster provides the short-range daily forecast for the configured
// location, roughly seven days ahead.
type Forecaster interface {
	Forecast(ctx context.Context) ([]DailyForecast, error)
}

// Configured sets up the NWS-backed archive and forecaster. Both are served
// by the same api.weather.gov client.
func Configured() (Archive, Forecaster) {
	n := configuredNWS()
	return n, n
}
