// Package degreeday computes heating degree days from temperature
// observations. A heating degree day measures how far the day's average
// temperature fell below the 65°F balance point.
package degreeday

import (
	"errors"

	"github.com/billcast/billcast/pkg/types"
)

// BaseTempF is the balance temperature the industry computes HDD against.
const BaseTempF = 65.0

// MinHourlySamples is the fewest hourly samples a day needs before the
// hourly mean is trusted. Archives routinely drop a few of the 24 expected
// observations; below this floor the day is treated as insufficient rather
// than estimated from whatever partial extremes happen to remain.
const MinHourlySamples = 20

// ErrInsufficientData is returned when a day has too few hourly samples to
// compute a trustworthy mean. Callers decide the fallback.
var ErrInsufficientData = errors.New("insufficient hourly samples")

// FromExtremes computes the day's HDD from its high and low, the convention
// printed on bills: max(0, 65 − (high+low)/2).
func FromExtremes(highF, lowF float64) float64 {
	hdd := BaseTempF - (highF+lowF)/2
	if hdd < 0 {
		return 0
	}
	return hdd
}

// FromHourly computes the day's HDD from hourly samples using the mean of
// the samples: max(0, 65 − mean). Hourly data captures intra-day swings that
// the high/low midpoint misses, so for a day with a brief warm spike the two
// conventions legitimately disagree; they must not be mixed silently.
func FromHourly(samples []types.HourlySample) (float64, error) {
	if len(samples) < MinHourlySamples {
		return 0, ErrInsufficientData
	}
	var sum float64
	for _, s := range samples {
		sum += s.TempF
	}
	mean := sum / float64(len(samples))
	hdd := BaseTempF - mean
	if hdd < 0 {
		return 0, nil
	}
	return hdd, nil
}
