package engine

import (
	"errors"
	"fmt"
	"math"

	"github.com/billcast/billcast/pkg/types"
)

// ErrInvalidMeterDelta is returned when the latest reading is behind the
// cycle-start reference: a rollover or an out-of-order entry. That is
// corrupted input, not something to guess around.
var ErrInvalidMeterDelta = errors.New("negative meter delta")

// Projection holds the usage figures for a cycle: what the meter has
// registered so far plus a weather-derived projection of the rest.
type Projection struct {
	ElapsedCcf    float64
	RemainingCcf  float64
	TotalExactCcf float64

	// TotalCcf is the exact total floored to whole Ccf; the register only
	// shows fully-turned digits so the bill will use this figure.
	TotalCcf int64

	// The true end-of-cycle register value lies in [MeterLow, MeterHigh).
	MeterLow  int64
	MeterHigh int64
}

// Project merges the metered delta with a projection of the remaining days'
// usage from their HDD sum and the calibrated Ccf-per-HDD slope.
func Project(startRef, latest types.MeterReading, remainingHDD, slopeCcfPerHDD float64) (Projection, error) {
	delta := latest.ReadingCcf - startRef.ReadingCcf
	if delta < 0 {
		return Projection{}, fmt.Errorf("%w: start reference %d, latest %d",
			ErrInvalidMeterDelta, startRef.ReadingCcf, latest.ReadingCcf)
	}

	remaining := remainingHDD * slopeCcfPerHDD
	exact := float64(delta) + remaining
	total := int64(math.Floor(exact))

	return Projection{
		ElapsedCcf:    float64(delta),
		RemainingCcf:  remaining,
		TotalExactCcf: exact,
		TotalCcf:      total,
		MeterLow:      startRef.ReadingCcf + total,
		MeterHigh:     startRef.ReadingCcf + total + 1,
	}, nil
}
