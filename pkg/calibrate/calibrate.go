// Package calibrate derives the Ccf-per-HDD slope that relates weather to
// this installation's gas usage. It runs offline over recorded meter readings
// and historical weather; the estimation engine only consumes the resulting
// constant.
package calibrate

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/billcast/billcast/pkg/engine"
	"github.com/billcast/billcast/pkg/storage"
	"github.com/billcast/billcast/pkg/tariff"
	"github.com/billcast/billcast/pkg/types"
	"github.com/billcast/billcast/pkg/weather"
)

// ErrInsufficientData is returned when the readings don't span enough heating
// weather to fit a slope.
var ErrInsufficientData = errors.New("not enough data to calibrate")

// Interval is the usage between two consecutive meter readings and the HDD
// accumulated over the same days.
type Interval struct {
	Start    time.Time `json:"start"`
	End      time.Time `json:"end"`
	HDD      float64   `json:"hdd"`
	UsageCcf int64     `json:"usageCcf"`
}

// Result is a fitted slope plus the intervals behind it.
type Result struct {
	SlopeCcfPerHDD float64    `json:"slopeCcfPerHdd"`
	Intervals      []Interval `json:"intervals"`
	TotalHDD       float64    `json:"totalHDD"`
	TotalCcf       int64      `json:"totalCcf"`
}

// Slope fits usage = slope * HDD by least squares through the origin. Usage
// with no heating degree days is base load and doesn't belong to the slope,
// which is why the fit is constrained through zero.
func Slope(intervals []Interval) (float64, error) {
	var sumXY, sumXX float64
	for _, iv := range intervals {
		sumXY += iv.HDD * float64(iv.UsageCcf)
		sumXX += iv.HDD * iv.HDD
	}
	if sumXX == 0 {
		return 0, fmt.Errorf("%w: no heating degree days in any interval", ErrInsufficientData)
	}
	return sumXY / sumXX, nil
}

// Calibrator joins the reading store with the weather archive.
type Calibrator struct {
	db       storage.Database
	resolver *engine.Resolver
}

// New builds a Calibrator.
func New(db storage.Database, archive weather.Archive, cfg *tariff.Config) *Calibrator {
	// the forecaster is never consulted: calibration windows are entirely in
	// the past
	return &Calibrator{
		db:       db,
		resolver: engine.NewResolver(archive, noForecast{}, cfg),
	}
}

// Run fits the slope over the readings recorded between start and end. At
// least two readings are required.
func (c *Calibrator) Run(ctx context.Context, start, end time.Time) (Result, error) {
	readings, err := c.db.ReadingHistory(ctx, start, end)
	if err != nil {
		return Result{}, err
	}
	if len(readings) < 2 {
		return Result{}, fmt.Errorf("%w: need at least 2 readings, have %d", ErrInsufficientData, len(readings))
	}

	// resolve the whole window's HDD once; an as-of past the end makes every
	// day historical
	last := readings[len(readings)-1].RecordedAt
	days, err := c.resolver.Resolve(ctx, types.BillingCycle{
		Start: readings[0].RecordedAt,
		End:   last,
		AsOf:  types.DateOf(last).AddDate(0, 0, 1),
	})
	if err != nil {
		return Result{}, err
	}
	hddByDay := make(map[string]float64, len(days))
	for _, d := range days {
		hddByDay[d.Date.Format(time.DateOnly)] = d.HDD
	}

	res := Result{}
	for i := 1; i < len(readings); i++ {
		prev, cur := readings[i-1], readings[i]
		usage := cur.ReadingCcf - prev.ReadingCcf
		if usage < 0 {
			return Result{}, fmt.Errorf("%w: reading at %s is behind its predecessor",
				engine.ErrInvalidMeterDelta, cur.RecordedAt.Format(time.RFC3339))
		}
		var hdd float64
		for d := types.DateOf(prev.RecordedAt); d.Before(types.DateOf(cur.RecordedAt)); d = d.AddDate(0, 0, 1) {
			hdd += hddByDay[d.Format(time.DateOnly)]
		}
		res.Intervals = append(res.Intervals, Interval{
			Start:    prev.RecordedAt,
			End:      cur.RecordedAt,
			HDD:      hdd,
			UsageCcf: usage,
		})
		res.TotalHDD += hdd
		res.TotalCcf += usage
	}

	res.SlopeCcfPerHDD, err = Slope(res.Intervals)
	if err != nil {
		return Result{}, err
	}
	return res, nil
}

// noForecast satisfies the forecaster interface for windows with no future
// days.
type noForecast struct{}

func (noForecast) Forecast(ctx context.Context) ([]weather.DailyForecast, error) {
	return nil, nil
}
