package engine

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/billcast/billcast/pkg/degreeday"
	"github.com/billcast/billcast/pkg/log"
	"github.com/billcast/billcast/pkg/tariff"
	"github.com/billcast/billcast/pkg/types"
	"github.com/billcast/billcast/pkg/weather"
)

// sourceTimeout bounds each upstream weather call. A slow source degrades to
// assumed-normal days instead of stalling the estimate.
const sourceTimeout = 15 * time.Second

// dateKey identifies a calendar day independent of time zone pointers, which
// differ between parsed API timestamps and caller-constructed dates.
type dateKey struct {
	y int
	m time.Month
	d int
}

func keyOf(t time.Time) dateKey {
	y, m, d := t.Date()
	return dateKey{y, m, d}
}

// Resolver produces a complete, gapless DailyHDD series for a billing cycle
// by picking the best available source per day: hourly archive data for past
// days, the forecast for coming days, seasonal normals for anything neither
// covers. It never fails because a source is down; those days degrade to
// assumed and the provenance tags say so.
type Resolver struct {
	archive    weather.Archive
	forecaster weather.Forecaster
	cfg        *tariff.Config
}

// NewResolver builds a Resolver around the two weather sources.
func NewResolver(archive weather.Archive, forecaster weather.Forecaster, cfg *tariff.Config) *Resolver {
	return &Resolver{archive: archive, forecaster: forecaster, cfg: cfg}
}

// Resolve returns one DailyHDD per calendar day in the cycle, in order. The
// only error is a malformed cycle; source unavailability shows up as assumed
// days, never as a failure.
func (r *Resolver) Resolve(ctx context.Context, cycle types.BillingCycle) ([]types.DailyHDD, error) {
	if err := cycle.Validate(); err != nil {
		return nil, err
	}
	elapsed, remaining := cycle.Partition()

	// the two sources are independent; fetch them together, each under its
	// own timeout
	var (
		wg       sync.WaitGroup
		obs      map[dateKey]weather.DailyObservation
		forecast map[dateKey]weather.DailyForecast
	)
	if len(elapsed) > 0 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			obs = r.fetchObservations(ctx, elapsed[0], elapsed[len(elapsed)-1])
		}()
	}
	if len(remaining) > 0 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			forecast = r.fetchForecast(ctx)
		}()
	}
	wg.Wait()

	out := make([]types.DailyHDD, 0, len(elapsed)+len(remaining))
	for _, day := range elapsed {
		out = append(out, r.resolveElapsed(ctx, day, obs))
	}
	for _, day := range remaining {
		out = append(out, r.resolveRemaining(day, forecast))
	}
	return out, nil
}

func (r *Resolver) fetchObservations(ctx context.Context, first, last time.Time) map[dateKey]weather.DailyObservation {
	ctx, cancel := context.WithTimeout(ctx, sourceTimeout)
	defer cancel()

	end := types.DateOf(last).AddDate(0, 0, 1)
	obs, err := r.archive.Observations(ctx, types.DateOf(first), end)
	if err != nil {
		log.Ctx(ctx).WarnContext(ctx, "historical archive unavailable, degrading to assumed",
			slog.Any("error", err))
		return nil
	}
	byDay := make(map[dateKey]weather.DailyObservation, len(obs))
	for _, o := range obs {
		byDay[keyOf(o.Date)] = o
	}
	return byDay
}

func (r *Resolver) fetchForecast(ctx context.Context) map[dateKey]weather.DailyForecast {
	ctx, cancel := context.WithTimeout(ctx, sourceTimeout)
	defer cancel()

	fc, err := r.forecaster.Forecast(ctx)
	if err != nil {
		log.Ctx(ctx).WarnContext(ctx, "forecast unavailable, degrading to assumed",
			slog.Any("error", err))
		return nil
	}
	byDay := make(map[dateKey]weather.DailyForecast, len(fc))
	for _, f := range fc {
		byDay[keyOf(f.Date)] = f
	}
	return byDay
}

// resolveElapsed picks the source for a past day: sufficient hourly samples,
// then daily extremes, then the seasonal normal.
func (r *Resolver) resolveElapsed(ctx context.Context, day time.Time, obs map[dateKey]weather.DailyObservation) types.DailyHDD {
	o, ok := obs[keyOf(day)]
	if ok && len(o.Hourly) > 0 {
		hdd, err := degreeday.FromHourly(o.Hourly)
		if err == nil {
			return types.DailyHDD{Date: day, HDD: hdd, Source: types.HDDSourceHistorical}
		}
		if !errors.Is(err, degreeday.ErrInsufficientData) {
			log.Ctx(ctx).WarnContext(ctx, "hourly hdd failed", slog.Time("day", day), slog.Any("error", err))
		}
	}
	if ok && o.HighF != nil && o.LowF != nil {
		// partial hourly coverage but the source recorded daily extremes;
		// tagged distinctly so a mixed cycle is visible
		return types.DailyHDD{
			Date:   day,
			HDD:    degreeday.FromExtremes(*o.HighF, *o.LowF),
			Source: types.HDDSourceHistoricalExtremes,
		}
	}
	return r.assumed(day)
}

// resolveRemaining picks the source for a current or future day: a two-sided
// forecast, a high-only forecast with a synthesized low, or the seasonal
// normal.
func (r *Resolver) resolveRemaining(day time.Time, forecast map[dateKey]weather.DailyForecast) types.DailyHDD {
	f, ok := forecast[keyOf(day)]
	if !ok || f.HighF == nil {
		return r.assumed(day)
	}
	if f.LowF != nil {
		return types.DailyHDD{
			Date:   day,
			HDD:    degreeday.FromExtremes(*f.HighF, *f.LowF),
			Source: types.HDDSourceForecast,
		}
	}
	// the forecast window's final day usually omits the overnight low;
	// synthesize one from the configured spread rather than dropping the day
	low := *f.HighF - r.cfg.ForecastLowSpreadF
	return types.DailyHDD{
		Date:   day,
		HDD:    degreeday.FromExtremes(*f.HighF, low),
		Source: types.HDDSourceForecastSynthesizedLow,
	}
}

func (r *Resolver) assumed(day time.Time) types.DailyHDD {
	return types.DailyHDD{
		Date:   day,
		HDD:    r.cfg.NormalFor(day.Month()),
		Source: types.HDDSourceAssumed,
	}
}
