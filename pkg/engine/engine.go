// Package engine runs the billing-cycle estimation pipeline: resolve a
// day-by-day HDD series for the cycle, project usage from the meter and the
// remaining weather, price the result through the WNA tariff, and compose an
// itemized bill estimate.
package engine

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/billcast/billcast/pkg/log"
	"github.com/billcast/billcast/pkg/storage"
	"github.com/billcast/billcast/pkg/tariff"
	"github.com/billcast/billcast/pkg/types"
	"github.com/billcast/billcast/pkg/weather"
)

// storeTimeout bounds each meter-reading query.
const storeTimeout = 10 * time.Second

// Engine estimates a bill for a billing cycle. Each Estimate call is
// self-contained; engines are safe for concurrent use.
type Engine struct {
	db       storage.Database
	resolver *Resolver
	cfg      *tariff.Config
}

// New builds an Engine from its collaborators.
func New(db storage.Database, archive weather.Archive, forecaster weather.Forecaster, cfg *tariff.Config) *Engine {
	return &Engine{
		db:       db,
		resolver: NewResolver(archive, forecaster, cfg),
		cfg:      cfg,
	}
}

// Estimate produces a BillEstimate for the cycle as of cycle.AsOf. Weather
// source failures degrade to assumed days; a malformed cycle or corrupted
// meter data abort the request.
func (e *Engine) Estimate(ctx context.Context, cycle types.BillingCycle) (types.BillEstimate, error) {
	if err := cycle.Validate(); err != nil {
		return types.BillEstimate{}, err
	}
	elapsedDays, _ := cycle.Partition()

	// the weather resolution and the two store reads are independent of each
	// other; issue them together
	var (
		wg         sync.WaitGroup
		days       []types.DailyHDD
		resolveErr error
		startRef   types.MeterReading
		startErr   error
		latest     types.MeterReading
		latestErr  error
	)
	wg.Add(3)
	go func() {
		defer wg.Done()
		days, resolveErr = e.resolver.Resolve(ctx, cycle)
	}()
	go func() {
		defer wg.Done()
		rctx, cancel := context.WithTimeout(ctx, storeTimeout)
		defer cancel()
		// the cycle-start reference is the last reading before the cycle's
		// first day
		startRef, startErr = e.db.ReadingOn(rctx, types.DateOf(cycle.Start).AddDate(0, 0, -1))
	}()
	go func() {
		defer wg.Done()
		rctx, cancel := context.WithTimeout(ctx, storeTimeout)
		defer cancel()
		latest, latestErr = e.db.LatestReading(rctx)
	}()
	wg.Wait()

	if resolveErr != nil {
		return types.BillEstimate{}, resolveErr
	}
	if startErr != nil || latestErr != nil {
		// a cycle with no elapsed days has no metered usage yet; missing
		// readings are fine there
		if len(elapsedDays) == 0 && (startErr == nil || errors.Is(startErr, storage.ErrNoReadings)) &&
			(latestErr == nil || errors.Is(latestErr, storage.ErrNoReadings)) {
			startRef, latest = types.MeterReading{}, types.MeterReading{}
		} else if startErr != nil {
			return types.BillEstimate{}, startErr
		} else {
			return types.BillEstimate{}, latestErr
		}
	}

	var (
		elapsedHDD, remainingHDD, cycleHDD float64
		provenance                         types.ProvenanceCounts
	)
	for i, d := range days {
		cycleHDD += d.HDD
		if i < len(elapsedDays) {
			elapsedHDD += d.HDD
		} else {
			remainingHDD += d.HDD
		}
		provenance.Count(d.Source)
	}

	proj, err := Project(startRef, latest, remainingHDD, e.cfg.SlopeCcfPerHDD)
	if err != nil {
		return types.BillEstimate{}, err
	}

	// the WNA factor normalizes either just the elapsed period (future days
	// are assumed normal and cancel out) or the whole cycle
	var ndd, add float64
	if e.cfg.WNAElapsedOnly {
		ndd = e.cfg.NormalForPeriod(elapsedDays)
		add = elapsedHDD
	} else {
		ndd = e.cfg.NormalForPeriod(cycle.Days())
		add = cycleHDD
	}

	var factor float64
	var degenerate bool
	if e.cfg.Tariff.WNAApplies(types.DateOf(cycle.End).Month()) {
		factor, degenerate = tariff.Factor(
			e.cfg.Tariff.DistributionRatePerMcf,
			e.cfg.Tariff.HeatSensitivityFactor,
			e.cfg.Tariff.BaseLoadMcf,
			ndd, add)
		if degenerate {
			log.Ctx(ctx).WarnContext(ctx, "degenerate tariff, zero wna adjustment",
				slog.String("tariff", e.cfg.Tariff.Name))
		}
	}

	items, total := tariff.Compose(proj.TotalCcf, e.cfg.Tariff, factor)

	log.Ctx(ctx).InfoContext(ctx, "estimate complete",
		slog.Time("cycleStart", cycle.Start),
		slog.Time("cycleEnd", cycle.End),
		slog.Int64("usageCcf", proj.TotalCcf),
		slog.Float64("wnaFactorPerMcf", factor),
		slog.Int("assumedDays", provenance.Assumed))

	return types.BillEstimate{
		Cycle:              cycle,
		UsageElapsedCcf:    proj.ElapsedCcf,
		UsageRemainingCcf:  proj.RemainingCcf,
		UsageTotalExactCcf: proj.TotalExactCcf,
		UsageTotalCcf:      proj.TotalCcf,
		ProjectedMeterLow:  proj.MeterLow,
		ProjectedMeterHigh: proj.MeterHigh,
		NormalHDD:          ndd,
		ActualHDD:          add,
		CycleHDD:           cycleHDD,
		WNAFactorPerMcf:    factor,
		WNAAmount:          factor * float64(proj.TotalCcf) / 10,
		DegenerateTariff:   degenerate,
		Days:               days,
		Provenance:         provenance,
		LineItems:          items,
		Total:              total,
		GeneratedAt:        time.Now(),
	}, nil
}
