package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/billcast/billcast/pkg/engine"
	"github.com/billcast/billcast/pkg/log"
	"github.com/billcast/billcast/pkg/publish"
	"github.com/billcast/billcast/pkg/storage"
	"github.com/billcast/billcast/pkg/tariff"
	"github.com/billcast/billcast/pkg/types"
	"github.com/billcast/billcast/pkg/weather"
	"github.com/levenlabs/go-lflag"
)

func main() {
	s := storage.Configured()
	archive, forecaster := weather.Configured()
	cfg := tariff.Configured()
	pub := publish.Configured()

	start := lflag.RequiredString("start", "Cycle start date (YYYY-MM-DD)")
	end := lflag.RequiredString("end", "Cycle end date (YYYY-MM-DD)")
	asOf := lflag.String("asof", "", "Estimate as of this date (YYYY-MM-DD), defaults to today")
	format := lflag.String("format", "text", "Output format (text or json)")

	lflag.Configure()

	ctx := context.Background()
	defer func() {
		if err := s.Close(); err != nil {
			log.Ctx(ctx).ErrorContext(ctx, "failed to close storage", "error", err)
		}
	}()
	defer pub.Close()

	cycle, err := parseCycle(*start, *end, *asOf)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	est, err := engine.New(s, archive, forecaster, cfg).Estimate(ctx, cycle)
	if err != nil {
		fmt.Fprintln(os.Stderr, "estimate failed:", err)
		os.Exit(1)
	}

	if err := pub.Publish(ctx, est); err != nil {
		log.Ctx(ctx).ErrorContext(ctx, "failed to publish estimate", "error", err)
	}

	switch *format {
	case "json":
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(est); err != nil {
			fmt.Fprintln(os.Stderr, "encoding estimate:", err)
			os.Exit(1)
		}
	case "text":
		printText(est)
	default:
		fmt.Fprintf(os.Stderr, "unknown format %q\n", *format)
		os.Exit(2)
	}
}

func parseCycle(start, end, asOf string) (types.BillingCycle, error) {
	cycle := types.BillingCycle{AsOf: time.Now()}
	var err error
	if cycle.Start, err = time.Parse(time.DateOnly, start); err != nil {
		return cycle, fmt.Errorf("invalid -start: %w", err)
	}
	if cycle.End, err = time.Parse(time.DateOnly, end); err != nil {
		return cycle, fmt.Errorf("invalid -end: %w", err)
	}
	if asOf != "" {
		if cycle.AsOf, err = time.Parse(time.DateOnly, asOf); err != nil {
			return cycle, fmt.Errorf("invalid -asof: %w", err)
		}
	}
	return cycle, cycle.Validate()
}

func printText(est types.BillEstimate) {
	fmt.Printf("Cycle %s to %s (as of %s)\n",
		est.Cycle.Start.Format(time.DateOnly),
		est.Cycle.End.Format(time.DateOnly),
		est.Cycle.AsOf.Format(time.DateOnly))
	fmt.Printf("Usage: %.0f Ccf metered + %.1f Ccf projected = %d Ccf\n",
		est.UsageElapsedCcf, est.UsageRemainingCcf, est.UsageTotalCcf)
	fmt.Printf("Meter at cycle end: [%d, %d)\n", est.ProjectedMeterLow, est.ProjectedMeterHigh)
	fmt.Printf("HDD: %.1f actual vs %.1f normal (%.1f full cycle)\n",
		est.ActualHDD, est.NormalHDD, est.CycleHDD)
	fmt.Printf("WNA: %+.4f $/Mcf\n", est.WNAFactorPerMcf)
	if est.DegenerateTariff {
		fmt.Println("warning: degenerate tariff parameters, WNA forced to zero")
	}
	fmt.Println()
	for _, li := range est.LineItems {
		fmt.Printf("  %-36s %8.2f\n", li.Name, types.RoundCents(li.Amount))
	}
	fmt.Printf("  %-36s %8.2f\n", "Total", types.RoundCents(est.Total))
	fmt.Println()
	fmt.Printf("Day sources: %d historical, %d extremes, %d forecast, %d synthesized, %d assumed\n",
		est.Provenance.Historical, est.Provenance.HistoricalExtremes,
		est.Provenance.Forecast, est.Provenance.ForecastSynthLow,
		est.Provenance.Assumed)
}
