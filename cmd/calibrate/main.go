package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/billcast/billcast/pkg/calibrate"
	"github.com/billcast/billcast/pkg/log"
	"github.com/billcast/billcast/pkg/storage"
	"github.com/billcast/billcast/pkg/tariff"
	"github.com/billcast/billcast/pkg/weather"
	"github.com/levenlabs/go-lflag"
)

func main() {
	s := storage.Configured()
	archive, _ := weather.Configured()
	cfg := tariff.Configured()

	start := lflag.RequiredString("start", "Calibration window start date (YYYY-MM-DD)")
	end := lflag.String("end", "", "Calibration window end date (YYYY-MM-DD), defaults to today")

	lflag.Configure()

	ctx := context.Background()
	defer func() {
		if err := s.Close(); err != nil {
			log.Ctx(ctx).ErrorContext(ctx, "failed to close storage", "error", err)
		}
	}()

	startDate, err := time.Parse(time.DateOnly, *start)
	if err != nil {
		fmt.Fprintln(os.Stderr, "invalid -start:", err)
		os.Exit(2)
	}
	endDate := time.Now()
	if *end != "" {
		endDate, err = time.Parse(time.DateOnly, *end)
		if err != nil {
			fmt.Fprintln(os.Stderr, "invalid -end:", err)
			os.Exit(2)
		}
	}

	res, err := calibrate.New(s, archive, cfg).Run(ctx, startDate, endDate)
	if err != nil {
		fmt.Fprintln(os.Stderr, "calibration failed:", err)
		os.Exit(1)
	}

	fmt.Printf("fitted %d intervals: %d Ccf over %.1f HDD\n",
		len(res.Intervals), res.TotalCcf, res.TotalHDD)
	for _, iv := range res.Intervals {
		fmt.Printf("  %s to %s: %3d Ccf / %6.1f HDD\n",
			iv.Start.Format(time.DateOnly), iv.End.Format(time.DateOnly), iv.UsageCcf, iv.HDD)
	}
	fmt.Printf("\nslope_ccf_per_hdd: %.6f\n", res.SlopeCcfPerHDD)
	fmt.Println("set this in the tariff config to apply it")
}
