package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/billcast/billcast/pkg/log"
	"github.com/billcast/billcast/pkg/storage"
	"github.com/billcast/billcast/pkg/types"
	"github.com/levenlabs/go-lflag"
)

func main() {
	s := storage.Configured()

	reading := lflag.RequiredString("reading", "Meter register value in Ccf")
	at := lflag.String("at", "", "Reading timestamp (RFC3339), defaults to now")

	lflag.Configure()

	ctx := context.Background()
	defer func() {
		if err := s.Close(); err != nil {
			log.Ctx(ctx).ErrorContext(ctx, "failed to close storage", "error", err)
		}
	}()

	ccf, err := strconv.ParseInt(*reading, 10, 64)
	if err != nil || ccf < 0 {
		fmt.Fprintln(os.Stderr, "-reading must be a non-negative integer")
		os.Exit(2)
	}

	recordedAt := time.Now()
	if *at != "" {
		recordedAt, err = time.Parse(time.RFC3339, *at)
		if err != nil {
			fmt.Fprintln(os.Stderr, "invalid -at:", err)
			os.Exit(2)
		}
	}

	r := types.MeterReading{ReadingCcf: ccf, RecordedAt: recordedAt}
	if err := s.InsertReading(ctx, r); err != nil {
		fmt.Fprintln(os.Stderr, "failed to record reading:", err)
		os.Exit(1)
	}
	fmt.Printf("recorded %d Ccf at %s\n", ccf, recordedAt.Format(time.RFC3339))
}
