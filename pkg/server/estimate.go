package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/billcast/billcast/pkg/engine"
	"github.com/billcast/billcast/pkg/log"
	"github.com/billcast/billcast/pkg/storage"
	"github.com/billcast/billcast/pkg/types"
)

const dateFormat = "2006-01-02"

func (s *Server) handleEstimate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	cycle, err := parseCycle(r)
	if err != nil {
		writeJSONError(w, "invalid cycle: "+err.Error(), http.StatusBadRequest)
		return
	}

	est, err := s.engine.Estimate(ctx, cycle)
	if err != nil {
		switch {
		case errors.Is(err, types.ErrInvalidCycle):
			writeJSONError(w, err.Error(), http.StatusBadRequest)
		case errors.Is(err, engine.ErrInvalidMeterDelta):
			log.Ctx(ctx).ErrorContext(ctx, "meter data is corrupted", slog.Any("error", err))
			writeJSONError(w, "meter data is corrupted", http.StatusConflict)
		default:
			log.Ctx(ctx).ErrorContext(ctx, "estimate failed", slog.Any("error", err))
			writeJSONError(w, "estimate failed", http.StatusInternalServerError)
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(est); err != nil {
		panic(http.ErrAbortHandler)
	}
}

func (s *Server) handleLatestReading(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	reading, err := s.storage.LatestReading(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrNoReadings) {
			writeJSONError(w, "no readings recorded", http.StatusNotFound)
			return
		}
		log.Ctx(ctx).ErrorContext(ctx, "failed to get latest reading", slog.Any("error", err))
		writeJSONError(w, "failed to get latest reading", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(reading); err != nil {
		panic(http.ErrAbortHandler)
	}
}

func (s *Server) handleReadingHistory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	start, err := parseDate(r.URL.Query().Get("start"))
	if err != nil {
		writeJSONError(w, "invalid start: "+err.Error(), http.StatusBadRequest)
		return
	}
	end, err := parseDate(r.URL.Query().Get("end"))
	if err != nil {
		writeJSONError(w, "invalid end: "+err.Error(), http.StatusBadRequest)
		return
	}

	// the end date covers the whole day
	readings, err := s.storage.ReadingHistory(ctx, start, end.AddDate(0, 0, 1))
	if err != nil {
		log.Ctx(ctx).ErrorContext(ctx, "failed to get reading history", slog.Any("error", err))
		writeJSONError(w, "failed to get reading history", http.StatusInternalServerError)
		return
	}
	if readings == nil {
		readings = []types.MeterReading{}
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(readings); err != nil {
		panic(http.ErrAbortHandler)
	}
}

func (s *Server) handleInsertReading(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var reading types.MeterReading
	if err := json.NewDecoder(r.Body).Decode(&reading); err != nil {
		writeJSONError(w, "invalid reading: "+err.Error(), http.StatusBadRequest)
		return
	}
	if reading.ReadingCcf < 0 {
		writeJSONError(w, "reading must not be negative", http.StatusBadRequest)
		return
	}
	if reading.RecordedAt.IsZero() {
		reading.RecordedAt = time.Now()
	}

	if err := s.storage.InsertReading(ctx, reading); err != nil {
		log.Ctx(ctx).ErrorContext(ctx, "failed to insert reading", slog.Any("error", err))
		writeJSONError(w, "failed to insert reading", http.StatusInternalServerError)
		return
	}
	log.Ctx(ctx).InfoContext(ctx, "recorded meter reading",
		slog.Int64("readingCcf", reading.ReadingCcf),
		slog.Time("recordedAt", reading.RecordedAt))

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	if err := json.NewEncoder(w).Encode(reading); err != nil {
		panic(http.ErrAbortHandler)
	}
}

// parseCycle builds a billing cycle from the start, end and asof query
// parameters. asof defaults to today.
func parseCycle(r *http.Request) (types.BillingCycle, error) {
	start, err := parseDate(r.URL.Query().Get("start"))
	if err != nil {
		return types.BillingCycle{}, fmt.Errorf("start: %w", err)
	}
	end, err := parseDate(r.URL.Query().Get("end"))
	if err != nil {
		return types.BillingCycle{}, fmt.Errorf("end: %w", err)
	}
	asOf := time.Now()
	if v := r.URL.Query().Get("asof"); v != "" {
		asOf, err = parseDate(v)
		if err != nil {
			return types.BillingCycle{}, fmt.Errorf("asof: %w", err)
		}
	}

	cycle := types.BillingCycle{Start: start, End: end, AsOf: asOf}
	if err := cycle.Validate(); err != nil {
		return types.BillingCycle{}, err
	}
	return cycle, nil
}

func parseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, errors.New("missing date")
	}
	t, err := time.Parse(dateFormat, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("expected %s: %w", dateFormat, err)
	}
	return t, nil
}
