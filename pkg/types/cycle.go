package types

import (
	"errors"
	"time"
)

// ErrInvalidCycle is returned when a billing cycle's dates are malformed.
var ErrInvalidCycle = errors.New("invalid billing cycle")

// BillingCycle is the date range a single bill covers plus the as-of date the
// estimate is being made on. Cycles are built per estimation request and
// never persisted. All three dates are treated as calendar days; time-of-day
// is ignored.
type BillingCycle struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
	AsOf  time.Time `json:"asOf"`
}

// DateOf truncates t to midnight in its own location.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// Validate checks the cycle dates. The as-of date may fall before the start
// (cycle entirely future) or after the end (cycle entirely elapsed), but an
// as-of more than a year outside the cycle is a mistyped request, not a
// legitimately early or late estimate.
func (c BillingCycle) Validate() error {
	if c.Start.IsZero() || c.End.IsZero() || c.AsOf.IsZero() {
		return ErrInvalidCycle
	}
	if DateOf(c.End).Before(DateOf(c.Start)) {
		return ErrInvalidCycle
	}
	asOf := DateOf(c.AsOf)
	if asOf.Before(DateOf(c.Start).AddDate(-1, 0, 0)) || asOf.After(DateOf(c.End).AddDate(1, 0, 0)) {
		return ErrInvalidCycle
	}
	return nil
}

// Days returns every calendar day in [Start, End], in order.
func (c BillingCycle) Days() []time.Time {
	start := DateOf(c.Start)
	end := DateOf(c.End)
	var days []time.Time
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		days = append(days, d)
	}
	return days
}

// Partition splits the cycle's days into elapsed and remaining, relative to
// the as-of date. The as-of day itself is remaining: it is still in progress
// and not yet fully metered. The two slices are disjoint, ordered, and
// together cover [Start, End] exactly.
func (c BillingCycle) Partition() (elapsed, remaining []time.Time) {
	asOf := DateOf(c.AsOf)
	for _, d := range c.Days() {
		if d.Before(asOf) {
			elapsed = append(elapsed, d)
		} else {
			remaining = append(remaining, d)
		}
	}
	return elapsed, remaining
}
