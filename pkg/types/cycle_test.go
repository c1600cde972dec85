package types

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestBillingCycleValidate(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		c := BillingCycle{Start: day(2025, 12, 12), End: day(2026, 1, 13), AsOf: day(2026, 1, 9)}
		assert.NoError(t, c.Validate())
	})

	t.Run("end before start", func(t *testing.T) {
		c := BillingCycle{Start: day(2026, 1, 13), End: day(2025, 12, 12), AsOf: day(2026, 1, 9)}
		assert.ErrorIs(t, c.Validate(), ErrInvalidCycle)
	})

	t.Run("missing dates", func(t *testing.T) {
		c := BillingCycle{Start: day(2025, 12, 12), End: day(2026, 1, 13)}
		assert.ErrorIs(t, c.Validate(), ErrInvalidCycle)
	})

	t.Run("single day", func(t *testing.T) {
		c := BillingCycle{Start: day(2025, 12, 12), End: day(2025, 12, 12), AsOf: day(2025, 12, 12)}
		assert.NoError(t, c.Validate())
	})

	t.Run("as-of far outside the cycle", func(t *testing.T) {
		c := BillingCycle{Start: day(2025, 12, 12), End: day(2026, 1, 13), AsOf: day(9999, 1, 1)}
		assert.ErrorIs(t, c.Validate(), ErrInvalidCycle)

		c.AsOf = day(1999, 1, 1)
		assert.ErrorIs(t, c.Validate(), ErrInvalidCycle)
	})

	t.Run("as-of within a year of the cycle", func(t *testing.T) {
		c := BillingCycle{Start: day(2025, 12, 12), End: day(2026, 1, 13), AsOf: day(2026, 11, 1)}
		assert.NoError(t, c.Validate())

		c.AsOf = day(2025, 2, 1)
		assert.NoError(t, c.Validate())
	})
}

func TestBillingCyclePartition(t *testing.T) {
	start := day(2025, 12, 12)
	end := day(2026, 1, 13)

	// cover checks the partition properties: disjoint, ordered, contiguous,
	// union exactly [start, end]
	cover := func(t *testing.T, c BillingCycle, elapsed, remaining []time.Time) {
		t.Helper()
		all := append(append([]time.Time{}, elapsed...), remaining...)
		days := c.Days()
		require.Len(t, all, len(days))
		for i, d := range days {
			assert.True(t, d.Equal(all[i]), "day %d: want %s got %s", i, d, all[i])
		}
	}

	t.Run("mid cycle", func(t *testing.T) {
		c := BillingCycle{Start: start, End: end, AsOf: day(2026, 1, 9)}
		elapsed, remaining := c.Partition()
		cover(t, c, elapsed, remaining)
		// 12/12 through 1/8 elapsed, 1/9 (the in-progress day) through 1/13 remaining
		assert.Len(t, elapsed, 28)
		assert.Len(t, remaining, 5)
		assert.True(t, remaining[0].Equal(day(2026, 1, 9)))
	})

	t.Run("as-of before start is all remaining", func(t *testing.T) {
		c := BillingCycle{Start: start, End: end, AsOf: day(2025, 11, 1)}
		elapsed, remaining := c.Partition()
		cover(t, c, elapsed, remaining)
		assert.Empty(t, elapsed)
		assert.Len(t, remaining, 33)
	})

	t.Run("as-of after end is all elapsed", func(t *testing.T) {
		c := BillingCycle{Start: start, End: end, AsOf: day(2026, 2, 1)}
		elapsed, remaining := c.Partition()
		cover(t, c, elapsed, remaining)
		assert.Len(t, elapsed, 33)
		assert.Empty(t, remaining)
	})

	t.Run("as-of equal to start", func(t *testing.T) {
		c := BillingCycle{Start: start, End: end, AsOf: start}
		elapsed, remaining := c.Partition()
		cover(t, c, elapsed, remaining)
		assert.Empty(t, elapsed)
		assert.Len(t, remaining, 33)
	})

	t.Run("as-of equal to end", func(t *testing.T) {
		c := BillingCycle{Start: start, End: end, AsOf: end}
		elapsed, remaining := c.Partition()
		cover(t, c, elapsed, remaining)
		assert.Len(t, elapsed, 32)
		assert.Len(t, remaining, 1)
	})

	t.Run("ignores time of day", func(t *testing.T) {
		c := BillingCycle{
			Start: start.Add(9 * time.Hour),
			End:   end.Add(23 * time.Hour),
			AsOf:  day(2026, 1, 9).Add(15 * time.Hour),
		}
		elapsed, remaining := c.Partition()
		assert.Len(t, elapsed, 28)
		assert.Len(t, remaining, 5)
	})
}

func TestTariffWNAApplies(t *testing.T) {
	p := TariffParameters{WNAMonths: []time.Month{
		time.November, time.December, time.January, time.February, time.March, time.April,
	}}
	assert.True(t, p.WNAApplies(time.January))
	assert.True(t, p.WNAApplies(time.November))
	assert.False(t, p.WNAApplies(time.July))

	// empty list means always in effect
	assert.True(t, TariffParameters{}.WNAApplies(time.July))
}

func TestProvenanceCounts(t *testing.T) {
	var p ProvenanceCounts
	for _, s := range []HDDSource{
		HDDSourceHistorical, HDDSourceHistorical,
		HDDSourceHistoricalExtremes,
		HDDSourceForecast,
		HDDSourceForecastSynthesizedLow,
		HDDSourceAssumed,
	} {
		p.Count(s)
	}
	assert.Equal(t, 2, p.Historical)
	assert.Equal(t, 1, p.HistoricalExtremes)
	assert.Equal(t, 1, p.Forecast)
	assert.Equal(t, 1, p.ForecastSynthLow)
	assert.Equal(t, 1, p.Assumed)
	assert.Equal(t, 6, p.Total())
}
