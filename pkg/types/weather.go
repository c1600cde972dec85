package types

import (
	"time"
)

// HourlySample is a single temperature observation from the historical
// archive.
type HourlySample struct {
	TS    time.Time `json:"ts"`
	TempF float64   `json:"tempF"`
}

// HDDSource identifies which upstream produced a day's HDD figure. Callers
// must be able to tell actual data from guesswork, so degraded variants are
// tagged distinctly rather than folded into their parent source.
type HDDSource string

const (
	// HDDSourceHistorical means the day was computed from a sufficient set of
	// hourly archive samples.
	HDDSourceHistorical HDDSource = "historical"

	// HDDSourceHistoricalExtremes means the hourly archive was insufficient
	// for the day and the daily high/low was used instead.
	HDDSourceHistoricalExtremes HDDSource = "historical_extremes"

	// HDDSourceForecast means the day was computed from a forecast high and
	// low.
	HDDSourceForecast HDDSource = "forecast"

	// HDDSourceForecastSynthesizedLow means the forecast only provided a high
	// and the low was synthesized from a configured spread.
	HDDSourceForecastSynthesizedLow HDDSource = "forecast_synthesized_low"

	// HDDSourceAssumed means no usable data covered the day and a seasonal
	// normal was substituted.
	HDDSourceAssumed HDDSource = "assumed"
)

// DailyHDD is the heating-degree-day figure for one calendar day, tagged with
// where it came from. Immutable once computed.
type DailyHDD struct {
	Date   time.Time `json:"date"`
	HDD    float64   `json:"hdd"`
	Source HDDSource `json:"source"`
}

// ProvenanceCounts summarizes how many days of a cycle came from each source
// so a reader can judge how much of an estimate is guesswork.
type ProvenanceCounts struct {
	Historical         int `json:"historical"`
	HistoricalExtremes int `json:"historicalExtremes"`
	Forecast           int `json:"forecast"`
	ForecastSynthLow   int `json:"forecastSynthesizedLow"`
	Assumed            int `json:"assumed"`
}

// Count increments the bucket for the given source.
func (p *ProvenanceCounts) Count(s HDDSource) {
	switch s {
	case HDDSourceHistorical:
		p.Historical++
	case HDDSourceHistoricalExtremes:
		p.HistoricalExtremes++
	case HDDSourceForecast:
		p.Forecast++
	case HDDSourceForecastSynthesizedLow:
		p.ForecastSynthLow++
	default:
		p.Assumed++
	}
}

// Total returns the number of counted days.
func (p ProvenanceCounts) Total() int {
	return p.Historical + p.HistoricalExtremes + p.Forecast + p.ForecastSynthLow + p.Assumed
}
