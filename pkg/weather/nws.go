package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/billcast/billcast/pkg/log"
	"github.com/billcast/billcast/pkg/types"
	"github.com/levenlabs/go-lflag"
)

// NWS talks to the National Weather Service API (api.weather.gov) for both
// the hourly observation archive and the day/night forecast. The API is
// unauthenticated but requires a User-Agent identifying the caller.
type NWS struct {
	apiURL    string
	station   string
	lat, lon  float64
	userAgent string
	client    *http.Client

	mu          sync.Mutex
	forecastURL string
}

// configuredNWS registers the NWS flags and returns the client.
func configuredNWS() *NWS {
	n := &NWS{
		client: &http.Client{Timeout: 10 * time.Second},
	}
	apiURL := lflag.String("nws-api-url", "https://api.weather.gov", "Base URL for the National Weather Service API")
	station := lflag.String("nws-station", "KBWG", "NWS observation station identifier")
	lat := lflag.String("nws-latitude", "36.9685", "Latitude for the forecast point")
	lon := lflag.String("nws-longitude", "-86.4808", "Longitude for the forecast point")
	userAgent := lflag.String("nws-user-agent", "billcast/1.0", "User-Agent header the NWS API requires")

	lflag.Do(func() {
		n.apiURL = *apiURL
		n.station = *station
		n.userAgent = *userAgent
		var err error
		if n.lat, err = strconv.ParseFloat(*lat, 64); err != nil {
			panic(fmt.Sprintf("invalid nws-latitude %q: %v", *lat, err))
		}
		if n.lon, err = strconv.ParseFloat(*lon, 64); err != nil {
			panic(fmt.Sprintf("invalid nws-longitude %q: %v", *lon, err))
		}
	})

	return n
}

// Validate ensures the configuration is usable.
func (n *NWS) Validate() error {
	if n.apiURL == "" {
		return fmt.Errorf("nws-api-url is required")
	}
	if _, err := url.Parse(n.apiURL); err != nil {
		return fmt.Errorf("failed to parse nws url (%s): %w", n.apiURL, err)
	}
	if n.station == "" {
		return fmt.Errorf("nws-station is required")
	}
	return nil
}

func (n *NWS) get(ctx context.Context, u string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("building request for %s: %w", u, err)
	}
	req.Header.Set("User-Agent", n.userAgent)
	req.Header.Set("Accept", "application/geo+json")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("requesting %s: %w", u, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d from %s", resp.StatusCode, u)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding response from %s: %w", u, err)
	}
	return nil
}

type nwsObservationsResponse struct {
	Features []struct {
		Properties struct {
			Timestamp   time.Time `json:"timestamp"`
			Temperature struct {
				UnitCode string   `json:"unitCode"`
				Value    *float64 `json:"value"`
			} `json:"temperature"`
		} `json:"properties"`
	} `json:"features"`
	Pagination struct {
		Next string `json:"next"`
	} `json:"pagination"`
}

// maxObservationPages bounds the pagination walk. The API caps a page at 500
// observations, so a month-long cycle at hourly resolution spans a couple of
// pages; eight covers any cycle with a wide margin.
const maxObservationPages = 8

// Observations fetches hourly station observations covering [start, end] and
// groups them into per-day records. A full billing cycle holds more samples
// than one 500-entry page, so the response's pagination link is followed
// until the window is covered. Observations with no temperature value are
// dropped; days the station never reported are absent from the result.
func (n *NWS) Observations(ctx context.Context, start, end time.Time) ([]DailyObservation, error) {
	u := fmt.Sprintf("%s/stations/%s/observations?start=%s&end=%s&limit=500",
		n.apiURL, url.PathEscape(n.station),
		url.QueryEscape(start.UTC().Format(time.RFC3339)),
		url.QueryEscape(end.UTC().Format(time.RFC3339)))

	log.Ctx(ctx).DebugContext(ctx, "fetching nws observations",
		slog.String("station", n.station),
		slog.Time("start", start),
		slog.Time("end", end))

	loc := start.Location()
	byDay := make(map[time.Time][]types.HourlySample)
	for page := 0; page < maxObservationPages; page++ {
		var resp nwsObservationsResponse
		if err := n.get(ctx, u, &resp); err != nil {
			return nil, err
		}
		for _, f := range resp.Features {
			v := f.Properties.Temperature.Value
			if v == nil {
				continue
			}
			tempF := *v
			// observations report celsius
			if f.Properties.Temperature.UnitCode != "wmoUnit:degF" {
				tempF = tempF*9/5 + 32
			}
			ts := f.Properties.Timestamp.In(loc)
			day := types.DateOf(ts)
			byDay[day] = append(byDay[day], types.HourlySample{TS: ts, TempF: tempF})
		}
		// the last page still carries a next link; the empty page behind it
		// is the stop signal
		if len(resp.Features) == 0 || resp.Pagination.Next == "" || resp.Pagination.Next == u {
			break
		}
		u = resp.Pagination.Next
	}

	out := make([]DailyObservation, 0, len(byDay))
	for day, samples := range byDay {
		sort.Slice(samples, func(i, j int) bool { return samples[i].TS.Before(samples[j].TS) })
		out = append(out, DailyObservation{Date: day, Hourly: samples})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

type nwsPointsResponse struct {
	Properties struct {
		Forecast string `json:"forecast"`
	} `json:"properties"`
}

type nwsForecastResponse struct {
	Properties struct {
		Periods []struct {
			Name        string    `json:"name"`
			StartTime   time.Time `json:"startTime"`
			IsDaytime   bool      `json:"isDaytime"`
			Temperature float64   `json:"temperature"`
		} `json:"periods"`
	} `json:"properties"`
}

// forecastEndpoint resolves (and caches) the gridpoint forecast URL for the
// configured coordinates via the points endpoint.
func (n *NWS) forecastEndpoint(ctx context.Context) (string, error) {
	n.mu.Lock()
	cached := n.forecastURL
	n.mu.Unlock()
	if cached != "" {
		return cached, nil
	}

	u := fmt.Sprintf("%s/points/%.4f,%.4f", n.apiURL, n.lat, n.lon)
	var resp nwsPointsResponse
	if err := n.get(ctx, u, &resp); err != nil {
		return "", err
	}
	if resp.Properties.Forecast == "" {
		return "", fmt.Errorf("points response missing forecast url")
	}

	n.mu.Lock()
	n.forecastURL = resp.Properties.Forecast
	n.mu.Unlock()
	return resp.Properties.Forecast, nil
}

// Forecast fetches the day/night period forecast and folds it into daily
// highs and lows. Daytime periods set the high, nighttime periods set the
// low, keyed by the date the period starts. The last day of the window
// usually ends up with only a high; that is surfaced as a nil low, not an
// error.
func (n *NWS) Forecast(ctx context.Context) ([]DailyForecast, error) {
	endpoint, err := n.forecastEndpoint(ctx)
	if err != nil {
		return nil, err
	}

	var resp nwsForecastResponse
	if err := n.get(ctx, endpoint, &resp); err != nil {
		return nil, err
	}

	byDay := make(map[time.Time]*DailyForecast)
	for _, p := range resp.Properties.Periods {
		// key by civil date in UTC; times parsed from JSON carry per-parse
		// zone pointers that defeat map equality
		y, m, d := p.StartTime.Date()
		day := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
		df := byDay[day]
		if df == nil {
			df = &DailyForecast{Date: day}
			byDay[day] = df
		}
		temp := p.Temperature
		if p.IsDaytime {
			df.HighF = &temp
		} else {
			df.LowF = &temp
		}
	}

	out := make([]DailyForecast, 0, len(byDay))
	for _, df := range byDay {
		out = append(out, *df)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })

	log.Ctx(ctx).DebugContext(ctx, "fetched nws forecast", slog.Int("days", len(out)))
	return out, nil
}
