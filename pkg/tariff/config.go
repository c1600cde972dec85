package tariff

import (
	"fmt"
	"os"
	"time"

	"github.com/billcast/billcast/pkg/types"
	"github.com/levenlabs/go-lflag"
	"gopkg.in/yaml.v3"
)

// Config holds everything the estimation engine reads from configuration:
// the published tariff parameters, the seasonal-normal HDD constants, and
// the calibration constants that relate weather to usage. Loaded once at
// startup, read-only afterward.
type Config struct {
	Tariff types.TariffParameters `yaml:"tariff"`

	// NormalDailyHDD maps month number to the normal HDD per day, from
	// long-run climate averages. Used both to build NDD for a period and as
	// the assumed value for days no source covers.
	NormalDailyHDD map[time.Month]float64 `yaml:"normal_daily_hdd"`

	// SlopeCcfPerHDD relates heating degree days to volumetric usage for
	// this installation. Derived offline by the calibration tool, not
	// computed during estimation.
	SlopeCcfPerHDD float64 `yaml:"slope_ccf_per_hdd"`

	// ForecastLowSpreadF is subtracted from a forecast high to synthesize a
	// missing overnight low. An uncalibrated approximation; days that relied
	// on it are tagged in the estimate's provenance.
	ForecastLowSpreadF float64 `yaml:"forecast_low_spread_f"`

	// WNAElapsedOnly restricts the WNA factor to the already-elapsed part of
	// the cycle, treating not-yet-metered days as normal weather. This
	// matches how a mid-cycle estimate should behave; set false to normalize
	// the whole cycle instead.
	WNAElapsedOnly bool `yaml:"wna_elapsed_only"`
}

// NormalFor returns the normal daily HDD for the given month, zero if the
// month has none configured (no heating season).
func (c Config) NormalFor(m time.Month) float64 {
	return c.NormalDailyHDD[m]
}

// NormalForPeriod sums the daily normals across a set of days to build the
// NDD for that period.
func (c Config) NormalForPeriod(days []time.Time) float64 {
	var ndd float64
	for _, d := range days {
		ndd += c.NormalFor(d.Month())
	}
	return ndd
}

// Default returns the Kentucky G-1 residential configuration from the
// November 2025 tariff and KY PSC Case 2021-00214, with normals
// back-calculated from actual bills.
func Default() Config {
	return Config{
		Tariff: types.TariffParameters{
			Name:                   "atmos-ky-g1-residential",
			DistributionRatePerMcf: 1.6261,
			HeatSensitivityFactor:  0.012576,
			BaseLoadMcf:            1.0556,
			CustomerCharge:         25.00,
			Riders: []types.Rider{
				{Name: "Pipeline Replacement Program", DollarsPerMcf: 0.8214},
			},
			GasCostPerCcf: 0.54034,
			Fees: []types.Fee{
				{Name: "School Tax", DollarsPerCcf: 0.03},
				{Name: "Franchise Fee", DollarsPerCcf: 0.01},
			},
			WNAMonths: []time.Month{
				time.November, time.December, time.January,
				time.February, time.March, time.April,
			},
		},
		NormalDailyHDD: map[time.Month]float64{
			time.January:  25,
			time.February: 22,
			time.March:    16,
			time.April:    9,
			time.May:      3,
			time.October:  5,
			time.November: 12,
			time.December: 21,
		},
		SlopeCcfPerHDD:     0.12,
		ForecastLowSpreadF: 20,
		WNAElapsedOnly:     true,
	}
}

// Load reads a YAML config file over the defaults. A missing file is not an
// error; the defaults stand.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading tariff config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing tariff config %s: %w", path, err)
	}
	return cfg, nil
}

// Configured registers the tariff flags and returns a Config that is
// populated once flags are parsed.
func Configured() *Config {
	cfg := Default()
	path := lflag.String("tariff-config", "", "Path to a YAML tariff configuration file")

	lflag.Do(func() {
		if *path != "" {
			loaded, err := Load(*path)
			if err != nil {
				panic(fmt.Sprintf("tariff config failed: %v", err))
			}
			cfg = loaded
		}
	})

	return &cfg
}
