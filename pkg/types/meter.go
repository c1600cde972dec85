package types

import "time"

// MeterReading is one register reading from the gas meter. The register only
// turns over whole Ccf, so readings are integers.
type MeterReading struct {
	ReadingCcf int64     `json:"readingCcf"`
	RecordedAt time.Time `json:"recordedAt"`
}
