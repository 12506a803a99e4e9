package models

import "time"

// TimestampLayout is the timestamp format used by input files and output
// series: day/month/year with minute precision, e.g. "01/01/2025 00:00".
const TimestampLayout = "02/01/2006 15:04"

// RawReading represents a single meter observation as it arrives from an
// input file. Energy is kept as raw text; numeric coercion happens in the
// pipeline so malformed values can be tracked rather than dropped.
type RawReading struct {
	Timestamp time.Time `json:"timestamp"`
	Meter     string    `json:"meter"`
	Energy    string    `json:"energy_reading"`
}

// ConsumptionRecord is one derived interval consumption value, aligned to
// a canonical timeline slot. Volume is always >= 0.
type ConsumptionRecord struct {
	Timestamp time.Time `json:"timestamp"`
	Meter     string    `json:"meter"`
	Volume    float64   `json:"volume_consumption"`
}

// ParseTimestamp parses a timestamp string in TimestampLayout, interpreted
// as UTC.
func ParseTimestamp(s string) (time.Time, error) {
	return time.ParseInLocation(TimestampLayout, s, time.UTC)
}

// FormatTimestamp formats t in TimestampLayout. It round-trips exactly
// with ParseTimestamp for minute-aligned times.
func FormatTimestamp(t time.Time) string {
	return t.Format(TimestampLayout)
}
