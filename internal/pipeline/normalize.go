package pipeline

import (
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/jgoulah/meterflow/pkg/models"
)

// Entry is one normalized observation. Valid is false when the raw energy
// text could not be coerced to a number; such entries stay in the series
// for timestamp bookkeeping but are excluded from diff computation.
type Entry struct {
	Timestamp time.Time
	Value     float64
	Valid     bool
}

// Series is the normalized reading set for a single meter: timestamps
// unique and sorted ascending.
type Series struct {
	Meter   string
	Entries []Entry
}

// Normalize coerces, sorts, and deduplicates the raw readings for one
// meter. When several rows share a timestamp only the first in sort order
// is kept; the rest are discarded silently. An empty result is valid and
// yields an all-zero consumption series downstream.
func Normalize(meter string, rows []models.RawReading) Series {
	entries := make([]Entry, 0, len(rows))
	for _, row := range rows {
		e := Entry{Timestamp: row.Timestamp}
		f, err := strconv.ParseFloat(strings.TrimSpace(row.Energy), 64)
		if err == nil && !math.IsNaN(f) && !math.IsInf(f, 0) {
			e.Value = f
			e.Valid = true
		}
		entries = append(entries, e)
	}

	// Stable sort so "first" among duplicate timestamps means first in
	// input order.
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Timestamp.Before(entries[j].Timestamp)
	})

	deduped := make([]Entry, 0, len(entries))
	for _, e := range entries {
		if n := len(deduped); n > 0 && e.Timestamp.Equal(deduped[n-1].Timestamp) {
			continue
		}
		deduped = append(deduped, e)
	}

	return Series{Meter: meter, Entries: deduped}
}
