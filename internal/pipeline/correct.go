package pipeline

import (
	"math"
	"time"
)

// DefaultTolerance is the relative error under which a reading counts as
// a multiple of its neighbor.
const DefaultTolerance = 0.01

// Correction records one repaired reading, for reporting.
type Correction struct {
	Meter      string
	Timestamp  time.Time
	Old        float64
	New        float64
	Multiplier int
}

// Correct repairs isolated multiple-pattern anomalies: a reading that is
// within tolerance of 2x (or, failing that, 3x) of both its neighbors is
// replaced by the mean of the neighbors. The scan is a single forward pass
// over the valid readings; a repaired value is used as the left neighbor
// at the next index, so corrections propagate left to right. The input
// series is not modified.
//
// Series with fewer than 3 valid readings pass through unchanged.
func Correct(s Series, tolerance float64) (Series, []Correction) {
	out := Series{Meter: s.Meter, Entries: append([]Entry(nil), s.Entries...)}

	// Positions of the valid readings within the entry slice. Absent
	// readings carry no value to compare against, so the anomaly test
	// runs over the valid subsequence.
	var valid []int
	for i, e := range out.Entries {
		if e.Valid {
			valid = append(valid, i)
		}
	}
	if len(valid) < 3 {
		return out, nil
	}

	var corrections []Correction
	for k := 1; k < len(valid)-1; k++ {
		prev := out.Entries[valid[k-1]].Value // possibly already corrected
		curr := out.Entries[valid[k]].Value
		next := out.Entries[valid[k+1]].Value

		mult := 0
		switch {
		case isMultiple(curr, prev, 2, tolerance) && isMultiple(curr, next, 2, tolerance):
			mult = 2
		case isMultiple(curr, prev, 3, tolerance) && isMultiple(curr, next, 3, tolerance):
			mult = 3
		default:
			continue
		}

		repaired := (prev + next) / 2
		out.Entries[valid[k]].Value = repaired
		corrections = append(corrections, Correction{
			Meter:      s.Meter,
			Timestamp:  out.Entries[valid[k]].Timestamp,
			Old:        curr,
			New:        repaired,
			Multiplier: mult,
		})
	}

	return out, corrections
}

// isMultiple reports whether curr is within tolerance of mult*neighbor,
// relative to the neighbor. A zero or negative neighbor makes the relative
// test undefined and counts as no match.
func isMultiple(curr, neighbor float64, mult int, tolerance float64) bool {
	if neighbor <= 0 {
		return false
	}
	return math.Abs(curr-float64(mult)*neighbor)/neighbor < tolerance
}
