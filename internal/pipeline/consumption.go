package pipeline

import (
	"github.com/jgoulah/meterflow/internal/timeline"
	"github.com/jgoulah/meterflow/pkg/models"
)

// Consumption derives per-interval volumes from a corrected cumulative
// series and aligns them to the canonical timeline. The result is dense:
// exactly one record per timeline slot, zero-filled where no valid reading
// matches the slot exactly. All volumes are >= 0; negative diffs (counter
// resets, residual corruption) are clamped to zero.
func Consumption(s Series, tl timeline.Timeline) []models.ConsumptionRecord {
	// Diff chain over valid readings only; the time gap between them does
	// not matter. The first valid reading is an anchor with volume 0.
	volumes := make(map[int64]float64)
	havePrev := false
	var prev float64
	for _, e := range s.Entries {
		if !e.Valid {
			continue
		}
		var v float64
		if havePrev {
			v = e.Value - prev
			if v < 0 {
				v = 0
			}
		}
		volumes[e.Timestamp.Unix()] = v
		prev = e.Value
		havePrev = true
	}

	out := make([]models.ConsumptionRecord, len(tl))
	for i, ts := range tl {
		out[i] = models.ConsumptionRecord{
			Timestamp: ts,
			Meter:     s.Meter,
			Volume:    volumes[ts.Unix()],
		}
	}
	return out
}
