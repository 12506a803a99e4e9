package pipeline

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jgoulah/meterflow/internal/timeline"
)

func gridOf(t *testing.T, slots int) timeline.Timeline {
	t.Helper()
	tl, err := timeline.New(ts(0), ts((slots-1)*15), 15*time.Minute)
	require.NoError(t, err)
	require.Len(t, tl, slots)
	return tl
}

func TestConsumption(t *testing.T) {
	t.Run("diffs consecutive valid readings onto matching slots", func(t *testing.T) {
		tl := gridOf(t, 4)
		s := seriesOf("M1", 100, 110, 125, 125)

		got := Consumption(s, tl)

		require.Len(t, got, 4)
		vols := []float64{got[0].Volume, got[1].Volume, got[2].Volume, got[3].Volume}
		assert.Equal(t, []float64{0, 10, 15, 0}, vols)
		for i, rec := range got {
			assert.Equal(t, "M1", rec.Meter)
			assert.Equal(t, tl[i], rec.Timestamp)
		}
	})

	t.Run("empty series yields dense all-zero output", func(t *testing.T) {
		tl := gridOf(t, 6)

		got := Consumption(Series{Meter: "M1"}, tl)

		require.Len(t, got, 6)
		for _, rec := range got {
			assert.Zero(t, rec.Volume)
		}
	})

	t.Run("single valid reading yields all zeros", func(t *testing.T) {
		tl := gridOf(t, 3)
		s := seriesOf("M1", 500)

		got := Consumption(s, tl)

		require.Len(t, got, 3)
		for _, rec := range got {
			assert.Zero(t, rec.Volume)
		}
	})

	t.Run("counter reset clamps negative diff to zero", func(t *testing.T) {
		tl := gridOf(t, 2)
		s := seriesOf("M1", 500, 10)

		got := Consumption(s, tl)

		require.Len(t, got, 2)
		assert.Equal(t, []float64{0, 0}, []float64{got[0].Volume, got[1].Volume})
	})

	t.Run("absent readings are excluded from the diff chain", func(t *testing.T) {
		tl := gridOf(t, 3)
		s := Series{Meter: "M1", Entries: []Entry{
			{Timestamp: ts(0), Value: 100, Valid: true},
			{Timestamp: ts(15), Valid: false},
			{Timestamp: ts(30), Value: 130, Valid: true},
		}}

		got := Consumption(s, tl)

		// Diff spans the gap with no gap-width adjustment; the absent
		// slot is zero-filled.
		assert.Equal(t, []float64{0, 0, 30}, []float64{got[0].Volume, got[1].Volume, got[2].Volume})
	})

	t.Run("readings off the grid are left out of the aligned output", func(t *testing.T) {
		tl := gridOf(t, 2)
		s := Series{Meter: "M1", Entries: []Entry{
			{Timestamp: ts(0), Value: 100, Valid: true},
			{Timestamp: ts(7), Value: 120, Valid: true}, // between slots
			{Timestamp: ts(15), Value: 150, Valid: true},
		}}

		got := Consumption(s, tl)

		// The off-grid reading still participates in the diff chain but
		// has no slot to land on.
		assert.Equal(t, []float64{0, 30}, []float64{got[0].Volume, got[1].Volume})
	})

	t.Run("output length always equals timeline length", func(t *testing.T) {
		tl := gridOf(t, 8)

		for _, s := range []Series{
			{Meter: "M1"},
			seriesOf("M1", 1),
			seriesOf("M1", 1, 2, 3),
		} {
			got := Consumption(s, tl)
			assert.Len(t, got, 8)
		}
	})
}
