package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// seriesOf builds a valid series at 15-minute spacing from plain values.
func seriesOf(meter string, values ...float64) Series {
	s := Series{Meter: meter}
	for i, v := range values {
		s.Entries = append(s.Entries, Entry{Timestamp: ts(i * 15), Value: v, Valid: true})
	}
	return s
}

func values(s Series) []float64 {
	out := make([]float64, len(s.Entries))
	for i, e := range s.Entries {
		out[i] = e.Value
	}
	return out
}

func TestCorrect(t *testing.T) {
	t.Run("repairs doubled reading with mean of neighbors", func(t *testing.T) {
		got, corrections := Correct(seriesOf("M1", 100, 200, 100), DefaultTolerance)

		assert.Equal(t, []float64{100, 100, 100}, values(got))
		require.Len(t, corrections, 1)
		assert.Equal(t, 200.0, corrections[0].Old)
		assert.Equal(t, 100.0, corrections[0].New)
		assert.Equal(t, 2, corrections[0].Multiplier)
		assert.Equal(t, ts(15), corrections[0].Timestamp)
	})

	t.Run("repairs tripled reading with mean of neighbors", func(t *testing.T) {
		got, corrections := Correct(seriesOf("M1", 50, 150, 50), DefaultTolerance)

		assert.Equal(t, []float64{50, 50, 50}, values(got))
		require.Len(t, corrections, 1)
		assert.Equal(t, 3, corrections[0].Multiplier)
	})

	t.Run("leaves non-matching pattern untouched", func(t *testing.T) {
		// 210 is not within 1% of 200 or 300.
		got, corrections := Correct(seriesOf("M1", 100, 210, 100), DefaultTolerance)

		assert.Equal(t, []float64{100, 210, 100}, values(got))
		assert.Empty(t, corrections)
	})

	t.Run("corrected value feeds the next comparison", func(t *testing.T) {
		got, corrections := Correct(seriesOf("M1", 100, 200, 100, 200, 100), DefaultTolerance)

		assert.Equal(t, []float64{100, 100, 100, 100, 100}, values(got))
		assert.Len(t, corrections, 2)
	})

	t.Run("zero neighbor is no match", func(t *testing.T) {
		got, corrections := Correct(seriesOf("M1", 0, 0, 0), DefaultTolerance)

		assert.Equal(t, []float64{0, 0, 0}, values(got))
		assert.Empty(t, corrections)
	})

	t.Run("series shorter than three readings pass through", func(t *testing.T) {
		got, corrections := Correct(seriesOf("M1", 100, 200), DefaultTolerance)

		assert.Equal(t, []float64{100, 200}, values(got))
		assert.Empty(t, corrections)
	})

	t.Run("absent readings are skipped when forming triples", func(t *testing.T) {
		// The valid triple is still (100, 200, 100) despite the absent
		// entry sitting between the anomaly and its left neighbor.
		s := Series{Meter: "M1", Entries: []Entry{
			{Timestamp: ts(0), Value: 100, Valid: true},
			{Timestamp: ts(15), Valid: false},
			{Timestamp: ts(30), Value: 200, Valid: true},
			{Timestamp: ts(45), Value: 100, Valid: true},
		}}

		got, corrections := Correct(s, DefaultTolerance)

		require.Len(t, corrections, 1)
		assert.Equal(t, 100.0, got.Entries[2].Value)
		assert.Equal(t, ts(30), corrections[0].Timestamp)
	})

	t.Run("does not mutate the input series", func(t *testing.T) {
		in := seriesOf("M1", 100, 200, 100)

		_, _ = Correct(in, DefaultTolerance)

		assert.Equal(t, []float64{100, 200, 100}, values(in))
	})
}
