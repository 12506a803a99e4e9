package pipeline

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jgoulah/meterflow/pkg/models"
)

func ts(min int) time.Time {
	return time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC).Add(time.Duration(min) * time.Minute)
}

func TestNormalize(t *testing.T) {
	t.Run("sorts rows ascending by timestamp", func(t *testing.T) {
		rows := []models.RawReading{
			{Timestamp: ts(30), Meter: "M1", Energy: "120"},
			{Timestamp: ts(0), Meter: "M1", Energy: "100"},
			{Timestamp: ts(15), Meter: "M1", Energy: "110"},
		}

		s := Normalize("M1", rows)

		require.Len(t, s.Entries, 3)
		assert.Equal(t, ts(0), s.Entries[0].Timestamp)
		assert.Equal(t, ts(15), s.Entries[1].Timestamp)
		assert.Equal(t, ts(30), s.Entries[2].Timestamp)
	})

	t.Run("non-numeric reading becomes absent, not dropped", func(t *testing.T) {
		rows := []models.RawReading{
			{Timestamp: ts(0), Meter: "M1", Energy: "100"},
			{Timestamp: ts(15), Meter: "M1", Energy: "ERROR"},
			{Timestamp: ts(30), Meter: "M1", Energy: " 120.5 "},
		}

		s := Normalize("M1", rows)

		require.Len(t, s.Entries, 3)
		assert.True(t, s.Entries[0].Valid)
		assert.False(t, s.Entries[1].Valid)
		assert.True(t, s.Entries[2].Valid)
		assert.Equal(t, 120.5, s.Entries[2].Value)
	})

	t.Run("NaN and Inf readings are absent", func(t *testing.T) {
		rows := []models.RawReading{
			{Timestamp: ts(0), Meter: "M1", Energy: "NaN"},
			{Timestamp: ts(15), Meter: "M1", Energy: "+Inf"},
		}

		s := Normalize("M1", rows)

		require.Len(t, s.Entries, 2)
		assert.False(t, s.Entries[0].Valid)
		assert.False(t, s.Entries[1].Valid)
	})

	t.Run("duplicate timestamps keep the first in sort order", func(t *testing.T) {
		rows := []models.RawReading{
			{Timestamp: ts(15), Meter: "M1", Energy: "111"},
			{Timestamp: ts(15), Meter: "M1", Energy: "999"},
			{Timestamp: ts(0), Meter: "M1", Energy: "100"},
		}

		s := Normalize("M1", rows)

		require.Len(t, s.Entries, 2)
		assert.Equal(t, ts(15), s.Entries[1].Timestamp)
		assert.Equal(t, 111.0, s.Entries[1].Value)
	})

	t.Run("empty input yields an empty valid series", func(t *testing.T) {
		s := Normalize("M1", nil)

		assert.Equal(t, "M1", s.Meter)
		assert.Empty(t, s.Entries)
	})
}
