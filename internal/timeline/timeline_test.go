package timeline

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	t.Run("covers bounds inclusively with uniform spacing", func(t *testing.T) {
		end := time.Date(2025, 1, 1, 1, 0, 0, 0, time.UTC)

		tl, err := New(start, end, 15*time.Minute)

		require.NoError(t, err)
		require.Len(t, tl, 5)
		assert.Equal(t, start, tl[0])
		assert.Equal(t, end, tl[len(tl)-1])
		for i := 1; i < len(tl); i++ {
			assert.Equal(t, 15*time.Minute, tl[i].Sub(tl[i-1]))
		}
	})

	t.Run("length matches floor((end-start)/step)+1 for ragged end", func(t *testing.T) {
		// End does not land on a step boundary; the last slot is the
		// greatest grid point not after end.
		end := start.Add(50 * time.Minute)

		tl, err := New(start, end, 15*time.Minute)

		require.NoError(t, err)
		assert.Len(t, tl, 4) // 0, 15, 30, 45
		assert.Equal(t, start.Add(45*time.Minute), tl[len(tl)-1])
	})

	t.Run("reference deployment length", func(t *testing.T) {
		end := time.Date(2025, 8, 31, 23, 45, 0, 0, time.UTC)

		tl, err := New(start, end, 15*time.Minute)

		require.NoError(t, err)
		assert.Len(t, tl, int(end.Sub(start)/(15*time.Minute))+1)
	})

	t.Run("start equal to end yields a single slot", func(t *testing.T) {
		tl, err := New(start, start, 15*time.Minute)

		require.NoError(t, err)
		require.Len(t, tl, 1)
		assert.Equal(t, start, tl[0])
	})

	t.Run("start after end returns ErrInvalidRange", func(t *testing.T) {
		_, err := New(start.Add(time.Hour), start, 15*time.Minute)

		require.Error(t, err)
		assert.ErrorIs(t, err, ErrInvalidRange)
	})

	t.Run("non-positive step returns ErrInvalidRange", func(t *testing.T) {
		_, err := New(start, start.Add(time.Hour), 0)

		require.Error(t, err)
		assert.ErrorIs(t, err, ErrInvalidRange)
	})
}
