package timeline

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidRange is returned for bounds where start is after end or the
// step is not positive.
var ErrInvalidRange = errors.New("invalid timeline range")

// Timeline is the canonical ordered sequence of timestamps all meter
// outputs are aligned to: strictly increasing, uniform step, shared
// read-only across meters.
type Timeline []time.Time

// New builds the timeline covering [start, end] inclusive at the given
// step. The length is always floor((end-start)/step) + 1.
func New(start, end time.Time, step time.Duration) (Timeline, error) {
	if step <= 0 {
		return nil, fmt.Errorf("%w: step must be positive, got %s", ErrInvalidRange, step)
	}
	if start.After(end) {
		return nil, fmt.Errorf("%w: start %s is after end %s", ErrInvalidRange,
			start.Format(time.RFC3339), end.Format(time.RFC3339))
	}

	n := int(end.Sub(start)/step) + 1
	ts := make(Timeline, 0, n)
	for cur := start; !cur.After(end); cur = cur.Add(step) {
		ts = append(ts, cur)
	}
	return ts, nil
}
