package pipeline

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/jgoulah/meterflow/internal/timeline"
	"github.com/jgoulah/meterflow/pkg/models"
)

// Events holds optional callbacks invoked during a run. Nil callbacks are
// skipped. Callbacks may be invoked from multiple goroutines, but never
// concurrently for the same meter.
type Events struct {
	OnCorrection func(meter string, ts time.Time, old, new float64)
	OnMeterDone  func(meter string, records int)
}

// Result is the outcome for one meter: either a full consumption series
// or a failure reason. A failed meter never aborts the others.
type Result struct {
	Meter       string
	Records     []models.ConsumptionRecord
	Corrections []Correction
	Err         error
}

// Runner executes the per-meter pipeline (normalize, correct, derive,
// align) against a shared read-only timeline.
type Runner struct {
	Timeline          timeline.Timeline
	Tolerance         float64
	CorrectionEnabled bool
	Events            Events
}

// NewRunner returns a Runner with correction enabled at the default
// tolerance.
func NewRunner(tl timeline.Timeline) *Runner {
	return &Runner{
		Timeline:          tl,
		Tolerance:         DefaultTolerance,
		CorrectionEnabled: true,
	}
}

// RunMeter runs the pipeline for a single meter's raw rows.
func (r *Runner) RunMeter(meter string, rows []models.RawReading) Result {
	res := Result{Meter: meter}

	series := Normalize(meter, rows)
	if r.CorrectionEnabled {
		series, res.Corrections = Correct(series, r.Tolerance)
		if r.Events.OnCorrection != nil {
			for _, c := range res.Corrections {
				r.Events.OnCorrection(c.Meter, c.Timestamp, c.Old, c.New)
			}
		}
	}
	res.Records = Consumption(series, r.Timeline)

	if r.Events.OnMeterDone != nil {
		r.Events.OnMeterDone(meter, len(res.Records))
	}
	return res
}

// RunAll runs every meter concurrently and returns the results sorted by
// meter identifier. Meters are independent; a panic in one meter is
// reported as that meter's failure and the rest complete normally.
func (r *Runner) RunAll(ctx context.Context, byMeter map[string][]models.RawReading) []Result {
	var (
		mu      sync.Mutex
		results = make([]Result, 0, len(byMeter))
	)

	var g errgroup.Group
	for meter, rows := range byMeter {
		meter, rows := meter, rows
		g.Go(func() error {
			res := Result{Meter: meter, Err: ctx.Err()}
			if res.Err == nil {
				res = r.runIsolated(meter, rows)
			}
			mu.Lock()
			results = append(results, res)
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait() // workers never return errors; failures land in Result.Err

	sort.Slice(results, func(i, j int) bool { return results[i].Meter < results[j].Meter })
	return results
}

func (r *Runner) runIsolated(meter string, rows []models.RawReading) (res Result) {
	defer func() {
		if p := recover(); p != nil {
			res = Result{Meter: meter, Err: fmt.Errorf("meter %s: %v", meter, p)}
		}
	}()
	return r.RunMeter(meter, rows)
}

// GroupByMeter splits raw rows into per-meter groups so each meter can be
// processed and released independently.
func GroupByMeter(rows []models.RawReading) map[string][]models.RawReading {
	byMeter := make(map[string][]models.RawReading)
	for _, row := range rows {
		byMeter[row.Meter] = append(byMeter[row.Meter], row)
	}
	return byMeter
}
