package ingest

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/jgoulah/meterflow/pkg/models"
)

// Required input columns. Header matching is case-insensitive and order
// independent; extra columns are ignored.
const (
	colTimestamp = "timestamp"
	colMeter     = "meter"
	colEnergy    = "energy reading"
)

// Report summarizes what happened to the rows of one input file.
type Report struct {
	Rows          int // data rows seen (excluding the header)
	BadTimestamps int // rows dropped for an unparsable timestamp
	Skipped       int // rows dropped for missing fields
}

// ReadFile reads meter readings from a CSV file. See Read.
func ReadFile(path string) ([]models.RawReading, Report, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, Report{}, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	rows, report, err := Read(f)
	if err != nil {
		return nil, report, fmt.Errorf("reading %s: %w", path, err)
	}
	return rows, report, nil
}

// Read parses meter readings from CSV input. The header must contain the
// Timestamp, Meter, and Energy Reading columns; a missing column is an
// error and the whole input is rejected. Row-level problems are not
// errors: rows with missing fields or unparsable timestamps are dropped
// and counted in the report. Energy values are passed through as text;
// coercion is the pipeline's job.
func Read(r io.Reader) ([]models.RawReading, Report, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1 // be permissive; validate ourselves
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, Report{}, fmt.Errorf("reading header: %w", err)
	}

	idx := map[string]int{}
	for i, name := range header {
		idx[strings.ToLower(strings.TrimSpace(name))] = i
	}
	var missing []string
	for _, name := range []string{colTimestamp, colMeter, colEnergy} {
		if _, ok := idx[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return nil, Report{}, fmt.Errorf("missing required columns: %s", strings.Join(missing, ", "))
	}

	var (
		rows   []models.RawReading
		report Report
		width  = max(idx[colTimestamp], max(idx[colMeter], idx[colEnergy])) + 1
	)
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			report.Rows++
			report.Skipped++
			continue
		}
		report.Rows++

		if len(record) < width {
			report.Skipped++
			continue
		}

		meter := strings.TrimSpace(record[idx[colMeter]])
		if meter == "" {
			report.Skipped++
			continue
		}

		// Rows with unparsable timestamps never reach the pipeline;
		// they are dropped here, not zero-filled.
		ts, err := models.ParseTimestamp(strings.TrimSpace(record[idx[colTimestamp]]))
		if err != nil {
			report.BadTimestamps++
			continue
		}

		rows = append(rows, models.RawReading{
			Timestamp: ts,
			Meter:     meter,
			Energy:    record[idx[colEnergy]],
		})
	}

	return rows, report, nil
}
