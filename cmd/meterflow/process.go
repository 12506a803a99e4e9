package main

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"github.com/jgoulah/meterflow/internal/archive"
	"github.com/jgoulah/meterflow/internal/database"
	"github.com/jgoulah/meterflow/internal/ingest"
	"github.com/jgoulah/meterflow/internal/pipeline"
	"github.com/jgoulah/meterflow/internal/timeline"
	"github.com/jgoulah/meterflow/pkg/models"
)

var (
	processOut     string
	processStore   bool
	processVerbose bool
)

var processCmd = &cobra.Command{
	Use:   "process [files...]",
	Short: "Process meter reading files into consumption series",
	Long: `Reads cumulative meter readings from one or more CSV files, runs the
per-meter pipeline (normalize, correct anomalies, derive consumption, align to
the canonical timeline), and writes one result CSV per meter into a ZIP archive.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runProcess,
}

func init() {
	processCmd.Flags().StringVar(&processOut, "out", "meter_consumption_data.zip", "Output ZIP archive path")
	processCmd.Flags().BoolVar(&processStore, "store", false, "Also store results in the database")
	processCmd.Flags().BoolVar(&processVerbose, "verbose", false, "Log each anomaly correction as it is applied")
	rootCmd.AddCommand(processCmd)
}

func runProcess(cmd *cobra.Command, args []string) error {
	fmt.Printf("=== Process started at %s ===\n", time.Now().Format("2006-01-02 15:04:05 MST"))

	// Load config
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	// Configuration errors are the only fatal ones; fail before touching
	// any input.
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	start, err := cfg.Timeline.GetStart()
	if err != nil {
		return err
	}
	end, err := cfg.Timeline.GetEnd()
	if err != nil {
		return err
	}
	tl, err := timeline.New(start, end, cfg.Timeline.GetStep())
	if err != nil {
		return fmt.Errorf("building timeline: %w", err)
	}
	fmt.Printf("Timeline: %s to %s, %d slots\n",
		models.FormatTimestamp(start), models.FormatTimestamp(end), len(tl))

	// Read and combine all files; a bad file is skipped, not fatal
	var allRows []models.RawReading
	badTimestamps := 0
	for _, path := range args {
		rows, report, err := ingest.ReadFile(path)
		if err != nil {
			fmt.Printf("Warning: could not read %s: %v. Skipping.\n", path, err)
			continue
		}
		fmt.Printf("Read %s: %d rows", path, report.Rows)
		if report.BadTimestamps > 0 {
			fmt.Printf(", %d unparsable timestamps ignored", report.BadTimestamps)
		}
		if report.Skipped > 0 {
			fmt.Printf(", %d incomplete rows skipped", report.Skipped)
		}
		fmt.Println()
		badTimestamps += report.BadTimestamps
		allRows = append(allRows, rows...)
	}
	if len(allRows) == 0 {
		return fmt.Errorf("no valid data found in input files")
	}
	if badTimestamps > 0 {
		fmt.Printf("Failed to convert %d timestamps total. These rows were ignored.\n", badTimestamps)
	}

	byMeter := pipeline.GroupByMeter(allRows)
	fmt.Printf("Found %d unique meters\n", len(byMeter))

	runner := pipeline.NewRunner(tl)
	runner.Tolerance = cfg.Correction.GetTolerance()
	runner.CorrectionEnabled = cfg.Correction.GetEnabled()

	if processVerbose {
		// Meters run concurrently; serialize the correction log lines.
		var logMu sync.Mutex
		runner.Events.OnCorrection = func(meter string, ts time.Time, old, new float64) {
			logMu.Lock()
			fmt.Printf("  corrected %s @ %s: %g -> %g\n", meter, models.FormatTimestamp(ts), old, new)
			logMu.Unlock()
		}
	}

	results := runner.RunAll(context.Background(), byMeter)

	// Package results into the ZIP archive
	out, err := os.Create(processOut)
	if err != nil {
		return fmt.Errorf("creating output archive: %w", err)
	}
	defer out.Close()
	zw := archive.NewWriter(out)

	var db *database.DB
	if processStore {
		db, err = openDB()
		if err != nil {
			return fmt.Errorf("opening database: %w", err)
		}
		defer db.Close()
	}

	processed := 0
	corrections := 0
	for i, res := range results {
		fmt.Printf("[%d/%d] Processing %s... ", i+1, len(results), res.Meter)
		if res.Err != nil {
			fmt.Printf("FAILED: %v\n", res.Err)
			continue
		}
		if err := zw.AddSeries(res.Meter, res.Records); err != nil {
			fmt.Printf("FAILED: %v\n", err)
			continue
		}
		if db != nil {
			if err := db.InsertSeries(res.Records); err != nil {
				fmt.Printf("✓ (warning: failed to store: %v)\n", err)
				processed++
				corrections += len(res.Corrections)
				continue
			}
		}
		if len(res.Corrections) > 0 {
			fmt.Printf("✓ (%d anomalies corrected)\n", len(res.Corrections))
		} else {
			fmt.Printf("✓\n")
		}
		processed++
		corrections += len(res.Corrections)
	}

	if err := zw.Close(); err != nil {
		return fmt.Errorf("finalizing archive: %w", err)
	}

	fmt.Printf("\nProcessing complete! Processed %d/%d meters (%d anomalies corrected).\n",
		processed, len(results), corrections)
	fmt.Printf("Output written to %s\n", processOut)
	return nil
}
