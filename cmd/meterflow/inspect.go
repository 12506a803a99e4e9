package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jgoulah/meterflow/internal/ingest"
	"github.com/jgoulah/meterflow/internal/pipeline"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect [files...]",
	Short: "Validate input files without processing them",
	Long: `Reads meter reading files and reports per-file row counts, distinct
meters, and malformed rows, without running the pipeline or writing output.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runInspect,
}

func init() {
	rootCmd.AddCommand(inspectCmd)
}

func runInspect(cmd *cobra.Command, args []string) error {
	totalRows := 0
	meters := map[string]int{}

	for _, path := range args {
		rows, report, err := ingest.ReadFile(path)
		if err != nil {
			fmt.Printf("%s: INVALID (%v)\n", path, err)
			continue
		}

		fmt.Printf("%s:\n", path)
		fmt.Printf("  Rows:                   %d\n", report.Rows)
		fmt.Printf("  Usable readings:        %d\n", len(rows))
		fmt.Printf("  Unparsable timestamps:  %d\n", report.BadTimestamps)
		fmt.Printf("  Incomplete rows:        %d\n", report.Skipped)

		byMeter := pipeline.GroupByMeter(rows)
		fmt.Printf("  Meters:                 %d\n", len(byMeter))

		totalRows += report.Rows
		for meter, rs := range byMeter {
			meters[meter] += len(rs)
		}
	}

	fmt.Printf("\nTotal: %d rows across %d meters\n", totalRows, len(meters))
	return nil
}
