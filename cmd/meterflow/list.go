package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jgoulah/meterflow/internal/database"
	"github.com/jgoulah/meterflow/pkg/models"
)

var listMeter string

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored consumption data",
	Long:  `Displays per-meter summaries of the stored consumption data from the database.`,
	RunE:  runList,
}

func init() {
	listCmd.Flags().StringVar(&listMeter, "meter", "", "Show the full series for one meter")
	rootCmd.AddCommand(listCmd)
}

func runList(cmd *cobra.Command, args []string) error {
	// Open database
	db, err := openDB()
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()

	if listMeter != "" {
		return listSeries(db, listMeter)
	}

	summaries, err := db.Summaries()
	if err != nil {
		return fmt.Errorf("listing summaries: %w", err)
	}

	if len(summaries) == 0 {
		fmt.Println("No data found")
		return nil
	}

	fmt.Println("------------------------------------------------------------")
	fmt.Printf("%-20s  %8s  %12s  %11s\n", "Meter", "Records", "Total Volume", "Unpublished")
	fmt.Println("------------------------------------------------------------")
	for _, s := range summaries {
		fmt.Printf("%-20s  %8d  %12.2f  %11d\n", s.Meter, s.Records, s.TotalVolume, s.Unpublished)
	}
	fmt.Println("------------------------------------------------------------")
	fmt.Printf("%d meters\n", len(summaries))

	return nil
}

func listSeries(db *database.DB, meter string) error {
	records, err := db.ListConsumption(meter)
	if err != nil {
		return fmt.Errorf("listing data for %s: %w", meter, err)
	}

	if len(records) == 0 {
		fmt.Printf("No data found for %s\n", meter)
		return nil
	}

	fmt.Printf("\n%s Consumption Data:\n", meter)
	fmt.Println("----------------------------------------")
	fmt.Printf("%-18s  %12s\n", "Timestamp", "Volume")
	fmt.Println("----------------------------------------")

	var total float64
	for _, rec := range records {
		fmt.Printf("%-18s  %12.3f\n", models.FormatTimestamp(rec.Timestamp), rec.Volume)
		total += rec.Volume
	}

	fmt.Println("----------------------------------------")
	fmt.Printf("Total: %.3f (%d records)\n", total, len(records))

	return nil
}
