package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/jgoulah/meterflow/internal/database"
	"github.com/jgoulah/meterflow/internal/publisher"
	"github.com/jgoulah/meterflow/pkg/models"
)

var (
	publishMeter string
	publishAll   bool
	publishLimit int
)

var publishCmd = &cobra.Command{
	Use:   "publish",
	Short: "Publish stored consumption data over MQTT",
	Long:  `Reads stored consumption records from the database and publishes them to the configured MQTT broker, one topic per meter.`,
	RunE:  runPublish,
}

func init() {
	publishCmd.Flags().StringVar(&publishMeter, "meter", "", "Meter to publish (default: all meters)")
	publishCmd.Flags().BoolVar(&publishAll, "all", false, "Force republish all records (ignore published flag)")
	publishCmd.Flags().IntVar(&publishLimit, "limit", 0, "Limit number of records to publish per meter (0 = no limit)")
	rootCmd.AddCommand(publishCmd)
}

func runPublish(cmd *cobra.Command, args []string) error {
	fmt.Printf("=== Publish started at %s ===\n", time.Now().Format("2006-01-02 15:04:05 MST"))

	// Load config
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	// Check if MQTT is configured
	if !cfg.MQTT.Enabled {
		return fmt.Errorf("MQTT is not enabled in config")
	}

	// Create publisher
	pub, err := publisher.New(cfg.MQTT)
	if err != nil {
		return fmt.Errorf("creating publisher: %w", err)
	}
	defer pub.Close()

	// Open database
	db, err := openDB()
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()

	// Determine which meters to publish
	meters := []string{}
	if publishMeter != "" {
		meters = append(meters, publishMeter)
	} else {
		meters, err = db.ListMeters()
		if err != nil {
			return fmt.Errorf("listing meters: %w", err)
		}
	}

	// Publish data for each meter
	totalPublished := 0
	for _, meter := range meters {
		// Get records based on --all flag
		var records []database.Record
		if publishAll {
			// When using --all, force republish ALL records
			records, err = db.ListConsumption(meter)
		} else {
			// Default: only publish unpublished records
			records, err = db.ListUnpublished(meter)
		}
		if err != nil {
			return fmt.Errorf("listing data for %s: %w", meter, err)
		}

		if len(records) == 0 {
			if publishAll {
				fmt.Printf("No data found for %s\n", meter)
			} else {
				fmt.Printf("No unpublished data found for %s\n", meter)
			}
			continue
		}

		// Apply limit if specified
		if publishLimit > 0 && len(records) > publishLimit {
			records = records[:publishLimit]
			fmt.Printf("Limiting to %d records (--limit flag)\n", publishLimit)
		}

		// Publish each record
		fmt.Printf("Publishing %d records for %s...\n", len(records), meter)
		published := 0
		for i, rec := range records {
			fmt.Printf("[%d/%d] Publishing %s (%.3f)... ", i+1, len(records), models.FormatTimestamp(rec.Timestamp), rec.Volume)
			if err := pub.Publish(rec); err != nil {
				fmt.Printf("FAILED: %v\n", err)
				continue
			}

			// Mark record as published in database
			if err := db.MarkPublished(rec.ID); err != nil {
				fmt.Printf("✓ (warning: failed to mark as published: %v)\n", err)
			} else {
				fmt.Printf("✓\n")
			}
			published++
		}

		fmt.Printf("Successfully published %d/%d records for %s\n", published, len(records), meter)
		totalPublished += published
	}

	fmt.Printf("\nTotal records published: %d\n", totalPublished)
	return nil
}
