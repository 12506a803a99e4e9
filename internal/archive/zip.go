package archive

import (
	"archive/zip"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/jgoulah/meterflow/pkg/models"
)

// Writer packages per-meter consumption series into a single ZIP archive,
// one CSV entry per meter named "<meter>.csv".
type Writer struct {
	zw *zip.Writer
}

// NewWriter wraps w in an archive writer. Close must be called to flush
// the ZIP central directory.
func NewWriter(w io.Writer) *Writer {
	return &Writer{zw: zip.NewWriter(w)}
}

// AddSeries writes one meter's series as a CSV entry. Records are written
// in the order given, which the pipeline guarantees is canonical timeline
// order.
func (w *Writer) AddSeries(meter string, records []models.ConsumptionRecord) error {
	entry, err := w.zw.Create(meter + ".csv")
	if err != nil {
		return fmt.Errorf("creating archive entry for %s: %w", meter, err)
	}

	cw := csv.NewWriter(entry)
	if err := cw.Write([]string{"Timestamp", "Meter", "Volume Consumption"}); err != nil {
		return fmt.Errorf("writing header for %s: %w", meter, err)
	}
	for _, rec := range records {
		row := []string{
			models.FormatTimestamp(rec.Timestamp),
			rec.Meter,
			strconv.FormatFloat(rec.Volume, 'f', -1, 64),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("writing record for %s: %w", meter, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flushing entry for %s: %w", meter, err)
	}
	return nil
}

// Close finalizes the archive.
func (w *Writer) Close() error {
	return w.zw.Close()
}
