package database

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/jgoulah/meterflow/pkg/models"
)

const timeLayout = "2006-01-02 15:04:05"

// DB wraps the database connection
type DB struct {
	conn *sql.DB
}

// Record is a stored consumption record with its row identity and
// publish state.
type Record struct {
	ID        int
	Meter     string
	Timestamp time.Time
	Volume    float64
	Published bool
}

// MeterSummary aggregates the stored records for one meter
type MeterSummary struct {
	Meter       string
	Records     int
	TotalVolume float64
	Unpublished int
}

// New creates a new database connection and initializes the schema
func New(dbPath string) (*DB, error) {
	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	db := &DB{conn: conn}
	if err := db.initSchema(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("initializing schema: %w", err)
	}

	return db, nil
}

// Close closes the database connection
func (db *DB) Close() error {
	return db.conn.Close()
}

// initSchema creates the necessary tables
func (db *DB) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS consumption_data (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		meter TEXT NOT NULL,
		timestamp TEXT NOT NULL,
		volume REAL NOT NULL,
		created_at TEXT NOT NULL,
		published INTEGER DEFAULT 0,
		UNIQUE(meter, timestamp)
	);
	CREATE INDEX IF NOT EXISTS idx_consumption_meter ON consumption_data(meter);
	CREATE INDEX IF NOT EXISTS idx_consumption_timestamp ON consumption_data(timestamp);
	CREATE INDEX IF NOT EXISTS idx_consumption_published ON consumption_data(published);
	`

	_, err := db.conn.Exec(schema)
	return err
}

// InsertSeries stores one meter's full series in a single transaction.
// Reprocessing the same input replaces existing rows for the same
// (meter, timestamp) and resets their publish state.
func (db *DB) InsertSeries(records []models.ConsumptionRecord) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
	INSERT OR REPLACE INTO consumption_data (meter, timestamp, volume, created_at)
	VALUES (?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	createdAt := time.Now().UTC().Format(time.RFC3339)
	for _, rec := range records {
		_, err := stmt.Exec(rec.Meter, rec.Timestamp.UTC().Format(timeLayout), rec.Volume, createdAt)
		if err != nil {
			return fmt.Errorf("inserting record for %s: %w", rec.Meter, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing series: %w", err)
	}
	return nil
}

// ListMeters returns the distinct meter identifiers with stored data
func (db *DB) ListMeters() ([]string, error) {
	rows, err := db.conn.Query(`SELECT DISTINCT meter FROM consumption_data ORDER BY meter`)
	if err != nil {
		return nil, fmt.Errorf("querying meters: %w", err)
	}
	defer rows.Close()

	var meters []string
	for rows.Next() {
		var m string
		if err := rows.Scan(&m); err != nil {
			return nil, fmt.Errorf("scanning meter: %w", err)
		}
		meters = append(meters, m)
	}
	return meters, rows.Err()
}

// Summaries returns per-meter record counts and totals, ordered by meter
func (db *DB) Summaries() ([]MeterSummary, error) {
	query := `
	SELECT meter, COUNT(*), SUM(volume), SUM(CASE WHEN published = 0 THEN 1 ELSE 0 END)
	FROM consumption_data
	GROUP BY meter
	ORDER BY meter
	`

	rows, err := db.conn.Query(query)
	if err != nil {
		return nil, fmt.Errorf("querying summaries: %w", err)
	}
	defer rows.Close()

	var summaries []MeterSummary
	for rows.Next() {
		var s MeterSummary
		if err := rows.Scan(&s.Meter, &s.Records, &s.TotalVolume, &s.Unpublished); err != nil {
			return nil, fmt.Errorf("scanning summary: %w", err)
		}
		summaries = append(summaries, s)
	}
	return summaries, rows.Err()
}

// ListConsumption retrieves all stored records for a meter, ordered by
// timestamp ascending
func (db *DB) ListConsumption(meter string) ([]Record, error) {
	return db.listRecords(`
	SELECT id, meter, timestamp, volume, published
	FROM consumption_data
	WHERE meter = ?
	ORDER BY timestamp
	`, meter)
}

// ListUnpublished retrieves the unpublished records for a meter, ordered
// by timestamp ascending
func (db *DB) ListUnpublished(meter string) ([]Record, error) {
	return db.listRecords(`
	SELECT id, meter, timestamp, volume, published
	FROM consumption_data
	WHERE meter = ? AND published = 0
	ORDER BY timestamp
	`, meter)
}

func (db *DB) listRecords(query string, args ...any) ([]Record, error) {
	rows, err := db.conn.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying consumption data: %w", err)
	}
	defer rows.Close()

	var results []Record
	for rows.Next() {
		var (
			rec    Record
			tsStr  string
			pubInt int
		)
		if err := rows.Scan(&rec.ID, &rec.Meter, &tsStr, &rec.Volume, &pubInt); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		rec.Timestamp, err = time.ParseInLocation(timeLayout, tsStr, time.UTC)
		if err != nil {
			return nil, fmt.Errorf("parsing timestamp: %w", err)
		}
		rec.Published = pubInt != 0
		results = append(results, rec)
	}

	return results, rows.Err()
}

// MarkPublished marks a record as published
func (db *DB) MarkPublished(id int) error {
	_, err := db.conn.Exec(`UPDATE consumption_data SET published = 1 WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("marking record as published: %w", err)
	}
	return nil
}
