package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"

	"bulletin-etl/models"
)

const pgColumnsPerRow = 9

// PostgresWriter persists finalized records to PostgreSQL, one row per
// record keyed by a generated UUID.
type PostgresWriter struct {
	db    *sql.DB
	newID func() string
}

// NewPostgresWriter opens a connection to PostgreSQL, runs schema migrations,
// and returns a ready-to-use PostgresWriter.
func NewPostgresWriter(ctx context.Context, dsn string) (*PostgresWriter, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: open: %w", err)
	}

	for i := 0; i < 10; i++ {
		if err = db.PingContext(ctx); err == nil {
			break
		}
		time.Sleep(2 * time.Second)
	}
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("postgres: ping failed after retries: %w: %v", models.ErrTransport, err)
	}

	pw := &PostgresWriter{db: db, newID: uuid.NewString}
	if err := pw.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("postgres: migrate: %w", err)
	}

	return pw, nil
}

func (pw *PostgresWriter) migrate(ctx context.Context) error {
	_, err := pw.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS food_prices (
			id                  UUID     PRIMARY KEY,
			database_write_date DATE     NOT NULL,
			price_date          DATE,
			location            TEXT     NOT NULL DEFAULT '',
			page                SMALLINT NOT NULL,
			item_name           TEXT     NOT NULL,
			value               TEXT     NOT NULL,
			min_value           INTEGER  NOT NULL DEFAULT 0,
			max_value           INTEGER  NOT NULL DEFAULT 0
		);

		CREATE INDEX IF NOT EXISTS idx_food_prices_date     ON food_prices(price_date);
		CREATE INDEX IF NOT EXISTS idx_food_prices_item     ON food_prices(item_name);
		CREATE INDEX IF NOT EXISTS idx_food_prices_location ON food_prices(location);
	`)
	return err
}

// Write batch-upserts every record.
func (pw *PostgresWriter) Write(ctx context.Context, records []models.FinalRecord) error {
	if len(records) == 0 {
		return nil
	}

	const batchSize = 50
	for i := 0; i < len(records); i += batchSize {
		end := i + batchSize
		if end > len(records) {
			end = len(records)
		}
		query, args := pw.upsertBatch(records[i:end])
		if _, err := pw.db.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("postgres: upsert batch at %d: %w: %v", i, models.ErrTransport, err)
		}
	}
	return nil
}

func (pw *PostgresWriter) upsertBatch(batch []models.FinalRecord) (string, []interface{}) {
	valueStrings := make([]string, 0, len(batch))
	valueArgs := make([]interface{}, 0, len(batch)*pgColumnsPerRow)

	for idx, r := range batch {
		base := idx * pgColumnsPerRow
		placeholders := make([]string, pgColumnsPerRow)
		for k := range placeholders {
			placeholders[k] = fmt.Sprintf("$%d", base+k+1)
		}
		valueStrings = append(valueStrings, "("+strings.Join(placeholders, ",")+")")
		valueArgs = append(valueArgs,
			pw.newID(), r.DatabaseWriteDate.Time, nullableDate(r.Date), r.Location,
			r.Page, r.ItemName, r.Value, r.MinValue, r.MaxValue)
	}

	query := fmt.Sprintf(`
		INSERT INTO food_prices (id, database_write_date, price_date, location, page, item_name, value, min_value, max_value)
		VALUES %s
		ON CONFLICT (id) DO UPDATE SET
			database_write_date = EXCLUDED.database_write_date,
			price_date          = EXCLUDED.price_date,
			location            = EXCLUDED.location,
			page                = EXCLUDED.page,
			item_name           = EXCLUDED.item_name,
			value               = EXCLUDED.value,
			min_value           = EXCLUDED.min_value,
			max_value           = EXCLUDED.max_value
	`, strings.Join(valueStrings, ","))
	return query, valueArgs
}

func (pw *PostgresWriter) Close() error {
	return pw.db.Close()
}

func nullableDate(d models.Date) interface{} {
	if !d.Valid {
		return nil
	}
	return d.Time
}
