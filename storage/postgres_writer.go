package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/lib/pq"

	"autovalor/models"
)

// PostgresWriter keeps the latest scored run in PostgreSQL. Every Write
// replaces the previous snapshot.
type PostgresWriter struct {
	db *sql.DB
}

// NewPostgresWriter opens a connection to PostgreSQL, runs schema migrations,
// and returns a ready-to-use PostgresWriter.
func NewPostgresWriter(ctx context.Context, dsn string) (*PostgresWriter, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: open: %w", err)
	}

	for i := 0; i < 5; i++ {
		if err = db.PingContext(ctx); err == nil {
			break
		}
		select {
		case <-ctx.Done():
			_ = db.Close()
			return nil, fmt.Errorf("postgres: ping: %w", ctx.Err())
		case <-time.After(2 * time.Second):
		}
	}
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("postgres: ping failed after retries: %w", err)
	}

	pw := &PostgresWriter{db: db}
	if err := pw.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("postgres: migrate: %w", err)
	}

	return pw, nil
}

func (pw *PostgresWriter) migrate(ctx context.Context) error {
	_, err := pw.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS cars (
			id           INTEGER      PRIMARY KEY,
			source       VARCHAR(32)  NOT NULL,
			title        TEXT         NOT NULL,
			price        BIGINT       NOT NULL DEFAULT 0,
			price_usd    BIGINT       NOT NULL DEFAULT 0,
			currency     VARCHAR(3)   NOT NULL,
			year         INTEGER,
			km           INTEGER,
			location     TEXT,
			image        TEXT         NOT NULL DEFAULT '',
			url          TEXT         NOT NULL DEFAULT '',
			publish_date VARCHAR(16)  NOT NULL,
			price_score  VARCHAR(16)  NOT NULL,
			created_at   TIMESTAMPTZ  NOT NULL DEFAULT NOW()
		);

		CREATE INDEX IF NOT EXISTS idx_cars_source      ON cars(source);
		CREATE INDEX IF NOT EXISTS idx_cars_price_usd   ON cars(price_usd);
		CREATE INDEX IF NOT EXISTS idx_cars_price_score ON cars(price_score);
	`)
	return err
}

// Write replaces the stored snapshot with cars inside one transaction.
func (pw *PostgresWriter) Write(cars []*models.Car) error {
	ctx := context.Background()

	tx, err := pw.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("postgres: begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, "DELETE FROM cars"); err != nil {
		return fmt.Errorf("postgres: clear: %w", err)
	}

	const batchSize = 50
	for i := 0; i < len(cars); i += batchSize {
		end := min(i+batchSize, len(cars))
		query, args := insertStatement(cars[i:end])
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("postgres: insert batch %d: %w", i/batchSize, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("postgres: commit: %w", err)
	}
	return nil
}

const insertColumns = 13

func insertStatement(batch []*models.Car) (string, []any) {
	valueStrings := make([]string, 0, len(batch))
	valueArgs := make([]any, 0, len(batch)*insertColumns)

	for idx, c := range batch {
		placeholders := make([]string, insertColumns)
		for col := range placeholders {
			placeholders[col] = fmt.Sprintf("$%d", idx*insertColumns+col+1)
		}
		valueStrings = append(valueStrings, "("+strings.Join(placeholders, ",")+")")
		valueArgs = append(valueArgs,
			c.ID, string(c.Source), c.Title, c.Price, c.PriceUSD, c.Currency,
			nullInt(c.Year), nullInt(c.Km), nullString(c.Location),
			c.Image, c.URL, c.PublishDate, string(c.PriceScore))
	}

	query := fmt.Sprintf(`
		INSERT INTO cars (id, source, title, price, price_usd, currency, year, km,
			location, image, url, publish_date, price_score)
		VALUES %s
	`, strings.Join(valueStrings, ","))
	return query, valueArgs
}

func (pw *PostgresWriter) Close() error {
	return pw.db.Close()
}

// FetchAll retrieves the stored snapshot in id order.
func (pw *PostgresWriter) FetchAll(ctx context.Context) ([]*models.Car, error) {
	rows, err := pw.db.QueryContext(ctx, `
		SELECT id, source, title, price, price_usd, currency, year, km,
			location, image, url, publish_date, price_score
		FROM cars
		ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("postgres: fetch all: %w", err)
	}
	defer rows.Close()

	var cars []*models.Car
	for rows.Next() {
		c := &models.Car{}
		var year, km sql.NullInt64
		var location sql.NullString
		if err := rows.Scan(
			&c.ID, &c.Source, &c.Title, &c.Price, &c.PriceUSD, &c.Currency,
			&year, &km, &location, &c.Image, &c.URL, &c.PublishDate, &c.PriceScore,
		); err != nil {
			return nil, fmt.Errorf("postgres: scan row: %w", err)
		}
		if year.Valid {
			v := int(year.Int64)
			c.Year = &v
		}
		if km.Valid {
			v := int(km.Int64)
			c.Km = &v
		}
		if location.Valid {
			c.Location = &location.String
		}
		cars = append(cars, c)
	}
	return cars, rows.Err()
}

func nullInt(v *int) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*v), Valid: true}
}

func nullString(v *string) sql.NullString {
	if v == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *v, Valid: true}
}
