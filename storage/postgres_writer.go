package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"

	"vastai-scraper/models"
)

const offersTable = "offers"

// PostgresWriter mirrors every written row into the offers table. Values are
// stored exactly as formatted for CSV.
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

	for i := 0; i < 10; i++ {
		if err = db.PingContext(ctx); err == nil {
			break
		}
		time.Sleep(2 * time.Second)
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
	_, err := pw.db.ExecContext(ctx, createTableSQL())
	return err
}

func createTableSQL() string {
	var b strings.Builder
	b.WriteString("CREATE TABLE IF NOT EXISTS " + offersTable + " (\n")
	b.WriteString("\trow_id       BIGSERIAL PRIMARY KEY,\n")
	b.WriteString("\tlisting_type VARCHAR(16) NOT NULL,\n")
	for _, col := range models.Columns() {
		b.WriteString("\t" + pq.QuoteIdentifier(col) + " TEXT NOT NULL DEFAULT '',\n")
	}
	b.WriteString("\tinserted_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()\n);\n")
	b.WriteString("CREATE INDEX IF NOT EXISTS idx_offers_type_ts ON " + offersTable +
		"(listing_type, " + pq.QuoteIdentifier(models.TimestampKey) + ");")
	return b.String()
}

// Write batch-inserts rows inside one transaction.
func (pw *PostgresWriter) Write(ctx context.Context, listingType models.ListingType, rows []models.Row) error {
	if len(rows) == 0 {
		return nil
	}

	tx, err := pw.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("postgres: begin: %w", err)
	}

	const batchSize = 50
	for i := 0; i < len(rows); i += batchSize {
		end := i + batchSize
		if end > len(rows) {
			end = len(rows)
		}
		query, args := buildInsert(listingType, rows[i:end])
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("postgres: insert %s offers: %w", listingType, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("postgres: commit: %w", err)
	}
	return nil
}

func buildInsert(listingType models.ListingType, batch []models.Row) (string, []any) {
	columns := models.Columns()
	width := len(columns) + 1

	quoted := make([]string, 0, width)
	quoted = append(quoted, "listing_type")
	for _, c := range columns {
		quoted = append(quoted, pq.QuoteIdentifier(c))
	}

	valueStrings := make([]string, 0, len(batch))
	valueArgs := make([]any, 0, len(batch)*width)
	placeholders := make([]string, width)

	for idx, row := range batch {
		base := idx * width
		for j := range placeholders {
			placeholders[j] = fmt.Sprintf("$%d", base+j+1)
		}
		valueStrings = append(valueStrings, "("+strings.Join(placeholders, ",")+")")

		valueArgs = append(valueArgs, string(listingType))
		for _, c := range columns {
			valueArgs = append(valueArgs, row.Get(c))
		}
	}

	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES %s",
		offersTable, strings.Join(quoted, ","), strings.Join(valueStrings, ","))
	return query, valueArgs
}

func (pw *PostgresWriter) Close() error {
	return pw.db.Close()
}
