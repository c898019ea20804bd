package storage

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"strings"

	_ "github.com/lib/pq"

	"airbnb-eda/models"
	"airbnb-eda/utils"
)

// PostgresWriter persists cleaned listings and occupancy to PostgreSQL.
type PostgresWriter struct {
	db *sql.DB
}

// NewPostgresWriter opens a connection to PostgreSQL, runs schema migrations,
// and returns a ready-to-use PostgresWriter.
func NewPostgresWriter(ctx context.Context, dsn string, retry *utils.RetryConfig) (*PostgresWriter, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: open: %w", err)
	}

	if err := retry.Do(ctx, "postgres-ping", db.PingContext); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("postgres: %w", err)
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
		CREATE TABLE IF NOT EXISTS listings_clean (
			id             TEXT PRIMARY KEY,
			name           TEXT          NOT NULL DEFAULT '',
			neighbourhood  TEXT          NOT NULL DEFAULT '',
			room_type      TEXT          NOT NULL DEFAULT '',
			price          NUMERIC(10,2),
			weekly_price   NUMERIC(12,2),
			monthly_price  NUMERIC(12,2),
			occupancy_rate NUMERIC(5,4),
			created_at     TIMESTAMPTZ   NOT NULL DEFAULT NOW()
		);

		CREATE TABLE IF NOT EXISTS listing_occupancy (
			listing_id  TEXT PRIMARY KEY,
			days        INTEGER       NOT NULL,
			booked_days INTEGER       NOT NULL,
			rate        NUMERIC(5,4)  NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_listings_clean_price         ON listings_clean(price);
		CREATE INDEX IF NOT EXISTS idx_listings_clean_neighbourhood ON listings_clean(neighbourhood);
		CREATE INDEX IF NOT EXISTS idx_listings_clean_room_type     ON listings_clean(room_type);
	`)
	return err
}

// Clear deletes all existing rows from both tables.
func (pw *PostgresWriter) Clear() error {
	if _, err := pw.db.Exec("DELETE FROM listings_clean"); err != nil {
		return fmt.Errorf("postgres: clear listings: %w", err)
	}
	if _, err := pw.db.Exec("DELETE FROM listing_occupancy"); err != nil {
		return fmt.Errorf("postgres: clear occupancy: %w", err)
	}
	return nil
}

const batchSize = 50

// Write replaces the stored dataset with listings and occupancy, batch by batch.
func (pw *PostgresWriter) Write(listings []*models.ListingSummary, occupancy []models.Occupancy) error {
	if err := pw.Clear(); err != nil {
		return err
	}

	for i := 0; i < len(listings); i += batchSize {
		end := min(i+batchSize, len(listings))
		if err := pw.insertListings(listings[i:end]); err != nil {
			return err
		}
	}
	for i := 0; i < len(occupancy); i += batchSize {
		end := min(i+batchSize, len(occupancy))
		if err := pw.insertOccupancy(occupancy[i:end]); err != nil {
			return err
		}
	}
	return nil
}

func (pw *PostgresWriter) insertListings(batch []*models.ListingSummary) error {
	const width = 8
	valueStrings := make([]string, 0, len(batch))
	valueArgs := make([]interface{}, 0, len(batch)*width)

	for idx, l := range batch {
		valueStrings = append(valueStrings, placeholders(idx*width, width))
		valueArgs = append(valueArgs,
			l.ID, l.Name, l.Neighbourhood, l.RoomType,
			nullFloat(l.Price), nullFloat(l.WeeklyPrice), nullFloat(l.MonthlyPrice),
			nullFloat(l.OccupancyRate))
	}

	query := fmt.Sprintf(`
		INSERT INTO listings_clean
			(id, name, neighbourhood, room_type, price, weekly_price, monthly_price, occupancy_rate)
		VALUES %s
		ON CONFLICT (id) DO NOTHING
	`, strings.Join(valueStrings, ","))

	if _, err := pw.db.Exec(query, valueArgs...); err != nil {
		return fmt.Errorf("postgres: insert listings: %w", err)
	}
	return nil
}

func (pw *PostgresWriter) insertOccupancy(batch []models.Occupancy) error {
	const width = 4
	valueStrings := make([]string, 0, len(batch))
	valueArgs := make([]interface{}, 0, len(batch)*width)

	for idx, o := range batch {
		valueStrings = append(valueStrings, placeholders(idx*width, width))
		valueArgs = append(valueArgs, o.ListingID, o.Days, o.BookedDays, o.Rate)
	}

	query := fmt.Sprintf(`
		INSERT INTO listing_occupancy (listing_id, days, booked_days, rate)
		VALUES %s
		ON CONFLICT (listing_id) DO NOTHING
	`, strings.Join(valueStrings, ","))

	if _, err := pw.db.Exec(query, valueArgs...); err != nil {
		return fmt.Errorf("postgres: insert occupancy: %w", err)
	}
	return nil
}

// placeholders renders "($base+1,...,$base+n)".
func placeholders(base, n int) string {
	parts := make([]string, n)
	for i := range parts {
		parts[i] = fmt.Sprintf("$%d", base+i+1)
	}
	return "(" + strings.Join(parts, ",") + ")"
}

func nullFloat(f float64) sql.NullFloat64 {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: f, Valid: true}
}

func (pw *PostgresWriter) Close() error {
	return pw.db.Close()
}

// FetchAll retrieves all stored listings, used by the insight service.
func (pw *PostgresWriter) FetchAll() ([]*models.ListingSummary, error) {
	rows, err := pw.db.Query(`
		SELECT id, name, neighbourhood, room_type,
		       price, weekly_price, monthly_price, occupancy_rate
		FROM listings_clean
		ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("postgres: fetch all: %w", err)
	}
	defer rows.Close()

	var listings []*models.ListingSummary
	for rows.Next() {
		l := &models.ListingSummary{}
		var price, weekly, monthly, occ sql.NullFloat64
		if err := rows.Scan(
			&l.ID, &l.Name, &l.Neighbourhood, &l.RoomType,
			&price, &weekly, &monthly, &occ,
		); err != nil {
			return nil, fmt.Errorf("postgres: scan row: %w", err)
		}
		l.Price = floatOrNaN(price)
		l.WeeklyPrice = floatOrNaN(weekly)
		l.MonthlyPrice = floatOrNaN(monthly)
		l.OccupancyRate = floatOrNaN(occ)
		listings = append(listings, l)
	}
	return listings, rows.Err()
}

func floatOrNaN(n sql.NullFloat64) float64 {
	if !n.Valid {
		return math.NaN()
	}
	return n.Float64
}
