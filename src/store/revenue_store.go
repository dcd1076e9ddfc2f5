package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/username/labelfolio/backend/src/logger"
	"github.com/username/labelfolio/backend/src/models"
	"github.com/username/labelfolio/backend/src/security/validation"
)

// RevenueStore serves the pre-aggregated catalog revenue the ingestion layer
// loads. The calculation engine only reads from it.
type RevenueStore struct {
	db *sql.DB
}

func NewRevenueStore(db *sql.DB) *RevenueStore {
	return &RevenueStore{db: db}
}

// ListRevenue returns the artist's revenue rows with a sale date inside
// [periodStart, periodEnd), oldest first.
func (s *RevenueStore) ListRevenue(ctx context.Context, artistID string, periodStart, periodEnd time.Time) ([]models.CatalogRevenueRow, error) {
	query := `
	SELECT release_upc, release_title, included_in_upc, track_isrc, track_title,
	       source_platform, sale_type, gross_amount, unit_count, currency, sale_date
	FROM catalog_revenue
	WHERE artist_id = ? AND sale_date >= ? AND sale_date < ?
	ORDER BY sale_date, id`
	rows, err := s.db.QueryContext(ctx, query, artistID, dateString(periodStart), dateString(periodEnd))
	if err != nil {
		return nil, fmt.Errorf("failed to query catalog revenue: %w", err)
	}
	defer rows.Close()

	var result []models.CatalogRevenueRow
	for rows.Next() {
		var r models.CatalogRevenueRow
		var upc, title, includedIn, isrc, trackTitle sql.NullString
		var gross, saleDate string
		err := rows.Scan(
			&upc,
			&title,
			&includedIn,
			&isrc,
			&trackTitle,
			&r.SourcePlatform,
			(*string)(&r.SaleType),
			&gross,
			&r.UnitCount,
			&r.Currency,
			&saleDate,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan revenue row: %w", err)
		}
		r.ReleaseUPC = upc.String
		r.ReleaseTitle = title.String
		r.IncludedInUPC = includedIn.String
		r.TrackISRC = isrc.String
		r.TrackTitle = trackTitle.String
		if r.GrossAmount, err = decimalFrom(gross); err != nil {
			return nil, err
		}
		if r.SaleDate, err = dateFrom(saleDate); err != nil {
			return nil, err
		}
		result = append(result, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read catalog revenue: %w", err)
	}
	return result, nil
}

// InsertRevenueRows bulk-loads revenue rows for one artist inside a single
// transaction. Titles are sanitized; sale types and currencies are
// normalized to their canonical casing. Negative gross amounts are allowed,
// platforms report corrections that way.
func (s *RevenueStore) InsertRevenueRows(ctx context.Context, artistID string, rows []models.CatalogRevenueRow) error {
	if artistID == "" {
		return fmt.Errorf("%w: artist id is required", ErrInvalidRevenue)
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
	INSERT INTO catalog_revenue (artist_id, release_upc, release_title, included_in_upc,
	                             track_isrc, track_title, source_platform, sale_type,
	                             gross_amount, unit_count, currency, sale_date)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return fmt.Errorf("failed to prepare revenue insert: %w", err)
	}
	defer stmt.Close()

	for i, r := range rows {
		if r.SaleDate.IsZero() {
			return fmt.Errorf("%w: row %d has no sale date", ErrInvalidRevenue, i)
		}
		currency := strings.ToUpper(strings.TrimSpace(r.Currency))
		if currency == "" {
			currency = "EUR"
		}
		saleType := strings.ToLower(strings.TrimSpace(string(r.SaleType)))
		_, err := stmt.ExecContext(ctx,
			artistID,
			nullString(validation.CleanText(r.ReleaseUPC)),
			nullString(validation.CleanText(r.ReleaseTitle)),
			nullString(validation.CleanText(r.IncludedInUPC)),
			nullString(validation.CleanText(r.TrackISRC)),
			nullString(validation.CleanText(r.TrackTitle)),
			validation.CleanText(r.SourcePlatform),
			saleType,
			r.GrossAmount.String(),
			r.UnitCount,
			currency,
			dateString(r.SaleDate))
		if err != nil {
			return fmt.Errorf("failed to insert revenue row %d: %w", i, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit revenue rows: %w", err)
	}
	logger.L.Info("catalog revenue loaded", "artistId", artistID, "rows", len(rows))
	return nil
}
