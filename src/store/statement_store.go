package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/username/labelfolio/backend/src/logger"
	"github.com/username/labelfolio/backend/src/models"
)

// StatementStore persists royalty statement snapshots.
type StatementStore struct {
	db *sql.DB
}

func NewStatementStore(db *sql.DB) *StatementStore {
	return &StatementStore{db: db}
}

const statementColumns = `id, artist_id, period_start, period_end, period_label, currency, status,
	       gross_amount, artist_royalty, label_royalty,
	       advance_balance_before, recouped_amount, advance_balance_after, net_payable,
	       release_count, unit_count, created_at, finalized_at, paid_at`

// CreateStatement inserts a statement snapshot. The id and creation
// timestamp are assigned here; new statements start as drafts unless a
// status is already set.
func (s *StatementStore) CreateStatement(ctx context.Context, st *models.Statement) error {
	if st.ArtistID == "" {
		return fmt.Errorf("%w: artist id is required", ErrInvalidStatement)
	}
	if !st.PeriodEnd.After(st.PeriodStart) {
		return fmt.Errorf("%w: period end must be after period start", ErrInvalidStatement)
	}
	if st.Status == "" {
		st.Status = models.StatementStatusDraft
	}
	st.ID = uuid.NewString()
	st.CreatedAt = time.Now()

	query := `
	INSERT INTO statements (` + statementColumns + `)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := s.db.ExecContext(ctx, query,
		st.ID, st.ArtistID, dateString(st.PeriodStart), dateString(st.PeriodEnd),
		st.PeriodLabel, st.Currency, string(st.Status),
		st.GrossAmount.String(), st.ArtistRoyalty.String(), st.LabelRoyalty.String(),
		st.AdvanceBalanceBefore.String(), st.RecoupedAmount.String(),
		st.AdvanceBalanceAfter.String(), st.NetPayable.String(),
		st.ReleaseCount, st.UnitCount, st.CreatedAt,
		nullTime(st.FinalizedAt), nullTime(st.PaidAt))
	if err != nil {
		return fmt.Errorf("failed to insert statement: %w", err)
	}
	logger.L.Info("statement created",
		"statementId", st.ID, "artistId", st.ArtistID, "period", st.PeriodLabel, "netPayable", st.NetPayable.String())
	return nil
}

// GetStatement returns one statement by id.
func (s *StatementStore) GetStatement(ctx context.Context, id string) (*models.Statement, error) {
	query := `
	SELECT ` + statementColumns + `
	FROM statements
	WHERE id = ?`
	st, err := scanStatement(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: statement %s", ErrNotFound, id)
		}
		return nil, err
	}
	return &st, nil
}

// ListStatements returns statements newest period first. An empty artistID
// lists every artist.
func (s *StatementStore) ListStatements(ctx context.Context, artistID string) ([]models.Statement, error) {
	query := `
	SELECT ` + statementColumns + `
	FROM statements`
	args := []any{}
	if artistID != "" {
		query += `
	WHERE artist_id = ?`
		args = append(args, artistID)
	}
	query += `
	ORDER BY period_start DESC, created_at DESC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query statements: %w", err)
	}
	defer rows.Close()

	var statements []models.Statement
	for rows.Next() {
		st, err := scanStatement(rows)
		if err != nil {
			return nil, err
		}
		statements = append(statements, st)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read statements: %w", err)
	}
	return statements, nil
}

// UpdateStatement rewrites a statement's mutable fields, including status
// and lifecycle timestamps.
func (s *StatementStore) UpdateStatement(ctx context.Context, st *models.Statement) error {
	if st.ID == "" {
		return fmt.Errorf("%w: id is required", ErrInvalidStatement)
	}
	query := `
	UPDATE statements
	SET period_label = ?, currency = ?, status = ?,
	    gross_amount = ?, artist_royalty = ?, label_royalty = ?,
	    advance_balance_before = ?, recouped_amount = ?, advance_balance_after = ?, net_payable = ?,
	    release_count = ?, unit_count = ?, finalized_at = ?, paid_at = ?
	WHERE id = ?`
	res, err := s.db.ExecContext(ctx, query,
		st.PeriodLabel, st.Currency, string(st.Status),
		st.GrossAmount.String(), st.ArtistRoyalty.String(), st.LabelRoyalty.String(),
		st.AdvanceBalanceBefore.String(), st.RecoupedAmount.String(),
		st.AdvanceBalanceAfter.String(), st.NetPayable.String(),
		st.ReleaseCount, st.UnitCount, nullTime(st.FinalizedAt), nullTime(st.PaidAt), st.ID)
	if err != nil {
		return fmt.Errorf("failed to update statement: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: statement %s", ErrNotFound, st.ID)
	}
	return nil
}

func scanStatement(row rowScanner) (models.Statement, error) {
	var st models.Statement
	var periodStart, periodEnd string
	var gross, artistRoyalty, labelRoyalty, before, recouped, after, net string
	var finalizedAt, paidAt sql.NullTime
	err := row.Scan(
		&st.ID,
		&st.ArtistID,
		&periodStart,
		&periodEnd,
		&st.PeriodLabel,
		&st.Currency,
		(*string)(&st.Status),
		&gross,
		&artistRoyalty,
		&labelRoyalty,
		&before,
		&recouped,
		&after,
		&net,
		&st.ReleaseCount,
		&st.UnitCount,
		&st.CreatedAt,
		&finalizedAt,
		&paidAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Statement{}, err
		}
		return models.Statement{}, fmt.Errorf("failed to scan statement: %w", err)
	}
	if st.PeriodStart, err = dateFrom(periodStart); err != nil {
		return models.Statement{}, err
	}
	if st.PeriodEnd, err = dateFrom(periodEnd); err != nil {
		return models.Statement{}, err
	}
	if st.GrossAmount, err = decimalFrom(gross); err != nil {
		return models.Statement{}, err
	}
	if st.ArtistRoyalty, err = decimalFrom(artistRoyalty); err != nil {
		return models.Statement{}, err
	}
	if st.LabelRoyalty, err = decimalFrom(labelRoyalty); err != nil {
		return models.Statement{}, err
	}
	if st.AdvanceBalanceBefore, err = decimalFrom(before); err != nil {
		return models.Statement{}, err
	}
	if st.RecoupedAmount, err = decimalFrom(recouped); err != nil {
		return models.Statement{}, err
	}
	if st.AdvanceBalanceAfter, err = decimalFrom(after); err != nil {
		return models.Statement{}, err
	}
	if st.NetPayable, err = decimalFrom(net); err != nil {
		return models.Statement{}, err
	}
	st.FinalizedAt = timePtrFrom(finalizedAt)
	st.PaidAt = timePtrFrom(paidAt)
	return st, nil
}
