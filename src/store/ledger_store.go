package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/username/labelfolio/backend/src/logger"
	"github.com/username/labelfolio/backend/src/models"
	"github.com/username/labelfolio/backend/src/security/validation"
)

// LedgerStore reads and writes the per-artist ledger. Advances are entered by
// operators; recoupments and payments are written by the statement
// mark-as-paid workflow with the statement id attached.
type LedgerStore struct {
	db *sql.DB
}

func NewLedgerStore(db *sql.DB) *LedgerStore {
	return &LedgerStore{db: db}
}

// ListEntries returns the artist's full ledger, oldest first.
func (s *LedgerStore) ListEntries(ctx context.Context, artistID string) ([]models.LedgerEntry, error) {
	query := `
	SELECT id, artist_id, entry_type, amount, currency, scope, scope_id, effective_date,
	       category, description, reference, statement_id, created_at, updated_at
	FROM ledger_entries
	WHERE artist_id = ?
	ORDER BY effective_date, id`
	rows, err := s.db.QueryContext(ctx, query, artistID)
	if err != nil {
		return nil, fmt.Errorf("failed to query ledger entries: %w", err)
	}
	defer rows.Close()

	var entries []models.LedgerEntry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read ledger entries: %w", err)
	}
	return entries, nil
}

const insertEntryQuery = `
	INSERT INTO ledger_entries (id, artist_id, entry_type, amount, currency, scope, scope_id,
	                            effective_date, category, description, reference, statement_id,
	                            created_at, updated_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

func entryArgs(e *models.LedgerEntry) []any {
	return []any{
		e.ID, e.ArtistID, string(e.Type), e.Amount.String(), e.Currency,
		string(e.Scope), nullString(e.ScopeID), dateString(e.EffectiveDate),
		nullString(e.Category), nullString(e.Description), nullString(e.Reference),
		nullString(e.StatementID), e.CreatedAt, e.UpdatedAt,
	}
}

// CreateEntry validates, sanitizes and inserts a ledger entry. The id and
// timestamps are assigned here.
func (s *LedgerStore) CreateEntry(ctx context.Context, e *models.LedgerEntry) error {
	if err := validateEntry(e); err != nil {
		return err
	}
	sanitizeEntry(e)
	now := time.Now()
	e.ID = uuid.NewString()
	e.CreatedAt = now
	e.UpdatedAt = now

	if _, err := s.db.ExecContext(ctx, insertEntryQuery, entryArgs(e)...); err != nil {
		return fmt.Errorf("failed to insert ledger entry: %w", err)
	}
	logger.L.Info("ledger entry created",
		"entryId", e.ID, "artistId", e.ArtistID, "type", string(e.Type), "amount", e.Amount.String())
	return nil
}

// CreateEntries inserts several entries inside one transaction, either all
// of them or none. The statement mark-as-paid workflow uses this to land a
// period's recoupments and payment together.
func (s *LedgerStore) CreateEntries(ctx context.Context, entries []*models.LedgerEntry) error {
	if len(entries) == 0 {
		return nil
	}
	for _, e := range entries {
		if err := validateEntry(e); err != nil {
			return err
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, insertEntryQuery)
	if err != nil {
		return fmt.Errorf("failed to prepare ledger insert: %w", err)
	}
	defer stmt.Close()

	now := time.Now()
	for _, e := range entries {
		sanitizeEntry(e)
		e.ID = uuid.NewString()
		e.CreatedAt = now
		e.UpdatedAt = now
		if _, err := stmt.ExecContext(ctx, entryArgs(e)...); err != nil {
			return fmt.Errorf("failed to insert ledger entry: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit ledger entries: %w", err)
	}
	logger.L.Info("ledger entries created", "artistId", entries[0].ArtistID, "count", len(entries))
	return nil
}

// UpdateEntry validates, sanitizes and rewrites an existing entry.
func (s *LedgerStore) UpdateEntry(ctx context.Context, e *models.LedgerEntry) error {
	if e.ID == "" {
		return fmt.Errorf("%w: id is required", ErrInvalidEntry)
	}
	if err := validateEntry(e); err != nil {
		return err
	}
	sanitizeEntry(e)
	e.UpdatedAt = time.Now()

	query := `
	UPDATE ledger_entries
	SET artist_id = ?, entry_type = ?, amount = ?, currency = ?, scope = ?, scope_id = ?,
	    effective_date = ?, category = ?, description = ?, reference = ?, statement_id = ?,
	    updated_at = ?
	WHERE id = ?`
	res, err := s.db.ExecContext(ctx, query,
		e.ArtistID, string(e.Type), e.Amount.String(), e.Currency,
		string(e.Scope), nullString(e.ScopeID), dateString(e.EffectiveDate),
		nullString(e.Category), nullString(e.Description), nullString(e.Reference),
		nullString(e.StatementID), e.UpdatedAt, e.ID)
	if err != nil {
		return fmt.Errorf("failed to update ledger entry: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: ledger entry %s", ErrNotFound, e.ID)
	}
	return nil
}

// DeleteEntry removes a ledger entry.
func (s *LedgerStore) DeleteEntry(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM ledger_entries WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete ledger entry: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check delete result: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: ledger entry %s", ErrNotFound, id)
	}
	logger.L.Info("ledger entry deleted", "entryId", id)
	return nil
}

func scanEntry(row rowScanner) (models.LedgerEntry, error) {
	var e models.LedgerEntry
	var scopeID, category, description, reference, statementID sql.NullString
	var amount, effectiveDate string
	err := row.Scan(
		&e.ID,
		&e.ArtistID,
		(*string)(&e.Type),
		&amount,
		&e.Currency,
		(*string)(&e.Scope),
		&scopeID,
		&effectiveDate,
		&category,
		&description,
		&reference,
		&statementID,
		&e.CreatedAt,
		&e.UpdatedAt,
	)
	if err != nil {
		return models.LedgerEntry{}, fmt.Errorf("failed to scan ledger entry: %w", err)
	}
	e.ScopeID = scopeID.String
	e.Category = category.String
	e.Description = description.String
	e.Reference = reference.String
	e.StatementID = statementID.String
	if e.Amount, err = decimalFrom(amount); err != nil {
		return models.LedgerEntry{}, err
	}
	if e.EffectiveDate, err = dateFrom(effectiveDate); err != nil {
		return models.LedgerEntry{}, err
	}
	return e, nil
}

func validateEntry(e *models.LedgerEntry) error {
	if e.ArtistID == "" {
		return fmt.Errorf("%w: artist id is required", ErrInvalidEntry)
	}
	switch e.Type {
	case models.EntryTypeAdvance, models.EntryTypeRecoupment, models.EntryTypePayment:
	default:
		return fmt.Errorf("%w: %q", ErrInvalidEntryType, e.Type)
	}
	if !e.Amount.IsPositive() {
		return fmt.Errorf("%w: got %s", ErrInvalidAmount, e.Amount)
	}
	if e.EffectiveDate.IsZero() {
		return fmt.Errorf("%w: effective date is required", ErrInvalidEntry)
	}
	return validateScope(e.Scope, e.ScopeID)
}

func sanitizeEntry(e *models.LedgerEntry) {
	e.Currency = strings.ToUpper(strings.TrimSpace(e.Currency))
	if e.Currency == "" {
		e.Currency = "EUR"
	}
	e.Category = validation.CleanText(e.Category)
	e.Description = validation.CleanText(e.Description)
	e.Reference = validation.CleanText(e.Reference)
}
