package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/username/labelfolio/backend/src/logger"
	"github.com/username/labelfolio/backend/src/models"
)

// ContractStore reads and writes revenue-share contracts and their parties.
type ContractStore struct {
	db *sql.DB
}

func NewContractStore(db *sql.DB) *ContractStore {
	return &ContractStore{db: db}
}

// ListContracts returns every contract registered under the artist, parties
// attached in their stored order.
func (s *ContractStore) ListContracts(ctx context.Context, artistID string) ([]models.Contract, error) {
	query := `
	SELECT id, artist_id, scope, scope_id, start_date, end_date, created_at, updated_at
	FROM contracts
	WHERE artist_id = ?
	ORDER BY start_date, id`
	rows, err := s.db.QueryContext(ctx, query, artistID)
	if err != nil {
		return nil, fmt.Errorf("failed to query contracts: %w", err)
	}
	defer rows.Close()

	var contracts []models.Contract
	index := make(map[string]int)
	for rows.Next() {
		c, err := scanContract(rows)
		if err != nil {
			return nil, err
		}
		index[c.ID] = len(contracts)
		contracts = append(contracts, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read contracts: %w", err)
	}
	if len(contracts) == 0 {
		return contracts, nil
	}

	partyQuery := `
	SELECT p.contract_id, p.id, p.party_type, p.artist_id, p.label_name,
	       p.share_percentage, p.share_physical, p.share_digital
	FROM contract_parties p
	JOIN contracts c ON c.id = p.contract_id
	WHERE c.artist_id = ?
	ORDER BY p.contract_id, p.position, p.id`
	prows, err := s.db.QueryContext(ctx, partyQuery, artistID)
	if err != nil {
		return nil, fmt.Errorf("failed to query contract parties: %w", err)
	}
	defer prows.Close()

	for prows.Next() {
		contractID, p, err := scanParty(prows)
		if err != nil {
			return nil, err
		}
		if i, ok := index[contractID]; ok {
			contracts[i].Parties = append(contracts[i].Parties, p)
		}
	}
	if err := prows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read contract parties: %w", err)
	}
	return contracts, nil
}

// GetContract returns one contract by id, including its parties.
func (s *ContractStore) GetContract(ctx context.Context, id string) (*models.Contract, error) {
	query := `
	SELECT id, artist_id, scope, scope_id, start_date, end_date, created_at, updated_at
	FROM contracts
	WHERE id = ?`
	c, err := scanContract(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: contract %s", ErrNotFound, id)
		}
		return nil, err
	}

	partyQuery := `
	SELECT contract_id, id, party_type, artist_id, label_name,
	       share_percentage, share_physical, share_digital
	FROM contract_parties
	WHERE contract_id = ?
	ORDER BY position, id`
	rows, err := s.db.QueryContext(ctx, partyQuery, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query contract parties: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		_, p, err := scanParty(rows)
		if err != nil {
			return nil, err
		}
		c.Parties = append(c.Parties, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read contract parties: %w", err)
	}
	return &c, nil
}

// CreateContract validates and inserts a contract with its parties. The id
// and timestamps are assigned here.
func (s *ContractStore) CreateContract(ctx context.Context, c *models.Contract) error {
	if err := validateContract(c); err != nil {
		return err
	}
	now := time.Now()
	c.ID = uuid.NewString()
	c.CreatedAt = now
	c.UpdatedAt = now

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
	INSERT INTO contracts (id, artist_id, scope, scope_id, start_date, end_date, created_at, updated_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	_, err = tx.ExecContext(ctx, query,
		c.ID, c.ArtistID, string(c.Scope), nullString(c.ScopeID),
		dateString(c.StartDate), nullDateString(c.EndDate), c.CreatedAt, c.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert contract: %w", err)
	}
	if err := insertParties(ctx, tx, c); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit contract: %w", err)
	}
	logger.L.Info("contract created",
		"contractId", c.ID, "artistId", c.ArtistID, "scope", string(c.Scope), "parties", len(c.Parties))
	return nil
}

// UpdateContract validates and rewrites a contract, replacing its parties.
func (s *ContractStore) UpdateContract(ctx context.Context, c *models.Contract) error {
	if c.ID == "" {
		return fmt.Errorf("%w: id is required", ErrInvalidContract)
	}
	if err := validateContract(c); err != nil {
		return err
	}
	c.UpdatedAt = time.Now()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
	UPDATE contracts
	SET artist_id = ?, scope = ?, scope_id = ?, start_date = ?, end_date = ?, updated_at = ?
	WHERE id = ?`
	res, err := tx.ExecContext(ctx, query,
		c.ArtistID, string(c.Scope), nullString(c.ScopeID),
		dateString(c.StartDate), nullDateString(c.EndDate), c.UpdatedAt, c.ID)
	if err != nil {
		return fmt.Errorf("failed to update contract: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: contract %s", ErrNotFound, c.ID)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM contract_parties WHERE contract_id = ?`, c.ID); err != nil {
		return fmt.Errorf("failed to replace contract parties: %w", err)
	}
	if err := insertParties(ctx, tx, c); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit contract update: %w", err)
	}
	return nil
}

// DeleteContract removes a contract and its parties.
func (s *ContractStore) DeleteContract(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM contract_parties WHERE contract_id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete contract parties: %w", err)
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM contracts WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete contract: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check delete result: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: contract %s", ErrNotFound, id)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit contract delete: %w", err)
	}
	logger.L.Info("contract deleted", "contractId", id)
	return nil
}

func insertParties(ctx context.Context, tx *sql.Tx, c *models.Contract) error {
	query := `
	INSERT INTO contract_parties (id, contract_id, position, party_type, artist_id, label_name,
	                              share_percentage, share_physical, share_digital)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	for i := range c.Parties {
		p := &c.Parties[i]
		if p.ID == "" {
			p.ID = uuid.NewString()
		}
		_, err := tx.ExecContext(ctx, query,
			p.ID, c.ID, i, string(p.PartyType),
			nullString(p.ArtistID), nullString(p.LabelName),
			p.SharePercentage.String(), nullDecimal(p.SharePhysical), nullDecimal(p.ShareDigital))
		if err != nil {
			return fmt.Errorf("failed to insert contract party: %w", err)
		}
	}
	return nil
}

func scanContract(row rowScanner) (models.Contract, error) {
	var c models.Contract
	var scopeID, endDate sql.NullString
	var startDate string
	err := row.Scan(
		&c.ID,
		&c.ArtistID,
		(*string)(&c.Scope),
		&scopeID,
		&startDate,
		&endDate,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Contract{}, err
		}
		return models.Contract{}, fmt.Errorf("failed to scan contract: %w", err)
	}
	c.ScopeID = scopeID.String
	if c.StartDate, err = dateFrom(startDate); err != nil {
		return models.Contract{}, err
	}
	if c.EndDate, err = datePtrFrom(endDate); err != nil {
		return models.Contract{}, err
	}
	return c, nil
}

func scanParty(row rowScanner) (string, models.ContractParty, error) {
	var contractID string
	var p models.ContractParty
	var artistID, labelName, physical, digital sql.NullString
	var share string
	err := row.Scan(
		&contractID,
		&p.ID,
		(*string)(&p.PartyType),
		&artistID,
		&labelName,
		&share,
		&physical,
		&digital,
	)
	if err != nil {
		return "", models.ContractParty{}, fmt.Errorf("failed to scan contract party: %w", err)
	}
	p.ArtistID = artistID.String
	p.LabelName = labelName.String
	if p.SharePercentage, err = decimalFrom(share); err != nil {
		return "", models.ContractParty{}, err
	}
	if p.SharePhysical, err = decimalPtrFrom(physical); err != nil {
		return "", models.ContractParty{}, err
	}
	if p.ShareDigital, err = decimalPtrFrom(digital); err != nil {
		return "", models.ContractParty{}, err
	}
	return contractID, p, nil
}

func validateContract(c *models.Contract) error {
	if c.ArtistID == "" {
		return fmt.Errorf("%w: artist id is required", ErrInvalidContract)
	}
	if c.StartDate.IsZero() {
		return fmt.Errorf("%w: start date is required", ErrInvalidContract)
	}
	if c.EndDate != nil && !c.EndDate.After(c.StartDate) {
		return fmt.Errorf("%w: end date must be after start date", ErrInvalidContract)
	}
	if err := validateScope(c.Scope, c.ScopeID); err != nil {
		return err
	}
	if len(c.Parties) == 0 {
		return fmt.Errorf("%w: at least one party is required", ErrInvalidContract)
	}
	for i, p := range c.Parties {
		if err := validateParty(p); err != nil {
			return fmt.Errorf("party %d: %w", i, err)
		}
	}
	if !c.SharesBalanced() {
		return fmt.Errorf("%w: shares sum to %s", ErrUnbalancedShares, c.ShareSum())
	}
	return nil
}

func validateParty(p models.ContractParty) error {
	switch p.PartyType {
	case models.PartyTypeArtist:
		if p.ArtistID == "" {
			return fmt.Errorf("%w: artist party requires an artist id", ErrInvalidParty)
		}
		if p.LabelName != "" {
			return fmt.Errorf("%w: artist party must not carry a label name", ErrInvalidParty)
		}
	case models.PartyTypeLabel:
		if p.LabelName == "" {
			return fmt.Errorf("%w: label party requires a label name", ErrInvalidParty)
		}
		if p.ArtistID != "" {
			return fmt.Errorf("%w: label party must not carry an artist id", ErrInvalidParty)
		}
	default:
		return fmt.Errorf("%w: unknown party type %q", ErrInvalidParty, p.PartyType)
	}
	if err := validateShare("share", p.SharePercentage); err != nil {
		return err
	}
	if p.SharePhysical != nil {
		if err := validateShare("physical share", *p.SharePhysical); err != nil {
			return err
		}
	}
	if p.ShareDigital != nil {
		if err := validateShare("digital share", *p.ShareDigital); err != nil {
			return err
		}
	}
	return nil
}

func validateShare(label string, share decimal.Decimal) error {
	if share.IsNegative() || share.GreaterThan(one) {
		return fmt.Errorf("%w: %s %s is outside [0, 1]", ErrInvalidParty, label, share)
	}
	return nil
}
