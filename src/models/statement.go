package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type StatementStatus string

const (
	StatementStatusDraft     StatementStatus = "draft"
	StatementStatusFinalized StatementStatus = "finalized"
	StatementStatusPaid      StatementStatus = "paid"
)

// Statement is a persisted snapshot of one calculation for one artist and
// period. The lifecycle only moves forward: draft -> finalized -> paid.
// Marking a statement paid writes the matching recoupment and payment
// entries to the ledger.
type Statement struct {
	ID       string `json:"id,omitempty"`
	ArtistID string `json:"artist_id"`

	PeriodStart time.Time `json:"period_start"`
	PeriodEnd   time.Time `json:"period_end"`
	PeriodLabel string    `json:"period_label"` // e.g. "Q1 2026"
	Currency    string    `json:"currency"`

	Status StatementStatus `json:"status"`

	GrossAmount   decimal.Decimal `json:"gross_amount"`
	ArtistRoyalty decimal.Decimal `json:"artist_royalty"`
	LabelRoyalty  decimal.Decimal `json:"label_royalty"`

	AdvanceBalanceBefore decimal.Decimal `json:"advance_balance_before"`
	RecoupedAmount       decimal.Decimal `json:"recouped_amount"`
	AdvanceBalanceAfter  decimal.Decimal `json:"advance_balance_after"`

	NetPayable decimal.Decimal `json:"net_payable"`

	// ReleaseCount and UnitCount are carried for list views; the full
	// per-release breakdown is recomputed on demand.
	ReleaseCount int   `json:"release_count"`
	UnitCount    int64 `json:"unit_count"`

	CreatedAt   time.Time  `json:"created_at,omitempty"`
	FinalizedAt *time.Time `json:"finalized_at,omitempty"`
	PaidAt      *time.Time `json:"paid_at,omitempty"`
}

// CanFinalize reports whether the statement may move to finalized.
func (s Statement) CanFinalize() bool {
	return s.Status == StatementStatusDraft
}

// CanMarkPaid reports whether the statement may move to paid.
func (s Statement) CanMarkPaid() bool {
	return s.Status == StatementStatusFinalized
}
