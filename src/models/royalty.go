package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// SourceBreakdown summarizes one platform's contribution to a period.
type SourceBreakdown struct {
	SourcePlatform string          `json:"source_platform"`
	PlatformLabel  string          `json:"platform_label"`
	GrossAmount    decimal.Decimal `json:"gross_amount"`
	ArtistRoyalty  decimal.Decimal `json:"artist_royalty"`
	UnitCount      int64           `json:"unit_count"`
}

// AlbumBreakdown is the per-release slice of a calculation. A release whose
// IncludedInUPC is set is listed for visibility but contributes nothing to
// the period totals: its NetPayable is zero and no advance is recouped
// against it.
type AlbumBreakdown struct {
	ReleaseUPC    string `json:"release_upc,omitempty"`
	ReleaseTitle  string `json:"release_title"`
	IncludedInUPC string `json:"included_in_upc,omitempty"`

	GrossAmount   decimal.Decimal `json:"gross_amount"`
	ArtistRoyalty decimal.Decimal `json:"artist_royalty"`
	LabelRoyalty  decimal.Decimal `json:"label_royalty"`

	AdvanceBalanceBefore decimal.Decimal `json:"advance_balance_before"`
	RecoupedThisPeriod   decimal.Decimal `json:"recouped_this_period"`
	AdvanceBalanceAfter  decimal.Decimal `json:"advance_balance_after"`

	NetPayable decimal.Decimal `json:"net_payable"`

	TrackCount  int                `json:"track_count"`
	UnitsByType map[SaleType]int64 `json:"units_by_type"`
	Sources     []string           `json:"sources"` // contributing platforms, sorted
	NoContract  bool               `json:"no_contract,omitempty"`
}

// RecoupmentAllocation records how much of one advance pool a period's
// royalties consumed. The mark-as-paid workflow writes one recoupment ledger
// entry per allocation so each scope's balance carries forward correctly.
type RecoupmentAllocation struct {
	Scope   Scope           `json:"scope"`
	ScopeID string          `json:"scope_id,omitempty"`
	Amount  decimal.Decimal `json:"amount"`
}

// RoyaltyCalculation is the full result of one engine run for one artist and
// period. All amounts are expressed in Currency; it is computed on demand
// and never persisted by the engine itself.
type RoyaltyCalculation struct {
	ArtistID    string    `json:"artist_id"`
	PeriodStart time.Time `json:"period_start"`
	PeriodEnd   time.Time `json:"period_end"`
	Currency    string    `json:"currency"`

	GrossAmount   decimal.Decimal `json:"gross_amount"`
	ArtistRoyalty decimal.Decimal `json:"artist_royalty"`
	LabelRoyalty  decimal.Decimal `json:"label_royalty"`

	AdvanceBalanceBefore decimal.Decimal `json:"advance_balance_before"`
	RecoupedThisPeriod   decimal.Decimal `json:"recouped_this_period"`
	AdvanceBalanceAfter  decimal.Decimal `json:"advance_balance_after"`

	NetPayable decimal.Decimal `json:"net_payable"`

	// PaidInPeriod is the sum of payment entries dated inside the period;
	// RemainingToPay is NetPayable minus PaidInPeriod and may go negative
	// when a period was overpaid.
	PaidInPeriod   decimal.Decimal `json:"paid_in_period"`
	RemainingToPay decimal.Decimal `json:"remaining_to_pay"`

	UnitCount int64 `json:"unit_count"`

	Sources []SourceBreakdown `json:"sources"`
	Albums  []AlbumBreakdown  `json:"albums"`

	// RecoupmentAllocations breaks RecoupedThisPeriod down by advance scope.
	RecoupmentAllocations []RecoupmentAllocation `json:"recoupment_allocations,omitempty"`

	// NoContractReleases lists release keys that resolved to no contract
	// and therefore earned the artist nothing. Informational, not an error.
	NoContractReleases []string `json:"no_contract_releases,omitempty"`
}
