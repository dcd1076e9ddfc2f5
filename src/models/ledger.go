package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type EntryType string

const (
	EntryTypeAdvance    EntryType = "advance"    // money fronted to the artist, to be recouped
	EntryTypeRecoupment EntryType = "recoupment" // royalties withheld against an advance
	EntryTypePayment    EntryType = "payment"    // royalties actually paid out
)

// LedgerEntry is one monetary movement on an artist's account. Amounts are
// always positive; EntryType carries the direction. Entries are created by
// label operators (advances) or by the statement mark-as-paid workflow
// (recoupments and payments); the calculation engine only reads them.
type LedgerEntry struct {
	ID       string    `json:"id,omitempty"`
	ArtistID string    `json:"artist_id"`
	Type     EntryType `json:"entry_type"`

	Amount   decimal.Decimal `json:"amount"`
	Currency string          `json:"currency"`

	// Scoping mirrors contracts: an advance can target the whole catalog,
	// one release, or one track.
	Scope   Scope  `json:"scope"`
	ScopeID string `json:"scope_id,omitempty"`

	EffectiveDate time.Time `json:"effective_date"`

	Category    string `json:"category,omitempty"` // informational, see utils.CategoryLabel
	Description string `json:"description,omitempty"`
	Reference   string `json:"reference,omitempty"`

	// StatementID links recoupment/payment entries back to the statement
	// whose mark-as-paid action created them.
	StatementID string `json:"statement_id,omitempty"`

	CreatedAt time.Time `json:"created_at,omitempty"`
	UpdatedAt time.Time `json:"updated_at,omitempty"`
}
