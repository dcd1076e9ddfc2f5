package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Scope identifies the catalog level a contract or ledger entry applies to.
type Scope string

const (
	ScopeCatalog Scope = "catalog" // the artist's whole catalog
	ScopeRelease Scope = "release" // one release, identified by UPC
	ScopeTrack   Scope = "track"   // one track, identified by ISRC
)

// NeedsScopeID reports whether the scope requires a scope identifier
// (UPC or ISRC). Catalog scope carries none.
func (s Scope) NeedsScopeID() bool {
	return s == ScopeRelease || s == ScopeTrack
}

type PartyType string

const (
	PartyTypeArtist PartyType = "artist"
	PartyTypeLabel  PartyType = "label"
)

// ShareSumTolerance is the accepted drift when checking that the parties of
// a contract split 100% between them.
var ShareSumTolerance = decimal.RequireFromString("0.0001")

// ContractParty is one participant in a revenue split. Exactly one of
// ArtistID / LabelName is set, selected by PartyType.
type ContractParty struct {
	ID        string    `json:"id,omitempty"`
	PartyType PartyType `json:"party_type"`
	ArtistID  string    `json:"artist_id,omitempty"`  // set when PartyType == artist
	LabelName string    `json:"label_name,omitempty"` // set when PartyType == label

	// SharePercentage is a fraction in [0,1], not a percentage points value.
	SharePercentage decimal.Decimal `json:"share_percentage"`

	// Optional per-sale-type overrides. Physical formats (cd, vinyl, k7) use
	// SharePhysical when set, digital sales use ShareDigital when set;
	// everything else falls back to SharePercentage.
	SharePhysical *decimal.Decimal `json:"share_physical,omitempty"`
	ShareDigital  *decimal.Decimal `json:"share_digital,omitempty"`
}

// ShareFor returns the fraction this party earns on a sale of the given type.
func (p ContractParty) ShareFor(saleType SaleType) decimal.Decimal {
	if saleType.IsPhysical() && p.SharePhysical != nil {
		return *p.SharePhysical
	}
	if saleType == SaleTypeDigital && p.ShareDigital != nil {
		return *p.ShareDigital
	}
	return p.SharePercentage
}

// Contract is a revenue-share agreement between the label and one or more
// parties, attached to the whole catalog, a release, or a single track.
type Contract struct {
	ID       string `json:"id,omitempty"`
	ArtistID string `json:"artist_id"` // roster entry the contract was registered under
	Scope    Scope  `json:"scope"`
	ScopeID  string `json:"scope_id,omitempty"` // UPC or ISRC; empty for catalog scope

	StartDate time.Time  `json:"start_date"`
	EndDate   *time.Time `json:"end_date,omitempty"` // nil = open-ended

	Parties []ContractParty `json:"parties"`

	CreatedAt time.Time `json:"created_at,omitempty"`
	UpdatedAt time.Time `json:"updated_at,omitempty"`
}

// ActiveOn reports whether the contract's validity window contains t.
// The window is half-open: [StartDate, EndDate).
func (c Contract) ActiveOn(t time.Time) bool {
	if t.Before(c.StartDate) {
		return false
	}
	if c.EndDate != nil && !t.Before(*c.EndDate) {
		return false
	}
	return true
}

// ShareSum returns the sum of the parties' base share fractions.
func (c Contract) ShareSum() decimal.Decimal {
	sum := decimal.Zero
	for _, p := range c.Parties {
		sum = sum.Add(p.SharePercentage)
	}
	return sum
}

// SharesBalanced reports whether the parties' base shares sum to 1 within
// ShareSumTolerance.
func (c Contract) SharesBalanced() bool {
	return c.ShareSum().Sub(decimal.NewFromInt(1)).Abs().LessThanOrEqual(ShareSumTolerance)
}
