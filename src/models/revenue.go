package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type SaleType string

const (
	SaleTypeStream  SaleType = "stream"
	SaleTypeDigital SaleType = "digital" // downloads
	SaleTypeCD      SaleType = "cd"
	SaleTypeVinyl   SaleType = "vinyl"
	SaleTypeK7      SaleType = "k7" // cassette
)

// IsPhysical reports whether the sale type is a physical format.
func (s SaleType) IsPhysical() bool {
	return s == SaleTypeCD || s == SaleTypeVinyl || s == SaleTypeK7
}

// CatalogRevenueRow is one pre-aggregated revenue observation delivered by
// the catalog provider: one release (or track) on one platform for one sale
// type. Rows arrive in whatever currency the platform reported.
type CatalogRevenueRow struct {
	ReleaseUPC   string `json:"release_upc,omitempty"`
	ReleaseTitle string `json:"release_title,omitempty"` // grouping key when the UPC is missing

	// IncludedInUPC marks a release whose revenue is folded into another
	// release (e.g. a single repackaged inside an album). Set by the
	// ingestion layer, taken as given here.
	IncludedInUPC string `json:"included_in_upc,omitempty"`

	TrackISRC  string `json:"track_isrc,omitempty"`
	TrackTitle string `json:"track_title,omitempty"`

	SourcePlatform string   `json:"source_platform"`
	SaleType       SaleType `json:"sale_type"`

	GrossAmount decimal.Decimal `json:"gross_amount"`
	UnitCount   int64           `json:"unit_count"` // streams or units sold
	Currency    string          `json:"currency"`

	SaleDate time.Time `json:"sale_date"` // date the revenue is recognized
}

// ReleaseKey returns the grouping key for the row's release: the UPC when
// present, else the release title. Physical or bundle-only releases
// sometimes lack a UPC.
func (r CatalogRevenueRow) ReleaseKey() string {
	if r.ReleaseUPC != "" {
		return r.ReleaseUPC
	}
	return r.ReleaseTitle
}
