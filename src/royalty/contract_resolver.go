package royalty

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/username/labelfolio/backend/src/logger"
	"github.com/username/labelfolio/backend/src/models"
)

var one = decimal.NewFromInt(1)

// ContractResolver indexes an artist's contracts by scope and answers which
// contract governs a given catalog item on a given date.
type ContractResolver struct {
	catalog  []models.Contract
	releases map[string][]models.Contract // keyed by UPC
	tracks   map[string][]models.Contract // keyed by ISRC
}

// NewContractResolver indexes contracts for resolution. Contracts whose
// party shares cannot be rescaled to sum to 1 (sum <= 0, including empty
// party lists) are dropped with a warning so the precedence fallback can
// take over; contracts whose shares merely drift from 1.0 are kept and
// normalized at share time.
func NewContractResolver(contracts []models.Contract) *ContractResolver {
	r := &ContractResolver{
		releases: make(map[string][]models.Contract),
		tracks:   make(map[string][]models.Contract),
	}
	for _, c := range contracts {
		sum := c.ShareSum()
		if !sum.IsPositive() {
			logger.L.Warn("Skipping contract with non-normalizable party shares",
				"contractID", c.ID, "scope", string(c.Scope), "shareSum", sum.String())
			continue
		}
		if !c.SharesBalanced() {
			logger.L.Warn("Contract party shares do not sum to 1, shares will be normalized",
				"contractID", c.ID, "scope", string(c.Scope), "shareSum", sum.String())
		}
		switch c.Scope {
		case models.ScopeCatalog:
			r.catalog = append(r.catalog, c)
		case models.ScopeRelease:
			if c.ScopeID != "" {
				r.releases[c.ScopeID] = append(r.releases[c.ScopeID], c)
			}
		case models.ScopeTrack:
			if c.ScopeID != "" {
				r.tracks[c.ScopeID] = append(r.tracks[c.ScopeID], c)
			}
		default:
			logger.L.Warn("Skipping contract with unknown scope",
				"contractID", c.ID, "scope", string(c.Scope))
		}
	}
	return r
}

// Resolve returns the effective contract for one exact scope key, or nil
// when no contract of that scope is active on asOf. Overlapping contracts
// are tolerated: the most recently started one wins.
func (r *ContractResolver) Resolve(scope models.Scope, scopeID string, asOf time.Time) *models.Contract {
	switch scope {
	case models.ScopeCatalog:
		return pickLatest(r.catalog, asOf)
	case models.ScopeRelease:
		return pickLatest(r.releases[scopeID], asOf)
	case models.ScopeTrack:
		return pickLatest(r.tracks[scopeID], asOf)
	}
	return nil
}

// ResolveItem resolves the contract governing one catalog item, applying the
// precedence track > release > catalog. trackISRC is empty for release-level
// rows; releaseUPC is empty for releases known only by title, which can only
// match catalog scope.
func (r *ContractResolver) ResolveItem(trackISRC, releaseUPC string, asOf time.Time) *models.Contract {
	if trackISRC != "" {
		if c := r.Resolve(models.ScopeTrack, trackISRC, asOf); c != nil {
			return c
		}
	}
	if releaseUPC != "" {
		if c := r.Resolve(models.ScopeRelease, releaseUPC, asOf); c != nil {
			return c
		}
	}
	return r.Resolve(models.ScopeCatalog, "", asOf)
}

// pickLatest returns the candidate active on asOf with the latest StartDate.
// Equal start dates fall back to the higher contract ID so resolution does
// not depend on store ordering.
func pickLatest(candidates []models.Contract, asOf time.Time) *models.Contract {
	var best *models.Contract
	for i := range candidates {
		c := &candidates[i]
		if !c.ActiveOn(asOf) {
			continue
		}
		if best == nil || c.StartDate.After(best.StartDate) ||
			(c.StartDate.Equal(best.StartDate) && c.ID > best.ID) {
			best = c
		}
	}
	return best
}

// ArtistShareOf returns the fraction of a sale owed to the given artist
// under the contract: the summed shares of every artist party whose identity
// matches. A contract with no matching artist party yields zero, not an
// error. Per-sale-type overrides apply before normalization.
func ArtistShareOf(c *models.Contract, artistID string, saleType models.SaleType) decimal.Decimal {
	if c == nil {
		return decimal.Zero
	}
	share := decimal.Zero
	for _, p := range c.Parties {
		if p.PartyType == models.PartyTypeArtist && p.ArtistID == artistID {
			share = share.Add(p.ShareFor(saleType))
		}
	}
	return share.Mul(normFactor(c))
}

// LabelShareOf returns the combined label-party share for a sale.
func LabelShareOf(c *models.Contract, saleType models.SaleType) decimal.Decimal {
	if c == nil {
		return decimal.Zero
	}
	share := decimal.Zero
	for _, p := range c.Parties {
		if p.PartyType == models.PartyTypeLabel {
			share = share.Add(p.ShareFor(saleType))
		}
	}
	return share.Mul(normFactor(c))
}

// normFactor is the multiplier that rescales a contract's shares to sum
// to 1. Balanced contracts are taken as-is; the resolver never indexes
// contracts whose sum is not positive.
func normFactor(c *models.Contract) decimal.Decimal {
	if c.SharesBalanced() {
		return one
	}
	sum := c.ShareSum()
	if !sum.IsPositive() {
		return decimal.Zero
	}
	return one.Div(sum)
}
