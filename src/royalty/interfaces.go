package royalty

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/username/labelfolio/backend/src/models"
)

// The engine's only boundary: three read-only data providers. Implementations
// live in src/store; anything that can list contracts, ledger entries and
// revenue rows for an artist can drive a calculation.

// ContractStore lists the revenue-share contracts registered for an artist.
type ContractStore interface {
	ListContracts(ctx context.Context, artistID string) ([]models.Contract, error)
}

// LedgerStore lists an artist's advance/recoupment/payment entries.
type LedgerStore interface {
	ListEntries(ctx context.Context, artistID string) ([]models.LedgerEntry, error)
}

// CatalogProvider lists pre-aggregated revenue rows for an artist inside a
// half-open period [periodStart, periodEnd).
type CatalogProvider interface {
	ListRevenue(ctx context.Context, artistID string, periodStart, periodEnd time.Time) ([]models.CatalogRevenueRow, error)
}

// CurrencyConverter converts an amount between currencies at a given date,
// returning the converted amount and the rate used. src/fx satisfies this.
type CurrencyConverter interface {
	Convert(ctx context.Context, amount decimal.Decimal, from, to string, on time.Time) (decimal.Decimal, decimal.Decimal, error)
}

// Calculator is the engine's single entry point. It reads from the stores,
// never writes, and two calls with identical inputs return identical results.
type Calculator interface {
	CalculateRoyalties(ctx context.Context, artistID string, periodStart, periodEnd time.Time) (*models.RoyaltyCalculation, error)
}
