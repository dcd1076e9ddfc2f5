package store

import (
	"errors"
	"fmt"

	"github.com/username/labelfolio/backend/src/models"
)

var (
	ErrNotFound         = errors.New("record not found")
	ErrInvalidScope     = errors.New("invalid scope")
	ErrInvalidContract  = errors.New("invalid contract")
	ErrInvalidParty     = errors.New("invalid contract party")
	ErrUnbalancedShares = errors.New("contract shares do not sum to 100%")
	ErrInvalidEntry     = errors.New("invalid ledger entry")
	ErrInvalidEntryType = errors.New("invalid ledger entry type")
	ErrInvalidAmount    = errors.New("amount must be positive")
	ErrInvalidRevenue   = errors.New("invalid revenue row")
	ErrInvalidStatement = errors.New("invalid statement")
)

// validateScope checks the scope value and its pairing with the scope id:
// release and track scopes require a UPC/ISRC, catalog scope must not carry
// one.
func validateScope(scope models.Scope, scopeID string) error {
	switch scope {
	case models.ScopeCatalog:
		if scopeID != "" {
			return fmt.Errorf("%w: catalog scope must not carry a scope id", ErrInvalidScope)
		}
	case models.ScopeRelease, models.ScopeTrack:
		if scopeID == "" {
			return fmt.Errorf("%w: %s scope requires a scope id", ErrInvalidScope, scope)
		}
	default:
		return fmt.Errorf("%w: %q", ErrInvalidScope, scope)
	}
	return nil
}
