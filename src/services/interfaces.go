package services

import (
	"context"
	"time"

	"github.com/username/labelfolio/backend/src/models"
)

// StatementStore is the slice of statement persistence the services need.
type StatementStore interface {
	CreateStatement(ctx context.Context, st *models.Statement) error
	GetStatement(ctx context.Context, id string) (*models.Statement, error)
	ListStatements(ctx context.Context, artistID string) ([]models.Statement, error)
	UpdateStatement(ctx context.Context, st *models.Statement) error
}

// LedgerWriter writes the recoupment and payment entries produced when a
// statement is marked paid.
type LedgerWriter interface {
	CreateEntries(ctx context.Context, entries []*models.LedgerEntry) error
}

// StatementService drives the statement lifecycle: generate a draft from an
// engine run, finalize it for sending, and mark it paid, which writes the
// matching ledger entries.
type StatementService interface {
	GenerateStatement(ctx context.Context, artistID string, periodStart, periodEnd time.Time) (*models.Statement, *models.RoyaltyCalculation, error)
	GetStatement(ctx context.Context, id string) (*models.Statement, error)
	GetStatementBreakdown(ctx context.Context, id string) (*models.RoyaltyCalculation, error)
	ListStatements(ctx context.Context, artistID string) ([]models.Statement, error)
	FinalizeStatement(ctx context.Context, id string, notifyEmail string) (*models.Statement, error)
	MarkStatementPaid(ctx context.Context, id string, paymentDate time.Time, notifyEmail string) (*models.Statement, error)
}
