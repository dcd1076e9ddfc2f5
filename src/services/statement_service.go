// backend/src/services/statement_service.go
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/username/labelfolio/backend/src/config"
	"github.com/username/labelfolio/backend/src/logger"
	"github.com/username/labelfolio/backend/src/models"
	"github.com/username/labelfolio/backend/src/royalty"
	"github.com/username/labelfolio/backend/src/utils"
)

const (
	// Cached engine runs, keyed by artist and period
	ckCalculation       = "res_royalty_calc_%s_%s_%s"
	ckCalculationPrefix = "res_royalty_calc_%s_" // per-artist invalidation
)

var (
	ErrStatementNotDraft     = errors.New("statement is not a draft")
	ErrStatementNotFinalized = errors.New("statement is not finalized")
	ErrStatementStale        = errors.New("statement no longer matches the ledger")
)

type statementServiceImpl struct {
	calculator   royalty.Calculator
	statements   StatementStore
	ledger       LedgerWriter
	emailService EmailService
	resultCache  *cache.Cache
}

func NewStatementService(
	calculator royalty.Calculator,
	statements StatementStore,
	ledger LedgerWriter,
	emailService EmailService,
	resultCache *cache.Cache,
) StatementService {
	return &statementServiceImpl{
		calculator:   calculator,
		statements:   statements,
		ledger:       ledger,
		emailService: emailService,
		resultCache:  resultCache,
	}
}

// NewCalculationCache builds the engine-result cache from the configured
// TTLs, for passing to NewStatementService. Falls back to modest defaults
// when the configuration is not loaded.
func NewCalculationCache() *cache.Cache {
	if config.Cfg == nil {
		return cache.New(5*time.Minute, 10*time.Minute)
	}
	return cache.New(config.Cfg.CalculationCacheTTL, config.Cfg.CacheCleanupInterval)
}

// GenerateStatement runs the engine for the period and persists the result
// as a draft statement. Repeated runs for the same period create separate
// drafts; nothing is overwritten.
func (s *statementServiceImpl) GenerateStatement(ctx context.Context, artistID string, periodStart, periodEnd time.Time) (*models.Statement, *models.RoyaltyCalculation, error) {
	startTime := time.Now()
	logger.L.Info("GenerateStatement START",
		"artistID", artistID, "period", utils.PeriodLabel(periodStart, periodEnd))

	calc, err := s.calculate(ctx, artistID, periodStart, periodEnd)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to calculate royalties: %w", err)
	}

	st := statementFromCalculation(calc)
	if err := s.statements.CreateStatement(ctx, st); err != nil {
		return nil, nil, fmt.Errorf("failed to persist statement: %w", err)
	}

	logger.L.Info("GenerateStatement DONE",
		"artistID", artistID,
		"statementID", st.ID,
		"netPayable", st.NetPayable.String(),
		"durationMs", time.Since(startTime).Milliseconds())
	return st, calc, nil
}

func (s *statementServiceImpl) GetStatement(ctx context.Context, id string) (*models.Statement, error) {
	return s.statements.GetStatement(ctx, id)
}

// GetStatementBreakdown recomputes the full per-release breakdown behind a
// statement. Advance balances only count entries dated before the period
// start, so the figures match the snapshot even after the statement was paid
// and its recoupment entries landed inside the period.
func (s *statementServiceImpl) GetStatementBreakdown(ctx context.Context, id string) (*models.RoyaltyCalculation, error) {
	st, err := s.statements.GetStatement(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.calculate(ctx, st.ArtistID, st.PeriodStart, st.PeriodEnd)
}

func (s *statementServiceImpl) ListStatements(ctx context.Context, artistID string) ([]models.Statement, error) {
	return s.statements.ListStatements(ctx, artistID)
}

// FinalizeStatement moves a draft to finalized and notifies the artist when
// an address is given. A failed notification leaves the statement finalized.
func (s *statementServiceImpl) FinalizeStatement(ctx context.Context, id string, notifyEmail string) (*models.Statement, error) {
	st, err := s.statements.GetStatement(ctx, id)
	if err != nil {
		return nil, err
	}
	if !st.CanFinalize() {
		return nil, fmt.Errorf("%w: status is %s", ErrStatementNotDraft, st.Status)
	}

	now := time.Now()
	st.Status = models.StatementStatusFinalized
	st.FinalizedAt = &now
	if err := s.statements.UpdateStatement(ctx, st); err != nil {
		return nil, fmt.Errorf("failed to finalize statement: %w", err)
	}
	logger.L.Info("Statement finalized", "statementID", st.ID, "artistID", st.ArtistID, "period", st.PeriodLabel)

	if notifyEmail != "" {
		if err := s.emailService.SendStatementEmail(notifyEmail, st); err != nil {
			logger.L.Warn("Failed to send statement email, statement stays finalized",
				"statementID", st.ID, "error", err)
		}
	}
	return st, nil
}

// MarkStatementPaid closes a finalized statement: it writes one recoupment
// entry per consumed advance scope plus one payment entry for the net
// amount, all dated paymentDate and linked back to the statement. The period
// is recomputed first; if the ledger or catalog changed since finalization
// the figures no longer match and the call fails with ErrStatementStale.
func (s *statementServiceImpl) MarkStatementPaid(ctx context.Context, id string, paymentDate time.Time, notifyEmail string) (*models.Statement, error) {
	st, err := s.statements.GetStatement(ctx, id)
	if err != nil {
		return nil, err
	}
	if !st.CanMarkPaid() {
		return nil, fmt.Errorf("%w: status is %s", ErrStatementNotFinalized, st.Status)
	}
	if paymentDate.IsZero() {
		paymentDate = time.Now()
	}

	calc, err := s.calculator.CalculateRoyalties(ctx, st.ArtistID, st.PeriodStart, st.PeriodEnd)
	if err != nil {
		return nil, fmt.Errorf("failed to recompute statement period: %w", err)
	}
	if !calc.NetPayable.Equal(st.NetPayable) || !calc.RecoupedThisPeriod.Equal(st.RecoupedAmount) {
		return nil, fmt.Errorf("%w: net payable %s vs %s, recouped %s vs %s",
			ErrStatementStale,
			calc.NetPayable, st.NetPayable, calc.RecoupedThisPeriod, st.RecoupedAmount)
	}

	var entries []*models.LedgerEntry
	for _, alloc := range calc.RecoupmentAllocations {
		entries = append(entries, &models.LedgerEntry{
			ArtistID:      st.ArtistID,
			Type:          models.EntryTypeRecoupment,
			Amount:        alloc.Amount,
			Currency:      st.Currency,
			Scope:         alloc.Scope,
			ScopeID:       alloc.ScopeID,
			EffectiveDate: paymentDate,
			Description:   fmt.Sprintf("Recoupment %s", st.PeriodLabel),
			StatementID:   st.ID,
		})
	}
	if st.NetPayable.IsPositive() {
		entries = append(entries, &models.LedgerEntry{
			ArtistID:      st.ArtistID,
			Type:          models.EntryTypePayment,
			Amount:        st.NetPayable,
			Currency:      st.Currency,
			Scope:         models.ScopeCatalog,
			EffectiveDate: paymentDate,
			Description:   fmt.Sprintf("Royalty payment %s", st.PeriodLabel),
			StatementID:   st.ID,
		})
	}
	if err := s.ledger.CreateEntries(ctx, entries); err != nil {
		return nil, fmt.Errorf("failed to write ledger entries: %w", err)
	}

	st.Status = models.StatementStatusPaid
	st.PaidAt = &paymentDate
	if err := s.statements.UpdateStatement(ctx, st); err != nil {
		// The ledger entries are already committed at this point; surface
		// loudly so the operator reconciles by hand.
		logger.L.Error("Ledger written but statement status update failed",
			"statementID", st.ID, "error", err)
		return nil, fmt.Errorf("failed to mark statement paid: %w", err)
	}
	s.invalidateArtistCache(st.ArtistID)
	logger.L.Info("Statement marked paid",
		"statementID", st.ID,
		"artistID", st.ArtistID,
		"netPayable", st.NetPayable.String(),
		"recoupmentEntries", len(calc.RecoupmentAllocations))

	if notifyEmail != "" {
		if err := s.emailService.SendPaymentEmail(notifyEmail, st); err != nil {
			logger.L.Warn("Failed to send payment email, statement stays paid",
				"statementID", st.ID, "error", err)
		}
	}
	return st, nil
}

// calculate runs the engine with a read-through cache in front of it.
func (s *statementServiceImpl) calculate(ctx context.Context, artistID string, periodStart, periodEnd time.Time) (*models.RoyaltyCalculation, error) {
	key := fmt.Sprintf(ckCalculation, artistID,
		periodStart.Format(utils.DefaultDateFormat), periodEnd.Format(utils.DefaultDateFormat))
	if s.resultCache != nil {
		if cached, found := s.resultCache.Get(key); found {
			logger.L.Debug("Calculation served from cache", "cacheKey", key)
			return cached.(*models.RoyaltyCalculation), nil
		}
	}
	calc, err := s.calculator.CalculateRoyalties(ctx, artistID, periodStart, periodEnd)
	if err != nil {
		return nil, err
	}
	if s.resultCache != nil {
		s.resultCache.Set(key, calc, cache.DefaultExpiration)
	}
	return calc, nil
}

// invalidateArtistCache drops every cached run for the artist. Marking a
// statement paid writes ledger entries, which shifts later periods.
func (s *statementServiceImpl) invalidateArtistCache(artistID string) {
	if s.resultCache == nil {
		return
	}
	prefix := fmt.Sprintf(ckCalculationPrefix, artistID)
	for key := range s.resultCache.Items() {
		if strings.HasPrefix(key, prefix) {
			s.resultCache.Delete(key)
		}
	}
}

func statementFromCalculation(calc *models.RoyaltyCalculation) *models.Statement {
	return &models.Statement{
		ArtistID:             calc.ArtistID,
		PeriodStart:          calc.PeriodStart,
		PeriodEnd:            calc.PeriodEnd,
		PeriodLabel:          utils.PeriodLabel(calc.PeriodStart, calc.PeriodEnd),
		Currency:             calc.Currency,
		Status:               models.StatementStatusDraft,
		GrossAmount:          calc.GrossAmount,
		ArtistRoyalty:        calc.ArtistRoyalty,
		LabelRoyalty:         calc.LabelRoyalty,
		AdvanceBalanceBefore: calc.AdvanceBalanceBefore,
		RecoupedAmount:       calc.RecoupedThisPeriod,
		AdvanceBalanceAfter:  calc.AdvanceBalanceAfter,
		NetPayable:           calc.NetPayable,
		ReleaseCount:         len(calc.Albums),
		UnitCount:            calc.UnitCount,
	}
}
