package royalty

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/username/labelfolio/backend/src/models"
)

// scopeKey identifies one advance bucket: a scope plus its UPC/ISRC.
type scopeKey struct {
	Scope   models.Scope
	ScopeID string
}

// AdvanceState summarizes an artist's advance position for one scope around
// a calculation period.
type AdvanceState struct {
	BalanceBeforePeriod  decimal.Decimal // outstanding at period start, never negative
	RecoupedBeforePeriod decimal.Decimal // lifetime recoupments dated before period start
	RecoupableThisPeriod decimal.Decimal // min(balance before, royalties this period)
	RemainingAfterPeriod decimal.Decimal // max(0, balance before - recoupable)
}

// LedgerAggregator answers advance-balance questions over one artist's
// ledger. It is built once per calculation and only reads; recoupment
// entries are written by the statement workflow, never here.
type LedgerAggregator struct {
	entries []models.LedgerEntry
}

func NewLedgerAggregator(entries []models.LedgerEntry) *LedgerAggregator {
	return &LedgerAggregator{entries: entries}
}

// BalanceAt returns the outstanding advance balance for one scope as of the
// cutoff: advances minus recoupments with EffectiveDate strictly before it,
// clamped at zero. Payment entries never touch the balance.
func (l *LedgerAggregator) BalanceAt(scope models.Scope, scopeID string, cutoff time.Time) decimal.Decimal {
	advanced, recouped := l.sumsBefore(scope, scopeID, cutoff)
	balance := advanced.Sub(recouped)
	if balance.IsNegative() {
		return decimal.Zero
	}
	return balance
}

func (l *LedgerAggregator) sumsBefore(scope models.Scope, scopeID string, cutoff time.Time) (advanced, recouped decimal.Decimal) {
	advanced, recouped = decimal.Zero, decimal.Zero
	for _, e := range l.entries {
		if e.Scope != scope || e.ScopeID != scopeID || !e.EffectiveDate.Before(cutoff) {
			continue
		}
		switch e.Type {
		case models.EntryTypeAdvance:
			advanced = advanced.Add(e.Amount)
		case models.EntryTypeRecoupment:
			recouped = recouped.Add(e.Amount)
		}
	}
	return advanced, recouped
}

// ComputeAdvanceState evaluates one scope for a period: the balance carried
// into the period, how much of it the period's royalties can recoup, and
// what remains after. Advances granted inside the period do not recoup until
// the next period and are not part of the result.
func (l *LedgerAggregator) ComputeAdvanceState(scope models.Scope, scopeID string, periodStart time.Time, scopeRoyalties decimal.Decimal) AdvanceState {
	_, recoupedBefore := l.sumsBefore(scope, scopeID, periodStart)
	balance := l.BalanceAt(scope, scopeID, periodStart)
	if scopeRoyalties.IsNegative() {
		scopeRoyalties = decimal.Zero
	}
	recoupable := decimal.Min(balance, scopeRoyalties)
	remaining := balance.Sub(recoupable)
	if remaining.IsNegative() {
		remaining = decimal.Zero
	}
	return AdvanceState{
		BalanceBeforePeriod:  balance,
		RecoupedBeforePeriod: recoupedBefore,
		RecoupableThisPeriod: recoupable,
		RemainingAfterPeriod: remaining,
	}
}

// PaymentsBetween sums payment entries with start <= EffectiveDate < end,
// across every scope.
func (l *LedgerAggregator) PaymentsBetween(start, end time.Time) decimal.Decimal {
	total := decimal.Zero
	for _, e := range l.entries {
		if e.Type != models.EntryTypePayment {
			continue
		}
		if e.EffectiveDate.Before(start) || !e.EffectiveDate.Before(end) {
			continue
		}
		total = total.Add(e.Amount)
	}
	return total
}

// RecoupmentPlan snapshots every scope's advance balance at a cutoff and
// hands out recoupment allocations, consuming balances as it goes. Callers
// walk releases in sorted order, which keeps the allocation deterministic.
type RecoupmentPlan struct {
	initial  map[scopeKey]decimal.Decimal
	balances map[scopeKey]decimal.Decimal
}

// PlanAt builds a recoupment plan from the scope balances as of the cutoff.
// Scopes already fully recouped carry nothing into the plan.
func (l *LedgerAggregator) PlanAt(cutoff time.Time) *RecoupmentPlan {
	keys := make(map[scopeKey]struct{})
	for _, e := range l.entries {
		if e.Type == models.EntryTypeAdvance || e.Type == models.EntryTypeRecoupment {
			keys[scopeKey{e.Scope, e.ScopeID}] = struct{}{}
		}
	}
	p := &RecoupmentPlan{
		initial:  make(map[scopeKey]decimal.Decimal, len(keys)),
		balances: make(map[scopeKey]decimal.Decimal, len(keys)),
	}
	for k := range keys {
		balance := l.BalanceAt(k.Scope, k.ScopeID, cutoff)
		if balance.IsZero() {
			continue
		}
		p.initial[k] = balance
		p.balances[k] = balance
	}
	return p
}

// InitialBalance returns the balance one scope carried into the period.
func (p *RecoupmentPlan) InitialBalance(scope models.Scope, scopeID string) decimal.Decimal {
	if balance, ok := p.initial[scopeKey{scope, scopeID}]; ok {
		return balance
	}
	return decimal.Zero
}

// RemainingBalance returns what is still outstanding for one scope after the
// allocations made so far.
func (p *RecoupmentPlan) RemainingBalance(scope models.Scope, scopeID string) decimal.Decimal {
	if balance, ok := p.balances[scopeKey{scope, scopeID}]; ok {
		return balance
	}
	return decimal.Zero
}

// Consume recoups up to royalties from the scope's remaining balance and
// returns the amount actually recouped.
func (p *RecoupmentPlan) Consume(scope models.Scope, scopeID string, royalties decimal.Decimal) decimal.Decimal {
	if !royalties.IsPositive() {
		return decimal.Zero
	}
	k := scopeKey{scope, scopeID}
	balance, ok := p.balances[k]
	if !ok || balance.IsZero() {
		return decimal.Zero
	}
	recouped := decimal.Min(balance, royalties)
	p.balances[k] = balance.Sub(recouped)
	return recouped
}

// ConsumeCatalog recoups from the catalog-scoped balance, which backstops
// every scope not fully consumed by its own advance.
func (p *RecoupmentPlan) ConsumeCatalog(royalties decimal.Decimal) decimal.Decimal {
	return p.Consume(models.ScopeCatalog, "", royalties)
}

// Consumed reports how much of each scope's balance the allocations made so
// far have taken, sorted by scope then scope id. The statement mark-as-paid
// workflow writes one recoupment entry per element, which keeps per-scope
// balances correct in later periods.
func (p *RecoupmentPlan) Consumed() []models.RecoupmentAllocation {
	var allocations []models.RecoupmentAllocation
	for k, initial := range p.initial {
		consumed := initial.Sub(p.balances[k])
		if consumed.IsPositive() {
			allocations = append(allocations, models.RecoupmentAllocation{
				Scope:   k.Scope,
				ScopeID: k.ScopeID,
				Amount:  consumed,
			})
		}
	}
	sort.Slice(allocations, func(i, j int) bool {
		if allocations[i].Scope != allocations[j].Scope {
			return allocations[i].Scope < allocations[j].Scope
		}
		return allocations[i].ScopeID < allocations[j].ScopeID
	})
	return allocations
}

// TotalInitial sums the balances carried into the period across all scopes.
func (p *RecoupmentPlan) TotalInitial() decimal.Decimal {
	total := decimal.Zero
	for _, balance := range p.initial {
		total = total.Add(balance)
	}
	return total
}

// TotalRemaining sums what is still outstanding across all scopes.
func (p *RecoupmentPlan) TotalRemaining() decimal.Decimal {
	total := decimal.Zero
	for _, balance := range p.balances {
		total = total.Add(balance)
	}
	return total
}
