package royalty

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/username/labelfolio/backend/src/logger"
	"github.com/username/labelfolio/backend/src/models"
	"github.com/username/labelfolio/backend/src/utils"
)

var ErrInvalidPeriod = errors.New("period end must be after period start")

type calculatorImpl struct {
	contracts    ContractStore
	ledger       LedgerStore
	catalog      CatalogProvider
	converter    CurrencyConverter
	baseCurrency string
}

// NewCalculator wires the engine to its data providers. converter may be nil
// when revenue rows always arrive in baseCurrency.
func NewCalculator(contracts ContractStore, ledger LedgerStore, catalog CatalogProvider, converter CurrencyConverter, baseCurrency string) Calculator {
	return &calculatorImpl{
		contracts:    contracts,
		ledger:       ledger,
		catalog:      catalog,
		converter:    converter,
		baseCurrency: baseCurrency,
	}
}

// releaseComputation carries one release's figures through the pipeline.
// Folding mutates the fold target only; a bundled release keeps its own
// figures for the visibility row.
type releaseComputation struct {
	key string
	agg *ReleaseAgg

	gross       decimal.Decimal
	units       int64
	unitsByType map[models.SaleType]int64

	artistRoyalty decimal.Decimal
	labelRoyalty  decimal.Decimal
	trackRoyalty  map[string]decimal.Decimal // per-ISRC artist royalties

	noContract  bool
	bundledInto string // fold target key, "" when standalone

	scopedBefore   decimal.Decimal // release+track advance balance at period start
	scopedRecouped decimal.Decimal
	recouped       decimal.Decimal // scoped + catalog-allocated
	netPayable     decimal.Decimal
}

func (c *calculatorImpl) CalculateRoyalties(ctx context.Context, artistID string, periodStart, periodEnd time.Time) (*models.RoyaltyCalculation, error) {
	if !periodEnd.After(periodStart) {
		return nil, ErrInvalidPeriod
	}

	startTime := time.Now()
	logger.L.Info("CalculateRoyalties START",
		"artistID", artistID,
		"periodStart", periodStart.Format(utils.DefaultDateFormat),
		"periodEnd", periodEnd.Format(utils.DefaultDateFormat))

	contracts, err := c.contracts.ListContracts(ctx, artistID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch contracts: %w", err)
	}
	entries, err := c.ledger.ListEntries(ctx, artistID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch ledger entries: %w", err)
	}
	rows, err := c.catalog.ListRevenue(ctx, artistID, periodStart, periodEnd)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch revenue rows: %w", err)
	}

	resolver := NewContractResolver(contracts)
	ledgerAgg := NewLedgerAggregator(entries)
	revenue, err := NewRevenueAggregator(c.converter, c.baseCurrency).Aggregate(ctx, rows, periodEnd)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate revenue: %w", err)
	}

	// Per-row share resolution. Contracts are resolved as of the period end.
	comps := make(map[string]*releaseComputation)
	perSourceRoyalty := make(map[string]decimal.Decimal)
	for _, key := range revenue.ReleaseKeys() {
		agg := revenue.PerRelease[key]
		comp := &releaseComputation{
			key:           key,
			agg:           agg,
			gross:         agg.Gross,
			units:         agg.Units,
			unitsByType:   copyUnits(agg.UnitsByType),
			artistRoyalty: decimal.Zero,
			labelRoyalty:  decimal.Zero,
			trackRoyalty:  make(map[string]decimal.Decimal),
		}
		for _, row := range agg.Rows {
			contract := resolver.ResolveItem(row.TrackISRC, row.ReleaseUPC, periodEnd)
			if contract == nil {
				// Unconfigured scope: no royalties owed, flagged below.
				comp.noContract = true
				continue
			}
			artistAmount := row.GrossAmount.Mul(ArtistShareOf(contract, artistID, row.SaleType))
			comp.artistRoyalty = comp.artistRoyalty.Add(artistAmount)
			comp.labelRoyalty = comp.labelRoyalty.Add(row.GrossAmount.Mul(LabelShareOf(contract, row.SaleType)))
			if row.TrackISRC != "" {
				comp.trackRoyalty[row.TrackISRC] = comp.trackRoyalty[row.TrackISRC].Add(artistAmount)
			}
			platform := utils.PlatformKey(row.SourcePlatform)
			if platform == "" {
				platform = "other"
			}
			perSourceRoyalty[platform] = perSourceRoyalty[platform].Add(artistAmount)
		}
		comps[key] = comp
	}

	// Bundle folding: a release marked IncludedInUPC pays out nothing on its
	// own; its figures join the first non-bundled ancestor so the parent's
	// advance recoups the combined royalties exactly once.
	for _, key := range sortedCompKeys(comps) {
		comp := comps[key]
		if comp.agg.IncludedInUPC == "" {
			continue
		}
		targetKey := foldTarget(comps, comp)
		if targetKey == "" {
			continue
		}
		ancestor, ok := comps[targetKey]
		if !ok {
			logger.L.Warn("Bundled release folds into a release with no revenue this period",
				"release", comp.key, "parentUPC", targetKey)
			ancestor = &releaseComputation{
				key: targetKey,
				agg: &ReleaseAgg{
					Key:         targetKey,
					UPC:         targetKey,
					Title:       targetKey,
					Gross:       decimal.Zero,
					UnitsByType: make(map[models.SaleType]int64),
				},
				gross:         decimal.Zero,
				unitsByType:   make(map[models.SaleType]int64),
				artistRoyalty: decimal.Zero,
				labelRoyalty:  decimal.Zero,
				trackRoyalty:  make(map[string]decimal.Decimal),
			}
			comps[targetKey] = ancestor
		}
		comp.bundledInto = targetKey
		ancestor.gross = ancestor.gross.Add(comp.gross)
		ancestor.artistRoyalty = ancestor.artistRoyalty.Add(comp.artistRoyalty)
		ancestor.labelRoyalty = ancestor.labelRoyalty.Add(comp.labelRoyalty)
		ancestor.units += comp.units
		for saleType, count := range comp.unitsByType {
			ancestor.unitsByType[saleType] += count
		}
	}

	allKeys := sortedCompKeys(comps)

	// Recoupment allocation over standalone releases in sorted order: track
	// advances first, then the release advance on the residual, then the
	// catalog advance backstop.
	plan := ledgerAgg.PlanAt(periodStart)
	for _, key := range allKeys {
		comp := comps[key]
		if comp.bundledInto != "" {
			comp.netPayable = decimal.Zero
			continue
		}

		trackISRCs := sortedTrackKeys(comp.trackRoyalty)
		scopedBefore := decimal.Zero
		if comp.agg.UPC != "" {
			scopedBefore = plan.InitialBalance(models.ScopeRelease, comp.agg.UPC)
		}
		for _, isrc := range trackISRCs {
			scopedBefore = scopedBefore.Add(plan.InitialBalance(models.ScopeTrack, isrc))
		}
		comp.scopedBefore = scopedBefore

		recouped := decimal.Zero
		for _, isrc := range trackISRCs {
			recouped = recouped.Add(plan.Consume(models.ScopeTrack, isrc, comp.trackRoyalty[isrc]))
		}
		if comp.agg.UPC != "" {
			recouped = recouped.Add(plan.Consume(models.ScopeRelease, comp.agg.UPC, comp.artistRoyalty.Sub(recouped)))
		}
		comp.scopedRecouped = recouped

		catalogRecouped := plan.ConsumeCatalog(comp.artistRoyalty.Sub(recouped))
		comp.recouped = recouped.Add(catalogRecouped)
		comp.netPayable = comp.artistRoyalty.Sub(comp.recouped)
	}

	// Assemble the result. Map iteration is always over sorted keys so two
	// identical runs produce identical output.
	calc := &models.RoyaltyCalculation{
		ArtistID:      artistID,
		PeriodStart:   periodStart,
		PeriodEnd:     periodEnd,
		Currency:      c.baseCurrency,
		GrossAmount:   decimal.Zero,
		ArtistRoyalty: decimal.Zero,
		LabelRoyalty:  decimal.Zero,

		AdvanceBalanceBefore: plan.TotalInitial(),
		RecoupedThisPeriod:   decimal.Zero,
		AdvanceBalanceAfter:  plan.TotalRemaining(),

		NetPayable: decimal.Zero,
	}

	for _, key := range allKeys {
		comp := comps[key]
		title := comp.agg.Title
		if title == "" {
			title = comp.key
		}
		calc.Albums = append(calc.Albums, models.AlbumBreakdown{
			ReleaseUPC:           comp.agg.UPC,
			ReleaseTitle:         title,
			IncludedInUPC:        comp.agg.IncludedInUPC,
			GrossAmount:          comp.gross,
			ArtistRoyalty:        comp.artistRoyalty,
			LabelRoyalty:         comp.labelRoyalty,
			AdvanceBalanceBefore: comp.scopedBefore,
			RecoupedThisPeriod:   comp.recouped,
			AdvanceBalanceAfter:  comp.scopedBefore.Sub(comp.scopedRecouped),
			NetPayable:           comp.netPayable,
			TrackCount:           comp.agg.TrackCount(),
			UnitsByType:          comp.unitsByType,
			Sources:              comp.agg.SourceList(),
			NoContract:           comp.noContract,
		})
		if comp.noContract {
			calc.NoContractReleases = append(calc.NoContractReleases, comp.key)
		}
		if comp.bundledInto != "" {
			continue
		}
		calc.GrossAmount = calc.GrossAmount.Add(comp.gross)
		calc.ArtistRoyalty = calc.ArtistRoyalty.Add(comp.artistRoyalty)
		calc.LabelRoyalty = calc.LabelRoyalty.Add(comp.labelRoyalty)
		calc.RecoupedThisPeriod = calc.RecoupedThisPeriod.Add(comp.recouped)
		calc.NetPayable = calc.NetPayable.Add(comp.netPayable)
		calc.UnitCount += comp.units
	}

	for _, platform := range revenue.SourceKeys() {
		src := revenue.PerSource[platform]
		royalty, ok := perSourceRoyalty[platform]
		if !ok {
			royalty = decimal.Zero
		}
		calc.Sources = append(calc.Sources, models.SourceBreakdown{
			SourcePlatform: platform,
			PlatformLabel:  utils.PlatformLabel(platform),
			GrossAmount:    src.Gross,
			ArtistRoyalty:  royalty,
			UnitCount:      src.Units,
		})
	}

	calc.RecoupmentAllocations = plan.Consumed()
	calc.PaidInPeriod = ledgerAgg.PaymentsBetween(periodStart, periodEnd)
	calc.RemainingToPay = calc.NetPayable.Sub(calc.PaidInPeriod)

	logger.L.Info("CalculateRoyalties DONE",
		"artistID", artistID,
		"gross", calc.GrossAmount.String(),
		"artistRoyalty", calc.ArtistRoyalty.String(),
		"netPayable", calc.NetPayable.String(),
		"releases", len(calc.Albums),
		"durationMs", time.Since(startTime).Milliseconds())
	return calc, nil
}

// foldTarget walks IncludedInUPC links up to the first release that is not
// itself bundled. Cycles and self references leave the release standalone.
func foldTarget(comps map[string]*releaseComputation, comp *releaseComputation) string {
	seen := map[string]struct{}{comp.key: {}}
	next := comp.agg.IncludedInUPC
	for {
		if _, ok := seen[next]; ok {
			logger.L.Warn("Bundle inclusion cycle detected, treating release as standalone",
				"release", comp.key, "parentUPC", comp.agg.IncludedInUPC)
			return ""
		}
		seen[next] = struct{}{}
		parent, ok := comps[next]
		if !ok || parent.agg.IncludedInUPC == "" {
			return next
		}
		next = parent.agg.IncludedInUPC
	}
}

func copyUnits(src map[models.SaleType]int64) map[models.SaleType]int64 {
	out := make(map[models.SaleType]int64, len(src))
	for saleType, count := range src {
		out[saleType] = count
	}
	return out
}

func sortedCompKeys(comps map[string]*releaseComputation) []string {
	keys := make([]string, 0, len(comps))
	for k := range comps {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func sortedTrackKeys(m map[string]decimal.Decimal) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
