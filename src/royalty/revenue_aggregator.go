package royalty

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/username/labelfolio/backend/src/logger"
	"github.com/username/labelfolio/backend/src/models"
	"github.com/username/labelfolio/backend/src/utils"
)

// unknownReleaseKey groups rows that carry neither a UPC nor a title.
const unknownReleaseKey = "UNKNOWN"

// ReleaseAgg collects one release's revenue for a period. Key is the UPC
// when present, otherwise the release title.
type ReleaseAgg struct {
	Key           string
	UPC           string
	Title         string
	IncludedInUPC string

	Gross       decimal.Decimal
	Units       int64
	UnitsByType map[models.SaleType]int64

	// Rows holds the contributing rows, amounts already converted to the
	// base currency, for per-row share resolution downstream.
	Rows []models.CatalogRevenueRow

	tracks  map[string]struct{}
	sources map[string]struct{}
}

// TrackCount is the number of distinct ISRCs that reported revenue.
func (a *ReleaseAgg) TrackCount() int { return len(a.tracks) }

// SourceList returns the contributing platform keys, sorted.
func (a *ReleaseAgg) SourceList() []string {
	out := make([]string, 0, len(a.sources))
	for s := range a.sources {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

// SourceAgg collects one platform's revenue for a period.
type SourceAgg struct {
	Platform string
	Gross    decimal.Decimal
	Units    int64
}

// RevenueAggregate is the grouped view of a period's revenue rows. Gross and
// Units cover every row once, bundled releases included; the bundle fold
// downstream keeps release-level sums consistent with these.
type RevenueAggregate struct {
	PerRelease map[string]*ReleaseAgg
	PerSource  map[string]*SourceAgg
	Gross      decimal.Decimal
	Units      int64
	Currency   string
}

// ReleaseKeys returns the release grouping keys, sorted.
func (ra *RevenueAggregate) ReleaseKeys() []string {
	keys := make([]string, 0, len(ra.PerRelease))
	for k := range ra.PerRelease {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// SourceKeys returns the platform keys, sorted.
func (ra *RevenueAggregate) SourceKeys() []string {
	keys := make([]string, 0, len(ra.PerSource))
	for k := range ra.PerSource {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// RevenueAggregator groups raw catalog revenue rows by release and by source
// platform, converting every amount to the base currency first.
type RevenueAggregator struct {
	converter    CurrencyConverter // nil means rows arrive already in the base currency
	baseCurrency string
}

func NewRevenueAggregator(converter CurrencyConverter, baseCurrency string) *RevenueAggregator {
	return &RevenueAggregator{converter: converter, baseCurrency: baseCurrency}
}

// Aggregate groups rows for one period. rateDate is the FX reference date,
// normally the period end. The catalog provider is trusted to have filtered
// rows to the period already.
func (g *RevenueAggregator) Aggregate(ctx context.Context, rows []models.CatalogRevenueRow, rateDate time.Time) (*RevenueAggregate, error) {
	agg := &RevenueAggregate{
		PerRelease: make(map[string]*ReleaseAgg),
		PerSource:  make(map[string]*SourceAgg),
		Gross:      decimal.Zero,
		Currency:   g.baseCurrency,
	}

	for _, row := range rows {
		converted, err := g.toBase(ctx, row, rateDate)
		if err != nil {
			return nil, err
		}

		key := converted.ReleaseKey()
		if key == "" {
			key = unknownReleaseKey
		}

		release, ok := agg.PerRelease[key]
		if !ok {
			release = &ReleaseAgg{
				Key:         key,
				UPC:         converted.ReleaseUPC,
				Title:       converted.ReleaseTitle,
				Gross:       decimal.Zero,
				UnitsByType: make(map[models.SaleType]int64),
				tracks:      make(map[string]struct{}),
				sources:     make(map[string]struct{}),
			}
			agg.PerRelease[key] = release
		}
		if release.Title == "" && converted.ReleaseTitle != "" {
			release.Title = converted.ReleaseTitle
		}
		if release.IncludedInUPC == "" && converted.IncludedInUPC != "" {
			release.IncludedInUPC = converted.IncludedInUPC
		}

		release.Gross = release.Gross.Add(converted.GrossAmount)
		release.Units += converted.UnitCount
		release.UnitsByType[converted.SaleType] += converted.UnitCount
		if converted.TrackISRC != "" {
			release.tracks[converted.TrackISRC] = struct{}{}
		}

		platform := utils.PlatformKey(converted.SourcePlatform)
		if platform == "" {
			platform = "other"
		}
		release.sources[platform] = struct{}{}
		release.Rows = append(release.Rows, converted)

		source, ok := agg.PerSource[platform]
		if !ok {
			source = &SourceAgg{Platform: platform, Gross: decimal.Zero}
			agg.PerSource[platform] = source
		}
		source.Gross = source.Gross.Add(converted.GrossAmount)
		source.Units += converted.UnitCount

		agg.Gross = agg.Gross.Add(converted.GrossAmount)
		agg.Units += converted.UnitCount
	}

	return agg, nil
}

// toBase returns the row with its gross amount expressed in the base
// currency.
func (g *RevenueAggregator) toBase(ctx context.Context, row models.CatalogRevenueRow, rateDate time.Time) (models.CatalogRevenueRow, error) {
	if row.Currency == "" || row.Currency == g.baseCurrency {
		row.Currency = g.baseCurrency
		return row, nil
	}
	if g.converter == nil {
		logger.L.Warn("No currency converter configured, treating amount as base currency",
			"rowCurrency", row.Currency, "baseCurrency", g.baseCurrency)
		row.Currency = g.baseCurrency
		return row, nil
	}
	converted, _, err := g.converter.Convert(ctx, row.GrossAmount, row.Currency, g.baseCurrency, rateDate)
	if err != nil {
		return row, fmt.Errorf("converting %s revenue to %s: %w", row.Currency, g.baseCurrency, err)
	}
	row.GrossAmount = converted
	row.Currency = g.baseCurrency
	return row, nil
}
