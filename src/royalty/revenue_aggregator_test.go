package royalty

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/username/labelfolio/backend/src/models"
)

func TestAggregateGroupsByUPCElseTitle(t *testing.T) {
	rows := []models.CatalogRevenueRow{
		{ReleaseUPC: "UPC-1", ReleaseTitle: "Album", TrackISRC: "ISRC-1", SourcePlatform: "spotify", SaleType: models.SaleTypeStream, GrossAmount: dec("100"), UnitCount: 1000, Currency: "EUR", SaleDate: day(2025, 2, 1)},
		{ReleaseUPC: "UPC-1", TrackISRC: "ISRC-2", SourcePlatform: "deezer", SaleType: models.SaleTypeStream, GrossAmount: dec("50"), UnitCount: 600, Currency: "EUR", SaleDate: day(2025, 2, 2)},
		{ReleaseTitle: "Demo Tape", SourcePlatform: "bandcamp", SaleType: models.SaleTypeDigital, GrossAmount: dec("20"), UnitCount: 4, Currency: "EUR", SaleDate: day(2025, 2, 3)},
		{SourcePlatform: "bandcamp", SaleType: models.SaleTypeCD, GrossAmount: dec("30"), UnitCount: 2, Currency: "EUR", SaleDate: day(2025, 2, 4)},
	}
	agg, err := NewRevenueAggregator(nil, "EUR").Aggregate(context.Background(), rows, day(2025, 4, 1))
	require.NoError(t, err)

	assert.Equal(t, "200", agg.Gross.String())
	assert.Equal(t, int64(1606), agg.Units)
	assert.Equal(t, "EUR", agg.Currency)
	assert.Equal(t, []string{"Demo Tape", "UNKNOWN", "UPC-1"}, agg.ReleaseKeys())

	album := agg.PerRelease["UPC-1"]
	require.NotNil(t, album)
	assert.Equal(t, "150", album.Gross.String())
	assert.Equal(t, int64(1600), album.Units)
	assert.Equal(t, "Album", album.Title, "the title is backfilled from whichever row carries it")
	assert.Equal(t, 2, album.TrackCount())
	assert.Equal(t, []string{"deezer", "spotify"}, album.SourceList())
	assert.Len(t, album.Rows, 2)

	demo := agg.PerRelease["Demo Tape"]
	require.NotNil(t, demo)
	assert.Equal(t, "20", demo.Gross.String())
	assert.Equal(t, "", demo.UPC)
	assert.Equal(t, 0, demo.TrackCount())

	unknown := agg.PerRelease["UNKNOWN"]
	require.NotNil(t, unknown)
	assert.Equal(t, "30", unknown.Gross.String())
}

func TestAggregateRecordsBundleParent(t *testing.T) {
	rows := []models.CatalogRevenueRow{
		{ReleaseUPC: "S1", ReleaseTitle: "Single", IncludedInUPC: "A1", SourcePlatform: "spotify", SaleType: models.SaleTypeStream, GrossAmount: dec("10"), UnitCount: 100, Currency: "EUR", SaleDate: day(2025, 2, 1)},
		{ReleaseUPC: "S1", SourcePlatform: "deezer", SaleType: models.SaleTypeStream, GrossAmount: dec("5"), UnitCount: 40, Currency: "EUR", SaleDate: day(2025, 2, 2)},
	}
	agg, err := NewRevenueAggregator(nil, "EUR").Aggregate(context.Background(), rows, day(2025, 4, 1))
	require.NoError(t, err)
	assert.Equal(t, "A1", agg.PerRelease["S1"].IncludedInUPC)
}

func TestAggregatePerSourceNormalizesPlatforms(t *testing.T) {
	rows := []models.CatalogRevenueRow{
		{ReleaseUPC: "UPC-1", SourcePlatform: "Apple Music", SaleType: models.SaleTypeStream, GrossAmount: dec("40"), UnitCount: 300, Currency: "EUR", SaleDate: day(2025, 2, 1)},
		{ReleaseUPC: "UPC-1", SourcePlatform: "apple_music", SaleType: models.SaleTypeStream, GrossAmount: dec("10"), UnitCount: 80, Currency: "EUR", SaleDate: day(2025, 2, 2)},
		{ReleaseUPC: "UPC-1", SourcePlatform: "", SaleType: models.SaleTypeCD, GrossAmount: dec("25"), UnitCount: 2, Currency: "EUR", SaleDate: day(2025, 2, 3)},
	}
	agg, err := NewRevenueAggregator(nil, "EUR").Aggregate(context.Background(), rows, day(2025, 4, 1))
	require.NoError(t, err)

	assert.Equal(t, []string{"apple_music", "other"}, agg.SourceKeys())
	assert.Equal(t, "50", agg.PerSource["apple_music"].Gross.String(), "spelling variants collapse to one key")
	assert.Equal(t, int64(380), agg.PerSource["apple_music"].Units)
	assert.Equal(t, "25", agg.PerSource["other"].Gross.String())
	assert.Equal(t, []string{"apple_music", "other"}, agg.PerRelease["UPC-1"].SourceList())
}

func TestAggregateUnitsBySaleType(t *testing.T) {
	rows := []models.CatalogRevenueRow{
		{ReleaseUPC: "UPC-1", SourcePlatform: "bandcamp", SaleType: models.SaleTypeVinyl, GrossAmount: dec("60"), UnitCount: 3, Currency: "EUR", SaleDate: day(2025, 2, 1)},
		{ReleaseUPC: "UPC-1", SourcePlatform: "bandcamp", SaleType: models.SaleTypeVinyl, GrossAmount: dec("20"), UnitCount: 1, Currency: "EUR", SaleDate: day(2025, 2, 2)},
		{ReleaseUPC: "UPC-1", SourcePlatform: "spotify", SaleType: models.SaleTypeStream, GrossAmount: dec("4"), UnitCount: 900, Currency: "EUR", SaleDate: day(2025, 2, 3)},
	}
	agg, err := NewRevenueAggregator(nil, "EUR").Aggregate(context.Background(), rows, day(2025, 4, 1))
	require.NoError(t, err)
	assert.Equal(t, map[models.SaleType]int64{
		models.SaleTypeVinyl:  4,
		models.SaleTypeStream: 900,
	}, agg.PerRelease["UPC-1"].UnitsByType)
}

func TestAggregateConvertsForeignCurrency(t *testing.T) {
	converter := &stubConverter{rate: dec("0.9")}
	rows := []models.CatalogRevenueRow{
		{ReleaseUPC: "UPC-1", SourcePlatform: "spotify", SaleType: models.SaleTypeStream, GrossAmount: dec("100"), UnitCount: 700, Currency: "USD", SaleDate: day(2025, 2, 1)},
		{ReleaseUPC: "UPC-1", SourcePlatform: "spotify", SaleType: models.SaleTypeStream, GrossAmount: dec("10"), UnitCount: 90, Currency: "EUR", SaleDate: day(2025, 2, 2)},
		{ReleaseUPC: "UPC-1", SourcePlatform: "spotify", SaleType: models.SaleTypeStream, GrossAmount: dec("20"), UnitCount: 150, Currency: "", SaleDate: day(2025, 2, 3)},
	}
	rateDate := day(2025, 4, 1)
	agg, err := NewRevenueAggregator(converter, "EUR").Aggregate(context.Background(), rows, rateDate)
	require.NoError(t, err)

	assert.Equal(t, "120", agg.Gross.String(), "90 converted plus 30 already in base")
	require.Len(t, converter.calls, 1, "base and blank currencies skip conversion")
	assert.Equal(t, "USD", converter.calls[0].from)
	assert.True(t, converter.calls[0].on.Equal(rateDate))

	// Stored rows carry converted amounts so downstream share math never
	// sees a foreign currency.
	for _, row := range agg.PerRelease["UPC-1"].Rows {
		assert.Equal(t, "EUR", row.Currency)
	}
	assert.Equal(t, "90", agg.PerRelease["UPC-1"].Rows[0].GrossAmount.String())
}

type failingConverter struct{ err error }

func (f *failingConverter) Convert(ctx context.Context, amount decimal.Decimal, from, to string, on time.Time) (decimal.Decimal, decimal.Decimal, error) {
	return decimal.Zero, decimal.Zero, f.err
}

func TestAggregateSurfacesConversionErrors(t *testing.T) {
	rateErr := errors.New("no rate published")
	rows := []models.CatalogRevenueRow{
		{ReleaseUPC: "UPC-1", SourcePlatform: "spotify", SaleType: models.SaleTypeStream, GrossAmount: dec("100"), UnitCount: 700, Currency: "GBP", SaleDate: day(2025, 2, 1)},
	}
	_, err := NewRevenueAggregator(&failingConverter{err: rateErr}, "EUR").Aggregate(context.Background(), rows, day(2025, 4, 1))
	require.ErrorIs(t, err, rateErr)
	assert.Contains(t, err.Error(), "converting GBP revenue to EUR")
}

func TestAggregateWithoutConverterKeepsAmounts(t *testing.T) {
	rows := []models.CatalogRevenueRow{
		{ReleaseUPC: "UPC-1", SourcePlatform: "spotify", SaleType: models.SaleTypeStream, GrossAmount: dec("100"), UnitCount: 700, Currency: "USD", SaleDate: day(2025, 2, 1)},
	}
	agg, err := NewRevenueAggregator(nil, "EUR").Aggregate(context.Background(), rows, day(2025, 4, 1))
	require.NoError(t, err)

	// Nothing to convert with: the amount is taken at face value.
	assert.Equal(t, "100", agg.Gross.String())
	assert.Equal(t, "EUR", agg.PerRelease["UPC-1"].Rows[0].Currency)
}
