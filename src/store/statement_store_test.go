package store

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/username/labelfolio/backend/src/models"
)

func draftStatement(artistID string, year int, quarter int) *models.Statement {
	start := time.Date(year, time.Month((quarter-1)*3+1), 1, 0, 0, 0, 0, time.UTC)
	return &models.Statement{
		ArtistID:             artistID,
		PeriodStart:          start,
		PeriodEnd:            start.AddDate(0, 3, 0),
		PeriodLabel:          "",
		Currency:             "EUR",
		GrossAmount:          decimal.RequireFromString("1000"),
		ArtistRoyalty:        decimal.RequireFromString("500"),
		LabelRoyalty:         decimal.RequireFromString("500"),
		AdvanceBalanceBefore: decimal.RequireFromString("300"),
		RecoupedAmount:       decimal.RequireFromString("300"),
		AdvanceBalanceAfter:  decimal.Zero,
		NetPayable:           decimal.RequireFromString("200"),
		ReleaseCount:         2,
		UnitCount:            15000,
	}
}

func TestStatementStore_CreateGetRoundTrip(t *testing.T) {
	db := setupTestDB(t)
	s := NewStatementStore(db)
	ctx := context.Background()

	st := draftStatement("artist-1", 2025, 1)
	st.PeriodLabel = "Q1 2025"
	require.NoError(t, s.CreateStatement(ctx, st))
	require.NotEmpty(t, st.ID)

	got, err := s.GetStatement(ctx, st.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatementStatusDraft, got.Status, "new statements start as drafts")
	assert.Equal(t, "Q1 2025", got.PeriodLabel)
	assert.True(t, got.PeriodStart.Equal(st.PeriodStart))
	assert.True(t, got.PeriodEnd.Equal(st.PeriodEnd))
	assert.Equal(t, "1000", got.GrossAmount.String())
	assert.Equal(t, "500", got.ArtistRoyalty.String())
	assert.Equal(t, "300", got.RecoupedAmount.String())
	assert.Equal(t, "0", got.AdvanceBalanceAfter.String())
	assert.Equal(t, "200", got.NetPayable.String())
	assert.Equal(t, 2, got.ReleaseCount)
	assert.EqualValues(t, 15000, got.UnitCount)
	assert.Nil(t, got.FinalizedAt)
	assert.Nil(t, got.PaidAt)

	_, err = s.GetStatement(ctx, "no-such-statement")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestStatementStore_ListNewestPeriodFirst(t *testing.T) {
	db := setupTestDB(t)
	s := NewStatementStore(db)
	ctx := context.Background()

	q1 := draftStatement("artist-1", 2025, 1)
	q2 := draftStatement("artist-1", 2025, 2)
	other := draftStatement("artist-2", 2025, 1)
	require.NoError(t, s.CreateStatement(ctx, q1))
	require.NoError(t, s.CreateStatement(ctx, q2))
	require.NoError(t, s.CreateStatement(ctx, other))

	mine, err := s.ListStatements(ctx, "artist-1")
	require.NoError(t, err)
	require.Len(t, mine, 2)
	assert.Equal(t, q2.ID, mine[0].ID, "latest period first")
	assert.Equal(t, q1.ID, mine[1].ID)

	all, err := s.ListStatements(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestStatementStore_UpdateLifecycle(t *testing.T) {
	db := setupTestDB(t)
	s := NewStatementStore(db)
	ctx := context.Background()

	st := draftStatement("artist-1", 2025, 1)
	require.NoError(t, s.CreateStatement(ctx, st))
	require.True(t, st.CanFinalize())

	finalizedAt := time.Date(2025, 4, 10, 9, 30, 0, 0, time.UTC)
	st.Status = models.StatementStatusFinalized
	st.FinalizedAt = &finalizedAt
	require.NoError(t, s.UpdateStatement(ctx, st))

	got, err := s.GetStatement(ctx, st.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatementStatusFinalized, got.Status)
	require.NotNil(t, got.FinalizedAt)
	assert.WithinDuration(t, finalizedAt, *got.FinalizedAt, time.Second)
	assert.False(t, got.CanFinalize())
	assert.True(t, got.CanMarkPaid())

	paidAt := finalizedAt.Add(48 * time.Hour)
	st.Status = models.StatementStatusPaid
	st.PaidAt = &paidAt
	require.NoError(t, s.UpdateStatement(ctx, st))

	got, err = s.GetStatement(ctx, st.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatementStatusPaid, got.Status)
	require.NotNil(t, got.PaidAt)
	assert.False(t, got.CanMarkPaid())

	missing := draftStatement("artist-1", 2025, 3)
	missing.ID = "no-such-statement"
	require.ErrorIs(t, s.UpdateStatement(ctx, missing), ErrNotFound)
}

func TestStatementStore_CreateValidation(t *testing.T) {
	db := setupTestDB(t)
	s := NewStatementStore(db)
	ctx := context.Background()

	st := draftStatement("", 2025, 1)
	require.ErrorIs(t, s.CreateStatement(ctx, st), ErrInvalidStatement)

	st = draftStatement("artist-1", 2025, 1)
	st.PeriodEnd = st.PeriodStart
	require.ErrorIs(t, s.CreateStatement(ctx, st), ErrInvalidStatement)
}
