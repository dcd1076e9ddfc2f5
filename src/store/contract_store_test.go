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

func fiftyFiftyContract(artistID string) *models.Contract {
	return &models.Contract{
		ArtistID:  artistID,
		Scope:     models.ScopeCatalog,
		StartDate: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		Parties: []models.ContractParty{
			{PartyType: models.PartyTypeArtist, ArtistID: artistID, SharePercentage: decimal.RequireFromString("0.5")},
			{PartyType: models.PartyTypeLabel, LabelName: "Disques Nord", SharePercentage: decimal.RequireFromString("0.5")},
		},
	}
}

func TestContractStore_CreateAndList(t *testing.T) {
	db := setupTestDB(t)
	s := NewContractStore(db)
	ctx := context.Background()

	c := fiftyFiftyContract("artist-1")
	require.NoError(t, s.CreateContract(ctx, c))
	require.NotEmpty(t, c.ID)

	contracts, err := s.ListContracts(ctx, "artist-1")
	require.NoError(t, err)
	require.Len(t, contracts, 1)

	got := contracts[0]
	assert.Equal(t, c.ID, got.ID)
	assert.Equal(t, models.ScopeCatalog, got.Scope)
	assert.Empty(t, got.ScopeID)
	assert.True(t, got.StartDate.Equal(c.StartDate), "start date should round-trip")
	assert.Nil(t, got.EndDate)
	require.Len(t, got.Parties, 2)
	assert.Equal(t, models.PartyTypeArtist, got.Parties[0].PartyType)
	assert.Equal(t, "0.5", got.Parties[0].SharePercentage.String())
	assert.Equal(t, "Disques Nord", got.Parties[1].LabelName)

	other, err := s.ListContracts(ctx, "artist-2")
	require.NoError(t, err)
	assert.Empty(t, other)
}

func TestContractStore_ShareOverridesRoundTrip(t *testing.T) {
	db := setupTestDB(t)
	s := NewContractStore(db)
	ctx := context.Background()

	physical := decimal.RequireFromString("0.25")
	digital := decimal.RequireFromString("0.6")
	end := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	c := &models.Contract{
		ArtistID:  "artist-1",
		Scope:     models.ScopeRelease,
		ScopeID:   "0602438613077",
		StartDate: time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
		EndDate:   &end,
		Parties: []models.ContractParty{
			{
				PartyType:       models.PartyTypeArtist,
				ArtistID:        "artist-1",
				SharePercentage: decimal.RequireFromString("0.7"),
				SharePhysical:   &physical,
				ShareDigital:    &digital,
			},
			{PartyType: models.PartyTypeLabel, LabelName: "Disques Nord", SharePercentage: decimal.RequireFromString("0.3")},
		},
	}
	require.NoError(t, s.CreateContract(ctx, c))

	got, err := s.GetContract(ctx, c.ID)
	require.NoError(t, err)
	require.NotNil(t, got.EndDate)
	assert.True(t, got.EndDate.Equal(end))
	require.Len(t, got.Parties, 2)
	require.NotNil(t, got.Parties[0].SharePhysical)
	assert.Equal(t, "0.25", got.Parties[0].SharePhysical.String())
	require.NotNil(t, got.Parties[0].ShareDigital)
	assert.Equal(t, "0.6", got.Parties[0].ShareDigital.String())
	assert.Nil(t, got.Parties[1].SharePhysical)
}

func TestContractStore_RejectsUnbalancedShares(t *testing.T) {
	db := setupTestDB(t)
	s := NewContractStore(db)

	c := fiftyFiftyContract("artist-1")
	c.Parties[1].SharePercentage = decimal.RequireFromString("0.2")

	err := s.CreateContract(context.Background(), c)
	require.ErrorIs(t, err, ErrUnbalancedShares)
}

func TestContractStore_ScopePairing(t *testing.T) {
	db := setupTestDB(t)
	s := NewContractStore(db)
	ctx := context.Background()

	c := fiftyFiftyContract("artist-1")
	c.Scope = models.ScopeRelease // no scope id
	require.ErrorIs(t, s.CreateContract(ctx, c), ErrInvalidScope)

	c = fiftyFiftyContract("artist-1")
	c.ScopeID = "0602438613077" // catalog scope with a scope id
	require.ErrorIs(t, s.CreateContract(ctx, c), ErrInvalidScope)

	c = fiftyFiftyContract("artist-1")
	c.Scope = "label" // unknown scope
	require.ErrorIs(t, s.CreateContract(ctx, c), ErrInvalidScope)
}

func TestContractStore_PartyValidation(t *testing.T) {
	db := setupTestDB(t)
	s := NewContractStore(db)
	ctx := context.Background()

	c := fiftyFiftyContract("artist-1")
	c.Parties[0].ArtistID = "" // artist party without identity
	require.ErrorIs(t, s.CreateContract(ctx, c), ErrInvalidParty)

	c = fiftyFiftyContract("artist-1")
	c.Parties[1].ArtistID = "artist-1" // label party with an artist id
	require.ErrorIs(t, s.CreateContract(ctx, c), ErrInvalidParty)

	c = fiftyFiftyContract("artist-1")
	c.Parties[0].SharePercentage = decimal.RequireFromString("1.2")
	c.Parties[1].SharePercentage = decimal.RequireFromString("-0.2")
	require.ErrorIs(t, s.CreateContract(ctx, c), ErrInvalidParty)

	c = fiftyFiftyContract("artist-1")
	c.Parties = nil
	require.ErrorIs(t, s.CreateContract(ctx, c), ErrInvalidContract)
}

func TestContractStore_UpdateReplacesParties(t *testing.T) {
	db := setupTestDB(t)
	s := NewContractStore(db)
	ctx := context.Background()

	c := fiftyFiftyContract("artist-1")
	require.NoError(t, s.CreateContract(ctx, c))

	c.Parties = []models.ContractParty{
		{PartyType: models.PartyTypeArtist, ArtistID: "artist-1", SharePercentage: decimal.RequireFromString("0.4")},
		{PartyType: models.PartyTypeArtist, ArtistID: "artist-9", SharePercentage: decimal.RequireFromString("0.3")},
		{PartyType: models.PartyTypeLabel, LabelName: "Disques Nord", SharePercentage: decimal.RequireFromString("0.3")},
	}
	require.NoError(t, s.UpdateContract(ctx, c))

	got, err := s.GetContract(ctx, c.ID)
	require.NoError(t, err)
	require.Len(t, got.Parties, 3)
	assert.Equal(t, "artist-9", got.Parties[1].ArtistID)
	assert.Equal(t, "0.3", got.Parties[2].SharePercentage.String())

	missing := fiftyFiftyContract("artist-1")
	missing.ID = "no-such-contract"
	require.ErrorIs(t, s.UpdateContract(ctx, missing), ErrNotFound)
}

func TestContractStore_Delete(t *testing.T) {
	db := setupTestDB(t)
	s := NewContractStore(db)
	ctx := context.Background()

	c := fiftyFiftyContract("artist-1")
	require.NoError(t, s.CreateContract(ctx, c))
	require.NoError(t, s.DeleteContract(ctx, c.ID))

	_, err := s.GetContract(ctx, c.ID)
	require.ErrorIs(t, err, ErrNotFound)
	require.ErrorIs(t, s.DeleteContract(ctx, c.ID), ErrNotFound)

	// parties must not survive their contract
	var count int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM contract_parties`).Scan(&count))
	assert.Zero(t, count)
}
