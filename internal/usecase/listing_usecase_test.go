package usecase

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	adapterrepo "marketchat/internal/adapter/repository"
	"marketchat/internal/domain/entity"
	"marketchat/pkg/errors"
)

func newSeededListingUseCase(t *testing.T) *ListingUseCase {
	t.Helper()
	uc := NewListingUseCase(adapterrepo.NewMemoryListingRepository())
	require.NoError(t, uc.Seed(context.Background(), []entity.Listing{
		{ID: 42, Title: "Bike", Price: 1000, OwnerID: "u1"},
	}))
	return uc
}

func TestSeedFillsDefaults(t *testing.T) {
	uc := newSeededListingUseCase(t)

	listing, err := uc.GetByID(context.Background(), 42)
	require.NoError(t, err)
	assert.Equal(t, entity.ListingStatusAvailable, listing.Status)
	assert.False(t, listing.RegDate.IsZero())
	assert.Equal(t, listing.RegDate, listing.UpdatedAt)
}

func TestSeedRejectsMissingID(t *testing.T) {
	uc := NewListingUseCase(adapterrepo.NewMemoryListingRepository())

	err := uc.Seed(context.Background(), []entity.Listing{{Title: "No id"}})

	assert.True(t, errors.Is(err, errors.CodeBadRequest))
}

func TestUpdateStatusByOwner(t *testing.T) {
	uc := newSeededListingUseCase(t)

	updated, err := uc.UpdateStatus(context.Background(), 42, entity.StatusUpdateRequest{Status: entity.ListingStatusDone, UserID: "u1"})

	require.NoError(t, err)
	assert.Equal(t, entity.ListingStatusDone, updated.Status)
	stored, err := uc.GetByID(context.Background(), 42)
	require.NoError(t, err)
	assert.Equal(t, entity.ListingStatusDone, stored.Status)
}

func TestUpdateStatusErrors(t *testing.T) {
	cases := []struct {
		name string
		id   int64
		req  entity.StatusUpdateRequest
		code string
	}{
		{name: "unknown status", id: 42, req: entity.StatusUpdateRequest{Status: "sold", UserID: "u1"}, code: errors.CodeBadRequest},
		{name: "not the owner", id: 42, req: entity.StatusUpdateRequest{Status: entity.ListingStatusDone, UserID: "u2"}, code: errors.CodeForbidden},
		{name: "unknown listing", id: 9, req: entity.StatusUpdateRequest{Status: entity.ListingStatusDone, UserID: "u1"}, code: errors.CodeNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			uc := newSeededListingUseCase(t)
			_, err := uc.UpdateStatus(context.Background(), tc.id, tc.req)
			assert.True(t, errors.Is(err, tc.code), "got %v", err)
		})
	}
}

func TestUpdateStatusSameStatusIsNoop(t *testing.T) {
	uc := newSeededListingUseCase(t)
	before, err := uc.GetByID(context.Background(), 42)
	require.NoError(t, err)

	after, err := uc.UpdateStatus(context.Background(), 42, entity.StatusUpdateRequest{Status: entity.ListingStatusAvailable, UserID: "u1"})

	require.NoError(t, err)
	assert.Equal(t, before.UpdatedAt, after.UpdatedAt)
}
