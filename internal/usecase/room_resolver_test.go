package usecase

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"marketchat/internal/domain/entity"
	"marketchat/pkg/errors"
)

func newTestResolver(backend *fakeBackend) *RoomResolver {
	return NewRoomResolver(backend, NewListingNormalizer())
}

func TestResolveByRoomIDWithFlattenedListing(t *testing.T) {
	backend := &fakeBackend{
		lookupFn: func(ctx context.Context, roomID string, userID entity.Identity) (*entity.RoomLookup, error) {
			assert.Equal(t, "r9", roomID)
			assert.Equal(t, entity.Identity("u1"), userID)
			return &entity.RoomLookup{
				RoomID:      "r9",
				OtherUserID: "u2",
				ItemID:      7,
				ItemTitle:   "Bike",
				ItemPrice:   1000,
			}, nil
		},
	}
	resolver := newTestResolver(backend)
	assert.Equal(t, StateIdle, resolver.State())

	res := resolver.Resolve(context.Background(), ResolveInput{RoomID: "r9", Identity: "u1"})

	require.Equal(t, StateReady, res.State)
	require.NotNil(t, res.Room)
	assert.Equal(t, entity.ChatRoom{RoomID: "r9", ParticipantA: "u1", ParticipantB: "u2", LinkedListingID: 7}, *res.Room)
	require.NotNil(t, res.Listing)
	assert.Equal(t, entity.ListingRef{
		ID:             7,
		Title:          "Bike",
		Price:          1000,
		CounterpartyID: "u2",
		Status:         entity.ListingStatusAvailable,
	}, *res.Listing)
	assert.Equal(t, 0, backend.listingCalls)
	assert.Equal(t, StateReady, resolver.State())
}

func TestResolveByRoomIDFetchesListingOnce(t *testing.T) {
	backend := &fakeBackend{
		lookupFn: func(ctx context.Context, roomID string, userID entity.Identity) (*entity.RoomLookup, error) {
			return &entity.RoomLookup{ID: "31", OtherUserID: "u2", ItemTransactionID: 88}, nil
		},
		listingFn: func(ctx context.Context, id int64) (*entity.RawListing, error) {
			return &entity.RawListing{ID: 88, Title: "Desk", Price: 50, OwnerID: "u2", Status: entity.ListingStatusReserved}, nil
		},
	}

	res := newTestResolver(backend).Resolve(context.Background(), ResolveInput{RoomID: "31", Identity: "u1"})

	require.Equal(t, StateReady, res.State)
	assert.Equal(t, 1, backend.listingCalls)
	assert.Equal(t, []int64{88}, backend.listingIDs)
	assert.Equal(t, "31", res.Room.RoomID)
	assert.Equal(t, int64(88), res.Room.LinkedListingID)
	require.NotNil(t, res.Listing)
	assert.Equal(t, "Desk", res.Listing.Title)
	assert.Equal(t, entity.ListingStatusReserved, res.Listing.Status)
	assert.Equal(t, "u2", res.Listing.OwnerID)
}

func TestResolveByRoomIDWithoutListing(t *testing.T) {
	backend := &fakeBackend{
		lookupFn: func(ctx context.Context, roomID string, userID entity.Identity) (*entity.RoomLookup, error) {
			return &entity.RoomLookup{OtherUserID: "u2"}, nil
		},
	}

	res := newTestResolver(backend).Resolve(context.Background(), ResolveInput{RoomID: "r1", Identity: "u1"})

	require.Equal(t, StateReady, res.State)
	assert.Nil(t, res.Listing)
	assert.Equal(t, "r1", res.Room.RoomID, "falls back to the requested room id")
	assert.Equal(t, 0, backend.listingCalls)
}

func TestResolveByRoomIDLookupFailure(t *testing.T) {
	backend := &fakeBackend{
		lookupFn: func(ctx context.Context, roomID string, userID entity.Identity) (*entity.RoomLookup, error) {
			return nil, errors.NetworkOrServer("GET failed", http.StatusInternalServerError, nil)
		},
	}
	resolver := newTestResolver(backend)

	res := resolver.Resolve(context.Background(), ResolveInput{RoomID: "r9", Identity: "u1"})

	require.Equal(t, StateFailed, res.State)
	require.NotNil(t, res.Failure)
	assert.Equal(t, errors.CodeNetworkOrServer, res.Failure.Code)
	assert.Equal(t, http.StatusInternalServerError, res.Failure.Status)
	assert.True(t, res.NavigateAway)
	assert.Equal(t, StateFailed, resolver.State())
}

func TestResolveByRoomIDListingFetchFailure(t *testing.T) {
	backend := &fakeBackend{
		lookupFn: func(ctx context.Context, roomID string, userID entity.Identity) (*entity.RoomLookup, error) {
			return &entity.RoomLookup{RoomID: "r2", OtherUserID: "u2", ItemTransactionID: 4}, nil
		},
	}

	res := newTestResolver(backend).Resolve(context.Background(), ResolveInput{RoomID: "r2", Identity: "u1"})

	require.Equal(t, StateFailed, res.State)
	assert.Equal(t, errors.CodeNetworkOrServer, res.Failure.Code)
	assert.Equal(t, 1, backend.listingCalls)
}

func TestResolveByRoomIDRejectsSelfRoom(t *testing.T) {
	backend := &fakeBackend{
		lookupFn: func(ctx context.Context, roomID string, userID entity.Identity) (*entity.RoomLookup, error) {
			return &entity.RoomLookup{RoomID: "r3", OtherUserID: "u1"}, nil
		},
	}

	res := newTestResolver(backend).Resolve(context.Background(), ResolveInput{RoomID: "r3", Identity: "u1"})

	require.Equal(t, StateFailed, res.State)
	assert.Equal(t, errors.CodeInvalidCounterparty, res.Failure.Code)
}

func TestResolveByRoomIDRequiresIdentity(t *testing.T) {
	backend := &fakeBackend{}

	res := newTestResolver(backend).Resolve(context.Background(), ResolveInput{RoomID: "r9"})

	require.Equal(t, StateFailed, res.State)
	assert.Equal(t, errors.CodeMissingContext, res.Failure.Code)
	assert.Equal(t, 0, backend.totalCalls())
}

func TestResolveByListingRejectsSelfChat(t *testing.T) {
	backend := &fakeBackend{}
	listing := &entity.RawListing{ID: 5, SellerID: "u1"}

	res := newTestResolver(backend).Resolve(context.Background(), ResolveInput{Listing: listing, Identity: "u1"})

	require.Equal(t, StateFailed, res.State)
	assert.Equal(t, errors.CodeInvalidCounterparty, res.Failure.Code)
	assert.True(t, res.NavigateAway)
	assert.Equal(t, 0, backend.totalCalls())
}

func TestResolveByListingRejectsUnresolvedSeller(t *testing.T) {
	for name, listing := range map[string]*entity.RawListing{
		"no seller fields": {ID: 5},
		"unknown":          {ID: 5, SellerID: "unknown"},
		"undefined":        {ID: 5, OwnerID: "undefined"},
		"nested null":      {ID: 5, Seller: &entity.SellerRef{}},
	} {
		t.Run(name, func(t *testing.T) {
			backend := &fakeBackend{}
			res := newTestResolver(backend).Resolve(context.Background(), ResolveInput{Listing: listing, Identity: "u1"})

			require.Equal(t, StateFailed, res.State)
			assert.Equal(t, errors.CodeInvalidCounterparty, res.Failure.Code)
			assert.Equal(t, 0, backend.totalCalls())
		})
	}
}

func TestResolveByListingCreatesRoom(t *testing.T) {
	backend := &fakeBackend{
		createFn: func(ctx context.Context, req entity.CreateRoomRequest) (*entity.RoomLookup, error) {
			return &entity.RoomLookup{RoomID: "room-5", OtherUserID: entity.FlexString(req.OtherUserID), ItemID: entity.FlexInt(req.ItemID)}, nil
		},
	}
	listing := &entity.RawListing{ID: 5, Title: "Lamp", Price: 20, Seller: &entity.SellerRef{ID: "42"}}

	res := newTestResolver(backend).Resolve(context.Background(), ResolveInput{Listing: listing, Identity: "u1"})

	require.Equal(t, StateReady, res.State)
	require.Len(t, backend.createRequests, 1)
	assert.Equal(t, entity.CreateRoomRequest{UserID: "u1", OtherUserID: "42", ItemID: 5}, backend.createRequests[0])
	assert.Equal(t, "room-5", res.Room.RoomID)
	assert.Equal(t, "42", res.Room.ParticipantB)
	assert.Equal(t, int64(5), res.Room.LinkedListingID)
	assert.Equal(t, "Lamp", res.Listing.Title)
	assert.Equal(t, "42", res.Listing.CounterpartyID)
}

func TestResolveByListingWithoutIDIssuesNoRequest(t *testing.T) {
	backend := &fakeBackend{}
	listing := &entity.RawListing{Title: "Lamp", SellerID: "u2"}

	res := newTestResolver(backend).Resolve(context.Background(), ResolveInput{Listing: listing, Identity: "u1"})

	require.Equal(t, StateFailed, res.State)
	assert.Equal(t, errors.CodeMissingContext, res.Failure.Code)
	assert.Equal(t, 0, backend.totalCalls())
}

func TestResolveByListingCreateFailure(t *testing.T) {
	backend := &fakeBackend{
		createFn: func(ctx context.Context, req entity.CreateRoomRequest) (*entity.RoomLookup, error) {
			return nil, context.DeadlineExceeded
		},
	}
	listing := &entity.RawListing{ID: 5, SellerID: "u2"}

	res := newTestResolver(backend).Resolve(context.Background(), ResolveInput{Listing: listing, Identity: "u1"})

	require.Equal(t, StateFailed, res.State)
	assert.Equal(t, errors.CodeNetworkOrServer, res.Failure.Code)
	assert.Equal(t, 0, res.Failure.Status)
	assert.ErrorIs(t, res.Failure, context.DeadlineExceeded)
}

func TestResolveCreateResponseWithoutRoomID(t *testing.T) {
	backend := &fakeBackend{
		createFn: func(ctx context.Context, req entity.CreateRoomRequest) (*entity.RoomLookup, error) {
			return &entity.RoomLookup{}, nil
		},
	}
	listing := &entity.RawListing{ID: 5, SellerID: "u2"}

	res := newTestResolver(backend).Resolve(context.Background(), ResolveInput{Listing: listing, Identity: "u1"})

	require.Equal(t, StateFailed, res.State)
	assert.Equal(t, errors.CodeNetworkOrServer, res.Failure.Code)
}

func TestResolveWithoutContext(t *testing.T) {
	for name, in := range map[string]ResolveInput{
		"nothing":             {},
		"identity only":       {Identity: "u1"},
		"listing no identity": {Listing: &entity.RawListing{ID: 5, SellerID: "u2"}},
	} {
		t.Run(name, func(t *testing.T) {
			backend := &fakeBackend{}
			res := newTestResolver(backend).Resolve(context.Background(), in)

			require.Equal(t, StateFailed, res.State)
			assert.Equal(t, errors.CodeMissingContext, res.Failure.Code)
			assert.False(t, res.NavigateAway)
			assert.Equal(t, 0, backend.totalCalls())
		})
	}
}

func TestResolveDiscardsStaleCompletion(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	backend := &fakeBackend{
		lookupFn: func(ctx context.Context, roomID string, userID entity.Identity) (*entity.RoomLookup, error) {
			if roomID == "slow" {
				close(started)
				<-release
			}
			return &entity.RoomLookup{RoomID: entity.FlexString(roomID), OtherUserID: "u2"}, nil
		},
	}
	resolver := newTestResolver(backend)

	slow := make(chan Resolution, 1)
	go func() {
		slow <- resolver.Resolve(context.Background(), ResolveInput{RoomID: "slow", Identity: "u1"})
	}()
	<-started
	assert.Equal(t, StateResolving, resolver.State())

	fast := resolver.Resolve(context.Background(), ResolveInput{RoomID: "fast", Identity: "u1"})
	require.Equal(t, StateReady, fast.State)

	close(release)
	var stale Resolution
	select {
	case stale = <-slow:
	case <-time.After(5 * time.Second):
		t.Fatal("slow resolution never completed")
	}

	assert.Equal(t, StateStale, stale.State)
	assert.Nil(t, stale.Room)
	assert.Less(t, stale.Generation, fast.Generation)
	assert.False(t, resolver.IsCurrent(stale.Generation))

	current := resolver.Current()
	assert.Equal(t, StateReady, current.State)
	assert.Equal(t, "fast", current.Room.RoomID)
}

func TestResolveIsRepeatable(t *testing.T) {
	backend := &fakeBackend{
		createFn: func(ctx context.Context, req entity.CreateRoomRequest) (*entity.RoomLookup, error) {
			return &entity.RoomLookup{RoomID: entity.FlexString(RoomID(req.UserID, req.OtherUserID, req.ItemID))}, nil
		},
	}
	resolver := newTestResolver(backend)
	in := ResolveInput{Listing: &entity.RawListing{ID: 9, OwnerID: "u2"}, Identity: "u1"}

	first := resolver.Resolve(context.Background(), in)
	second := resolver.Resolve(context.Background(), in)

	require.Equal(t, StateReady, first.State)
	require.Equal(t, StateReady, second.State)
	assert.Equal(t, first.Room.RoomID, second.Room.RoomID)
	assert.Greater(t, second.Generation, first.Generation)
}
