package usecase

import (
	"context"
	"sync"

	"marketchat/internal/domain/entity"
	"marketchat/pkg/errors"
)

// fakeBackend is a scripted ChatBackend that counts calls.
type fakeBackend struct {
	mu sync.Mutex

	lookupCalls  int
	createCalls  int
	listingCalls int
	updateCalls  int

	createRequests []entity.CreateRoomRequest
	listingIDs     []int64

	lookupFn  func(ctx context.Context, roomID string, userID entity.Identity) (*entity.RoomLookup, error)
	createFn  func(ctx context.Context, req entity.CreateRoomRequest) (*entity.RoomLookup, error)
	listingFn func(ctx context.Context, id int64) (*entity.RawListing, error)
	updateFn  func(ctx context.Context, id int64, req entity.StatusUpdateRequest) (*entity.StatusUpdateResponse, error)
}

func (f *fakeBackend) LookupRoom(ctx context.Context, roomID string, userID entity.Identity) (*entity.RoomLookup, error) {
	f.mu.Lock()
	f.lookupCalls++
	fn := f.lookupFn
	f.mu.Unlock()
	if fn == nil {
		return nil, errors.NetworkOrServer("no lookup scripted", 0, nil)
	}
	return fn(ctx, roomID, userID)
}

func (f *fakeBackend) CreateOrGetRoom(ctx context.Context, req entity.CreateRoomRequest) (*entity.RoomLookup, error) {
	f.mu.Lock()
	f.createCalls++
	f.createRequests = append(f.createRequests, req)
	fn := f.createFn
	f.mu.Unlock()
	if fn == nil {
		return nil, errors.NetworkOrServer("no create scripted", 0, nil)
	}
	return fn(ctx, req)
}

func (f *fakeBackend) GetListing(ctx context.Context, id int64) (*entity.RawListing, error) {
	f.mu.Lock()
	f.listingCalls++
	f.listingIDs = append(f.listingIDs, id)
	fn := f.listingFn
	f.mu.Unlock()
	if fn == nil {
		return nil, errors.NetworkOrServer("no listing scripted", 0, nil)
	}
	return fn(ctx, id)
}

func (f *fakeBackend) UpdateListingStatus(ctx context.Context, id int64, req entity.StatusUpdateRequest) (*entity.StatusUpdateResponse, error) {
	f.mu.Lock()
	f.updateCalls++
	fn := f.updateFn
	f.mu.Unlock()
	if fn == nil {
		return nil, errors.NetworkOrServer("no update scripted", 0, nil)
	}
	return fn(ctx, id, req)
}

func (f *fakeBackend) totalCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lookupCalls + f.createCalls + f.listingCalls + f.updateCalls
}
