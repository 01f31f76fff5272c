package repository

import (
	"context"
	"sync"
	"time"

	"marketchat/internal/domain/entity"
	"marketchat/internal/domain/repository"
	"marketchat/pkg/errors"
)

type memoryListingRepository struct {
	mu       sync.RWMutex
	listings map[int64]entity.Listing
}

func NewMemoryListingRepository() repository.ListingRepository {
	return &memoryListingRepository{listings: make(map[int64]entity.Listing)}
}

func (r *memoryListingRepository) GetByID(ctx context.Context, id int64) (*entity.Listing, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	listing, ok := r.listings[id]
	if !ok {
		return nil, errors.NotFound("Listing", nil)
	}
	return &listing, nil
}

func (r *memoryListingRepository) Save(ctx context.Context, listing *entity.Listing) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.listings[listing.ID] = *listing
	return nil
}

func (r *memoryListingRepository) UpdateStatus(ctx context.Context, id int64, status string) (*entity.Listing, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	listing, ok := r.listings[id]
	if !ok {
		return nil, errors.NotFound("Listing", nil)
	}
	listing.Status = status
	listing.UpdatedAt = time.Now().UTC()
	r.listings[id] = listing
	return &listing, nil
}
