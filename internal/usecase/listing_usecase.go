package usecase

import (
	"context"
	"time"

	"marketchat/internal/domain/entity"
	"marketchat/internal/domain/repository"
	"marketchat/pkg/errors"
	"marketchat/pkg/logger"
)

type ListingUseCase struct {
	listingRepo repository.ListingRepository
}

func NewListingUseCase(listingRepo repository.ListingRepository) *ListingUseCase {
	return &ListingUseCase{listingRepo: listingRepo}
}

func (uc *ListingUseCase) GetByID(ctx context.Context, id int64) (*entity.Listing, error) {
	return uc.listingRepo.GetByID(ctx, id)
}

// UpdateStatus applies a status transition requested by the listing's owner.
func (uc *ListingUseCase) UpdateStatus(ctx context.Context, id int64, req entity.StatusUpdateRequest) (*entity.Listing, error) {
	if !entity.IsValidListingStatus(req.Status) {
		return nil, errors.BadRequest("status must be one of: available reserved done", nil)
	}

	listing, err := uc.listingRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if listing.OwnerID != req.UserID {
		logger.Warn("UpdateStatus: user %s is not the owner of listing %d", req.UserID, id)
		return nil, errors.Forbidden("Only the seller can change the listing status", nil)
	}
	if listing.Status == req.Status {
		return listing, nil
	}

	updated, err := uc.listingRepo.UpdateStatus(ctx, id, req.Status)
	if err != nil {
		logger.Error("UpdateStatus: listing %d: %v", id, err)
		return nil, err
	}
	logger.Info("Listing %d status %s -> %s", id, listing.Status, updated.Status)
	return updated, nil
}

// Seed stores listings, filling in timestamps and the default status.
func (uc *ListingUseCase) Seed(ctx context.Context, listings []entity.Listing) error {
	now := time.Now().UTC()
	for i := range listings {
		l := listings[i]
		if l.ID <= 0 {
			return errors.BadRequest("seed listing without id", nil)
		}
		if l.Status == "" {
			l.Status = entity.ListingStatusAvailable
		}
		if l.RegDate.IsZero() {
			l.RegDate = now
		}
		if l.UpdatedAt.IsZero() {
			l.UpdatedAt = l.RegDate
		}
		if err := uc.listingRepo.Save(ctx, &l); err != nil {
			return err
		}
	}
	return nil
}
