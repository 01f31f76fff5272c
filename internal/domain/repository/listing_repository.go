package repository

import (
	"context"

	"marketchat/internal/domain/entity"
)

type ListingRepository interface {
	GetByID(ctx context.Context, id int64) (*entity.Listing, error)
	Save(ctx context.Context, listing *entity.Listing) error
	UpdateStatus(ctx context.Context, id int64, status string) (*entity.Listing, error)
}
