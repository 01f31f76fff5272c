package repository

import (
	"context"
	"strconv"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"marketchat/internal/domain/entity"
	"marketchat/internal/domain/repository"
	"marketchat/pkg/errors"
)

const listingsCollection = "listings"

type firestoreListingRepository struct {
	client *firestore.Client
}

func NewFirestoreListingRepository(client *firestore.Client) repository.ListingRepository {
	return &firestoreListingRepository{
		client: client,
	}
}

func (r *firestoreListingRepository) doc(id int64) *firestore.DocumentRef {
	return r.client.Collection(listingsCollection).Doc(strconv.FormatInt(id, 10))
}

func (r *firestoreListingRepository) GetByID(ctx context.Context, id int64) (*entity.Listing, error) {
	doc, err := r.doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, errors.NotFound("Listing", err)
		}
		return nil, errors.Internal("Failed to get listing", err)
	}

	var listing entity.Listing
	if err := doc.DataTo(&listing); err != nil {
		return nil, errors.Internal("Failed to parse listing data", err)
	}
	return &listing, nil
}

func (r *firestoreListingRepository) Save(ctx context.Context, listing *entity.Listing) error {
	if _, err := r.doc(listing.ID).Set(ctx, listing); err != nil {
		return errors.Internal("Failed to save listing", err)
	}
	return nil
}

func (r *firestoreListingRepository) UpdateStatus(ctx context.Context, id int64, newStatus string) (*entity.Listing, error) {
	_, err := r.doc(id).Update(ctx, []firestore.Update{
		{Path: "status", Value: newStatus},
		{Path: "updatedAt", Value: time.Now().UTC()},
	})
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, errors.NotFound("Listing", err)
		}
		return nil, errors.Internal("Failed to update listing status", err)
	}
	return r.GetByID(ctx, id)
}
