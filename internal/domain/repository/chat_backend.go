package repository

import (
	"context"

	"marketchat/internal/domain/entity"
)

// ChatBackend is the remote chat/listing service the client core talks to.
// Every failure is returned as an *errors.AppError with code NETWORK_OR_SERVER.
type ChatBackend interface {
	LookupRoom(ctx context.Context, roomID string, userID entity.Identity) (*entity.RoomLookup, error)
	CreateOrGetRoom(ctx context.Context, req entity.CreateRoomRequest) (*entity.RoomLookup, error)
	GetListing(ctx context.Context, listingID int64) (*entity.RawListing, error)
	UpdateListingStatus(ctx context.Context, listingID int64, req entity.StatusUpdateRequest) (*entity.StatusUpdateResponse, error)
}
