package repository

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"marketchat/internal/domain/entity"
	"marketchat/internal/domain/repository"
	"marketchat/pkg/errors"
)

const roomsCollection = "chat_rooms"

type firestoreRoomRepository struct {
	client *firestore.Client
}

func NewFirestoreRoomRepository(client *firestore.Client) repository.RoomRepository {
	return &firestoreRoomRepository{
		client: client,
	}
}

func (r *firestoreRoomRepository) GetByID(ctx context.Context, id string) (*entity.Room, error) {
	doc, err := r.client.Collection(roomsCollection).Doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, errors.NotFound("Chat room", err)
		}
		return nil, errors.Internal("Failed to get chat room", err)
	}

	var room entity.Room
	if err := doc.DataTo(&room); err != nil {
		return nil, errors.Internal("Failed to parse chat room data", err)
	}
	return &room, nil
}

// CreateIfAbsent runs in a transaction so concurrent first contacts for the
// same pair and listing end up on one document.
func (r *firestoreRoomRepository) CreateIfAbsent(ctx context.Context, room *entity.Room) (*entity.Room, bool, error) {
	ref := r.client.Collection(roomsCollection).Doc(room.ID)
	var stored entity.Room
	created := false

	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		created = false
		doc, err := tx.Get(ref)
		if err == nil {
			return doc.DataTo(&stored)
		}
		if status.Code(err) != codes.NotFound {
			return err
		}

		now := time.Now().UTC()
		stored = *room
		stored.CreatedAt = now
		stored.UpdatedAt = now
		created = true
		return tx.Create(ref, stored)
	})
	if err != nil {
		return nil, false, errors.Internal("Failed to create chat room", err)
	}
	return &stored, created, nil
}
