package repository

import (
	"context"

	"marketchat/internal/domain/entity"
)

type RoomRepository interface {
	GetByID(ctx context.Context, id string) (*entity.Room, error)
	// CreateIfAbsent stores room unless a room with the same id exists. It
	// returns the stored room and whether this call created it.
	CreateIfAbsent(ctx context.Context, room *entity.Room) (*entity.Room, bool, error)
}
