package repository

import (
	"context"
	"sync"
	"time"

	"marketchat/internal/domain/entity"
	"marketchat/internal/domain/repository"
	"marketchat/pkg/errors"
)

type memoryRoomRepository struct {
	mu    sync.Mutex
	rooms map[string]entity.Room
}

func NewMemoryRoomRepository() repository.RoomRepository {
	return &memoryRoomRepository{rooms: make(map[string]entity.Room)}
}

func (r *memoryRoomRepository) GetByID(ctx context.Context, id string) (*entity.Room, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	room, ok := r.rooms[id]
	if !ok {
		return nil, errors.NotFound("Chat room", nil)
	}
	return cloneRoom(room), nil
}

func (r *memoryRoomRepository) CreateIfAbsent(ctx context.Context, room *entity.Room) (*entity.Room, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.rooms[room.ID]; ok {
		return cloneRoom(existing), false, nil
	}
	now := time.Now().UTC()
	stored := *cloneRoom(*room)
	stored.CreatedAt = now
	stored.UpdatedAt = now
	r.rooms[room.ID] = stored
	return cloneRoom(stored), true, nil
}

func cloneRoom(room entity.Room) *entity.Room {
	room.Participants = append([]string(nil), room.Participants...)
	return &room
}
