package usecase

import (
	"context"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"marketchat/internal/domain/entity"
	"marketchat/internal/domain/repository"
	"marketchat/internal/infrastructure/ratelimit"
	"marketchat/internal/infrastructure/telemetry"
	"marketchat/pkg/errors"
	"marketchat/pkg/logger"
)

// roomNamespace seeds the deterministic room ids.
var roomNamespace = uuid.MustParse("8f0d7f52-6a43-4c55-9b57-2d1c34f2b6a1")

const actionCreateRoom = "create_room"

// ChatRoomUseCase serves room lookups and the idempotent create-or-get.
type ChatRoomUseCase struct {
	roomRepo       repository.RoomRepository
	listingRepo    repository.ListingRepository
	rateLimiter    *ratelimit.RateLimiter
	referencesOnly bool
}

type ChatRoomOption func(*ChatRoomUseCase)

// WithListingReferences makes room payloads carry only itemTransactionId,
// the shape of legacy room responses. Clients then fetch the listing.
func WithListingReferences() ChatRoomOption {
	return func(uc *ChatRoomUseCase) {
		uc.referencesOnly = true
	}
}

func NewChatRoomUseCase(
	roomRepo repository.RoomRepository,
	listingRepo repository.ListingRepository,
	rateLimiter *ratelimit.RateLimiter,
	opts ...ChatRoomOption,
) *ChatRoomUseCase {
	uc := &ChatRoomUseCase{
		roomRepo:    roomRepo,
		listingRepo: listingRepo,
		rateLimiter: rateLimiter,
	}
	for _, opt := range opts {
		opt(uc)
	}
	return uc
}

// RoomID derives the room id for an unordered participant pair and a listing.
func RoomID(userA, userB string, itemID int64) string {
	pair := []string{userA, userB}
	sort.Strings(pair)
	key := strings.Join(pair, "\x00") + "\x00" + strconv.FormatInt(itemID, 10)
	return uuid.NewSHA1(roomNamespace, []byte(key)).String()
}

// CreateOrGet returns the room for (userId, otherUserId, itemId), creating it
// on first contact. Repeated calls return the same room.
func (uc *ChatRoomUseCase) CreateOrGet(ctx context.Context, req entity.CreateRoomRequest) (*entity.RoomLookup, error) {
	if req.UserID == req.OtherUserID {
		logger.Warn("CreateOrGet: user %s attempted to create a room with themselves", req.UserID)
		return nil, errors.BadRequest("You cannot create a chat with yourself", nil)
	}

	if uc.rateLimiter != nil {
		if allowed, wait := uc.rateLimiter.Allow(req.UserID, actionCreateRoom); !allowed {
			logger.Warn("CreateOrGet rate limited: user %s must wait %v", req.UserID, wait)
			return nil, errors.TooManyRequests("Rate limit exceeded. Please wait before opening another chat")
		}
	}

	participants := []string{req.UserID, req.OtherUserID}
	sort.Strings(participants)
	room, created, err := uc.roomRepo.CreateIfAbsent(ctx, &entity.Room{
		ID:           RoomID(req.UserID, req.OtherUserID, req.ItemID),
		Participants: participants,
		ItemID:       req.ItemID,
	})
	if err != nil {
		logger.Error("CreateOrGet: failed to store room: %v", err)
		return nil, err
	}
	if created {
		telemetry.RecordRoomCreated()
		logger.Info("Room %s created for item %d", room.ID, room.ItemID)
	}

	return uc.view(ctx, room, req.UserID)
}

// Lookup returns the room as seen by userID, who must be a participant.
func (uc *ChatRoomUseCase) Lookup(ctx context.Context, roomID, userID string) (*entity.RoomLookup, error) {
	room, err := uc.roomRepo.GetByID(ctx, roomID)
	if err != nil {
		return nil, err
	}
	if !room.HasParticipant(userID) {
		return nil, errors.Forbidden("You are not a participant of this chat", nil)
	}
	return uc.view(ctx, room, userID)
}

// view flattens the listing into the payload when the catalog knows it and
// otherwise leaves only itemTransactionId for the client to fetch.
func (uc *ChatRoomUseCase) view(ctx context.Context, room *entity.Room, userID string) (*entity.RoomLookup, error) {
	out := &entity.RoomLookup{
		RoomID:      entity.FlexString(room.ID),
		ID:          entity.FlexString(room.ID),
		OtherUserID: entity.FlexString(room.OtherParticipant(userID)),
		UpdatedAt:   room.UpdatedAt.UTC().Format(time.RFC3339),
	}
	if room.ItemID == 0 {
		return out, nil
	}
	if uc.referencesOnly {
		out.ItemTransactionID = entity.FlexInt(room.ItemID)
		return out, nil
	}

	listing, err := uc.listingRepo.GetByID(ctx, room.ItemID)
	switch {
	case errors.Is(err, errors.CodeNotFound):
		out.ItemTransactionID = entity.FlexInt(room.ItemID)
	case err != nil:
		return nil, err
	default:
		out.ItemID = entity.FlexInt(listing.ID)
		out.ItemTitle = listing.Title
		out.ItemPrice = entity.FlexInt(listing.Price)
		out.ItemImageURL = listing.ImageURL
		out.Status = listing.Status
	}
	return out, nil
}
