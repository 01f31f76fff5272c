package usecase

import (
	"context"
	"sync"

	"github.com/go-playground/validator/v10"
	"go.opentelemetry.io/otel/attribute"

	"marketchat/internal/domain/entity"
	"marketchat/internal/domain/repository"
	"marketchat/internal/infrastructure/telemetry"
	"marketchat/pkg/errors"
	"marketchat/pkg/logger"
)

type ResolveState int

const (
	StateIdle ResolveState = iota
	StateResolving
	StateReady
	StateFailed
	// StateStale marks a completion whose inputs were superseded by a later
	// Resolve call. It is never the resolver's own state.
	StateStale
)

func (s ResolveState) String() string {
	switch s {
	case StateResolving:
		return "resolving"
	case StateReady:
		return "ready"
	case StateFailed:
		return "failed"
	case StateStale:
		return "stale"
	default:
		return "idle"
	}
}

// ResolveInput is the snapshot of driving inputs for one resolution pass.
type ResolveInput struct {
	RoomID   string
	Listing  *entity.RawListing
	Identity entity.Identity
}

// Resolution is the outcome of one pass. Exactly one of Room or Failure is
// set for Ready and Failed; Listing may be nil for a Ready room.
type Resolution struct {
	Generation uint64
	State      ResolveState
	Room       *entity.ChatRoom
	Listing    *entity.ListingRef
	Failure    *errors.AppError
	// NavigateAway asks the view to leave after showing the failure.
	NavigateAway bool
}

// RoomResolver determines, or creates, the chat room for a room link or a
// freshly selected listing. Every Resolve call starts a new generation; a
// pass that completes after a newer one started is reported as StateStale and
// leaves the resolver's state alone.
type RoomResolver struct {
	backend    repository.ChatBackend
	normalizer *ListingNormalizer
	validate   *validator.Validate

	mu         sync.Mutex
	generation uint64
	current    Resolution
}

func NewRoomResolver(backend repository.ChatBackend, normalizer *ListingNormalizer) *RoomResolver {
	return &RoomResolver{
		backend:    backend,
		normalizer: normalizer,
		validate:   validator.New(),
	}
}

// State returns the state of the latest resolution pass.
func (r *RoomResolver) State() ResolveState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.current.State
}

// Current returns the latest non-stale resolution.
func (r *RoomResolver) Current() Resolution {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.current
}

// IsCurrent reports whether gen is the latest generation.
func (r *RoomResolver) IsCurrent(gen uint64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return gen == r.generation
}

// Resolve runs one resolution pass for in. Failures are returned inside the
// Resolution, never as a separate error.
func (r *RoomResolver) Resolve(ctx context.Context, in ResolveInput) Resolution {
	gen := r.begin()

	ctx, span := telemetry.StartSpan(ctx, "room.resolve",
		attribute.String("room_id", in.RoomID),
		attribute.Bool("has_listing", in.Listing != nil),
		attribute.Int64("generation", int64(gen)),
	)
	defer span.End()

	res := r.resolve(ctx, gen, in)
	res.Generation = gen
	res = r.finish(res)

	if res.Failure != nil {
		telemetry.RecordError(span, res.Failure)
	} else {
		telemetry.SetSpanSuccess(span)
	}
	return res
}

func (r *RoomResolver) begin() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.generation++
	r.current = Resolution{Generation: r.generation, State: StateResolving}
	return r.generation
}

func (r *RoomResolver) finish(res Resolution) Resolution {
	r.mu.Lock()
	defer r.mu.Unlock()
	if res.State == StateStale || res.Generation != r.generation {
		telemetry.RecordStale()
		logger.Debug("Discarding stale resolution: generation=%d, latest=%d", res.Generation, r.generation)
		return Resolution{Generation: res.Generation, State: StateStale}
	}
	r.current = res
	code := ""
	if res.Failure != nil {
		code = res.Failure.Code
	}
	telemetry.RecordResolution(res.State.String(), code)
	return res
}

func (r *RoomResolver) resolve(ctx context.Context, gen uint64, in ResolveInput) Resolution {
	switch {
	case in.RoomID != "":
		return r.resolveByRoomID(ctx, gen, in)
	case in.Listing != nil && in.Identity != "":
		return r.resolveByListing(ctx, gen, in)
	default:
		logger.Warn("Room resolution without context: roomID=%q, hasListing=%t, identity=%q", in.RoomID, in.Listing != nil, in.Identity)
		return failed(errors.MissingContext("No chat room or listing to open"), false)
	}
}

func (r *RoomResolver) resolveByRoomID(ctx context.Context, gen uint64, in ResolveInput) Resolution {
	if in.Identity == "" {
		return failed(errors.MissingContext("Opening a chat room requires a signed-in user"), false)
	}

	lookup, err := r.backend.LookupRoom(ctx, in.RoomID, in.Identity)
	if err != nil {
		logger.Error("Room lookup failed: roomID=%s, error=%v", in.RoomID, err)
		return failed(asNetworkFailure("Could not load chat room", err), true)
	}
	if !r.IsCurrent(gen) {
		return Resolution{State: StateStale}
	}

	room, failure := buildRoom(in.Identity, lookup, in.RoomID, "")
	if failure != nil {
		return failed(failure, true)
	}

	var listing *entity.ListingRef
	ref, txID, outcome := r.normalizer.NormalizeFromRoom(*lookup)
	switch outcome {
	case ListingReady:
		listing = &ref
	case FetchRequired:
		raw, err := r.backend.GetListing(ctx, txID)
		if err != nil {
			logger.Error("Listing fetch failed: roomID=%s, itemTransactionID=%d, error=%v", in.RoomID, txID, err)
			return failed(asNetworkFailure("Could not load the room's listing", err), true)
		}
		if !r.IsCurrent(gen) {
			return Resolution{State: StateStale}
		}
		ref := r.normalizer.NormalizeFromRaw(*raw)
		if ref.CounterpartyID == "" || ref.CounterpartyID == in.Identity.String() {
			// The viewer is the seller; the buyer is the counterparty.
			ref.CounterpartyID = room.ParticipantB
		}
		listing = &ref
	}

	if listing != nil && listing.ID != 0 {
		room.LinkedListingID = listing.ID
	} else if lookup.ItemID != 0 {
		room.LinkedListingID = lookup.ItemID.Int64()
	}

	return Resolution{State: StateReady, Room: room, Listing: listing}
}

func (r *RoomResolver) resolveByListing(ctx context.Context, gen uint64, in ResolveInput) Resolution {
	ref := r.normalizer.NormalizeFromRaw(*in.Listing)
	counterparty := ref.CounterpartyID

	if counterparty == "" || entity.IsCounterpartySentinel(counterparty) {
		logger.Warn("Listing %d has no usable seller id (%q)", ref.ID, counterparty)
		return failed(errors.InvalidCounterparty("The listing has no seller information"), true)
	}
	if counterparty == in.Identity.String() {
		logger.Warn("User %s attempted to open a chat with themselves on listing %d", in.Identity, ref.ID)
		return failed(errors.InvalidCounterparty("You cannot chat with yourself"), true)
	}

	req := entity.CreateRoomRequest{
		UserID:      in.Identity.String(),
		OtherUserID: counterparty,
		ItemID:      ref.ID,
	}
	if err := r.validate.Struct(req); err != nil {
		logger.Warn("Create room payload rejected: %v", err)
		return failed(errors.MissingContext("The listing is missing its id"), true)
	}

	lookup, err := r.backend.CreateOrGetRoom(ctx, req)
	if err != nil {
		logger.Error("Create-or-get room failed: userID=%s, otherUserID=%s, itemID=%d, error=%v", req.UserID, req.OtherUserID, req.ItemID, err)
		return failed(asNetworkFailure("Could not open a chat room", err), true)
	}
	if !r.IsCurrent(gen) {
		return Resolution{State: StateStale}
	}

	room, failure := buildRoom(in.Identity, lookup, "", counterparty)
	if failure != nil {
		return failed(failure, true)
	}
	room.LinkedListingID = ref.ID

	return Resolution{State: StateReady, Room: room, Listing: &ref}
}

// buildRoom turns a room payload into a ChatRoom seen from identity.
func buildRoom(identity entity.Identity, lookup *entity.RoomLookup, fallbackRoomID, fallbackOther string) (*entity.ChatRoom, *errors.AppError) {
	roomID := lookup.Key()
	if roomID == "" {
		roomID = fallbackRoomID
	}
	if roomID == "" {
		return nil, errors.NetworkOrServer("The backend returned a room without an id", 0, nil)
	}
	other := lookup.OtherUserID.String()
	if other == "" {
		other = fallbackOther
	}
	if other == identity.String() {
		return nil, errors.InvalidCounterparty("The chat room has no other participant")
	}
	return &entity.ChatRoom{
		RoomID:       roomID,
		ParticipantA: identity.String(),
		ParticipantB: other,
	}, nil
}

func failed(failure *errors.AppError, navigateAway bool) Resolution {
	return Resolution{State: StateFailed, Failure: failure, NavigateAway: navigateAway}
}

func asNetworkFailure(message string, err error) *errors.AppError {
	if appErr, ok := errors.As(err); ok && appErr.Code == errors.CodeNetworkOrServer {
		return appErr
	}
	return errors.NetworkOrServer(message, 0, err)
}
