package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"marketchat/internal/domain/entity"
	"marketchat/internal/domain/repository"
	"marketchat/internal/infrastructure/telemetry"
	"marketchat/pkg/logger"
)

// Outcome reports how a status change was applied. Neither value is an error:
// the user-facing flow treats the transaction as complete either way.
type Outcome int

const (
	RemoteApplied Outcome = iota
	LocalFallback
)

func (o Outcome) String() string {
	if o == RemoteApplied {
		return "remote_applied"
	}
	return "local_fallback"
}

// StatusSynchronizer applies listing status transitions remotely and mirrors
// them into the locally cached listing collection.
type StatusSynchronizer struct {
	backend repository.ChatBackend
	local   repository.KVStore
	now     func() time.Time
}

func NewStatusSynchronizer(backend repository.ChatBackend, local repository.KVStore) *StatusSynchronizer {
	return &StatusSynchronizer{
		backend: backend,
		local:   local,
		now:     time.Now,
	}
}

// ApplyStatus sends the transition to the backend and rewrites the local
// cache. A request failure and a {success:false} reply both end in
// LocalFallback.
func (s *StatusSynchronizer) ApplyStatus(ctx context.Context, listingID int64, newStatus string, identity entity.Identity) Outcome {
	outcome := LocalFallback
	resp, err := s.backend.UpdateListingStatus(ctx, listingID, entity.StatusUpdateRequest{
		Status: newStatus,
		UserID: identity.String(),
	})
	switch {
	case err != nil:
		logger.LogStatusFallback(listingID, newStatus, err)
	case !resp.Success:
		logger.LogStatusFallback(listingID, newStatus, fmt.Errorf("backend reported success=false"))
	default:
		outcome = RemoteApplied
		logger.Info("Listing %d status set to %s by %s", listingID, newStatus, identity)
	}

	if err := s.rewriteCache(listingID, newStatus); err != nil {
		logger.Error("Listing cache rewrite failed: listingID=%d, error=%v", listingID, err)
	}
	telemetry.RecordStatusUpdate(outcome.String())
	return outcome
}

// rewriteCache sets status and updatedAt on the matching cached record and
// re-sorts the collection newest first.
func (s *StatusSynchronizer) rewriteCache(listingID int64, newStatus string) error {
	items := s.loadCache()
	stamp := s.now().UTC().Format(time.RFC3339Nano)
	for i := range items {
		if items[i].MatchesID(listingID) {
			items[i].Status = newStatus
			items[i].UpdatedAt = stamp
		}
	}
	entity.SortByRecency(items)

	payload, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("encode listing cache: %w", err)
	}
	return s.local.Set(entity.ListingsCacheKey, string(payload))
}

// loadCache returns the cached collection; missing or malformed data reads as
// empty. Records that are not listing objects are kept opaque.
func (s *StatusSynchronizer) loadCache() []entity.CachedListing {
	raw, ok, err := s.local.Get(entity.ListingsCacheKey)
	if err != nil {
		logger.Warn("Listing cache read failed: %v", err)
		return []entity.CachedListing{}
	}
	if !ok || raw == "" {
		return []entity.CachedListing{}
	}
	items, err := entity.DecodeCachedListings([]byte(raw))
	if err != nil {
		logger.Warn("Listing cache is malformed, treating as empty: %v", err)
		return []entity.CachedListing{}
	}
	if items == nil {
		items = []entity.CachedListing{}
	}
	return items
}

// CachedListings returns the cached collection in stored order.
func (s *StatusSynchronizer) CachedListings() []entity.CachedListing {
	return s.loadCache()
}
