package usecase

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"marketchat/internal/domain/entity"
	"marketchat/internal/infrastructure/kvstore"
	"marketchat/pkg/errors"
)

const seededCache = `[
	{"id":7,"title":"Desk","status":"available","updatedAt":"2024-03-01T00:00:00Z"},
	{"id":42,"title":"Bike","status":"reserved","regDate":"2024-01-01"},
	{"id":"9","title":"Lamp","status":"available","regDate":"2024-02-01 10:00:00"}
]`

var fixedNow = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func newTestSynchronizer(backend *fakeBackend, cache string, seed bool) (*StatusSynchronizer, *kvstore.MemoryStore) {
	local := kvstore.NewMemoryStore()
	if seed {
		_ = local.Set(entity.ListingsCacheKey, cache)
	}
	s := NewStatusSynchronizer(backend, local)
	s.now = func() time.Time { return fixedNow }
	return s, local
}

func cachedIDs(items []entity.CachedListing) []string {
	ids := make([]string, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.ID.String())
	}
	return ids
}

func findCached(t *testing.T, items []entity.CachedListing, id int64) entity.CachedListing {
	t.Helper()
	for _, item := range items {
		if item.MatchesID(id) {
			return item
		}
	}
	t.Fatalf("listing %d not in cache", id)
	return entity.CachedListing{}
}

func TestApplyStatusRemoteApplied(t *testing.T) {
	backend := &fakeBackend{
		updateFn: func(ctx context.Context, id int64, req entity.StatusUpdateRequest) (*entity.StatusUpdateResponse, error) {
			assert.Equal(t, int64(42), id)
			assert.Equal(t, entity.StatusUpdateRequest{Status: "done", UserID: "u1"}, req)
			return &entity.StatusUpdateResponse{Success: true}, nil
		},
	}
	s, _ := newTestSynchronizer(backend, seededCache, true)

	outcome := s.ApplyStatus(context.Background(), 42, entity.ListingStatusDone, "u1")

	assert.Equal(t, RemoteApplied, outcome)
	assert.Equal(t, "remote_applied", outcome.String())
	items := s.CachedListings()
	assert.Equal(t, []string{"42", "7", "9"}, cachedIDs(items))
	assert.Equal(t, entity.ListingStatusDone, findCached(t, items, 42).Status)
}

func TestApplyStatusLocalFallbackOnRequestFailure(t *testing.T) {
	backend := &fakeBackend{
		updateFn: func(ctx context.Context, id int64, req entity.StatusUpdateRequest) (*entity.StatusUpdateResponse, error) {
			return nil, errors.NetworkOrServer("PUT failed", http.StatusBadGateway, nil)
		},
	}
	s, _ := newTestSynchronizer(backend, seededCache, true)

	outcome := s.ApplyStatus(context.Background(), 42, entity.ListingStatusDone, "u1")

	assert.Equal(t, LocalFallback, outcome)
	items := s.CachedListings()
	require.Len(t, items, 3)
	assert.Equal(t, []string{"42", "7", "9"}, cachedIDs(items))

	bike := findCached(t, items, 42)
	assert.Equal(t, entity.ListingStatusDone, bike.Status)
	assert.Equal(t, fixedNow.Format(time.RFC3339Nano), bike.UpdatedAt)
	assert.Equal(t, "2024-01-01", bike.RegDate)
	title, ok := bike.Field("title")
	require.True(t, ok)
	assert.JSONEq(t, `"Bike"`, string(title))

	assert.Equal(t, entity.ListingStatusAvailable, findCached(t, items, 7).Status)
	assert.Empty(t, findCached(t, items, 9).UpdatedAt)
}

func TestApplyStatusLocalFallbackOnUnsuccessfulReply(t *testing.T) {
	backend := &fakeBackend{
		updateFn: func(ctx context.Context, id int64, req entity.StatusUpdateRequest) (*entity.StatusUpdateResponse, error) {
			return &entity.StatusUpdateResponse{Success: false}, nil
		},
	}
	s, _ := newTestSynchronizer(backend, seededCache, true)

	assert.Equal(t, LocalFallback, s.ApplyStatus(context.Background(), 42, entity.ListingStatusDone, "u1"))
	assert.Equal(t, entity.ListingStatusDone, findCached(t, s.CachedListings(), 42).Status)
}

func TestApplyStatusLeavesUnknownListingAlone(t *testing.T) {
	backend := &fakeBackend{}
	s, local := newTestSynchronizer(backend, seededCache, true)

	assert.Equal(t, LocalFallback, s.ApplyStatus(context.Background(), 1000, entity.ListingStatusDone, "u1"))

	items := s.CachedListings()
	assert.Equal(t, []string{"7", "9", "42"}, cachedIDs(items))
	for _, item := range items {
		assert.NotEqual(t, entity.ListingStatusDone, item.Status)
	}
	raw, ok, err := local.Get(entity.ListingsCacheKey)
	require.NoError(t, err)
	require.True(t, ok)
	assert.NotContains(t, raw, fixedNow.Format(time.RFC3339Nano))
}

func TestApplyStatusWithMalformedCache(t *testing.T) {
	backend := &fakeBackend{}
	s, local := newTestSynchronizer(backend, `{"id":42`, true)

	assert.Equal(t, LocalFallback, s.ApplyStatus(context.Background(), 42, entity.ListingStatusDone, "u1"))

	raw, ok, err := local.Get(entity.ListingsCacheKey)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "[]", raw)
	assert.Empty(t, s.CachedListings())
}

func TestApplyStatusKeepsUnreadableRecords(t *testing.T) {
	backend := &fakeBackend{}
	cache := `[
		{"id":42,"title":"Bike","status":"available","regDate":"2024-01-01"},
		{"id":{"legacy":3},"title":"Odd"},
		null,
		"stray",
		{"id":7,"title":"Desk","status":"available","regDate":"2024-02-01"}
	]`
	s, local := newTestSynchronizer(backend, cache, true)

	assert.Equal(t, LocalFallback, s.ApplyStatus(context.Background(), 42, entity.ListingStatusDone, "u1"))

	raw, ok, err := local.Get(entity.ListingsCacheKey)
	require.NoError(t, err)
	require.True(t, ok)

	var records []json.RawMessage
	require.NoError(t, json.Unmarshal([]byte(raw), &records))
	require.Len(t, records, 5)
	assert.JSONEq(t, `{"id":{"legacy":3},"title":"Odd"}`, string(records[2]))
	assert.Equal(t, "null", string(records[3]))
	assert.Equal(t, `"stray"`, string(records[4]))

	items := s.CachedListings()
	require.Len(t, items, 5)
	assert.Equal(t, []string{"42", "7", "", "", ""}, cachedIDs(items))
	bike := findCached(t, items, 42)
	assert.Equal(t, entity.ListingStatusDone, bike.Status)
	assert.Equal(t, fixedNow.Format(time.RFC3339Nano), bike.UpdatedAt)
	assert.Equal(t, entity.ListingStatusAvailable, findCached(t, items, 7).Status)
}

func TestApplyStatusWithoutCache(t *testing.T) {
	backend := &fakeBackend{
		updateFn: func(ctx context.Context, id int64, req entity.StatusUpdateRequest) (*entity.StatusUpdateResponse, error) {
			return &entity.StatusUpdateResponse{Success: true}, nil
		},
	}
	s, local := newTestSynchronizer(backend, "", false)

	assert.Equal(t, RemoteApplied, s.ApplyStatus(context.Background(), 42, entity.ListingStatusDone, "u1"))

	raw, _, _ := local.Get(entity.ListingsCacheKey)
	var decoded []json.RawMessage
	require.NoError(t, json.Unmarshal([]byte(raw), &decoded))
	assert.Empty(t, decoded)
	assert.Equal(t, 1, backend.updateCalls)
}
