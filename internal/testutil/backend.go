// Package testutil runs the reference backend in-process for tests.
package testutil

import (
	"context"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/labstack/echo/v4"

	"marketchat/internal/adapter/api"
	"marketchat/internal/adapter/api/handler"
	"marketchat/internal/adapter/api/router"
	"marketchat/internal/adapter/repository"
	"marketchat/internal/domain/entity"
	"marketchat/internal/usecase"
)

// Backend is a seeded reference backend served by httptest. It records every
// request it receives.
type Backend struct {
	Server   *httptest.Server
	Listings *usecase.ListingUseCase
	Rooms    *usecase.ChatRoomUseCase

	mu       sync.Mutex
	requests []string
}

// NewBackend starts a backend with in-memory storage seeded with listings.
func NewBackend(t testing.TB, listings ...entity.Listing) *Backend {
	t.Helper()
	return newBackend(t, nil, listings)
}

// NewReferenceBackend starts a backend whose room payloads carry only
// itemTransactionId, so clients must fetch the listing.
func NewReferenceBackend(t testing.TB, listings ...entity.Listing) *Backend {
	t.Helper()
	return newBackend(t, []usecase.ChatRoomOption{usecase.WithListingReferences()}, listings)
}

func newBackend(t testing.TB, roomOpts []usecase.ChatRoomOption, listings []entity.Listing) *Backend {
	t.Helper()

	listingRepo := repository.NewMemoryListingRepository()
	b := &Backend{
		Listings: usecase.NewListingUseCase(listingRepo),
		Rooms:    usecase.NewChatRoomUseCase(repository.NewMemoryRoomRepository(), listingRepo, nil, roomOpts...),
	}
	if err := b.Listings.Seed(context.Background(), listings); err != nil {
		t.Fatalf("seed listings: %v", err)
	}

	e := echo.New()
	e.HideBanner = true
	e.Validator = api.NewValidator()
	e.Pre(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			b.record(c.Request().Method + " " + c.Request().URL.Path)
			return next(c)
		}
	})
	router.Setup(e, router.Handlers{
		ChatRoom: handler.NewChatRoomHandler(b.Rooms),
		Listing:  handler.NewListingHandler(b.Listings),
		Health:   handler.NewHealthHandler("memory"),
	}, nil)

	b.Server = httptest.NewServer(e)
	t.Cleanup(b.Server.Close)
	return b
}

// BaseURL is the API base the client should be pointed at.
func (b *Backend) BaseURL() string {
	return b.Server.URL + router.BasePath
}

func (b *Backend) record(line string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.requests = append(b.requests, line)
}

// Requests returns the "METHOD /path" lines received so far.
func (b *Backend) Requests() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.requests...)
}

// Count returns how many requests matched method and path prefix.
func (b *Backend) Count(method, pathPrefix string) int {
	n := 0
	for _, line := range b.Requests() {
		if strings.HasPrefix(line, method+" "+pathPrefix) {
			n++
		}
	}
	return n
}
