package main

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"google.golang.org/api/option"

	"marketchat/internal/adapter/api"
	"marketchat/internal/adapter/api/handler"
	"marketchat/internal/adapter/api/router"
	"marketchat/internal/adapter/repository"
	"marketchat/internal/domain/entity"
	domainrepo "marketchat/internal/domain/repository"
	"marketchat/internal/infrastructure/ratelimit"
	"marketchat/internal/infrastructure/telemetry"
	"marketchat/internal/usecase"
	"marketchat/pkg/config"
	"marketchat/pkg/logger"
)

const serviceVersion = "1.0.0"

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	ctx := context.Background()

	shutdownTracing, err := telemetry.InitTracing("marketchat-api", serviceVersion)
	if err != nil {
		log.Fatalf("Failed to initialize tracing: %v", err)
	}
	defer shutdownTracing()
	telemetry.Init()

	var (
		roomRepo    domainrepo.RoomRepository
		listingRepo domainrepo.ListingRepository
	)
	switch cfg.StoreDriver {
	case config.StoreDriverFirestore:
		firestoreClient, err := firestore.NewClient(ctx, cfg.FirebaseProject, firestoreOptions(cfg)...)
		if err != nil {
			log.Fatalf("Failed to create Firestore client: %v", err)
		}
		defer firestoreClient.Close()

		roomRepo = repository.NewFirestoreRoomRepository(firestoreClient)
		listingRepo = repository.NewFirestoreListingRepository(firestoreClient)
	default:
		roomRepo = repository.NewMemoryRoomRepository()
		listingRepo = repository.NewMemoryListingRepository()
	}

	createRoomLimiter := ratelimit.NewRateLimiter(map[string]ratelimit.Limit{
		"create_room": ratelimit.PerMinute(cfg.CreateRoomRatePerMin),
	}, ratelimit.PerMinute(cfg.CreateRoomRatePerMin))
	httpLimiter := ratelimit.NewRateLimiter(nil, ratelimit.PerMinute(cfg.HTTPRatePerMin))

	stopCleanup := make(chan struct{})
	defer close(stopCleanup)
	createRoomLimiter.StartCleanupRoutine(5*time.Minute, stopCleanup)
	httpLimiter.StartCleanupRoutine(5*time.Minute, stopCleanup)

	var roomOpts []usecase.ChatRoomOption
	if cfg.RoomListingMode == config.RoomListingReference {
		roomOpts = append(roomOpts, usecase.WithListingReferences())
	}

	listingUseCase := usecase.NewListingUseCase(listingRepo)
	chatRoomUseCase := usecase.NewChatRoomUseCase(roomRepo, listingRepo, createRoomLimiter, roomOpts...)

	if cfg.SeedItemsPath != "" {
		if err := seedListings(ctx, listingUseCase, cfg.SeedItemsPath); err != nil {
			log.Fatalf("Failed to seed listings: %v", err)
		}
	}

	e := echo.New()
	e.HideBanner = true

	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())
	if telemetry.IsTracingEnabled() {
		e.Use(echo.WrapMiddleware(func(next http.Handler) http.Handler {
			return otelhttp.NewHandler(next, "marketchat-api")
		}))
	}

	e.Validator = api.NewValidator()

	router.Setup(e, router.Handlers{
		ChatRoom: handler.NewChatRoomHandler(chatRoomUseCase),
		Listing:  handler.NewListingHandler(listingUseCase),
		Health:   handler.NewHealthHandler(cfg.StoreDriver),
	}, httpLimiter)

	go func() {
		log.Printf("Starting server on port %s (store=%s, rooms=%s)...", cfg.ServerPort, cfg.StoreDriver, cfg.RoomListingMode)
		if err := e.Start(":" + cfg.ServerPort); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	quit, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-quit.Done()

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown failed: %v", err)
	}
	log.Printf("Server stopped")
}

// firestoreOptions prefers inline service-account JSON, then a credentials
// file, then application default credentials.
func firestoreOptions(cfg *config.Config) []option.ClientOption {
	switch {
	case cfg.FirebaseCredentialsJSON != "":
		log.Printf("Using Firebase service account from environment variable")
		return []option.ClientOption{option.WithCredentialsJSON([]byte(cfg.FirebaseCredentialsJSON))}
	case cfg.FirebaseCredentialsPath != "":
		if _, err := os.Stat(cfg.FirebaseCredentialsPath); os.IsNotExist(err) {
			log.Fatalf("Service account file does not exist: %s", cfg.FirebaseCredentialsPath)
		}
		log.Printf("Using Firebase service account from file: %s", cfg.FirebaseCredentialsPath)
		return []option.ClientOption{option.WithCredentialsFile(cfg.FirebaseCredentialsPath)}
	}
	log.Printf("Using application default credentials for Firestore")
	return nil
}

func seedListings(ctx context.Context, uc *usecase.ListingUseCase, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var listings []entity.Listing
	if err := json.Unmarshal(data, &listings); err != nil {
		return err
	}
	if err := uc.Seed(ctx, listings); err != nil {
		return err
	}
	logger.Info("Seeded %d listings from %s", len(listings), path)
	return nil
}
