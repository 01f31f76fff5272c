package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	ServerPort      string
	Environment     string
	ChatAPIBaseURL  string
	RequestTimeout  time.Duration
	LocalStorePath  string
	StoreDriver     string
	FirebaseProject string
	SeedItemsPath   string
	MetricsAddr     string
	LogFile         string
	RoomListingMode string

	FirebaseCredentialsJSON string
	FirebaseCredentialsPath string

	CreateRoomRatePerMin int
	HTTPRatePerMin       int
}

const (
	StoreDriverMemory    = "memory"
	StoreDriverFirestore = "firestore"

	// RoomListingFlatten embeds known listings into room payloads;
	// RoomListingReference sends only itemTransactionId.
	RoomListingFlatten   = "flatten"
	RoomListingReference = "reference"
)

func Load() (*Config, error) {
	godotenv.Load()

	config := &Config{
		ServerPort:      getEnv("SERVER_PORT", "8080"),
		Environment:     getEnv("ENVIRONMENT", "development"),
		ChatAPIBaseURL:  getEnv("CHAT_API_BASE_URL", "http://localhost:8080/api"),
		RequestTimeout:  getEnvAsDuration("REQUEST_TIMEOUT", 15*time.Second),
		LocalStorePath:  getEnv("LOCAL_STORE_PATH", "marketchat.db"),
		StoreDriver:     getEnv("STORE_DRIVER", StoreDriverMemory),
		FirebaseProject: getEnv("FIREBASE_PROJECT_ID", ""),
		SeedItemsPath:   getEnv("SEED_ITEMS_PATH", ""),
		MetricsAddr:     getEnv("METRICS_ADDR", ""),
		LogFile:         getEnv("LOG_FILE", "chatview.log"),
		RoomListingMode: getEnv("ROOM_LISTING_MODE", RoomListingFlatten),

		FirebaseCredentialsJSON: getEnv("FIREBASE_SERVICE_ACCOUNT_JSON", ""),
		FirebaseCredentialsPath: getEnv("FIREBASE_SERVICE_ACCOUNT_PATH", ""),

		CreateRoomRatePerMin: getEnvAsInt("CREATE_ROOM_RATE_PER_MIN", 30),
		HTTPRatePerMin:       getEnvAsInt("HTTP_RATE_PER_MIN", 600),
	}

	if config.StoreDriver != StoreDriverMemory && config.StoreDriver != StoreDriverFirestore {
		return nil, fmt.Errorf("unknown STORE_DRIVER %q", config.StoreDriver)
	}
	if config.StoreDriver == StoreDriverFirestore && config.FirebaseProject == "" {
		return nil, fmt.Errorf("FIREBASE_PROJECT_ID is required when STORE_DRIVER=firestore")
	}
	if config.RoomListingMode != RoomListingFlatten && config.RoomListingMode != RoomListingReference {
		return nil, fmt.Errorf("unknown ROOM_LISTING_MODE %q", config.RoomListingMode)
	}

	return config, nil
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		intValue, err := strconv.Atoi(value)
		if err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvAsDuration accepts Go durations ("15s") or a bare number of seconds.
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	value, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}
	if d, err := time.ParseDuration(value); err == nil && d > 0 {
		return d
	}
	if secs, err := strconv.Atoi(value); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}
	return defaultValue
}
