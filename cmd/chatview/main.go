package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"marketchat/internal/adapter/tui"
	"marketchat/internal/domain/entity"
	"marketchat/internal/infrastructure/chatapi"
	"marketchat/internal/infrastructure/kvstore"
	"marketchat/internal/infrastructure/telemetry"
	"marketchat/internal/usecase"
	"marketchat/pkg/config"
	"marketchat/pkg/logger"
)

const serviceVersion = "1.0.0"

type options struct {
	roomID      string
	listingPath string
	login       string
	token       string
	name        string
	logout      bool
	whoami      bool
}

func parseFlags() options {
	var opts options
	flag.StringVar(&opts.roomID, "room", "", "Chat room id to open (room link)")
	flag.StringVar(&opts.listingPath, "listing-json", "", "Path to a raw listing JSON to start a chat about")
	flag.StringVar(&opts.login, "login", "", "Cache credentials for this user id and exit")
	flag.StringVar(&opts.token, "token", "", "Auth token cached with --login")
	flag.StringVar(&opts.name, "name", "", "Display name cached with --login")
	flag.BoolVar(&opts.logout, "logout", false, "Clear cached credentials and exit")
	flag.BoolVar(&opts.whoami, "whoami", false, "Print the cached identity and exit")
	flag.Parse()
	return opts
}

func main() {
	opts := parseFlags()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "chatview: %v\n", err)
		os.Exit(1)
	}

	logFile, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		fmt.Fprintf(os.Stderr, "chatview: open log file: %v\n", err)
		os.Exit(1)
	}
	defer logFile.Close()
	logger.SetOutput(logFile)

	db, err := kvstore.OpenSQLite(cfg.LocalStorePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "chatview: open local store: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	local := db.Scope("local")
	session := db.Scope("session")
	identities := usecase.NewIdentityProvider(local, session)

	switch {
	case opts.logout:
		if !identities.ClearAuth() {
			os.Exit(1)
		}
		fmt.Println("Signed out.")
		return
	case opts.login != "":
		if !identities.SetUserInfo(entity.UserInfo{UserID: entity.Identity(opts.login), Token: opts.token, Name: opts.name}) {
			fmt.Fprintf(os.Stderr, "chatview: invalid user id %q\n", opts.login)
			os.Exit(1)
		}
		fmt.Printf("Signed in as %s.\n", opts.login)
		return
	case opts.whoami:
		info, ok := identities.UserInfo()
		if !ok {
			fmt.Println("Not signed in.")
			return
		}
		fmt.Printf("%s (authenticated=%t)\n", info.UserID, identities.IsAuthenticated())
		return
	}

	shutdownTracing, err := telemetry.InitTracing("marketchat-chatview", serviceVersion)
	if err != nil {
		logger.Error("Tracing disabled: %v", err)
	} else {
		defer shutdownTracing()
	}
	telemetry.Init()
	if cfg.MetricsAddr != "" {
		go serveMetrics(cfg.MetricsAddr)
	}

	in := usecase.ResolveInput{RoomID: opts.roomID}
	if opts.listingPath != "" {
		listing, err := readListing(opts.listingPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "chatview: %v\n", err)
			os.Exit(1)
		}
		in.Listing = listing
	}
	identity, ok := identities.CurrentIdentity()
	if ok {
		in.Identity = identity
	}
	logger.Info("Opening chat view: room=%q, hasListing=%t, identity=%q", in.RoomID, in.Listing != nil, in.Identity)

	client := chatapi.NewClient(cfg.ChatAPIBaseURL, chatapi.WithTimeout(cfg.RequestTimeout))
	model := tui.NewModel(tui.Options{
		Resolver:     usecase.NewRoomResolver(client, usecase.NewListingNormalizer()),
		Synchronizer: usecase.NewStatusSynchronizer(client, local),
		Identity:     identity,
		Input:        in,
		ImageBase:    cfg.ChatAPIBaseURL,
	})

	final, err := tea.NewProgram(model, tea.WithAltScreen()).Run()
	// The session scope lives until the view closes.
	if clearErr := session.Clear(); clearErr != nil {
		logger.Warn("Failed to clear session credentials: %v", clearErr)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "chatview fatal error: %v\n", err)
		os.Exit(1)
	}
	if m, ok := final.(tui.Model); ok {
		logger.Info("Chat view closed: %s", m)
		if outcome, done := m.Outcome(); done {
			fmt.Printf("Transaction completed (%s).\n", outcome)
		}
	}
}

func readListing(path string) (*entity.RawListing, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read listing: %w", err)
	}
	var listing entity.RawListing
	if err := json.Unmarshal(data, &listing); err != nil {
		return nil, fmt.Errorf("decode listing: %w", err)
	}
	return &listing, nil
}

func serveMetrics(addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	logger.Info("Metrics listening on %s", addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("Metrics server failed: %v", err)
	}
}
