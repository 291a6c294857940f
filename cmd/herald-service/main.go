// Copyright 2026 The Herald Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/herald-project/herald/lib/clock"
	"github.com/herald-project/herald/lib/config"
	"github.com/herald-project/herald/lib/directory"
	"github.com/herald-project/herald/lib/ref"
	"github.com/herald-project/herald/lib/secret"
	"github.com/herald-project/herald/lib/service"
	"github.com/herald-project/herald/lib/subscription"
	"github.com/herald-project/herald/lib/version"
	"github.com/herald-project/herald/messaging"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		configPath  string
		showVersion bool
	)

	flag.StringVar(&configPath, "config", "", "path to the YAML config file (default: $HERALD_CONFIG)")
	flag.BoolVar(&showVersion, "version", false, "print version information and exit")
	flag.Parse()

	if showVersion {
		fmt.Printf("herald-service %s\n", version.Info())
		return nil
	}

	var cfg *config.Config
	var err error
	if configPath != "" {
		cfg, err = config.LoadFile(configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := os.MkdirAll(cfg.Paths.State, 0o700); err != nil {
		return fmt.Errorf("creating state directory: %w", err)
	}

	session, err := establishSession(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer session.Close()

	selfID, err := service.ValidateSession(ctx, session)
	if err != nil {
		return err
	}
	logger.Info("matrix session valid", "user_id", selfID)

	store, err := subscription.OpenStore(subscription.StoreConfig{
		Path:   cfg.Paths.Database,
		Logger: logger,
	})
	if err != nil {
		return fmt.Errorf("opening subscription store: %w", err)
	}
	defer store.Close()

	communityAlias, err := ref.ParseRoomAlias(cfg.Community.RoomAlias)
	if err != nil {
		return fmt.Errorf("invalid community room alias: %w", err)
	}
	communityRoomID, err := session.ResolveAlias(ctx, communityAlias)
	if err != nil {
		return fmt.Errorf("resolving community room %s: %w", communityAlias, err)
	}
	if _, err := session.JoinRoom(ctx, communityRoomID); err != nil {
		return fmt.Errorf("joining community room %s: %w", communityRoomID, err)
	}
	logger.Info("community room ready",
		"alias", communityAlias,
		"room_id", communityRoomID,
	)

	clk := clock.Real()

	hs := &heraldService{
		session:         session,
		selfID:          selfID,
		clock:           clk,
		config:          cfg,
		store:           store,
		index:           directory.NewIndex(),
		communityRoomID: communityRoomID,
		startedAt:       clk.Now(),
		roomNames:       make(map[ref.RoomID]string),
		logger:          logger,
	}

	hs.deliverer = newDeliverer(ctx, session, store, cfg.Delivery.Workers, logger)

	// Initial /sync: accept invites, classify rooms, build the
	// directory.
	sinceToken, err := hs.initialSync(ctx)
	if err != nil {
		return fmt.Errorf("initial sync: %w", err)
	}

	// Admin socket.
	socketServer := service.NewSocketServer(cfg.Paths.Socket, logger)
	hs.registerActions(socketServer)

	socketDone := make(chan error, 1)
	go func() {
		socketDone <- socketServer.Serve(ctx)
	}()

	// Incremental sync loop.
	syncDone := make(chan struct{})
	go func() {
		defer close(syncDone)
		service.RunSyncLoop(ctx, session, service.SyncConfig{
			Filter: syncFilter,
		}, sinceToken, hs.handleSync, clk, logger)
	}()

	logger.Info("herald running",
		"community_room", communityRoomID,
		"consultation_prefix", cfg.Community.ConsultationPrefix,
		"socket", cfg.Paths.Socket,
	)

	<-ctx.Done()
	logger.Info("shutting down")

	// Stop enqueuing before draining: the sync loop is the only
	// producer, so wait for it first.
	<-syncDone
	hs.deliverer.stop()

	if err := <-socketDone; err != nil {
		logger.Error("socket server error", "error", err)
	}

	return nil
}

// establishSession loads the saved Matrix session, or performs a
// password login and saves the result when no session exists yet.
func establishSession(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*messaging.DirectSession, error) {
	client, session, err := service.LoadSession(cfg.Paths.State, cfg.Homeserver.URL, logger)
	if err == nil {
		return session, nil
	}
	if cfg.Homeserver.PasswordFile == "" {
		return nil, fmt.Errorf("no saved session and no password_file configured: %w", err)
	}
	logger.Info("no saved session, logging in", "user_id", cfg.Homeserver.UserID)

	client, err = messaging.NewClient(messaging.ClientConfig{
		HomeserverURL: cfg.Homeserver.URL,
		Logger:        logger,
	})
	if err != nil {
		return nil, err
	}

	// Confirm the homeserver is reachable before sending credentials.
	if _, err := client.ServerVersions(ctx); err != nil {
		return nil, fmt.Errorf("homeserver unreachable: %w", err)
	}

	password, err := secret.ReadFromPath(cfg.Homeserver.PasswordFile)
	if err != nil {
		return nil, fmt.Errorf("reading password: %w", err)
	}
	defer password.Close()

	userID, err := ref.ParseUserID(cfg.Homeserver.UserID)
	if err != nil {
		return nil, fmt.Errorf("invalid homeserver.user_id: %w", err)
	}

	session, err = client.Login(ctx, userID.Localpart(), password)
	if err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}

	if err := service.SaveSession(cfg.Paths.State, cfg.Homeserver.URL, session); err != nil {
		session.Close()
		return nil, err
	}
	return session, nil
}

// heraldService is the core service state. All mutation happens on
// the sync loop goroutine; the directory index and room-name table
// are safe for concurrent reads from delivery workers and socket
// handlers.
type heraldService struct {
	session messaging.Session
	selfID  ref.UserID
	clock   clock.Clock

	config *config.Config
	store  *subscription.Store
	index  *directory.Index

	deliverer *deliverer

	communityRoomID ref.RoomID
	startedAt       time.Time

	// mu guards roomNames. Written by the sync loop, read by socket
	// handlers.
	mu        sync.Mutex
	roomNames map[ref.RoomID]string

	logger *slog.Logger
}
