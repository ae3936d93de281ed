package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/iudanet/hoteldesk/internal/client/api"
	"github.com/iudanet/hoteldesk/internal/client/auth"
	"github.com/iudanet/hoteldesk/internal/client/cli"
	"github.com/iudanet/hoteldesk/internal/client/events"
	"github.com/iudanet/hoteldesk/internal/client/iocli"
	"github.com/iudanet/hoteldesk/internal/client/notify"
	"github.com/iudanet/hoteldesk/internal/client/reservations"
	"github.com/iudanet/hoteldesk/internal/client/storage"
	"github.com/iudanet/hoteldesk/internal/client/storage/boltdb"
	"github.com/iudanet/hoteldesk/internal/client/storage/sqlite"
	"github.com/iudanet/hoteldesk/internal/config"
)

var (
	// Version information set via ldflags during build
	Version   = "dev"
	BuildDate = "unknown"
	GitCommit = "unknown"
)

func main() {
	os.Exit(run())
}

func run() int {
	stdio := iocli.NewStdio()

	cfg, args, err := config.Load(os.Args[1:], os.Stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			cli.PrintUsage(stdio)
			config.Usage(os.Stdout)
			return 0
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 2
	}

	// Show version and exit if requested
	if cfg.ShowVersion {
		printVersion()
		return 0
	}

	level, _ := cfg.SlogLevel()
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	if len(args) == 0 {
		cli.PrintUsage(stdio)
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Открываем BoltDB storage
	boltStorage, err := boltdb.New(ctx, cfg.DBPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open database: %v\n", err)
		return 1
	}
	defer func() {
		if err := boltStorage.Close(); err != nil {
			logger.Error("failed to close database", "error", err)
		}
	}()

	var credentials storage.CredentialStore = boltStorage
	if cfg.StorePassphrase != "" {
		sealed, err := auth.OpenSealedStore(ctx, boltStorage, cfg.StorePassphrase, logger)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to open encrypted credentials: %v\n", err)
			return 1
		}
		credentials = sealed
	}

	// Кэш броней не обязателен: без него нет только офлайн режима
	var snapshots storage.SnapshotStore
	cache, err := sqlite.New(ctx, cfg.CachePath)
	if err != nil {
		logger.Warn("Reservations cache disabled", "path", cfg.CachePath, "error", err)
	} else {
		snapshots = cache
		defer func() {
			if err := cache.Close(); err != nil {
				logger.Error("failed to close cache", "error", err)
			}
		}()
	}

	bus := notify.NewBus(logger)
	defer bus.Close()
	notifications, unsubscribe := bus.Subscribe(32)
	defer unsubscribe()

	// Создаем API клиент
	apiClient := api.NewClient(api.Config{
		Transport: api.NewLoggingTransport(nil, logger),
		BaseURL:   cfg.Server,
		Paths: api.Paths{
			Login:           cfg.Paths.Login,
			Refresh:         cfg.Paths.Refresh,
			Reservations:    cfg.Paths.Reservations,
			DashboardStream: cfg.Paths.DashboardStream,
		},
		Timeout:        cfg.Timeout,
		RefreshTimeout: cfg.RefreshTimeout,
	}, credentials, logger)

	session := auth.NewSession(ctx, apiClient, credentials, bus, logger)
	session.UseSnapshotCache(snapshots)
	apiClient.OnSessionExpired(session.Expire)

	reservationService := reservations.NewService(apiClient, snapshots, boltStorage, bus, logger, cfg.CleaningWindow)
	subscriber := events.NewSubscriber(apiClient, bus, logger)

	app := cli.New(stdio, session, reservationService, subscriber, notifications)
	if err := app.Run(ctx, args[0], args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		if errors.Is(err, cli.ErrUnknownCommand) {
			cli.PrintUsage(stdio)
		}
		return 1
	}

	return 0
}

func printVersion() {
	fmt.Printf("HotelDesk Client\n")
	fmt.Printf("Version:    %s\n", Version)
	fmt.Printf("Build Date: %s\n", BuildDate)
	fmt.Printf("Git Commit: %s\n", GitCommit)
}
