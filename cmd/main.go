package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/gameport/arena/config"
	"github.com/gameport/arena/db"
	"github.com/gameport/arena/handlers"
	"github.com/gameport/arena/realtime"
	api "github.com/gameport/arena/routes"
	"github.com/gameport/arena/services"
	"github.com/gameport/arena/storage"
	"github.com/gameport/arena/store"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("configuration loaded",
		slog.Int("port", cfg.ServerPort),
		slog.String("storage_driver", cfg.StorageDriver),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Origin id distinguishes this process's own change notifications from
	// everyone else's.
	origin := uuid.NewString()

	var keyed store.KeyedStore
	var bridge *store.Bridge

	switch cfg.StorageDriver {
	case config.DriverPostgres:
		dbConn, err := db.Connect(cfg.DatabaseURL, 5*time.Second)
		if err != nil {
			logger.Error("failed to connect to database", slog.Any("error", err))
			os.Exit(1)
		}
		defer func() {
			if err := dbConn.Close(); err != nil {
				logger.Error("failed to close database connection", slog.Any("error", err))
			}
		}()
		if err := db.EnsureSchema(ctx, dbConn); err != nil {
			logger.Error("failed to ensure schema", slog.Any("error", err))
			os.Exit(1)
		}
		logger.Info("database connection established")
		keyed = store.NewPostgresStore(dbConn, cfg.KVNamespace, cfg.NotifyChannel, origin)

	case config.DriverMemory:
		logger.Warn("using in-memory storage; data will not survive a restart")
		keyed = store.NewMemoryStore()
	}

	dataStore := store.New(keyed, logger)

	if cfg.StorageDriver == config.DriverPostgres {
		bridge = store.NewBridge(cfg.DatabaseURL, cfg.NotifyChannel, origin, keyed, dataStore.Bus(), logger)
	}

	var uploader storage.FileUploader
	if cfg.HasR2() {
		uploader, err = storage.NewCloudflareR2Uploader(storage.CloudflareR2UploaderConfig{
			AccountID:       cfg.R2AccountID,
			AccessKeyID:     cfg.R2AccessKeyID,
			SecretAccessKey: cfg.R2SecretAccessKey,
			BucketName:      cfg.R2BucketName,
			PublicBaseURL:   cfg.R2PublicBaseURL,
		})
		if err != nil {
			logger.Error("failed to initialize R2 uploader", slog.Any("error", err))
			os.Exit(1)
		}
		logger.Info("R2 uploader initialized")
	} else {
		logger.Warn("R2 not configured; avatar uploads disabled")
	}

	hub := realtime.NewHub(dataStore, logger)

	tournamentService := services.NewTournamentService(dataStore, uploader, logger)
	chatService := services.NewChatService(dataStore, logger)
	logger.Info("services initialized")

	tournamentHandler := handlers.NewTournamentHandler(tournamentService)
	chatHandler := handlers.NewChatHandler(chatService)
	webSocketHandler := handlers.NewWebSocketHandler(hub, tournamentService, logger)

	router := chi.NewRouter()
	api.SetupRoutes(router, tournamentHandler, chatHandler, webSocketHandler)
	logger.Info("routes configured")

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("starting server", slog.String("address", server.Addr))
		if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	if bridge != nil {
		g.Go(func() error {
			return bridge.Run(gCtx)
		})
	}

	g.Go(func() error {
		<-gCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()

		logger.Info("shutting down server", slog.Duration("timeout", 15*time.Second))
		if err := server.Shutdown(shutdownCtx); err != nil {
			if closeErr := server.Close(); closeErr != nil {
				logger.Error("failed to force close server", slog.Any("error", closeErr))
			}
			return err
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("application exited with error", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("application exited")
}
