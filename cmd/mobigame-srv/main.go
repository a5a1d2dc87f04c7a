package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/bloops-games/mobigame/internal/cache"
	"github.com/bloops-games/mobigame/internal/database"
	gameDb "github.com/bloops-games/mobigame/internal/database/game/database"
	playerDb "github.com/bloops-games/mobigame/internal/database/player/database"
	questionDb "github.com/bloops-games/mobigame/internal/database/question/database"
	"github.com/bloops-games/mobigame/internal/database/sqlite"
	"github.com/bloops-games/mobigame/internal/logging"
	"github.com/bloops-games/mobigame/internal/mobigame"
	"github.com/bloops-games/mobigame/internal/server"
	"github.com/bloops-games/mobigame/internal/shutdown"
	"github.com/kelseyhightower/envconfig"
	"golang.org/x/sync/errgroup"
)

func main() {
	ctx, done := shutdown.New()
	defer done()

	config := mobigame.Config{}
	if err := envconfig.Process("", &config); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "processing the config: %v\n", err)
		os.Exit(1)
	}

	logger := logging.NewLogger(config.Debug).Named("mobigame")
	ctx = logging.WithLogger(ctx, logger)
	defer func() { _ = logger.Sync() }()

	if err := realMain(ctx, &config); err != nil {
		logger.Fatalf("main.realMain: %v", err)
	}
}

func realMain(ctx context.Context, config *mobigame.Config) error {
	logger := logging.FromContext(ctx)

	db, err := database.NewFromEnv(ctx, &config.DB)
	if err != nil {
		return fmt.Errorf("new database from env: %w", err)
	}

	defer db.Close(ctx)

	playerCache, err := cache.NewLRU(config.CacheSize)
	if err != nil {
		return fmt.Errorf("can not create lru cache: %w", err)
	}

	questionCache, err := cache.NewLRU(config.CacheSize)
	if err != nil {
		return fmt.Errorf("can not create lru cache: %w", err)
	}

	games, closeGames, err := gameStore(ctx, config, db)
	if err != nil {
		return err
	}

	defer closeGames()

	directory := mobigame.NewDirectory(games, questionDb.New(db, questionCache), playerDb.New(db, playerCache), config)

	srv, err := server.New(config.Port)
	if err != nil {
		return fmt.Errorf("server.New: %w", err)
	}
	logger.Infof("listening on %s", srv.Addr())

	mux := http.NewServeMux()
	mux.Handle("/health", server.HandleHealth(ctx))
	mux.Handle(server.StatusPath, server.HandleStatus(ctx, directory))
	server.NewPlay(directory).Register(ctx, mux)

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.ServeHTTP(gCtx, &http.Server{Handler: mux, ReadHeaderTimeout: 10 * time.Second})
	})
	g.Go(func() error {
		return sweep(gCtx, directory, config.SweepInterval)
	})

	return g.Wait()
}

// gameStore opens the configured game record backend.
func gameStore(ctx context.Context, config *mobigame.Config, db *database.DB) (mobigame.GameStore, func(), error) {
	switch config.GameStore {
	case mobigame.GameStoreBolt:
		return gameDb.New(db), func() {}, nil
	case mobigame.GameStoreSQLite:
		store, err := sqlite.Open(ctx, &config.SQLite)
		if err != nil {
			return nil, nil, fmt.Errorf("sqlite.Open: %w", err)
		}
		return store, func() { _ = store.Close(ctx) }, nil
	default:
		return nil, nil, fmt.Errorf("unknown game store %q", config.GameStore)
	}
}

// sweep retires idle games until ctx is done.
func sweep(ctx context.Context, directory *mobigame.Directory, interval time.Duration) error {
	logger := logging.FromContext(ctx).Named("sweep")
	if interval <= 0 {
		return fmt.Errorf("sweep interval must be positive, got %s", interval)
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := directory.Sweep(ctx); err != nil {
				logger.Errorf("sweep: %v", err)
			}
		}
	}
}
