package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bloops-games/mobigame/internal/logging"
	bolt "go.etcd.io/bbolt"
)

// ErrNotFound is returned by every store when the requested entry does not exist.
var ErrNotFound = errors.New("not found")

type Config struct {
	FilePath    string        `envconfig:"MOBIGAME_DB_FILE_PATH" default:"mobigame.db"`
	OpenTimeout time.Duration `envconfig:"MOBIGAME_DB_OPEN_TIMEOUT" default:"5s"`
}

type DB struct {
	DB *bolt.DB
}

func NewFromEnv(ctx context.Context, config *Config) (*DB, error) {
	logger := logging.FromContext(ctx)
	logger.Infof("opening bolt database %s", config.FilePath)

	db, err := bolt.Open(config.FilePath, 0600, &bolt.Options{Timeout: config.OpenTimeout})
	if err != nil {
		return nil, fmt.Errorf("open bolt db: %w", err)
	}

	return &DB{DB: db}, nil
}

func (db *DB) Close(ctx context.Context) error {
	logger := logging.FromContext(ctx)
	logger.Infof("closing bolt database")

	if err := db.DB.Close(); err != nil {
		return fmt.Errorf("close bolt db: %w", err)
	}

	return nil
}
