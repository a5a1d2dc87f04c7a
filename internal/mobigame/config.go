package mobigame

import (
	"time"

	"github.com/bloops-games/mobigame/internal/database"
	"github.com/bloops-games/mobigame/internal/database/sqlite"
)

const (
	// MaxPlayers is the fixed capacity of a game.
	MaxPlayers = 4

	FirstLevel = 1
	LastLevel  = 3
)

const (
	GameStoreBolt   = "bolt"
	GameStoreSQLite = "sqlite"
)

type Config struct {
	// Logging level debug
	Debug bool `envconfig:"MOBIGAME_DEBUG" default:"false"`

	// Port of the status API and health check
	Port string `envconfig:"MOBIGAME_PORT" default:"8000"`

	// Number of players and questions held in each cache
	CacheSize int `envconfig:"MOBIGAME_CACHE_SIZE" default:"1024"`

	// Inactivity after which the current game is retired
	MaxAge time.Duration `envconfig:"MOBIGAME_MAX_AGE" default:"60s"`

	// How often stale games are swept in the background
	SweepInterval time.Duration `envconfig:"MOBIGAME_SWEEP_INTERVAL" default:"15s"`

	// Backend of game records: bolt or sqlite
	GameStore string `envconfig:"MOBIGAME_GAME_STORE" default:"bolt"`

	DB     database.Config
	SQLite sqlite.Config
}
