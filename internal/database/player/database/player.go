package database

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/bloops-games/mobigame/internal/cache"
	"github.com/bloops-games/mobigame/internal/database"
	"github.com/bloops-games/mobigame/internal/database/player/model"
	"github.com/google/uuid"
	bolt "go.etcd.io/bbolt"
)

const bucket = "players"

func New(db *database.DB, cache cache.Cache) *DB {
	return &DB{sDB: db, cache: cache}
}

type DB struct {
	sDB *database.DB

	cache cache.Cache
}

func (db *DB) Fetch(ctx context.Context, id uuid.UUID) (model.Player, error) {
	var p model.Player
	if err := ctx.Err(); err != nil {
		return p, err
	}

	if db.cache != nil {
		if v, ok := db.cache.Get(id); ok {
			return v.(model.Player), nil
		}
	}

	if err := db.sDB.DB.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucket))
		if b == nil {
			return database.ErrNotFound
		}
		v := b.Get(id[:])
		if v == nil {
			return database.ErrNotFound
		}
		return json.Unmarshal(v, &p)
	}); err != nil {
		return p, fmt.Errorf("view transaction error: %w", err)
	}

	if db.cache != nil {
		db.cache.Add(id, p)
	}

	return p, nil
}

// FindOrCreate returns the player of gameID with the given name and colour, creating it when absent.
func (db *DB) FindOrCreate(ctx context.Context, gameID int64, firstName string, colour model.Colour) (model.Player, error) {
	if err := ctx.Err(); err != nil {
		return model.Player{}, err
	}

	firstName = strings.TrimSpace(firstName)
	if firstName == "" {
		return model.Player{}, fmt.Errorf("first name is required")
	}
	if !colour.Valid() {
		return model.Player{}, fmt.Errorf("invalid colour %d", colour)
	}

	var player model.Player
	if err := db.sDB.DB.Update(func(tx *bolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists([]byte(bucket))
		if err != nil {
			return fmt.Errorf("create bucket: %w", err)
		}

		found := false
		if err := b.ForEach(func(k, v []byte) error {
			var p model.Player
			if err := json.Unmarshal(v, &p); err != nil {
				return fmt.Errorf("json unmarshal error, %w", err)
			}
			if p.GameID == gameID && p.FirstName == firstName && p.Colour == colour {
				player, found = p, true
			}
			return nil
		}); err != nil {
			return fmt.Errorf("bucket for each: %w", err)
		}
		if found {
			return nil
		}

		player = model.NewPlayer(gameID, firstName, colour)
		bytes, err := json.Marshal(player)
		if err != nil {
			return fmt.Errorf("marshal: %w", err)
		}
		if err := b.Put(player.ID[:], bytes); err != nil {
			return fmt.Errorf("put to bucket error: %w", err)
		}
		return nil
	}); err != nil {
		return model.Player{}, fmt.Errorf("update transaction error: %w", err)
	}

	if db.cache != nil {
		db.cache.Add(player.ID, player)
	}

	return player, nil
}
