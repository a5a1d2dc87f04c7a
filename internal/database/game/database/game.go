package database

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/bloops-games/mobigame/internal/byteutil"
	"github.com/bloops-games/mobigame/internal/database"
	"github.com/bloops-games/mobigame/internal/database/game/model"
	"github.com/google/uuid"
	bolt "go.etcd.io/bbolt"
)

const bucket = "games"

func New(db *database.DB) *DB {
	return &DB{sDB: db}
}

type DB struct {
	sDB *database.DB
}

// Create stores a new game and assigns its id.
func (db *DB) Create(ctx context.Context, m *model.Game) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := db.sDB.DB.Update(func(tx *bolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists([]byte(bucket))
		if err != nil {
			return fmt.Errorf("create bucket: %w", err)
		}

		seq, err := b.NextSequence()
		if err != nil {
			return fmt.Errorf("next sequence: %w", err)
		}
		m.ID = int64(seq)

		return put(b, *m)
	}); err != nil {
		return fmt.Errorf("update transaction error: %w", err)
	}

	return nil
}

func (db *DB) Store(ctx context.Context, m model.Game) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := db.sDB.DB.Update(func(tx *bolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists([]byte(bucket))
		if err != nil {
			return fmt.Errorf("create bucket: %w", err)
		}
		if b.Get(byteutil.EncodeInt64ToBytes(m.ID)) == nil {
			return database.ErrNotFound
		}
		return put(b, m)
	}); err != nil {
		return fmt.Errorf("update transaction error: %w", err)
	}

	return nil
}

func (db *DB) Fetch(ctx context.Context, id int64) (model.Game, error) {
	var game model.Game
	if err := ctx.Err(); err != nil {
		return game, err
	}

	if err := db.sDB.DB.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucket))
		if b == nil {
			return database.ErrNotFound
		}
		v := b.Get(byteutil.EncodeInt64ToBytes(id))
		if v == nil {
			return database.ErrNotFound
		}
		return json.Unmarshal(v, &game)
	}); err != nil {
		return game, fmt.Errorf("view transaction error: %w", err)
	}

	return game, nil
}

// FetchLatest returns the most recently created game in any completion state.
func (db *DB) FetchLatest(ctx context.Context) (model.Game, error) {
	var game model.Game
	if err := ctx.Err(); err != nil {
		return game, err
	}

	if err := db.sDB.DB.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucket))
		if b == nil {
			return database.ErrNotFound
		}
		_, v := b.Cursor().Last()
		if v == nil {
			return database.ErrNotFound
		}
		return json.Unmarshal(v, &game)
	}); err != nil {
		return game, fmt.Errorf("view transaction error: %w", err)
	}

	return game, nil
}

// FetchIncomplete returns open games ordered by last access, oldest first.
func (db *DB) FetchIncomplete(ctx context.Context) ([]model.Game, error) {
	games, err := db.fetchAll(ctx, func(g model.Game) bool { return !g.Complete })
	if err != nil {
		return nil, err
	}

	sort.SliceStable(games, func(i, j int) bool {
		return games[i].LastAccess.Before(games[j].LastAccess)
	})

	return games, nil
}

// FetchWinners returns distinct winners of completed games, most recent first.
func (db *DB) FetchWinners(ctx context.Context, limit int) ([]uuid.UUID, error) {
	games, err := db.fetchAll(ctx, func(g model.Game) bool { return g.Complete && g.WinnerID != nil })
	if err != nil {
		return nil, err
	}

	sort.SliceStable(games, func(i, j int) bool {
		return games[i].LastAccess.After(games[j].LastAccess)
	})

	var winners []uuid.UUID
	seen := map[uuid.UUID]struct{}{}
	for _, g := range games {
		if len(winners) >= limit {
			break
		}
		if _, ok := seen[*g.WinnerID]; ok {
			continue
		}
		seen[*g.WinnerID] = struct{}{}
		winners = append(winners, *g.WinnerID)
	}

	return winners, nil
}

func (db *DB) fetchAll(ctx context.Context, filter func(model.Game) bool) ([]model.Game, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var list []model.Game
	if err := db.sDB.DB.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucket))
		if b == nil {
			return nil
		}

		return b.ForEach(func(k, v []byte) error {
			var game model.Game
			if err := json.Unmarshal(v, &game); err != nil {
				return fmt.Errorf("json unmarshal error, %w", err)
			}
			if filter(game) {
				list = append(list, game)
			}
			return nil
		})
	}); err != nil {
		return nil, fmt.Errorf("view transaction error: %w", err)
	}

	return list, nil
}

func put(b *bolt.Bucket, m model.Game) error {
	bytes, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}

	if err := b.Put(byteutil.EncodeInt64ToBytes(m.ID), bytes); err != nil {
		return fmt.Errorf("put to bucket error: %w", err)
	}

	return nil
}
