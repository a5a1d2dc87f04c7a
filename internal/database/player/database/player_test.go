package database

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/bloops-games/mobigame/internal/cache"
	"github.com/bloops-games/mobigame/internal/database"
	"github.com/bloops-games/mobigame/internal/database/player/model"
	"github.com/google/uuid"
)

func openTempDB(t *testing.T, withCache bool) *DB {
	t.Helper()

	ctx := context.Background()
	db, err := database.NewFromEnv(ctx, &database.Config{
		FilePath:    filepath.Join(t.TempDir(), "players.db"),
		OpenTimeout: time.Second,
	})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { _ = db.Close(ctx) })

	if !withCache {
		return New(db, nil)
	}

	c, err := cache.NewLRU(16)
	if err != nil {
		t.Fatalf("new lru: %v", err)
	}
	return New(db, c)
}

func TestFindOrCreate(t *testing.T) {
	t.Parallel()

	for _, withCache := range []bool{true, false} {
		ctx := context.Background()
		db := openTempDB(t, withCache)

		p1, err := db.FindOrCreate(ctx, 1, "Ann", model.ColourBlue)
		if err != nil {
			t.Fatalf("create: %v", err)
		}

		p2, err := db.FindOrCreate(ctx, 1, " Ann ", model.ColourBlue)
		if err != nil {
			t.Fatalf("lookup: %v", err)
		}
		if p1.ID != p2.ID {
			t.Errorf("expected the same player, got %v and %v", p1.ID, p2.ID)
		}

		p3, err := db.FindOrCreate(ctx, 2, "Ann", model.ColourBlue)
		if err != nil {
			t.Fatalf("create in other game: %v", err)
		}
		if p3.ID == p1.ID {
			t.Error("players of different games must differ")
		}

		got, err := db.Fetch(ctx, p1.ID)
		if err != nil {
			t.Fatalf("fetch: %v", err)
		}
		if got.FirstName != "Ann" || got.Colour != model.ColourBlue || got.GameID != 1 {
			t.Errorf("unexpected player %#v", got)
		}
	}
}

func TestFindOrCreateValidation(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	db := openTempDB(t, false)

	if _, err := db.FindOrCreate(ctx, 1, "  ", model.ColourRed); err == nil {
		t.Error("expected error for empty name")
	}
	if _, err := db.FindOrCreate(ctx, 1, "Bob", model.Colour(7)); err == nil {
		t.Error("expected error for invalid colour")
	}
}

func TestFetchNotFound(t *testing.T) {
	t.Parallel()

	db := openTempDB(t, true)
	if _, err := db.Fetch(context.Background(), uuid.New()); !errors.Is(err, database.ErrNotFound) {
		t.Errorf("expected not found got %v", err)
	}
}
