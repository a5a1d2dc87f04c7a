package database

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/bloops-games/mobigame/internal/database"
	"github.com/bloops-games/mobigame/internal/database/game/model"
	"github.com/google/uuid"
)

func openTempDB(t *testing.T) *DB {
	t.Helper()

	ctx := context.Background()
	db, err := database.NewFromEnv(ctx, &database.Config{
		FilePath:    filepath.Join(t.TempDir(), "games.db"),
		OpenTimeout: time.Second,
	})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { _ = db.Close(ctx) })

	return New(db)
}

func TestCreateFetchStore(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	db := openTempDB(t)
	now := time.Date(2026, time.October, 15, 12, 0, 0, 0, time.UTC)

	game := model.NewGame(now)
	if err := db.Create(ctx, &game); err != nil {
		t.Fatalf("create: %v", err)
	}
	if game.ID != 1 {
		t.Fatalf("expected id 1 got %d", game.ID)
	}

	winner := uuid.New()
	game.State = `{"players":{},"winners":[],"eliminated":[]}`
	game.WinnerID = &winner
	game.Complete = true
	if err := db.Store(ctx, game); err != nil {
		t.Fatalf("store: %v", err)
	}

	got, err := db.Fetch(ctx, game.ID)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if got.State != game.State || !got.Complete || got.WinnerID == nil || *got.WinnerID != winner {
		t.Errorf("expected %#v got %#v", game, got)
	}
	if !got.LastAccess.Equal(now) {
		t.Errorf("expected last access %v got %v", now, got.LastAccess)
	}
}

func TestNotFound(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	db := openTempDB(t)

	if _, err := db.Fetch(ctx, 42); !errors.Is(err, database.ErrNotFound) {
		t.Errorf("fetch: expected not found got %v", err)
	}
	if _, err := db.FetchLatest(ctx); !errors.Is(err, database.ErrNotFound) {
		t.Errorf("latest: expected not found got %v", err)
	}
	if err := db.Store(ctx, model.Game{ID: 42}); !errors.Is(err, database.ErrNotFound) {
		t.Errorf("store: expected not found got %v", err)
	}
}

func TestFetchIncompleteOrder(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	db := openTempDB(t)
	base := time.Date(2026, time.October, 15, 12, 0, 0, 0, time.UTC)

	offsets := []time.Duration{3 * time.Second, time.Second, 2 * time.Second}
	for i, offset := range offsets {
		game := model.NewGame(base.Add(offset))
		game.Complete = i == 2
		if err := db.Create(ctx, &game); err != nil {
			t.Fatalf("create: %v", err)
		}
	}

	games, err := db.FetchIncomplete(ctx)
	if err != nil {
		t.Fatalf("fetch incomplete: %v", err)
	}
	if len(games) != 2 {
		t.Fatalf("expected 2 games got %d", len(games))
	}
	if games[0].ID != 2 || games[1].ID != 1 {
		t.Errorf("expected ids [2 1] got [%d %d]", games[0].ID, games[1].ID)
	}

	latest, err := db.FetchLatest(ctx)
	if err != nil {
		t.Fatalf("latest: %v", err)
	}
	if latest.ID != 3 {
		t.Errorf("expected latest id 3 got %d", latest.ID)
	}
}

func TestFetchWinners(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	db := openTempDB(t)
	base := time.Date(2026, time.October, 15, 12, 0, 0, 0, time.UTC)
	a, b, c := uuid.New(), uuid.New(), uuid.New()

	records := []struct {
		winner   *uuid.UUID
		complete bool
		offset   time.Duration
	}{
		{winner: &a, complete: true, offset: 1 * time.Minute},
		{winner: &b, complete: true, offset: 2 * time.Minute},
		{winner: &a, complete: true, offset: 3 * time.Minute},
		{winner: nil, complete: true, offset: 4 * time.Minute},
		{winner: &c, complete: false, offset: 5 * time.Minute},
	}
	for _, r := range records {
		game := model.NewGame(base.Add(r.offset))
		game.WinnerID = r.winner
		game.Complete = r.complete
		if err := db.Create(ctx, &game); err != nil {
			t.Fatalf("create: %v", err)
		}
	}

	winners, err := db.FetchWinners(ctx, 10)
	if err != nil {
		t.Fatalf("fetch winners: %v", err)
	}
	if len(winners) != 2 || winners[0] != a || winners[1] != b {
		t.Errorf("expected [%v %v] got %v", a, b, winners)
	}

	winners, err = db.FetchWinners(ctx, 1)
	if err != nil {
		t.Fatalf("fetch winners: %v", err)
	}
	if len(winners) != 1 || winners[0] != a {
		t.Errorf("expected [%v] got %v", a, winners)
	}
}
