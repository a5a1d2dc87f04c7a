// Package sqlite keeps game records in SQLite as an alternative to the bolt game store.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/bloops-games/mobigame/internal/database"
	"github.com/bloops-games/mobigame/internal/database/game/model"
	"github.com/bloops-games/mobigame/internal/database/sqlite/migrations"
	"github.com/bloops-games/mobigame/internal/logging"
	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

type Config struct {
	FilePath string `envconfig:"MOBIGAME_SQLITE_FILE_PATH" default:"mobigame.sqlite"`
}

type Store struct {
	sqlDB *sql.DB
}

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

// Open opens the SQLite database at config.FilePath and applies the embedded migrations.
func Open(ctx context.Context, config *Config) (*Store, error) {
	path := strings.TrimSpace(config.FilePath)
	if path == "" {
		return nil, fmt.Errorf("sqlite file path is required")
	}

	logger := logging.FromContext(ctx)
	logger.Infof("opening sqlite database %s", path)

	dsn := "file:" + filepath.Clean(path) + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if err := applyMigrations(ctx, sqlDB, migrations.FS); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Store{sqlDB: sqlDB}, nil
}

func (s *Store) Close(ctx context.Context) error {
	logger := logging.FromContext(ctx)
	logger.Infof("closing sqlite database")

	if err := s.sqlDB.Close(); err != nil {
		return fmt.Errorf("close sqlite db: %w", err)
	}
	return nil
}

func (s *Store) Create(ctx context.Context, m *model.Game) error {
	res, err := s.sqlDB.ExecContext(ctx,
		`INSERT INTO games (complete, last_access, state, winner_id) VALUES (?, ?, ?, ?)`,
		m.Complete, toMillis(m.LastAccess), m.State, winnerValue(m.WinnerID),
	)
	if err != nil {
		return fmt.Errorf("create game: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("last insert id: %w", err)
	}
	m.ID = id

	return nil
}

func (s *Store) Store(ctx context.Context, m model.Game) error {
	res, err := s.sqlDB.ExecContext(ctx,
		`UPDATE games SET complete = ?, last_access = ?, state = ?, winner_id = ? WHERE id = ?`,
		m.Complete, toMillis(m.LastAccess), m.State, winnerValue(m.WinnerID), m.ID,
	)
	if err != nil {
		return fmt.Errorf("store game %d: %w", m.ID, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("store game %d: %w", m.ID, database.ErrNotFound)
	}

	return nil
}

func (s *Store) Fetch(ctx context.Context, id int64) (model.Game, error) {
	row := s.sqlDB.QueryRowContext(ctx,
		`SELECT id, complete, last_access, state, winner_id FROM games WHERE id = ?`, id)
	game, err := scanGame(row)
	if err != nil {
		return game, fmt.Errorf("fetch game %d: %w", id, err)
	}
	return game, nil
}

func (s *Store) FetchLatest(ctx context.Context) (model.Game, error) {
	row := s.sqlDB.QueryRowContext(ctx,
		`SELECT id, complete, last_access, state, winner_id FROM games ORDER BY id DESC LIMIT 1`)
	game, err := scanGame(row)
	if err != nil {
		return game, fmt.Errorf("fetch latest game: %w", err)
	}
	return game, nil
}

func (s *Store) FetchIncomplete(ctx context.Context) ([]model.Game, error) {
	rows, err := s.sqlDB.QueryContext(ctx,
		`SELECT id, complete, last_access, state, winner_id FROM games
		 WHERE complete = 0 ORDER BY last_access ASC, id ASC`)
	if err != nil {
		return nil, fmt.Errorf("query incomplete games: %w", err)
	}
	defer rows.Close()

	var games []model.Game
	for rows.Next() {
		game, err := scanGame(rows)
		if err != nil {
			return nil, fmt.Errorf("scan game: %w", err)
		}
		games = append(games, game)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate games: %w", err)
	}

	return games, nil
}

func (s *Store) FetchWinners(ctx context.Context, limit int) ([]uuid.UUID, error) {
	rows, err := s.sqlDB.QueryContext(ctx,
		`SELECT winner_id FROM games
		 WHERE complete = 1 AND winner_id IS NOT NULL
		 GROUP BY winner_id
		 ORDER BY MAX(last_access) DESC
		 LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query winners: %w", err)
	}
	defer rows.Close()

	var winners []uuid.UUID
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scan winner: %w", err)
		}
		id, err := uuid.Parse(raw)
		if err != nil {
			return nil, fmt.Errorf("parse winner id %q: %w", raw, err)
		}
		winners = append(winners, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate winners: %w", err)
	}

	return winners, nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanGame(row scanner) (model.Game, error) {
	var (
		game       model.Game
		lastAccess int64
		winner     sql.NullString
	)
	if err := row.Scan(&game.ID, &game.Complete, &lastAccess, &game.State, &winner); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return game, database.ErrNotFound
		}
		return game, err
	}

	game.LastAccess = fromMillis(lastAccess)
	if winner.Valid {
		id, err := uuid.Parse(winner.String)
		if err != nil {
			return game, fmt.Errorf("parse winner id %q: %w", winner.String, err)
		}
		game.WinnerID = &id
	}

	return game, nil
}

func winnerValue(id *uuid.UUID) interface{} {
	if id == nil {
		return nil
	}
	return id.String()
}
