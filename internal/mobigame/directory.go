package mobigame

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/bloops-games/mobigame/internal/database"
	gameModel "github.com/bloops-games/mobigame/internal/database/game/model"
	playerModel "github.com/bloops-games/mobigame/internal/database/player/model"
	"github.com/bloops-games/mobigame/internal/logging"
	"github.com/google/uuid"
)

var (
	ErrGameFull    = errors.New("game is full")
	ErrColourTaken = errors.New("colour already taken")
)

func NewDirectory(games GameStore, bank QuestionBank, players PlayerStore, config *Config) *Directory {
	return &Directory{
		games:   games,
		bank:    bank,
		players: players,
		encoder: DefaultEncoder(),
		maxAge:  config.MaxAge,
		now:     time.Now,
	}
}

// Directory finds, creates and retires the single current game. Every read-modify-write of a
// game, including the expiry sweep, runs under mtx.
type Directory struct {
	mtx sync.Mutex

	games   GameStore
	bank    QuestionBank
	players PlayerStore
	encoder Encoder
	maxAge  time.Duration
	now     func() time.Time
}

// CurrentGame returns the live game. Older open games are completed on the way; when nothing is
// live a new game is created if create is set, otherwise nil is returned.
func (d *Directory) CurrentGame(ctx context.Context, create bool) (*gameModel.Game, error) {
	d.mtx.Lock()
	defer d.mtx.Unlock()

	return d.currentGame(ctx, create)
}

func (d *Directory) currentGame(ctx context.Context, create bool) (*gameModel.Game, error) {
	logger := logging.FromContext(ctx).Named("mobigame.CurrentGame")

	open, err := d.games.FetchIncomplete(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch incomplete games: %w", err)
	}

	now := d.now()
	if len(open) > 0 {
		for _, stale := range open[:len(open)-1] {
			logger.Infof("completing orphaned game %d", stale.ID)
			if err := d.complete(ctx, stale); err != nil {
				return nil, err
			}
		}

		latest := open[len(open)-1]
		if !latest.Expired(now, d.maxAge) {
			return &latest, nil
		}

		logger.Infof("completing game %d idle since %s", latest.ID, latest.LastAccess.Format(time.RFC3339))
		if err := d.complete(ctx, latest); err != nil {
			return nil, err
		}
	}

	if !create {
		return nil, nil
	}

	game := gameModel.NewGame(now)
	if err := d.games.Create(ctx, &game); err != nil {
		return nil, fmt.Errorf("create game: %w", err)
	}
	logger.Infof("created game %d", game.ID)

	return &game, nil
}

func (d *Directory) complete(ctx context.Context, game gameModel.Game) error {
	game.Complete = true
	if err := d.games.Store(ctx, game); err != nil {
		return fmt.Errorf("complete game %d: %w", game.ID, err)
	}
	return nil
}

// PreviousWinners returns the winners of completed games, most recent first.
func (d *Directory) PreviousWinners(ctx context.Context, limit int) ([]uuid.UUID, error) {
	if limit <= 0 {
		return nil, nil
	}

	winners, err := d.games.FetchWinners(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("fetch winners: %w", err)
	}
	return winners, nil
}

// Session decodes the state of game.
func (d *Directory) Session(game *gameModel.Game) (*Session, error) {
	state, err := DecodeState(game.State)
	if err != nil {
		return nil, fmt.Errorf("game %d: %w", game.ID, err)
	}

	return &Session{
		game:    game,
		state:   state,
		games:   d.games,
		bank:    d.bank,
		players: d.players,
		encoder: d.encoder,
		now:     d.now,
	}, nil
}

// Play runs fn against the current game, creating one when needed, and saves the result. The
// whole load, mutate and save sequence holds the directory lock. Nothing is saved when fn fails.
func (d *Directory) Play(ctx context.Context, fn func(s *Session) error) error {
	d.mtx.Lock()
	defer d.mtx.Unlock()

	return d.play(ctx, fn)
}

func (d *Directory) play(ctx context.Context, fn func(s *Session) error) error {
	game, err := d.currentGame(ctx, true)
	if err != nil {
		return err
	}

	session, err := d.Session(game)
	if err != nil {
		return err
	}

	if err := fn(session); err != nil {
		return err
	}

	return session.Save(ctx)
}

// Join registers a player in the current game. A fifth player and a colour already in use are
// rejected here, before the state machine sees them.
func (d *Directory) Join(ctx context.Context, firstName string, colour playerModel.Colour) (playerModel.Player, error) {
	logger := logging.FromContext(ctx).Named("mobigame.Join")

	var player playerModel.Player
	err := d.Play(ctx, func(s *Session) error {
		if s.Full() {
			return ErrGameFull
		}

		used, err := s.ColourUsed(ctx, colour)
		if err != nil {
			return err
		}
		if used {
			return fmt.Errorf("%s: %w", colour, ErrColourTaken)
		}

		player, err = d.players.FindOrCreate(ctx, s.game.ID, firstName, colour)
		if err != nil {
			return fmt.Errorf("find or create player: %w", err)
		}
		s.AddPlayer(player.ID)
		logger.Infof("player %s (%s) joined game %d", player.FirstName, colour, s.game.ID)

		return nil
	})
	if err != nil {
		return playerModel.Player{}, err
	}

	return player, nil
}

// UnusedColours lists the colours free in the current game. It only reads the game, so polling it
// does not keep an idle game alive.
func (d *Directory) UnusedColours(ctx context.Context) ([]playerModel.Colour, error) {
	d.mtx.Lock()
	defer d.mtx.Unlock()

	game, err := d.currentGame(ctx, true)
	if err != nil {
		return nil, err
	}

	session, err := d.Session(game)
	if err != nil {
		return nil, err
	}

	return session.UnusedColours(ctx)
}

// SignOut takes a player out of the current game.
func (d *Directory) SignOut(ctx context.Context, id uuid.UUID) error {
	return d.Play(ctx, func(s *Session) error {
		if !s.PlayerExists(id) {
			return ErrUnknownPlayer
		}
		s.EliminatePlayer(id)
		return nil
	})
}

// Status is the polling code of the most recent game in any state, "0" when there is none.
func (d *Directory) Status(ctx context.Context) (string, error) {
	d.mtx.Lock()
	defer d.mtx.Unlock()

	game, err := d.games.FetchLatest(ctx)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return emptyStatus, nil
		}
		return "", fmt.Errorf("fetch latest game: %w", err)
	}

	session, err := d.Session(&game)
	if err != nil {
		return "", err
	}

	return session.Status(ctx)
}

// Sweep retires stale games without creating a new one.
func (d *Directory) Sweep(ctx context.Context) error {
	_, err := d.CurrentGame(ctx, false)
	return err
}
