package mobigame

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bloops-games/mobigame/internal/database"
	gameModel "github.com/bloops-games/mobigame/internal/database/game/model"
	playerModel "github.com/bloops-games/mobigame/internal/database/player/model"
	questionModel "github.com/bloops-games/mobigame/internal/database/question/model"
	"github.com/bloops-games/mobigame/internal/logging"
	"github.com/google/uuid"
)

var (
	ErrUnknownPlayer    = errors.New("player is not registered in this game")
	ErrNotReady         = errors.New("player has not started playing")
	ErrPlayerEliminated = errors.New("player is eliminated")
)

// Session is one loaded game: its record, the decoded state and the collaborators needed to
// play it. A Session is not safe for concurrent use; Directory.Play serialises access.
type Session struct {
	game  *gameModel.Game
	state *State

	games   GameStore
	bank    QuestionBank
	players PlayerStore
	encoder Encoder
	now     func() time.Time
}

func (s *Session) Game() gameModel.Game {
	return *s.game
}

func (s *Session) State() *State {
	return s.state
}

// AddPlayer registers id with a fresh state. Adding a known player or adding to a full game does
// nothing.
func (s *Session) AddPlayer(id uuid.UUID) {
	if _, ok := s.state.Players[id]; ok || s.Full() {
		return
	}
	s.state.Players[id] = newPlayerState()
}

func (s *Session) Full() bool {
	return len(s.state.Players) == MaxPlayers
}

func (s *Session) PlayerExists(id uuid.UUID) bool {
	_, ok := s.state.Players[id]
	return ok
}

// ColourUsed reports whether a registered player already has colour.
func (s *Session) ColourUsed(ctx context.Context, colour playerModel.Colour) (bool, error) {
	used, err := s.usedColours(ctx)
	if err != nil {
		return false, err
	}
	return used[colour], nil
}

// UnusedColours lists the colours still free in table order.
func (s *Session) UnusedColours(ctx context.Context) ([]playerModel.Colour, error) {
	used, err := s.usedColours(ctx)
	if err != nil {
		return nil, err
	}

	var free []playerModel.Colour
	for _, c := range playerModel.Colours {
		if !used[c] {
			free = append(free, c)
		}
	}
	return free, nil
}

func (s *Session) usedColours(ctx context.Context) (map[playerModel.Colour]bool, error) {
	used := make(map[playerModel.Colour]bool, len(s.state.Players))
	for id := range s.state.Players {
		p, err := s.players.Fetch(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("fetch player %s: %w", id, err)
		}
		used[p.Colour] = true
	}
	return used, nil
}

// SeenReady moves a player who acknowledged the start screen onto the first level.
func (s *Session) SeenReady(id uuid.UUID) {
	p, ok := s.state.Players[id]
	if !ok || p.Level != 0 {
		return
	}
	p.Level = FirstLevel
}

// CurrentQuestion returns the question of the player's current level, drawing one at random on
// first access and returning the same one afterwards.
func (s *Session) CurrentQuestion(ctx context.Context, id uuid.UUID) (questionModel.Question, error) {
	p, ok := s.state.Players[id]
	switch {
	case !ok:
		return questionModel.Question{}, ErrUnknownPlayer
	case s.Eliminated(id):
		return questionModel.Question{}, ErrPlayerEliminated
	case p.Level < FirstLevel:
		return questionModel.Question{}, ErrNotReady
	}

	if record, ok := p.Questions[p.Level]; ok {
		q, err := s.bank.Question(ctx, record.QuestionID)
		if err != nil {
			return q, fmt.Errorf("assigned question: %w", err)
		}
		return q, nil
	}

	q, err := s.bank.RandomQuestion(ctx, p.Level)
	if err != nil {
		return q, fmt.Errorf("random question: %w", err)
	}
	p.Questions[p.Level] = &QuestionRecord{QuestionID: q.ID}

	return q, nil
}

// Answers returns the choices of q in stored order.
func (s *Session) Answers(ctx context.Context, q questionModel.Question) ([]questionModel.Answer, error) {
	answers := make([]questionModel.Answer, 0, len(q.AnswerIDs))
	for _, id := range q.AnswerIDs {
		a, err := s.bank.Answer(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("fetch answer %d: %w", id, err)
		}
		answers = append(answers, a)
	}
	return answers, nil
}

// Answer records answerID for the player's current question. Stale or forged input (unknown or
// eliminated player, no question assigned, replayed answer, answer of another question) changes
// nothing and returns nil; only lookup failures of the bank are returned.
func (s *Session) Answer(ctx context.Context, id uuid.UUID, answerID int64) error {
	logger := logging.FromContext(ctx).Named("mobigame.Answer")

	p, ok := s.state.Players[id]
	if !ok {
		return nil
	}
	if s.Eliminated(id) {
		logger.Debugf("eliminated player %s sent answer %d", id, answerID)
		return nil
	}

	level := p.Level
	record, ok := p.Questions[level]
	if !ok {
		logger.Debugf("player %s has no question at level %d", id, level)
		return nil
	}
	if record.Answered() {
		logger.Debugf("player %s already answered level %d", id, level)
		return nil
	}

	answer, err := s.bank.Answer(ctx, answerID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			logger.Debugf("player %s sent unknown answer %d", id, answerID)
			return nil
		}
		return fmt.Errorf("fetch answer: %w", err)
	}
	if answer.QuestionID != record.QuestionID {
		logger.Debugf("answer %d does not belong to question %d", answerID, record.QuestionID)
		return nil
	}

	record.AnswerID = &answer.ID
	if p.Level < LastLevel {
		p.Level++
	}

	switch {
	case !answer.Correct:
		s.EliminatePlayer(id)
	case level == LastLevel:
		if !contains(s.state.Winners, id) {
			s.state.Winners = append(s.state.Winners, id)
		}
		s.EliminatePlayer(id)
	}

	return nil
}

// EliminatePlayer removes a player from active play.
func (s *Session) EliminatePlayer(id uuid.UUID) {
	if contains(s.state.Eliminated, id) {
		return
	}
	s.state.Eliminated = append(s.state.Eliminated, id)
}

func (s *Session) Eliminated(id uuid.UUID) bool {
	return contains(s.state.Eliminated, id)
}

func (s *Session) Winner(id uuid.UUID) bool {
	return len(s.state.Winners) > 0 && s.state.Winners[0] == id
}

func (s *Session) Second(id uuid.UUID) bool {
	return len(s.state.Winners) > 1 && s.state.Winners[1] == id
}

// PlayerLevel returns the player's level, 0 for unknown players.
func (s *Session) PlayerLevel(id uuid.UUID) int {
	if p, ok := s.state.Players[id]; ok {
		return p.Level
	}
	return 0
}

// PlayerAhead reports whether another active player is still on a lower level, in which case
// the player has to wait.
func (s *Session) PlayerAhead(id uuid.UUID) bool {
	level := s.PlayerLevel(id)
	for other, p := range s.state.Players {
		if other == id || s.Eliminated(other) {
			continue
		}
		if p.Level < level {
			return true
		}
	}
	return false
}

// Status is the polling code of this game.
func (s *Session) Status(ctx context.Context) (string, error) {
	return s.encoder.Encode(ctx, s.state, s.players)
}

// Save writes the state back onto the game record, derives completion and winner, refreshes the
// access time and persists the record.
func (s *Session) Save(ctx context.Context) error {
	doc, err := s.state.Encode()
	if err != nil {
		return err
	}

	s.game.State = doc
	s.game.Complete = len(s.state.Eliminated) == MaxPlayers
	s.game.WinnerID = nil
	if len(s.state.Winners) > 0 {
		winner := s.state.Winners[0]
		s.game.WinnerID = &winner
	}
	s.game.Touch(s.now())

	if err := s.games.Store(ctx, *s.game); err != nil {
		return fmt.Errorf("store game %d: %w", s.game.ID, err)
	}

	return nil
}
