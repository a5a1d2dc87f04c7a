package mobigame

import (
	"context"

	gameModel "github.com/bloops-games/mobigame/internal/database/game/model"
	playerModel "github.com/bloops-games/mobigame/internal/database/player/model"
	questionModel "github.com/bloops-games/mobigame/internal/database/question/model"
	"github.com/google/uuid"
)

// GameStore persists game records. Implemented by the bolt and sqlite game stores.
type GameStore interface {
	Create(ctx context.Context, m *gameModel.Game) error
	Store(ctx context.Context, m gameModel.Game) error
	Fetch(ctx context.Context, id int64) (gameModel.Game, error)
	FetchLatest(ctx context.Context) (gameModel.Game, error)
	FetchIncomplete(ctx context.Context) ([]gameModel.Game, error)
	FetchWinners(ctx context.Context, limit int) ([]uuid.UUID, error)
}

// QuestionBank is the read-only question lookup used while playing.
type QuestionBank interface {
	RandomQuestion(ctx context.Context, level int) (questionModel.Question, error)
	Question(ctx context.Context, id int64) (questionModel.Question, error)
	Answer(ctx context.Context, id int64) (questionModel.Answer, error)
}

type PlayerStore interface {
	Fetch(ctx context.Context, id uuid.UUID) (playerModel.Player, error)
	FindOrCreate(ctx context.Context, gameID int64, firstName string, colour playerModel.Colour) (playerModel.Player, error)
}
