package mobigame

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/bloops-games/mobigame/internal/database"
	gameModel "github.com/bloops-games/mobigame/internal/database/game/model"
	playerModel "github.com/bloops-games/mobigame/internal/database/player/model"
	questionModel "github.com/bloops-games/mobigame/internal/database/question/model"
	"github.com/google/uuid"
)

type memoryGames struct {
	mtx   sync.Mutex
	seq   int64
	games map[int64]gameModel.Game
}

func newMemoryGames() *memoryGames {
	return &memoryGames{games: map[int64]gameModel.Game{}}
}

func (m *memoryGames) Create(_ context.Context, g *gameModel.Game) error {
	m.mtx.Lock()
	defer m.mtx.Unlock()
	m.seq++
	g.ID = m.seq
	m.games[g.ID] = *g
	return nil
}

func (m *memoryGames) Store(_ context.Context, g gameModel.Game) error {
	m.mtx.Lock()
	defer m.mtx.Unlock()
	if _, ok := m.games[g.ID]; !ok {
		return database.ErrNotFound
	}
	m.games[g.ID] = g
	return nil
}

func (m *memoryGames) Fetch(_ context.Context, id int64) (gameModel.Game, error) {
	m.mtx.Lock()
	defer m.mtx.Unlock()
	g, ok := m.games[id]
	if !ok {
		return g, database.ErrNotFound
	}
	return g, nil
}

func (m *memoryGames) FetchLatest(_ context.Context) (gameModel.Game, error) {
	m.mtx.Lock()
	defer m.mtx.Unlock()
	g, ok := m.games[m.seq]
	if !ok {
		return g, database.ErrNotFound
	}
	return g, nil
}

func (m *memoryGames) FetchIncomplete(_ context.Context) ([]gameModel.Game, error) {
	m.mtx.Lock()
	defer m.mtx.Unlock()
	var open []gameModel.Game
	for _, g := range m.games {
		if !g.Complete {
			open = append(open, g)
		}
	}
	sort.Slice(open, func(i, j int) bool {
		if open[i].LastAccess.Equal(open[j].LastAccess) {
			return open[i].ID < open[j].ID
		}
		return open[i].LastAccess.Before(open[j].LastAccess)
	})
	return open, nil
}

func (m *memoryGames) FetchWinners(_ context.Context, limit int) ([]uuid.UUID, error) {
	m.mtx.Lock()
	defer m.mtx.Unlock()
	var done []gameModel.Game
	for _, g := range m.games {
		if g.Complete && g.WinnerID != nil {
			done = append(done, g)
		}
	}
	sort.Slice(done, func(i, j int) bool { return done[i].LastAccess.After(done[j].LastAccess) })

	var winners []uuid.UUID
	for _, g := range done {
		if len(winners) < limit && !contains(winners, *g.WinnerID) {
			winners = append(winners, *g.WinnerID)
		}
	}
	return winners, nil
}

// fakeBank holds two questions per level. RandomQuestion rotates through them so that
// memoisation is observable.
type fakeBank struct {
	mtx       sync.Mutex
	questions map[int64]questionModel.Question
	answers   map[int64]questionModel.Answer
	byLevel   map[int][]int64
	draws     int
}

func newFakeBank(levels int) *fakeBank {
	b := &fakeBank{
		questions: map[int64]questionModel.Question{},
		answers:   map[int64]questionModel.Answer{},
		byLevel:   map[int][]int64{},
	}

	var answerID int64
	for level := 1; level <= levels; level++ {
		for n := 0; n < 2; n++ {
			qid := int64(level*10 + n)
			q := questionModel.Question{ID: qid, Text: fmt.Sprintf("L%d Q%d", level, n), Level: level}
			for a := 0; a < 2; a++ {
				answerID++
				b.answers[answerID] = questionModel.Answer{
					ID:         answerID,
					Text:       fmt.Sprintf("answer %d", a),
					Correct:    a == 0,
					QuestionID: qid,
				}
				q.AnswerIDs = append(q.AnswerIDs, answerID)
			}
			b.questions[qid] = q
			b.byLevel[level] = append(b.byLevel[level], qid)
		}
	}
	return b
}

func (b *fakeBank) RandomQuestion(_ context.Context, level int) (questionModel.Question, error) {
	b.mtx.Lock()
	defer b.mtx.Unlock()
	ids := b.byLevel[level]
	if len(ids) == 0 {
		return questionModel.Question{}, fmt.Errorf("level %d: no questions", level)
	}
	b.draws++
	return b.questions[ids[b.draws%len(ids)]], nil
}

func (b *fakeBank) Question(_ context.Context, id int64) (questionModel.Question, error) {
	q, ok := b.questions[id]
	if !ok {
		return q, database.ErrNotFound
	}
	return q, nil
}

func (b *fakeBank) Answer(_ context.Context, id int64) (questionModel.Answer, error) {
	a, ok := b.answers[id]
	if !ok {
		return a, database.ErrNotFound
	}
	return a, nil
}

// correct and wrong return the answer ids of q.
func (b *fakeBank) correct(q questionModel.Question) int64 {
	for _, id := range q.AnswerIDs {
		if b.answers[id].Correct {
			return id
		}
	}
	return 0
}

func (b *fakeBank) wrong(q questionModel.Question) int64 {
	for _, id := range q.AnswerIDs {
		if !b.answers[id].Correct {
			return id
		}
	}
	return 0
}

type memoryPlayers struct {
	mtx     sync.Mutex
	players map[uuid.UUID]playerModel.Player
}

func newMemoryPlayers() *memoryPlayers {
	return &memoryPlayers{players: map[uuid.UUID]playerModel.Player{}}
}

func (m *memoryPlayers) Fetch(_ context.Context, id uuid.UUID) (playerModel.Player, error) {
	m.mtx.Lock()
	defer m.mtx.Unlock()
	p, ok := m.players[id]
	if !ok {
		return p, database.ErrNotFound
	}
	return p, nil
}

func (m *memoryPlayers) FindOrCreate(_ context.Context, gameID int64, firstName string, colour playerModel.Colour) (playerModel.Player, error) {
	m.mtx.Lock()
	defer m.mtx.Unlock()
	for _, p := range m.players {
		if p.GameID == gameID && p.FirstName == firstName && p.Colour == colour {
			return p, nil
		}
	}
	p := playerModel.NewPlayer(gameID, firstName, colour)
	m.players[p.ID] = p
	return p, nil
}

func (m *memoryPlayers) add(colour playerModel.Colour) uuid.UUID {
	p, _ := m.FindOrCreate(context.Background(), 0, colour.String(), colour)
	return p.ID
}

type fixture struct {
	games     *memoryGames
	bank      *fakeBank
	players   *memoryPlayers
	directory *Directory
	clock     *clock
}

type clock struct {
	mtx sync.Mutex
	t   time.Time
}

func (c *clock) now() time.Time {
	c.mtx.Lock()
	defer c.mtx.Unlock()
	return c.t
}

func (c *clock) advance(d time.Duration) {
	c.mtx.Lock()
	defer c.mtx.Unlock()
	c.t = c.t.Add(d)
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{
		games:   newMemoryGames(),
		bank:    newFakeBank(LastLevel),
		players: newMemoryPlayers(),
		clock:   &clock{t: time.Date(2026, time.October, 15, 12, 0, 0, 0, time.UTC)},
	}
	f.directory = NewDirectory(f.games, f.bank, f.players, &Config{MaxAge: time.Minute})
	f.directory.now = f.clock.now

	return f
}

// session loads the current game, creating it if needed.
func (f *fixture) session(t *testing.T) *Session {
	t.Helper()

	game, err := f.directory.CurrentGame(context.Background(), true)
	if err != nil {
		t.Fatalf("current game: %v", err)
	}
	s, err := f.directory.Session(game)
	if err != nil {
		t.Fatalf("session: %v", err)
	}
	return s
}

// answerCorrectly plays the player's current level with the right answer.
func (f *fixture) answerCorrectly(t *testing.T, s *Session, id uuid.UUID) {
	t.Helper()
	f.answer(t, s, id, true)
}

func (f *fixture) answer(t *testing.T, s *Session, id uuid.UUID, correct bool) {
	t.Helper()

	ctx := context.Background()
	q, err := s.CurrentQuestion(ctx, id)
	if err != nil {
		t.Fatalf("current question: %v", err)
	}
	answerID := f.bank.wrong(q)
	if correct {
		answerID = f.bank.correct(q)
	}
	if err := s.Answer(ctx, id, answerID); err != nil {
		t.Fatalf("answer: %v", err)
	}
}
