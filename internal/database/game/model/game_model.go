package model

import (
	"time"

	"github.com/google/uuid"
)

func NewGame(now time.Time) Game {
	return Game{LastAccess: now}
}

// Game is the persisted record of one round. State holds the JSON game state document and is
// empty until the first save.
type Game struct {
	ID         int64      `json:"id"`
	Complete   bool       `json:"complete"`
	LastAccess time.Time  `json:"lastAccess"`
	State      string     `json:"state"`
	WinnerID   *uuid.UUID `json:"winnerId"`
}

func (g *Game) Touch(now time.Time) {
	g.LastAccess = now
}

func (g *Game) Expired(now time.Time, maxAge time.Duration) bool {
	return now.Sub(g.LastAccess) > maxAge
}
