package mobigame

import (
	"context"
	"fmt"
	"sort"

	playerModel "github.com/bloops-games/mobigame/internal/database/player/model"
	"github.com/bloops-games/mobigame/internal/strpool"
	"github.com/google/uuid"
)

// emptyStatus is sent when no player produced a character.
const emptyStatus = "0"

// Encoder turns a game state into the short code polled by clients. Every table holds one
// character per colour, in colour order.
type Encoder struct {
	Levels     []string
	Winner     string
	Eliminated string
}

func DefaultEncoder() Encoder {
	return Encoder{
		Levels:     []string{"1234", "5678", "9xyz"},
		Winner:     "abcd",
		Eliminated: "efgh",
	}
}

type playerFetcher interface {
	Fetch(ctx context.Context, id uuid.UUID) (playerModel.Player, error)
}

// Encode emits, per player, the eliminated or winner character of its colour, or else one level
// character for each table up to its current level, the last table excluded. The characters are deduplicated, sorted and joined.
func (e Encoder) Encode(ctx context.Context, state *State, players playerFetcher) (string, error) {
	chars := map[byte]struct{}{}
	for id, p := range state.Players {
		player, err := players.Fetch(ctx, id)
		if err != nil {
			return "", fmt.Errorf("fetch player %s: %w", id, err)
		}
		colour := int(player.Colour)

		switch {
		case contains(state.Eliminated, id):
			if c, ok := charAt(e.Eliminated, colour); ok {
				chars[c] = struct{}{}
			}
		case len(state.Winners) > 0 && state.Winners[0] == id:
			if c, ok := charAt(e.Winner, colour); ok {
				chars[c] = struct{}{}
			}
		default:
			for _, table := range e.Levels[:e.completed(p.Level)] {
				if c, ok := charAt(table, colour); ok {
					chars[c] = struct{}{}
				}
			}
		}
	}

	if len(chars) == 0 {
		return emptyStatus, nil
	}

	sorted := make([]byte, 0, len(chars))
	for c := range chars {
		sorted = append(sorted, c)
	}
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	buf := strpool.Get()
	defer func() {
		buf.Reset()
		strpool.Put(buf)
	}()
	buf.Write(sorted)

	return buf.String(), nil
}

// completed is the number of level tables lit for a player on level: min(level, len(Levels)-1).
func (e Encoder) completed(level int) int {
	n := len(e.Levels) - 1
	if level < n {
		n = level
	}
	if n < 0 {
		return 0
	}
	return n
}

func charAt(table string, idx int) (byte, bool) {
	if idx < 0 || idx >= len(table) {
		return 0, false
	}
	return table[idx], true
}
