package mobigame

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// QuestionRecord is the question assigned to a player at one level and the answer given, if any.
// It is encoded as the pair [question-id, answer-id-or-null].
type QuestionRecord struct {
	QuestionID int64
	AnswerID   *int64
}

func (r QuestionRecord) Answered() bool {
	return r.AnswerID != nil
}

func (r QuestionRecord) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]interface{}{r.QuestionID, r.AnswerID})
}

func (r *QuestionRecord) UnmarshalJSON(data []byte) error {
	var pair []json.RawMessage
	if err := json.Unmarshal(data, &pair); err != nil {
		return fmt.Errorf("question record: %w", err)
	}
	if len(pair) != 2 {
		return fmt.Errorf("question record: expected 2 elements, got %d", len(pair))
	}

	if err := json.Unmarshal(pair[0], &r.QuestionID); err != nil {
		return fmt.Errorf("question record id: %w", err)
	}

	r.AnswerID = nil
	if bytes.Equal(bytes.TrimSpace(pair[1]), []byte("null")) {
		return nil
	}

	var answerID int64
	if err := json.Unmarshal(pair[1], &answerID); err != nil {
		return fmt.Errorf("question record answer: %w", err)
	}
	r.AnswerID = &answerID

	return nil
}

type PlayerState struct {
	// Level is the level the player is playing; 0 until the start screen is acknowledged.
	Level     int                     `json:"level"`
	Questions map[int]*QuestionRecord `json:"questions"`
}

func newPlayerState() *PlayerState {
	return &PlayerState{Questions: map[int]*QuestionRecord{}}
}

// State is the per-game document persisted on the game record.
type State struct {
	Players    map[uuid.UUID]*PlayerState `json:"players"`
	Winners    []uuid.UUID                `json:"winners"`
	Eliminated []uuid.UUID                `json:"eliminated"`
}

func NewState() *State {
	return &State{
		Players:    map[uuid.UUID]*PlayerState{},
		Winners:    []uuid.UUID{},
		Eliminated: []uuid.UUID{},
	}
}

// DecodeState parses a persisted state document. An empty document is a fresh game.
func DecodeState(doc string) (*State, error) {
	state := NewState()
	if strings.TrimSpace(doc) == "" {
		return state, nil
	}

	if err := json.Unmarshal([]byte(doc), state); err != nil {
		return nil, fmt.Errorf("decode state: %w", err)
	}

	if state.Players == nil {
		state.Players = map[uuid.UUID]*PlayerState{}
	}
	for id, p := range state.Players {
		if p == nil {
			p = newPlayerState()
			state.Players[id] = p
		}
		if p.Questions == nil {
			p.Questions = map[int]*QuestionRecord{}
		}
	}
	if state.Winners == nil {
		state.Winners = []uuid.UUID{}
	}
	if state.Eliminated == nil {
		state.Eliminated = []uuid.UUID{}
	}

	return state, nil
}

func (s *State) Encode() (string, error) {
	b, err := json.Marshal(s)
	if err != nil {
		return "", fmt.Errorf("encode state: %w", err)
	}
	return string(b), nil
}

func contains(ids []uuid.UUID, id uuid.UUID) bool {
	for i := range ids {
		if ids[i] == id {
			return true
		}
	}
	return false
}
