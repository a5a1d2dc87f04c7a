package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Colour is the position of a player's colour in the status tables.
type Colour uint8

const (
	ColourBlue Colour = iota
	ColourRed
	ColourGreen
	ColourPink
)

// Colours lists every colour in table order.
var Colours = [...]Colour{ColourBlue, ColourRed, ColourGreen, ColourPink}

var colourNames = [...]string{"blue", "red", "green", "pink"}

var colourStyles = [...]string{"#1f6fd1", "#d12f1f", "#2fa33b", "#e05aa8"}

func (c Colour) Valid() bool {
	return int(c) < len(colourNames)
}

func (c Colour) String() string {
	if !c.Valid() {
		return fmt.Sprintf("colour(%d)", uint8(c))
	}
	return colourNames[c]
}

// Style is the CSS colour used to render the player.
func (c Colour) Style() string {
	if !c.Valid() {
		return ""
	}
	return colourStyles[c]
}

func (c Colour) MarshalText() ([]byte, error) {
	if !c.Valid() {
		return nil, fmt.Errorf("invalid colour %d", uint8(c))
	}
	return []byte(c.String()), nil
}

func (c *Colour) UnmarshalText(text []byte) error {
	parsed, err := ParseColour(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

func ParseColour(s string) (Colour, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for i, n := range colourNames {
		if n == name {
			return Colour(i), nil
		}
	}
	return 0, fmt.Errorf("unknown colour %q", s)
}

func NewPlayer(gameID int64, firstName string, colour Colour) Player {
	return Player{
		ID:        uuid.New(),
		GameID:    gameID,
		FirstName: firstName,
		Colour:    colour,
		CreatedAt: time.Now(),
	}
}

type Player struct {
	ID        uuid.UUID `json:"id"`
	GameID    int64     `json:"gameId"`
	FirstName string    `json:"firstName"`
	Colour    Colour    `json:"colour"`
	CreatedAt time.Time `json:"createdAt"`
}
