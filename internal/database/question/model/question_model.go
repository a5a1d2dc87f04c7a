package model

import "fmt"

// Level is a round of play. Higher levels are more difficult.
type Level struct {
	LevelNo int `json:"levelNo"`
}

func (l Level) String() string {
	return fmt.Sprintf("Level %d", l.LevelNo)
}

type Question struct {
	ID        int64   `json:"id"`
	Text      string  `json:"text"`
	Level     int     `json:"level"`
	AnswerIDs []int64 `json:"answerIds"`
}

func (q Question) String() string {
	return fmt.Sprintf("%s (Level %d)", q.Text, q.Level)
}

type Answer struct {
	ID         int64  `json:"id"`
	Text       string `json:"text"`
	Correct    bool   `json:"correct"`
	QuestionID int64  `json:"questionId"`
}

func (a Answer) String() string {
	if a.Correct {
		return a.Text + " (correct)"
	}
	return a.Text + " (incorrect)"
}
