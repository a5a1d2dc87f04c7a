package model

// Entry is a question together with its answers, as read by the importer before ids are assigned.
type Entry struct {
	Question Question
	Answers  []Answer
}
