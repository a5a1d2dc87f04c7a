// Package questionbank reads question files for the question bank. A file is a sequence of
// levels, each followed by numbered questions with two lettered answers:
//
//	Level 1
//	1.) What colour is the sky?
//	A*: Blue
//	B: Green
//
// A star after the letter marks the correct answer.
package questionbank

import (
	"bufio"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"

	"github.com/bloops-games/mobigame/internal/database/question/model"
)

var (
	levelRe    = regexp.MustCompile(`^Level\s+(\d+)\s*$`)
	questionRe = regexp.MustCompile(`^\d+\.\)(.*)$`)
	answerRe   = regexp.MustCompile(`^[AB](\*?):(.*)$`)
)

// ParseError points at the offending line of a question file.
type ParseError struct {
	Line int
	Text string
	Msg  string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s [line %d: %q]", e.Msg, e.Line, e.Text)
}

// CheckError reports a question that does not have exactly two answers with one correct.
type CheckError struct {
	Question string
	Msg      string
}

func (e *CheckError) Error() string {
	return fmt.Sprintf("%s for question %q", e.Msg, e.Question)
}

// Parser collects levels and questions line by line. The zero value is not usable, use
// NewParser.
type Parser struct {
	lineNo   int
	level    int
	question int
	levels   []model.Level
	entries  []model.Entry
}

func NewParser() *Parser {
	return &Parser{question: -1}
}

// Parse feeds every line of r into a new parser.
func Parse(r io.Reader) (*Parser, error) {
	p := NewParser()

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		if err := p.Feed(scanner.Text()); err != nil {
			return nil, err
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read questions: %w", err)
	}

	return p, nil
}

// Feed parses the next line. Blank lines are skipped.
func (p *Parser) Feed(line string) error {
	p.lineNo++
	line = strings.TrimRight(line, "\r\n")
	if strings.TrimSpace(line) == "" {
		return nil
	}

	if m := levelRe.FindStringSubmatch(line); m != nil {
		return p.handleLevel(line, m[1])
	}
	if m := questionRe.FindStringSubmatch(line); m != nil {
		return p.handleQuestion(line, strings.TrimSpace(m[1]))
	}
	if m := answerRe.FindStringSubmatch(line); m != nil {
		return p.handleAnswer(line, m[1] == "*", strings.TrimSpace(m[2]))
	}

	return p.errorf(line, "Bad line")
}

func (p *Parser) handleLevel(line, digits string) error {
	levelNo, err := strconv.Atoi(digits)
	if err != nil || levelNo < 1 {
		return p.errorf(line, "Invalid level number %s", digits)
	}

	p.level = levelNo
	p.question = -1
	for _, l := range p.levels {
		if l.LevelNo == levelNo {
			return nil
		}
	}
	p.levels = append(p.levels, model.Level{LevelNo: levelNo})

	return nil
}

func (p *Parser) handleQuestion(line, text string) error {
	if p.level == 0 {
		return p.errorf(line, "Question outside of level")
	}

	p.entries = append(p.entries, model.Entry{
		Question: model.Question{Text: text, Level: p.level},
	})
	p.question = len(p.entries) - 1

	return nil
}

func (p *Parser) handleAnswer(line string, correct bool, text string) error {
	if p.question < 0 {
		return p.errorf(line, "Answer outside of question")
	}

	entry := &p.entries[p.question]
	entry.Answers = append(entry.Answers, model.Answer{Text: text, Correct: correct})

	return nil
}

func (p *Parser) errorf(line, format string, args ...interface{}) error {
	return &ParseError{Line: p.lineNo, Text: line, Msg: fmt.Sprintf(format, args...)}
}

func (p *Parser) Levels() []model.Level {
	return p.levels
}

func (p *Parser) Entries() []model.Entry {
	return p.entries
}

// Check verifies that every question has two answers and exactly one of them is correct.
func (p *Parser) Check() error {
	for _, entry := range p.entries {
		if len(entry.Answers) != 2 {
			return &CheckError{Question: entry.Question.Text, Msg: "There must be two answers"}
		}

		correct := 0
		for _, a := range entry.Answers {
			if a.Correct {
				correct++
			}
		}
		if correct != 1 {
			return &CheckError{Question: entry.Question.Text, Msg: "There must be exactly one correct answer"}
		}
	}

	return nil
}

// Summary writes the number of levels and questions read.
func (p *Parser) Summary(w io.Writer) error {
	_, err := fmt.Fprintf(w, "Summary:\n  Levels: %d\n  Questions: %d\n", len(p.levels), len(p.entries))
	return err
}

// Print writes every level and question, marking correct answers with a star.
func (p *Parser) Print(w io.Writer) error {
	var b strings.Builder
	b.WriteString("Levels:\n")
	for _, l := range p.levels {
		fmt.Fprintf(&b, "  %d\n", l.LevelNo)
	}
	b.WriteString("Questions:\n")
	for _, entry := range p.entries {
		fmt.Fprintf(&b, "  %s\n", entry.Question.Text)
		for _, a := range entry.Answers {
			mark := " "
			if a.Correct {
				mark = "*"
			}
			fmt.Fprintf(&b, "   %s %s\n", mark, a.Text)
		}
	}

	_, err := io.WriteString(w, b.String())
	return err
}
