package database

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/bloops-games/mobigame/internal/byteutil"
	"github.com/bloops-games/mobigame/internal/cache"
	"github.com/bloops-games/mobigame/internal/database"
	"github.com/bloops-games/mobigame/internal/database/question/model"
	"github.com/valyala/fastrand"
	bolt "go.etcd.io/bbolt"
)

const (
	levelsBucket    = "levels"
	questionsBucket = "questions"
	answersBucket   = "answers"
)

// ErrNoQuestions means a level has no questions to draw from.
var ErrNoQuestions = errors.New("no questions for level")

type (
	levelKey    int
	questionKey int64
)

func New(db *database.DB, cache cache.Cache) *DB {
	return &DB{sDB: db, cache: cache}
}

type DB struct {
	sDB *database.DB

	cache cache.Cache
}

// RandomQuestion picks a question of the level uniformly at random.
func (db *DB) RandomQuestion(ctx context.Context, level int) (model.Question, error) {
	questions, err := db.FetchByLevel(ctx, level)
	if err != nil {
		return model.Question{}, fmt.Errorf("fetch by level: %w", err)
	}
	if len(questions) == 0 {
		return model.Question{}, fmt.Errorf("level %d: %w", level, ErrNoQuestions)
	}

	return questions[fastrand.Uint32n(uint32(len(questions)))], nil
}

func (db *DB) FetchByLevel(ctx context.Context, level int) ([]model.Question, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if db.cache != nil {
		if v, ok := db.cache.Get(levelKey(level)); ok {
			return v.([]model.Question), nil
		}
	}

	var list []model.Question
	if err := db.sDB.DB.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(questionsBucket))
		if b == nil {
			return nil
		}

		return b.ForEach(func(k, v []byte) error {
			var q model.Question
			if err := json.Unmarshal(v, &q); err != nil {
				return fmt.Errorf("json unmarshal error, %w", err)
			}
			if q.Level == level {
				list = append(list, q)
			}
			return nil
		})
	}); err != nil {
		return nil, fmt.Errorf("view transaction error: %w", err)
	}

	if db.cache != nil {
		db.cache.Add(levelKey(level), list)
	}

	return list, nil
}

func (db *DB) Question(ctx context.Context, id int64) (model.Question, error) {
	var q model.Question
	if err := ctx.Err(); err != nil {
		return q, err
	}

	if db.cache != nil {
		if v, ok := db.cache.Get(questionKey(id)); ok {
			return v.(model.Question), nil
		}
	}

	if err := db.get(questionsBucket, id, &q); err != nil {
		return q, fmt.Errorf("question %d: %w", id, err)
	}

	if db.cache != nil {
		db.cache.Add(questionKey(id), q)
	}

	return q, nil
}

func (db *DB) Answer(ctx context.Context, id int64) (model.Answer, error) {
	var a model.Answer
	if err := ctx.Err(); err != nil {
		return a, err
	}

	if err := db.get(answersBucket, id, &a); err != nil {
		return a, fmt.Errorf("answer %d: %w", id, err)
	}

	return a, nil
}

func (db *DB) Levels(ctx context.Context) ([]model.Level, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var list []model.Level
	if err := db.sDB.DB.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(levelsBucket))
		if b == nil {
			return nil
		}

		return b.ForEach(func(k, v []byte) error {
			var l model.Level
			if err := json.Unmarshal(v, &l); err != nil {
				return fmt.Errorf("json unmarshal error, %w", err)
			}
			list = append(list, l)
			return nil
		})
	}); err != nil {
		return nil, fmt.Errorf("view transaction error: %w", err)
	}

	return list, nil
}

// Import stores levels, questions and answers in one transaction, assigning ids to every
// question and answer. Existing levels are kept.
func (db *DB) Import(ctx context.Context, levels []model.Level, entries []model.Entry) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	tx, err := db.sDB.DB.Begin(true)
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}

	defer tx.Rollback() // nolint

	lb, err := tx.CreateBucketIfNotExists([]byte(levelsBucket))
	if err != nil {
		return fmt.Errorf("create bucket %s: %w", levelsBucket, err)
	}
	qb, err := tx.CreateBucketIfNotExists([]byte(questionsBucket))
	if err != nil {
		return fmt.Errorf("create bucket %s: %w", questionsBucket, err)
	}
	ab, err := tx.CreateBucketIfNotExists([]byte(answersBucket))
	if err != nil {
		return fmt.Errorf("create bucket %s: %w", answersBucket, err)
	}

	for _, level := range levels {
		if level.LevelNo < 1 {
			return fmt.Errorf("invalid level number %d", level.LevelNo)
		}
		if err := putJSON(lb, int64(level.LevelNo), level); err != nil {
			return err
		}
	}

	for _, entry := range entries {
		question := entry.Question
		if lb.Get(byteutil.EncodeInt64ToBytes(int64(question.Level))) == nil {
			return fmt.Errorf("question %q: level %d: %w", question.Text, question.Level, database.ErrNotFound)
		}

		seq, err := qb.NextSequence()
		if err != nil {
			return fmt.Errorf("next question sequence: %w", err)
		}
		question.ID = int64(seq)
		question.AnswerIDs = make([]int64, 0, len(entry.Answers))

		for _, answer := range entry.Answers {
			seq, err := ab.NextSequence()
			if err != nil {
				return fmt.Errorf("next answer sequence: %w", err)
			}
			answer.ID = int64(seq)
			answer.QuestionID = question.ID
			if err := putJSON(ab, answer.ID, answer); err != nil {
				return err
			}
			question.AnswerIDs = append(question.AnswerIDs, answer.ID)
		}

		if err := putJSON(qb, question.ID, question); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}

	if db.cache != nil {
		db.cache.Purge()
	}

	return nil
}

func (db *DB) get(bucket string, id int64, v interface{}) error {
	if err := db.sDB.DB.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucket))
		if b == nil {
			return database.ErrNotFound
		}
		bytes := b.Get(byteutil.EncodeInt64ToBytes(id))
		if bytes == nil {
			return database.ErrNotFound
		}
		return json.Unmarshal(bytes, v)
	}); err != nil {
		return fmt.Errorf("view transaction error: %w", err)
	}

	return nil
}

func putJSON(b *bolt.Bucket, id int64, v interface{}) error {
	bytes, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}

	if err := b.Put(byteutil.EncodeInt64ToBytes(id), bytes); err != nil {
		return fmt.Errorf("put to bucket error: %w", err)
	}

	return nil
}
