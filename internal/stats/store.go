package stats

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/tidwall/gjson"

	"github.com/robalobadob/numguess/internal/kv"
)

// ErrNotLoaded is wrapped by save warnings while the persisted record has not
// been read successfully; saving then would overwrite it with partial counts.
var ErrNotLoaded = errors.New("statistics record not loaded")

// Store reads and writes one player's Statistics. It is not safe for
// concurrent use; callers hold the owning session's lock.
type Store struct {
	bucket kv.Bucket
	loaded bool // persisted record read (or known absent)
}

// NewStore binds a store to a persistence bucket.
func NewStore(b kv.Bucket) *Store {
	return &Store{bucket: b}
}

// Load returns the persisted record. A missing record yields zeros. Each field
// is decoded on its own: a missing, non-numeric or negative field is 0 while
// the others keep their values. A read failure yields zeros plus a warning.
func (s *Store) Load(ctx context.Context) (Statistics, error) {
	data, err := s.bucket.Get(ctx, Key)
	if errors.Is(err, kv.ErrNotFound) {
		s.loaded = true
		return Statistics{}, nil
	}
	if err != nil {
		return Statistics{}, &PersistenceWarning{Op: "load", Err: err}
	}
	s.loaded = true
	return decode(data), nil
}

// Loaded reports whether Load (or Reset) has succeeded. Until it has, Save
// refuses to write.
func (s *Store) Loaded() bool { return s.loaded }

// Save writes the whole record.
func (s *Store) Save(ctx context.Context, st Statistics) error {
	if !s.loaded {
		return &PersistenceWarning{Op: "save", Err: ErrNotLoaded}
	}
	data, err := json.Marshal(st)
	if err != nil {
		return &PersistenceWarning{Op: "save", Err: err}
	}
	if err := s.bucket.Put(ctx, Key, data); err != nil {
		return &PersistenceWarning{Op: "save", Err: err}
	}
	return nil
}

// RecordRoundStart increments RoundsPlayed and persists.
func (s *Store) RecordRoundStart(ctx context.Context, st Statistics) (Statistics, error) {
	return s.commit(ctx, st.WithRoundStart())
}

// RecordWin increments Wins and CurrentStreak and persists.
func (s *Store) RecordWin(ctx context.Context, st Statistics) (Statistics, error) {
	return s.commit(ctx, st.WithWin())
}

// RecordLoss increments Losses, zeroes CurrentStreak and persists.
func (s *Store) RecordLoss(ctx context.Context, st Statistics) (Statistics, error) {
	return s.commit(ctx, st.WithLoss())
}

// RecordRetry increments Retries and persists.
func (s *Store) RecordRetry(ctx context.Context, st Statistics) (Statistics, error) {
	return s.commit(ctx, st.WithRetry())
}

// Reset zeroes every counter and deletes the persisted record.
func (s *Store) Reset(ctx context.Context) (Statistics, error) {
	if err := s.bucket.Delete(ctx, Key); err != nil {
		return Statistics{}, &PersistenceWarning{Op: "clear", Err: err}
	}
	s.loaded = true
	return Statistics{}, nil
}

func (s *Store) commit(ctx context.Context, st Statistics) (Statistics, error) {
	return st, s.Save(ctx, st)
}

func decode(data []byte) Statistics {
	if !gjson.ValidBytes(data) {
		return Statistics{}
	}
	doc := gjson.ParseBytes(data)
	return Statistics{
		Wins:          counter(doc, "wins"),
		Losses:        counter(doc, "losses"),
		Retries:       counter(doc, "retries"),
		RoundsPlayed:  counter(doc, "roundsPlayed"),
		CurrentStreak: counter(doc, "currentStreak"),
	}
}

func counter(doc gjson.Result, field string) int {
	v := doc.Get(field)
	if v.Type != gjson.Number {
		return 0
	}
	n := v.Int()
	if n < 0 {
		return 0
	}
	return int(n)
}
