// Package stats keeps a player's cumulative game counters and persists them
// through a kv.Bucket under a single fixed key.
//
// Statistics is a plain value: every recording operation takes the current
// record and returns the updated one. Persistence failures never block the
// update; they come back as a *PersistenceWarning next to the new value.
package stats

import (
	"errors"
	"fmt"
)

// Key is the bucket key the record is stored under.
const Key = "numberGameStats"

// Statistics holds the five cumulative counters.
type Statistics struct {
	Wins          int `json:"wins"`
	Losses        int `json:"losses"`
	Retries       int `json:"retries"`
	RoundsPlayed  int `json:"roundsPlayed"`
	CurrentStreak int `json:"currentStreak"`
}

// WithRoundStart counts a started round.
func (s Statistics) WithRoundStart() Statistics {
	s.RoundsPlayed++
	return s
}

// WithWin counts a win and extends the streak.
func (s Statistics) WithWin() Statistics {
	s.Wins++
	s.CurrentStreak++
	return s
}

// WithLoss counts a loss and breaks the streak.
func (s Statistics) WithLoss() Statistics {
	s.Losses++
	s.CurrentStreak = 0
	return s
}

// WithRetry counts a replay started straight after a loss.
func (s Statistics) WithRetry() Statistics {
	s.Retries++
	return s
}

// ErrPersistence matches every *PersistenceWarning via errors.Is.
var ErrPersistence = errors.New("statistics persistence failed")

// PersistenceWarning reports a failed read or write. It is non-fatal: the
// in-memory record returned alongside it stays authoritative.
type PersistenceWarning struct {
	Op  string // load | save | clear
	Err error
}

func (w *PersistenceWarning) Error() string {
	return fmt.Sprintf("stats %s: %v", w.Op, w.Err)
}

func (w *PersistenceWarning) Unwrap() error { return w.Err }

func (w *PersistenceWarning) Is(target error) bool { return target == ErrPersistence }
