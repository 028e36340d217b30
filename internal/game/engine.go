// internal/game/engine.go
//
// Core game engine for a single number-guessing round.
// Responsibilities:
//   - Create rounds with a uniformly drawn target in [MinGuess, MaxGuess].
//   - Validate guesses (integer, in range, not already tried).
//   - Produce direction + parity hints for misses.
//   - Track state transitions: playing → won/lost.
//
// A Round is not safe for concurrent use; the host serialises input per player.
package game

import (
	"crypto/rand"
	"errors"
	"math/big"
	"slices"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// Start constructs a new round with a random target.
func Start(maxTries int) *Round {
	return NewWithTarget(maxTries, randomTarget())
}

// NewWithTarget constructs a round with a fixed target (tests, replays).
func NewWithTarget(maxTries, target int) *Round {
	if maxTries <= 0 {
		maxTries = DefaultMaxTries
	}
	return &Round{
		ID:       uuid.NewString(),
		Target:   target,
		MaxTries: maxTries,
		History:  []int{},
	}
}

// Submit validates raw input and, if accepted, applies it as one try.
//
// Validation rules (round unchanged on failure):
//   - Round must not be over (ErrRoundOver).
//   - Input must be a base-10 integer after trimming whitespace.
//   - Value must lie in [MinGuess, MaxGuess].
//   - Value must not already be in History.
//
// State transitions:
//   - guess == Target → Over, Won.
//   - otherwise, TriesUsed reaching MaxTries → Over, and the same Result reports Lost.
func (r *Round) Submit(raw string) (Result, error) {
	if r.Over {
		return Result{}, ErrRoundOver
	}
	guess, err := parseGuess(raw)
	if err != nil {
		return Result{}, err
	}
	if slices.Contains(r.History, guess) {
		return Result{}, &InvalidGuessError{Reason: ReasonDuplicate, Input: raw, Guess: guess}
	}

	r.History = append(r.History, guess)
	r.TriesUsed++

	if guess == r.Target {
		r.Over, r.Won = true, true
		return Result{Outcome: OutcomeWin, Guess: guess, Target: intPtr(r.Target), TriesUsed: r.TriesUsed}, nil
	}

	res := Result{
		Outcome:   OutcomeFeedback,
		Guess:     guess,
		Direction: direction(guess, r.Target),
		Parity:    parity(r.Target),
		TriesUsed: r.TriesUsed,
	}
	if r.TriesUsed >= r.MaxTries {
		r.Over = true
		res.Lost = true
		res.Target = intPtr(r.Target)
	}
	return res, nil
}

// Remaining reports how many tries are left.
func (r *Round) Remaining() int { return r.MaxTries - r.TriesUsed }

// Lost reports whether the round ended without a win.
func (r *Round) Lost() bool { return r.Over && !r.Won }

// State reports a coarse string representation of the round.
func (r *Round) State() string {
	if r.Over {
		if r.Won {
			return "won"
		}
		return "lost"
	}
	return "playing"
}

// Snapshot copies the round into a view that hides the target while playing.
func (r *Round) Snapshot() Snapshot {
	s := Snapshot{
		ID:        r.ID,
		State:     r.State(),
		MaxTries:  r.MaxTries,
		TriesUsed: r.TriesUsed,
		Remaining: r.Remaining(),
		History:   slices.Clone(r.History),
	}
	if r.Over {
		s.Target = intPtr(r.Target)
	}
	return s
}

func parseGuess(raw string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if errors.Is(err, strconv.ErrRange) {
		// A well-formed integer, just too large for int.
		return 0, &InvalidGuessError{Reason: ReasonOutOfRange, Input: raw}
	}
	if err != nil {
		return 0, &InvalidGuessError{Reason: ReasonNotANumber, Input: raw}
	}
	if n < MinGuess || n > MaxGuess {
		return 0, &InvalidGuessError{Reason: ReasonOutOfRange, Input: raw, Guess: n}
	}
	return n, nil
}

func direction(guess, target int) Direction {
	if guess > target {
		return TooHigh
	}
	return TooLow
}

func parity(target int) Parity {
	if target%2 == 0 {
		return Even
	}
	return Odd
}

// randomTarget draws uniformly from [MinGuess, MaxGuess] using crypto/rand.
func randomTarget() int {
	n, err := rand.Int(rand.Reader, big.NewInt(MaxGuess-MinGuess+1))
	if err != nil {
		return (MinGuess + MaxGuess) / 2
	}
	return MinGuess + int(n.Int64())
}

func intPtr(v int) *int { return &v }
