// internal/game/types.go
//
// Core type definitions for the number-guessing engine.
// Defines:
//   - Direction / Parity: the two hints returned for a missed guess.
//   - Result: evaluation of one accepted guess.
//   - Round: state for a single in-progress or finished round.
//   - InvalidGuessError / ErrRoundOver: rejected submissions.

package game

import (
	"errors"
	"fmt"
)

const (
	// MinGuess and MaxGuess bound both the target and every accepted guess (inclusive).
	MinGuess = 0
	MaxGuess = 1000

	// DefaultMaxTries is the try budget used when a caller passes maxTries <= 0.
	DefaultMaxTries = 10
)

// Direction tells the player where the guess sits relative to the target.
type Direction string

const (
	TooHigh Direction = "too_high"
	TooLow  Direction = "too_low"
)

// Parity describes the target, not the guess.
type Parity string

const (
	Even Parity = "even"
	Odd  Parity = "odd"
)

// Outcome tags a Result.
type Outcome string

const (
	OutcomeFeedback Outcome = "feedback"
	OutcomeWin      Outcome = "win"
)

// Result is returned for every accepted guess.
//
// For OutcomeFeedback, Direction and Parity are set. Lost is true when this
// guess used the last try; Target is then revealed. For OutcomeWin, Target is
// the guess itself.
type Result struct {
	Outcome   Outcome   `json:"outcome"`
	Guess     int       `json:"guess"`
	Direction Direction `json:"direction,omitempty"`
	Parity    Parity    `json:"parity,omitempty"`
	Lost      bool      `json:"lost,omitempty"`
	Target    *int      `json:"target,omitempty"`
	TriesUsed int       `json:"triesUsed"`
}

// Reason classifies an invalid guess.
type Reason string

const (
	ReasonNotANumber Reason = "not_a_number"
	ReasonOutOfRange Reason = "out_of_range"
	ReasonDuplicate  Reason = "duplicate"
)

// InvalidGuessError is returned when the raw input is rejected before it counts as a try.
type InvalidGuessError struct {
	Reason Reason
	Input  string
	Guess  int // set for out_of_range and duplicate
}

func (e *InvalidGuessError) Error() string {
	switch e.Reason {
	case ReasonOutOfRange:
		return fmt.Sprintf("Number must be between %d and %d!", MinGuess, MaxGuess)
	case ReasonDuplicate:
		return fmt.Sprintf("You already guessed %d! Try a different number.", e.Guess)
	default:
		return "Please enter a valid number!"
	}
}

// ErrRoundOver is returned by Submit once the round has been won or lost.
var ErrRoundOver = errors.New("round is over")

// Round holds the state of a single round.
type Round struct {
	ID        string // Unique round identifier (uuid).
	Target    int    // Hidden number; never changes after creation.
	MaxTries  int    // Try budget, fixed at creation.
	TriesUsed int    // Accepted guesses so far.
	History   []int  // Accepted guesses in submission order.
	Over      bool   // True once the round is won or lost.
	Won       bool   // True if the round was finished with a win.
}

// Snapshot is the host-facing view of a Round. Target is only present once the round is over.
type Snapshot struct {
	ID        string `json:"id"`
	State     string `json:"state"`
	MaxTries  int    `json:"maxTries"`
	TriesUsed int    `json:"triesUsed"`
	Remaining int    `json:"remaining"`
	History   []int  `json:"history"`
	Target    *int   `json:"target,omitempty"`
}
