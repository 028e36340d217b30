// internal/httpserver/routes_game.go
//
// HTTP routes for playing rounds.
//   - GET  /stats          → current statistics
//   - GET  /game           → current round + statistics
//   - POST /game/new       → start a fresh round ("New Game")
//   - POST /game/retry     → start a round straight after a loss (counted as a retry)
//   - POST /game/guess     → submit one guess
//   - POST /game/quit      → confirmed quit: reset statistics, drop the session
//   - GET  /rounds/recent  → the player's latest logged rounds
//
// Every handler holds the player's session lock for its whole duration, so a
// player's events are applied one at a time, in order.

package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/hlog"

	"github.com/robalobadob/numguess/internal/game"
	"github.com/robalobadob/numguess/internal/rounds"
	"github.com/robalobadob/numguess/internal/stats"
	"github.com/robalobadob/numguess/internal/store"
)

// mountGame registers the game routes on r (already behind withPlayer).
func (s *Server) mountGame(r chi.Router) {
	r.Get("/stats", s.handleStats)
	r.Route("/game", func(r chi.Router) {
		r.Get("/", s.handleState)
		r.Post("/new", s.handleNew)
		r.Post("/retry", s.handleRetry)
		r.Post("/guess", s.handleGuess)
		r.Post("/quit", s.handleQuit)
	})
	r.Get("/rounds/recent", s.handleRecent)
}

// gameRes is the common response body for game routes.
type gameRes struct {
	Round   *game.Snapshot   `json:"round,omitempty"`
	Stats   stats.Statistics `json:"stats"`
	Result  *game.Result     `json:"result,omitempty"`
	Hint    string           `json:"hint,omitempty"`
	Message string           `json:"message,omitempty"`
	Warning string           `json:"warning,omitempty"`
}

const persistenceWarning = "Statistics could not be saved; they will last until you close this page."

// lockSession returns the player's live session, locked. The caller must Unlock it.
//
// A session closed by a concurrent quit is skipped, so no request writes
// pre-quit counters back. While the persisted statistics have not been read,
// every call retries the read; the returned string is a warning for the player.
func (s *Server) lockSession(r *http.Request) (*store.Session, string) {
	ctx := r.Context()
	playerID := playerFrom(r)
	for {
		sess, err := s.sessions.GetOrCreate(ctx, playerID, func() *store.Session {
			return &store.Session{Store: stats.NewStore(s.backend.Bucket(playerID))}
		})
		if err != nil {
			// The in-memory registry does not fail; keep playing on a throwaway session.
			hlog.FromRequest(r).Error().Err(err).Msg("session registry")
			sess = &store.Session{PlayerID: playerID, Store: stats.NewStore(s.backend.Bucket(playerID))}
		}
		sess.Lock()
		if sess.Closed {
			sess.Unlock()
			continue
		}
		if sess.Store.Loaded() {
			return sess, ""
		}
		loaded, err := sess.Store.Load(ctx)
		if err != nil {
			return sess, s.warn(r, err)
		}
		sess.Stats = loaded
		return sess, ""
	}
}

// warn logs and counts a persistence failure and returns the text shown to the player.
func (s *Server) warn(r *http.Request, err error) string {
	if err == nil {
		return ""
	}
	op := "unknown"
	var pw *stats.PersistenceWarning
	if errors.As(err, &pw) {
		op = pw.Op
	}
	s.metrics.PersistenceWarnings.WithLabelValues(op).Inc()
	hlog.FromRequest(r).Warn().Err(err).Str("player", playerFrom(r)).Str("op", op).Msg("statistics persistence")
	return persistenceWarning
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

// -----------------------------------------------------------------------------
// GET /stats, GET /game

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	sess, warning := s.lockSession(r)
	defer sess.Unlock()
	writeJSON(w, http.StatusOK, gameRes{Stats: sess.Stats, Warning: warning})
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	sess, warning := s.lockSession(r)
	defer sess.Unlock()
	if sess.Round == nil {
		writeError(w, http.StatusNotFound, "no_round")
		return
	}
	snap := sess.Round.Snapshot()
	writeJSON(w, http.StatusOK, gameRes{Round: &snap, Stats: sess.Stats, Warning: warning})
}

// -----------------------------------------------------------------------------
// POST /game/new, POST /game/retry

func (s *Server) handleNew(w http.ResponseWriter, r *http.Request) {
	sess, warning := s.lockSession(r)
	defer sess.Unlock()

	warning = firstNonEmpty(s.startRound(r, sess, "new"), warning)
	s.writeStarted(w, sess, warning)
}

// handleRetry is only valid while the current round is lost.
func (s *Server) handleRetry(w http.ResponseWriter, r *http.Request) {
	sess, warning := s.lockSession(r)
	defer sess.Unlock()

	if sess.Round == nil || !sess.Round.Lost() {
		writeError(w, http.StatusConflict, "retry_unavailable")
		return
	}
	var err error
	sess.Stats, err = sess.Store.RecordRetry(r.Context(), sess.Stats)
	warning = firstNonEmpty(s.warn(r, err), warning)
	warning = firstNonEmpty(s.startRound(r, sess, "retry"), warning)
	s.writeStarted(w, sess, warning)
}

// startRound replaces the session's round and counts it. Caller holds the session lock.
func (s *Server) startRound(r *http.Request, sess *store.Session, kind string) string {
	ctx := r.Context()
	sess.Round = s.newRound(s.cfg.MaxTries)

	var err error
	sess.Stats, err = sess.Store.RecordRoundStart(ctx, sess.Stats)
	s.metrics.RoundsStarted.WithLabelValues(kind).Inc()
	s.logRound(r, func(ctx context.Context) error {
		return s.rounds.Started(ctx, sess.PlayerID, sess.Round.ID, sess.Round.MaxTries)
	})
	hlog.FromRequest(r).Debug().Str("round", sess.Round.ID).Str("kind", kind).Msg("round started")
	return s.warn(r, err)
}

func (s *Server) writeStarted(w http.ResponseWriter, sess *store.Session, warning string) {
	snap := sess.Round.Snapshot()
	writeJSON(w, http.StatusOK, gameRes{
		Round:   &snap,
		Stats:   sess.Stats,
		Hint:    "Enter a number to start guessing!",
		Warning: warning,
	})
}

// -----------------------------------------------------------------------------
// POST /game/guess

// guessReq accepts the guess as a JSON string or a bare number.
type guessReq struct {
	Guess json.RawMessage `json:"guess"`
}

func (g guessReq) raw() string {
	var s string
	if err := json.Unmarshal(g.Guess, &s); err == nil {
		return s
	}
	return string(g.Guess)
}

// invalidRes is the body for a rejected guess.
type invalidRes struct {
	Outcome string      `json:"outcome"`
	Reason  game.Reason `json:"reason"`
	Message string      `json:"message"`
}

func (s *Server) handleGuess(w http.ResponseWriter, r *http.Request) {
	var req guessReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_json")
		return
	}

	sess, warning := s.lockSession(r)
	defer sess.Unlock()

	if sess.Round == nil {
		writeError(w, http.StatusConflict, "no_round")
		return
	}

	res, err := sess.Round.Submit(req.raw())
	var invalid *game.InvalidGuessError
	switch {
	case errors.As(err, &invalid):
		s.metrics.Guesses.WithLabelValues("invalid").Inc()
		writeJSON(w, http.StatusBadRequest, invalidRes{Outcome: "invalid", Reason: invalid.Reason, Message: invalid.Error()})
		return
	case errors.Is(err, game.ErrRoundOver):
		s.metrics.Guesses.WithLabelValues("round_over").Inc()
		writeError(w, http.StatusConflict, "round_over")
		return
	case err != nil:
		hlog.FromRequest(r).Error().Err(err).Msg("submit guess")
		writeError(w, http.StatusInternalServerError, "guess_failed")
		return
	}
	s.metrics.Guesses.WithLabelValues(string(res.Outcome)).Inc()

	round := sess.Round
	out := gameRes{Result: &res}
	switch {
	case res.Outcome == game.OutcomeWin:
		sess.Stats, err = sess.Store.RecordWin(r.Context(), sess.Stats)
		warning = firstNonEmpty(s.warn(r, err), warning)
		s.finish(r, sess, "won")
		out.Hint = fmt.Sprintf("CONGRATULATIONS! You guessed it in %d tries!", res.TriesUsed)
		out.Message = fmt.Sprintf("You WIN! The secret number was %d!", round.Target)
	case res.Lost:
		sess.Stats, err = sess.Store.RecordLoss(r.Context(), sess.Stats)
		warning = firstNonEmpty(s.warn(r, err), warning)
		s.finish(r, sess, "lost")
		out.Hint = fmt.Sprintf("Game Over! The secret number was %d", round.Target)
		out.Message = "You LOST! Better luck next time!"
	default:
		s.logRound(r, func(ctx context.Context) error {
			return s.rounds.Progress(ctx, sess.PlayerID, round.ID, round.TriesUsed)
		})
		out.Hint = hintFor(res)
	}

	snap := round.Snapshot()
	out.Round = &snap
	out.Stats = sess.Stats
	out.Warning = warning
	writeJSON(w, http.StatusOK, out)
}

// finish records a terminal round in metrics and the round log.
func (s *Server) finish(r *http.Request, sess *store.Session, result string) {
	round := sess.Round
	s.metrics.RoundsFinished.WithLabelValues(result).Inc()
	s.logRound(r, func(ctx context.Context) error {
		return s.rounds.Finished(ctx, sess.PlayerID, round.ID, result, round.TriesUsed, round.Target)
	})
}

// hintFor renders direction + parity, e.g. "Too HIGH! The secret number is EVEN.".
func hintFor(res game.Result) string {
	var b strings.Builder
	if res.Direction == game.TooHigh {
		b.WriteString("Too HIGH! ")
	} else {
		b.WriteString("Too LOW! ")
	}
	fmt.Fprintf(&b, "The secret number is %s.", strings.ToUpper(string(res.Parity)))
	return b.String()
}

// logRound writes to the round log when one is configured. Failures are warnings only.
func (s *Server) logRound(r *http.Request, fn func(ctx context.Context) error) {
	if s.rounds == nil {
		return
	}
	if err := fn(r.Context()); err != nil {
		hlog.FromRequest(r).Warn().Err(err).Str("player", playerFrom(r)).Msg("round log")
	}
}

// -----------------------------------------------------------------------------
// POST /game/quit

type quitReq struct {
	Confirm bool `json:"confirm"`
}

type quitRes struct {
	Quit     bool   `json:"quit"`
	Redirect string `json:"redirect,omitempty"`
	Warning  string `json:"warning,omitempty"`
}

// handleQuit resets everything only when the player confirmed; otherwise nothing changes.
func (s *Server) handleQuit(w http.ResponseWriter, r *http.Request) {
	var req quitReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_json")
		return
	}
	if !req.Confirm {
		writeJSON(w, http.StatusOK, quitRes{Quit: false})
		return
	}

	sess, _ := s.lockSession(r)
	defer sess.Unlock()

	var err error
	sess.Stats, err = sess.Store.Reset(r.Context())
	warning := s.warn(r, err)
	sess.Round = nil
	sess.Closed = true
	s.logRound(r, func(ctx context.Context) error {
		return s.rounds.DeletePlayer(ctx, sess.PlayerID)
	})
	if err := s.sessions.Delete(r.Context(), sess.PlayerID); err != nil {
		hlog.FromRequest(r).Warn().Err(err).Msg("drop session")
	}
	hlog.FromRequest(r).Info().Str("player", sess.PlayerID).Msg("player quit")
	writeJSON(w, http.StatusOK, quitRes{Quit: true, Redirect: s.cfg.QuitURL, Warning: warning})
}

// -----------------------------------------------------------------------------
// GET /rounds/recent

type recentRes struct {
	Rounds []rounds.Row `json:"rounds"`
}

func (s *Server) handleRecent(w http.ResponseWriter, r *http.Request) {
	if s.rounds == nil {
		writeJSON(w, http.StatusOK, recentRes{Rounds: []rounds.Row{}})
		return
	}
	rows, err := s.rounds.Recent(r.Context(), playerFrom(r), 20)
	if err != nil {
		hlog.FromRequest(r).Error().Err(err).Msg("recent rounds")
		writeError(w, http.StatusInternalServerError, "db_error")
		return
	}
	writeJSON(w, http.StatusOK, recentRes{Rounds: rows})
}
