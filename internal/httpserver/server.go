// internal/httpserver/server.go
//
// HTTP server wiring for the number-guessing game.
// Responsibilities:
//   - Router + middleware (request IDs, access log, panic recovery, timeouts, CORS).
//   - Public endpoints: "/" (the page), "/health", "/metrics".
//   - Player identity: signed player cookie, resolved once per request.
//   - Game endpoints: mounted by routes_game.go.
//
// Notes:
//   - The Round Engine and Statistics Store know nothing about HTTP; this package
//     is the thin adapter between browser events and those calls.
//   - Persistence failures are logged, counted and echoed to the page as a warning;
//     they never fail the request.

package httpserver

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/hlog"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/numguess/assets"
	"github.com/robalobadob/numguess/internal/config"
	"github.com/robalobadob/numguess/internal/game"
	"github.com/robalobadob/numguess/internal/kv"
	"github.com/robalobadob/numguess/internal/metrics"
	"github.com/robalobadob/numguess/internal/rounds"
	"github.com/robalobadob/numguess/internal/store"
)

// Options carries the server's collaborators.
type Options struct {
	Config   *config.Config
	Sessions store.Store
	Backend  kv.Backend    // statistics persistence
	Rounds   *rounds.Store // optional round log
	Metrics  *metrics.Metrics

	// NewRound overrides target selection (tests). Defaults to game.Start.
	NewRound func(maxTries int) *game.Round
}

// Server bundles router, session registry and persistence.
type Server struct {
	r        *chi.Mux
	cfg      *config.Config
	sessions store.Store
	backend  kv.Backend
	rounds   *rounds.Store
	metrics  *metrics.Metrics
	newRound func(maxTries int) *game.Round
}

// New constructs a Server, installs middleware, and registers routes.
func New(opts Options) *Server {
	s := &Server{
		r:        chi.NewRouter(),
		cfg:      opts.Config,
		sessions: opts.Sessions,
		backend:  opts.Backend,
		rounds:   opts.Rounds,
		metrics:  opts.Metrics,
		newRound: opts.NewRound,
	}
	if s.newRound == nil {
		s.newRound = game.Start
	}
	if s.metrics == nil {
		s.metrics = metrics.New()
	}

	// --- middleware ---
	s.r.Use(chimw.RequestID)                   // add X-Request-ID
	s.r.Use(chimw.RealIP)                      // set RemoteAddr from X-Forwarded-For etc.
	s.r.Use(hlog.NewHandler(log.Logger))       // request-scoped zerolog logger
	s.r.Use(hlog.AccessHandler(accessLog))     // one line per request
	s.r.Use(chimw.Recoverer)                   // recover from panics
	s.r.Use(chimw.Timeout(s.requestTimeout())) // bound handler time
	s.r.Use(s.cors)                            // credentials-friendly CORS

	// --- page + diagnostics ---
	s.r.Get("/", s.handleIndex)
	s.r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
	})
	s.r.Handle("/metrics", s.metrics.Handler())

	// --- game (every player gets an identity) ---
	s.r.Group(func(r chi.Router) {
		r.Use(s.withPlayer)
		s.mountGame(r)
	})

	// JSON 404 for easier debugging
	s.r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not_found", "path": r.URL.Path})
	})

	return s
}

// Start begins serving HTTP on addr.
func (s *Server) Start(addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.r,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return srv.ListenAndServe()
}

// Router exposes the internal router (useful for tests).
func (s *Server) Router() chi.Router { return s.r }

func (s *Server) requestTimeout() time.Duration {
	if s.cfg.RequestTimeout > 0 {
		return s.cfg.RequestTimeout
	}
	return 10 * time.Second
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	page, err := assets.IndexHTML()
	if err != nil {
		hlog.FromRequest(r).Error().Err(err).Msg("read index.html")
		writeError(w, http.StatusInternalServerError, "page_unavailable")
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(page)
}

// ----------------------------- middleware ----------------------------------

func accessLog(r *http.Request, status, size int, d time.Duration) {
	hlog.FromRequest(r).Info().
		Str("method", r.Method).
		Str("path", r.URL.Path).
		Int("status", status).
		Int("size", size).
		Dur("duration", d).
		Str("request_id", chimw.GetReqID(r.Context())).
		Msg("request")
}

// cors enables credentialed CORS for the configured client origin, so a
// separately served frontend can call the API with the player cookie.
func (s *Server) cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Vary", "Origin")
		w.Header().Set("Access-Control-Allow-Origin", s.cfg.ClientOrigin)
		w.Header().Set("Access-Control-Allow-Credentials", "true")
		w.Header().Set("Access-Control-Allow-Methods", "GET,POST,OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// ------------------------------- helpers -----------------------------------

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string) {
	writeJSON(w, status, map[string]string{"error": code})
}
