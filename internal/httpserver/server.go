// internal/httpserver/server.go
//
// HTTP wiring for the sudoku game engine.
// Responsibilities:
//   - Router + middleware (JSON, CORS, timeouts, panic recovery, request IDs).
//   - Session cookie issuance: every caller gets an opaque signed session id;
//     the session is the unit of state isolation, there are no user accounts.
//   - Game endpoints: POST /game/action (the single state-transition entry),
//     GET /game/state, DELETE /game.
//   - Leaderboard read endpoint.
//   - Puzzle-cache admin surface (count + clear per difficulty) for
//     operational tooling.
//
// The engine's result envelope carries its own success/errorCode fields; the
// HTTP layer only maps infrastructure-ish codes onto status codes.

package httpserver

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"github.com/playgrid/sudoku-server/internal/board"
	"github.com/playgrid/sudoku-server/internal/game"
	"github.com/playgrid/sudoku-server/internal/puzzlecache"
	"github.com/playgrid/sudoku-server/internal/records"
)

// Options carries the environment-derived knobs the server needs.
type Options struct {
	SessionSecret string
	CookieName    string
	ClientOrigin  string
	Secure        bool // production: Secure + SameSite=None cookies
}

// Server bundles router, action processor, cache admin, and leaderboard store.
type Server struct {
	r     *chi.Mux
	proc  *game.Processor
	cache *puzzlecache.Cache
	rec   *records.Store
	opts  Options
}

// New constructs a Server, installs middleware, and registers routes.
func New(proc *game.Processor, cache *puzzlecache.Cache, rec *records.Store, opts Options) *Server {
	if opts.CookieName == "" {
		opts.CookieName = "sudoku_session"
	}
	s := &Server{r: chi.NewRouter(), proc: proc, cache: cache, rec: rec, opts: opts}

	// --- middleware ---
	s.r.Use(chimw.RequestID)
	s.r.Use(chimw.RealIP)
	s.r.Use(chimw.Recoverer)
	s.r.Use(chimw.Timeout(10 * time.Second))
	s.r.Use(jsonContentType)
	s.r.Use(s.cors)

	// --- diagnostics ---
	s.r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"service":"sudoku-server","endpoints":["/health","POST /game/action","GET /game/state","DELETE /game","/leaderboard/{difficulty}"]}`))
	})
	s.r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"ok":true}`))
	})

	// Game endpoints: session cookie issued on first contact.
	s.r.With(s.withSession).Post("/game/action", s.handleAction)
	s.r.With(s.withSession).Get("/game/state", s.handleGetState)
	s.r.With(s.withSession).Delete("/game", s.handleDeleteGame)

	s.r.Get("/leaderboard/{difficulty}", s.handleLeaderboard)

	// Operational surface for the puzzle cache.
	s.r.Get("/admin/cache/{difficulty}/count", s.handleCacheCount)
	s.r.Post("/admin/cache/{difficulty}/clear", s.handleCacheClear)

	s.r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"not_found","path":"`+r.URL.Path+`"}`, http.StatusNotFound)
	})

	return s
}

// Start begins serving HTTP on addr.
func (s *Server) Start(addr string) error { return http.ListenAndServe(addr, s.r) }

// Router exposes the internal router (useful for tests).
func (s *Server) Router() chi.Router { return s.r }

// ------------------------------- game --------------------------------------

// handleAction decodes one Action and runs it through the processor.
func (s *Server) handleAction(w http.ResponseWriter, r *http.Request) {
	var act game.Action
	if err := json.NewDecoder(r.Body).Decode(&act); err != nil {
		http.Error(w, `{"error":"bad_json"}`, http.StatusBadRequest)
		return
	}
	res := s.proc.Process(r.Context(), sessionID(r), act)
	writeResult(w, res)
}

func (s *Server) handleGetState(w http.ResponseWriter, r *http.Request) {
	st, found, err := s.proc.CurrentState(r.Context(), sessionID(r))
	if err != nil {
		log.Error().Err(err).Msg("state read")
		http.Error(w, `{"error":"state_unavailable"}`, http.StatusServiceUnavailable)
		return
	}
	if !found {
		http.Error(w, `{"error":"game_not_found"}`, http.StatusNotFound)
		return
	}
	_ = json.NewEncoder(w).Encode(st)
}

func (s *Server) handleDeleteGame(w http.ResponseWriter, r *http.Request) {
	if err := s.proc.DeleteState(r.Context(), sessionID(r)); err != nil {
		log.Error().Err(err).Msg("state delete")
		http.Error(w, `{"error":"state_unavailable"}`, http.StatusServiceUnavailable)
		return
	}
	_ = json.NewEncoder(w).Encode(map[string]bool{"ok": true})
}

// writeResult maps engine error codes onto status codes; the envelope itself
// is always returned so clients can read errorCode and version.
func writeResult(w http.ResponseWriter, res *game.Result) {
	status := http.StatusOK
	switch res.ErrorCode {
	case game.CodeNetworkError:
		status = http.StatusServiceUnavailable
	case game.CodeGameNotFound:
		status = http.StatusNotFound
	case game.CodeVersionConflict:
		status = http.StatusConflict
	}
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(res)
}

// ---------------------------- leaderboard -----------------------------------

func (s *Server) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	d := board.ParseDifficulty(chi.URLParam(r, "difficulty"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	entries, err := s.rec.Leaderboard(r.Context(), d, limit)
	if err != nil {
		log.Error().Err(err).Msg("leaderboard query")
		http.Error(w, `{"error":"db_error"}`, http.StatusInternalServerError)
		return
	}
	_ = json.NewEncoder(w).Encode(map[string]any{"difficulty": d, "entries": entries})
}

// ------------------------------- admin --------------------------------------

func (s *Server) handleCacheCount(w http.ResponseWriter, r *http.Request) {
	d := board.ParseDifficulty(chi.URLParam(r, "difficulty"))
	n, err := s.cache.Count(r.Context(), d)
	if err != nil {
		http.Error(w, `{"error":"cache_unavailable"}`, http.StatusServiceUnavailable)
		return
	}
	_ = json.NewEncoder(w).Encode(map[string]any{"difficulty": d, "count": n})
}

func (s *Server) handleCacheClear(w http.ResponseWriter, r *http.Request) {
	d := board.ParseDifficulty(chi.URLParam(r, "difficulty"))
	if err := s.cache.Clear(r.Context(), d); err != nil {
		http.Error(w, `{"error":"cache_unavailable"}`, http.StatusServiceUnavailable)
		return
	}
	log.Info().Str("difficulty", string(d)).Msg("puzzle cache cleared")
	_ = json.NewEncoder(w).Encode(map[string]bool{"ok": true})
}

// ----------------------------- middleware -----------------------------------

// jsonContentType sets a default JSON Content-Type header on all responses.
func jsonContentType(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		next.ServeHTTP(w, r)
	})
}

// cors enables credentialed CORS for the configured client origin.
func (s *Server) cors(next http.Handler) http.Handler {
	origin := s.opts.ClientOrigin
	if origin == "" {
		origin = "http://localhost:5173"
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Vary", "Origin")
		w.Header().Set("Access-Control-Allow-Origin", origin)
		w.Header().Set("Access-Control-Allow-Credentials", "true")
		w.Header().Set("Access-Control-Allow-Methods", "GET,POST,DELETE,OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
