// Package api provides the HTTP API the presentation layer talks to.
// GET endpoints read game state. Player POSTs (build, research, upgrade,
// move) are rate-limited per client. Engine control POSTs require the
// admin bearer token.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/talgya/planetary-ascension/internal/economy"
	"github.com/talgya/planetary-ascension/internal/engine"
	"github.com/talgya/planetary-ascension/internal/persistence"
	"github.com/talgya/planetary-ascension/internal/surface"
)

const (
	maxStreamConns = 16
	maxBodyBytes   = 1 << 16
)

// Server serves one game over HTTP.
type Server struct {
	Game     *engine.Game
	Eng      *engine.Engine
	Journal  *persistence.DB // Optional; events fall back to the in-memory ring
	AdminKey string          // Bearer token for engine control. Empty = control disabled.
	Limiter  *RateLimiter    // Optional; nil = player actions unlimited

	EventBuffer int // Per-stream subscriber buffer

	upgrader    websocket.Upgrader
	streamConns atomic.Int32
}

// NewServer creates a server for g driven by e.
func NewServer(g *engine.Game, e *engine.Engine) *Server {
	return &Server{
		Game:        g,
		Eng:         e,
		EventBuffer: 64,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4 * 1024,
			WriteBufferSize: 16 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

// Handler returns the chi router with all routes mounted.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(corsMiddleware)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/status", s.handleStatus)
		r.Get("/resources", s.handleResources)
		r.Get("/resources/{id}", s.handleResource)
		r.Get("/buildings", s.handleBuildings)
		r.Get("/placements", s.handlePlacements)
		r.Get("/technologies", s.handleTechnologies)
		r.Get("/upgrades", s.handleUpgrades)
		r.Get("/events", s.handleEvents)
		r.Get("/surface", s.handleSurface)
		r.Get("/speed", s.handleGetSpeed)
		r.Get("/stream", s.handleStream)

		// Player actions.
		r.Group(func(r chi.Router) {
			if s.Limiter != nil {
				r.Use(s.Limiter.Middleware)
			}
			r.Post("/placements", s.handlePurchase)
			r.Post("/placements/{id}/move", s.handleMove)
			r.Post("/technologies/{id}/research", s.handleResearch)
			r.Post("/upgrades", s.handleBuyUpgrade)
		})

		// Engine control.
		r.Group(func(r chi.Router) {
			r.Use(s.adminOnly)
			r.Post("/speed", s.handleSetSpeed)
			r.Post("/step", s.handleStep)
		})
	})

	return r
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	slog.Info("HTTP API starting", "addr", addr, "admin_auth", s.AdminKey != "", "journal", s.Journal != nil)

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		slog.Info("HTTP API shutting down")
		return srv.Shutdown(shutdownCtx)
	}
}

// corsMiddleware adds CORS headers for allowed frontend origins.
// CORS_ORIGINS adds a comma-separated list to the localhost dev servers.
func corsMiddleware(next http.Handler) http.Handler {
	allowedOrigins := map[string]bool{
		"http://localhost:5173": true,
		"http://localhost:3000": true,
	}
	if env := os.Getenv("CORS_ORIGINS"); env != "" {
		for _, origin := range strings.Split(env, ",") {
			if origin = strings.TrimSpace(origin); origin != "" {
				allowedOrigins[origin] = true
			}
		}
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if origin := r.Header.Get("Origin"); allowedOrigins[origin] {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// checkBearerToken returns true if the request carries the admin bearer token.
func (s *Server) checkBearerToken(r *http.Request) bool {
	auth := r.Header.Get("Authorization")
	return strings.HasPrefix(auth, "Bearer ") && strings.TrimPrefix(auth, "Bearer ") == s.AdminKey
}

// adminOnly requires the admin bearer token.
func (s *Server) adminOnly(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.AdminKey == "" {
			writeError(w, http.StatusForbidden, "admin endpoints disabled (no admin key set)", "")
			return
		}
		if !s.checkBearerToken(r) {
			writeError(w, http.StatusUnauthorized, "unauthorized", "")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type errorResponse struct {
	Error  string `json:"error"`
	Status string `json:"status,omitempty"` // Player-facing status line
}

func writeError(w http.ResponseWriter, status int, msg, statusLine string) {
	writeJSON(w, status, errorResponse{Error: msg, Status: statusLine})
}

// statusFor maps game errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, economy.ErrUnknownBuilding),
		errors.Is(err, economy.ErrUnknownTechnology),
		errors.Is(err, economy.ErrUnknownUpgrade),
		errors.Is(err, economy.ErrUnknownResource),
		errors.Is(err, surface.ErrUnknownPlacement):
		return http.StatusNotFound
	case errors.Is(err, economy.ErrInsufficientResources),
		errors.Is(err, economy.ErrPrerequisitesUnmet),
		errors.Is(err, economy.ErrAlreadyResearched):
		return http.StatusConflict
	case errors.Is(err, economy.ErrNegativeAmount):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// writeGameError reports a failed game action with the status line that
// action produced.
func writeGameError(w http.ResponseWriter, err error, status string) {
	code := statusFor(err)
	if code == http.StatusInternalServerError {
		slog.Error("game action failed", "error", err)
	}
	writeError(w, code, err.Error(), status)
}

// decodeBody decodes a bounded JSON request body into v.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json: "+err.Error(), "")
		return false
	}
	return true
}
