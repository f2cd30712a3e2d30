package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/davidgeorgehope/sre-tycoon/internal/config"
	"github.com/davidgeorgehope/sre-tycoon/internal/game"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

const RecentGamesLimit = 5

type Server struct {
	cfg  config.APIConfig
	log  *slog.Logger
	game *game.Service
	mux  *chi.Mux
}

func New(cfg config.APIConfig, logger *slog.Logger, gameSvc *game.Service) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		cfg:  cfg,
		log:  logger,
		game: gameSvc,
		mux:  chi.NewRouter(),
	}
	s.routes()
	return s
}

func (s *Server) Handler() http.Handler {
	return s.mux
}

func (s *Server) routes() {
	timeout := s.cfg.RequestTimeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	r := s.mux
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(timeout))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
	})

	r.Route("/v1", func(r chi.Router) {
		r.Get("/catalog", s.handleCatalog)
		r.Get("/leaderboard", s.handleLeaderboard)

		r.Get("/companies", s.handleRecentCompanies)
		r.Post("/companies", s.handleCreateCompany)
		r.Route("/companies/{id}", func(r chi.Router) {
			r.Get("/", s.handleCompanyState)
			r.Post("/actions", s.handlePerformAction)
			r.Post("/end-turn", s.handleEndTurn)
			r.Get("/turns", s.handleTurns)
		})
	})
}

func (s *Server) handleCatalog(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.game.Catalog())
}

func (s *Server) handleRecentCompanies(w http.ResponseWriter, r *http.Request) {
	companies, err := s.game.RecentActive(r.Context(), RecentGamesLimit)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"companies": companies})
}

func (s *Server) handleCreateCompany(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Scenario string `json:"scenario"`
		Name     string `json:"name"`
	}
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	c, err := s.game.CreateCompany(r.Context(), in.Scenario, in.Name)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

func (s *Server) handleCompanyState(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	c, err := s.game.Company(r.Context(), id)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	turns, err := s.game.Turns(r.Context(), id, game.DefaultTurnsLimit)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"company": c,
		"turns":   turns,
	})
}

func (s *Server) handlePerformAction(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Action string `json:"action"`
	}
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	res, c, err := s.game.PerformAction(r.Context(), chi.URLParam(r, "id"), game.ActionKind(in.Action))
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"result":  res,
		"company": c,
	})
}

func (s *Server) handleEndTurn(w http.ResponseWriter, r *http.Request) {
	out, c, err := s.game.EndTurn(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	payload := map[string]any{
		"events":  out.Events,
		"turn":    out.Turn,
		"company": c,
	}
	if out.Score != nil {
		payload["score"] = out.Score
	}
	writeJSON(w, http.StatusOK, payload)
}

func (s *Server) handleTurns(w http.ResponseWriter, r *http.Request) {
	limit := game.DefaultTurnsLimit
	if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}
	id := chi.URLParam(r, "id")
	// Distinguish an unknown company from one with no history yet.
	if _, err := s.game.Company(r.Context(), id); err != nil {
		s.writeDomainError(w, err)
		return
	}
	turns, err := s.game.Turns(r.Context(), id, limit)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"turns": turns})
}

func (s *Server) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	lb, err := s.game.Leaderboard(r.Context())
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, lb)
}

func (s *Server) writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, game.ErrValidation):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, game.ErrCompanyNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, game.ErrGameOver), errors.Is(err, game.ErrNoActionPoints):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, game.ErrTxConflict):
		writeError(w, http.StatusConflict, err.Error())
	default:
		s.log.Error("request failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func decodeJSON(r *http.Request, out any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(out); err != nil {
		return err
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{"error": strings.TrimSpace(message)})
}
