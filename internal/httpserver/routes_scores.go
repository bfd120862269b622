// internal/httpserver/routes_scores.go
//
// Leaderboard endpoints:
//   - POST /submit      {username,ms} → {ok}
//   - GET  /leaderboard [?limit=N]    → [{username,ms}] fastest first

package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/memorymatch/internal/scores"
	"github.com/robalobadob/memorymatch/internal/session"
)

const maxLeaderboardLimit = 100

type submitReq struct {
	Username string `json:"username"`
	Ms       *int64 `json:"ms"`
}

func (s *Server) mountScoreRoutes(r chi.Router) {
	r.With(s.withOptionalAuth()).Post("/submit", s.handleSubmit)
	r.Get("/leaderboard", s.handleLeaderboard)
}

// handleSubmit records a finished game. An empty name falls back to the
// logged-in user, then to the guest name.
func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	var body submitReq
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json")
		return
	}
	if body.Ms == nil {
		writeError(w, http.StatusBadRequest, "ms required")
		return
	}
	name := strings.TrimSpace(body.Username)
	if name == "" {
		if me := userFrom(r.Context()); me != nil {
			name = me.Username
		} else {
			name = session.GuestName
		}
	}

	err := s.scores.Insert(r.Context(), name, *body.Ms)
	switch {
	case errors.Is(err, scores.ErrNegativeElapsed), errors.Is(err, scores.ErrEmptyName):
		writeError(w, http.StatusBadRequest, err.Error())
		return
	case err != nil:
		log.Error().Err(err).Msg("insert score")
		writeError(w, http.StatusInternalServerError, "db_error")
		return
	}
	log.Info().Str("player", name).Int64("elapsed_ms", *body.Ms).Msg("score submitted")
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (s *Server) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	limit := s.cfg.Leaderboard.Limit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = min(n, maxLeaderboardLimit)
	}

	rows, err := s.scores.Top(r.Context(), limit)
	if err != nil {
		log.Error().Err(err).Msg("leaderboard")
		writeError(w, http.StatusInternalServerError, "db_error")
		return
	}
	if rows == nil {
		rows = []scores.Entry{}
	}
	writeJSON(w, http.StatusOK, rows)
}
