// internal/httpserver/routes_game.go
//
// Hosted games: the server runs the session controller and clients only
// send clicks. Endpoints (optional auth; guests play as "Guest"):
//   - POST /game/new            → game view
//   - GET  /game/{id}           → game view
//   - POST /game/{id}/flip      {position} → {outcome, game}
//
// Face-down card values are never sent to the client. Finished games are
// submitted to the leaderboard by the controller itself.

package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/memorymatch/internal/game"
	"github.com/robalobadob/memorymatch/internal/gateway/local"
	"github.com/robalobadob/memorymatch/internal/session"
	"github.com/robalobadob/memorymatch/internal/store"
)

// cardView is a card as the client may see it.
type cardView struct {
	Position int       `json:"position"`
	Value    int       `json:"value,omitempty"`
	Face     game.Face `json:"face"`
}

type boardView struct {
	Cards    []cardView `json:"cards"`
	Phase    game.Phase `json:"phase"`
	Complete bool       `json:"complete"`
}

type gameView struct {
	ID        string    `json:"id"`
	Player    string    `json:"player"`
	Running   bool      `json:"running"`
	Elapsed   string    `json:"elapsed"`
	ElapsedMs int64     `json:"elapsedMs"`
	Board     boardView `json:"board"`
}

type flipReq struct {
	Position *int `json:"position"`
}

type flipRes struct {
	Outcome game.Outcome `json:"outcome"`
	Game    gameView     `json:"game"`
}

func publicBoard(snap game.Snapshot) boardView {
	cards := make([]cardView, len(snap.Cards))
	for i, c := range snap.Cards {
		cards[i] = cardView{Position: c.Position, Face: c.Face}
		if c.Face != game.FaceDown {
			cards[i].Value = c.Value
		}
	}
	return boardView{Cards: cards, Phase: snap.Phase, Complete: snap.Complete}
}

func publicGame(h *store.Hosted, st session.State) gameView {
	ms := st.Elapsed.Milliseconds()
	return gameView{
		ID:        h.ID,
		Player:    h.Player,
		Running:   st.Running,
		Elapsed:   game.FormatElapsed(ms),
		ElapsedMs: ms,
		Board:     publicBoard(st.Board),
	}
}

func (s *Server) mountGameRoutes(r chi.Router) {
	r.Post("/game/new", s.handleNewGame)
	r.Get("/game/{id}", s.handleGetGame)
	r.Post("/game/{id}/flip", s.handleFlip)
}

// handleNewGame deals a board and registers it in the hosted game store.
func (s *Server) handleNewGame(w http.ResponseWriter, r *http.Request) {
	player := ""
	if me := userFrom(r.Context()); me != nil {
		player = me.Username
	}

	events := session.NewBroadcaster(0)
	opts := []session.Option{
		session.WithClock(s.clock),
		session.WithIdentity(player),
		session.WithSettings(session.Settings{
			PairCount:      s.cfg.Game.PairCount,
			RollbackDelay:  s.cfg.Game.RollbackDelay(),
			TickInterval:   s.cfg.Game.TickInterval(),
			GatewayTimeout: s.cfg.Server.RequestTimeout,
		}),
	}
	if s.newRand != nil {
		opts = append(opts, session.WithRand(s.newRand()))
	}
	ctrl := session.NewController(
		local.Auth{Users: s.users},
		local.Leaderboard{Scores: s.scores, Limit: s.cfg.Leaderboard.Limit},
		events,
		opts...,
	)

	st, err := ctrl.StartGame()
	if err != nil {
		ctrl.Close()
		events.Close()
		log.Error().Err(err).Msg("start game")
		writeError(w, http.StatusInternalServerError, "start_failed")
		return
	}

	h := &store.Hosted{ID: st.ID, Player: ctrl.Identity(), Controller: ctrl, Events: events}
	if err := s.games.Save(r.Context(), h); err != nil {
		h.Close()
		log.Error().Err(err).Msg("save game")
		writeError(w, http.StatusInternalServerError, "save_failed")
		return
	}
	log.Info().Str("game_id", h.ID).Str("player", h.Player).Msg("hosted game created")
	writeJSON(w, http.StatusOK, publicGame(h, st))
}

func (s *Server) hosted(w http.ResponseWriter, r *http.Request) (*store.Hosted, bool) {
	h, err := s.games.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusNotFound, "not_found")
		return nil, false
	}
	return h, true
}

func (s *Server) handleGetGame(w http.ResponseWriter, r *http.Request) {
	h, ok := s.hosted(w, r)
	if !ok {
		return
	}
	st, err := h.Controller.State()
	if err != nil {
		writeError(w, http.StatusNotFound, "not_found")
		return
	}
	writeJSON(w, http.StatusOK, publicGame(h, st))
}

// handleFlip forwards one click. Clicks the engine ignores still answer
// 200 with outcome "rejected".
func (s *Server) handleFlip(w http.ResponseWriter, r *http.Request) {
	h, ok := s.hosted(w, r)
	if !ok {
		return
	}
	var body flipReq
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Position == nil {
		writeError(w, http.StatusBadRequest, "position required")
		return
	}

	out, err := h.Controller.CardClicked(*body.Position)
	switch {
	case errors.Is(err, game.ErrNoSuchCard):
		writeError(w, http.StatusBadRequest, err.Error())
		return
	case err != nil:
		writeError(w, http.StatusConflict, err.Error())
		return
	}

	st, err := h.Controller.State()
	if err != nil {
		writeError(w, http.StatusNotFound, "not_found")
		return
	}
	writeJSON(w, http.StatusOK, flipRes{Outcome: out, Game: publicGame(h, st)})
}
