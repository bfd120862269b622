// internal/httpserver/ws.go
//
// GET /game/{id}/ws streams a hosted game's display updates as JSON
// messages: tick, board, complete, message, leaderboard. The first message
// is always the current board.

package httpserver

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/memorymatch/internal/session"
)

const (
	wsWriteWait  = 10 * time.Second
	wsPongWait   = 60 * time.Second
	wsPingPeriod = (wsPongWait * 9) / 10
)

// wsEvent mirrors session.Event with the board made safe for clients.
type wsEvent struct {
	Type        session.EventType     `json:"type"`
	Elapsed     string                `json:"elapsed,omitempty"`
	Message     string                `json:"message,omitempty"`
	Board       *boardView            `json:"board,omitempty"`
	Leaderboard []session.RankedEntry `json:"leaderboard,omitempty"`
}

func toWire(ev session.Event) wsEvent {
	out := wsEvent{Type: ev.Type, Elapsed: ev.Elapsed, Message: ev.Message, Leaderboard: ev.Leaderboard}
	if ev.Board != nil {
		b := publicBoard(*ev.Board)
		out.Board = &b
	}
	return out
}

func (s *Server) handleGameStream(w http.ResponseWriter, r *http.Request) {
	h, ok := s.hosted(w, r)
	if !ok {
		return
	}
	st, err := h.Controller.State()
	if err != nil {
		writeError(w, http.StatusNotFound, "not_found")
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Str("game_id", h.ID).Msg("websocket upgrade")
		return
	}
	defer conn.Close()

	events, cancel := h.Events.Subscribe()
	defer cancel()

	// Reader: only pongs and close frames are expected.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		conn.SetReadLimit(512)
		_ = conn.SetReadDeadline(time.Now().Add(wsPongWait))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(wsPongWait))
		})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	write := func(v any) error {
		_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
		return conn.WriteJSON(v)
	}

	b := publicBoard(st.Board)
	if err := write(wsEvent{Type: session.EventBoard, Board: &b}); err != nil {
		return
	}

	ping := time.NewTicker(wsPingPeriod)
	defer ping.Stop()
	for {
		select {
		case <-closed:
			return
		case <-r.Context().Done():
			return
		case ev, open := <-events:
			if !open {
				_ = conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, "game closed"),
					time.Now().Add(wsWriteWait))
				return
			}
			if err := write(toWire(ev)); err != nil {
				return
			}
		case <-ping.C:
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
