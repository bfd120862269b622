// internal/httpserver/routes_accounts.go
//
// Account endpoints:
//   - POST /register {username,password} → {msg}
//   - POST /login    {username,password} → {success,msg,username,token}, sets auth cookie
//   - POST /logout                       → {ok}, clears auth cookie
//   - GET  /me       (require auth)      → {id,username,createdAt}
//
// Register and login always answer with a message the client can show as is.

package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/memorymatch/internal/accounts"
	"github.com/robalobadob/memorymatch/internal/gateway/local"
)

type credentialsReq struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginRes struct {
	Success  bool   `json:"success"`
	Msg      string `json:"msg"`
	Username string `json:"username,omitempty"`
	Token    string `json:"token,omitempty"`
}

func (s *Server) mountAccountRoutes(r chi.Router) {
	r.Post("/register", s.handleRegister)
	r.Post("/login", s.handleLogin)
	r.Post("/logout", s.handleLogout)
	r.With(s.requireAuth()).Get("/me", s.handleMe)
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var body credentialsReq
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"msg": "invalid json", "error": "invalid_json"})
		return
	}
	u, err := s.users.Register(r.Context(), body.Username, body.Password)
	switch {
	case err == nil:
		log.Info().Str("user", u.Username).Msg("registered")
		writeJSON(w, http.StatusOK, map[string]string{"msg": local.MsgRegistered})
	case errors.Is(err, accounts.ErrUsernameTaken):
		writeJSON(w, http.StatusConflict, map[string]string{"msg": err.Error()})
	case errors.Is(err, accounts.ErrInvalidUsername), errors.Is(err, accounts.ErrInvalidPassword):
		writeJSON(w, http.StatusBadRequest, map[string]string{"msg": err.Error()})
	default:
		log.Error().Err(err).Msg("register")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"msg": "registration failed", "error": "db_error"})
	}
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var body credentialsReq
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, loginRes{Msg: "invalid json"})
		return
	}
	u, err := s.users.Authenticate(r.Context(), body.Username, body.Password)
	switch {
	case errors.Is(err, accounts.ErrInvalidCredentials):
		writeJSON(w, http.StatusUnauthorized, loginRes{Msg: local.MsgInvalidLogin})
		return
	case err != nil:
		log.Error().Err(err).Msg("login")
		writeJSON(w, http.StatusInternalServerError, loginRes{Msg: "login failed"})
		return
	}

	tok, exp, err := s.signJWT(u.ID, u.Username)
	if err != nil {
		log.Error().Err(err).Msg("sign jwt")
		writeJSON(w, http.StatusInternalServerError, loginRes{Msg: "login failed"})
		return
	}
	s.setAuthCookie(w, tok, exp)
	writeJSON(w, http.StatusOK, loginRes{Success: true, Msg: local.MsgLoggedIn, Username: u.Username, Token: tok})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	s.clearAuthCookie(w)
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	u, err := s.users.FindByID(r.Context(), userFrom(r.Context()).ID)
	if err != nil {
		writeError(w, http.StatusNotFound, "not_found")
		return
	}
	writeJSON(w, http.StatusOK, u)
}
