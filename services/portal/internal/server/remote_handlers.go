package server

import (
	"net/http"

	"knowledgegalaxy/pkg/domain"
)

// The handlers below serve the request/response contract a portal in
// remote mode expects, so one portal can authenticate and search for
// another.

type remoteLoginResponse struct {
	AccessToken string      `json:"accessToken"`
	User        domain.User `json:"user"`
}

type remoteSearchRequest struct {
	ShortName string `json:"shortName"`
}

func (s *Server) handleRemoteLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	if !s.allowRate(w, r, s.loginLimiter, loginBucket, "too many login attempts") {
		s.audit(r, "remote.login", "rate_limited")
		return
	}
	var req loginRequest
	if err := decodeJSON(r, &req, false); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	res, err := s.app.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		s.audit(r, "remote.login", "fail", "username", req.Username, "reason", err.Error())
		writeAppError(w, r, err)
		return
	}
	s.audit(r, "remote.login", "success", "user_id", res.Session.User.ID)
	writeJSON(w, http.StatusOK, remoteLoginResponse{AccessToken: res.Token, User: res.Session.User})
}

func (s *Server) handleRemoteLogout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	token, ok := bearerToken(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	sess, err := s.app.Authenticate(r.Context(), token)
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	s.app.Logout(r.Context(), sess)
	s.audit(r, "remote.logout", "success", "session_id", sess.ID)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleRemoteSearch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	token, ok := bearerToken(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	if _, err := s.app.Authenticate(r.Context(), token); err != nil {
		s.audit(r, "remote.search", "fail", "reason", "invalid_session")
		writeAppError(w, r, err)
		return
	}
	var req remoteSearchRequest
	if err := decodeJSON(r, &req, false); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	hits, err := s.app.SearchDocuments(r.Context(), req.ShortName)
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, hits)
}
