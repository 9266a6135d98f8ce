package server

import (
	"net/http"

	"knowledgegalaxy/services/portal/internal/app"
)

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type selectionRequest struct {
	DocumentID string `json:"documentId"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	if !s.allowRate(w, r, s.loginLimiter, loginBucket, "too many login attempts") {
		s.audit(r, "portal.login", "rate_limited")
		return
	}
	var req loginRequest
	if err := decodeJSON(r, &req, false); err != nil {
		s.audit(r, "portal.login", "fail", "reason", "invalid_json")
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	res, err := s.app.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		s.audit(r, "portal.login", "fail", "username", req.Username, "reason", err.Error())
		writeAppError(w, r, err)
		return
	}
	s.audit(r, "portal.login", "success", "user_id", res.Session.User.ID, "session_id", res.Session.ID)
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request, sess *app.Session) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	userID := sess.User().ID
	s.app.Logout(r.Context(), sess)
	s.audit(r, "portal.logout", "success", "user_id", userID, "session_id", sess.ID)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSession(w http.ResponseWriter, r *http.Request, sess *app.Session) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	writeJSON(w, http.StatusOK, sess.Snapshot())
}

func (s *Server) handleFilters(w http.ResponseWriter, r *http.Request, sess *app.Session) {
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, sess.Filters())
	case http.MethodPatch:
		var patch app.FilterPatch
		if err := decodeJSON(r, &patch, false); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		filters, err := s.app.SetFilters(sess, patch)
		if err != nil {
			writeAppError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, filters)
	case http.MethodDelete:
		s.app.ResetFilters(sess)
		writeJSON(w, http.StatusOK, sess.Filters())
	default:
		methodNotAllowed(w)
	}
}

func (s *Server) handleView(w http.ResponseWriter, r *http.Request, sess *app.Session) {
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, sess.View())
	case http.MethodPut, http.MethodPatch:
		var patch app.ViewPatch
		if err := decodeJSON(r, &patch, false); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		view, err := s.app.SetView(sess, patch)
		if err != nil {
			writeAppError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, view)
	default:
		methodNotAllowed(w)
	}
}

func (s *Server) handleSelection(w http.ResponseWriter, r *http.Request, sess *app.Session) {
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, map[string]any{"selectedDocument": sess.Snapshot().Selected})
	case http.MethodPut:
		var req selectionRequest
		if err := decodeJSON(r, &req, true); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		doc, err := s.app.Select(r.Context(), sess, req.DocumentID)
		if err != nil {
			writeAppError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"selectedDocument": doc})
	case http.MethodDelete:
		_, _ = s.app.Select(r.Context(), sess, "")
		w.WriteHeader(http.StatusNoContent)
	default:
		methodNotAllowed(w)
	}
}
