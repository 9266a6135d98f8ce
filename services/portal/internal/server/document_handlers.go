package server

import (
	"net/http"
	"strings"

	"knowledgegalaxy/pkg/domain"
	"knowledgegalaxy/services/portal/internal/app"
)

type rateRequest struct {
	Score float64 `json:"score"`
}

type searchRequest struct {
	Query string `json:"query"`
}

type summaryRequest struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

// /api/documents
func (s *Server) handleDocuments(w http.ResponseWriter, r *http.Request, sess *app.Session) {
	switch r.Method {
	case http.MethodGet:
		page, err := s.app.SessionPage(sess)
		if err != nil {
			writeAppError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, page)
	case http.MethodPost:
		var draft domain.DocumentDraft
		if err := decodeJSON(r, &draft, false); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		doc, err := s.app.CreateDocument(r.Context(), sess, draft)
		if err != nil {
			writeAppError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, doc)
	default:
		methodNotAllowed(w)
	}
}

// /api/documents/{recent|popular|mine} and /api/documents/{id}[/rate|/view]
func (s *Server) handleDocumentByID(w http.ResponseWriter, r *http.Request, sess *app.Session) {
	rest := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/documents/"), "/")
	if rest == "" {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	switch rest {
	case "recent", "popular", "mine":
		s.handleDocumentList(w, r, sess, rest)
		return
	}
	id, action, _ := strings.Cut(rest, "/")
	switch action {
	case "":
		s.handleDocument(w, r, sess, id)
	case "rate":
		s.handleRate(w, r, sess, id)
	case "view":
		s.handleViewCount(w, r, id)
	default:
		writeError(w, http.StatusNotFound, "not found")
	}
}

func (s *Server) handleDocumentList(w http.ResponseWriter, r *http.Request, sess *app.Session, which string) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	limit := queryInt(r, "limit", 0)
	var (
		docs []domain.Document
		err  error
	)
	switch which {
	case "recent":
		docs, err = s.app.RecentDocuments(limit)
	case "popular":
		docs, err = s.app.PopularDocuments(limit)
	default:
		docs, err = s.app.UserDocuments(sess.User().ID)
	}
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"items": docs,
		"count": len(docs),
	})
}

func (s *Server) handleDocument(w http.ResponseWriter, r *http.Request, sess *app.Session, id string) {
	switch r.Method {
	case http.MethodGet:
		doc, err := s.app.GetDocument(r.Context(), id)
		if err != nil {
			writeAppError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, doc)
	case http.MethodPatch:
		var patch domain.DocumentPatch
		if err := decodeJSON(r, &patch, false); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		doc, err := s.app.UpdateDocumentAs(r.Context(), sess, id, patch)
		if err != nil {
			writeAppError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, doc)
	case http.MethodDelete:
		if err := s.app.DeleteDocumentAs(r.Context(), sess, id); err != nil {
			writeAppError(w, r, err)
			return
		}
		s.audit(r, "portal.document.delete", "success", "user_id", sess.User().ID, "document_id", id)
		w.WriteHeader(http.StatusNoContent)
	default:
		methodNotAllowed(w)
	}
}

func (s *Server) handleRate(w http.ResponseWriter, r *http.Request, sess *app.Session, id string) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	var req rateRequest
	if err := decodeJSON(r, &req, false); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	doc, err := s.app.RateAsUser(r.Context(), sess, id, req.Score)
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

func (s *Server) handleViewCount(w http.ResponseWriter, r *http.Request, id string) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	doc, err := s.app.ViewDocument(r.Context(), id)
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

// /api/stats
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request, _ *app.Session) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	stats, err := s.app.Stats()
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// /api/stats/me and /api/stats/{department|tag|author}
func (s *Server) handleStatsDetail(w http.ResponseWriter, r *http.Request, sess *app.Session) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	field := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/stats/"), "/")
	if field == "me" {
		stats, err := s.app.UserStats(sess.User().ID)
		if err != nil {
			writeAppError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, stats)
		return
	}
	counts, err := s.app.Aggregate(field)
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"field": field, "items": counts})
}

func (s *Server) handleActivities(w http.ResponseWriter, r *http.Request, _ *app.Session) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	acts, err := s.app.Activities()
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"items": acts,
		"count": len(acts),
	})
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request, sess *app.Session) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	var req searchRequest
	if err := decodeJSON(r, &req, false); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	out, err := s.app.Search(r.Context(), sess, req.Query)
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request, _ *app.Session) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	var req summaryRequest
	if err := decodeJSON(r, &req, false); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	suggestion, err := s.app.SuggestSummary(r.Context(), req.Title, req.Content)
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, suggestion)
}
