package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"knowledgegalaxy/internal/metrics"
	"knowledgegalaxy/internal/ratelimit"
	"knowledgegalaxy/internal/util"
	"knowledgegalaxy/services/portal/internal/app"
)

const maxBodyBytes = 1 << 20

// Config wires required dependencies for the HTTP server.
type Config struct {
	App            *app.App
	Metrics        *metrics.Collector
	LoginLimiter   *ratelimit.FixedWindowLimiter
	TrustedProxies *util.TrustedProxies
}

// Server exposes the portal API, the remote auth/search contract and the
// operational endpoints.
type Server struct {
	app          *app.App
	metrics      *metrics.Collector
	loginLimiter *ratelimit.FixedWindowLimiter
	trusted      *util.TrustedProxies
	mux          *http.ServeMux
}

// New constructs the server with routes configured. A nil LoginLimiter
// disables login rate limiting.
func New(cfg Config) (*Server, error) {
	if cfg.App == nil {
		return nil, errors.New("server: app is required")
	}
	s := &Server{
		app:          cfg.App,
		metrics:      cfg.Metrics,
		loginLimiter: cfg.LoginLimiter,
		trusted:      cfg.TrustedProxies,
		mux:          http.NewServeMux(),
	}
	s.routes()
	return s, nil
}

// Router returns the configured handler with the shared middleware chain.
func (s *Server) Router() http.Handler {
	return util.WithRequestID(util.WithRequestLog("portal", util.WithSecurityHeaders(util.WithCORS(s.mux))))
}

func (s *Server) routes() {
	s.handle("/healthz", http.HandlerFunc(s.handleHealth))
	if s.metrics != nil {
		s.mux.Handle("/metrics", s.metrics.Handler())
	}

	// session
	s.handle("/api/auth/login", http.HandlerFunc(s.handleLogin))
	s.handle("/api/auth/logout", s.authenticated(s.handleLogout))
	s.handle("/api/session", s.authenticated(s.handleSession))
	s.handle("/api/session/filters", s.authenticated(s.handleFilters))
	s.handle("/api/session/view", s.authenticated(s.handleView))
	s.handle("/api/session/selection", s.authenticated(s.handleSelection))

	// documents
	s.handle("/api/documents", s.authenticated(s.handleDocuments))
	s.handle("/api/documents/", s.authenticated(s.handleDocumentByID))
	s.handle("/api/stats", s.authenticated(s.handleStats))
	s.handle("/api/stats/", s.authenticated(s.handleStatsDetail))
	s.handle("/api/activities", s.authenticated(s.handleActivities))
	s.handle("/api/search", s.authenticated(s.handleSearch))
	s.handle("/api/summary", s.authenticated(s.handleSummary))

	// remote contract
	s.handle("/auth/login", http.HandlerFunc(s.handleRemoteLogin))
	s.handle("/auth/logout", http.HandlerFunc(s.handleRemoteLogout))
	s.handle("/documents/search", http.HandlerFunc(s.handleRemoteSearch))
}

func (s *Server) handle(route string, h http.Handler) {
	s.mux.Handle(route, s.metrics.Instrument(route, h))
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":   "ok",
		"sessions": s.app.ActiveSessions(),
	})
}

type sessionHandler func(http.ResponseWriter, *http.Request, *app.Session)

func (s *Server) authenticated(next sessionHandler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := bearerToken(r)
		if !ok {
			s.audit(r, "portal.authorize", "fail", "reason", "missing_token")
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		sess, err := s.app.Authenticate(r.Context(), token)
		if err != nil {
			s.audit(r, "portal.authorize", "fail", "reason", "invalid_session")
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		next(w, r, sess)
	})
}

func methodNotAllowed(w http.ResponseWriter) {
	writeError(w, http.StatusMethodNotAllowed, "method not allowed")
}

func bearerToken(r *http.Request) (string, bool) {
	authHeader := r.Header.Get("Authorization")
	if !strings.HasPrefix(authHeader, "Bearer ") {
		return "", false
	}
	token := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
	if token == "" {
		return "", false
	}
	return token, true
}

// decodeJSON reads a size-limited JSON body. An empty body leaves out as is
// when allowEmpty is set.
func decodeJSON(r *http.Request, out any, allowEmpty bool) error {
	err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(out)
	if allowEmpty && errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

func queryInt(r *http.Request, name string, fallback int) int {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return n
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeAppError maps app sentinels to HTTP statuses. Anything unclassified
// is logged and reported as a 500 without detail.
func writeAppError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, app.ErrValidation):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, app.ErrAuthentication):
		writeError(w, http.StatusUnauthorized, "invalid username or password")
	case errors.Is(err, app.ErrUnauthenticated):
		writeError(w, http.StatusUnauthorized, "unauthorized")
	case errors.Is(err, app.ErrForbidden):
		writeError(w, http.StatusForbidden, "forbidden")
	case errors.Is(err, app.ErrNotFound):
		writeError(w, http.StatusNotFound, "document not found")
	case errors.Is(err, app.ErrStaleResult):
		writeError(w, http.StatusConflict, "superseded by a newer search")
	case errors.Is(err, app.ErrNetwork):
		writeError(w, http.StatusBadGateway, "remote service unavailable")
	default:
		util.LoggerFromContext(r.Context()).Error("request failed", "path", r.URL.Path, "err", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func (s *Server) audit(r *http.Request, event, outcome string, attrs ...any) {
	logAttrs := []any{
		"event", event,
		"outcome", outcome,
		"path", r.URL.Path,
		"method", r.Method,
		"ip", util.ClientIP(r, s.trusted),
	}
	logAttrs = append(logAttrs, attrs...)
	logger := util.LoggerFromContext(r.Context())
	if outcome == "success" {
		logger.Info("security_event", logAttrs...)
		return
	}
	logger.Warn("security_event", logAttrs...)
}

// loginBucket is shared by every login route so the portal API and the
// remote contract draw from one allowance per client.
const loginBucket = "login"

// allowRate applies limiter to the client IP within bucket. Limiter errors
// deny the request, matching the limiter's own fail-closed contract.
func (s *Server) allowRate(w http.ResponseWriter, r *http.Request, limiter *ratelimit.FixedWindowLimiter, bucket, msg string) bool {
	if limiter == nil {
		return true
	}
	key := bucket + "|" + util.ClientIP(r, s.trusted)
	decision, err := limiter.Allow(r.Context(), key)
	if err != nil {
		util.LoggerFromContext(r.Context()).Warn("rate limiter unavailable", "err", err)
	}
	if err == nil && decision.Allowed {
		return true
	}
	retry := time.Minute
	if decision.RetryAfter > 0 {
		retry = decision.RetryAfter
	}
	w.Header().Set("Retry-After", strconv.Itoa(int((retry+time.Second-1)/time.Second)))
	writeError(w, http.StatusTooManyRequests, msg)
	return false
}
