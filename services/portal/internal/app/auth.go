package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"knowledgegalaxy/internal/util"
	"knowledgegalaxy/pkg/auth"
	"knowledgegalaxy/pkg/domain"
	"knowledgegalaxy/pkg/store"
	"knowledgegalaxy/services/portal/internal/authclient"
)

// Identity is a successful login: the upstream bearer credential and the
// user it belongs to.
type Identity struct {
	Credential string
	User       domain.User
}

// Authenticator checks credentials against the source of truth. Login
// returns ErrAuthentication for rejected credentials and ErrNetwork when the
// source could not be reached.
type Authenticator interface {
	Login(ctx context.Context, username, password string) (Identity, error)
	Logout(ctx context.Context, credential string) error
}

// LocalAccount is one username/password pair of the local directory. An
// empty UserID resolves the user by username at login.
type LocalAccount struct {
	Username string
	Password string
	UserID   string
}

type localEntry struct {
	hash   string
	userID string
}

// LocalAuthenticator checks bcrypt hashes of a fixed account list and
// resolves users from the store. Credentials are opaque random ids.
type LocalAuthenticator struct {
	users    store.Store
	accounts map[string]localEntry
	check    func(password, hash string) bool

	mu     sync.Mutex
	issued map[string]string
}

func NewLocalAuthenticator(users store.Store, accounts []LocalAccount) (*LocalAuthenticator, error) {
	a := &LocalAuthenticator{
		users:    users,
		accounts: make(map[string]localEntry, len(accounts)),
		check:    auth.CheckPassword,
		issued:   make(map[string]string),
	}
	for _, acct := range accounts {
		name := normalizeUsername(acct.Username)
		if name == "" {
			return nil, errors.New("local account needs a username")
		}
		hash, err := auth.HashPassword(acct.Password)
		if err != nil {
			return nil, fmt.Errorf("hash password for %s: %w", name, err)
		}
		a.accounts[name] = localEntry{hash: hash, userID: acct.UserID}
	}
	return a, nil
}

func (l *LocalAuthenticator) Login(_ context.Context, username, password string) (Identity, error) {
	name := normalizeUsername(username)
	entry, ok := l.accounts[name]
	// Unknown names carry an empty hash, which still pays for a bcrypt
	// comparison against the placeholder.
	matched := l.check(password, entry.hash)
	if !ok || !matched {
		return Identity{}, ErrAuthentication
	}
	var (
		user  domain.User
		found bool
		err   error
	)
	if entry.userID != "" {
		user, found, err = l.users.GetUserByID(entry.userID)
	} else {
		user, found, err = l.users.GetUserByUsername(name)
	}
	if err != nil {
		return Identity{}, fmt.Errorf("load user: %w", err)
	}
	if !found {
		return Identity{}, ErrAuthentication
	}
	cred := util.NewID()
	l.mu.Lock()
	l.issued[cred] = user.ID
	l.mu.Unlock()
	return Identity{Credential: cred, User: user}, nil
}

func (l *LocalAuthenticator) Logout(_ context.Context, credential string) error {
	l.mu.Lock()
	delete(l.issued, credential)
	l.mu.Unlock()
	return nil
}

// Verify reports whether credential was issued by Login and not logged out.
func (l *LocalAuthenticator) Verify(credential string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, ok := l.issued[credential]
	return ok
}

func normalizeUsername(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// RemoteAuthenticator delegates to the remote auth API, which is
// authoritative: its answer is not re-checked locally.
type RemoteAuthenticator struct {
	client *authclient.Client
}

func NewRemoteAuthenticator(client *authclient.Client) *RemoteAuthenticator {
	return &RemoteAuthenticator{client: client}
}

func (r *RemoteAuthenticator) Login(ctx context.Context, username, password string) (Identity, error) {
	res, err := r.client.Login(ctx, username, password)
	if err != nil {
		var apiErr *authclient.APIError
		if errors.As(err, &apiErr) && apiErr.Status < 500 {
			return Identity{}, fmt.Errorf("%w: %s", ErrAuthentication, apiErr.Message)
		}
		return Identity{}, fmt.Errorf("%w: login: %v", ErrNetwork, err)
	}
	user := res.User
	if user.ID == "" {
		user.ID = strings.TrimSpace(username)
	}
	if user.Username == "" {
		user.Username = strings.TrimSpace(username)
	}
	if user.Name == "" {
		user.Name = user.Username
	}
	if user.Permissions == nil {
		user.Permissions = []string{}
	}
	if user.Badges == nil {
		user.Badges = []domain.Badge{}
	}
	return Identity{Credential: res.AccessToken, User: user}, nil
}

func (r *RemoteAuthenticator) Logout(ctx context.Context, credential string) error {
	return r.client.Logout(ctx, credential)
}

type loginInput struct {
	Username string `json:"username" validate:"required,max=128"`
	Password string `json:"password" validate:"required,max=256"`
}

// LoginResult is what a successful login hands back to the client.
type LoginResult struct {
	Token     string       `json:"accessToken"`
	ExpiresAt time.Time    `json:"expiresAt"`
	Session   SessionState `json:"session"`
}

// Login authenticates, stores the upstream credential and opens an
// Authenticated session. The returned token names the session.
func (a *App) Login(ctx context.Context, username, password string) (LoginResult, error) {
	if err := a.check(loginInput{Username: strings.TrimSpace(username), Password: password}); err != nil {
		a.metrics.Logins.WithLabelValues("invalid").Inc()
		return LoginResult{}, err
	}
	ident, err := a.auth.Login(ctx, username, password)
	if err != nil {
		outcome := "error"
		if errors.Is(err, ErrAuthentication) {
			outcome = "fail"
		}
		a.metrics.Logins.WithLabelValues(outcome).Inc()
		return LoginResult{}, err
	}
	sessionID := util.NewID()
	token, expiresAt, err := a.tokens.Issue(ident.User.ID, sessionID)
	if err != nil {
		a.releaseCredential(ctx, ident.Credential)
		return LoginResult{}, fmt.Errorf("issue session token: %w", err)
	}
	if err := a.creds.Put(ctx, sessionID, ident.Credential, a.sessionTTL); err != nil {
		a.releaseCredential(ctx, ident.Credential)
		return LoginResult{}, fmt.Errorf("store credential: %w", err)
	}
	s := newSession(sessionID, a.pageSize, a.timestamp())
	s.authenticate(ident.User)
	a.sessions.Put(s)
	a.metrics.Logins.WithLabelValues("success").Inc()
	return LoginResult{Token: token, ExpiresAt: expiresAt, Session: s.Snapshot()}, nil
}

// Authenticate resolves a session token to its live session.
func (a *App) Authenticate(ctx context.Context, token string) (*Session, error) {
	claims, err := a.tokens.Verify(token)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnauthenticated, err)
	}
	s, ok := a.sessions.Get(claims.TokenID)
	if !ok || !s.Authenticated() || s.User().ID != claims.Subject {
		return nil, ErrUnauthenticated
	}
	return s, nil
}

// Logout tears the session down locally no matter what the remote says;
// a failing remote logout is only logged.
func (a *App) Logout(ctx context.Context, s *Session) {
	logger := util.LoggerFromContext(ctx)
	cred, ok, err := a.creds.Get(ctx, s.ID)
	if err != nil {
		logger.Warn("load credential for logout failed", "session_id", s.ID, "err", err)
	}
	if ok {
		a.releaseCredential(ctx, cred)
	}
	if err := a.creds.Delete(ctx, s.ID); err != nil {
		logger.Warn("delete credential failed", "session_id", s.ID, "err", err)
	}
	s.logout()
	a.sessions.Delete(s.ID)
}

func (a *App) releaseCredential(ctx context.Context, cred string) {
	if err := a.auth.Logout(ctx, cred); err != nil {
		util.LoggerFromContext(ctx).Warn("remote logout failed", "err", fmt.Errorf("%w: %v", ErrNetwork, err))
	}
}

// ActiveSessions is the number of sessions in the registry.
func (a *App) ActiveSessions() int {
	return a.sessions.Len()
}
