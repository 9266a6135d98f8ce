package app

import (
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/go-playground/validator/v10"

	"knowledgegalaxy/internal/metrics"
	"knowledgegalaxy/internal/usertoken"
	"knowledgegalaxy/pkg/ai"
	"knowledgegalaxy/pkg/query"
	"knowledgegalaxy/pkg/store"
)

// Config holds runtime dependencies for the portal core.
type Config struct {
	Store         store.Store
	Credentials   store.CredentialStore
	Authenticator Authenticator
	Searcher      Searcher
	Summarizer    ai.Summarizer
	Metrics       *metrics.Collector
	Tokens        *usertoken.Manager
	SessionTTL    time.Duration
	PageSize      int
	TitleLocale   string
	MemoTTL       time.Duration
	Now           func() time.Time
}

// App owns the document store, the live sessions and the derived views.
// Every mutation bumps generation so memoized views are never served stale.
// While a mutation is in flight writers is non-zero and views bypass the
// memo, since the store may already hold data newer than the generation.
type App struct {
	store      store.Store
	creds      store.CredentialStore
	auth       Authenticator
	searcher   Searcher
	summarizer ai.Summarizer
	metrics    *metrics.Collector
	tokens     *usertoken.Manager
	sessions   *SessionRegistry
	memo       *query.Memo
	titles     *query.TitleSorter
	validate   *validator.Validate
	sessionTTL time.Duration
	pageSize   int
	now        func() time.Time
	generation atomic.Uint64
	writers    atomic.Int64
}

// New constructs the portal core. Store, Authenticator and Tokens are
// required; everything else has an in-process default.
func New(cfg Config) (*App, error) {
	if cfg.Store == nil {
		return nil, errors.New("store is required")
	}
	if cfg.Authenticator == nil {
		return nil, errors.New("authenticator is required")
	}
	if cfg.Tokens == nil {
		return nil, errors.New("token manager is required")
	}
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = 12 * time.Hour
	}
	if cfg.PageSize <= 0 {
		cfg.PageSize = query.DefaultPageSize
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Credentials == nil {
		cfg.Credentials = store.NewMemoryCredentialStore()
	}
	if cfg.Searcher == nil {
		cfg.Searcher = NewLocalSearcher(cfg.Store)
	}
	if cfg.Summarizer == nil {
		cfg.Summarizer = ai.NewCannedSummarizer(uint64(cfg.Now().UnixNano()))
	}
	if cfg.Metrics == nil {
		cfg.Metrics = metrics.New("galaxy")
	}
	titles, err := query.NewTitleSorter(cfg.TitleLocale)
	if err != nil {
		return nil, fmt.Errorf("title locale: %w", err)
	}
	return &App{
		store:      cfg.Store,
		creds:      cfg.Credentials,
		auth:       cfg.Authenticator,
		searcher:   cfg.Searcher,
		summarizer: cfg.Summarizer,
		metrics:    cfg.Metrics,
		tokens:     cfg.Tokens,
		sessions:   NewSessionRegistry(cfg.SessionTTL),
		memo:       query.NewMemo(cfg.MemoTTL),
		titles:     titles,
		validate:   newValidator(),
		sessionTTL: cfg.SessionTTL,
		pageSize:   cfg.PageSize,
		now:        cfg.Now,
	}, nil
}

// Generation is the number of mutations applied so far.
func (a *App) Generation() uint64 {
	return a.generation.Load()
}

func (a *App) bump() {
	a.generation.Add(1)
}

// beginWrite marks a mutation in flight until the returned func runs. Call
// the func after bump.
func (a *App) beginWrite() func() {
	a.writers.Add(1)
	return func() { a.writers.Add(-1) }
}

func (a *App) timestamp() time.Time {
	return a.now().UTC()
}
