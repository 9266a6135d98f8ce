package app

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"knowledgegalaxy/internal/util"
	"knowledgegalaxy/pkg/domain"
	"knowledgegalaxy/pkg/query"
	"knowledgegalaxy/pkg/store"
)

// Searcher runs a free-text document search on behalf of a credential.
type Searcher interface {
	Search(ctx context.Context, credential, query string) ([]domain.SearchHit, error)
}

// CredentialVerifier reports whether a bearer credential is live.
type CredentialVerifier interface {
	Verify(credential string) bool
}

// LocalSearcher answers searches from the store with the same matching
// rules as the document list filter.
type LocalSearcher struct {
	store    store.Store
	verifier CredentialVerifier
}

// NewLocalSearcher builds a searcher over st. Optional verifiers reject
// unknown credentials.
func NewLocalSearcher(st store.Store, verifiers ...CredentialVerifier) *LocalSearcher {
	ls := &LocalSearcher{store: st}
	if len(verifiers) > 0 {
		ls.verifier = verifiers[0]
	}
	return ls
}

func (l *LocalSearcher) Search(ctx context.Context, credential, q string) ([]domain.SearchHit, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if l.verifier != nil && !l.verifier.Verify(credential) {
		return nil, ErrUnauthenticated
	}
	docs, err := l.store.ListDocuments()
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	return toHits(query.FilterBySearch(docs, q)), nil
}

func toHits(docs []domain.Document) []domain.SearchHit {
	hits := make([]domain.SearchHit, 0, len(docs))
	for _, d := range docs {
		hits = append(hits, domain.SearchHit{
			DocumentID:   d.ID,
			Title:        d.Title,
			CreatedAt:    d.CreatedAt,
			CommentCount: len(d.Comments),
		})
	}
	return hits
}

// SearchOutcome is one search response. Failed marks a remote failure, in
// which case Hits is empty.
type SearchOutcome struct {
	Query  string             `json:"query"`
	Hits   []domain.SearchHit `json:"hits"`
	Failed bool               `json:"failed"`
	Error  string             `json:"error,omitempty"`
}

// Search records query as the session's filter query and runs it against
// the searcher with the session's credential. A blank query returns no hits
// without calling out. If a newer search on the same session started while
// this one was in flight, the result is discarded with ErrStaleResult.
func (a *App) Search(ctx context.Context, s *Session, q string) (SearchOutcome, error) {
	seq := s.beginSearch()
	s.applyFilters(FilterPatch{Query: &q})
	q = strings.TrimSpace(q)
	if q == "" {
		return SearchOutcome{Hits: []domain.SearchHit{}}, nil
	}
	cred, ok, err := a.creds.Get(ctx, s.ID)
	if err != nil {
		return SearchOutcome{}, fmt.Errorf("load credential: %w", err)
	}
	if !ok {
		return SearchOutcome{}, ErrUnauthenticated
	}
	hits, err := a.searcher.Search(ctx, cred, q)
	if !s.isLatestSearch(seq) {
		a.metrics.Searches.WithLabelValues("stale").Inc()
		return SearchOutcome{}, ErrStaleResult
	}
	if err != nil {
		a.metrics.Searches.WithLabelValues("fail").Inc()
		if !errors.Is(err, ErrUnauthenticated) {
			err = fmt.Errorf("%w: %v", ErrNetwork, err)
		}
		util.LoggerFromContext(ctx).Warn("search failed", "session_id", s.ID, "err", err)
		return SearchOutcome{Query: q, Hits: []domain.SearchHit{}, Failed: true, Error: err.Error()}, nil
	}
	a.metrics.Searches.WithLabelValues("success").Inc()
	if hits == nil {
		hits = []domain.SearchHit{}
	}
	return SearchOutcome{Query: q, Hits: hits}, nil
}

// SearchDocuments matches q against the local store. It backs the remote
// search contract this portal serves to other portals.
func (a *App) SearchDocuments(ctx context.Context, q string) ([]domain.SearchHit, error) {
	q = strings.TrimSpace(q)
	if q == "" {
		return []domain.SearchHit{}, nil
	}
	docs, err := a.ListDocuments()
	if err != nil {
		return nil, err
	}
	return toHits(query.FilterBySearch(docs, q)), nil
}
