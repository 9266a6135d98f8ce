package app

import (
	"encoding/json"
	"fmt"

	"knowledgegalaxy/pkg/domain"
	"knowledgegalaxy/pkg/query"
)

// dashboardCount is how many documents the recent and popular panels show.
const dashboardCount = 5

func (a *App) ListDocuments() ([]domain.Document, error) {
	docs, err := a.store.ListDocuments()
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	return docs, nil
}

// memoized serves key from the generation-scoped memo, computing it on a
// miss. Callers must not modify the returned value.
func memoized[T any](a *App, key string, compute func() (T, error)) (T, error) {
	if a.writers.Load() > 0 {
		a.metrics.MemoMisses.Inc()
		return compute()
	}
	missed := false
	v, err := query.Get(a.memo, a.generation.Load(), key, func() (T, error) {
		missed = true
		return compute()
	})
	if err != nil {
		return v, err
	}
	if missed {
		a.metrics.MemoMisses.Inc()
	} else {
		a.metrics.MemoHits.Inc()
	}
	return v, nil
}

// SessionPage is the session's current document list: filters, then scope,
// then sort, then the requested page.
func (a *App) SessionPage(s *Session) (query.Page, error) {
	st := s.Snapshot()
	key, err := viewKey(st)
	if err != nil {
		return query.Page{}, err
	}
	return memoized(a, key, func() (query.Page, error) {
		docs, err := a.ListDocuments()
		if err != nil {
			return query.Page{}, err
		}
		docs = query.Apply(docs, st.Filters)
		if st.View.Scope == ScopeMine {
			docs = query.UserSubset(docs, st.User.ID)
		}
		docs = a.titles.SortBy(docs, st.View.Sort)
		return query.Paginate(docs, st.View.PageSize, st.View.Page), nil
	})
}

func viewKey(st SessionState) (string, error) {
	raw, err := json.Marshal(struct {
		F domain.SearchFilters
		V View
		U string
	}{st.Filters, st.View, st.User.ID})
	if err != nil {
		return "", fmt.Errorf("view key: %w", err)
	}
	return "page|" + string(raw), nil
}

// RecentDocuments returns the n newest documents.
func (a *App) RecentDocuments(n int) ([]domain.Document, error) {
	if n <= 0 {
		n = dashboardCount
	}
	return memoized(a, fmt.Sprintf("recent|%d", n), func() ([]domain.Document, error) {
		docs, err := a.ListDocuments()
		if err != nil {
			return nil, err
		}
		return query.Recent(docs, n), nil
	})
}

// PopularDocuments returns the n most popular documents.
func (a *App) PopularDocuments(n int) ([]domain.Document, error) {
	if n <= 0 {
		n = dashboardCount
	}
	return memoized(a, fmt.Sprintf("popular|%d", n), func() ([]domain.Document, error) {
		docs, err := a.ListDocuments()
		if err != nil {
			return nil, err
		}
		return query.Popular(docs, n), nil
	})
}

// UserDocuments returns the documents authored by userID in store order.
func (a *App) UserDocuments(userID string) ([]domain.Document, error) {
	return memoized(a, "mine|"+userID, func() ([]domain.Document, error) {
		docs, err := a.ListDocuments()
		if err != nil {
			return nil, err
		}
		return query.UserSubset(docs, userID), nil
	})
}

func (a *App) Stats() (query.Stats, error) {
	return memoized(a, "stats", func() (query.Stats, error) {
		docs, err := a.ListDocuments()
		if err != nil {
			return query.Stats{}, err
		}
		return query.ComputeStats(docs), nil
	})
}

func (a *App) UserStats(userID string) (query.UserStats, error) {
	return memoized(a, "stats|"+userID, func() (query.UserStats, error) {
		docs, err := a.ListDocuments()
		if err != nil {
			return query.UserStats{}, err
		}
		return query.ComputeUserStats(docs, userID), nil
	})
}

// Aggregate tallies one field across every document.
func (a *App) Aggregate(field string) ([]query.Count, error) {
	var sel query.Selector
	switch field {
	case "department":
		sel = query.ByDepartment
	case "tag", "tags":
		sel = query.ByTag
	case "author":
		sel = query.ByAuthor
	default:
		return nil, invalid("unknown aggregate field %q", field)
	}
	return memoized(a, "agg|"+field, func() ([]query.Count, error) {
		docs, err := a.ListDocuments()
		if err != nil {
			return nil, err
		}
		return query.AggregateByField(docs, sel), nil
	})
}

// Activities returns the static activity feed.
func (a *App) Activities() ([]domain.Activity, error) {
	acts, err := a.store.ListActivities()
	if err != nil {
		return nil, fmt.Errorf("list activities: %w", err)
	}
	return acts, nil
}
