package app

import (
	"context"
	"fmt"

	"knowledgegalaxy/pkg/domain"
	"knowledgegalaxy/pkg/query"
)

// SetFilters merges p into the session's filters and returns to page 1.
func (a *App) SetFilters(s *Session, p FilterPatch) (domain.SearchFilters, error) {
	if err := a.check(p); err != nil {
		return domain.SearchFilters{}, err
	}
	if r := p.DateRange; r != nil && r.From != nil && r.To != nil && r.From.After(*r.To) {
		return domain.SearchFilters{}, invalid("dateRange.from is after dateRange.to")
	}
	return s.applyFilters(p), nil
}

func (a *App) ResetFilters(s *Session) {
	s.resetFilters()
}

// SetView changes sort, scope, page size or page. Unknown sort keys and
// quick filters are rejected before anything changes.
func (a *App) SetView(s *Session, p ViewPatch) (View, error) {
	if err := a.check(p); err != nil {
		return View{}, err
	}
	var quick *View
	if p.Quick != nil {
		v, ok := quickView(*p.Quick)
		if !ok {
			return View{}, invalid("unknown quick filter %q", *p.Quick)
		}
		quick = &v
	}
	var sort *query.SortKey
	if p.Sort != nil {
		key, err := query.ParseSortKey(*p.Sort)
		if err != nil {
			return View{}, invalid("%v", err)
		}
		sort = &key
	}
	return s.applyView(quick, sort, p), nil
}

// Select puts the session in detail view on a snapshot of document id; an
// empty id returns to list view.
func (a *App) Select(ctx context.Context, s *Session, id string) (*domain.Document, error) {
	if id == "" {
		s.selectDocument(nil)
		return nil, nil
	}
	doc, err := a.GetDocument(ctx, id)
	if err != nil {
		return nil, err
	}
	s.selectDocument(&doc)
	// A delete that landed between the read and the store above has already
	// swept the sessions, so look again.
	_, ok, err := a.store.GetDocument(id)
	if err != nil {
		s.clearSelectionIf(id)
		return nil, fmt.Errorf("get document: %w", err)
	}
	if !ok {
		s.clearSelectionIf(id)
		return nil, a.notFound(ctx, "select", id)
	}
	return &doc, nil
}
