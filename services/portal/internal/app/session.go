package app

import (
	"strings"
	"sync"
	"time"

	"knowledgegalaxy/pkg/domain"
	"knowledgegalaxy/pkg/query"
)

// Scope narrows the session's document list.
type Scope string

const (
	ScopeAll  Scope = "all"
	ScopeMine Scope = "mine"
)

// View is how the session's document list is ordered and paged.
type View struct {
	Sort     query.SortKey `json:"sort"`
	Scope    Scope         `json:"scope"`
	Page     int           `json:"page"`
	PageSize int           `json:"pageSize"`
}

// ViewPatch changes part of a View. Quick applies one of the dashboard
// shortcuts (all, recent, popular, mine) before the other fields.
type ViewPatch struct {
	Quick    *string `json:"quick,omitempty"`
	Sort     *string `json:"sort,omitempty"`
	Scope    *string `json:"scope,omitempty" validate:"omitempty,oneof=all mine"`
	Page     *int    `json:"page,omitempty" validate:"omitempty,gte=1"`
	PageSize *int    `json:"pageSize,omitempty" validate:"omitempty,gte=1,lte=100"`
}

// FilterPatch changes part of the session's SearchFilters. Nil fields are
// left as they are; an empty value clears that constraint.
type FilterPatch struct {
	Query      *string           `json:"query,omitempty"`
	Tags       *[]string         `json:"tags,omitempty"`
	DateRange  *domain.DateRange `json:"dateRange,omitempty"`
	Department *string           `json:"department,omitempty"`
	Visibility *string           `json:"visibility,omitempty" validate:"omitempty,oneof=private group public"`
	FileType   *string           `json:"fileType,omitempty" validate:"omitempty,oneof=doc pdf image text"`
}

// SessionState is a copy of a session taken under its lock.
type SessionState struct {
	ID              string               `json:"id"`
	User            domain.User          `json:"user"`
	IsAuthenticated bool                 `json:"isAuthenticated"`
	Filters         domain.SearchFilters `json:"filters"`
	View            View                 `json:"view"`
	Selected        *domain.Document     `json:"selectedDocument"`
	CreatedAt       time.Time            `json:"createdAt"`
}

// Session is one client's state: who is logged in, the active filters, the
// list view and the selected document. A nil selection means list view.
type Session struct {
	ID string

	mu            sync.Mutex
	user          domain.User
	authenticated bool
	filters       domain.SearchFilters
	view          View
	defaultSize   int
	selected      *domain.Document
	searchSeq     uint64
	createdAt     time.Time
}

func newSession(id string, pageSize int, now time.Time) *Session {
	if pageSize <= 0 {
		pageSize = query.DefaultPageSize
	}
	s := &Session{ID: id, defaultSize: pageSize, createdAt: now}
	s.resetLocked()
	return s
}

func defaultFilters() domain.SearchFilters {
	return domain.SearchFilters{Tags: []string{}}
}

func (s *Session) resetLocked() {
	s.filters = defaultFilters()
	s.view = View{Sort: query.SortNone, Scope: ScopeAll, Page: 1, PageSize: s.defaultSize}
	s.selected = nil
}

// authenticate moves the session to the Authenticated state for u.
func (s *Session) authenticate(u domain.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u.IsAuthenticated = true
	s.user = u
	s.authenticated = true
}

// logout moves the session back to Unauthenticated, dropping the
// selection and resetting the filters and view.
func (s *Session) logout() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.authenticated = false
	s.user.IsAuthenticated = false
	s.searchSeq++
	s.resetLocked()
}

func (s *Session) Authenticated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.authenticated
}

func (s *Session) User() domain.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.user
}

func (s *Session) Snapshot() SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := SessionState{
		ID:              s.ID,
		User:            s.user,
		IsAuthenticated: s.authenticated,
		Filters:         cloneFilters(s.filters),
		View:            s.view,
		CreatedAt:       s.createdAt,
	}
	if s.selected != nil {
		doc := s.selected.Clone()
		st.Selected = &doc
	}
	return st
}

func (s *Session) Filters() domain.SearchFilters {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneFilters(s.filters)
}

func (s *Session) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view
}

// applyFilters merges p and sends the list back to page 1.
func (s *Session) applyFilters(p FilterPatch) domain.SearchFilters {
	s.mu.Lock()
	defer s.mu.Unlock()
	f := &s.filters
	if p.Query != nil {
		f.Query = *p.Query
	}
	if p.Tags != nil {
		f.Tags = ParseTags(strings.Join(*p.Tags, ","))
	}
	if p.DateRange != nil {
		f.DateRange = *p.DateRange
	}
	if p.Department != nil {
		f.Department = strings.TrimSpace(*p.Department)
	}
	if p.Visibility != nil {
		f.Visibility = *p.Visibility
	}
	if p.FileType != nil {
		f.FileType = *p.FileType
	}
	s.view.Page = 1
	return cloneFilters(s.filters)
}

func (s *Session) resetFilters() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.filters = defaultFilters()
	s.view.Page = 1
}

// applyView merges p. Changing sort, scope or page size resets the page to
// 1; an explicit page in the same patch is applied afterwards.
func (s *Session) applyView(quick *View, sort *query.SortKey, p ViewPatch) View {
	s.mu.Lock()
	defer s.mu.Unlock()
	v := &s.view
	if quick != nil {
		v.Sort, v.Scope, v.Page = quick.Sort, quick.Scope, 1
	}
	if sort != nil && *sort != v.Sort {
		v.Sort, v.Page = *sort, 1
	}
	if p.Scope != nil && Scope(*p.Scope) != v.Scope {
		v.Scope, v.Page = Scope(*p.Scope), 1
	}
	if p.PageSize != nil && *p.PageSize != v.PageSize {
		v.PageSize, v.Page = *p.PageSize, 1
	}
	if p.Page != nil {
		v.Page = *p.Page
	}
	return s.view
}

// selectDocument stores a snapshot of doc; nil returns to list view.
func (s *Session) selectDocument(doc *domain.Document) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if doc == nil {
		s.selected = nil
		return
	}
	snap := doc.Clone()
	s.selected = &snap
}

// clearSelectionIf drops the selection when it refers to id.
func (s *Session) clearSelectionIf(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.selected == nil || s.selected.ID != id {
		return false
	}
	s.selected = nil
	return true
}

// beginSearch returns the token identifying the newest search.
func (s *Session) beginSearch() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.searchSeq++
	return s.searchSeq
}

func (s *Session) isLatestSearch(seq uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.searchSeq == seq
}

func cloneFilters(f domain.SearchFilters) domain.SearchFilters {
	out := f
	out.Tags = append([]string{}, f.Tags...)
	return out
}

// quickView maps a dashboard shortcut to its sort and scope.
func quickView(name string) (View, bool) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "all":
		return View{Sort: query.SortNone, Scope: ScopeAll}, true
	case "recent":
		return View{Sort: query.SortRecent, Scope: ScopeAll}, true
	case "popular":
		return View{Sort: query.SortPopular, Scope: ScopeAll}, true
	case "mine", "my":
		return View{Sort: query.SortNone, Scope: ScopeMine}, true
	}
	return View{}, false
}
