package store

import (
	"strings"
	"sync"

	"knowledgegalaxy/pkg/domain"
)

// MemoryStore is an in-process Store. All records are cloned on the way in
// and out so callers never alias stored slices.
type MemoryStore struct {
	mu         sync.RWMutex
	docs       map[string]domain.Document
	order      []string
	users      map[string]domain.User
	ratings    map[ratingKey]float64
	activities []domain.Activity
}

type ratingKey struct {
	docID  string
	userID string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		docs:    make(map[string]domain.Document),
		users:   make(map[string]domain.User),
		ratings: make(map[ratingKey]float64),
	}
}

// InsertDocument prepends a new document.
func (s *MemoryStore) InsertDocument(d domain.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.docs[d.ID]; exists {
		return ErrDuplicateID
	}
	s.docs[d.ID] = d.Clone()
	s.order = append([]string{d.ID}, s.order...)
	return nil
}

func (s *MemoryStore) GetDocument(id string) (domain.Document, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.docs[id]
	if !ok {
		return domain.Document{}, false, nil
	}
	return d.Clone(), true, nil
}

func (s *MemoryStore) ListDocuments() ([]domain.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Document, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.docs[id].Clone())
	}
	return out, nil
}

// MutateDocument runs fn on a copy and commits it only when fn succeeds.
func (s *MemoryStore) MutateDocument(id string, fn MutateFunc) (domain.Document, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.docs[id]
	if !ok {
		return domain.Document{}, false, nil
	}
	next := current.Clone()
	if err := fn(&next); err != nil {
		return domain.Document{}, true, err
	}
	next.ID = current.ID
	s.docs[id] = next
	return next.Clone(), true, nil
}

func (s *MemoryStore) RecordRating(docID, userID string, score float64, fn RatingFunc) (domain.Document, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.docs[docID]
	if !ok {
		return domain.Document{}, false, nil
	}
	key := ratingKey{docID: docID, userID: userID}
	previous, had := s.ratings[key]
	next := current.Clone()
	if err := fn(&next, previous, had); err != nil {
		return domain.Document{}, true, err
	}
	s.docs[docID] = next
	s.ratings[key] = score
	return next.Clone(), true, nil
}

func (s *MemoryStore) DeleteDocument(id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.docs[id]; !ok {
		return false, nil
	}
	delete(s.docs, id)
	for i, existing := range s.order {
		if existing == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	for key := range s.ratings {
		if key.docID == id {
			delete(s.ratings, key)
		}
	}
	return true, nil
}

func (s *MemoryStore) SaveUser(u domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[u.ID] = cloneUser(u)
	return nil
}

func (s *MemoryStore) GetUserByID(id string) (domain.User, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return domain.User{}, false, nil
	}
	return cloneUser(u), true, nil
}

func (s *MemoryStore) GetUserByUsername(username string) (domain.User, bool, error) {
	username = strings.TrimSpace(username)
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		if username != "" && strings.EqualFold(u.Username, username) {
			return cloneUser(u), true, nil
		}
	}
	return domain.User{}, false, nil
}

func (s *MemoryStore) AppendActivity(a domain.Activity) error {
	s.mu.Lock()
	s.activities = append(s.activities, a)
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) ListActivities() ([]domain.Activity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.Activity(nil), s.activities...), nil
}

func cloneUser(u domain.User) domain.User {
	out := u
	out.Permissions = append([]string(nil), u.Permissions...)
	out.Badges = append([]domain.Badge(nil), u.Badges...)
	return out
}
