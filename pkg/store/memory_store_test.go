package store

import (
	"errors"
	"testing"
	"time"

	"knowledgegalaxy/pkg/domain"
)

func testDoc(id, title string) domain.Document {
	now := time.Date(2024, 12, 15, 10, 0, 0, 0, time.UTC)
	return domain.Document{
		ID:         id,
		Title:      title,
		Tags:       []string{"ERP"},
		Visibility: domain.VisibilityPublic,
		CreatedAt:  now,
		UpdatedAt:  now,
		Comments:   []domain.Comment{},
	}
}

func TestMemoryStoreInsertPrepends(t *testing.T) {
	s := NewMemoryStore()
	for _, id := range []string{"a", "b", "c"} {
		if err := s.InsertDocument(testDoc(id, "doc "+id)); err != nil {
			t.Fatalf("insert %s: %v", id, err)
		}
	}
	docs, err := s.ListDocuments()
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	got := []string{docs[0].ID, docs[1].ID, docs[2].ID}
	want := []string{"c", "b", "a"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("order = %v, want %v", got, want)
		}
	}
	if err := s.InsertDocument(testDoc("a", "again")); !errors.Is(err, ErrDuplicateID) {
		t.Fatalf("expected duplicate id error, got %v", err)
	}
}

func TestMemoryStoreReturnsCopies(t *testing.T) {
	s := NewMemoryStore()
	if err := s.InsertDocument(testDoc("a", "doc")); err != nil {
		t.Fatalf("insert: %v", err)
	}
	d, _, _ := s.GetDocument("a")
	d.Tags[0] = "mutated"
	again, _, _ := s.GetDocument("a")
	if again.Tags[0] != "ERP" {
		t.Fatalf("stored tags aliased caller slice: %v", again.Tags)
	}
}

func TestMemoryStoreMutateIsAllOrNothing(t *testing.T) {
	s := NewMemoryStore()
	if err := s.InsertDocument(testDoc("a", "before")); err != nil {
		t.Fatalf("insert: %v", err)
	}
	boom := errors.New("boom")
	_, found, err := s.MutateDocument("a", func(d *domain.Document) error {
		d.Title = "after"
		return boom
	})
	if !found || !errors.Is(err, boom) {
		t.Fatalf("found=%v err=%v", found, err)
	}
	d, _, _ := s.GetDocument("a")
	if d.Title != "before" {
		t.Fatalf("failed mutation leaked: %q", d.Title)
	}

	updated, found, err := s.MutateDocument("a", func(d *domain.Document) error {
		d.Title = "after"
		d.ID = "hijack"
		return nil
	})
	if err != nil || !found {
		t.Fatalf("mutate: found=%v err=%v", found, err)
	}
	if updated.ID != "a" || updated.Title != "after" {
		t.Fatalf("unexpected result %+v", updated)
	}

	if _, found, err := s.MutateDocument("missing", func(*domain.Document) error { return nil }); found || err != nil {
		t.Fatalf("missing doc: found=%v err=%v", found, err)
	}
}

func TestMemoryStoreRecordRatingTracksPreviousScore(t *testing.T) {
	s := NewMemoryStore()
	if err := s.InsertDocument(testDoc("a", "doc")); err != nil {
		t.Fatalf("insert: %v", err)
	}
	var seen []float64
	var hads []bool
	apply := func(_ *domain.Document, prev float64, had bool) error {
		seen = append(seen, prev)
		hads = append(hads, had)
		return nil
	}
	if _, _, err := s.RecordRating("a", "u1", 4, apply); err != nil {
		t.Fatalf("rate: %v", err)
	}
	if _, _, err := s.RecordRating("a", "u1", 2, apply); err != nil {
		t.Fatalf("rate: %v", err)
	}
	if hads[0] || !hads[1] || seen[1] != 4 {
		t.Fatalf("unexpected ledger view: prev=%v had=%v", seen, hads)
	}

	if ok, _ := s.DeleteDocument("a"); !ok {
		t.Fatalf("expected delete to report true")
	}
	if _, found, _ := s.GetDocument("a"); found {
		t.Fatalf("expected document to be gone")
	}
	if ok, _ := s.DeleteDocument("a"); ok {
		t.Fatalf("second delete should report false")
	}
}

func TestMemoryStoreUsersAndActivities(t *testing.T) {
	s := NewMemoryStore()
	u := domain.User{ID: "1", Username: "admin", Name: "Admin", Permissions: []string{"admin"}}
	if err := s.SaveUser(u); err != nil {
		t.Fatalf("save user: %v", err)
	}
	got, ok, err := s.GetUserByUsername("ADMIN")
	if err != nil || !ok || got.ID != "1" {
		t.Fatalf("lookup by username: %+v ok=%v err=%v", got, ok, err)
	}
	if _, ok, _ := s.GetUserByID("2"); ok {
		t.Fatalf("unexpected user 2")
	}

	for _, id := range []string{"a1", "a2"} {
		if err := s.AppendActivity(domain.Activity{ID: id}); err != nil {
			t.Fatalf("append: %v", err)
		}
	}
	acts, _ := s.ListActivities()
	if len(acts) != 2 || acts[0].ID != "a1" {
		t.Fatalf("unexpected activities %+v", acts)
	}
}
