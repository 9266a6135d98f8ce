package store

import (
	"context"
	"errors"
	"time"

	"knowledgegalaxy/pkg/domain"
)

// ErrDuplicateID is returned when a new document reuses an existing id.
var ErrDuplicateID = errors.New("document id already exists")

// MutateFunc edits a document in place. Returning an error aborts the
// mutation and leaves the stored record untouched.
type MutateFunc func(doc *domain.Document) error

// RatingFunc applies one user's score to a document. previous is that user's
// earlier score, valid only when hadPrevious is true.
type RatingFunc func(doc *domain.Document, previous float64, hadPrevious bool) error

// Store defines persistence for documents, users and the activity feed.
// Documents are listed newest-insert first.
type Store interface {
	// documents
	InsertDocument(domain.Document) error
	GetDocument(id string) (domain.Document, bool, error)
	ListDocuments() ([]domain.Document, error)
	MutateDocument(id string, fn MutateFunc) (domain.Document, bool, error)
	RecordRating(docID, userID string, score float64, fn RatingFunc) (domain.Document, bool, error)
	DeleteDocument(id string) (bool, error)

	// users
	SaveUser(domain.User) error
	GetUserByID(id string) (domain.User, bool, error)
	GetUserByUsername(username string) (domain.User, bool, error)

	// activities
	AppendActivity(domain.Activity) error
	ListActivities() ([]domain.Activity, error)
}

// CredentialStore keeps the upstream bearer credential of each session.
type CredentialStore interface {
	Put(ctx context.Context, sessionID, credential string, ttl time.Duration) error
	Get(ctx context.Context, sessionID string) (string, bool, error)
	Delete(ctx context.Context, sessionID string) error
}
