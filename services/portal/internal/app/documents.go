package app

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"knowledgegalaxy/internal/util"
	"knowledgegalaxy/pkg/domain"
)

type ratingInput struct {
	Score float64 `json:"score" validate:"gte=1,lte=5"`
}

// CanEdit reports whether u may update or delete doc: its author, or anyone
// holding the admin permission.
func CanEdit(u domain.User, doc domain.Document) bool {
	if u.ID != "" && u.ID == doc.AuthorID {
		return true
	}
	return u.HasPermission(domain.PermissionAdmin)
}

// AddDocument creates a document from draft. A draft without a summary gets
// one from the summarizer; if that fails the summary stays empty.
func (a *App) AddDocument(ctx context.Context, draft domain.DocumentDraft) (domain.Document, error) {
	draft = prepareDraft(draft)
	if err := a.check(draft); err != nil {
		return domain.Document{}, err
	}
	if strings.TrimSpace(draft.Summary) == "" {
		if s, err := a.summarizer.Suggest(ctx, draft.Title, draft.Content); err != nil {
			util.LoggerFromContext(ctx).Warn("summary suggestion failed", "err", err)
		} else {
			draft.Summary = s.Summary
		}
	}
	now := a.timestamp()
	doc := domain.Document{
		ID:         util.NewID(),
		Title:      draft.Title,
		Content:    draft.Content,
		Summary:    draft.Summary,
		Tags:       append([]string{}, draft.Tags...),
		Author:     draft.Author,
		AuthorID:   draft.AuthorID,
		Department: draft.Department,
		Visibility: draft.Visibility,
		FileType:   draft.FileType,
		FileName:   draft.FileName,
		FileSize:   draft.FileSize,
		CreatedAt:  now,
		UpdatedAt:  now,
		Comments:   []domain.Comment{},
	}
	defer a.beginWrite()()
	if err := a.store.InsertDocument(doc); err != nil {
		return domain.Document{}, fmt.Errorf("insert document: %w", err)
	}
	a.bump()
	a.metrics.DocumentsCreated.Inc()
	return doc, nil
}

// CreateDocument adds a document authored by the session user.
func (a *App) CreateDocument(ctx context.Context, s *Session, draft domain.DocumentDraft) (domain.Document, error) {
	u := s.User()
	draft.Author = u.Name
	draft.AuthorID = u.ID
	if strings.TrimSpace(draft.Department) == "" {
		draft.Department = u.Department
	}
	return a.AddDocument(ctx, draft)
}

func (a *App) GetDocument(ctx context.Context, id string) (domain.Document, error) {
	doc, ok, err := a.store.GetDocument(id)
	if err != nil {
		return domain.Document{}, fmt.Errorf("get document: %w", err)
	}
	if !ok {
		return domain.Document{}, a.notFound(ctx, "get", id)
	}
	return doc, nil
}

// UpdateDocument merges patch into the document and refreshes updatedAt.
func (a *App) UpdateDocument(ctx context.Context, id string, patch domain.DocumentPatch) (domain.Document, error) {
	return a.update(ctx, id, patch, nil)
}

// UpdateDocumentAs is UpdateDocument gated on CanEdit for the session user.
func (a *App) UpdateDocumentAs(ctx context.Context, s *Session, id string, patch domain.DocumentPatch) (domain.Document, error) {
	u := s.User()
	return a.update(ctx, id, patch, &u)
}

func (a *App) update(ctx context.Context, id string, patch domain.DocumentPatch, editor *domain.User) (domain.Document, error) {
	if err := a.check(patch); err != nil {
		return domain.Document{}, err
	}
	if patch.Title != nil && strings.TrimSpace(*patch.Title) == "" {
		return domain.Document{}, invalid("title is required")
	}
	now := a.timestamp()
	defer a.beginWrite()()
	doc, ok, err := a.store.MutateDocument(id, func(d *domain.Document) error {
		if editor != nil && !CanEdit(*editor, *d) {
			return ErrForbidden
		}
		patch.Apply(d)
		d.UpdatedAt = now
		return nil
	})
	if err != nil {
		return domain.Document{}, a.denied(ctx, "update", id, err)
	}
	if !ok {
		return domain.Document{}, a.notFound(ctx, "update", id)
	}
	a.bump()
	a.metrics.DocumentsUpdated.Inc()
	return doc, nil
}

// DeleteDocument removes the document and clears it from every session
// that has it selected.
func (a *App) DeleteDocument(ctx context.Context, id string) error {
	defer a.beginWrite()()
	ok, err := a.store.DeleteDocument(id)
	if err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	if !ok {
		return a.notFound(ctx, "delete", id)
	}
	a.bump()
	a.metrics.DocumentsDeleted.Inc()
	a.sessions.ForEach(func(s *Session) {
		s.clearSelectionIf(id)
	})
	return nil
}

// DeleteDocumentAs is DeleteDocument gated on CanEdit for the session user.
func (a *App) DeleteDocumentAs(ctx context.Context, s *Session, id string) error {
	doc, err := a.GetDocument(ctx, id)
	if err != nil {
		return err
	}
	if !CanEdit(s.User(), doc) {
		return a.denied(ctx, "delete", id, ErrForbidden)
	}
	return a.DeleteDocument(ctx, id)
}

// RateDocument adds one anonymous score to the running mean.
func (a *App) RateDocument(ctx context.Context, id string, score float64) (domain.Document, error) {
	if err := a.check(ratingInput{Score: score}); err != nil {
		return domain.Document{}, err
	}
	now := a.timestamp()
	defer a.beginWrite()()
	doc, ok, err := a.store.MutateDocument(id, func(d *domain.Document) error {
		addRating(d, score)
		d.UpdatedAt = now
		return nil
	})
	if err != nil {
		return domain.Document{}, fmt.Errorf("rate document: %w", err)
	}
	if !ok {
		return domain.Document{}, a.notFound(ctx, "rate", id)
	}
	a.bump()
	a.metrics.Ratings.Inc()
	return doc, nil
}

// RateAsUser records the session user's score. A repeat submission by the
// same user replaces their earlier score instead of adding a sample.
func (a *App) RateAsUser(ctx context.Context, s *Session, id string, score float64) (domain.Document, error) {
	if err := a.check(ratingInput{Score: score}); err != nil {
		return domain.Document{}, err
	}
	now := a.timestamp()
	defer a.beginWrite()()
	doc, ok, err := a.store.RecordRating(id, s.User().ID, score, func(d *domain.Document, previous float64, hadPrevious bool) error {
		if hadPrevious && d.TotalRatings > 0 {
			replaceRating(d, previous, score)
		} else {
			addRating(d, score)
		}
		d.UpdatedAt = now
		return nil
	})
	if err != nil {
		return domain.Document{}, fmt.Errorf("rate document: %w", err)
	}
	if !ok {
		return domain.Document{}, a.notFound(ctx, "rate", id)
	}
	a.bump()
	a.metrics.Ratings.Inc()
	return doc, nil
}

// ViewDocument counts one view.
func (a *App) ViewDocument(ctx context.Context, id string) (domain.Document, error) {
	now := a.timestamp()
	defer a.beginWrite()()
	doc, ok, err := a.store.MutateDocument(id, func(d *domain.Document) error {
		d.Views++
		d.UpdatedAt = now
		return nil
	})
	if err != nil {
		return domain.Document{}, fmt.Errorf("view document: %w", err)
	}
	if !ok {
		return domain.Document{}, a.notFound(ctx, "view", id)
	}
	a.bump()
	a.metrics.Views.Inc()
	return doc, nil
}

// addRating folds one more sample into the mean incrementally, which stays
// accurate where rating*n would lose precision for large n.
func addRating(d *domain.Document, score float64) {
	d.TotalRatings++
	d.Rating = clampRating(d.Rating + (score-d.Rating)/float64(d.TotalRatings))
}

func replaceRating(d *domain.Document, previous, score float64) {
	d.Rating = clampRating(d.Rating + (score-previous)/float64(d.TotalRatings))
}

func clampRating(r float64) float64 {
	return math.Min(5, math.Max(0, r))
}

func (a *App) notFound(ctx context.Context, op, id string) error {
	util.LoggerFromContext(ctx).Warn("document not found", "op", op, "document_id", id)
	return fmt.Errorf("%w: %s", ErrNotFound, id)
}

func (a *App) denied(ctx context.Context, op, id string, err error) error {
	if errors.Is(err, ErrForbidden) {
		util.LoggerFromContext(ctx).Warn("security_event",
			"event", "portal.document."+op,
			"outcome", "forbidden",
			"document_id", id,
		)
		return fmt.Errorf("%w: cannot %s document %s", ErrForbidden, op, id)
	}
	return fmt.Errorf("%s document: %w", op, err)
}
