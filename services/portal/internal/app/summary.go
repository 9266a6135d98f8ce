package app

import (
	"context"
	"fmt"

	"knowledgegalaxy/pkg/ai"
)

type summaryInput struct {
	Title   string `json:"title" validate:"required,max=300"`
	Content string `json:"content"`
}

// SuggestSummary proposes a summary and tags for a draft before upload.
func (a *App) SuggestSummary(ctx context.Context, title, content string) (ai.Suggestion, error) {
	if err := a.check(summaryInput{Title: title, Content: content}); err != nil {
		return ai.Suggestion{}, err
	}
	s, err := a.summarizer.Suggest(ctx, title, content)
	if err != nil {
		return ai.Suggestion{}, fmt.Errorf("suggest summary: %w", err)
	}
	return s, nil
}
