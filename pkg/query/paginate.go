package query

import "knowledgegalaxy/pkg/domain"

// DefaultPageSize matches the dashboard list.
const DefaultPageSize = 5

// Page is one slice of a paginated view. Page is 1-indexed and already
// clamped; TotalPages is 0 only when TotalItems is 0.
type Page struct {
	Items      []domain.Document `json:"items"`
	Page       int               `json:"page"`
	PageSize   int               `json:"pageSize"`
	TotalPages int               `json:"totalPages"`
	TotalItems int               `json:"totalItems"`
}

// Paginate returns page of docs, clamping page to [1, TotalPages].
// A non-positive pageSize falls back to DefaultPageSize.
func Paginate(docs []domain.Document, pageSize, page int) Page {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	total := len(docs)
	out := Page{PageSize: pageSize, TotalItems: total, Page: 1, Items: []domain.Document{}}
	if total == 0 {
		return out
	}
	out.TotalPages = (total + pageSize - 1) / pageSize
	out.Page = min(max(page, 1), out.TotalPages)
	start := (out.Page - 1) * pageSize
	end := min(start+pageSize, total)
	out.Items = append(out.Items, docs[start:end]...)
	return out
}

// Recent returns the n most recently created documents.
func Recent(docs []domain.Document, n int) []domain.Document {
	return head(SortByRecency(docs), n)
}

// Popular returns the n most popular documents.
func Popular(docs []domain.Document, n int) []domain.Document {
	return head(SortByPopularity(docs), n)
}

func head(docs []domain.Document, n int) []domain.Document {
	if n < 0 {
		n = 0
	}
	if n < len(docs) {
		docs = docs[:n]
	}
	return append([]domain.Document{}, docs...)
}
