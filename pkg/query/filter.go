// Package query derives views over document collections. Every function is
// pure: inputs are never modified and results depend only on the arguments.
package query

import (
	"strings"

	"knowledgegalaxy/pkg/domain"
)

// FilterBySearch keeps documents whose title, content, summary, author or
// any tag contains q, case-insensitively. A blank query returns the input.
func FilterBySearch(docs []domain.Document, q string) []domain.Document {
	q = strings.ToLower(strings.TrimSpace(q))
	if q == "" {
		return docs
	}
	return keep(docs, func(d domain.Document) bool {
		if strings.Contains(strings.ToLower(d.Title), q) ||
			strings.Contains(strings.ToLower(d.Content), q) ||
			strings.Contains(strings.ToLower(d.Summary), q) ||
			strings.Contains(strings.ToLower(d.Author), q) {
			return true
		}
		for _, tag := range d.Tags {
			if strings.Contains(strings.ToLower(tag), q) {
				return true
			}
		}
		return false
	})
}

// FilterByFacets keeps documents matching every non-empty facet exactly.
func FilterByFacets(docs []domain.Document, department, visibility, fileType string) []domain.Document {
	if department == "" && visibility == "" && fileType == "" {
		return docs
	}
	return keep(docs, func(d domain.Document) bool {
		return (department == "" || d.Department == department) &&
			(visibility == "" || string(d.Visibility) == visibility) &&
			(fileType == "" || string(d.FileType) == fileType)
	})
}

// FilterByTags keeps documents carrying every requested tag (case-insensitive).
func FilterByTags(docs []domain.Document, tags []string) []domain.Document {
	wanted := make([]string, 0, len(tags))
	for _, t := range tags {
		if t = strings.ToLower(strings.TrimSpace(t)); t != "" {
			wanted = append(wanted, t)
		}
	}
	if len(wanted) == 0 {
		return docs
	}
	return keep(docs, func(d domain.Document) bool {
		have := make(map[string]struct{}, len(d.Tags))
		for _, t := range d.Tags {
			have[strings.ToLower(t)] = struct{}{}
		}
		for _, t := range wanted {
			if _, ok := have[t]; !ok {
				return false
			}
		}
		return true
	})
}

// FilterByDateRange keeps documents created within r, bounds inclusive.
func FilterByDateRange(docs []domain.Document, r domain.DateRange) []domain.Document {
	if r.From == nil && r.To == nil {
		return docs
	}
	return keep(docs, func(d domain.Document) bool {
		if r.From != nil && d.CreatedAt.Before(*r.From) {
			return false
		}
		if r.To != nil && d.CreatedAt.After(*r.To) {
			return false
		}
		return true
	})
}

// Apply runs every constraint in f.
func Apply(docs []domain.Document, f domain.SearchFilters) []domain.Document {
	out := FilterBySearch(docs, f.Query)
	out = FilterByTags(out, f.Tags)
	out = FilterByDateRange(out, f.DateRange)
	return FilterByFacets(out, f.Department, f.Visibility, f.FileType)
}

// UserSubset keeps the documents authored by userID.
func UserSubset(docs []domain.Document, userID string) []domain.Document {
	return keep(docs, func(d domain.Document) bool { return d.AuthorID == userID })
}

func keep(docs []domain.Document, pred func(domain.Document) bool) []domain.Document {
	out := make([]domain.Document, 0, len(docs))
	for _, d := range docs {
		if pred(d) {
			out = append(out, d)
		}
	}
	return out
}
