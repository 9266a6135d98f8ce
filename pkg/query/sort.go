package query

import (
	"fmt"
	"slices"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
	"knowledgegalaxy/pkg/domain"
)

// SortKey names a list ordering.
type SortKey string

const (
	SortNone    SortKey = ""
	SortRecent  SortKey = "recent"
	SortPopular SortKey = "popular"
	SortViews   SortKey = "views"
	SortRating  SortKey = "rating"
	SortTitle   SortKey = "title"
)

// ParseSortKey accepts the known keys case-insensitively.
func ParseSortKey(raw string) (SortKey, error) {
	key := SortKey(strings.ToLower(strings.TrimSpace(raw)))
	switch key {
	case SortNone, SortRecent, SortPopular, SortViews, SortRating, SortTitle:
		return key, nil
	}
	return SortNone, fmt.Errorf("unknown sort %q", raw)
}

// PopularityScore is rating × totalRatings + views.
func PopularityScore(d domain.Document) float64 {
	return d.Rating*float64(d.TotalRatings) + float64(d.Views)
}

// SortByRecency orders by createdAt descending.
func SortByRecency(docs []domain.Document) []domain.Document {
	return sorted(docs, func(a, b domain.Document) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
}

// SortByPopularity orders by PopularityScore descending, ties by createdAt descending.
func SortByPopularity(docs []domain.Document) []domain.Document {
	return sorted(docs, func(a, b domain.Document) int {
		if c := cmpDesc(PopularityScore(a), PopularityScore(b)); c != 0 {
			return c
		}
		return b.CreatedAt.Compare(a.CreatedAt)
	})
}

// SortByViews orders by views descending.
func SortByViews(docs []domain.Document) []domain.Document {
	return sorted(docs, func(a, b domain.Document) int { return b.Views - a.Views })
}

// SortByRating orders by mean rating descending.
func SortByRating(docs []domain.Document) []domain.Document {
	return sorted(docs, func(a, b domain.Document) int { return cmpDesc(a.Rating, b.Rating) })
}

// TitleSorter orders titles with the collation rules of one locale.
type TitleSorter struct {
	tag language.Tag
}

// NewTitleSorter parses a BCP 47 locale; blank means language.Und.
func NewTitleSorter(locale string) (*TitleSorter, error) {
	locale = strings.TrimSpace(locale)
	if locale == "" {
		return &TitleSorter{tag: language.Und}, nil
	}
	tag, err := language.Parse(locale)
	if err != nil {
		return nil, fmt.Errorf("parse title locale: %w", err)
	}
	return &TitleSorter{tag: tag}, nil
}

// Sort orders docs by title ascending. A collator is not safe for concurrent
// use, so one is built per call.
func (s *TitleSorter) Sort(docs []domain.Document) []domain.Document {
	tag := language.Und
	if s != nil {
		tag = s.tag
	}
	col := collate.New(tag, collate.IgnoreCase)
	return sorted(docs, func(a, b domain.Document) int {
		return col.CompareString(a.Title, b.Title)
	})
}

// SortByTitle orders titles for the root locale.
func SortByTitle(docs []domain.Document) []domain.Document {
	return (*TitleSorter)(nil).Sort(docs)
}

// SortBy dispatches on key. SortNone keeps store order.
func (s *TitleSorter) SortBy(docs []domain.Document, key SortKey) []domain.Document {
	switch key {
	case SortRecent:
		return SortByRecency(docs)
	case SortPopular:
		return SortByPopularity(docs)
	case SortViews:
		return SortByViews(docs)
	case SortRating:
		return SortByRating(docs)
	case SortTitle:
		return s.Sort(docs)
	default:
		return docs
	}
}

func sorted(docs []domain.Document, cmp func(a, b domain.Document) int) []domain.Document {
	out := slices.Clone(docs)
	slices.SortStableFunc(out, cmp)
	return out
}

func cmpDesc(a, b float64) int {
	switch {
	case a > b:
		return -1
	case a < b:
		return 1
	}
	return 0
}
