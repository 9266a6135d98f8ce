package query

import (
	"slices"
	"strings"

	"knowledgegalaxy/pkg/domain"
)

// Count is one tally bucket.
type Count struct {
	Value string `json:"value"`
	Count int    `json:"count"`
}

// Selector yields the values a document contributes to a tally.
type Selector func(domain.Document) []string

var (
	ByDepartment Selector = func(d domain.Document) []string { return []string{d.Department} }
	ByTag        Selector = func(d domain.Document) []string { return d.Tags }
	ByAuthor     Selector = func(d domain.Document) []string { return []string{d.Author} }
)

// AggregateByField counts every value sel yields, including repeats within
// one document. Blank values are skipped. Buckets are ordered by count
// descending, ties by first-seen order.
func AggregateByField(docs []domain.Document, sel Selector) []Count {
	index := make(map[string]int)
	var out []Count
	for _, d := range docs {
		for _, v := range sel(d) {
			if strings.TrimSpace(v) == "" {
				continue
			}
			i, ok := index[v]
			if !ok {
				i = len(out)
				index[v] = i
				out = append(out, Count{Value: v})
			}
			out[i].Count++
		}
	}
	slices.SortStableFunc(out, func(a, b Count) int { return b.Count - a.Count })
	if out == nil {
		out = []Count{}
	}
	return out
}

// Top truncates counts to n entries.
func Top(counts []Count, n int) []Count {
	if n >= 0 && n < len(counts) {
		return counts[:n]
	}
	return counts
}
