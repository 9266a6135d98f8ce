package query

import "knowledgegalaxy/pkg/domain"

// Stats summarises a document collection.
type Stats struct {
	TotalDocuments int     `json:"totalDocuments"`
	TotalViews     int     `json:"totalViews"`
	TotalRatings   int     `json:"totalRatings"`
	AverageRating  float64 `json:"averageRating"`
	Departments    []Count `json:"departments"`
	TopTags        []Count `json:"topTags"`
	TopAuthors     []Count `json:"topAuthors"`
}

const (
	topTagsLimit    = 10
	topAuthorsLimit = 5
)

// ComputeStats weights each document's mean by its rating count, so
// AverageRating is the mean over every submitted score.
func ComputeStats(docs []domain.Document) Stats {
	s := Stats{TotalDocuments: len(docs)}
	var weighted float64
	for _, d := range docs {
		s.TotalViews += d.Views
		s.TotalRatings += d.TotalRatings
		weighted += d.Rating * float64(d.TotalRatings)
	}
	if s.TotalRatings > 0 {
		s.AverageRating = weighted / float64(s.TotalRatings)
	}
	s.Departments = AggregateByField(docs, ByDepartment)
	s.TopTags = Top(AggregateByField(docs, ByTag), topTagsLimit)
	s.TopAuthors = Top(AggregateByField(docs, ByAuthor), topAuthorsLimit)
	return s
}

// UserStats summarises one author's documents.
type UserStats struct {
	Documents     int     `json:"documents"`
	TotalViews    int     `json:"totalViews"`
	AverageRating float64 `json:"averageRating"`
}

// ComputeUserStats averages document ratings without weighting.
func ComputeUserStats(docs []domain.Document, userID string) UserStats {
	mine := UserSubset(docs, userID)
	s := UserStats{Documents: len(mine)}
	var sum float64
	for _, d := range mine {
		s.TotalViews += d.Views
		sum += d.Rating
	}
	if len(mine) > 0 {
		s.AverageRating = sum / float64(len(mine))
	}
	return s
}
