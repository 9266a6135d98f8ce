package ai

import (
	"context"
	"math/rand/v2"
	"sync"
)

// Suggestion is a generated summary plus suggested tags for a draft.
type Suggestion struct {
	Summary string   `json:"summary"`
	Tags    []string `json:"tags"`
}

// Summarizer proposes a summary and tags for a document draft.
type Summarizer interface {
	Suggest(ctx context.Context, title, content string) (Suggestion, error)
}

var cannedSummaries = []string{
	"This document provides comprehensive insights into modern development practices and methodologies for enterprise environments.",
	"Essential technical guidelines and best practices for implementing scalable solutions in corporate settings.",
	"Strategic overview of implementation approaches with practical examples and detailed case studies.",
	"Comprehensive knowledge compilation covering fundamental concepts and advanced techniques for professionals.",
}

var cannedTagSets = [][]string{
	{"Development", "Best Practices", "Technical", "Enterprise"},
	{"Documentation", "Guidelines", "Process", "Standards"},
	{"Strategy", "Implementation", "Framework", "Architecture"},
	{"Knowledge", "Tutorial", "Guide", "Training"},
}

// CannedSummarizer picks one canned summary and one tag set at random. The
// draft text is not inspected.
type CannedSummarizer struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewCannedSummarizer seeds the picker; equal seeds give equal sequences.
func NewCannedSummarizer(seed uint64) *CannedSummarizer {
	return &CannedSummarizer{rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

func (s *CannedSummarizer) Suggest(ctx context.Context, _, _ string) (Suggestion, error) {
	if err := ctx.Err(); err != nil {
		return Suggestion{}, err
	}
	s.mu.Lock()
	i := s.rng.IntN(len(cannedSummaries))
	j := s.rng.IntN(len(cannedTagSets))
	s.mu.Unlock()
	return Suggestion{
		Summary: cannedSummaries[i],
		Tags:    append([]string(nil), cannedTagSets[j]...),
	}, nil
}
