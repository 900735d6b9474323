package retrieval

import (
	"context"
	"fmt"
	"sort"

	"github.com/kirillkom/homestay-faq-assistant/internal/core/domain"
	"github.com/kirillkom/homestay-faq-assistant/internal/core/ports"
)

type CandidateSet struct {
	Candidates []domain.Candidate
	Method     domain.SearchMethod
	// Considered counts active, well-formed FAQs that were scored.
	Considered int
	Skipped    []string
	EmbedErr   error
}

// GenerateCandidates scores every active FAQ, keeps scores above the similarity
// threshold and returns the best MaxCandidates in descending order (stable on
// input order). A failing or missing embedder degrades to tag/lexical scoring.
func (s *Scorer) GenerateCandidates(
	ctx context.Context,
	query string,
	faqs []domain.FAQ,
	embedder ports.Embedder,
) CandidateSet {
	eligible, skipped := eligibleFAQs(faqs)
	set := CandidateSet{
		Method:     domain.SearchLexical,
		Considered: len(eligible),
		Skipped:    skipped,
	}

	var queryVector []float32
	if embedder != nil && anyEmbedded(eligible) {
		vector, err := embedder.EmbedQuery(ctx, query)
		switch {
		case err != nil:
			set.Method = domain.SearchLexicalFallback
			set.EmbedErr = domain.WrapError(domain.ErrProvider, "embed query", err)
		case len(vector) == 0:
			set.Method = domain.SearchLexicalFallback
			set.EmbedErr = domain.WrapError(domain.ErrProvider, "embed query", fmt.Errorf("empty embedding result"))
		default:
			set.Method = domain.SearchEmbedding
			queryVector = vector
		}
	}

	scored := make([]domain.Candidate, 0, len(eligible))
	for _, faq := range eligible {
		candidate := s.scoreFAQ(query, queryVector, faq)
		if candidate.SimilarityScore <= s.cfg.SimilarityThreshold {
			continue
		}
		scored = append(scored, candidate)
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].SimilarityScore > scored[j].SimilarityScore
	})
	if len(scored) > s.cfg.MaxCandidates {
		scored = scored[:s.cfg.MaxCandidates]
	}
	set.Candidates = scored
	return set
}

func (s *Scorer) scoreFAQ(query string, queryVector []float32, faq domain.FAQ) domain.Candidate {
	if len(queryVector) > 0 && len(faq.Embedding) > 0 {
		return domain.Candidate{
			FAQ:             faq,
			SimilarityScore: CosineSimilarity(queryVector, faq.Embedding),
			Method:          domain.MatchEmbedding,
		}
	}
	sim := s.CombinedScore(query, faq)
	return domain.Candidate{
		FAQ:             faq,
		SimilarityScore: sim.Score,
		Method:          sim.Method,
		MatchedTags:     sim.MatchedTags,
	}
}

// eligibleFAQs drops inactive entries silently and reports malformed ones.
func eligibleFAQs(faqs []domain.FAQ) ([]domain.FAQ, []string) {
	out := make([]domain.FAQ, 0, len(faqs))
	var skipped []string
	for _, faq := range faqs {
		if !faq.IsActive {
			continue
		}
		if err := faq.Validate(); err != nil {
			skipped = append(skipped, err.Error())
			continue
		}
		out = append(out, faq)
	}
	return out, skipped
}

func anyEmbedded(faqs []domain.FAQ) bool {
	for _, faq := range faqs {
		if len(faq.Embedding) > 0 {
			return true
		}
	}
	return false
}
