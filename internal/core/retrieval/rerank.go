package retrieval

import (
	"math"
	"sort"
	"strings"

	"github.com/kirillkom/homestay-faq-assistant/internal/core/domain"
)

type RerankInput struct {
	Query      string
	Homestays  []domain.Homestay
	Candidates []domain.Candidate
}

// Rerank computes final = w_sim*similarity + w_homestay*homestaySignal + w_synonym*synonymSignal
// and returns the RerankTopN best candidates. Equal scores keep candidate order.
func (s *Scorer) Rerank(in RerankInput) []domain.RerankedCandidate {
	if len(in.Candidates) == 0 {
		return []domain.RerankedCandidate{}
	}

	query := normalizeText(in.Query)
	out := make([]domain.RerankedCandidate, 0, len(in.Candidates))
	for _, candidate := range in.Candidates {
		signals := domain.Signals{
			Homestay: s.homestaySignal(query, candidate.FAQ, in.Homestays),
			Synonym:  s.synonymSignal(query, candidate.FAQ),
		}
		final := s.cfg.Weights.Similarity*candidate.SimilarityScore +
			s.cfg.Weights.Homestay*signals.Homestay +
			s.cfg.Weights.Synonym*signals.Synonym
		out = append(out, domain.RerankedCandidate{
			Candidate:  candidate,
			FinalScore: clamp(final, 0, 1),
			Signals:    signals,
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].FinalScore > out[j].FinalScore
	})
	if len(out) > s.cfg.RerankTopN {
		out = out[:s.cfg.RerankTopN]
	}
	return out
}

func (s *Scorer) homestaySignal(query string, faq domain.FAQ, homestays []domain.Homestay) float64 {
	if query == "" || len(homestays) == 0 {
		return 0
	}
	boosts := s.cfg.Homestay
	signal := 0.0

	if related, ok := findHomestay(homestays, faq.RelatedHomestay); ok {
		if mentions(query, related.Name) {
			signal += boosts.RelatedName
		}
		if mentions(query, related.City) {
			signal += boosts.RelatedCity
		}
		for _, amenity := range related.Amenities {
			if mentions(query, amenity) {
				signal += boosts.RelatedAmenity
			}
		}
	}

	for _, h := range homestays {
		if !mentions(query, h.Name) {
			continue
		}
		signal += boosts.AnyName
		if mentions(query, h.City) {
			signal += boosts.AnyCity
		}
	}
	return math.Min(signal, boosts.Cap)
}

func (s *Scorer) synonymSignal(query string, faq domain.FAQ) float64 {
	if query == "" || len(s.cfg.SynonymGroups) == 0 {
		return 0
	}
	faqText := strings.ToLower(faq.Question + " " + faq.Answer + " " + strings.Join(faq.Tags, " "))
	signal := 0.0
	for _, group := range s.cfg.SynonymGroups {
		if containsAny(query, group) && containsAny(faqText, group) {
			signal += s.cfg.Synonym.PerGroup
		}
	}
	return math.Min(signal, s.cfg.Synonym.Cap)
}

func findHomestay(homestays []domain.Homestay, name string) (domain.Homestay, bool) {
	name = normalizeText(name)
	if name == "" {
		return domain.Homestay{}, false
	}
	for _, h := range homestays {
		if normalizeText(h.Name) == name {
			return h, true
		}
	}
	return domain.Homestay{}, false
}

func mentions(query, term string) bool {
	term = normalizeText(term)
	return term != "" && strings.Contains(query, term)
}

func containsAny(text string, terms []string) bool {
	for _, term := range terms {
		if mentions(text, term) {
			return true
		}
	}
	return false
}
