package retrieval

import (
	"math"
	"strings"

	"github.com/kirillkom/homestay-faq-assistant/internal/core/domain"
)

// Scorer holds the tuning for every scoring step. It keeps no per-query state,
// so one Scorer can serve concurrent messages.
type Scorer struct {
	cfg Config
}

func NewScorer(cfg Config) *Scorer {
	return &Scorer{cfg: cfg.normalize()}
}

func (s *Scorer) Config() Config {
	return s.cfg
}

// LexicalScore is token Jaccard between the query and question+answer+tags,
// plus substring bonuses. An exact question match short-circuits to 1.
func (s *Scorer) LexicalScore(query string, faq domain.FAQ) float64 {
	if !faq.IsActive {
		return 0
	}
	q := normalizeText(query)
	if q == "" {
		return 0
	}
	question := normalizeText(faq.Question)
	if q == question {
		return 1
	}

	corpus := faq.Question + " " + faq.Answer + " " + strings.Join(faq.Tags, " ")
	score := jaccard(toTokenSet(Tokenize(q)), toTokenSet(Tokenize(corpus)))

	if strings.Contains(question, q) {
		score += s.cfg.Lexical.QuestionSubstring
	}
	for _, tag := range faq.Tags {
		t := normalizeText(tag)
		if t != "" && strings.Contains(q, t) {
			score += s.cfg.Lexical.TagSubstring
			break
		}
	}
	return clamp(score, 0, 1)
}

type TagMatch struct {
	Matched     bool
	Score       float64
	MatchedTags []string
}

// MatchTags sums graded per-tag weights, capped at 1.
func (s *Scorer) MatchTags(query string, faq domain.FAQ) TagMatch {
	if !faq.IsActive || len(faq.Tags) == 0 {
		return TagMatch{}
	}
	q := normalizeText(query)
	if q == "" {
		return TagMatch{}
	}

	queryTokens := toTokenSet(Tokenize(q))
	total := 0.0
	var matched []string
	for _, tag := range faq.Tags {
		t := normalizeText(tag)
		if t == "" {
			continue
		}
		if w := s.tagWeight(q, queryTokens, t); w > 0 {
			total += w
			matched = append(matched, tag)
		}
	}
	if total <= 0 {
		return TagMatch{}
	}
	return TagMatch{
		Matched:     true,
		Score:       math.Min(total, 1),
		MatchedTags: matched,
	}
}

func (s *Scorer) tagWeight(query string, queryTokens map[string]struct{}, tag string) float64 {
	switch {
	case query == tag:
		return s.cfg.Tags.Exact
	case strings.Contains(tag, query):
		return s.cfg.Tags.TagContainsQuery
	case strings.Contains(query, tag):
		return s.cfg.Tags.QueryContainsTag
	}
	similarity := jaccard(queryTokens, toTokenSet(Tokenize(tag)))
	if similarity > s.cfg.Tags.PartialMinSimilarity {
		return similarity * s.cfg.Tags.PartialFactor
	}
	return 0
}

type Similarity struct {
	Score       float64
	Method      domain.MatchMethod
	MatchedTags []string
}

// CombinedScore tries the tag matcher first and only falls back to lexical
// scoring when no tag matched.
func (s *Scorer) CombinedScore(query string, faq domain.FAQ) Similarity {
	if tm := s.MatchTags(query, faq); tm.Matched {
		return Similarity{Score: tm.Score, Method: domain.MatchTag, MatchedTags: tm.MatchedTags}
	}
	return Similarity{Score: s.LexicalScore(query, faq), Method: domain.MatchLexical}
}
