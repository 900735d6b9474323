package domain

type MatchMethod string

const (
	MatchTag       MatchMethod = "tag"
	MatchLexical   MatchMethod = "lexical"
	MatchEmbedding MatchMethod = "embedding"
)

// Candidate is an FAQ considered relevant to a query before reranking.
type Candidate struct {
	FAQ             FAQ         `json:"-"`
	SimilarityScore float64     `json:"similarity_score"`
	Method          MatchMethod `json:"match_method"`
	MatchedTags     []string    `json:"matched_tags,omitempty"`
}

type Signals struct {
	Homestay float64 `json:"homestay"`
	Synonym  float64 `json:"synonym"`
}

type RerankedCandidate struct {
	Candidate
	FinalScore float64 `json:"final_score"`
	Signals    Signals `json:"signals"`
}

type SearchMethod string

const (
	SearchNone            SearchMethod = "none"
	SearchEmbedding       SearchMethod = "embedding"
	SearchLexical         SearchMethod = "lexical"
	SearchLexicalFallback SearchMethod = "lexical_fallback"
)

// ContextItem is one grounding entry handed to the answer synthesizer.
type ContextItem struct {
	Question   string  `json:"question"`
	Answer     string  `json:"answer"`
	Confidence float64 `json:"confidence"`
}

type SearchResult struct {
	Query        string           `json:"query"`
	SearchMethod SearchMethod     `json:"search_method"`
	Candidates   []CandidateTrace `json:"candidates"`
	SkippedFAQs  []string         `json:"skipped_faqs,omitempty"`
}
