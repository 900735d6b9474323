package domain

import "time"

// Query is one incoming customer message.
type Query struct {
	Message     string `json:"message"`
	PhoneNumber string `json:"phone_number,omitempty"`
}

type DecisionState string

const (
	StateGreeting DecisionState = "GREETING"
	StateMatched  DecisionState = "MATCHED"
	StateNoMatch  DecisionState = "NO_MATCH"
)

const (
	DecisionGreeting         = "Greeting"
	DecisionMatched          = "FAQ matched"
	DecisionNoMatch          = "No match - fallback"
	DecisionMissingAPIKey    = "Missing API key"
	DecisionChatFailed       = "Chat model failed"
	DecisionStoreUnavailable = "FAQ store unavailable"
)

type ConfidenceLevel string

const (
	ConfidenceHigh   ConfidenceLevel = "High"
	ConfidenceMedium ConfidenceLevel = "Medium"
	ConfidenceLow    ConfidenceLevel = "Low"
)

// BucketConfidence is observability metadata only.
func BucketConfidence(confidence float64) ConfidenceLevel {
	switch {
	case confidence >= 0.8:
		return ConfidenceHigh
	case confidence >= 0.5:
		return ConfidenceMedium
	default:
		return ConfidenceLow
	}
}

type CandidateTrace struct {
	FAQID           string      `json:"faq_id"`
	Question        string      `json:"question"`
	SimilarityScore float64     `json:"similarity_score"`
	FinalScore      float64     `json:"final_score"`
	Method          MatchMethod `json:"match_method"`
	Signals         Signals     `json:"signals"`
}

type ProcessingDetails struct {
	CandidatesFound int              `json:"candidates_found"`
	TopCandidates   []CandidateTrace `json:"top_candidates"`
	SearchMethod    SearchMethod     `json:"search_method"`
	FinalDecision   string           `json:"final_decision"`
	ProcessingSteps []string         `json:"processing_steps"`
	State           DecisionState    `json:"state,omitempty"`
	Language        string           `json:"language,omitempty"`
	Reason          string           `json:"reason,omitempty"`
	SkippedFAQs     []string         `json:"skipped_faqs,omitempty"`
}

// MessageResult is the caller-facing contract. A nil Answer means no reply must be sent.
type MessageResult struct {
	Answer            *string           `json:"answer"`
	Confidence        float64           `json:"confidence"`
	ConfidenceLevel   ConfidenceLevel   `json:"confidence_level"`
	MatchedQuestion   *string           `json:"matched_question"`
	ProcessingTimeMs  int64             `json:"processing_time_ms"`
	ProcessingDetails ProcessingDetails `json:"processing_details"`
}

type MessageLog struct {
	ID          string        `json:"id"`
	PhoneNumber string        `json:"phone_number,omitempty"`
	Message     string        `json:"message"`
	Result      MessageResult `json:"result"`
	RequestID   string        `json:"request_id,omitempty"`
	CreatedAt   time.Time     `json:"created_at"`
}
