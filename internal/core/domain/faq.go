package domain

import (
	"strings"
	"time"
)

type FAQ struct {
	ID              string    `json:"id"`
	Question        string    `json:"question"`
	Answer          string    `json:"answer"`
	Tags            []string  `json:"tags"`
	RelatedHomestay string    `json:"related_homestay,omitempty"`
	Embedding       []float32 `json:"embedding,omitempty"`
	IsActive        bool      `json:"is_active"`
	UpdatedAt       time.Time `json:"updated_at"`
	UpdatedBy       string    `json:"updated_by,omitempty"`

	// SourceRow is the 1-based sheet row an imported FAQ was read from.
	SourceRow int `json:"-"`
}

// Validate reports entries that cannot take part in retrieval.
func (f FAQ) Validate() error {
	if strings.TrimSpace(f.Question) == "" {
		return WrapError(ErrMalformedFAQ, "validate faq "+f.ID, errMissingField("question"))
	}
	if strings.TrimSpace(f.Answer) == "" {
		return WrapError(ErrMalformedFAQ, "validate faq "+f.ID, errMissingField("answer"))
	}
	return nil
}

// EmbeddingText is the text indexed for an FAQ's embedding.
func (f FAQ) EmbeddingText() string {
	parts := []string{strings.TrimSpace(f.Question), strings.TrimSpace(f.Answer)}
	if len(f.Tags) > 0 {
		parts = append(parts, strings.Join(f.Tags, " "))
	}
	return strings.Join(parts, "\n")
}

type Homestay struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	City      string   `json:"city"`
	Amenities []string `json:"amenities"`
}

// KnowledgeSnapshot is the read-only view of FAQs and homestays for one message.
type KnowledgeSnapshot struct {
	FAQs      []FAQ
	Homestays []Homestay
}

type missingFieldError string

func (e missingFieldError) Error() string { return string(e) + " is empty" }

func errMissingField(field string) error { return missingFieldError(field) }

// ImportReport summarizes one FAQ sheet import.
type ImportReport struct {
	Imported []string `json:"imported"`
	Skipped  []string `json:"skipped,omitempty"`
}
