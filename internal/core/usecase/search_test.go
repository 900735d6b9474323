package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/kirillkom/homestay-faq-assistant/internal/core/domain"
	"github.com/kirillkom/homestay-faq-assistant/internal/core/retrieval"
)

func TestSearchUseCaseReturnsRerankedCandidates(t *testing.T) {
	snapshot := checkInSnapshot(true)
	snapshot.FAQs = append(snapshot.FAQs, domain.FAQ{ID: "broken", Question: "Parking?", IsActive: true})
	uc := NewSearchUseCase(retrieval.NewScorer(retrieval.DefaultConfig()), &knowledgeFake{snapshot: snapshot}, nil, 0)

	result, err := uc.Search(context.Background(), "  check-in ")
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if result.Query != "check-in" {
		t.Fatalf("expected trimmed query, got %q", result.Query)
	}
	if result.SearchMethod != domain.SearchLexical {
		t.Fatalf("expected lexical search, got %s", result.SearchMethod)
	}
	if len(result.Candidates) != 1 || result.Candidates[0].FAQID != "faq-checkin" {
		t.Fatalf("unexpected candidates %+v", result.Candidates)
	}
	if len(result.SkippedFAQs) != 1 {
		t.Fatalf("expected malformed faq to be reported, got %v", result.SkippedFAQs)
	}
}

func TestSearchUseCaseDoesNotShortCircuitGreetings(t *testing.T) {
	snapshot := domain.KnowledgeSnapshot{FAQs: []domain.FAQ{{
		ID: "hello", Question: "Hello", Answer: "Hi there", IsActive: true,
	}}}
	uc := NewSearchUseCase(retrieval.NewScorer(retrieval.DefaultConfig()), &knowledgeFake{snapshot: snapshot}, nil, 0)

	result, err := uc.Search(context.Background(), "hello")
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(result.Candidates) != 1 {
		t.Fatalf("expected exact question match, got %d candidates", len(result.Candidates))
	}
}

func TestSearchUseCaseErrors(t *testing.T) {
	scorer := retrieval.NewScorer(retrieval.DefaultConfig())

	_, err := NewSearchUseCase(scorer, &knowledgeFake{}, nil, 0).Search(context.Background(), " ")
	if !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}

	_, err = NewSearchUseCase(scorer, &knowledgeFake{err: errors.New("db down")}, nil, 0).Search(context.Background(), "wifi")
	if !domain.IsKind(err, domain.ErrTemporary) || !strings.Contains(err.Error(), "db down") {
		t.Fatalf("expected temporary store error, got %v", err)
	}
}
