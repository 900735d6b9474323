package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/kirillkom/homestay-faq-assistant/internal/core/domain"
)

func TestIndexByIDStoresEmbedding(t *testing.T) {
	repo := newFAQRepoFake(domain.FAQ{ID: "a", Question: "q", Answer: "a", IsActive: true})
	uc := NewIndexFAQUseCase(repo, &embedderFake{vector: []float32{0.1, 0.2}})

	if err := uc.IndexByID(context.Background(), "a"); err != nil {
		t.Fatalf("IndexByID() error = %v", err)
	}
	if got := repo.embeddings["a"]; len(got) != 2 {
		t.Fatalf("expected stored vector, got %v", got)
	}
}

func TestIndexByIDClearsInactive(t *testing.T) {
	repo := newFAQRepoFake(domain.FAQ{ID: "a", Question: "q", Answer: "a", IsActive: false, Embedding: []float32{1}})
	embedder := &embedderFake{vector: []float32{0.1}}
	uc := NewIndexFAQUseCase(repo, embedder)

	if err := uc.IndexByID(context.Background(), "a"); err != nil {
		t.Fatalf("IndexByID() error = %v", err)
	}
	got, ok := repo.embeddings["a"]
	if !ok || got != nil {
		t.Fatalf("expected cleared embedding, got %v", got)
	}
}

func TestIndexByIDMalformedFAQ(t *testing.T) {
	repo := newFAQRepoFake(domain.FAQ{ID: "a", Question: "q", IsActive: true})
	err := NewIndexFAQUseCase(repo, &embedderFake{vector: []float32{1}}).IndexByID(context.Background(), "a")
	if !domain.IsKind(err, domain.ErrMalformedFAQ) {
		t.Fatalf("expected malformed faq error, got %v", err)
	}
	if _, ok := repo.embeddings["a"]; !ok {
		t.Fatalf("expected embedding to be cleared")
	}
}

func TestIndexByIDErrors(t *testing.T) {
	repo := newFAQRepoFake(domain.FAQ{ID: "a", Question: "q", Answer: "a", IsActive: true})

	err := NewIndexFAQUseCase(repo, &embedderFake{}).IndexByID(context.Background(), "missing")
	if !domain.IsKind(err, domain.ErrFAQNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}

	err = NewIndexFAQUseCase(repo, &embedderFake{err: errors.New("boom")}).IndexByID(context.Background(), "a")
	if err == nil {
		t.Fatalf("expected embed error")
	}

	err = NewIndexFAQUseCase(repo, &embedderFake{}).IndexByID(context.Background(), "a")
	if !domain.IsKind(err, domain.ErrProvider) {
		t.Fatalf("expected provider error for empty vector, got %v", err)
	}
}

func TestIndexByIDWithoutEmbedder(t *testing.T) {
	repo := newFAQRepoFake(domain.FAQ{ID: "a", Question: "q", Answer: "a", IsActive: true})

	err := NewIndexFAQUseCase(repo, nil).IndexByID(context.Background(), "a")
	if !domain.IsKind(err, domain.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
	if _, ok := repo.embeddings["a"]; ok {
		t.Fatalf("expected no embedding write")
	}
}
