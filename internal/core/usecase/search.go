package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/kirillkom/homestay-faq-assistant/internal/core/domain"
	"github.com/kirillkom/homestay-faq-assistant/internal/core/ports"
	"github.com/kirillkom/homestay-faq-assistant/internal/core/retrieval"
)

// SearchUseCase runs retrieval and reranking only, for operators checking how a
// message would be matched.
type SearchUseCase struct {
	scorer    *retrieval.Scorer
	knowledge ports.KnowledgeSource
	embedder  ports.Embedder
	timeout   time.Duration
}

func NewSearchUseCase(
	scorer *retrieval.Scorer,
	knowledge ports.KnowledgeSource,
	embedder ports.Embedder,
	timeout time.Duration,
) *SearchUseCase {
	if timeout <= 0 {
		timeout = defaultProviderTimeout
	}
	return &SearchUseCase{
		scorer:    scorer,
		knowledge: knowledge,
		embedder:  embedder,
		timeout:   timeout,
	}
}

func (uc *SearchUseCase) Search(ctx context.Context, query string) (*domain.SearchResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "search faqs", errors.New("query is required"))
	}

	snapshot, err := uc.knowledge.Snapshot(ctx)
	if err != nil {
		return nil, domain.WrapError(domain.ErrTemporary, "search faqs", fmt.Errorf("load knowledge snapshot: %w", err))
	}

	set, reranked := runRetrieval(ctx, uc.scorer, uc.embedder, uc.timeout, query, snapshot, &stepLog{})
	return &domain.SearchResult{
		Query:        query,
		SearchMethod: set.Method,
		Candidates:   traceCandidates(reranked),
		SkippedFAQs:  set.Skipped,
	}, nil
}
