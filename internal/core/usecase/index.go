package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/kirillkom/homestay-faq-assistant/internal/core/domain"
	"github.com/kirillkom/homestay-faq-assistant/internal/core/ports"
)

type IndexFAQUseCase struct {
	repo     ports.FAQRepository
	embedder ports.Embedder
}

func NewIndexFAQUseCase(repo ports.FAQRepository, embedder ports.Embedder) *IndexFAQUseCase {
	return &IndexFAQUseCase{
		repo:     repo,
		embedder: embedder,
	}
}

// IndexByID recomputes the stored embedding of one FAQ. Inactive and malformed
// entries get their embedding cleared so they never take the embedding path.
func (uc *IndexFAQUseCase) IndexByID(ctx context.Context, faqID string) error {
	faq, err := uc.repo.GetFAQ(ctx, faqID)
	if err != nil {
		return fmt.Errorf("fetch faq by id: %w", err)
	}

	if !faq.IsActive {
		return uc.clear(ctx, faq.ID)
	}
	if err := faq.Validate(); err != nil {
		if clearErr := uc.clear(ctx, faq.ID); clearErr != nil {
			return fmt.Errorf("%w; clear embedding: %v", err, clearErr)
		}
		return err
	}
	if uc.embedder == nil {
		return domain.WrapError(domain.ErrConfiguration, "index faq", errors.New("embedding provider is not configured"))
	}

	vectors, err := uc.embedder.Embed(ctx, []string{faq.EmbeddingText()})
	if err != nil {
		return fmt.Errorf("embed faq: %w", err)
	}
	if len(vectors) != 1 || len(vectors[0]) == 0 {
		return domain.WrapError(domain.ErrProvider, "embed faq", errors.New("empty embedding result"))
	}

	if err := uc.repo.SaveEmbedding(ctx, faq.ID, vectors[0]); err != nil {
		return fmt.Errorf("save embedding: %w", err)
	}
	return nil
}

func (uc *IndexFAQUseCase) clear(ctx context.Context, faqID string) error {
	if err := uc.repo.SaveEmbedding(ctx, faqID, nil); err != nil {
		return fmt.Errorf("clear embedding: %w", err)
	}
	return nil
}
