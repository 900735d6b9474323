package usecase

import (
	"context"
	"io"

	"github.com/kirillkom/homestay-faq-assistant/internal/core/domain"
)

type faqRepoFake struct {
	faqs       map[string]domain.FAQ
	upserted   []domain.FAQ
	embeddings map[string][]float32
	upsertErr  error
	getErr     error
	listErr    error
}

func newFAQRepoFake(faqs ...domain.FAQ) *faqRepoFake {
	f := &faqRepoFake{faqs: map[string]domain.FAQ{}, embeddings: map[string][]float32{}}
	for _, faq := range faqs {
		f.faqs[faq.ID] = faq
	}
	return f
}

func (f *faqRepoFake) ListFAQs(context.Context) ([]domain.FAQ, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := make([]domain.FAQ, 0, len(f.faqs))
	for _, id := range []string{"a", "b", "c", "d"} {
		if faq, ok := f.faqs[id]; ok {
			out = append(out, faq)
		}
	}
	return out, nil
}

func (f *faqRepoFake) GetFAQ(_ context.Context, id string) (*domain.FAQ, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	faq, ok := f.faqs[id]
	if !ok {
		return nil, domain.ErrFAQNotFound
	}
	return &faq, nil
}

func (f *faqRepoFake) UpsertFAQ(_ context.Context, faq *domain.FAQ) error {
	if f.upsertErr != nil {
		return f.upsertErr
	}
	f.upserted = append(f.upserted, *faq)
	f.faqs[faq.ID] = *faq
	return nil
}

func (f *faqRepoFake) SaveEmbedding(_ context.Context, id string, vector []float32) error {
	f.embeddings[id] = vector
	return nil
}

type faqQueueFake struct {
	published []string
	err       error
}

func (f *faqQueueFake) PublishFAQChanged(_ context.Context, faqID string) error {
	if f.err != nil {
		return f.err
	}
	f.published = append(f.published, faqID)
	return nil
}

func (f *faqQueueFake) SubscribeFAQChanged(context.Context, string, func(context.Context, string) error) error {
	return nil
}

type sheetParserFake struct {
	faqs []domain.FAQ
	err  error
}

func (f *sheetParserFake) Parse(context.Context, io.Reader) ([]domain.FAQ, error) {
	return f.faqs, f.err
}
