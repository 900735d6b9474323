package ports

import (
	"context"
	"io"

	"github.com/kirillkom/homestay-faq-assistant/internal/core/domain"
)

// Embedder builds vectors for FAQ and query text.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// AnswerSynthesizer writes the final reply grounded on FAQ context.
type AnswerSynthesizer interface {
	Complete(ctx context.Context, systemPrompt string, items []domain.ContextItem, userMessage string) (string, error)
}

// KnowledgeSource returns a read-only snapshot of FAQs and homestays.
type KnowledgeSource interface {
	Snapshot(ctx context.Context) (domain.KnowledgeSnapshot, error)
}

// FAQRepository reads FAQs and stores their computed embeddings.
type FAQRepository interface {
	ListFAQs(ctx context.Context) ([]domain.FAQ, error)
	GetFAQ(ctx context.Context, id string) (*domain.FAQ, error)
	UpsertFAQ(ctx context.Context, faq *domain.FAQ) error
	SaveEmbedding(ctx context.Context, id string, vector []float32) error
}

// HomestayRepository reads homestays used as reranking signals.
type HomestayRepository interface {
	ListHomestays(ctx context.Context) ([]domain.Homestay, error)
}

// MessageLogStore persists processed message traces.
type MessageLogStore interface {
	AppendMessageLog(ctx context.Context, entry *domain.MessageLog) error
}

// FAQEventQueue publishes/consumes FAQ change events.
type FAQEventQueue interface {
	PublishFAQChanged(ctx context.Context, faqID string) error
	SubscribeFAQChanged(ctx context.Context, group string, handler func(context.Context, string) error) error
}

// FAQSheetParser reads FAQ rows from an uploaded spreadsheet.
type FAQSheetParser interface {
	Parse(ctx context.Context, body io.Reader) ([]domain.FAQ, error)
}
