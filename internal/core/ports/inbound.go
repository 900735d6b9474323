package ports

import (
	"context"
	"io"

	"github.com/kirillkom/homestay-faq-assistant/internal/core/domain"
)

// MessageResponder is the inbound contract for answering one customer message.
type MessageResponder interface {
	Respond(ctx context.Context, query domain.Query) (*domain.MessageResult, error)
}

// FAQSearcher runs retrieval and reranking without answer synthesis.
type FAQSearcher interface {
	Search(ctx context.Context, query string) (*domain.SearchResult, error)
}

// FAQIndexer refreshes the stored embedding of one FAQ.
type FAQIndexer interface {
	IndexByID(ctx context.Context, faqID string) error
}

// FAQImporter loads FAQ sheets and schedules their embeddings.
type FAQImporter interface {
	Import(ctx context.Context, body io.Reader, updatedBy string) (*domain.ImportReport, error)
	Reindex(ctx context.Context) (int, error)
}
