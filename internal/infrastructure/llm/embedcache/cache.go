package embedcache

import (
	"context"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/kirillkom/homestay-faq-assistant/internal/core/ports"
)

// Embedder memoizes query embeddings by normalized text. Batch Embed calls
// used by the indexer pass through uncached. Errors are never cached.
type Embedder struct {
	next  ports.Embedder
	cache *expirable.LRU[string, []float32]
}

func New(next ports.Embedder, size int, ttl time.Duration) *Embedder {
	if size <= 0 {
		size = 512
	}
	return &Embedder{
		next:  next,
		cache: expirable.NewLRU[string, []float32](size, nil, ttl),
	}
}

func (e *Embedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	return e.next.Embed(ctx, texts)
}

func (e *Embedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	key := cacheKey(text)
	if vector, ok := e.cache.Get(key); ok {
		return vector, nil
	}
	vector, err := e.next.EmbedQuery(ctx, text)
	if err != nil {
		return nil, err
	}
	if len(vector) > 0 {
		e.cache.Add(key, vector)
	}
	return vector, nil
}

func (e *Embedder) Len() int {
	return e.cache.Len()
}

func cacheKey(text string) string {
	return strings.Join(strings.Fields(strings.ToLower(text)), " ")
}
