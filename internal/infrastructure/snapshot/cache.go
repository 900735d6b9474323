package snapshot

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/kirillkom/homestay-faq-assistant/internal/core/domain"
	"github.com/kirillkom/homestay-faq-assistant/internal/core/ports"
)

const defaultLoadTimeout = 10 * time.Second

// Cache is a read-through KnowledgeSource over the FAQ and homestay stores.
// Entries live for ttl or until Invalidate; concurrent misses share one load.
// The shared load is detached from any single caller's context, so a caller
// that gives up does not fail the others waiting on it.
type Cache struct {
	faqs        ports.FAQRepository
	homestays   ports.HomestayRepository
	ttl         time.Duration
	loadTimeout time.Duration
	now         func() time.Time

	group singleflight.Group

	mu       sync.RWMutex
	current  *domain.KnowledgeSnapshot
	loadedAt time.Time
	version  uint64
}

func New(faqs ports.FAQRepository, homestays ports.HomestayRepository, ttl time.Duration) *Cache {
	return &Cache{
		faqs:        faqs,
		homestays:   homestays,
		ttl:         ttl,
		loadTimeout: defaultLoadTimeout,
		now:         time.Now,
	}
}

func (c *Cache) Snapshot(ctx context.Context) (domain.KnowledgeSnapshot, error) {
	if snap, ok := c.fresh(); ok {
		return snap, nil
	}

	ch := c.group.DoChan("snapshot", func() (any, error) {
		if snap, ok := c.fresh(); ok {
			return snap, nil
		}
		c.mu.RLock()
		version := c.version
		c.mu.RUnlock()

		loadCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.loadTimeout)
		defer cancel()
		snap, err := c.load(loadCtx)
		if err != nil {
			return nil, err
		}

		c.mu.Lock()
		// Skip storing if an invalidation raced with the load.
		if c.version == version {
			c.current = &snap
			c.loadedAt = c.now()
		}
		c.mu.Unlock()
		return snap, nil
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return domain.KnowledgeSnapshot{}, res.Err
		}
		return res.Val.(domain.KnowledgeSnapshot), nil
	case <-ctx.Done():
		return domain.KnowledgeSnapshot{}, ctx.Err()
	}
}

// Invalidate drops the cached snapshot; the next Snapshot call reloads.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	c.current = nil
	c.version++
	c.mu.Unlock()
}

func (c *Cache) fresh() (domain.KnowledgeSnapshot, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.current == nil {
		return domain.KnowledgeSnapshot{}, false
	}
	if c.ttl > 0 && c.now().Sub(c.loadedAt) >= c.ttl {
		return domain.KnowledgeSnapshot{}, false
	}
	return *c.current, true
}

func (c *Cache) load(ctx context.Context) (domain.KnowledgeSnapshot, error) {
	faqs, err := c.faqs.ListFAQs(ctx)
	if err != nil {
		return domain.KnowledgeSnapshot{}, fmt.Errorf("load faqs: %w", err)
	}
	homestays, err := c.homestays.ListHomestays(ctx)
	if err != nil {
		return domain.KnowledgeSnapshot{}, fmt.Errorf("load homestays: %w", err)
	}
	return domain.KnowledgeSnapshot{FAQs: faqs, Homestays: homestays}, nil
}
