package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/kirillkom/homestay-faq-assistant/internal/core/domain"
)

type FAQRepository struct {
	db *sql.DB
}

func NewFAQRepository(db *sql.DB) *FAQRepository {
	return &FAQRepository{db: db}
}

const faqColumns = `id, question, answer, tags, related_homestay, embedding, is_active, updated_at, updated_by`

// ListFAQs returns every FAQ, inactive ones included, ordered by id so
// retrieval sees a stable input order.
func (r *FAQRepository) ListFAQs(ctx context.Context) ([]domain.FAQ, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+faqColumns+` FROM faqs ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list faqs: %w", err)
	}
	defer rows.Close()

	out := make([]domain.FAQ, 0)
	for rows.Next() {
		faq, err := scanFAQ(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, faq)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate faqs: %w", err)
	}
	return out, nil
}

func (r *FAQRepository) GetFAQ(ctx context.Context, id string) (*domain.FAQ, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+faqColumns+` FROM faqs WHERE id = $1`, id)
	faq, err := scanFAQ(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.WrapError(domain.ErrFAQNotFound, "get faq", fmt.Errorf("id=%s", id))
		}
		return nil, err
	}
	return &faq, nil
}

// UpsertFAQ inserts or replaces an FAQ. The stored embedding is dropped when
// the indexed text changes so stale vectors never reach retrieval.
func (r *FAQRepository) UpsertFAQ(ctx context.Context, faq *domain.FAQ) error {
	tags := faq.Tags
	if tags == nil {
		tags = []string{}
	}
	tagsJSON, err := json.Marshal(tags)
	if err != nil {
		return fmt.Errorf("marshal tags: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
INSERT INTO faqs (id, question, answer, tags, related_homestay, is_active, updated_at, updated_by)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
ON CONFLICT (id) DO UPDATE SET
	question = EXCLUDED.question,
	answer = EXCLUDED.answer,
	tags = EXCLUDED.tags,
	related_homestay = EXCLUDED.related_homestay,
	is_active = EXCLUDED.is_active,
	updated_at = EXCLUDED.updated_at,
	updated_by = EXCLUDED.updated_by,
	embedding = CASE
		WHEN faqs.question IS DISTINCT FROM EXCLUDED.question
			OR faqs.answer IS DISTINCT FROM EXCLUDED.answer
			OR faqs.tags IS DISTINCT FROM EXCLUDED.tags
		THEN NULL
		ELSE faqs.embedding
	END
`, faq.ID, faq.Question, faq.Answer, tagsJSON, faq.RelatedHomestay, faq.IsActive, faq.UpdatedAt, faq.UpdatedBy)
	if err != nil {
		return fmt.Errorf("upsert faq: %w", err)
	}
	return nil
}

// SaveEmbedding stores vector, or clears it when vector is empty.
func (r *FAQRepository) SaveEmbedding(ctx context.Context, id string, vector []float32) error {
	var payload any
	if len(vector) > 0 {
		raw, err := json.Marshal(vector)
		if err != nil {
			return fmt.Errorf("marshal embedding: %w", err)
		}
		payload = raw
	}

	result, err := r.db.ExecContext(ctx, `UPDATE faqs SET embedding = $2 WHERE id = $1`, id, payload)
	if err != nil {
		return fmt.Errorf("save embedding: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("save embedding rows affected: %w", err)
	}
	if rows == 0 {
		return domain.WrapError(domain.ErrFAQNotFound, "save embedding", fmt.Errorf("id=%s", id))
	}
	return nil
}

func scanFAQ(row rowScanner) (domain.FAQ, error) {
	var faq domain.FAQ
	var tagsRaw, embeddingRaw []byte
	err := row.Scan(
		&faq.ID,
		&faq.Question,
		&faq.Answer,
		&tagsRaw,
		&faq.RelatedHomestay,
		&embeddingRaw,
		&faq.IsActive,
		&faq.UpdatedAt,
		&faq.UpdatedBy,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.FAQ{}, err
		}
		return domain.FAQ{}, fmt.Errorf("scan faq: %w", err)
	}
	if len(tagsRaw) > 0 {
		if err := json.Unmarshal(tagsRaw, &faq.Tags); err != nil {
			return domain.FAQ{}, fmt.Errorf("unmarshal tags of faq %s: %w", faq.ID, err)
		}
	}
	if len(embeddingRaw) > 0 {
		if err := json.Unmarshal(embeddingRaw, &faq.Embedding); err != nil {
			return domain.FAQ{}, fmt.Errorf("unmarshal embedding of faq %s: %w", faq.ID, err)
		}
	}
	return faq, nil
}
