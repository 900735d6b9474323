package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/kirillkom/homestay-faq-assistant/internal/core/domain"
)

type HomestayRepository struct {
	db *sql.DB
}

func NewHomestayRepository(db *sql.DB) *HomestayRepository {
	return &HomestayRepository{db: db}
}

func (r *HomestayRepository) ListHomestays(ctx context.Context) ([]domain.Homestay, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name, city, amenities FROM homestays ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list homestays: %w", err)
	}
	defer rows.Close()

	out := make([]domain.Homestay, 0)
	for rows.Next() {
		var h domain.Homestay
		var amenitiesRaw []byte
		if err := rows.Scan(&h.ID, &h.Name, &h.City, &amenitiesRaw); err != nil {
			return nil, fmt.Errorf("scan homestay: %w", err)
		}
		if len(amenitiesRaw) > 0 {
			if err := json.Unmarshal(amenitiesRaw, &h.Amenities); err != nil {
				return nil, fmt.Errorf("unmarshal amenities of homestay %s: %w", h.ID, err)
			}
		}
		out = append(out, h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate homestays: %w", err)
	}
	return out, nil
}
