package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/kirillkom/homestay-faq-assistant/internal/core/domain"
)

type MessageLogRepository struct {
	db *sql.DB
}

func NewMessageLogRepository(db *sql.DB) *MessageLogRepository {
	return &MessageLogRepository{db: db}
}

func (r *MessageLogRepository) AppendMessageLog(ctx context.Context, entry *domain.MessageLog) error {
	details, err := json.Marshal(entry.Result.ProcessingDetails)
	if err != nil {
		return fmt.Errorf("marshal processing details: %w", err)
	}

	var answer sql.NullString
	if entry.Result.Answer != nil {
		answer = sql.NullString{String: *entry.Result.Answer, Valid: true}
	}

	_, err = r.db.ExecContext(ctx, `
INSERT INTO message_logs (
	id, phone_number, message, answer, confidence, final_decision, search_method, request_id, details, created_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
`,
		entry.ID, entry.PhoneNumber, entry.Message, answer, entry.Result.Confidence,
		entry.Result.ProcessingDetails.FinalDecision, string(entry.Result.ProcessingDetails.SearchMethod),
		entry.RequestID, details, entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert message log: %w", err)
	}
	return nil
}
