package usecase

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kirillkom/homestay-faq-assistant/internal/core/domain"
	"github.com/kirillkom/homestay-faq-assistant/internal/core/ports"
)

// faqIDNamespace scopes the ids derived for sheet rows that carry none.
var faqIDNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("homestay-faq-assistant/faq"))

type ImportFAQsUseCase struct {
	repo   ports.FAQRepository
	parser ports.FAQSheetParser
	queue  ports.FAQEventQueue
	now    func() time.Time
}

func NewImportFAQsUseCase(
	repo ports.FAQRepository,
	parser ports.FAQSheetParser,
	queue ports.FAQEventQueue,
) *ImportFAQsUseCase {
	return &ImportFAQsUseCase{
		repo:   repo,
		parser: parser,
		queue:  queue,
		now:    time.Now,
	}
}

// Import upserts every well-formed row and publishes faq.changed for it.
// Malformed rows are reported, not fatal.
func (uc *ImportFAQsUseCase) Import(ctx context.Context, body io.Reader, updatedBy string) (*domain.ImportReport, error) {
	faqs, err := uc.parser.Parse(ctx, body)
	if err != nil {
		return nil, fmt.Errorf("parse faq sheet: %w", err)
	}

	report := &domain.ImportReport{Imported: []string{}}
	now := uc.now().UTC()
	for i := range faqs {
		faq := faqs[i]
		faq.Question = strings.TrimSpace(faq.Question)
		faq.Answer = strings.TrimSpace(faq.Answer)
		if err := faq.Validate(); err != nil {
			row := faq.SourceRow
			if row == 0 {
				row = i + 1
			}
			report.Skipped = append(report.Skipped, fmt.Sprintf("row %d: %v", row, err))
			continue
		}
		if faq.ID == "" {
			faq.ID = importedFAQID(faq.Question)
		}
		faq.Tags = normalizeTags(faq.Tags)
		faq.UpdatedAt = now
		faq.UpdatedBy = updatedBy

		if err := uc.repo.UpsertFAQ(ctx, &faq); err != nil {
			return report, fmt.Errorf("upsert faq %s: %w", faq.ID, err)
		}
		if err := uc.queue.PublishFAQChanged(ctx, faq.ID); err != nil {
			return report, fmt.Errorf("publish faq changed %s: %w", faq.ID, err)
		}
		report.Imported = append(report.Imported, faq.ID)
	}
	return report, nil
}

// Reindex publishes faq.changed for every active FAQ that has no embedding yet.
func (uc *ImportFAQsUseCase) Reindex(ctx context.Context) (int, error) {
	faqs, err := uc.repo.ListFAQs(ctx)
	if err != nil {
		return 0, fmt.Errorf("list faqs: %w", err)
	}
	published := 0
	for _, faq := range faqs {
		if !faq.IsActive || len(faq.Embedding) > 0 {
			continue
		}
		if err := uc.queue.PublishFAQChanged(ctx, faq.ID); err != nil {
			return published, fmt.Errorf("publish faq changed %s: %w", faq.ID, err)
		}
		published++
	}
	return published, nil
}

// importedFAQID derives a stable id from the question, so re-importing the
// same sheet updates rows instead of duplicating them.
func importedFAQID(question string) string {
	key := strings.ToLower(strings.Join(strings.Fields(question), " "))
	return uuid.NewSHA1(faqIDNamespace, []byte(key)).String()
}

func normalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))
	for _, tag := range tags {
		tag = strings.ToLower(strings.TrimSpace(tag))
		if tag == "" {
			continue
		}
		if _, ok := seen[tag]; ok {
			continue
		}
		seen[tag] = struct{}{}
		out = append(out, tag)
	}
	return out
}
