package xlsx

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/kirillkom/homestay-faq-assistant/internal/core/domain"
)

// Parser reads FAQs from the first sheet of a workbook. The first row is a
// header naming the columns: question, answer, tags, homestay, active and an
// optional id. Column order does not matter. Each FAQ carries the sheet row it
// came from, header included, so import reports point at the right line.
type Parser struct{}

func NewParser() *Parser {
	return &Parser{}
}

func (p *Parser) Parse(ctx context.Context, body io.Reader) ([]domain.FAQ, error) {
	book, err := excelize.OpenReader(body)
	if err != nil {
		return nil, domain.WrapError(domain.ErrInvalidInput, "open workbook", err)
	}
	defer func() {
		_ = book.Close()
	}()

	sheets := book.GetSheetList()
	if len(sheets) == 0 {
		return nil, domain.WrapError(domain.ErrInvalidInput, "read workbook", errors.New("workbook has no sheets"))
	}
	rows, err := book.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read sheet %s: %w", sheets[0], err)
	}
	if len(rows) == 0 {
		return []domain.FAQ{}, nil
	}

	columns := headerIndex(rows[0])
	for _, required := range []string{"question", "answer"} {
		if _, ok := columns[required]; !ok {
			return nil, domain.WrapError(domain.ErrInvalidInput, "read header", fmt.Errorf("missing %q column", required))
		}
	}

	out := make([]domain.FAQ, 0, len(rows)-1)
	for idx, row := range rows[1:] {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if isBlankRow(row) {
			continue
		}
		cell := func(name string) string {
			idx, ok := columns[name]
			if !ok || idx >= len(row) {
				return ""
			}
			return strings.TrimSpace(row[idx])
		}
		out = append(out, domain.FAQ{
			ID:              cell("id"),
			Question:        cell("question"),
			Answer:          cell("answer"),
			Tags:            splitTags(cell("tags")),
			RelatedHomestay: cell("homestay"),
			IsActive:        parseActive(cell("active")),
			SourceRow:       idx + 2,
		})
	}
	return out, nil
}

func headerIndex(header []string) map[string]int {
	out := make(map[string]int, len(header))
	for idx, name := range header {
		key := strings.ToLower(strings.TrimSpace(name))
		if key == "related_homestay" {
			key = "homestay"
		}
		if key == "is_active" {
			key = "active"
		}
		if _, seen := out[key]; !seen && key != "" {
			out[key] = idx
		}
	}
	return out
}

func splitTags(raw string) []string {
	if raw == "" {
		return []string{}
	}
	parts := strings.FieldsFunc(raw, func(r rune) bool {
		return r == ',' || r == '，' || r == ';' || r == '、'
	})
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if tag := strings.TrimSpace(part); tag != "" {
			out = append(out, tag)
		}
	}
	return out
}

func parseActive(raw string) bool {
	switch strings.ToLower(raw) {
	case "no", "n", "false", "0", "inactive", "否":
		return false
	default:
		return true
	}
}

func isBlankRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
