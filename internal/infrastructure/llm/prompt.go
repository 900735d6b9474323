package llm

import (
	"fmt"
	"strings"

	"github.com/kirillkom/homestay-faq-assistant/internal/core/domain"
)

// GroundedUserMessage renders the FAQ context and the guest message as a
// single user turn for chat-style providers.
func GroundedUserMessage(items []domain.ContextItem, message string) string {
	var b strings.Builder
	b.WriteString("FAQ entries (most relevant first):\n")
	for idx, item := range items {
		fmt.Fprintf(&b, "[%d] confidence=%.2f\nQ: %s\nA: %s\n\n",
			idx+1,
			item.Confidence,
			strings.TrimSpace(item.Question),
			strings.TrimSpace(item.Answer),
		)
	}
	b.WriteString("Guest message:\n")
	b.WriteString(strings.TrimSpace(message))
	b.WriteString("\n\nWrite the reply in your own words. Do not copy the FAQ answer verbatim.")
	return b.String()
}
