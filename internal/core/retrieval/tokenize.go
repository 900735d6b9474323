package retrieval

import (
	"strings"
	"unicode"
)

// Tokenize lowercases text, turns every rune outside [a-z0-9], whitespace and
// CJK Unified Ideographs into a separator and splits on whitespace runs.
func Tokenize(text string) []string {
	if text == "" {
		return []string{}
	}

	var b strings.Builder
	b.Grow(len(text))
	for _, r := range strings.ToLower(text) {
		if keepRune(r) {
			b.WriteRune(r)
			continue
		}
		b.WriteByte(' ')
	}
	return strings.Fields(b.String())
}

func keepRune(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || unicode.IsSpace(r) || isCJK(r)
}

func isCJK(r rune) bool {
	return r >= 0x4E00 && r <= 0x9FFF
}

// DetectLanguage picks the reply language: "zh" when text has a CJK ideograph, otherwise "en".
func DetectLanguage(text string) string {
	for _, r := range text {
		if isCJK(r) {
			return "zh"
		}
	}
	return "en"
}

func toTokenSet(tokens []string) map[string]struct{} {
	out := make(map[string]struct{}, len(tokens))
	for _, token := range tokens {
		out[token] = struct{}{}
	}
	return out
}

// jaccard treats an empty union as 1 so the ratio is always defined.
func jaccard(a, b map[string]struct{}) float64 {
	intersection := 0
	for token := range a {
		if _, ok := b[token]; ok {
			intersection++
		}
	}
	union := len(a) + len(b) - intersection
	if union == 0 {
		union = 1
	}
	return float64(intersection) / float64(union)
}

func normalizeText(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
