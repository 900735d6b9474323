package retrieval

import "strings"

const greetingTrim = " \t\r\n!！.。?？~～,，"

// IsGreeting matches the whole message against the configured greeting phrases.
func (s *Scorer) IsGreeting(message string) bool {
	normalized := normalizeGreeting(message)
	if normalized == "" {
		return false
	}
	for _, greeting := range s.cfg.Greetings {
		if normalizeGreeting(greeting) == normalized {
			return true
		}
	}
	return false
}

func normalizeGreeting(s string) string {
	s = strings.Trim(strings.ToLower(s), greetingTrim)
	return strings.Join(strings.Fields(s), " ")
}
