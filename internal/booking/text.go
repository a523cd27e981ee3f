package booking

import (
	"strings"
	"unicode"
)

// NormalizePhone strips separators and returns the 9 national digits.
func NormalizePhone(raw string) (string, bool) {
	var b strings.Builder
	for _, r := range raw {
		switch {
		case unicode.IsDigit(r):
			b.WriteRune(r)
		case r == ' ', r == '-', r == '.', r == '(', r == ')', r == '/':
		default:
			return "", false
		}
	}
	digits := b.String()
	if len(digits) != 9 {
		return "", false
	}
	return digits, true
}

func containsFold(haystack, needle string) bool {
	needle = strings.TrimSpace(needle)
	if needle == "" {
		return false
	}
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}

func digitsOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		if unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// phoneIn reports whether phone's digits appear in text, ignoring the
// separators people and calendars put between groups.
func phoneIn(text, phone string) bool {
	want := digitsOnly(phone)
	if want == "" {
		return false
	}
	compact := strings.NewReplacer(" ", "", "-", "", ".", "").Replace(text)
	return strings.Contains(compact, want)
}
