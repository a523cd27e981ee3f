package intent

import (
	"regexp"
	"strings"
)

var (
	thinkBlock    = regexp.MustCompile(`(?is)<think\b[^>]*>.*?</think>`)
	thinkingBlock = regexp.MustCompile(`(?is)<thinking\b[^>]*>.*?</thinking>`)
	openThink     = regexp.MustCompile(`(?i)<think(?:ing)?\b[^>]*>`)
	closeThink    = regexp.MustCompile(`(?i)</think(?:ing)?>`)
	anyTag        = regexp.MustCompile(`<[^>]*>`)
)

// Sanitize strips reasoning blocks and markup from raw model output.
// It reports false when nothing usable is left.
func Sanitize(raw string) (string, bool) {
	cleaned := thinkingBlock.ReplaceAllString(raw, "")
	cleaned = thinkBlock.ReplaceAllString(cleaned, "")

	// An opening tag that was never closed swallows everything before the
	// answer; keep only what follows the last one.
	if locs := openThink.FindAllStringIndex(cleaned, -1); len(locs) > 0 && !closeThink.MatchString(cleaned) {
		cleaned = cleaned[locs[len(locs)-1][1]:]
	}

	cleaned = anyTag.ReplaceAllString(cleaned, "")

	lines := strings.Split(cleaned, "\n")
	kept := lines[:0]
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line != "" {
			kept = append(kept, line)
		}
	}
	out := strings.Join(kept, "\n")
	return out, out != ""
}

var tagAliases = map[string]Intent{
	"BOOKING":          Booking,
	"ASK_AVAILABILITY": AskAvailability,
	"WANT_APPOINTMENT": WantAppointment,
	"CONTACT_DATA":     ContactData,
	"CANCEL_VISIT":     CancelVisit,
	"OTHER_QUESTION":   Other,
	"OTHER":            Other,
}

// ParseTag finds the intent tag in sanitized model output, preferring a
// line holding only the tag, then a trailing tag, then the tag that
// appears last anywhere in the text.
func ParseTag(text string) (Intent, bool) {
	upper := strings.ToUpper(strings.TrimSpace(text))
	if upper == "" {
		return "", false
	}

	lines := strings.Split(upper, "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		line := strings.Trim(strings.TrimSpace(lines[i]), "*`.:!\"' ")
		if in, ok := tagAliases[line]; ok {
			return in, true
		}
	}

	trimmed := strings.TrimRight(upper, "*`.:!\"' ")
	for _, tag := range tagOrder {
		if strings.HasSuffix(trimmed, tag) {
			return tagAliases[tag], true
		}
	}

	best, bestPos := Intent(""), -1
	for _, tag := range tagOrder {
		if pos := strings.LastIndex(upper, tag); pos > bestPos {
			best, bestPos = tagAliases[tag], pos
		}
	}
	return best, bestPos >= 0
}

// Longer tags first so OTHER never shadows OTHER_QUESTION.
var tagOrder = []string{
	"ASK_AVAILABILITY",
	"WANT_APPOINTMENT",
	"OTHER_QUESTION",
	"CONTACT_DATA",
	"CANCEL_VISIT",
	"BOOKING",
	"OTHER",
}
