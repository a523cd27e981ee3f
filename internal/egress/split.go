package egress

import "strings"

// Split breaks content into parts of at most limit runes, cutting on line
// boundaries where possible. Lines longer than limit are cut mid-line.
func Split(content string, limit int) []string {
	if limit <= 0 || len([]rune(content)) <= limit {
		return []string{content}
	}

	var parts []string
	var cur strings.Builder
	curLen := 0

	flush := func() {
		if curLen > 0 {
			parts = append(parts, cur.String())
			cur.Reset()
			curLen = 0
		}
	}

	for _, line := range strings.Split(content, "\n") {
		runes := []rune(line)
		for len(runes) > limit {
			flush()
			parts = append(parts, string(runes[:limit]))
			runes = runes[limit:]
		}

		need := len(runes)
		if curLen > 0 {
			need++
		}
		if curLen+need > limit {
			flush()
			need = len(runes)
		}
		if curLen > 0 {
			cur.WriteByte('\n')
		}
		cur.WriteString(string(runes))
		curLen += need
	}
	flush()

	if len(parts) == 0 {
		return []string{content}
	}
	return parts
}
