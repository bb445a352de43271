package grading

import "strings"

// SplitValues breaks a multi-valued answer payload into its parts. Historical
// submissions used both comma and pipe separators: comma is checked first,
// then pipe, otherwise the whole string is a single value. Parts are trimmed
// and empties dropped.
func SplitValues(value string) []string {
	var raw []string
	switch {
	case strings.Contains(value, ","):
		raw = strings.Split(value, ",")
	case strings.Contains(value, "|"):
		raw = strings.Split(value, "|")
	default:
		raw = []string{value}
	}

	parts := make([]string, 0, len(raw))
	for _, part := range raw {
		part = strings.TrimSpace(part)
		if part != "" {
			parts = append(parts, part)
		}
	}

	return parts
}

// letterSet normalizes a letter list into an upper-cased set.
func letterSet(value string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, part := range SplitValues(value) {
		set[strings.ToUpper(part)] = struct{}{}
	}
	return set
}

// equalLetterSets reports exact set equality, not subset containment.
func equalLetterSets(a, b map[string]struct{}) bool {
	if len(a) != len(b) {
		return false
	}
	for letter := range a {
		if _, ok := b[letter]; !ok {
			return false
		}
	}
	return true
}

// slotLabel returns the letter label of the i-th answer slot (A, B, C, ...).
func slotLabel(i int) string {
	return string(rune('A' + i))
}
