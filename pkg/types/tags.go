package types

import "strings"

const tagSeparator = ", "

// NormalizeTags cleans a free-text, comma-separated tag string. Pieces are
// trimmed, empty pieces dropped, and duplicates removed case-insensitively,
// keeping the casing and position of the first occurrence. The survivors
// are joined with ", ". Blank input yields "".
//
// NormalizeTags is idempotent.
func NormalizeTags(raw string) string {
	if strings.TrimSpace(raw) == "" {
		return ""
	}

	seen := make(map[string]bool)
	var kept []string
	for _, piece := range strings.Split(raw, ",") {
		piece = strings.TrimSpace(piece)
		if piece == "" {
			continue
		}
		key := strings.ToLower(piece)
		if seen[key] {
			continue
		}
		seen[key] = true
		kept = append(kept, piece)
	}
	return strings.Join(kept, tagSeparator)
}

// MatchesTag reports whether the normalized tags string contains needle as
// a case-insensitive substring. needle must already be trimmed and
// lower-cased.
func MatchesTag(tags, needle string) bool {
	if tags == "" {
		return false
	}
	return strings.Contains(strings.ToLower(tags), needle)
}
