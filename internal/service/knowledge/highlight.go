package knowledge

import (
	"sort"
	"strings"
	"unicode/utf8"

	models "breakdown/internal/domain/models/decomposition"
)

// Highlight splits text into segments, marking literal occurrences of
// names. Longer names win where names overlap.
func Highlight(text string, names []string) []models.TextSegment {
	candidates := make([]string, 0, len(names))
	seen := map[string]bool{}
	for _, n := range names {
		n = strings.TrimSpace(n)
		if n == "" || seen[n] {
			continue
		}
		seen[n] = true
		candidates = append(candidates, n)
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return len(candidates[i]) > len(candidates[j])
	})

	var segments []models.TextSegment
	var plain strings.Builder
	flush := func() {
		if plain.Len() > 0 {
			segments = append(segments, models.TextSegment{Text: plain.String()})
			plain.Reset()
		}
	}

	for i := 0; i < len(text); {
		matched := ""
		for _, c := range candidates {
			if strings.HasPrefix(text[i:], c) {
				matched = c
				break
			}
		}
		if matched != "" {
			flush()
			segments = append(segments, models.TextSegment{Text: matched, Highlight: true})
			i += len(matched)
			continue
		}
		_, size := utf8.DecodeRuneInString(text[i:])
		plain.WriteString(text[i : i+size])
		i += size
	}
	flush()
	return segments
}
