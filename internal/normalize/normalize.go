package normalize

import "strings"

// Feat markers ordered longest-first so "featuring" never half-matches "feat".
var featMarkers = []string{"featuring", "feat.", "feat", "ft.", "ft"}

// ukrainianOnly holds letters present in the Ukrainian alphabet but absent
// from Russian. A cheap, false-negative-tolerant signal, not a language
// detector.
const ukrainianOnly = "іїєґІЇЄҐ"

// Artist canonicalizes a raw artist credit: lowercase, trimmed, feat clauses
// stripped, "&"/"and" conjunctions collapsed into a ", " separator, whitespace
// collapsed. Deterministic and total; empty input yields empty output.
func Artist(raw string) string {
	s := strings.ToLower(strings.TrimSpace(raw))
	if s == "" {
		return ""
	}

	s = stripGroups(s, '(', ')', true)
	s = stripGroups(s, '[', ']', true)
	s = stripTrailingFeat(s)
	s = collapseConjunctions(s)

	parts := strings.Split(s, ",")
	cleaned := make([]string, 0, len(parts))
	for _, part := range parts {
		if p := collapseSpaces(part); p != "" {
			cleaned = append(cleaned, p)
		}
	}
	return strings.Join(cleaned, ", ")
}

// Title canonicalizes a raw song title: lowercase, trimmed, bracketed and
// parenthesized clauses removed, trailing feat clauses stripped, whitespace
// collapsed.
func Title(raw string) string {
	s := strings.ToLower(strings.TrimSpace(raw))
	if s == "" {
		return ""
	}

	s = stripGroups(s, '(', ')', false)
	s = stripGroups(s, '[', ']', false)
	s = stripTrailingFeat(s)

	return collapseSpaces(s)
}

// SplitArtists splits a raw multi-artist credit into individually normalized
// names, order preserved, billed artist first. Featured credits are split out
// rather than dropped so every collaborator on the track is examined. Returns
// an empty slice only for empty input.
func SplitArtists(raw string) []string {
	s := strings.ToLower(strings.TrimSpace(raw))
	if s == "" {
		return []string{}
	}

	s = strings.NewReplacer("(", " ", ")", " ", "[", " ", "]", " ").Replace(s)
	for _, marker := range featMarkers {
		s = strings.ReplaceAll(s, " "+marker+" ", ",")
	}
	// " x " is a collab separator in credits, but only between names
	s = strings.ReplaceAll(s, " x ", ",")
	s = collapseConjunctions(s)

	parts := strings.Split(s, ",")
	names := make([]string, 0, len(parts))
	for _, part := range parts {
		name := collapseSpaces(part)
		if name == "" || containsName(names, name) {
			continue
		}
		names = append(names, name)
	}
	return names
}

// IsUkrainianText reports whether the string contains characters unique to
// the Ukrainian alphabet.
func IsUkrainianText(s string) bool {
	return strings.ContainsAny(s, ukrainianOnly)
}

// stripGroups removes open/close delimited groups. With featOnly set, only
// groups whose content starts with a feat marker are removed.
func stripGroups(s string, open, close rune, featOnly bool) string {
	var b strings.Builder
	for {
		i := strings.IndexRune(s, open)
		if i == -1 {
			b.WriteString(s)
			break
		}
		j := strings.IndexRune(s[i+1:], close)
		if j == -1 {
			b.WriteString(s)
			break
		}

		inner := strings.TrimSpace(s[i+1 : i+1+j])
		if !featOnly || hasFeatPrefix(inner) {
			b.WriteString(s[:i])
			b.WriteString(" ")
		} else {
			b.WriteString(s[:i+1+j+1])
		}
		s = s[i+1+j+1:]
	}
	return b.String()
}

func hasFeatPrefix(s string) bool {
	for _, marker := range featMarkers {
		if s == marker {
			return true
		}
		if strings.HasPrefix(s, marker+" ") {
			return true
		}
		// dotted markers bind without a following space: "feat.ivo"
		if strings.HasSuffix(marker, ".") && strings.HasPrefix(s, marker) {
			return true
		}
	}
	return false
}

func stripTrailingFeat(s string) string {
	for _, marker := range featMarkers {
		if idx := strings.Index(s, " "+marker+" "); idx != -1 {
			s = s[:idx]
		}
	}
	return s
}

func collapseConjunctions(s string) string {
	s = strings.ReplaceAll(s, "&", ",")
	s = strings.ReplaceAll(s, ";", ",")
	s = strings.ReplaceAll(s, " and ", ",")
	return s
}

func collapseSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func containsName(names []string, name string) bool {
	for _, existing := range names {
		if existing == name {
			return true
		}
	}
	return false
}
