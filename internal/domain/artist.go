package domain

import "time"

// Provenance records how an artist record entered the knowledgebase.
type Provenance string

const (
	ProvenanceManual   Provenance = "manual"
	ProvenanceResolved Provenance = "resolved"
)

// Artist is an identity record. CanonicalName is the normalized display name
// and the primary key: the knowledgebase holds at most one record per
// normalized canonical name, merges append aliases instead of duplicating.
type Artist struct {
	ID            int64      `json:"id,omitempty"`
	CanonicalName string     `json:"canonicalName"`
	Aliases       []string   `json:"aliases,omitempty"`
	CountryCode   string     `json:"countryCode,omitempty"`
	FlaggedOrigin bool       `json:"flaggedOrigin"`
	LastSeenAt    *time.Time `json:"lastSeenAt,omitempty"`
	Provenance    Provenance `json:"provenance"`
}

// HasAlias reports whether alias is already recorded (exact match; callers
// normalize before lookup).
func (a *Artist) HasAlias(alias string) bool {
	for _, existing := range a.Aliases {
		if existing == alias {
			return true
		}
	}
	return false
}

// MergeAliases appends aliases not yet present and reports whether anything
// changed. Merging an existing alias is a no-op.
func (a *Artist) MergeAliases(aliases []string) bool {
	changed := false
	for _, alias := range aliases {
		if alias == "" || alias == a.CanonicalName || a.HasAlias(alias) {
			continue
		}
		a.Aliases = append(a.Aliases, alias)
		changed = true
	}
	return changed
}
