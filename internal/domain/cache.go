package domain

import "time"

// CacheState is the lifecycle state of a search cache entry. Entries move
// pending→resolved, pending→failed, or failed→pending (retry). A resolved
// entry never goes back to pending without explicit invalidation.
type CacheState string

const (
	CacheStatePending  CacheState = "pending"
	CacheStateResolved CacheState = "resolved"
	CacheStateFailed   CacheState = "failed"
)

// ResolutionResult is the identity resolver's verdict for one artist query.
// An empty CanonicalName means "no usable result".
type ResolutionResult struct {
	CanonicalName      string `json:"canonicalName"`
	CountryCode        string `json:"countryCode,omitempty"`
	FlaggedOrigin      bool   `json:"flaggedOrigin"`
	TitleLanguageMatch bool   `json:"titleLanguageMatch,omitempty"`
}

// Usable reports whether the result carries enough identity to be persisted.
func (r *ResolutionResult) Usable() bool {
	return r != nil && r.CanonicalName != ""
}

// CacheEntry is one search cache record, keyed externally by the normalized
// artist query string.
type CacheEntry struct {
	State       CacheState        `json:"state"`
	CreatedAt   time.Time         `json:"createdAt"`
	UpdatedAt   time.Time         `json:"updatedAt"`
	Payload     *ResolutionResult `json:"payload,omitempty"`
	ErrorReason string            `json:"errorReason,omitempty"`
}
