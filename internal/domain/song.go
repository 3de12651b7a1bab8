package domain

import "time"

// Song is an explicit per-track override keyed by the normalized
// (title, artist string) pair. Overrides are created only by explicit user
// action, never by the pipeline, and do not participate in fuzzy matching.
type Song struct {
	ID           int64     `json:"id,omitempty"`
	Title        string    `json:"title"`
	ArtistString string    `json:"artistString"`
	Allowed      bool      `json:"allowed"`
	CreatedAt    time.Time `json:"createdAt"`
}
