package domain

// Track is one playback observation: the raw title and artist credit exactly
// as the player reported them. It doubles as the session token for resolution
// callbacks, so stale resolver results can be detected when playback has
// already moved on.
type Track struct {
	Title        string `json:"title"`
	ArtistString string `json:"artist"`
}

// Valid reports whether the track carries enough input to evaluate.
func (t Track) Valid() bool {
	return t.Title != "" && t.ArtistString != ""
}

// Same reports whether another track refers to the same playback item.
func (t Track) Same(other Track) bool {
	return t.Title == other.Title && t.ArtistString == other.ArtistString
}
