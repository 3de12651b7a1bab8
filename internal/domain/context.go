package domain

// ArtistContext is best-effort descriptive metadata about an artist, gathered
// from an external channel lookup before resolution. Every field is optional;
// an absent context degrades to resolver-internal knowledge.
type ArtistContext struct {
	ChannelID          string   `json:"channelId,omitempty"`
	ChannelTitle       string   `json:"channelTitle,omitempty"`
	Description        string   `json:"description,omitempty"`
	Links              []string `json:"links,omitempty"`
	DeclaredCountry    string   `json:"declaredCountry,omitempty"`
	HasFlaggedPlatform bool     `json:"hasFlaggedPlatform,omitempty"`
	HasFlaggedContact  bool     `json:"hasFlaggedContact,omitempty"`
}

// Empty reports whether the lookup produced nothing useful.
func (c *ArtistContext) Empty() bool {
	return c == nil || (c.Description == "" && len(c.Links) == 0 && c.DeclaredCountry == "" &&
		!c.HasFlaggedPlatform && !c.HasFlaggedContact)
}

// ChannelCandidate is one possible channel identity returned by a metadata
// search for an artist name.
type ChannelCandidate struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}
