package domain

// Stage identifies which pipeline stage produced a decision. Closed set so
// consumers can switch exhaustively instead of comparing ad hoc strings.
type Stage string

const (
	StageInput         Stage = "input"
	StageSong          Stage = "song"
	StageLanguage      Stage = "language"
	StageArtist        Stage = "artist"
	StagePendingSearch Stage = "pending_search"
)

// BlockMode is the enforcement strength attached to a blocking decision.
type BlockMode string

const (
	BlockModeNone   BlockMode = ""
	BlockModeStrict BlockMode = "strict" // skip and negatively rate
	BlockModeSoft   BlockMode = "soft"   // skip only
)

// Decision is the transient outcome of evaluating one track. It is handed to
// the enforcement sink and never persisted.
type Decision struct {
	Blocked        bool      `json:"blocked"`
	Mode           BlockMode `json:"mode,omitempty"`
	Reason         string    `json:"reason"`
	Stage          Stage     `json:"stage"`
	PendingArtists []string  `json:"pendingArtists,omitempty"`
}

// Terminal reports whether the pipeline reached a final verdict, as opposed
// to waiting on external resolution.
func (d *Decision) Terminal() bool {
	return d.Stage != StagePendingSearch
}
