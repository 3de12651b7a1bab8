package bridge

// ConnState tracks the transport lifecycle.
type ConnState int

const (
	ConnDisconnected ConnState = iota
	ConnConnecting
	ConnConnected
	ConnReconnecting
	ConnFailed
)

func (s ConnState) String() string {
	switch s {
	case ConnDisconnected:
		return "DISCONNECTED"
	case ConnConnecting:
		return "CONNECTING"
	case ConnConnected:
		return "CONNECTED"
	case ConnReconnecting:
		return "RECONNECTING"
	case ConnFailed:
		return "FAILED"
	default:
		return "UNKNOWN"
	}
}

// Event is an inbound message from the player bridge. Only now-playing
// events carry a track payload.
type Event struct {
	Type   string `json:"type"`
	Title  string `json:"title,omitempty"`
	Artist string `json:"artist,omitempty"`
}

const EventNowPlaying = "now_playing"

// Command is an outbound enforcement instruction for the player.
type Command struct {
	Action string `json:"action"`
	Reason string `json:"reason,omitempty"`
}

const (
	ActionSkip    = "skip"
	ActionDislike = "dislike"
)
