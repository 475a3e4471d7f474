package library

// EventType identifies a catalog change notification.
type EventType string

const (
	EventSongAdded   EventType = "song_added"
	EventSongUpdated EventType = "song_updated"
	EventSongRemoved EventType = "song_removed"
)

// Event describes a committed catalog mutation. Song is a snapshot taken
// after the change (for removals, the last stored state).
type Event struct {
	Type     EventType
	Song     Song
	Revision uint64
}
