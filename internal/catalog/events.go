package catalog

// EventKind identifies a state change published by the core.
type EventKind int

const (
	EventPageLoaded EventKind = iota
	EventExhausted
	EventLoadFailed
	EventViewChanged
	EventDetailReady
	EventDetailFailed
	EventIndexReady
	EventIndexUnavailable
)

func (k EventKind) String() string {
	switch k {
	case EventPageLoaded:
		return "page-loaded"
	case EventExhausted:
		return "exhausted"
	case EventLoadFailed:
		return "load-failed"
	case EventViewChanged:
		return "view-changed"
	case EventDetailReady:
		return "detail-ready"
	case EventDetailFailed:
		return "detail-failed"
	case EventIndexReady:
		return "index-ready"
	case EventIndexUnavailable:
		return "index-unavailable"
	default:
		return "unknown"
	}
}

// Event is a notification emitted after a state transition. Fields that do
// not apply to a kind are left zero.
type Event struct {
	Kind EventKind

	// Entries holds newly appended entries (EventPageLoaded) or the full
	// visible list (EventViewChanged).
	Entries []Entry
	// Visible is false when a page landed while a search filter was active.
	Visible bool

	State  LoadState
	Mode   Mode
	Offset int
	Query  string

	// Identity and Detail are set by the session for detail events. Detail
	// is typed as any so this package stays free of wire types.
	Identity string
	Detail   any

	Err error
}

// Listener receives core notifications.
type Listener interface {
	OnEvent(Event)
}

// ListenerFunc adapts a plain function to Listener.
type ListenerFunc func(Event)

func (f ListenerFunc) OnEvent(e Event) { f(e) }
