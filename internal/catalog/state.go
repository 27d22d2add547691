package catalog

// LoadState is the pagination state of the session.
type LoadState int

const (
	Idle LoadState = iota
	Loading
	Exhausted
	Errored
)

func (s LoadState) String() string {
	switch s {
	case Idle:
		return "idle"
	case Loading:
		return "loading"
	case Exhausted:
		return "exhausted"
	case Errored:
		return "errored"
	default:
		return "unknown"
	}
}

// Mode selects which list the shared view is showing.
type Mode int

const (
	ModeFeed Mode = iota
	ModeSearch
)

func (m Mode) String() string {
	if m == ModeSearch {
		return "search"
	}
	return "feed"
}
