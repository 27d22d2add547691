package tui

import "fmt"

// StatusKind indicates severity for status bar messages.
type StatusKind int

const (
	StatusInfo StatusKind = iota
	StatusSuccess
	StatusWarn
	StatusError
)

func (k StatusKind) String() string {
	switch k {
	case StatusSuccess:
		return "success"
	case StatusWarn:
		return "warn"
	case StatusError:
		return "error"
	default:
		return "info"
	}
}

// Canonical short status messages used across the app.
const (
	MsgLoadingPokemon    = "Loading Pokémon…"
	MsgLoadingMore       = "Loading more Pokémon…"
	MsgLoadingDetail     = "Loading details…"
	MsgBuildingIndex     = "Building search index…"
	MsgNoPokemon         = "No Pokémon found"
	MsgNoMatches         = "No Pokémon found matching your search."
	MsgNoMore            = "No more Pokémon to load."
	MsgSearchUnavailable = "Search unavailable"
	MsgDetailFailed      = "Could not load details for this Pokémon."
	MsgPageFailed        = "Could not load more Pokémon."
	MsgArtworkOpened     = "Opened artwork"
)

func MsgResultsCount(n int) string {
	if n == 1 {
		return "1 result"
	}
	return fmt.Sprintf("%d results", n)
}

// MsgLoadedCount summarizes the feed in the status bar.
func MsgLoadedCount(n int, exhausted bool) string {
	if exhausted {
		return fmt.Sprintf("%d Pokémon • all loaded", n)
	}
	return fmt.Sprintf("%d Pokémon loaded", n)
}

// wrapErr prefixes err with the action that failed.
func wrapErr(action string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", action, err)
}
