package tui

import (
	"strings"

	"github.com/pders01/dex/internal/catalog"
	"github.com/pders01/dex/internal/pokeapi"
)

type View int

const (
	ViewList View = iota
	ViewDetail
	ViewHelp
)

func (v View) String() string {
	switch v {
	case ViewList:
		return "list"
	case ViewDetail:
		return "detail"
	case ViewHelp:
		return "help"
	default:
		return "unknown"
	}
}

// entryItem adapts a catalog entry to the list component.
type entryItem struct {
	entry catalog.Entry
	types []string
}

func (i entryItem) Title() string {
	return IDStyle.Render(i.entry.DisplayID()) + " " + displayName(i.entry.Name)
}

func (i entryItem) Description() string {
	if len(i.types) == 0 {
		return ""
	}
	return TypeStyle.Render(strings.Join(i.types, " · "))
}

func (i entryItem) FilterValue() string { return i.entry.Name }

// Messages produced by commands and the event pump.
type (
	indexBuiltMsg struct {
		ok bool
	}

	pageLoadedMsg struct {
		result catalog.PageResult
		err    error
	}

	detailLoadedMsg struct {
		identity string
		pokemon  *pokeapi.Pokemon
	}

	detailFailedMsg struct {
		identity string
		err      error
	}

	// searchDebounceFireMsg carries the query that survived the quiet period.
	searchDebounceFireMsg struct {
		query string
	}

	// coreEventMsg forwards a session event onto the update loop.
	coreEventMsg struct {
		event catalog.Event
	}

	artworkOpenedMsg struct {
		target string
	}

	errorMsg struct {
		err error
	}
)

// displayName upper-cases the first letter of a catalog name.
func displayName(name string) string {
	if name == "" {
		return name
	}
	r := []rune(name)
	return strings.ToUpper(string(r[0])) + string(r[1:])
}
