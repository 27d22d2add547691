package tui

import (
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/pders01/dex/internal/catalog"
	"github.com/pders01/dex/internal/config"
	"github.com/pders01/dex/internal/search"
)

// keyMap holds the configurable bindings shown on the help screen.
type keyMap struct {
	Up      key.Binding
	Down    key.Binding
	Open    key.Binding
	Search  key.Binding
	Retry   key.Binding
	Artwork key.Binding
	Back    key.Binding
	Help    key.Binding
	Quit    key.Binding
}

func newKeyMap(cfg *config.Config) keyMap {
	mod := cfg.Keys.Modifier + "+"
	b := cfg.Keys.Bindings
	return keyMap{
		Up:      key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		Down:    key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		Open:    key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "details")),
		Search:  key.NewBinding(key.WithKeys(mod+b.Search, "/"), key.WithHelp(mod+b.Search+" or /", "search")),
		Retry:   key.NewBinding(key.WithKeys(mod+b.Retry), key.WithHelp(mod+b.Retry, "retry")),
		Artwork: key.NewBinding(key.WithKeys(mod+b.OpenArtwork), key.WithHelp(mod+b.OpenArtwork, "open artwork")),
		Back:    key.NewBinding(key.WithKeys(b.Back), key.WithHelp(b.Back, "back")),
		Help:    key.NewBinding(key.WithKeys(b.Help), key.WithHelp(b.Help, "keys")),
		Quit:    key.NewBinding(key.WithKeys(b.Quit, "ctrl+c"), key.WithHelp(b.Quit, "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Search, k.Open, k.Help, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Open},
		{k.Search, k.Retry, k.Artwork},
		{k.Back, k.Help, k.Quit},
	}
}

type KeyHandler struct {
	app         *App
	config      *config.Config
	keys        keyMap
	modifierKey string
}

func NewKeyHandler(app *App, cfg *config.Config) *KeyHandler {
	modifierKey := cfg.Keys.Modifier + "+"
	return &KeyHandler{app: app, config: cfg, keys: newKeyMap(cfg), modifierKey: modifierKey}
}

func (kh *KeyHandler) HandleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return kh.app, tea.Quit
	}

	if kh.isInTextInputMode() {
		return kh.handleTextInputMode(msg)
	}

	if model, cmd, handled := kh.handleCustomKeys(msg); handled {
		return model, cmd
	}

	return kh.delegateToCharm(msg)
}

func (kh *KeyHandler) isInTextInputMode() bool {
	return kh.app.view == ViewList && kh.app.searchInput.Focused()
}

func (kh *KeyHandler) handleTextInputMode(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		kh.app.searchInput.Blur()
		return kh.app, nil
	case "enter":
		// Apply immediately instead of waiting out the quiet period.
		kh.app.debouncer.Cancel()
		kh.app.searchInput.Blur()
		return kh.app, kh.app.applySearch(kh.app.searchInput.Value())
	case "tab", "down":
		if len(kh.app.list.Items()) > 0 {
			kh.app.searchInput.Blur()
		}
		return kh.app, nil
	default:
		return kh.delegateToTextInput(msg)
	}
}

// delegateToTextInput passes the key to the search input and schedules a
// debounced search when the value changed.
func (kh *KeyHandler) delegateToTextInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	prev := kh.app.searchInput.Value()
	newSearchInput, cmd := kh.app.searchInput.Update(msg)
	kh.app.searchInput = newSearchInput

	if v := kh.app.searchInput.Value(); v != prev {
		kh.app.debouncer.Call(v)
	}
	return kh.app, cmd
}

// handleCustomKeys handles only our custom action keys
func (kh *KeyHandler) handleCustomKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd, bool) {
	switch {
	case key.Matches(msg, kh.keys.Quit):
		return kh.app, tea.Quit, true
	case key.Matches(msg, kh.keys.Back):
		model, cmd := kh.navigateBack()
		return model, cmd, true
	case key.Matches(msg, kh.keys.Help):
		kh.toggleHelp()
		return kh.app, nil, true
	}

	switch kh.app.view {
	case ViewList:
		return kh.handleListCustomKeys(msg)
	case ViewDetail:
		return kh.handleDetailCustomKeys(msg)
	default:
		return kh.app, nil, false
	}
}

func (kh *KeyHandler) handleListCustomKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd, bool) {
	switch {
	case key.Matches(msg, kh.keys.Search):
		model, cmd := kh.enterSearchMode()
		return model, cmd, true
	case key.Matches(msg, kh.keys.Retry):
		if kh.app.loadingPage || kh.app.session.Mode() != catalog.ModeFeed || kh.app.session.Exhausted() {
			return kh.app, nil, true
		}
		return kh.app, kh.app.loadNextPage(), true
	case key.Matches(msg, kh.keys.Open):
		if e, ok := kh.app.selectedEntry(); ok {
			return kh.app, kh.app.openDetail(e), true
		}
		return kh.app, nil, true
	}
	return kh.app, nil, false
}

func (kh *KeyHandler) handleDetailCustomKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd, bool) {
	switch {
	case key.Matches(msg, kh.keys.Artwork):
		if p := kh.app.currentDetail; p != nil {
			return kh.app, kh.app.openArtwork(p.ArtworkURL(kh.config.API.SpriteBaseURL)), true
		}
		return kh.app, nil, true
	case key.Matches(msg, kh.keys.Retry):
		if kh.app.detailFailed && kh.app.current != nil {
			return kh.app, kh.app.openDetail(*kh.app.current), true
		}
		return kh.app, nil, true
	}
	return kh.app, nil, false
}

// delegateToCharm lets Charm handle all keys we don't intercept
func (kh *KeyHandler) delegateToCharm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch kh.app.view {
	case ViewList:
		kh.app.list, cmd = kh.app.list.Update(msg)
		return kh.app, tea.Batch(cmd, kh.app.maybeLoadMore())

	case ViewDetail:
		kh.app.viewport, cmd = kh.app.viewport.Update(msg)
		return kh.app, cmd

	default:
		return kh.app, nil
	}
}

// navigateBack closes the detail or help screen, or clears an active search.
func (kh *KeyHandler) navigateBack() (tea.Model, tea.Cmd) {
	switch kh.app.view {
	case ViewDetail:
		kh.app.closeDetail()
		return kh.app, nil

	case ViewHelp:
		kh.app.view = kh.app.previousView
		return kh.app, nil

	case ViewList:
		kh.app.err = nil
		if kh.app.searchInput.Value() == "" && kh.app.session.Mode() == catalog.ModeFeed {
			return kh.app, nil
		}
		kh.app.debouncer.Cancel()
		kh.app.searchInput.Reset()
		return kh.app, kh.app.applySearch("")

	default:
		return kh.app, nil
	}
}

func (kh *KeyHandler) toggleHelp() {
	if kh.app.view == ViewHelp {
		kh.app.view = kh.app.previousView
		return
	}
	kh.app.previousView = kh.app.view
	kh.app.view = ViewHelp
}

// enterSearchMode focuses the search box unless the index is unavailable.
func (kh *KeyHandler) enterSearchMode() (tea.Model, tea.Cmd) {
	if kh.app.session.IndexStatus() == search.StatusUnavailable {
		kh.app.setStatus(MsgSearchUnavailable, StatusWarn)
		return kh.app, nil
	}
	kh.app.searchInput.Focus()
	return kh.app, nil
}

// GetHelpForCurrentView returns only our custom help text (Charm handles the rest)
func (kh *KeyHandler) GetHelpForCurrentView() []string {
	b := kh.config.Keys.Bindings
	switch kh.app.view {
	case ViewList:
		if kh.app.searchInput.Focused() {
			return []string{"enter: apply", "tab: results", "esc: done"}
		}
		help := []string{"enter: details", kh.modifierKey + b.Search + ": search"}
		if kh.app.session.LastError() != nil && kh.app.session.Mode() == catalog.ModeFeed {
			help = append(help, kh.modifierKey+b.Retry+": retry")
		}
		if kh.app.listView.Mode == catalog.ModeSearch {
			help = append(help, b.Back+": clear search")
		}
		return append(help, b.Help+": keys", b.Quit+": quit")

	case ViewDetail:
		help := []string{kh.modifierKey + b.OpenArtwork + ": artwork", b.Back + ": back"}
		if kh.app.detailFailed {
			help = append(help, kh.modifierKey+b.Retry+": retry")
		}
		return help

	case ViewHelp:
		return []string{b.Back + ": close"}

	default:
		return []string{}
	}
}
