package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/pders01/dex/internal/catalog"
	"github.com/pders01/dex/internal/config"
	"github.com/pders01/dex/internal/debounce"
	"github.com/pders01/dex/internal/media"
	"github.com/pders01/dex/internal/pokeapi"
	"github.com/pders01/dex/internal/search"
	"github.com/pders01/dex/internal/session"
)

// chrome is the number of lines taken by the header, search box and status bar.
const chrome = 7

type App struct {
	config     *config.Config
	session    *session.Session
	launcher   *media.Launcher
	keyHandler *KeyHandler
	debouncer  *debounce.Debouncer[string]

	list        list.Model
	searchInput textinput.Model
	viewport    viewport.Model
	spinner     spinner.Model
	help        help.Model

	ctx    context.Context
	cancel context.CancelFunc
	events chan tea.Msg

	view         View
	previousView View
	listView     session.View
	width        int
	height       int

	current       *catalog.Entry
	currentDetail *pokeapi.Pokemon
	detailFailed  bool

	loadingPage   bool
	loadingDetail bool
	spinning      bool
	status        string
	statusKind    StatusKind
	err           error

	glamourRenderer *glamour.TermRenderer
	rendererWidth   int
}

func NewApp(sess *session.Session, cfg *config.Config) *App {
	entries := list.New([]list.Item{}, list.NewDefaultDelegate(), 0, 0)
	entries.SetShowTitle(false)
	entries.SetShowStatusBar(false)
	entries.SetFilteringEnabled(false)
	entries.SetShowHelp(false)

	si := textinput.New()
	si.Placeholder = "Search by name or number..."
	si.Prompt = "› "
	if cfg.Search.MaxQueryLength > 0 {
		si.CharLimit = cfg.Search.MaxQueryLength
	}

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(AccentColor)

	ctx, cancel := context.WithCancel(context.Background())

	app := &App{
		config:      cfg,
		session:     sess,
		launcher:    media.NewLauncher(cfg),
		list:        entries,
		searchInput: si,
		viewport:    viewport.New(0, 0),
		spinner:     sp,
		help:        help.New(),
		ctx:         ctx,
		cancel:      cancel,
		events:      make(chan tea.Msg, 32),
		view:        ViewList,
	}

	app.debouncer = debounce.New(cfg.Search.Debounce, app.fireSearch)
	app.keyHandler = NewKeyHandler(app, cfg)
	sess.Subscribe(catalog.ListenerFunc(app.forwardEvent))

	return app
}

// Close stops pending searches and cancels in-flight requests.
func (a *App) Close() {
	a.debouncer.Cancel()
	a.cancel()
}

// fireSearch runs on the debouncer's timer goroutine.
func (a *App) fireSearch(query string) {
	select {
	case a.events <- searchDebounceFireMsg{query: query}:
	case <-a.ctx.Done():
	}
}

// forwardEvent relays the session events the UI reports on. It never blocks
// the session; events are dropped when the UI is not keeping up.
func (a *App) forwardEvent(ev catalog.Event) {
	switch ev.Kind {
	case catalog.EventExhausted, catalog.EventIndexReady, catalog.EventIndexUnavailable:
	default:
		return
	}
	select {
	case a.events <- coreEventMsg{event: ev}:
	default:
	}
}

func (a *App) waitForEvent() tea.Cmd {
	return func() tea.Msg {
		select {
		case msg := <-a.events:
			return msg
		case <-a.ctx.Done():
			return nil
		}
	}
}

func (a *App) getRenderer() (*glamour.TermRenderer, error) {
	maxWidth := a.config.UI.WordWrapMax
	minWidth := a.config.UI.WordWrapMin

	wordWrapWidth := (a.width * 9) / 10
	if maxWidth > 0 && wordWrapWidth > maxWidth {
		wordWrapWidth = maxWidth
	}
	if wordWrapWidth < minWidth {
		wordWrapWidth = minWidth
	}
	if a.width < 50 {
		wordWrapWidth = a.width - 4
		if wordWrapWidth < 20 {
			wordWrapWidth = 20
		}
	}

	if a.glamourRenderer == nil || abs(a.rendererWidth-wordWrapWidth) > 10 {
		r, err := glamour.NewTermRenderer(
			glamour.WithAutoStyle(),
			glamour.WithWordWrap(wordWrapWidth),
		)
		if err != nil {
			return nil, err
		}
		a.glamourRenderer = r
		a.rendererWidth = wordWrapWidth
	}

	return a.glamourRenderer, nil
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

func (a *App) Init() tea.Cmd {
	return tea.Batch(
		a.startSpinner(MsgBuildingIndex),
		a.buildIndex(),
		a.waitForEvent(),
		tea.EnterAltScreen,
	)
}

func (a *App) setStatus(msg string, kind StatusKind) {
	a.status = msg
	a.statusKind = kind
}

func (a *App) startSpinner(label string) tea.Cmd {
	a.setStatus(label, StatusInfo)
	if a.spinning {
		return nil
	}
	a.spinning = true
	return a.spinner.Tick
}

func (a *App) stopSpinner() {
	a.spinning = false
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		listHeight := msg.Height - chrome
		if listHeight < 3 {
			listHeight = 3
		}
		a.list.SetSize(msg.Width, listHeight)
		a.viewport.Width = msg.Width
		a.viewport.Height = msg.Height - 3
		inputWidth := msg.Width - 8
		if inputWidth < 10 {
			inputWidth = msg.Width - 4
		}
		a.searchInput.Width = inputWidth
		if a.view == ViewDetail && a.currentDetail != nil {
			a.viewport.SetContent(a.renderDetail(a.currentDetail))
		}
		return a, nil

	case tea.KeyMsg:
		return a.keyHandler.HandleKey(msg)

	case spinner.TickMsg:
		if !a.spinning {
			return a, nil
		}
		var cmd tea.Cmd
		a.spinner, cmd = a.spinner.Update(msg)
		return a, cmd

	case indexBuiltMsg:
		if !msg.ok {
			a.searchInput.Placeholder = MsgSearchUnavailable
			a.searchInput.Blur()
		}
		// A query typed while the index was building is filtered now.
		a.refreshList()
		return a, a.loadNextPage()

	case pageLoadedMsg:
		if msg.result.Stale {
			return a, nil
		}
		if msg.err != nil && session.IsRefusal(msg.err) {
			a.loadingPage = a.session.State() == catalog.Loading
			if !a.loadingPage && !a.loadingDetail {
				a.stopSpinner()
				if a.status == MsgLoadingPokemon || a.status == MsgLoadingMore {
					a.setStatus("", StatusInfo)
				}
			}
			return a, nil
		}
		a.loadingPage = false
		if !a.loadingDetail {
			a.stopSpinner()
		}
		if msg.err != nil {
			a.setStatus(MsgPageFailed+" Press "+a.keyHandler.modifierKey+a.config.Keys.Bindings.Retry+" to retry.", StatusError)
			return a, nil
		}
		a.err = nil
		a.refreshList()
		if a.session.Mode() != catalog.ModeFeed {
			return a, nil
		}
		a.setStatus("", StatusInfo)
		if a.session.Exhausted() {
			a.setStatus(MsgNoMore, StatusInfo)
		}

	case detailLoadedMsg:
		a.refreshList()
		if a.view != ViewDetail || a.current == nil || a.current.ID != msg.identity {
			return a, nil
		}
		a.loadingDetail = false
		a.stopSpinner()
		a.setStatus("", StatusInfo)
		a.showDetail(msg.pokemon)

	case detailFailedMsg:
		if a.current == nil || a.current.ID != msg.identity {
			return a, nil
		}
		a.loadingDetail = false
		a.detailFailed = true
		a.stopSpinner()
		a.setStatus(MsgDetailFailed, StatusError)

	case searchDebounceFireMsg:
		cmds = append(cmds, a.applySearch(msg.query), a.waitForEvent())

	case coreEventMsg:
		a.handleCoreEvent(msg.event)
		cmds = append(cmds, a.waitForEvent())

	case artworkOpenedMsg:
		a.err = nil
		a.setStatus(MsgArtworkOpened+" "+truncateMiddle(msg.target, 40), StatusSuccess)

	case errorMsg:
		a.err = msg.err
	}

	if a.view == ViewDetail {
		switch msg.(type) {
		case tea.MouseMsg:
			var cmd tea.Cmd
			a.viewport, cmd = a.viewport.Update(msg)
			cmds = append(cmds, cmd)
		}
	}

	return a, tea.Batch(cmds...)
}

func (a *App) handleCoreEvent(ev catalog.Event) {
	switch ev.Kind {
	case catalog.EventExhausted:
		if a.session.Mode() == catalog.ModeFeed {
			a.setStatus(MsgNoMore, StatusInfo)
		}
	case catalog.EventIndexReady:
		if !a.spinning && a.status == "" {
			a.setStatus(fmt.Sprintf("Search ready • %d indexed", ev.Offset), StatusSuccess)
		}
	case catalog.EventIndexUnavailable:
		a.setStatus(MsgSearchUnavailable, StatusWarn)
	}
}

// applySearch hands a settled query to the session and refreshes the list.
func (a *App) applySearch(query string) tea.Cmd {
	v := a.session.SetSearchQuery(query)
	a.applyView(v)
	if v.Reset {
		return a.loadNextPage()
	}
	return nil
}

// refreshList re-reads the session view, keeping the selection in place.
func (a *App) refreshList() {
	a.applyView(a.session.View())
}

func (a *App) applyView(v session.View) {
	modeChanged := v.Mode != a.listView.Mode || v.Query != a.listView.Query
	a.listView = v

	items := make([]list.Item, len(v.Entries))
	for i, e := range v.Entries {
		item := entryItem{entry: e}
		if p, ok := a.session.CachedDetail(e.ID); ok {
			item.types = p.TypeNames()
		}
		items[i] = item
	}

	idx := a.list.Index()
	a.list.SetItems(items)
	if modeChanged {
		a.list.Select(0)
	} else if idx < len(items) {
		a.list.Select(idx)
	}
}

func (a *App) selectedEntry() (catalog.Entry, bool) {
	if i, ok := a.list.SelectedItem().(entryItem); ok {
		return i.entry, true
	}
	return catalog.Entry{}, false
}

// nearEnd reports whether the selection is within the load threshold of the
// last loaded entry.
func (a *App) nearEnd() bool {
	n := len(a.list.Items())
	if n == 0 {
		return true
	}
	threshold := a.config.UI.LoadThreshold
	if threshold < 1 {
		threshold = 1
	}
	return n-1-a.list.Index() < threshold
}

// maybeLoadMore requests the next page when the selection approaches the
// end of the feed.
func (a *App) maybeLoadMore() tea.Cmd {
	if a.loadingPage || a.session.Mode() != catalog.ModeFeed || a.session.Exhausted() {
		return nil
	}
	if !a.nearEnd() {
		return nil
	}
	return a.loadNextPage()
}

func (a *App) openDetail(e catalog.Entry) tea.Cmd {
	entry := e
	a.current = &entry
	a.currentDetail = nil
	a.detailFailed = false
	a.previousView = a.view
	a.view = ViewDetail
	a.err = nil

	if p, ok := a.session.CachedDetail(e.ID); ok {
		a.showDetail(p)
		return nil
	}

	a.loadingDetail = true
	return tea.Batch(a.startSpinner(MsgLoadingDetail), a.loadDetail(e.ID))
}

func (a *App) showDetail(p *pokeapi.Pokemon) {
	a.currentDetail = p
	a.detailFailed = false
	a.viewport.SetContent(a.renderDetail(p))
	a.viewport.GotoTop()
}

func (a *App) closeDetail() {
	a.view = ViewList
	a.current = nil
	a.currentDetail = nil
	a.detailFailed = false
	a.loadingDetail = false
	a.stopSpinner()
	a.setStatus("", StatusInfo)
}

func (a *App) View() string {
	var content string
	bodyHeight := a.height - 3

	switch a.view {
	case ViewList:
		content = a.listContent()

	case ViewDetail:
		switch {
		case a.loadingDetail:
			content = renderCentered(a.width, bodyHeight, lipgloss.JoinVertical(
				lipgloss.Center,
				HeaderStyle.Render(a.currentTitle()),
				"",
				a.spinner.View()+" "+renderMuted(MsgLoadingDetail),
			))
		case a.detailFailed:
			content = renderCentered(a.width, bodyHeight, lipgloss.JoinVertical(
				lipgloss.Center,
				HeaderStyle.Render(a.currentTitle()),
				"",
				StatusErrorStyle.Render(MsgDetailFailed),
				renderHelp(fmt.Sprintf("%s%s: retry • %s: back", a.keyHandler.modifierKey, a.config.Keys.Bindings.Retry, a.config.Keys.Bindings.Back)),
			))
		default:
			content = a.viewport.View()
		}

	case ViewHelp:
		a.help.ShowAll = true
		content = renderCentered(a.width, bodyHeight, lipgloss.JoinVertical(
			lipgloss.Center,
			TitleStyle.Render("› keys"),
			"",
			a.help.View(a.keyHandler.keys),
		))
	}

	customStatus := a.getCustomStatusBar()
	if customStatus != "" {
		separatorWidth := a.width - 2
		if separatorWidth < 0 {
			separatorWidth = 0
		}
		separator := SeparatorStyle.Render("─" + strings.Repeat("─", separatorWidth))
		return lipgloss.JoinVertical(lipgloss.Top, content, separator, customStatus)
	}

	return content
}

func (a *App) currentTitle() string {
	if a.current == nil {
		return ""
	}
	return a.current.DisplayID() + " " + displayName(a.current.Name)
}

func (a *App) listContent() string {
	subtitle := MsgLoadedCount(len(a.listView.Entries), a.session.Exhausted())
	if a.listView.Mode == catalog.ModeSearch {
		subtitle = MsgResultsCount(len(a.listView.Entries)) + " for \"" + truncateEnd(a.listView.Query, 30) + "\""
	}
	header := renderHeader("› pokédex", subtitle, a.width)

	input := renderInputFrame(a.searchInput.View(), a.searchInput.Focused(), a.searchInput.Width)

	listHeight := a.height - chrome
	if listHeight < 3 {
		listHeight = 3
	}
	body := a.list.View()
	if len(a.list.Items()) == 0 {
		body = renderCentered(a.width, listHeight, a.emptyMessage())
	}

	return ContentWrapper(a.width, a.height-3).Render(lipgloss.JoinVertical(lipgloss.Top, header, input, body))
}

func (a *App) emptyMessage() string {
	if a.listView.Mode == catalog.ModeSearch {
		if a.listView.SearchUnavailable {
			return StatusWarnStyle.Render(MsgSearchUnavailable)
		}
		if a.session.IndexStatus() == search.StatusPending {
			return a.spinner.View() + " " + renderMuted(MsgBuildingIndex)
		}
		return renderMuted(MsgNoMatches)
	}
	if a.loadingPage || a.session.State() == catalog.Loading || a.spinning {
		return GetCompactBanner(MsgLoadingPokemon)
	}
	if a.session.LastError() != nil {
		return lipgloss.JoinVertical(
			lipgloss.Center,
			StatusErrorStyle.Render(MsgPageFailed),
			renderHelp(fmt.Sprintf("%s%s: retry", a.keyHandler.modifierKey, a.config.Keys.Bindings.Retry)),
		)
	}
	return renderMuted(MsgNoPokemon)
}

func (a *App) getCustomStatusBar() string {
	commands := a.keyHandler.GetHelpForCurrentView()

	if a.err != nil {
		errorMsg := StatusErrorStyle.Render(fmt.Sprintf("✗ %v", a.err))
		return lipgloss.NewStyle().
			Width(a.width).
			Padding(0, 1).
			Foreground(MutedColor).
			Render(errorMsg)
	}

	var parts []string
	if a.status != "" {
		status := a.status
		if a.spinning {
			status = a.spinner.View() + " " + status
		}
		parts = append(parts, a.statusStyle().Render(status))
	}
	if len(commands) > 0 {
		parts = append(parts, strings.Join(commands, " • "))
	}
	if len(parts) == 0 {
		return ""
	}

	return lipgloss.NewStyle().
		Width(a.width).
		Padding(0, 1).
		Foreground(MutedColor).
		Render(strings.Join(parts, "  │  "))
}

func (a *App) statusStyle() lipgloss.Style {
	switch a.statusKind {
	case StatusSuccess:
		return StatusSuccessStyle
	case StatusWarn:
		return StatusWarnStyle
	case StatusError:
		return StatusErrorStyle
	default:
		return StatusInfoStyle
	}
}
