package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/pders01/dex/internal/debuglog"
)

func (a *App) buildIndex() tea.Cmd {
	return func() tea.Msg {
		return indexBuiltMsg{ok: a.session.BuildIndex(a.ctx)}
	}
}

func (a *App) loadNextPage() tea.Cmd {
	a.loadingPage = true
	label := MsgLoadingMore
	if len(a.listView.Entries) == 0 {
		label = MsgLoadingPokemon
	}
	spin := a.startSpinner(label)

	return tea.Batch(spin, func() tea.Msg {
		result, err := a.session.RequestNextPage(a.ctx)
		return pageLoadedMsg{result: result, err: err}
	})
}

func (a *App) loadDetail(identity string) tea.Cmd {
	return func() tea.Msg {
		p, err := a.session.EntryDetail(a.ctx, identity)
		if err != nil {
			return detailFailedMsg{identity: identity, err: err}
		}
		return detailLoadedMsg{identity: identity, pokemon: p}
	}
}

func (a *App) openArtwork(target string) tea.Cmd {
	return func() tea.Msg {
		if err := a.launcher.Open(target); err != nil {
			debuglog.Warnf("opening artwork %s: %v", target, err)
			return errorMsg{err: wrapErr("open artwork", err)}
		}
		return artworkOpenedMsg{target: target}
	}
}
