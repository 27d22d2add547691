// Package session owns one browsing session: the paginated feed, the detail
// cache and the search index, all backed by a single gateway.
package session

import (
	"context"
	"errors"
	"sync"

	"github.com/pders01/dex/internal/catalog"
	"github.com/pders01/dex/internal/config"
	"github.com/pders01/dex/internal/detail"
	"github.com/pders01/dex/internal/pokeapi"
	"github.com/pders01/dex/internal/search"
	"github.com/pders01/dex/internal/validation"
)

// Gateway is the subset of the remote catalog the session needs.
type Gateway interface {
	search.ListSource
	detail.Source
}

// View is what the list should currently show.
type View struct {
	Mode    catalog.Mode
	Query   string
	Entries []catalog.Entry
	// SearchUnavailable is set when a query could not be served.
	SearchUnavailable bool
	// Reset is set when clearing the search restarted pagination; the feed
	// is empty until the next page request completes.
	Reset bool
}

// Empty reports whether there is nothing to show.
func (v View) Empty() bool { return len(v.Entries) == 0 }

type Session struct {
	gateway     Gateway
	coord       *catalog.Coordinator
	cache       *detail.Cache
	index       *search.Index
	maxQueryLen int

	mu        sync.Mutex
	listeners []catalog.Listener
}

// New creates a session. Nothing is fetched until Init.
func New(gw Gateway, cfg *config.Config) *Session {
	s := &Session{
		gateway:     gw,
		coord:       catalog.NewCoordinator(cfg.API.PageSize),
		cache:       detail.NewCache(gw),
		index:       search.NewIndex(cfg.API.IndexLimit, cfg.Search.Engine),
		maxQueryLen: cfg.Search.MaxQueryLength,
	}
	s.coord.AddListener(catalog.ListenerFunc(s.publish))
	s.Subscribe(logListener{})
	return s
}

// Subscribe registers l for every core event.
func (s *Session) Subscribe(l catalog.Listener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, l)
}

func (s *Session) publish(ev catalog.Event) {
	s.mu.Lock()
	listeners := append([]catalog.Listener(nil), s.listeners...)
	s.mu.Unlock()
	for _, l := range listeners {
		l.OnEvent(ev)
	}
}

// Init builds the search index and then loads the first page. An index
// failure only disables search; the returned error is the first page's.
func (s *Session) Init(ctx context.Context) error {
	s.BuildIndex(ctx)
	_, err := s.RequestNextPage(ctx)
	return err
}

// BuildIndex performs the one bulk fetch for search and reports whether it
// succeeded.
func (s *Session) BuildIndex(ctx context.Context) bool {
	if err := s.index.Build(ctx, s.gateway); err != nil {
		s.publish(catalog.Event{Kind: catalog.EventIndexUnavailable, Err: err})
		return false
	}
	s.publish(catalog.Event{Kind: catalog.EventIndexReady, Offset: s.index.Len()})
	return true
}

// Reset discards all session state. In-flight page loads are ignored when
// they land.
func (s *Session) Reset() {
	s.coord.Reset()
	s.index.Reset()
	s.cache.Clear()
}

// RequestNextPage loads the next page if the coordinator allows it.
// Refusals (search active, load in progress, exhausted) come back as the
// catalog sentinel errors with nothing fetched.
func (s *Session) RequestNextPage(ctx context.Context) (catalog.PageResult, error) {
	return s.coord.LoadNext(ctx, func(ctx context.Context, req catalog.PageRequest) (catalog.Page, error) {
		page, err := s.gateway.List(ctx, req.Limit, req.Offset)
		if err != nil {
			return catalog.Page{}, err
		}
		return page.CatalogPage(), nil
	})
}

// IsRefusal reports whether err is a gating refusal rather than a fetch
// failure.
func IsRefusal(err error) bool {
	return errors.Is(err, catalog.ErrLoadInProgress) ||
		errors.Is(err, catalog.ErrExhausted) ||
		errors.Is(err, catalog.ErrSearchActive)
}

// SetSearchQuery applies a (debounced) query and returns the view to show.
func (s *Session) SetSearchQuery(q string) View {
	q = validation.SanitizeQuery(q, s.maxQueryLen)
	prev := s.coord.Query()
	_, reset := s.coord.SetQuery(q)

	v := s.View()
	v.Reset = reset
	if v.Query != prev || reset {
		s.publish(catalog.Event{
			Kind:    catalog.EventViewChanged,
			Entries: v.Entries,
			Visible: true,
			Mode:    v.Mode,
			Query:   v.Query,
			State:   s.coord.State(),
			Offset:  s.coord.Offset(),
		})
	}
	return v
}

// View returns the current list contents without changing anything.
func (s *Session) View() View {
	q := s.coord.Query()
	if q == "" {
		return View{Mode: catalog.ModeFeed, Entries: s.coord.Feed()}
	}
	res, _ := s.index.Filter(q)
	return View{
		Mode:              catalog.ModeSearch,
		Query:             q,
		Entries:           res.Entries,
		SearchUnavailable: res.Unavailable,
	}
}

// EntryDetail resolves the full record for an identity through the cache.
func (s *Session) EntryDetail(ctx context.Context, identity string) (*pokeapi.Pokemon, error) {
	p, err := s.cache.Get(ctx, identity)
	if err != nil {
		s.publish(catalog.Event{Kind: catalog.EventDetailFailed, Identity: identity, Err: err})
		return nil, err
	}
	s.publish(catalog.Event{Kind: catalog.EventDetailReady, Identity: identity, Detail: p})
	return p, nil
}

// CachedDetail returns a record only if it is already cached.
func (s *Session) CachedDetail(identity string) (*pokeapi.Pokemon, bool) {
	return s.cache.Peek(identity)
}

func (s *Session) State() catalog.LoadState   { return s.coord.State() }
func (s *Session) Mode() catalog.Mode         { return s.coord.Mode() }
func (s *Session) Offset() int                { return s.coord.Offset() }
func (s *Session) Exhausted() bool            { return s.coord.Exhausted() }
func (s *Session) LastError() error           { return s.coord.LastError() }
func (s *Session) IndexStatus() search.Status { return s.index.Status() }
func (s *Session) CachedDetails() int         { return s.cache.Len() }
