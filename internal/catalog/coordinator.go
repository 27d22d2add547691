package catalog

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

var (
	ErrLoadInProgress = errors.New("page load already in progress")
	ErrExhausted      = errors.New("catalog exhausted")
	ErrSearchActive   = errors.New("pagination suspended while searching")
)

// Page is the outcome of one list request.
type Page struct {
	Entries []Entry
	// Fetched is the raw number of results the gateway returned, including
	// malformed ones that were dropped from Entries.
	Fetched int
	HasNext bool
}

// PageFetcher performs the network half of a page load.
type PageFetcher func(ctx context.Context, req PageRequest) (Page, error)

// PageResult reports what applying a page did to the session.
type PageResult struct {
	Appended []Entry
	State    LoadState
	Offset   int
	// Visible is false when the page was merged while a search was active.
	Visible bool
	// Stale is true when the page belonged to a generation that was reset
	// while it was in flight; nothing was applied.
	Stale bool
}

// Coordinator gates page loads, merges pages into the feed without
// duplicates and tracks which view mode owns the display.
//
// The mutex is never held across a fetch, so callers on other goroutines
// can observe Loading while a request is outstanding.
type Coordinator struct {
	mu         sync.Mutex
	limit      int
	cursor     Cursor
	state      LoadState
	feed       []Entry
	seen       map[string]struct{}
	query      string
	generation uint64
	lastErr    error
	listeners  []Listener
}

// NewCoordinator creates a coordinator requesting pages of the given size.
func NewCoordinator(limit int) *Coordinator {
	if limit <= 0 {
		limit = 50
	}
	return &Coordinator{
		limit: limit,
		seen:  make(map[string]struct{}),
	}
}

// AddListener registers l for page and load events.
func (c *Coordinator) AddListener(l Listener) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.listeners = append(c.listeners, l)
}

// Begin moves Idle -> Loading and returns the request to issue.
func (c *Coordinator) Begin() (PageRequest, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.query != "" {
		return PageRequest{}, ErrSearchActive
	}
	switch c.state {
	case Loading:
		return PageRequest{}, ErrLoadInProgress
	case Exhausted:
		return PageRequest{}, ErrExhausted
	}

	c.state = Loading
	req := c.cursor.Next(c.limit)
	req.generation = c.generation
	return req, nil
}

// Complete applies a successful page. Cursor bookkeeping always proceeds
// for the current generation, even when a search is hiding the feed.
func (c *Coordinator) Complete(req PageRequest, page Page) PageResult {
	c.mu.Lock()
	if req.generation != c.generation {
		c.mu.Unlock()
		return PageResult{Stale: true}
	}

	hasNext := page.HasNext && page.Fetched > 0
	c.cursor.Apply(page.Fetched, hasNext)
	appended := c.mergeLocked(page.Entries)
	if hasNext {
		c.state = Idle
	} else {
		c.state = Exhausted
	}
	c.lastErr = nil

	res := PageResult{
		Appended: appended,
		State:    c.state,
		Offset:   c.cursor.Offset(),
		Visible:  c.query == "",
	}
	events := []Event{{
		Kind:    EventPageLoaded,
		Entries: appended,
		Visible: res.Visible,
		State:   res.State,
		Mode:    c.modeLocked(),
		Offset:  res.Offset,
	}}
	if res.State == Exhausted {
		events = append(events, Event{Kind: EventExhausted, State: Exhausted, Offset: res.Offset, Mode: c.modeLocked()})
	}
	listeners := c.listenersLocked()
	c.mu.Unlock()

	emit(listeners, events...)
	return res
}

// Fail records a failed page load. The cursor is left untouched and the
// state passes through Errored back to Idle so a later trigger may retry.
func (c *Coordinator) Fail(req PageRequest, err error) {
	c.mu.Lock()
	if req.generation != c.generation {
		c.mu.Unlock()
		return
	}
	c.lastErr = err
	c.state = Errored
	ev := Event{
		Kind:   EventLoadFailed,
		State:  Errored,
		Mode:   c.modeLocked(),
		Offset: c.cursor.Offset(),
		Err:    err,
	}
	c.state = Idle
	listeners := c.listenersLocked()
	c.mu.Unlock()

	emit(listeners, ev)
}

// LoadNext runs one full page load: Begin, fetch, then Complete or Fail.
func (c *Coordinator) LoadNext(ctx context.Context, fetch PageFetcher) (PageResult, error) {
	req, err := c.Begin()
	if err != nil {
		return PageResult{State: c.State(), Offset: c.Offset()}, err
	}

	page, err := fetch(ctx, req)
	if err != nil {
		if !c.current(req) {
			return PageResult{Stale: true, State: c.State(), Offset: c.Offset()}, nil
		}
		c.Fail(req, err)
		return PageResult{State: c.State(), Offset: c.Offset()}, fmt.Errorf("loading page at offset %d: %w", req.Offset, err)
	}
	return c.Complete(req, page), nil
}

func (c *Coordinator) current(req PageRequest) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return req.generation == c.generation
}

// SetQuery switches view modes. A non-empty query suspends pagination; an
// empty one resets the cursor and feed so browsing restarts from the top.
// It reports whether a reset happened.
func (c *Coordinator) SetQuery(q string) (Mode, bool) {
	q = NormalizeQuery(q)

	c.mu.Lock()
	defer c.mu.Unlock()

	if q == c.query {
		return c.modeLocked(), false
	}
	if q != "" {
		c.query = q
		return ModeSearch, false
	}
	c.resetLocked()
	return ModeFeed, true
}

// Reset returns the coordinator to its initial state. Pages still in
// flight are discarded when they land.
func (c *Coordinator) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.resetLocked()
}

func (c *Coordinator) resetLocked() {
	c.query = ""
	c.cursor.Reset()
	c.state = Idle
	c.feed = nil
	c.seen = make(map[string]struct{})
	c.lastErr = nil
	c.generation++
}

func (c *Coordinator) mergeLocked(entries []Entry) []Entry {
	appended := make([]Entry, 0, len(entries))
	for _, e := range entries {
		if _, dup := c.seen[e.ID]; dup {
			continue
		}
		c.seen[e.ID] = struct{}{}
		c.feed = append(c.feed, e)
		appended = append(appended, e)
	}
	return appended
}

func (c *Coordinator) modeLocked() Mode {
	if c.query != "" {
		return ModeSearch
	}
	return ModeFeed
}

func (c *Coordinator) listenersLocked() []Listener {
	return append([]Listener(nil), c.listeners...)
}

// Feed returns a copy of the paginated feed in load order.
func (c *Coordinator) Feed() []Entry {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Entry(nil), c.feed...)
}

func (c *Coordinator) State() LoadState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Coordinator) Offset() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cursor.Offset()
}

func (c *Coordinator) Exhausted() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cursor.Exhausted()
}

func (c *Coordinator) Query() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.query
}

func (c *Coordinator) Mode() Mode {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.modeLocked()
}

func (c *Coordinator) LastError() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastErr
}

func (c *Coordinator) Limit() int { return c.limit }

func emit(listeners []Listener, events ...Event) {
	for _, ev := range events {
		for _, l := range listeners {
			l.OnEvent(ev)
		}
	}
}
