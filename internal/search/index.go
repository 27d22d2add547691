package search

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/pders01/dex/internal/catalog"
	"github.com/pders01/dex/internal/debuglog"
	"github.com/pders01/dex/internal/pokeapi"
)

// ErrUnavailable means the bulk fetch failed and search is off for the
// rest of the session.
var ErrUnavailable = errors.New("search unavailable")

// ListSource is the gateway call the index is built from.
type ListSource interface {
	List(ctx context.Context, limit, offset int) (*pokeapi.ListPage, error)
}

// Status is the lifecycle of the index within a session.
type Status int

const (
	StatusPending Status = iota
	StatusReady
	StatusUnavailable
)

func (s Status) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusReady:
		return "ready"
	case StatusUnavailable:
		return "unavailable"
	default:
		return "unknown"
	}
}

// Result is a filtered view of the catalog.
type Result struct {
	Query   string
	Entries []catalog.Entry
	// Unavailable is set when the query could not be served because the
	// index never loaded.
	Unavailable bool
}

// Index is the full name list used for search, loaded once per session.
type Index struct {
	mu       sync.RWMutex
	engine   string
	limit    int
	searcher Searcher
	status   Status
	size     int
	err      error
}

// NewIndex creates a pending index. limit bounds the bulk fetch and engine
// selects the Searcher ("linear" or "bleve").
func NewIndex(limit int, engine string) *Index {
	return &Index{limit: limit, engine: engine}
}

// Build performs the single bulk fetch. On failure the index is marked
// unavailable and never retried; the error is returned for reporting.
func (ix *Index) Build(ctx context.Context, src ListSource) error {
	page, err := src.List(ctx, ix.limit, 0)
	if err != nil {
		return ix.markUnavailable(fmt.Errorf("fetching search index: %w", err))
	}

	entries, dropped := page.Entries()
	if dropped > 0 {
		debuglog.Warnf("search index: dropped %d malformed entries", dropped)
	}

	searcher, err := NewSearcher(ix.engine)
	if err != nil {
		return ix.markUnavailable(err)
	}
	if err := searcher.Load(entries); err != nil {
		return ix.markUnavailable(err)
	}

	ix.mu.Lock()
	ix.searcher = searcher
	ix.status = StatusReady
	ix.size = len(entries)
	ix.err = nil
	ix.mu.Unlock()

	debuglog.Infof("search index ready: %d entries (%s engine)", len(entries), ix.engineName())
	if s, ok := searcher.(DebugStatser); ok {
		if n, err := s.DocCount(); err == nil && n != len(entries) {
			debuglog.Warnf("search index: engine holds %d docs, expected %d", n, len(entries))
		}
	}
	return nil
}

func (ix *Index) markUnavailable(err error) error {
	ix.mu.Lock()
	ix.status = StatusUnavailable
	ix.searcher = nil
	ix.err = err
	ix.mu.Unlock()
	debuglog.Errorf("%v", err)
	return err
}

func (ix *Index) engineName() string {
	if ix.engine == "" {
		return "linear"
	}
	return ix.engine
}

// Filter returns the entries matching query and whether a filter is active.
// An empty (normalized) query is inactive and the caller should show the
// paginated feed. While the index is pending or unavailable an active query
// yields no entries.
func (ix *Index) Filter(query string) (Result, bool) {
	q := catalog.NormalizeQuery(query)
	if q == "" {
		return Result{}, false
	}

	ix.mu.RLock()
	searcher, status := ix.searcher, ix.status
	ix.mu.RUnlock()

	res := Result{Query: q, Entries: []catalog.Entry{}}
	switch status {
	case StatusUnavailable:
		res.Unavailable = true
		return res, true
	case StatusPending:
		return res, true
	}

	matches, err := searcher.Match(q)
	if err != nil {
		debuglog.Warnf("search %q failed: %v", q, err)
		return res, true
	}
	res.Entries = matches
	return res, true
}

// Status reports where the index is in its lifecycle.
func (ix *Index) Status() Status {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return ix.status
}

// Unavailable reports whether the bulk fetch failed.
func (ix *Index) Unavailable() bool {
	return ix.Status() == StatusUnavailable
}

// Err returns the build failure wrapped with ErrUnavailable, or nil.
func (ix *Index) Err() error {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	if ix.err == nil {
		return nil
	}
	return fmt.Errorf("%w: %v", ErrUnavailable, ix.err)
}

// Len is the number of indexed entries.
func (ix *Index) Len() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return ix.size
}

// Reset returns the index to pending so it can be rebuilt.
func (ix *Index) Reset() {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	ix.searcher = nil
	ix.status = StatusPending
	ix.size = 0
	ix.err = nil
}
