package search

import "github.com/pders01/dex/internal/catalog"

// Searcher matches a normalized query against the full catalog. Engines
// must return matches in insertion order.
type Searcher interface {
	Load(entries []catalog.Entry) error
	Match(query string) ([]catalog.Entry, error)
}

// DebugStatser provides lightweight stats for visibility/debugging.
// Implemented by engines that can report index doc counts, etc.
type DebugStatser interface {
	DocCount() (int, error)
}
