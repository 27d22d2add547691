package search

import (
	"fmt"
	"strings"

	"github.com/pders01/dex/internal/catalog"
	"github.com/pders01/dex/internal/config"
)

// linearEngine scans every entry. At catalog scale (about 1300 entries) a
// scan per keystroke is well within a frame.
type linearEngine struct {
	entries []catalog.Entry
	names   []string
}

// NewLinearEngine returns the default scanning engine.
func NewLinearEngine() Searcher {
	return &linearEngine{}
}

// NewSearcher picks an engine by its config name.
func NewSearcher(engine string) (Searcher, error) {
	switch engine {
	case "", config.EngineLinear:
		return NewLinearEngine(), nil
	case config.EngineBleve:
		return NewBleveEngine()
	default:
		return nil, fmt.Errorf("unknown search engine %q", engine)
	}
}

func (e *linearEngine) Load(entries []catalog.Entry) error {
	e.entries = append([]catalog.Entry(nil), entries...)
	e.names = make([]string, len(entries))
	for i, entry := range entries {
		e.names[i] = strings.ToLower(entry.Name)
	}
	return nil
}

func (e *linearEngine) Match(query string) ([]catalog.Entry, error) {
	out := make([]catalog.Entry, 0)
	for i, entry := range e.entries {
		if strings.Contains(e.names[i], query) || entry.ID == query {
			out = append(out, entry)
		}
	}
	return out, nil
}

func (e *linearEngine) DocCount() (int, error) {
	return len(e.entries), nil
}
