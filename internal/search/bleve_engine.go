package search

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/keyword"
	"github.com/blevesearch/bleve/v2/mapping"

	"github.com/pders01/dex/internal/catalog"
)

// bleveEngine keeps the catalog in a memory-only index. Names are indexed
// whole and lower-cased so a regexp term match gives substring semantics.
// Document IDs are zero-padded insertion ordinals, so sorting on _id
// preserves catalog order.
type bleveEngine struct {
	idx     bleve.Index
	entries []catalog.Entry
}

// NewBleveEngine creates an empty in-memory index.
func NewBleveEngine() (Searcher, error) {
	idx, err := bleve.NewMemOnly(buildIndexMapping())
	if err != nil {
		return nil, fmt.Errorf("creating search index: %w", err)
	}
	return &bleveEngine{idx: idx}, nil
}

func buildIndexMapping() mapping.IndexMapping {
	im := bleve.NewIndexMapping()
	im.DefaultAnalyzer = keyword.Name

	dm := bleve.NewDocumentMapping()

	name := bleve.NewTextFieldMapping()
	name.Analyzer = keyword.Name
	name.Store = false
	name.IncludeTermVectors = false

	id := bleve.NewTextFieldMapping()
	id.Analyzer = keyword.Name
	id.Store = false

	dm.AddFieldMappingsAt("name", name)
	dm.AddFieldMappingsAt("id", id)

	im.DefaultMapping = dm
	return im
}

func (b *bleveEngine) Load(entries []catalog.Entry) error {
	if len(entries) == 0 {
		b.entries = nil
		return nil
	}
	batch := b.idx.NewBatch()
	for i, e := range entries {
		if err := batch.Index(docIDForOrdinal(i), map[string]any{
			"name": strings.ToLower(e.Name),
			"id":   e.ID,
		}); err != nil {
			return fmt.Errorf("indexing %s: %w", e.Name, err)
		}
	}
	if err := b.idx.Batch(batch); err != nil {
		return fmt.Errorf("writing search index: %w", err)
	}
	b.entries = append([]catalog.Entry(nil), entries...)
	return nil
}

func (b *bleveEngine) Match(query string) ([]catalog.Entry, error) {
	out := make([]catalog.Entry, 0)
	if query == "" || len(b.entries) == 0 {
		return out, nil
	}

	byName := bleve.NewRegexpQuery(".*" + regexp.QuoteMeta(query) + ".*")
	byName.SetField("name")
	byID := bleve.NewTermQuery(query)
	byID.SetField("id")

	req := bleve.NewSearchRequestOptions(bleve.NewDisjunctionQuery(byName, byID), len(b.entries), 0, false)
	req.SortBy([]string{"_id"})
	res, err := b.idx.Search(req)
	if err != nil {
		return nil, fmt.Errorf("searching %q: %w", query, err)
	}

	for _, h := range res.Hits {
		ord, err := strconv.Atoi(h.ID)
		if err != nil || ord < 0 || ord >= len(b.entries) {
			continue
		}
		out = append(out, b.entries[ord])
	}
	return out, nil
}

// DocCount reports total documents in the index.
func (b *bleveEngine) DocCount() (int, error) {
	n, err := b.idx.DocCount()
	return int(n), err
}

func docIDForOrdinal(i int) string { return fmt.Sprintf("%08d", i) }
