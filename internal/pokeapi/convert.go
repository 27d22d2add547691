package pokeapi

import "github.com/pders01/dex/internal/catalog"

// Entries converts the page results into catalog entries. Results without a
// derivable identity are dropped and counted.
func (p *ListPage) Entries() (entries []catalog.Entry, dropped int) {
	if p == nil {
		return nil, 0
	}
	entries = make([]catalog.Entry, 0, len(p.Results))
	for _, r := range p.Results {
		e, ok := catalog.NewEntry(r.Name, r.URL)
		if !ok {
			dropped++
			continue
		}
		entries = append(entries, e)
	}
	return entries, dropped
}

// CatalogPage adapts a list response to the coordinator's page shape.
func (p *ListPage) CatalogPage() catalog.Page {
	entries, _ := p.Entries()
	return catalog.Page{
		Entries: entries,
		Fetched: len(p.Results),
		HasNext: p.HasNext(),
	}
}
