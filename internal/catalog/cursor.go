package catalog

// PageRequest describes one list request against the gateway.
type PageRequest struct {
	Offset int
	Limit  int

	generation uint64
}

// Cursor tracks pagination progress: the next offset to request and whether
// the end of the catalog has been reached.
//
// Next must not be called again until the previous page's outcome has been
// applied; the Coordinator enforces this through its Loading state.
type Cursor struct {
	offset    int
	exhausted bool
}

// Next returns the descriptor for the next page.
func (c *Cursor) Next(limit int) PageRequest {
	return PageRequest{Offset: c.offset, Limit: limit}
}

// Apply advances the offset by the number of entries fetched and records
// whether another page exists.
func (c *Cursor) Apply(fetched int, hasNext bool) {
	if fetched > 0 {
		c.offset += fetched
	}
	c.exhausted = !hasNext
}

// Reset rewinds the cursor to the start of the catalog.
func (c *Cursor) Reset() {
	c.offset = 0
	c.exhausted = false
}

func (c *Cursor) Offset() int     { return c.offset }
func (c *Cursor) Exhausted() bool { return c.exhausted }
