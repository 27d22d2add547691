package catalog

import (
	"fmt"
	"regexp"
	"strings"
)

// Entry is the lightweight record used for listing and searching.
type Entry struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	URL  string `json:"url"`
}

var identityPattern = regexp.MustCompile(`/(\d+)/?$`)

// IdentityFromLocator extracts the trailing numeric segment of a resource
// locator, e.g. ".../pokemon/25/" -> "25".
func IdentityFromLocator(locator string) (string, bool) {
	m := identityPattern.FindStringSubmatch(strings.TrimSpace(locator))
	if m == nil {
		return "", false
	}
	return m[1], true
}

// NewEntry builds an Entry from a name and locator. It reports false when no
// identity can be derived, in which case the entry must be dropped.
func NewEntry(name, locator string) (Entry, bool) {
	id, ok := IdentityFromLocator(locator)
	if !ok {
		return Entry{}, false
	}
	return Entry{ID: id, Name: name, URL: locator}, true
}

// DisplayID renders the identity zero-padded to three digits ("#025").
func (e Entry) DisplayID() string {
	return FormatID(e.ID)
}

// FormatID pads a numeric identity to at least three digits with a leading '#'.
func FormatID(id string) string {
	if len(id) < 3 {
		id = strings.Repeat("0", 3-len(id)) + id
	}
	return "#" + id
}

func (e Entry) String() string {
	return fmt.Sprintf("%s %s", e.DisplayID(), e.Name)
}

// NormalizeQuery lower-cases and trims a search query. The empty string
// means "no filter".
func NormalizeQuery(q string) string {
	return strings.ToLower(strings.TrimSpace(q))
}
