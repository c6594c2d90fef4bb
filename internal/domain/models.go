package domain

import (
	"net/url"
	"regexp"
)

// Icon identifies the image shown next to an entry. The zero value is the
// generic application logo.
type Icon struct {
	Docset string // docset the icon belongs to ("" for the default icon)
	Path   string // icon.png inside the docset, may be empty
}

// DefaultIcon is used whenever no docset can be resolved
var DefaultIcon = Icon{}

// IsDefault reports whether this is the generic logo
func (i Icon) IsDefault() bool {
	return i == DefaultIcon
}

// SearchResult is one ranked match produced by the registry
type SearchResult struct {
	Title  string
	URL    string
	Docset string
	Type   string // symbol type from the index (Function, Class, ...)
	Icon   Icon
	Score  int
}

// TocEntry is one link related to the displayed page
type TocEntry struct {
	Title string
	URL   string
	Type  string
}

// IndexEntry is one row of the full catalog shown when the query is empty
type IndexEntry struct {
	Title  string
	URL    string
	Docset string
	Icon   Icon
}

// Docset is one installed documentation set as seen by sessions
type Docset interface {
	Name() string
	Title() string
	Icon() Icon
	Keywords() []string
	IndexURL() string
	RelatedLinks(pageURL string) []TocEntry
}

// HistoryItem is one position in a renderer's back/forward stack. Index is
// the stack position at the time the item was listed.
type HistoryItem struct {
	Index int
	URL   string
	Title string
}

// History is a renderer's back/forward stack
type History interface {
	// BackItems returns up to n entries before the current one, oldest first
	BackItems(n int) []HistoryItem
	// ForwardItems returns up to n entries after the current one, nearest first
	ForwardItems(n int) []HistoryItem
	// GoToItem jumps straight to item; items gone from the stack are ignored
	GoToItem(item HistoryItem)
}

// SearchTag correlates a search completion with the dispatch that produced it
type SearchTag struct {
	Session string
	Seq     uint64
}

var docsetNameRe = regexp.MustCompile(`/([^/]+)[.]docset`)

// DocsetName extracts the owning docset name from a page URL
// ("file:///docsets/Python_3.docset/Contents/..." -> "Python_3").
// It returns "" when the URL does not point into a docset.
func DocsetName(rawURL string) string {
	path := rawURL
	if u, err := url.Parse(rawURL); err == nil {
		path = u.Path
	}
	m := docsetNameRe.FindStringSubmatch(path)
	if m == nil {
		return ""
	}
	return m[1]
}
