package session

import (
	"context"

	"docgrip/internal/domain"
	"docgrip/internal/query"
)

// DocsetLookup resolves installed docsets by name
type DocsetLookup interface {
	Docset(name string) (domain.Docset, bool)
}

// Registry is the shared docset catalog as seen by a session
type Registry interface {
	DocsetLookup
	Docsets() []domain.Docset
	Index() []domain.IndexEntry
	// Search runs asynchronously and answers with a SearchCompleted event
	// carrying tag
	Search(ctx context.Context, q query.Query, tag domain.SearchTag)
}

// Renderer displays pages and owns the back/forward stack. It reports
// navigation by calling the session's URLChanged and TitleChanged.
type Renderer interface {
	Load(url string)
	CurrentURL() string
	CanGoBack() bool
	CanGoForward() bool
	Back()
	Forward()
	History() domain.History
	ShowSearchBar()
}

// Notifier receives the session's outbound notifications
type Notifier interface {
	IconChanged(icon domain.Icon)
	TitleChanged(title string)
}

// NullNotifier discards notifications
type NullNotifier struct{}

func (NullNotifier) IconChanged(domain.Icon) {}
func (NullNotifier) TitleChanged(string) {}
