package session

// URLChangedEvent is reported by the renderer after it switched pages
type URLChangedEvent struct {
	URL string
}

// TitleChangedEvent is reported by the renderer when the page title is known
type TitleChangedEvent struct {
	Title string
}

// Focus is the part of the tab receiving keyboard input
type Focus int

const (
	FocusQuery Focus = iota
	FocusList
	FocusContent
)

func (f Focus) String() string {
	switch f {
	case FocusQuery:
		return "query"
	case FocusList:
		return "list"
	case FocusContent:
		return "content"
	default:
		return "unknown"
	}
}

// View names a list an entry can be opened from
type View int

const (
	// ViewList is the docset index or the search results, whichever is shown
	ViewList View = iota
	ViewToc
)

// State summarises what the tab is doing. It is derived, never stored.
type State int

const (
	StateShowingIndex State = iota
	StateShowingResults
	StateNavigating
	StateIdle
)

func (s State) String() string {
	switch s {
	case StateShowingIndex:
		return "ShowingIndex"
	case StateShowingResults:
		return "ShowingResults"
	case StateNavigating:
		return "Navigating"
	case StateIdle:
		return "Idle"
	default:
		return "Unknown"
	}
}
