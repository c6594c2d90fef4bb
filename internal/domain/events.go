package domain

// EventType represents the type of domain event
type EventType string

// Event types
const (
	EventSearchCompleted EventType = "SearchCompleted"
	EventDocsetAdded     EventType = "DocsetAdded"
	EventDocsetRemoved   EventType = "DocsetRemoved"
	EventScanStarted     EventType = "ScanStarted"
	EventScanCompleted   EventType = "ScanCompleted"
	EventError           EventType = "Error"
)

// DomainEvent is the interface for all domain events
type DomainEvent interface {
	Type() EventType
}

// SearchCompletedEvent carries the results of one registry search
type SearchCompletedEvent struct {
	Tag     SearchTag
	Query   string
	Results []SearchResult
}

func (e SearchCompletedEvent) Type() EventType { return EventSearchCompleted }

// DocsetAddedEvent is emitted after a docset joined the registry
type DocsetAddedEvent struct {
	Name string
}

func (e DocsetAddedEvent) Type() EventType { return EventDocsetAdded }

// DocsetRemovedEvent is emitted after a docset left the registry
type DocsetRemovedEvent struct {
	Name string
}

func (e DocsetRemovedEvent) Type() EventType { return EventDocsetRemoved }

// ScanStartedEvent is emitted when docset discovery begins
type ScanStartedEvent struct {
	Paths []string
}

func (e ScanStartedEvent) Type() EventType { return EventScanStarted }

// ScanCompletedEvent is emitted when docset discovery completes
type ScanCompletedEvent struct {
	DocsetsFound int
}

func (e ScanCompletedEvent) Type() EventType { return EventScanCompleted }

// ErrorEvent is emitted when a background operation fails
type ErrorEvent struct {
	Message string
	Err     error
}

func (e ErrorEvent) Type() EventType { return EventError }
