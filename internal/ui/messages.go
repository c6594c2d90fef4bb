package ui

import (
	"time"

	"docgrip/internal/eventbus"
)

// EventMsg wraps a domain event for the UI
type EventMsg struct {
	Event eventbus.DomainEvent
}

// TabEventMsg carries an event posted by a tab from another goroutine, such
// as an expired debounce timer, back to the UI goroutine
type TabEventMsg struct {
	TabID string
	Event any
}

// tickMsg is sent on a timer for the scan spinner
type tickMsg time.Time

// pagerMsg reports the end of an ov pager session
type pagerMsg struct {
	err error
}

// clearStatusMsg clears the status line
type clearStatusMsg struct{}

// pauseRenderingMsg signals to pause Bubble Tea rendering
type pauseRenderingMsg struct{}

// resumeRenderingMsg signals to resume Bubble Tea rendering
type resumeRenderingMsg struct{}
