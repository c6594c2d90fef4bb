package eventbus

import (
	"runtime/debug"
	"sync"

	"github.com/Laisky/zap"

	"docgrip/internal/domain"
	"docgrip/internal/log"
)

// Re-export domain types for convenience
type DomainEvent = domain.DomainEvent
type EventType = domain.EventType

// Event type constants
const (
	EventSearchCompleted = domain.EventSearchCompleted
	EventDocsetAdded     = domain.EventDocsetAdded
	EventDocsetRemoved   = domain.EventDocsetRemoved
	EventScanStarted     = domain.EventScanStarted
	EventScanCompleted   = domain.EventScanCompleted
	EventError           = domain.EventError
)

// Re-export domain event types
type SearchCompletedEvent = domain.SearchCompletedEvent
type DocsetAddedEvent = domain.DocsetAddedEvent
type DocsetRemovedEvent = domain.DocsetRemovedEvent
type ScanStartedEvent = domain.ScanStartedEvent
type ScanCompletedEvent = domain.ScanCompletedEvent
type ErrorEvent = domain.ErrorEvent

// EventHandler is a function that handles domain events
type EventHandler func(DomainEvent)

// EventBus is the interface for the event bus
type EventBus interface {
	Publish(event DomainEvent)
	Subscribe(eventType EventType, handler EventHandler) func()
	Close()
}

type subscription struct {
	id      uint64
	handler EventHandler
}

// bus delivers events from a single dispatcher goroutine so that every
// handler observes events in publish order.
type bus struct {
	mu        sync.RWMutex
	handlers  map[EventType][]subscription
	nextID    uint64
	eventChan chan DomainEvent
	wg        sync.WaitGroup
	quit      chan struct{}
	closeOnce sync.Once
	logger    *zap.Logger
}

const defaultBufferSize = 1000

// New creates a new event bus
func New() EventBus {
	return newBus(defaultBufferSize)
}

func newBus(size int) *bus {
	b := &bus{
		handlers:  make(map[EventType][]subscription),
		eventChan: make(chan DomainEvent, size),
		quit:      make(chan struct{}),
		logger:    log.Logger.Named("eventbus"),
	}

	b.wg.Add(1)
	go b.dispatch()

	return b
}

// IsCatalogEvent reports whether t changes the set of installed docsets.
// Every session has to see these, so they are never dropped.
func IsCatalogEvent(t EventType) bool {
	return t == EventDocsetAdded || t == EventDocsetRemoved
}

// Publish queues an event for all subscribers. When the queue is full, catalog
// events wait for room until the bus closes and other events are dropped.
// Handlers must not publish catalog events.
func (b *bus) Publish(event DomainEvent) {
	switch event.Type() {
	case EventSearchCompleted:
		// too frequent to log
	default:
		b.logger.Debug("publish event", zap.String("type", string(event.Type())))
	}

	if IsCatalogEvent(event.Type()) {
		select {
		case b.eventChan <- event:
		case <-b.quit:
		}
		return
	}

	select {
	case b.eventChan <- event:
	default:
		b.logger.Warn("event bus channel full, dropping event", zap.String("type", string(event.Type())))
	}
}

// Subscribe subscribes to events of a specific type.
// Returns an unsubscribe function.
func (b *bus) Subscribe(eventType EventType, handler EventHandler) func() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	id := b.nextID
	b.handlers[eventType] = append(b.handlers[eventType], subscription{id: id, handler: handler})

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()

		subs := b.handlers[eventType]
		for i, s := range subs {
			if s.id == id {
				b.handlers[eventType] = append(subs[:i:i], subs[i+1:]...)
				break
			}
		}
	}
}

// Close stops the dispatcher. Queued events are discarded.
func (b *bus) Close() {
	b.closeOnce.Do(func() {
		close(b.quit)
	})
	b.wg.Wait()
}

func (b *bus) dispatch() {
	defer b.wg.Done()

	for {
		select {
		case event := <-b.eventChan:
			b.mu.RLock()
			subs := make([]subscription, len(b.handlers[event.Type()]))
			copy(subs, b.handlers[event.Type()])
			b.mu.RUnlock()

			for _, s := range subs {
				b.deliver(s.handler, event)
			}

		case <-b.quit:
			for {
				select {
				case <-b.eventChan:
				default:
					return
				}
			}
		}
	}
}

func (b *bus) deliver(h EventHandler, event DomainEvent) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("event handler panic",
				zap.String("type", string(event.Type())),
				zap.Any("panic", r),
				zap.String("stack", string(debug.Stack())))
		}
	}()
	h(event)
}
