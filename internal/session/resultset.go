package session

// ResultSet is an ordered, replace-on-update list. Every update fires the
// change listeners exactly once, including replacing an empty set with
// another empty one.
type ResultSet[T any] struct {
	items     []T
	listeners []func()
}

// NewResultSet creates an empty set
func NewResultSet[T any]() *ResultSet[T] {
	return &ResultSet[T]{}
}

// OnChange registers f to run after every update
func (s *ResultSet[T]) OnChange(f func()) {
	s.listeners = append(s.listeners, f)
}

func (s *ResultSet[T]) IsEmpty() bool {
	return len(s.items) == 0
}

func (s *ResultSet[T]) Count() int {
	return len(s.items)
}

// At returns the item at i; ok is false when i is out of range
func (s *ResultSet[T]) At(i int) (item T, ok bool) {
	if i < 0 || i >= len(s.items) {
		return item, false
	}
	return s.items[i], true
}

// Items returns a copy of the contents
func (s *ResultSet[T]) Items() []T {
	return append([]T(nil), s.items...)
}

// Replace swaps in items
func (s *ResultSet[T]) Replace(items []T) {
	s.items = append([]T(nil), items...)
	s.notify()
}

// Clear empties the set
func (s *ResultSet[T]) Clear() {
	s.items = nil
	s.notify()
}

// RemoveIf drops every item matching pred in one batch and returns how many
// went away. Listeners run once, and only if something was removed.
func (s *ResultSet[T]) RemoveIf(pred func(T) bool) int {
	kept := s.items[:0:0]
	for _, it := range s.items {
		if !pred(it) {
			kept = append(kept, it)
		}
	}
	removed := len(s.items) - len(kept)
	if removed == 0 {
		return 0
	}
	s.items = kept
	s.notify()
	return removed
}

func (s *ResultSet[T]) notify() {
	for _, f := range s.listeners {
		f()
	}
}
