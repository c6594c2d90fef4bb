// Package registry holds the installed docsets shared by every tab and runs
// searches across them.
package registry

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/Laisky/errors/v2"
	"github.com/Laisky/zap"
	"golang.org/x/sync/errgroup"

	"docgrip/internal/config"
	"docgrip/internal/docset"
	"docgrip/internal/domain"
	"docgrip/internal/eventbus"
	"docgrip/internal/log"
	"docgrip/internal/query"
)

// parallel docset queries per search
const searchConcurrency = 8

// Searchable is a docset the registry can query and release
type Searchable interface {
	domain.Docset
	Search(ctx context.Context, text string, limit int) ([]domain.SearchResult, error)
	Close() error
}

var _ Searchable = (*docset.Docset)(nil)

// Option customises a Registry during construction
type Option func(*Registry)

// WithMaxResults caps the number of merged results per search
func WithMaxResults(n int) Option {
	return func(r *Registry) {
		if n > 0 {
			r.maxResults = n
		}
	}
}

// WithOpener replaces docset.Open when loading bundles from disk
func WithOpener(open func(path string) (Searchable, error)) Option {
	return func(r *Registry) {
		if open != nil {
			r.open = open
		}
	}
}

// Registry is the process wide docset catalog. Only the registry mutates it;
// every change is announced on the bus.
type Registry struct {
	bus        eventbus.EventBus
	mu         sync.RWMutex
	docsets    map[string]Searchable
	maxResults int
	open       func(path string) (Searchable, error)
	closed     bool
	wg         sync.WaitGroup
	logger     *zap.Logger
}

// New creates an empty registry publishing to bus
func New(bus eventbus.EventBus, opts ...Option) *Registry {
	r := &Registry{
		bus:        bus,
		docsets:    make(map[string]Searchable),
		maxResults: config.DefaultMaxResults,
		open: func(path string) (Searchable, error) {
			return docset.Open(path)
		},
		logger: log.Logger.Named("registry"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Add puts ds into the catalog, replacing a docset of the same name
func (r *Registry) Add(ds Searchable) {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		_ = ds.Close()
		return
	}
	old, replaced := r.docsets[ds.Name()]
	r.docsets[ds.Name()] = ds
	r.mu.Unlock()

	if replaced && old != ds {
		if err := old.Close(); err != nil {
			r.logger.Warn("close replaced docset", zap.String("docset", ds.Name()), zap.Error(err))
		}
	}

	r.logger.Info("docset added", zap.String("docset", ds.Name()), zap.Bool("replaced", replaced))
	r.bus.Publish(eventbus.DocsetAddedEvent{Name: ds.Name()})
}

// Remove drops the docset called name. It reports whether it was installed.
func (r *Registry) Remove(name string) bool {
	r.mu.Lock()
	ds, ok := r.docsets[name]
	delete(r.docsets, name)
	r.mu.Unlock()
	if !ok {
		return false
	}

	if err := ds.Close(); err != nil {
		r.logger.Warn("close removed docset", zap.String("docset", name), zap.Error(err))
	}
	r.logger.Info("docset removed", zap.String("docset", name))
	r.bus.Publish(eventbus.DocsetRemovedEvent{Name: name})
	return true
}

// Docset looks up an installed docset by name
func (r *Registry) Docset(name string) (domain.Docset, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ds, ok := r.docsets[name]
	if !ok {
		return nil, false
	}
	return ds, true
}

// Docsets returns the installed docsets ordered by title
func (r *Registry) Docsets() []domain.Docset {
	list := r.snapshot()
	out := make([]domain.Docset, len(list))
	for i, ds := range list {
		out[i] = ds
	}
	return out
}

// Count is the number of installed docsets
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.docsets)
}

// Index lists the start page of every docset, in title order
func (r *Registry) Index() []domain.IndexEntry {
	var entries []domain.IndexEntry
	for _, ds := range r.snapshot() {
		u := ds.IndexURL()
		if u == "" {
			continue
		}
		entries = append(entries, domain.IndexEntry{
			Title:  ds.Title(),
			URL:    u,
			Docset: ds.Name(),
			Icon:   ds.Icon(),
		})
	}
	return entries
}

// Search runs q in the background and publishes a SearchCompleted event
// carrying tag. Nothing is published when ctx is cancelled first.
func (r *Registry) Search(ctx context.Context, q query.Query, tag domain.SearchTag) {
	r.mu.RLock()
	if r.closed {
		r.mu.RUnlock()
		return
	}
	r.wg.Add(1)
	r.mu.RUnlock()

	go func() {
		defer r.wg.Done()

		results, err := r.SearchSync(ctx, q)
		if err != nil {
			r.logger.Debug("search abandoned",
				zap.String("query", q.String()),
				zap.Uint64("seq", tag.Seq),
				zap.Error(err))
			return
		}
		r.bus.Publish(eventbus.SearchCompletedEvent{
			Tag:     tag,
			Query:   q.String(),
			Results: results,
		})
	}()
}

// SearchSync queries every docset passing the keyword filter and merges the
// results. A failing docset only contributes nothing; the returned error is
// the context error when ctx ends before the search does.
func (r *Registry) SearchSync(ctx context.Context, q query.Query) ([]domain.SearchResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if q.Text == "" {
		return nil, nil
	}

	var targets []Searchable
	for _, ds := range r.snapshot() {
		if q.Matches(ds.Keywords()) {
			targets = append(targets, ds)
		}
	}

	var (
		mu      sync.Mutex
		results []domain.SearchResult
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(searchConcurrency)
	for _, ds := range targets {
		g.Go(func() error {
			found, err := ds.Search(gctx, q.Text, r.maxResults)
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				r.logger.Warn("docset search failed", zap.String("docset", ds.Name()), zap.Error(err))
				return nil
			}
			mu.Lock()
			results = append(results, found...)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, errors.Wrap(err, "search docsets")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	docset.SortResults(results)
	if len(results) > r.maxResults {
		results = results[:r.maxResults]
	}
	r.logger.Debug("search finished",
		zap.String("query", q.String()),
		zap.Int("docsets", len(targets)),
		zap.Int("results", len(results)))
	return results, nil
}

// Load opens the docset bundles at paths and adds them. Bundles that fail to
// open are logged and skipped; the number added is returned.
func (r *Registry) Load(ctx context.Context, paths []string) (int, error) {
	added := 0
	for _, p := range paths {
		if err := ctx.Err(); err != nil {
			return added, err
		}
		ds, err := r.open(p)
		if err != nil {
			r.logger.Warn("open docset", zap.String("path", p), zap.Error(err))
			r.bus.Publish(eventbus.ErrorEvent{Message: "failed to open docset " + p, Err: err})
			continue
		}
		r.Add(ds)
		added++
	}
	return added, nil
}

// Close waits for running searches and releases every docset
func (r *Registry) Close() error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	r.closed = true
	r.mu.Unlock()

	r.wg.Wait()

	r.mu.Lock()
	defer r.mu.Unlock()

	var firstErr error
	for name, ds := range r.docsets {
		if err := ds.Close(); err != nil && firstErr == nil {
			firstErr = errors.Wrapf(err, "close docset %s", name)
		}
	}
	r.docsets = make(map[string]Searchable)
	return firstErr
}

func (r *Registry) snapshot() []Searchable {
	r.mu.RLock()
	list := make([]Searchable, 0, len(r.docsets))
	for _, ds := range r.docsets {
		list = append(list, ds)
	}
	r.mu.RUnlock()

	sort.Slice(list, func(i, j int) bool {
		ti, tj := strings.ToLower(list[i].Title()), strings.ToLower(list[j].Title())
		if ti != tj {
			return ti < tj
		}
		return list[i].Name() < list[j].Name()
	})
	return list
}
