package discovery

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/Laisky/errors/v2"
	"github.com/Laisky/zap"
	"github.com/fsnotify/fsnotify"

	"docgrip/internal/docset"
	"docgrip/internal/eventbus"
	"docgrip/internal/log"
)

const (
	defaultMaxDepth = 3
	// a freshly created bundle is loaded once it has been quiet this long
	defaultSettleDelay = 500 * time.Millisecond
)

// Catalog is where discovered docsets go
type Catalog interface {
	Load(ctx context.Context, paths []string) (int, error)
	Remove(name string) bool
}

// DiscoveryService finds docset bundles in the filesystem
type DiscoveryService interface {
	// Scan walks roots and loads every bundle found, returning how many loaded
	Scan(ctx context.Context, roots []string) (int, error)
	// StartScan runs Scan in the background
	StartScan(ctx context.Context, roots []string) error
	// Watch follows bundles appearing in and vanishing from roots until ctx ends
	Watch(ctx context.Context, roots []string) error
	StopScan()
}

// Option customises the discovery service
type Option func(*discoveryService)

// WithMaxDepth limits how deep below a root bundles are searched for
func WithMaxDepth(depth int) Option {
	return func(ds *discoveryService) {
		if depth >= 0 {
			ds.maxDepth = depth
		}
	}
}

// WithSettleDelay sets how long a new bundle must be quiet before loading
func WithSettleDelay(d time.Duration) Option {
	return func(ds *discoveryService) {
		if d > 0 {
			ds.settle = d
		}
	}
}

type discoveryService struct {
	bus        eventbus.EventBus
	catalog    Catalog
	mu         sync.Mutex
	isScanning bool
	cancelFunc context.CancelFunc
	wg         sync.WaitGroup
	maxDepth   int
	settle     time.Duration
	logger     *zap.Logger
}

// NewDiscoveryService creates a new discovery service
func NewDiscoveryService(bus eventbus.EventBus, catalog Catalog, opts ...Option) DiscoveryService {
	ds := &discoveryService{
		bus:      bus,
		catalog:  catalog,
		maxDepth: defaultMaxDepth,
		settle:   defaultSettleDelay,
		logger:   log.Logger.Named("discovery"),
	}
	for _, opt := range opts {
		opt(ds)
	}
	return ds
}

func (ds *discoveryService) Scan(ctx context.Context, roots []string) (int, error) {
	ds.bus.Publish(eventbus.ScanStartedEvent{Paths: roots})

	found := 0
	defer func() {
		ds.bus.Publish(eventbus.ScanCompletedEvent{DocsetsFound: found})
	}()

	for _, root := range roots {
		if err := ctx.Err(); err != nil {
			return found, err
		}
		bundles := ds.scanDirectory(ctx, root)
		n, err := ds.catalog.Load(ctx, bundles)
		found += n
		if err != nil {
			return found, err
		}
	}

	ds.logger.Info("scan finished", zap.Strings("roots", roots), zap.Int("docsets", found))
	return found, nil
}

func (ds *discoveryService) StartScan(ctx context.Context, roots []string) error {
	ds.mu.Lock()
	if ds.isScanning {
		ds.mu.Unlock()
		return errors.New("scan already in progress")
	}
	ds.isScanning = true

	scanCtx, cancel := context.WithCancel(ctx)
	ds.cancelFunc = cancel
	ds.mu.Unlock()

	ds.wg.Add(1)
	go func() {
		defer ds.wg.Done()
		defer func() {
			ds.mu.Lock()
			ds.isScanning = false
			ds.cancelFunc = nil
			ds.mu.Unlock()
			cancel()
		}()

		if _, err := ds.Scan(scanCtx, roots); err != nil && !errors.Is(err, context.Canceled) {
			ds.logger.Error("scan docsets", zap.Error(err))
		}
	}()

	return nil
}

func (ds *discoveryService) StopScan() {
	ds.mu.Lock()
	if ds.cancelFunc != nil {
		ds.cancelFunc()
	}
	ds.mu.Unlock()

	ds.wg.Wait()
}

// scanDirectory collects the bundles below root
func (ds *discoveryService) scanDirectory(ctx context.Context, root string) []string {
	var bundles []string

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if err != nil {
			ds.logger.Debug("walk path", zap.String("path", path), zap.Error(err))
			if path == root {
				return err
			}
			return nil
		}
		if !d.IsDir() {
			return nil
		}

		relPath, _ := filepath.Rel(root, path)
		depth := strings.Count(relPath, string(filepath.Separator))
		if depth > ds.maxDepth {
			return fs.SkipDir
		}

		if strings.HasSuffix(d.Name(), docset.Extension) {
			bundles = append(bundles, path)
			return fs.SkipDir
		}

		if path != root && strings.HasPrefix(d.Name(), ".") {
			return fs.SkipDir
		}
		return nil
	})

	switch {
	case err == nil, errors.Is(err, context.Canceled):
	case errors.Is(err, fs.ErrNotExist):
		ds.logger.Info("docset directory does not exist", zap.String("root", root))
	default:
		ds.logger.Warn("scan directory", zap.String("root", root), zap.Error(err))
		ds.bus.Publish(eventbus.ErrorEvent{
			Message: "failed to scan " + root,
			Err:     err,
		})
	}

	return bundles
}

func (ds *discoveryService) Watch(ctx context.Context, roots []string) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.Wrap(err, "create docset watcher")
	}

	watched := 0
	for _, root := range roots {
		if err := watcher.Add(root); err != nil {
			ds.logger.Warn("watch docset directory", zap.String("root", root), zap.Error(err))
			continue
		}
		watched++
	}
	if watched == 0 {
		watcher.Close()
		return errors.Errorf("none of %d docset directories can be watched", len(roots))
	}

	ds.wg.Add(1)
	go func() {
		defer ds.wg.Done()
		defer watcher.Close()
		ds.watchLoop(ctx, watcher)
	}()
	return nil
}

func (ds *discoveryService) watchLoop(ctx context.Context, watcher *fsnotify.Watcher) {
	pending := make(map[string]*time.Timer)
	settled := make(chan string)
	defer func() {
		for _, t := range pending {
			t.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return

		case ev, ok := <-watcher.Events:
			if !ok {
				return
			}
			if !strings.HasSuffix(ev.Name, docset.Extension) {
				continue
			}

			switch {
			case ev.Has(fsnotify.Create):
				if t, ok := pending[ev.Name]; ok {
					t.Stop()
				}
				path := ev.Name
				pending[path] = time.AfterFunc(ds.settle, func() {
					select {
					case settled <- path:
					case <-ctx.Done():
					}
				})

			case ev.Has(fsnotify.Remove), ev.Has(fsnotify.Rename):
				if t, ok := pending[ev.Name]; ok {
					t.Stop()
					delete(pending, ev.Name)
				}
				name := strings.TrimSuffix(filepath.Base(ev.Name), docset.Extension)
				if ds.catalog.Remove(name) {
					ds.logger.Info("docset vanished", zap.String("path", ev.Name))
				}
			}

		case path := <-settled:
			delete(pending, path)
			if st, err := os.Stat(path); err != nil || !st.IsDir() {
				continue
			}
			if _, err := ds.catalog.Load(ctx, []string{path}); err != nil {
				ds.logger.Debug("load new docset", zap.String("path", path), zap.Error(err))
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			ds.logger.Warn("docset watcher", zap.Error(err))
		}
	}
}
