// Package session coordinates one browsing tab: the search box, the result
// and TOC lists, the delayed navigation to the first result, and the
// renderer's history.
//
// A Tab is confined to one goroutine. Everything reaches it through Dispatch
// or the operation methods, which run to completion; events raised while one
// is running (the renderer reporting a URL change during Load, say) are queued
// and handled afterwards in order.
package session

import (
	"context"
	"net/url"
	"sort"
	"time"
	"unicode/utf8"

	"github.com/Laisky/zap"
	"github.com/google/uuid"

	"docgrip/internal/config"
	"docgrip/internal/domain"
	"docgrip/internal/log"
	"docgrip/internal/query"
)

// Option customises a Tab
type Option func(*Tab)

// WithID sets the tab id used to tag searches
func WithID(id string) Option {
	return func(t *Tab) {
		if id != "" {
			t.id = id
		}
	}
}

// WithScheduler replaces the wall clock used for debouncing
func WithScheduler(s Scheduler) Option {
	return func(t *Tab) {
		if s != nil {
			t.scheduler = s
		}
	}
}

// WithPost sets how timer events get back to the tab's goroutine. The
// default dispatches directly, which is only safe with a scheduler firing on
// that goroutine.
func WithPost(post func(ev any)) Option {
	return func(t *Tab) {
		if post != nil {
			t.post = post
		}
	}
}

// WithNotifier receives icon and title changes
func WithNotifier(n Notifier) Option {
	return func(t *Tab) {
		if n != nil {
			t.notifier = n
		}
	}
}

// WithDebounce sets the quiet period before the first result opens
func WithDebounce(d time.Duration) Option {
	return func(t *Tab) {
		if d > 0 {
			t.delay = d
		}
	}
}

// WithMenuSize bounds the back and forward menus
func WithMenuSize(n int) Option {
	return func(t *Tab) {
		if n > 0 {
			t.menuSize = n
		}
	}
}

// WithStartPage sets the page shown for a fresh tab and after its docset
// disappears
func WithStartPage(u string) Option {
	return func(t *Tab) {
		if u != "" {
			t.startPage = u
		}
	}
}

// Tab is the session coordinator of one browsing tab
type Tab struct {
	id        string
	registry  Registry
	renderer  Renderer
	notifier  Notifier
	scheduler Scheduler
	post      func(ev any)
	delay     time.Duration
	menuSize  int
	startPage string

	debounce *Debouncer
	history  *HistoryNavigator
	results  *ResultSet[domain.SearchResult]
	toc      *ResultSet[domain.TocEntry]
	index    []domain.IndexEntry

	queryText    string
	showingIndex bool
	seq          uint64
	searching    bool
	cancelSearch context.CancelFunc
	completions  []string

	focus         Focus
	selStart      int
	selEnd        int
	selected      int
	navigating    bool
	canGoBack     bool
	canGoForward  bool
	icon          domain.Icon
	title         string
	notifiedIcon  *domain.Icon
	notifiedTitle *string
	queue         []any
	dispatching   bool
	closed        bool
	logger        *zap.Logger
}

// New creates a tab showing the docset index. Call Start to load the start
// page.
func New(registry Registry, renderer Renderer, opts ...Option) *Tab {
	t := &Tab{
		id:           uuid.NewString(),
		registry:     registry,
		renderer:     renderer,
		notifier:     NullNotifier{},
		scheduler:    SystemScheduler,
		delay:        config.DefaultDebounce,
		menuSize:     config.DefaultMenuSize,
		startPage:    config.DefaultStartPage,
		results:      NewResultSet[domain.SearchResult](),
		toc:          NewResultSet[domain.TocEntry](),
		showingIndex: true,
		focus:        FocusQuery,
	}
	t.post = t.Dispatch
	for _, opt := range opts {
		opt(t)
	}

	t.logger = log.Logger.Named("session").With(zap.String("tab", t.id))
	t.debounce = NewDebouncer(t.scheduler, func(ev DebounceExpired) { t.post(ev) })
	t.history = NewHistoryNavigator(renderer, registry, t.menuSize)
	t.refreshCompletions()
	t.refreshIndex()
	return t
}

// ID identifies the tab in search tags
func (t *Tab) ID() string { return t.id }

// Start loads the start page unless something is displayed already
func (t *Tab) Start() {
	t.do(func() {
		if t.renderer.CurrentURL() == "" {
			t.navigate(t.startPage)
		}
	})
}

// Close abandons the running search and any pending navigation
func (t *Tab) Close() {
	t.do(func() {
		t.debounce.Cancel()
		t.abandonSearch()
		t.closed = true
	})
}

// Dispatch handles one event. Events arriving while another is being handled
// are queued behind it.
func (t *Tab) Dispatch(ev any) {
	t.queue = append(t.queue, ev)
	if t.dispatching {
		return
	}

	t.dispatching = true
	defer func() { t.dispatching = false }()
	for len(t.queue) > 0 {
		next := t.queue[0]
		t.queue[0] = nil
		t.queue = t.queue[1:]
		t.handle(next)
	}
	t.queue = nil
}

func (t *Tab) do(f func()) {
	t.Dispatch(f)
}

func (t *Tab) handle(ev any) {
	switch ev := ev.(type) {
	case func():
		ev()
	case domain.SearchCompletedEvent:
		t.onSearchCompleted(ev)
	case domain.DocsetAddedEvent:
		t.onDocsetAdded(ev.Name)
	case domain.DocsetRemovedEvent:
		t.onDocsetRemoved(ev.Name)
	case URLChangedEvent:
		t.onURLChanged(ev.URL)
	case TitleChangedEvent:
		t.onTitleChanged(ev.Title)
	case DebounceExpired:
		t.onDebounceExpired(ev)
	default:
		t.logger.Debug("ignore event", zap.Any("event", ev))
	}
}

// URLChanged lets the tab serve as the renderer's listener
func (t *Tab) URLChanged(u string) {
	t.Dispatch(URLChangedEvent{URL: u})
}

// TitleChanged lets the tab serve as the renderer's listener
func (t *Tab) TitleChanged(title string) {
	t.Dispatch(TitleChangedEvent{Title: title})
}

// SetQuery updates the search box text. Nothing happens when it is
// unchanged.
func (t *Tab) SetQuery(text string) {
	t.do(func() {
		if text == t.queryText {
			return
		}
		t.queryText = text
		t.selStart, t.selEnd = 0, 0
		t.search(query.Parse(text))
	})
}

// Search puts q into the search box and runs it even if it is unchanged
func (t *Tab) Search(q query.Query) {
	t.do(func() {
		t.queryText = q.String()
		t.selStart, t.selEnd = 0, 0
		t.search(q)
	})
}

// OpenEntry navigates to entry index of view right away
func (t *Tab) OpenEntry(view View, index int) {
	t.do(func() {
		t.debounce.Cancel()

		target, ok := t.entryURL(view, index)
		if !ok {
			return
		}
		if view == ViewList {
			t.selected = index
		}
		t.navigate(target)
		t.focus = FocusContent
	})
}

// Escape focuses the search box and clears the query, keeping a docset
// keyword prefix
func (t *Tab) Escape() {
	t.do(func() {
		t.focus = FocusQuery
		text := query.KeywordPrefix(t.queryText)
		n := utf8.RuneCountInString(text)
		t.selStart, t.selEnd = n, n
		if text != t.queryText {
			t.queryText = text
			t.search(query.Parse(text))
		}
	})
}

// HelpKey focuses the search box and selects the query after any keyword
// prefix
func (t *Tab) HelpKey() {
	t.do(func() {
		t.focus = FocusQuery
		t.selStart = utf8.RuneCountInString(query.KeywordPrefix(t.queryText))
		t.selEnd = utf8.RuneCountInString(t.queryText)
	})
}

// FocusQueryField moves keyboard focus to the search box
func (t *Tab) FocusQueryField() {
	t.do(func() {
		t.focus = FocusQuery
	})
}

// SetFocus moves keyboard focus
func (t *Tab) SetFocus(f Focus) {
	t.do(func() {
		t.focus = f
	})
}

// ShowSearchBar opens find-in-page
func (t *Tab) ShowSearchBar() {
	t.do(func() {
		t.renderer.ShowSearchBar()
		t.focus = FocusContent
	})
}

// Select highlights an entry of the shown list, clamped to its bounds
func (t *Tab) Select(index int) {
	t.do(func() {
		n := t.listCount()
		switch {
		case n == 0:
			t.selected = 0
		case index < 0:
			t.selected = 0
		case index >= n:
			t.selected = n - 1
		default:
			t.selected = index
		}
	})
}

// Back goes one page back
func (t *Tab) Back() {
	t.do(func() {
		t.debounce.Cancel()
		t.history.Back()
	})
}

// Forward goes one page forward
func (t *Tab) Forward() {
	t.do(func() {
		t.debounce.Cancel()
		t.history.Forward()
	})
}

// BackMenu lists recent pages, icons resolved now
func (t *Tab) BackMenu() []MenuEntry {
	return t.history.BackMenu()
}

// ForwardMenu lists pages ahead, icons resolved now
func (t *Tab) ForwardMenu() []MenuEntry {
	return t.history.ForwardMenu()
}

// ActivateMenuEntry jumps to a history menu entry
func (t *Tab) ActivateMenuEntry(e MenuEntry) {
	t.do(func() {
		t.debounce.Cancel()
		t.history.Activate(e)
	})
}

func (t *Tab) search(q query.Query) {
	t.debounce.Cancel()
	t.abandonSearch()
	t.seq++
	t.selected = 0

	if q.IsEmpty() {
		t.showingIndex = true
		t.results.Clear()
		t.toc.Clear()
		return
	}

	t.showingIndex = false
	ctx, cancel := context.WithCancel(context.Background())
	t.cancelSearch = cancel
	t.searching = true
	t.logger.Debug("search", zap.String("query", q.String()), zap.Uint64("seq", t.seq))
	t.registry.Search(ctx, q, domain.SearchTag{Session: t.id, Seq: t.seq})
}

func (t *Tab) abandonSearch() {
	if t.cancelSearch != nil {
		t.cancelSearch()
		t.cancelSearch = nil
	}
	t.searching = false
}

func (t *Tab) onSearchCompleted(ev domain.SearchCompletedEvent) {
	if ev.Tag.Session != t.id {
		return
	}
	if !t.searching || ev.Tag.Seq != t.seq || t.showingIndex || t.closed {
		t.logger.Debug("drop stale search results",
			zap.Uint64("seq", ev.Tag.Seq),
			zap.Uint64("latest", t.seq))
		return
	}
	t.abandonSearch()

	t.results.Replace(t.installedOnly(ev.Results))
	t.selected = 0
	if t.results.IsEmpty() {
		t.debounce.Cancel()
		return
	}
	t.debounce.Arm(0, t.delay)
}

// installedOnly drops results of docsets removed while the search ran
func (t *Tab) installedOnly(results []domain.SearchResult) []domain.SearchResult {
	kept := make([]domain.SearchResult, 0, len(results))
	for _, r := range results {
		if _, ok := t.registry.Docset(r.Docset); ok {
			kept = append(kept, r)
		}
	}
	if dropped := len(results) - len(kept); dropped > 0 {
		t.logger.Debug("drop results of removed docsets", zap.Int("dropped", dropped))
	}
	return kept
}

func (t *Tab) onDebounceExpired(ev DebounceExpired) {
	if !t.debounce.Accept(ev) {
		return
	}
	if t.showingIndex {
		return
	}
	r, ok := t.results.At(ev.Target)
	if !ok {
		return
	}
	t.selected = ev.Target
	t.navigate(r.URL)
	t.focus = FocusQuery
}

func (t *Tab) onDocsetAdded(name string) {
	t.logger.Debug("docset added", zap.String("docset", name))
	t.refreshCompletions()
	t.refreshIndex()
}

func (t *Tab) onDocsetRemoved(name string) {
	t.logger.Debug("docset removed", zap.String("docset", name))
	t.refreshCompletions()
	t.refreshIndex()

	if domain.DocsetName(t.renderer.CurrentURL()) == name {
		t.toc.Clear()
		t.navigate(t.startPage)
	}

	removed := t.results.RemoveIf(func(r domain.SearchResult) bool {
		return r.Docset == name
	})
	if removed == 0 {
		return
	}
	t.selected = 0
	if t.debounce.Pending() {
		if t.results.IsEmpty() {
			t.debounce.Cancel()
		} else {
			t.debounce.Arm(0, t.delay)
		}
	}
}

func (t *Tab) onURLChanged(u string) {
	t.navigating = false

	icon := domain.DefaultIcon
	var links []domain.TocEntry
	if ds, ok := lookupDocset(t.registry, u); ok {
		icon = ds.Icon()
		links = ds.RelatedLinks(u)
	}
	t.toc.Replace(links)

	t.canGoBack = t.renderer.CanGoBack()
	t.canGoForward = t.renderer.CanGoForward()
	t.setIcon(icon)
}

func (t *Tab) onTitleChanged(title string) {
	if title == "" {
		return
	}
	t.title = title
	if t.notifiedTitle != nil && *t.notifiedTitle == title {
		return
	}
	t.notifiedTitle = &title
	t.notifier.TitleChanged(title)
}

func (t *Tab) setIcon(icon domain.Icon) {
	t.icon = icon
	if t.notifiedIcon != nil && *t.notifiedIcon == icon {
		return
	}
	t.notifiedIcon = &icon
	t.notifier.IconChanged(icon)
}

func (t *Tab) navigate(target string) {
	t.navigating = true
	t.renderer.Load(target)
}

func (t *Tab) entryURL(view View, index int) (string, bool) {
	var target string
	switch {
	case view == ViewToc:
		e, ok := t.toc.At(index)
		if !ok {
			return "", false
		}
		target = e.URL
	case t.showingIndex:
		if index < 0 || index >= len(t.index) {
			return "", false
		}
		target = t.index[index].URL
	default:
		r, ok := t.results.At(index)
		if !ok {
			return "", false
		}
		target = r.URL
	}

	if target == "" {
		return "", false
	}
	if _, err := url.Parse(target); err != nil {
		return "", false
	}
	return target, true
}

func (t *Tab) listCount() int {
	if t.showingIndex {
		return len(t.index)
	}
	return t.results.Count()
}

func (t *Tab) refreshCompletions() {
	seen := make(map[string]bool)
	var completions []string
	for _, ds := range t.registry.Docsets() {
		kw := ds.Keywords()
		if len(kw) == 0 {
			continue
		}
		c := kw[0] + ":"
		if !seen[c] {
			seen[c] = true
			completions = append(completions, c)
		}
	}
	sort.Strings(completions)
	t.completions = completions
}

func (t *Tab) refreshIndex() {
	t.index = t.registry.Index()
}

// Query is the search box text
func (t *Tab) Query() string { return t.queryText }

// ShowingIndex reports whether the docset index is listed instead of results
func (t *Tab) ShowingIndex() bool { return t.showingIndex }

// Results are the search results of the current query
func (t *Tab) Results() *ResultSet[domain.SearchResult] { return t.results }

// Toc lists the links related to the displayed page
func (t *Tab) Toc() *ResultSet[domain.TocEntry] { return t.toc }

// TocVisible reports whether the TOC pane is shown
func (t *Tab) TocVisible() bool { return !t.toc.IsEmpty() }

// Index is the docset catalog listed for an empty query
func (t *Tab) Index() []domain.IndexEntry {
	return append([]domain.IndexEntry(nil), t.index...)
}

// Completions are the docset keyword prefixes offered in the search box
func (t *Tab) Completions() []string {
	return append([]string(nil), t.completions...)
}

// Focus is the widget receiving keys
func (t *Tab) Focus() Focus { return t.focus }

// QuerySelection is the selected rune range of the search box text
func (t *Tab) QuerySelection() (start, end int) { return t.selStart, t.selEnd }

// Selected is the highlighted row of the shown list
func (t *Tab) Selected() int { return t.selected }

// CanGoBack reports whether the renderer has an earlier page
func (t *Tab) CanGoBack() bool { return t.canGoBack }

// CanGoForward reports whether the renderer has a later page
func (t *Tab) CanGoForward() bool { return t.canGoForward }

// Icon belongs to the docset of the displayed page
func (t *Tab) Icon() domain.Icon { return t.icon }

// Title of the displayed page, "" until one reported a title
func (t *Tab) Title() string { return t.title }

// DebouncePending reports whether the first result is about to open
func (t *Tab) DebouncePending() bool { return t.debounce.Pending() }

// State derives what the tab is doing from its fields
func (t *Tab) State() State {
	switch {
	case t.navigating:
		return StateNavigating
	case t.showingIndex:
		return StateShowingIndex
	case t.searching, t.debounce.Pending():
		return StateShowingResults
	default:
		return StateIdle
	}
}
