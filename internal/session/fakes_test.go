package session

import (
	"context"
	"sort"
	"testing"
	"time"

	"docgrip/internal/domain"
	"docgrip/internal/query"
)

func docURL(docset, page string) string {
	return "file:///docsets/" + docset + ".docset/Contents/Resources/Documents/" + page
}

type fakeDocset struct {
	name     string
	keywords []string
	links    map[string][]domain.TocEntry
}

func (d *fakeDocset) Name() string { return d.name }
func (d *fakeDocset) Title() string { return d.name }
func (d *fakeDocset) Icon() domain.Icon { return domain.Icon{Docset: d.name, Path: "/icons/" + d.name + ".png"} }
func (d *fakeDocset) Keywords() []string { return d.keywords }
func (d *fakeDocset) IndexURL() string { return docURL(d.name, "index.html") }

func (d *fakeDocset) RelatedLinks(pageURL string) []domain.TocEntry {
	return d.links[pageURL]
}

type searchCall struct {
	ctx context.Context
	q   query.Query
	tag domain.SearchTag
}

type fakeRegistry struct {
	docsets  map[string]*fakeDocset
	searches []searchCall
	onSearch func(searchCall)
}

func newFakeRegistry(docsets ...*fakeDocset) *fakeRegistry {
	r := &fakeRegistry{docsets: make(map[string]*fakeDocset)}
	for _, ds := range docsets {
		r.docsets[ds.name] = ds
	}
	return r
}

func (r *fakeRegistry) Docset(name string) (domain.Docset, bool) {
	ds, ok := r.docsets[name]
	if !ok {
		return nil, false
	}
	return ds, true
}

func (r *fakeRegistry) Docsets() []domain.Docset {
	names := make([]string, 0, len(r.docsets))
	for name := range r.docsets {
		names = append(names, name)
	}
	sort.Strings(names)
	out := make([]domain.Docset, 0, len(names))
	for _, name := range names {
		out = append(out, r.docsets[name])
	}
	return out
}

func (r *fakeRegistry) Index() []domain.IndexEntry {
	var out []domain.IndexEntry
	for _, ds := range r.Docsets() {
		out = append(out, domain.IndexEntry{Title: ds.Title(), URL: ds.IndexURL(), Docset: ds.Name(), Icon: ds.Icon()})
	}
	return out
}

func (r *fakeRegistry) Search(ctx context.Context, q query.Query, tag domain.SearchTag) {
	call := searchCall{ctx: ctx, q: q, tag: tag}
	r.searches = append(r.searches, call)
	if r.onSearch != nil {
		r.onSearch(call)
	}
}

func (r *fakeRegistry) last() searchCall {
	return r.searches[len(r.searches)-1]
}

type listener interface {
	URLChanged(string)
	TitleChanged(string)
}

// fakeRenderer keeps browser style history. With deferred set, Load only
// records the request until finish is called.
type fakeRenderer struct {
	listener  listener
	entries   []string
	cur       int
	loads     []string
	titles    map[string]string
	deferred  bool
	searchBar bool
}

func newFakeRenderer() *fakeRenderer {
	return &fakeRenderer{cur: -1, titles: make(map[string]string)}
}

func (r *fakeRenderer) Load(u string) {
	r.loads = append(r.loads, u)
	r.entries = append(r.entries[:r.cur+1], u)
	r.cur = len(r.entries) - 1
	if !r.deferred {
		r.finish()
	}
}

func (r *fakeRenderer) finish() {
	if r.listener == nil {
		return
	}
	u := r.CurrentURL()
	r.listener.URLChanged(u)
	r.listener.TitleChanged(r.titles[u])
}

func (r *fakeRenderer) CurrentURL() string {
	if r.cur < 0 {
		return ""
	}
	return r.entries[r.cur]
}

func (r *fakeRenderer) CanGoBack() bool { return r.cur > 0 }
func (r *fakeRenderer) CanGoForward() bool { return r.cur >= 0 && r.cur < len(r.entries)-1 }

func (r *fakeRenderer) Back() {
	if r.CanGoBack() {
		r.cur--
		r.finish()
	}
}

func (r *fakeRenderer) Forward() {
	if r.CanGoForward() {
		r.cur++
		r.finish()
	}
}

func (r *fakeRenderer) History() domain.History { return r }
func (r *fakeRenderer) ShowSearchBar() { r.searchBar = true }

func (r *fakeRenderer) BackItems(n int) []domain.HistoryItem {
	var out []domain.HistoryItem
	for i := max(0, r.cur-n); i < r.cur; i++ {
		out = append(out, domain.HistoryItem{Index: i, URL: r.entries[i], Title: r.titles[r.entries[i]]})
	}
	return out
}

func (r *fakeRenderer) ForwardItems(n int) []domain.HistoryItem {
	var out []domain.HistoryItem
	for i := r.cur + 1; i < len(r.entries) && i <= r.cur+n; i++ {
		out = append(out, domain.HistoryItem{Index: i, URL: r.entries[i], Title: r.titles[r.entries[i]]})
	}
	return out
}

func (r *fakeRenderer) GoToItem(item domain.HistoryItem) {
	if item.Index < 0 || item.Index >= len(r.entries) || r.entries[item.Index] != item.URL {
		return
	}
	r.cur = item.Index
	r.finish()
}

type manualTimer struct {
	at      time.Duration
	f       func()
	fired   bool
	stopped bool
}

// manualScheduler fires timers only when advanced. With leaky set, stop
// reports failure and the timer still fires, like a timer whose callback was
// already on its way.
type manualScheduler struct {
	now    time.Duration
	timers []*manualTimer
	leaky  bool
}

func (s *manualScheduler) AfterFunc(d time.Duration, f func()) func() bool {
	tm := &manualTimer{at: s.now + d, f: f}
	s.timers = append(s.timers, tm)
	return func() bool {
		if tm.fired || tm.stopped || s.leaky {
			return false
		}
		tm.stopped = true
		return true
	}
}

func (s *manualScheduler) Advance(d time.Duration) {
	target := s.now + d
	for {
		var next *manualTimer
		for _, tm := range s.timers {
			if tm.fired || tm.stopped || tm.at > target {
				continue
			}
			if next == nil || tm.at < next.at {
				next = tm
			}
		}
		if next == nil {
			break
		}
		s.now = next.at
		next.fired = true
		next.f()
	}
	s.now = target
}

type recordingNotifier struct {
	icons  []domain.Icon
	titles []string
}

func (n *recordingNotifier) IconChanged(icon domain.Icon) { n.icons = append(n.icons, icon) }
func (n *recordingNotifier) TitleChanged(title string) { n.titles = append(n.titles, title) }

type env struct {
	tab      *Tab
	registry *fakeRegistry
	renderer *fakeRenderer
	clock    *manualScheduler
	notes    *recordingNotifier
}

func pythonDocset() *fakeDocset {
	return &fakeDocset{name: "Python_3", keywords: []string{"python", "py"}, links: map[string][]domain.TocEntry{
		docURL("Python_3", "library/stdtypes.html"): {
			{Title: "str.split", URL: docURL("Python_3", "library/stdtypes.html#str.split")},
			{Title: "str.join", URL: docURL("Python_3", "library/stdtypes.html#str.join")},
		},
	}}
}

func goDocset() *fakeDocset {
	return &fakeDocset{name: "Go", keywords: []string{"go"}, links: map[string][]domain.TocEntry{
		docURL("Go", "pkg/strings.html"): {
			{Title: "strings.Split", URL: docURL("Go", "pkg/strings.html#Split")},
			{Title: "strings.Join", URL: docURL("Go", "pkg/strings.html#Join")},
		},
	}}
}

func newEnv(t *testing.T, opts ...Option) *env {
	t.Helper()
	e := &env{
		registry: newFakeRegistry(pythonDocset(), goDocset()),
		renderer: newFakeRenderer(),
		clock:    &manualScheduler{},
		notes:    &recordingNotifier{},
	}
	opts = append([]Option{WithID("tab-1"), WithScheduler(e.clock), WithNotifier(e.notes)}, opts...)
	e.tab = New(e.registry, e.renderer, opts...)
	e.renderer.listener = e.tab
	return e
}

func (e *env) complete(call searchCall, results ...domain.SearchResult) {
	e.tab.Dispatch(domain.SearchCompletedEvent{Tag: call.tag, Query: call.q.String(), Results: results})
}

func result(docset, title, page string) domain.SearchResult {
	return domain.SearchResult{Title: title, URL: docURL(docset, page), Docset: docset}
}
