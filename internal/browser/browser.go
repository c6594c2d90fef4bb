// Package browser renders docset pages as text and keeps a back/forward
// history for one tab.
package browser

import (
	"strings"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/Laisky/zap"

	"docgrip/internal/config"
	"docgrip/internal/domain"
	"docgrip/internal/log"
)

// Listener receives navigation notifications
type Listener interface {
	URLChanged(url string)
	TitleChanged(title string)
}

// Option customises a Browser
type Option func(*Browser)

// WithStartPage sets the page shown for the start page URL
func WithStartPage(u string) Option {
	return func(b *Browser) {
		if u != "" {
			b.startPage = u
		}
	}
}

var _ domain.History = (*Browser)(nil)

// Browser is the content renderer of one tab
type Browser struct {
	listener  Listener
	conv      *converter.Converter
	entries   []domain.HistoryItem
	cur       int
	page      Page
	startPage string

	searchBar bool
	findTerm  string

	logger *zap.Logger
}

// New creates a browser with an empty history
func New(opts ...Option) *Browser {
	b := &Browser{
		conv:      newConverter(),
		cur:       -1,
		page:      Page{AnchorLine: -1},
		startPage: config.DefaultStartPage,
		logger:    log.Logger.Named("browser"),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// SetListener replaces the navigation listener
func (b *Browser) SetListener(l Listener) {
	b.listener = l
}

// StartPage is the URL of the start page
func (b *Browser) StartPage() string {
	return b.startPage
}

// Load shows rawURL and records it in history, dropping forward entries.
// Loading the current URL again only re-renders it.
func (b *Browser) Load(rawURL string) {
	if b.cur >= 0 && b.entries[b.cur].URL == rawURL {
		b.show()
		return
	}

	b.entries = append(b.entries[:b.cur+1], domain.HistoryItem{URL: rawURL})
	b.cur = len(b.entries) - 1
	b.show()
}

// Reload renders the current page again
func (b *Browser) Reload() {
	if b.cur >= 0 {
		b.show()
	}
}

// CurrentURL is the displayed URL, "" before the first load
func (b *Browser) CurrentURL() string {
	if b.cur < 0 {
		return ""
	}
	return b.entries[b.cur].URL
}

// Title is the displayed page title
func (b *Browser) Title() string {
	return b.page.Title
}

// Page returns the rendered page
func (b *Browser) Page() Page {
	return b.page
}

func (b *Browser) CanGoBack() bool {
	return b.cur > 0
}

func (b *Browser) CanGoForward() bool {
	return b.cur >= 0 && b.cur < len(b.entries)-1
}

func (b *Browser) Back() {
	if b.CanGoBack() {
		b.cur--
		b.show()
	}
}

func (b *Browser) Forward() {
	if b.CanGoForward() {
		b.cur++
		b.show()
	}
}

// History exposes the back/forward stack
func (b *Browser) History() domain.History {
	return b
}

func (b *Browser) BackItems(n int) []domain.HistoryItem {
	if n <= 0 || b.cur <= 0 {
		return nil
	}
	start := max(0, b.cur-n)
	return b.items(start, b.cur)
}

func (b *Browser) ForwardItems(n int) []domain.HistoryItem {
	if n <= 0 || !b.CanGoForward() {
		return nil
	}
	end := min(len(b.entries), b.cur+1+n)
	return b.items(b.cur+1, end)
}

func (b *Browser) GoToItem(item domain.HistoryItem) {
	if item.Index < 0 || item.Index >= len(b.entries) || b.entries[item.Index].URL != item.URL {
		b.logger.Debug("ignore stale history item", zap.String("url", item.URL), zap.Int("index", item.Index))
		return
	}
	if item.Index == b.cur {
		return
	}
	b.cur = item.Index
	b.show()
}

func (b *Browser) items(from, to int) []domain.HistoryItem {
	out := make([]domain.HistoryItem, 0, to-from)
	for i := from; i < to; i++ {
		e := b.entries[i]
		e.Index = i
		out = append(out, e)
	}
	return out
}

// ShowSearchBar opens find-in-page
func (b *Browser) ShowSearchBar() {
	b.searchBar = true
}

// HideSearchBar closes find-in-page and forgets the term
func (b *Browser) HideSearchBar() {
	b.searchBar = false
	b.findTerm = ""
}

// SearchBarVisible reports whether find-in-page is open
func (b *Browser) SearchBarVisible() bool {
	return b.searchBar
}

// FindTerm is the last term passed to Find
func (b *Browser) FindTerm() string {
	return b.findTerm
}

// Find returns the lines of the page containing term, ignoring case
func (b *Browser) Find(term string) []int {
	b.findTerm = term
	if term == "" {
		return nil
	}
	needle := strings.ToLower(term)
	var lines []int
	for i, line := range b.page.Lines() {
		if strings.Contains(strings.ToLower(line), needle) {
			lines = append(lines, i)
		}
	}
	return lines
}

func (b *Browser) show() {
	entry := &b.entries[b.cur]
	b.page = b.render(entry.URL)
	entry.Title = b.page.Title
	b.findTerm = ""

	b.logger.Debug("page shown", zap.String("url", entry.URL), zap.Int("position", b.cur))
	if b.listener != nil {
		b.listener.URLChanged(entry.URL)
		b.listener.TitleChanged(b.page.Title)
	}
}
