package session

import "docgrip/internal/domain"

// MenuEntry is one row of a back or forward menu
type MenuEntry struct {
	Title string
	URL   string
	Icon  domain.Icon

	item domain.HistoryItem
}

// HistoryNavigator presents the renderer's back/forward stack as menus of at
// most size entries
type HistoryNavigator struct {
	renderer Renderer
	docsets  DocsetLookup
	size     int
}

// NewHistoryNavigator creates a navigator over renderer's history
func NewHistoryNavigator(renderer Renderer, docsets DocsetLookup, size int) *HistoryNavigator {
	return &HistoryNavigator{renderer: renderer, docsets: docsets, size: size}
}

// BackMenu lists the entries behind the current page, most recent first
func (h *HistoryNavigator) BackMenu() []MenuEntry {
	items := h.renderer.History().BackItems(h.size)
	menu := make([]MenuEntry, 0, len(items))
	for i := len(items) - 1; i >= 0; i-- {
		menu = append(menu, h.entry(items[i]))
	}
	return menu
}

// ForwardMenu lists the entries ahead of the current page, nearest first
func (h *HistoryNavigator) ForwardMenu() []MenuEntry {
	items := h.renderer.History().ForwardItems(h.size)
	menu := make([]MenuEntry, 0, len(items))
	for _, it := range items {
		menu = append(menu, h.entry(it))
	}
	return menu
}

// Activate jumps straight to the entry's position in history
func (h *HistoryNavigator) Activate(e MenuEntry) {
	h.renderer.History().GoToItem(e.item)
}

func (h *HistoryNavigator) Back() {
	h.renderer.Back()
}

func (h *HistoryNavigator) Forward() {
	h.renderer.Forward()
}

func (h *HistoryNavigator) entry(it domain.HistoryItem) MenuEntry {
	title := it.Title
	if title == "" {
		title = it.URL
	}
	return MenuEntry{
		Title: title,
		URL:   it.URL,
		Icon:  resolveIcon(h.docsets, it.URL),
		item:  it,
	}
}

// resolveIcon looks the URL's docset up now; docsets may have come or gone
// since the URL was recorded
func resolveIcon(docsets DocsetLookup, rawURL string) domain.Icon {
	ds, ok := lookupDocset(docsets, rawURL)
	if !ok {
		return domain.DefaultIcon
	}
	return ds.Icon()
}

func lookupDocset(docsets DocsetLookup, rawURL string) (domain.Docset, bool) {
	name := domain.DocsetName(rawURL)
	if name == "" {
		return nil, false
	}
	return docsets.Docset(name)
}
