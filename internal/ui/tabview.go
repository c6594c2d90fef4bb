package ui

import (
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	"github.com/google/uuid"

	"docgrip/internal/browser"
	"docgrip/internal/config"
	"docgrip/internal/domain"
	"docgrip/internal/session"
)

const loadingTitle = "Loading..."

// pane is the part of a tab receiving keys that the session does not model:
// the TOC list and the find bar
type pane int

const (
	paneQuery pane = iota
	paneList
	paneToc
	paneContent
	paneFind
)

// tabView is one browser tab: the session coordinator, its page renderer and
// the widgets showing them
type tabView struct {
	id       string
	session  *session.Tab
	browser  *browser.Browser
	input    textinput.Model
	find     textinput.Model
	viewport viewport.Model

	pane        pane
	tocSelected int
	findHits    []int
	findPos     int
	shownURL    string
	title       string
	icon        domain.Icon
}

// IconChanged implements session.Notifier
func (tv *tabView) IconChanged(icon domain.Icon) { tv.icon = icon }

// TitleChanged implements session.Notifier
func (tv *tabView) TitleChanged(title string) { tv.title = title }

func newTabView(cfg *config.Config, registry session.Registry, post func(tabID string, ev any)) *tabView {
	id := uuid.NewString()
	tv := &tabView{
		id:       id,
		browser:  browser.New(browser.WithStartPage(cfg.UI.StartPage)),
		input:    textinput.New(),
		find:     textinput.New(),
		viewport: viewport.New(80, 20),
		title:    loadingTitle,
		icon:     domain.DefaultIcon,
	}

	tv.input.Prompt = "🔍 "
	tv.input.Placeholder = "Search"
	tv.input.ShowSuggestions = true
	tv.input.Focus()
	tv.find.Prompt = "Find: "

	tv.session = session.New(registry, tv.browser,
		session.WithID(id),
		session.WithDebounce(cfg.Debounce()),
		session.WithMenuSize(cfg.History.MenuSize),
		session.WithStartPage(cfg.UI.StartPage),
		session.WithNotifier(tv),
		session.WithPost(func(ev any) { post(id, ev) }),
	)
	tv.browser.SetListener(tv.session)
	tv.input.SetSuggestions(tv.session.Completions())
	return tv
}

// syncFromSession copies session state into the widgets after an operation
func (tv *tabView) syncFromSession() {
	s := tv.session
	if tv.input.Value() != s.Query() {
		tv.input.SetValue(s.Query())
		_, end := s.QuerySelection()
		tv.input.SetCursor(end)
	}
	tv.input.SetSuggestions(s.Completions())

	if tv.pane == paneToc && !s.TocVisible() {
		tv.pane = paneList
	}
	if tv.tocSelected >= s.Toc().Count() {
		tv.tocSelected = 0
	}
	if tv.pane != paneFind {
		switch s.Focus() {
		case session.FocusQuery:
			tv.pane = paneQuery
		case session.FocusList:
			if tv.pane != paneToc {
				tv.pane = paneList
			}
		case session.FocusContent:
			tv.pane = paneContent
		}
	}
	if s.Focus() == session.FocusQuery && tv.pane != paneFind {
		tv.input.Focus()
	} else {
		tv.input.Blur()
	}

	page := tv.browser.Page()
	if page.URL != tv.shownURL {
		tv.shownURL = page.URL
		tv.findHits = nil
		tv.viewport.SetContent(page.Text)
		if page.AnchorLine > 0 {
			tv.viewport.SetYOffset(page.AnchorLine)
		} else {
			tv.viewport.GotoTop()
		}
	}
}

// setPane moves focus between the panes, keeping the session's notion of
// focus in step
func (tv *tabView) setPane(p pane) {
	tv.pane = p
	switch p {
	case paneQuery:
		tv.session.FocusQueryField()
	case paneList, paneToc:
		tv.session.SetFocus(session.FocusList)
	case paneContent:
		tv.session.SetFocus(session.FocusContent)
	}
}

// nextPane cycles query, list, TOC (when shown) and content
func (tv *tabView) nextPane() {
	switch tv.pane {
	case paneQuery:
		tv.setPane(paneList)
	case paneList:
		if tv.session.TocVisible() {
			tv.setPane(paneToc)
		} else {
			tv.setPane(paneContent)
		}
	case paneToc:
		tv.setPane(paneContent)
	default:
		tv.setPane(paneQuery)
	}
}

func (tv *tabView) resize(width, height int) {
	tv.viewport.Width = width
	tv.viewport.Height = height
	tv.input.Width = width - 4
	tv.find.Width = width - 8
}

// label is the text shown in the tab strip
func (tv *tabView) label() string {
	if tv.title == "" {
		return loadingTitle
	}
	return tv.title
}
