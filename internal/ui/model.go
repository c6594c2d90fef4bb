package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/Laisky/zap"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"docgrip/internal/config"
	"docgrip/internal/domain"
	"docgrip/internal/eventbus"
	"docgrip/internal/log"
	"docgrip/internal/session"
	"docgrip/internal/ui/views"
)

// historyMenu is an open back or forward menu
type historyMenu struct {
	title    string
	entries  []session.MenuEntry
	selected int
}

// Model represents the UI state
type Model struct {
	bus      eventbus.EventBus
	config   *config.Config
	registry session.Registry

	keys         keyMap
	help         help.Model
	renderer     *views.Renderer
	helpRenderer *HelpRenderer
	pager        *PagerOps

	tabs   []*tabView
	active int
	menu   *historyMenu

	width       int
	height      int
	listWidth   int
	bodyHeight  int
	status      string
	statusError bool
	scanning    bool
	inPagerMode bool

	// Program reference for terminal management
	program *tea.Program
	logger  *zap.Logger
}

// NewModel creates the window with one tab showing the start page
func NewModel(bus eventbus.EventBus, cfg *config.Config, registry session.Registry) *Model {
	keys := newKeyMap()
	m := &Model{
		bus:          bus,
		config:       cfg,
		registry:     registry,
		keys:         keys,
		help:         help.New(),
		renderer:     views.NewRenderer(),
		helpRenderer: NewHelpRenderer(keys),
		pager:        NewPagerOps(),
		width:        80,
		height:       24,
		logger:       log.Logger.Named("ui"),
	}
	m.openTab()
	m.layout()
	return m
}

// SetProgram sets the program reference for terminal management
func (m *Model) SetProgram(p *tea.Program) {
	m.program = p
	m.pager.SetProgram(p)
}

// send delivers msg through the running program. Safe from any goroutine.
func (m *Model) send(msg tea.Msg) {
	if m.program != nil {
		m.program.Send(msg)
	}
}

// Init returns an initial command
func (m *Model) Init() tea.Cmd {
	return nil
}

// Update handles messages
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.layout()
		return m, nil

	case tea.KeyMsg:
		cmd := m.handleKey(msg)
		m.current().syncFromSession()
		return m, cmd
	}

	return m.handleNonKeyboardMsg(msg)
}

// handleNonKeyboardMsg handles non-keyboard messages
func (m *Model) handleNonKeyboardMsg(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case EventMsg:
		return m, m.handleEvent(msg.Event)

	case TabEventMsg:
		if tv := m.tabByID(msg.TabID); tv != nil {
			tv.session.Dispatch(msg.Event)
			tv.syncFromSession()
		}
		return m, nil

	case tickMsg:
		// Don't continue tick loop if we're in pager mode
		if !m.scanning || m.inPagerMode {
			return m, nil
		}
		return m, tick()

	case pagerMsg:
		if msg.err != nil {
			m.logger.Warn("pager failed", zap.Error(msg.err))
			return m, m.setStatus(fmt.Sprintf("Pager failed: %v", msg.err), true)
		}
		return m, nil

	case pauseRenderingMsg:
		m.inPagerMode = true
		return m, nil

	case resumeRenderingMsg:
		m.inPagerMode = false
		return m, nil

	case clearStatusMsg:
		m.status = ""
		m.statusError = false
		return m, nil
	}

	return m, nil
}

// handleEvent routes bus events to the tabs they concern
func (m *Model) handleEvent(ev eventbus.DomainEvent) tea.Cmd {
	switch e := ev.(type) {
	case domain.SearchCompletedEvent:
		if tv := m.tabByID(e.Tag.Session); tv != nil {
			tv.session.Dispatch(e)
			tv.syncFromSession()
		}

	case domain.DocsetAddedEvent:
		m.broadcast(e)
		return m.setStatus(fmt.Sprintf("Docset %s added", e.Name), false)

	case domain.DocsetRemovedEvent:
		m.broadcast(e)
		return m.setStatus(fmt.Sprintf("Docset %s removed", e.Name), false)

	case domain.ScanStartedEvent:
		m.scanning = true
		return tick()

	case domain.ScanCompletedEvent:
		m.scanning = false
		return m.setStatus(fmt.Sprintf("Found %d docsets", e.DocsetsFound), false)

	case domain.ErrorEvent:
		return m.setStatus(e.Message, true)
	}
	return nil
}

func (m *Model) broadcast(ev any) {
	for _, tv := range m.tabs {
		tv.session.Dispatch(ev)
		tv.syncFromSession()
	}
}

func (m *Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	tv := m.current()

	if m.menu != nil {
		m.handleMenuKey(msg)
		return nil
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		for _, t := range m.tabs {
			t.session.Close()
		}
		return tea.Quit

	case key.Matches(msg, m.keys.NewTab):
		m.openTab()
		return nil

	case key.Matches(msg, m.keys.CloseTab):
		m.closeTab(m.active)
		return nil

	case key.Matches(msg, m.keys.NextTab):
		m.active = (m.active + 1) % len(m.tabs)
		return nil

	case key.Matches(msg, m.keys.PrevTab):
		m.active = (m.active - 1 + len(m.tabs)) % len(m.tabs)
		return nil

	case key.Matches(msg, m.keys.Keys):
		return m.showPager(m.helpRenderer.RenderKeyReference())

	case key.Matches(msg, m.keys.Pager):
		return m.showPager(tv.browser.Page().Text)

	case key.Matches(msg, m.keys.Back):
		tv.session.Back()
		return nil

	case key.Matches(msg, m.keys.Forward):
		tv.session.Forward()
		return nil

	case key.Matches(msg, m.keys.BackMenu):
		m.menu = &historyMenu{title: "Back", entries: tv.session.BackMenu()}
		return nil

	case key.Matches(msg, m.keys.ForwardMenu):
		m.menu = &historyMenu{title: "Forward", entries: tv.session.ForwardMenu()}
		return nil

	case key.Matches(msg, m.keys.Find):
		tv.session.ShowSearchBar()
		tv.pane = paneFind
		tv.find.SetValue(tv.browser.FindTerm())
		tv.find.CursorEnd()
		tv.find.Focus()
		return nil

	case key.Matches(msg, m.keys.FocusQuery):
		tv.setPane(paneQuery)
		return nil
	}

	if tv.pane == paneFind {
		return m.handleFindKey(tv, msg)
	}

	switch {
	case key.Matches(msg, m.keys.Escape):
		tv.session.Escape()
		return nil

	case key.Matches(msg, m.keys.SwitchPane):
		tv.nextPane()
		return nil

	case key.Matches(msg, m.keys.Up):
		m.moveSelection(tv, -1)
		return nil

	case key.Matches(msg, m.keys.Down):
		m.moveSelection(tv, 1)
		return nil

	case key.Matches(msg, m.keys.Open):
		switch tv.pane {
		case paneToc:
			tv.session.OpenEntry(session.ViewToc, tv.tocSelected)
		case paneContent:
		default:
			tv.session.OpenEntry(session.ViewList, tv.session.Selected())
		}
		return nil

	case key.Matches(msg, m.keys.HelpKey) && tv.pane != paneQuery:
		tv.session.HelpKey()
		return nil
	}

	switch tv.pane {
	case paneContent:
		var cmd tea.Cmd
		tv.viewport, cmd = tv.viewport.Update(msg)
		return cmd
	case paneList, paneToc:
		if msg.Type != tea.KeyRunes {
			return nil
		}
		tv.setPane(paneQuery)
	}
	return m.editQuery(tv, msg)
}

// editQuery feeds a key to the search box and runs the resulting query
func (m *Model) editQuery(tv *tabView, msg tea.KeyMsg) tea.Cmd {
	tv.input.Focus()
	var cmd tea.Cmd
	tv.input, cmd = tv.input.Update(msg)
	if tv.input.Value() != tv.session.Query() {
		tv.session.SetQuery(tv.input.Value())
	}
	return cmd
}

func (m *Model) moveSelection(tv *tabView, delta int) {
	switch tv.pane {
	case paneToc:
		n := tv.session.Toc().Count()
		tv.tocSelected += delta
		if tv.tocSelected >= n {
			tv.tocSelected = n - 1
		}
		if tv.tocSelected < 0 {
			tv.tocSelected = 0
		}
	case paneContent:
		if delta < 0 {
			tv.viewport.LineUp(1)
		} else {
			tv.viewport.LineDown(1)
		}
	default:
		tv.session.Select(tv.session.Selected() + delta)
	}
}

func (m *Model) handleMenuKey(msg tea.KeyMsg) {
	menu := m.menu
	switch {
	case key.Matches(msg, m.keys.Up):
		if menu.selected > 0 {
			menu.selected--
		}
	case key.Matches(msg, m.keys.Down):
		if menu.selected < len(menu.entries)-1 {
			menu.selected++
		}
	case key.Matches(msg, m.keys.Open):
		m.menu = nil
		if menu.selected < len(menu.entries) {
			m.current().session.ActivateMenuEntry(menu.entries[menu.selected])
		}
	case key.Matches(msg, m.keys.Escape), key.Matches(msg, m.keys.BackMenu), key.Matches(msg, m.keys.ForwardMenu):
		m.menu = nil
	}
}

func (m *Model) handleFindKey(tv *tabView, msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, m.keys.Escape):
		tv.browser.HideSearchBar()
		tv.find.Blur()
		tv.findHits = nil
		tv.setPane(paneContent)
		return nil

	case key.Matches(msg, m.keys.Open):
		term := tv.find.Value()
		if term != tv.browser.FindTerm() || tv.findHits == nil {
			tv.findHits = tv.browser.Find(term)
			tv.findPos = 0
		} else if len(tv.findHits) > 0 {
			tv.findPos = (tv.findPos + 1) % len(tv.findHits)
		}
		if len(tv.findHits) == 0 {
			return m.setStatus(fmt.Sprintf("No matches for %q", term), false)
		}
		tv.viewport.SetYOffset(tv.findHits[tv.findPos])
		m.status = fmt.Sprintf("Match %d of %d", tv.findPos+1, len(tv.findHits))
		m.statusError = false
		return nil
	}

	var cmd tea.Cmd
	tv.find, cmd = tv.find.Update(msg)
	return cmd
}

// openTab adds a tab showing the start page, after the active one when so
// configured
func (m *Model) openTab() {
	tv := newTabView(m.config, m.registry, func(tabID string, ev any) {
		m.send(TabEventMsg{TabID: tabID, Event: ev})
	})

	pos := len(m.tabs)
	if m.config.UI.OpenNewTabAfterActive && len(m.tabs) > 0 {
		pos = m.active + 1
	}
	m.tabs = append(m.tabs, nil)
	copy(m.tabs[pos+1:], m.tabs[pos:])
	m.tabs[pos] = tv
	m.active = pos

	m.layout()
	tv.session.Start()
	tv.syncFromSession()
	m.logger.Debug("tab opened", zap.String("tab", tv.id), zap.Int("count", len(m.tabs)))
}

// closeTab drops tab i. Closing the last one opens a fresh tab.
func (m *Model) closeTab(i int) {
	tv := m.tabs[i]
	tv.session.Close()
	m.tabs = append(m.tabs[:i], m.tabs[i+1:]...)
	m.logger.Debug("tab closed", zap.String("tab", tv.id), zap.Int("count", len(m.tabs)))

	if len(m.tabs) == 0 {
		m.active = 0
		m.openTab()
		return
	}
	if m.active >= len(m.tabs) {
		m.active = len(m.tabs) - 1
	}
}

func (m *Model) current() *tabView {
	return m.tabs[m.active]
}

func (m *Model) tabByID(id string) *tabView {
	for _, tv := range m.tabs {
		if tv.id == id {
			return tv
		}
	}
	return nil
}

// layout sizes the panes for the terminal
func (m *Model) layout() {
	// tab strip, search box, status line and help line
	m.bodyHeight = m.height - 4
	if m.bodyHeight < 5 {
		m.bodyHeight = 5
	}
	m.listWidth = m.width / 3
	if m.listWidth < 20 {
		m.listWidth = 20
	}

	contentWidth := m.width - m.listWidth - 4
	if contentWidth < 10 {
		contentWidth = 10
	}
	for _, tv := range m.tabs {
		tv.resize(contentWidth, m.bodyHeight-2)
	}
}

func (m *Model) setStatus(status string, isError bool) tea.Cmd {
	m.status = status
	m.statusError = isError
	return tea.Tick(3*time.Second, func(time.Time) tea.Msg { return clearStatusMsg{} })
}

// showPager returns a command that shows content using the ov pager
func (m *Model) showPager(content string) tea.Cmd {
	return func() tea.Msg {
		// Send pause message to stop rendering
		m.send(pauseRenderingMsg{})

		err := m.pager.ShowInPager(content)

		// Send resume message to restart rendering
		m.send(resumeRenderingMsg{})

		return pagerMsg{err: err}
	}
}

func tick() tea.Cmd {
	return tea.Tick(80*time.Millisecond, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// View renders the window
func (m *Model) View() string {
	if m.inPagerMode {
		return ""
	}
	tv := m.current()
	styles := m.renderer.Styles()

	labels := make([]views.TabLabel, len(m.tabs))
	for i, t := range m.tabs {
		labels[i] = views.TabLabel{Title: t.label(), Docset: t.icon.Docset, Active: i == m.active}
	}

	var b strings.Builder
	b.WriteString(m.renderer.RenderTabs(labels, m.width))
	b.WriteString("\n")
	b.WriteString(tv.input.View())
	b.WriteString("\n")

	body := lipgloss.JoinHorizontal(lipgloss.Top, m.renderLists(tv), m.renderContent(tv))
	if m.menu != nil {
		items := make([]views.ListItem, len(m.menu.entries))
		for i, e := range m.menu.entries {
			items[i] = views.ListItem{Title: e.Title, Docset: e.Icon.Docset}
		}
		popup := m.renderer.RenderMenu(m.menu.title, items, m.menu.selected)
		body = m.renderer.RenderPopupOverlay(body, popup, m.width, m.bodyHeight)
	}
	b.WriteString(body)
	b.WriteString("\n")

	b.WriteString(m.renderer.RenderStatus(m.statusLine(tv), m.statusError, m.width))
	b.WriteString("\n")
	b.WriteString(styles.Help.Render(m.help.View(m.keys)))
	return b.String()
}

func (m *Model) renderLists(tv *tabView) string {
	styles := m.renderer.Styles()
	s := tv.session
	innerW := m.listWidth - 2
	listH := m.bodyHeight - 2

	var tocView string
	if s.TocVisible() {
		tocH := listH / 3
		listH -= tocH + 2
		toc := s.Toc().Items()
		items := make([]views.ListItem, len(toc))
		for i, e := range toc {
			items[i] = views.ListItem{Title: e.Title}
		}
		style := styles.Pane
		if tv.pane == paneToc {
			style = styles.FocusedPane
		}
		tocView = style.Width(innerW).Height(tocH).Render(
			m.renderer.RenderList(items, tv.tocSelected, innerW, tocH, tv.pane == paneToc))
	}

	var items []views.ListItem
	if s.ShowingIndex() {
		for _, e := range s.Index() {
			items = append(items, views.ListItem{Title: e.Title, Docset: e.Docset})
		}
	} else {
		for _, r := range s.Results().Items() {
			items = append(items, views.ListItem{Title: r.Title, Docset: r.Docset, Type: r.Type})
		}
	}
	style := styles.Pane
	if tv.pane == paneList {
		style = styles.FocusedPane
	}
	list := style.Width(innerW).Height(listH).Render(
		m.renderer.RenderList(items, s.Selected(), innerW, listH, tv.pane == paneList || tv.pane == paneQuery))

	if tocView == "" {
		return list
	}
	return lipgloss.JoinVertical(lipgloss.Left, list, tocView)
}

func (m *Model) renderContent(tv *tabView) string {
	styles := m.renderer.Styles()
	style := styles.Pane
	if tv.pane == paneContent || tv.pane == paneFind {
		style = styles.FocusedPane
	}

	content := tv.viewport.View()
	if tv.pane == paneFind {
		content = lipgloss.JoinVertical(lipgloss.Left, tv.find.View(), content)
	}
	return style.Width(tv.viewport.Width).Render(content)
}

func (m *Model) statusLine(tv *tabView) string {
	if m.status != "" {
		return m.status
	}
	parts := []string{tv.session.State().String()}
	if m.scanning {
		spinner := []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}
		frame := int(time.Now().UnixMilli()/80) % len(spinner)
		parts = append(parts, spinner[frame]+" Scanning")
	}
	if !tv.session.ShowingIndex() {
		parts = append(parts, fmt.Sprintf("%d results", tv.session.Results().Count()))
	}
	if u := tv.browser.CurrentURL(); u != "" {
		parts = append(parts, u)
	}
	return strings.Join(parts, " | ")
}
