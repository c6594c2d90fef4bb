package views

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// ListItem is one row of the result, index, TOC or history lists
type ListItem struct {
	Title  string
	Docset string
	Type   string
}

// TabLabel is one entry of the tab strip
type TabLabel struct {
	Title  string
	Docset string
	Active bool
}

// Renderer handles all view rendering
type Renderer struct {
	styles *Styles
}

// NewRenderer creates a new renderer
func NewRenderer() *Renderer {
	return &Renderer{styles: NewStyles()}
}

// Styles exposes the palette to the model
func (r *Renderer) Styles() *Styles {
	return r.styles
}

// RenderTabs draws the tab strip, truncating titles so it fits width
func (r *Renderer) RenderTabs(labels []TabLabel, width int) string {
	if len(labels) == 0 {
		return ""
	}
	limit := width/len(labels) - 4
	if limit < 6 {
		limit = 6
	}

	parts := make([]string, 0, len(labels))
	for _, l := range labels {
		title := truncate(l.Title, limit)
		if l.Docset != "" {
			title = lipgloss.NewStyle().Foreground(lipgloss.Color(DocsetColor(l.Docset))).Render("●") + " " + title
		}
		if l.Active {
			parts = append(parts, r.styles.ActiveTab.Render(title))
		} else {
			parts = append(parts, r.styles.Tab.Render(title))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, parts...)
}

// RenderList draws a window of items around selected. Rows are clipped to
// width; the selected row is highlighted when focused.
func (r *Renderer) RenderList(items []ListItem, selected, width, height int, focused bool) string {
	if height < 1 {
		height = 1
	}
	if len(items) == 0 {
		return r.styles.Dim.Render("No results")
	}

	offset := 0
	if selected >= height {
		offset = selected - height + 1
	}
	end := offset + height
	if end > len(items) {
		end = len(items)
	}

	var b strings.Builder
	for i := offset; i < end; i++ {
		if i > offset {
			b.WriteString("\n")
		}
		b.WriteString(r.renderItem(items[i], i == selected, focused, width))
	}
	if end < len(items) {
		b.WriteString("\n")
		b.WriteString(r.styles.Scroll.Render(fmt.Sprintf("… %d more", len(items)-end)))
	}
	return b.String()
}

func (r *Renderer) renderItem(it ListItem, selected, focused bool, width int) string {
	badge := lipgloss.NewStyle().Foreground(lipgloss.Color(DocsetColor(it.Docset))).Render("▌")
	line := it.Title
	if it.Type != "" {
		line += " " + r.styles.EntryType.Render(it.Type)
	}
	if it.Docset != "" && width > 40 {
		line += " " + r.styles.Dim.Render(it.Docset)
	}
	line = badge + " " + truncate(line, width-2)

	if selected {
		if focused {
			return r.styles.SelectionBg.Render(r.styles.Highlight.Render(line))
		}
		return r.styles.SelectionBg.Render(line)
	}
	return line
}

// RenderMenu draws a history menu popup
func (r *Renderer) RenderMenu(title string, items []ListItem, selected int) string {
	var b strings.Builder
	b.WriteString(r.styles.Title.Render(title))
	for i, it := range items {
		b.WriteString("\n")
		b.WriteString(r.renderItem(it, i == selected, true, 60))
	}
	if len(items) == 0 {
		b.WriteString("\n")
		b.WriteString(r.styles.Dim.Render("(empty)"))
	}
	return r.styles.Menu.Render(b.String())
}

// RenderStatus draws the bottom line
func (r *Renderer) RenderStatus(status string, isError bool, width int) string {
	if isError {
		return r.styles.StatusError.Render(truncate(status, width))
	}
	return r.styles.Status.Render(truncate(status, width))
}

func truncate(s string, width int) string {
	if width <= 0 {
		return ""
	}
	if lipgloss.Width(s) <= width {
		return s
	}
	runes := []rune(s)
	for len(runes) > 0 && lipgloss.Width(string(runes))+1 > width {
		runes = runes[:len(runes)-1]
	}
	return string(runes) + "…"
}
