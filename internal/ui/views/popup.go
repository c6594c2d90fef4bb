package views

import (
	"regexp"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// RenderPopupOverlay centers popup over a greyed out copy of mainContent
func (r *Renderer) RenderPopupOverlay(mainContent, popup string, width, height int) string {
	popupLines := strings.Split(popup, "\n")
	popupW := lipgloss.Width(popup)
	popupH := len(popupLines)

	base := strings.Split(desaturateANSI(mainContent), "\n")
	for len(base) < height {
		base = append(base, "")
	}

	x := (width - popupW) / 2
	if x < 0 {
		x = 0
	}
	y := (height - popupH) / 2
	if y < 0 {
		y = 0
	}

	for i, line := range popupLines {
		row := y + i
		if row >= len(base) {
			base = append(base, "")
		}
		left := padRight(cut(ansiRE.ReplaceAllString(base[row], ""), x), x)
		base[row] = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Render(left) + line
	}
	return strings.Join(base, "\n")
}

// ANSI escape sequence regex to strip styles/colors
var ansiRE = regexp.MustCompile(`\x1b\[[0-9;]*m`)

// desaturateANSI strips ANSI color/style codes and recolors text dim gray
func desaturateANSI(s string) string {
	lines := strings.Split(s, "\n")
	grey := lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	for i, line := range lines {
		lines[i] = grey.Render(ansiRE.ReplaceAllString(line, ""))
	}
	return strings.Join(lines, "\n")
}

func cut(s string, width int) string {
	runes := []rune(s)
	if len(runes) > width {
		return string(runes[:width])
	}
	return s
}

func padRight(s string, width int) string {
	if n := lipgloss.Width(s); n < width {
		return s + strings.Repeat(" ", width-n)
	}
	return s
}
