package ui

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/Laisky/errors/v2"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/noborus/ov/oviewer"
)

// HelpRenderer renders the key reference
type HelpRenderer struct {
	keys keyMap
}

// NewHelpRenderer creates a new help renderer
func NewHelpRenderer(keys keyMap) *HelpRenderer {
	return &HelpRenderer{keys: keys}
}

// RenderKeyReference generates the key reference with colors for the pager
func (r *HelpRenderer) RenderKeyReference() string {
	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("99")).
		MarginBottom(1)

	sectionStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("39")).
		MarginTop(1)

	keyStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("220")).
		Width(12)

	descStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("252"))

	var help strings.Builder
	help.WriteString(titleStyle.Render("docgrip keys"))
	help.WriteString("\n")

	sections := []struct {
		name     string
		bindings []key.Binding
	}{
		{"Search", []key.Binding{r.keys.FocusQuery, r.keys.Escape, r.keys.HelpKey, r.keys.Up, r.keys.Down, r.keys.Open, r.keys.SwitchPane}},
		{"Page", []key.Binding{r.keys.Back, r.keys.Forward, r.keys.BackMenu, r.keys.ForwardMenu, r.keys.Find, r.keys.Pager}},
		{"Tabs", []key.Binding{r.keys.NewTab, r.keys.CloseTab, r.keys.NextTab, r.keys.PrevTab}},
		{"Other", []key.Binding{r.keys.Keys, r.keys.Quit}},
	}
	for _, s := range sections {
		help.WriteString(sectionStyle.Render(s.name))
		help.WriteString("\n")
		for _, b := range s.bindings {
			h := b.Help()
			help.WriteString(fmt.Sprintf("  %s %s\n", keyStyle.Render(h.Key), descStyle.Render(h.Desc)))
		}
	}

	examples := lipgloss.NewStyle().Italic(true).Foreground(lipgloss.Color("241"))
	help.WriteString("\n")
	help.WriteString(examples.Render("  Query examples: split, python:split, go,c:printf"))
	return help.String()
}

// PagerOps shows text in the ov pager
type PagerOps struct {
	program *tea.Program // reference to Bubble Tea program for terminal management
}

// NewPagerOps creates a new pager operations instance
func NewPagerOps() *PagerOps {
	return &PagerOps{}
}

// SetProgram sets the program reference for terminal management
func (p *PagerOps) SetProgram(program *tea.Program) {
	p.program = program
}

// ShowInPager hands the terminal to ov until the user quits it
func (p *PagerOps) ShowInPager(content string) error {
	if p.program == nil {
		return errors.New("program not set")
	}

	// Release terminal control to run ov
	if err := p.program.ReleaseTerminal(); err != nil {
		return errors.Wrap(err, "release terminal")
	}

	// Ensure terminal is restored even if ov fails
	defer func() {
		// Small delay to ensure ov has fully exited before restoring terminal
		time.Sleep(100 * time.Millisecond)
		_ = p.program.RestoreTerminal()
	}()

	return runPager(strings.NewReader(content))
}

func runPager(r io.Reader) error {
	root, err := oviewer.NewRoot(r)
	if err != nil {
		return errors.Wrap(err, "open pager")
	}

	// Configure ov to not write on exit (to avoid messing with our screen)
	config := oviewer.NewConfig()
	config.IsWriteOnExit = false
	config.IsWriteOriginal = false
	root.SetConfig(config)

	return root.Run()
}
