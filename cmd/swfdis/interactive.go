package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/wippyai/swfkit/abc"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	funcStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#98FB98"))

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

// methodEntry is one browsable method body.
type methodEntry struct {
	file  *abc.File
	body  *abc.MethodBody
	label string
}

type modelState int

const (
	stateSelectMethod modelState = iota
	stateShowListing
)

type interactiveModel struct {
	err      error
	warn     error // units after a broken one were not loaded
	cfg      config
	entries  []methodEntry
	visible  []int // indices into entries matching the filter
	filter   textinput.Model
	listing  viewport.Model
	selected int
	height   int
	state    modelState
	loaded   bool
}

type loadedMsg struct {
	err     error
	warn    error
	entries []methodEntry
}

func newInteractiveModel(cfg config) *interactiveModel {
	ti := textinput.New()
	ti.Prompt = "/"
	ti.Placeholder = "filter methods"
	ti.Width = 40
	return &interactiveModel{
		cfg:     cfg,
		filter:  ti,
		listing: viewport.New(80, 20),
		height:  24,
		state:   stateSelectMethod,
	}
}

func (m *interactiveModel) Init() tea.Cmd {
	return m.load
}

func (m *interactiveModel) load() tea.Msg {
	units, err := loadUnits(m.cfg)
	if err != nil && len(units) == 0 {
		return loadedMsg{err: err}
	}
	return loadedMsg{entries: collectEntries(units), warn: err}
}

func collectEntries(units []*abc.File) []methodEntry {
	var entries []methodEntry
	for u, file := range units {
		for i := range file.Bodies {
			body := &file.Bodies[i]
			label := file.MethodLabel(int(body.Method))
			if len(units) > 1 {
				label = fmt.Sprintf("%d:%s", u, label)
			}
			entries = append(entries, methodEntry{file: file, body: body, label: label})
		}
	}
	return entries
}

// filterEntries returns the indices of entries whose label contains query,
// ignoring case.
func filterEntries(entries []methodEntry, query string) []int {
	query = strings.ToLower(strings.TrimSpace(query))
	out := make([]int, 0, len(entries))
	for i, e := range entries {
		if query == "" || strings.Contains(strings.ToLower(e.label), query) {
			out = append(out, i)
		}
	}
	return out
}

func (m *interactiveModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.height = msg.Height
		m.listing.Width = msg.Width
		m.listing.Height = max(msg.Height-4, 1)
		return m, nil

	case loadedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.entries = msg.entries
		m.warn = msg.warn
		m.visible = filterEntries(m.entries, "")
		m.loaded = true
		return m, nil

	case tea.KeyMsg:
		if m.filter.Focused() {
			return m.updateFilter(msg)
		}
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit

		case "esc":
			if m.state == stateShowListing {
				m.state = stateSelectMethod
				return m, nil
			}

		case "/":
			if m.state == stateSelectMethod {
				return m, m.filter.Focus()
			}

		case "up", "k":
			if m.state == stateSelectMethod {
				if m.selected > 0 {
					m.selected--
				}
				return m, nil
			}

		case "down", "j":
			if m.state == stateSelectMethod {
				if m.selected < len(m.visible)-1 {
					m.selected++
				}
				return m, nil
			}

		case "enter":
			if m.state == stateSelectMethod && len(m.visible) > 0 {
				m.showListing(m.entries[m.visible[m.selected]])
				return m, nil
			}
		}
	}

	if m.state == stateShowListing {
		var cmd tea.Cmd
		m.listing, cmd = m.listing.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *interactiveModel) updateFilter(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit
	case "enter", "esc":
		m.filter.Blur()
		return m, nil
	}
	var cmd tea.Cmd
	m.filter, cmd = m.filter.Update(msg)
	m.visible = filterEntries(m.entries, m.filter.Value())
	m.selected = min(m.selected, max(len(m.visible)-1, 0))
	return m, cmd
}

func (m *interactiveModel) showListing(e methodEntry) {
	text, err := bodyListing(e.file, e.body, m.cfg.opts)
	var b strings.Builder
	b.WriteString(funcStyle.Render(methodHeader(e.file, e.body)))
	b.WriteString("\n\n")
	b.WriteString(text)
	if err != nil {
		b.WriteString(errorStyle.Render(commentLines(err)))
		b.WriteString("\n")
	}
	m.listing.SetContent(b.String())
	m.listing.GotoTop()
	m.state = stateShowListing
}

func (m *interactiveModel) View() string {
	if m.err != nil {
		return errorStyle.Render(fmt.Sprintf("Error: %v\n\nPress q to quit.", m.err))
	}
	if !m.loaded {
		return "Loading..."
	}

	name := m.cfg.swfFile
	if name == "" {
		name = m.cfg.abcFile
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("SWF Disassembler"))
	b.WriteString(" ")
	b.WriteString(name)
	b.WriteString("\n\n")
	if m.warn != nil {
		b.WriteString(errorStyle.Render(commentLines(m.warn)))
		b.WriteString("\n\n")
	}

	switch m.state {
	case stateSelectMethod:
		if m.filter.Focused() || m.filter.Value() != "" {
			b.WriteString(m.filter.View())
			b.WriteString("\n\n")
		}
		if len(m.visible) == 0 {
			b.WriteString(helpStyle.Render("no methods"))
			b.WriteString("\n")
		}
		// keep the cursor on screen
		rows := max(m.height-8, 1)
		first := max(m.selected-rows+1, 0)
		for i := first; i < len(m.visible) && i < first+rows; i++ {
			e := m.entries[m.visible[i]]
			line := fmt.Sprintf("%-6d %s", e.body.Method, e.label)
			if i == m.selected {
				b.WriteString(selectedStyle.Render("> " + line))
			} else {
				b.WriteString("  " + line)
			}
			b.WriteString("\n")
		}
		b.WriteString("\n")
		b.WriteString(helpStyle.Render("↑/↓ select • enter disassemble • / filter • q quit"))

	case stateShowListing:
		b.WriteString(m.listing.View())
		b.WriteString("\n")
		b.WriteString(helpStyle.Render(fmt.Sprintf("%3.f%% • ↑/↓ scroll • esc back • q quit", m.listing.ScrollPercent()*100)))
	}

	return b.String()
}

func runInteractive(cfg config) error {
	if cfg.swfFile == "" && cfg.abcFile == "" {
		return fmt.Errorf("interactive mode needs -swf or -abc")
	}
	p := tea.NewProgram(newInteractiveModel(cfg), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
