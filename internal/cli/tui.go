package cli

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/matzehuels/geonodes/pkg/presets"
)

// List styles
var (
	listSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	listNormalStyle   = lipgloss.NewStyle().Foreground(colorWhite)
	listDimStyle      = lipgloss.NewStyle().Foreground(colorDim)
)

// =============================================================================
// PresetListModel - Interactive preset selection
// =============================================================================

// PresetListModel is the bubbletea model for interactive preset selection.
type PresetListModel struct {
	Presets  []string
	Cursor   int
	Selected string
}

// NewPresetListModel creates a new preset list model.
func NewPresetListModel(names []string) PresetListModel {
	return PresetListModel{Presets: names}
}

func (m PresetListModel) Init() tea.Cmd {
	return nil
}

func (m PresetListModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "up", "k":
			if m.Cursor > 0 {
				m.Cursor--
			}
		case "down", "j":
			if m.Cursor < len(m.Presets)-1 {
				m.Cursor++
			}
		case "enter":
			if len(m.Presets) == 0 {
				return m, nil
			}
			m.Selected = m.Presets[m.Cursor]
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m PresetListModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Select Preset"))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ navigate  ⏎ select  q quit"))
	b.WriteString("\n\n")

	rows := make([][]string, len(m.Presets))
	for i, name := range m.Presets {
		cursor := "  "
		if i == m.Cursor {
			cursor = "▸ "
		}
		rows[i] = []string{cursor, name, presets.Describe(name)}
	}

	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("", "Preset", "Effect").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == -1:
				return headerStyle
			case row == m.Cursor:
				return listSelectedStyle
			case col == 2:
				return listDimStyle
			}
			return listNormalStyle
		})

	b.WriteString(t.Render())
	b.WriteString("\n\n")
	b.WriteString(listDimStyle.Render(fmt.Sprintf("  [%d/%d]", m.Cursor+1, len(m.Presets))))

	return b.String()
}

// =============================================================================
// TargetListModel - Interactive target selection
// =============================================================================

// TargetListModel is the bubbletea model for choosing what a transform
// preset acts on.
type TargetListModel struct {
	Preset   string
	Targets  []presets.Target
	Cursor   int
	Selected presets.Target
}

// NewTargetListModel creates a new target list model. The CUSTOM target is
// left out because it needs an attribute name.
func NewTargetListModel(preset string) TargetListModel {
	var targets []presets.Target
	for _, t := range presets.Targets() {
		if t != presets.TargetCustom {
			targets = append(targets, t)
		}
	}
	return TargetListModel{Preset: preset, Targets: targets}
}

func (m TargetListModel) Init() tea.Cmd {
	return nil
}

func (m TargetListModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "up", "k":
			if m.Cursor > 0 {
				m.Cursor--
			}
		case "down", "j":
			if m.Cursor < len(m.Targets)-1 {
				m.Cursor++
			}
		case "enter":
			m.Selected = m.Targets[m.Cursor]
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m TargetListModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Select Target for " + m.Preset))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("arrows: navigate  enter: select  q: quit"))
	b.WriteString("\n\n")

	for i, t := range m.Targets {
		cursor := "  "
		if i == m.Cursor {
			cursor = "> "
		}

		attr, _ := presets.AttributeName(t, "")
		if attr == "" {
			attr = "whole geometry"
		}
		line := fmt.Sprintf("%s%-10s  %s", cursor, t, listDimStyle.Render(attr))

		if i == m.Cursor {
			b.WriteString(listSelectedStyle.Render(line))
		} else {
			b.WriteString(listNormalStyle.Render(line))
		}
		b.WriteString("\n")
	}

	return b.String()
}
