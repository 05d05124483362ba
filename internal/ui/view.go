package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/nibzard/tasklist/internal/task"
)

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	clockStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	pendingStyle  = lipgloss.NewStyle().Bold(true)
	overdueStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("9"))
	doneStyle     = lipgloss.NewStyle().Strikethrough(true).Faint(true)
	timesStyle    = lipgloss.NewStyle().Italic(true).Foreground(lipgloss.Color("8"))
	cursorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("12"))
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	okStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	footerStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	panelStyle    = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	labelStyle    = lipgloss.NewStyle().Width(12)
	focusedLabel  = labelStyle.Foreground(lipgloss.Color("12"))
	confirmPrompt = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("11"))
)

// linesPerTask is the height of one rendered task row.
const linesPerTask = 3

func (m *model) View() string {
	var b strings.Builder
	m.writeTitle(&b)
	switch m.mode {
	case modeForm:
		m.writeForm(&b)
	case modeConfirm:
		m.writeTasks(&b)
		m.writeConfirm(&b)
	default:
		m.writeTasks(&b)
	}
	m.writeStatus(&b)
	m.writeFooter(&b)
	return b.String()
}

func (m *model) writeTitle(b *strings.Builder) {
	b.WriteString(titleStyle.Render("To Do List"))
	b.WriteString("  ")
	b.WriteString(clockStyle.Render(m.clock))
	b.WriteString("\n\n")
}

func (m *model) writeTasks(b *strings.Builder) {
	if !m.loaded {
		b.WriteString("Loading...\n")
		return
	}
	if m.snap.Len() == 0 {
		b.WriteString("No tasks. Press a to add one.\n")
		return
	}
	start, end := m.visibleRange()
	for i := start; i < end; i++ {
		writeTask(b, m.snap.Entities[i], i == m.cursor)
	}
	if end < m.snap.Len() || start > 0 {
		fmt.Fprintf(b, "%s\n", footerStyle.Render(fmt.Sprintf("%d-%d of %d", start+1, end, m.snap.Len())))
	}
}

func writeTask(b *strings.Builder, e task.Entity, selected bool) {
	marker := "  "
	if selected {
		marker = cursorStyle.Render("> ")
	}
	b.WriteString(marker)
	b.WriteString(stateStyle(e.State).Render(e.Task.Title))
	fmt.Fprintf(b, " [%s]\n", e.State)
	if e.Task.Description != "" {
		fmt.Fprintf(b, "    %s\n", e.Task.Description)
	} else {
		b.WriteString("\n")
	}
	times := fmt.Sprintf("Start time: %s | End time: %s", e.Start(), e.End())
	fmt.Fprintf(b, "    %s\n", timesStyle.Render(times))
}

func stateStyle(s task.State) lipgloss.Style {
	switch s {
	case task.StateOverdue:
		return overdueStyle
	case task.StateDone:
		return doneStyle
	}
	return pendingStyle
}

// visibleRange returns the slice of tasks that fits the window and keeps
// the cursor in view.
func (m *model) visibleRange() (int, int) {
	total := m.snap.Len()
	if m.height <= 0 {
		return 0, total
	}
	rows := (m.height - 8) / linesPerTask
	if rows < 1 {
		rows = 1
	}
	if rows >= total {
		return 0, total
	}
	start := m.cursor - rows + 1
	if start < 0 {
		start = 0
	}
	return start, start + rows
}

func (m *model) writeForm(b *strings.Builder) {
	var inner strings.Builder
	inner.WriteString(titleStyle.Render("New task"))
	inner.WriteString("\n\n")
	for i, in := range m.inputs {
		label := labelStyle
		if i == m.focus {
			label = focusedLabel
		}
		inner.WriteString(label.Render(fieldLabels[i] + ":"))
		inner.WriteString(in.View())
		if i < len(m.inputs)-1 {
			inner.WriteString("\n")
		}
	}
	b.WriteString(panelStyle.Render(inner.String()))
	b.WriteString("\n")
}

func (m *model) writeConfirm(b *strings.Builder) {
	if m.pending == nil {
		return
	}
	b.WriteString("\n")
	b.WriteString(confirmPrompt.Render(m.pending.Prompt + " [y/N]"))
	b.WriteString("\n")
}

func (m *model) writeStatus(b *strings.Builder) {
	if m.status == "" {
		return
	}
	b.WriteString("\n")
	if m.statusErr {
		b.WriteString(errorStyle.Render(m.status))
	} else {
		b.WriteString(okStyle.Render(m.status))
	}
	b.WriteString("\n")
}

func (m *model) writeFooter(b *strings.Builder) {
	b.WriteString("\n")
	var keys string
	switch m.mode {
	case modeForm:
		keys = "tab next field | enter confirm | esc cancel"
	case modeConfirm:
		keys = "y yes | n no"
	default:
		keys = "a add | d delete | e end task | r refresh | q quit"
	}
	b.WriteString(footerStyle.Render(fmt.Sprintf("%s | store: %s", keys, m.storeLabel)))
	b.WriteString("\n")
}
