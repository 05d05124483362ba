package ui

import (
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/nibzard/tasklist/internal/form"
	"github.com/nibzard/tasklist/internal/task"
)

var fieldLabels = [fieldCount]string{"Title", "Description", "End time"}

func (m *model) openForm() tea.Cmd {
	now := m.ctrl.Now()
	m.form = form.New(now)
	m.inputs = make([]textinput.Model, fieldCount)
	for i := range m.inputs {
		in := textinput.New()
		in.Prompt = ""
		in.Width = inputWidth(m.width)
		m.inputs[i] = in
	}
	m.inputs[fieldTitle].Placeholder = "What needs doing?"
	m.inputs[fieldTitle].CharLimit = 200
	m.inputs[fieldDescription].Placeholder = "optional"
	m.inputs[fieldEnd].Placeholder = task.TimeLayout
	m.inputs[fieldEnd].CharLimit = len(task.TimeLayout)
	m.inputs[fieldEnd].SetValue(m.form.EndText())
	m.focus = fieldTitle
	m.mode = modeForm
	m.setStatus("")
	return m.inputs[m.focus].Focus()
}

func (m *model) updateForm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit
	case "esc":
		_ = m.form.Cancel()
		m.closeForm()
		m.setStatus("Cancelled")
		return m, nil
	case "tab", "down":
		return m, m.focusField((m.focus + 1) % fieldCount)
	case "shift+tab", "up":
		return m, m.focusField((m.focus + fieldCount - 1) % fieldCount)
	case "enter":
		if m.focus < fieldEnd {
			return m, m.focusField(m.focus + 1)
		}
		return m, m.submitForm()
	case "ctrl+s":
		return m, m.submitForm()
	}
	var cmd tea.Cmd
	m.inputs[m.focus], cmd = m.inputs[m.focus].Update(msg)
	return m, cmd
}

func (m *model) focusField(i int) tea.Cmd {
	m.inputs[m.focus].Blur()
	m.focus = i
	return m.inputs[m.focus].Focus()
}

// submitForm validates the form and closes it whether or not it passed.
func (m *model) submitForm() tea.Cmd {
	f := m.form
	f.Title = m.inputs[fieldTitle].Value()
	f.Description = m.inputs[fieldDescription].Value()
	f.SetEndText(m.inputs[fieldEnd].Value())
	req, err := f.Confirm(m.ctrl.Now())
	m.closeForm()
	if err != nil {
		m.logger.Debug("new task rejected", "err", err)
		m.status = err.Error()
		m.statusErr = true
		return nil
	}
	return m.dispatchCmd(task.CreateCommand{Task: req})
}

func (m *model) closeForm() {
	m.form = nil
	m.inputs = nil
	m.focus = 0
	m.mode = modeList
}

func inputWidth(total int) int {
	if total <= 0 {
		return 40
	}
	w := total - 20
	if w < 20 {
		w = 20
	}
	if w > 60 {
		w = 60
	}
	return w
}
