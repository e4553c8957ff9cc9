package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/ericfisherdev/timeguru/internal/domain/model"
)

const noProjectLabel = "(No project)"

type pickerItem struct {
	id    *int64
	name  string
	color string
}

// picker is the project selector overlay: a filter input over the list of
// active projects, with an entry that clears the project.
type picker struct {
	input    textinput.Model
	items    []pickerItem
	filtered []int
	cursor   int
}

func newPicker() picker {
	ti := textinput.New()
	ti.Placeholder = "type to filter..."
	ti.CharLimit = 50
	ti.Width = 30
	return picker{input: ti}
}

func (p *picker) setWidth(w int) {
	if w > 10 {
		p.input.Width = min(w-10, 60)
	}
}

func (p *picker) open(projects []model.Project) {
	p.items = []pickerItem{{name: noProjectLabel}}
	for _, proj := range projects {
		if !proj.Active {
			continue
		}
		id := proj.ID
		p.items = append(p.items, pickerItem{id: &id, name: proj.Name, color: proj.Color})
	}
	p.input.SetValue("")
	p.cursor = 0
	p.refilter()
}

func (p *picker) focus() tea.Cmd {
	return p.input.Focus()
}

func (p *picker) close() {
	p.input.Blur()
}

// refilter keeps items whose name contains the query, case-insensitively.
func (p *picker) refilter() {
	q := strings.ToLower(strings.TrimSpace(p.input.Value()))
	filtered := make([]int, 0, len(p.items))
	for i, it := range p.items {
		if q == "" || strings.Contains(strings.ToLower(it.name), q) {
			filtered = append(filtered, i)
		}
	}
	p.filtered = filtered
	if p.cursor >= len(p.filtered) {
		p.cursor = max(len(p.filtered)-1, 0)
	}
}

func (p *picker) selected() (pickerItem, bool) {
	if len(p.filtered) == 0 {
		return pickerItem{}, false
	}
	return p.items[p.filtered[p.cursor]], true
}

func (m Model) updatePicker(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Cancel):
		m.picker.close()
		m.state.overlay = overlayNone
		return m, nil

	case key.Matches(msg, m.keys.Confirm):
		item, ok := m.picker.selected()
		if !ok {
			m.status = "No project selected"
			return m, nil
		}
		row, ok := m.selectedRow()
		m.picker.close()
		m.state.overlay = overlayNone
		if !ok {
			return m, nil
		}
		m.busy = true
		m.status = "Assigning " + item.name + "..."
		return m, m.assignCmd(rowIDs(row), item.id, item.name)

	case key.Matches(msg, m.keys.PickerUp):
		if m.picker.cursor > 0 {
			m.picker.cursor--
		}
		return m, nil

	case key.Matches(msg, m.keys.PickerDown):
		if m.picker.cursor < len(m.picker.filtered)-1 {
			m.picker.cursor++
		}
		return m, nil
	}

	before := m.picker.input.Value()
	var cmd tea.Cmd
	m.picker.input, cmd = m.picker.input.Update(msg)
	if m.picker.input.Value() != before {
		m.picker.refilter()
	}
	return m, cmd
}

// editor is the text edit overlay used to rename entries.
type editor struct {
	input textinput.Model
}

func newEditor() editor {
	ti := textinput.New()
	ti.Placeholder = "description"
	ti.CharLimit = 3000
	ti.Width = 60
	return editor{input: ti}
}

func (e *editor) setWidth(w int) {
	if w > 10 {
		e.input.Width = min(w-10, 100)
	}
}

func (e *editor) open(text string) {
	e.input.SetValue(text)
	e.input.CursorEnd()
}

func (e *editor) focus() tea.Cmd {
	return e.input.Focus()
}

func (m Model) updateEditor(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Cancel):
		m.editor.input.Blur()
		m.state.overlay = overlayNone
		return m, nil

	case key.Matches(msg, m.keys.Confirm):
		text := strings.TrimSpace(m.editor.input.Value())
		m.editor.input.Blur()
		m.state.overlay = overlayNone
		row, ok := m.selectedRow()
		if !ok || text == rawDescription(row) {
			return m, nil
		}
		m.busy = true
		m.status = "Renaming..."
		return m, m.renameCmd(rowIDs(row), text)
	}

	var cmd tea.Cmd
	m.editor.input, cmd = m.editor.input.Update(msg)
	return m, cmd
}
