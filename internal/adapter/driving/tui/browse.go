package tui

import (
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/ericfisherdev/timeguru/internal/application"
	"github.com/ericfisherdev/timeguru/internal/domain/model"
	"github.com/ericfisherdev/timeguru/internal/domain/processor"
)

func (m Model) updateBrowsing(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	n := len(m.rows)

	// The filter panel claims its own keys and esc while open.
	if m.state.showFilter {
		switch {
		case key.Matches(msg, m.keys.Billable):
			m.state.toggleBillable()
			m.rebuild()
			return m, nil
		case key.Matches(msg, m.keys.ClearFilt):
			m.state.filter = model.EntryFilter{}
			m.rebuild()
			return m, nil
		case key.Matches(msg, m.keys.Filters), msg.String() == "esc":
			m.state.showFilter = false
			return m, nil
		}
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		if msg.String() == "esc" && m.showHelp {
			m.showHelp = false
			return m, nil
		}
		return m, tea.Quit

	case key.Matches(msg, m.keys.Down):
		m.state.move(1, n)
	case key.Matches(msg, m.keys.Up):
		m.state.move(-1, n)
	case key.Matches(msg, m.keys.PageDown):
		m.state.move(pageSize, n)
	case key.Matches(msg, m.keys.PageUp):
		m.state.move(-pageSize, n)
	case key.Matches(msg, m.keys.Home):
		m.state.selected = 0
		m.state.clamp(n)
	case key.Matches(msg, m.keys.End):
		m.state.selected = n - 1
		m.state.clamp(n)

	case key.Matches(msg, m.keys.CycleView):
		m.state.mode = m.state.mode.Next()
		m.rebuild()
	case key.Matches(msg, m.keys.ToggleDay):
		m.state.toggleDay()
		m.rebuild()
	case key.Matches(msg, m.keys.CycleSort):
		m.state.sort = m.state.sort.Next()
		m.rebuild()
	case key.Matches(msg, m.keys.ToggleRnd):
		m.state.rounding = !m.state.rounding
		m.rebuild()
	case key.Matches(msg, m.keys.Filters):
		m.state.showFilter = true

	case key.Matches(msg, m.keys.Copy):
		m.copySelected()
	case key.Matches(msg, m.keys.Help):
		m.showHelp = !m.showHelp

	case key.Matches(msg, m.keys.Project):
		if m.refuseWhileBusy() {
			return m, nil
		}
		if _, ok := m.selectedRow(); !ok {
			m.status = "No time entry selected"
			return m, nil
		}
		m.picker.open(m.projects)
		m.state.overlay = overlayProjectSelector
		return m, m.picker.focus()

	case key.Matches(msg, m.keys.Rename):
		if m.refuseWhileBusy() {
			return m, nil
		}
		row, ok := m.selectedRow()
		if !ok {
			m.status = "No time entry selected"
			return m, nil
		}
		m.editor.open(rawDescription(row))
		m.state.overlay = overlayTextEdit
		return m, m.editor.focus()

	case key.Matches(msg, m.keys.Track):
		if m.refuseWhileBusy() {
			return m, nil
		}
		m.busy = true
		if m.running != nil {
			m.status = "Stopping..."
			return m, m.stopCmd()
		}
		desc := ""
		if row, ok := m.selectedRow(); ok {
			desc = rawDescription(row)
		}
		m.status = "Starting..."
		return m, m.startCmd(desc)

	case key.Matches(msg, m.keys.Refresh):
		if m.refuseWhileBusy() {
			return m, nil
		}
		m.busy = true
		m.status = "Syncing..."
		return m, m.pullCmd()
	}

	return m, nil
}

// refuseWhileBusy reports whether a mutation is still awaiting its result,
// in which case no second mutation may be dispatched.
func (m *Model) refuseWhileBusy() bool {
	if !m.busy {
		return false
	}
	m.status = application.ErrMutationInFlight.Error()
	return true
}

func (m *Model) copySelected() {
	row, ok := m.selectedRow()
	if !ok || rawDescription(row) == "" {
		m.status = "No description to copy"
		return
	}
	desc := rawDescription(row)
	if err := m.opts.Copy(desc); err != nil {
		m.status = "Failed to copy to clipboard"
		return
	}
	m.status = "Copied: " + desc
}

// rawDescription returns the row's description without the placeholder.
func rawDescription(row processor.Row) string {
	if row.Group != nil {
		return row.Group.Description
	}
	return row.Entry.Description
}

func rowIDs(row processor.Row) []int64 {
	entries := row.Entries()
	ids := make([]int64, len(entries))
	for i, e := range entries {
		ids[i] = e.ID
	}
	return ids
}

func displayOrNone(desc string) string {
	return processor.DisplayDescription(desc)
}
