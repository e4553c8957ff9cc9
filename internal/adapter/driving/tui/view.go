package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
	"github.com/muesli/reflow/wordwrap"

	"github.com/ericfisherdev/timeguru/internal/domain/processor"
)

var (
	titleStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("14")).Bold(true)
	dimStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	selectedStyle = lipgloss.NewStyle().Background(lipgloss.Color("238")).Bold(true)
	runningStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
	statusStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("12"))

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("12")).
			Padding(0, 1)
	errorBoxStyle = boxStyle.BorderForeground(lipgloss.Color("9"))
)

// chrome is the number of lines used around the entry list.
const chrome = 6

// View renders the browser.
func (m Model) View() string {
	var b strings.Builder

	b.WriteString(m.viewHeader())
	b.WriteString("\n")

	if m.state.showFilter {
		b.WriteString(m.viewFilterPanel())
		b.WriteString("\n")
	}

	switch m.state.overlay {
	case overlayProjectSelector:
		b.WriteString(m.viewPicker())
	case overlayTextEdit:
		b.WriteString(m.viewEditor())
	case overlayError:
		b.WriteString(m.viewError())
	default:
		b.WriteString(m.viewList())
	}
	b.WriteString("\n")

	b.WriteString(m.viewSummary())
	b.WriteString("\n")
	if m.status != "" {
		b.WriteString(statusStyle.Render(truncate(m.status, m.width)))
		b.WriteString("\n")
	}
	if m.showHelp {
		b.WriteString(m.help.FullHelpView(m.keys.FullHelp()))
	} else {
		b.WriteString(m.help.ShortHelpView(m.keys.ShortHelp()))
	}
	return b.String()
}

func (m Model) viewHeader() string {
	title := fmt.Sprintf("Toggl TimeGuru - %s to %s",
		m.opts.Range.Start.In(m.opts.Location).Format(time.DateOnly),
		m.opts.Range.End.In(m.opts.Location).Format(time.DateOnly))

	rounding := "off"
	if m.state.rounding && m.opts.RoundMinutes > 0 {
		rounding = fmt.Sprintf("%dm", m.opts.RoundMinutes)
	}
	flags := dimStyle.Render(fmt.Sprintf("  [%s | sort: %s | rounding: %s]", m.state.mode, m.state.sort, rounding))

	line := titleStyle.Render(title) + flags
	if m.running != nil {
		elapsed := m.running.ElapsedSeconds(m.opts.Now())
		line += "  " + runningStyle.Render(fmt.Sprintf("● %s %s",
			truncate(processor.DisplayDescription(m.running.Description), 30),
			processor.FormatDuration(elapsed)))
	}
	if m.busy {
		line += dimStyle.Render("  (working...)")
	}
	return line
}

func (m Model) viewFilterPanel() string {
	billable := "[ ]"
	if m.state.filter.Billable != nil && *m.state.filter.Billable {
		billable = "[x]"
	}
	return boxStyle.Render(fmt.Sprintf("Filters  %s billable only   b toggle · c clear · f close", billable))
}

// visibleRows is the number of list rows that fit the terminal.
func (m Model) visibleRows() int {
	v := m.height - chrome
	if m.state.showFilter {
		v -= 3
	}
	return max(v, 3)
}

func (m Model) viewList() string {
	if !m.loaded {
		return dimStyle.Render("Loading...")
	}
	if len(m.rows) == 0 {
		return dimStyle.Render("No time entries in range. Press R to sync.")
	}

	visible := m.visibleRows()
	start := (m.state.selected / visible) * visible
	end := min(start+visible, len(m.rows))

	lines := make([]string, 0, end-start)
	for i := start; i < end; i++ {
		line := m.renderRow(m.rows[i])
		if i == m.state.selected {
			line = selectedStyle.Render("> " + truncate(line, m.width-2))
		} else {
			line = "  " + truncate(line, m.width-2)
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}

// renderRow formats a row as plain text so it can be truncated by cell width.
func (m Model) renderRow(row processor.Row) string {
	var parts []string

	if row.Group == nil {
		parts = append(parts, row.Entry.Start.In(m.opts.Location).Format("2006-01-02 15:04"))
	} else if m.state.mode == processor.ViewGroupedByDay {
		parts = append(parts, row.Group.Day.Format(time.DateOnly))
	}

	hours := processor.FormatHours(row.Seconds)
	if row.Group == nil && row.Entry.IsRunning() {
		hours += " ●"
	}
	parts = append(parts, hours)

	if p, ok := m.index.Lookup(row.ProjectID()); ok {
		parts = append(parts, "["+p.Name+"]")
	}

	desc := row.Description()
	if row.Group != nil {
		desc += fmt.Sprintf(" (%d entries)", len(row.Group.Entries))
	}
	parts = append(parts, desc)

	return strings.Join(parts, "  ")
}

func (m Model) viewSummary() string {
	filtered := processor.Filter(m.entries, m.state.filter, m.index)
	s := processor.Summarize(filtered, m.opts.Now())
	return dimStyle.Render(fmt.Sprintf("%d entries · total %s · billable %s · non-billable %s",
		s.Count,
		processor.FormatHours(s.Total),
		processor.FormatHours(s.Billable),
		processor.FormatHours(s.NonBillable)))
}

func (m Model) viewPicker() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Assign project"))
	if row, ok := m.selectedRow(); ok && row.Group != nil {
		b.WriteString(dimStyle.Render(fmt.Sprintf(" to %d entries", len(row.Group.Entries))))
	}
	b.WriteString("\n")
	b.WriteString(m.picker.input.View())
	b.WriteString("\n")

	visible := max(m.visibleRows()-4, 3)
	start := (m.picker.cursor / visible) * visible
	end := min(start+visible, len(m.picker.filtered))
	if len(m.picker.filtered) == 0 {
		b.WriteString(dimStyle.Render("no matching projects"))
	}
	for i := start; i < end; i++ {
		it := m.picker.items[m.picker.filtered[i]]
		name := it.name
		if it.color != "" {
			name = lipgloss.NewStyle().Foreground(lipgloss.Color(it.color)).Render(name)
		}
		if i == m.picker.cursor {
			b.WriteString(selectedStyle.Render("> ") + name)
		} else {
			b.WriteString("  " + name)
		}
		if i < end-1 {
			b.WriteString("\n")
		}
	}
	return boxStyle.Render(b.String())
}

func (m Model) viewEditor() string {
	return boxStyle.Render(titleStyle.Render("Rename") + "\n" + m.editor.input.View() + "\n" +
		dimStyle.Render("enter save · esc cancel"))
}

// viewError renders the error popup. Text is wrapped to the popup width so
// long messages never break the layout.
func (m Model) viewError() string {
	width := max(min(m.width-6, 80), 20)
	body := wordwrap.String(m.errText, width)
	return errorBoxStyle.Width(width + 2).Render(
		runningStyle.Render("Error") + "\n" + body + "\n\n" + dimStyle.Render("enter/esc dismiss"))
}

// truncate shortens s to width terminal cells, adding an ellipsis.
func truncate(s string, width int) string {
	if width <= 0 {
		return ""
	}
	if runewidth.StringWidth(s) <= width {
		return s
	}
	if width == 1 {
		return "…"
	}
	return runewidth.Truncate(s, width-1, "") + "…"
}
