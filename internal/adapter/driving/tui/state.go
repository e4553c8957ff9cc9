package tui

import (
	"github.com/ericfisherdev/timeguru/internal/domain/model"
	"github.com/ericfisherdev/timeguru/internal/domain/processor"
)

// overlay is the modal layer currently capturing key input.
type overlay int

const (
	overlayNone overlay = iota
	overlayProjectSelector
	overlayTextEdit
	overlayError
)

func (o overlay) String() string {
	switch o {
	case overlayProjectSelector:
		return "project selector"
	case overlayTextEdit:
		return "text edit"
	case overlayError:
		return "error"
	default:
		return "none"
	}
}

const pageSize = 10

// viewState holds the orthogonal browsing toggles. Any combination is valid.
type viewState struct {
	mode       processor.ViewMode
	sort       processor.SortMode
	rounding   bool
	filter     model.EntryFilter
	showFilter bool
	overlay    overlay
	selected   int
}

// clamp keeps the selection inside a sequence of n rows.
func (s *viewState) clamp(n int) {
	switch {
	case n == 0:
		s.selected = 0
	case s.selected >= n:
		s.selected = n - 1
	case s.selected < 0:
		s.selected = 0
	}
}

// move shifts the selection by delta and clamps it.
func (s *viewState) move(delta, n int) {
	s.selected += delta
	s.clamp(n)
}

// toggleDay flips between grouped and grouped-by-day. From the flat view
// it goes straight to grouped by day.
func (s *viewState) toggleDay() {
	if s.mode == processor.ViewGroupedByDay {
		s.mode = processor.ViewGrouped
		return
	}
	s.mode = processor.ViewGroupedByDay
}

func (s *viewState) toggleBillable() {
	if s.filter.Billable != nil {
		s.filter.Billable = nil
		return
	}
	yes := true
	s.filter.Billable = &yes
}
