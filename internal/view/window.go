package view

import (
	"sync"

	"bundle-console/internal/models"
)

// overscan rows rendered past the visible range in each direction.
const overscan = 2

// Window is the slice of the ledger the renderer should draw, plus the
// padding that keeps the scrollbar honest.
type Window struct {
	Visible     []models.Transaction
	StartIndex  int
	EndIndex    int
	TopPadding  int
	TotalHeight int
}

// Windower computes the visible index range from a scroll offset. It
// runs on every scroll tick, so the index math is O(1) and the visible
// slice keeps its identity while (start, end) and the backing row set
// are unchanged — sub-row scroll jitter must not produce a new slice.
type Windower struct {
	rowHeight      int
	viewportHeight int

	mu        sync.Mutex
	lastStart int
	lastEnd   int
	lastRows  []models.Transaction
	visible   []models.Transaction
}

func NewWindower(rowHeight, viewportHeight int) *Windower {
	if rowHeight <= 0 {
		rowHeight = 50
	}
	if viewportHeight <= 0 {
		viewportHeight = 400
	}
	return &Windower{
		rowHeight:      rowHeight,
		viewportHeight: viewportHeight,
		lastStart:      -1,
		lastEnd:        -1,
	}
}

func (w *Windower) Window(rows []models.Transaction, scrollOffset int) Window {
	if scrollOffset < 0 {
		scrollOffset = 0
	}

	start := scrollOffset / w.rowHeight
	perViewport := (w.viewportHeight + w.rowHeight - 1) / w.rowHeight
	end := start + perViewport + overscan
	if end > len(rows) {
		end = len(rows)
	}
	if start > end {
		start = end
	}

	w.mu.Lock()
	if start != w.lastStart || end != w.lastEnd || !sameRows(rows, w.lastRows) {
		w.lastStart, w.lastEnd = start, end
		w.lastRows = rows
		w.visible = rows[start:end]
	}
	visible := w.visible
	w.mu.Unlock()

	return Window{
		Visible:     visible,
		StartIndex:  start,
		EndIndex:    end,
		TopPadding:  start * w.rowHeight,
		TotalHeight: len(rows) * w.rowHeight,
	}
}

// sameRows is a shallow identity check on the backing slice, enough to
// detect a swapped-in row set without comparing contents.
func sameRows(a, b []models.Transaction) bool {
	if len(a) != len(b) {
		return false
	}
	return len(a) == 0 || &a[0] == &b[0]
}
