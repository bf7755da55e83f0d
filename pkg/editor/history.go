package editor

import "github.com/aretw0/flowcanvas/pkg/domain"

// DefaultHistoryLimit is the number of snapshots kept when no limit is configured.
const DefaultHistoryLimit = 100

// History is a bounded linear undo/redo stack of graph snapshots.
// Entries are cloned on the way in and on the way out, so no entry ever aliases a live graph.
// Invariant: 0 <= index < len(entries).
type History struct {
	entries []domain.Graph
	index   int
	limit   int
}

// NewHistory creates a history whose first entry is initial.
// A limit below 1 selects DefaultHistoryLimit.
func NewHistory(initial domain.Graph, limit int) *History {
	if limit < 1 {
		limit = DefaultHistoryLimit
	}
	return &History{
		entries: []domain.Graph{initial.Clone()},
		limit:   limit,
	}
}

// Push discards every entry after the current index and appends g.
// When the stack outgrows its limit the oldest entries are dropped.
func (h *History) Push(g domain.Graph) {
	h.entries = append(h.entries[:h.index+1], g.Clone())
	if over := len(h.entries) - h.limit; over > 0 {
		// Copy down so the dropped snapshots can be collected.
		h.entries = append(h.entries[:0:0], h.entries[over:]...)
	}
	h.index = len(h.entries) - 1
}

// Undo moves one entry back and returns it. It is a no-op at the first entry.
func (h *History) Undo() (domain.Graph, bool) {
	if h.index == 0 {
		return domain.Graph{}, false
	}
	h.index--
	return h.entries[h.index].Clone(), true
}

// Redo moves one entry forward and returns it. It is a no-op at the last entry.
func (h *History) Redo() (domain.Graph, bool) {
	if h.index >= len(h.entries)-1 {
		return domain.Graph{}, false
	}
	h.index++
	return h.entries[h.index].Clone(), true
}

// Reset drops every entry and starts over from g.
func (h *History) Reset(g domain.Graph) {
	h.entries = []domain.Graph{g.Clone()}
	h.index = 0
}

func (h *History) CanUndo() bool { return h.index > 0 }

func (h *History) CanRedo() bool { return h.index < len(h.entries)-1 }

// Position returns the current index and the number of entries.
func (h *History) Position() (index, length int) {
	return h.index, len(h.entries)
}
