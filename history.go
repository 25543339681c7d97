package uno

import "golang.org/x/exp/slices"

// History owns two stacks of state copies. A fresh command discards the redo branch.
type History struct {
	undoStack []*GameState
	redoStack []*GameState

	// Oldest undo entries are dropped beyond limit. 0 means unbounded.
	limit int
}

func NewHistory(limit int) *History {
	return &History{
		undoStack: make([]*GameState, 0, 64),
		redoStack: make([]*GameState, 0, 64),
		limit:     limit,
	}
}

func (h *History) RecordBeforeCommand(s *GameState) {
	h.undoStack = append(h.undoStack, s.Clone())
	if h.limit > 0 && len(h.undoStack) > h.limit {
		h.undoStack = slices.Delete(h.undoStack, 0, len(h.undoStack)-h.limit)
	}
	h.redoStack = h.redoStack[:0]
}

// Undo returns the state that becomes current and keeps a copy of current for redo.
func (h *History) Undo(current *GameState) (*GameState, error) {
	if len(h.undoStack) == 0 {
		return nil, ErrNothingToUndo
	}
	prev := h.undoStack[len(h.undoStack)-1]
	h.undoStack = h.undoStack[:len(h.undoStack)-1]
	h.redoStack = append(h.redoStack, current.Clone())
	return prev, nil
}

func (h *History) Redo(current *GameState) (*GameState, error) {
	if len(h.redoStack) == 0 {
		return nil, ErrNothingToRedo
	}
	next := h.redoStack[len(h.redoStack)-1]
	h.redoStack = h.redoStack[:len(h.redoStack)-1]
	h.undoStack = append(h.undoStack, current.Clone())
	return next, nil
}

func (h *History) Clear() {
	h.undoStack = h.undoStack[:0]
	h.redoStack = h.redoStack[:0]
}

func (h *History) CanUndo() bool {
	return len(h.undoStack) > 0
}

func (h *History) CanRedo() bool {
	return len(h.redoStack) > 0
}

func (h *History) UndoLen() int {
	return len(h.undoStack)
}

func (h *History) RedoLen() int {
	return len(h.redoStack)
}
