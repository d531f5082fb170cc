package engine

import "checkers/game"

// Snapshot is an immutable copy of everything undo/redo restores.
type Snapshot struct {
	Board  *game.Board
	Turn   game.Color
	Status Status
	Winner game.Color
}

// history is a linear undo/redo timeline.
type history struct {
	undo []Snapshot
	redo []Snapshot
}

// record stores the state before a new move. Any redo branch is discarded.
func (h *history) record(s Snapshot) {
	h.undo = append(h.undo, s)
	h.redo = nil
}

func (h *history) back(current Snapshot) (Snapshot, bool) {
	if len(h.undo) == 0 {
		return Snapshot{}, false
	}
	prev := h.undo[len(h.undo)-1]
	h.undo = h.undo[:len(h.undo)-1]
	h.redo = append(h.redo, current)
	return prev, true
}

func (h *history) forward(current Snapshot) (Snapshot, bool) {
	if len(h.redo) == 0 {
		return Snapshot{}, false
	}
	next := h.redo[len(h.redo)-1]
	h.redo = h.redo[:len(h.redo)-1]
	h.undo = append(h.undo, current)
	return next, true
}

func (h *history) depth() (undo, redo int) {
	return len(h.undo), len(h.redo)
}
