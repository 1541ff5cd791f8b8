package input

import (
	"github.com/notectl/notectl-go/dom"
	"github.com/notectl/notectl-go/model"
	"github.com/notectl/notectl-go/plugin"
)

// RegisterKeymaps installs the built-in bindings: caret navigation in the
// navigation bucket, editing chords in the default bucket. Plugins layer
// context bindings (Tab in a table cell) on top.
func (h *Handler) RegisterKeymaps() {
	h.keymap.Register(map[string]plugin.KeyHandler{
		"ArrowLeft":  func(env *plugin.Env) bool { return h.arrowHorizontal(false) },
		"ArrowRight": func(env *plugin.Env) bool { return h.arrowHorizontal(true) },
		"ArrowUp":    func(env *plugin.Env) bool { return h.arrowVertical(false) },
		"ArrowDown":  func(env *plugin.Env) bool { return h.arrowVertical(true) },
		"Home":       func(env *plugin.Env) bool { return h.lineBoundary(false) },
		"End":        func(env *plugin.Env) bool { return h.lineBoundary(true) },
		"Ctrl-Home":  func(env *plugin.Env) bool { return h.documentEdge(false) },
		"Ctrl-End":   func(env *plugin.Env) bool { return h.documentEdge(true) },
		"Backspace":  func(env *plugin.Env) bool { return h.specialDelete(true) },
		"Delete":     func(env *plugin.Env) bool { return h.specialDelete(false) },
		"Enter":      func(env *plugin.Env) bool { return h.specialEnter() },
	}, plugin.PriorityNavigation)

	h.keymap.Register(map[string]plugin.KeyHandler{
		"Ctrl-z":       func(env *plugin.Env) bool { return h.undo() },
		"Ctrl-y":       func(env *plugin.Env) bool { return h.redo() },
		"Ctrl-Shift-z": func(env *plugin.Env) bool { return h.redo() },
		"Ctrl-a":       func(env *plugin.Env) bool { return h.send(SelectAll(env.State)) },
		"Ctrl-b":       func(env *plugin.Env) bool { return h.send(ToggleMark("strong", nil)(env.State)) },
		"Ctrl-i":       func(env *plugin.Env) bool { return h.send(ToggleMark("em", nil)(env.State)) },
		"Ctrl-u":       func(env *plugin.Env) bool { return h.send(ToggleMark("underline", nil)(env.State)) },
		"Tab":          func(env *plugin.Env) bool { return h.send(InsertText(env.State, "\t")) },
	}, plugin.PriorityDefault)
}

// arrowHorizontal implements ArrowLeft/ArrowRight: collapse a range, skip
// inline atoms, cross block edges, otherwise move by one character (native
// motion when the environment offers it).
func (h *Handler) arrowHorizontal(forward bool) bool {
	s := h.state()
	h.view.ResetGoalColumn()
	switch sel := s.Selection.(type) {
	case *model.TextSelection:
		if !sel.Collapsed() {
			pos := sel.From(s.Registry(), s.Doc)
			if forward {
				pos = sel.To(s.Registry(), s.Doc)
			}
			return h.send(selectionTransaction(s, model.NewCursor(pos)))
		}
		if tr := atomSkip(s, forward); tr != nil {
			return h.send(tr)
		}
		edge := "left"
		if forward {
			edge = "right"
		}
		if h.view.EndOfTextblock(edge) {
			if next := NavigateAcrossBlocks(s, forward); next != nil {
				return h.send(selectionTransaction(s, next))
			}
			// Document edge: consume so nothing scrolls, change nothing.
			return true
		}
		return h.moveCharacter(sel, forward)
	case *model.NodeSelection, *model.GapCursor:
		if next := NavigateAcrossBlocks(s, forward); next != nil {
			return h.send(selectionTransaction(s, next))
		}
		return true
	}
	return false
}

// moveCharacter delegates to the native selection when it can move, reading
// the result back; headless hosts move the model caret directly.
func (h *Handler) moveCharacter(sel *model.TextSelection, forward bool) bool {
	native := h.view.Host().Selection()
	dir := dom.DirBackward
	if forward {
		dir = dom.DirForward
	}
	if native.Modify(false, dir, dom.GranularityCharacter) {
		if read := h.view.ReadSelectionFromDOM(); read != nil {
			return h.send(selectionTransaction(h.state(), read))
		}
		return true
	}
	delta := -1
	if forward {
		delta = 1
	}
	return h.send(selectionTransaction(h.state(), model.NewCursor(sel.Head.WithOffset(sel.Head.Offset+delta))))
}

// arrowVertical implements ArrowUp/ArrowDown with goal-column memory: cross
// blocks at visual edges, otherwise let the environment do visual-line
// motion, falling back to block edges headlessly.
func (h *Handler) arrowVertical(down bool) bool {
	s := h.state()
	switch sel := s.Selection.(type) {
	case *model.TextSelection:
		if _, set := h.view.GoalColumn(); !set {
			native := h.view.Host().Selection()
			if rect, ok := h.view.Host().Layout().CaretRect(native); ok {
				h.view.SetGoalColumn(rect.X)
			}
		}
		edge := "up"
		if down {
			edge = "down"
		}
		if h.view.EndOfTextblock(edge) {
			if next := NavigateAcrossBlocks(s, down); next != nil {
				return h.send(selectionTransaction(s, next))
			}
			return true
		}
		return h.moveVisualLine(sel, down)
	case *model.NodeSelection, *model.GapCursor:
		if next := NavigateAcrossBlocks(s, down); next != nil {
			return h.send(selectionTransaction(s, next))
		}
		return true
	}
	return false
}

// moveVisualLine delegates visual-line motion to the environment; headless
// hosts jump to the block edge, which is exact for unwrapped lines.
func (h *Handler) moveVisualLine(sel *model.TextSelection, down bool) bool {
	native := h.view.Host().Selection()
	dir := dom.DirBackward
	if down {
		dir = dom.DirForward
	}
	if native.Modify(false, dir, dom.GranularityLine) {
		if read := h.view.ReadSelectionFromDOM(); read != nil {
			return h.send(selectionTransaction(h.state(), read))
		}
		return true
	}
	s := h.state()
	block := s.TextblockAt(sel.Head)
	if block == nil {
		return false
	}
	offset := 0
	if down {
		offset = block.Length()
	}
	return h.send(selectionTransaction(s, model.NewCursor(sel.Head.WithOffset(offset))))
}

// lineBoundary implements Home/End via native line-boundary motion, with the
// logical block edge as fallback.
func (h *Handler) lineBoundary(end bool) bool {
	s := h.state()
	sel, ok := s.Selection.(*model.TextSelection)
	if !ok {
		return false
	}
	h.view.ResetGoalColumn()
	native := h.view.Host().Selection()
	dir := dom.DirBackward
	if end {
		dir = dom.DirForward
	}
	if native.Modify(false, dir, dom.GranularityLineBoundary) {
		if read := h.view.ReadSelectionFromDOM(); read != nil {
			return h.send(selectionTransaction(s, read))
		}
		return true
	}
	block := s.TextblockAt(sel.Head)
	if block == nil {
		return false
	}
	offset := 0
	if end {
		offset = block.Length()
	}
	return h.send(selectionTransaction(s, model.NewCursor(sel.Head.WithOffset(offset))))
}

func (h *Handler) documentEdge(end bool) bool {
	h.view.ResetGoalColumn()
	if sel := DocumentEdge(h.state(), end); sel != nil {
		return h.send(selectionTransaction(h.state(), sel))
	}
	return false
}

// specialDelete handles the Backspace/Delete cases the beforeinput channel
// never sees: node selections and gap cursors.
func (h *Handler) specialDelete(backward bool) bool {
	s := h.state()
	switch s.Selection.(type) {
	case *model.NodeSelection, *model.GapCursor:
		h.view.ResetGoalColumn()
		if backward {
			return h.send(DeleteBackward(s))
		}
		return h.send(DeleteForward(s))
	}
	return false
}

// specialEnter handles Enter on node selections and gap cursors; Enter in a
// textblock arrives as beforeinput insertParagraph.
func (h *Handler) specialEnter() bool {
	s := h.state()
	switch s.Selection.(type) {
	case *model.NodeSelection, *model.GapCursor:
		h.view.ResetGoalColumn()
		return h.send(SplitBlock(s))
	}
	return false
}
