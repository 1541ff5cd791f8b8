package input

import (
	"github.com/notectl/notectl-go/model"
	"github.com/notectl/notectl-go/state"
	"github.com/notectl/notectl-go/transform"
)

// nearestIsolating returns the innermost isolating ancestor of a leaf, or
// "". Navigation never crosses an isolating boundary, so two leaves are
// mutual navigation targets only when this matches.
func nearestIsolating(s *state.EditorState, id model.BlockID) model.BlockID {
	found, ok := model.FindBlock(s.Doc, id)
	if !ok {
		return ""
	}
	reg := s.Registry()
	for i := len(found.Path) - 1; i >= 0; i-- {
		ancestor, ok := model.FindBlock(s.Doc, found.Path[i])
		if !ok {
			continue
		}
		if spec, ok := reg.Node(ancestor.Block.Type); ok && spec.Isolating {
			return ancestor.Block.ID
		}
	}
	return ""
}

// leafNeighbor finds the adjacent leaf in document order that shares the
// same isolating context, or nil.
func leafNeighbor(s *state.EditorState, id model.BlockID, forward bool) *model.Block {
	reg := s.Registry()
	leaves := model.Leaves(reg, s.Doc)
	index := -1
	for i, leaf := range leaves {
		if leaf.ID == id {
			index = i
			break
		}
	}
	if index < 0 {
		return nil
	}
	step := -1
	if forward {
		step = 1
	}
	next := index + step
	if next < 0 || next >= len(leaves) {
		return nil
	}
	if nearestIsolating(s, leaves[next].ID) != nearestIsolating(s, id) {
		return nil
	}
	return leaves[next]
}

// edgeSelection places the selection at the entry edge of a leaf: a
// textblock gets a caret (start when entering forward, end when entering
// backward), a void gets a node selection.
func edgeSelection(s *state.EditorState, leaf *model.Block, forward bool) model.Selection {
	spec, ok := s.Registry().Node(leaf.Type)
	if ok && spec.IsTextblock() {
		offset := leaf.Length()
		if forward {
			offset = 0
		}
		return model.NewCursor(model.Pos(leaf.ID, offset))
	}
	found, _ := model.FindBlock(s.Doc, leaf.ID)
	return model.NewNodeSelection(leaf.ID, found.Path)
}

// NavigateAcrossBlocks computes the selection after leaving the current
// block at its edge: the adjacent sibling in block order (respecting
// isolating ancestors), a gap cursor when no text target exists, or nil at
// a dead end.
func NavigateAcrossBlocks(s *state.EditorState, forward bool) model.Selection {
	reg := s.Registry()
	switch sel := s.Selection.(type) {
	case *model.GapCursor:
		entering := (sel.Side == model.SideBefore && forward) || (sel.Side == model.SideAfter && !forward)
		if entering {
			found, ok := model.FindBlock(s.Doc, sel.Block)
			if !ok {
				return nil
			}
			return edgeSelection(s, found.Block, forward)
		}
		if neighbor := leafNeighbor(s, sel.Block, forward); neighbor != nil {
			return edgeSelection(s, neighbor, forward)
		}
		return nil
	case *model.NodeSelection:
		if neighbor := leafNeighbor(s, sel.Node, forward); neighbor != nil {
			return edgeSelection(s, neighbor, forward)
		}
		return gapAtEdge(s, sel.Node, forward)
	case *model.TextSelection:
		if neighbor := leafNeighbor(s, sel.Head.Block, forward); neighbor != nil {
			spec, ok := reg.Node(neighbor.Type)
			if ok && !spec.IsTextblock() && !spec.Void {
				return nil
			}
			return edgeSelection(s, neighbor, forward)
		}
		return nil
	}
	return nil
}

// gapAtEdge produces the gap cursor at a document (or isolating) edge next
// to a non-text block, when that gap is a legal caret position.
func gapAtEdge(s *state.EditorState, id model.BlockID, forward bool) model.Selection {
	found, ok := model.FindBlock(s.Doc, id)
	if !ok {
		return nil
	}
	side := model.SideBefore
	if forward {
		side = model.SideAfter
	}
	return model.NewGapCursor(id, side, found.Path)
}

// atomSkip handles the inline-atom rule: when the child next to the caret in
// the motion direction is an inline node, move exactly one width and clear
// the stored marks, keeping the caret out of non-editable content.
func atomSkip(s *state.EditorState, forward bool) *transform.Transaction {
	sel, ok := s.Selection.(*model.TextSelection)
	if !ok || !sel.Collapsed() {
		return nil
	}
	block := s.TextblockAt(sel.Head)
	if block == nil {
		return nil
	}
	offset := sel.Head.Offset
	probe := offset
	if !forward {
		probe = offset - 1
	}
	if probe < 0 || probe >= block.Length() {
		return nil
	}
	ref := model.ContentAt(block.Inline, probe)
	if ref.Kind != model.RefInline {
		return nil
	}
	target := offset + 1
	if !forward {
		target = offset - 1
	}
	tr := s.NewTransaction(transform.OriginUser)
	tr.SetSelection(model.NewCursor(model.Pos(sel.Head.Block, target)))
	tr.SetStoredMarks(nil)
	return tr
}

// DocumentEdge computes the first or last reachable caret position
// (Ctrl+Home / Ctrl+End). A void at the boundary yields a node selection.
func DocumentEdge(s *state.EditorState, end bool) model.Selection {
	reg := s.Registry()
	leaves := model.Leaves(reg, s.Doc)
	if len(leaves) == 0 {
		return nil
	}
	leaf := leaves[0]
	if end {
		leaf = leaves[len(leaves)-1]
	}
	spec, ok := reg.Node(leaf.Type)
	if ok && spec.IsTextblock() {
		offset := 0
		if end {
			offset = leaf.Length()
		}
		return model.NewCursor(model.Pos(leaf.ID, offset))
	}
	found, _ := model.FindBlock(s.Doc, leaf.ID)
	return model.NewNodeSelection(leaf.ID, found.Path)
}

// selectionTransaction wraps a pure selection change.
func selectionTransaction(s *state.EditorState, sel model.Selection) *transform.Transaction {
	if sel == nil || sel.Eq(s.Selection) {
		return nil
	}
	tr := s.NewTransaction(transform.OriginUser)
	tr.SetSelection(sel)
	return tr
}
