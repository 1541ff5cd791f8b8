package input

import (
	"unicode"

	"github.com/notectl/notectl-go/model"
	"github.com/notectl/notectl-go/state"
	"github.com/notectl/notectl-go/transform"
)

// deleteSelectedBlock removes the block under a node selection and picks the
// follow-up selection: the adjacent textblock caret when one exists, a gap
// cursor otherwise.
func deleteSelectedBlock(s *state.EditorState, sel *model.NodeSelection, backward bool) *transform.Transaction {
	found, ok := model.FindBlock(s.Doc, sel.Node)
	if !ok {
		return nil
	}
	parent := model.BlockID("")
	if found.Parent != nil {
		parent = found.Parent.ID
	}
	neighbor := leafNeighbor(s, sel.Node, !backward)
	if neighbor == nil {
		neighbor = leafNeighbor(s, sel.Node, backward)
	}
	tr := s.NewTransaction(transform.OriginUser)
	tr.RemoveBlocks(parent, found.Index, 1)
	if tr.Err() != nil {
		return nil
	}
	if neighbor != nil {
		spec, ok := s.Registry().Node(neighbor.Type)
		if ok && spec.IsTextblock() {
			offset := neighbor.Length()
			if !backward {
				offset = 0
			}
			tr.SetSelection(model.NewCursor(model.Pos(neighbor.ID, offset)))
		} else {
			side := model.SideAfter
			if !backward {
				side = model.SideBefore
			}
			nf, _ := model.FindBlock(s.Doc, neighbor.ID)
			tr.SetSelection(model.NewGapCursor(neighbor.ID, side, nf.Path))
		}
	}
	return tr
}

// DeleteBackward implements Backspace. At offset 0 of a textblock the
// previous sibling decides: another textblock joins, a void gets selected
// rather than silently deleted, nothing means no-op.
func DeleteBackward(s *state.EditorState) *transform.Transaction {
	switch sel := s.Selection.(type) {
	case *model.NodeSelection:
		return deleteSelectedBlock(s, sel, true)
	case *model.GapCursor:
		if sel.Side != model.SideAfter {
			return nil
		}
		found, ok := model.FindBlock(s.Doc, sel.Block)
		if !ok {
			return nil
		}
		parent := model.BlockID("")
		if found.Parent != nil {
			parent = found.Parent.ID
		}
		tr := s.NewTransaction(transform.OriginUser)
		tr.RemoveBlocks(parent, found.Index, 1)
		if tr.Err() != nil {
			return nil
		}
		return tr
	case *model.TextSelection:
		from, to := selectionRange(s, sel)
		if !sel.Collapsed() {
			tr := s.NewTransaction(transform.OriginUser)
			tr.Bias = -1
			deleteRange(tr, s, from, to)
			if tr.Err() != nil {
				return nil
			}
			tr.SetSelection(model.NewCursor(from))
			return tr
		}
		if sel.Head.Offset > 0 {
			tr := s.NewTransaction(transform.OriginUser)
			tr.Bias = -1
			tr.DeleteRange(sel.Head.Block, sel.Head.Offset-1, sel.Head.Offset)
			if tr.Err() != nil {
				return nil
			}
			tr.SetSelection(model.NewCursor(model.Pos(sel.Head.Block, sel.Head.Offset-1)))
			return tr
		}
		prev := leafNeighbor(s, sel.Head.Block, false)
		if prev == nil {
			return nil
		}
		spec, ok := s.Registry().Node(prev.Type)
		if !ok {
			return nil
		}
		if !spec.IsTextblock() {
			// Select the void instead of deleting it silently.
			found, _ := model.FindBlock(s.Doc, prev.ID)
			return selectionTransaction(s, model.NewNodeSelection(prev.ID, found.Path))
		}
		prevFound, _ := model.FindBlock(s.Doc, prev.ID)
		curFound, _ := model.FindBlock(s.Doc, sel.Head.Block)
		if !sameSiblingList(prevFound, curFound) || prevFound.Index+1 != curFound.Index {
			return nil
		}
		joinAt := prev.Length()
		tr := s.NewTransaction(transform.OriginUser)
		tr.Join(prev.ID)
		if tr.Err() != nil {
			return nil
		}
		tr.SetSelection(model.NewCursor(model.Pos(prev.ID, joinAt)))
		return tr
	}
	return nil
}

// DeleteForward implements Delete, mirroring DeleteBackward.
func DeleteForward(s *state.EditorState) *transform.Transaction {
	switch sel := s.Selection.(type) {
	case *model.NodeSelection:
		return deleteSelectedBlock(s, sel, false)
	case *model.GapCursor:
		if sel.Side != model.SideBefore {
			return nil
		}
		found, ok := model.FindBlock(s.Doc, sel.Block)
		if !ok {
			return nil
		}
		parent := model.BlockID("")
		if found.Parent != nil {
			parent = found.Parent.ID
		}
		tr := s.NewTransaction(transform.OriginUser)
		tr.RemoveBlocks(parent, found.Index, 1)
		if tr.Err() != nil {
			return nil
		}
		return tr
	case *model.TextSelection:
		from, to := selectionRange(s, sel)
		if !sel.Collapsed() {
			tr := s.NewTransaction(transform.OriginUser)
			tr.Bias = -1
			deleteRange(tr, s, from, to)
			if tr.Err() != nil {
				return nil
			}
			tr.SetSelection(model.NewCursor(from))
			return tr
		}
		block := s.TextblockAt(sel.Head)
		if block == nil {
			return nil
		}
		if sel.Head.Offset < block.Length() {
			tr := s.NewTransaction(transform.OriginUser)
			tr.Bias = -1
			tr.DeleteRange(sel.Head.Block, sel.Head.Offset, sel.Head.Offset+1)
			if tr.Err() != nil {
				return nil
			}
			tr.SetSelection(model.NewCursor(sel.Head))
			return tr
		}
		next := leafNeighbor(s, sel.Head.Block, true)
		if next == nil {
			return nil
		}
		spec, ok := s.Registry().Node(next.Type)
		if !ok {
			return nil
		}
		if !spec.IsTextblock() {
			found, _ := model.FindBlock(s.Doc, next.ID)
			return selectionTransaction(s, model.NewNodeSelection(next.ID, found.Path))
		}
		curFound, _ := model.FindBlock(s.Doc, sel.Head.Block)
		nextFound, _ := model.FindBlock(s.Doc, next.ID)
		if !sameSiblingList(curFound, nextFound) || curFound.Index+1 != nextFound.Index {
			return nil
		}
		tr := s.NewTransaction(transform.OriginUser)
		tr.Join(sel.Head.Block)
		if tr.Err() != nil {
			return nil
		}
		tr.SetSelection(model.NewCursor(sel.Head))
		return tr
	}
	return nil
}

func sameSiblingList(a, b model.Found) bool {
	if a.Parent == nil && b.Parent == nil {
		return true
	}
	return a.Parent != nil && b.Parent != nil && a.Parent.ID == b.Parent.ID
}

// wordBoundary is the fallback word segmenter used when the environment
// cannot supply native word boundaries: skip adjacent whitespace, then
// consume the run of same-class characters.
func wordBoundary(text []rune, offset int, forward bool) int {
	class := func(r rune) int {
		switch {
		case unicode.IsSpace(r):
			return 0
		case unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_':
			return 1
		default:
			return 2
		}
	}
	if forward {
		i := offset
		for i < len(text) && class(text[i]) == 0 {
			i++
		}
		if i < len(text) {
			c := class(text[i])
			for i < len(text) && class(text[i]) == c {
				i++
			}
		}
		return i
	}
	i := offset
	for i > 0 && class(text[i-1]) == 0 {
		i--
	}
	if i > 0 {
		c := class(text[i-1])
		for i > 0 && class(text[i-1]) == c {
			i--
		}
	}
	return i
}

// DeleteWord deletes to the nearest word boundary in the given direction,
// falling back to plain character deletion at block edges.
func DeleteWord(s *state.EditorState, forward bool) *transform.Transaction {
	sel, ok := s.Selection.(*model.TextSelection)
	if !ok || !sel.Collapsed() {
		if forward {
			return DeleteForward(s)
		}
		return DeleteBackward(s)
	}
	block := s.TextblockAt(sel.Head)
	if block == nil {
		return nil
	}
	atEdge := (!forward && sel.Head.Offset == 0) || (forward && sel.Head.Offset == block.Length())
	if atEdge {
		if forward {
			return DeleteForward(s)
		}
		return DeleteBackward(s)
	}
	text := []rune(model.BlockText(s.Registry(), block))
	boundary := wordBoundary(text, sel.Head.Offset, forward)
	from, to := boundary, sel.Head.Offset
	if forward {
		from, to = sel.Head.Offset, boundary
	}
	if from == to {
		return nil
	}
	tr := s.NewTransaction(transform.OriginUser)
	tr.Bias = -1
	tr.DeleteRange(sel.Head.Block, from, to)
	if tr.Err() != nil {
		return nil
	}
	tr.SetSelection(model.NewCursor(model.Pos(sel.Head.Block, from)))
	return tr
}
