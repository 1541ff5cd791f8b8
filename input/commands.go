// Package input implements the editor's input pipeline: beforeinput
// routing, keydown dispatch through the priority keymap, the composition
// pipeline, paste and drop, and caret navigation across blocks, inline
// atoms and gap positions. Everything here produces transactions; nothing
// touches the DOM directly.
package input

import (
	"unicode/utf8"

	"github.com/notectl/notectl-go/model"
	"github.com/notectl/notectl-go/state"
	"github.com/notectl/notectl-go/transform"
)

// selectionRange resolves a text selection to ordered endpoints.
func selectionRange(s *state.EditorState, sel *model.TextSelection) (from, to model.Position) {
	reg := s.Registry()
	return sel.From(reg, s.Doc), sel.To(reg, s.Doc)
}

// typedMarks returns the marks newly typed text should carry: the stored
// marks when set, otherwise the marks at the caret.
func typedMarks(s *state.EditorState, pos model.Position) []*model.Mark {
	if s.StoredMarks != nil {
		return s.StoredMarks
	}
	block := s.TextblockAt(pos)
	if block == nil {
		return nil
	}
	return model.MarksAt(s.Registry(), block.Inline, pos.Offset)
}

// deleteRange removes the content between two positions, which may span
// blocks. After the deletion the from-block holds the surviving content of
// both endpoints. Cross-parent ranges delete whole top-level blocks between
// the endpoints' ancestors.
func deleteRange(tr *transform.Transaction, s *state.EditorState, from, to model.Position) {
	if from.Block == to.Block {
		tr.DeleteRange(from.Block, from.Offset, to.Offset)
		return
	}
	fromFound, okF := model.FindBlock(s.Doc, from.Block)
	toFound, okT := model.FindBlock(s.Doc, to.Block)
	if !okF || !okT {
		return
	}
	tr.DeleteRange(from.Block, from.Offset, fromFound.Block.Length())
	tr.DeleteRange(to.Block, 0, to.Offset)
	sameParent := (fromFound.Parent == nil && toFound.Parent == nil) ||
		(fromFound.Parent != nil && toFound.Parent != nil && fromFound.Parent.ID == toFound.Parent.ID)
	if sameParent && toFound.Index > fromFound.Index+1 {
		parent := model.BlockID("")
		if fromFound.Parent != nil {
			parent = fromFound.Parent.ID
		}
		tr.RemoveBlocks(parent, fromFound.Index+1, toFound.Index-fromFound.Index-1)
	}
	if !sameParent {
		fromTop, toTop := fromFound.Index, toFound.Index
		if len(fromFound.Path) > 0 {
			if anc, ok := model.FindBlock(s.Doc, fromFound.Path[0]); ok {
				fromTop = anc.Index
			}
		}
		if len(toFound.Path) > 0 {
			if anc, ok := model.FindBlock(s.Doc, toFound.Path[0]); ok {
				toTop = anc.Index
			}
		}
		if toTop > fromTop+1 {
			tr.RemoveBlocks("", fromTop+1, toTop-fromTop-1)
		}
	}
	if sameParent {
		reg := s.Registry()
		fromSpec, _ := reg.Node(fromFound.Block.Type)
		toSpec, _ := reg.Node(toFound.Block.Type)
		if fromSpec != nil && toSpec != nil && fromSpec.IsTextblock() && toSpec.IsTextblock() {
			tr.Join(from.Block)
		}
	}
}

// InsertText replaces the current selection with typed text, inheriting
// stored marks. At a gap cursor it creates a new paragraph holding the text.
func InsertText(s *state.EditorState, text string) *transform.Transaction {
	switch sel := s.Selection.(type) {
	case *model.TextSelection:
		from, to := selectionRange(s, sel)
		marks := typedMarks(s, from)
		tr := s.NewTransaction(transform.OriginUser)
		if from.Block == to.Block {
			tr.InsertText(from.Block, from.Offset, to.Offset, text, marks)
		} else {
			deleteRange(tr, s, from, to)
			tr.InsertText(from.Block, from.Offset, from.Offset, text, marks)
		}
		if tr.Err() != nil {
			return nil
		}
		tr.SetSelection(model.NewCursor(model.Pos(from.Block, from.Offset+utf8.RuneCountInString(text))))
		return tr
	case *model.GapCursor:
		return insertParagraphAtGap(s, sel, text)
	case *model.NodeSelection:
		// Typing over a node selection replaces the block with a paragraph
		// holding the text.
		return replaceNodeSelection(s, sel, text)
	}
	return nil
}

// insertParagraphAtGap creates a paragraph with the given text at a gap
// position and puts the caret in it.
func insertParagraphAtGap(s *state.EditorState, sel *model.GapCursor, text string) *transform.Transaction {
	found, ok := model.FindBlock(s.Doc, sel.Block)
	if !ok {
		return nil
	}
	var inline []model.InlineChild
	if text != "" {
		inline = []model.InlineChild{model.NewTextRun(text, nil)}
	}
	para, err := model.NewBlock(s.Registry(), "paragraph", nil, inline, nil)
	if err != nil {
		return nil
	}
	index := found.Index
	if sel.Side == model.SideAfter {
		index++
	}
	parent := model.BlockID("")
	if found.Parent != nil {
		parent = found.Parent.ID
	}
	tr := s.NewTransaction(transform.OriginUser)
	tr.InsertBlocks(parent, index, para)
	if tr.Err() != nil {
		return nil
	}
	tr.SetSelection(model.NewCursor(model.Pos(para.ID, para.Length())))
	return tr
}

// replaceNodeSelection swaps the selected block for a paragraph carrying
// the typed text (empty text gives an empty paragraph, the Enter behavior).
func replaceNodeSelection(s *state.EditorState, sel *model.NodeSelection, text string) *transform.Transaction {
	found, ok := model.FindBlock(s.Doc, sel.Node)
	if !ok {
		return nil
	}
	var inline []model.InlineChild
	if text != "" {
		inline = []model.InlineChild{model.NewTextRun(text, nil)}
	}
	para, err := model.NewBlock(s.Registry(), "paragraph", nil, inline, nil)
	if err != nil {
		return nil
	}
	parent := model.BlockID("")
	if found.Parent != nil {
		parent = found.Parent.ID
	}
	tr := s.NewTransaction(transform.OriginUser)
	tr.ReplaceBlocks(parent, found.Index, 1, para)
	if tr.Err() != nil {
		return nil
	}
	tr.SetSelection(model.NewCursor(model.Pos(para.ID, para.Length())))
	return tr
}

// SplitBlock implements Enter: cut the current textblock at the caret. A
// heading split at its end yields a paragraph, so typing continues in body
// text. At a gap cursor an empty paragraph appears; a node selection is
// replaced by an empty paragraph.
func SplitBlock(s *state.EditorState) *transform.Transaction {
	switch sel := s.Selection.(type) {
	case *model.TextSelection:
		from, to := selectionRange(s, sel)
		tr := s.NewTransaction(transform.OriginUser)
		if !sel.Collapsed() {
			deleteRange(tr, s, from, to)
		}
		block := s.TextblockAt(from)
		if block == nil {
			return nil
		}
		spec, _ := s.Registry().Node(block.Type)
		if spec != nil && spec.Atom {
			return nil
		}
		typ := ""
		if block.Type == "heading" && from.Offset == block.Length() {
			typ = "paragraph"
		}
		step := transform.NewSplitBlockStep(from.Block, from.Offset, typ, nil)
		tr.Step(step)
		if tr.Err() != nil {
			return nil
		}
		tr.SetSelection(model.NewCursor(model.Pos(step.NewID, 0)))
		return tr
	case *model.GapCursor:
		return insertParagraphAtGap(s, sel, "")
	case *model.NodeSelection:
		return replaceNodeSelection(s, sel, "")
	}
	return nil
}

// InsertHardBreak inserts a hard-break inline node at the caret.
func InsertHardBreak(s *state.EditorState) *transform.Transaction {
	sel, ok := s.Selection.(*model.TextSelection)
	if !ok {
		return nil
	}
	from, to := selectionRange(s, sel)
	node, err := model.NewInlineNode(s.Registry(), "hard_break", nil)
	if err != nil {
		return nil
	}
	tr := s.NewTransaction(transform.OriginUser)
	if from.Block == to.Block {
		tr.Step(transform.NewReplaceStep(from.Block, from.Offset, to.Offset, []model.InlineChild{node}))
	} else {
		deleteRange(tr, s, from, to)
		tr.InsertInline(from.Block, from.Offset, node)
	}
	if tr.Err() != nil {
		return nil
	}
	tr.SetSelection(model.NewCursor(model.Pos(from.Block, from.Offset+1)))
	return tr
}

// SelectAll selects from the first textblock's start to the last one's end.
func SelectAll(s *state.EditorState) *transform.Transaction {
	reg := s.Registry()
	first := model.FirstTextblock(reg, s.Doc)
	last := model.LastTextblock(reg, s.Doc)
	if first == nil || last == nil {
		return nil
	}
	tr := s.NewTransaction(transform.OriginCommand)
	tr.SetSelection(model.NewTextSelection(model.Pos(first.ID, 0), model.Pos(last.ID, last.Length())))
	return tr
}

// rangeSegment is one block's slice of a cross-block range.
type rangeSegment struct {
	block    model.BlockID
	from, to int
}

// rangeSegments splits a selection range into per-textblock segments.
func rangeSegments(s *state.EditorState, from, to model.Position) []rangeSegment {
	if from.Block == to.Block {
		return []rangeSegment{{block: from.Block, from: from.Offset, to: to.Offset}}
	}
	reg := s.Registry()
	leaves := model.Leaves(reg, s.Doc)
	var segments []rangeSegment
	inRange := false
	for _, leaf := range leaves {
		spec, _ := reg.Node(leaf.Type)
		isText := spec != nil && spec.IsTextblock()
		switch leaf.ID {
		case from.Block:
			inRange = true
			if isText {
				segments = append(segments, rangeSegment{block: leaf.ID, from: from.Offset, to: leaf.Length()})
			}
		case to.Block:
			if isText {
				segments = append(segments, rangeSegment{block: leaf.ID, from: 0, to: to.Offset})
			}
			return segments
		default:
			if inRange && isText {
				segments = append(segments, rangeSegment{block: leaf.ID, from: 0, to: leaf.Length()})
			}
		}
	}
	return segments
}

// markActiveAcross reports whether every non-empty segment of the range
// carries the mark type.
func markActiveAcross(s *state.EditorState, segments []rangeSegment, markType string) bool {
	any := false
	for _, seg := range segments {
		if seg.from == seg.to {
			continue
		}
		block := s.TextblockAt(model.Pos(seg.block, 0))
		if block == nil {
			continue
		}
		slice := model.SliceInline(block.Inline, seg.from, seg.to)
		for _, child := range slice {
			run, ok := child.(*model.TextRun)
			if !ok {
				continue
			}
			any = true
			if model.MarkTypeInSet(markType, run.Marks) == nil {
				return false
			}
		}
	}
	return any
}

// ToggleMark builds the command toggling a mark across the selection. On a
// collapsed selection it toggles the stored marks instead, so the next typed
// character picks the change up.
func ToggleMark(markType string, attrs map[string]interface{}) func(s *state.EditorState) *transform.Transaction {
	return func(s *state.EditorState) *transform.Transaction {
		sel, ok := s.Selection.(*model.TextSelection)
		if !ok {
			return nil
		}
		reg := s.Registry()
		if _, known := reg.Mark(markType); !known {
			return nil
		}
		mark := model.NewMark(markType, attrs)
		if sel.Collapsed() {
			block := s.TextblockAt(sel.Head)
			if block == nil {
				return nil
			}
			spec, _ := reg.Node(block.Type)
			if spec == nil || !reg.AllowsMark(spec, markType) {
				return nil
			}
			current := s.StoredMarks
			if current == nil {
				current = model.MarksAt(reg, block.Inline, sel.Head.Offset)
			}
			tr := s.NewTransaction(transform.OriginCommand)
			if model.MarkTypeInSet(markType, current) != nil {
				tr.SetStoredMarks(model.RemoveMarkType(markType, current))
			} else {
				tr.SetStoredMarks(mark.AddToSet(reg, current))
			}
			return tr
		}
		from, to := selectionRange(s, sel)
		segments := rangeSegments(s, from, to)
		if len(segments) == 0 {
			return nil
		}
		active := markActiveAcross(s, segments, markType)
		tr := s.NewTransaction(transform.OriginCommand)
		applied := false
		for _, seg := range segments {
			if seg.from == seg.to {
				continue
			}
			block := s.TextblockAt(model.Pos(seg.block, 0))
			if block == nil {
				continue
			}
			spec, _ := reg.Node(block.Type)
			if spec == nil || !reg.AllowsMark(spec, markType) {
				continue
			}
			if active {
				tr.RemoveMark(seg.block, seg.from, seg.to, mark)
			} else {
				tr.AddMark(seg.block, seg.from, seg.to, mark)
			}
			applied = true
		}
		if !applied || tr.Err() != nil {
			return nil
		}
		tr.SetSelection(sel)
		return tr
	}
}

// SetBlockType converts the textblocks covered by the selection to a new
// type with the given attributes.
func SetBlockType(typ string, attrs map[string]interface{}) func(s *state.EditorState) *transform.Transaction {
	return func(s *state.EditorState) *transform.Transaction {
		sel, ok := s.Selection.(*model.TextSelection)
		if !ok {
			return nil
		}
		reg := s.Registry()
		spec, known := reg.Node(typ)
		if !known || !spec.IsTextblock() {
			return nil
		}
		from, to := selectionRange(s, sel)
		tr := s.NewTransaction(transform.OriginCommand)
		changed := false
		for _, seg := range rangeSegments(s, from, to) {
			found, ok := model.FindBlock(s.Doc, seg.block)
			if !ok || found.Block.Type == typ {
				continue
			}
			parent := model.BlockID("")
			if found.Parent != nil {
				parent = found.Parent.ID
			}
			repl := found.Block.WithType(typ, attrs)
			tr.ReplaceBlocks(parent, found.Index, 1, repl)
			changed = true
		}
		if !changed || tr.Err() != nil {
			return nil
		}
		return tr
	}
}
