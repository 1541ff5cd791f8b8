package input

import (
	"encoding/json"
	"strings"

	"github.com/notectl/notectl-go/dom"
	"github.com/notectl/notectl-go/htmlconv"
	"github.com/notectl/notectl-go/model"
	"github.com/notectl/notectl-go/state"
	"github.com/notectl/notectl-go/transform"
)

// Clipboard MIME types. The fragment token wins over text/html on paste so
// copies within the editor round-trip losslessly; its payload is the
// document JSON of the copied blocks.
const (
	FragmentMIME = "application/x-notectl-fragment"
	SourceMIME   = "application/x-notectl-source"
)

// decodeTransfer reads clipboard data in priority order: internal token,
// text/html, text/plain. The returned blocks carry fresh ids.
func decodeTransfer(s *state.EditorState, t *dom.DataTransfer) []*model.Block {
	reg := s.Registry()
	if raw := t.GetData(FragmentMIME); raw != "" {
		var obj map[string]interface{}
		if err := json.Unmarshal([]byte(raw), &obj); err == nil {
			if doc, err := model.DocumentFromJSON(reg, obj); err == nil {
				blocks := make([]*model.Block, len(doc.Children))
				for i, b := range doc.Children {
					blocks[i] = model.CloneWithNewIDs(b)
				}
				return blocks
			}
		}
	}
	if raw := t.GetData("text/html"); raw != "" {
		if blocks, err := htmlconv.Parse(reg, raw); err == nil && len(blocks) > 0 {
			return blocks
		}
	}
	if raw := t.GetData("text/plain"); raw != "" {
		var blocks []*model.Block
		for _, line := range strings.Split(strings.ReplaceAll(raw, "\r\n", "\n"), "\n") {
			var inline []model.InlineChild
			if line != "" {
				inline = append(inline, model.NewTextRun(line, nil))
			}
			b, err := model.NewBlock(reg, "paragraph", nil, inline, nil)
			if err != nil {
				continue
			}
			blocks = append(blocks, b)
		}
		return blocks
	}
	return nil
}

// EncodeTransfer fills a payload with every representation of the given
// blocks: internal token, HTML and plain text.
func EncodeTransfer(s *state.EditorState, t *dom.DataTransfer, blocks []*model.Block) {
	reg := s.Registry()
	doc := model.NewDocument(blocks...)
	if raw, err := model.MarshalDocument(doc); err == nil {
		t.SetData(FragmentMIME, string(raw))
	}
	t.SetData("text/html", htmlconv.SerializeBlocks(reg, blocks))
	t.SetData("text/plain", model.Text(reg, doc))
}

// Paste inserts decoded clipboard content at the selection. A single-block
// textblock slice merges inline content at the caret; multi-block slices
// split the current block and insert between the halves. Gap cursors and
// node selections insert at the implied position next to the target block.
func Paste(s *state.EditorState, t *dom.DataTransfer) *transform.Transaction {
	blocks := decodeTransfer(s, t)
	if len(blocks) == 0 {
		return nil
	}
	tr := s.NewTransaction(transform.OriginPaste)
	switch sel := s.Selection.(type) {
	case *model.TextSelection:
		from, to := selectionRange(s, sel)
		if !sel.Collapsed() {
			deleteRange(tr, s, from, to)
		}
		reg := s.Registry()
		single := len(blocks) == 1
		var singleSpec *model.NodeSpec
		if single {
			singleSpec, _ = reg.Node(blocks[0].Type)
		}
		if single && singleSpec != nil && singleSpec.IsTextblock() {
			slice := blocks[0].Inline
			tr.Step(transform.NewReplaceStep(from.Block, from.Offset, from.Offset, slice))
			if tr.Err() != nil {
				return nil
			}
			tr.SetSelection(model.NewCursor(model.Pos(from.Block, from.Offset+model.InlineLength(slice))))
			return tr
		}
		return insertBlocksAtCaret(s, tr, from, blocks)
	case *model.GapCursor:
		found, ok := model.FindBlock(s.Doc, sel.Block)
		if !ok {
			return nil
		}
		index := found.Index
		if sel.Side == model.SideAfter {
			index++
		}
		return insertBlocksAt(s, tr, found.Parent, index, blocks)
	case *model.NodeSelection:
		found, ok := model.FindBlock(s.Doc, sel.Node)
		if !ok {
			return nil
		}
		return insertBlocksAt(s, tr, found.Parent, found.Index+1, blocks)
	}
	return nil
}

// insertBlocksAtCaret splits the caret's block and places the slice between
// the halves.
func insertBlocksAtCaret(s *state.EditorState, tr *transform.Transaction, from model.Position, blocks []*model.Block) *transform.Transaction {
	found, ok := model.FindBlock(s.Doc, from.Block)
	if !ok {
		return nil
	}
	spec, _ := s.Registry().Node(found.Block.Type)
	parent := model.BlockID("")
	if found.Parent != nil {
		parent = found.Parent.ID
	}
	index := found.Index + 1
	if spec != nil && spec.IsTextblock() && !spec.Atom {
		split := transform.NewSplitBlockStep(from.Block, from.Offset, "", nil)
		tr.Step(split)
	}
	tr.InsertBlocks(parent, index, blocks...)
	if tr.Err() != nil {
		return nil
	}
	if last := lastTextblockOf(s.Registry(), blocks); last != nil {
		tr.SetSelection(model.NewCursor(model.Pos(last.ID, last.Length())))
	}
	return tr
}

func insertBlocksAt(s *state.EditorState, tr *transform.Transaction, parent *model.Block, index int, blocks []*model.Block) *transform.Transaction {
	parentID := model.BlockID("")
	if parent != nil {
		parentID = parent.ID
	}
	tr.InsertBlocks(parentID, index, blocks...)
	if tr.Err() != nil {
		return nil
	}
	if last := lastTextblockOf(s.Registry(), blocks); last != nil {
		tr.SetSelection(model.NewCursor(model.Pos(last.ID, last.Length())))
	}
	return tr
}

func lastTextblockOf(reg *model.Registry, blocks []*model.Block) *model.Block {
	for i := len(blocks) - 1; i >= 0; i-- {
		if spec, ok := reg.Node(blocks[i].Type); ok && spec.IsTextblock() {
			return blocks[i]
		}
		for j := len(blocks[i].Children) - 1; j >= 0; j-- {
			if found := lastTextblockOf(reg, []*model.Block{blocks[i].Children[j]}); found != nil {
				return found
			}
		}
	}
	return nil
}

// Drop inserts dropped content at the selection. When the drag originated in
// this editor (the transfer carries the source marker), the original range
// is deleted in the same transaction, making it a move.
func Drop(s *state.EditorState, t *dom.DataTransfer, origin model.Selection, editorID string) *transform.Transaction {
	internal := editorID != "" && t.GetData(SourceMIME) == editorID
	if !internal {
		return Paste(s, t)
	}
	originSel, ok := origin.(*model.TextSelection)
	if !ok || originSel.Collapsed() {
		return Paste(s, t)
	}
	blocks := decodeTransfer(s, t)
	if len(blocks) == 0 {
		return nil
	}
	target, ok := s.Selection.(*model.TextSelection)
	if !ok {
		return Paste(s, t)
	}
	from, to := selectionRange(s, originSel)
	tr := s.NewTransaction(transform.OriginPaste)
	deleteRange(tr, s, from, to)
	if tr.Err() != nil {
		return nil
	}
	// The drop caret, mapped past the deletion.
	caret := tr.Mapping.MapPos(target.Head, 1).Pos
	reg := s.Registry()
	if len(blocks) == 1 {
		if spec, ok := reg.Node(blocks[0].Type); ok && spec.IsTextblock() {
			slice := blocks[0].Inline
			tr.Step(transform.NewReplaceStep(caret.Block, caret.Offset, caret.Offset, slice))
			if tr.Err() != nil {
				return nil
			}
			tr.SetSelection(model.NewCursor(model.Pos(caret.Block, caret.Offset+model.InlineLength(slice))))
			return tr
		}
	}
	return insertBlocksAtCaret(s, tr, caret, blocks)
}
