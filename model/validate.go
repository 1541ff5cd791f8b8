package model

// Validate checks the committed-state invariants: unique block ids, content
// matching each spec's kind, voids without inline children, and marks unique
// by type and permitted by the schema. It returns the first violation found.
func Validate(reg *Registry, d *Document) error {
	seen := map[BlockID]bool{}
	var walk func(blocks []*Block) error
	walk = func(blocks []*Block) error {
		for _, b := range blocks {
			if b.ID == "" {
				return NewValidationError("block of type %q without an id", b.Type)
			}
			if seen[b.ID] {
				return NewValidationError("duplicate block id %s", b.ID)
			}
			seen[b.ID] = true
			spec, ok := reg.Node(b.Type)
			if !ok {
				return NewValidationError("unknown block type %q", b.Type)
			}
			if spec.Inline {
				return NewValidationError("inline type %q used as a block", b.Type)
			}
			if spec.Void && len(b.Inline) > 0 {
				return NewValidationError("void block %q has inline children", b.Type)
			}
			if err := checkContent(reg, spec, b); err != nil {
				return err
			}
			for _, child := range b.Inline {
				run, ok := child.(*TextRun)
				if !ok {
					continue
				}
				types := map[string]bool{}
				for _, mark := range run.Marks {
					if types[mark.Type] {
						return NewValidationError("duplicate mark %q on a run in %q", mark.Type, b.Type)
					}
					types[mark.Type] = true
				}
			}
			if err := walk(b.Children); err != nil {
				return err
			}
		}
		return nil
	}
	return walk(d.Children)
}

// RepairSelection clamps a selection to the document: offsets are bounded by
// block length, and a selection whose block was deleted falls back to the
// document's first leaf textblock, collapsed at offset 0; where the deleted
// block used to sit is not taken into account. Returns nil only for an
// empty document with no repairable target.
func RepairSelection(reg *Registry, d *Document, sel Selection) Selection {
	fallback := func() Selection {
		if tb := FirstTextblock(reg, d); tb != nil {
			return NewCursor(Pos(tb.ID, 0))
		}
		if leaves := Leaves(reg, d); len(leaves) > 0 {
			return NewNodeSelection(leaves[0].ID, nil)
		}
		return nil
	}
	clamp := func(p Position) (Position, bool) {
		f, ok := FindBlock(d, p.Block)
		if !ok {
			return p, false
		}
		spec, ok := reg.Node(f.Block.Type)
		if !ok || !spec.IsTextblock() {
			return p, false
		}
		length := f.Block.Length()
		if p.Offset < 0 {
			p.Offset = 0
		}
		if p.Offset > length {
			p.Offset = length
		}
		p.Path = f.Path
		return p, true
	}
	switch sel := sel.(type) {
	case nil:
		return fallback()
	case *TextSelection:
		anchor, okA := clamp(sel.Anchor)
		head, okH := clamp(sel.Head)
		if okA && okH {
			if anchor.Eq(sel.Anchor) && head.Eq(sel.Head) {
				return sel
			}
			return NewTextSelection(anchor, head)
		}
		if okH {
			return NewCursor(head)
		}
		if okA {
			return NewCursor(anchor)
		}
		return fallback()
	case *NodeSelection:
		if f, ok := FindBlock(d, sel.Node); ok {
			if len(sel.Path) == 0 && len(f.Path) > 0 {
				return NewNodeSelection(sel.Node, f.Path)
			}
			return sel
		}
		return fallback()
	case *GapCursor:
		if _, ok := FindBlock(d, sel.Block); ok {
			return sel
		}
		return fallback()
	}
	return fallback()
}
