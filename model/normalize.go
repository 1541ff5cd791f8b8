package model

// NormalizeInline brings inline content to canonical form: marks sorted by
// rank, empty text runs dropped, adjacent runs with identical mark sets
// coalesced. The input is returned untouched when already canonical.
func NormalizeInline(reg *Registry, children []InlineChild) []InlineChild {
	if inlineCanonical(reg, children) {
		return children
	}
	result := make([]InlineChild, 0, len(children))
	for _, child := range children {
		run, ok := child.(*TextRun)
		if !ok {
			result = append(result, child)
			continue
		}
		if run.Text == "" {
			continue
		}
		run = run.WithMarks(SortMarks(reg, run.Marks))
		if len(result) > 0 {
			if prev, ok := result[len(result)-1].(*TextRun); ok && SameMarkSet(prev.Marks, run.Marks) {
				result[len(result)-1] = prev.WithText(prev.Text + run.Text)
				continue
			}
		}
		result = append(result, run)
	}
	return result
}

func inlineCanonical(reg *Registry, children []InlineChild) bool {
	var prev *TextRun
	for _, child := range children {
		run, ok := child.(*TextRun)
		if !ok {
			prev = nil
			continue
		}
		if run.Text == "" {
			return false
		}
		for i := 1; i < len(run.Marks); i++ {
			if reg.MarkRank(run.Marks[i-1].Type) > reg.MarkRank(run.Marks[i].Type) {
				return false
			}
		}
		if prev != nil && SameMarkSet(prev.Marks, run.Marks) {
			return false
		}
		prev = run
	}
	return true
}

// NormalizeBlock normalizes a block and its subtree, sharing untouched
// children.
func NormalizeBlock(reg *Registry, b *Block) *Block {
	if len(b.Inline) > 0 {
		if inlineCanonical(reg, b.Inline) {
			return b
		}
		return b.WithInline(NormalizeInline(reg, b.Inline))
	}
	if len(b.Children) == 0 {
		return b
	}
	changed := false
	children := make([]*Block, len(b.Children))
	for i, child := range b.Children {
		children[i] = NormalizeBlock(reg, child)
		if children[i] != child {
			changed = true
		}
	}
	if !changed {
		return b
	}
	return b.WithChildren(children)
}

// NormalizeDocument normalizes every block in the document.
func NormalizeDocument(reg *Registry, d *Document) *Document {
	changed := false
	children := make([]*Block, len(d.Children))
	for i, child := range d.Children {
		children[i] = NormalizeBlock(reg, child)
		if children[i] != child {
			changed = true
		}
	}
	if !changed {
		return d
	}
	return d.WithChildren(children)
}
