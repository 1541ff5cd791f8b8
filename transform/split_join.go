package transform

import "github.com/notectl/notectl-go/model"

// SplitBlockStep cuts a textblock at an offset, producing two siblings. The
// id of the new following block is fixed at construction so that inverting
// and re-applying reconstructs identical documents.
type SplitBlockStep struct {
	Block  model.BlockID
	Offset int
	// Type and Attrs describe the new following block. An empty type copies
	// the split block's type and attributes.
	Type  string
	Attrs map[string]interface{}
	NewID model.BlockID
}

// NewSplitBlockStep is the constructor for SplitBlockStep. It allocates the
// id of the block the split will create.
func NewSplitBlockStep(block model.BlockID, offset int, typ string, attrs map[string]interface{}) *SplitBlockStep {
	return &SplitBlockStep{Block: block, Offset: offset, Type: typ, Attrs: attrs, NewID: model.NewBlockID()}
}

// Apply is a method of the Step interface.
func (s *SplitBlockStep) Apply(reg *model.Registry, doc *model.Document) StepResult {
	found, ok := model.FindBlock(doc, s.Block)
	if !ok {
		return Fail("no block with the given id")
	}
	spec, ok := reg.Node(found.Block.Type)
	if !ok || !spec.IsTextblock() {
		return Fail("split target is not a textblock")
	}
	if spec.Atom {
		return Fail("cannot split an atom block")
	}
	length := found.Block.Length()
	if s.Offset < 0 || s.Offset > length {
		return Fail("split offset out of bounds")
	}
	typ := s.Type
	attrs := s.Attrs
	if typ == "" {
		typ = found.Block.Type
		attrs = found.Block.Attrs
	}
	first := found.Block.WithInline(model.SliceInline(found.Block.Inline, 0, s.Offset))
	second := &model.Block{
		ID:     s.NewID,
		Type:   typ,
		Attrs:  attrs,
		Inline: model.SliceInline(found.Block.Inline, s.Offset, length),
	}
	if err := model.CheckBlock(reg, second); err != nil {
		return Fail(err.Error())
	}
	return OK(spliceSiblings(doc, found, 1, []*model.Block{first, second}))
}

// Invert is a method of the Step interface.
func (s *SplitBlockStep) Invert(doc *model.Document) Step {
	found, ok := model.FindBlock(doc, s.Block)
	if !ok {
		return nil
	}
	return &JoinBlockStep{Block: s.Block, Second: s.NewID, FirstLen: s.Offset, origType: found.Block.Type, origAttrs: found.Block.Attrs}
}

// Map is a method of the Step interface.
func (s *SplitBlockStep) Map(m Mappable) Step {
	result := m.MapPos(model.Pos(s.Block, s.Offset), -1)
	if result.Deleted {
		return nil
	}
	if result.Pos.Block != s.Block {
		return nil
	}
	if result.Pos.Offset == s.Offset {
		return s
	}
	return &SplitBlockStep{Block: s.Block, Offset: result.Pos.Offset, Type: s.Type, Attrs: s.Attrs, NewID: s.NewID}
}

// Merge is a method of the Step interface.
func (s *SplitBlockStep) Merge(other Step) (Step, bool) {
	return nil, false
}

// StepMap is a method of the Step interface.
func (s *SplitBlockStep) StepMap() Mappable {
	return splitMap{Block: s.Block, Offset: s.Offset, NewID: s.NewID}
}

var _ Step = (*SplitBlockStep)(nil)

// JoinBlockStep merges a textblock with its following sibling. Second and
// FirstLen pin the sibling's identity and the join point, so the step is
// precisely invertible.
type JoinBlockStep struct {
	Block    model.BlockID
	Second   model.BlockID
	FirstLen int

	// The joined-away block's markup, stashed for Invert. Filled by Apply
	// when the step was built without it.
	origType  string
	origAttrs map[string]interface{}
}

// NewJoinBlockStep builds a join step from the document it will apply to,
// resolving the following sibling and the join offset.
func NewJoinBlockStep(doc *model.Document, block model.BlockID) (*JoinBlockStep, bool) {
	found, ok := model.FindBlock(doc, block)
	if !ok {
		return nil, false
	}
	siblings := siblingsOf(doc, found)
	if found.Index+1 >= len(siblings) {
		return nil, false
	}
	second := siblings[found.Index+1]
	return &JoinBlockStep{
		Block:     block,
		Second:    second.ID,
		FirstLen:  found.Block.Length(),
		origType:  second.Type,
		origAttrs: second.Attrs,
	}, true
}

// Apply is a method of the Step interface.
func (s *JoinBlockStep) Apply(reg *model.Registry, doc *model.Document) StepResult {
	found, ok := model.FindBlock(doc, s.Block)
	if !ok {
		return Fail("no block with the given id")
	}
	siblings := siblingsOf(doc, found)
	if found.Index+1 >= len(siblings) || siblings[found.Index+1].ID != s.Second {
		return Fail("join target has no matching following sibling")
	}
	second := siblings[found.Index+1]
	firstSpec, ok := reg.Node(found.Block.Type)
	if !ok || !firstSpec.IsTextblock() {
		return Fail("join target is not a textblock")
	}
	secondSpec, ok := reg.Node(second.Type)
	if !ok || !secondSpec.IsTextblock() {
		return Fail("join sibling is not a textblock")
	}
	s.origType = second.Type
	s.origAttrs = second.Attrs
	inline := append(append([]model.InlineChild{}, found.Block.Inline...), second.Inline...)
	merged := found.Block.WithInline(model.NormalizeInline(reg, inline))
	return OK(spliceSiblings(doc, found, 2, []*model.Block{merged}))
}

// Invert is a method of the Step interface.
func (s *JoinBlockStep) Invert(doc *model.Document) Step {
	typ := s.origType
	attrs := s.origAttrs
	if typ == "" {
		if found, ok := model.FindBlock(doc, s.Second); ok {
			typ = found.Block.Type
			attrs = found.Block.Attrs
		}
	}
	return &SplitBlockStep{Block: s.Block, Offset: s.FirstLen, Type: typ, Attrs: attrs, NewID: s.Second}
}

// Map is a method of the Step interface.
func (s *JoinBlockStep) Map(m Mappable) Step {
	first := m.MapPos(model.Pos(s.Block, 0), 1)
	second := m.MapPos(model.Pos(s.Second, 0), 1)
	if first.Deleted || second.Deleted {
		return nil
	}
	return s
}

// Merge is a method of the Step interface.
func (s *JoinBlockStep) Merge(other Step) (Step, bool) {
	return nil, false
}

// StepMap is a method of the Step interface.
func (s *JoinBlockStep) StepMap() Mappable {
	return joinMap{First: s.Block, Second: s.Second, FirstLen: s.FirstLen}
}

var _ Step = (*JoinBlockStep)(nil)

// siblingsOf returns the sibling list containing a found block.
func siblingsOf(doc *model.Document, found model.Found) []*model.Block {
	if found.Parent == nil {
		return doc.Children
	}
	return found.Parent.Children
}

// spliceSiblings replaces `count` siblings starting at the found block with
// the given replacement blocks, sharing untouched structure.
func spliceSiblings(doc *model.Document, found model.Found, count int, repl []*model.Block) *model.Document {
	siblings := siblingsOf(doc, found)
	updated := make([]*model.Block, 0, len(siblings)-count+len(repl))
	updated = append(updated, siblings[:found.Index]...)
	updated = append(updated, repl...)
	updated = append(updated, siblings[found.Index+count:]...)
	if found.Parent == nil {
		return doc.WithChildren(updated)
	}
	return model.ReplaceBlock(doc, found.Parent.ID, found.Parent.WithChildren(updated))
}
