package transform

import "github.com/notectl/notectl-go/model"

// ReplaceBlockStep replaces a contiguous range of sibling blocks with new
// blocks. An empty parent id addresses the document's top level.
type ReplaceBlockStep struct {
	Parent model.BlockID
	Index  int
	Count  int
	Blocks []*model.Block

	// Ids removed by the last Apply, for position mapping.
	removed map[model.BlockID]bool
}

// NewReplaceBlockStep is the constructor for ReplaceBlockStep.
func NewReplaceBlockStep(parent model.BlockID, index, count int, blocks []*model.Block) *ReplaceBlockStep {
	return &ReplaceBlockStep{Parent: parent, Index: index, Count: count, Blocks: blocks}
}

func (s *ReplaceBlockStep) siblings(doc *model.Document) ([]*model.Block, *model.Block, bool) {
	if s.Parent == "" {
		return doc.Children, nil, true
	}
	found, ok := model.FindBlock(doc, s.Parent)
	if !ok {
		return nil, nil, false
	}
	return found.Block.Children, found.Block, true
}

// Apply is a method of the Step interface.
func (s *ReplaceBlockStep) Apply(reg *model.Registry, doc *model.Document) StepResult {
	siblings, parent, ok := s.siblings(doc)
	if !ok {
		return Fail("no parent block with the given id")
	}
	if s.Index < 0 || s.Count < 0 || s.Index+s.Count > len(siblings) {
		return Fail("block range out of bounds")
	}
	if parent != nil {
		parentSpec, ok := reg.Node(parent.Type)
		if !ok || parentSpec.Content != model.KindBlock {
			return Fail("parent is not a container")
		}
		for _, b := range s.Blocks {
			if !reg.AllowsChild(parentSpec, b.Type) {
				return Fail("block type not allowed in parent")
			}
		}
	}
	for _, b := range s.Blocks {
		if err := model.CheckBlock(reg, b); err != nil {
			return Fail(err.Error())
		}
	}
	s.removed = map[model.BlockID]bool{}
	for _, b := range siblings[s.Index : s.Index+s.Count] {
		collectIDs(b, s.removed)
	}
	// Blocks that come right back (type conversions keep the id) are not
	// removed for mapping purposes.
	kept := map[model.BlockID]bool{}
	for _, b := range s.Blocks {
		collectIDs(b, kept)
	}
	for id := range kept {
		delete(s.removed, id)
	}
	updated := make([]*model.Block, 0, len(siblings)-s.Count+len(s.Blocks))
	updated = append(updated, siblings[:s.Index]...)
	updated = append(updated, s.Blocks...)
	updated = append(updated, siblings[s.Index+s.Count:]...)
	if parent == nil {
		return OK(doc.WithChildren(updated))
	}
	return OK(model.ReplaceBlock(doc, parent.ID, parent.WithChildren(updated)))
}

// Invert is a method of the Step interface.
func (s *ReplaceBlockStep) Invert(doc *model.Document) Step {
	siblings, _, ok := s.siblings(doc)
	if !ok || s.Index+s.Count > len(siblings) {
		return nil
	}
	removed := make([]*model.Block, s.Count)
	copy(removed, siblings[s.Index:s.Index+s.Count])
	return NewReplaceBlockStep(s.Parent, s.Index, len(s.Blocks), removed)
}

// Map is a method of the Step interface.
func (s *ReplaceBlockStep) Map(m Mappable) Step {
	if s.Parent != "" {
		result := m.MapPos(model.Pos(s.Parent, 0), 1)
		if result.Deleted || result.Pos.Block != s.Parent {
			return nil
		}
	}
	return s
}

// Merge is a method of the Step interface.
func (s *ReplaceBlockStep) Merge(other Step) (Step, bool) {
	return nil, false
}

// StepMap is a method of the Step interface. Positions in removed blocks map
// to the start of the first inserted top-level block that carries inline
// content, when there is one, and are flagged deleted either way. Inserted
// containers and empty textblocks are not used as fallbacks.
func (s *ReplaceBlockStep) StepMap() Mappable {
	removed := s.removed
	if removed == nil {
		removed = map[model.BlockID]bool{}
	}
	bm := blockReplaceMap{Removed: removed}
	for _, b := range s.Blocks {
		if len(b.Inline) > 0 || len(b.Children) == 0 {
			if firstText := firstTextblockIn(b); firstText != nil {
				bm.Fallback = model.Pos(firstText.ID, 0)
				bm.HasFallback = true
				break
			}
		}
	}
	return bm
}

func firstTextblockIn(b *model.Block) *model.Block {
	if len(b.Inline) > 0 {
		return b
	}
	for _, child := range b.Children {
		if found := firstTextblockIn(child); found != nil {
			return found
		}
	}
	// A childless, inline-less block may still be an empty textblock; the
	// caller cannot tell without the registry, so only blocks that carry
	// inline content are offered as fallbacks.
	return nil
}

func collectIDs(b *model.Block, into map[model.BlockID]bool) {
	into[b.ID] = true
	for _, child := range b.Children {
		collectIDs(child, into)
	}
}

var _ Step = (*ReplaceBlockStep)(nil)
