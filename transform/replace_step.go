package transform

import "github.com/notectl/notectl-go/model"

// ReplaceStep replaces an inline range of one textblock with a slice of
// inline content.
type ReplaceStep struct {
	Block model.BlockID
	From  int
	To    int
	Slice []model.InlineChild
}

// NewReplaceStep is the constructor of ReplaceStep.
func NewReplaceStep(block model.BlockID, from, to int, slice []model.InlineChild) *ReplaceStep {
	return &ReplaceStep{Block: block, From: from, To: to, Slice: slice}
}

// Apply is a method of the Step interface.
func (s *ReplaceStep) Apply(reg *model.Registry, doc *model.Document) StepResult {
	found, ok := model.FindBlock(doc, s.Block)
	if !ok {
		return Fail("no block with the given id")
	}
	spec, ok := reg.Node(found.Block.Type)
	if !ok || !spec.IsTextblock() {
		return Fail("replace target is not a textblock")
	}
	length := found.Block.Length()
	if s.From < 0 || s.To < s.From || s.To > length {
		return Fail("replace range out of bounds")
	}
	for _, child := range s.Slice {
		run, ok := child.(*model.TextRun)
		if !ok {
			node := child.(*model.InlineNode)
			if nodeSpec, ok := reg.Node(node.Type); !ok || !nodeSpec.Inline {
				return Fail("slice contains a non-inline node")
			}
			continue
		}
		for _, mark := range run.Marks {
			if !reg.AllowsMark(spec, mark.Type) {
				return Fail("mark not allowed in this block")
			}
		}
	}
	inline := model.SpliceInline(found.Block.Inline, s.From, s.To, s.Slice)
	repl := found.Block.WithInline(model.NormalizeInline(reg, inline))
	return OK(model.ReplaceBlock(doc, s.Block, repl))
}

// Invert is a method of the Step interface.
func (s *ReplaceStep) Invert(doc *model.Document) Step {
	found, ok := model.FindBlock(doc, s.Block)
	if !ok {
		return nil
	}
	removed := model.SliceInline(found.Block.Inline, s.From, s.To)
	return NewReplaceStep(s.Block, s.From, s.From+model.InlineLength(s.Slice), removed)
}

// Map is a method of the Step interface.
func (s *ReplaceStep) Map(m Mappable) Step {
	from := m.MapPos(model.Pos(s.Block, s.From), 1)
	to := m.MapPos(model.Pos(s.Block, s.To), -1)
	if from.Deleted && to.Deleted {
		return nil
	}
	if from.Pos.Block != to.Pos.Block {
		return nil
	}
	end := to.Pos.Offset
	if from.Pos.Offset > end {
		end = from.Pos.Offset
	}
	return NewReplaceStep(from.Pos.Block, from.Pos.Offset, end, s.Slice)
}

// Merge is a method of the Step interface. Adjacent replaces in the same
// block merge, so consecutive typing and deleting coalesce into one step.
func (s *ReplaceStep) Merge(other Step) (Step, bool) {
	repl, ok := other.(*ReplaceStep)
	if !ok || repl.Block != s.Block {
		return nil, false
	}
	if s.From+model.InlineLength(s.Slice) == repl.From {
		slice := append(append([]model.InlineChild{}, s.Slice...), repl.Slice...)
		return NewReplaceStep(s.Block, s.From, s.To+repl.To-repl.From, slice), true
	}
	if repl.To == s.From {
		slice := append(append([]model.InlineChild{}, repl.Slice...), s.Slice...)
		return NewReplaceStep(s.Block, repl.From, s.To, slice), true
	}
	return nil, false
}

// StepMap is a method of the Step interface.
func (s *ReplaceStep) StepMap() Mappable {
	return NewStepMap(s.Block, []int{s.From, s.To - s.From, model.InlineLength(s.Slice)})
}

var _ Step = (*ReplaceStep)(nil)
