package transform

import "github.com/notectl/notectl-go/model"

func mapRange(reg *model.Registry, doc *model.Document, block model.BlockID, from, to int, f func(run *model.TextRun) *model.TextRun) StepResult {
	found, ok := model.FindBlock(doc, block)
	if !ok {
		return Fail("no block with the given id")
	}
	spec, ok := reg.Node(found.Block.Type)
	if !ok || !spec.IsTextblock() {
		return Fail("mark target is not a textblock")
	}
	if from < 0 || to < from || to > found.Block.Length() {
		return Fail("mark range out of bounds")
	}
	middle := model.SliceInline(found.Block.Inline, from, to)
	for i, child := range middle {
		if run, ok := child.(*model.TextRun); ok {
			middle[i] = f(run)
		}
	}
	inline := model.SpliceInline(found.Block.Inline, from, to, middle)
	repl := found.Block.WithInline(model.NormalizeInline(reg, inline))
	return OK(model.ReplaceBlock(doc, block, repl))
}

func mapMarkStepRange(m Mappable, block model.BlockID, from, to int) (model.BlockID, int, int, bool) {
	mappedFrom := m.MapPos(model.Pos(block, from), 1)
	mappedTo := m.MapPos(model.Pos(block, to), -1)
	if mappedFrom.Deleted && mappedTo.Deleted {
		return "", 0, 0, false
	}
	if mappedFrom.Pos.Block != mappedTo.Pos.Block || mappedFrom.Pos.Offset >= mappedTo.Pos.Offset {
		return "", 0, 0, false
	}
	return mappedFrom.Pos.Block, mappedFrom.Pos.Offset, mappedTo.Pos.Offset, true
}

// AddMarkStep adds a mark to the inline content between two offsets of one
// block. The step fails when the block's spec disallows the mark.
type AddMarkStep struct {
	Block model.BlockID
	From  int
	To    int
	Mark  *model.Mark
}

// NewAddMarkStep is the constructor for AddMarkStep.
func NewAddMarkStep(block model.BlockID, from, to int, mark *model.Mark) *AddMarkStep {
	return &AddMarkStep{Block: block, From: from, To: to, Mark: mark}
}

// Apply is a method of the Step interface.
func (s *AddMarkStep) Apply(reg *model.Registry, doc *model.Document) StepResult {
	found, ok := model.FindBlock(doc, s.Block)
	if !ok {
		return Fail("no block with the given id")
	}
	if spec, specOK := reg.Node(found.Block.Type); !specOK || !reg.AllowsMark(spec, s.Mark.Type) {
		return Fail("mark not allowed in this block")
	}
	return mapRange(reg, doc, s.Block, s.From, s.To, func(run *model.TextRun) *model.TextRun {
		return run.WithMarks(s.Mark.AddToSet(reg, run.Marks))
	})
}

// Invert is a method of the Step interface.
func (s *AddMarkStep) Invert(doc *model.Document) Step {
	return NewRemoveMarkStep(s.Block, s.From, s.To, s.Mark)
}

// Map is a method of the Step interface.
func (s *AddMarkStep) Map(m Mappable) Step {
	block, from, to, ok := mapMarkStepRange(m, s.Block, s.From, s.To)
	if !ok {
		return nil
	}
	return NewAddMarkStep(block, from, to, s.Mark)
}

// Merge is a method of the Step interface.
func (s *AddMarkStep) Merge(other Step) (Step, bool) {
	o, ok := other.(*AddMarkStep)
	if ok && o.Block == s.Block && o.Mark.Eq(s.Mark) && s.From <= o.To && o.From <= s.To {
		from, to := s.From, s.To
		if o.From < from {
			from = o.From
		}
		if o.To > to {
			to = o.To
		}
		return NewAddMarkStep(s.Block, from, to, s.Mark), true
	}
	return nil, false
}

// StepMap is a method of the Step interface.
func (s *AddMarkStep) StepMap() Mappable {
	return EmptyMap
}

var _ Step = (*AddMarkStep)(nil)

// RemoveMarkStep removes a mark from the inline content between two offsets
// of one block.
type RemoveMarkStep struct {
	Block model.BlockID
	From  int
	To    int
	Mark  *model.Mark
}

// NewRemoveMarkStep is the constructor for RemoveMarkStep.
func NewRemoveMarkStep(block model.BlockID, from, to int, mark *model.Mark) *RemoveMarkStep {
	return &RemoveMarkStep{Block: block, From: from, To: to, Mark: mark}
}

// Apply is a method of the Step interface.
func (s *RemoveMarkStep) Apply(reg *model.Registry, doc *model.Document) StepResult {
	return mapRange(reg, doc, s.Block, s.From, s.To, func(run *model.TextRun) *model.TextRun {
		return run.WithMarks(s.Mark.RemoveFromSet(run.Marks))
	})
}

// Invert is a method of the Step interface.
func (s *RemoveMarkStep) Invert(doc *model.Document) Step {
	return NewAddMarkStep(s.Block, s.From, s.To, s.Mark)
}

// Map is a method of the Step interface.
func (s *RemoveMarkStep) Map(m Mappable) Step {
	block, from, to, ok := mapMarkStepRange(m, s.Block, s.From, s.To)
	if !ok {
		return nil
	}
	return NewRemoveMarkStep(block, from, to, s.Mark)
}

// Merge is a method of the Step interface.
func (s *RemoveMarkStep) Merge(other Step) (Step, bool) {
	o, ok := other.(*RemoveMarkStep)
	if ok && o.Block == s.Block && o.Mark.Eq(s.Mark) && s.From <= o.To && o.From <= s.To {
		from, to := s.From, s.To
		if o.From < from {
			from = o.From
		}
		if o.To > to {
			to = o.To
		}
		return NewRemoveMarkStep(s.Block, from, to, s.Mark), true
	}
	return nil, false
}

// StepMap is a method of the Step interface.
func (s *RemoveMarkStep) StepMap() Mappable {
	return EmptyMap
}

var _ Step = (*RemoveMarkStep)(nil)
