package transform

import "github.com/notectl/notectl-go/model"

// AttrStep sets or clears attributes of a block. A nil value clears the
// attribute.
type AttrStep struct {
	Block model.BlockID
	Attrs map[string]interface{}
}

// NewAttrStep is the constructor for AttrStep.
func NewAttrStep(block model.BlockID, attrs map[string]interface{}) *AttrStep {
	return &AttrStep{Block: block, Attrs: attrs}
}

// Apply is a method of the Step interface.
func (s *AttrStep) Apply(reg *model.Registry, doc *model.Document) StepResult {
	found, ok := model.FindBlock(doc, s.Block)
	if !ok {
		return Fail("no block with the given id")
	}
	attrs := map[string]interface{}{}
	for k, v := range found.Block.Attrs {
		attrs[k] = v
	}
	for k, v := range s.Attrs {
		if v == nil {
			delete(attrs, k)
		} else {
			attrs[k] = v
		}
	}
	spec, ok := reg.Node(found.Block.Type)
	if !ok {
		return Fail("unknown block type")
	}
	for name, attr := range spec.Attrs {
		if _, present := attrs[name]; !present {
			if !attr.HasDefault {
				return Fail("cannot clear required attribute")
			}
			attrs[name] = attr.Default
		}
	}
	return OK(model.ReplaceBlock(doc, s.Block, found.Block.WithAttrs(attrs)))
}

// Invert is a method of the Step interface. The inverse restores the exact
// attribute mapping the block had before.
func (s *AttrStep) Invert(doc *model.Document) Step {
	attrs := map[string]interface{}{}
	if found, ok := model.FindBlock(doc, s.Block); ok {
		for k, v := range found.Block.Attrs {
			attrs[k] = v
		}
		for k := range s.Attrs {
			if _, present := found.Block.Attrs[k]; !present {
				attrs[k] = nil
			}
		}
	}
	return NewAttrStep(s.Block, attrs)
}

// Map is a method of the Step interface. Attr steps reference a block by
// identity, so they survive any mapping as long as the block does.
func (s *AttrStep) Map(m Mappable) Step {
	result := m.MapPos(model.Pos(s.Block, 0), -1)
	if result.Deleted || result.Pos.Block != s.Block {
		return nil
	}
	return s
}

// Merge is a method of the Step interface.
func (s *AttrStep) Merge(other Step) (Step, bool) {
	o, ok := other.(*AttrStep)
	if !ok || o.Block != s.Block {
		return nil, false
	}
	attrs := map[string]interface{}{}
	for k, v := range s.Attrs {
		attrs[k] = v
	}
	for k, v := range o.Attrs {
		attrs[k] = v
	}
	return NewAttrStep(s.Block, attrs), true
}

// StepMap is a method of the Step interface.
func (s *AttrStep) StepMap() Mappable {
	return EmptyMap
}

var _ Step = (*AttrStep)(nil)
