// Package transform implements the editor's mutation layer: minimal
// invertible steps over the document, position maps that transport positions
// across those steps, and the transaction builder that composes them.
package transform

import "github.com/notectl/notectl-go/model"

// MapResult is a mapped position with extra information. Deleted tells you
// whether the position's surroundings were removed during the mapping; when
// content on only one side was deleted, the position counts as deleted only
// when the bias points into the deleted content.
type MapResult struct {
	Pos     model.Position
	Deleted bool
}

// Mappable is anything positions can be mapped through. The assoc argument
// (-1 or 1) tells which side the position is associated with: it decides the
// direction the position moves when content is inserted exactly at it.
type Mappable interface {
	MapPos(pos model.Position, assoc int) MapResult
}

// StepMap describes the inline-content changes a step made inside one block,
// as groups of three numbers: [start, oldLength, newLength]. Positions in
// other blocks pass through unchanged.
type StepMap struct {
	Block    model.BlockID
	Ranges   []int
	Inverted bool
}

// NewStepMap creates an inline position map for a block.
func NewStepMap(block model.BlockID, ranges []int) *StepMap {
	return &StepMap{Block: block, Ranges: ranges}
}

// MapPos is part of the Mappable interface.
func (sm *StepMap) MapPos(pos model.Position, assoc int) MapResult {
	if pos.Block != sm.Block {
		return MapResult{Pos: pos}
	}
	diff := 0
	oldIndex, newIndex := 1, 2
	if sm.Inverted {
		oldIndex, newIndex = 2, 1
	}
	offset := pos.Offset
	for i := 0; i < len(sm.Ranges); i += 3 {
		start := sm.Ranges[i]
		if sm.Inverted {
			start -= diff
		}
		if start > offset {
			break
		}
		oldSize := sm.Ranges[i+oldIndex]
		newSize := sm.Ranges[i+newIndex]
		end := start + oldSize
		if offset <= end {
			var side int
			switch {
			case oldSize == 0:
				side = assoc
			case offset == start:
				side = -1
			case offset == end:
				side = 1
			default:
				side = assoc
			}
			result := start + diff
			if side >= 0 {
				result += newSize
			}
			deleted := offset != end
			if assoc < 0 {
				deleted = offset != start
			}
			return MapResult{Pos: pos.WithOffset(result), Deleted: deleted}
		}
		diff += newSize - oldSize
	}
	return MapResult{Pos: pos.WithOffset(offset + diff)}
}

// Invert creates a map from the post-step document back to the pre-step
// document.
func (sm *StepMap) Invert() *StepMap {
	return &StepMap{Block: sm.Block, Ranges: sm.Ranges, Inverted: !sm.Inverted}
}

// identityMap is used by steps that do not move positions (mark and attr
// steps).
type identityMap struct{}

func (identityMap) MapPos(pos model.Position, assoc int) MapResult {
	return MapResult{Pos: pos}
}

// EmptyMap is the identity position map.
var EmptyMap Mappable = identityMap{}

// splitMap transports positions across a block split: offsets past the cut
// move into the new following block.
type splitMap struct {
	Block  model.BlockID
	Offset int
	NewID  model.BlockID
}

func (m splitMap) MapPos(pos model.Position, assoc int) MapResult {
	if pos.Block != m.Block {
		return MapResult{Pos: pos}
	}
	if pos.Offset > m.Offset || (pos.Offset == m.Offset && assoc >= 0) {
		return MapResult{Pos: model.Position{Block: m.NewID, Offset: pos.Offset - m.Offset}}
	}
	return MapResult{Pos: pos}
}

// joinMap transports positions across a block join: offsets in the removed
// second block shift behind the first block's old content.
type joinMap struct {
	First    model.BlockID
	Second   model.BlockID
	FirstLen int
}

func (m joinMap) MapPos(pos model.Position, assoc int) MapResult {
	if pos.Block != m.Second {
		return MapResult{Pos: pos}
	}
	return MapResult{Pos: model.Position{Block: m.First, Offset: m.FirstLen + pos.Offset}}
}

// blockReplaceMap marks positions inside replaced blocks as deleted, moving
// them to a fallback when the replacement offers a text position.
type blockReplaceMap struct {
	Removed     map[model.BlockID]bool
	Fallback    model.Position
	HasFallback bool
}

func (m blockReplaceMap) MapPos(pos model.Position, assoc int) MapResult {
	if !m.Removed[pos.Block] {
		return MapResult{Pos: pos}
	}
	if m.HasFallback {
		return MapResult{Pos: m.Fallback, Deleted: true}
	}
	return MapResult{Pos: pos, Deleted: true}
}

// Mapping is the composition of the maps of a sequence of steps. Mapping a
// position through it gives you the correspondence between positions in the
// pre-transaction and post-transaction document.
type Mapping struct {
	Maps []Mappable
}

// NewMapping creates an empty mapping.
func NewMapping() *Mapping {
	return &Mapping{}
}

// AppendMap adds a step map to the end of this mapping.
func (m *Mapping) AppendMap(sm Mappable) {
	m.Maps = append(m.Maps, sm)
}

// MapPos maps a position through every map in order, with the given bias.
func (m *Mapping) MapPos(pos model.Position, assoc int) MapResult {
	deleted := false
	for _, sm := range m.Maps {
		result := sm.MapPos(pos, assoc)
		pos = result.Pos
		deleted = deleted || result.Deleted
	}
	return MapResult{Pos: pos, Deleted: deleted}
}

// MapSelection maps a selection through the mapping. Text endpoints move
// with the given bias; node selections and gap cursors pass through and are
// repaired by state validation when their block vanished.
func (m *Mapping) MapSelection(sel model.Selection, assoc int) model.Selection {
	ts, ok := sel.(*model.TextSelection)
	if !ok {
		return sel
	}
	anchor := m.MapPos(ts.Anchor, assoc)
	head := m.MapPos(ts.Head, assoc)
	if anchor.Pos.Eq(ts.Anchor) && head.Pos.Eq(ts.Head) {
		return sel
	}
	return model.NewTextSelection(anchor.Pos, head.Pos)
}

var _ Mappable = (*StepMap)(nil)
var _ Mappable = (*Mapping)(nil)
