package transform

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/notectl/notectl-go/model"
)

func TestStepMapBias(t *testing.T) {
	block := model.BlockID("b1")
	// An insertion of width 3 at offset 2.
	sm := NewStepMap(block, []int{2, 0, 3})

	// positions before the change are untouched
	assert.Equal(t, 1, sm.MapPos(model.Pos(block, 1), 1).Pos.Offset)

	// at the insertion point, bias decides the side
	assert.Equal(t, 5, sm.MapPos(model.Pos(block, 2), 1).Pos.Offset)
	assert.Equal(t, 2, sm.MapPos(model.Pos(block, 2), -1).Pos.Offset)

	// positions after the change shift by the width delta
	assert.Equal(t, 7, sm.MapPos(model.Pos(block, 4), 1).Pos.Offset)

	// other blocks pass through
	other := model.Pos(model.BlockID("b2"), 2)
	assert.Equal(t, other, sm.MapPos(other, 1).Pos)
}

func TestStepMapDeletion(t *testing.T) {
	block := model.BlockID("b1")
	// A deletion of [2, 5).
	sm := NewStepMap(block, []int{2, 3, 0})

	// a position inside the deleted range collapses to the start and is
	// flagged deleted
	result := sm.MapPos(model.Pos(block, 4), 1)
	assert.Equal(t, 2, result.Pos.Offset)
	assert.True(t, result.Deleted)

	// positions after the range shift left
	assert.Equal(t, 3, sm.MapPos(model.Pos(block, 6), 1).Pos.Offset)
}

func TestStepMapInvert(t *testing.T) {
	block := model.BlockID("b1")
	sm := NewStepMap(block, []int{2, 3, 1})

	// mapping forward then through the inverse restores positions outside
	// the replaced range
	for _, offset := range []int{0, 1, 6, 9} {
		mapped := sm.MapPos(model.Pos(block, offset), 1)
		back := sm.Invert().MapPos(mapped.Pos, 1)
		assert.Equal(t, offset, back.Pos.Offset, "offset %d", offset)
	}
}

func TestMappingComposition(t *testing.T) {
	block := model.BlockID("b1")
	first := NewStepMap(block, []int{0, 0, 2})  // insert 2 at 0
	second := NewStepMap(block, []int{5, 1, 0}) // delete [5,6)

	m := NewMapping()
	m.AppendMap(first)
	m.AppendMap(second)

	// composing the maps equals mapping through each in sequence, with the
	// same bias
	for _, offset := range []int{0, 1, 3, 4, 7} {
		for _, assoc := range []int{-1, 1} {
			sequential := second.MapPos(first.MapPos(model.Pos(block, offset), assoc).Pos, assoc)
			composed := m.MapPos(model.Pos(block, offset), assoc)
			assert.Equal(t, sequential.Pos, composed.Pos, "offset %d assoc %d", offset, assoc)
		}
	}
}

func TestSplitJoinMaps(t *testing.T) {
	first := model.BlockID("b1")
	second := model.BlockID("b2")
	split := splitMap{Block: first, Offset: 5, NewID: second}

	// offsets past the cut move into the new block
	mapped := split.MapPos(model.Pos(first, 7), 1)
	assert.Equal(t, second, mapped.Pos.Block)
	assert.Equal(t, 2, mapped.Pos.Offset)

	// at the cut, bias decides the block
	assert.Equal(t, second, split.MapPos(model.Pos(first, 5), 1).Pos.Block)
	assert.Equal(t, first, split.MapPos(model.Pos(first, 5), -1).Pos.Block)

	// joining maps the second block behind the first
	join := joinMap{First: first, Second: second, FirstLen: 5}
	mapped = join.MapPos(model.Pos(second, 2), 1)
	assert.Equal(t, first, mapped.Pos.Block)
	assert.Equal(t, 7, mapped.Pos.Offset)
}
