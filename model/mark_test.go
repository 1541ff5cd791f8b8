package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func markTestRegistry() *Registry {
	reg := NewRegistry()
	reg.RegisterMark(&MarkSpec{Name: "strong", Rank: 10, Tag: "strong"})
	reg.RegisterMark(&MarkSpec{Name: "em", Rank: 20, Tag: "em"})
	reg.RegisterMark(&MarkSpec{Name: "code", Rank: 50, Tag: "code"})
	reg.RegisterMark(&MarkSpec{Name: "link", Rank: 60, Tag: "a",
		Attrs: map[string]*AttrSpec{"href": {}}})
	return reg
}

func TestMarkSameSet(t *testing.T) {
	strong := NewMark("strong", nil)
	em := NewMark("em", nil)
	code := NewMark("code", nil)

	// returns true for two empty sets
	assert.True(t, SameMarkSet([]*Mark{}, []*Mark{}))

	// returns true for simple identical sets
	assert.True(t, SameMarkSet([]*Mark{em, strong}, []*Mark{em, strong}))

	// returns false for different sets
	assert.False(t, SameMarkSet([]*Mark{em, strong}, []*Mark{em, code}))

	// returns false when set size differs
	assert.False(t, SameMarkSet([]*Mark{em, strong}, []*Mark{em, strong, code}))

	// recognizes links with equal attrs
	assert.True(t, SameMarkSet(
		[]*Mark{NewMark("link", map[string]interface{}{"href": "x"})},
		[]*Mark{NewMark("link", map[string]interface{}{"href": "x"})}))

	// distinguishes links with different attrs
	assert.False(t, SameMarkSet(
		[]*Mark{NewMark("link", map[string]interface{}{"href": "x"})},
		[]*Mark{NewMark("link", map[string]interface{}{"href": "y"})}))
}

func TestMarkAddToSet(t *testing.T) {
	reg := markTestRegistry()
	strong := NewMark("strong", nil)
	em := NewMark("em", nil)
	code := NewMark("code", nil)

	// inserts at the rank position
	set := em.AddToSet(reg, []*Mark{strong, code})
	assert.True(t, SameMarkSet(set, []*Mark{strong, em, code}))

	// returns the set itself when the mark is present
	set = []*Mark{strong, em}
	assert.Equal(t, set, strong.AddToSet(reg, set))

	// replaces a mark of the same type with different attrs
	linkX := NewMark("link", map[string]interface{}{"href": "x"})
	linkY := NewMark("link", map[string]interface{}{"href": "y"})
	set = linkY.AddToSet(reg, []*Mark{strong, linkX})
	assert.True(t, SameMarkSet(set, []*Mark{strong, linkY}))

	// does not mutate the original set
	original := []*Mark{strong, code}
	em.AddToSet(reg, original)
	assert.True(t, SameMarkSet(original, []*Mark{strong, code}))
}

func TestMarkRemoveFromSet(t *testing.T) {
	reg := markTestRegistry()
	strong := NewMark("strong", nil)
	em := NewMark("em", nil)

	// removes the mark
	set := em.AddToSet(reg, strong.AddToSet(reg, nil))
	assert.True(t, SameMarkSet(strong.RemoveFromSet(set), []*Mark{em}))

	// returns the set itself when the mark is absent
	set = []*Mark{em}
	assert.Equal(t, set, strong.RemoveFromSet(set))
}

func TestSortMarks(t *testing.T) {
	reg := markTestRegistry()
	strong := NewMark("strong", nil)
	em := NewMark("em", nil)
	code := NewMark("code", nil)

	// orders by registry rank
	sorted := SortMarks(reg, []*Mark{code, strong, em})
	assert.True(t, SameMarkSet(sorted, []*Mark{strong, em, code}))

	// returns an already-sorted set as is
	set := []*Mark{strong, em}
	assert.Equal(t, set, SortMarks(reg, set))
}
