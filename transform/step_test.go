package transform_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/notectl/notectl-go/model"
	"github.com/notectl/notectl-go/test/builder"
	. "github.com/notectl/notectl-go/transform"
)

var (
	reg = builder.Reg
	doc = builder.Doc
	p   = builder.P
	h1  = builder.H1
	hr  = builder.Hr
)

// applyOK applies a step and requires success.
func applyOK(t *testing.T, s Step, d *model.Document) *model.Document {
	t.Helper()
	result := s.Apply(reg, d)
	require.Empty(t, result.Failed)
	return result.Doc
}

func TestReplaceStep(t *testing.T) {
	built := doc(p("HelloWorld"))
	d := built.Doc
	block := d.Children[0].ID

	// replaces an inline range
	step := NewReplaceStep(block, 5, 5, []model.InlineChild{model.NewTextRun(", ", nil)})
	next := applyOK(t, step, d)
	assert.Equal(t, "Hello, World", model.BlockText(reg, next.Children[0]))

	// the original document is untouched
	assert.Equal(t, "HelloWorld", model.BlockText(reg, d.Children[0]))

	// out-of-range offsets fail
	assert.NotEmpty(t, NewReplaceStep(block, 5, 99, nil).Apply(reg, d).Failed)

	// unknown blocks fail
	assert.NotEmpty(t, NewReplaceStep("nope", 0, 0, nil).Apply(reg, d).Failed)
}

func TestReplaceStepInvert(t *testing.T) {
	built := doc(p("HelloWorld"))
	d := built.Doc
	block := d.Children[0].ID

	step := NewReplaceStep(block, 2, 7, []model.InlineChild{model.NewTextRun("x", nil)})
	inverse := step.Invert(d)
	next := applyOK(t, step, d)
	back := applyOK(t, inverse, next)

	// invert(step) applied to the result reconstructs the original
	assert.True(t, d.Eq(back))
}

func TestReplaceStepMerge(t *testing.T) {
	built := doc(p("foobar"))
	d := built.Doc
	block := d.Children[0].ID

	mk := func(from, to int, text string) Step {
		var slice []model.InlineChild
		if text != "" {
			slice = []model.InlineChild{model.NewTextRun(text, nil)}
		}
		return NewReplaceStep(block, from, to, slice)
	}

	yes := func(s1, s2 Step) {
		merged, ok := s1.Merge(s2)
		require.True(t, ok)
		applied := applyOK(t, s2, applyOK(t, s1, d))
		assert.True(t, applyOK(t, merged, d).Eq(applied))
	}
	no := func(s1, s2 Step) {
		_, ok := s1.Merge(s2)
		assert.False(t, ok)
	}

	// merges typing changes
	yes(mk(2, 2, "a"), mk(3, 3, "b"))

	// merges inverse typing
	yes(mk(2, 2, "a"), mk(2, 2, "b"))

	// doesn't merge separated typing
	no(mk(2, 2, "a"), mk(4, 4, "b"))

	// merges adjacent backspaces
	yes(mk(3, 4, ""), mk(2, 3, ""))

	// merges adjacent deletes
	yes(mk(2, 3, ""), mk(2, 3, ""))

	// doesn't merge separate backspaces
	no(mk(1, 2, ""), mk(3, 4, ""))
}

func TestMarkSteps(t *testing.T) {
	built := doc(p("hello"))
	d := built.Doc
	block := d.Children[0].ID
	strong := model.NewMark("strong", nil)

	add := NewAddMarkStep(block, 1, 4, strong)
	next := applyOK(t, add, d)
	runs := next.Children[0].Inline
	require.Len(t, runs, 3)
	assert.True(t, strong.IsInSet(runs[1].(*model.TextRun).Marks))

	// the inverse removes the mark again
	back := applyOK(t, add.Invert(d), next)
	assert.Equal(t, "hello", model.BlockText(reg, back.Children[0]))
	require.Len(t, back.Children[0].Inline, 1)
	assert.Empty(t, back.Children[0].Inline[0].(*model.TextRun).Marks)
}

func TestAttrStep(t *testing.T) {
	built := doc(h1("Title"))
	d := built.Doc
	block := d.Children[0].ID

	step := NewAttrStep(block, map[string]interface{}{"level": 3})
	inverse := step.Invert(d)
	next := applyOK(t, step, d)
	assert.Equal(t, 3, next.Children[0].Attrs["level"])

	// the inverse restores the prior attributes
	back := applyOK(t, inverse, next)
	assert.Equal(t, 1, back.Children[0].Attrs["level"])
}

func TestSplitJoinSteps(t *testing.T) {
	built := doc(p("HelloWorld"))
	d := built.Doc
	block := d.Children[0].ID

	split := NewSplitBlockStep(block, 5, "", nil)
	next := applyOK(t, split, d)
	require.Len(t, next.Children, 2)
	assert.Equal(t, "Hello", model.BlockText(reg, next.Children[0]))
	assert.Equal(t, "World", model.BlockText(reg, next.Children[1]))

	// the first block keeps its identity, the second gets the step's id
	assert.Equal(t, block, next.Children[0].ID)
	assert.Equal(t, split.NewID, next.Children[1].ID)

	// join is the inverse, reconstructing the original ids and content
	join := split.Invert(d)
	back := applyOK(t, join, next)
	assert.True(t, d.Eq(back))
}

func TestJoinThenSplitRestoresID(t *testing.T) {
	built := doc(p("Hello"), p("World"))
	d := built.Doc
	first := d.Children[0].ID
	second := d.Children[1].ID

	join, ok := NewJoinBlockStep(d, first)
	require.True(t, ok)
	inverse := join.Invert(d)
	next := applyOK(t, join, d)
	require.Len(t, next.Children, 1)
	assert.Equal(t, "HelloWorld", model.BlockText(reg, next.Children[0]))

	// undoing the join brings back the second block under its old id
	back := applyOK(t, inverse, next)
	require.Len(t, back.Children, 2)
	assert.Equal(t, second, back.Children[1].ID)
	assert.True(t, d.Eq(back))
}

func TestReplaceBlockStep(t *testing.T) {
	built := doc(p("one"), hr(), p("three"))
	d := built.Doc

	step := NewReplaceBlockStep("", 1, 1, nil)
	inverse := step.Invert(d)
	next := applyOK(t, step, d)
	require.Len(t, next.Children, 2)

	// the inverse reinserts the removed block, id preserved
	back := applyOK(t, inverse, next)
	assert.True(t, d.Eq(back))
}

func TestStepMapRebasing(t *testing.T) {
	built := doc(p("abcdef"))
	d := built.Doc
	block := d.Children[0].ID

	// a step rebased over an insertion shifts right
	insert := NewReplaceStep(block, 0, 0, []model.InlineChild{model.NewTextRun("xx", nil)})
	later := NewReplaceStep(block, 2, 3, nil)
	rebased := later.Map(insert.StepMap())
	require.NotNil(t, rebased)
	assert.Equal(t, 4, rebased.(*ReplaceStep).From)

	// a step rebased onto a deletion of its target vanishes
	wipe := NewReplaceBlockStep("", 0, 1, nil)
	wipe.Apply(reg, d)
	assert.Nil(t, later.Map(wipe.StepMap()))
}
