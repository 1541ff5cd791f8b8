package input

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/notectl/notectl-go/model"
	"github.com/notectl/notectl-go/test/builder"
)

func TestNavigateIntoVoid(t *testing.T) {
	// [paragraph("Before"), hr, paragraph("After")]
	built := doc(p("Before<a>"), hr(), p("<b>After"))
	s := newState(built, model.NewCursor(built.Tag("a")))
	hrID := built.Doc.Children[1].ID

	// arrow right from the end of Before selects the HR
	next := NavigateAcrossBlocks(s, true)
	require.NotNil(t, next)
	ns, ok := next.(*model.NodeSelection)
	require.True(t, ok)
	assert.Equal(t, hrID, ns.Node)
}

func TestNavigateOutOfNodeSelection(t *testing.T) {
	built := doc(p("Before"), hr(), p("After"))
	hrID := built.Doc.Children[1].ID
	s := newState(built, model.NewNodeSelection(hrID, nil))

	// ArrowRight lands at offset 0 of After
	next := NavigateAcrossBlocks(s, true)
	ts, ok := next.(*model.TextSelection)
	require.True(t, ok)
	assert.Equal(t, built.Doc.Children[2].ID, ts.Head.Block)
	assert.Equal(t, 0, ts.Head.Offset)

	// ArrowLeft lands at the end of Before
	prev := NavigateAcrossBlocks(s, false)
	ts, ok = prev.(*model.TextSelection)
	require.True(t, ok)
	assert.Equal(t, built.Doc.Children[0].ID, ts.Head.Block)
	assert.Equal(t, 6, ts.Head.Offset)
}

func TestNavigateBackFromOffsetZeroSelectsVoid(t *testing.T) {
	built := doc(p("Before"), hr(), p("<b>After"))
	s := newState(built, model.NewCursor(built.Tag("b")))
	hrID := built.Doc.Children[1].ID

	prev := NavigateAcrossBlocks(s, false)
	ns, ok := prev.(*model.NodeSelection)
	require.True(t, ok)
	assert.Equal(t, hrID, ns.Node)
}

func TestGapCursorAtDocumentEdge(t *testing.T) {
	// The HR is the first block: ArrowLeft from its node selection has no
	// neighbor, so a gap cursor appears before it.
	built := doc(hr(), p("After"))
	hrID := built.Doc.Children[0].ID
	s := newState(built, model.NewNodeSelection(hrID, nil))

	prev := NavigateAcrossBlocks(s, false)
	gap, ok := prev.(*model.GapCursor)
	require.True(t, ok)
	assert.Equal(t, hrID, gap.Block)
	assert.Equal(t, model.SideBefore, gap.Side)

	// arrowing forward from the gap re-enters the block
	s = newState(built, gap)
	next := NavigateAcrossBlocks(s, true)
	ns, ok := next.(*model.NodeSelection)
	require.True(t, ok)
	assert.Equal(t, hrID, ns.Node)
}

func TestNavigationRespectsIsolation(t *testing.T) {
	table := builder.Table
	tr := builder.Tr
	td := builder.Td
	built := doc(
		table(tr(td(p("cell1<a>")), td(p("cell2")))),
		p("outside"),
	)
	s := newState(built, model.NewCursor(built.Tag("a")))

	// navigation does not cross the isolating cell boundary
	assert.Nil(t, NavigateAcrossBlocks(s, true))
}

func TestAtomSkip(t *testing.T) {
	built := doc(p("a<a>", builder.Br(), "b"))
	s := newState(built, model.NewCursor(built.Tag("a")))

	// the caret jumps over the atom instead of entering it
	tr := atomSkip(s, true)
	require.NotNil(t, tr)
	next, err := s.Apply(tr)
	require.NoError(t, err)
	sel := next.Selection.(*model.TextSelection)
	assert.Equal(t, 2, sel.Head.Offset)

	// stored marks are cleared by the skip
	marks, set := tr.StoredMarksSet()
	assert.True(t, set)
	assert.Nil(t, marks)

	// no atom, no skip
	plain := doc(p("a<c>b"))
	s2 := newState(plain, model.NewCursor(plain.Tag("c")))
	assert.Nil(t, atomSkip(s2, true))
}

func TestTypingAtGapCursorCreatesParagraph(t *testing.T) {
	built := doc(hr(), p("after"))
	hrID := built.Doc.Children[0].ID
	s := newState(built, model.NewGapCursor(hrID, model.SideBefore, nil))

	next := apply(t, s, InsertText(s, "X"))
	require.Len(t, next.Doc.Children, 3)
	assert.Equal(t, "paragraph", next.Doc.Children[0].Type)
	assert.Equal(t, "X", model.BlockText(reg, next.Doc.Children[0]))

	// Enter at a gap inserts an empty paragraph
	s = newState(built, model.NewGapCursor(hrID, model.SideBefore, nil))
	next = apply(t, s, SplitBlock(s))
	require.Len(t, next.Doc.Children, 3)
	assert.Equal(t, 0, next.Doc.Children[0].Length())
}

func TestBackspaceAtGapDeletesPrecedingBlock(t *testing.T) {
	built := doc(p("keep"), hr(), p("after"))
	hrID := built.Doc.Children[1].ID

	s := newState(built, model.NewGapCursor(hrID, model.SideAfter, nil))
	next := apply(t, s, DeleteBackward(s))
	require.Len(t, next.Doc.Children, 2)
	assert.Equal(t, "paragraph", next.Doc.Children[0].Type)
	assert.Equal(t, "paragraph", next.Doc.Children[1].Type)

	// Delete at side=before removes the following block the same way
	s = newState(built, model.NewGapCursor(hrID, model.SideBefore, nil))
	next = apply(t, s, DeleteForward(s))
	require.Len(t, next.Doc.Children, 2)
}

func TestDeleteSelectedVoid(t *testing.T) {
	built := doc(p("before"), hr(), p("after"))
	hrID := built.Doc.Children[1].ID
	s := newState(built, model.NewNodeSelection(hrID, nil))

	next := apply(t, s, DeleteBackward(s))
	require.Len(t, next.Doc.Children, 2)

	// the selection falls to the adjacent textblock caret, at the end of
	// the block before the deleted void
	sel, ok := next.Selection.(*model.TextSelection)
	require.True(t, ok)
	assert.Equal(t, built.Doc.Children[0].ID, sel.Head.Block)
	assert.Equal(t, 6, sel.Head.Offset)
}

func TestBackspaceBeforeVoidSelectsIt(t *testing.T) {
	built := doc(p("before"), hr(), p("<a>after"))
	hrID := built.Doc.Children[1].ID
	s := newState(built, model.NewCursor(built.Tag("a")))

	// the void is selected, not silently deleted
	next := apply(t, s, DeleteBackward(s))
	require.Len(t, next.Doc.Children, 3)
	ns, ok := next.Selection.(*model.NodeSelection)
	require.True(t, ok)
	assert.Equal(t, hrID, ns.Node)
}

func TestDocumentEdges(t *testing.T) {
	built := doc(p("first"), p("last"))
	s := newState(built, nil)

	start := DocumentEdge(s, false)
	ts := start.(*model.TextSelection)
	assert.Equal(t, built.Doc.Children[0].ID, ts.Head.Block)
	assert.Equal(t, 0, ts.Head.Offset)

	end := DocumentEdge(s, true)
	ts = end.(*model.TextSelection)
	assert.Equal(t, built.Doc.Children[1].ID, ts.Head.Block)
	assert.Equal(t, 4, ts.Head.Offset)

	// a void at the boundary yields a node selection
	built = doc(hr(), p("x"))
	s = newState(built, nil)
	ns, ok := DocumentEdge(s, false).(*model.NodeSelection)
	require.True(t, ok)
	assert.Equal(t, built.Doc.Children[0].ID, ns.Node)
}

func TestWordBoundary(t *testing.T) {
	text := []rune("foo bar-baz")

	// backward from the end of a word jumps to its start
	assert.Equal(t, 4, wordBoundary(text, 7, false))

	// backward over the space eats the previous word
	assert.Equal(t, 0, wordBoundary(text, 4, false))

	// forward from a word start consumes the word
	assert.Equal(t, 3, wordBoundary(text, 0, true))

	// punctuation forms its own class
	assert.Equal(t, 8, wordBoundary(text, 7, true))
}

func TestDeleteWord(t *testing.T) {
	built := doc(p("Hello World<a>"))
	s := newState(built, model.NewCursor(built.Tag("a")))

	next := apply(t, s, DeleteWord(s, false))
	assert.Equal(t, "Hello ", model.BlockText(reg, next.Doc.Children[0]))
}
