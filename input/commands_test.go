package input

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/notectl/notectl-go/model"
	"github.com/notectl/notectl-go/state"
	"github.com/notectl/notectl-go/test/builder"
	"github.com/notectl/notectl-go/transform"
)

var (
	reg = builder.Reg
	doc = builder.Doc
	p   = builder.P
	h1  = builder.H1
	hr  = builder.Hr
)

func newState(built builder.DocBuilt, sel model.Selection) *state.EditorState {
	s := state.NewEditorState(&state.Config{Registry: reg}, built.Doc, sel)
	return s
}

func apply(t *testing.T, s *state.EditorState, tr *transform.Transaction) *state.EditorState {
	t.Helper()
	require.NotNil(t, tr)
	next, err := s.Apply(tr)
	require.NoError(t, err)
	return next
}

func TestInsertTextAtCaret(t *testing.T) {
	built := doc(p("Helo<a>"))
	s := newState(built, model.NewCursor(built.Tag("a")))

	next := apply(t, s, InsertText(s, "!"))
	assert.Equal(t, "Helo!", model.BlockText(reg, next.Doc.Children[0]))

	// the caret lands after the inserted text
	sel := next.Selection.(*model.TextSelection)
	assert.Equal(t, 5, sel.Head.Offset)
}

func TestInsertTextReplacesRange(t *testing.T) {
	built := doc(p("<a>Hello<b> World"))
	s := newState(built, model.NewTextSelection(built.Tag("a"), built.Tag("b")))

	next := apply(t, s, InsertText(s, "Goodbye"))
	assert.Equal(t, "Goodbye World", model.BlockText(reg, next.Doc.Children[0]))
}

func TestInsertTextInheritsStoredMarks(t *testing.T) {
	built := doc(p("x<a>"))
	s := newState(built, model.NewCursor(built.Tag("a")))
	strong := model.NewMark("strong", nil)
	s, err := s.Apply(s.NewTransaction(transform.OriginCommand).SetStoredMarks([]*model.Mark{strong}))
	require.NoError(t, err)

	next := apply(t, s, InsertText(s, "y"))
	runs := next.Doc.Children[0].Inline
	require.Len(t, runs, 2)
	assert.True(t, strong.IsInSet(runs[1].(*model.TextRun).Marks))
}

func TestSplitAndMerge(t *testing.T) {
	// Type HelloWorld, split at offset 5, then join at the boundary.
	built := doc(p("Hello<a>World"))
	s := newState(built, model.NewCursor(built.Tag("a")))

	s = apply(t, s, SplitBlock(s))
	require.Len(t, s.Doc.Children, 2)
	assert.Equal(t, "Hello", model.BlockText(reg, s.Doc.Children[0]))
	assert.Equal(t, "World", model.BlockText(reg, s.Doc.Children[1]))

	// the caret sits at the start of the second paragraph
	sel := s.Selection.(*model.TextSelection)
	assert.Equal(t, s.Doc.Children[1].ID, sel.Head.Block)
	assert.Equal(t, 0, sel.Head.Offset)

	// Backspace at offset 0 joins back into one paragraph
	s = apply(t, s, DeleteBackward(s))
	require.Len(t, s.Doc.Children, 1)
	assert.Equal(t, "HelloWorld", model.BlockText(reg, s.Doc.Children[0]))

	// the caret sits at the join point
	sel = s.Selection.(*model.TextSelection)
	assert.Equal(t, 5, sel.Head.Offset)
}

func TestSplitHeadingAtEndYieldsParagraph(t *testing.T) {
	built := doc(h1("Title<a>"))
	s := newState(built, model.NewCursor(built.Tag("a")))

	s = apply(t, s, SplitBlock(s))
	require.Len(t, s.Doc.Children, 2)
	assert.Equal(t, "heading", s.Doc.Children[0].Type)
	assert.Equal(t, "paragraph", s.Doc.Children[1].Type)
}

func TestInsertHardBreak(t *testing.T) {
	built := doc(p("ab<a>cd"))
	s := newState(built, model.NewCursor(built.Tag("a")))

	s = apply(t, s, InsertHardBreak(s))
	block := s.Doc.Children[0]
	assert.Equal(t, 5, block.Length())
	ref := model.ContentAt(block.Inline, 2)
	require.Equal(t, model.RefInline, ref.Kind)
	assert.Equal(t, "hard_break", ref.Node.Type)
}

func TestSelectAll(t *testing.T) {
	built := doc(p("one"), hr(), p("two"))
	s := newState(built, nil)

	s = apply(t, s, SelectAll(s))
	sel := s.Selection.(*model.TextSelection)
	assert.Equal(t, built.Doc.Children[0].ID, sel.Anchor.Block)
	assert.Equal(t, 0, sel.Anchor.Offset)
	assert.Equal(t, built.Doc.Children[2].ID, sel.Head.Block)
	assert.Equal(t, 3, sel.Head.Offset)
}

func TestToggleMarkOnRange(t *testing.T) {
	built := doc(p("<a>Hello<b>"))
	s := newState(built, model.NewTextSelection(built.Tag("a"), built.Tag("b")))
	toggle := ToggleMark("strong", nil)

	s = apply(t, s, toggle(s))
	run := s.Doc.Children[0].Inline[0].(*model.TextRun)
	assert.NotNil(t, model.MarkTypeInSet("strong", run.Marks))

	// toggling again removes the mark everywhere
	s = apply(t, s, toggle(s))
	run = s.Doc.Children[0].Inline[0].(*model.TextRun)
	assert.Nil(t, model.MarkTypeInSet("strong", run.Marks))
}

func TestToggleMarkAcrossBlocks(t *testing.T) {
	built := doc(p("<a>one"), p("two<b>"))
	s := newState(built, model.NewTextSelection(built.Tag("a"), built.Tag("b")))

	s = apply(t, s, ToggleMark("em", nil)(s))
	for _, b := range s.Doc.Children {
		run := b.Inline[0].(*model.TextRun)
		assert.NotNil(t, model.MarkTypeInSet("em", run.Marks), b.Type)
	}
}

func TestToggleMarkCollapsedTogglesStoredMarks(t *testing.T) {
	built := doc(p("hi<a>"))
	s := newState(built, model.NewCursor(built.Tag("a")))

	s = apply(t, s, ToggleMark("strong", nil)(s))
	require.NotNil(t, s.StoredMarks)
	assert.NotNil(t, model.MarkTypeInSet("strong", s.StoredMarks))

	// toggling again clears it
	s = apply(t, s, ToggleMark("strong", nil)(s))
	assert.Nil(t, model.MarkTypeInSet("strong", s.StoredMarks))
}

func TestToggleMarkRejectedInCodeBlock(t *testing.T) {
	pre := builder.Pre
	built := doc(pre("<a>code<b>"))
	s := newState(built, model.NewTextSelection(built.Tag("a"), built.Tag("b")))

	// code blocks allow no marks
	assert.Nil(t, ToggleMark("strong", nil)(s))
}

func TestSetBlockType(t *testing.T) {
	built := doc(p("Title<a>"))
	s := newState(built, model.NewCursor(built.Tag("a")))

	s = apply(t, s, SetBlockType("heading", map[string]interface{}{"level": 2})(s))
	assert.Equal(t, "heading", s.Doc.Children[0].Type)
	assert.Equal(t, 2, s.Doc.Children[0].Attrs["level"])

	// the block identity survives the conversion
	assert.Equal(t, built.Doc.Children[0].ID, s.Doc.Children[0].ID)
}

func TestCrossBlockDelete(t *testing.T) {
	built := doc(p("Hel<a>lo"), p("Wor<b>ld"))
	s := newState(built, model.NewTextSelection(built.Tag("a"), built.Tag("b")))

	s = apply(t, s, DeleteBackward(s))
	require.Len(t, s.Doc.Children, 1)
	assert.Equal(t, "Helld", model.BlockText(reg, s.Doc.Children[0]))

	sel := s.Selection.(*model.TextSelection)
	assert.Equal(t, 3, sel.Head.Offset)
}
