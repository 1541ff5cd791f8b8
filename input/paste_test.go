package input

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/notectl/notectl-go/dom"
	"github.com/notectl/notectl-go/model"
	"github.com/notectl/notectl-go/test/builder"
)

func transfer(mime, data string) *dom.DataTransfer {
	t := dom.NewDataTransfer()
	t.SetData(mime, data)
	return t
}

func TestPasteHTMLIntoEmptyEditor(t *testing.T) {
	built := doc(p("<a>"))
	s := newState(built, model.NewCursor(built.Tag("a")))

	tr := Paste(s, transfer("text/html", `<p><strong>Bold</strong> and <em>italic</em></p>`))
	next := apply(t, s, tr)

	// one paragraph with three runs: bold, plain, italic
	require.Len(t, next.Doc.Children, 1)
	runs := next.Doc.Children[0].Inline
	require.Len(t, runs, 3)
	assert.Equal(t, "Bold", runs[0].(*model.TextRun).Text)
	assert.NotNil(t, model.MarkTypeInSet("strong", runs[0].(*model.TextRun).Marks))
	assert.Equal(t, " and ", runs[1].(*model.TextRun).Text)
	assert.Empty(t, runs[1].(*model.TextRun).Marks)
	assert.Equal(t, "italic", runs[2].(*model.TextRun).Text)
	assert.NotNil(t, model.MarkTypeInSet("em", runs[2].(*model.TextRun).Marks))
}

func TestPasteSingleBlockMergesAtCaret(t *testing.T) {
	built := doc(p("He<a>llo"))
	s := newState(built, model.NewCursor(built.Tag("a")))

	tr := Paste(s, transfer("text/html", `<p>XY</p>`))
	next := apply(t, s, tr)
	require.Len(t, next.Doc.Children, 1)
	assert.Equal(t, "HeXYllo", model.BlockText(reg, next.Doc.Children[0]))

	// the caret lands after the pasted content
	sel := next.Selection.(*model.TextSelection)
	assert.Equal(t, 4, sel.Head.Offset)
}

func TestPasteMultiBlockSplitsAtCaret(t *testing.T) {
	built := doc(p("ab<a>cd"))
	s := newState(built, model.NewCursor(built.Tag("a")))

	tr := Paste(s, transfer("text/html", `<p>one</p><p>two</p>`))
	next := apply(t, s, tr)
	require.Len(t, next.Doc.Children, 4)
	assert.Equal(t, "ab", model.BlockText(reg, next.Doc.Children[0]))
	assert.Equal(t, "one", model.BlockText(reg, next.Doc.Children[1]))
	assert.Equal(t, "two", model.BlockText(reg, next.Doc.Children[2]))
	assert.Equal(t, "cd", model.BlockText(reg, next.Doc.Children[3]))
}

func TestPastePlainTextSplitsLines(t *testing.T) {
	built := doc(p("<a>"))
	s := newState(built, model.NewCursor(built.Tag("a")))

	tr := Paste(s, transfer("text/plain", "one\ntwo"))
	next := apply(t, s, tr)
	texts := []string{}
	for _, b := range next.Doc.Children {
		texts = append(texts, model.BlockText(reg, b))
	}
	assert.Contains(t, texts, "one")
	assert.Contains(t, texts, "two")
}

func TestPasteInternalTokenWins(t *testing.T) {
	source := doc(p("internal"))
	raw, err := model.MarshalDocument(source.Doc)
	require.NoError(t, err)

	tf := dom.NewDataTransfer()
	tf.SetData("text/html", "<p>external</p>")
	tf.SetData(FragmentMIME, string(raw))

	built := doc(p("<a>"))
	s := newState(built, model.NewCursor(built.Tag("a")))
	next := apply(t, s, Paste(s, tf))
	assert.Equal(t, "internal", model.BlockText(reg, next.Doc.Children[0]))

	// pasted blocks carry fresh ids, never the source ids
	assert.NotEqual(t, source.Doc.Children[0].ID, next.Doc.Children[0].ID)
}

func TestPasteAtGapCursorInsertsBeforeTarget(t *testing.T) {
	built := doc(hr(), p("after"))
	hrID := built.Doc.Children[0].ID
	s := newState(built, model.NewGapCursor(hrID, model.SideBefore, nil))

	next := apply(t, s, Paste(s, transfer("text/html", "<p>pasted</p>")))
	require.Len(t, next.Doc.Children, 3)
	assert.Equal(t, "pasted", model.BlockText(reg, next.Doc.Children[0]))
	assert.Equal(t, "horizontal_rule", next.Doc.Children[1].Type)
}

func TestPasteAtNodeSelectionInsertsAfter(t *testing.T) {
	built := doc(p("x"), hr(), p("y"))
	hrID := built.Doc.Children[1].ID
	s := newState(built, model.NewNodeSelection(hrID, nil))

	next := apply(t, s, Paste(s, transfer("text/html", "<p>pasted</p>")))
	require.Len(t, next.Doc.Children, 4)
	assert.Equal(t, "pasted", model.BlockText(reg, next.Doc.Children[2]))
}

func TestPasteReplacesSelection(t *testing.T) {
	built := doc(p("<a>old<b> text"))
	s := newState(built, model.NewTextSelection(built.Tag("a"), built.Tag("b")))

	next := apply(t, s, Paste(s, transfer("text/html", "<p>new</p>")))
	assert.Equal(t, "new text", model.BlockText(reg, next.Doc.Children[0]))
}

func TestPasteNothingUsable(t *testing.T) {
	built := doc(p("<a>"))
	s := newState(built, model.NewCursor(built.Tag("a")))
	assert.Nil(t, Paste(s, dom.NewDataTransfer()))
}

func TestEncodeTransferRoundTrip(t *testing.T) {
	built := doc(p("copy ", builder.Strong("me")))
	s := newState(built, nil)
	tf := dom.NewDataTransfer()
	EncodeTransfer(s, tf, built.Doc.Children)

	assert.NotEmpty(t, tf.GetData(FragmentMIME))
	assert.Contains(t, tf.GetData("text/html"), "<strong>me</strong>")
	assert.Equal(t, "copy me", tf.GetData("text/plain"))
}
