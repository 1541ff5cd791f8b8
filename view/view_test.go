package view_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"golang.org/x/net/html"

	"github.com/notectl/notectl-go/dom"
	"github.com/notectl/notectl-go/model"
	"github.com/notectl/notectl-go/plugin"
	"github.com/notectl/notectl-go/state"
	"github.com/notectl/notectl-go/test/builder"
	"github.com/notectl/notectl-go/transform"
	. "github.com/notectl/notectl-go/view"
)

var (
	reg    = builder.Reg
	doc    = builder.Doc
	p      = builder.P
	h2     = builder.H2
	hr     = builder.Hr
	strong = builder.Strong
	em     = builder.Em
	br     = builder.Br
)

func newView(d *model.Document) (*View, *state.EditorState) {
	s := state.NewEditorState(&state.Config{Registry: reg}, d, nil)
	v := New(dom.NewHeadlessHost(), s)
	return v, s
}

func blockEl(v *View, id model.BlockID) *html.Node {
	return dom.FindByAttr(v.Root(), "data-block-id", string(id))
}

func TestRenderBasicBlocks(t *testing.T) {
	built := doc(p("Hello ", strong("bold")), h2("Title"), hr())
	v, _ := newView(built.Doc)
	out := dom.Render(v.Root())

	// marks render as their tags, nested inside the block element
	assert.Contains(t, out, "<strong>bold</strong>")
	assert.Contains(t, out, "<h2")
	assert.Contains(t, out, "<hr")

	// every block element carries its id
	for _, b := range built.Doc.Children {
		assert.NotNil(t, blockEl(v, b.ID))
	}

	// voids are non-editable
	hrEl := blockEl(v, built.Doc.Children[2].ID)
	assert.Equal(t, "false", dom.GetAttr(hrEl, "contenteditable"))
	assert.Equal(t, "true", dom.GetAttr(hrEl, "data-void"))
}

func TestRenderEmptyTextblockHasBR(t *testing.T) {
	built := doc(p(""))
	v, _ := newView(built.Doc)
	el := blockEl(v, built.Doc.Children[0].ID)
	require.NotNil(t, el)
	require.NotNil(t, el.FirstChild)
	assert.Equal(t, "br", el.FirstChild.Data)
}

func TestRenderMarkNestingByRank(t *testing.T) {
	built := doc(p(strong(em("both"))))
	v, _ := newView(built.Doc)
	out := dom.Render(v.Root())

	// lower rank (strong) sits closer to the text
	assert.Contains(t, out, "<em><strong>both</strong></em>")
}

func TestRenderHardBreak(t *testing.T) {
	built := doc(p("a", br(), "b"))
	v, _ := newView(built.Doc)
	out := dom.Render(v.Root())
	assert.Contains(t, out, `<br data-inline-node="hard_break"`)
}

func TestReconcileKeepsUnchangedNodes(t *testing.T) {
	built := doc(p("one"), p("two"))
	v, s := newView(built.Doc)
	first := built.Doc.Children[0].ID
	second := built.Doc.Children[1].ID
	firstEl := blockEl(v, first)
	secondEl := blockEl(v, second)

	tr := s.NewTransaction(transform.OriginUser)
	tr.InsertText(second, 3, 3, "!", nil)
	next, err := s.Apply(tr)
	require.NoError(t, err)
	v.SetState(next, nil)

	// the untouched block keeps its exact DOM node
	assert.Same(t, firstEl, blockEl(v, first))

	// the changed block was re-rendered
	assert.NotSame(t, secondEl, blockEl(v, second))
	assert.Contains(t, dom.Render(blockEl(v, second)), "two!")
}

func TestReconcileRemovesAndReorders(t *testing.T) {
	built := doc(p("one"), p("two"), p("three"))
	v, s := newView(built.Doc)
	gone := built.Doc.Children[1].ID

	tr := s.NewTransaction(transform.OriginUser)
	tr.RemoveBlocks("", 1, 1)
	next, err := s.Apply(tr)
	require.NoError(t, err)
	v.SetState(next, nil)

	assert.Nil(t, blockEl(v, gone))
	out := dom.Render(v.Root())
	assert.True(t, strings.Index(out, "one") < strings.Index(out, "three"))
}

func TestDecorationsRender(t *testing.T) {
	built := doc(p("abcdef"))
	v, s := newView(built.Doc)
	block := built.Doc.Children[0].ID

	decos := plugin.NewDecorationSet().
		AddInline(block, plugin.InlineDecoration{From: 1, To: 3, Attrs: map[string]string{"class": "hl"}}).
		AddNode(block, plugin.NodeDecoration{Attrs: map[string]string{"data-state": "busy"}})
	v.SetState(s, decos)

	el := blockEl(v, block)
	assert.Equal(t, "busy", dom.GetAttr(el, "data-state"))
	out := dom.Render(el)
	assert.Contains(t, out, `data-decoration="true"`)
	assert.Contains(t, out, `class="hl"`)

	// the decorated range splits the run; the document is untouched
	assert.Contains(t, out, "bc")
	assert.Equal(t, "abcdef", model.BlockText(reg, s.Doc.Children[0]))
}

func TestCompositionGuardSkipsBlock(t *testing.T) {
	built := doc(p("draft"))
	v, s := newView(built.Doc)
	block := built.Doc.Children[0].ID
	el := blockEl(v, block)

	// while composing, the block's DOM must not be replaced
	v.Composition().Start(block, 5, 5)
	tr := s.NewTransaction(transform.OriginUser)
	tr.InsertText(block, 0, 0, "x", nil)
	next, err := s.Apply(tr)
	require.NoError(t, err)
	v.SetState(next, nil)
	assert.Same(t, el, blockEl(v, block))

	// after the composition ends the block reconciles again
	v.Composition().End()
	tr = next.NewTransaction(transform.OriginUser)
	tr.InsertText(block, 0, 0, "y", nil)
	third, err := next.Apply(tr)
	require.NoError(t, err)
	v.SetState(third, nil)
	assert.NotSame(t, el, blockEl(v, block))
}

func TestEndOfTextblockHorizontal(t *testing.T) {
	built := doc(p("hi"))
	v, s := newView(built.Doc)
	block := built.Doc.Children[0].ID

	setCursor := func(offset int) {
		next, err := s.Apply(s.NewTransaction(transform.OriginAPI).SetSelection(model.NewCursor(model.Pos(block, offset))))
		require.NoError(t, err)
		s = next
		v.SetState(next, nil)
	}

	setCursor(0)
	assert.True(t, v.EndOfTextblock("left"))
	assert.False(t, v.EndOfTextblock("right"))

	setCursor(2)
	assert.True(t, v.EndOfTextblock("right"))
	assert.False(t, v.EndOfTextblock("left"))

	// vertical edges fall back to the offset heuristic headlessly
	setCursor(0)
	assert.True(t, v.EndOfTextblock("up"))
	setCursor(2)
	assert.True(t, v.EndOfTextblock("down"))
}
