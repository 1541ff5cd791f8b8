package htmlconv_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	. "github.com/notectl/notectl-go/htmlconv"
	"github.com/notectl/notectl-go/model"
	"github.com/notectl/notectl-go/test/builder"
)

var (
	reg    = builder.Reg
	doc    = builder.Doc
	p      = builder.P
	h1     = builder.H1
	ul     = builder.Ul
	li     = builder.Li
	hr     = builder.Hr
	strong = builder.Strong
	em     = builder.Em
	a      = builder.A
)

func TestSerializeBasics(t *testing.T) {
	d := doc(
		h1("Title"),
		p("Hello ", strong("bold"), " and ", em(strong("both"))),
		hr(),
		ul(li(p("item"))),
	).Doc
	out := Serialize(reg, d)

	assert.Contains(t, out, "<h1>Title</h1>")
	assert.Contains(t, out, "<strong>bold</strong>")
	// nesting follows rank: strong inside em
	assert.Contains(t, out, "<em><strong>both</strong></em>")
	assert.Contains(t, out, "<hr")
	assert.Contains(t, out, "<ul><li><p>item</p></li></ul>")
}

func TestSerializeLink(t *testing.T) {
	d := doc(p(a(map[string]interface{}{"href": "https://x.test"}, "click"))).Doc
	out := Serialize(reg, d)
	assert.Contains(t, out, `<a href="https://x.test">click</a>`)
}

func TestSerializeTableRendersStandalone(t *testing.T) {
	table := builder.Table
	tr := builder.Tr
	td := builder.Td
	d := doc(table(tr(td(p("cell"))))).Doc
	out := Serialize(reg, d)

	assert.Contains(t, out, "border-collapse: collapse")
	assert.Contains(t, out, `border="1"`)
	assert.Contains(t, out, "padding")
}

func TestParseBasicTags(t *testing.T) {
	blocks, err := Parse(reg, `<h2>Head</h2><p>body <b>bold</b> <i>it</i></p><hr>`)
	require.NoError(t, err)
	require.Len(t, blocks, 3)

	assert.Equal(t, "heading", blocks[0].Type)
	assert.Equal(t, 2, blocks[0].Attrs["level"])

	// b and i map to strong and em
	runs := blocks[1].Inline
	var marks []string
	for _, r := range runs {
		if run, ok := r.(*model.TextRun); ok {
			for _, m := range run.Marks {
				marks = append(marks, m.Type)
			}
		}
	}
	assert.Contains(t, marks, "strong")
	assert.Contains(t, marks, "em")
	assert.Equal(t, "horizontal_rule", blocks[2].Type)
}

func TestParseRecoversListStructure(t *testing.T) {
	blocks, err := Parse(reg, `<ul><li>one</li><li><p>two</p></li></ul>`)
	require.NoError(t, err)
	require.Len(t, blocks, 1)
	require.Equal(t, "bullet_list", blocks[0].Type)
	require.Len(t, blocks[0].Children, 2)
	for _, item := range blocks[0].Children {
		assert.Equal(t, "list_item", item.Type)
	}
}

func TestParseUnknownTagsAreTransparent(t *testing.T) {
	blocks, err := Parse(reg, `<p><font>inner</font></p>`)
	require.NoError(t, err)
	require.Len(t, blocks, 1)
	assert.Equal(t, "inner", model.BlockText(reg, blocks[0]))
}

func TestParseUnknownBlockFlattensToParagraph(t *testing.T) {
	blocks, err := Parse(reg, `<article>loose text</article>`)
	require.NoError(t, err)
	require.Len(t, blocks, 1)
	assert.Equal(t, "paragraph", blocks[0].Type)
	assert.Equal(t, "loose text", model.BlockText(reg, blocks[0]))
}

func TestSanitizeStripsScriptsAndHandlers(t *testing.T) {
	blocks, err := Parse(reg, `<p onclick="evil()">ok<script>evil()</script></p><p><a href="javascript:evil()">x</a></p>`)
	require.NoError(t, err)
	require.Len(t, blocks, 2)
	assert.Equal(t, "ok", model.BlockText(reg, blocks[0]))

	// the javascript: href is gone; the link mark survives with an empty
	// target
	run := blocks[1].Inline[0].(*model.TextRun)
	if link := model.MarkTypeInSet("link", run.Marks); link != nil {
		assert.Empty(t, link.Attrs["href"])
	}
}

func TestParseStyledSpans(t *testing.T) {
	blocks, err := Parse(reg, `<p><span style="color: red">warm</span></p>`)
	require.NoError(t, err)
	run := blocks[0].Inline[0].(*model.TextRun)
	mark := model.MarkTypeInSet("text_color", run.Marks)
	require.NotNil(t, mark)
	assert.Equal(t, "red", mark.Attrs["color"])
}

func TestParseImage(t *testing.T) {
	blocks, err := Parse(reg, `<figure><img src="pic.png" alt="a pic"></figure>`)
	require.NoError(t, err)
	require.Len(t, blocks, 1)
	assert.Equal(t, "image", blocks[0].Type)
	assert.Equal(t, "pic.png", blocks[0].Attrs["src"])
	assert.Equal(t, "a pic", blocks[0].Attrs["alt"])
}

func TestParseTable(t *testing.T) {
	blocks, err := Parse(reg, `<table><tr><td>a</td><td colspan="2">b</td></tr></table>`)
	require.NoError(t, err)
	require.Len(t, blocks, 1)
	require.Equal(t, "table", blocks[0].Type)
	row := blocks[0].Children[0]
	require.Equal(t, "table_row", row.Type)
	require.Len(t, row.Children, 2)
	assert.Equal(t, 2, row.Children[1].Attrs["colspan"])
}

func TestSerializeParseRoundTrip(t *testing.T) {
	d := doc(
		h1("Title"),
		p("plain ", strong("bold"), " tail"),
		ul(li(p("one")), li(p("two"))),
	).Doc
	blocks, err := Parse(reg, Serialize(reg, d))
	require.NoError(t, err)
	require.Len(t, blocks, len(d.Children))

	// structure and text survive; ids are fresh by design
	back := model.NewDocument(blocks...)
	assert.Equal(t, model.Text(reg, d), model.Text(reg, back))
	assert.Equal(t, "bullet_list", blocks[2].Type)
}
