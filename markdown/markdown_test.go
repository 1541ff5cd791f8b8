package markdown_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	. "github.com/notectl/notectl-go/markdown"
	"github.com/notectl/notectl-go/model"
	"github.com/notectl/notectl-go/test/builder"
)

var (
	reg = builder.Reg
	doc = builder.Doc
	p   = builder.P
	h2  = builder.H2
	ul  = builder.Ul
	li  = builder.Li
	hr  = builder.Hr
)

const sample = `# Title

Some *emphasis* and **strength** and ` + "`code`" + `.

- first
- second

> quoted

---
`

func TestParseMarkdown(t *testing.T) {
	d, err := Parse(reg, []byte(sample))
	require.NoError(t, err)
	require.Len(t, d.Children, 5)

	assert.Equal(t, "heading", d.Children[0].Type)
	assert.Equal(t, 1, d.Children[0].Attrs["level"])

	// inline marks map onto the schema
	var marks []string
	for _, child := range d.Children[1].Inline {
		if run, ok := child.(*model.TextRun); ok {
			for _, m := range run.Marks {
				marks = append(marks, m.Type)
			}
		}
	}
	assert.Contains(t, marks, "em")
	assert.Contains(t, marks, "strong")
	assert.Contains(t, marks, "code")

	assert.Equal(t, "bullet_list", d.Children[2].Type)
	require.Len(t, d.Children[2].Children, 2)
	assert.Equal(t, "blockquote", d.Children[3].Type)
	assert.Equal(t, "horizontal_rule", d.Children[4].Type)
}

func TestParseLink(t *testing.T) {
	d, err := Parse(reg, []byte(`[text](https://x.test)`))
	require.NoError(t, err)
	run := d.Children[0].Inline[0].(*model.TextRun)
	link := model.MarkTypeInSet("link", run.Marks)
	require.NotNil(t, link)
	assert.Equal(t, "https://x.test", link.Attrs["href"])
}

func TestParseCodeFence(t *testing.T) {
	d, err := Parse(reg, []byte("```\nfunc main() {}\n```\n"))
	require.NoError(t, err)
	require.Equal(t, "code_block", d.Children[0].Type)
	assert.Equal(t, "func main() {}", model.BlockText(reg, d.Children[0]))
}

func TestParseImageParagraph(t *testing.T) {
	d, err := Parse(reg, []byte(`![alt text](pic.png)`))
	require.NoError(t, err)
	require.Equal(t, "image", d.Children[0].Type)
	assert.Equal(t, "pic.png", d.Children[0].Attrs["src"])
}

func TestSerializeMarkdown(t *testing.T) {
	strong := builder.Strong
	em := builder.Em
	d := doc(
		h2("Head"),
		p("mix ", strong("bold"), " and ", em("soft")),
		ul(li(p("one")), li(p("two"))),
		hr(),
	).Doc
	out := Serialize(reg, d)

	assert.Contains(t, out, "## Head")
	assert.Contains(t, out, "**bold**")
	assert.Contains(t, out, "*soft*")
	assert.Contains(t, out, "- one")
	assert.Contains(t, out, "- two")
	assert.Contains(t, out, "---")
}

func TestMarkdownRoundTrip(t *testing.T) {
	d, err := Parse(reg, []byte(sample))
	require.NoError(t, err)
	out := Serialize(reg, d)
	back, err := Parse(reg, []byte(out))
	require.NoError(t, err)

	// block structure and text survive the round-trip
	require.Len(t, back.Children, len(d.Children))
	for i := range d.Children {
		assert.Equal(t, d.Children[i].Type, back.Children[i].Type)
	}
	assert.Equal(t,
		strings.TrimSpace(model.Text(reg, d)),
		strings.TrimSpace(model.Text(reg, back)))
}
