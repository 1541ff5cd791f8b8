// Package basic defines the editor's built-in document schema, whose
// elements can be reused and extended by plugins before the registry is
// frozen.
package basic

import (
	"fmt"

	"golang.org/x/net/html"

	"github.com/notectl/notectl-go/dom"
	"github.com/notectl/notectl-go/model"
)

var falsy = false

// Nodes are the specs for the built-in node types.
var Nodes = []*model.NodeSpec{
	// A plain paragraph textblock. Represented in the DOM as a <p> element.
	{Name: "paragraph", Content: model.KindInline, Tag: "p"},

	// A heading textblock with a level attribute holding 1 to 6. Parsed and
	// serialized as <h1> to <h6>.
	{
		Name:    "heading",
		Content: model.KindInline,
		Attrs:   map[string]*model.AttrSpec{"level": {Default: 1, HasDefault: true}},
		Tag:     "h1",
		ParseTags: []string{
			"h1", "h2", "h3", "h4", "h5", "h6",
		},
		ToDOM: func(b *model.Block) *html.Node {
			return dom.Elem(fmt.Sprintf("h%d", headingLevel(b)))
		},
	},

	// A blockquote wrapping one or more blocks.
	{Name: "blockquote", Content: model.KindBlock, Tag: "blockquote"},

	// A code listing. Disallows marks; inline nodes are not restricted.
	// Represented as a <pre> element with a <code> element inside of it.
	{
		Name:    "code_block",
		Content: model.KindInline,
		Marks:   []string{},
		Tag:     "pre",
		ToDOM: func(b *model.Block) *html.Node {
			pre := dom.Elem("pre")
			pre.AppendChild(dom.Elem("code"))
			return pre
		},
	},

	// A horizontal rule (<hr>). Void: selected as a whole node.
	{Name: "horizontal_rule", Content: model.KindEmpty, Void: true, Atom: true, Tag: "hr"},

	// A block image. Serialized as <figure><img></figure>.
	{
		Name:    "image",
		Content: model.KindEmpty,
		Void:    true,
		Atom:    true,
		Attrs: map[string]*model.AttrSpec{
			"src":    {},
			"alt":    {Default: "", HasDefault: true},
			"width":  {Default: nil, HasDefault: true},
			"height": {Default: nil, HasDefault: true},
		},
		Tag:       "figure",
		ParseTags: []string{"img"},
		ToDOM: func(b *model.Block) *html.Node {
			figure := dom.Elem("figure")
			img := dom.Elem("img", "src", attrString(b.Attrs, "src"))
			if alt := attrString(b.Attrs, "alt"); alt != "" {
				dom.SetAttr(img, "alt", alt)
			}
			if w := attrString(b.Attrs, "width"); w != "" {
				dom.SetAttr(img, "width", w)
			}
			if h := attrString(b.Attrs, "height"); h != "" {
				dom.SetAttr(img, "height", h)
			}
			figure.AppendChild(img)
			return figure
		},
	},

	// Tables: a table holds rows, a row holds cells, a cell holds blocks.
	// Cells are isolating: ordinary navigation does not cross their edge.
	{Name: "table", Content: model.KindBlock, Allow: []string{"table_row"}, Tag: "table"},
	{Name: "table_row", Content: model.KindBlock, Allow: []string{"table_cell"}, Tag: "tr"},
	{
		Name:      "table_cell",
		Content:   model.KindBlock,
		Isolating: true,
		Attrs: map[string]*model.AttrSpec{
			"colspan": {Default: 1, HasDefault: true},
			"rowspan": {Default: 1, HasDefault: true},
		},
		Tag: "td",
	},

	// A hard line break, represented in the DOM as <br>.
	{Name: "hard_break", Content: model.KindEmpty, Inline: true, Tag: "br", TextEquivalent: "\n"},

	// An atomic inline mention, rendered as a non-editable span.
	{
		Name:    "mention",
		Content: model.KindEmpty,
		Inline:  true,
		Attrs: map[string]*model.AttrSpec{
			"id":    {},
			"label": {Default: "", HasDefault: true},
		},
		Tag: "span",
		ToDOMInline: func(n *model.InlineNode) *html.Node {
			span := dom.Elem("span",
				"data-mention-id", attrString(n.Attrs, "id"),
				"contenteditable", "false")
			span.AppendChild(dom.TextNode("@" + attrString(n.Attrs, "label")))
			return span
		},
	},
}

// Marks are the specs for the built-in mark types. Rank orders nesting in
// the DOM: lower rank sits closer to the text.
var Marks = []*model.MarkSpec{
	// A strong mark. Rendered as <strong>; <b> is recognized on input.
	{Name: "strong", Rank: 10, Tag: "strong", ParseTags: []string{"b"}},

	// An emphasis mark. Rendered as <em>; <i> is recognized on input.
	{Name: "em", Rank: 20, Tag: "em", ParseTags: []string{"i"}},

	// Underline, rendered as <u>.
	{Name: "underline", Rank: 30, Tag: "u"},

	// Strikethrough, rendered as <s>.
	{Name: "strike", Rank: 40, Tag: "s", ParseTags: []string{"del", "strike"}},

	// Code font, rendered as <code>.
	{Name: "code", Rank: 50, Tag: "code"},

	// A link with href/target/rel attributes. Not inclusive: text typed at
	// its end does not extend the link.
	{
		Name: "link",
		Rank: 60,
		Attrs: map[string]*model.AttrSpec{
			"href":   {},
			"target": {Default: "", HasDefault: true},
			"rel":    {Default: "", HasDefault: true},
		},
		Inclusive: &falsy,
		Tag:       "a",
		ToDOM: func(m *model.Mark) *html.Node {
			a := dom.Elem("a", "href", attrString(m.Attrs, "href"))
			if target := attrString(m.Attrs, "target"); target != "" {
				dom.SetAttr(a, "target", target)
			}
			if rel := attrString(m.Attrs, "rel"); rel != "" {
				dom.SetAttr(a, "rel", rel)
			}
			return a
		},
	},

	// Colored text, rendered as a styled <span>.
	{
		Name:  "text_color",
		Rank:  70,
		Attrs: map[string]*model.AttrSpec{"color": {}},
		Tag:   "span",
		ToDOM: func(m *model.Mark) *html.Node {
			return dom.Elem("span", "style", "color: "+attrString(m.Attrs, "color"))
		},
	},

	// Text background color, rendered as a styled <span>.
	{
		Name:  "text_background",
		Rank:  80,
		Attrs: map[string]*model.AttrSpec{"color": {}},
		Tag:   "span",
		ToDOM: func(m *model.Mark) *html.Node {
			return dom.Elem("span", "style", "background-color: "+attrString(m.Attrs, "color"))
		},
	},

	// Font family, rendered as a styled <span>.
	{
		Name:  "font",
		Rank:  90,
		Attrs: map[string]*model.AttrSpec{"family": {}},
		Tag:   "span",
		ToDOM: func(m *model.Mark) *html.Node {
			return dom.Elem("span", "style", "font-family: "+attrString(m.Attrs, "family"))
		},
	},
}

// Register adds the built-in nodes and marks to a registry.
func Register(reg *model.Registry) error {
	for _, spec := range Nodes {
		if err := reg.RegisterNode(spec); err != nil {
			return err
		}
	}
	for _, spec := range Marks {
		if err := reg.RegisterMark(spec); err != nil {
			return err
		}
	}
	return nil
}

func headingLevel(b *model.Block) int {
	switch v := b.Attrs["level"].(type) {
	case int:
		if v >= 1 && v <= 6 {
			return v
		}
	case float64:
		if v >= 1 && v <= 6 {
			return int(v)
		}
	}
	return 1
}

func attrString(attrs map[string]interface{}, key string) string {
	switch v := attrs[key].(type) {
	case string:
		return v
	case int:
		return fmt.Sprintf("%d", v)
	case float64:
		return fmt.Sprintf("%g", v)
	}
	return ""
}
