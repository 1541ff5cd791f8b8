package htmlconv

import (
	"strconv"
	"strings"

	"golang.org/x/net/html"

	"github.com/notectl/notectl-go/dom"
	"github.com/notectl/notectl-go/model"
)

// parseState walks the sanitized DOM with a mark-inheritance stack, emitting
// blocks for recognized block tags and inline runs for inline tags and text.
type parseState struct {
	reg    *model.Registry
	blocks []*model.Block
	// The inline content collected for the textblock being built.
	inline []model.InlineChild
	marks  []*model.Mark
}

// Parse converts sanitized HTML into blocks. Unknown tags are transparent;
// loose inline content at block level is wrapped into paragraphs. Parsing
// never fails on malformed markup; a schema that lacks a referenced type
// skips that construct.
func Parse(reg *model.Registry, fragment string) ([]*model.Block, error) {
	nodes, err := dom.ParseFragment(fragment)
	if err != nil {
		return nil, model.NewSchemaError("unparsable HTML: %v", err)
	}
	nodes = Sanitize(nodes)
	st := &parseState{reg: reg}
	for _, n := range nodes {
		st.walk(n)
	}
	st.flushInline()
	return st.blocks, nil
}

// flushInline wraps pending loose inline content into a paragraph.
func (st *parseState) flushInline() {
	inline := model.NormalizeInline(st.reg, st.inline)
	st.inline = nil
	meaningful := false
	for _, child := range inline {
		if run, ok := child.(*model.TextRun); ok {
			if strings.TrimSpace(run.Text) != "" {
				meaningful = true
			}
		} else {
			meaningful = true
		}
	}
	if !meaningful {
		return
	}
	if b, err := model.NewBlock(st.reg, "paragraph", nil, inline, nil); err == nil {
		st.blocks = append(st.blocks, b)
	}
}

func (st *parseState) push(b *model.Block) {
	st.flushInline()
	st.blocks = append(st.blocks, b)
}

func (st *parseState) walk(n *html.Node) {
	switch n.Type {
	case html.TextNode:
		if strings.TrimSpace(n.Data) == "" && strings.ContainsAny(n.Data, "\n\r") {
			// Formatting whitespace between tags.
			return
		}
		text := collapseWhitespace(n.Data)
		if text != "" {
			st.inline = append(st.inline, model.NewTextRun(text, st.marks))
		}
		return
	case html.ElementNode:
	default:
		return
	}
	tag := strings.ToLower(n.Data)
	switch tag {
	case "p":
		st.push(st.textblock("paragraph", nil, n))
	case "h1", "h2", "h3", "h4", "h5", "h6":
		level := int(tag[1] - '0')
		st.push(st.textblock("heading", map[string]interface{}{"level": level}, n))
	case "pre":
		st.push(st.codeBlock(n))
	case "blockquote":
		st.push(st.container("blockquote", nil, n, ""))
	case "ul":
		st.push(st.container("bullet_list", nil, n, "list_item"))
	case "ol":
		attrs := map[string]interface{}{}
		if start := dom.GetAttr(n, "start"); start != "" {
			if v, err := strconv.Atoi(start); err == nil {
				attrs["start"] = v
			}
		}
		st.push(st.container("ordered_list", attrs, n, "list_item"))
	case "li":
		st.push(st.container("list_item", nil, n, ""))
	case "hr":
		if b, err := model.NewBlock(st.reg, "horizontal_rule", nil, nil, nil); err == nil {
			st.push(b)
		}
	case "img":
		if b := st.image(n); b != nil {
			st.push(b)
		}
	case "figure":
		// A figure is transparent; the img inside carries the content.
		st.walkChildren(n)
	case "table":
		st.push(st.container("table", nil, n, "table_row"))
	case "thead", "tbody":
		st.walkChildren(n)
	case "tr":
		st.push(st.container("table_row", nil, n, "table_cell"))
	case "td", "th":
		attrs := map[string]interface{}{}
		if v, err := strconv.Atoi(dom.GetAttr(n, "colspan")); err == nil && v > 1 {
			attrs["colspan"] = v
		}
		if v, err := strconv.Atoi(dom.GetAttr(n, "rowspan")); err == nil && v > 1 {
			attrs["rowspan"] = v
		}
		st.push(st.container("table_cell", attrs, n, ""))
	case "br":
		if node, err := model.NewInlineNode(st.reg, "hard_break", nil); err == nil {
			st.inline = append(st.inline, node)
		}
	case "strong", "b":
		st.withMark(model.NewMark("strong", nil), n)
	case "em", "i":
		st.withMark(model.NewMark("em", nil), n)
	case "u":
		st.withMark(model.NewMark("underline", nil), n)
	case "s", "del", "strike":
		st.withMark(model.NewMark("strike", nil), n)
	case "code":
		st.withMark(model.NewMark("code", nil), n)
	case "a":
		attrs := map[string]interface{}{"href": dom.GetAttr(n, "href")}
		if target := dom.GetAttr(n, "target"); target != "" {
			attrs["target"] = target
		}
		if rel := dom.GetAttr(n, "rel"); rel != "" {
			attrs["rel"] = rel
		}
		st.withMark(model.NewMark("link", attrs), n)
	case "span":
		st.spanMarks(n)
	default:
		// Unknown or structural tags are transparent.
		st.walkChildren(n)
	}
}

func (st *parseState) walkChildren(n *html.Node) {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		st.walk(c)
	}
}

// withMark pushes a mark onto the inheritance stack for the subtree.
func (st *parseState) withMark(mark *model.Mark, n *html.Node) {
	outer := st.marks
	st.marks = mark.AddToSet(st.reg, st.marks)
	st.walkChildren(n)
	st.marks = outer
}

// spanMarks maps a styled span onto color/background/font marks.
func (st *parseState) spanMarks(n *html.Node) {
	style := dom.GetAttr(n, "style")
	marks := st.marks
	if color := StyleProp(style, "color"); color != "" {
		marks = model.NewMark("text_color", map[string]interface{}{"color": color}).AddToSet(st.reg, marks)
	}
	if bg := StyleProp(style, "background-color"); bg != "" {
		marks = model.NewMark("text_background", map[string]interface{}{"color": bg}).AddToSet(st.reg, marks)
	}
	if family := StyleProp(style, "font-family"); family != "" {
		marks = model.NewMark("font", map[string]interface{}{"family": family}).AddToSet(st.reg, marks)
	}
	outer := st.marks
	st.marks = marks
	st.walkChildren(n)
	st.marks = outer
}

// textblock parses an element's subtree as inline content of a new
// textblock. Nested block tags flatten: their text joins the inline run.
func (st *parseState) textblock(typ string, attrs map[string]interface{}, n *html.Node) *model.Block {
	inner := &parseState{reg: st.reg, marks: st.marks}
	inner.walkChildren(n)
	inline := inner.inline
	// Blocks that slipped inside a textblock tag contribute their text.
	for _, b := range inner.blocks {
		if text := model.BlockText(st.reg, b); text != "" {
			inline = append(inline, model.NewTextRun(text, nil))
		}
	}
	b, err := model.NewBlock(st.reg, typ, attrs, model.NormalizeInline(st.reg, inline), nil)
	if err != nil {
		b, _ = model.NewBlock(st.reg, "paragraph", nil, model.NormalizeInline(st.reg, inline), nil)
	}
	return b
}

// codeBlock parses <pre> content as plain text.
func (st *parseState) codeBlock(n *html.Node) *model.Block {
	var text strings.Builder
	dom.Walk(n, func(c *html.Node) bool {
		if c.Type == html.TextNode {
			text.WriteString(c.Data)
		}
		if c.Type == html.ElementNode && c.Data == "br" {
			text.WriteString("\n")
		}
		return true
	})
	var inline []model.InlineChild
	if t := strings.TrimRight(text.String(), "\n"); t != "" {
		inline = append(inline, model.NewTextRun(t, nil))
	}
	b, err := model.NewBlock(st.reg, "code_block", nil, inline, nil)
	if err != nil {
		b, _ = model.NewBlock(st.reg, "paragraph", nil, inline, nil)
	}
	return b
}

func (st *parseState) image(n *html.Node) *model.Block {
	src := dom.GetAttr(n, "src")
	if src == "" {
		return nil
	}
	attrs := map[string]interface{}{"src": src}
	if alt := dom.GetAttr(n, "alt"); alt != "" {
		attrs["alt"] = alt
	}
	if w := dom.GetAttr(n, "width"); w != "" {
		attrs["width"] = w
	}
	if h := dom.GetAttr(n, "height"); h != "" {
		attrs["height"] = h
	}
	b, err := model.NewBlock(st.reg, "image", attrs, nil, nil)
	if err != nil {
		return nil
	}
	return b
}

// container parses child blocks, coercing stray children into the required
// child type when one is named (ul recovers its li structure).
func (st *parseState) container(typ string, attrs map[string]interface{}, n *html.Node, childType string) *model.Block {
	inner := &parseState{reg: st.reg, marks: st.marks}
	inner.walkChildren(n)
	inner.flushInline()
	children := inner.blocks
	if childType != "" {
		children = coerceChildren(st.reg, children, childType)
	}
	b, err := model.NewBlock(st.reg, typ, attrs, nil, children)
	if err != nil {
		// The container did not fit the schema; degrade to its children's
		// text as a paragraph.
		var inline []model.InlineChild
		for _, c := range children {
			if text := blockTreeText(st.reg, c); text != "" {
				inline = append(inline, model.NewTextRun(text, nil))
			}
		}
		b, _ = model.NewBlock(st.reg, "paragraph", nil, model.NormalizeInline(st.reg, inline), nil)
	}
	return b
}

// coerceChildren wraps blocks of the wrong type so a list built from
// malformed markup still comes out as list_items.
func coerceChildren(reg *model.Registry, blocks []*model.Block, childType string) []*model.Block {
	var result []*model.Block
	for _, b := range blocks {
		if b.Type == childType {
			result = append(result, b)
			continue
		}
		wrapped, err := model.NewBlock(reg, childType, nil, nil, []*model.Block{b})
		if err != nil {
			continue
		}
		result = append(result, wrapped)
	}
	return result
}

func blockTreeText(reg *model.Registry, b *model.Block) string {
	if len(b.Children) == 0 {
		return model.BlockText(reg, b)
	}
	var parts []string
	for _, c := range b.Children {
		if t := blockTreeText(reg, c); t != "" {
			parts = append(parts, t)
		}
	}
	return strings.Join(parts, " ")
}

// collapseWhitespace folds runs of whitespace into single spaces, the way
// rendered HTML would. Boundary spaces survive as single spaces so runs
// between inline tags keep their separators.
func collapseWhitespace(s string) string {
	var b strings.Builder
	space := false
	for _, r := range s {
		if r == ' ' || r == '\t' || r == '\n' || r == '\r' {
			space = true
			continue
		}
		if space {
			b.WriteByte(' ')
			space = false
		}
		b.WriteRune(r)
	}
	if space {
		b.WriteByte(' ')
	}
	return b.String()
}
