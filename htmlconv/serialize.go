package htmlconv

import (
	"strconv"
	"strings"

	"golang.org/x/net/html"

	"github.com/notectl/notectl-go/dom"
	"github.com/notectl/notectl-go/model"
)

// tableStyle makes emitted tables render standalone, per the serialization
// contract.
const (
	tableStyle = "border-collapse: collapse"
	cellStyle  = "border: 1px solid #ccc; padding: 4px 8px"
)

// Serialize renders a document to the contract's HTML tag set. Marks nest by
// rank; tables carry explicit border and padding rules.
func Serialize(reg *model.Registry, d *model.Document) string {
	var b strings.Builder
	for _, block := range d.Children {
		if el := serializeBlock(reg, block); el != nil {
			b.WriteString(dom.Render(el))
		}
	}
	return b.String()
}

// SerializeBlocks renders a block slice, used for the text/html payload of
// copied content.
func SerializeBlocks(reg *model.Registry, blocks []*model.Block) string {
	var b strings.Builder
	for _, block := range blocks {
		if el := serializeBlock(reg, block); el != nil {
			b.WriteString(dom.Render(el))
		}
	}
	return b.String()
}

func serializeBlock(reg *model.Registry, b *model.Block) *html.Node {
	spec, ok := reg.Node(b.Type)
	if !ok {
		return nil
	}
	var el *html.Node
	if spec.ToDOM != nil {
		el = spec.ToDOM(b)
	} else {
		tag := spec.Tag
		if tag == "" {
			tag = "div"
		}
		el = dom.Elem(tag)
	}
	switch b.Type {
	case "table":
		dom.SetAttr(el, "style", tableStyle)
		dom.SetAttr(el, "border", "1")
	case "table_cell":
		dom.SetAttr(el, "style", cellStyle)
		if v, ok := intAttr(b.Attrs, "colspan"); ok && v > 1 {
			dom.SetAttr(el, "colspan", strconv.Itoa(v))
		}
		if v, ok := intAttr(b.Attrs, "rowspan"); ok && v > 1 {
			dom.SetAttr(el, "rowspan", strconv.Itoa(v))
		}
	}
	holder := contentHolder(el)
	switch {
	case spec.IsTextblock():
		for _, child := range serializeInline(reg, b.Inline) {
			holder.AppendChild(child)
		}
	case spec.Content == model.KindBlock:
		for _, child := range b.Children {
			if sub := serializeBlock(reg, child); sub != nil {
				holder.AppendChild(sub)
			}
		}
	}
	return el
}

// contentHolder mirrors the view's rule: ToDOM results like <pre><code>
// receive content in their innermost sole descendant.
func contentHolder(el *html.Node) *html.Node {
	holder := el
	for {
		child := holder.FirstChild
		if child == nil || child.Type != html.ElementNode || child.NextSibling != nil {
			return holder
		}
		holder = child
	}
}

// serializeInline renders runs wrapped in mark elements, lowest rank
// innermost, merging adjacent children into shared mark elements is left to
// the sanitizer-free reader: each run carries its full mark chain.
func serializeInline(reg *model.Registry, children []model.InlineChild) []*html.Node {
	var result []*html.Node
	for _, child := range children {
		switch child := child.(type) {
		case *model.TextRun:
			var node *html.Node = dom.TextNode(child.Text)
			for _, mark := range model.SortMarks(reg, child.Marks) {
				wrap := serializeMark(reg, mark)
				wrap.AppendChild(node)
				node = wrap
			}
			result = append(result, node)
		case *model.InlineNode:
			spec, ok := reg.Node(child.Type)
			if !ok {
				continue
			}
			var el *html.Node
			if spec.ToDOMInline != nil {
				el = spec.ToDOMInline(child)
			} else {
				tag := spec.Tag
				if tag == "" {
					tag = "span"
				}
				el = dom.Elem(tag)
			}
			result = append(result, el)
		}
	}
	return result
}

func serializeMark(reg *model.Registry, mark *model.Mark) *html.Node {
	spec, ok := reg.Mark(mark.Type)
	if !ok {
		return dom.Elem("span")
	}
	if spec.ToDOM != nil {
		return spec.ToDOM(mark)
	}
	tag := spec.Tag
	if tag == "" {
		tag = "span"
	}
	return dom.Elem(tag)
}

func intAttr(attrs map[string]interface{}, key string) (int, bool) {
	switch v := attrs[key].(type) {
	case int:
		return v, true
	case float64:
		return int(v), true
	}
	return 0, false
}
