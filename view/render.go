package view

import (
	"sort"

	"golang.org/x/net/html"

	"github.com/notectl/notectl-go/dom"
	"github.com/notectl/notectl-go/model"
	"github.com/notectl/notectl-go/plugin"
)

// renderBlock builds the DOM for a block from its spec: the block element
// tagged with data-block-id, its inline content as micro-segments, nested
// child blocks, and any decorations targeting it.
func renderBlock(reg *model.Registry, b *model.Block, decos *plugin.DecorationSet) *html.Node {
	spec, ok := reg.Node(b.Type)
	if !ok {
		// Validation keeps unknown types out of committed states; render a
		// plain div if one slips through so the view never panics.
		spec = &model.NodeSpec{Name: b.Type, Tag: "div"}
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
	dom.SetAttr(el, "data-block-id", string(b.ID))
	dom.SetAttr(el, "data-block-type", b.Type)
	if spec.Void {
		dom.SetAttr(el, "contenteditable", "false")
		dom.SetAttr(el, "data-void", "true")
	}
	bd := decos.Block(b.ID)
	if bd != nil {
		for _, d := range bd.Node {
			for k, v := range d.Attrs {
				dom.SetAttr(el, k, v)
			}
		}
	}
	holder := contentHolder(el)
	switch {
	case spec.IsTextblock():
		renderInline(reg, holder, b.Inline, bd)
	case spec.Content == model.KindBlock:
		for _, child := range b.Children {
			holder.AppendChild(renderBlock(reg, child, decos))
		}
	}
	return el
}

// contentHolder finds the element content renders into: the deepest
// first-descendant element of a ToDOM result (so <pre><code> receives the
// text), or the element itself.
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

// segment is a run of inline content between two cut points, carrying the
// marks and inline decorations covering it.
type segment struct {
	from, to int
	run      *model.TextRun
	node     *model.InlineNode
	decos    []plugin.InlineDecoration
}

// renderInline flattens inline children into micro-segments bounded by
// mark-set and decoration boundaries, renders each as text wrapped by marks
// (rank-sorted, lowest innermost) then decoration spans, and inserts widget
// decorations at their offsets. An empty textblock renders a <br> so the
// caret has a place to land.
func renderInline(reg *model.Registry, holder *html.Node, children []model.InlineChild, bd *plugin.BlockDecorations) {
	if len(children) == 0 {
		holder.AppendChild(dom.Elem("br"))
		appendWidgets(holder, bd, 0, true)
		return
	}
	cuts := cutPoints(children, bd)
	total := model.InlineLength(children)
	appendWidgets(holder, bd, 0, false)
	for i := 0; i+1 < len(cuts); i++ {
		from, to := cuts[i], cuts[i+1]
		for _, seg := range segmentsIn(children, from, to) {
			seg.decos = coveringDecos(bd, seg.from)
			holder.AppendChild(renderSegment(reg, seg))
		}
		appendWidgets(holder, bd, to, to == total)
	}
}

// cutPoints collects every boundary offset: child edges, mark boundaries
// (implied by child edges, since runs are maximal), and inline decoration
// edges.
func cutPoints(children []model.InlineChild, bd *plugin.BlockDecorations) []int {
	set := map[int]bool{0: true}
	pos := 0
	for _, child := range children {
		pos += child.Width()
		set[pos] = true
	}
	total := pos
	if bd != nil {
		for _, d := range bd.Inline {
			if d.From >= 0 && d.From <= total {
				set[d.From] = true
			}
			if d.To >= 0 && d.To <= total {
				set[d.To] = true
			}
		}
		for _, w := range bd.Widgets {
			if w.Offset >= 0 && w.Offset <= total {
				set[w.Offset] = true
			}
		}
	}
	cuts := make([]int, 0, len(set))
	for cut := range set {
		cuts = append(cuts, cut)
	}
	sort.Ints(cuts)
	return cuts
}

// segmentsIn slices the children covering [from, to) into segments. Inline
// nodes are indivisible, so each lands in its own segment.
func segmentsIn(children []model.InlineChild, from, to int) []segment {
	var result []segment
	pos := 0
	for _, child := range children {
		end := pos + child.Width()
		if end <= from {
			pos = end
			continue
		}
		if pos >= to {
			break
		}
		switch child := child.(type) {
		case *model.TextRun:
			lo, hi := pos, end
			if from > lo {
				lo = from
			}
			if to < hi {
				hi = to
			}
			slice := model.SliceInline([]model.InlineChild{child}, lo-pos, hi-pos)
			if len(slice) == 1 {
				if run, ok := slice[0].(*model.TextRun); ok {
					result = append(result, segment{from: lo, to: hi, run: run})
				}
			}
		case *model.InlineNode:
			result = append(result, segment{from: pos, to: end, node: child})
		}
		pos = end
	}
	return result
}

func coveringDecos(bd *plugin.BlockDecorations, offset int) []plugin.InlineDecoration {
	if bd == nil {
		return nil
	}
	var covering []plugin.InlineDecoration
	for _, d := range bd.Inline {
		if d.From <= offset && offset < d.To {
			covering = append(covering, d)
		}
	}
	return covering
}

// renderSegment renders one micro-segment: text wrapped by its marks sorted
// by rank (innermost = lowest rank), wrapped by decoration spans outermost.
func renderSegment(reg *model.Registry, seg segment) *html.Node {
	var inner *html.Node
	switch {
	case seg.run != nil:
		inner = dom.TextNode(seg.run.Text)
		for _, mark := range model.SortMarks(reg, seg.run.Marks) {
			wrap := renderMark(reg, mark)
			wrap.AppendChild(inner)
			inner = wrap
		}
	case seg.node != nil:
		inner = renderInlineNode(reg, seg.node)
	}
	for _, d := range seg.decos {
		span := dom.Elem("span", "data-decoration", "true")
		for k, v := range d.Attrs {
			dom.SetAttr(span, k, v)
		}
		span.AppendChild(inner)
		inner = span
	}
	return inner
}

func renderMark(reg *model.Registry, mark *model.Mark) *html.Node {
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

func renderInlineNode(reg *model.Registry, node *model.InlineNode) *html.Node {
	spec, ok := reg.Node(node.Type)
	if !ok {
		return dom.Elem("span", "data-inline-node", node.Type)
	}
	var el *html.Node
	if spec.ToDOMInline != nil {
		el = spec.ToDOMInline(node)
	} else {
		tag := spec.Tag
		if tag == "" {
			tag = "span"
		}
		el = dom.Elem(tag)
	}
	dom.SetAttr(el, "data-inline-node", node.Type)
	if el.Data != "br" {
		dom.SetAttr(el, "contenteditable", "false")
	}
	return el
}

func appendWidgets(holder *html.Node, bd *plugin.BlockDecorations, offset int, atEnd bool) {
	if bd == nil {
		return
	}
	for _, w := range bd.Widgets {
		if w.Offset != offset {
			if !(atEnd && w.Offset > offset) {
				continue
			}
		}
		if w.ToDOM == nil {
			continue
		}
		el := w.ToDOM()
		dom.SetAttr(el, "data-widget", "true")
		dom.SetAttr(el, "contenteditable", "false")
		holder.AppendChild(el)
	}
}
