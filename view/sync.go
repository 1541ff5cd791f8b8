package view

import (
	"unicode/utf8"

	"golang.org/x/net/html"

	"github.com/notectl/notectl-go/dom"
	"github.com/notectl/notectl-go/model"
)

// Selection sync, both directions, over the view's element tree. The walker
// counts inline-content widths: text nodes contribute their rune count,
// inline atoms contribute 1, mark and decoration wrappers are transparent,
// widgets are skipped, nested block subtrees are rejected.

const gapCursorClass = "notectl-gapcursor"

// blockElement finds the element rendering a block.
func (v *View) blockElement(id model.BlockID) *html.Node {
	return dom.FindByAttr(v.root, "data-block-id", string(id))
}

// domPoint is a DOM selection endpoint.
type domPoint struct {
	node   *html.Node
	offset int
}

// resolvePosition maps a model position to a DOM point inside the block's
// content.
func (v *View) resolvePosition(pos model.Position) (domPoint, bool) {
	el := v.blockElement(pos.Block)
	if el == nil {
		return domPoint{}, false
	}
	holder := contentHolder(el)
	remaining := pos.Offset
	var walk func(n *html.Node) (domPoint, bool)
	walk = func(n *html.Node) (domPoint, bool) {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			switch {
			case c.Type == html.TextNode:
				width := utf8.RuneCountInString(c.Data)
				if remaining <= width {
					return domPoint{node: c, offset: runeByteOffset(c.Data, remaining)}, true
				}
				remaining -= width
			case c.Type == html.ElementNode && dom.HasAttr(c, "data-widget"):
				// Widgets take no width; skip.
			case c.Type == html.ElementNode && dom.GetAttr(c, gapCursorAttr) != "":
				// The gap cursor element is view-only.
			case c.Type == html.ElementNode && dom.HasAttr(c, "data-block-id"):
				// A nested block subtree; positions never point into it
				// from this block's offsets.
			case c.Type == html.ElementNode && dom.HasAttr(c, "data-inline-node"):
				if remaining == 0 {
					return pointBefore(c), true
				}
				remaining--
				if remaining == 0 {
					return pointAfter(c), true
				}
			case c.Type == html.ElementNode && c.Data == "br" && !dom.HasAttr(c, "data-inline-node"):
				// The filler <br> of an empty block.
				if remaining == 0 {
					return domPoint{node: holder, offset: 0}, true
				}
			case c.Type == html.ElementNode:
				// Mark or decoration wrapper: transparent.
				if p, ok := walk(c); ok {
					return p, true
				}
			}
		}
		return domPoint{}, false
	}
	if len(dom.Children(holder)) == 0 || (remaining == 0 && holder.FirstChild == nil) {
		return domPoint{node: holder, offset: 0}, true
	}
	if p, ok := walk(holder); ok {
		return p, true
	}
	// Past the end: land after the last child.
	return domPoint{node: holder, offset: len(dom.Children(holder))}, true
}

const gapCursorAttr = "data-gapcursor"

func pointBefore(n *html.Node) domPoint {
	parent := n.Parent
	index := 0
	for c := parent.FirstChild; c != nil && c != n; c = c.NextSibling {
		index++
	}
	return domPoint{node: parent, offset: index}
}

func pointAfter(n *html.Node) domPoint {
	p := pointBefore(n)
	p.offset++
	return p
}

func runeByteOffset(s string, runes int) int {
	count := 0
	for i := range s {
		if count == runes {
			return i
		}
		count++
	}
	return len(s)
}

// SyncSelectionToDOM writes the model selection into the native selection.
// Skipped while a composition is active: the IME owns the DOM selection.
func (v *View) SyncSelectionToDOM() {
	if v.tracker.Active() {
		return
	}
	v.clearGapCursor()
	v.clearNodeSelected()
	sel := v.state.Selection
	native := v.host.Selection()
	switch sel := sel.(type) {
	case *model.TextSelection:
		anchor, okA := v.resolvePosition(sel.Anchor)
		head, okH := v.resolvePosition(sel.Head)
		if !okA || !okH {
			return
		}
		if sel.Collapsed() {
			native.Collapse(head.node, head.offset)
		} else {
			native.Select(anchor.node, anchor.offset, head.node, head.offset)
		}
	case *model.NodeSelection:
		el := v.blockElement(sel.Node)
		if el == nil {
			return
		}
		dom.SetAttr(el, "data-selected", "true")
		native.SelectNode(el)
	case *model.GapCursor:
		native.RemoveAllRanges()
		v.renderGapCursor(sel)
	}
}

func (v *View) clearNodeSelected() {
	dom.Walk(v.root, func(n *html.Node) bool {
		if n.Type == html.ElementNode && dom.HasAttr(n, "data-selected") {
			dom.RemoveAttr(n, "data-selected")
		}
		return true
	})
}

func (v *View) clearGapCursor() {
	for {
		el := dom.FindByAttr(v.root, gapCursorAttr, "true")
		if el == nil {
			return
		}
		dom.Detach(el)
	}
}

// renderGapCursor inserts the visible gap caret element next to its target
// block.
func (v *View) renderGapCursor(sel *model.GapCursor) {
	target := v.blockElement(sel.Block)
	if target == nil || target.Parent == nil {
		return
	}
	el := dom.Elem("div", gapCursorAttr, "true", "class", gapCursorClass, "contenteditable", "false")
	if sel.Side == model.SideBefore {
		target.Parent.InsertBefore(el, target)
	} else if target.NextSibling != nil {
		target.Parent.InsertBefore(el, target.NextSibling)
	} else {
		target.Parent.AppendChild(el)
	}
}

// ReadSelectionFromDOM maps the native selection back to a model selection.
// Returns nil when no mappable position exists (focus on a void, foreign
// node) or while composing; the caller keeps the current model selection.
func (v *View) ReadSelectionFromDOM() model.Selection {
	if v.tracker.Active() {
		return nil
	}
	native := v.host.Selection()
	anchorNode, anchorOffset := native.Anchor()
	focusNode, focusOffset := native.Focus()
	if anchorNode == nil || focusNode == nil {
		return nil
	}
	anchor, okA := v.resolvePoint(anchorNode, anchorOffset)
	head, okH := v.resolvePoint(focusNode, focusOffset)
	if !okA || !okH {
		return nil
	}
	return model.NewTextSelection(anchor, head)
}

// resolvePoint maps a DOM node/offset pair to a model position: ascend to
// the nearest block element, then count widths up to the point.
func (v *View) resolvePoint(node *html.Node, offset int) (model.Position, bool) {
	blockEl := dom.Ancestor(node, func(n *html.Node) bool {
		return dom.HasAttr(n, "data-block-id")
	})
	if blockEl == nil {
		return model.Position{}, false
	}
	if dom.HasAttr(blockEl, "data-void") {
		return model.Position{}, false
	}
	id := model.BlockID(dom.GetAttr(blockEl, "data-block-id"))
	holder := contentHolder(blockEl)
	width, found := widthUpTo(holder, node, offset, blockEl)
	if !found {
		return model.Position{}, false
	}
	return model.Pos(id, width), true
}

// widthUpTo walks the content subtree accumulating widths until it reaches
// the target point.
func widthUpTo(holder, target *html.Node, targetOffset int, blockEl *html.Node) (int, bool) {
	width := 0
	reached := false
	var walk func(n *html.Node) bool
	walk = func(n *html.Node) bool {
		if n == target && n.Type != html.TextNode {
			// Element point: count the widths of the first targetOffset
			// children.
			count := 0
			for c := n.FirstChild; c != nil && count < targetOffset; c = c.NextSibling {
				width += subtreeWidth(c)
				count++
			}
			reached = true
			return false
		}
		switch {
		case n.Type == html.TextNode:
			if n == target {
				if targetOffset > len(n.Data) {
					targetOffset = len(n.Data)
				}
				width += utf8.RuneCountInString(n.Data[:targetOffset])
				reached = true
				return false
			}
			width += utf8.RuneCountInString(n.Data)
		case n.Type == html.ElementNode && n != holder && dom.HasAttr(n, "data-block-id"):
			return false
		case n.Type == html.ElementNode && dom.HasAttr(n, "data-widget"):
			return false
		case n.Type == html.ElementNode && dom.HasAttr(n, "data-inline-node"):
			if containsNode(n, target) {
				// The point sits inside a non-editable atom; snap after it.
				width++
				reached = true
				return false
			}
			width++
			return false
		default:
			for c := n.FirstChild; c != nil; c = c.NextSibling {
				if !walk(c) && reached {
					return false
				}
				if reached {
					return false
				}
			}
		}
		return true
	}
	walk(holder)
	if !reached && target == blockEl {
		return width, true
	}
	return width, reached
}

func containsNode(root, target *html.Node) bool {
	for n := target; n != nil; n = n.Parent {
		if n == root {
			return true
		}
	}
	return false
}

func subtreeWidth(n *html.Node) int {
	switch {
	case n.Type == html.TextNode:
		return utf8.RuneCountInString(n.Data)
	case n.Type == html.ElementNode && dom.HasAttr(n, "data-inline-node"):
		return 1
	case n.Type == html.ElementNode && (dom.HasAttr(n, "data-widget") || dom.HasAttr(n, "data-block-id")):
		return 0
	}
	width := 0
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		width += subtreeWidth(c)
	}
	return width
}
