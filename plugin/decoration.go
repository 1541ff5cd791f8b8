package plugin

import (
	"golang.org/x/net/html"

	"github.com/notectl/notectl-go/model"
)

// InlineDecoration wraps the inline range [From, To) of a block in an
// attribute-bearing span. It splits the view's micro-segments but never the
// document.
type InlineDecoration struct {
	From  int
	To    int
	Attrs map[string]string
}

// NodeDecoration mixes attributes into a block's element.
type NodeDecoration struct {
	Attrs map[string]string
}

// WidgetDecoration inserts a non-editable widget at an inline offset. Side
// works like a position bias: negative renders the widget before content at
// the offset, non-negative after.
type WidgetDecoration struct {
	Offset int
	Side   int
	ToDOM  func() *html.Node
}

// BlockDecorations are the decorations targeting one block.
type BlockDecorations struct {
	Inline  []InlineDecoration
	Node    []NodeDecoration
	Widgets []WidgetDecoration
}

func (bd *BlockDecorations) empty() bool {
	return bd == nil || (len(bd.Inline) == 0 && len(bd.Node) == 0 && len(bd.Widgets) == 0)
}

func (bd *BlockDecorations) eq(other *BlockDecorations) bool {
	if bd.empty() && other.empty() {
		return true
	}
	if bd.empty() || other.empty() {
		return false
	}
	if len(bd.Inline) != len(other.Inline) || len(bd.Node) != len(other.Node) || len(bd.Widgets) != len(other.Widgets) {
		return false
	}
	for i, d := range bd.Inline {
		o := other.Inline[i]
		if d.From != o.From || d.To != o.To || !sameStringMap(d.Attrs, o.Attrs) {
			return false
		}
	}
	for i, d := range bd.Node {
		if !sameStringMap(d.Attrs, other.Node[i].Attrs) {
			return false
		}
	}
	for i, d := range bd.Widgets {
		o := other.Widgets[i]
		// Widget functions have no useful equality; compare placement only.
		if d.Offset != o.Offset || d.Side != o.Side {
			return false
		}
	}
	return true
}

func sameStringMap(a, b map[string]string) bool {
	if len(a) != len(b) {
		return false
	}
	for k, v := range a {
		if b[k] != v {
			return false
		}
	}
	return true
}

// DecorationSet is a collection of decorations keyed by block id. Sets are
// value-built and never mutated after being returned from a plugin.
type DecorationSet struct {
	byBlock map[model.BlockID]*BlockDecorations
}

// NewDecorationSet creates an empty set.
func NewDecorationSet() *DecorationSet {
	return &DecorationSet{byBlock: map[model.BlockID]*BlockDecorations{}}
}

// AddInline adds an inline decoration to a block.
func (ds *DecorationSet) AddInline(block model.BlockID, d InlineDecoration) *DecorationSet {
	bd := ds.forBlock(block)
	bd.Inline = append(bd.Inline, d)
	return ds
}

// AddNode adds a node decoration to a block.
func (ds *DecorationSet) AddNode(block model.BlockID, d NodeDecoration) *DecorationSet {
	bd := ds.forBlock(block)
	bd.Node = append(bd.Node, d)
	return ds
}

// AddWidget adds a widget decoration to a block.
func (ds *DecorationSet) AddWidget(block model.BlockID, d WidgetDecoration) *DecorationSet {
	bd := ds.forBlock(block)
	bd.Widgets = append(bd.Widgets, d)
	return ds
}

func (ds *DecorationSet) forBlock(block model.BlockID) *BlockDecorations {
	bd, ok := ds.byBlock[block]
	if !ok {
		bd = &BlockDecorations{}
		ds.byBlock[block] = bd
	}
	return bd
}

// Block returns the decorations for one block, or nil.
func (ds *DecorationSet) Block(block model.BlockID) *BlockDecorations {
	if ds == nil {
		return nil
	}
	return ds.byBlock[block]
}

// Empty reports whether the set holds no decorations.
func (ds *DecorationSet) Empty() bool {
	if ds == nil {
		return true
	}
	for _, bd := range ds.byBlock {
		if !bd.empty() {
			return false
		}
	}
	return true
}

// Eq compares sets by reference first, then structurally, so the view can
// skip reconciliation when nothing changed.
func (ds *DecorationSet) Eq(other *DecorationSet) bool {
	if ds == other {
		return true
	}
	if ds.Empty() && other.Empty() {
		return true
	}
	if ds.Empty() || other.Empty() {
		return false
	}
	if len(ds.byBlock) != len(other.byBlock) {
		return false
	}
	for id, bd := range ds.byBlock {
		if !bd.eq(other.byBlock[id]) {
			return false
		}
	}
	return true
}

// Merge combines several sets into one. Nil and empty sets are skipped; a
// single non-empty set is returned as is, preserving reference equality for
// the common one-plugin case.
func Merge(sets ...*DecorationSet) *DecorationSet {
	var only *DecorationSet
	count := 0
	for _, ds := range sets {
		if !ds.Empty() {
			only = ds
			count++
		}
	}
	if count == 0 {
		return nil
	}
	if count == 1 {
		return only
	}
	merged := NewDecorationSet()
	for _, ds := range sets {
		if ds.Empty() {
			continue
		}
		for id, bd := range ds.byBlock {
			target := merged.forBlock(id)
			target.Inline = append(target.Inline, bd.Inline...)
			target.Node = append(target.Node, bd.Node...)
			target.Widgets = append(target.Widgets, bd.Widgets...)
		}
	}
	return merged
}
