// Package view owns the editable DOM: it renders blocks from their specs,
// patches the tree keyed by block id when the state changes, keeps the
// native selection and the model selection in sync, and exposes the layout
// probes caret navigation needs. All DOM writes funnel through here.
package view

import (
	"golang.org/x/net/html"

	"github.com/notectl/notectl-go/dom"
	"github.com/notectl/notectl-go/model"
	"github.com/notectl/notectl-go/plugin"
	"github.com/notectl/notectl-go/state"
)

// View reconciles the DOM to the editor state. At most one DOM patch runs
// per frame: successive state changes within a frame coalesce.
type View struct {
	host    dom.Host
	root    *html.Node
	state   *state.EditorState
	decos   *plugin.DecorationSet
	tracker *Composition

	rendered      *model.Document
	renderedDecos *plugin.DecorationSet
	framePending  bool

	// Goal column for vertical caret motion: the client X remembered when a
	// run of vertical steps begins.
	goalX    float64
	goalSet  bool
	readonly bool
}

// New creates a view over a fresh contenteditable container and renders the
// initial state into it.
func New(host dom.Host, initial *state.EditorState) *View {
	root := dom.Elem("div",
		"contenteditable", "true",
		"data-editor-content", "true")
	v := &View{
		host:    host,
		root:    root,
		state:   initial,
		tracker: &Composition{},
	}
	v.reconcile()
	return v
}

// Root returns the editable container element.
func (v *View) Root() *html.Node {
	return v.root
}

// State returns the state the view last received.
func (v *View) State() *state.EditorState {
	return v.state
}

// Composition returns the IME tracker.
func (v *View) Composition() *Composition {
	return v.tracker
}

// Host returns the environment bridge.
func (v *View) Host() dom.Host {
	return v.host
}

// SetReadonly flips the contenteditable attribute.
func (v *View) SetReadonly(readonly bool) {
	v.readonly = readonly
	if readonly {
		dom.SetAttr(v.root, "contenteditable", "false")
	} else {
		dom.SetAttr(v.root, "contenteditable", "true")
	}
}

// SetState hands the view a new state and its decorations. The DOM patch is
// scheduled on the host's frame scheduler; multiple calls per frame collapse
// into one patch against the newest state.
func (v *View) SetState(s *state.EditorState, decos *plugin.DecorationSet) {
	v.state = s
	v.decos = decos
	if v.framePending {
		return
	}
	v.framePending = true
	v.host.Scheduler().RequestFrame(func() {
		v.framePending = false
		v.reconcile()
	})
}

// Flush forces the pending patch to run now. Tests and synchronous hosts
// use it; with the headless scheduler SetState is already synchronous.
func (v *View) Flush() {
	v.reconcile()
}

// reconcile patches the DOM to the current state, keyed by block id: absent
// blocks are removed, blocks are reattached in document order, unchanged
// blocks keep their DOM nodes, changed and new blocks are rendered from
// their specs. Blocks under an active
// composition are left alone; touching their DOM would abort the IME.
func (v *View) reconcile() {
	reg := v.state.Registry()
	doc := v.state.Doc
	decosChanged := !v.decos.Eq(v.renderedDecos)

	existing := map[model.BlockID]*html.Node{}
	for c := v.root.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode {
			if id := dom.GetAttr(c, "data-block-id"); id != "" {
				existing[model.BlockID(id)] = c
			}
		}
	}
	prevBlocks := map[model.BlockID]*model.Block{}
	if v.rendered != nil {
		for _, b := range v.rendered.Children {
			prevBlocks[b.ID] = b
		}
	}

	// Detach everything, then reattach in document order, reusing nodes
	// whose block (and decorations) did not change. Node identity is what
	// matters: an unchanged or composing block keeps its exact DOM subtree.
	for _, c := range dom.Children(v.root) {
		dom.Detach(c)
	}
	for _, b := range doc.Children {
		el, reuse := existing[b.ID]
		if reuse {
			unchanged := prevBlocks[b.ID] == b && !decosChanged
			composing := v.tracker.Active() && v.composingWithin(b)
			if !unchanged && !composing {
				el = renderBlock(reg, b, v.decos)
			}
		} else {
			el = renderBlock(reg, b, v.decos)
		}
		v.root.AppendChild(el)
	}

	v.rendered = doc
	v.renderedDecos = v.decos
	v.SyncSelectionToDOM()
}

// composingWithin reports whether the active composition lives inside the
// given top-level block.
func (v *View) composingWithin(b *model.Block) bool {
	if b.ID == v.tracker.Block() {
		return true
	}
	for _, child := range b.Children {
		if v.composingWithin(child) {
			return true
		}
	}
	return false
}

// EndOfTextblock probes whether the caret sits at the edge of its textblock
// in the given direction ("left", "right", "up", "down"). Horizontal edges
// check the offset. Vertical edges measure the caret rect, run a native
// line motion, measure again and restore; without layout support the probe
// falls back to the offset heuristic.
func (v *View) EndOfTextblock(dir string) bool {
	sel, ok := v.state.Selection.(*model.TextSelection)
	if !ok {
		return false
	}
	block := v.state.TextblockAt(sel.Head)
	if block == nil {
		return false
	}
	switch dir {
	case "left":
		return sel.Head.Offset == 0
	case "right":
		return sel.Head.Offset == block.Length()
	case "up", "down":
		if edge, ok := v.probeVertical(dir); ok {
			return edge
		}
		if dir == "up" {
			return sel.Head.Offset == 0
		}
		return sel.Head.Offset == block.Length()
	}
	return false
}

// probeVertical runs the layout probe: move the native caret one line,
// compare rects, restore. ok is false when the environment cannot measure.
func (v *View) probeVertical(dir string) (edge, ok bool) {
	native := v.host.Selection()
	layout := v.host.Layout()
	before, measurable := layout.CaretRect(native)
	if !measurable {
		return false, false
	}
	anchorNode, anchorOffset := native.Anchor()
	focusNode, focusOffset := native.Focus()
	direction := dom.DirBackward
	if dir == "down" {
		direction = dom.DirForward
	}
	if !native.Modify(false, direction, dom.GranularityLine) {
		return false, false
	}
	after, measurable := layout.CaretRect(native)
	native.Select(anchorNode, anchorOffset, focusNode, focusOffset)
	if !measurable {
		return false, false
	}
	// Same vertical band after a line motion means there was no line to move
	// to: the caret is at the block's visual edge.
	return after.Y == before.Y, true
}

// GoalColumn returns the remembered client X for vertical motion.
func (v *View) GoalColumn() (float64, bool) {
	return v.goalX, v.goalSet
}

// SetGoalColumn remembers the client X when vertical motion begins.
func (v *View) SetGoalColumn(x float64) {
	v.goalX = x
	v.goalSet = true
}

// ResetGoalColumn clears the goal column; horizontal motion, typing and
// clicks call this.
func (v *View) ResetGoalColumn() {
	v.goalSet = false
}

var _ plugin.View = (*View)(nil)
