package input

import (
	"log/slog"
	"unicode/utf8"

	"github.com/notectl/notectl-go/dom"
	"github.com/notectl/notectl-go/model"
	"github.com/notectl/notectl-go/plugin"
	"github.com/notectl/notectl-go/state"
	"github.com/notectl/notectl-go/transform"
	"github.com/notectl/notectl-go/view"
)

// Handler binds the input pipeline to a view: beforeinput routing, keydown
// dispatch through the keymap, the composition pipeline and clipboard
// handling. Every handled event becomes a transaction pushed through the
// editor's dispatch; a true return means the environment should call
// preventDefault.
type Handler struct {
	view     *view.View
	keymap   *plugin.Keymap
	dispatch func(tr *transform.Transaction) error
	undo     func() bool
	redo     func() bool
	editorID string
	log      *slog.Logger

	dragOrigin model.Selection
}

// NewHandler wires a handler to a view and dispatch pipeline. undo and redo
// run the editor's history; editorID fingerprints internal drags.
func NewHandler(v *view.View, km *plugin.Keymap, dispatch func(*transform.Transaction) error, undo, redo func() bool, editorID string, log *slog.Logger) *Handler {
	if log == nil {
		log = slog.Default()
	}
	return &Handler{view: v, keymap: km, dispatch: dispatch, undo: undo, redo: redo, editorID: editorID, log: log}
}

func (h *Handler) state() *state.EditorState {
	return h.view.State()
}

func (h *Handler) env() *plugin.Env {
	return &plugin.Env{State: h.state(), Dispatch: h.dispatch, View: h.view}
}

// send dispatches a transaction when the command produced one. Nil commands
// report unhandled.
func (h *Handler) send(tr *transform.Transaction) bool {
	if tr == nil {
		return false
	}
	if err := h.dispatch(tr); err != nil {
		h.log.Debug("transaction dropped", "error", err)
	}
	return true
}

// HandleBeforeInput routes the primary input channel. insertCompositionText
// is deliberately unhandled: during composition the IME owns the DOM and the
// commit happens on compositionend.
func (h *Handler) HandleBeforeInput(ev dom.InputEvent) bool {
	s := h.state()
	switch ev.Type {
	case dom.InsertText:
		if h.view.Composition().Active() {
			return false
		}
		h.view.ResetGoalColumn()
		return h.send(InsertText(s, ev.Data))
	case dom.InsertParagraph:
		h.view.ResetGoalColumn()
		return h.send(SplitBlock(s))
	case dom.InsertLineBreak:
		h.view.ResetGoalColumn()
		return h.send(InsertHardBreak(s))
	case dom.DeleteContentBackward:
		h.view.ResetGoalColumn()
		return h.send(DeleteBackward(s))
	case dom.DeleteContentForward:
		h.view.ResetGoalColumn()
		return h.send(DeleteForward(s))
	case dom.DeleteWordBackward:
		h.view.ResetGoalColumn()
		return h.send(DeleteWord(s, false))
	case dom.DeleteWordForward:
		h.view.ResetGoalColumn()
		return h.send(DeleteWord(s, true))
	case dom.InsertFromPaste:
		return h.HandlePaste(ev.Transfer)
	case dom.InsertFromDrop:
		return h.HandleDrop(ev.Transfer)
	case dom.InsertCompositionText:
		return false
	case dom.HistoryUndo:
		return h.undo()
	case dom.HistoryRedo:
		return h.redo()
	}
	return false
}

// HandleKeyDown runs three-bucket keymap dispatch. During composition only
// context handlers may run; navigation and default keymaps ignore the key.
func (h *Handler) HandleKeyDown(ev dom.KeyEvent) bool {
	key := plugin.KeyName(ev)
	if h.view.Composition().Active() {
		return h.keymap.DispatchUpTo(key, h.env(), plugin.PriorityContext)
	}
	return h.keymap.Dispatch(key, h.env())
}

// HandleCompositionStart records the composition range: the current
// selection within its textblock.
func (h *Handler) HandleCompositionStart() {
	s := h.state()
	sel, ok := s.Selection.(*model.TextSelection)
	if !ok {
		return
	}
	from, to := selectionRange(s, sel)
	if from.Block != to.Block {
		// Compositions over cross-block selections collapse to the head.
		from, to = sel.Head, sel.Head
	}
	h.view.Composition().Start(from.Block, from.Offset, to.Offset)
}

// HandleCompositionUpdate is a no-op on the model: the environment mutates
// the DOM freely until the composition commits.
func (h *Handler) HandleCompositionUpdate(ev dom.CompositionEvent) {}

// HandleCompositionEnd commits the composed text as one ime-origin
// transaction replacing the composition range, then clears the tracker so
// reconciliation of the block resumes.
func (h *Handler) HandleCompositionEnd(ev dom.CompositionEvent) {
	tracker := h.view.Composition()
	if !tracker.Active() {
		return
	}
	block := tracker.Block()
	from, to := tracker.Range()
	tracker.End()
	s := h.state()
	blockNode := s.TextblockAt(model.Pos(block, 0))
	if blockNode == nil {
		return
	}
	marks := typedMarks(s, model.Pos(block, from))
	tr := s.NewTransaction(transform.OriginIME)
	tr.InsertText(block, from, to, ev.Data, marks)
	if tr.Err() != nil {
		return
	}
	tr.SetSelection(model.NewCursor(model.Pos(block, from+utf8.RuneCountInString(ev.Data))))
	h.send(tr)
}

// HandlePaste reads the transfer (falling back to the host clipboard) and
// dispatches the paste. Clipboard read failures degrade to the environment's
// default behavior.
func (h *Handler) HandlePaste(t *dom.DataTransfer) bool {
	if t == nil {
		read, err := h.view.Host().Clipboard().Read()
		if err != nil {
			h.log.Debug("clipboard unavailable", "error", err)
			return false
		}
		t = read
	}
	return h.send(Paste(h.state(), t))
}

// HandleCopy fills the transfer with the selected content.
func (h *Handler) HandleCopy(t *dom.DataTransfer) bool {
	blocks := selectedBlocks(h.state())
	if len(blocks) == 0 {
		return false
	}
	EncodeTransfer(h.state(), t, blocks)
	t.SetData(SourceMIME, h.editorID)
	return true
}

// HandleCut is copy plus deletion of the selection.
func (h *Handler) HandleCut(t *dom.DataTransfer) bool {
	if !h.HandleCopy(t) {
		return false
	}
	return h.send(DeleteBackward(h.state()))
}

// HandleDragStart snapshots the dragged selection and fills the transfer,
// marking it as originating here so a drop becomes a move.
func (h *Handler) HandleDragStart(t *dom.DataTransfer) {
	s := h.state()
	blocks := selectedBlocks(s)
	if len(blocks) == 0 {
		return
	}
	EncodeTransfer(s, t, blocks)
	t.SetData(SourceMIME, h.editorID)
	h.dragOrigin = s.Selection
}

// HandleDrop inserts at the drop selection; internal drags move instead of
// copy.
func (h *Handler) HandleDrop(t *dom.DataTransfer) bool {
	if t == nil {
		return false
	}
	origin := h.dragOrigin
	h.dragOrigin = nil
	return h.send(Drop(h.state(), t, origin, h.editorID))
}

// HandleClick maps a pointer press on a block to a selection: voids become
// node selections; textblock clicks leave the DOM selection to the
// environment and the read-back sync.
func (h *Handler) HandleClick(block model.BlockID) bool {
	s := h.state()
	h.view.ResetGoalColumn()
	found, ok := model.FindBlock(s.Doc, block)
	if !ok {
		return false
	}
	spec, ok := s.Registry().Node(found.Block.Type)
	if !ok || !spec.Void {
		return false
	}
	return h.send(selectionTransaction(s, model.NewNodeSelection(block, found.Path)))
}

// HandleSelectionChange reads the DOM selection back into the model. No
// mappable position keeps the current model selection.
func (h *Handler) HandleSelectionChange() {
	sel := h.view.ReadSelectionFromDOM()
	if sel == nil {
		return
	}
	h.send(selectionTransaction(h.state(), sel))
}

// selectedBlocks extracts the content the selection covers, as blocks.
func selectedBlocks(s *state.EditorState) []*model.Block {
	switch sel := s.Selection.(type) {
	case *model.NodeSelection:
		if found, ok := model.FindBlock(s.Doc, sel.Node); ok {
			return []*model.Block{found.Block}
		}
	case *model.TextSelection:
		if sel.Collapsed() {
			return nil
		}
		from, to := selectionRange(s, sel)
		if from.Block == to.Block {
			block := s.TextblockAt(from)
			if block == nil {
				return nil
			}
			slice := model.SliceInline(block.Inline, from.Offset, to.Offset)
			clone := block.WithInline(slice)
			return []*model.Block{model.CloneWithNewIDs(clone)}
		}
		var blocks []*model.Block
		for _, seg := range rangeSegments(s, from, to) {
			block := s.TextblockAt(model.Pos(seg.block, 0))
			if block == nil {
				continue
			}
			slice := model.SliceInline(block.Inline, seg.from, seg.to)
			blocks = append(blocks, model.CloneWithNewIDs(block.WithInline(slice)))
		}
		return blocks
	}
	return nil
}
