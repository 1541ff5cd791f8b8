package state

import (
	"time"

	"github.com/notectl/notectl-go/model"
	"github.com/notectl/notectl-go/transform"
)

// DefaultGroupingWindow is how close together two user edits must land to
// coalesce into one undo entry.
const DefaultGroupingWindow = 500 * time.Millisecond

// DefaultDepth is the default cap on stored undo entries.
const DefaultDepth = 100

// HistoryOptions tune grouping and depth.
type HistoryOptions struct {
	Depth          int
	GroupingWindow time.Duration
}

func (o HistoryOptions) withDefaults() HistoryOptions {
	if o.Depth <= 0 {
		o.Depth = DefaultDepth
	}
	if o.GroupingWindow <= 0 {
		o.GroupingWindow = DefaultGroupingWindow
	}
	return o
}

// entry is one undoable edit: the inverse steps that roll it back (newest
// first) and the selection to restore.
type entry struct {
	inverses  []transform.Step
	selection model.Selection
	time      time.Time
	kind      string
}

// History keeps two stacks of entries holding inverse steps, not document
// references, so undo stays stable across structural sharing.
type History struct {
	opts   HistoryOptions
	done   []*entry
	undone []*entry
}

// NewHistory creates a history with the given options.
func NewHistory(opts HistoryOptions) *History {
	return &History{opts: opts.withDefaults()}
}

// SetDepth adjusts the depth cap at runtime, trimming the oldest entries if
// needed.
func (h *History) SetDepth(depth int) {
	if depth <= 0 {
		depth = DefaultDepth
	}
	h.opts.Depth = depth
	if len(h.done) > depth {
		h.done = h.done[len(h.done)-depth:]
	}
}

// CanUndo reports whether an undo entry is available.
func (h *History) CanUndo() bool { return len(h.done) > 0 }

// CanRedo reports whether a redo entry is available.
func (h *History) CanRedo() bool { return len(h.undone) > 0 }

// Clear drops both stacks.
func (h *History) Clear() {
	h.done = nil
	h.undone = nil
}

// recorded tells whether a transaction belongs in the history.
func recorded(tr *transform.Transaction) bool {
	if !tr.DocChanged() {
		return false
	}
	switch tr.Origin {
	case transform.OriginUser, transform.OriginIME, transform.OriginPaste, transform.OriginCommand:
		return true
	case transform.OriginHistory:
		return false
	default:
		return tr.AddToHistory
	}
}

// kindOf classifies a transaction for grouping: plain insertions group with
// insertions, deletions with deletions, anything else does not group.
func kindOf(tr *transform.Transaction) string {
	kind := ""
	for _, s := range tr.Steps {
		repl, ok := s.(*transform.ReplaceStep)
		if !ok {
			return "other"
		}
		var stepKind string
		switch {
		case repl.From == repl.To && len(repl.Slice) > 0:
			stepKind = "insert"
		case len(repl.Slice) == 0:
			stepKind = "delete"
		default:
			stepKind = "other"
		}
		if kind == "" {
			kind = stepKind
		} else if kind != stepKind {
			return "other"
		}
	}
	if kind == "" {
		return "other"
	}
	return kind
}

// Record folds a committed transaction into the history. old is the state
// the transaction was applied to.
func (h *History) Record(old *EditorState, tr *transform.Transaction) {
	if !recorded(tr) {
		return
	}
	inverses := invertSteps(old, tr)
	if len(inverses) == 0 {
		return
	}
	h.undone = nil
	kind := kindOf(tr)
	if tr.Origin == transform.OriginUser && len(h.done) > 0 {
		last := h.done[len(h.done)-1]
		if kind != "other" && last.kind == kind && tr.Time.Sub(last.time) <= h.opts.GroupingWindow {
			// Later steps undo first, so the new inverses go in front.
			last.inverses = append(inverses, last.inverses...)
			last.time = tr.Time
			return
		}
	}
	h.done = append(h.done, &entry{
		inverses:  inverses,
		selection: old.Selection,
		time:      tr.Time,
		kind:      kind,
	})
	if len(h.done) > h.opts.Depth {
		h.done = h.done[len(h.done)-h.opts.Depth:]
	}
}

// invertSteps replays the transaction's steps over the old document to
// compute their inverses, returned newest first.
func invertSteps(old *EditorState, tr *transform.Transaction) []transform.Step {
	reg := old.Config.Registry
	doc := tr.Before
	inverses := make([]transform.Step, 0, len(tr.Steps))
	for _, s := range tr.Steps {
		inv := s.Invert(doc)
		result := s.Apply(reg, doc)
		if result.Failed != "" || inv == nil {
			return nil
		}
		doc = result.Doc
		inverses = append([]transform.Step{inv}, inverses...)
	}
	return inverses
}

// Undo builds the transaction that rolls back the newest entry, moving it to
// the redo stack. Returns nil when there is nothing to undo or the entry no
// longer applies.
func (h *History) Undo(s *EditorState) *transform.Transaction {
	if len(h.done) == 0 {
		return nil
	}
	e := h.done[len(h.done)-1]
	tr, redo := h.replay(s, e)
	if tr == nil {
		h.done = h.done[:len(h.done)-1]
		return nil
	}
	h.done = h.done[:len(h.done)-1]
	h.undone = append(h.undone, redo)
	return tr
}

// Redo builds the transaction that re-applies the newest undone entry,
// moving it back to the done stack.
func (h *History) Redo(s *EditorState) *transform.Transaction {
	if len(h.undone) == 0 {
		return nil
	}
	e := h.undone[len(h.undone)-1]
	tr, back := h.replay(s, e)
	if tr == nil {
		h.undone = h.undone[:len(h.undone)-1]
		return nil
	}
	h.undone = h.undone[:len(h.undone)-1]
	h.done = append(h.done, back)
	return tr
}

// replay applies an entry's steps to the current state, producing the
// transaction and the mirror entry for the opposite stack.
func (h *History) replay(s *EditorState, e *entry) (*transform.Transaction, *entry) {
	tr := s.NewTransaction(transform.OriginHistory)
	mirror := &entry{selection: s.Selection, time: e.time, kind: e.kind}
	doc := s.Doc
	for _, step := range e.inverses {
		inv := step.Invert(doc)
		tr.Step(step)
		if tr.Err() != nil {
			return nil, nil
		}
		doc = tr.Doc
		mirror.inverses = append([]transform.Step{inv}, mirror.inverses...)
	}
	tr.SetSelection(e.selection)
	return tr, mirror
}
