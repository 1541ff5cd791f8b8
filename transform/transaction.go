package transform

import (
	"errors"
	"time"

	"github.com/notectl/notectl-go/model"
)

// Origin tags a transaction with what produced it. Plugins and middleware
// branch on it; the readonly middleware and the history both key off it.
type Origin string

const (
	OriginUser    Origin = "user"
	OriginPaste   Origin = "paste"
	OriginCommand Origin = "command"
	OriginAPI     Origin = "api"
	OriginIME     Origin = "ime"
	OriginHistory Origin = "history"
)

// Transaction is a builder that accumulates steps against a base document.
// Steps apply eagerly: Doc always reflects every step added so far, and
// Mapping composes their position maps. A failing step poisons the
// transaction; Err reports the first failure and dispatch drops the whole
// transaction.
type Transaction struct {
	Before  *model.Document
	Doc     *model.Document
	Steps   []Step
	Mapping *Mapping
	Origin  Origin
	Time    time.Time
	Meta    map[string]interface{}

	// Bias is the side selections associate with at change boundaries.
	Bias int

	// AddToHistory forces recording of non-user origins.
	AddToHistory bool

	selection    model.Selection
	selectionSet bool
	storedMarks  []*model.Mark
	marksSet     bool

	reg *model.Registry
	err error
}

// NewTransaction starts a transaction against a document.
func NewTransaction(reg *model.Registry, doc *model.Document, origin Origin) *Transaction {
	return &Transaction{
		Before:  doc,
		Doc:     doc,
		Mapping: NewMapping(),
		Origin:  origin,
		Time:    time.Now(),
		Bias:    1,
		reg:     reg,
	}
}

// Err returns the first step failure, or nil.
func (tr *Transaction) Err() error {
	return tr.err
}

// DocChanged reports whether any step changed the document.
func (tr *Transaction) DocChanged() bool {
	return len(tr.Steps) > 0
}

// Step applies a step to the transaction's current document. On failure the
// transaction is poisoned and subsequent steps are ignored.
func (tr *Transaction) Step(s Step) *Transaction {
	if tr.err != nil {
		return tr
	}
	result := s.Apply(tr.reg, tr.Doc)
	if result.Failed != "" {
		tr.err = model.NewValidationError("%s", result.Failed)
		return tr
	}
	tr.Doc = result.Doc
	tr.Steps = append(tr.Steps, s)
	tr.Mapping.AppendMap(s.StepMap())
	return tr
}

// SetSelection records the selection the state should carry after this
// transaction, in post-step coordinates.
func (tr *Transaction) SetSelection(sel model.Selection) *Transaction {
	tr.selection = sel
	tr.selectionSet = true
	return tr
}

// SelectionSet reports whether an explicit selection was recorded, and
// returns it.
func (tr *Transaction) SelectionSet() (model.Selection, bool) {
	return tr.selection, tr.selectionSet
}

// SetStoredMarks records the marks the next typed text should inherit.
func (tr *Transaction) SetStoredMarks(marks []*model.Mark) *Transaction {
	tr.storedMarks = marks
	tr.marksSet = true
	return tr
}

// StoredMarksSet reports whether stored marks were recorded.
func (tr *Transaction) StoredMarksSet() ([]*model.Mark, bool) {
	return tr.storedMarks, tr.marksSet
}

// SetMeta attaches plugin-facing metadata to the transaction.
func (tr *Transaction) SetMeta(key string, value interface{}) *Transaction {
	if tr.Meta == nil {
		tr.Meta = map[string]interface{}{}
	}
	tr.Meta[key] = value
	return tr
}

// GetMeta reads transaction metadata.
func (tr *Transaction) GetMeta(key string) interface{} {
	if tr.Meta == nil {
		return nil
	}
	return tr.Meta[key]
}

// InsertText replaces the range [from, to) of a block with text carrying
// the given marks.
func (tr *Transaction) InsertText(block model.BlockID, from, to int, text string, marks []*model.Mark) *Transaction {
	var slice []model.InlineChild
	if text != "" {
		slice = []model.InlineChild{model.NewTextRun(text, marks)}
	}
	return tr.Step(NewReplaceStep(block, from, to, slice))
}

// InsertInline inserts an inline node at an offset.
func (tr *Transaction) InsertInline(block model.BlockID, offset int, node *model.InlineNode) *Transaction {
	return tr.Step(NewReplaceStep(block, offset, offset, []model.InlineChild{node}))
}

// DeleteRange removes the inline range [from, to) of a block.
func (tr *Transaction) DeleteRange(block model.BlockID, from, to int) *Transaction {
	if from == to {
		return tr
	}
	return tr.Step(NewReplaceStep(block, from, to, nil))
}

// AddMark applies a mark across an inline range.
func (tr *Transaction) AddMark(block model.BlockID, from, to int, mark *model.Mark) *Transaction {
	if from == to {
		return tr
	}
	return tr.Step(NewAddMarkStep(block, from, to, mark))
}

// RemoveMark clears a mark across an inline range.
func (tr *Transaction) RemoveMark(block model.BlockID, from, to int, mark *model.Mark) *Transaction {
	if from == to {
		return tr
	}
	return tr.Step(NewRemoveMarkStep(block, from, to, mark))
}

// SetAttrs merges attributes into a block; nil values clear.
func (tr *Transaction) SetAttrs(block model.BlockID, attrs map[string]interface{}) *Transaction {
	return tr.Step(NewAttrStep(block, attrs))
}

// Split cuts a textblock at an offset. The new block keeps the original's
// markup unless a type is given.
func (tr *Transaction) Split(block model.BlockID, offset int, typ string, attrs map[string]interface{}) *Transaction {
	return tr.Step(NewSplitBlockStep(block, offset, typ, attrs))
}

// Join merges a textblock with its following sibling.
func (tr *Transaction) Join(block model.BlockID) *Transaction {
	if tr.err != nil {
		return tr
	}
	step, ok := NewJoinBlockStep(tr.Doc, block)
	if !ok {
		tr.err = model.NewValidationError("no sibling to join with")
		return tr
	}
	return tr.Step(step)
}

// InsertBlocks inserts blocks at an index under a parent ("" = top level).
func (tr *Transaction) InsertBlocks(parent model.BlockID, index int, blocks ...*model.Block) *Transaction {
	return tr.Step(NewReplaceBlockStep(parent, index, 0, blocks))
}

// RemoveBlocks removes a range of sibling blocks.
func (tr *Transaction) RemoveBlocks(parent model.BlockID, index, count int) *Transaction {
	return tr.Step(NewReplaceBlockStep(parent, index, count, nil))
}

// ReplaceBlocks swaps a range of sibling blocks for new ones.
func (tr *Transaction) ReplaceBlocks(parent model.BlockID, index, count int, blocks ...*model.Block) *Transaction {
	return tr.Step(NewReplaceBlockStep(parent, index, count, blocks))
}

// ErrPoisoned is returned by Commit-style helpers when a transaction has a
// failed step.
var ErrPoisoned = errors.New("transaction has a failed step")
