package state_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/notectl/notectl-go/model"
	. "github.com/notectl/notectl-go/state"
	"github.com/notectl/notectl-go/test/builder"
	"github.com/notectl/notectl-go/transform"
)

var (
	reg = builder.Reg
	doc = builder.Doc
	p   = builder.P
	hr  = builder.Hr
)

func newState(d *model.Document) *EditorState {
	return NewEditorState(&Config{Registry: reg}, d, nil)
}

func TestApplyInsertText(t *testing.T) {
	s := newState(doc(p("Hello")).Doc)
	block := s.Doc.Children[0].ID

	tr := s.NewTransaction(transform.OriginUser)
	tr.InsertText(block, 5, 5, "!", nil)
	next, err := s.Apply(tr)
	require.NoError(t, err)

	assert.Equal(t, "Hello!", model.BlockText(reg, next.Doc.Children[0]))

	// versions increase monotonically; the old state is untouched
	assert.Equal(t, s.Doc.Version+1, next.Doc.Version)
	assert.Equal(t, "Hello", model.BlockText(reg, s.Doc.Children[0]))
}

func TestApplyMapsSelection(t *testing.T) {
	s := newState(doc(p("Hello")).Doc)
	block := s.Doc.Children[0].ID
	s, err := s.Apply(s.NewTransaction(transform.OriginAPI).SetSelection(model.NewCursor(model.Pos(block, 3))))
	require.NoError(t, err)

	// an insertion before the caret pushes it right
	tr := s.NewTransaction(transform.OriginUser)
	tr.InsertText(block, 0, 0, "xx", nil)
	next, err := s.Apply(tr)
	require.NoError(t, err)
	sel := next.Selection.(*model.TextSelection)
	assert.Equal(t, 5, sel.Head.Offset)
}

func TestApplyRepairsDeletedSelectionTarget(t *testing.T) {
	s := newState(doc(p("one"), p("two")).Doc)
	second := s.Doc.Children[1].ID
	s, err := s.Apply(s.NewTransaction(transform.OriginAPI).SetSelection(model.NewCursor(model.Pos(second, 2))))
	require.NoError(t, err)

	// deleting the selected block falls back to the nearest textblock
	tr := s.NewTransaction(transform.OriginUser)
	tr.RemoveBlocks("", 1, 1)
	next, err := s.Apply(tr)
	require.NoError(t, err)
	sel := next.Selection.(*model.TextSelection)
	assert.Equal(t, s.Doc.Children[0].ID, sel.Head.Block)
}

func TestApplyPoisonedTransaction(t *testing.T) {
	s := newState(doc(p("x")).Doc)
	tr := s.NewTransaction(transform.OriginUser)
	tr.DeleteRange(s.Doc.Children[0].ID, 0, 99)

	// the whole transaction is dropped and the old state returned
	next, err := s.Apply(tr)
	assert.Error(t, err)
	assert.Same(t, s, next)
}

func TestApplyClearsStoredMarksOnDocChange(t *testing.T) {
	s := newState(doc(p("x")).Doc)
	block := s.Doc.Children[0].ID
	s, err := s.Apply(s.NewTransaction(transform.OriginAPI).SetStoredMarks([]*model.Mark{model.NewMark("strong", nil)}))
	require.NoError(t, err)
	require.NotNil(t, s.StoredMarks)

	tr := s.NewTransaction(transform.OriginUser)
	tr.InsertText(block, 0, 0, "y", nil)
	next, err := s.Apply(tr)
	require.NoError(t, err)
	assert.Nil(t, next.StoredMarks)
}

func TestPluginReducer(t *testing.T) {
	count := func(prev interface{}, tr *transform.Transaction, next *EditorState) interface{} {
		n, _ := prev.(int)
		return n + len(tr.Steps)
	}
	cfg := &Config{Registry: reg, Reducers: map[string]PluginReducer{"counter": count}}
	s := NewEditorState(cfg, doc(p("x")).Doc, nil)
	block := s.Doc.Children[0].ID

	tr := s.NewTransaction(transform.OriginUser)
	tr.InsertText(block, 0, 0, "a", nil)
	next, err := s.Apply(tr)
	require.NoError(t, err)
	assert.Equal(t, 1, next.Plugins["counter"])

	// plugin state accumulates across applies
	tr = next.NewTransaction(transform.OriginUser)
	tr.InsertText(block, 0, 0, "b", nil)
	third, err := next.Apply(tr)
	require.NoError(t, err)
	assert.Equal(t, 2, third.Plugins["counter"])
}

func TestNewStateRepairsNilSelection(t *testing.T) {
	s := newState(doc(hr(), p("text")).Doc)

	// the initial selection lands in the first textblock
	sel, ok := s.Selection.(*model.TextSelection)
	require.True(t, ok)
	assert.Equal(t, s.Doc.Children[1].ID, sel.Head.Block)
}
