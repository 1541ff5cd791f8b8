package plugin

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/notectl/notectl-go/model"
	"github.com/notectl/notectl-go/state"
	"github.com/notectl/notectl-go/transform"
)

func middlewareState(t *testing.T) *state.EditorState {
	t.Helper()
	reg := model.NewRegistry()
	require.NoError(t, reg.RegisterNode(&model.NodeSpec{Name: "paragraph", Content: model.KindInline, Tag: "p"}))
	para, err := model.NewBlock(reg, "paragraph", nil, nil, nil)
	require.NoError(t, err)
	return state.NewEditorState(&state.Config{Registry: reg}, model.NewDocument(para), nil)
}

func TestChainRunsInOrder(t *testing.T) {
	s := middlewareState(t)
	chain := NewChain()
	var order []string
	chain.Append(func(tr *transform.Transaction, s *state.EditorState, next func(*transform.Transaction)) {
		order = append(order, "first")
		next(tr)
	})
	chain.Append(func(tr *transform.Transaction, s *state.EditorState, next func(*transform.Transaction)) {
		order = append(order, "second")
		next(tr)
	})

	committed := false
	chain.Run(s.NewTransaction(transform.OriginUser), s, func(tr *transform.Transaction) {
		committed = true
	})
	assert.True(t, committed)
	assert.Equal(t, []string{"first", "second"}, order)
}

func TestChainDropsWhenNextNotCalled(t *testing.T) {
	s := middlewareState(t)
	chain := NewChain()
	chain.Append(func(tr *transform.Transaction, s *state.EditorState, next func(*transform.Transaction)) {
		// swallow the transaction
	})
	chain.Run(s.NewTransaction(transform.OriginUser), s, func(tr *transform.Transaction) {
		t.Fatal("dropped transaction must not commit")
	})
}

func TestChainRewrite(t *testing.T) {
	s := middlewareState(t)
	chain := NewChain()
	chain.Append(func(tr *transform.Transaction, s *state.EditorState, next func(*transform.Transaction)) {
		rewritten := s.NewTransaction(transform.OriginCommand)
		next(rewritten)
	})
	var got transform.Origin
	chain.Run(s.NewTransaction(transform.OriginUser), s, func(tr *transform.Transaction) {
		got = tr.Origin
	})
	assert.Equal(t, transform.OriginCommand, got)
}

func TestDecorationSetEquality(t *testing.T) {
	block := model.BlockID("b1")

	a := NewDecorationSet().AddInline(block, InlineDecoration{From: 1, To: 3, Attrs: map[string]string{"class": "hl"}})
	b := NewDecorationSet().AddInline(block, InlineDecoration{From: 1, To: 3, Attrs: map[string]string{"class": "hl"}})
	c := NewDecorationSet().AddInline(block, InlineDecoration{From: 1, To: 4, Attrs: map[string]string{"class": "hl"}})

	// reference equality short-circuits
	assert.True(t, a.Eq(a))

	// structural equality compares contents
	assert.True(t, a.Eq(b))
	assert.False(t, a.Eq(c))

	// nil and empty sets compare equal
	var nilSet *DecorationSet
	assert.True(t, nilSet.Eq(NewDecorationSet()))
	assert.False(t, nilSet.Eq(a))
}

func TestDecorationMerge(t *testing.T) {
	block := model.BlockID("b1")
	a := NewDecorationSet().AddInline(block, InlineDecoration{From: 0, To: 1})
	b := NewDecorationSet().AddNode(block, NodeDecoration{Attrs: map[string]string{"class": "x"}})

	// a single non-empty set is returned by reference
	assert.Equal(t, a, Merge(nil, a))

	merged := Merge(a, b)
	bd := merged.Block(block)
	require.NotNil(t, bd)
	assert.Len(t, bd.Inline, 1)
	assert.Len(t, bd.Node, 1)
}
