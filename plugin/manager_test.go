package plugin

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/notectl/notectl-go/model"
)

func TestManagerTopologicalOrder(t *testing.T) {
	var order []string
	mk := func(id string, deps ...string) *Plugin {
		return &Plugin{
			ID:   id,
			Deps: deps,
			Init: func(ctx *Context) error {
				order = append(order, id)
				return nil
			},
		}
	}

	// c depends on b depends on a; declaration order is reversed
	m, err := NewManager(mk("c", "b"), mk("b", "a"), mk("a"))
	require.NoError(t, err)
	require.NoError(t, m.InitAll(func(p *Plugin) *Context { return &Context{} }))
	assert.Equal(t, []string{"a", "b", "c"}, order)
}

func TestManagerKeepsDeclarationOrderAmongPeers(t *testing.T) {
	m, err := NewManager(&Plugin{ID: "x"}, &Plugin{ID: "y"}, &Plugin{ID: "z"})
	require.NoError(t, err)
	var ids []string
	for _, p := range m.Plugins() {
		ids = append(ids, p.ID)
	}
	assert.Equal(t, []string{"x", "y", "z"}, ids)
}

func TestManagerCycleIsConfigError(t *testing.T) {
	_, err := NewManager(
		&Plugin{ID: "a", Deps: []string{"b"}},
		&Plugin{ID: "b", Deps: []string{"a"}},
	)
	require.Error(t, err)
	var cfgErr *model.ConfigError
	assert.ErrorAs(t, err, &cfgErr)
}

func TestManagerMissingDep(t *testing.T) {
	_, err := NewManager(&Plugin{ID: "a", Deps: []string{"ghost"}})
	var cfgErr *model.ConfigError
	assert.ErrorAs(t, err, &cfgErr)
}

func TestManagerDuplicateID(t *testing.T) {
	_, err := NewManager(&Plugin{ID: "a"}, &Plugin{ID: "a"})
	var cfgErr *model.ConfigError
	assert.ErrorAs(t, err, &cfgErr)
}

func TestManagerDestroyReverseOrder(t *testing.T) {
	var destroyed []string
	mk := func(id string, deps ...string) *Plugin {
		return &Plugin{
			ID:      id,
			Deps:    deps,
			Destroy: func() { destroyed = append(destroyed, id) },
		}
	}
	m, err := NewManager(mk("a"), mk("b", "a"))
	require.NoError(t, err)
	require.NoError(t, m.InitAll(func(p *Plugin) *Context { return &Context{} }))
	m.DestroyAll()
	assert.Equal(t, []string{"b", "a"}, destroyed)
}

func TestManagerRegisterSpecs(t *testing.T) {
	reg := model.NewRegistry()
	m, err := NewManager(&Plugin{
		ID:        "callout",
		NodeSpecs: []*model.NodeSpec{{Name: "callout", Content: model.KindBlock, Tag: "aside"}},
		MarkSpecs: []*model.MarkSpec{{Name: "highlight", Rank: 95, Tag: "mark"}},
	})
	require.NoError(t, err)
	require.NoError(t, m.RegisterSpecs(reg))

	_, ok := reg.Node("callout")
	assert.True(t, ok)
	_, ok = reg.Mark("highlight")
	assert.True(t, ok)

	// registration after freeze fails
	reg.Freeze()
	err = reg.RegisterNode(&model.NodeSpec{Name: "late"})
	var cfgErr *model.ConfigError
	assert.ErrorAs(t, err, &cfgErr)
}
