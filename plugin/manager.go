package plugin

import (
	"fmt"

	"github.com/notectl/notectl-go/model"
)

// Manager owns the plugin set of one editor. Initialization order is a
// topological sort over Deps (Kahn's algorithm); a dependency cycle or a
// missing dependency is a fatal ConfigError. Teardown runs in reverse.
type Manager struct {
	byID    map[string]*Plugin
	sorted  []*Plugin
	started []*Plugin
}

// NewManager creates a manager over the given plugins. Duplicate ids fail.
func NewManager(plugins ...*Plugin) (*Manager, error) {
	m := &Manager{byID: map[string]*Plugin{}}
	for _, p := range plugins {
		if p.ID == "" {
			return nil, model.NewConfigError("plugin without an id")
		}
		if _, ok := m.byID[p.ID]; ok {
			return nil, model.NewConfigError("duplicate plugin id %q", p.ID)
		}
		m.byID[p.ID] = p
	}
	sorted, err := sortPlugins(plugins, m.byID)
	if err != nil {
		return nil, err
	}
	m.sorted = sorted
	return m, nil
}

// sortPlugins is Kahn's algorithm over the dependency edges, keeping the
// declaration order stable among unconstrained plugins.
func sortPlugins(plugins []*Plugin, byID map[string]*Plugin) ([]*Plugin, error) {
	indegree := map[string]int{}
	dependents := map[string][]string{}
	for _, p := range plugins {
		indegree[p.ID] += 0
		for _, dep := range p.Deps {
			if _, ok := byID[dep]; !ok {
				return nil, model.NewConfigError("plugin %q depends on unknown plugin %q", p.ID, dep)
			}
			indegree[p.ID]++
			dependents[dep] = append(dependents[dep], p.ID)
		}
	}
	var queue []*Plugin
	for _, p := range plugins {
		if indegree[p.ID] == 0 {
			queue = append(queue, p)
		}
	}
	var sorted []*Plugin
	for len(queue) > 0 {
		p := queue[0]
		queue = queue[1:]
		sorted = append(sorted, p)
		for _, id := range dependents[p.ID] {
			indegree[id]--
			if indegree[id] == 0 {
				queue = append(queue, byID[id])
			}
		}
	}
	if len(sorted) != len(plugins) {
		var stuck []string
		for id, deg := range indegree {
			if deg > 0 {
				stuck = append(stuck, id)
			}
		}
		return nil, model.NewConfigError("cyclic plugin dependencies involving %v", stuck)
	}
	return sorted, nil
}

// Plugins returns the plugins in initialization order.
func (m *Manager) Plugins() []*Plugin {
	return m.sorted
}

// Get looks up a plugin by id.
func (m *Manager) Get(id string) (*Plugin, bool) {
	p, ok := m.byID[id]
	return p, ok
}

// RegisterSpecs contributes every plugin's node and mark specs to the
// registry. Called before the registry freezes.
func (m *Manager) RegisterSpecs(reg *model.Registry) error {
	for _, p := range m.sorted {
		for _, spec := range p.NodeSpecs {
			if err := reg.RegisterNode(spec); err != nil {
				return err
			}
		}
		for _, spec := range p.MarkSpecs {
			if err := reg.RegisterMark(spec); err != nil {
				return err
			}
		}
	}
	return nil
}

// InitAll runs phase one: every plugin's Init in topological order. The ctx
// factory builds each plugin's context. A failing init stops the phase and
// reports which plugin failed.
func (m *Manager) InitAll(ctx func(p *Plugin) *Context) error {
	for _, p := range m.sorted {
		if p.Init != nil {
			if err := p.Init(ctx(p)); err != nil {
				return fmt.Errorf("plugin %q init: %w", p.ID, err)
			}
		}
		m.started = append(m.started, p)
	}
	return nil
}

// BeforeReadyAll runs phase three, after the view exists.
func (m *Manager) BeforeReadyAll(ctx func(p *Plugin) *Context) error {
	for _, p := range m.sorted {
		if p.OnBeforeReady != nil {
			if err := p.OnBeforeReady(ctx(p)); err != nil {
				return fmt.Errorf("plugin %q before-ready: %w", p.ID, err)
			}
		}
	}
	return nil
}

// ReadyAll runs phase four; afterwards the editor emits ready.
func (m *Manager) ReadyAll(ctx func(p *Plugin) *Context) error {
	for _, p := range m.sorted {
		if p.OnReady != nil {
			if err := p.OnReady(ctx(p)); err != nil {
				return fmt.Errorf("plugin %q ready: %w", p.ID, err)
			}
		}
	}
	return nil
}

// DestroyAll tears plugins down in reverse of the order they started.
func (m *Manager) DestroyAll() {
	for i := len(m.started) - 1; i >= 0; i-- {
		if m.started[i].Destroy != nil {
			m.started[i].Destroy()
		}
	}
	m.started = nil
}
