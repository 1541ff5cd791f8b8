// Package model implements the editor's document model: a typed block tree
// with stable identities, inline runs carrying marks, positions measured in
// inline-content width, selections, and the schema registry that constrains
// all of it.
//
// Documents, blocks and inline children are persistent data structures.
// Instead of changing them, you create new ones with the content you want;
// old states keep pointing at the old document shape. Structure is shared
// between old and new values as much as possible, which a tree shape like
// this (without back pointers) makes easy.
package model

import (
	"golang.org/x/net/html"
)

// ContentKind describes what a node type may contain.
type ContentKind int

const (
	// KindInline nodes (textblocks) hold a sequence of inline children.
	KindInline ContentKind = iota
	// KindBlock nodes (containers) hold a sequence of child blocks.
	KindBlock
	// KindEmpty nodes hold nothing. Void blocks and inline atoms use this.
	KindEmpty
)

// AttrSpec describes a single attribute on a node or mark type. Attributes
// without a default are required when creating the node.
type AttrSpec struct {
	// The default value for this attribute, used when no explicit value is
	// provided.
	Default interface{}
	// HasDefault distinguishes "defaults to nil" from "required".
	HasDefault bool
}

// NodeSpec describes a node type: its content kind, the children and marks
// it allows, its attributes, and how it maps to and from the DOM. Specs are
// data with function-valued fields, not a class hierarchy.
type NodeSpec struct {
	// Name is the type tag blocks of this spec carry, e.g. "paragraph".
	Name string

	// Content is the kind of children this node holds.
	Content ContentKind

	// Allow lists the child block types permitted in a KindBlock node. Nil
	// allows any block type; an empty non-nil slice allows none.
	Allow []string

	// Marks lists the mark types permitted on inline content. Nil allows
	// every mark the registry knows; an empty non-nil slice allows none.
	Marks []string

	// Attrs declares the attributes blocks of this type carry.
	Attrs map[string]*AttrSpec

	// Inline marks this spec as an inline atom (hard break, mention) rather
	// than a block. Inline specs always have KindEmpty content and width 1.
	Inline bool

	// Void blocks have no editable inline content (image, horizontal rule).
	Void bool

	// Isolating blocks do not let ordinary navigation cross their outer
	// boundary (table cell).
	Isolating bool

	// Atom blocks cannot be split.
	Atom bool

	// Tag is the DOM tag the default renderer emits for this type.
	Tag string

	// ParseTags are additional DOM tags recognized as this type on input.
	ParseTags []string

	// TextEquivalent is what an inline atom contributes to the plain-text
	// flattening of its parent ("\n" for hard breaks).
	TextEquivalent string

	// ToDOM overrides the default block rendering.
	ToDOM func(b *Block) *html.Node

	// ToDOMInline overrides the default inline-atom rendering.
	ToDOMInline func(n *InlineNode) *html.Node
}

// IsTextblock reports whether blocks of this type hold inline content.
func (ns *NodeSpec) IsTextblock() bool {
	return !ns.Inline && ns.Content == KindInline
}

// MarkSpec describes a mark type. Rank orders nested mark elements in the
// DOM: lower rank sits closer to the text.
type MarkSpec struct {
	// Name is the type tag marks of this spec carry, e.g. "strong".
	Name string

	// Attrs declares the attributes marks of this type carry.
	Attrs map[string]*AttrSpec

	// Rank orders marks within a set. Lower rank renders innermost.
	Rank int

	// Inclusive tells whether text inserted at the mark's boundary inherits
	// it. Nil defaults to true.
	Inclusive *bool

	// Tag is the DOM tag the default renderer emits for this mark.
	Tag string

	// ParseTags are additional DOM tags recognized as this mark on input.
	ParseTags []string

	// ToDOM overrides the default mark rendering.
	ToDOM func(m *Mark) *html.Node
}

// IsInclusive resolves the Inclusive default.
func (ms *MarkSpec) IsInclusive() bool {
	return ms.Inclusive == nil || *ms.Inclusive
}

// Registry holds the node and mark specs assembled for one editor instance.
// It is built once from built-in specs plus plugin contributions, then
// frozen before the view mounts; registration after the freeze fails.
// Registries are per editor instance, never process-global.
type Registry struct {
	nodes     map[string]*NodeSpec
	nodeOrder []string
	marks     map[string]*MarkSpec
	markOrder []string
	frozen    bool
}

// NewRegistry creates an empty, unfrozen registry.
func NewRegistry() *Registry {
	return &Registry{
		nodes: map[string]*NodeSpec{},
		marks: map[string]*MarkSpec{},
	}
}

// RegisterNode records a node spec. Registering after Freeze, an unnamed
// spec, or a name collision with an existing node or mark is a ConfigError.
func (r *Registry) RegisterNode(spec *NodeSpec) error {
	if r.frozen {
		return NewConfigError("cannot register node %q after the registry was frozen", spec.Name)
	}
	if spec.Name == "" {
		return NewConfigError("node spec without a name")
	}
	if _, ok := r.nodes[spec.Name]; ok {
		return NewConfigError("duplicate node spec %q", spec.Name)
	}
	if _, ok := r.marks[spec.Name]; ok {
		return NewConfigError("%q cannot be both a node and a mark", spec.Name)
	}
	if spec.Inline && spec.Content != KindEmpty {
		return NewConfigError("inline node %q must have empty content", spec.Name)
	}
	if spec.Void && spec.Content == KindInline {
		return NewConfigError("void node %q cannot have inline content", spec.Name)
	}
	r.nodes[spec.Name] = spec
	r.nodeOrder = append(r.nodeOrder, spec.Name)
	return nil
}

// RegisterMark records a mark spec, with the same freeze and collision rules
// as RegisterNode.
func (r *Registry) RegisterMark(spec *MarkSpec) error {
	if r.frozen {
		return NewConfigError("cannot register mark %q after the registry was frozen", spec.Name)
	}
	if spec.Name == "" {
		return NewConfigError("mark spec without a name")
	}
	if _, ok := r.marks[spec.Name]; ok {
		return NewConfigError("duplicate mark spec %q", spec.Name)
	}
	if _, ok := r.nodes[spec.Name]; ok {
		return NewConfigError("%q cannot be both a node and a mark", spec.Name)
	}
	r.marks[spec.Name] = spec
	r.markOrder = append(r.markOrder, spec.Name)
	return nil
}

// Freeze seals the registry. The host calls this once, after plugin init and
// before the view is constructed.
func (r *Registry) Freeze() {
	r.frozen = true
}

// Frozen reports whether the registry has been sealed.
func (r *Registry) Frozen() bool {
	return r.frozen
}

// Node looks up a node spec by name.
func (r *Registry) Node(name string) (*NodeSpec, bool) {
	spec, ok := r.nodes[name]
	return spec, ok
}

// Mark looks up a mark spec by name.
func (r *Registry) Mark(name string) (*MarkSpec, bool) {
	spec, ok := r.marks[name]
	return spec, ok
}

// Nodes returns the node specs in registration order.
func (r *Registry) Nodes() []*NodeSpec {
	result := make([]*NodeSpec, 0, len(r.nodeOrder))
	for _, name := range r.nodeOrder {
		result = append(result, r.nodes[name])
	}
	return result
}

// Marks returns the mark specs in registration order.
func (r *Registry) Marks() []*MarkSpec {
	result := make([]*MarkSpec, 0, len(r.markOrder))
	for _, name := range r.markOrder {
		result = append(result, r.marks[name])
	}
	return result
}

// MarkRank returns the rank of the named mark type, or a rank past every
// registered mark when the type is unknown.
func (r *Registry) MarkRank(name string) int {
	if spec, ok := r.marks[name]; ok {
		return spec.Rank
	}
	return 1 << 30
}

// AllowsChild reports whether parent may contain a child block of the given
// type.
func (r *Registry) AllowsChild(parent *NodeSpec, childType string) bool {
	if parent.Content != KindBlock {
		return false
	}
	child, ok := r.nodes[childType]
	if !ok || child.Inline {
		return false
	}
	if parent.Allow == nil {
		return true
	}
	for _, name := range parent.Allow {
		if name == childType {
			return true
		}
	}
	return false
}

// AllowsMark reports whether inline content of the given node type may carry
// the named mark.
func (r *Registry) AllowsMark(parent *NodeSpec, markType string) bool {
	if parent.Content != KindInline {
		return false
	}
	if _, ok := r.marks[markType]; !ok {
		return false
	}
	if parent.Marks == nil {
		return true
	}
	for _, name := range parent.Marks {
		if name == markType {
			return true
		}
	}
	return false
}

// computeAttrs fills the given attributes with spec defaults. A required
// attribute with no value is a validation error.
func computeAttrs(specs map[string]*AttrSpec, given map[string]interface{}) (map[string]interface{}, error) {
	if len(specs) == 0 {
		if len(given) == 0 {
			return nil, nil
		}
		return given, nil
	}
	built := map[string]interface{}{}
	for name, attr := range specs {
		value, ok := given[name]
		if !ok {
			if !attr.HasDefault {
				return nil, NewValidationError("no value supplied for attribute %q", name)
			}
			value = attr.Default
		}
		built[name] = value
	}
	// Undeclared attributes pass through so plugins can stash private data
	// on their own node types.
	for name, value := range given {
		if _, ok := specs[name]; !ok {
			built[name] = value
		}
	}
	return built, nil
}
