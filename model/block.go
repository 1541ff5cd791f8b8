package model

// Block is a structural node in the document tree. It has a stable opaque
// identity, a schema-known type tag, an attribute mapping, and either inline
// children (textblocks) or child blocks (containers). Do not mutate a Block;
// use the With* copy helpers.
type Block struct {
	ID       BlockID
	Type     string
	Attrs    map[string]interface{}
	Inline   []InlineChild
	Children []*Block
}

// NewBlock allocates a block of the given registered type with a fresh id.
// Attributes are checked and defaulted; content is validated against the
// spec's content kind.
func NewBlock(reg *Registry, typ string, attrs map[string]interface{}, inline []InlineChild, children []*Block) (*Block, error) {
	spec, ok := reg.Node(typ)
	if !ok {
		return nil, NewSchemaError("unknown node type %q", typ)
	}
	if spec.Inline {
		return nil, NewValidationError("cannot create a block of inline type %q", typ)
	}
	computed, err := computeAttrs(spec.Attrs, attrs)
	if err != nil {
		return nil, err
	}
	b := &Block{ID: NewBlockID(), Type: typ, Attrs: computed, Inline: inline, Children: children}
	if err := checkContent(reg, spec, b); err != nil {
		return nil, err
	}
	return b, nil
}

// MustBlock is NewBlock that panics on error. It is meant for building
// schema-known fixtures, where a failure is a programming mistake.
func MustBlock(reg *Registry, typ string, attrs map[string]interface{}, inline []InlineChild, children []*Block) *Block {
	b, err := NewBlock(reg, typ, attrs, inline, children)
	if err != nil {
		panic(err)
	}
	return b
}

// CheckBlock validates an already-constructed block against its spec. It is
// used by steps that build blocks with predetermined ids (split, undo).
func CheckBlock(reg *Registry, b *Block) error {
	spec, ok := reg.Node(b.Type)
	if !ok {
		return NewSchemaError("unknown node type %q", b.Type)
	}
	if spec.Inline {
		return NewValidationError("inline type %q used as a block", b.Type)
	}
	return checkContent(reg, spec, b)
}

func checkContent(reg *Registry, spec *NodeSpec, b *Block) error {
	switch spec.Content {
	case KindInline:
		if len(b.Children) > 0 {
			return NewValidationError("textblock %q cannot have child blocks", spec.Name)
		}
		for _, child := range b.Inline {
			run, ok := child.(*TextRun)
			if !ok {
				continue
			}
			for _, mark := range run.Marks {
				if !reg.AllowsMark(spec, mark.Type) {
					return NewValidationError("mark %q not allowed in %q", mark.Type, spec.Name)
				}
			}
		}
	case KindBlock:
		if len(b.Inline) > 0 {
			return NewValidationError("container %q cannot have inline children", spec.Name)
		}
		for _, child := range b.Children {
			if !reg.AllowsChild(spec, child.Type) {
				return NewValidationError("%q not allowed in %q", child.Type, spec.Name)
			}
		}
	case KindEmpty:
		if len(b.Inline) > 0 || len(b.Children) > 0 {
			return NewValidationError("%q allows no content", spec.Name)
		}
	}
	return nil
}

// Length is the block's inline-content width: the sum of its inline
// children's widths. Containers and voids have length 0.
func (b *Block) Length() int {
	return InlineLength(b.Inline)
}

// WithInline creates a copy of this block with different inline content. The
// identity is preserved: patching content is not a new block.
func (b *Block) WithInline(inline []InlineChild) *Block {
	return &Block{ID: b.ID, Type: b.Type, Attrs: b.Attrs, Inline: inline, Children: b.Children}
}

// WithChildren creates a copy of this block with different child blocks.
func (b *Block) WithChildren(children []*Block) *Block {
	return &Block{ID: b.ID, Type: b.Type, Attrs: b.Attrs, Inline: b.Inline, Children: children}
}

// WithAttrs creates a copy of this block with the attribute mapping replaced.
func (b *Block) WithAttrs(attrs map[string]interface{}) *Block {
	return &Block{ID: b.ID, Type: b.Type, Attrs: attrs, Inline: b.Inline, Children: b.Children}
}

// WithType creates a copy of this block carrying a different type tag and
// attributes, keeping the identity and content.
func (b *Block) WithType(typ string, attrs map[string]interface{}) *Block {
	return &Block{ID: b.ID, Type: typ, Attrs: attrs, Inline: b.Inline, Children: b.Children}
}

// Eq compares two blocks structurally, identity included.
func (b *Block) Eq(other *Block) bool {
	if b == other {
		return true
	}
	if b.ID != other.ID || b.Type != other.Type {
		return false
	}
	if !sameAttrs(b.Attrs, other.Attrs) {
		return false
	}
	if !SameInline(b.Inline, other.Inline) {
		return false
	}
	if len(b.Children) != len(other.Children) {
		return false
	}
	for i := range b.Children {
		if !b.Children[i].Eq(other.Children[i]) {
			return false
		}
	}
	return true
}

// SameContent compares type, attrs and content, ignoring identity.
func (b *Block) SameContent(other *Block) bool {
	clone := *other
	clone.ID = b.ID
	return b.Eq(&clone)
}

// SameInline compares two inline sequences structurally.
func SameInline(a, b []InlineChild) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		switch x := a[i].(type) {
		case *TextRun:
			y, ok := b[i].(*TextRun)
			if !ok || x.Text != y.Text || !SameMarkSet(x.Marks, y.Marks) {
				return false
			}
		case *InlineNode:
			y, ok := b[i].(*InlineNode)
			if !ok || !x.Eq(y) {
				return false
			}
		}
	}
	return true
}

func sameAttrs(a, b map[string]interface{}) bool {
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

// CloneWithNewIDs deep-copies a block subtree under fresh ids. Paste uses
// this so content copied within one document never duplicates identities.
func CloneWithNewIDs(b *Block) *Block {
	clone := &Block{ID: NewBlockID(), Type: b.Type, Attrs: b.Attrs, Inline: b.Inline}
	if len(b.Children) > 0 {
		clone.Children = make([]*Block, len(b.Children))
		for i, child := range b.Children {
			clone.Children[i] = CloneWithNewIDs(child)
		}
	}
	return clone
}

// BlockText flattens the block's inline children to plain text. Inline nodes
// contribute their spec's text equivalent, or the object replacement
// character when the spec declares none.
func BlockText(reg *Registry, b *Block) string {
	text := ""
	for _, child := range b.Inline {
		switch child := child.(type) {
		case *TextRun:
			text += child.Text
		case *InlineNode:
			if spec, ok := reg.Node(child.Type); ok && spec.TextEquivalent != "" {
				text += spec.TextEquivalent
			} else {
				text += "￼"
			}
		}
	}
	return text
}
