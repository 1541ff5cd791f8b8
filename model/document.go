package model

// Document is an ordered sequence of top-level blocks plus a monotonically
// increasing version number, bumped on every committed transaction.
type Document struct {
	Version  int64
	Children []*Block
}

// NewDocument returns a fresh document at version 1.
func NewDocument(blocks ...*Block) *Document {
	return &Document{Version: 1, Children: blocks}
}

// WithChildren creates a copy of the document with different top-level
// blocks and the same version. The state layer bumps versions on commit.
func (d *Document) WithChildren(children []*Block) *Document {
	return &Document{Version: d.Version, Children: children}
}

// Eq compares two documents structurally, ignoring the version.
func (d *Document) Eq(other *Document) bool {
	if len(d.Children) != len(other.Children) {
		return false
	}
	for i := range d.Children {
		if !d.Children[i].Eq(other.Children[i]) {
			return false
		}
	}
	return true
}

// Found describes a block located in a document: the block itself, its
// parent (nil at top level), its index among siblings, and the path of
// ancestor ids from the outermost container down, excluding the block.
type Found struct {
	Block  *Block
	Parent *Block
	Index  int
	Path   []BlockID
}

// FindBlock locates a block by id. Ownership is exclusive, so at most one
// location exists.
func FindBlock(d *Document, id BlockID) (Found, bool) {
	var walk func(blocks []*Block, parent *Block, path []BlockID) (Found, bool)
	walk = func(blocks []*Block, parent *Block, path []BlockID) (Found, bool) {
		for i, b := range blocks {
			if b.ID == id {
				return Found{Block: b, Parent: parent, Index: i, Path: path}, true
			}
			if len(b.Children) > 0 {
				childPath := append(append([]BlockID{}, path...), b.ID)
				if f, ok := walk(b.Children, b, childPath); ok {
					return f, true
				}
			}
		}
		return Found{}, false
	}
	return walk(d.Children, nil, nil)
}

// ReplaceBlock returns a document where the block with the given id is
// swapped for repl, sharing every untouched subtree. The document itself is
// returned when the id is absent.
func ReplaceBlock(d *Document, id BlockID, repl *Block) *Document {
	children, changed := replaceIn(d.Children, id, repl)
	if !changed {
		return d
	}
	return d.WithChildren(children)
}

func replaceIn(blocks []*Block, id BlockID, repl *Block) ([]*Block, bool) {
	for i, b := range blocks {
		if b.ID == id {
			cpy := make([]*Block, len(blocks))
			copy(cpy, blocks)
			cpy[i] = repl
			return cpy, true
		}
		if len(b.Children) > 0 {
			if sub, ok := replaceIn(b.Children, id, repl); ok {
				cpy := make([]*Block, len(blocks))
				copy(cpy, blocks)
				cpy[i] = b.WithChildren(sub)
				return cpy, true
			}
		}
	}
	return blocks, false
}

// Leaves returns the document's leaf blocks (textblocks and voids) in
// document order. Containers are descended into, not listed.
func Leaves(reg *Registry, d *Document) []*Block {
	var result []*Block
	var walk func(blocks []*Block)
	walk = func(blocks []*Block) {
		for _, b := range blocks {
			spec, ok := reg.Node(b.Type)
			if ok && spec.Content == KindBlock {
				walk(b.Children)
				continue
			}
			result = append(result, b)
		}
	}
	walk(d.Children)
	return result
}

// LeafIndex returns the position of a leaf block in document order, or -1.
func LeafIndex(reg *Registry, d *Document, id BlockID) int {
	for i, b := range Leaves(reg, d) {
		if b.ID == id {
			return i
		}
	}
	return -1
}

// FirstTextblock returns the first leaf textblock of the document.
func FirstTextblock(reg *Registry, d *Document) *Block {
	for _, b := range Leaves(reg, d) {
		if spec, ok := reg.Node(b.Type); ok && spec.IsTextblock() {
			return b
		}
	}
	return nil
}

// LastTextblock returns the last leaf textblock of the document.
func LastTextblock(reg *Registry, d *Document) *Block {
	leaves := Leaves(reg, d)
	for i := len(leaves) - 1; i >= 0; i-- {
		if spec, ok := reg.Node(leaves[i].Type); ok && spec.IsTextblock() {
			return leaves[i]
		}
	}
	return nil
}

// Text flattens the whole document to plain text, one line per leaf block.
func Text(reg *Registry, d *Document) string {
	text := ""
	for i, b := range Leaves(reg, d) {
		if i > 0 {
			text += "\n"
		}
		text += BlockText(reg, b)
	}
	return text
}

// ComparePos orders two positions in document order: negative when a comes
// first, zero when equal. Positions in unknown blocks sort last.
func ComparePos(reg *Registry, d *Document, a, b Position) int {
	if a.Block == b.Block {
		return a.Offset - b.Offset
	}
	ia := LeafIndex(reg, d, a.Block)
	ib := LeafIndex(reg, d, b.Block)
	if ia < 0 {
		return 1
	}
	if ib < 0 {
		return -1
	}
	return ia - ib
}
