package model

import "unicode/utf8"

// InlineChild is the content of a textblock: either a text run or an atomic
// inline node. Widths follow the inline-content indexing scheme: each code
// point of text counts 1, each inline node counts 1, marks count 0.
type InlineChild interface {
	Width() int
	inlineChild()
}

// TextRun is a contiguous slice of text sharing one mark set.
type TextRun struct {
	Text  string
	Marks []*Mark
}

// NewTextRun creates a text run. A nil mark set is normalized to the empty
// set.
func NewTextRun(text string, marks []*Mark) *TextRun {
	if marks == nil {
		marks = NoMarks
	}
	return &TextRun{Text: text, Marks: marks}
}

// Width returns the run's width in code points.
func (r *TextRun) Width() int {
	return utf8.RuneCountInString(r.Text)
}

// WithText creates a copy of this run carrying different text.
func (r *TextRun) WithText(text string) *TextRun {
	return &TextRun{Text: text, Marks: r.Marks}
}

// WithMarks creates a copy of this run carrying a different mark set. The
// run itself is returned when the sets are identical.
func (r *TextRun) WithMarks(marks []*Mark) *TextRun {
	if SameMarkSet(r.Marks, marks) {
		return r
	}
	return &TextRun{Text: r.Text, Marks: marks}
}

func (r *TextRun) inlineChild() {}

// InlineNode is an atomic inline item of width 1, such as a hard break or a
// mention.
type InlineNode struct {
	Type  string
	Attrs map[string]interface{}
}

// NewInlineNode creates an inline node of the given registered type,
// defaulting attributes from its spec.
func NewInlineNode(reg *Registry, typ string, attrs map[string]interface{}) (*InlineNode, error) {
	spec, ok := reg.Node(typ)
	if !ok {
		return nil, NewSchemaError("unknown inline node type %q", typ)
	}
	if !spec.Inline {
		return nil, NewValidationError("%q is not an inline node type", typ)
	}
	computed, err := computeAttrs(spec.Attrs, attrs)
	if err != nil {
		return nil, err
	}
	return &InlineNode{Type: typ, Attrs: computed}, nil
}

// Width of an inline node is always 1.
func (n *InlineNode) Width() int {
	return 1
}

func (n *InlineNode) inlineChild() {}

// Eq tests type and attribute equality of two inline nodes.
func (n *InlineNode) Eq(other *InlineNode) bool {
	if n.Type != other.Type || len(n.Attrs) != len(other.Attrs) {
		return false
	}
	for k, v := range n.Attrs {
		if other.Attrs[k] != v {
			return false
		}
	}
	return true
}

// InlineLength sums the widths of the given children.
func InlineLength(children []InlineChild) int {
	length := 0
	for _, child := range children {
		length += child.Width()
	}
	return length
}

// cutText splits s at the given rune offset.
func cutText(s string, at int) (string, string) {
	if at <= 0 {
		return "", s
	}
	for i := range s {
		if at == 0 {
			return s[:i], s[i:]
		}
		at--
	}
	return s, ""
}

// SliceInline extracts the inline content between from and to, splitting
// text runs at the boundaries. Mark sets are shared with the source.
func SliceInline(children []InlineChild, from, to int) []InlineChild {
	var result []InlineChild
	pos := 0
	for _, child := range children {
		end := pos + child.Width()
		if end <= from {
			pos = end
			continue
		}
		if pos >= to {
			break
		}
		switch child := child.(type) {
		case *TextRun:
			lo, hi := 0, child.Width()
			if from > pos {
				lo = from - pos
			}
			if to < end {
				hi = to - pos
			}
			_, tail := cutText(child.Text, lo)
			mid, _ := cutText(tail, hi-lo)
			if mid != "" {
				result = append(result, child.WithText(mid))
			}
		case *InlineNode:
			result = append(result, child)
		}
		pos = end
	}
	return result
}

// SpliceInline replaces the range [from, to) with the given slice, returning
// new content. Runs cut at the boundaries keep their marks; no coalescing is
// done here — callers normalize afterwards.
func SpliceInline(children []InlineChild, from, to int, slice []InlineChild) []InlineChild {
	var result []InlineChild
	result = append(result, SliceInline(children, 0, from)...)
	result = append(result, slice...)
	result = append(result, SliceInline(children, to, InlineLength(children))...)
	return result
}

// RefKind tags what ContentAt found at an offset.
type RefKind int

const (
	// RefText: the offset falls inside (or at the start of) a text run.
	RefText RefKind = iota
	// RefInline: the offset addresses an inline node.
	RefInline
	// RefEnd: the offset is at the end of the content.
	RefEnd
)

// ContentRef describes the inline child at a width offset.
type ContentRef struct {
	Kind RefKind
	// Run is set for RefText; Offset is the rune offset within it.
	Run    *TextRun
	Offset int
	// Node is set for RefInline.
	Node *InlineNode
	// Index is the position of the child in the content slice.
	Index int
}

// ContentAt resolves the child at the given width offset. Offsets exactly
// between two children resolve to the following child.
func ContentAt(children []InlineChild, offset int) ContentRef {
	pos := 0
	for i, child := range children {
		end := pos + child.Width()
		if offset < end || (offset == pos && child.Width() == 0) {
			switch child := child.(type) {
			case *TextRun:
				return ContentRef{Kind: RefText, Run: child, Offset: offset - pos, Index: i}
			case *InlineNode:
				return ContentRef{Kind: RefInline, Node: child, Index: i}
			}
		}
		pos = end
	}
	return ContentRef{Kind: RefEnd, Index: len(children)}
}

// MarksAt returns the marks that text typed at the given offset should
// inherit: the marks of the preceding character, filtered by inclusivity at
// run boundaries, or the following character's marks at offset 0.
func MarksAt(reg *Registry, children []InlineChild, offset int) []*Mark {
	pick := func(run *TextRun, boundary bool) []*Mark {
		if !boundary {
			return run.Marks
		}
		kept := run.Marks
		for _, mark := range run.Marks {
			if spec, ok := reg.Mark(mark.Type); ok && !spec.IsInclusive() {
				kept = mark.RemoveFromSet(kept)
			}
		}
		return kept
	}
	pos := 0
	for _, child := range children {
		end := pos + child.Width()
		if run, ok := child.(*TextRun); ok {
			if offset > pos && offset < end {
				return run.Marks
			}
			if offset == end {
				return pick(run, true)
			}
			if offset == pos {
				return pick(run, true)
			}
		}
		pos = end
	}
	return NoMarks
}
