// Package builder provides helpers for building documents in tests, in the
// spirit of prosemirror-test-builder. Node builder functions optionally take
// an attribute object as their first argument, followed by zero or more
// children, and return the built block together with tagged positions.
//
// Inside strings passed as children, angle-bracket <name> syntax places a
// tag called name at that position. The bracketed part does not appear in
// the result; the tag resolves to a model.Position in the containing
// textblock, so tests never count widths by hand. doc(p("foo<a>")) yields a
// document whose tag "a" is offset 3 of the paragraph.
package builder

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/notectl/notectl-go/model"
	"github.com/notectl/notectl-go/schema/basic"
	"github.com/notectl/notectl-go/schema/list"
)

// Reg is the registry the builders create content against: the built-in
// schema plus the list nodes.
var Reg = func() *model.Registry {
	reg := model.NewRegistry()
	if err := basic.Register(reg); err != nil {
		panic(err)
	}
	if err := list.Register(reg); err != nil {
		panic(err)
	}
	return reg
}()

// NewRegistry returns a fresh unfrozen registry with the same specs the
// builders use, for tests that mutate or freeze it.
func NewRegistry() *model.Registry {
	reg := model.NewRegistry()
	if err := basic.Register(reg); err != nil {
		panic(err)
	}
	if err := list.Register(reg); err != nil {
		panic(err)
	}
	return reg
}

// Built is a block plus the tagged positions found inside it.
type Built struct {
	Block *model.Block
	Tags  map[string]model.Position
}

// Inline is a run of inline children plus tag offsets relative to its start.
type Inline struct {
	Children []model.InlineChild
	Tags     map[string]int
}

// DocBuilt is a document plus all tagged positions found inside it.
type DocBuilt struct {
	Doc  *model.Document
	Tags map[string]model.Position
}

// Tag returns a tagged position, panicking on unknown names so tests fail
// loudly.
func (d DocBuilt) Tag(name string) model.Position {
	pos, ok := d.Tags[name]
	if !ok {
		panic(fmt.Errorf("no tag %q in test document", name))
	}
	return pos
}

// Doc assembles a document from built blocks.
func Doc(children ...Built) DocBuilt {
	doc := model.NewDocument()
	tags := map[string]model.Position{}
	for _, child := range children {
		doc.Children = append(doc.Children, child.Block)
		for name, pos := range child.Tags {
			tags[name] = pos
		}
	}
	return DocBuilt{Doc: doc, Tags: tags}
}

// parseTags extracts <name> markers from a string, returning the plain text
// and tag offsets in rune widths.
func parseTags(s string) (string, map[string]int) {
	var out strings.Builder
	tags := map[string]int{}
	width := 0
	for i := 0; i < len(s); {
		if s[i] == '<' {
			if end := strings.IndexByte(s[i:], '>'); end > 1 {
				name := s[i+1 : i+end]
				if !strings.ContainsAny(name, " <") {
					tags[name] = width
					i += end + 1
					continue
				}
			}
		}
		_, size := utf8.DecodeRuneInString(s[i:])
		out.WriteString(s[i : i+size])
		width++
		i += size
	}
	return out.String(), tags
}

func flattenInline(args []interface{}, marks []*model.Mark) Inline {
	result := Inline{Tags: map[string]int{}}
	width := 0
	push := func(child model.InlineChild) {
		result.Children = append(result.Children, child)
		width += child.Width()
	}
	for _, arg := range args {
		switch arg := arg.(type) {
		case string:
			text, tags := parseTags(arg)
			for name, offset := range tags {
				result.Tags[name] = width + offset
			}
			if text != "" {
				push(model.NewTextRun(text, marks))
			}
		case Inline:
			for name, offset := range arg.Tags {
				result.Tags[name] = width + offset
			}
			for _, child := range arg.Children {
				switch child := child.(type) {
				case *model.TextRun:
					merged := child.Marks
					for _, mark := range marks {
						merged = mark.AddToSet(Reg, merged)
					}
					push(child.WithMarks(merged))
				default:
					push(child)
				}
			}
		default:
			panic(fmt.Errorf("unsupported inline child %T", arg))
		}
	}
	return result
}

func takeAttrs(args []interface{}) (map[string]interface{}, []interface{}) {
	if len(args) > 0 {
		if attrs, ok := args[0].(map[string]interface{}); ok {
			return attrs, args[1:]
		}
	}
	return nil, args
}

func textblock(typ string, defaults map[string]interface{}) func(args ...interface{}) Built {
	return func(args ...interface{}) Built {
		attrs, rest := takeAttrs(args)
		attrs = mergeAttrs(defaults, attrs)
		inline := flattenInline(rest, nil)
		block := model.MustBlock(Reg, typ, attrs, model.NormalizeInline(Reg, inline.Children), nil)
		tags := map[string]model.Position{}
		for name, offset := range inline.Tags {
			tags[name] = model.Pos(block.ID, offset)
		}
		return Built{Block: block, Tags: tags}
	}
}

func container(typ string, defaults map[string]interface{}) func(args ...interface{}) Built {
	return func(args ...interface{}) Built {
		attrs, rest := takeAttrs(args)
		attrs = mergeAttrs(defaults, attrs)
		var children []*model.Block
		tags := map[string]model.Position{}
		for _, arg := range rest {
			child, ok := arg.(Built)
			if !ok {
				panic(fmt.Errorf("container %q child must be a built block, got %T", typ, arg))
			}
			children = append(children, child.Block)
			for name, pos := range child.Tags {
				tags[name] = pos
			}
		}
		block := model.MustBlock(Reg, typ, attrs, nil, children)
		return Built{Block: block, Tags: tags}
	}
}

func voidBlock(typ string, defaults map[string]interface{}) func(args ...interface{}) Built {
	return func(args ...interface{}) Built {
		attrs, _ := takeAttrs(args)
		attrs = mergeAttrs(defaults, attrs)
		return Built{Block: model.MustBlock(Reg, typ, attrs, nil, nil), Tags: map[string]model.Position{}}
	}
}

func markOf(typ string, defaults map[string]interface{}) func(args ...interface{}) Inline {
	return func(args ...interface{}) Inline {
		attrs, rest := takeAttrs(args)
		attrs = mergeAttrs(defaults, attrs)
		spec, _ := Reg.Mark(typ)
		computed := map[string]interface{}{}
		for name, as := range spec.Attrs {
			if v, ok := attrs[name]; ok {
				computed[name] = v
			} else if as.HasDefault {
				computed[name] = as.Default
			}
		}
		for name, v := range attrs {
			if _, ok := spec.Attrs[name]; !ok {
				computed[name] = v
			}
		}
		if len(computed) == 0 {
			computed = nil
		}
		return flattenInline(rest, []*model.Mark{model.NewMark(typ, computed)})
	}
}

func mergeAttrs(defaults, given map[string]interface{}) map[string]interface{} {
	if len(defaults) == 0 {
		return given
	}
	merged := map[string]interface{}{}
	for k, v := range defaults {
		merged[k] = v
	}
	for k, v := range given {
		merged[k] = v
	}
	return merged
}

var (
	// P is a builder for paragraph blocks.
	P = textblock("paragraph", nil)
	// H1, H2 and H3 build heading blocks of the matching level.
	H1 = textblock("heading", map[string]interface{}{"level": 1})
	H2 = textblock("heading", map[string]interface{}{"level": 2})
	H3 = textblock("heading", map[string]interface{}{"level": 3})
	// Pre is a builder for code blocks.
	Pre = textblock("code_block", nil)
	// Blockquote is a builder for blockquote containers.
	Blockquote = container("blockquote", nil)
	// Ul, Ol and Li build list structure.
	Ul = container("bullet_list", nil)
	Ol = container("ordered_list", nil)
	Li = container("list_item", nil)
	// Table, Tr and Td build table structure.
	Table = container("table", nil)
	Tr    = container("table_row", nil)
	Td    = container("table_cell", nil)
	// Hr is a builder for horizontal rules.
	Hr = voidBlock("horizontal_rule", nil)
	// Img is a builder for image blocks, src defaulting to "img.png".
	Img = voidBlock("image", map[string]interface{}{"src": "img.png"})
	// Em, Strong, Code, Underline and Strike are mark builders.
	Em        = markOf("em", nil)
	Strong    = markOf("strong", nil)
	Code      = markOf("code", nil)
	Underline = markOf("underline", nil)
	Strike    = markOf("strike", nil)
	// A is a builder for link marks, href defaulting to "foo".
	A = markOf("link", map[string]interface{}{"href": "foo"})
)

// Br returns a hard break inline child.
func Br() Inline {
	node, err := model.NewInlineNode(Reg, "hard_break", nil)
	if err != nil {
		panic(err)
	}
	return Inline{Children: []model.InlineChild{node}, Tags: map[string]int{}}
}

// Mention returns a mention inline child with the given id and label.
func Mention(id, label string) Inline {
	node, err := model.NewInlineNode(Reg, "mention", map[string]interface{}{"id": id, "label": label})
	if err != nil {
		panic(err)
	}
	return Inline{Children: []model.InlineChild{node}, Tags: map[string]int{}}
}
