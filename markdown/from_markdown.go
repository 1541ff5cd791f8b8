// Package markdown converts between the block model and Markdown. It is a
// tooling surface (the CLI converter uses it); the editor itself exchanges
// documents as JSON and sanitized HTML.
package markdown

import (
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"

	"github.com/notectl/notectl-go/model"
)

// parseState tracks the context of a running parse: the registry, the
// source bytes and the mark set inherited by inline content.
type parseState struct {
	reg    *model.Registry
	source []byte
	marks  []*model.Mark
}

// Parse converts Markdown source into a document validated against the
// registry.
func Parse(reg *model.Registry, source []byte) (*model.Document, error) {
	md := goldmark.New()
	root := md.Parser().Parse(text.NewReader(source))
	st := &parseState{reg: reg, source: source}
	blocks, err := st.blocks(root)
	if err != nil {
		return nil, err
	}
	if len(blocks) == 0 {
		para, err := model.NewBlock(reg, "paragraph", nil, nil, nil)
		if err != nil {
			return nil, err
		}
		blocks = []*model.Block{para}
	}
	doc := model.NewDocument(blocks...)
	if err := model.Validate(reg, doc); err != nil {
		return nil, err
	}
	return doc, nil
}

func (st *parseState) blocks(parent ast.Node) ([]*model.Block, error) {
	var result []*model.Block
	for n := parent.FirstChild(); n != nil; n = n.NextSibling() {
		blocks, err := st.block(n)
		if err != nil {
			return nil, err
		}
		result = append(result, blocks...)
	}
	return result, nil
}

func (st *parseState) block(n ast.Node) ([]*model.Block, error) {
	switch n := n.(type) {
	case *ast.Heading:
		level := n.Level
		if level > 6 {
			level = 6
		}
		inline, err := st.inline(n)
		if err != nil {
			return nil, err
		}
		b, err := model.NewBlock(st.reg, "heading", map[string]interface{}{"level": level}, inline, nil)
		if err != nil {
			return nil, err
		}
		return []*model.Block{b}, nil
	case *ast.Paragraph, *ast.TextBlock:
		// A paragraph holding a single image becomes an image block.
		if img := soleImage(n); img != nil {
			attrs := map[string]interface{}{"src": string(img.Destination)}
			if alt := string(img.Text(st.source)); alt != "" {
				attrs["alt"] = alt
			}
			b, err := model.NewBlock(st.reg, "image", attrs, nil, nil)
			if err != nil {
				return nil, err
			}
			return []*model.Block{b}, nil
		}
		inline, err := st.inline(n)
		if err != nil {
			return nil, err
		}
		b, err := model.NewBlock(st.reg, "paragraph", nil, inline, nil)
		if err != nil {
			return nil, err
		}
		return []*model.Block{b}, nil
	case *ast.Blockquote:
		children, err := st.blocks(n)
		if err != nil {
			return nil, err
		}
		b, err := model.NewBlock(st.reg, "blockquote", nil, nil, children)
		if err != nil {
			return nil, err
		}
		return []*model.Block{b}, nil
	case *ast.List:
		typ := "bullet_list"
		attrs := map[string]interface{}{}
		if n.IsOrdered() {
			typ = "ordered_list"
			attrs["start"] = n.Start
		}
		var items []*model.Block
		for item := n.FirstChild(); item != nil; item = item.NextSibling() {
			children, err := st.blocks(item)
			if err != nil {
				return nil, err
			}
			li, err := model.NewBlock(st.reg, "list_item", nil, nil, children)
			if err != nil {
				return nil, err
			}
			items = append(items, li)
		}
		b, err := model.NewBlock(st.reg, typ, attrs, nil, items)
		if err != nil {
			return nil, err
		}
		return []*model.Block{b}, nil
	case *ast.FencedCodeBlock:
		return st.codeBlock(n)
	case *ast.CodeBlock:
		return st.codeBlock(n)
	case *ast.ThematicBreak:
		b, err := model.NewBlock(st.reg, "horizontal_rule", nil, nil, nil)
		if err != nil {
			return nil, err
		}
		return []*model.Block{b}, nil
	case *ast.HTMLBlock:
		// Raw HTML does not survive the Markdown import.
		return nil, nil
	}
	// Unknown block kinds flatten into their children.
	return st.blocks(n)
}

func (st *parseState) codeBlock(n ast.Node) ([]*model.Block, error) {
	var b strings.Builder
	lines := n.Lines()
	for i := 0; i < lines.Len(); i++ {
		line := lines.At(i)
		b.Write(line.Value(st.source))
	}
	code := strings.TrimRight(b.String(), "\n")
	var inline []model.InlineChild
	if code != "" {
		inline = append(inline, model.NewTextRun(code, nil))
	}
	block, err := model.NewBlock(st.reg, "code_block", nil, inline, nil)
	if err != nil {
		return nil, err
	}
	return []*model.Block{block}, nil
}

// soleImage reports the image node when the paragraph holds nothing else.
func soleImage(n ast.Node) *ast.Image {
	if n.ChildCount() != 1 {
		return nil
	}
	img, ok := n.FirstChild().(*ast.Image)
	if !ok {
		return nil
	}
	return img
}

// inline flattens a node's inline children under the current mark set.
func (st *parseState) inline(parent ast.Node) ([]model.InlineChild, error) {
	var result []model.InlineChild
	for n := parent.FirstChild(); n != nil; n = n.NextSibling() {
		children, err := st.inlineNode(n)
		if err != nil {
			return nil, err
		}
		result = append(result, children...)
	}
	return model.NormalizeInline(st.reg, result), nil
}

func (st *parseState) inlineNode(n ast.Node) ([]model.InlineChild, error) {
	switch n := n.(type) {
	case *ast.Text:
		var result []model.InlineChild
		if segment := n.Segment; segment.Len() > 0 {
			result = append(result, model.NewTextRun(string(segment.Value(st.source)), st.marks))
		}
		if n.HardLineBreak() {
			br, err := model.NewInlineNode(st.reg, "hard_break", nil)
			if err != nil {
				return nil, err
			}
			result = append(result, br)
		} else if n.SoftLineBreak() {
			result = append(result, model.NewTextRun(" ", st.marks))
		}
		return result, nil
	case *ast.String:
		return []model.InlineChild{model.NewTextRun(string(n.Value), st.marks)}, nil
	case *ast.Emphasis:
		typ := "em"
		if n.Level == 2 {
			typ = "strong"
		}
		return st.withMark(model.NewMark(typ, nil), n)
	case *ast.CodeSpan:
		return st.withMark(model.NewMark("code", nil), n)
	case *ast.Link:
		return st.withMark(model.NewMark("link", map[string]interface{}{"href": string(n.Destination)}), n)
	case *ast.AutoLink:
		url := string(n.URL(st.source))
		mark := model.NewMark("link", map[string]interface{}{"href": url})
		return []model.InlineChild{model.NewTextRun(url, mark.AddToSet(st.reg, st.marks))}, nil
	case *ast.Image:
		// Inline images degrade to their alt text.
		if alt := string(n.Text(st.source)); alt != "" {
			return []model.InlineChild{model.NewTextRun(alt, st.marks)}, nil
		}
		return nil, nil
	case *ast.RawHTML:
		return nil, nil
	}
	var result []model.InlineChild
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		children, err := st.inlineNode(c)
		if err != nil {
			return nil, err
		}
		result = append(result, children...)
	}
	return result, nil
}

func (st *parseState) withMark(mark *model.Mark, n ast.Node) ([]model.InlineChild, error) {
	outer := st.marks
	st.marks = mark.AddToSet(st.reg, st.marks)
	var result []model.InlineChild
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		children, err := st.inlineNode(c)
		if err != nil {
			return nil, err
		}
		result = append(result, children...)
	}
	st.marks = outer
	return result, nil
}
