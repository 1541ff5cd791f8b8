package markdown

import (
	"fmt"
	"strings"

	"github.com/notectl/notectl-go/model"
)

// Serialize renders a document as Markdown covering the basic and list
// schemas. Unknown block types fall back to their plain text.
func Serialize(reg *model.Registry, d *model.Document) string {
	w := &writer{reg: reg}
	for i, b := range d.Children {
		if i > 0 {
			w.out.WriteString("\n")
		}
		w.block(b, "")
	}
	return w.out.String()
}

type writer struct {
	reg *model.Registry
	out strings.Builder
}

func (w *writer) block(b *model.Block, prefix string) {
	switch b.Type {
	case "paragraph":
		w.line(prefix, w.inline(b.Inline))
	case "heading":
		level := 1
		switch v := b.Attrs["level"].(type) {
		case int:
			level = v
		case float64:
			level = int(v)
		}
		if level < 1 {
			level = 1
		}
		if level > 6 {
			level = 6
		}
		w.line(prefix, strings.Repeat("#", level)+" "+w.inline(b.Inline))
	case "code_block":
		w.line(prefix, "```")
		for _, line := range strings.Split(model.BlockText(w.reg, b), "\n") {
			w.line(prefix, line)
		}
		w.line(prefix, "```")
	case "blockquote":
		for i, child := range b.Children {
			if i > 0 {
				w.line(prefix+"> ", "")
			}
			w.block(child, prefix+"> ")
		}
	case "horizontal_rule":
		w.line(prefix, "---")
	case "image":
		src, _ := b.Attrs["src"].(string)
		alt, _ := b.Attrs["alt"].(string)
		w.line(prefix, fmt.Sprintf("![%s](%s)", alt, src))
	case "bullet_list":
		for _, item := range b.Children {
			w.listItem(item, prefix, "- ")
		}
	case "ordered_list":
		start := 1
		switch v := b.Attrs["start"].(type) {
		case int:
			start = v
		case float64:
			start = int(v)
		}
		for i, item := range b.Children {
			w.listItem(item, prefix, fmt.Sprintf("%d. ", start+i))
		}
	case "table":
		w.table(b, prefix)
	default:
		if len(b.Children) > 0 {
			for _, child := range b.Children {
				w.block(child, prefix)
			}
			return
		}
		if text := model.BlockText(w.reg, b); text != "" {
			w.line(prefix, text)
		}
	}
}

func (w *writer) listItem(item *model.Block, prefix, bullet string) {
	pad := strings.Repeat(" ", len(bullet))
	for i, child := range item.Children {
		p := prefix + pad
		if i == 0 {
			p = prefix + bullet
		}
		w.block(child, p)
	}
	if len(item.Children) == 0 {
		w.line(prefix+bullet, "")
	}
}

// table renders a pipe table; cell block structure flattens to text.
func (w *writer) table(b *model.Block, prefix string) {
	for rowIndex, row := range b.Children {
		var cells []string
		for _, cell := range row.Children {
			cells = append(cells, cellText(w.reg, cell))
		}
		w.line(prefix, "| "+strings.Join(cells, " | ")+" |")
		if rowIndex == 0 {
			var seps []string
			for range row.Children {
				seps = append(seps, "---")
			}
			w.line(prefix, "| "+strings.Join(seps, " | ")+" |")
		}
	}
}

func cellText(reg *model.Registry, cell *model.Block) string {
	var parts []string
	var walk func(b *model.Block)
	walk = func(b *model.Block) {
		if len(b.Children) == 0 {
			if t := model.BlockText(reg, b); t != "" {
				parts = append(parts, t)
			}
			return
		}
		for _, c := range b.Children {
			walk(c)
		}
	}
	walk(cell)
	return strings.Join(parts, " ")
}

func (w *writer) line(prefix, text string) {
	w.out.WriteString(prefix)
	w.out.WriteString(text)
	w.out.WriteString("\n")
}

// inline renders runs with Markdown mark delimiters, hard breaks as
// backslash newlines, and mentions as their label.
func (w *writer) inline(children []model.InlineChild) string {
	var b strings.Builder
	for _, child := range children {
		switch child := child.(type) {
		case *model.TextRun:
			b.WriteString(wrapMarks(child))
		case *model.InlineNode:
			switch child.Type {
			case "hard_break":
				b.WriteString("\\\n")
			case "mention":
				label, _ := child.Attrs["label"].(string)
				b.WriteString("@" + label)
			}
		}
	}
	return b.String()
}

func wrapMarks(run *model.TextRun) string {
	text := run.Text
	// Innermost delimiters first: code, then emphasis, strong and
	// strike, with links outermost.
	if model.MarkTypeInSet("code", run.Marks) != nil {
		text = "`" + text + "`"
	}
	if model.MarkTypeInSet("em", run.Marks) != nil {
		text = "*" + text + "*"
	}
	if model.MarkTypeInSet("strong", run.Marks) != nil {
		text = "**" + text + "**"
	}
	if model.MarkTypeInSet("strike", run.Marks) != nil {
		text = "~~" + text + "~~"
	}
	if link := model.MarkTypeInSet("link", run.Marks); link != nil {
		href, _ := link.Attrs["href"].(string)
		text = "[" + text + "](" + href + ")"
	}
	return text
}
