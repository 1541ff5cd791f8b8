// Package htmlconv converts between the block model and sanitized HTML. All
// HTML entering or leaving the editor passes the allowlist sanitizer:
// scripts, event handlers and unknown attributes are always stripped, and
// unknown tags become transparent.
package htmlconv

import (
	"strings"

	"golang.org/x/net/html"

	"github.com/notectl/notectl-go/dom"
)

// allowedTags is the tag allowlist of the serialization contract.
var allowedTags = map[string]bool{
	"p": true, "h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"blockquote": true, "ul": true, "ol": true, "li": true, "hr": true, "br": true,
	"strong": true, "b": true, "em": true, "i": true, "u": true, "s": true,
	"del": true, "strike": true, "code": true, "pre": true, "span": true, "a": true,
	"table": true, "tbody": true, "thead": true, "tr": true, "td": true, "th": true,
	"figure": true, "img": true, "div": true,
}

// dropTags are removed with their entire subtree.
var dropTags = map[string]bool{
	"script": true, "style": true, "iframe": true, "object": true,
	"embed": true, "link": true, "meta": true, "noscript": true,
	"template": true, "form": true, "input": true, "button": true,
}

// allowedAttrs is the attribute allowlist.
var allowedAttrs = map[string]bool{
	"href": true, "target": true, "rel": true, "style": true,
	"colspan": true, "rowspan": true, "src": true, "alt": true,
	"width": true, "height": true,
}

// allowedStyleProps are the inline style properties that survive.
var allowedStyleProps = map[string]bool{
	"color": true, "background-color": true, "font-family": true, "text-align": true,
}

// Sanitize rewrites a parsed tree in place: dropped subtrees disappear,
// disallowed tags are replaced by their children, attributes are filtered.
// Disallowed constructs are silently stripped; sanitization never fails.
func Sanitize(nodes []*html.Node) []*html.Node {
	var result []*html.Node
	for _, n := range nodes {
		result = append(result, sanitizeNode(n)...)
	}
	return result
}

func sanitizeNode(n *html.Node) []*html.Node {
	switch n.Type {
	case html.TextNode:
		return []*html.Node{n}
	case html.ElementNode:
	default:
		return nil
	}
	tag := strings.ToLower(n.Data)
	if dropTags[tag] {
		return nil
	}
	children := dom.Children(n)
	for _, c := range children {
		dom.Detach(c)
	}
	var clean []*html.Node
	for _, c := range children {
		clean = append(clean, sanitizeNode(c)...)
	}
	if !allowedTags[tag] {
		// Unknown tags are transparent: their sanitized children survive.
		return clean
	}
	n.Attr = sanitizeAttrs(tag, n.Attr)
	for _, c := range clean {
		n.AppendChild(c)
	}
	return []*html.Node{n}
}

func sanitizeAttrs(tag string, attrs []html.Attribute) []html.Attribute {
	var kept []html.Attribute
	for _, a := range attrs {
		key := strings.ToLower(a.Key)
		if strings.HasPrefix(key, "on") || a.Namespace != "" {
			continue
		}
		if !allowedAttrs[key] {
			continue
		}
		val := a.Val
		switch key {
		case "href", "src":
			if unsafeURL(val) {
				continue
			}
		case "style":
			val = sanitizeStyle(val)
			if val == "" {
				continue
			}
		}
		kept = append(kept, html.Attribute{Key: key, Val: val})
	}
	return kept
}

func unsafeURL(raw string) bool {
	v := strings.ToLower(strings.TrimSpace(raw))
	return strings.HasPrefix(v, "javascript:") || strings.HasPrefix(v, "vbscript:") ||
		(strings.HasPrefix(v, "data:") && !strings.HasPrefix(v, "data:image/"))
}

// sanitizeStyle keeps only the allowlisted style properties.
func sanitizeStyle(style string) string {
	var kept []string
	for _, decl := range strings.Split(style, ";") {
		parts := strings.SplitN(decl, ":", 2)
		if len(parts) != 2 {
			continue
		}
		prop := strings.ToLower(strings.TrimSpace(parts[0]))
		val := strings.TrimSpace(parts[1])
		if allowedStyleProps[prop] && !strings.Contains(strings.ToLower(val), "url(") {
			kept = append(kept, prop+": "+val)
		}
	}
	return strings.Join(kept, "; ")
}

// StyleProp extracts one property from an inline style string.
func StyleProp(style, prop string) string {
	for _, decl := range strings.Split(style, ";") {
		parts := strings.SplitN(decl, ":", 2)
		if len(parts) != 2 {
			continue
		}
		if strings.EqualFold(strings.TrimSpace(parts[0]), prop) {
			return strings.TrimSpace(parts[1])
		}
	}
	return ""
}
