package editor

import (
	"golang.org/x/net/html"

	"github.com/notectl/notectl-go/dom"
)

// buildShell assembles the editor's element tree: plugin slots above and
// below the content, the popup layer, and the ARIA live region.
//
//	<div data-notectl>
//	  <div data-plugin-container="top">
//	  <div contenteditable role="textbox">   (the view's root)
//	  <div data-plugin-container="bottom">
//	  <div data-popup-layer>
//	  <div data-live-region aria-live="polite">
//	</div>
func buildShell(content *html.Node) (shell, top, bottom, popupLayer, liveRegion *html.Node) {
	shell = dom.Elem("div", "data-notectl", "true")
	top = dom.Elem("div", "data-plugin-container", "top")
	bottom = dom.Elem("div", "data-plugin-container", "bottom")
	popupLayer = dom.Elem("div", "data-popup-layer", "true")
	liveRegion = dom.Elem("div",
		"data-live-region", "true",
		"aria-live", "polite",
		"role", "status")
	shell.AppendChild(top)
	shell.AppendChild(content)
	shell.AppendChild(bottom)
	shell.AppendChild(popupLayer)
	shell.AppendChild(liveRegion)
	return
}

// applyContentARIA sets the textbox semantics on the editable container.
func applyContentARIA(content *html.Node, label string, readonly bool) {
	dom.SetAttr(content, "role", "textbox")
	dom.SetAttr(content, "aria-multiline", "true")
	if label == "" {
		label = "Rich text editor"
	}
	dom.SetAttr(content, "aria-label", label)
	if readonly {
		dom.SetAttr(content, "aria-readonly", "true")
	} else {
		dom.RemoveAttr(content, "aria-readonly")
	}
}

// announce pushes a message into the live region, replacing the previous
// announcement. The core itself never announces; plugins opt in.
func announce(liveRegion *html.Node, message string) {
	dom.Empty(liveRegion)
	liveRegion.AppendChild(dom.TextNode(message))
}

// RovingTabindex keeps exactly one toolbar button focusable. The index
// moves with arrow keys; Home and End jump to the ends. It operates on the
// direct button children of the given toolbar element.
type RovingTabindex struct {
	toolbar *html.Node
	index   int
}

// NewRovingTabindex initializes roving focus over a toolbar element,
// making the first button the tab stop.
func NewRovingTabindex(toolbar *html.Node) *RovingTabindex {
	dom.SetAttr(toolbar, "role", "toolbar")
	r := &RovingTabindex{toolbar: toolbar}
	r.apply()
	return r
}

func (r *RovingTabindex) buttons() []*html.Node {
	var result []*html.Node
	for c := r.toolbar.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && (c.Data == "button" || dom.GetAttr(c, "role") == "button") {
			result = append(result, c)
		}
	}
	return result
}

func (r *RovingTabindex) apply() {
	buttons := r.buttons()
	if len(buttons) == 0 {
		return
	}
	if r.index >= len(buttons) {
		r.index = len(buttons) - 1
	}
	if r.index < 0 {
		r.index = 0
	}
	for i, b := range buttons {
		if i == r.index {
			dom.SetAttr(b, "tabindex", "0")
		} else {
			dom.SetAttr(b, "tabindex", "-1")
		}
	}
}

// HandleKey moves the roving index for toolbar navigation keys. Returns
// true when the key was consumed.
func (r *RovingTabindex) HandleKey(key string) bool {
	buttons := r.buttons()
	if len(buttons) == 0 {
		return false
	}
	switch key {
	case "ArrowRight", "ArrowDown":
		r.index = (r.index + 1) % len(buttons)
	case "ArrowLeft", "ArrowUp":
		r.index = (r.index - 1 + len(buttons)) % len(buttons)
	case "Home":
		r.index = 0
	case "End":
		r.index = len(buttons) - 1
	default:
		return false
	}
	r.apply()
	return true
}

// Focused returns the button currently holding the tab stop.
func (r *RovingTabindex) Focused() *html.Node {
	buttons := r.buttons()
	if len(buttons) == 0 {
		return nil
	}
	if r.index >= len(buttons) {
		return buttons[len(buttons)-1]
	}
	return buttons[r.index]
}
