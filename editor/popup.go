package editor

import (
	"golang.org/x/net/html"

	"github.com/notectl/notectl-go/dom"
	"github.com/notectl/notectl-go/plugin"
)

// popupEntry is one open popup in the stack.
type popupEntry struct {
	el       *html.Node
	opts     plugin.PopupOptions
	parent   *popupEntry
	children []*popupEntry
	closed   bool
}

// popupManager owns the popup layer: popups stack, closing a parent closes
// its descendants, Escape closes the top popup, and focus returns to the
// trigger element.
type popupManager struct {
	layer *html.Node
	stack []*popupEntry
	focus func(target *html.Node)
}

func newPopupManager(layer *html.Node, focus func(*html.Node)) *popupManager {
	if focus == nil {
		focus = func(*html.Node) {}
	}
	return &popupManager{layer: layer, focus: focus}
}

// open mounts a popup and returns its handle.
func (pm *popupManager) open(opts plugin.PopupOptions) *plugin.PopupHandle {
	role := opts.AriaRole
	if role == "" {
		role = "dialog"
	}
	el := dom.Elem("div",
		"data-popup", "true",
		"role", role,
		"tabindex", "-1")
	if opts.AriaLabel != "" {
		dom.SetAttr(el, "aria-label", opts.AriaLabel)
	}
	if opts.Content != nil {
		el.AppendChild(opts.Content)
	}
	pm.layer.AppendChild(el)

	entry := &popupEntry{el: el, opts: opts}
	if opts.Parent != nil {
		if parent := pm.findByHandleElement(opts.Parent.Element()); parent != nil {
			entry.parent = parent
			parent.children = append(parent.children, entry)
		}
	}
	pm.stack = append(pm.stack, entry)
	pm.focus(el)

	return &plugin.PopupHandle{
		CloseFn:   func() { pm.close(entry) },
		ElementFn: func() *html.Node { return el },
	}
}

func (pm *popupManager) findByHandleElement(el *html.Node) *popupEntry {
	for _, e := range pm.stack {
		if e.el == el {
			return e
		}
	}
	return nil
}

// close removes a popup and all its descendants, then restores focus to the
// trigger.
func (pm *popupManager) close(entry *popupEntry) {
	if entry.closed {
		return
	}
	entry.closed = true
	for i := len(entry.children) - 1; i >= 0; i-- {
		pm.close(entry.children[i])
	}
	dom.Detach(entry.el)
	for i, e := range pm.stack {
		if e == entry {
			pm.stack = append(pm.stack[:i:i], pm.stack[i+1:]...)
			break
		}
	}
	if entry.opts.OnClose != nil {
		entry.opts.OnClose()
	}
	if entry.opts.RestoreFocusTo != nil {
		pm.focus(entry.opts.RestoreFocusTo)
	} else if entry.opts.Anchor != nil {
		pm.focus(entry.opts.Anchor)
	}
}

// closeTop closes the most recent popup; Escape is bound to this. Reports
// whether a popup was open.
func (pm *popupManager) closeTop() bool {
	if len(pm.stack) == 0 {
		return false
	}
	pm.close(pm.stack[len(pm.stack)-1])
	return true
}

// closeAll tears down every popup, newest first.
func (pm *popupManager) closeAll() {
	for len(pm.stack) > 0 {
		pm.close(pm.stack[len(pm.stack)-1])
	}
}
