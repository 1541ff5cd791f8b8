package plugin

import (
	"strings"

	"github.com/notectl/notectl-go/dom"
)

// Priority buckets for keymap dispatch, strictly ordered: context handlers
// run before navigation handlers, which run before defaults.
type Priority int

const (
	PriorityContext Priority = iota
	PriorityNavigation
	PriorityDefault
)

// KeyName canonicalizes a key event to the binding syntax: modifiers in
// Ctrl-Alt-Shift-Meta order, then the DOM key value, e.g. "Ctrl-b",
// "Shift-Tab", "ArrowLeft".
func KeyName(ev dom.KeyEvent) string {
	var b strings.Builder
	if ev.Ctrl {
		b.WriteString("Ctrl-")
	}
	if ev.Alt {
		b.WriteString("Alt-")
	}
	if ev.Shift && (len(ev.Key) > 1 || ev.Ctrl || ev.Alt || ev.Meta) {
		// For a printable key with no other modifier, shift is already part
		// of the key value ("B" vs "b") and is not recorded. In a chord it
		// distinguishes Ctrl-Shift-z from Ctrl-z.
		b.WriteString("Shift-")
	}
	if ev.Meta {
		b.WriteString("Meta-")
	}
	key := ev.Key
	if len(key) == 1 {
		key = strings.ToLower(key)
	}
	b.WriteString(key)
	return b.String()
}

type binding struct {
	handler KeyHandler
	serial  int
}

// Keymap is the editor's key dispatch table: three buckets, each holding
// bindings in registration order. Within a bucket the last-registered
// handler runs first; dispatch stops at the first handler returning true.
type Keymap struct {
	buckets [3]map[string][]binding
	serial  int
}

// NewKeymap creates an empty keymap table.
func NewKeymap() *Keymap {
	km := &Keymap{}
	for i := range km.buckets {
		km.buckets[i] = map[string][]binding{}
	}
	return km
}

// Register adds bindings in the given bucket.
func (km *Keymap) Register(bindings map[string]KeyHandler, priority Priority) {
	if priority < PriorityContext || priority > PriorityDefault {
		priority = PriorityDefault
	}
	for key, handler := range bindings {
		km.serial++
		km.buckets[priority][key] = append(km.buckets[priority][key], binding{handler: handler, serial: km.serial})
	}
}

// Dispatch runs the handlers bound to a key. Returns true when one of them
// consumed it.
func (km *Keymap) Dispatch(key string, env *Env) bool {
	return km.DispatchUpTo(key, env, PriorityDefault)
}

// DispatchUpTo dispatches through buckets from context down to last. Keymap
// dispatch during IME composition stops after the context bucket.
func (km *Keymap) DispatchUpTo(key string, env *Env, last Priority) bool {
	for priority := PriorityContext; priority <= last; priority++ {
		bindings := km.buckets[priority][key]
		for i := len(bindings) - 1; i >= 0; i-- {
			if bindings[i].handler(env) {
				return true
			}
		}
	}
	return false
}

// Has reports whether any handler is bound to the key.
func (km *Keymap) Has(key string) bool {
	for priority := PriorityContext; priority <= PriorityDefault; priority++ {
		if len(km.buckets[priority][key]) > 0 {
			return true
		}
	}
	return false
}
