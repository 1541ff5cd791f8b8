// Package plugin implements the editor's plugin runtime: the plugin record
// and lifecycle, dependency-ordered initialization, the priority keymap
// table, the command registry, transaction middleware, and decoration sets.
package plugin

import (
	"log/slog"

	"golang.org/x/net/html"

	"github.com/notectl/notectl-go/state"
	"github.com/notectl/notectl-go/transform"

	"github.com/notectl/notectl-go/model"
)

// View is the slice of the editor view that commands and key handlers may
// touch: enough for layout-aware decisions without a dependency on the view
// package.
type View interface {
	// State returns the current editor state.
	State() *state.EditorState
	// EndOfTextblock probes whether the caret sits at the visual edge of its
	// textblock in the given direction ("left", "right", "up", "down").
	EndOfTextblock(dir string) bool
}

// Command is a pure function from state to a transaction. Returning nil
// means the command is not applicable right now; Can() keys off that.
type Command func(s *state.EditorState) *transform.Transaction

// ViewCommand is a command that needs layout measurement.
type ViewCommand func(v View) *transform.Transaction

// Env is what key handlers run against: the live state, the dispatch
// pipeline and the view probe.
type Env struct {
	State    *state.EditorState
	Dispatch func(tr *transform.Transaction) error
	View     View
}

// KeyHandler handles one key chord. Returning true consumes the event and
// stops dispatch.
type KeyHandler func(env *Env) bool

// Middleware inspects, rewrites or drops a transaction before it commits.
// It must call next with the final transaction to commit it; not calling
// next drops the transaction.
type Middleware func(tr *transform.Transaction, s *state.EditorState, next func(*transform.Transaction))

// KeymapEntry is one keymap contribution: bindings plus the bucket they
// dispatch in.
type KeymapEntry struct {
	Priority Priority
	Bindings map[string]KeyHandler
}

// Plugin is a unit of editor functionality: specs, commands, keymaps,
// middleware, decorations and lifecycle hooks, all as data. Only ID is
// required.
type Plugin struct {
	ID   string
	Deps []string

	// Contributed schema specs, registered before the registry freezes.
	NodeSpecs []*model.NodeSpec
	MarkSpecs []*model.MarkSpec

	// Named commands this plugin provides.
	Commands     map[string]Command
	ViewCommands map[string]ViewCommand

	// Keymaps contributed at init.
	Keymaps []KeymapEntry

	// Middleware contributed at init, run in plugin order.
	Middleware []Middleware

	// Decorations is polled after every state change.
	Decorations func(s *state.EditorState, tr *transform.Transaction) *DecorationSet

	// OnStateChange runs synchronously with each new state.
	OnStateChange func(old, new *state.EditorState, tr *transform.Transaction)

	// Reducer folds transactions into this plugin's state blob.
	Reducer state.PluginReducer

	// ConfigReducer folds runtime configuration updates into the plugin's
	// configuration.
	ConfigReducer func(prev interface{}, cfg interface{}) interface{}

	// Lifecycle hooks, in call order. Init may register commands, keymaps
	// and middleware (specs come from NodeSpecs and MarkSpecs, registered
	// before any Init runs); OnBeforeReady may touch the DOM; OnReady runs right before
	// the editor emits ready; Destroy tears down in reverse init order.
	Init          func(ctx *Context) error
	OnBeforeReady func(ctx *Context) error
	OnReady       func(ctx *Context) error
	Destroy       func()
}

// PopupOptions configure an editor popup.
type PopupOptions struct {
	Anchor         *html.Node
	Content        *html.Node
	AriaRole       string
	AriaLabel      string
	RestoreFocusTo *html.Node
	Parent         *PopupHandle
	OnClose        func()
}

// PopupHandle controls an open popup.
type PopupHandle struct {
	CloseFn   func()
	ElementFn func() *html.Node
}

// Close closes the popup and its descendants, restoring focus.
func (h *PopupHandle) Close() {
	if h != nil && h.CloseFn != nil {
		h.CloseFn()
	}
}

// Element returns the popup's root element.
func (h *PopupHandle) Element() *html.Node {
	if h == nil || h.ElementFn == nil {
		return nil
	}
	return h.ElementFn()
}

// Context is the surface the host hands each plugin. The function fields are
// wired by the editor; plugins call the methods.
type Context struct {
	StateFn              func() *state.EditorState
	DispatchFn           func(tr *transform.Transaction) error
	ContainerFn          func() *html.Node
	PluginContainerFn    func(slot string) *html.Node
	RegisterKeymapFn     func(bindings map[string]KeyHandler, priority Priority)
	RegisterCommandFn    func(name string, cmd Command) error
	RegisterMiddlewareFn func(m Middleware)
	AnnounceFn           func(message string)
	OpenPopupFn          func(opts PopupOptions) *PopupHandle
	Log                  *slog.Logger
}

// State returns the current editor state.
func (c *Context) State() *state.EditorState { return c.StateFn() }

// Dispatch sends a transaction through the middleware pipeline.
func (c *Context) Dispatch(tr *transform.Transaction) error { return c.DispatchFn(tr) }

// Container returns the editable content element.
func (c *Context) Container() *html.Node { return c.ContainerFn() }

// PluginContainer returns a stable DOM slot ("top" or "bottom") for
// toolbars and bars.
func (c *Context) PluginContainer(slot string) *html.Node { return c.PluginContainerFn(slot) }

// RegisterKeymap adds key bindings in the given priority bucket.
func (c *Context) RegisterKeymap(bindings map[string]KeyHandler, priority Priority) {
	c.RegisterKeymapFn(bindings, priority)
}

// RegisterCommand adds a named command.
func (c *Context) RegisterCommand(name string, cmd Command) error {
	return c.RegisterCommandFn(name, cmd)
}

// RegisterMiddleware appends transaction middleware.
func (c *Context) RegisterMiddleware(m Middleware) { c.RegisterMiddlewareFn(m) }

// Announce pushes text into the ARIA live region.
func (c *Context) Announce(message string) { c.AnnounceFn(message) }

// OpenPopup opens a stacked popup anchored to an element.
func (c *Context) OpenPopup(opts PopupOptions) *PopupHandle { return c.OpenPopupFn(opts) }

// Logger returns the editor's structured logger.
func (c *Context) Logger() *slog.Logger {
	if c.Log == nil {
		return slog.Default()
	}
	return c.Log
}
