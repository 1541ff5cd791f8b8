// Package editor is the host shell: it assembles the schema registry from
// built-in and plugin specs, runs the plugin lifecycle, owns the dispatch
// pipeline with its middleware chain and reentrancy discipline, and exposes
// the public editing surface (JSON/HTML round-trip, commands, events,
// popups, the ARIA live region).
package editor

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/net/html"

	"github.com/notectl/notectl-go/dom"
	"github.com/notectl/notectl-go/htmlconv"
	"github.com/notectl/notectl-go/input"
	"github.com/notectl/notectl-go/model"
	"github.com/notectl/notectl-go/plugin"
	"github.com/notectl/notectl-go/schema/basic"
	"github.com/notectl/notectl-go/schema/list"
	"github.com/notectl/notectl-go/state"
	"github.com/notectl/notectl-go/transform"
	"github.com/notectl/notectl-go/view"
)

// Config holds the runtime-tunable editor settings.
type Config struct {
	Placeholder    string
	ReadOnly       bool
	HistoryDepth   int
	GroupingWindow time.Duration
	AriaLabel      string
}

// Option configures an Editor at construction.
type Option func(*Editor)

// WithHost sets the environment bridge. Defaults to the headless host.
func WithHost(h dom.Host) Option {
	return func(ed *Editor) { ed.host = h }
}

// WithLogger sets the structured logger. If nil, slog.Default is used.
func WithLogger(l *slog.Logger) Option {
	return func(ed *Editor) {
		if l != nil {
			ed.log = l
		}
	}
}

// WithPlugins adds plugins to the editor.
func WithPlugins(plugins ...*plugin.Plugin) Option {
	return func(ed *Editor) { ed.pluginList = append(ed.pluginList, plugins...) }
}

// WithConfig sets the initial configuration.
func WithConfig(cfg Config) Option {
	return func(ed *Editor) { ed.cfg = cfg }
}

// WithDocument sets the initial document. Defaults to a single empty
// paragraph.
func WithDocument(doc *model.Document) Option {
	return func(ed *Editor) { ed.initialDoc = doc }
}

// Editor is one editor instance. All shared structures (registry, keymaps,
// state, history, popup DOM) are owned here and mutated only through the
// dispatch pipeline.
type Editor struct {
	id   string
	log  *slog.Logger
	host dom.Host
	cfg  Config

	pluginList []*plugin.Plugin
	initialDoc *model.Document

	reg          *model.Registry
	manager      *plugin.Manager
	keymap       *plugin.Keymap
	chain        *plugin.Chain
	commands     map[string]plugin.Command
	viewCommands map[string]plugin.ViewCommand
	pluginCfgs   map[string]interface{}

	st      *state.EditorState
	history *state.History
	v       *view.View
	handler *input.Handler

	events *emitter
	popups *popupManager

	shell       *html.Node
	topSlot     *html.Node
	bottomSlot  *html.Node
	liveRegion  *html.Node
	readonly    bool
	placeholder string

	inNotify      bool
	dispatchDepth int
	queue         []*transform.Transaction

	initialized bool
	destroyed   bool
}

// New creates an editor. Nothing runs until Init.
func New(opts ...Option) *Editor {
	ed := &Editor{
		id:           string(model.NewBlockID()),
		log:          slog.Default(),
		host:         dom.NewHeadlessHost(),
		events:       newEmitter(),
		commands:     map[string]plugin.Command{},
		viewCommands: map[string]plugin.ViewCommand{},
		pluginCfgs:   map[string]interface{}{},
	}
	for _, opt := range opts {
		opt(ed)
	}
	return ed
}

// Init brings the editor up: schema assembly, plugin phases, view mount.
// It is idempotent; a second call returns the first outcome. Fatal failures
// emit initError and leave the editor unusable.
func (ed *Editor) Init(ctx context.Context) error {
	if ed.initialized {
		return nil
	}
	if ed.destroyed {
		return model.NewConfigError("init on a destroyed editor")
	}
	if err := ed.init(ctx); err != nil {
		ed.events.emit(EventInitError, err)
		ed.teardownAfterFailedInit()
		return err
	}
	ed.initialized = true
	ed.events.emit(EventReady, nil)
	return nil
}

func (ed *Editor) init(ctx context.Context) error {
	_ = ctx
	ed.readonly = ed.cfg.ReadOnly
	ed.placeholder = ed.cfg.Placeholder

	manager, err := plugin.NewManager(ed.pluginList...)
	if err != nil {
		return err
	}
	ed.manager = manager

	// Phase 0: assemble the schema from built-ins plus plugin specs, then
	// freeze it. Nothing may register after this point.
	ed.reg = model.NewRegistry()
	if err := basic.Register(ed.reg); err != nil {
		return err
	}
	if err := list.Register(ed.reg); err != nil {
		return err
	}
	if err := manager.RegisterSpecs(ed.reg); err != nil {
		return err
	}

	ed.keymap = plugin.NewKeymap()
	ed.chain = plugin.NewChain()
	ed.chain.Append(ed.readonlyMiddleware)

	// Collect commands, keymaps, middleware and reducers the plugins carry
	// as data, then run their Init hooks for the dynamic ones.
	reducers := map[string]state.PluginReducer{}
	for _, p := range manager.Plugins() {
		for name, cmd := range p.Commands {
			ed.commands[name] = cmd
		}
		for name, cmd := range p.ViewCommands {
			ed.viewCommands[name] = cmd
		}
		for _, entry := range p.Keymaps {
			ed.keymap.Register(entry.Bindings, entry.Priority)
		}
		for _, mw := range p.Middleware {
			ed.chain.Append(mw)
		}
		if p.Reducer != nil {
			reducers[p.ID] = p.Reducer
		}
	}
	if err := manager.InitAll(ed.pluginContext); err != nil {
		return err
	}
	ed.reg.Freeze()

	doc := ed.initialDoc
	if doc == nil {
		para, err := model.NewBlock(ed.reg, "paragraph", nil, nil, nil)
		if err != nil {
			return err
		}
		doc = model.NewDocument(para)
	} else if err := model.Validate(ed.reg, doc); err != nil {
		return err
	}
	ed.st = state.NewEditorState(&state.Config{Registry: ed.reg, Reducers: reducers}, doc, nil)
	ed.history = state.NewHistory(state.HistoryOptions{
		Depth:          ed.cfg.HistoryDepth,
		GroupingWindow: ed.cfg.GroupingWindow,
	})

	// Phase 2: the view mounts against the frozen schema.
	ed.v = view.New(ed.host, ed.st)
	ed.v.SetReadonly(ed.readonly)
	applyContentARIA(ed.v.Root(), ed.cfg.AriaLabel, ed.readonly)
	ed.applyPlaceholder()
	shell, top, bottom, popupLayer, live := buildShell(ed.v.Root())
	ed.shell, ed.topSlot, ed.bottomSlot, ed.liveRegion = shell, top, bottom, live
	ed.popups = newPopupManager(popupLayer, nil)

	ed.handler = input.NewHandler(ed.v, ed.keymap, ed.Dispatch, ed.Undo, ed.Redo, ed.id, ed.log)
	ed.handler.RegisterKeymaps()
	// Escape closes the top popup before anything else sees the key, and is
	// always allowed, readonly included.
	ed.keymap.Register(map[string]plugin.KeyHandler{
		"Escape": func(env *plugin.Env) bool { return ed.popups.closeTop() },
	}, plugin.PriorityContext)
	ed.registerBuiltinCommands()

	// Phases 3 and 4: DOM-dependent plugin setup, then ready.
	if err := manager.BeforeReadyAll(ed.pluginContext); err != nil {
		return err
	}
	if err := manager.ReadyAll(ed.pluginContext); err != nil {
		return err
	}
	return nil
}

func (ed *Editor) teardownAfterFailedInit() {
	if ed.manager != nil {
		ed.manager.DestroyAll()
	}
	ed.destroyed = true
}

// Destroy tears the editor down: plugins in reverse topological order, then
// popups and listeners.
func (ed *Editor) Destroy() {
	if ed.destroyed {
		return
	}
	ed.destroyed = true
	if ed.popups != nil {
		ed.popups.closeAll()
	}
	if ed.manager != nil {
		ed.manager.DestroyAll()
	}
	ed.events = newEmitter()
}

// pluginContext builds the context handed to one plugin.
func (ed *Editor) pluginContext(p *plugin.Plugin) *plugin.Context {
	return &plugin.Context{
		StateFn:    ed.State,
		DispatchFn: ed.Dispatch,
		ContainerFn: func() *html.Node {
			if ed.v == nil {
				return nil
			}
			return ed.v.Root()
		},
		PluginContainerFn: func(slot string) *html.Node {
			if slot == "bottom" {
				return ed.bottomSlot
			}
			return ed.topSlot
		},
		RegisterKeymapFn: func(bindings map[string]plugin.KeyHandler, priority plugin.Priority) {
			ed.keymap.Register(bindings, priority)
		},
		RegisterCommandFn: func(name string, cmd plugin.Command) error {
			if _, exists := ed.commands[name]; exists {
				return model.NewConfigError("duplicate command %q", name)
			}
			ed.commands[name] = cmd
			return nil
		},
		RegisterMiddlewareFn: func(m plugin.Middleware) { ed.chain.Append(m) },
		AnnounceFn:           ed.Announce,
		OpenPopupFn: func(opts plugin.PopupOptions) *plugin.PopupHandle {
			return ed.popups.open(opts)
		},
		Log: ed.log,
	}
}

// State returns the current editor state.
func (ed *Editor) State() *state.EditorState {
	return ed.st
}

// View returns the mounted view, nil before Init.
func (ed *Editor) View() *view.View {
	return ed.v
}

// InputHandler returns the input pipeline entry points the environment
// feeds events into.
func (ed *Editor) InputHandler() *input.Handler {
	return ed.handler
}

// Element returns the editor's root element tree.
func (ed *Editor) Element() *html.Node {
	return ed.shell
}

// On subscribes to an editor event; the returned function unsubscribes.
func (ed *Editor) On(event string, cb func(payload interface{})) func() {
	return ed.events.on(event, cb)
}

// Announce pushes text into the ARIA live region.
func (ed *Editor) Announce(message string) {
	if ed.liveRegion != nil {
		announce(ed.liveRegion, message)
	}
}

// Dispatch routes a transaction through middleware into the state. Inside a
// notification pass the transaction is queued and runs after the pass; a
// cascade deeper than the reentrancy bound is dropped with a
// ConcurrencyError.
func (ed *Editor) Dispatch(tr *transform.Transaction) error {
	if ed.destroyed || ed.st == nil {
		return model.NewConfigError("dispatch on an editor that is not running")
	}
	if tr == nil {
		return nil
	}
	if ed.inNotify {
		if ed.dispatchDepth >= maxDispatchDepth {
			err := &ConcurrencyError{Depth: ed.dispatchDepth}
			ed.log.Error("transaction dropped", "error", err, "origin", tr.Origin)
			return err
		}
		ed.queue = append(ed.queue, tr)
		return nil
	}
	ed.run(tr)
	return nil
}

// run sends one transaction through the chain and drains any queued
// cascade.
func (ed *Editor) run(tr *transform.Transaction) {
	ed.chain.Run(tr, ed.st, ed.commit)
	for len(ed.queue) > 0 {
		next := ed.queue[0]
		ed.queue = ed.queue[1:]
		ed.dispatchDepth++
		ed.chain.Run(next, ed.st, ed.commit)
	}
	ed.dispatchDepth = 0
}

// commit applies a transaction that survived middleware. Validation
// failures drop it silently (logged); events fire after the state is
// swapped and before the view patch is scheduled.
func (ed *Editor) commit(tr *transform.Transaction) {
	old := ed.st
	next, err := old.Apply(tr)
	if err != nil {
		ed.log.Warn("transaction rejected", "origin", tr.Origin, "error", err)
		return
	}
	if next == old {
		return
	}
	ed.history.Record(old, tr)
	ed.st = next

	ed.events.emit(EventStateChange, next)
	if !selectionsEqual(old.Selection, next.Selection) {
		ed.events.emit(EventSelectionChange, next.Selection)
	}

	ed.inNotify = true
	for _, p := range ed.manager.Plugins() {
		if p.OnStateChange != nil {
			p.OnStateChange(old, next, tr)
		}
	}
	ed.inNotify = false

	ed.v.SetState(next, ed.collectDecorations(next, tr))
	ed.applyPlaceholder()
}

func selectionsEqual(a, b model.Selection) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Eq(b)
}

// collectDecorations polls every plugin and merges the sets.
func (ed *Editor) collectDecorations(s *state.EditorState, tr *transform.Transaction) *plugin.DecorationSet {
	var sets []*plugin.DecorationSet
	for _, p := range ed.manager.Plugins() {
		if p.Decorations != nil {
			sets = append(sets, p.Decorations(s, tr))
		}
	}
	return plugin.Merge(sets...)
}

// applyPlaceholder reflects the empty-document placeholder into the DOM.
func (ed *Editor) applyPlaceholder() {
	if ed.v == nil {
		return
	}
	empty := len(ed.st.Doc.Children) == 1 &&
		len(ed.st.Doc.Children[0].Inline) == 0 &&
		len(ed.st.Doc.Children[0].Children) == 0
	if ed.placeholder != "" && empty {
		dom.SetAttr(ed.v.Root(), "data-placeholder", ed.placeholder)
	} else {
		dom.RemoveAttr(ed.v.Root(), "data-placeholder")
	}
}

// Configure applies runtime updates: placeholder, readonly, history depth.
func (ed *Editor) Configure(cfg Config) {
	if cfg.Placeholder != ed.placeholder {
		ed.placeholder = cfg.Placeholder
		ed.applyPlaceholder()
	}
	if cfg.HistoryDepth > 0 && ed.history != nil {
		ed.history.SetDepth(cfg.HistoryDepth)
	}
	if cfg.ReadOnly != ed.readonly {
		ed.readonly = cfg.ReadOnly
		if ed.v != nil {
			ed.v.SetReadonly(ed.readonly)
			applyContentARIA(ed.v.Root(), ed.cfg.AriaLabel, ed.readonly)
		}
	}
}

// ConfigurePlugin delegates configuration to the plugin's config reducer.
func (ed *Editor) ConfigurePlugin(id string, cfg interface{}) error {
	p, ok := ed.manager.Get(id)
	if !ok {
		return model.NewConfigError("unknown plugin %q", id)
	}
	if p.ConfigReducer == nil {
		return model.NewConfigError("plugin %q accepts no configuration", id)
	}
	ed.pluginCfgs[id] = p.ConfigReducer(ed.pluginCfgs[id], cfg)
	return nil
}

// PluginConfig reads a plugin's current configuration.
func (ed *Editor) PluginConfig(id string) interface{} {
	return ed.pluginCfgs[id]
}

// Readonly reports the readonly flag.
func (ed *Editor) Readonly() bool {
	return ed.readonly
}

// Undo rolls back the newest history entry.
func (ed *Editor) Undo() bool {
	if ed.readonly || ed.history == nil {
		return false
	}
	tr := ed.history.Undo(ed.st)
	if tr == nil {
		return false
	}
	return ed.Dispatch(tr) == nil
}

// Redo re-applies the newest undone entry.
func (ed *Editor) Redo() bool {
	if ed.readonly || ed.history == nil {
		return false
	}
	tr := ed.history.Redo(ed.st)
	if tr == nil {
		return false
	}
	return ed.Dispatch(tr) == nil
}

// GetJSON serializes the document.
func (ed *Editor) GetJSON() ([]byte, error) {
	return model.MarshalDocument(ed.st.Doc)
}

// SetJSON replaces the document from its JSON form. Unknown types return a
// SchemaError and leave the state untouched.
func (ed *Editor) SetJSON(raw []byte) error {
	doc, err := model.UnmarshalDocument(ed.reg, raw)
	if err != nil {
		return err
	}
	return ed.replaceDocument(doc.Children)
}

// GetHTML serializes the document to sanitized HTML.
func (ed *Editor) GetHTML() string {
	return htmlconv.Serialize(ed.reg, ed.st.Doc)
}

// SetHTML replaces the document from sanitized HTML.
func (ed *Editor) SetHTML(fragment string) error {
	blocks, err := htmlconv.Parse(ed.reg, fragment)
	if err != nil {
		return err
	}
	if len(blocks) == 0 {
		para, err := model.NewBlock(ed.reg, "paragraph", nil, nil, nil)
		if err != nil {
			return err
		}
		blocks = []*model.Block{para}
	}
	return ed.replaceDocument(blocks)
}

// GetText returns the newline-joined block text.
func (ed *Editor) GetText() string {
	return model.Text(ed.reg, ed.st.Doc)
}

func (ed *Editor) replaceDocument(blocks []*model.Block) error {
	tr := ed.st.NewTransaction(transform.OriginAPI)
	tr.SetMeta(ReadonlyOverrideMeta, true)
	tr.ReplaceBlocks("", 0, len(ed.st.Doc.Children), blocks...)
	if err := tr.Err(); err != nil {
		return err
	}
	tr.SetSelection(nil)
	return ed.Dispatch(tr)
}

// registerBuiltinCommands installs the named command shortcuts.
func (ed *Editor) registerBuiltinCommands() {
	ed.commands["selectAll"] = input.SelectAll
	ed.commands["toggleBold"] = input.ToggleMark("strong", nil)
	ed.commands["toggleItalic"] = input.ToggleMark("em", nil)
	ed.commands["toggleUnderline"] = input.ToggleMark("underline", nil)
	ed.commands["toggleStrike"] = input.ToggleMark("strike", nil)
	ed.commands["toggleCode"] = input.ToggleMark("code", nil)
	ed.commands["splitBlock"] = input.SplitBlock
	ed.commands["deleteBackward"] = input.DeleteBackward
	ed.commands["deleteForward"] = input.DeleteForward
}

// ExecuteCommand resolves a named command, runs it against the current
// state and dispatches the result. Returns false when the command is
// unknown or not applicable.
func (ed *Editor) ExecuteCommand(name string) bool {
	switch name {
	case "undo":
		return ed.Undo()
	case "redo":
		return ed.Redo()
	}
	if cmd, ok := ed.commands[name]; ok {
		tr := cmd(ed.st)
		if tr == nil {
			return false
		}
		return ed.Dispatch(tr) == nil
	}
	if cmd, ok := ed.viewCommands[name]; ok {
		tr := cmd(ed.v)
		if tr == nil {
			return false
		}
		return ed.Dispatch(tr) == nil
	}
	return false
}

// Can reports which commands are currently applicable, without dispatching
// anything.
func (ed *Editor) Can() map[string]bool {
	result := map[string]bool{
		"undo": !ed.readonly && ed.history.CanUndo(),
		"redo": !ed.readonly && ed.history.CanRedo(),
	}
	for name, cmd := range ed.commands {
		result[name] = cmd(ed.st) != nil
	}
	for name, cmd := range ed.viewCommands {
		result[name] = cmd(ed.v) != nil
	}
	return result
}

// Focus marks the editor focused and emits the event. The environment calls
// this from its focus listener.
func (ed *Editor) Focus() {
	ed.events.emit(EventFocus, nil)
}

// Blur mirrors Focus.
func (ed *Editor) Blur() {
	ed.events.emit(EventBlur, nil)
}

// ID returns the instance fingerprint used for internal drag sources.
func (ed *Editor) ID() string {
	return ed.id
}
