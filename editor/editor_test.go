package editor_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/notectl/notectl-go/dom"
	. "github.com/notectl/notectl-go/editor"
	"github.com/notectl/notectl-go/model"
	"github.com/notectl/notectl-go/plugin"
	"github.com/notectl/notectl-go/state"
	"github.com/notectl/notectl-go/transform"
)

func newEditor(t *testing.T, opts ...Option) *Editor {
	t.Helper()
	ed := New(opts...)
	require.NoError(t, ed.Init(context.Background()))
	t.Cleanup(ed.Destroy)
	return ed
}

func typeText(ed *Editor, text string) {
	ed.InputHandler().HandleBeforeInput(dom.InputEvent{Type: dom.InsertText, Data: text})
}

func pressKey(ed *Editor, ev dom.KeyEvent) bool {
	return ed.InputHandler().HandleKeyDown(ev)
}

func TestTypeBoldUndo(t *testing.T) {
	ed := newEditor(t)

	// type Hello, select all, press the bold shortcut
	typeText(ed, "Hello")
	require.Equal(t, "Hello", ed.GetText())
	require.True(t, pressKey(ed, dom.KeyEvent{Key: "a", Ctrl: true}))
	require.True(t, pressKey(ed, dom.KeyEvent{Key: "b", Ctrl: true}))
	assert.Contains(t, ed.GetHTML(), "<strong>Hello</strong>")

	// undo removes the bold, the text stays
	require.True(t, ed.Undo())
	assert.NotContains(t, ed.GetHTML(), "<strong>")
	assert.Equal(t, "Hello", ed.GetText())
}

func TestSplitAndMergeScenario(t *testing.T) {
	ed := newEditor(t)
	typeText(ed, "HelloWorld")
	block := ed.State().Doc.Children[0].ID

	// move the caret to offset 5 and press Enter
	require.NoError(t, ed.Dispatch(ed.State().NewTransaction(transform.OriginAPI).
		SetSelection(model.NewCursor(model.Pos(block, 5)))))
	ed.InputHandler().HandleBeforeInput(dom.InputEvent{Type: dom.InsertParagraph})

	st := ed.State()
	require.Len(t, st.Doc.Children, 2)
	assert.Equal(t, "Hello\nWorld", ed.GetText())

	// Backspace at offset 0 of the second paragraph merges back
	ed.InputHandler().HandleBeforeInput(dom.InputEvent{Type: dom.DeleteContentBackward})
	st = ed.State()
	require.Len(t, st.Doc.Children, 1)
	assert.Equal(t, "HelloWorld", ed.GetText())
}

func TestVoidNavigationScenario(t *testing.T) {
	ed := newEditor(t)
	require.NoError(t, ed.SetJSON([]byte(`{"version":1,"children":[
		{"type":"paragraph","children":[{"text":"Before"}]},
		{"type":"horizontal_rule"},
		{"type":"paragraph","children":[{"text":"After"}]}]}`)))
	st := ed.State()
	hrID := st.Doc.Children[1].ID
	afterID := st.Doc.Children[2].ID

	// clicking the HR selects it as a node
	require.True(t, ed.InputHandler().HandleClick(hrID))
	_, ok := ed.State().Selection.(*model.NodeSelection)
	require.True(t, ok)

	// ArrowRight lands at offset 0 of After
	require.True(t, pressKey(ed, dom.KeyEvent{Key: "ArrowRight"}))
	sel, ok := ed.State().Selection.(*model.TextSelection)
	require.True(t, ok)
	assert.Equal(t, afterID, sel.Head.Block)
	assert.Equal(t, 0, sel.Head.Offset)

	// ArrowLeft from there selects the HR again
	require.True(t, pressKey(ed, dom.KeyEvent{Key: "ArrowLeft"}))
	ns, ok := ed.State().Selection.(*model.NodeSelection)
	require.True(t, ok)
	assert.Equal(t, hrID, ns.Node)
}

func TestGapCursorAtDocStart(t *testing.T) {
	ed := newEditor(t)
	require.NoError(t, ed.SetJSON([]byte(`{"version":1,"children":[
		{"type":"horizontal_rule"},
		{"type":"paragraph","children":[{"text":"After"}]}]}`)))
	hrID := ed.State().Doc.Children[0].ID

	require.True(t, ed.InputHandler().HandleClick(hrID))
	require.True(t, pressKey(ed, dom.KeyEvent{Key: "ArrowLeft"}))

	gap, ok := ed.State().Selection.(*model.GapCursor)
	require.True(t, ok)
	assert.Equal(t, hrID, gap.Block)
	assert.Equal(t, model.SideBefore, gap.Side)
}

func TestPasteHTMLScenario(t *testing.T) {
	ed := newEditor(t)
	tf := dom.NewDataTransfer()
	tf.SetData("text/html", `<p><strong>Bold</strong> and <em>italic</em></p>`)
	require.True(t, ed.InputHandler().HandleBeforeInput(dom.InputEvent{Type: dom.InsertFromPaste, Transfer: tf}))

	st := ed.State()
	require.Len(t, st.Doc.Children, 1)
	runs := st.Doc.Children[0].Inline
	require.Len(t, runs, 3)
	assert.NotNil(t, model.MarkTypeInSet("strong", runs[0].(*model.TextRun).Marks))
	assert.Equal(t, " and ", runs[1].(*model.TextRun).Text)
	assert.NotNil(t, model.MarkTypeInSet("em", runs[2].(*model.TextRun).Marks))
}

func TestIMECompositionScenario(t *testing.T) {
	ed := newEditor(t)
	handler := ed.InputHandler()
	var commits int
	defer ed.On(EventStateChange, func(interface{}) { commits++ })()

	handler.HandleCompositionStart()
	// insertCompositionText stays unhandled; the IME owns the DOM
	assert.False(t, handler.HandleBeforeInput(dom.InputEvent{Type: dom.InsertCompositionText, Data: "か"}))
	handler.HandleCompositionEnd(dom.CompositionEvent{Data: "か"})

	assert.Equal(t, "か", ed.GetText())
	// exactly one committed transaction for the whole composition
	assert.Equal(t, 1, commits)

	// undo removes exactly the composed text
	require.True(t, ed.Undo())
	assert.Equal(t, "", ed.GetText())
}

func TestReadonlyEnforcement(t *testing.T) {
	ed := newEditor(t)
	typeText(ed, "X")
	require.Equal(t, "X", ed.GetText())

	ed.Configure(Config{ReadOnly: true})

	// backspace, undo and paste all leave the document alone
	ed.InputHandler().HandleBeforeInput(dom.InputEvent{Type: dom.DeleteContentBackward})
	assert.False(t, ed.Undo())
	tf := dom.NewDataTransfer()
	tf.SetData("text/plain", "nope")
	ed.InputHandler().HandleBeforeInput(dom.InputEvent{Type: dom.InsertFromPaste, Transfer: tf})
	assert.Equal(t, "X", ed.GetText())

	// navigation still works while readonly
	block := ed.State().Doc.Children[0].ID
	require.NoError(t, ed.Dispatch(ed.State().NewTransaction(transform.OriginUser).
		SetSelection(model.NewCursor(model.Pos(block, 0)))))
	sel := ed.State().Selection.(*model.TextSelection)
	require.Equal(t, 0, sel.Head.Offset)

	ed.Configure(Config{ReadOnly: false})
	require.NoError(t, ed.Dispatch(ed.State().NewTransaction(transform.OriginUser).
		SetSelection(model.NewCursor(model.Pos(block, 1)))))
	ed.InputHandler().HandleBeforeInput(dom.InputEvent{Type: dom.DeleteContentBackward})
	assert.Equal(t, "", ed.GetText())
}

func TestJSONRoundTripThroughEditor(t *testing.T) {
	ed := newEditor(t)
	typeText(ed, "persist me")
	raw, err := ed.GetJSON()
	require.NoError(t, err)

	ed2 := newEditor(t)
	require.NoError(t, ed2.SetJSON(raw))
	assert.True(t, ed.State().Doc.Eq(ed2.State().Doc))
}

func TestSetJSONUnknownTypeThrows(t *testing.T) {
	ed := newEditor(t)
	typeText(ed, "keep")
	err := ed.SetJSON([]byte(`{"version":1,"children":[{"type":"alien"}]}`))
	require.Error(t, err)
	var schemaErr *model.SchemaError
	assert.ErrorAs(t, err, &schemaErr)

	// the state is untouched
	assert.Equal(t, "keep", ed.GetText())
}

func TestPluginLifecycleAndCommands(t *testing.T) {
	var phases []string
	p := &plugin.Plugin{
		ID: "probe",
		Commands: map[string]plugin.Command{
			"probe": func(s *state.EditorState) *transform.Transaction {
				return nil
			},
		},
		Init:          func(ctx *plugin.Context) error { phases = append(phases, "init"); return nil },
		OnBeforeReady: func(ctx *plugin.Context) error { phases = append(phases, "beforeReady"); return nil },
		OnReady:       func(ctx *plugin.Context) error { phases = append(phases, "ready"); return nil },
		Destroy:       func() { phases = append(phases, "destroy") },
	}
	ed := New(WithPlugins(p))
	var events []string
	ed.On(EventReady, func(interface{}) { events = append(events, "ready") })
	require.NoError(t, ed.Init(context.Background()))
	assert.Equal(t, []string{"init", "beforeReady", "ready"}, phases)
	assert.Equal(t, []string{"ready"}, events)

	// a nil-returning command is reported as not applicable
	assert.False(t, ed.ExecuteCommand("probe"))
	assert.False(t, ed.Can()["probe"])

	ed.Destroy()
	assert.Contains(t, phases, "destroy")
}

func TestPluginSpecContribution(t *testing.T) {
	p := &plugin.Plugin{
		ID:        "callout",
		NodeSpecs: []*model.NodeSpec{{Name: "callout", Content: model.KindInline, Tag: "aside"}},
	}
	ed := newEditor(t, WithPlugins(p))
	require.NoError(t, ed.SetJSON([]byte(`{"version":1,"children":[{"type":"callout","children":[{"text":"note"}]}]}`)))
	assert.Equal(t, "note", ed.GetText())
	assert.Contains(t, ed.GetHTML(), "<aside")
}

func TestPluginMiddlewareCanDropTransactions(t *testing.T) {
	p := &plugin.Plugin{
		ID: "censor",
		Middleware: []plugin.Middleware{
			func(tr *transform.Transaction, s *state.EditorState, next func(*transform.Transaction)) {
				if tr.Origin == transform.OriginUser && tr.DocChanged() {
					return // drop all user edits
				}
				next(tr)
			},
		},
	}
	ed := newEditor(t, WithPlugins(p))
	typeText(ed, "blocked")
	assert.Equal(t, "", ed.GetText())
}

func TestOnStateChangeRunsOncePerCommit(t *testing.T) {
	seen := 0
	p := &plugin.Plugin{ID: "chained"}
	p.OnStateChange = func(old, new *state.EditorState, tr *transform.Transaction) {
		seen++
	}
	ed := newEditor(t, WithPlugins(p))
	typeText(ed, "a")
	assert.Equal(t, 1, seen)
}

func TestCanReflectsHistory(t *testing.T) {
	ed := newEditor(t)
	assert.False(t, ed.Can()["undo"])
	typeText(ed, "x")
	assert.True(t, ed.Can()["undo"])
	require.True(t, ed.Undo())
	assert.True(t, ed.Can()["redo"])
}

func TestPopupsStack(t *testing.T) {
	var closed []string
	var parent, child *plugin.PopupHandle
	probe := &plugin.Plugin{
		ID: "probe",
		OnReady: func(ctx *plugin.Context) error {
			parent = ctx.OpenPopup(plugin.PopupOptions{
				AriaLabel: "parent",
				OnClose:   func() { closed = append(closed, "parent") },
			})
			child = ctx.OpenPopup(plugin.PopupOptions{
				AriaLabel: "child",
				Parent:    parent,
				OnClose:   func() { closed = append(closed, "child") },
			})
			return nil
		},
	}
	newEditor(t, WithPlugins(probe))
	require.NotNil(t, parent)
	require.NotNil(t, child)

	// closing the parent closes the child first
	parent.Close()
	assert.Equal(t, []string{"child", "parent"}, closed)
}

func TestEscapeClosesTopPopup(t *testing.T) {
	var closed bool
	probe := &plugin.Plugin{
		ID: "probe",
		OnReady: func(ctx *plugin.Context) error {
			ctx.OpenPopup(plugin.PopupOptions{OnClose: func() { closed = true }})
			return nil
		},
	}
	ed := newEditor(t, WithPlugins(probe))
	assert.True(t, pressKey(ed, dom.KeyEvent{Key: "Escape"}))
	assert.True(t, closed)

	// no popup left: Escape falls through
	assert.False(t, pressKey(ed, dom.KeyEvent{Key: "Escape"}))
}

func TestAnnounceFillsLiveRegion(t *testing.T) {
	ed := newEditor(t)
	ed.Announce("saved")
	live := dom.FindByAttr(ed.Element(), "data-live-region", "true")
	require.NotNil(t, live)
	assert.Equal(t, "saved", live.FirstChild.Data)
}

func TestInitCycleFails(t *testing.T) {
	ed := New(WithPlugins(
		&plugin.Plugin{ID: "a", Deps: []string{"b"}},
		&plugin.Plugin{ID: "b", Deps: []string{"a"}},
	))
	var initErr error
	ed.On(EventInitError, func(payload interface{}) {
		initErr, _ = payload.(error)
	})
	err := ed.Init(context.Background())
	require.Error(t, err)
	assert.Error(t, initErr)
	var cfgErr *model.ConfigError
	assert.ErrorAs(t, err, &cfgErr)
}

func TestSetHTMLRoundTrip(t *testing.T) {
	ed := newEditor(t)
	require.NoError(t, ed.SetHTML(`<h1>Title</h1><p>Body <strong>text</strong></p>`))
	assert.Equal(t, "Title\nBody text", ed.GetText())
	out := ed.GetHTML()
	assert.Contains(t, out, "<h1>Title</h1>")
	assert.Contains(t, out, "<strong>text</strong>")
}
