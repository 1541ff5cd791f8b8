// Package state implements the editor's immutable state record and the
// transaction-application pipeline: steps run in the transaction builder,
// Apply validates the result, maps and repairs the selection, reduces plugin
// states, and hands back a fresh state. The old state stays valid forever.
package state

import (
	"github.com/notectl/notectl-go/model"
	"github.com/notectl/notectl-go/transform"
)

// PluginReducer folds a transaction into one plugin's opaque state blob.
type PluginReducer func(prev interface{}, tr *transform.Transaction, newState *EditorState) interface{}

// Config is the immutable configuration shared by all states of one editor:
// the frozen registry and the plugin state reducers.
type Config struct {
	Registry *model.Registry
	Reducers map[string]PluginReducer
}

// EditorState is an immutable snapshot: document, selection, stored marks
// and per-plugin state. Apply produces the next snapshot; nothing mutates in
// place.
type EditorState struct {
	Doc         *model.Document
	Selection   model.Selection
	StoredMarks []*model.Mark
	Plugins     map[string]interface{}
	Config      *Config
}

// NewEditorState creates an initial state over a document. A nil selection
// is repaired to the first textblock.
func NewEditorState(cfg *Config, doc *model.Document, sel model.Selection) *EditorState {
	if doc == nil {
		doc = model.NewDocument()
	}
	s := &EditorState{
		Doc:       doc,
		Selection: model.RepairSelection(cfg.Registry, doc, sel),
		Plugins:   map[string]interface{}{},
		Config:    cfg,
	}
	return s
}

// Registry returns the schema registry states of this editor share.
func (s *EditorState) Registry() *model.Registry {
	return s.Config.Registry
}

// NewTransaction starts a transaction against this state's document.
func (s *EditorState) NewTransaction(origin transform.Origin) *transform.Transaction {
	return transform.NewTransaction(s.Config.Registry, s.Doc, origin)
}

// Apply produces the state after a transaction. A poisoned transaction or a
// document that fails validation returns the receiver unchanged along with
// the error; dispatch treats that as "drop the transaction".
func (s *EditorState) Apply(tr *transform.Transaction) (*EditorState, error) {
	if err := tr.Err(); err != nil {
		return s, err
	}
	reg := s.Config.Registry
	doc := tr.Doc
	if tr.DocChanged() {
		doc = model.NormalizeDocument(reg, doc)
		doc = &model.Document{Version: s.Doc.Version + 1, Children: doc.Children}
		if err := model.Validate(reg, doc); err != nil {
			return s, err
		}
	}

	sel, explicit := tr.SelectionSet()
	if !explicit {
		sel = tr.Mapping.MapSelection(s.Selection, tr.Bias)
	}
	sel = model.RepairSelection(reg, doc, sel)

	marks := s.StoredMarks
	if set, ok := tr.StoredMarksSet(); ok {
		marks = set
	} else if tr.DocChanged() {
		// Document changes invalidate pending mark state.
		marks = nil
	}

	next := &EditorState{
		Doc:         doc,
		Selection:   sel,
		StoredMarks: marks,
		Plugins:     s.Plugins,
		Config:      s.Config,
	}
	if len(s.Config.Reducers) > 0 {
		plugins := make(map[string]interface{}, len(s.Plugins))
		for id, blob := range s.Plugins {
			plugins[id] = blob
		}
		for id, reduce := range s.Config.Reducers {
			plugins[id] = reduce(plugins[id], tr, next)
		}
		next.Plugins = plugins
	}
	return next, nil
}

// TextblockAt returns the textblock a position points into, or nil.
func (s *EditorState) TextblockAt(pos model.Position) *model.Block {
	found, ok := model.FindBlock(s.Doc, pos.Block)
	if !ok {
		return nil
	}
	spec, ok := s.Config.Registry.Node(found.Block.Type)
	if !ok || !spec.IsTextblock() {
		return nil
	}
	return found.Block
}
