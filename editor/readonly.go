package editor

import (
	"github.com/notectl/notectl-go/state"
	"github.com/notectl/notectl-go/transform"
)

// ReadonlyOverrideMeta is the metadata key an api-origin transaction sets to
// pass the readonly gate.
const ReadonlyOverrideMeta = "readonlyOverride"

// readonlyMiddleware drops every document-changing transaction while the
// editor is readonly. Pure selection changes (navigation keymaps) stay
// allowed; api-origin transactions pass only when explicitly whitelisted.
func (ed *Editor) readonlyMiddleware(tr *transform.Transaction, s *state.EditorState, next func(*transform.Transaction)) {
	if !ed.readonly {
		next(tr)
		return
	}
	if !tr.DocChanged() {
		if _, set := tr.StoredMarksSet(); set {
			ed.log.Debug("readonly: stored-mark change dropped", "origin", tr.Origin)
			return
		}
		next(tr)
		return
	}
	if tr.Origin == transform.OriginAPI {
		if override, _ := tr.GetMeta(ReadonlyOverrideMeta).(bool); override {
			next(tr)
			return
		}
	}
	ed.log.Debug("readonly: transaction dropped", "origin", tr.Origin)
}
