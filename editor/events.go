package editor

// Event names emitted by the editor.
const (
	EventReady           = "ready"
	EventStateChange     = "stateChange"
	EventSelectionChange = "selectionChange"
	EventFocus           = "focus"
	EventBlur            = "blur"
	EventInitError       = "initError"
)

type subscriber struct {
	id int
	cb func(payload interface{})
}

// emitter is a minimal per-editor event bus. Events fire synchronously,
// after the state has been committed and before reconciliation is
// scheduled.
type emitter struct {
	nextID int
	subs   map[string][]subscriber
}

func newEmitter() *emitter {
	return &emitter{subs: map[string][]subscriber{}}
}

// on subscribes and returns the unsubscribe function.
func (e *emitter) on(event string, cb func(payload interface{})) func() {
	e.nextID++
	id := e.nextID
	e.subs[event] = append(e.subs[event], subscriber{id: id, cb: cb})
	return func() {
		subs := e.subs[event]
		for i, s := range subs {
			if s.id == id {
				e.subs[event] = append(subs[:i:i], subs[i+1:]...)
				return
			}
		}
	}
}

func (e *emitter) emit(event string, payload interface{}) {
	for _, s := range e.subs[event] {
		s.cb(payload)
	}
}
