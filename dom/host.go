package dom

import "golang.org/x/net/html"

// Rect is a caret or element rectangle in client coordinates.
type Rect struct {
	X, Y, W, H float64
}

// Granularity names the unit of a native selection motion.
type Granularity string

const (
	// GranularityCharacter moves by one visible character.
	GranularityCharacter Granularity = "character"
	// GranularityWord moves by one word boundary.
	GranularityWord Granularity = "word"
	// GranularityLine moves by one visual line.
	GranularityLine Granularity = "line"
	// GranularityLineBoundary moves to the visual line edge.
	GranularityLineBoundary Granularity = "lineboundary"
)

// Direction names the direction of a native selection motion.
type Direction string

const (
	DirForward  Direction = "forward"
	DirBackward Direction = "backward"
	DirLeft     Direction = "left"
	DirRight    Direction = "right"
)

// NativeSelection is the environment's selection object, scoped to the
// editor's shadow root. The view writes model selections into it and reads
// DOM selections back out of it.
type NativeSelection interface {
	// Anchor returns the anchor node and offset, or nil when there is no
	// selection.
	Anchor() (*html.Node, int)
	// Focus returns the focus node and offset.
	Focus() (*html.Node, int)
	// Collapse sets a collapsed selection at the given node and offset.
	Collapse(node *html.Node, offset int)
	// Select sets an extended selection.
	Select(anchorNode *html.Node, anchorOffset int, focusNode *html.Node, focusOffset int)
	// SelectNode covers a whole node with a range.
	SelectNode(node *html.Node)
	// RemoveAllRanges clears the selection. Used while a gap cursor is
	// rendered.
	RemoveAllRanges()
	// Modify performs a native caret motion (the environment's
	// selection.modify). Returns false when the environment cannot perform
	// layout-aware motion; callers fall back to offset heuristics.
	Modify(extend bool, dir Direction, granularity Granularity) bool
}

// Layout measures caret geometry. Headless environments report no geometry
// and the caller falls back to logical offsets.
type Layout interface {
	// CaretRect returns the client rect of the current caret, if the
	// environment can measure it.
	CaretRect(sel NativeSelection) (Rect, bool)
}

// Scheduler coalesces view work. Browser hosts map RequestFrame to
// requestAnimationFrame; the headless host runs the callback synchronously.
type Scheduler interface {
	RequestFrame(fn func())
}

// DataTransfer is a typed clipboard or drag payload.
type DataTransfer struct {
	items map[string]string
}

// NewDataTransfer creates an empty payload.
func NewDataTransfer() *DataTransfer {
	return &DataTransfer{items: map[string]string{}}
}

// GetData returns the payload for a MIME type, or "".
func (t *DataTransfer) GetData(mime string) string {
	if t == nil {
		return ""
	}
	return t.items[mime]
}

// SetData stores a payload under a MIME type.
func (t *DataTransfer) SetData(mime, data string) {
	t.items[mime] = data
}

// Types lists the MIME types present.
func (t *DataTransfer) Types() []string {
	if t == nil {
		return nil
	}
	result := make([]string, 0, len(t.items))
	for mime := range t.items {
		result = append(result, mime)
	}
	return result
}

// Clipboard is the environment's clipboard. Read errors are absorbed by the
// input layer as IO edge cases: the editor falls back to the default
// behavior.
type Clipboard interface {
	Read() (*DataTransfer, error)
	Write(t *DataTransfer) error
}

// Host bundles the environment services the view and input layers need.
type Host interface {
	Selection() NativeSelection
	Layout() Layout
	Scheduler() Scheduler
	Clipboard() Clipboard
}
