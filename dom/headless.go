package dom

import (
	"errors"

	"golang.org/x/net/html"
)

// HeadlessHost is a complete in-memory Host. It keeps a selection over the
// html.Node tree, a byte-bucket clipboard, and a synchronous scheduler. It
// performs no layout, so Modify and CaretRect report that they cannot run
// and callers use their logical fallbacks.
type HeadlessHost struct {
	sel       *HeadlessSelection
	clipboard *HeadlessClipboard
}

// NewHeadlessHost creates a host suitable for tests and CLI use.
func NewHeadlessHost() *HeadlessHost {
	return &HeadlessHost{
		sel:       &HeadlessSelection{},
		clipboard: &HeadlessClipboard{},
	}
}

// Selection is part of the Host interface.
func (h *HeadlessHost) Selection() NativeSelection { return h.sel }

// Layout is part of the Host interface.
func (h *HeadlessHost) Layout() Layout { return headlessLayout{} }

// Scheduler is part of the Host interface.
func (h *HeadlessHost) Scheduler() Scheduler { return syncScheduler{} }

// Clipboard is part of the Host interface.
func (h *HeadlessHost) Clipboard() Clipboard { return h.clipboard }

// HeadlessSelection stores anchor and focus over html nodes.
type HeadlessSelection struct {
	anchorNode   *html.Node
	anchorOffset int
	focusNode    *html.Node
	focusOffset  int
}

// Anchor is part of the NativeSelection interface.
func (s *HeadlessSelection) Anchor() (*html.Node, int) {
	return s.anchorNode, s.anchorOffset
}

// Focus is part of the NativeSelection interface.
func (s *HeadlessSelection) Focus() (*html.Node, int) {
	return s.focusNode, s.focusOffset
}

// Collapse is part of the NativeSelection interface.
func (s *HeadlessSelection) Collapse(node *html.Node, offset int) {
	s.anchorNode, s.anchorOffset = node, offset
	s.focusNode, s.focusOffset = node, offset
}

// Select is part of the NativeSelection interface.
func (s *HeadlessSelection) Select(anchorNode *html.Node, anchorOffset int, focusNode *html.Node, focusOffset int) {
	s.anchorNode, s.anchorOffset = anchorNode, anchorOffset
	s.focusNode, s.focusOffset = focusNode, focusOffset
}

// SelectNode is part of the NativeSelection interface.
func (s *HeadlessSelection) SelectNode(node *html.Node) {
	parent := node.Parent
	if parent == nil {
		s.anchorNode, s.anchorOffset = node, 0
		s.focusNode, s.focusOffset = node, 0
		return
	}
	index := 0
	for c := parent.FirstChild; c != nil && c != node; c = c.NextSibling {
		index++
	}
	s.anchorNode, s.anchorOffset = parent, index
	s.focusNode, s.focusOffset = parent, index+1
}

// RemoveAllRanges is part of the NativeSelection interface.
func (s *HeadlessSelection) RemoveAllRanges() {
	s.anchorNode, s.focusNode = nil, nil
	s.anchorOffset, s.focusOffset = 0, 0
}

// Modify is part of the NativeSelection interface. Headless hosts have no
// layout, so layout-dependent motion is refused and the caller falls back.
func (s *HeadlessSelection) Modify(extend bool, dir Direction, granularity Granularity) bool {
	return false
}

type headlessLayout struct{}

func (headlessLayout) CaretRect(sel NativeSelection) (Rect, bool) {
	return Rect{}, false
}

type syncScheduler struct{}

func (syncScheduler) RequestFrame(fn func()) {
	fn()
}

// HeadlessClipboard is an in-memory clipboard.
type HeadlessClipboard struct {
	data *DataTransfer
}

// Read is part of the Clipboard interface.
func (c *HeadlessClipboard) Read() (*DataTransfer, error) {
	if c.data == nil {
		return nil, errors.New("clipboard is empty")
	}
	return c.data, nil
}

// Write is part of the Clipboard interface.
func (c *HeadlessClipboard) Write(t *DataTransfer) error {
	c.data = t
	return nil
}

var (
	_ Host            = (*HeadlessHost)(nil)
	_ NativeSelection = (*HeadlessSelection)(nil)
	_ Clipboard       = (*HeadlessClipboard)(nil)
)
