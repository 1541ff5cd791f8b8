package view

import "github.com/notectl/notectl-go/model"

// Composition is the single-bit IME tracker, a first-class collaborator of
// the reconciler, selection sync and keymap dispatch: while a composition is
// active the browser owns the DOM of the composing block, so reconciliation
// of that block and selection reads are suspended until compositionend.
type Composition struct {
	active bool
	block  model.BlockID
	// The inline range the composition replaces when it commits.
	from, to int
}

// Active reports whether a composition is in progress.
func (c *Composition) Active() bool {
	return c.active
}

// Block returns the block the composition is happening in.
func (c *Composition) Block() model.BlockID {
	return c.block
}

// Range returns the inline range the pending composition covers.
func (c *Composition) Range() (from, to int) {
	return c.from, c.to
}

// Start marks a composition over the given range of a block.
func (c *Composition) Start(block model.BlockID, from, to int) {
	c.active = true
	c.block = block
	c.from = from
	c.to = to
}

// Update widens the pending range as the IME replaces its segment.
func (c *Composition) Update(to int) {
	c.to = to
}

// End clears the tracker.
func (c *Composition) End() {
	c.active = false
	c.block = ""
	c.from = 0
	c.to = 0
}
