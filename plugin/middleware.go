package plugin

import (
	"github.com/notectl/notectl-go/state"
	"github.com/notectl/notectl-go/transform"
)

// Chain composes middleware into a single entry point. Each middleware may
// rewrite or drop the transaction; the commit function at the end of the
// chain receives whatever survived.
type Chain struct {
	middleware []Middleware
}

// NewChain creates an empty middleware chain.
func NewChain() *Chain {
	return &Chain{}
}

// Append adds middleware at the end of the chain.
func (c *Chain) Append(m Middleware) {
	c.middleware = append(c.middleware, m)
}

// Run passes a transaction through the chain. commit is called with the
// final transaction unless some middleware dropped it by not calling next.
func (c *Chain) Run(tr *transform.Transaction, s *state.EditorState, commit func(*transform.Transaction)) {
	var call func(i int, tr *transform.Transaction)
	call = func(i int, tr *transform.Transaction) {
		if tr == nil {
			return
		}
		if i >= len(c.middleware) {
			commit(tr)
			return
		}
		c.middleware[i](tr, s, func(next *transform.Transaction) {
			call(i+1, next)
		})
	}
	call(0, tr)
}
