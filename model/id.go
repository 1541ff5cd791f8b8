package model

import (
	"math/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// BlockID is the stable, opaque identity of a block. IDs are generated once
// at block creation and never reused within a document's lifetime; every
// structural operation (split, join, paste) that produces a new block
// allocates a fresh one.
type BlockID string

var (
	idMu      sync.Mutex
	idEntropy = ulid.Monotonic(rand.New(rand.NewSource(time.Now().UnixNano())), 0)
)

// NewBlockID returns a new process-unique block id. IDs are ULIDs, so they
// sort by creation time, which keeps debug dumps readable.
func NewBlockID() BlockID {
	idMu.Lock()
	defer idMu.Unlock()
	return BlockID(ulid.MustNew(ulid.Timestamp(time.Now()), idEntropy).String())
}
