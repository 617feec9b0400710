// Package sdprecordtest provides a fake sdprecord.Publisher for tests.
package sdprecordtest

import (
	"sync"

	"github.com/holoware/btaudiod/internal/sdprecord"
)

// Fake records every Publish/Unpublish call.
type Fake struct {
	mu        sync.Mutex
	nextID    uint32
	Published map[uint32]sdprecord.Record
}

func New() *Fake {
	return &Fake{Published: make(map[uint32]sdprecord.Record)}
}

func (f *Fake) Publish(r sdprecord.Record) (uint32, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	f.Published[f.nextID] = r
	return f.nextID, nil
}

func (f *Fake) Unpublish(id uint32) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.Published, id)
	return nil
}
