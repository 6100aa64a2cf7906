package store

import (
	"context"
	"sync"
)

// MemoryKV keeps blobs in-process. Used when no external store is
// configured and as the test double.
type MemoryKV struct {
	mu    sync.RWMutex
	blobs map[string]Blob
}

func NewMemoryKV() *MemoryKV {
	return &MemoryKV{blobs: map[string]Blob{}}
}

func (m *MemoryKV) Get(_ context.Context, key string) (Blob, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	b, ok := m.blobs[key]
	if !ok {
		return Blob{}, ErrMiss
	}
	// Copy so callers cannot mutate the stored bytes.
	out := Blob{Rev: b.Rev, Data: append([]byte(nil), b.Data...)}
	return out, nil
}

func (m *MemoryKV) Put(_ context.Context, key string, data []byte, expectRev int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	cur := m.blobs[key].Rev
	if expectRev != RevAny && expectRev != cur {
		return 0, ErrRevisionConflict
	}
	next := cur + 1
	m.blobs[key] = Blob{Rev: next, Data: append([]byte(nil), data...)}
	return next, nil
}
