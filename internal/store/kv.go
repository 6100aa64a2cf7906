package store

import (
	"context"
	"errors"
)

var (
	ErrMiss             = errors.New("blob miss")
	ErrRevisionConflict = errors.New("blob revision conflict")
)

// RevAny skips the revision check on Put (forced write).
const RevAny int64 = -1

// Blob is one stored value with its revision counter. Revisions start at
// 1 on first write and increment on every successful Put.
type Blob struct {
	Rev  int64  `json:"rev"`
	Data []byte `json:"data"`
}

// KV persists opaque JSON blobs keyed by name. Put rejects writes whose
// expectRev does not match the stored revision, so concurrent writers
// fail loudly instead of silently overwriting each other. expectRev 0
// means "key must not exist yet".
type KV interface {
	Get(ctx context.Context, key string) (Blob, error)
	Put(ctx context.Context, key string, data []byte, expectRev int64) (int64, error)
}
