package store

import "context"

// SnapshotStore is the crash-recovery blob store: one serialized snapshot
// per room, expired by the store rather than reaped by the registry.
type SnapshotStore interface {
	Save(ctx context.Context, code string, data []byte) error
	Delete(ctx context.Context, code string) error
	LoadAll(ctx context.Context) (map[string][]byte, error)
}

// Noop keeps the process runnable without a database; rooms simply lose
// crash recovery.
type Noop struct{}

func (Noop) Save(context.Context, string, []byte) error { return nil }

func (Noop) Delete(context.Context, string) error { return nil }

func (Noop) LoadAll(context.Context) (map[string][]byte, error) { return nil, nil }
