// Package storage defines how dashboard snapshots are kept between fetches.
package storage

import (
	"context"
	"fmt"
	"sync"

	"github.com/and161185/linstor-dashboard/internal/errs"
	"github.com/and161185/linstor-dashboard/model"
)

// Storage keeps the latest snapshot and a bounded history of earlier ones.
type Storage interface {
	// Apply stores snap unless a snapshot with the same or a newer
	// sequence was applied before, in which case errs.ErrStaleSnapshot is returned.
	Apply(ctx context.Context, snap *model.Snapshot) error
	// Latest returns errs.ErrSnapshotNotFound until the first Apply.
	Latest(ctx context.Context) (*model.Snapshot, error)
	// History returns up to limit snapshots, newest first.
	History(ctx context.Context, limit int) ([]model.Snapshot, error)
	Ping(ctx context.Context) error
}

// SequenceGuard admits strictly increasing fetch sequence numbers. The first
// sequence is always admitted, zero included.
type SequenceGuard struct {
	mu   sync.Mutex
	last uint64
	seen bool
}

// Admit records seq when it is newer than every admitted sequence.
func (g *SequenceGuard) Admit(seq uint64) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.seen && seq <= g.last {
		return fmt.Errorf("%w: sequence %d, last applied %d", errs.ErrStaleSnapshot, seq, g.last)
	}
	g.last, g.seen = seq, true
	return nil
}

// Observe raises the watermark to seq without rejecting anything. Used when
// snapshots are restored from a previous run.
func (g *SequenceGuard) Observe(seq uint64) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if !g.seen || seq > g.last {
		g.last, g.seen = seq, true
	}
}

// Last returns the highest admitted sequence.
func (g *SequenceGuard) Last() uint64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.last
}
