/*
store.go - Persistence interface for whole-group state

PURPOSE:
  Defines the contract between the engine and storage. The core never
  assumes a storage technology; it only requires atomic whole-group
  read/write semantics.

WHOLE-GROUP CONTRACT:
  A group (settings + participants) is one atomically-replaced document.
  There are no field-level or per-participant writes: every mutation is an
  in-memory transform of the full group followed by Save. Two writers
  racing on the same group resolve last-write-wins; no merge, no conflict
  detection. That limitation is accepted and documented, not handled.

OWNER SCOPING:
  OwnerID is an opaque identifier supplied by the identity collaborator.
  Stores filter by it and never interpret or validate it.

IMPLEMENTATIONS:
  - rotation/store: In-memory, for tests and dev
  - store/sqlite:   One row per group, JSON documents for settings and
                    participants (single-writer, WAL)

SEE ALSO:
  - rotation/store/memory.go
  - store/sqlite/sqlite.go
*/
package rotation

import (
	"context"
	"time"
)

// =============================================================================
// GROUP STORE - Atomic whole-group persistence
// =============================================================================

// GroupStore persists groups as indivisible documents.
type GroupStore interface {
	// Create inserts a new group. The group's ID must be set by the caller.
	Create(ctx context.Context, g *Group) error

	// Get returns the group or ErrGroupNotFound.
	Get(ctx context.Context, id string) (*Group, error)

	// Save replaces the whole group state. Last write wins.
	Save(ctx context.Context, g *Group) error

	// Delete removes the group. Deleting an unknown ID is not an error.
	Delete(ctx context.Context, id string) error

	// ListByOwner returns the owner's groups, newest first.
	ListByOwner(ctx context.Context, ownerID string) ([]*Group, error)

	// ListAll returns every group. Used by the drift scheduler.
	ListAll(ctx context.Context) ([]*Group, error)
}

// =============================================================================
// SUBSCRIBE - Poll-based live view over any GroupStore
// =============================================================================

// Subscribe delivers the owner's group list on the returned channel whenever
// it changes, polling at the given interval. An initial snapshot is sent
// immediately. The channel closes when ctx is canceled.
//
// Polling keeps the store contract minimal: any GroupStore gets live updates
// for free, at the cost of interval-bounded latency. Good enough for a
// dashboard that refreshes every few seconds.
func Subscribe(ctx context.Context, store GroupStore, ownerID string, interval time.Duration) <-chan []*Group {
	out := make(chan []*Group, 1)

	go func() {
		defer close(out)

		var lastStamp time.Time
		var lastCount = -1

		emit := func() {
			groups, err := store.ListByOwner(ctx, ownerID)
			if err != nil {
				return
			}
			stamp := latestUpdate(groups)
			if len(groups) == lastCount && stamp.Equal(lastStamp) {
				return
			}
			lastCount, lastStamp = len(groups), stamp
			select {
			case out <- groups:
			case <-ctx.Done():
			}
		}

		emit()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				emit()
			}
		}
	}()

	return out
}

func latestUpdate(groups []*Group) time.Time {
	var latest time.Time
	for _, g := range groups {
		if g.UpdatedAt.After(latest) {
			latest = g.UpdatedAt
		}
	}
	return latest
}
