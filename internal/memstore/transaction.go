// Copyright 2025 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package memstore

import (
	"context"
	"time"

	"github.com/juju/errors"

	"github.com/juju/datatree/core/path"
	"github.com/juju/datatree/core/tree"
)

type operation struct {
	path  path.Path
	value *tree.Value
}

// Transaction collects writes to be committed atomically. A transaction
// is not safe for concurrent use.
type Transaction struct {
	store     *Store
	ops       []operation
	committed bool
}

// Put replaces the value at p, along with its whole subtree.
func (t *Transaction) Put(p path.Path, v *tree.Value) {
	if v == nil {
		// A nil value would read as a delete.
		v = &tree.Value{}
	}
	t.ops = append(t.ops, operation{path: p, value: v.Copy()})
}

// Delete removes the value at p, along with its whole subtree.
func (t *Transaction) Delete(p path.Path) {
	t.ops = append(t.ops, operation{path: p})
}

// Commit applies the writes in order. Either all writes are applied in a
// new revision or none is. Committing an empty transaction does not
// create a revision.
func (t *Transaction) Commit() (*Receipt, error) {
	if t.committed {
		return nil, errors.Errorf("transaction already committed")
	}
	t.committed = true
	if len(t.ops) == 0 {
		revision, at := t.store.Revision()
		return &Receipt{revision: revision, time: at}, nil
	}
	receipt, err := t.store.commit(t.ops)
	return receipt, errors.Trace(err)
}

type pending struct {
	done <-chan struct{}
	dead <-chan struct{}
}

// Receipt describes a committed transaction and tracks the delivery of its
// modifications to the change listeners.
type Receipt struct {
	revision int64
	time     time.Time
	pending  []pending
}

// Revision returns the revision created by the transaction.
func (r *Receipt) Revision() int64 {
	return r.revision
}

// Time returns the commit time.
func (r *Receipt) Time() time.Time {
	return r.time
}

// Deliveries returns the number of listeners the modifications were
// published to.
func (r *Receipt) Deliveries() int {
	return len(r.pending)
}

// Wait blocks until every listener handled its batch, or was closed.
func (r *Receipt) Wait(ctx context.Context) error {
	for _, p := range r.pending {
		select {
		case <-p.done:
		case <-p.dead:
		case <-ctx.Done():
			return errors.Trace(ctx.Err())
		}
	}
	return nil
}
