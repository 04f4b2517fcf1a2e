// Copyright 2025 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package memstore

import (
	"sync"

	"github.com/juju/errors"
	"github.com/juju/pubsub/v2"

	"github.com/juju/datatree/core/modification"
	"github.com/juju/datatree/core/path"
	"github.com/juju/datatree/internal/listener"
)

// delivery is one batch published to a registration.
type delivery struct {
	revision int64
	roots    []modification.Root
	done     chan struct{}
}

// registration subscribes one listener to a hub topic of its own, so that
// its batches are delivered in publish order, one at a time.
type registration struct {
	id        int
	root      path.Path
	clustered bool
	listener  listener.BatchListener
	store     *Store

	unsubscribe func()
	dead        chan struct{}

	mu     sync.Mutex
	closed bool
}

func (r *registration) topic() string {
	return registrationTopic(r.id)
}

func (r *registration) publish(hub *pubsub.SimpleHub, d delivery) {
	_ = hub.Publish(r.topic(), d)
}

func (r *registration) onDelivery(_ string, data interface{}) {
	d, ok := data.(delivery)
	if !ok {
		r.store.logger.Errorf("unexpected delivery %T for change listener %d", data, r.id)
		return
	}
	defer close(d.done)

	select {
	case <-r.dead:
		return
	default:
	}
	if err := r.listener.OnDataTreeChanged(d.roots); err != nil {
		r.store.logger.Errorf("change listener for %s failed on revision %d: %v", r.root, d.revision, err)
	}
}

// Close is part of the listener.Registration interface. Closing a
// registration twice is an error.
func (r *registration) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return errors.Errorf("change listener %d for %s already closed", r.id, r.root)
	}
	r.closed = true
	close(r.dead)
	r.unsubscribe()
	r.store.unregister(r)
	r.store.logger.Debugf("closed change listener %d for %s", r.id, r.root)
	return nil
}
