// Copyright 2025 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

// Package listener adapts the change notifications of a data tree store
// into typed callbacks.
//
// A Shell registers itself with a store for one subtree. The store hands
// it a batch of modification trees at a time; the shell walks every tree
// and dispatches the resulting events to a Handler, bracketing the whole
// batch between the handler's EnterEvent and ExitEvent hooks.
package listener

import (
	"fmt"

	"github.com/juju/loggo/v2"

	"github.com/juju/datatree/core/changestream"
	"github.com/juju/datatree/core/modification"
	"github.com/juju/datatree/core/path"
)

var logger = loggo.GetLogger("datatree.listener")

// Logger facilitates emitting log messages.
type Logger interface {
	Errorf(string, ...interface{})
	Warningf(string, ...interface{})
	Debugf(string, ...interface{})
}

// Handler receives the events of a listener. C is the per-batch context
// returned by EnterEvent and handed to every other call of the batch.
type Handler[C any] interface {
	// EnterEvent is called once before the first event of a batch.
	EnterEvent() (C, error)

	// ExitEvent is called once after the last event of a batch, whether
	// the batch succeeded or not.
	ExitEvent(ctx C)

	// OnCreated is called for every created node.
	OnCreated(ctx C, data changestream.IdentifiedData) error

	// OnUpdated is called for every updated node.
	OnUpdated(ctx C, data changestream.ChangedData) error

	// OnRemoved is called for every removed node.
	OnRemoved(ctx C, data changestream.IdentifiedData) error
}

// BatchListener is the callback a store delivers modifications to. A
// store never calls it concurrently for the same registration.
type BatchListener interface {
	OnDataTreeChanged(roots []modification.Root) error
}

// Registration is a store subscription.
type Registration interface {
	// Close releases the subscription.
	Close() error
}

// Store is the registration API of a data tree store.
type Store interface {
	// RegisterChangeListener subscribes the listener to the modifications
	// under root made through this store instance.
	RegisterChangeListener(root path.Path, listener BatchListener) (Registration, error)

	// RegisterClusteredChangeListener subscribes the listener to the
	// modifications under root, to be driven identically on every member
	// of a cluster.
	RegisterClusteredChangeListener(root path.Path, listener BatchListener) (Registration, error)
}

// RegistrationError is returned when a store refuses a registration.
type RegistrationError struct {
	Root      path.Path
	Clustered bool
	Err       error
}

// Error implements error.
func (e *RegistrationError) Error() string {
	kind := "change listener"
	if e.Clustered {
		kind = "clustered change listener"
	}
	return fmt.Sprintf("registering %s for %s: %v", kind, e.Root, e.Err)
}

// Unwrap returns the error of the store.
func (e *RegistrationError) Unwrap() error {
	return e.Err
}
