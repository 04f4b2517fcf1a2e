// Copyright 2025 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package listener

import (
	"github.com/juju/errors"
	"github.com/juju/worker/v4"
	"github.com/juju/worker/v4/catacomb"

	"github.com/juju/datatree/core/path"
)

// Listener is a change listener that can be registered with a store.
type Listener interface {
	Register(store Store, root path.Path, clustered bool) (Registration, error)
	Close()
}

// WorkerConfig encapsulates the configuration options for a listener
// worker.
type WorkerConfig struct {
	Store     Store
	Listener  Listener
	Root      path.Path
	Clustered bool
	Logger    Logger
}

// Validate ensures that the config values are valid.
func (c WorkerConfig) Validate() error {
	if c.Store == nil {
		return errors.NotValidf("nil Store")
	}
	if c.Listener == nil {
		return errors.NotValidf("nil Listener")
	}
	if c.Root.IsEmpty() {
		return errors.NotValidf("empty Root")
	}
	if c.Logger == nil {
		return errors.NotValidf("nil Logger")
	}
	return nil
}

type listenerWorker struct {
	catacomb catacomb.Catacomb
	cfg      WorkerConfig
}

// NewWorker returns a worker that keeps the listener registered for as
// long as it runs. The worker fails if the store refuses the
// registration.
func NewWorker(cfg WorkerConfig) (worker.Worker, error) {
	if err := cfg.Validate(); err != nil {
		return nil, errors.Trace(err)
	}

	w := &listenerWorker{cfg: cfg}
	if err := catacomb.Invoke(catacomb.Plan{
		Name: "change-listener",
		Site: &w.catacomb,
		Work: w.loop,
	}); err != nil {
		return nil, errors.Trace(err)
	}
	return w, nil
}

func (w *listenerWorker) loop() error {
	defer w.cfg.Listener.Close()

	if _, err := w.cfg.Listener.Register(w.cfg.Store, w.cfg.Root, w.cfg.Clustered); err != nil {
		return errors.Trace(err)
	}
	w.cfg.Logger.Debugf("listening for changes under %s", w.cfg.Root)

	<-w.catacomb.Dying()
	return w.catacomb.ErrDying()
}

// Kill is part of the worker.Worker interface.
func (w *listenerWorker) Kill() {
	w.catacomb.Kill(nil)
}

// Wait is part of the worker.Worker interface.
func (w *listenerWorker) Wait() error {
	return w.catacomb.Wait()
}
