// Copyright 2025 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package listener

import (
	"sync"

	"github.com/juju/errors"

	"github.com/juju/datatree/core/changestream"
	"github.com/juju/datatree/core/modification"
	"github.com/juju/datatree/core/path"
	"github.com/juju/datatree/internal/walker"
)

// Config holds the dependencies of a Shell.
type Config[C any] struct {
	// Handler receives the events.
	Handler Handler[C]

	// Walker configures which events are emitted and in which order.
	Walker walker.Config

	// Logger receives registration and malformed data messages. Defaults
	// to the package logger.
	Logger Logger

	// Metrics, if set, counts batches, events and skipped nodes.
	Metrics *Collector
}

// Validate returns an error if the config cannot be used by a Shell.
func (c Config[C]) Validate() error {
	if c.Handler == nil {
		return errors.NotValidf("nil Handler")
	}
	return errors.Trace(c.Walker.Validate())
}

// Shell is a change listener driving a Handler. It holds at most one
// store registration.
type Shell[C any] struct {
	handler Handler[C]
	walker  *walker.Walker
	logger  Logger
	metrics *Collector

	// batchMu serializes batches.
	batchMu sync.Mutex

	mu           sync.Mutex
	registration Registration
	root         path.Path
	closed       bool
}

// New returns a shell for the given config.
func New[C any](cfg Config[C]) (*Shell[C], error) {
	if err := cfg.Validate(); err != nil {
		return nil, errors.Trace(err)
	}
	if cfg.Logger == nil {
		cfg.Logger = logger
	}
	walkerCfg := cfg.Walker
	if walkerCfg.Logger == nil {
		walkerCfg.Logger = cfg.Logger
	}
	if walkerCfg.Recorder == nil && cfg.Metrics != nil {
		walkerCfg.Recorder = cfg.Metrics
	}
	w, err := walker.New(walkerCfg)
	if err != nil {
		return nil, errors.Trace(err)
	}
	return &Shell[C]{
		handler: cfg.Handler,
		walker:  w,
		logger:  cfg.Logger,
		metrics: cfg.Metrics,
	}, nil
}

// Register subscribes the shell to the modifications under root. A
// refusal of the store is returned as a *RegistrationError, and the
// shell stays unregistered.
func (s *Shell[C]) Register(store Store, root path.Path, clustered bool) (Registration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, errors.Errorf("registering %s on a closed listener", root)
	}
	if s.registration != nil {
		return nil, errors.AlreadyExistsf("registration for %s", s.root)
	}

	var (
		registration Registration
		err          error
	)
	if clustered {
		registration, err = store.RegisterClusteredChangeListener(root, s)
	} else {
		registration, err = store.RegisterChangeListener(root, s)
	}
	if err != nil {
		return nil, &RegistrationError{Root: root, Clustered: clustered, Err: err}
	}

	s.logger.Debugf("registered change listener for %s", root)
	s.registration = registration
	s.root = root
	return registration, nil
}

// Close releases the store registration. Errors releasing it are logged.
// Close can be called any number of times, including when the shell was
// never registered.
func (s *Shell[C]) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	s.closed = true
	if s.registration == nil {
		return
	}
	if err := s.registration.Close(); err != nil {
		s.logger.Errorf("closing change listener for %s: %v", s.root, err)
	}
	s.registration = nil
}

// OnDataTreeChanged is part of the BatchListener interface. Every root is
// walked on a fresh path stack, in the order given. The first error from
// the handler aborts the batch and is returned.
func (s *Shell[C]) OnDataTreeChanged(roots []modification.Root) error {
	if len(roots) == 0 {
		return nil
	}

	s.batchMu.Lock()
	defer s.batchMu.Unlock()

	err := s.processBatch(roots)
	if s.metrics != nil {
		s.metrics.observeBatch(err)
	}
	return errors.Trace(err)
}

func (s *Shell[C]) processBatch(roots []modification.Root) error {
	ctx, err := s.handler.EnterEvent()
	if err != nil {
		return errors.Annotate(err, "entering event")
	}
	defer s.handler.ExitEvent(ctx)

	sink := func(event changestream.ChangeEvent) error {
		return s.dispatch(ctx, event)
	}
	for _, root := range roots {
		if err := s.walker.WalkRoot(root, sink); err != nil {
			return errors.Annotatef(err, "processing changes under %s", root.Path)
		}
	}
	return nil
}

func (s *Shell[C]) dispatch(ctx C, event changestream.ChangeEvent) error {
	var err error
	switch event.Type() {
	case changestream.Created:
		err = s.handler.OnCreated(ctx, event.Identified())
	case changestream.Updated:
		err = s.handler.OnUpdated(ctx, event.Changed())
	case changestream.Removed:
		err = s.handler.OnRemoved(ctx, event.Identified())
	default:
		return errors.NotValidf("event type %v for %s", event.Type(), event.Path())
	}
	if err != nil {
		return errors.Annotatef(err, "handling %s event for %s", event.Type(), event.Path())
	}
	if s.metrics != nil {
		s.metrics.observeEvent(event.Type())
	}
	return nil
}
