// Copyright 2025 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

// Package memstore provides an in-memory versioned data tree store.
//
// Writes are grouped in transactions. Every committed transaction bumps the
// revision of the store and is diffed against the previous revision; each
// registered change listener receives the modification trees under its
// root, in commit order and never concurrently.
package memstore

import (
	"fmt"
	"sync"
	"time"

	"github.com/juju/clock"
	"github.com/juju/collections/set"
	"github.com/juju/errors"
	"github.com/juju/loggo/v2"
	"github.com/juju/pubsub/v2"

	"github.com/juju/datatree/core/modification"
	"github.com/juju/datatree/core/path"
	"github.com/juju/datatree/core/schema"
	"github.com/juju/datatree/core/tree"
	"github.com/juju/datatree/internal/listener"
)

var logger = loggo.GetLogger("datatree.memstore")

// Logger facilitates emitting log messages.
type Logger interface {
	Errorf(string, ...interface{})
	Debugf(string, ...interface{})
}

// Config holds the dependencies of a Store.
type Config struct {
	// Schema validates the written values.
	Schema *schema.Schema

	// Clock timestamps the revisions.
	Clock clock.Clock

	// Logger defaults to the package logger.
	Logger Logger
}

// Validate returns an error if the config cannot be used by a Store.
func (c Config) Validate() error {
	if c.Schema == nil {
		return errors.NotValidf("nil Schema")
	}
	if c.Clock == nil {
		return errors.NotValidf("nil Clock")
	}
	return nil
}

// Store is an in-memory data tree store. It implements listener.Store.
type Store struct {
	schema *schema.Schema
	clock  clock.Clock
	logger Logger
	hub    *pubsub.SimpleHub

	mu            sync.Mutex
	data          *tree.Value
	revision      int64
	updated       time.Time
	nextID        int
	registrations map[int]*registration
}

var _ listener.Store = (*Store)(nil)

// New returns an empty store.
func New(cfg Config) (*Store, error) {
	if err := cfg.Validate(); err != nil {
		return nil, errors.Trace(err)
	}
	if cfg.Logger == nil {
		cfg.Logger = logger
	}
	return &Store{
		schema: cfg.Schema,
		clock:  cfg.Clock,
		logger: cfg.Logger,
		hub: pubsub.NewSimpleHub(&pubsub.SimpleHubConfig{
			Logger: loggo.GetLogger("datatree.memstore.hub"),
		}),
		updated:       cfg.Clock.Now(),
		registrations: make(map[int]*registration),
	}, nil
}

// Revision returns the revision of the last committed transaction and the
// time it was committed.
func (s *Store) Revision() (int64, time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.revision, s.updated
}

// Get returns a copy of the value at p.
func (s *Store) Get(p path.Path) (*tree.Value, error) {
	if p.IsWildcard() {
		return nil, errors.NotValidf("read of wildcard path %s", p)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	v := locate(s.data, p)
	if v == nil {
		return nil, errors.NotFoundf("%s", p)
	}
	return v.Copy(), nil
}

// List returns the paths of the values matching the possibly wildcard
// path p.
func (s *Store) List(p path.Path) []path.Path {
	s.mu.Lock()
	defer s.mu.Unlock()
	return resolve(s.data, p)
}

// NewTransaction returns a transaction on the store.
func (s *Store) NewTransaction() *Transaction {
	return &Transaction{store: s}
}

// RegisterChangeListener is part of the listener.Store interface.
func (s *Store) RegisterChangeListener(root path.Path, l listener.BatchListener) (listener.Registration, error) {
	return s.register(root, l, false)
}

// RegisterClusteredChangeListener is part of the listener.Store
// interface. The store has a single member, so clustered listeners are
// driven exactly like the others.
func (s *Store) RegisterClusteredChangeListener(root path.Path, l listener.BatchListener) (listener.Registration, error) {
	return s.register(root, l, true)
}

func (s *Store) register(root path.Path, l listener.BatchListener, clustered bool) (listener.Registration, error) {
	if l == nil {
		return nil, errors.NotValidf("nil listener")
	}
	if err := s.checkRoot(root); err != nil {
		return nil, errors.Trace(err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	r := &registration{
		id:        s.nextID,
		root:      root,
		clustered: clustered,
		listener:  l,
		store:     s,
		dead:      make(chan struct{}),
	}
	r.unsubscribe = s.hub.Subscribe(r.topic(), r.onDelivery)
	s.registrations[r.id] = r
	s.logger.Debugf("registered change listener %d for %s (clustered: %v)", r.id, root, clustered)

	// Existing data is delivered as created.
	if roots := changedRoots(root, nil, s.data); len(roots) > 0 {
		r.publish(s.hub, delivery{revision: s.revision, roots: roots, done: make(chan struct{})})
	}
	return r, nil
}

func (s *Store) checkRoot(root path.Path) error {
	if root.IsEmpty() {
		return errors.NotValidf("empty root path")
	}
	if first := root.Segment(0); first.Type != s.schema.Root() {
		return errors.NotValidf("root path %s outside of %s", root, s.schema.Root())
	}
	for i := 1; i < root.Len(); i++ {
		parent, child := root.Segment(i-1).Type, root.Segment(i).Type
		if _, ok := s.schema.ChildCollection(parent, child); !ok {
			return errors.NotFoundf("%s below %s in %s", child, parent, root)
		}
	}
	return nil
}

func (s *Store) unregister(r *registration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.registrations, r.id)
}

// commit applies the operations on a copy of the data and publishes the
// resulting modifications.
func (s *Store) commit(ops []operation) (*Receipt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.data.Copy()
	for _, op := range ops {
		var err error
		if next, err = s.apply(next, op); err != nil {
			return nil, errors.Trace(err)
		}
	}

	previous := s.data
	s.data = next
	s.revision++
	s.updated = s.clock.Now()

	receipt := &Receipt{revision: s.revision, time: s.updated}
	for _, id := range s.registrationIDs() {
		r := s.registrations[id]
		roots := changedRoots(r.root, previous, next)
		if len(roots) == 0 {
			continue
		}
		d := delivery{revision: s.revision, roots: roots, done: make(chan struct{})}
		receipt.pending = append(receipt.pending, pending{done: d.done, dead: r.dead})
		r.publish(s.hub, d)
	}
	s.logger.Debugf("committed revision %d with %d operations, %d deliveries", s.revision, len(ops), len(receipt.pending))
	return receipt, nil
}

func (s *Store) registrationIDs() []int {
	ids := make([]int, 0, len(s.registrations))
	for id := 1; id <= s.nextID; id++ {
		if _, ok := s.registrations[id]; ok {
			ids = append(ids, id)
		}
	}
	return ids
}

func (s *Store) apply(data *tree.Value, op operation) (*tree.Value, error) {
	p := op.path
	if p.IsEmpty() {
		return nil, errors.NotValidf("empty path")
	}
	if p.IsWildcard() {
		return nil, errors.NotValidf("write to wildcard path %s", p)
	}
	last, _ := p.Last()

	if op.value != nil {
		if op.value.Type != last.Type || op.value.Key != last.Key {
			return nil, errors.NotValidf("%s value at %s", path.SegmentOf(op.value), p)
		}
		if err := s.schema.Validate(op.value); err != nil {
			return nil, errors.Annotatef(err, "writing %s", p)
		}
	}

	if p.Len() == 1 {
		if last.Type != s.schema.Root() {
			return nil, errors.NotValidf("root path %s", p)
		}
		if op.value == nil && data == nil {
			return nil, errors.NotFoundf("%s", p)
		}
		return op.value.Copy(), nil
	}

	parent := locate(data, p.Parent())
	if parent == nil {
		return nil, errors.NotFoundf("parent of %s", p)
	}
	if op.value == nil {
		if !parent.RemoveChild(last.Type, last.Key) {
			return nil, errors.NotFoundf("%s", p)
		}
		return data, nil
	}
	collection, ok := s.schema.ChildCollection(parent.Type, last.Type)
	if !ok {
		return nil, errors.NotValidf("%s below %s", last.Type, parent.Type)
	}
	parent.PutChild(collection.Name, op.value.Copy())
	return data, nil
}

// locate returns the value at the concrete path p, or nil.
func locate(data *tree.Value, p path.Path) *tree.Value {
	if data == nil || p.IsEmpty() || p.Segment(0) != path.SegmentOf(data) {
		return nil
	}
	current := data
	for i := 1; i < p.Len(); i++ {
		segment := p.Segment(i)
		child, _, ok := current.Child(segment.Type, segment.Key)
		if !ok {
			return nil
		}
		current = child
	}
	return current
}

// resolve returns the concrete paths of the values matching p.
func resolve(data *tree.Value, p path.Path) []path.Path {
	if data == nil || p.IsEmpty() || !p.Segment(0).Matches(path.SegmentOf(data)) {
		return nil
	}
	var result []path.Path
	var visit func(v *tree.Value, at path.Path, depth int)
	visit = func(v *tree.Value, at path.Path, depth int) {
		if depth == p.Len() {
			result = append(result, at)
			return
		}
		want := p.Segment(depth)
		for _, child := range v.Children() {
			segment := path.SegmentOf(child)
			if want.Matches(segment) {
				visit(child, at.Append(segment), depth+1)
			}
		}
	}
	visit(data, path.New(path.SegmentOf(data)), 1)
	return result
}

// changedRoots returns one modification tree per concrete path matching
// root whose value differs between before and after.
func changedRoots(root path.Path, before, after *tree.Value) []modification.Root {
	seen := set.NewStrings()
	var roots []modification.Root
	for _, concrete := range append(resolve(before, root), resolve(after, root)...) {
		key := concrete.String()
		if seen.Contains(key) {
			continue
		}
		seen.Add(key)

		last, _ := concrete.Last()
		node, err := diff(last, locate(before, concrete), locate(after, concrete))
		if err != nil {
			// Written values are validated, so this is a broken invariant.
			logger.Errorf("diffing %s: %v", concrete, err)
			continue
		}
		if node != nil {
			roots = append(roots, modification.Root{Path: concrete, Node: node})
		}
	}
	return roots
}

func registrationTopic(id int) string {
	return fmt.Sprintf("datatree.memstore.registration.%d", id)
}
