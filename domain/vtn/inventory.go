// Copyright 2025 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package vtn

import (
	"sync"

	"github.com/juju/collections/set"
	"github.com/juju/errors"
	"github.com/juju/loggo/v2"
	"github.com/juju/naturalsort"

	"github.com/juju/datatree/core/changestream"
	"github.com/juju/datatree/core/order"
	"github.com/juju/datatree/core/path"
	"github.com/juju/datatree/core/tree"
	"github.com/juju/datatree/internal/listener"
	"github.com/juju/datatree/internal/walker"
)

var logger = loggo.GetLogger("datatree.vtn")

// UnexpectedType is returned by an Inventory handed a node that is not a
// tracked entity.
const UnexpectedType = errors.ConstError("unexpected node type")

// Batch stages the changes of one notification batch. They are applied to
// the inventory when the batch is over.
type Batch struct {
	puts    map[string]entity
	deletes set.Strings
	order   []string
}

type entity struct {
	path  path.Path
	value *tree.Value
}

func (b *Batch) put(p path.Path, v *tree.Value) {
	key := p.String()
	b.deletes.Remove(key)
	b.puts[key] = entity{path: p, value: v.Shallow()}
	b.order = append(b.order, key)
}

func (b *Batch) delete(p path.Path) {
	key := p.String()
	delete(b.puts, key)
	b.deletes.Add(key)
	b.order = append(b.order, key)
}

// Inventory keeps the entities of the virtual tenant networks, as seen by
// a change listener. It is safe for concurrent use.
type Inventory struct {
	mu       sync.RWMutex
	entities map[string]entity
	batches  int
	changes  int
}

var _ listener.Handler[*Batch] = (*Inventory)(nil)

// NewInventory returns an empty inventory.
func NewInventory() *Inventory {
	return &Inventory{entities: make(map[string]entity)}
}

// ListenerConfig returns the walker config of a listener feeding an
// inventory: entity events only, in rank order, and an entity counts as
// updated only when its own fields change.
func ListenerConfig() walker.Config {
	tracked := set.NewStrings()
	for _, t := range EntityTypes {
		tracked.Add(string(t))
	}
	return walker.Config{
		IsRequiredType: func(t tree.NodeType) bool {
			return tracked.Contains(string(t))
		},
		IsUpdated: IsUpdated,
		Order:     NewPathComparator(),
	}
}

// NewListener returns an inventory together with the listener shell
// feeding it.
func NewListener(metrics *listener.Collector) (*Inventory, *listener.Shell[*Batch], error) {
	inventory := NewInventory()
	shell, err := listener.New(listener.Config[*Batch]{
		Handler: inventory,
		Walker:  ListenerConfig(),
		Metrics: metrics,
	})
	if err != nil {
		return nil, nil, errors.Trace(err)
	}
	return inventory, shell, nil
}

// EnterEvent is part of the listener.Handler interface.
func (inv *Inventory) EnterEvent() (*Batch, error) {
	return &Batch{
		puts:    make(map[string]entity),
		deletes: set.NewStrings(),
	}, nil
}

// ExitEvent is part of the listener.Handler interface.
func (inv *Inventory) ExitEvent(b *Batch) {
	inv.mu.Lock()
	defer inv.mu.Unlock()

	for _, key := range b.deletes.Values() {
		delete(inv.entities, key)
	}
	for key, e := range b.puts {
		inv.entities[key] = e
	}
	inv.batches++
	inv.changes += len(b.order)
	logger.Debugf("applied %d changes, tracking %d entities", len(b.order), len(inv.entities))
}

// OnCreated is part of the listener.Handler interface.
func (inv *Inventory) OnCreated(b *Batch, data changestream.IdentifiedData) error {
	if err := checkTracked(data.NodeType()); err != nil {
		return errors.Trace(err)
	}
	b.put(data.Path(), data.Value())
	return nil
}

// OnUpdated is part of the listener.Handler interface.
func (inv *Inventory) OnUpdated(b *Batch, data changestream.ChangedData) error {
	if err := checkTracked(data.NodeType()); err != nil {
		return errors.Trace(err)
	}
	b.put(data.Path(), data.NewValue())
	return nil
}

// OnRemoved is part of the listener.Handler interface.
func (inv *Inventory) OnRemoved(b *Batch, data changestream.IdentifiedData) error {
	if err := checkTracked(data.NodeType()); err != nil {
		return errors.Trace(err)
	}
	b.delete(data.Path())
	return nil
}

func checkTracked(t tree.NodeType) error {
	for _, tracked := range EntityTypes {
		if t == tracked {
			return nil
		}
	}
	return errors.Annotatef(UnexpectedType, "%q", t)
}

// Get returns the entity at p, without its children.
func (inv *Inventory) Get(p path.Path) (*tree.Value, bool) {
	inv.mu.RLock()
	defer inv.mu.RUnlock()
	e, ok := inv.entities[p.String()]
	if !ok {
		return nil, false
	}
	return e.value.Copy(), true
}

// Len returns the number of tracked entities.
func (inv *Inventory) Len() int {
	inv.mu.RLock()
	defer inv.mu.RUnlock()
	return len(inv.entities)
}

// Stats returns the number of batches and changes applied so far.
func (inv *Inventory) Stats() (batches, changes int) {
	inv.mu.RLock()
	defer inv.mu.RUnlock()
	return inv.batches, inv.changes
}

// Paths returns the paths of the entities of the given type, in natural
// order.
func (inv *Inventory) Paths(t tree.NodeType) []path.Path {
	inv.mu.RLock()
	defer inv.mu.RUnlock()

	var keys []string
	for key, e := range inv.entities {
		if e.path.TargetType() == t {
			keys = append(keys, key)
		}
	}
	result := make([]path.Path, len(keys))
	for i, key := range naturalsort.Sort(keys) {
		result[i] = inv.entities[key].path
	}
	return result
}

// FlowFilters returns the flow filters of the interface at p, by index.
func (inv *Inventory) FlowFilters(iface path.Path) []*tree.Value {
	inv.mu.RLock()
	defer inv.mu.RUnlock()

	var filters []*tree.Value
	for _, e := range inv.entities {
		if e.path.TargetType() == TypeFlowFilter && e.path.Parent().Equal(iface) {
			filters = append(filters, e.value.Copy())
		}
	}
	order.Sort(filters, order.Comparator[*tree.Value](FlowFilterIndex{}))
	return filters
}
