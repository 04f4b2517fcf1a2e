// Copyright 2025 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

/*
Package core holds the concepts and pure logic of the data tree: typed node
values and their structural identity, paths, schemas, modification trees as
produced by a store, change events and sibling orderings.

It is important to be aware of what should *not* go here. In particular:

  - if it keeps state across calls, or owns a goroutine, it should not be in
    here; that belongs in internal/.
  - if it is concerned with a particular data model, such as virtual tenant
    networks, it should not be in here; that belongs in domain/.
  - if it is concerned with command line or serialization formats, it should
    not be in here.

...and more generally, when adding to core:

  - it's fine to import from any subpackage of "github.com/juju/datatree/core"
  - but never import from any other subpackage of "github.com/juju/datatree"
  - don't introduce mutable global state
*/
package core
