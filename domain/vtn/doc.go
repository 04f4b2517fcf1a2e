// Copyright 2025 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

// Package vtn models virtual tenant networks as a data tree.
//
// The tree is rooted at a vtns container holding the tenants. A tenant
// holds virtual bridges and terminals, which hold interfaces, which hold
// flow filters:
//
//   - vtns
//   - vtn[name]
//   - vbridge[name], vterminal[name]
//   - vinterface[name]
//   - flow-filter[index]
//
// Flow filters carry an ordered list of flow actions and a set of
// datalink types. Bridges also carry VLAN maps.
//
// The Inventory is a change listener handler that keeps a view of the
// entities of the tree up to date.
package vtn
