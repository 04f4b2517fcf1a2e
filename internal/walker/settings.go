// Copyright 2025 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package walker

import (
	"github.com/juju/collections/set"
	"github.com/juju/errors"
	"github.com/juju/schema"
	"gopkg.in/yaml.v3"

	"github.com/juju/datatree/core/changestream"
	"github.com/juju/datatree/core/order"
	"github.com/juju/datatree/core/tree"
)

const (
	leafTypesKey      = "leaf-types"
	requiredTypesKey  = "required-types"
	requiredEventsKey = "required-events"
	outerFirstKey     = "outer-first"
	typeOrderKey      = "type-order"
	maxDepthKey       = "max-depth"
)

var settingsFields = schema.Fields{
	leafTypesKey:      schema.List(schema.String()),
	requiredTypesKey:  schema.List(schema.String()),
	requiredEventsKey: schema.List(schema.String()),
	outerFirstKey:     schema.List(schema.String()),
	typeOrderKey:      schema.StringMap(schema.ForceInt()),
	maxDepthKey:       schema.ForceInt(),
}

var settingsDefaults = schema.Defaults{
	leafTypesKey:      schema.Omit,
	requiredTypesKey:  schema.Omit,
	requiredEventsKey: schema.Omit,
	outerFirstKey:     schema.Omit,
	typeOrderKey:      schema.Omit,
	maxDepthKey:       schema.Omit,
}

// Settings is the declarative form of a walker Config, as read from a
// settings file.
type Settings struct {
	// LeafTypes lists the types the walk does not descend below.
	LeafTypes []tree.NodeType

	// RequiredTypes lists the types events are emitted for. Empty means
	// every type.
	RequiredTypes []tree.NodeType

	// RequiredEvents holds the change types events are emitted for.
	RequiredEvents changestream.ChangeType

	// OuterFirst holds the change types whose events are emitted before
	// the events of the children.
	OuterFirst changestream.ChangeType

	// TypeOrder ranks node types for the ordering of siblings. When
	// empty, the tree enumeration order is kept.
	TypeOrder map[tree.NodeType]int

	// MaxDepth bounds the walk depth. Zero means DefaultMaxDepth.
	MaxDepth int
}

// DefaultSettings returns the settings matching the zero Config.
func DefaultSettings() Settings {
	return Settings{
		RequiredEvents: changestream.All,
		OuterFirst:     changestream.Created | changestream.Updated,
	}
}

// ParseSettings reads settings from YAML. Unknown keys are rejected;
// missing keys keep their default.
func ParseSettings(data []byte) (Settings, error) {
	var raw map[string]interface{}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return Settings{}, errors.Annotate(err, "parsing walker settings")
	}
	if raw == nil {
		raw = make(map[string]interface{})
	}
	checker := schema.StrictFieldMap(settingsFields, settingsDefaults)
	coerced, err := checker.Coerce(raw, nil)
	if err != nil {
		return Settings{}, errors.Annotate(err, "validating walker settings")
	}
	attrs := coerced.(map[string]interface{})

	settings := DefaultSettings()
	if v, ok := attrs[leafTypesKey]; ok {
		settings.LeafTypes = nodeTypes(v)
	}
	if v, ok := attrs[requiredTypesKey]; ok {
		settings.RequiredTypes = nodeTypes(v)
	}
	if v, ok := attrs[requiredEventsKey]; ok {
		if settings.RequiredEvents, err = changeTypes(v); err != nil {
			return Settings{}, errors.Annotatef(err, "reading %s", requiredEventsKey)
		}
	}
	if v, ok := attrs[outerFirstKey]; ok {
		if settings.OuterFirst, err = changeTypes(v); err != nil {
			return Settings{}, errors.Annotatef(err, "reading %s", outerFirstKey)
		}
	}
	if v, ok := attrs[typeOrderKey]; ok {
		ranks := v.(map[string]interface{})
		settings.TypeOrder = make(map[tree.NodeType]int, len(ranks))
		for name, rank := range ranks {
			settings.TypeOrder[tree.NodeType(name)] = rank.(int)
		}
	}
	if v, ok := attrs[maxDepthKey]; ok {
		settings.MaxDepth = v.(int)
		if settings.MaxDepth < 0 {
			return Settings{}, errors.NotValidf("negative %s %d", maxDepthKey, settings.MaxDepth)
		}
	}
	return settings, nil
}

func nodeTypes(v interface{}) []tree.NodeType {
	items := v.([]interface{})
	result := make([]tree.NodeType, len(items))
	for i, item := range items {
		result[i] = tree.NodeType(item.(string))
	}
	return result
}

func changeTypes(v interface{}) (changestream.ChangeType, error) {
	var result changestream.ChangeType
	for _, item := range v.([]interface{}) {
		t, err := changestream.ParseChangeType(item.(string))
		if err != nil {
			return 0, errors.Trace(err)
		}
		result |= t
	}
	return result, nil
}

// Config returns the walker config described by the settings.
func (s Settings) Config() Config {
	leaves := set.NewStrings()
	for _, t := range s.LeafTypes {
		leaves.Add(string(t))
	}
	required := set.NewStrings()
	for _, t := range s.RequiredTypes {
		required.Add(string(t))
	}
	requiredEvents, outerFirst := s.RequiredEvents, s.OuterFirst

	cfg := Config{
		IsLeaf: func(t tree.NodeType) bool {
			return leaves.Contains(string(t))
		},
		IsRequiredType: func(t tree.NodeType) bool {
			return required.IsEmpty() || required.Contains(string(t))
		},
		IsRequiredEvent: func(t changestream.ChangeType) bool {
			return requiredEvents.Contains(t)
		},
		IsDepthFirst: func(t changestream.ChangeType) bool {
			return outerFirst.Contains(t)
		},
		MaxDepth: s.MaxDepth,
	}
	if len(s.TypeOrder) > 0 {
		comparator := order.NewPathTypeComparator()
		for t, rank := range s.TypeOrder {
			comparator.SetOrder(t, rank)
		}
		cfg.Order = comparator
	}
	return cfg
}
