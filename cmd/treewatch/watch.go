// Copyright 2025 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package main

import (
	"bytes"
	"context"
	"strings"
	"time"

	"github.com/juju/clock"
	"github.com/juju/collections/transform"
	"github.com/juju/errors"
	"github.com/juju/gnuflag"

	"github.com/juju/datatree/cmd"
	"github.com/juju/datatree/core/path"
	"github.com/juju/datatree/domain/vtn"
	"github.com/juju/datatree/internal/listener"
	"github.com/juju/datatree/internal/memstore"
	"github.com/juju/datatree/internal/walker"
)

const watchDoc = `
treewatch replays the transactions of a scenario file against an in-memory
virtual tenant network store, and prints the change events a listener
registered at the root path receives, one line per event:

    <kind> <path>

The listener is configured by a walker settings file, for example:

    required-types: [vtn, vbridge]
    outer-first: [created, updated]
    type-order: {vbridge: 0, vterminal: 1}

A scenario of "-" is read from stdin.
`

type watchCommand struct {
	out      cmd.Output
	settings cmd.FileVar
	scenario cmd.FileVar

	rootArg   string
	root      path.Path
	clustered bool
	verbose   bool
	summary   bool
	timeout   time.Duration
}

func newWatchCommand() *watchCommand {
	return &watchCommand{}
}

// summaryReport is written out by --summary.
type summaryReport struct {
	Revision int64          `yaml:"revision" json:"revision"`
	Batches  int            `yaml:"batches" json:"batches"`
	Events   map[string]int `yaml:"events" json:"events"`
}

// Info is part of the cmd.Command interface.
func (c *watchCommand) Info() *cmd.Info {
	return &cmd.Info{
		Name:    "treewatch",
		Args:    "<scenario>",
		Purpose: "Print the change events of a data tree scenario.",
		Doc:     watchDoc,
	}
}

// SetFlags is part of the cmd.Command interface.
func (c *watchCommand) SetFlags(f *gnuflag.FlagSet) {
	f.Var(&c.settings, "settings", "Walker settings file")
	f.StringVar(&c.rootArg, "root", vtn.RootPath.String(), "Path to register the listener at")
	f.BoolVar(&c.clustered, "clustered", false, "Register a clustered listener")
	f.BoolVar(&c.verbose, "verbose", false, "Dump the values of created and updated nodes")
	f.BoolVar(&c.summary, "summary", false, "Write a summary of the events when done")
	f.DurationVar(&c.timeout, "timeout", 10*time.Second, "How long to wait for the listener on each transaction")
	c.out.AddFlags(f, "yaml", cmd.DefaultFormatters)
}

// Init is part of the cmd.Command interface.
func (c *watchCommand) Init(args []string) error {
	if len(args) == 0 {
		return errors.New("no scenario specified")
	}
	c.scenario = cmd.FileVar{Path: args[0], StdinMarkers: []string{"-"}}
	if err := cmd.CheckEmpty(args[1:]); err != nil {
		return err
	}
	root, err := path.Parse(c.rootArg)
	if err != nil {
		return errors.Annotate(err, "invalid --root")
	}
	c.root = root
	return nil
}

// Run is part of the cmd.Command interface.
func (c *watchCommand) Run(ctx *cmd.Context) error {
	settings, err := c.loadSettings(ctx)
	if err != nil {
		return errors.Trace(err)
	}
	data, err := c.scenario.Read(ctx)
	if err != nil {
		return errors.Annotate(err, "reading scenario")
	}
	sc, err := parseScenario(data)
	if err != nil {
		return errors.Trace(err)
	}

	store, err := memstore.New(memstore.Config{
		Schema: vtn.Schema(),
		Clock:  clock.WallClock,
		Logger: logger,
	})
	if err != nil {
		return errors.Trace(err)
	}

	printer := newEventPrinter(ctx.Stdout, c.verbose)
	shell, err := listener.New(listener.Config[*bytes.Buffer]{
		Handler: printer,
		Walker:  settings.Config(),
		Logger:  logger,
	})
	if err != nil {
		return errors.Trace(err)
	}
	if _, err := shell.Register(store, c.root, c.clustered); err != nil {
		return errors.Trace(err)
	}
	defer shell.Close()

	for i, ops := range sc.transactions {
		if err := c.commit(store, ops); err != nil {
			return errors.Annotatef(err, "transaction %d", i+1)
		}
		revision, _ := store.Revision()
		matched := transform.Slice(store.List(c.root), path.Path.String)
		logger.Debugf("revision %d, listening on %s", revision, strings.Join(matched, ", "))
	}

	if !c.summary {
		return nil
	}
	revision, _ := store.Revision()
	batches, events := printer.summary()
	return c.out.Write(ctx, summaryReport{
		Revision: revision,
		Batches:  batches,
		Events:   events,
	})
}

func (c *watchCommand) loadSettings(ctx *cmd.Context) (walker.Settings, error) {
	if c.settings.Path == "" {
		return walker.DefaultSettings(), nil
	}
	data, err := c.settings.Read(ctx)
	if err != nil {
		return walker.Settings{}, errors.Annotate(err, "reading settings")
	}
	settings, err := walker.ParseSettings(data)
	return settings, errors.Trace(err)
}

func (c *watchCommand) commit(store *memstore.Store, ops []operation) error {
	txn := store.NewTransaction()
	for _, op := range ops {
		if op.value == nil {
			txn.Delete(op.path)
		} else {
			txn.Put(op.path, op.value)
		}
	}
	receipt, err := txn.Commit()
	if err != nil {
		return errors.Trace(err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()
	return errors.Trace(receipt.Wait(ctx))
}
