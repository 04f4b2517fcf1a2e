// Copyright 2025 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package main

import (
	"bytes"
	"fmt"
	"io"
	"sync"

	"github.com/kr/pretty"

	"github.com/juju/datatree/core/changestream"
	"github.com/juju/datatree/core/path"
	"github.com/juju/datatree/core/tree"
	"github.com/juju/datatree/internal/listener"
)

// eventPrinter is a listener handler writing one line per event. The
// lines of a batch are buffered and written out when the batch is over.
type eventPrinter struct {
	out     io.Writer
	verbose bool

	mu      sync.Mutex
	batches int
	counts  map[string]int
}

var _ listener.Handler[*bytes.Buffer] = (*eventPrinter)(nil)

func newEventPrinter(out io.Writer, verbose bool) *eventPrinter {
	return &eventPrinter{
		out:     out,
		verbose: verbose,
		counts:  make(map[string]int),
	}
}

// EnterEvent is part of the listener.Handler interface.
func (p *eventPrinter) EnterEvent() (*bytes.Buffer, error) {
	return &bytes.Buffer{}, nil
}

// ExitEvent is part of the listener.Handler interface.
func (p *eventPrinter) ExitEvent(buf *bytes.Buffer) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.batches++
	if _, err := p.out.Write(buf.Bytes()); err != nil {
		logger.Errorf("writing events: %v", err)
	}
}

// OnCreated is part of the listener.Handler interface.
func (p *eventPrinter) OnCreated(buf *bytes.Buffer, data changestream.IdentifiedData) error {
	p.line(buf, changestream.Created, data.Path())
	if p.verbose {
		dump(buf, data.Value())
	}
	return nil
}

// OnUpdated is part of the listener.Handler interface.
func (p *eventPrinter) OnUpdated(buf *bytes.Buffer, data changestream.ChangedData) error {
	p.line(buf, changestream.Updated, data.Path())
	if p.verbose {
		for _, diff := range pretty.Diff(data.OldValue().Shallow(), data.NewValue().Shallow()) {
			fmt.Fprintf(buf, "    %s\n", diff)
		}
	}
	return nil
}

// OnRemoved is part of the listener.Handler interface.
func (p *eventPrinter) OnRemoved(buf *bytes.Buffer, data changestream.IdentifiedData) error {
	p.line(buf, changestream.Removed, data.Path())
	return nil
}

func (p *eventPrinter) line(buf *bytes.Buffer, kind changestream.ChangeType, at path.Path) {
	fmt.Fprintf(buf, "%s %s\n", kind, at)
	p.mu.Lock()
	p.counts[kind.String()]++
	p.mu.Unlock()
}

// dump writes the fields of v, without its children.
func dump(buf *bytes.Buffer, v *tree.Value) {
	if v == nil {
		return
	}
	fmt.Fprintf(buf, "    %# v\n", pretty.Formatter(v.Shallow()))
}

// summary returns the number of batches and the events by kind.
func (p *eventPrinter) summary() (int, map[string]int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	counts := make(map[string]int, len(p.counts))
	for kind, n := range p.counts {
		counts[kind] = n
	}
	return p.batches, counts
}
