// Copyright 2025 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package main

import (
	"fmt"
	"os"

	"github.com/juju/loggo/v2"

	"github.com/juju/datatree/cmd"
)

var logger = loggo.GetLogger("datatree.cmd.treewatch")

func main() {
	ctx, err := cmd.DefaultContext()
	if err != nil {
		fmt.Fprintf(os.Stderr, "ERROR %v\n", err)
		os.Exit(2)
	}
	if config := os.Getenv("DATATREE_LOGGING_CONFIG"); config != "" {
		if err := loggo.ConfigureLoggers(config); err != nil {
			fmt.Fprintf(os.Stderr, "ERROR parsing DATATREE_LOGGING_CONFIG: %v\n", err)
		}
	}
	os.Exit(cmd.Main(newWatchCommand(), ctx, os.Args[1:]))
}
