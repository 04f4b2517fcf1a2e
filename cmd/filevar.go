// Copyright 2025 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package cmd

import (
	"io"
	"os"

	"github.com/juju/errors"
)

// FileVar represents a path to a file.
type FileVar struct {
	// Path is the path to the file.
	Path string

	// StdinMarkers are the values that mean the content comes from stdin.
	StdinMarkers []string
}

// Set stores the chosen path name in f.Path.
func (f *FileVar) Set(v string) error {
	f.Path = v
	return nil
}

// Read returns the contents of the file, relative to the context.
func (f *FileVar) Read(ctx *Context) ([]byte, error) {
	if f.Path == "" {
		return nil, errors.NotValidf("file path not set")
	}
	if f.IsStdin() {
		return io.ReadAll(ctx.Stdin)
	}
	data, err := os.ReadFile(ctx.AbsPath(f.Path))
	return data, errors.Trace(err)
}

// IsStdin determines whether the file path is one of the stdin markers.
func (f *FileVar) IsStdin() bool {
	for _, marker := range f.StdinMarkers {
		if f.Path == marker {
			return true
		}
	}
	return false
}

// String returns the path to the file.
func (f *FileVar) String() string {
	return f.Path
}
