// Copyright 2025 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package testing

import (
	"time"
)

const (
	// ShortWait bounds how long a test blocks to confirm that something
	// does not happen, such as a batch delivered to a closed listener.
	ShortWait = 50 * time.Millisecond

	// LongWait bounds how long a test blocks for something that should
	// already have happened, such as an asynchronous batch delivery.
	LongWait = 10 * time.Second
)
