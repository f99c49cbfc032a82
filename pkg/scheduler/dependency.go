// Copyright 2024-2026 The ParQR Authors. SPDX-License-Identifier: Apache-2.0

package scheduler

import (
	"sync/atomic"

	"github.com/gomlx/exceptions"
)

// dependencyTable records task completion, one atomic bit per grid position.
//
// A bit is set exactly once, by the worker that finished the task, and may be
// polled by any worker deciding whether a successor is ready. The
// atomic.Bool store/load pair is the only synchronization between a task's
// matrix writes and its successors' reads.
type dependencyTable struct {
	rows, cols int
	bits       []atomic.Bool
}

func newDependencyTable(rows, cols int) *dependencyTable {
	return &dependencyTable{
		rows: rows,
		cols: cols,
		bits: make([]atomic.Bool, rows*cols),
	}
}

// set publishes completion of the task at (i, j). Completing the same task
// twice is a protocol violation and panics.
func (d *dependencyTable) set(i, j int) {
	if d.bits[i*d.cols+j].Swap(true) {
		exceptions.Panicf("scheduler: task (%d, %d) completed twice", i, j)
	}
}

// get reports whether the task at (i, j) has completed.
func (d *dependencyTable) get(i, j int) bool {
	return d.bits[i*d.cols+j].Load()
}
