// Copyright 2024-2026 The ParQR Authors. SPDX-License-Identifier: Apache-2.0

package scheduler

import (
	"github.com/gomlx/exceptions"
)

// taskTable holds the full grid of tasks for one factorization run, indexed by
// (panel row, column tile). It is built once before the workers start and is
// read-only afterwards.
type taskTable struct {
	rows, cols int
	k          int
	tasks      []*Task
	count      int
}

// newTaskTable builds the task grid for an m-row stored matrix partitioned
// into gridRows panel rows of beta rows each and gridCols column tiles of
// alpha rows each.
//
// Panel row i carries its diagonal panel task at column tile k*i and one
// update task per column tile to the left of the diagonal. The update task on
// the last tile before the diagonal is flagged to seed the next panel row.
// It panics unless every panel row below the first has exactly one flagged
// update.
func newTaskTable(gridRows, gridCols, alpha, beta, m int) *taskTable {
	k := beta / alpha
	t := &taskTable{
		rows:  gridRows,
		cols:  gridCols,
		k:     k,
		tasks: make([]*Task, gridRows*gridCols),
	}
	for i := 0; i < gridRows; i++ {
		panelStart := i * beta
		panelEnd := min((i+1)*beta, m)
		diag := k * i
		if diag < gridCols {
			t.tasks[i*gridCols+diag] = &Task{
				I:        i,
				J:        diag,
				Kind:     KindPanel,
				RowStart: panelStart,
				RowEnd:   panelEnd,
				ColStart: panelStart,
				ColEnd:   panelEnd,
				Priority: taskPriority(i, diag, KindPanel, gridCols),
			}
			t.count++
		}
		flagged := 0
		for j := 0; j < diag && j < gridCols; j++ {
			t.tasks[i*gridCols+j] = &Task{
				I:                i,
				J:                j,
				Kind:             KindUpdate,
				RowStart:         j * alpha,
				RowEnd:           min((j+1)*alpha, m),
				ColStart:         panelStart,
				ColEnd:           panelEnd,
				Priority:         taskPriority(i, j, KindUpdate, gridCols),
				EnqueueNextPanel: j == diag-1,
			}
			t.count++
			if t.tasks[i*gridCols+j].EnqueueNextPanel {
				flagged++
			}
		}
		if i > 0 && flagged != 1 {
			exceptions.Panicf("scheduler: panel row %d has %d updates flagged to seed its panel, want 1", i, flagged)
		}
	}
	return t
}

// taskPriority orders tasks so that earlier panel rows run first, the panel
// task of a row beats its updates, and within a row updates run left to right.
func taskPriority(i, j int, kind TaskKind, gridCols int) int {
	kindBit := 0
	if kind == KindUpdate {
		kindBit = 1
	}
	return i*(gridCols+1)*2 + kindBit*(gridCols+1) + j
}

// at returns the task at grid position (i, j). It panics on coordinates
// outside the grid or positions the grid never populated, since the dispatch
// protocol only ever names tasks that exist.
func (t *taskTable) at(i, j int) *Task {
	if i < 0 || i >= t.rows || j < 0 || j >= t.cols {
		exceptions.Panicf("scheduler: task coordinates (%d, %d) outside the %dx%d grid", i, j, t.rows, t.cols)
	}
	task := t.tasks[i*t.cols+j]
	if task == nil {
		exceptions.Panicf("scheduler: no task at grid position (%d, %d)", i, j)
	}
	return task
}
