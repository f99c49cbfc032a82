// Copyright 2024-2026 The ParQR Authors. SPDX-License-Identifier: Apache-2.0

package scheduler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTaskTable(t *testing.T) {
	// m=12, alpha=2, beta=4: 3 panel rows, 6 column tiles, K=2.
	tt := newTaskTable(3, 6, 2, 4, 12)
	assert.Equal(t, 9, tt.count)

	p0 := tt.at(0, 0)
	assert.Equal(t, KindPanel, p0.Kind)
	assert.Equal(t, 0, p0.RowStart)
	assert.Equal(t, 4, p0.RowEnd)
	assert.Equal(t, 0, p0.ColStart)
	assert.Equal(t, 4, p0.ColEnd)

	p1 := tt.at(1, 2)
	assert.Equal(t, KindPanel, p1.Kind)
	assert.Equal(t, 4, p1.RowStart)
	assert.Equal(t, 8, p1.RowEnd)

	p2 := tt.at(2, 4)
	assert.Equal(t, KindPanel, p2.Kind)
	assert.Equal(t, 8, p2.RowStart)
	assert.Equal(t, 12, p2.RowEnd)

	// Row 1 has updates at tiles 0 and 1, the last one flagged.
	u10 := tt.at(1, 0)
	assert.Equal(t, KindUpdate, u10.Kind)
	assert.Equal(t, 0, u10.RowStart)
	assert.Equal(t, 2, u10.RowEnd)
	assert.Equal(t, 4, u10.ColStart)
	assert.Equal(t, 8, u10.ColEnd)
	assert.False(t, u10.EnqueueNextPanel)
	assert.True(t, tt.at(1, 1).EnqueueNextPanel)

	// Row 2 has updates at tiles 0..3, only the last flagged.
	for j := 0; j < 3; j++ {
		assert.False(t, tt.at(2, j).EnqueueNextPanel, "tile %d", j)
	}
	assert.True(t, tt.at(2, 3).EnqueueNextPanel)
}

func TestNewTaskTableRaggedLastPanel(t *testing.T) {
	// m=10, alpha=3, beta=3: 4 panel rows, the last one row short.
	tt := newTaskTable(4, 4, 3, 3, 10)
	last := tt.at(3, 3)
	assert.Equal(t, KindPanel, last.Kind)
	assert.Equal(t, 9, last.RowStart)
	assert.Equal(t, 10, last.RowEnd)
	u := tt.at(3, 0)
	assert.Equal(t, 0, u.RowStart)
	assert.Equal(t, 3, u.RowEnd)
	assert.Equal(t, 9, u.ColStart)
	assert.Equal(t, 10, u.ColEnd)
}

func TestTaskPriorityOrdering(t *testing.T) {
	const cols = 6
	// Panel row 0 beats everything in row 1.
	assert.Less(t, taskPriority(0, 0, KindPanel, cols), taskPriority(1, 0, KindUpdate, cols))
	// Within a row the panel beats its updates.
	assert.Less(t, taskPriority(1, 2, KindPanel, cols), taskPriority(1, 0, KindUpdate, cols))
	// Updates of a row run left to right.
	assert.Less(t, taskPriority(1, 0, KindUpdate, cols), taskPriority(1, 1, KindUpdate, cols))
}

func TestTaskTableAtPanics(t *testing.T) {
	tt := newTaskTable(3, 6, 2, 4, 12)
	assert.Panics(t, func() { tt.at(3, 0) })
	assert.Panics(t, func() { tt.at(0, 6) })
	assert.Panics(t, func() { tt.at(-1, 0) })
	// (0, 1) is above the first diagonal: never populated.
	assert.Panics(t, func() { tt.at(0, 1) })
}

func TestDependencyTable(t *testing.T) {
	d := newDependencyTable(2, 3)
	assert.False(t, d.get(1, 2))
	d.set(1, 2)
	assert.True(t, d.get(1, 2))
	assert.False(t, d.get(0, 0))
	assert.Panics(t, func() { d.set(1, 2) })
}

func TestFIFOQueueOrder(t *testing.T) {
	q := &fifoQueue{}
	_, ok := q.tryPop()
	assert.False(t, ok)

	tasks := make([]*Task, 200)
	for i := range tasks {
		tasks[i] = &Task{I: i}
		q.push(tasks[i])
	}
	for i := range tasks {
		got, ok := q.tryPop()
		require.True(t, ok)
		assert.Same(t, tasks[i], got)
	}
	_, ok = q.tryPop()
	assert.False(t, ok)
}

func TestPriorityQueueOrder(t *testing.T) {
	q := newReadyQueue(true)
	for _, p := range []int{5, 1, 4, 2, 3} {
		q.push(&Task{Priority: p})
	}
	for want := 1; want <= 5; want++ {
		got, ok := q.tryPop()
		require.True(t, ok)
		assert.Equal(t, want, got.Priority)
	}
	_, ok := q.tryPop()
	assert.False(t, ok)
}

func TestTaskString(t *testing.T) {
	task := &Task{I: 1, J: 0, Kind: KindUpdate, RowStart: 0, RowEnd: 2, ColStart: 4, ColEnd: 8}
	assert.Equal(t, "update(1,0)[rows 0:2 -> 4:8]", task.String())
	assert.Equal(t, "panel", KindPanel.String())
	assert.Equal(t, "TaskKind(7)", TaskKind(7).String())
}
