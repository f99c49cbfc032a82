// Copyright 2024-2026 The ParQR Authors. SPDX-License-Identifier: Apache-2.0

// Package scheduler drives the tiled QR factorization with a pool of workers
// pulling tasks from shared queues.
//
// The stored matrix is partitioned into panel rows of Beta matrix rows and
// column tiles of Alpha matrix rows (Beta a multiple of Alpha). Panel row i
// carries one diagonal panel task and, for every column tile left of its
// diagonal, one trailing-update task. An update task becomes ready once its
// left neighbor in the same panel row has completed; a panel task becomes
// ready once the last update of its row has completed. Completion is
// published through a table of atomic bits, so workers never wait on locks
// while deciding readiness.
package scheduler

import (
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
	"k8s.io/klog/v2"

	"github.com/pdcrl/parqr/pkg/core/householder"
	"github.com/pdcrl/parqr/pkg/core/matrix"
)

// Config parameterizes one factorization run.
type Config struct {
	// NumWorkers is the number of worker goroutines.
	NumWorkers int

	// Alpha is the column-tile height and Beta the panel height, in matrix
	// rows. Beta must be a multiple of Alpha.
	Alpha, Beta int

	// UsePriorityQueue selects the priority-ordered ready queue; false falls
	// back to FIFO order.
	UsePriorityQueue bool

	// ContinueOnBreakdown keeps the run going after a panel task hits a
	// numerical breakdown, recording it and treating the unfinished pivots as
	// identity reflectors. The default aborts the run on the first breakdown.
	ContinueOnBreakdown bool

	// OnTaskDone, if set, is called after every completed task, from the
	// worker that ran it.
	OnTaskDone func()
}

// Validate checks the configuration, returning an error describing the first
// problem found.
func (c *Config) Validate() error {
	if c.NumWorkers < 1 {
		return errors.Errorf("scheduler: NumWorkers must be at least 1, got %d", c.NumWorkers)
	}
	if c.Alpha < 1 {
		return errors.Errorf("scheduler: Alpha must be at least 1, got %d", c.Alpha)
	}
	if c.Beta < 1 {
		return errors.Errorf("scheduler: Beta must be at least 1, got %d", c.Beta)
	}
	if c.Beta%c.Alpha != 0 {
		return errors.Errorf("scheduler: Beta (%d) must be a multiple of Alpha (%d)", c.Beta, c.Alpha)
	}
	return nil
}

// Breakdown records a numerical breakdown hit by one panel task.
type Breakdown struct {
	// I, J are the grid coordinates of the panel task.
	I, J int
	// Err is the kernel error, wrapping householder.ErrBreakdown.
	Err error
}

// Stats is a snapshot of the run's scheduling counters.
type Stats struct {
	// PanelTasks and UpdateTasks count completed tasks by kind.
	PanelTasks, UpdateTasks int64
	// ReadyPushes counts tasks pushed directly to the ready queue,
	// WaitPushes tasks parked in the wait queue, and Promotions wait-queue
	// tasks moved to execution once their dependency resolved.
	ReadyPushes, WaitPushes, Promotions int64
	// Requeues counts wait-queue pops whose dependency was still unmet.
	Requeues int64
}

// Result reports the outcome of a factorization run.
type Result struct {
	// Elapsed is the wall-clock duration of the parallel phase.
	Elapsed time.Duration
	// NumTasks is the total number of tasks in the grid.
	NumTasks int
	// Stats holds the scheduling counters.
	Stats Stats
	// Breakdowns lists the numerical breakdowns hit, in no particular order.
	// Empty on a clean run.
	Breakdowns []Breakdown
	// Reflectors holds the per-pivot scalars of the factorization, needed to
	// extract or apply the Q factor.
	Reflectors *householder.Reflectors
}

// NumTasks returns the size of the task grid for an m-row stored matrix
// factored with the given tile heights.
func NumTasks(m, alpha, beta int) int {
	gridRows := (m + beta - 1) / beta
	k := beta / alpha
	return gridRows + k*gridRows*(gridRows-1)/2
}

// runState is the shared state of one factorization run.
type runState struct {
	cfg   Config
	mat   []float64
	m, n  int
	refl  *householder.Reflectors
	table *taskTable
	deps  *dependencyTable
	ready taskQueue
	wait  taskQueue

	abort atomic.Bool
	done  atomic.Bool

	panelTasks  atomic.Int64
	updateTasks atomic.Int64
	readyPushes atomic.Int64
	waitPushes  atomic.Int64
	promotions  atomic.Int64
	requeues    atomic.Int64

	breakdownMu sync.Mutex
	breakdowns  []Breakdown
}

// Run factors the stored matrix d in place, overwriting it with the compact
// Sᵀ = Q·R form described by package householder, and returns the run's
// timing and scheduling statistics.
//
// On a numerical breakdown the default is to stop the run and return an error
// wrapping householder.ErrBreakdown; the partial factorization is left in the
// matrix. With ContinueOnBreakdown set the run finishes, the error is nil,
// and the breakdowns are listed in the Result.
func Run(cfg Config, d *matrix.Dense) (*Result, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	m, n := d.Rows(), d.Cols()
	if m > n {
		return nil, errors.Errorf("scheduler: stored matrix is %dx%d, want rows <= cols; store the transpose", m, n)
	}

	gridRows := (m + cfg.Beta - 1) / cfg.Beta
	gridCols := (m + cfg.Alpha - 1) / cfg.Alpha
	s := &runState{
		cfg:   cfg,
		mat:   d.Data(),
		m:     m,
		n:     n,
		refl:  householder.NewReflectors(m),
		table: newTaskTable(gridRows, gridCols, cfg.Alpha, cfg.Beta, m),
		deps:  newDependencyTable(gridRows, gridCols),
		ready: newReadyQueue(cfg.UsePriorityQueue),
		wait:  &fifoQueue{},
	}
	klog.V(1).Infof("scheduler: %dx%d matrix, %dx%d task grid, %d tasks, %d workers",
		m, n, gridRows, gridCols, s.table.count, cfg.NumWorkers)

	s.ready.push(s.table.at(0, 0))
	s.readyPushes.Add(1)

	start := time.Now()
	var wg sync.WaitGroup
	for w := 0; w < cfg.NumWorkers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.workerLoop()
		}()
	}
	wg.Wait()
	elapsed := time.Since(start)

	res := &Result{
		Elapsed:  elapsed,
		NumTasks: s.table.count,
		Stats: Stats{
			PanelTasks:  s.panelTasks.Load(),
			UpdateTasks: s.updateTasks.Load(),
			ReadyPushes: s.readyPushes.Load(),
			WaitPushes:  s.waitPushes.Load(),
			Promotions:  s.promotions.Load(),
			Requeues:    s.requeues.Load(),
		},
		Breakdowns: s.breakdowns,
		Reflectors: s.refl,
	}
	klog.V(1).Infof("scheduler: finished %d tasks in %s (%d panel, %d update, %d breakdowns)",
		res.NumTasks, elapsed, res.Stats.PanelTasks, res.Stats.UpdateTasks, len(res.Breakdowns))

	if len(s.breakdowns) > 0 && !cfg.ContinueOnBreakdown {
		b := s.breakdowns[0]
		return res, errors.Wrapf(b.Err, "scheduler: panel task (%d, %d) failed", b.I, b.J)
	}
	return res, nil
}

// workerLoop pulls tasks until the terminal task completes or the run aborts.
//
// Each iteration drains the ready queue first, then probes the wait queue
// once: a waiting task whose left neighbor has completed is executed
// immediately, otherwise it goes back to the end of the wait queue.
func (s *runState) workerLoop() {
	for {
		if s.abort.Load() || s.done.Load() {
			return
		}
		if t, ok := s.ready.tryPop(); ok {
			s.execute(t)
			continue
		}
		if t, ok := s.wait.tryPop(); ok {
			if s.deps.get(t.I, t.J-1) {
				s.promotions.Add(1)
				s.execute(t)
			} else {
				s.requeues.Add(1)
				s.wait.push(t)
			}
			continue
		}
		if s.deps.get(s.table.rows-1, s.table.k*(s.table.rows-1)) {
			s.done.Store(true)
			return
		}
		runtime.Gosched()
	}
}

// execute runs one task's kernel, publishes its completion bit and pushes the
// tasks it unblocks.
func (s *runState) execute(t *Task) {
	klog.V(2).Infof("scheduler: running %s", t)
	switch t.Kind {
	case KindPanel:
		err := householder.PanelFactor(s.mat, s.m, s.n, t.RowStart, t.RowEnd, t.ColStart, t.ColEnd, s.refl)
		s.panelTasks.Add(1)
		s.deps.set(t.I, t.J)
		if err != nil {
			s.recordBreakdown(t, err)
			if !s.cfg.ContinueOnBreakdown {
				s.abort.Store(true)
				break
			}
		}
		s.pushPanelSuccessors(t)
	case KindUpdate:
		householder.TrailingUpdate(s.mat, s.m, s.n, t.RowStart, t.RowEnd, t.ColStart, t.ColEnd, s.refl)
		s.updateTasks.Add(1)
		s.deps.set(t.I, t.J)
		if t.EnqueueNextPanel && t.J+1 < s.table.cols {
			next := s.table.at((t.J+1)/s.table.k, t.J+1)
			s.ready.push(next)
			s.readyPushes.Add(1)
		}
	}
	if s.cfg.OnTaskDone != nil {
		s.cfg.OnTaskDone()
	}
}

// pushPanelSuccessors enqueues the update tasks unlocked by a completed panel
// at (i, k*i): every column tile of the panel's strip, in every panel row
// below. A task whose left neighbor is already done (or that has no left
// neighbor) goes straight to the ready queue, the rest park in the wait
// queue.
func (s *runState) pushPanelSuccessors(t *Task) {
	stripEnd := min(t.J+s.table.k, s.table.cols)
	for j := t.J; j < stripEnd; j++ {
		for i := t.I + 1; i < s.table.rows; i++ {
			succ := s.table.at(i, j)
			if j == 0 || s.deps.get(i, j-1) {
				s.ready.push(succ)
				s.readyPushes.Add(1)
			} else {
				s.wait.push(succ)
				s.waitPushes.Add(1)
			}
		}
	}
}

func (s *runState) recordBreakdown(t *Task, err error) {
	klog.V(1).Infof("scheduler: breakdown in %s: %v", t, err)
	s.breakdownMu.Lock()
	s.breakdowns = append(s.breakdowns, Breakdown{I: t.I, J: t.J, Err: err})
	s.breakdownMu.Unlock()
}
