// Copyright 2024-2026 The ParQR Authors. SPDX-License-Identifier: Apache-2.0

// parqr factors a matrix read from a text file with the parallel tiled QR
// scheduler and prints the wall-clock time of the parallel phase.
//
// The input file holds the STORED matrix: to QR-factor a tall matrix A, the
// file must contain Aᵀ. On return the file written by -output holds the
// compact factored form, lower triangle Rᵀ and reflector tails above the
// diagonal.
package main

import (
	"flag"
	"fmt"
	"os"
	"runtime"

	"github.com/dustin/go-humanize"
	"github.com/janpfeifer/must"
	"github.com/schollz/progressbar/v3"
	"k8s.io/klog/v2"

	"github.com/pdcrl/parqr/pkg/core/matrix"
	"github.com/pdcrl/parqr/pkg/scheduler"
)

var (
	flagThreads  = flag.Int("threads", runtime.NumCPU(), "Number of worker goroutines.")
	flagAlpha    = flag.Int("alpha", 32, "Column tile height, in matrix rows.")
	flagBeta     = flag.Int("beta", 32, "Panel height, in matrix rows. Must be a multiple of alpha.")
	flagPriority = flag.Bool("priority", true, "Order the ready queue by task priority instead of FIFO.")
	flagContinue = flag.Bool("continue_on_breakdown", false,
		"Finish the run after a numerical breakdown instead of aborting.")
	flagOutput   = flag.String("output", "", "If set, write the factored matrix to this file.")
	flagProgress = flag.Bool("progress", false, "Display a progress bar on stderr.")
)

func main() {
	klog.InitFlags(nil)
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s [flags] <matrix-file>\n\nFlags:\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()
	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}

	d, err := matrix.Load(flag.Arg(0))
	if err != nil {
		klog.Errorf("Failed to load matrix: %+v", err)
		os.Exit(1)
	}
	klog.V(1).Infof("Loaded %dx%d matrix (%s values) from %s",
		d.Rows(), d.Cols(), humanize.Comma(int64(d.Rows()*d.Cols())), flag.Arg(0))

	cfg := scheduler.Config{
		NumWorkers:          *flagThreads,
		Alpha:               *flagAlpha,
		Beta:                *flagBeta,
		UsePriorityQueue:    *flagPriority,
		ContinueOnBreakdown: *flagContinue,
	}
	if *flagProgress {
		bar := progressbar.NewOptions(scheduler.NumTasks(d.Rows(), cfg.Alpha, cfg.Beta),
			progressbar.OptionSetWriter(os.Stderr),
			progressbar.OptionSetDescription("factoring"),
			progressbar.OptionShowCount(),
			progressbar.OptionClearOnFinish())
		cfg.OnTaskDone = func() { _ = bar.Add(1) }
	}

	res, err := scheduler.Run(cfg, d)
	if err != nil {
		klog.Errorf("Factorization failed: %+v", err)
		os.Exit(1)
	}
	for _, b := range res.Breakdowns {
		klog.Warningf("Numerical breakdown in panel (%d, %d): %v", b.I, b.J, b.Err)
	}
	fmt.Printf("Time taken: %d ms\n", res.Elapsed.Milliseconds())
	klog.V(1).Infof("Completed %d tasks (%d panel, %d update), %d wait-queue promotions, %d requeues",
		res.NumTasks, res.Stats.PanelTasks, res.Stats.UpdateTasks, res.Stats.Promotions, res.Stats.Requeues)

	if *flagOutput != "" {
		must.M(d.Save(*flagOutput))
		klog.V(1).Infof("Wrote factored matrix to %s", *flagOutput)
	}
}
