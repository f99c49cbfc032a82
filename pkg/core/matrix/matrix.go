// Copyright 2024-2026 The ParQR Authors. SPDX-License-Identifier: Apache-2.0

// Package matrix implements the dense row-major float64 matrix store used by the
// tiled QR factorization.
//
// A Dense matrix owns a single contiguous buffer, addressed as data[r*cols+c].
// It provides no synchronization of its own: during a factorization run the
// scheduler's dependency protocol partitions accesses so that no two workers
// ever write the same element concurrently.
package matrix

import (
	"math"
	"math/rand"

	"github.com/pkg/errors"
)

// Dense is a dense row-major matrix of float64 values.
type Dense struct {
	rows, cols int
	data       []float64
}

// New returns a zero-initialized rows x cols matrix.
func New(rows, cols int) (*Dense, error) {
	if rows <= 0 || cols <= 0 {
		return nil, errors.Errorf("matrix.New: invalid dimensions %dx%d, both must be positive", rows, cols)
	}
	return &Dense{rows: rows, cols: cols, data: make([]float64, rows*cols)}, nil
}

// FromValues builds a matrix that takes ownership of the given row-major values.
func FromValues(rows, cols int, values []float64) (*Dense, error) {
	if rows <= 0 || cols <= 0 {
		return nil, errors.Errorf("matrix.FromValues: invalid dimensions %dx%d, both must be positive", rows, cols)
	}
	if len(values) != rows*cols {
		return nil, errors.Errorf("matrix.FromValues: got %d values, want %d for a %dx%d matrix",
			len(values), rows*cols, rows, cols)
	}
	return &Dense{rows: rows, cols: cols, data: values}, nil
}

// NewRandom returns a rows x cols matrix with entries drawn uniformly from [-1, 1),
// from a deterministic source seeded with seed.
func NewRandom(rows, cols int, seed int64) *Dense {
	rng := rand.New(rand.NewSource(seed))
	data := make([]float64, rows*cols)
	for ii := range data {
		data[ii] = 2*rng.Float64() - 1
	}
	return &Dense{rows: rows, cols: cols, data: data}
}

// Rows returns the number of rows.
func (d *Dense) Rows() int { return d.rows }

// Cols returns the number of columns.
func (d *Dense) Cols() int { return d.cols }

// Data returns the underlying row-major buffer. Mutations are visible to the matrix.
func (d *Dense) Data() []float64 { return d.data }

// At returns the element at row r, column c.
func (d *Dense) At(r, c int) float64 { return d.data[r*d.cols+c] }

// Set assigns the element at row r, column c.
func (d *Dense) Set(r, c int, v float64) { d.data[r*d.cols+c] = v }

// Clone returns a deep copy.
func (d *Dense) Clone() *Dense {
	data := make([]float64, len(d.data))
	copy(data, d.data)
	return &Dense{rows: d.rows, cols: d.cols, data: data}
}

// Transpose returns a newly allocated transpose of the matrix.
func (d *Dense) Transpose() *Dense {
	t := &Dense{rows: d.cols, cols: d.rows, data: make([]float64, len(d.data))}
	for r := 0; r < d.rows; r++ {
		for c := 0; c < d.cols; c++ {
			t.data[c*t.cols+r] = d.data[r*d.cols+c]
		}
	}
	return t
}

// MaxAbsDiff returns the largest absolute element-wise difference between d and other.
func (d *Dense) MaxAbsDiff(other *Dense) (float64, error) {
	if d.rows != other.rows || d.cols != other.cols {
		return 0, errors.Errorf("matrix.MaxAbsDiff: shape mismatch %dx%d vs %dx%d",
			d.rows, d.cols, other.rows, other.cols)
	}
	var maxDiff float64
	for ii, v := range d.data {
		diff := math.Abs(v - other.data[ii])
		if diff > maxDiff {
			maxDiff = diff
		}
	}
	return maxDiff, nil
}
