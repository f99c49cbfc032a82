// Copyright 2024-2026 The ParQR Authors. SPDX-License-Identifier: Apache-2.0

// Package householder implements the two numeric kernels of the tiled QR
// factorization: panel factorization and trailing update.
//
// Both kernels sweep Householder pivots along the rows of the stored matrix,
// in the manner of LINPACK's H12: pivot p builds a reflector from the tail of
// row p and applies it to a range of other rows. The decomposition produced is
//
//	S = Rᵀ·Qᵀ   (equivalently Sᵀ = Q·R)
//
// for the stored matrix S: on return the lower triangle of S holds Rᵀ and the
// elements above the diagonal hold the reflector tails, with the remaining
// per-pivot scalars published in a Reflectors pair. To factor a tall matrix A
// as Q·R, store Aᵀ.
//
// The kernels carry no synchronization. Callers must guarantee that the pivot
// rows a kernel reads were fully written before the call, and that no other
// goroutine touches the row range it writes; the scheduler's dependency
// protocol provides exactly that.
package householder

import (
	"math"

	"github.com/pkg/errors"
)

// ErrBreakdown reports a numerical breakdown inside a panel factorization:
// either a pivot row whose tail is zero (or only rounding residue next to the
// rest of the row), or a non-negative reflector scale.
// The matrix and reflector state are left as the sweep last wrote them.
var ErrBreakdown = errors.New("numerical breakdown")

// Reflectors holds the per-pivot scalars shared between the panel kernel that
// writes them and the trailing-update kernels that read them.
//
// Entry p is written only by the panel task whose pivot sweep covers row p,
// and must be read only after that task's completion has been published.
type Reflectors struct {
	// Up holds, per pivot, the modified head element of the reflector vector.
	Up []float64
	// B holds, per pivot, the reciprocal reflector scale (negative for a
	// successfully formed reflector).
	B []float64
}

// NewReflectors returns zeroed reflector storage for a matrix with the given
// number of rows.
func NewReflectors(rows int) *Reflectors {
	return &Reflectors{
		Up: make([]float64, rows),
		B:  make([]float64, rows),
	}
}

// PanelFactor factors the panel rows [rowStart, rowEnd) of the m x n row-major
// matrix mat, applying each pivot's reflector to the rows (pivot, colEnd) as it
// goes, and publishing the pivot scalars in refl.
//
// It returns an error wrapping ErrBreakdown when a pivot cannot form a
// reflector; the sweep stops at that pivot and everything written so far
// remains in place.
func PanelFactor(mat []float64, m, n, rowStart, rowEnd, colStart, colEnd int, refl *Reflectors) error {
	_ = colStart // The panel always updates the rows (pivot, colEnd), regardless of colStart.
	for lpivot := rowStart; lpivot < rowEnd; lpivot++ {
		if lpivot >= n {
			// Rows past the last column have no diagonal element to eliminate.
			break
		}
		cl := math.Abs(mat[lpivot*n+lpivot])
		for k := lpivot + 1; k < n; k++ {
			if sm := math.Abs(mat[lpivot*n+k]); sm > cl {
				cl = sm
			}
		}
		// A tail at rounding level next to the already eliminated part of the
		// row (which holds Rᵀ entries) counts as zero: the row is dependent.
		rowMax := cl
		for k := 0; k < lpivot; k++ {
			rowMax = math.Max(rowMax, math.Abs(mat[lpivot*n+k]))
		}
		if cl <= float64(n)*0x1p-52*rowMax {
			return errors.Wrapf(ErrBreakdown, "pivot %d has a zero row tail", lpivot)
		}

		// Scale by the largest magnitude before squaring, to avoid overflow.
		clinv := 1.0 / cl
		sm := 0.0
		for k := lpivot; k < n; k++ {
			x := mat[lpivot*n+k] * clinv
			sm += x * x
		}
		cl *= math.Sqrt(sm)
		if mat[lpivot*n+lpivot] > 0 {
			cl = -cl
		}

		up := mat[lpivot*n+lpivot] - cl
		mat[lpivot*n+lpivot] = cl

		b := up * cl
		if b >= 0 {
			return errors.Wrapf(ErrBreakdown, "pivot %d has non-negative reflector scale %g", lpivot, b)
		}
		b = 1.0 / b
		refl.Up[lpivot] = up
		refl.B[lpivot] = b

		applyReflector(mat, n, lpivot, up, b, lpivot+1, colEnd)
	}
	return nil
}

// TrailingUpdate applies the reflectors of pivots [rowStart, rowEnd) to the
// rows [colStart, colEnd) of the m x n row-major matrix mat, reading the pivot
// scalars from refl.
//
// A pivot whose reflector was never formed (B entry still zero, after a
// breakdown upstream) degenerates to a no-op for that pivot.
func TrailingUpdate(mat []float64, m, n, rowStart, rowEnd, colStart, colEnd int, refl *Reflectors) {
	for lpivot := rowStart; lpivot < rowEnd; lpivot++ {
		if lpivot >= n {
			break
		}
		applyReflector(mat, n, lpivot, refl.Up[lpivot], refl.B[lpivot], colStart, colEnd)
	}
}

// applyReflector applies pivot lpivot's reflector (up, b, and the stored tail
// of row lpivot) to the rows [first, last) of mat.
func applyReflector(mat []float64, n, lpivot int, up, b float64, first, last int) {
	for j := first; j < last; j++ {
		sm := mat[j*n+lpivot] * up
		for i := lpivot + 1; i < n; i++ {
			sm += mat[j*n+i] * mat[lpivot*n+i]
		}
		if sm == 0 {
			continue
		}
		sm *= b
		mat[j*n+lpivot] += sm * up
		for i := lpivot + 1; i < n; i++ {
			mat[j*n+i] += sm * mat[lpivot*n+i]
		}
	}
}
