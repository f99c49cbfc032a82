// Copyright 2024-2026 The ParQR Authors. SPDX-License-Identifier: Apache-2.0

package householder

import (
	"github.com/pdcrl/parqr/pkg/core/matrix"
)

// ExtractR returns the upper-trapezoidal R factor of Sᵀ = Q·R from the compact
// form: the transpose of the lower triangle of the factored rows x cols stored
// matrix. The result has dimensions cols x rows.
func ExtractR(mat []float64, rows, cols int) *matrix.Dense {
	r, err := matrix.New(cols, rows)
	if err != nil {
		panic(err)
	}
	for i := 0; i < cols; i++ {
		for j := i; j < rows; j++ {
			r.Set(i, j, mat[j*cols+i])
		}
	}
	return r
}

// ExtractQ accumulates the orthogonal Q factor of Sᵀ = Q·R from the compact
// form, as the product H₀·H₁·…·Hᵣ₋₁ of the pivot reflectors. The result has
// dimensions cols x cols.
//
// Pivots whose reflector was never formed (zero B entry) are skipped, so Q is
// still well-defined after a numerical breakdown.
func ExtractQ(mat []float64, rows, cols int, refl *Reflectors) *matrix.Dense {
	q, err := matrix.New(cols, cols)
	if err != nil {
		panic(err)
	}
	for i := 0; i < cols; i++ {
		q.Set(i, i, 1)
	}
	numPivots := rows
	if cols < numPivots {
		numPivots = cols
	}
	for p := 0; p < numPivots; p++ {
		b := refl.B[p]
		if b == 0 {
			continue
		}
		up := refl.Up[p]
		for r := 0; r < cols; r++ {
			sm := q.At(r, p) * up
			for k := p + 1; k < cols; k++ {
				sm += q.At(r, k) * mat[p*cols+k]
			}
			if sm == 0 {
				continue
			}
			sm *= b
			q.Set(r, p, q.At(r, p)+sm*up)
			for k := p + 1; k < cols; k++ {
				q.Set(r, k, q.At(r, k)+sm*mat[p*cols+k])
			}
		}
	}
	return q
}
