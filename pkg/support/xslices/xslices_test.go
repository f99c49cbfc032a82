// Copyright 2024-2026 The ParQR Authors. SPDX-License-Identifier: Apache-2.0

package xslices

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSliceWithValue(t *testing.T) {
	assert.Equal(t, []float64{1, 1, 1}, SliceWithValue(3, 1.0))
	assert.Empty(t, SliceWithValue(0, "x"))
}

func TestIota(t *testing.T) {
	assert.Equal(t, []int{2, 3, 4, 5}, Iota(2, 4))
	assert.Equal(t, []float64{0, 1, 2}, Iota(0.0, 3))
	assert.Empty(t, Iota(1, 0))
}
