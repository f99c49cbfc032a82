// Copyright 2024-2026 The ParQR Authors. SPDX-License-Identifier: Apache-2.0

// Package xslices provides small generic slice helpers used across the project.
package xslices

import (
	"golang.org/x/exp/constraints"
)

// SliceWithValue returns a new slice of the given size with every element set to value.
func SliceWithValue[T any](size int, value T) []T {
	s := make([]T, size)
	for ii := range s {
		s[ii] = value
	}
	return s
}

// Iota returns a slice of the given length with values start, start+1, start+2, ...
func Iota[T interface {
	constraints.Integer | constraints.Float
}](start T, len int) (slice []T) {
	slice = make([]T, len)
	for ii := range slice {
		slice[ii] = start + T(ii)
	}
	return
}
