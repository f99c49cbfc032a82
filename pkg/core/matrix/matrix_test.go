// Copyright 2024-2026 The ParQR Authors. SPDX-License-Identifier: Apache-2.0

package matrix

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	d, err := New(2, 3)
	require.NoError(t, err)
	assert.Equal(t, 2, d.Rows())
	assert.Equal(t, 3, d.Cols())
	assert.Equal(t, []float64{0, 0, 0, 0, 0, 0}, d.Data())

	_, err = New(0, 3)
	require.Error(t, err)
	_, err = New(2, -1)
	require.Error(t, err)
}

func TestFromValues(t *testing.T) {
	d, err := FromValues(2, 2, []float64{1, 2, 3, 4})
	require.NoError(t, err)
	assert.Equal(t, 3.0, d.At(1, 0))

	_, err = FromValues(2, 2, []float64{1, 2, 3})
	require.Error(t, err)
}

func TestSetAt(t *testing.T) {
	d, err := New(3, 3)
	require.NoError(t, err)
	d.Set(1, 2, 7.5)
	assert.Equal(t, 7.5, d.At(1, 2))
	assert.Equal(t, 0.0, d.At(2, 1))
}

func TestNewRandomDeterministic(t *testing.T) {
	a := NewRandom(4, 5, 42)
	b := NewRandom(4, 5, 42)
	diff, err := a.MaxAbsDiff(b)
	require.NoError(t, err)
	assert.Zero(t, diff)
	for _, v := range a.Data() {
		assert.GreaterOrEqual(t, v, -1.0)
		assert.Less(t, v, 1.0)
	}

	c := NewRandom(4, 5, 43)
	diff, err = a.MaxAbsDiff(c)
	require.NoError(t, err)
	assert.NotZero(t, diff)
}

func TestCloneIsDeep(t *testing.T) {
	a, err := FromValues(2, 2, []float64{1, 2, 3, 4})
	require.NoError(t, err)
	b := a.Clone()
	b.Set(0, 0, 99)
	assert.Equal(t, 1.0, a.At(0, 0))
}

func TestTranspose(t *testing.T) {
	a, err := FromValues(2, 3, []float64{1, 2, 3, 4, 5, 6})
	require.NoError(t, err)
	at := a.Transpose()
	assert.Equal(t, 3, at.Rows())
	assert.Equal(t, 2, at.Cols())
	for r := 0; r < 2; r++ {
		for c := 0; c < 3; c++ {
			assert.Equal(t, a.At(r, c), at.At(c, r))
		}
	}
}

func TestMaxAbsDiff(t *testing.T) {
	a, err := FromValues(2, 2, []float64{1, 2, 3, 4})
	require.NoError(t, err)
	b, err := FromValues(2, 2, []float64{1, 2.5, 3, 3.25})
	require.NoError(t, err)
	diff, err := a.MaxAbsDiff(b)
	require.NoError(t, err)
	assert.Equal(t, 0.75, diff)

	c, err := New(3, 2)
	require.NoError(t, err)
	_, err = a.MaxAbsDiff(c)
	require.Error(t, err)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mat.txt")
	a, err := FromValues(2, 3, []float64{1.5, -2, 3e-7, 4, 5.25, -6})
	require.NoError(t, err)
	require.NoError(t, a.Save(path))

	b, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, a.Rows(), b.Rows())
	assert.Equal(t, a.Cols(), b.Cols())
	diff, err := a.MaxAbsDiff(b)
	require.NoError(t, err)
	assert.Zero(t, diff)
}

func TestLoadErrors(t *testing.T) {
	dir := t.TempDir()
	write := func(name, content string) string {
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
		return path
	}

	_, err := Load(filepath.Join(dir, "missing.txt"))
	assert.Error(t, err)

	_, err = Load(write("empty.txt", ""))
	assert.ErrorContains(t, err, "row")

	_, err = Load(write("baddim.txt", "two 2\n1 2 3 4\n"))
	assert.Error(t, err)

	_, err = Load(write("negdim.txt", "-1 2\n"))
	assert.ErrorContains(t, err, "positive")

	_, err = Load(write("short.txt", "2 2\n1 2 3\n"))
	assert.ErrorContains(t, err, "ended after")

	_, err = Load(write("badvalue.txt", "2 2\n1 2 x 4\n"))
	assert.ErrorContains(t, err, "invalid value")

	_, err = Load(write("extra.txt", "2 2\n1 2 3 4 5\n"))
	assert.ErrorContains(t, err, "extra field")
}
