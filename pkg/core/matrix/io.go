// Copyright 2024-2026 The ParQR Authors. SPDX-License-Identifier: Apache-2.0

package matrix

import (
	"bufio"
	"fmt"
	"os"
	"strconv"

	"github.com/pkg/errors"
)

// Load reads a matrix from a whitespace-separated text file.
//
// The first two fields are the row and column counts, followed by rows*cols
// float64 values in row-major order. Extra trailing fields are an error.
func Load(path string) (*Dense, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "matrix.Load: failed to open %q", path)
	}
	defer func() { _ = f.Close() }()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 1024*1024), 1024*1024)
	scanner.Split(bufio.ScanWords)
	nextWord := func() (string, bool) {
		if !scanner.Scan() {
			return "", false
		}
		return scanner.Text(), true
	}

	readDim := func(name string) (int, error) {
		word, ok := nextWord()
		if !ok {
			return 0, errors.Errorf("matrix.Load: %q is missing the %s count", path, name)
		}
		dim, err := strconv.Atoi(word)
		if err != nil {
			return 0, errors.Wrapf(err, "matrix.Load: invalid %s count %q in %q", name, word, path)
		}
		if dim <= 0 {
			return 0, errors.Errorf("matrix.Load: %s count must be positive, got %d in %q", name, dim, path)
		}
		return dim, nil
	}

	rows, err := readDim("row")
	if err != nil {
		return nil, err
	}
	cols, err := readDim("column")
	if err != nil {
		return nil, err
	}

	data := make([]float64, rows*cols)
	for ii := range data {
		word, ok := nextWord()
		if !ok {
			return nil, errors.Errorf("matrix.Load: %q ended after %d of %d values", path, ii, len(data))
		}
		data[ii], err = strconv.ParseFloat(word, 64)
		if err != nil {
			return nil, errors.Wrapf(err, "matrix.Load: invalid value %q at position %d in %q", word, ii, path)
		}
	}
	if extra, ok := nextWord(); ok {
		return nil, errors.Errorf("matrix.Load: unexpected extra field %q after %d values in %q", extra, len(data), path)
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrapf(err, "matrix.Load: failed reading %q", path)
	}
	return &Dense{rows: rows, cols: cols, data: data}, nil
}

// Save writes the matrix to path in the format understood by Load.
func (d *Dense) Save(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "matrix.Save: failed to create %q", path)
	}
	w := bufio.NewWriter(f)
	_, _ = fmt.Fprintf(w, "%d %d\n", d.rows, d.cols)
	for r := 0; r < d.rows; r++ {
		for c := 0; c < d.cols; c++ {
			if c > 0 {
				_, _ = w.WriteString(" ")
			}
			_, _ = w.WriteString(strconv.FormatFloat(d.data[r*d.cols+c], 'g', -1, 64))
		}
		_, _ = w.WriteString("\n")
	}
	if err := w.Flush(); err != nil {
		_ = f.Close()
		return errors.Wrapf(err, "matrix.Save: failed writing %q", path)
	}
	if err := f.Close(); err != nil {
		return errors.Wrapf(err, "matrix.Save: failed closing %q", path)
	}
	return nil
}
