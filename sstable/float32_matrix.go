// Package sstable persists model state as plain text tables: each file
// starts with a shape or version header followed by one comma-joined
// record per line. The layout favors inspectability over compactness.
package sstable

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/bobonovski/gopv/matrix"
)

// WriteFloat32Matrix serializes a dense matrix: a [rows,cols] header
// line, then one line per row holding the row index and all values.
// Embedding rows are dense and signed, so every value is written.
func WriteFloat32Matrix(fn string, m *matrix.Float32Matrix) error {
	out, err := os.OpenFile(fn, os.O_WRONLY|os.O_TRUNC|os.O_CREATE, 0644)
	if err != nil {
		return errors.Wrap(err, "sstable: create")
	}
	defer out.Close()

	w := bufio.NewWriter(out)
	r, c := m.Shape()
	fmt.Fprintf(w, "%d,%d\n", r, c)

	for ridx := uint32(0); ridx < r; ridx += 1 {
		fmt.Fprintf(w, "%d", ridx)
		row := m.Row(ridx)
		for cidx := uint32(0); cidx < c; cidx += 1 {
			// shortest representation that round-trips the float32 exactly
			w.WriteByte(',')
			w.WriteString(strconv.FormatFloat(float64(row[cidx]), 'e', -1, 32))
		}
		fmt.Fprintln(w)
	}
	return errors.Wrap(w.Flush(), "sstable: flush")
}

// ReadFloat32Matrix deserializes a matrix written by
// WriteFloat32Matrix, failing on any shape disagreement.
func ReadFloat32Matrix(fn string) (*matrix.Float32Matrix, error) {
	file, err := os.Open(fn)
	if err != nil {
		return nil, errors.Wrap(err, "sstable: open")
	}
	defer file.Close()

	var m *matrix.Float32Matrix
	var nrow, ncol uint32

	lineIdx := 0
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 1024*1024), 16*1024*1024)
	for scanner.Scan() {
		txt := scanner.Text()
		if lineIdx == 0 {
			shape := strings.Split(txt, ",")
			if len(shape) != 2 {
				return nil, errors.Errorf("sstable: %s corrupted, shape not found: %s", fn, txt)
			}
			row, err := strconv.ParseUint(shape[0], 10, 32)
			if err != nil {
				return nil, errors.Wrap(err, "sstable: shape")
			}
			col, err := strconv.ParseUint(shape[1], 10, 32)
			if err != nil {
				return nil, errors.Wrap(err, "sstable: shape")
			}
			nrow, ncol = uint32(row), uint32(col)
			m = matrix.NewFloat32Matrix(nrow, ncol)
			lineIdx += 1
			continue
		}

		value := strings.Split(txt, ",")
		if uint32(len(value)) != ncol+1 {
			return nil, errors.Errorf("sstable: %s corrupted, row %d holds %d values, expected %d",
				fn, lineIdx, len(value)-1, ncol)
		}
		ridx, err := strconv.ParseUint(value[0], 10, 32)
		if err != nil {
			return nil, errors.Wrap(err, "sstable: row index")
		}
		if uint32(ridx) >= nrow {
			return nil, errors.Errorf("sstable: %s corrupted, row %d out of range %d", fn, ridx, nrow)
		}
		row := m.Row(uint32(ridx))
		for cidx := uint32(0); cidx < ncol; cidx += 1 {
			val, err := strconv.ParseFloat(value[cidx+1], 32)
			if err != nil {
				return nil, errors.Wrap(err, "sstable: value")
			}
			row[cidx] = float32(val)
		}
		lineIdx += 1
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "sstable: scan")
	}
	if m == nil {
		return nil, errors.Errorf("sstable: %s is empty", fn)
	}
	if uint32(lineIdx-1) != nrow {
		return nil, errors.Errorf("sstable: %s truncated, found %d of %d rows", fn, lineIdx-1, nrow)
	}
	return m, nil
}
