// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

// Package matrix reads and writes the tab separated numeric matrices
// stored in a study.
package matrix

import (
	"bytes"
	"encoding/csv"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/juju/errors"
	"github.com/juju/utils/v4"
)

// Matrix holds rows of values. Rows may have different lengths.
type Matrix [][]float64

// Read reads the matrix stored at path. An empty file yields an empty
// matrix.
func Read(path string) (Matrix, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Trace(err)
	}
	m, err := Parse(data)
	if err != nil {
		return nil, errors.Annotatef(err, "reading matrix %q", path)
	}
	return m, nil
}

// Parse parses tab separated values.
func Parse(data []byte) (Matrix, error) {
	r := csv.NewReader(bytes.NewReader(data))
	r.Comma = '\t'
	r.FieldsPerRecord = -1
	r.ReuseRecord = true
	var m Matrix
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Trace(err)
		}
		row := make([]float64, len(record))
		for i, field := range record {
			v, err := strconv.ParseFloat(strings.TrimSpace(field), 64)
			if err != nil {
				line, _ := r.FieldPos(i)
				return nil, errors.NotValidf("value %q on line %d", field, line)
			}
			row[i] = v
		}
		m = append(m, row)
	}
	return m, nil
}

// Write atomically writes m to path, one row per line, each value
// formatted with six decimals.
func Write(path string, m Matrix) error {
	data, err := m.Bytes()
	if err != nil {
		return errors.Trace(err)
	}
	if err := utils.AtomicWriteFile(path, data, 0644); err != nil {
		return errors.Annotatef(err, "writing matrix %q", path)
	}
	return nil
}

// Bytes serializes the matrix.
func (m Matrix) Bytes() ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	w.Comma = '\t'
	for _, row := range m {
		record := make([]string, len(row))
		for i, v := range row {
			record[i] = strconv.FormatFloat(v, 'f', 6, 64)
		}
		if err := w.Write(record); err != nil {
			return nil, errors.Trace(err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, errors.Trace(err)
	}
	return buf.Bytes(), nil
}

// Columns returns the columns [from, to) of every row. Rows too short to
// hold a column contribute whatever they have in the range.
func (m Matrix) Columns(from, to int) Matrix {
	if len(m) == 0 {
		return nil
	}
	out := make(Matrix, len(m))
	for i, row := range m {
		lo, hi := min(from, len(row)), min(to, len(row))
		out[i] = append([]float64{}, row[lo:hi]...)
	}
	return out
}

// Column returns the single column i as a one column matrix.
func (m Matrix) Column(i int) Matrix {
	return m.Columns(i, i+1)
}

// Tile returns a matrix of n copies of row.
func Tile(row []float64, n int) Matrix {
	out := make(Matrix, n)
	for i := range out {
		out[i] = append([]float64(nil), row...)
	}
	return out
}

// Fill returns a rows x cols matrix with every cell set to v.
func Fill(rows, cols int, v float64) Matrix {
	row := make([]float64, cols)
	for i := range row {
		row[i] = v
	}
	return Tile(row, rows)
}

// Touch creates an empty matrix file at path. An existing file is left
// untouched.
func Touch(path string) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return errors.Trace(err)
	}
	return errors.Trace(f.Close())
}
