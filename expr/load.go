// SPDX-License-Identifier: MIT

// Package expr: tab-separated loaders for the annotated matrix. The matrix
// file carries one header row of gene names and one row per cell (first
// column the cell barcode); the obs file carries one column per annotation.

package expr

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// ReadMatrixTSV parses an expression table: header "cell\tgene1\tgene2...",
// then one row per cell with the barcode first. Values must be finite.
func ReadMatrixTSV(r io.Reader) (*Matrix, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 1<<20), 1<<26)
	if !sc.Scan() {
		return nil, fmt.Errorf("ReadMatrixTSV: empty input: %w", ErrBadInput)
	}
	header := strings.Split(sc.Text(), "\t")
	if len(header) < 2 {
		return nil, fmt.Errorf("ReadMatrixTSV: header needs a barcode column and at least one gene: %w", ErrBadInput)
	}
	vars := header[1:]

	var (
		ids  []string
		data []float64
	)
	for sc.Scan() {
		line := sc.Text()
		if line == "" {
			continue
		}
		fields := strings.Split(line, "\t")
		if len(fields) != len(header) {
			return nil, fmt.Errorf("ReadMatrixTSV: row %d has %d fields, want %d: %w",
				len(ids)+1, len(fields), len(header), ErrBadInput)
		}
		ids = append(ids, fields[0])
		for _, raw := range fields[1:] {
			v, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				return nil, fmt.Errorf("ReadMatrixTSV: %q: %w", raw, ErrBadInput)
			}
			data = append(data, v)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, fmt.Errorf("ReadMatrixTSV: no data rows: %w", ErrBadInput)
	}

	x, err := NewDenseData(len(ids), len(vars), data)
	if err != nil {
		return nil, err
	}
	obs, err := NewFrame(ids)
	if err != nil {
		return nil, err
	}

	return NewMatrix(x, vars, obs)
}

// ReadObsTSV parses an annotation table ("cell\tkey1\tkey2...") into the
// given Frame; row order and barcodes must match the frame exactly.
func ReadObsTSV(r io.Reader, into *Frame) error {
	if into == nil {
		return ErrNilFrame
	}
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 1<<20), 1<<26)
	if !sc.Scan() {
		return fmt.Errorf("ReadObsTSV: empty input: %w", ErrBadInput)
	}
	header := strings.Split(sc.Text(), "\t")
	if len(header) < 2 {
		return fmt.Errorf("ReadObsTSV: header needs a barcode column and at least one key: %w", ErrBadInput)
	}
	keys := header[1:]
	cols := make([][]string, len(keys))
	row := 0
	for sc.Scan() {
		line := sc.Text()
		if line == "" {
			continue
		}
		fields := strings.Split(line, "\t")
		if len(fields) != len(header) {
			return fmt.Errorf("ReadObsTSV: row %d has %d fields, want %d: %w", row+1, len(fields), len(header), ErrBadInput)
		}
		if row >= into.Len() {
			return fmt.Errorf("ReadObsTSV: more rows than cells (%d): %w", into.Len(), ErrDimensionMismatch)
		}
		if fields[0] != into.ids[row] {
			return fmt.Errorf("ReadObsTSV: row %d barcode %q does not match matrix barcode %q: %w",
				row+1, fields[0], into.ids[row], ErrBadInput)
		}
		for j, v := range fields[1:] {
			cols[j] = append(cols[j], v)
		}
		row++
	}
	if err := sc.Err(); err != nil {
		return err
	}
	if row != into.Len() {
		return fmt.Errorf("ReadObsTSV: %d rows for %d cells: %w", row, into.Len(), ErrDimensionMismatch)
	}
	for j, key := range keys {
		if err := into.SetStr(key, cols[j]); err != nil {
			return err
		}
	}

	return nil
}

// LoadMatrix reads a matrix TSV and, when obsPath is non-empty, the matching
// annotation TSV.
func LoadMatrix(matrixPath, obsPath string) (*Matrix, error) {
	mf, err := os.Open(matrixPath)
	if err != nil {
		return nil, err
	}
	defer mf.Close()
	m, err := ReadMatrixTSV(mf)
	if err != nil {
		return nil, err
	}
	if obsPath == "" {
		return m, nil
	}
	of, err := os.Open(obsPath)
	if err != nil {
		return nil, err
	}
	defer of.Close()
	if err = ReadObsTSV(of, m.Obs); err != nil {
		return nil, err
	}

	return m, nil
}
