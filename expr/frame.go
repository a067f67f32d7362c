// SPDX-License-Identifier: MIT

// Package expr: Frame is the per-cell metadata table (the obs side of the
// annotated matrix). It keeps cluster annotations as string columns and
// metric scores as float columns, in a stable row order aligned with Dense.

package expr

import (
	"fmt"
	"io"
	"sort"
	"strconv"
)

// Frame is an ordered per-cell metadata table. Row i of a Frame describes
// row i of the Dense it is paired with. Column insertion order is preserved
// for writers; lookups are by name.
type Frame struct {
	ids      []string
	strs     map[string][]string
	nums     map[string][]float64
	strOrder []string
	numOrder []string
}

// NewFrame creates a Frame over the given row identifiers (cell barcodes).
// The slice is copied; ids must be non-empty.
func NewFrame(ids []string) (*Frame, error) {
	if len(ids) == 0 {
		return nil, ErrBadShape
	}
	cp := make([]string, len(ids))
	copy(cp, ids)

	return &Frame{
		ids:  cp,
		strs: make(map[string][]string),
		nums: make(map[string][]float64),
	}, nil
}

// Len returns the number of rows. O(1).
func (f *Frame) Len() int { return len(f.ids) }

// IDs returns the row identifiers as a live view; treat as read-only.
func (f *Frame) IDs() []string { return f.ids }

// SetStr adds or replaces a string column. The slice is copied.
// A name already used by a numeric column yields ErrDuplicateColumn.
func (f *Frame) SetStr(name string, vals []string) error {
	if f == nil {
		return ErrNilFrame
	}
	if len(vals) != len(f.ids) {
		return fmt.Errorf("Frame.SetStr(%q): %w", name, ErrDimensionMismatch)
	}
	if _, taken := f.nums[name]; taken {
		return fmt.Errorf("Frame.SetStr(%q): %w", name, ErrDuplicateColumn)
	}
	if _, exists := f.strs[name]; !exists {
		f.strOrder = append(f.strOrder, name)
	}
	cp := make([]string, len(vals))
	copy(cp, vals)
	f.strs[name] = cp

	return nil
}

// SetNum adds or replaces a float column. The slice is copied.
func (f *Frame) SetNum(name string, vals []float64) error {
	if f == nil {
		return ErrNilFrame
	}
	if len(vals) != len(f.ids) {
		return fmt.Errorf("Frame.SetNum(%q): %w", name, ErrDimensionMismatch)
	}
	if _, taken := f.strs[name]; taken {
		return fmt.Errorf("Frame.SetNum(%q): %w", name, ErrDuplicateColumn)
	}
	if _, exists := f.nums[name]; !exists {
		f.numOrder = append(f.numOrder, name)
	}
	cp := make([]float64, len(vals))
	copy(cp, vals)
	f.nums[name] = cp

	return nil
}

// Str returns a string column as a live view; treat as read-only and use
// SetStr to replace. Unknown names yield ErrUnknownColumn.
func (f *Frame) Str(name string) ([]string, error) {
	col, ok := f.strs[name]
	if !ok {
		return nil, fmt.Errorf("Frame.Str(%q): %w", name, ErrUnknownColumn)
	}

	return col, nil
}

// Num returns a float column as a live view; treat as read-only.
func (f *Frame) Num(name string) ([]float64, error) {
	col, ok := f.nums[name]
	if !ok {
		return nil, fmt.Errorf("Frame.Num(%q): %w", name, ErrUnknownColumn)
	}

	return col, nil
}

// HasStr reports whether a string column exists.
func (f *Frame) HasStr(name string) bool { _, ok := f.strs[name]; return ok }

// HasNum reports whether a float column exists.
func (f *Frame) HasNum(name string) bool { _, ok := f.nums[name]; return ok }

// StrNames returns string column names in insertion order (copy).
func (f *Frame) StrNames() []string {
	out := make([]string, len(f.strOrder))
	copy(out, f.strOrder)

	return out
}

// NumNames returns float column names in insertion order (copy).
func (f *Frame) NumNames() []string {
	out := make([]string, len(f.numOrder))
	copy(out, f.numOrder)

	return out
}

// Subset returns a new Frame holding the given rows, in the given order.
// All columns come along.
func (f *Frame) Subset(rows []int) (*Frame, error) {
	if f == nil {
		return nil, ErrNilFrame
	}
	if len(rows) == 0 {
		return nil, ErrBadShape
	}
	for _, r := range rows {
		if r < 0 || r >= len(f.ids) {
			return nil, fmt.Errorf("Frame.Subset(%d): %w", r, ErrOutOfRange)
		}
	}
	ids := make([]string, len(rows))
	for i, r := range rows {
		ids[i] = f.ids[r]
	}
	out, err := NewFrame(ids)
	if err != nil {
		return nil, err
	}
	for _, name := range f.strOrder {
		src := f.strs[name]
		col := make([]string, len(rows))
		for i, r := range rows {
			col[i] = src[r]
		}
		if err = out.SetStr(name, col); err != nil {
			return nil, err
		}
	}
	for _, name := range f.numOrder {
		src := f.nums[name]
		col := make([]float64, len(rows))
		for i, r := range rows {
			col[i] = src[r]
		}
		if err = out.SetNum(name, col); err != nil {
			return nil, err
		}
	}

	return out, nil
}

// Group is one value of a grouped column with the row indices carrying it,
// in original row order.
type Group struct {
	Value string
	Rows  []int
}

// GroupBy splits rows by the values of a string column. Groups are sorted by
// value (ascending) so concurrent consumers see a stable order.
func (f *Frame) GroupBy(name string) ([]Group, error) {
	col, err := f.Str(name)
	if err != nil {
		return nil, err
	}
	byVal := make(map[string][]int)
	for i, v := range col {
		byVal[v] = append(byVal[v], i)
	}
	vals := make([]string, 0, len(byVal))
	for v := range byVal {
		vals = append(vals, v)
	}
	sort.Strings(vals)
	out := make([]Group, len(vals))
	for i, v := range vals {
		out[i] = Group{Value: v, Rows: byVal[v]}
	}

	return out, nil
}

// Counts is a value-count table for one column, ordered by count descending
// and label ascending on ties. The tie rule makes "most abundant" stable.
type Counts struct {
	Labels []string
	N      []int
	idx    map[string]int
}

// Counts tabulates a string column. Deterministic order: count desc, label asc.
func (f *Frame) Counts(name string) (*Counts, error) {
	col, err := f.Str(name)
	if err != nil {
		return nil, err
	}

	return CountLabels(col), nil
}

// CountLabels builds a Counts over an arbitrary label slice, with the same
// ordering guarantee as Frame.Counts.
func CountLabels(col []string) *Counts {
	n := make(map[string]int)
	for _, v := range col {
		n[v]++
	}
	labels := make([]string, 0, len(n))
	for v := range n {
		labels = append(labels, v)
	}
	sort.Slice(labels, func(i, j int) bool {
		if n[labels[i]] != n[labels[j]] {
			return n[labels[i]] > n[labels[j]]
		}

		return labels[i] < labels[j]
	})
	c := &Counts{Labels: labels, N: make([]int, len(labels)), idx: make(map[string]int, len(labels))}
	for i, v := range labels {
		c.N[i] = n[v]
		c.idx[v] = i
	}

	return c
}

// Of returns the count of a label, 0 when absent.
func (c *Counts) Of(label string) int {
	i, ok := c.idx[label]
	if !ok {
		return 0
	}

	return c.N[i]
}

// Max returns the most abundant label and its count. Ties resolve to the
// lexicographically smallest label (the Counts order guarantee).
func (c *Counts) Max() (string, int) {
	if len(c.Labels) == 0 {
		return "", 0
	}

	return c.Labels[0], c.N[0]
}

// Total returns the sum of all counts.
func (c *Counts) Total() int {
	t := 0
	for _, n := range c.N {
		t += n
	}

	return t
}

// SizeMap records cluster sizes per annotation key: key → cluster → cells.
type SizeMap map[string]map[string]int

// Sizes tabulates cluster sizes for every annotation key of a Frame.
func Sizes(f *Frame, keys []string) (SizeMap, error) {
	if f == nil {
		return nil, ErrNilFrame
	}
	out := make(SizeMap, len(keys))
	for _, key := range keys {
		col, err := f.Str(key)
		if err != nil {
			return nil, err
		}
		m := make(map[string]int)
		for _, v := range col {
			m[v]++
		}
		out[key] = m
	}

	return out, nil
}

// WriteTSV writes the frame as a tab-separated table: id column first, then
// string columns, then float columns, in insertion order.
func (f *Frame) WriteTSV(w io.Writer) error {
	if f == nil {
		return ErrNilFrame
	}
	header := "cell"
	for _, name := range f.strOrder {
		header += "\t" + name
	}
	for _, name := range f.numOrder {
		header += "\t" + name
	}
	if _, err := io.WriteString(w, header+"\n"); err != nil {
		return err
	}
	for i, id := range f.ids {
		line := id
		for _, name := range f.strOrder {
			line += "\t" + f.strs[name][i]
		}
		for _, name := range f.numOrder {
			line += "\t" + strconv.FormatFloat(f.nums[name][i], 'g', -1, 64)
		}
		if _, err := io.WriteString(w, line+"\n"); err != nil {
			return err
		}
	}

	return nil
}
