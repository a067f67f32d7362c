package metrics

import (
	"io"
	"strconv"
)

// Confusion is a square truth×prediction count table over a fixed label set.
type Confusion struct {
	Labels []string
	counts [][]int
	idx    map[string]int
}

// NewConfusion allocates a zeroed table over the given labels (order kept).
func NewConfusion(labels []string) *Confusion {
	c := &Confusion{
		Labels: append([]string(nil), labels...),
		counts: make([][]int, len(labels)),
		idx:    make(map[string]int, len(labels)),
	}
	for i, l := range labels {
		c.counts[i] = make([]int, len(labels))
		c.idx[l] = i
	}

	return c
}

// Add records one (truth, prediction) pair; unknown labels are ignored.
func (c *Confusion) Add(truth, pred string) {
	i, ok := c.idx[truth]
	if !ok {
		return
	}
	j, ok := c.idx[pred]
	if !ok {
		return
	}
	c.counts[i][j]++
}

// Count returns the cell for (truth, prediction), 0 for unknown labels.
func (c *Confusion) Count(truth, pred string) int {
	i, ok := c.idx[truth]
	if !ok {
		return 0
	}
	j, ok := c.idx[pred]
	if !ok {
		return 0
	}

	return c.counts[i][j]
}

// Recall returns diag/rowsum for a label; empty rows yield 0.
func (c *Confusion) Recall(label string) float64 {
	i, ok := c.idx[label]
	if !ok {
		return 0
	}
	total := 0
	for _, n := range c.counts[i] {
		total += n
	}
	if total == 0 {
		return 0
	}

	return float64(c.counts[i][i]) / float64(total)
}

// WriteTSV emits the table with truth labels as rows.
func (c *Confusion) WriteTSV(w io.Writer) error {
	header := "truth"
	for _, l := range c.Labels {
		header += "\t" + l
	}
	if _, err := io.WriteString(w, header+"\n"); err != nil {
		return err
	}
	for i, l := range c.Labels {
		line := l
		for _, n := range c.counts[i] {
			line += "\t" + strconv.Itoa(n)
		}
		if _, err := io.WriteString(w, line+"\n"); err != nil {
			return err
		}
	}

	return nil
}
