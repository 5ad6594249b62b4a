package pipeline

import "time"

// GridAligner pins every derived series to fixed-width bins. Bins are
// aligned to absolute multiples of the width, naive timestamps treated as
// UTC, so a 3h grid has edges at 00:00, 03:00, 06:00 and so on.
type GridAligner struct {
	Bin time.Duration
}

func NewGridAligner(bin time.Duration) GridAligner {
	return GridAligner{Bin: bin}
}

// Align truncates t down to its bin's left edge.
func (g GridAligner) Align(t time.Time) time.Time {
	return t.Truncate(g.Bin)
}

// OnGrid reports whether t is exactly a bin edge.
func (g GridAligner) OnGrid(t time.Time) bool {
	return g.Align(t).Equal(t)
}

// RightEdge returns the first bin edge at or after t.
func (g GridAligner) RightEdge(t time.Time) time.Time {
	if g.OnGrid(t) {
		return t
	}
	return g.Align(t).Add(g.Bin)
}

// Points returns every bin edge in [from, to], inclusive on both sides once
// snapped onto the grid.
func (g GridAligner) Points(from, to time.Time) []time.Time {
	first := g.RightEdge(from)
	last := g.Align(to)
	if last.Before(first) {
		return nil
	}

	points := make([]time.Time, 0, last.Sub(first)/g.Bin+1)
	for t := first; !t.After(last); t = t.Add(g.Bin) {
		points = append(points, t)
	}
	return points
}
