// Copyright (C) 2022 Sneller, Inc.
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <http://www.gnu.org/licenses/>.

package densestore

import "github.com/SnellerInc/typedcsv/bslice"

// Iterator is a forward cursor over a Reader that caches the current
// cell's slice and tracks how many cells it has delivered. The typing
// engine keeps two of these per column: one that drives a trial parse
// forward, and one held in reserve at the column's first cell to
// permit a second pass over the leading (skipped) run.
type Iterator struct {
	r         *Reader
	current   bslice.Slice
	consumed  int
	exhausted bool
}

// NewIterator wraps r, positioned wherever r currently is (typically
// the column's first cell, for a freshly-created Reader).
func NewIterator(r *Reader) *Iterator {
	return &Iterator{r: r}
}

// Next advances the iterator by one cell and reports whether a cell
// was available. Once it returns false, Exhausted is true forever.
func (it *Iterator) Next() (bool, error) {
	if it.exhausted {
		return false, nil
	}
	s, ok, err := it.r.TryGetNextSlice()
	if err != nil {
		return false, err
	}
	if !ok {
		it.exhausted = true
		it.current = bslice.Slice{}
		return false, nil
	}
	it.current = s
	it.consumed++
	return true, nil
}

// Current returns the slice last produced by Next.
func (it *Iterator) Current() bslice.Slice { return it.current }

// Consumed returns the number of cells this iterator has delivered so
// far (the logical index one past the last one read).
func (it *Iterator) Consumed() int { return it.consumed }

// Exhausted reports whether the underlying column has ended.
func (it *Iterator) Exhausted() bool { return it.exhausted }

// Clone returns an independent iterator holder: its own Reader clone
// and its own copy of the cached state, free to advance separately
// from it.
func (it *Iterator) Clone() *Iterator {
	return &Iterator{
		r:         it.r.Clone(),
		current:   it.current,
		consumed:  it.consumed,
		exhausted: it.exhausted,
	}
}
