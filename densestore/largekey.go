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

import (
	"bytes"

	"github.com/dchest/siphash"
)

// largeCellDeduper content-addresses large cells within the lifetime
// of a single Writer so a repeated large value (a long URL or
// description that recurs across many rows of the same column) is
// copied into the large-array buffer only once. It is opt-in
// (Writer.EnableDedup) since the hashing and bucket scan cost memory
// bandwidth that most columns don't need to pay.
type largeCellDeduper struct {
	k0, k1  uint64
	buckets map[uint64][][]byte
}

func newLargeCellDeduper() *largeCellDeduper {
	return &largeCellDeduper{
		// Fixed keys: this hash is used only to bucket equal-content
		// cells within one process's lifetime, never persisted or
		// compared across runs, so a random per-run key buys nothing.
		k0:      0x646565706861766e,
		k1:      0x732d6373762d676f,
		buckets: make(map[uint64][][]byte),
	}
}

func (d *largeCellDeduper) key(cell []byte) uint64 {
	return siphash.Hash(d.k0, d.k1, cell)
}

// lookup returns a previously-stored owned buffer byte-equal to cell,
// if any.
func (d *largeCellDeduper) lookup(cell []byte) ([]byte, bool) {
	for _, candidate := range d.buckets[d.key(cell)] {
		if bytes.Equal(candidate, cell) {
			return candidate, true
		}
	}
	return nil, false
}

// store records buf (already an owned copy) under its content hash.
func (d *largeCellDeduper) store(buf []byte) {
	k := d.key(buf)
	d.buckets[k] = append(d.buckets[k], buf)
}
