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
	"errors"
	"fmt"

	"github.com/SnellerInc/typedcsv/bslice"
)

// ErrTruncated is returned when the control stream ends (or is
// inconsistent with the packed/large payload) before a cell it
// promised is actually available — a malformed-queue condition that
// should never occur outside of a Writer bug.
var ErrTruncated = errors.New("densestore: truncated or inconsistent cell stream")

// Reader is a forward-only cursor over a column's dense storage. It is
// cheap to Clone, which is what lets the typing engine re-walk a
// column from the beginning without rebuffering the source file.
type Reader struct {
	col *column
	n   *node
	pos int // byte offset into n.packed
	lpos int // index into n.large
}

// TryGetNextSlice returns the next cell's slice, or ok=false once the
// end-of-stream sentinel has been read. Blocks if the current node is
// exhausted and the writer has not yet published its successor.
func (r *Reader) TryGetNextSlice() (s bslice.Slice, ok bool, err error) {
	for {
		buf := r.n.packed.Bytes()
		if r.pos+4 > len(buf) {
			r.n = r.col.advance(r.n)
			r.pos, r.lpos = 0, 0
			continue
		}
		control := getControl(buf[r.pos:])
		r.pos += 4
		switch control {
		case endOfStreamSentinel:
			return bslice.Slice{}, false, nil
		case largeSentinel:
			if r.lpos >= len(r.n.large) {
				return bslice.Slice{}, false, fmt.Errorf("%w: large cell handle unavailable", ErrTruncated)
			}
			cell := r.n.large[r.lpos]
			r.lpos++
			return bslice.FromBytes(cell.buf), true, nil
		default:
			n := int(control)
			if r.pos+n > len(buf) {
				return bslice.Slice{}, false, fmt.Errorf("%w: small cell payload unavailable", ErrTruncated)
			}
			s := bslice.Of(buf, r.pos, r.pos+n)
			r.pos += n
			return s, true, nil
		}
	}
}

// Clone returns an independent Reader positioned exactly where r is
// right now; subsequent reads of either copy do not affect the other.
func (r *Reader) Clone() *Reader {
	cp := *r
	return &cp
}
