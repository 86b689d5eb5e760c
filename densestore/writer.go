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

// Writer accepts cells in arrival order for a single column and
// publishes them in blocks to any number of Readers. A Writer has
// exactly one goroutine calling Append/Finish; Readers may be used
// concurrently from other goroutines.
type Writer struct {
	col *column

	packedCap int
	largeCap  int

	packed      []byte
	packedBegin int
	packedCur   int

	large      []largeCell
	largeBegin int
	largeCur   int

	head *node
	tail *node

	dedup *largeCellDeduper
	done  bool
}

// NewWriter creates a Writer (and the shared head node that every
// Reader cloned from it will start from) using default buffer sizes.
func NewWriter() *Writer {
	return NewWriterSized(DefaultPackedCap, DefaultLargeCap, DefaultMaxUnobservedBlocks)
}

// NewWriterSized creates a Writer with explicit packed-buffer capacity
// (bytes), large-array capacity (handle count) and semaphore depth.
// Exposed so tests can exercise the flush boundary with small blocks.
func NewWriterSized(packedCap, largeCap, maxUnobservedBlocks int) *Writer {
	head := &node{}
	w := &Writer{
		col:       newColumn(maxUnobservedBlocks),
		packedCap: packedCap,
		largeCap:  largeCap,
		packed:    make([]byte, packedCap),
		large:     make([]largeCell, largeCap),
		head:      head,
		tail:      head,
	}
	return w
}

// EnableDedup turns on content-addressed deduplication of large cells:
// repeated large byte strings (e.g. the same long URL appearing many
// times in a column) are stored once and referenced by every later
// occurrence instead of being copied again.
func (w *Writer) EnableDedup() {
	w.dedup = newLargeCellDeduper()
}

// NewReader returns an independent forward cursor starting at the
// queue's shared head (before the first cell ever appended).
func (w *Writer) NewReader() *Reader {
	return &Reader{col: w.col, n: w.head}
}

// Append records one cell. Cells of LargeThreshold bytes or more are
// copied into an independently-owned buffer and referenced from the
// large array; smaller cells are packed inline after a 4-byte control
// word recording their length.
func (w *Writer) Append(cell []byte) {
	if w.done {
		panic("densestore: Append after Finish")
	}
	if len(cell) >= LargeThreshold {
		w.appendLarge(cell)
		return
	}
	w.appendSmall(cell)
}

func (w *Writer) appendSmall(cell []byte) {
	needed := 4 + len(cell)
	if w.packedCur+needed > len(w.packed) {
		w.flush()
	}
	putControl(w.packed[w.packedCur:], uint32(len(cell)))
	w.packedCur += 4
	copy(w.packed[w.packedCur:], cell)
	w.packedCur += len(cell)
}

func (w *Writer) appendLarge(cell []byte) {
	if w.packedCur+4 > len(w.packed) || w.largeCur >= len(w.large) {
		w.flush()
	}
	buf := w.ownedCopy(cell)
	w.large[w.largeCur] = largeCell{buf: buf}
	w.largeCur++
	putControl(w.packed[w.packedCur:], largeSentinel)
	w.packedCur += 4
}

func (w *Writer) ownedCopy(cell []byte) []byte {
	if w.dedup != nil {
		if existing, ok := w.dedup.lookup(cell); ok {
			return existing
		}
	}
	buf := make([]byte, len(cell))
	copy(buf, cell)
	if w.dedup != nil {
		w.dedup.store(buf)
	}
	return buf
}

// Finish writes the end-of-stream sentinel and publishes any
// unflushed block. Call it when the upstream tokenizer reports
// end-of-input for this column; calls after the first have no effect.
func (w *Writer) Finish() {
	if w.done {
		return
	}
	if w.packedCur+4 > len(w.packed) {
		w.flush()
	}
	putControl(w.packed[w.packedCur:], endOfStreamSentinel)
	w.packedCur += 4
	w.flush()
	w.done = true
}

// flush publishes the not-yet-published suffix of both buffers as one
// queue node (either suffix may be empty) and allocates fresh buffers.
func (w *Writer) flush() {
	w.col.sem.acquire()

	n := &node{
		packed: bslice.Of(w.packed, w.packedBegin, w.packedCur),
		large:  w.large[w.largeBegin:w.largeCur],
	}
	w.col.publish(w.tail, n)
	w.tail = n

	w.packed = make([]byte, w.packedCap)
	w.packedCur, w.packedBegin = 0, 0
	w.large = make([]largeCell, w.largeCap)
	w.largeCur, w.largeBegin = 0, 0
}
