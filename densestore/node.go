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

// Package densestore implements the per-column bounded producer/consumer
// queue ("dense storage") that sits between the tokenizer and the typing
// engine: cells are written once, in arrival order, and read by any
// number of independent forward cursors so a column can be re-parsed
// from the beginning without rebuffering the input file.
package densestore

import (
	"encoding/binary"
	"sync"

	"github.com/SnellerInc/typedcsv/bslice"
)

// Control-word sentinels, stored as the four little-endian bytes that
// precede each cell in a packed buffer. Values below largeSentinel are
// small-cell byte lengths.
const (
	largeSentinel      uint32 = 1<<32 - 2
	endOfStreamSentinel uint32 = 1<<32 - 1
)

// LargeThreshold is the smallest cell size, in bytes, stored as an
// independently-owned large cell rather than packed inline. Cells of
// exactly LargeThreshold-1 bytes are small; LargeThreshold bytes are
// large (spec boundary case).
const LargeThreshold = 4096

// Default buffer sizes. Override with NewWriterSized for tests that
// want to exercise the flush boundary with small blocks.
const (
	DefaultPackedCap          = 64 * 1024
	DefaultLargeCap           = 256
	DefaultMaxUnobservedBlocks = 4
)

type largeCell struct {
	buf []byte
}

// node is one immutable (except for next/observed) element of the
// queue. It is jointly owned by the writer's tail pointer and every
// reader that has not yet advanced past it.
type node struct {
	packed bslice.Slice
	large  []largeCell

	// next and observed are mutated at most once per reader-traversal
	// event, always under the owning column's mutex.
	next     *node
	observed bool
}

// column is the state shared between one Writer and every Reader
// cloned from it: the synchronization primitives that make the
// singly-linked queue safe to publish into and walk from multiple
// goroutines.
type column struct {
	mu   sync.Mutex
	cond *sync.Cond
	sem  *semaphore
}

func newColumn(maxUnobserved int) *column {
	c := &column{sem: newSemaphore(maxUnobserved)}
	c.cond = sync.NewCond(&c.mu)
	return c
}

// publish links n onto the tail of the queue and wakes every reader
// blocked waiting for it. Must be called with the semaphore already
// acquired by the caller (the writer acquires before linking, per the
// flow-control contract).
func (c *column) publish(tail, n *node) {
	c.mu.Lock()
	tail.next = n
	c.mu.Unlock()
	c.cond.Broadcast()
}

// advance blocks until n.next is non-nil, then returns it. The first
// caller (across all readers of this column) to observe the transition
// releases one unit of back-pressure.
func (c *column) advance(n *node) *node {
	c.mu.Lock()
	for n.next == nil {
		c.cond.Wait()
	}
	next := n.next
	first := !n.observed
	if first {
		n.observed = true
	}
	c.mu.Unlock()
	if first {
		c.sem.release()
	}
	return next
}

func putControl(buf []byte, v uint32) {
	binary.LittleEndian.PutUint32(buf, v)
}

func getControl(buf []byte) uint32 {
	return binary.LittleEndian.Uint32(buf)
}
