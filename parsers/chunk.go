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

// Package parsers implements the leaf parsers of spec.md §4.8: one
// type per recognized primitive group, each obtaining its sink from
// the caller-supplied typeinfer.SinkFactory and writing to it in
// chunks of typeinfer.GlobalContext.ChunkSize entries.
package parsers

import "github.com/SnellerInc/typedcsv/typeinfer"

// chunkBuffer batches values destined for a Sink[T] so TryParse
// doesn't call WriteChunk once per cell (spec.md §4.8's "chunked write
// contract"). It assumes writes arrive at strictly increasing
// positions within one logical run; callers doing a non-contiguous
// backfill construct a fresh chunkBuffer per contiguous run instead of
// reusing one across a jump.
type chunkBuffer[T any] struct {
	sink      typeinfer.Sink[T]
	values    []T
	nulls     []bool
	start     int
	n         int
	appending bool
}

func newChunkBuffer[T any](sink typeinfer.Sink[T], size int, appending bool) *chunkBuffer[T] {
	if size <= 0 {
		size = 65536
	}
	return &chunkBuffer[T]{sink: sink, values: make([]T, size), nulls: make([]bool, size), appending: appending}
}

func (b *chunkBuffer[T]) push(pos int, v T, null bool) error {
	if b.n == 0 {
		b.start = pos
	}
	if b.n == len(b.values) {
		if err := b.flush(); err != nil {
			return err
		}
		b.start = pos
	}
	b.values[b.n] = v
	b.nulls[b.n] = null
	b.n++
	return nil
}

func (b *chunkBuffer[T]) flush() error {
	if b.n == 0 {
		return nil
	}
	err := b.sink.WriteChunk(b.start, b.values[:b.n], b.nulls[:b.n], b.appending)
	b.n = 0
	return err
}
