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

// semaphore is a simple counting semaphore built on a buffered channel.
// acquire blocks (and is interruptible the way any blocking channel
// receive is) when the buffer is exhausted; release never blocks.
type semaphore struct {
	tokens chan struct{}
}

func newSemaphore(n int) *semaphore {
	if n < 1 {
		n = 1
	}
	s := &semaphore{tokens: make(chan struct{}, n)}
	for i := 0; i < n; i++ {
		s.tokens <- struct{}{}
	}
	return s
}

// acquire blocks until a unit of back-pressure is available.
func (s *semaphore) acquire() {
	<-s.tokens
}

// release returns one unit of back-pressure. It is a no-op (rather
// than a panic) if called more times than acquire, since a node can
// only be first-observed once but release is only ever invoked from
// that single-observation path.
func (s *semaphore) release() {
	select {
	case s.tokens <- struct{}{}:
	default:
	}
}
