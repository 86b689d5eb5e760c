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

// Package bslice defines the zero-copy byte-range view used as the
// universal cell carrier between the tokenizer and the typing engine.
package bslice

import "bytes"

// Slice is an immutable view into a byte range owned by someone
// else — a grabber's internal buffer, a dense-storage packed block, or
// a large-cell buffer. A Slice never allocates and never copies; it is
// only valid for as long as the buffer it views remains referenced.
type Slice struct {
	buf        []byte
	begin, end int
}

// Of returns a Slice viewing buf[begin:end].
//
// Callers must not mutate buf after handing out a Slice built from it.
func Of(buf []byte, begin, end int) Slice {
	return Slice{buf: buf, begin: begin, end: end}
}

// FromBytes returns a Slice viewing the whole of buf.
func FromBytes(buf []byte) Slice {
	return Slice{buf: buf, begin: 0, end: len(buf)}
}

// Len returns the number of bytes in the slice.
func (s Slice) Len() int { return s.end - s.begin }

// Bytes returns the raw bytes viewed by s. The caller must not retain
// or mutate the returned slice past the lifetime of the buffer s views.
func (s Slice) Bytes() []byte { return s.buf[s.begin:s.end] }

// Equal reports whether s and o view byte-identical ranges.
func (s Slice) Equal(o Slice) bool {
	return bytes.Equal(s.Bytes(), o.Bytes())
}

// EqualBytes reports whether s views exactly the bytes in b.
func (s Slice) EqualBytes(b []byte) bool {
	return bytes.Equal(s.Bytes(), b)
}

// String makes a UTF-8-safe owned copy of the slice contents. This is
// the only place a cell's bytes are allowed to escape into the heap as
// an independent allocation; call it only when the caller actually
// needs to retain the text past the lifetime of the underlying buffer.
func (s Slice) String() string {
	return string(s.Bytes())
}

// IsEmpty reports whether the slice views zero bytes.
func (s Slice) IsEmpty() bool { return s.begin == s.end }
