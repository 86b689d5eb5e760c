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
	"testing"
)

func drain(t *testing.T, r *Reader) [][]byte {
	t.Helper()
	var got [][]byte
	for {
		s, ok, err := r.TryGetNextSlice()
		if err != nil {
			t.Fatalf("TryGetNextSlice: %v", err)
		}
		if !ok {
			return got
		}
		got = append(got, append([]byte(nil), s.Bytes()...))
	}
}

func TestAppendAndRead(t *testing.T) {
	w := NewWriter()
	r := w.NewReader()

	cells := [][]byte{[]byte("a"), []byte(""), []byte("hello world")}
	for _, c := range cells {
		w.Append(c)
	}
	w.Finish()

	got := drain(t, r)
	if len(got) != len(cells) {
		t.Fatalf("got %d cells, want %d", len(got), len(cells))
	}
	for i := range cells {
		if string(got[i]) != string(cells[i]) {
			t.Fatalf("cell %d: got %q want %q", i, got[i], cells[i])
		}
	}
}

func TestLargeCellBoundary(t *testing.T) {
	w := NewWriter()
	r := w.NewReader()

	small := make([]byte, LargeThreshold-1)
	large := make([]byte, LargeThreshold)
	for i := range small {
		small[i] = 'a'
	}
	for i := range large {
		large[i] = 'b'
	}
	w.Append(small)
	w.Append(large)
	w.Finish()

	got := drain(t, r)
	if len(got) != 2 {
		t.Fatalf("got %d cells, want 2", len(got))
	}
	if len(got[0]) != LargeThreshold-1 || len(got[1]) != LargeThreshold {
		t.Fatalf("unexpected cell lengths: %d, %d", len(got[0]), len(got[1]))
	}
}

func TestFlushBoundaryExactFit(t *testing.T) {
	// packedCap sized so the first cell's control word + bytes lands
	// exactly on the last byte: the next cell must start a fresh node
	// but the reader should see an identical, uninterrupted stream.
	const packedCap = 4 + 4 // one control word + 4 bytes of payload
	w := NewWriterSized(packedCap, DefaultLargeCap, DefaultMaxUnobservedBlocks)
	r := w.NewReader()

	w.Append([]byte("abcd"))
	w.Append([]byte("e"))
	w.Finish()

	got := drain(t, r)
	want := []string{"abcd", "e"}
	if len(got) != len(want) {
		t.Fatalf("got %d cells, want %d", len(got), len(want))
	}
	for i, w := range want {
		if string(got[i]) != w {
			t.Fatalf("cell %d: got %q want %q", i, got[i], w)
		}
	}
}

func TestTwoIndependentReaders(t *testing.T) {
	// All three blocks are published before either reader drains one,
	// so the unobserved-block bound must cover them all.
	w := NewWriterSized(16, 4, DefaultMaxUnobservedBlocks)
	first := w.NewReader()

	cells := []string{"one", "two", "three", "four", "five"}
	for _, c := range cells {
		w.Append([]byte(c))
	}
	w.Finish()

	got1 := drain(t, first)
	second := w.NewReader()
	got2 := drain(t, second)

	if len(got1) != len(cells) || len(got2) != len(cells) {
		t.Fatalf("got1=%d got2=%d want %d", len(got1), len(got2), len(cells))
	}
	for i, c := range cells {
		if string(got1[i]) != c || string(got2[i]) != c {
			t.Fatalf("cell %d mismatch: %q / %q want %q", i, got1[i], got2[i], c)
		}
	}
}

func TestCloneIndependence(t *testing.T) {
	w := NewWriter()
	r := w.NewReader()
	w.Append([]byte("a"))
	w.Append([]byte("b"))
	w.Append([]byte("c"))
	w.Finish()

	it := NewIterator(r)
	it.Next() // consumes "a"

	clone := it.Clone()
	ok, err := clone.Next()
	if err != nil || !ok || string(clone.Current().Bytes()) != "b" {
		t.Fatalf("clone: got ok=%v err=%v cur=%q", ok, err, clone.Current().Bytes())
	}

	// the original must be unaffected by the clone's advance.
	ok, err = it.Next()
	if err != nil || !ok || string(it.Current().Bytes()) != "b" {
		t.Fatalf("original: got ok=%v err=%v cur=%q", ok, err, it.Current().Bytes())
	}
}

func TestDedupReusesBuffer(t *testing.T) {
	w := NewWriter()
	w.EnableDedup()
	r := w.NewReader()

	big := make([]byte, LargeThreshold+10)
	for i := range big {
		big[i] = byte(i)
	}
	w.Append(big)
	w.Append(append([]byte(nil), big...))
	w.Finish()

	got := drain(t, r)
	if len(got) != 2 || string(got[0]) != string(big) || string(got[1]) != string(big) {
		t.Fatalf("dedup roundtrip mismatch")
	}
}
