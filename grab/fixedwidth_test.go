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

package grab

import (
	"strings"
	"testing"
)

func fixedWidthRows(t *testing.T, input string, cfg FixedWidthConfig) [][]string {
	t.Helper()
	g := NewFixedWidthReader(strings.NewReader(input), cfg)
	var rows [][]string
	var cur []string
	for {
		c, more, err := g.Next()
		if err != nil {
			t.Fatalf("Next: %v", err)
		}
		if !more {
			break
		}
		cur = append(cur, c.Slice.String())
		if c.LastInRow {
			rows = append(rows, cur)
			cur = nil
		}
		if c.EndOfInput {
			break
		}
	}
	return rows
}

func TestFixedWidthHeaderAndDataRows(t *testing.T) {
	cfg := FixedWidthConfig{Widths: []int{4, 3}}
	rows := fixedWidthRows(t, "AAA BBB\n111 222\n", cfg)
	want := [][]string{{"AAA", "BBB"}, {"111", "222"}}
	checkStringRows(t, rows, want)
}

func TestFixedWidthLastColumnAbsorbsRemainder(t *testing.T) {
	cfg := FixedWidthConfig{Widths: []int{2}}
	rows := fixedWidthRows(t, "abcdef\n", cfg)
	checkStringRows(t, rows, [][]string{{"abcdef"}})
}

func TestFixedWidthShortRowYieldsEmptyTrailingColumns(t *testing.T) {
	cfg := FixedWidthConfig{Widths: []int{4, 3}}
	rows := fixedWidthRows(t, "ab\n", cfg)
	checkStringRows(t, rows, [][]string{{"ab", ""}})
}

func TestFixedWidthUTF16SurrogatePairSplitFails(t *testing.T) {
	// U+1F600 (a 4-byte UTF-8 sequence) encodes as a surrogate pair
	// (2 UTF-16 code units). Column 0 has room for 'a' plus only one
	// more unit, so the boundary would fall inside the pair.
	cfg := FixedWidthConfig{Widths: []int{2, 5}, UTF16Counting: true}
	g := NewFixedWidthReader(strings.NewReader("a\U0001F600bcd\n"), cfg)
	_, _, err := g.Next()
	if err == nil {
		t.Fatal("expected error splitting a surrogate pair across a column boundary")
	}
}

func TestFixedWidthUTF16NonSplittingWhenNotCounted(t *testing.T) {
	// Without UTF-16 counting, the emoji counts as one character and
	// fits entirely inside the first column's width.
	cfg := FixedWidthConfig{Widths: []int{2, 3}}
	rows := fixedWidthRows(t, "a\U0001F600bcd\n", cfg)
	checkStringRows(t, rows, [][]string{{"a\U0001F600", "bcd"}})
}

func checkStringRows(t *testing.T, got, want [][]string) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("got %d rows %v, want %d rows %v", len(got), got, len(want), want)
	}
	for i := range want {
		if len(got[i]) != len(want[i]) {
			t.Fatalf("row %d: got %v want %v", i, got[i], want[i])
		}
		for j := range want[i] {
			if got[i][j] != want[i][j] {
				t.Fatalf("row %d cell %d: got %q want %q", i, j, got[i][j], want[i][j])
			}
		}
	}
}
