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

type gotRow struct {
	cells []string
}

func tokenize(t *testing.T, input string, cfg DelimitedConfig) []gotRow {
	t.Helper()
	g := NewDelimited(strings.NewReader(input), cfg)
	var rows []gotRow
	var cur gotRow
	for {
		c, more, err := g.Next()
		if err != nil {
			t.Fatalf("Next: %v", err)
		}
		if !more {
			break
		}
		cur.cells = append(cur.cells, c.Slice.String())
		if c.LastInRow {
			rows = append(rows, cur)
			cur = gotRow{}
		}
		if c.EndOfInput {
			break
		}
	}
	return rows
}

func TestEmptyInput(t *testing.T) {
	rows := tokenize(t, "", DefaultDelimitedConfig())
	if len(rows) != 0 {
		t.Fatalf("got %d rows, want 0", len(rows))
	}
}

func TestSimpleTwoRows(t *testing.T) {
	rows := tokenize(t, "Key,Value\nA,hello\n", DefaultDelimitedConfig())
	want := [][]string{{"Key", "Value"}, {"A", "hello"}}
	checkRows(t, rows, want)
}

func TestNoTrailingNewline(t *testing.T) {
	rows := tokenize(t, "a,b", DefaultDelimitedConfig())
	checkRows(t, rows, [][]string{{"a", "b"}})
}

func TestTrailingEmptyField(t *testing.T) {
	rows := tokenize(t, "a,", DefaultDelimitedConfig())
	checkRows(t, rows, [][]string{{"a", ""}})
}

func TestQuotedWithEmbeddedDelimiterAndNewline(t *testing.T) {
	rows := tokenize(t, "\"a,b\ncd\",e\n", DefaultDelimitedConfig())
	checkRows(t, rows, [][]string{{"a,b\ncd", "e"}})
}

func TestDoubledQuoteIsLiteral(t *testing.T) {
	rows := tokenize(t, "\"say \"\"hi\"\"\"\n", DefaultDelimitedConfig())
	checkRows(t, rows, [][]string{{`say "hi"`}})
}

func TestUnterminatedQuoteFails(t *testing.T) {
	g := NewDelimited(strings.NewReader("\"abc"), DefaultDelimitedConfig())
	_, _, err := g.Next()
	if err == nil {
		t.Fatal("expected error for unterminated quote")
	}
}

func TestStrayByteAfterQuoteFails(t *testing.T) {
	g := NewDelimited(strings.NewReader("\"abc\"x,y\n"), DefaultDelimitedConfig())
	_, _, err := g.Next()
	if err == nil {
		t.Fatal("expected error for stray byte after closing quote")
	}
}

func TestTrimUnquotedOnly(t *testing.T) {
	cfg := DefaultDelimitedConfig()
	cfg.IgnoreSurroundingSpaces = true
	rows := tokenize(t, "  a  , \" b \" \n", cfg)
	checkRows(t, rows, [][]string{{"a", " b "}})
}

func checkRows(t *testing.T, got, want [][]string) {
	t.Helper()
	gotFlat := make([][]string, len(got))
	for i, r := range got {
		gotFlat[i] = r.cells
	}
	if len(gotFlat) != len(want) {
		t.Fatalf("got %d rows %v, want %d rows %v", len(gotFlat), gotFlat, len(want), want)
	}
	for i := range want {
		if len(gotFlat[i]) != len(want[i]) {
			t.Fatalf("row %d: got %v want %v", i, gotFlat[i], want[i])
		}
		for j := range want[i] {
			if gotFlat[i][j] != want[i][j] {
				t.Fatalf("row %d cell %d: got %q want %q", i, j, gotFlat[i][j], want[i][j])
			}
		}
	}
}
