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

package header

import (
	"strings"
	"testing"

	"github.com/SnellerInc/typedcsv/grab"
)

func TestResolveDelimitedReadsFirstRow(t *testing.T) {
	g := grab.NewDelimited(strings.NewReader("Key,Value\nA,hello\n"), grab.DefaultDelimitedConfig())
	got, err := ResolveDelimited(g, Config{HasHeader: true})
	if err != nil {
		t.Fatalf("ResolveDelimited: %v", err)
	}
	want := []string{"Key", "Value"}
	checkNames(t, got.Names, want)

	c, _, err := g.Next()
	if err != nil || c.Slice.String() != "A" {
		t.Fatalf("expected data row to follow, got %+v err %v", c, err)
	}
}

func TestResolveDelimitedSynthesizesNames(t *testing.T) {
	got, err := ResolveDelimited(nil, Config{NumColumns: 3})
	if err != nil {
		t.Fatalf("ResolveDelimited: %v", err)
	}
	checkNames(t, got.Names, []string{"Column1", "Column2", "Column3"})
}

func TestResolveDelimitedPerIndexOverride(t *testing.T) {
	g := grab.NewDelimited(strings.NewReader("Key,Value\n"), grab.DefaultDelimitedConfig())
	got, err := ResolveDelimited(g, Config{HasHeader: true, Names: []string{"", "Amount"}})
	if err != nil {
		t.Fatalf("ResolveDelimited: %v", err)
	}
	checkNames(t, got.Names, []string{"Key", "Amount"})
}

func TestResolveFixedWidthInfersFromHeader(t *testing.T) {
	lines := grab.NewLineGrabber(strings.NewReader("AAA BBB\n111 222\n"))
	got, err := ResolveFixedWidth(lines, Config{HasHeader: true}, nil, ' ')
	if err != nil {
		t.Fatalf("ResolveFixedWidth: %v", err)
	}
	checkNames(t, got.Names, []string{"AAA", "BBB"})
	if len(got.Widths) != 2 || got.Widths[0] != 4 || got.Widths[1] != 3 {
		t.Fatalf("got widths %v, want [4 3]", got.Widths)
	}

	fw := grab.NewFixedWidth(lines, grab.FixedWidthConfig{Widths: got.Widths, Delimiter: ' '})
	c, more, err := fw.Next()
	if err != nil || !more || c.Slice.String() != "111" {
		t.Fatalf("expected first data cell '111', got %+v more=%v err=%v", c, more, err)
	}
}

func TestResolveFixedWidthDelimiterAtRowStart(t *testing.T) {
	lines := grab.NewLineGrabber(strings.NewReader(" AAA\n"))
	_, err := ResolveFixedWidth(lines, Config{HasHeader: true}, nil, ' ')
	if err == nil {
		t.Fatal("expected ErrDelimiterAtRowStart")
	}
}

func TestResolveFixedWidthExplicitWidths(t *testing.T) {
	lines := grab.NewLineGrabber(strings.NewReader("AAA BBB\n111 222\n"))
	got, err := ResolveFixedWidth(lines, Config{HasHeader: true}, []int{4, 3}, ' ')
	if err != nil {
		t.Fatalf("ResolveFixedWidth: %v", err)
	}
	checkNames(t, got.Names, []string{"AAA", "BBB"})
}

func checkNames(t *testing.T, got, want []string) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}
