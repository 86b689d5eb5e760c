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

package csvread

import (
	"strings"
	"testing"

	"github.com/SnellerInc/typedcsv/typeinfer"
)

// memSinks is a SinkFactory that records every write against a plain
// Go slice per column/type, good enough to assert on in tests without
// a real downstream columnar store.
type memSinks struct {
	bytes   map[int][]int8
	shorts  map[int][]int16
	ints    map[int][]int32
	longs   map[int][]int64
	floats  map[int][]float32
	doubles map[int][]float64
	bools   map[int][]bool
	chars   map[int][]rune
	strs    map[int][]string
	nulls   map[int][]bool
}

func newMemSinks() *memSinks {
	return &memSinks{
		bytes: map[int][]int8{}, shorts: map[int][]int16{}, ints: map[int][]int32{},
		longs: map[int][]int64{}, floats: map[int][]float32{}, doubles: map[int][]float64{},
		bools: map[int][]bool{}, chars: map[int][]rune{}, strs: map[int][]string{},
		nulls: map[int][]bool{},
	}
}

type recordingSink[T any] struct {
	col    int
	values *map[int][]T
	nulls  *map[int][]bool
}

func (s *recordingSink[T]) WriteChunk(destBegin int, values []T, nulls []bool, appending bool) error {
	existing := (*s.values)[s.col]
	for len(existing) < destBegin+len(values) {
		var zero T
		existing = append(existing, zero)
	}
	copy(existing[destBegin:], values)
	(*s.values)[s.col] = existing

	existingNulls := (*s.nulls)[s.col]
	for len(existingNulls) < destBegin+len(nulls) {
		existingNulls = append(existingNulls, false)
	}
	copy(existingNulls[destBegin:], nulls)
	(*s.nulls)[s.col] = existingNulls
	return nil
}

func (m *memSinks) NewByteSink(col int) typeinfer.Sink[int8] {
	return &recordingSink[int8]{col: col, values: &m.bytes, nulls: &m.nulls}
}
func (m *memSinks) NewShortSink(col int) typeinfer.Sink[int16] {
	return &recordingSink[int16]{col: col, values: &m.shorts, nulls: &m.nulls}
}
func (m *memSinks) NewIntSink(col int) typeinfer.Sink[int32] {
	return &recordingSink[int32]{col: col, values: &m.ints, nulls: &m.nulls}
}
func (m *memSinks) NewLongSink(col int) typeinfer.Sink[int64] {
	return &recordingSink[int64]{col: col, values: &m.longs, nulls: &m.nulls}
}
func (m *memSinks) NewFloatSink(col int, strict bool) typeinfer.Sink[float32] {
	return &recordingSink[float32]{col: col, values: &m.floats, nulls: &m.nulls}
}
func (m *memSinks) NewDoubleSink(col int) typeinfer.Sink[float64] {
	return &recordingSink[float64]{col: col, values: &m.doubles, nulls: &m.nulls}
}
func (m *memSinks) NewTimestampSink(col int, dt typeinfer.DataType) typeinfer.Sink[int64] {
	return &recordingSink[int64]{col: col, values: &m.longs, nulls: &m.nulls}
}
func (m *memSinks) NewDateTimeSink(col int) typeinfer.Sink[typeinfer.DateTimeValue] {
	return discardSink[typeinfer.DateTimeValue]{}
}
func (m *memSinks) NewBooleanSink(col int) typeinfer.Sink[bool] {
	return &recordingSink[bool]{col: col, values: &m.bools, nulls: &m.nulls}
}
func (m *memSinks) NewCharSink(col int) typeinfer.Sink[rune] {
	return &recordingSink[rune]{col: col, values: &m.chars, nulls: &m.nulls}
}
func (m *memSinks) NewStringSink(col int) typeinfer.Sink[string] {
	return &recordingSink[string]{col: col, values: &m.strs, nulls: &m.nulls}
}

func runConfig(t *testing.T, input string, cfg *Config) *Result {
	t.Helper()
	if err := cfg.resolve(); err != nil {
		t.Fatalf("resolve: %v", err)
	}
	co := NewCoordinator(strings.NewReader(input), cfg)
	res, err := co.Run(newMemSinks())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	return res
}

// Scenario 1 (spec.md §8): "Key,Value\nA,hello\n" with default parsers.
func TestScenarioStringColumns(t *testing.T) {
	res := runConfig(t, "Key,Value\nA,hello\n", &Config{HasHeaderRow: true})
	if res.NumCols != 2 || res.NumRows != 1 {
		t.Fatalf("got cols=%d rows=%d, want 2,1", res.NumCols, res.NumRows)
	}
	if res.Columns[0].Name != "Key" || res.Columns[1].Name != "Value" {
		t.Fatalf("got columns %+v", res.Columns)
	}
	if res.Columns[0].DataType != typeinfer.String || res.Columns[1].DataType != typeinfer.String {
		t.Fatalf("got types %v %v, want string,string", res.Columns[0].DataType, res.Columns[1].DataType)
	}
}

// Scenario 2: "N\n1\n2\n3\n" with ladder [byte,short,int,long,double]
// infers byte.
func TestScenarioNarrowestNumericType(t *testing.T) {
	cfg := &Config{HasHeaderRow: true, Parsers: []string{ParserByte, ParserShort, ParserInt, ParserLong, ParserDouble}}
	res := runConfig(t, "N\n1\n2\n3\n", cfg)
	if res.Columns[0].DataType != typeinfer.Byte {
		t.Fatalf("got %v, want byte", res.Columns[0].DataType)
	}
}

// Scenario 3: same ladder, "N\n1\n2\n300\n" widens to short.
func TestScenarioWidensToShort(t *testing.T) {
	cfg := &Config{HasHeaderRow: true, Parsers: []string{ParserByte, ParserShort, ParserInt, ParserLong, ParserDouble}}
	res := runConfig(t, "N\n1\n2\n300\n", cfg)
	if res.Columns[0].DataType != typeinfer.Short {
		t.Fatalf("got %v, want short", res.Columns[0].DataType)
	}
}

// Scenario 5: "N\nhello\n" with ladder [byte,short,int,long,string]
// falls back to string.
func TestScenarioFallsBackToString(t *testing.T) {
	cfg := &Config{HasHeaderRow: true, Parsers: []string{ParserByte, ParserShort, ParserInt, ParserLong, ParserString}}
	res := runConfig(t, "N\nhello\n", cfg)
	if res.Columns[0].DataType != typeinfer.String {
		t.Fatalf("got %v, want string", res.Columns[0].DataType)
	}
}

// Scenario 6: fixed-width inference, "AAA BBB\n111 222\n" ⇒ widths
// [4,3], columns ["AAA","BBB"] / ["111","222"].
func TestScenarioFixedWidthInference(t *testing.T) {
	// A non-nil, empty FixedColumnWidths selects fixed-width mode and
	// requests width inference from the header row; Delimiter doubles
	// as the padding byte, so it must be set to the space the input
	// pads with.
	cfg := &Config{HasHeaderRow: true, Parsers: []string{ParserString}, Delimiter: ' ', FixedColumnWidths: []int{}}
	if err := cfg.resolve(); err != nil {
		t.Fatalf("resolve: %v", err)
	}
	co := NewCoordinator(strings.NewReader("AAA BBB\n111 222\n"), cfg)
	res, err := co.Run(newMemSinks())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Columns[0].Name != "AAA" || res.Columns[1].Name != "BBB" {
		t.Fatalf("got columns %+v", res.Columns)
	}
	if res.NumRows != 1 {
		t.Fatalf("got %d rows, want 1", res.NumRows)
	}
}

func TestConflictingParsersRejected(t *testing.T) {
	cfg := &Config{Parsers: []string{ParserFloatFast, ParserFloatStrict}}
	if err := cfg.resolve(); err == nil {
		t.Fatal("expected ErrConflictingParsers")
	}
}

func TestEmptyColumnNoNullParserFails(t *testing.T) {
	cfg := &Config{HasHeaderRow: true, Parsers: []string{ParserByte, ParserString}}
	if err := cfg.resolve(); err != nil {
		t.Fatalf("resolve: %v", err)
	}
	co := NewCoordinator(strings.NewReader("N\n"), cfg)
	_, err := co.Run(newMemSinks())
	if err == nil {
		t.Fatal("expected ErrEmptyColumnNoNullParser")
	}
}
