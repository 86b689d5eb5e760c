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

package typeinfer

import (
	"strconv"
	"testing"

	"github.com/SnellerInc/typedcsv/densestore"
)

// intSink is a fake in-memory readable sink backing the fakeIntParser
// family below, used to exercise the engine without real leaf parsers.
type intSink struct {
	dt     DataType
	bits   int // 8, 16, 32, 64; 0 selects the float sinks below
	values []int64
	nulls  []bool
}

func newIntSink(dt DataType, bits, n int) *intSink {
	return &intSink{dt: dt, bits: bits, values: make([]int64, n), nulls: make([]bool, n)}
}

func (s *intSink) WriteChunk(destBegin int, values []int64, nulls []bool, appending bool) error {
	copy(s.values[destBegin:], values)
	copy(s.nulls[destBegin:], nulls)
	return nil
}

func (s *intSink) ReadChunk(srcBegin, n int, values []int64, nulls []bool) (int, error) {
	copy(values, s.values[srcBegin:srcBegin+n])
	copy(nulls, s.nulls[srcBegin:srcBegin+n])
	return n, nil
}

// fakeIntParser parses decimal integers that fit within bits, modeling
// the byte/short/int/long ladder without real overflow-checked parsing
// logic (sufficient to exercise the engine's control flow).
type fakeIntParser struct {
	dt   DataType
	bits int
	sink *intSink
}

func (p *fakeIntParser) Name() string     { return p.dt.String() }
func (p *fakeIntParser) Group() Group     { return GroupNumeric }
func (p *fakeIntParser) DataType() DataType { return p.dt }

func (p *fakeIntParser) MakeContext(g *GlobalContext) (ParserContext, error) {
	return &intCtx{sink: p.sink}, nil
}

func (p *fakeIntParser) fits(v int64) bool {
	switch p.bits {
	case 8:
		return v >= -128 && v <= 127
	case 16:
		return v >= -32768 && v <= 32767
	case 32:
		return v >= -(1<<31) && v <= (1<<31)-1
	default:
		return true
	}
}

func (p *fakeIntParser) TryParse(g *GlobalContext, rawCtx ParserContext, it *Iterator, begin, end int, appending bool) (int, error) {
	ctx := rawCtx.(*intCtx)
	pos := begin
	for pos < end {
		has, err := it.Next()
		if err != nil {
			return pos, err
		}
		if !has {
			break
		}
		cell := it.Current().Bytes()
		if g.IsNull(cell) {
			ctx.sink.nulls[pos] = true
			pos++
			continue
		}
		v, err := strconv.ParseInt(string(cell), 10, 64)
		if err != nil || !p.fits(v) {
			return pos, nil
		}
		ctx.sink.values[pos] = v
		ctx.sink.nulls[pos] = false
		pos++
	}
	return pos, nil
}

func (p *fakeIntParser) Readable(ctx ParserContext) bool { return true }

func (p *fakeIntParser) ReadBack(rawCtx ParserContext, srcBegin, srcEnd int, out []NumericBox, outNull []bool) (int, error) {
	ctx := rawCtx.(*intCtx)
	n := srcEnd
	for i := 0; i < n; i++ {
		outNull[i] = ctx.sink.nulls[srcBegin+i]
		out[i] = NumericBox{Int64: ctx.sink.values[srcBegin+i]}
	}
	return n, nil
}

func (p *fakeIntParser) WriteBack(rawCtx ParserContext, destBegin int, values []NumericBox, nulls []bool, appending bool) error {
	ctx := rawCtx.(*intCtx)
	for i, v := range values {
		ctx.sink.values[destBegin+i] = v.Int64
		ctx.sink.nulls[destBegin+i] = nulls[i]
	}
	return nil
}

type intCtx struct{ sink *intSink }

func (c *intCtx) DataType() DataType { return c.sink.dt }

// fakeStringParser always succeeds, the terminal parser of every
// ladder in these tests.
type fakeStringParser struct {
	values []string
	nulls  []bool
}

func (p *fakeStringParser) Name() string       { return "string" }
func (p *fakeStringParser) Group() Group       { return GroupString }
func (p *fakeStringParser) DataType() DataType { return String }
func (p *fakeStringParser) MakeContext(g *GlobalContext) (ParserContext, error) {
	return stringCtxMarker{}, nil
}
func (p *fakeStringParser) TryParse(g *GlobalContext, ctx ParserContext, it *Iterator, begin, end int, appending bool) (int, error) {
	pos := begin
	for pos < end {
		has, err := it.Next()
		if err != nil {
			return pos, err
		}
		if !has {
			break
		}
		cell := it.Current()
		if g.IsNull(cell.Bytes()) {
			p.nulls[pos] = true
		} else {
			p.values[pos] = cell.String()
		}
		pos++
	}
	return pos, nil
}

type stringCtxMarker struct{}

func (stringCtxMarker) DataType() DataType { return String }

func buildColumn(t *testing.T, cells []string) (trial, reserve *Iterator, numCells int) {
	t.Helper()
	w := densestore.NewWriter()
	for _, c := range cells {
		w.Append([]byte(c))
	}
	w.Finish()
	trial = densestore.NewIterator(w.NewReader())
	reserve = densestore.NewIterator(w.NewReader())
	return trial, reserve, len(cells)
}

func globalCtx() *GlobalContext {
	return NewGlobalContext(0, nil, nil)
}

func ladderFor(n int) (Ladder, *fakeStringParser) {
	str := &fakeStringParser{values: make([]string, n), nulls: make([]bool, n)}
	byteP := &fakeIntParser{dt: Byte, bits: 8, sink: newIntSink(Byte, 8, n)}
	shortP := &fakeIntParser{dt: Short, bits: 16, sink: newIntSink(Short, 16, n)}
	intP := &fakeIntParser{dt: Int, bits: 32, sink: newIntSink(Int, 32, n)}
	longP := &fakeIntParser{dt: Long, bits: 64, sink: newIntSink(Long, 64, n)}
	return Ladder{
		Numeric: []NumericParser{byteP, shortP, intP, longP},
		String:  str,
	}, str
}

func TestInferByteColumn(t *testing.T) {
	cells := []string{"1", "2", "3"}
	trial, reserve, n := buildColumn(t, cells)
	ladder, _ := ladderFor(n)
	dt, err := Infer(globalCtx(), trial, reserve, n, ladder)
	if err != nil {
		t.Fatalf("Infer: %v", err)
	}
	if dt != Byte {
		t.Fatalf("got %v, want byte", dt)
	}
}

func TestInferWidensToShort(t *testing.T) {
	cells := []string{"1", "2", "300"}
	trial, reserve, n := buildColumn(t, cells)
	ladder, _ := ladderFor(n)
	dt, err := Infer(globalCtx(), trial, reserve, n, ladder)
	if err != nil {
		t.Fatalf("Infer: %v", err)
	}
	if dt != Short {
		t.Fatalf("got %v, want short", dt)
	}
	shortSink := ladder.Numeric[1].(*fakeIntParser).sink
	want := []int64{1, 2, 300}
	for i, w := range want {
		if shortSink.values[i] != w {
			t.Fatalf("value %d: got %d want %d", i, shortSink.values[i], w)
		}
	}
}

func TestInferWithInteriorNull(t *testing.T) {
	cells := []string{"1", "", "2"}
	trial, reserve, n := buildColumn(t, cells)
	ladder, _ := ladderFor(n)
	dt, err := Infer(globalCtx(), trial, reserve, n, ladder)
	if err != nil {
		t.Fatalf("Infer: %v", err)
	}
	if dt != Byte {
		t.Fatalf("got %v, want byte", dt)
	}
	byteSink := ladder.Numeric[0].(*fakeIntParser).sink
	if !byteSink.nulls[1] {
		t.Fatalf("expected cell 1 to be null")
	}
	if byteSink.values[0] != 1 || byteSink.values[2] != 2 {
		t.Fatalf("got values %v", byteSink.values)
	}
}

func TestInferFallsBackToString(t *testing.T) {
	cells := []string{"hello"}
	trial, reserve, n := buildColumn(t, cells)
	ladder, str := ladderFor(n)
	dt, err := Infer(globalCtx(), trial, reserve, n, ladder)
	if err != nil {
		t.Fatalf("Infer: %v", err)
	}
	if dt != String {
		t.Fatalf("got %v, want string", dt)
	}
	if str.values[0] != "hello" {
		t.Fatalf("got %q", str.values[0])
	}
}

func TestInferAllNullUsesNullParser(t *testing.T) {
	cells := []string{"", "", ""}
	trial, reserve, n := buildColumn(t, cells)
	_, str := ladderFor(n)
	ladder := Ladder{NullParser: str}
	dt, err := Infer(globalCtx(), trial, reserve, n, ladder)
	if err != nil {
		t.Fatalf("Infer: %v", err)
	}
	if dt != String {
		t.Fatalf("got %v, want string", dt)
	}
	for i, null := range str.nulls {
		if !null {
			t.Fatalf("cell %d: expected null", i)
		}
	}
}

func TestInferEmptyColumnNoNullParserFails(t *testing.T) {
	trial, reserve, n := buildColumn(t, nil)
	ladder, _ := ladderFor(n)
	ladder.NullParser = nil
	_, err := Infer(globalCtx(), trial, reserve, n, ladder)
	if err == nil {
		t.Fatal("expected ErrNoNullParser")
	}
}
