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

package parsers

import (
	"strconv"

	"golang.org/x/exp/constraints"

	"github.com/SnellerInc/typedcsv/typeinfer"
)

// Integer is the Go type-parameter constraint satisfied by every
// rung of the integer half of the numeric ladder.
type Integer interface {
	~int8 | ~int16 | ~int32 | ~int64
}

// IntegerParser implements one rung of the narrow-to-wide integer
// ladder (byte/short/int/long), delegating range checking to
// strconv.ParseInt's bitSize argument rather than reimplementing it.
type IntegerParser[T Integer] struct {
	dt      typeinfer.DataType
	bits    int
	newSink func(typeinfer.SinkFactory, int) typeinfer.Sink[T]
}

// NewByteParser returns the int8 rung of the numeric ladder.
func NewByteParser() *IntegerParser[int8] {
	return &IntegerParser[int8]{dt: typeinfer.Byte, bits: 8, newSink: func(f typeinfer.SinkFactory, col int) typeinfer.Sink[int8] { return f.NewByteSink(col) }}
}

// NewShortParser returns the int16 rung of the numeric ladder.
func NewShortParser() *IntegerParser[int16] {
	return &IntegerParser[int16]{dt: typeinfer.Short, bits: 16, newSink: func(f typeinfer.SinkFactory, col int) typeinfer.Sink[int16] { return f.NewShortSink(col) }}
}

// NewIntParser returns the int32 rung of the numeric ladder.
func NewIntParser() *IntegerParser[int32] {
	return &IntegerParser[int32]{dt: typeinfer.Int, bits: 32, newSink: func(f typeinfer.SinkFactory, col int) typeinfer.Sink[int32] { return f.NewIntSink(col) }}
}

// NewLongParser returns the int64 rung of the numeric ladder.
func NewLongParser() *IntegerParser[int64] {
	return &IntegerParser[int64]{dt: typeinfer.Long, bits: 64, newSink: func(f typeinfer.SinkFactory, col int) typeinfer.Sink[int64] { return f.NewLongSink(col) }}
}

func (p *IntegerParser[T]) Name() string              { return p.dt.String() }
func (p *IntegerParser[T]) Group() typeinfer.Group     { return typeinfer.GroupNumeric }
func (p *IntegerParser[T]) DataType() typeinfer.DataType { return p.dt }

type integerCtx[T Integer] struct {
	dt  typeinfer.DataType
	buf *chunkBuffer[T]
	src typeinfer.Source[T] // non-nil if the sink is also readable
}

func (c *integerCtx[T]) DataType() typeinfer.DataType { return c.dt }

func (p *IntegerParser[T]) MakeContext(g *typeinfer.GlobalContext) (typeinfer.ParserContext, error) {
	sink := p.newSink(g.Sinks, g.ColumnIndex)
	ctx := &integerCtx[T]{dt: p.dt, buf: newChunkBuffer[T](sink, g.ChunkSize, true)}
	if src, ok := sink.(typeinfer.Source[T]); ok {
		ctx.src = src
	}
	return ctx, nil
}

func (p *IntegerParser[T]) TryParse(g *typeinfer.GlobalContext, rawCtx typeinfer.ParserContext, it *typeinfer.Iterator, begin, end int, appending bool) (int, error) {
	ctx := rawCtx.(*integerCtx[T])
	ctx.buf.appending = appending
	pos := begin
	for pos < end {
		has, err := it.Next()
		if err != nil {
			ctx.buf.flush()
			return pos, err
		}
		if !has {
			break
		}
		cell := it.Current().Bytes()
		if g.IsNull(cell) {
			if err := ctx.buf.push(pos, 0, true); err != nil {
				return pos, err
			}
			pos++
			continue
		}
		v, err := strconv.ParseInt(string(cell), 10, p.bits)
		if err != nil {
			ctx.buf.flush()
			return pos, nil
		}
		if err := ctx.buf.push(pos, T(v), false); err != nil {
			return pos, err
		}
		pos++
	}
	ctx.buf.flush()
	return pos, nil
}

func (p *IntegerParser[T]) Readable(rawCtx typeinfer.ParserContext) bool {
	return rawCtx.(*integerCtx[T]).src != nil
}

func (p *IntegerParser[T]) ReadBack(rawCtx typeinfer.ParserContext, srcBegin, srcEnd int, out []typeinfer.NumericBox, outNull []bool) (int, error) {
	ctx := rawCtx.(*integerCtx[T])
	n := srcEnd
	values := make([]T, n)
	got, err := ctx.src.ReadChunk(srcBegin, n, values, outNull[:n])
	if err != nil {
		return got, err
	}
	for i := 0; i < got; i++ {
		out[i] = typeinfer.NumericBox{Int64: int64(values[i])}
	}
	return got, nil
}

func (p *IntegerParser[T]) WriteBack(rawCtx typeinfer.ParserContext, destBegin int, values []typeinfer.NumericBox, nulls []bool, appending bool) error {
	ctx := rawCtx.(*integerCtx[T])
	converted := make([]T, len(values))
	for i, v := range values {
		if v.IsFloat {
			converted[i] = T(v.Float64)
		} else {
			converted[i] = T(v.Int64)
		}
	}
	buf := newChunkBuffer[T](ctx.buf.sink, len(converted), appending)
	for i, v := range converted {
		if err := buf.push(destBegin+i, v, nulls[i]); err != nil {
			return err
		}
	}
	return buf.flush()
}

// Float is the Go type-parameter constraint for the two floating
// rungs (float-fast and float-strict share the Go type float32; double
// uses float64).
type Float interface {
	constraints.Float
}

// FloatParser implements the float-fast/float-strict rung of the
// ladder (Go type float32) and the double rung (float64), the two
// differing only in strictness: float-strict rejects any cell
// strconv.ParseFloat accepts syntactically but that round-trips with
// precision loss outside float32's range, where float-fast accepts it.
type FloatParser[T Float] struct {
	dt      typeinfer.DataType
	bits    int
	strict  bool
	newSink func(typeinfer.SinkFactory, int) typeinfer.Sink[T]
}

// NewFloatFastParser returns the lenient float32 rung.
func NewFloatFastParser() *FloatParser[float32] {
	return &FloatParser[float32]{dt: typeinfer.FloatFast, bits: 32, newSink: func(f typeinfer.SinkFactory, col int) typeinfer.Sink[float32] { return f.NewFloatSink(col, false) }}
}

// NewFloatStrictParser returns the strict float32 rung.
func NewFloatStrictParser() *FloatParser[float32] {
	return &FloatParser[float32]{dt: typeinfer.FloatStrict, bits: 32, strict: true, newSink: func(f typeinfer.SinkFactory, col int) typeinfer.Sink[float32] { return f.NewFloatSink(col, true) }}
}

// NewDoubleParser returns the float64 rung.
func NewDoubleParser() *FloatParser[float64] {
	return &FloatParser[float64]{dt: typeinfer.Double, bits: 64, newSink: func(f typeinfer.SinkFactory, col int) typeinfer.Sink[float64] { return f.NewDoubleSink(col) }}
}

func (p *FloatParser[T]) Name() string              { return p.dt.String() }
func (p *FloatParser[T]) Group() typeinfer.Group     { return typeinfer.GroupNumeric }
func (p *FloatParser[T]) DataType() typeinfer.DataType { return p.dt }

type floatCtx[T Float] struct {
	dt  typeinfer.DataType
	buf *chunkBuffer[T]
	src typeinfer.Source[T]
}

func (c *floatCtx[T]) DataType() typeinfer.DataType { return c.dt }

func (p *FloatParser[T]) MakeContext(g *typeinfer.GlobalContext) (typeinfer.ParserContext, error) {
	sink := p.newSink(g.Sinks, g.ColumnIndex)
	ctx := &floatCtx[T]{dt: p.dt, buf: newChunkBuffer[T](sink, g.ChunkSize, true)}
	if src, ok := sink.(typeinfer.Source[T]); ok {
		ctx.src = src
	}
	return ctx, nil
}

func (p *FloatParser[T]) TryParse(g *typeinfer.GlobalContext, rawCtx typeinfer.ParserContext, it *typeinfer.Iterator, begin, end int, appending bool) (int, error) {
	ctx := rawCtx.(*floatCtx[T])
	ctx.buf.appending = appending
	pos := begin
	for pos < end {
		has, err := it.Next()
		if err != nil {
			ctx.buf.flush()
			return pos, err
		}
		if !has {
			break
		}
		cell := it.Current().Bytes()
		if g.IsNull(cell) {
			if err := ctx.buf.push(pos, 0, true); err != nil {
				return pos, err
			}
			pos++
			continue
		}
		v, err := strconv.ParseFloat(string(cell), p.bits)
		if err != nil {
			ctx.buf.flush()
			return pos, nil
		}
		if p.strict && p.bits == 32 {
			// float-strict: reject values that don't round-trip
			// exactly through float32 (float-fast accepts them).
			// v was already rounded to float32, so compare against
			// the cell parsed at full precision.
			if exact, _ := strconv.ParseFloat(string(cell), 64); float64(float32(exact)) != exact {
				ctx.buf.flush()
				return pos, nil
			}
		}
		if err := ctx.buf.push(pos, T(v), false); err != nil {
			return pos, err
		}
		pos++
	}
	ctx.buf.flush()
	return pos, nil
}

func (p *FloatParser[T]) Readable(rawCtx typeinfer.ParserContext) bool {
	return rawCtx.(*floatCtx[T]).src != nil
}

func (p *FloatParser[T]) ReadBack(rawCtx typeinfer.ParserContext, srcBegin, srcEnd int, out []typeinfer.NumericBox, outNull []bool) (int, error) {
	ctx := rawCtx.(*floatCtx[T])
	n := srcEnd
	values := make([]T, n)
	got, err := ctx.src.ReadChunk(srcBegin, n, values, outNull[:n])
	if err != nil {
		return got, err
	}
	for i := 0; i < got; i++ {
		out[i] = typeinfer.NumericBox{Float64: float64(values[i]), IsFloat: true}
	}
	return got, nil
}

func (p *FloatParser[T]) WriteBack(rawCtx typeinfer.ParserContext, destBegin int, values []typeinfer.NumericBox, nulls []bool, appending bool) error {
	ctx := rawCtx.(*floatCtx[T])
	converted := make([]T, len(values))
	for i, v := range values {
		converted[i] = T(v.AsFloat64())
	}
	buf := newChunkBuffer[T](ctx.buf.sink, len(converted), appending)
	for i, v := range converted {
		if err := buf.push(destBegin+i, v, nulls[i]); err != nil {
			return err
		}
	}
	return buf.flush()
}
