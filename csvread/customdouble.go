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

import "github.com/SnellerInc/typedcsv/typeinfer"

// customDoubleParser is the custom_double_parser hook (spec.md §6):
// when configured, it replaces the double rung's strconv.ParseFloat
// leaf with a caller-supplied closure, resolved once here the way
// xsv.FieldHint.convertAndWrite resolves its conversion function at
// configuration time rather than via a per-cell type switch.
type customDoubleParser struct {
	parse func([]byte) (float64, bool)
}

func (p *customDoubleParser) Name() string                  { return "custom-double" }
func (p *customDoubleParser) Group() typeinfer.Group         { return typeinfer.GroupNumeric }
func (p *customDoubleParser) DataType() typeinfer.DataType   { return typeinfer.Double }

type customDoubleCtx struct {
	sink typeinfer.Sink[float64]
	src  typeinfer.Source[float64]
}

func (c *customDoubleCtx) DataType() typeinfer.DataType { return typeinfer.Double }

func (p *customDoubleParser) MakeContext(g *typeinfer.GlobalContext) (typeinfer.ParserContext, error) {
	sink := g.Sinks.NewDoubleSink(g.ColumnIndex)
	ctx := &customDoubleCtx{sink: sink}
	if src, ok := sink.(typeinfer.Source[float64]); ok {
		ctx.src = src
	}
	return ctx, nil
}

func (p *customDoubleParser) TryParse(g *typeinfer.GlobalContext, rawCtx typeinfer.ParserContext, it *typeinfer.Iterator, begin, end int, appending bool) (int, error) {
	ctx := rawCtx.(*customDoubleCtx)
	values := make([]float64, 0, end-begin)
	nulls := make([]bool, 0, end-begin)
	pos := begin
	flush := func() error {
		if len(values) == 0 {
			return nil
		}
		err := ctx.sink.WriteChunk(pos-len(values), values, nulls, appending)
		values = values[:0]
		nulls = nulls[:0]
		return err
	}
	for pos < end {
		has, err := it.Next()
		if err != nil {
			flush()
			return pos, err
		}
		if !has {
			break
		}
		cell := it.Current().Bytes()
		if g.IsNull(cell) {
			values = append(values, 0)
			nulls = append(nulls, true)
			pos++
			continue
		}
		v, ok := p.parse(cell)
		if !ok {
			flush()
			return pos, nil
		}
		values = append(values, v)
		nulls = append(nulls, false)
		pos++
	}
	if err := flush(); err != nil {
		return pos, err
	}
	return pos, nil
}

func (p *customDoubleParser) Readable(rawCtx typeinfer.ParserContext) bool {
	return rawCtx.(*customDoubleCtx).src != nil
}

func (p *customDoubleParser) ReadBack(rawCtx typeinfer.ParserContext, srcBegin, srcEnd int, out []typeinfer.NumericBox, outNull []bool) (int, error) {
	ctx := rawCtx.(*customDoubleCtx)
	n := srcEnd
	values := make([]float64, n)
	got, err := ctx.src.ReadChunk(srcBegin, n, values, outNull[:n])
	if err != nil {
		return got, err
	}
	for i := 0; i < got; i++ {
		out[i] = typeinfer.NumericBox{Float64: values[i], IsFloat: true}
	}
	return got, nil
}

func (p *customDoubleParser) WriteBack(rawCtx typeinfer.ParserContext, destBegin int, values []typeinfer.NumericBox, nulls []bool, appending bool) error {
	ctx := rawCtx.(*customDoubleCtx)
	converted := make([]float64, len(values))
	for i, v := range values {
		converted[i] = v.AsFloat64()
	}
	return ctx.sink.WriteChunk(destBegin, converted, nulls, appending)
}
