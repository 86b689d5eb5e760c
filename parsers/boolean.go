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
	"strings"

	"github.com/SnellerInc/typedcsv/typeinfer"
)

// BooleanParser recognizes the case-insensitive literals "true" and
// "false".
type BooleanParser struct{}

func NewBooleanParser() *BooleanParser { return &BooleanParser{} }

func (p *BooleanParser) Name() string                { return "boolean" }
func (p *BooleanParser) Group() typeinfer.Group       { return typeinfer.GroupBoolean }
func (p *BooleanParser) DataType() typeinfer.DataType { return typeinfer.Boolean }

type booleanCtx struct{ buf *chunkBuffer[bool] }

func (c *booleanCtx) DataType() typeinfer.DataType { return typeinfer.Boolean }

func (p *BooleanParser) MakeContext(g *typeinfer.GlobalContext) (typeinfer.ParserContext, error) {
	sink := g.Sinks.NewBooleanSink(g.ColumnIndex)
	return &booleanCtx{buf: newChunkBuffer[bool](sink, g.ChunkSize, true)}, nil
}

func (p *BooleanParser) TryParse(g *typeinfer.GlobalContext, rawCtx typeinfer.ParserContext, it *typeinfer.Iterator, begin, end int, appending bool) (int, error) {
	ctx := rawCtx.(*booleanCtx)
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
			if err := ctx.buf.push(pos, false, true); err != nil {
				return pos, err
			}
			pos++
			continue
		}
		var v bool
		switch strings.ToLower(string(cell)) {
		case "true":
			v = true
		case "false":
			v = false
		default:
			ctx.buf.flush()
			return pos, nil
		}
		if err := ctx.buf.push(pos, v, false); err != nil {
			return pos, err
		}
		pos++
	}
	ctx.buf.flush()
	return pos, nil
}
