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
	"unicode/utf8"

	"github.com/SnellerInc/typedcsv/typeinfer"
)

// CharParser accepts cells that are exactly one Unicode code point.
type CharParser struct{}

func NewCharParser() *CharParser { return &CharParser{} }

func (p *CharParser) Name() string                { return "char" }
func (p *CharParser) Group() typeinfer.Group       { return typeinfer.GroupChar }
func (p *CharParser) DataType() typeinfer.DataType { return typeinfer.Char }

type charCtx struct{ buf *chunkBuffer[rune] }

func (c *charCtx) DataType() typeinfer.DataType { return typeinfer.Char }

func (p *CharParser) MakeContext(g *typeinfer.GlobalContext) (typeinfer.ParserContext, error) {
	sink := g.Sinks.NewCharSink(g.ColumnIndex)
	return &charCtx{buf: newChunkBuffer[rune](sink, g.ChunkSize, true)}, nil
}

func (p *CharParser) TryParse(g *typeinfer.GlobalContext, rawCtx typeinfer.ParserContext, it *typeinfer.Iterator, begin, end int, appending bool) (int, error) {
	ctx := rawCtx.(*charCtx)
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
		r, size := utf8.DecodeRune(cell)
		if r == utf8.RuneError || size != len(cell) {
			ctx.buf.flush()
			return pos, nil
		}
		if err := ctx.buf.push(pos, r, false); err != nil {
			return pos, err
		}
		pos++
	}
	ctx.buf.flush()
	return pos, nil
}
