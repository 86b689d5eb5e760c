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

import "github.com/SnellerInc/typedcsv/typeinfer"

// StringParser accepts every cell; placed last in a ladder it is a
// tail that never fails (spec.md §4.7, "the last parser ... failure is
// fatal"). Ladders without it are accepted too.
type StringParser struct{}

func NewStringParser() *StringParser { return &StringParser{} }

func (p *StringParser) Name() string                { return "string" }
func (p *StringParser) Group() typeinfer.Group       { return typeinfer.GroupString }
func (p *StringParser) DataType() typeinfer.DataType { return typeinfer.String }

type stringCtx struct{ buf *chunkBuffer[string] }

func (c *stringCtx) DataType() typeinfer.DataType { return typeinfer.String }

func (p *StringParser) MakeContext(g *typeinfer.GlobalContext) (typeinfer.ParserContext, error) {
	sink := g.Sinks.NewStringSink(g.ColumnIndex)
	return &stringCtx{buf: newChunkBuffer[string](sink, g.ChunkSize, true)}, nil
}

func (p *StringParser) TryParse(g *typeinfer.GlobalContext, rawCtx typeinfer.ParserContext, it *typeinfer.Iterator, begin, end int, appending bool) (int, error) {
	ctx := rawCtx.(*stringCtx)
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
		cell := it.Current()
		if g.IsNull(cell.Bytes()) {
			if err := ctx.buf.push(pos, "", true); err != nil {
				return pos, err
			}
			pos++
			continue
		}
		if err := ctx.buf.push(pos, cell.String(), false); err != nil {
			return pos, err
		}
		pos++
	}
	ctx.buf.flush()
	return pos, nil
}
