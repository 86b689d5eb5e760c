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

	"github.com/SnellerInc/typedcsv/typeinfer"
)

// TimestampParser recognizes a bare decimal integer as an epoch offset
// at one of four resolutions and stores it as Unix nanoseconds,
// spec.md §4.7's "timestamp (seconds/millis/micros/nanos — at most
// one)".
type TimestampParser struct {
	dt    typeinfer.DataType
	scale int64 // multiply the parsed integer by this to get nanoseconds
}

func NewTimestampSecondsParser() *TimestampParser {
	return &TimestampParser{dt: typeinfer.TimestampSeconds, scale: 1_000_000_000}
}
func NewTimestampMillisParser() *TimestampParser {
	return &TimestampParser{dt: typeinfer.TimestampMillis, scale: 1_000_000}
}
func NewTimestampMicrosParser() *TimestampParser {
	return &TimestampParser{dt: typeinfer.TimestampMicros, scale: 1_000}
}
func NewTimestampNanosParser() *TimestampParser {
	return &TimestampParser{dt: typeinfer.TimestampNanos, scale: 1}
}

func (p *TimestampParser) Name() string                { return p.dt.String() }
func (p *TimestampParser) Group() typeinfer.Group       { return typeinfer.GroupTimestamp }
func (p *TimestampParser) DataType() typeinfer.DataType { return p.dt }

type timestampCtx struct {
	dt  typeinfer.DataType
	buf *chunkBuffer[int64]
}

func (c *timestampCtx) DataType() typeinfer.DataType { return c.dt }

func (p *TimestampParser) MakeContext(g *typeinfer.GlobalContext) (typeinfer.ParserContext, error) {
	sink := g.Sinks.NewTimestampSink(g.ColumnIndex, p.dt)
	return &timestampCtx{dt: p.dt, buf: newChunkBuffer[int64](sink, g.ChunkSize, true)}, nil
}

func (p *TimestampParser) TryParse(g *typeinfer.GlobalContext, rawCtx typeinfer.ParserContext, it *typeinfer.Iterator, begin, end int, appending bool) (int, error) {
	ctx := rawCtx.(*timestampCtx)
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
		v, err := strconv.ParseInt(string(cell), 10, 64)
		if err != nil {
			ctx.buf.flush()
			return pos, nil
		}
		if err := ctx.buf.push(pos, v*p.scale, false); err != nil {
			return pos, err
		}
		pos++
	}
	ctx.buf.flush()
	return pos, nil
}
