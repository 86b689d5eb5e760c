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
	"github.com/SnellerInc/typedcsv/date"
	"github.com/SnellerInc/typedcsv/typeinfer"
)

// DateTimeParser recognizes RFC3339-ish date-time text via the kept
// date package's nanosecond-precision parser, preserving the literal
// UTC offset a row specified (date.ParseOffset) alongside the
// normalized instant.
type DateTimeParser struct {
	customParse func([]byte) (date.Time, int32, bool, bool)
}

// NewDateTimeParser returns the default parser, backed by
// date.ParseOffset. A caller-supplied custom_time_zone_parser (spec.md
// §6) can be installed with NewDateTimeParserWithParse.
func NewDateTimeParser() *DateTimeParser {
	return &DateTimeParser{customParse: date.ParseOffset}
}

// NewDateTimeParserWithParse overrides the leaf date.ParseOffset call, for
// the custom_time_zone_parser configuration hook. Offset tracking is
// disabled for a custom parser, since it has no way to report one.
func NewDateTimeParserWithParse(parse func([]byte) (date.Time, bool)) *DateTimeParser {
	wrapped := func(b []byte) (date.Time, int32, bool, bool) {
		t, ok := parse(b)
		return t, 0, false, ok
	}
	return &DateTimeParser{customParse: wrapped}
}

func (p *DateTimeParser) Name() string                { return "date-time" }
func (p *DateTimeParser) Group() typeinfer.Group       { return typeinfer.GroupDateTime }
func (p *DateTimeParser) DataType() typeinfer.DataType { return typeinfer.DateTime }

type dateTimeCtx struct{ buf *chunkBuffer[typeinfer.DateTimeValue] }

func (c *dateTimeCtx) DataType() typeinfer.DataType { return typeinfer.DateTime }

func (p *DateTimeParser) MakeContext(g *typeinfer.GlobalContext) (typeinfer.ParserContext, error) {
	sink := g.Sinks.NewDateTimeSink(g.ColumnIndex)
	return &dateTimeCtx{buf: newChunkBuffer[typeinfer.DateTimeValue](sink, g.ChunkSize, true)}, nil
}

func (p *DateTimeParser) TryParse(g *typeinfer.GlobalContext, rawCtx typeinfer.ParserContext, it *typeinfer.Iterator, begin, end int, appending bool) (int, error) {
	ctx := rawCtx.(*dateTimeCtx)
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
			if err := ctx.buf.push(pos, typeinfer.DateTimeValue{}, true); err != nil {
				return pos, err
			}
			pos++
			continue
		}
		t, offsetSec, hasOffset, ok := p.customParse(cell)
		if !ok {
			ctx.buf.flush()
			return pos, nil
		}
		v := typeinfer.DateTimeValue{UnixNanos: t.UnixNano(), HasOffset: hasOffset, OffsetSec: offsetSec}
		if err := ctx.buf.push(pos, v, false); err != nil {
			return pos, err
		}
		pos++
	}
	ctx.buf.flush()
	return pos, nil
}
