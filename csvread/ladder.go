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
	"github.com/SnellerInc/typedcsv/parsers"
	"github.com/SnellerInc/typedcsv/typeinfer"
)

// buildLadder resolves a column's configured parser-name list (already
// group-validated by Config.resolve) into a typeinfer.Ladder, and its
// null-parser name (if any) into Ladder.NullParser.
func (c *Config) buildLadder(names []string) typeinfer.Ladder {
	var l typeinfer.Ladder
	for _, name := range names {
		switch name {
		case ParserByte:
			l.Numeric = append(l.Numeric, parsers.NewByteParser())
		case ParserShort:
			l.Numeric = append(l.Numeric, parsers.NewShortParser())
		case ParserInt:
			l.Numeric = append(l.Numeric, parsers.NewIntParser())
		case ParserLong:
			l.Numeric = append(l.Numeric, parsers.NewLongParser())
		case ParserFloatFast:
			l.Numeric = append(l.Numeric, parsers.NewFloatFastParser())
		case ParserFloatStrict:
			l.Numeric = append(l.Numeric, parsers.NewFloatStrictParser())
		case ParserDouble:
			if c.CustomDoubleParser != nil {
				l.Numeric = append(l.Numeric, &customDoubleParser{parse: c.CustomDoubleParser})
			} else {
				l.Numeric = append(l.Numeric, parsers.NewDoubleParser())
			}
		case ParserTimestampSeconds:
			l.Timestamp = parsers.NewTimestampSecondsParser()
		case ParserTimestampMillis:
			l.Timestamp = parsers.NewTimestampMillisParser()
		case ParserTimestampMicros:
			l.Timestamp = parsers.NewTimestampMicrosParser()
		case ParserTimestampNanos:
			l.Timestamp = parsers.NewTimestampNanosParser()
		case ParserDateTime:
			if c.CustomTimeZoneParser != nil {
				l.DateTime = parsers.NewDateTimeParserWithParse(c.CustomTimeZoneParser)
			} else {
				l.DateTime = parsers.NewDateTimeParser()
			}
		case ParserBoolean:
			l.Boolean = parsers.NewBooleanParser()
		case ParserChar:
			l.Char = parsers.NewCharParser()
		case ParserString:
			l.String = parsers.NewStringParser()
		}
	}
	if c.NullParser != "" {
		l.NullParser = singleParser(c, c.NullParser)
	}
	return l
}

// singleParser resolves one bare parser name outside of a ladder list,
// for the null_parser configuration option.
func singleParser(c *Config, name string) typeinfer.Parser {
	switch name {
	case ParserByte:
		return parsers.NewByteParser()
	case ParserShort:
		return parsers.NewShortParser()
	case ParserInt:
		return parsers.NewIntParser()
	case ParserLong:
		return parsers.NewLongParser()
	case ParserFloatFast:
		return parsers.NewFloatFastParser()
	case ParserFloatStrict:
		return parsers.NewFloatStrictParser()
	case ParserDouble:
		if c.CustomDoubleParser != nil {
			return &customDoubleParser{parse: c.CustomDoubleParser}
		}
		return parsers.NewDoubleParser()
	case ParserTimestampSeconds:
		return parsers.NewTimestampSecondsParser()
	case ParserTimestampMillis:
		return parsers.NewTimestampMillisParser()
	case ParserTimestampMicros:
		return parsers.NewTimestampMicrosParser()
	case ParserTimestampNanos:
		return parsers.NewTimestampNanosParser()
	case ParserDateTime:
		if c.CustomTimeZoneParser != nil {
			return parsers.NewDateTimeParserWithParse(c.CustomTimeZoneParser)
		}
		return parsers.NewDateTimeParser()
	case ParserBoolean:
		return parsers.NewBooleanParser()
	case ParserChar:
		return parsers.NewCharParser()
	case ParserString:
		return parsers.NewStringParser()
	default:
		return nil
	}
}
