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

// Package csvread is the public entry point: it spawns the producer
// (grabber + dense-storage population) and one typing-engine consumer
// per column, and joins them into a Result.
package csvread

import (
	"encoding/json"
	"errors"
	"log"

	"github.com/SnellerInc/typedcsv/date"
	"github.com/SnellerInc/typedcsv/typeinfer"
)

var (
	// ErrConflictingParsers is raised when a column's parser list names
	// two floating parsers, or mixes a numeric parser with a timestamp
	// parser (spec.md §7, "configuration failure").
	ErrConflictingParsers = errors.New("csvread: conflicting parsers in ladder")
	// ErrEmptyParserSet is raised when a non-null column has no parsers
	// configured at all.
	ErrEmptyParserSet = errors.New("csvread: empty parser set for column")
	// ErrEmptyColumnNoNullParser aliases typeinfer.ErrNoNullParser so
	// callers can errors.Is against either package.
	ErrEmptyColumnNoNullParser = typeinfer.ErrNoNullParser
	// ErrUnknownParserName is raised when a parser list names a parser
	// identifier this build doesn't recognize.
	ErrUnknownParserName = errors.New("csvread: unknown parser name")
)

// Recognized parser identifiers for the Parsers / ParserForName /
// ParserForIndex configuration lists.
const (
	ParserByte             = "byte"
	ParserShort            = "short"
	ParserInt              = "int"
	ParserLong             = "long"
	ParserFloatFast        = "float-fast"
	ParserFloatStrict      = "float-strict"
	ParserDouble           = "double"
	ParserTimestampSeconds = "timestamp-seconds"
	ParserTimestampMillis  = "timestamp-millis"
	ParserTimestampMicros  = "timestamp-micros"
	ParserTimestampNanos   = "timestamp-nanos"
	ParserDateTime         = "date-time"
	ParserBoolean          = "boolean"
	ParserChar             = "char"
	ParserString           = "string"
)

// Config is the configuration surface of spec.md §6, following
// xsv.Hint's shape: an exported, JSON-tagged struct plus a resolve
// step (mirroring FieldHint.UnmarshalJSON's validation) that fills in
// the unexported, already-validated `resolved` side.
type Config struct {
	Delimiter               byte `json:"delimiter,omitempty"`
	Quote                   byte `json:"quote,omitempty"`
	IgnoreSurroundingSpaces bool `json:"ignore_surrounding_spaces,omitempty"`
	Trim                    bool `json:"trim,omitempty"`

	HasHeaderRow   bool `json:"has_header_row,omitempty"`
	SkipHeaderRows int  `json:"skip_header_rows,omitempty"`
	SkipRows       int  `json:"skip_rows,omitempty"`
	NumRows        int  `json:"num_rows,omitempty"`

	IgnoreEmptyLines     bool `json:"ignore_empty_lines,omitempty"`
	AllowMissingColumns  bool `json:"allow_missing_columns,omitempty"`
	IgnoreExcessColumns  bool `json:"ignore_excess_columns,omitempty"`

	Headers        []string       `json:"headers,omitempty"`
	HeaderForIndex map[int]string `json:"header_for_index,omitempty"`

	Parsers        []string            `json:"parsers,omitempty"`
	ParserForName  map[string][]string `json:"parser_for_name,omitempty"`
	ParserForIndex map[int][]string    `json:"parser_for_index,omitempty"`

	NullValueLiterals         []string            `json:"null_value_literals,omitempty"`
	NullValueLiteralsForName  map[string][]string `json:"null_value_literals_for_name,omitempty"`
	NullValueLiteralsForIndex map[int][]string    `json:"null_value_literals_for_index,omitempty"`
	NullParser                string               `json:"null_parser,omitempty"`

	Concurrent bool `json:"concurrent,omitempty"`

	// FixedColumnWidths being non-nil switches on fixed-width mode. A
	// non-empty value gives one width per column (the last column's
	// width is not enforced: it absorbs the rest of the row); an
	// empty-but-non-nil value ([]int{}, or "fixed_column_widths": [] in
	// JSON/YAML) requests width inference from the header row instead.
	FixedColumnWidths []int `json:"fixed_column_widths,omitempty"`
	// UseUTF32CountingConvention switches the fixed-width splitter to
	// one-code-unit-per-code-point counting (spec.md §4.4's first
	// mode); the default is UTF-16 counting, where characters outside
	// the BMP count as two units.
	UseUTF32CountingConvention bool `json:"use_utf32_counting_convention,omitempty"`

	// CustomDoubleParser and CustomTimeZoneParser are the
	// custom_double_parser / custom_time_zone_parser hooks (spec.md
	// §6), modeled as optional injectable conversion closures the way
	// xsv.FieldHint.convertAndWrite resolves its conversion function
	// once at configuration time.
	CustomDoubleParser   func([]byte) (float64, bool)   `json:"-"`
	CustomTimeZoneParser func([]byte) (date.Time, bool) `json:"-"`

	// DedupLargeCells turns on content-addressed deduplication of
	// large cells (densestore.Writer.EnableDedup) in every column's
	// storage queue: a repeated long value (the same URL or blob
	// reference appearing many times in a column) is copied once and
	// every later occurrence references that same backing array,
	// instead of paying a fresh allocation and copy per occurrence.
	DedupLargeCells bool `json:"dedup_large_cells,omitempty"`

	// Logger receives coordinator-level lifecycle events (producer
	// start, finish and failure). Nil (the default) means silent.
	Logger *log.Logger `json:"-"`

	resolved *resolved
}

// resolved is the validated, derived side of Config built by resolve.
type resolved struct {
	delimiter byte
	quote     byte

	nullLiteralsDefault map[string]struct{}
	nullLiteralsByName  map[string]map[string]struct{}
	nullLiteralsByIndex map[int]map[string]struct{}

	parsersDefault  []string
	parsersByName   map[string][]string
	parsersByIndex  map[int][]string
}

// LoadConfigJSON unmarshals JSON into a new Config and resolves it.
func LoadConfigJSON(data []byte) (*Config, error) {
	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	if err := cfg.resolve(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// resolve validates cross-field constraints and fills in the
// unexported resolved side, mirroring xsv.FieldHint.UnmarshalJSON.
func (c *Config) resolve() error {
	r := &resolved{
		nullLiteralsByName: map[string]map[string]struct{}{},
		nullLiteralsByIndex: map[int]map[string]struct{}{},
		parsersByName:  map[string][]string{},
		parsersByIndex: map[int][]string{},
	}

	r.delimiter = c.Delimiter
	if r.delimiter == 0 {
		r.delimiter = ','
	}
	r.quote = c.Quote
	if r.quote == 0 {
		r.quote = '"'
	}

	literals := c.NullValueLiterals
	if literals == nil {
		literals = []string{""}
	}
	r.nullLiteralsDefault = toSet(literals)
	for name, lits := range c.NullValueLiteralsForName {
		r.nullLiteralsByName[name] = toSet(lits)
	}
	for idx, lits := range c.NullValueLiteralsForIndex {
		r.nullLiteralsByIndex[idx] = toSet(lits)
	}

	parsers := c.Parsers
	if parsers == nil {
		parsers = []string{ParserByte, ParserShort, ParserInt, ParserLong, ParserFloatStrict, ParserDouble, ParserString}
	}
	if err := validateParserList(parsers); err != nil {
		return err
	}
	r.parsersDefault = parsers
	for name, p := range c.ParserForName {
		if err := validateParserList(p); err != nil {
			return err
		}
		r.parsersByName[name] = p
	}
	for idx, p := range c.ParserForIndex {
		if err := validateParserList(p); err != nil {
			return err
		}
		r.parsersByIndex[idx] = p
	}

	c.resolved = r
	return nil
}

func toSet(vals []string) map[string]struct{} {
	m := make(map[string]struct{}, len(vals))
	for _, v := range vals {
		m[v] = struct{}{}
	}
	return m
}

// validateParserList checks the grouping rules of spec.md §4.7: at
// most one floating parser, numeric and timestamp are mutually
// exclusive.
func validateParserList(names []string) error {
	if len(names) == 0 {
		return ErrEmptyParserSet
	}
	floats, numeric, timestamp := 0, false, false
	for _, n := range names {
		switch n {
		case ParserFloatFast, ParserFloatStrict:
			floats++
			numeric = true
		case ParserByte, ParserShort, ParserInt, ParserLong, ParserDouble:
			numeric = true
		case ParserTimestampSeconds, ParserTimestampMillis, ParserTimestampMicros, ParserTimestampNanos:
			timestamp = true
		case ParserDateTime, ParserBoolean, ParserChar, ParserString:
			// no constraint
		default:
			return &unknownParserError{name: n}
		}
	}
	if floats > 1 {
		return ErrConflictingParsers
	}
	if numeric && timestamp {
		return ErrConflictingParsers
	}
	return nil
}

type unknownParserError struct{ name string }

func (e *unknownParserError) Error() string {
	return "csvread: unknown parser name " + e.name
}

func (e *unknownParserError) Unwrap() error { return ErrUnknownParserName }

// nullLiteralsFor resolves the null-literal set for a column, the way
// xsv.FieldHint.Default resolves a per-field default: per-index
// override, else per-name override, else the global default.
func (c *Config) nullLiteralsFor(index int, name string) map[string]struct{} {
	if lits, ok := c.resolved.nullLiteralsByIndex[index]; ok {
		return lits
	}
	if lits, ok := c.resolved.nullLiteralsByName[name]; ok {
		return lits
	}
	return c.resolved.nullLiteralsDefault
}

// parserNamesFor resolves the parser-name ladder for a column.
func (c *Config) parserNamesFor(index int, name string) []string {
	if names, ok := c.resolved.parsersByIndex[index]; ok {
		return names
	}
	if names, ok := c.resolved.parsersByName[name]; ok {
		return names
	}
	return c.resolved.parsersDefault
}

func (c *Config) logf(format string, args ...any) {
	if c.Logger != nil {
		c.Logger.Printf(format, args...)
	}
}
