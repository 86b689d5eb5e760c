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

// Package typeinfer implements the per-column, two-pass parser-ladder
// type inference engine: given an ordered list of candidate parsers,
// it tries each in precedence order, backtracking through a reserve
// cursor over the same dense-storage column when a narrower parser
// turns out not to cover the whole column.
package typeinfer

import "github.com/SnellerInc/typedcsv/densestore"

// DataType tags the logical type a parser (and its sink) produces.
type DataType int

const (
	Byte DataType = iota
	Short
	Int
	Long
	FloatFast
	FloatStrict
	Double
	TimestampSeconds
	TimestampMillis
	TimestampMicros
	TimestampNanos
	DateTime
	Boolean
	Char
	String
	Custom
)

func (dt DataType) String() string {
	switch dt {
	case Byte:
		return "byte"
	case Short:
		return "short"
	case Int:
		return "int"
	case Long:
		return "long"
	case FloatFast:
		return "float-fast"
	case FloatStrict:
		return "float-strict"
	case Double:
		return "double"
	case TimestampSeconds:
		return "timestamp-seconds"
	case TimestampMillis:
		return "timestamp-millis"
	case TimestampMicros:
		return "timestamp-micros"
	case TimestampNanos:
		return "timestamp-nanos"
	case DateTime:
		return "date-time"
	case Boolean:
		return "boolean"
	case Char:
		return "char"
	case String:
		return "string"
	default:
		return "custom"
	}
}

// MarshalJSON renders DataType as its String() name rather than the
// underlying int, so a csvread.Result serializes as e.g. "double"
// instead of 6.
func (dt DataType) MarshalJSON() ([]byte, error) {
	return []byte(`"` + dt.String() + `"`), nil
}

// Group classifies parsers for the ladder-construction rules in
// spec.md §4.7: at most one floating parser, numeric and timestamp are
// mutually exclusive, custom parsers preserve configured order.
type Group int

const (
	GroupNumeric Group = iota
	GroupTimestamp
	GroupDateTime
	GroupBoolean
	GroupCustom
	GroupChar
	GroupString
)

// IsNumeric reports whether dt belongs to the numeric widening ladder
// (byte..double).
func (dt DataType) IsNumeric() bool {
	return dt >= Byte && dt <= Double
}

// IsFloat reports whether dt is one of the two floating numeric types.
func (dt DataType) IsFloat() bool {
	return dt == FloatFast || dt == FloatStrict || dt == Double
}

// IsTimestamp reports whether dt is one of the four timestamp
// resolutions.
func (dt DataType) IsTimestamp() bool {
	return dt >= TimestampSeconds && dt <= TimestampNanos
}

// Sink is the chunk-oriented, caller-supplied consumer of one column's
// typed values (spec.md §4.8's "chunked write contract"). T is the Go
// representation the parser bound to this sink produces.
//
// WriteChunk delivers values in strictly increasing [destBegin,destEnd)
// ranges when appending is true (normal forward parsing) and in
// arbitrary, possibly-earlier ranges when appending is false (the
// second-phase backfill of a leading null run).
type Sink[T any] interface {
	WriteChunk(destBegin int, values []T, nulls []bool, appending bool) error
}

// Source is the optional "readable" extension to Sink that the
// numeric unification fast path probes for at runtime (spec.md §9,
// "Sink/Source duality"). A sink that is also a Source lets the typing
// engine widen by copy instead of falling back to a second textual
// pass.
type Source[T any] interface {
	Sink[T]
	ReadChunk(srcBegin, n int, values []T, nulls []bool) (int, error)
}

// SinkFactory is the external collaborator (spec.md §6) that supplies
// a sink for a given column and recognized primitive group. Each
// method corresponds to one of "8/16/32/64-bit signed integers, float,
// double, boolean, char, string, two date-time flavors".
type SinkFactory interface {
	NewByteSink(col int) Sink[int8]
	NewShortSink(col int) Sink[int16]
	NewIntSink(col int) Sink[int32]
	NewLongSink(col int) Sink[int64]
	NewFloatSink(col int, strict bool) Sink[float32]
	NewDoubleSink(col int) Sink[float64]
	NewTimestampSink(col int, dt DataType) Sink[int64]
	NewDateTimeSink(col int) Sink[DateTimeValue]
	NewBooleanSink(col int) Sink[bool]
	NewCharSink(col int) Sink[rune]
	NewStringSink(col int) Sink[string]
}

// DateTimeValue is the Go representation written to date-time sinks;
// parsers/datetime.go produces these from date.Time.
type DateTimeValue struct {
	UnixNanos int64
	HasOffset bool
	OffsetSec int32
}

// GlobalContext is shared, read-only (after construction) per-column
// parsing state (spec.md §3 "Global Context").
type GlobalContext struct {
	ColumnIndex  int
	Sinks        SinkFactory
	NullLiterals map[string]struct{}
	ChunkSize    int
}

// IsNull reports whether cell matches one of the configured
// null-value literals for this column.
func (g *GlobalContext) IsNull(cell []byte) bool {
	_, ok := g.NullLiterals[string(cell)]
	return ok
}

// defaultChunkSize is spec.md §3's "fixed-size value chunk (default
// 65,536 entries)".
const defaultChunkSize = 65536

// NewGlobalContext builds a GlobalContext with the default chunk size
// and, if nullLiterals is nil, the default null-literal set {""}. A
// non-nil empty set means no cell is null.
func NewGlobalContext(col int, sinks SinkFactory, nullLiterals map[string]struct{}) *GlobalContext {
	if nullLiterals == nil {
		nullLiterals = map[string]struct{}{"": {}}
	}
	return &GlobalContext{ColumnIndex: col, Sinks: sinks, NullLiterals: nullLiterals, ChunkSize: defaultChunkSize}
}

// Iterator is the forward cursor type the parser ladder advances over;
// it is exactly densestore's Iterator Holder.
type Iterator = densestore.Iterator
