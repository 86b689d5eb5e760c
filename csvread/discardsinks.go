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

// discardSink satisfies Sink[T] by throwing every chunk away; it is
// not a Source, so it never short-circuits the numeric unification
// fast path in typeinfer.parseNumerics into skipping a real reparse.
type discardSink[T any] struct{}

func (discardSink[T]) WriteChunk(int, []T, []bool, bool) error { return nil }

// discardSinks is a SinkFactory that types a file without storing a
// single value, for callers (cmd/typedcsv's schema-sniffing mode) that
// only want the inferred Columns back.
type discardSinks struct{}

// DiscardSinks returns a SinkFactory whose sinks discard every value
// they're handed; Coordinator.Run still returns the full inferred
// schema and row count.
func DiscardSinks() typeinfer.SinkFactory { return discardSinks{} }

func (discardSinks) NewByteSink(int) typeinfer.Sink[int8]   { return discardSink[int8]{} }
func (discardSinks) NewShortSink(int) typeinfer.Sink[int16] { return discardSink[int16]{} }
func (discardSinks) NewIntSink(int) typeinfer.Sink[int32]   { return discardSink[int32]{} }
func (discardSinks) NewLongSink(int) typeinfer.Sink[int64]  { return discardSink[int64]{} }
func (discardSinks) NewDoubleSink(int) typeinfer.Sink[float64] {
	return discardSink[float64]{}
}
func (discardSinks) NewFloatSink(int, bool) typeinfer.Sink[float32] {
	return discardSink[float32]{}
}
func (discardSinks) NewTimestampSink(int, typeinfer.DataType) typeinfer.Sink[int64] {
	return discardSink[int64]{}
}
func (discardSinks) NewDateTimeSink(int) typeinfer.Sink[typeinfer.DateTimeValue] {
	return discardSink[typeinfer.DateTimeValue]{}
}
func (discardSinks) NewBooleanSink(int) typeinfer.Sink[bool] { return discardSink[bool]{} }
func (discardSinks) NewCharSink(int) typeinfer.Sink[rune]    { return discardSink[rune]{} }
func (discardSinks) NewStringSink(int) typeinfer.Sink[string] {
	return discardSink[string]{}
}
