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

package typeinfer

import (
	"errors"
	"fmt"

	"github.com/SnellerInc/typedcsv/ints"
)

// ErrNoNullParser is the configuration failure raised when a column
// has no cells at all, or only null cells, and no null-parser was
// configured to type it (spec.md §7, "empty column with no
// null-parser configured"). csvread aliases this as
// ErrEmptyColumnNoNullParser.
var ErrNoNullParser = errors.New("typeinfer: column is empty or all-null and no null parser is configured")

// Ladder is the resolved, already-validated set of candidate parsers
// for one column (spec.md §4.7). Validation of the grouping rules (at
// most one float, numeric/timestamp mutual exclusion, ...) happens at
// configuration time in package csvread; by the time a Ladder reaches
// Infer it is assumed consistent.
type Ladder struct {
	Numeric    []NumericParser // byte < short < int < long < float-fast|float-strict < double, in precedence order
	Timestamp  Parser          // at most one of the four resolutions
	Boolean    Parser
	DateTime   Parser
	Custom     []Parser // preserve configured order
	Char       Parser
	String     Parser
	NullParser Parser // used for empty/all-null columns
}

func (l Ladder) single() Parser {
	var only Parser
	count := 0
	note := func(p Parser) {
		if p != nil {
			count++
			only = p
		}
	}
	for _, p := range l.Numeric {
		note(p)
	}
	note(l.Timestamp)
	note(l.Boolean)
	note(l.DateTime)
	for _, p := range l.Custom {
		note(p)
	}
	note(l.Char)
	note(l.String)
	if count == 1 {
		return only
	}
	return nil
}

// charStringAfter returns the char/string tail group, in that order,
// skipping nils.
func (l Ladder) charStringAfter() []Parser {
	var out []Parser
	if l.Char != nil {
		out = append(out, l.Char)
	}
	if l.String != nil {
		out = append(out, l.String)
	}
	return out
}

// Infer runs the full decision procedure of spec.md §4.7 for one
// column. trial and reserve must be two independent Iterator Holders,
// both positioned at the column's first cell (never advanced by the
// caller); numCells is the number of cells the producer wrote to this
// column.
func Infer(g *GlobalContext, trial, reserve *Iterator, numCells int, ladder Ladder) (DataType, error) {
	if numCells == 0 {
		return emptyOrAllNullParse(g, reserve, 0, ladder)
	}
	if only := ladder.single(); only != nil {
		return onePhaseParse(g, reserve.Clone(), numCells, only)
	}

	startIdx, allNull, err := skipLeadingNulls(g, trial)
	if err != nil {
		return 0, err
	}
	if allNull {
		return emptyOrAllNullParse(g, reserve, numCells, ladder)
	}
	firstCell := trial.Current().Bytes()

	// atStart sits just before cell[startIdx], so a parser's first
	// Next() yields that cell; never mutated below.
	atStart := reserve.Clone()
	for i := 0; i < startIdx; i++ {
		if _, err := atStart.Next(); err != nil {
			return 0, err
		}
	}
	if len(ladder.Numeric) > 0 && looksNumeric(firstCell) {
		return parseNumerics(g, atStart, reserve, startIdx, numCells, ladder)
	}

	var before []Parser
	switch {
	case ladder.Timestamp != nil && looksLong(firstCell):
		before = []Parser{ladder.Timestamp}
	case ladder.Boolean != nil && looksBoolean(firstCell):
		before = []Parser{ladder.Boolean}
	case ladder.DateTime != nil && looksDateTime(firstCell):
		before = []Parser{ladder.DateTime}
	}
	return parseFromCuratedSelections(g, atStart, reserve, startIdx, numCells, before, ladder.Custom, ladder.charStringAfter())
}

func emptyOrAllNullParse(g *GlobalContext, reserve *Iterator, numCells int, ladder Ladder) (DataType, error) {
	if ladder.NullParser == nil {
		return 0, ErrNoNullParser
	}
	return onePhaseParse(g, reserve.Clone(), numCells, ladder.NullParser)
}

// onePhaseParse implements spec.md §4.7's "One-phase parse": parse the
// given cursor from 0 to end; failure (error, or non-exhaustion) is
// fatal and reports how many items were parsed before failure.
func onePhaseParse(g *GlobalContext, it *Iterator, end int, p Parser) (DataType, error) {
	ctx, err := p.MakeContext(g)
	if err != nil {
		return 0, fmt.Errorf("typeinfer: column %d: %s: making parser context: %w", g.ColumnIndex, p.Name(), err)
	}
	consumed, err := p.TryParse(g, ctx, it, 0, end, true)
	if err != nil {
		return 0, &InferenceError{Parser: p.Name(), Parsed: consumed, Column: g.ColumnIndex, Wrapped: err}
	}
	if consumed != end {
		return 0, &InferenceError{Parser: p.Name(), Parsed: consumed, Column: g.ColumnIndex}
	}
	return p.DataType(), nil
}

// skipLeadingNulls advances it past every leading null cell. It
// returns the index of the first non-null cell (with it positioned
// there, Current() valid) or reports allNull if the column is empty or
// entirely null.
func skipLeadingNulls(g *GlobalContext, it *Iterator) (idx int, allNull bool, err error) {
	for i := 0; ; i++ {
		has, err := it.Next()
		if err != nil {
			return 0, false, err
		}
		if !has {
			return i, true, nil
		}
		if !g.IsNull(it.Current().Bytes()) {
			return i, false, nil
		}
	}
}

type numericWrapper struct {
	parser NumericParser
	ctx    ParserContext
	begin  int
	end    int
}

// parseNumerics implements spec.md §4.7's numeric fast path: try each
// numeric parser in widening precedence order, each continuing from
// where the previous one stopped, until one exhausts the column or the
// ladder runs out. On exhaustion, unify into the widest parser's sink
// either by a zero-reparse widening copy (if every wrapper's sink is
// also readable) or by a full second pass with the widest parser.
func parseNumerics(g *GlobalContext, atStart, reserve *Iterator, startIdx, numCells int, ladder Ladder) (DataType, error) {
	base := atStart.Clone() // positioned just before cell[pos]
	pos := startIdx
	var wrappers []numericWrapper
	for _, p := range ladder.Numeric {
		ctx, err := p.MakeContext(g)
		if err != nil {
			return 0, fmt.Errorf("typeinfer: column %d: %s: making parser context: %w", g.ColumnIndex, p.Name(), err)
		}
		consumed, err := p.TryParse(g, ctx, base.Clone(), pos, numCells, true)
		if err != nil {
			return 0, fmt.Errorf("typeinfer: column %d: %s: %w", g.ColumnIndex, p.Name(), err)
		}
		wrappers = append(wrappers, numericWrapper{parser: p, ctx: ctx, begin: pos, end: consumed})
		// The parser's iterator has also read the cell it rejected, so
		// the next parser resumes from base moved past the accepted ones.
		for ; pos < consumed; pos++ {
			if _, err := base.Next(); err != nil {
				return 0, err
			}
		}
		if pos == numCells {
			break
		}
	}

	if pos != numCells {
		// The widest numeric parser still didn't exhaust the column:
		// this is not a numeric column. Abandon every wrapper's
		// partial sink and fall back to the non-numeric groups from
		// the original starting position.
		return parseFromCuratedSelections(g, atStart, reserve, startIdx, numCells, nil, ladder.Custom, ladder.charStringAfter())
	}

	last := wrappers[len(wrappers)-1]
	readable := true
	for _, w := range wrappers {
		if !w.parser.Readable(w.ctx) {
			readable = false
			break
		}
	}
	if !readable {
		return performSecondParsePhase(g, reserve, startIdx, numCells, last.parser)
	}

	if startIdx > 0 {
		nulls := make([]bool, startIdx)
		ints.Interval{Start: 0, End: startIdx}.Each(func(i int) { nulls[i] = true })
		if err := last.parser.WriteBack(last.ctx, 0, make([]NumericBox, startIdx), nulls, false); err != nil {
			return 0, fmt.Errorf("typeinfer: column %d: backfilling null prefix: %w", g.ColumnIndex, err)
		}
	}
	for _, w := range wrappers {
		if w.parser == last.parser {
			continue
		}
		if err := copyWiden(g, w, last); err != nil {
			return 0, err
		}
	}
	return last.parser.DataType(), nil
}

// copyWiden streams w's already-parsed [begin,end) range through
// ReadBack/WriteBack in chunks, converting through NumericBox, into
// dest's sink.
func copyWiden(g *GlobalContext, w numericWrapper, dest numericWrapper) error {
	chunk := g.ChunkSize
	if chunk <= 0 {
		chunk = defaultChunkSize
	}
	values := make([]NumericBox, chunk)
	nulls := make([]bool, chunk)
	pos := w.begin
	for pos < w.end {
		n := ints.Min(w.end-pos, chunk)
		got, err := w.parser.ReadBack(w.ctx, pos, n, values[:n], nulls[:n])
		if err != nil {
			return fmt.Errorf("typeinfer: column %d: widening %s: %w", g.ColumnIndex, w.parser.Name(), err)
		}
		if got != n {
			return fmt.Errorf("typeinfer: column %d: widening %s: short read", g.ColumnIndex, w.parser.Name())
		}
		if err := dest.parser.WriteBack(dest.ctx, pos, values[:n], nulls[:n], false); err != nil {
			return fmt.Errorf("typeinfer: column %d: widening into %s: %w", g.ColumnIndex, dest.parser.Name(), err)
		}
		pos += n
	}
	return nil
}

// performSecondParsePhase reparses the whole column from scratch with
// p (the widest numeric parser reached) when unification-by-copy isn't
// available because some intermediate sink wasn't readable.
func performSecondParsePhase(g *GlobalContext, reserve *Iterator, startIdx, numCells int, p NumericParser) (DataType, error) {
	return onePhaseParse(g, reserve.Clone(), numCells, p)
}

// parseFromCuratedSelections implements spec.md §4.7's curated-group
// fallback: try every parser but the last as a two-phase candidate
// (first phase from startIdx forward, or, for custom parsers, from 0
// over the whole column on a fresh full-range cursor); the first to
// exhaust the column wins, backfilling its leading null run via a
// second phase if needed. The final parser in the combined list is
// mandatory (one-phase parse, fatal on failure).
func parseFromCuratedSelections(g *GlobalContext, atStart, reserve *Iterator, startIdx, numCells int, before, custom, after []Parser) (DataType, error) {
	type candidate struct {
		p      Parser
		custom bool
	}
	var all []candidate
	for _, p := range before {
		all = append(all, candidate{p, false})
	}
	for _, p := range custom {
		all = append(all, candidate{p, true})
	}
	for _, p := range after {
		all = append(all, candidate{p, false})
	}
	if len(all) == 0 {
		return 0, errors.New("typeinfer: no applicable parser for non-numeric, non-null cell")
	}

	for _, c := range all[:len(all)-1] {
		dt, ok, err := tryCuratedCandidate(g, atStart, reserve, startIdx, numCells, c.p, c.custom)
		if err != nil {
			return 0, err
		}
		if ok {
			return dt, nil
		}
	}
	last := all[len(all)-1]
	return onePhaseParse(g, reserve.Clone(), numCells, last.p)
}

// tryCuratedCandidate attempts one non-last candidate; ok is false if
// the candidate failed to exhaust the column (caller should move on to
// the next candidate).
func tryCuratedCandidate(g *GlobalContext, atStart, reserve *Iterator, startIdx, numCells int, p Parser, custom bool) (DataType, bool, error) {
	ctx, err := p.MakeContext(g)
	if err != nil {
		return 0, false, fmt.Errorf("typeinfer: column %d: %s: making parser context: %w", g.ColumnIndex, p.Name(), err)
	}

	begin := startIdx
	it := atStart.Clone()
	if custom {
		begin = 0
		it = reserve.Clone()
	}

	consumed, err := p.TryParse(g, ctx, it, begin, numCells, true)
	if err != nil {
		// A parser's TryParse only returns a non-nil error for a genuine
		// iterator/storage fault (e.g. densestore.ErrTruncated) — an
		// ordinary "this cell doesn't fit" rejection reports back via
		// consumed != numCells with err == nil. Don't mask the former as
		// if it were the latter; let it abort inference for real.
		return 0, false, fmt.Errorf("typeinfer: column %d: %s: %w", g.ColumnIndex, p.Name(), err)
	}
	if consumed != numCells {
		return 0, false, nil
	}
	if begin == 0 {
		return p.DataType(), true, nil
	}

	backConsumed, err := p.TryParse(g, ctx, reserve.Clone(), 0, begin, false)
	if err != nil {
		return 0, false, fmt.Errorf("typeinfer: column %d: %s: second-phase parse: %w", g.ColumnIndex, p.Name(), err)
	}
	if backConsumed != begin {
		return 0, false, fmt.Errorf("%w (parser %q, column %d)", ErrSecondPhaseContract, p.Name(), g.ColumnIndex)
	}
	return p.DataType(), true, nil
}
