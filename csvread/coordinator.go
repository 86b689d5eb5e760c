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
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/google/uuid"

	"github.com/SnellerInc/typedcsv/densestore"
	"github.com/SnellerInc/typedcsv/grab"
	"github.com/SnellerInc/typedcsv/header"
	"github.com/SnellerInc/typedcsv/typeinfer"
)

// ErrRowShapeMismatch is raised when a row has fewer or more cells
// than the header count and neither AllowMissingColumns nor
// IgnoreExcessColumns tolerates the mismatch (spec.md §7, "row
// shorter/longer than header count").
var ErrRowShapeMismatch = errors.New("csvread: row shape does not match header count")

// cellSource is the common shape of both grabber flavors' Next method,
// letting the producer loop stay agnostic to delimited vs fixed-width.
type cellSource func() (grab.Cell, bool, error)

// Coordinator runs the producer (grabber + dense-storage population)
// and, once it has written every row, one typing-engine consumer per
// column, the way spec.md §5 describes (thread pooled, ordering only
// promised within a column). It is grounded on sorting.ThreadPool's
// goroutine-per-worker, first-error-wins join.
type Coordinator struct {
	cfg *Config
	r   io.Reader
}

// NewCoordinator builds a Coordinator reading from r under cfg. cfg
// need not be resolved: Run resolves it itself, so fields changed
// after LoadConfigJSON/LoadConfigYAML take effect.
func NewCoordinator(r io.Reader, cfg *Config) *Coordinator {
	return &Coordinator{cfg: cfg, r: r}
}

// Run drives the full pipeline and returns the typed Result.
func (co *Coordinator) Run(sinks typeinfer.SinkFactory) (*Result, error) {
	cfg := co.cfg
	if err := cfg.resolve(); err != nil {
		return nil, err
	}

	names, widths, source, err := co.openGrabber()
	if err != nil {
		return nil, err
	}
	numCols := len(names)

	writers := make([]*densestore.Writer, numCols)
	for i := range writers {
		writers[i] = densestore.NewWriter()
		if cfg.DedupLargeCells {
			writers[i].EnableDedup()
		}
	}

	cfg.logf("csvread: producer starting, %d columns, fixed-width=%v", numCols, widths != nil)
	numRows, err := co.produce(source, writers)
	if err != nil {
		cfg.logf("csvread: producer failed: %v", err)
		return nil, err
	}
	cfg.logf("csvread: producer finished, %d rows", numRows)

	dataTypes, err := co.consume(names, numRows, writers, sinks)
	if err != nil {
		return nil, err
	}

	cols := make([]Column, numCols)
	for i, name := range names {
		cols[i] = Column{Name: name, DataType: dataTypes[i]}
	}
	return &Result{ID: uuid.New(), NumRows: numRows, NumCols: numCols, Columns: cols}, nil
}

// openGrabber builds the delimited or fixed-width grabber per cfg,
// resolves headers from it, and returns a uniform cellSource
// positioned at the first data row.
func (co *Coordinator) openGrabber() (names []string, widths []int, source cellSource, err error) {
	cfg := co.cfg
	hdrCfg := header.Config{HasHeader: cfg.HasHeaderRow, Names: cfg.Headers}
	for idx, name := range cfg.HeaderForIndex {
		for len(hdrCfg.Names) <= idx {
			hdrCfg.Names = append(hdrCfg.Names, "")
		}
		hdrCfg.Names[idx] = name
	}

	if cfg.FixedColumnWidths != nil {
		lines := grab.NewLineGrabber(co.r)
		if err := skipRows(lines.Next, cfg.SkipHeaderRows); err != nil {
			return nil, nil, nil, err
		}
		resolved, err := header.ResolveFixedWidth(lines, hdrCfg, cfg.FixedColumnWidths, cfg.resolved.delimiter)
		if err != nil {
			return nil, nil, nil, err
		}
		fw := grab.NewFixedWidth(lines, grab.FixedWidthConfig{
			Widths:        resolved.Widths,
			Delimiter:     cfg.resolved.delimiter,
			UTF16Counting: !cfg.UseUTF32CountingConvention,
		})
		return resolved.Names, resolved.Widths, fw.Next, nil
	}

	delimCfg := grab.DelimitedConfig{
		Delimiter:               cfg.resolved.delimiter,
		Quote:                   cfg.resolved.quote,
		RespectQuotes:           true,
		IgnoreSurroundingSpaces: cfg.IgnoreSurroundingSpaces,
		Trim:                    cfg.Trim,
	}
	g := grab.NewDelimited(co.r, delimCfg)
	if err := skipRows(g.Next, cfg.SkipHeaderRows); err != nil {
		return nil, nil, nil, err
	}

	if cfg.HasHeaderRow || len(cfg.Headers) > 0 {
		resolved, err := header.ResolveDelimited(g, header.Config{HasHeader: cfg.HasHeaderRow, Names: hdrCfg.Names})
		if err != nil {
			return nil, nil, nil, err
		}
		return resolved.Names, nil, g.Next, nil
	}

	// No header configured at all: synthesize Column1..ColumnN from the
	// cell count of the first data row (spec.md §4.5), then replay that
	// row as the first row of data.
	firstRow, err := readOneRow(g.Next)
	if err != nil {
		return nil, nil, nil, err
	}
	resolved, err := header.ResolveDelimited(nil, header.Config{NumColumns: len(firstRow)})
	if err != nil {
		return nil, nil, nil, err
	}
	replay := replaySource(firstRow, g.Next)
	return resolved.Names, nil, replay, nil
}

// skipRows drops n whole rows from source before header resolution
// begins, for skip_header_rows (spec.md §6).
func skipRows(source cellSource, n int) error {
	for i := 0; i < n; i++ {
		if _, err := readOneRow(source); err != nil {
			return err
		}
	}
	return nil
}

// replaySource returns a cellSource that first yields first, then
// falls through to next.
func replaySource(first []grab.Cell, next cellSource) cellSource {
	i := 0
	return func() (grab.Cell, bool, error) {
		if i < len(first) {
			c := first[i]
			i++
			return c, true, nil
		}
		return next()
	}
}

func readOneRow(next cellSource) ([]grab.Cell, error) {
	var row []grab.Cell
	for {
		c, more, err := next()
		if err != nil {
			return nil, err
		}
		if !more {
			return row, nil
		}
		row = append(row, c)
		if c.LastInRow {
			return row, nil
		}
	}
}

// produce reads every remaining row from source and appends each cell
// to its column's writer, applying row-shape tolerance, skip_rows,
// num_rows and ignore_empty_lines, then finishes every writer.
func (co *Coordinator) produce(source cellSource, writers []*densestore.Writer) (int, error) {
	cfg := co.cfg
	finish := func() {
		for _, w := range writers {
			w.Finish()
		}
	}

	skip := cfg.SkipRows
	numRows := 0
	for {
		if cfg.NumRows > 0 && numRows >= cfg.NumRows {
			break
		}
		row, err := readOneRow(source)
		if err != nil {
			finish()
			return numRows, err
		}
		if len(row) == 0 {
			break
		}
		if cfg.IgnoreEmptyLines && len(row) == 1 && row[0].Slice.IsEmpty() {
			continue
		}
		if skip > 0 {
			skip--
			continue
		}
		if err := co.writeRow(writers, row); err != nil {
			finish()
			return numRows, err
		}
		numRows++
	}
	finish()
	return numRows, nil
}

func (co *Coordinator) writeRow(writers []*densestore.Writer, row []grab.Cell) error {
	cfg := co.cfg
	numCols := len(writers)
	if len(row) < numCols {
		if !cfg.AllowMissingColumns {
			return fmt.Errorf("%w: got %d cells, want %d", ErrRowShapeMismatch, len(row), numCols)
		}
	} else if len(row) > numCols {
		if !cfg.IgnoreExcessColumns {
			return fmt.Errorf("%w: got %d cells, want %d", ErrRowShapeMismatch, len(row), numCols)
		}
		row = row[:numCols]
	}
	for i := 0; i < numCols; i++ {
		if i < len(row) {
			writers[i].Append(row[i].Slice.Bytes())
		} else {
			writers[i].Append(nil)
		}
	}
	return nil
}

// consume runs the typing engine over every column, in parallel when
// Concurrent is set, joining with a first-error-wins WaitGroup the way
// sorting.threadPool.Close(err) latches the first worker failure.
func (co *Coordinator) consume(names []string, numRows int, writers []*densestore.Writer, sinks typeinfer.SinkFactory) ([]typeinfer.DataType, error) {
	cfg := co.cfg
	numCols := len(writers)
	dataTypes := make([]typeinfer.DataType, numCols)

	var mu sync.Mutex
	var firstErr error
	note := func(err error) {
		if err == nil {
			return
		}
		mu.Lock()
		if firstErr == nil {
			firstErr = err
		}
		mu.Unlock()
	}

	run := func(i int) {
		trial := densestore.NewIterator(writers[i].NewReader())
		reserve := densestore.NewIterator(writers[i].NewReader())
		g := typeinfer.NewGlobalContext(i, sinks, cfg.nullLiteralsFor(i, names[i]))
		ladder := cfg.buildLadder(cfg.parserNamesFor(i, names[i]))
		dt, err := typeinfer.Infer(g, trial, reserve, numRows, ladder)
		if err != nil {
			note(fmt.Errorf("csvread: column %d (%s): %w", i, names[i], err))
			return
		}
		dataTypes[i] = dt
	}

	if !cfg.Concurrent {
		for i := 0; i < numCols; i++ {
			run(i)
			if firstErr != nil {
				return nil, firstErr
			}
		}
		return dataTypes, nil
	}

	var wg sync.WaitGroup
	wg.Add(numCols)
	for i := 0; i < numCols; i++ {
		i := i
		go func() {
			defer wg.Done()
			run(i)
		}()
	}
	wg.Wait()
	if firstErr != nil {
		return nil, firstErr
	}
	return dataTypes, nil
}
