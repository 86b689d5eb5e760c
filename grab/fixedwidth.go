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

package grab

import (
	"fmt"
	"io"
	unicodeutf8 "unicode/utf8"

	"github.com/SnellerInc/typedcsv/bslice"
	"github.com/SnellerInc/typedcsv/utf8"
)

// FixedWidthConfig configures the fixed-width grabber.
type FixedWidthConfig struct {
	// Widths holds one character width per column. The last entry is
	// not enforced: the last column absorbs all remaining bytes of the
	// row.
	Widths []int
	// Delimiter doubles as the padding byte trimmed from both ends of
	// every cell (typically ' ').
	Delimiter byte
	// UTF16Counting selects the "code points outside the BMP count as
	// two characters" convention; when false, every code point counts
	// as one character regardless of its UTF-8 encoded length.
	UTF16Counting bool
}

// FixedWidth splits each physical row (from an underlying line
// grabber) into columns of the configured character widths.
type FixedWidth struct {
	lines *Delimited
	cfg   FixedWidthConfig

	line        []byte
	bounds      []int
	col         int
	physicalRow int
	rowEOF      bool
}

// NewFixedWidth builds the fixed-width grabber on top of an existing
// line grabber (see NewLineGrabber). Taking the line grabber itself,
// rather than an io.Reader, lets a caller read and inspect the raw
// header row through lines before the column widths are known (see
// package header) and then keep splitting subsequent rows from the
// very same stream position.
func NewFixedWidth(lines *Delimited, cfg FixedWidthConfig) *FixedWidth {
	if cfg.Delimiter == 0 {
		cfg.Delimiter = ' '
	}
	return &FixedWidth{lines: lines, cfg: cfg, col: len(cfg.Widths)}
}

// NewFixedWidthReader wraps r directly, starting a fresh line grabber.
func NewFixedWidthReader(r io.Reader, cfg FixedWidthConfig) *FixedWidth {
	return NewFixedWidth(NewLineGrabber(r), cfg)
}

// Next produces the next cell, loading a new physical row from the
// underlying line grabber whenever the previous row's columns have
// all been emitted.
func (f *FixedWidth) Next() (Cell, bool, error) {
	if f.col >= len(f.cfg.Widths) {
		lineCell, more, err := f.lines.Next()
		if err != nil {
			return Cell{}, false, err
		}
		if !more {
			return Cell{}, false, nil
		}
		f.line = append(f.line[:0], lineCell.Slice.Bytes()...)
		bounds, err := splitBounds(f.line, f.cfg.Widths, f.cfg.UTF16Counting)
		if err != nil {
			return Cell{}, false, fmt.Errorf("%w (physical row %d)", err, lineCell.PhysicalRow)
		}
		f.bounds = bounds
		f.col = 0
		f.physicalRow = lineCell.PhysicalRow
		f.rowEOF = lineCell.EndOfInput
	}

	start, end := f.bounds[f.col], f.bounds[f.col+1]
	start, end = trimPadRange(f.line, start, end, f.cfg.Delimiter)
	lastInRow := f.col == len(f.cfg.Widths)-1
	c := Cell{
		Slice:       bslice.Of(f.line, start, end),
		LastInRow:   lastInRow,
		EndOfInput:  lastInRow && f.rowEOF,
		PhysicalRow: f.physicalRow,
	}
	f.col++
	return c, true, nil
}

// splitBounds computes, for a single physical row, the byte offset at
// which every column but the last begins and ends; the final bound is
// always len(line) so the last column absorbs any trailing content.
func splitBounds(line []byte, widths []int, utf16Counting bool) ([]int, error) {
	bounds := make([]int, len(widths)+1)
	cur := 0
	for i := 0; i < len(widths)-1; i++ {
		remaining := widths[i]
		for remaining > 0 && cur < len(line) {
			r, size := unicodeutf8.DecodeRune(line[cur:])
			units := utf8.Units(r, utf16Counting)
			if units > remaining {
				return nil, fmt.Errorf("%w: column %d would start mid-surrogate-pair", ErrMalformed, i+1)
			}
			remaining -= units
			cur += size
		}
		bounds[i+1] = cur
	}
	bounds[len(widths)] = len(line)
	return bounds, nil
}

func trimPadRange(line []byte, start, end int, pad byte) (int, int) {
	for start < end && line[start] == pad {
		start++
	}
	for end > start && line[end-1] == pad {
		end--
	}
	return start, end
}
