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

// Package header resolves column names (and, for fixed-width input,
// column widths) from either a supplied override or the first physical
// row of the input.
package header

import (
	"errors"
	"fmt"

	"github.com/SnellerInc/typedcsv/grab"
)

// ErrDelimiterAtRowStart is returned when fixed-width width inference
// finds the configured delimiter as the very first byte of the header
// row, which would produce a zero-width leading column.
var ErrDelimiterAtRowStart = errors.New("header: delimiter at start of header row")

// Resolved is the outcome of header resolution: the column names and,
// for fixed-width input, the inferred or supplied column widths.
type Resolved struct {
	Names  []string
	Widths []int // nil for delimited input
}

// Config controls header resolution.
type Config struct {
	// HasHeader, when true, consumes the input's first row as the
	// header (subject to per-index overrides in Names).
	HasHeader bool
	// Names overrides column names. With HasHeader set, a non-empty
	// entry replaces the name read from (or inferred from) the row at
	// that position; an empty entry keeps it. Without HasHeader, Names
	// supplies every column outright.
	Names []string
	// NumColumns is required when HasHeader is false and Names is
	// empty, to synthesize "Column1".."ColumnN".
	NumColumns int
}

// ResolveDelimited resolves column names for delimited input. g is
// positioned at the start of the stream; if HasHeader is set, the
// first row is consumed from it, and g is left positioned at the
// first data row.
func ResolveDelimited(g *grab.Delimited, cfg Config) (Resolved, error) {
	if !cfg.HasHeader {
		return Resolved{Names: synthesizeOrOverride(cfg.Names, cfg.NumColumns)}, nil
	}
	row, err := readRow(g.Next)
	if err != nil {
		return Resolved{}, fmt.Errorf("header: reading header row: %w", err)
	}
	names := make([]string, len(row))
	copy(names, row)
	applyOverrides(names, cfg.Names)
	return Resolved{Names: names}, nil
}

// ResolveFixedWidth resolves column names and, when widths is empty,
// infers column widths from the header row. lines is the line grabber
// that will go on to back the data-row FixedWidth grabber: on return,
// lines is positioned at the first data row in every case (the header
// row, whether used for naming or width inference or both, is always
// consumed when HasHeader is set).
func ResolveFixedWidth(lines *grab.Delimited, cfg Config, widths []int, delimiter byte) (Resolved, error) {
	if !cfg.HasHeader {
		if len(widths) == 0 {
			return Resolved{}, errors.New("header: fixed-width input needs either explicit widths or a header row to infer them from")
		}
		return Resolved{Names: synthesizeOrOverride(cfg.Names, len(widths)), Widths: widths}, nil
	}

	headerCell, more, err := lines.Next()
	if err != nil {
		return Resolved{}, fmt.Errorf("header: reading header row: %w", err)
	}
	if !more {
		return Resolved{}, errors.New("header: input is empty, cannot read header row")
	}
	line := headerCell.Slice.Bytes()

	if len(widths) > 0 {
		names := splitFixedNames(line, widths, delimiter)
		applyOverrides(names, cfg.Names)
		return Resolved{Names: names, Widths: widths}, nil
	}
	return inferFixedWidthFromHeaderLine(line, cfg, delimiter)
}

// inferFixedWidthFromHeaderLine infers column boundaries from the
// header's raw physical-row text: a column starts at a non-delimiter
// byte immediately preceded by a delimiter or the start of the row,
// and its width is the distance to the next such start (or end of
// row, for the last column).
func inferFixedWidthFromHeaderLine(line []byte, cfg Config, delimiter byte) (Resolved, error) {
	if len(line) > 0 && line[0] == delimiter {
		return Resolved{}, ErrDelimiterAtRowStart
	}
	var starts []int
	for i := 0; i < len(line); i++ {
		if i == 0 || (line[i] != delimiter && line[i-1] == delimiter) {
			starts = append(starts, i)
		}
	}
	widths := make([]int, len(starts))
	names := make([]string, len(starts))
	for i, start := range starts {
		end := len(line)
		if i+1 < len(starts) {
			end = starts[i+1]
		}
		widths[i] = end - start
		names[i] = trimPad(string(line[start:end]), delimiter)
	}
	applyOverrides(names, cfg.Names)
	return Resolved{Names: names, Widths: widths}, nil
}

// splitFixedNames splits the header line by already-known widths, the
// same way the data rows will be split, so header names pick up the
// same padding-trim treatment as data cells.
func splitFixedNames(line []byte, widths []int, delimiter byte) []string {
	names := make([]string, len(widths))
	cur := 0
	for i, w := range widths {
		end := cur + w
		if i == len(widths)-1 || end > len(line) {
			end = len(line)
		}
		if cur > len(line) {
			cur = len(line)
		}
		names[i] = trimPad(string(line[cur:end]), delimiter)
		cur = end
	}
	return names
}

func trimPad(s string, pad byte) string {
	start, end := 0, len(s)
	for start < end && s[start] == pad {
		start++
	}
	for end > start && s[end-1] == pad {
		end--
	}
	return s[start:end]
}

func applyOverrides(names []string, overrides []string) {
	for i, override := range overrides {
		if i < len(names) && override != "" {
			names[i] = override
		}
	}
}

func readRow(next func() (grab.Cell, bool, error)) ([]string, error) {
	var row []string
	for {
		c, more, err := next()
		if err != nil {
			return nil, err
		}
		if !more {
			break
		}
		row = append(row, c.Slice.String())
		if c.LastInRow {
			break
		}
	}
	return row, nil
}

func synthesizeOrOverride(names []string, n int) []string {
	if len(names) > 0 {
		n = len(names)
	}
	out := make([]string, n)
	for i := range out {
		out[i] = fmt.Sprintf("Column%d", i+1)
	}
	applyOverrides(out, names)
	return out
}
