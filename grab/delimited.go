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

// Package grab implements the cell-grabber state machines: streaming
// tokenizers that turn a UTF-8 byte stream into one cell per call,
// delimited (quoted RFC-4180-style) or fixed-width.
package grab

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"unicode/utf8"

	"github.com/SnellerInc/typedcsv/bslice"
)

// ErrMalformed is wrapped by every parse failure the grabbers report:
// unterminated quotes, stray bytes after a closing quote, and invalid
// leading UTF-8 bytes.
var ErrMalformed = errors.New("grab: malformed input")

// Cell is one observable output of a grabber call.
type Cell struct {
	Slice       bslice.Slice
	LastInRow   bool
	EndOfInput  bool
	PhysicalRow int
}

// DelimitedConfig configures the delimited (RFC-4180-style) grabber.
type DelimitedConfig struct {
	Delimiter               byte // default ','
	Quote                   byte // default '"'
	RespectQuotes           bool // default true
	IgnoreSurroundingSpaces bool // trim ASCII space/tab around unquoted cells; skip it outside quotes
	Trim                    bool // also trim inside quoted cells
}

// DefaultDelimitedConfig returns the RFC-4180 defaults.
func DefaultDelimitedConfig() DelimitedConfig {
	return DelimitedConfig{Delimiter: ',', Quote: '"', RespectQuotes: true}
}

type grabState int

const (
	stateStart grabState = iota
	stateUnquoted
	stateQuoted
	stateAfterQuote
)

// Delimited is the delimited cell grabber. It is not safe for
// concurrent use; exactly one goroutine (the coordinator's producer)
// drives it.
type Delimited struct {
	cfg DelimitedConfig
	br  *bufio.Reader

	buf []byte // reused scratch buffer; valid only until the next Next call

	physicalRow int
	afterDelim  bool
	done        bool
}

// NewDelimited wraps r with the delimited grabber.
func NewDelimited(r io.Reader, cfg DelimitedConfig) *Delimited {
	return &Delimited{
		cfg:         cfg,
		br:          bufio.NewReaderSize(r, 64*1024),
		physicalRow: 1,
	}
}

// Next produces the next cell. more is false once there is truly
// nothing left to tokenize (including the degenerate empty-input case,
// which produces zero cells and zero rows).
func (g *Delimited) Next() (cell Cell, more bool, err error) {
	if g.done {
		return Cell{}, false, nil
	}
	g.buf = g.buf[:0]
	state := stateStart

	finish := func(lastInRow, endOfInput bool) (Cell, bool, error) {
		trimmed := g.buf
		if (state == stateUnquoted || state == stateStart) && g.cfg.IgnoreSurroundingSpaces {
			trimmed = trimASCIISpace(trimmed)
		} else if (state == stateQuoted || state == stateAfterQuote) && g.cfg.Trim {
			trimmed = trimASCIISpace(trimmed)
		}
		if !utf8.Valid(trimmed) {
			return Cell{}, false, fmt.Errorf("%w: invalid UTF-8 on physical row %d", ErrMalformed, g.physicalRow)
		}
		c := Cell{
			Slice:       bslice.FromBytes(trimmed),
			LastInRow:   lastInRow,
			EndOfInput:  endOfInput,
			PhysicalRow: g.physicalRow,
		}
		if lastInRow {
			if endOfInput {
				g.done = true
			} else {
				g.physicalRow++
			}
		}
		g.afterDelim = !lastInRow
		return c, true, nil
	}

	for {
		b, rerr := g.br.ReadByte()
		if rerr != nil {
			if rerr != io.EOF {
				return Cell{}, false, rerr
			}
			switch state {
			case stateQuoted:
				return Cell{}, false, fmt.Errorf("%w: unterminated quote on physical row %d", ErrMalformed, g.physicalRow)
			case stateStart:
				if !g.afterDelim {
					g.done = true
					return Cell{}, false, nil
				}
				return finish(true, true)
			}
			return finish(true, true)
		}

		switch state {
		case stateStart:
			if g.cfg.RespectQuotes && b == g.cfg.Quote {
				state = stateQuoted
				continue
			}
			if b == g.cfg.Delimiter {
				return finish(false, false)
			}
			if g.consumeTerminator(b) {
				return finish(true, false)
			}
			if g.cfg.IgnoreSurroundingSpaces && isASCIISpace(b) {
				continue
			}
			state = stateUnquoted
			g.buf = append(g.buf, b)
			if hasFastScan {
				g.scanUnquoted()
			}
		case stateUnquoted:
			if b == g.cfg.Delimiter {
				return finish(false, false)
			}
			if g.consumeTerminator(b) {
				return finish(true, false)
			}
			g.buf = append(g.buf, b)
		case stateQuoted:
			if b == g.cfg.Quote {
				state = stateAfterQuote
				continue
			}
			g.buf = append(g.buf, b)
		case stateAfterQuote:
			if b == g.cfg.Quote {
				g.buf = append(g.buf, b)
				state = stateQuoted
				continue
			}
			if b == g.cfg.Delimiter {
				return finish(false, false)
			}
			if g.consumeTerminator(b) {
				return finish(true, false)
			}
			if g.cfg.IgnoreSurroundingSpaces && isASCIISpace(b) {
				continue
			}
			return Cell{}, false, fmt.Errorf("%w: stray byte 0x%02x after closing quote on physical row %d", ErrMalformed, b, g.physicalRow)
		}
	}
}

// consumeTerminator reports whether b starts a row terminator (\r,
// \n, or \r\n), folding a \r\n pair into a single logical terminator
// by peeking (and, if necessary, unreading) the following byte.
func (g *Delimited) consumeTerminator(b byte) bool {
	if b != '\r' && b != '\n' {
		return false
	}
	if b == '\r' {
		next, err := g.br.ReadByte()
		if err == nil && next != '\n' {
			g.br.UnreadByte()
		}
	}
	return true
}

// scanUnquoted consumes whole runs of ordinary unquoted-cell bytes in
// bulk off the buffered reader's internal window, appending each run to
// g.buf with a single append instead of paying a ReadByte call (and its
// state-machine switch) per byte. It stops the instant it sees the
// delimiter or a row terminator, leaving that byte unconsumed for the
// normal per-byte loop in Next to classify as it always has.
func (g *Delimited) scanUnquoted() {
	for {
		peek, err := g.br.Peek(fastScanBatch)
		if len(peek) == 0 {
			return
		}
		stop := len(peek)
		for i, b := range peek {
			if b == g.cfg.Delimiter || b == '\r' || b == '\n' {
				stop = i
				break
			}
		}
		if stop > 0 {
			g.buf = append(g.buf, peek[:stop]...)
			g.br.Discard(stop)
		}
		if stop < len(peek) || err != nil {
			return
		}
	}
}

func trimASCIISpace(b []byte) []byte {
	start := 0
	for start < len(b) && isASCIISpace(b[start]) {
		start++
	}
	end := len(b)
	for end > start && isASCIISpace(b[end-1]) {
		end--
	}
	return b[start:end]
}

func isASCIISpace(b byte) bool {
	return b == ' ' || b == '\t'
}
