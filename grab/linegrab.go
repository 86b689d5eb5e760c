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

import "io"

// sentinelByte is a byte that can never appear as the leading byte of a
// valid UTF-8 sequence (0xFF is not a legal UTF-8 lead byte), so using
// it as both delimiter and quote turns the delimited grabber into a
// grabber of whole physical rows.
const sentinelByte byte = 0xFF

// NewLineGrabber returns a grabber whose "cells" are whole physical
// rows: the delimited grabber configured with a delimiter and quote
// byte that can never occur in valid UTF-8 text. FixedWidth is built
// on top of this.
func NewLineGrabber(r io.Reader) *Delimited {
	return NewDelimited(r, DelimitedConfig{
		Delimiter:     sentinelByte,
		Quote:         sentinelByte,
		RespectQuotes: false,
	})
}
