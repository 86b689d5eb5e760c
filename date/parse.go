// Copyright (c) 2009 The Go Authors. All rights reserved.
// Copyright (c) 2022 Sneller, Inc.
//
// Redistribution and use in source and binary forms, with or without
// modification, are permitted provided that the following conditions are
// met:
//
//    * Redistributions of source code must retain the above copyright
// notice, this list of conditions and the following disclaimer.
//    * Redistributions in binary form must reproduce the above
// copyright notice, this list of conditions and the following disclaimer
// in the documentation and/or other materials provided with the
// distribution.
//    * Neither the name of Google Inc. nor the names of its
// contributors may be used to endorse or promote products derived from
// this software without specific prior written permission.
//
// THIS SOFTWARE IS PROVIDED BY THE COPYRIGHT HOLDERS AND CONTRIBUTORS
// "AS IS" AND ANY EXPRESS OR IMPLIED WARRANTIES, INCLUDING, BUT NOT
// LIMITED TO, THE IMPLIED WARRANTIES OF MERCHANTABILITY AND FITNESS FOR
// A PARTICULAR PURPOSE ARE DISCLAIMED. IN NO EVENT SHALL THE COPYRIGHT
// OWNER OR CONTRIBUTORS BE LIABLE FOR ANY DIRECT, INDIRECT, INCIDENTAL,
// SPECIAL, EXEMPLARY, OR CONSEQUENTIAL DAMAGES (INCLUDING, BUT NOT
// LIMITED TO, PROCUREMENT OF SUBSTITUTE GOODS OR SERVICES; LOSS OF USE,
// DATA, OR PROFITS; OR BUSINESS INTERRUPTION) HOWEVER CAUSED AND ON ANY
// THEORY OF LIABILITY, WHETHER IN CONTRACT, STRICT LIABILITY, OR TORT
// (INCLUDING NEGLIGENCE OR OTHERWISE) ARISING IN ANY WAY OUT OF THE USE
// OF THIS SOFTWARE, EVEN IF ADVISED OF THE POSSIBILITY OF SUCH DAMAGE.

package date

import "bytes"

func isDigit(b byte) bool { return b >= '0' && b <= '9' }

// readDigits consumes exactly n decimal digits from the front of b,
// returning their value and the unconsumed remainder.
func readDigits(b []byte, n int) (v int, rest []byte, ok bool) {
	if len(b) < n {
		return 0, b, false
	}
	for i := 0; i < n; i++ {
		c := b[i]
		if !isDigit(c) {
			return 0, b, false
		}
		v = v*10 + int(c-'0')
	}
	return v, b[n:], true
}

// fracNanos converts a fractional-seconds digit run (the bytes after
// the '.' in "12:00:00.52Z") into nanoseconds, truncating beyond
// nanosecond precision and zero-padding a short run.
func fracNanos(frac []byte) int {
	if len(frac) > 9 {
		frac = frac[:9]
	}
	v := 0
	for _, c := range frac {
		v = v*10 + int(c-'0')
	}
	for i := len(frac); i < 9; i++ {
		v *= 10
	}
	return v
}

// parseOffset recognizes an RFC3339-ish timestamp: a date, an optional
// 'T'/'t'/' '-separated time with optional fractional seconds, and an
// optional 'Z'/'z' or +HH:MM/-HH:MM (colon optional) offset. Leading
// and trailing ASCII whitespace is ignored. The returned wall-clock
// fields are exactly as written, unadjusted by offsetSec.
func parseOffset(data []byte) (year, month, day, hour, min, sec, ns int, offsetSec int32, hasOffset bool, ok bool) {
	b := bytes.TrimSpace(data)

	year, b, ok = readDigits(b, 4)
	if !ok || len(b) == 0 || b[0] != '-' {
		ok = false
		return
	}
	b = b[1:]
	month, b, ok = readDigits(b, 2)
	if !ok || len(b) == 0 || b[0] != '-' {
		ok = false
		return
	}
	b = b[1:]
	day, b, ok = readDigits(b, 2)
	if !ok {
		return
	}
	if len(b) == 0 {
		ok = true
		return
	}
	if b[0] != 'T' && b[0] != 't' && b[0] != ' ' {
		ok = false
		return
	}
	b = b[1:]
	hour, b, ok = readDigits(b, 2)
	if !ok || len(b) == 0 || b[0] != ':' {
		ok = false
		return
	}
	b = b[1:]
	min, b, ok = readDigits(b, 2)
	if !ok || len(b) == 0 || b[0] != ':' {
		ok = false
		return
	}
	b = b[1:]
	sec, b, ok = readDigits(b, 2)
	if !ok {
		return
	}
	if len(b) > 0 && b[0] == '.' {
		b = b[1:]
		n := 0
		for n < len(b) && isDigit(b[n]) {
			n++
		}
		if n == 0 {
			ok = false
			return
		}
		ns = fracNanos(b[:n])
		b = b[n:]
	}
	b = bytes.TrimSpace(b)
	if len(b) == 0 {
		ok = true
		return
	}
	switch b[0] {
	case 'Z', 'z':
		b = bytes.TrimSpace(b[1:])
		hasOffset = true
	case '+', '-':
		sign := int32(1)
		if b[0] == '-' {
			sign = -1
		}
		b = b[1:]
		var oh, om int
		oh, b, ok = readDigits(b, 2)
		if !ok {
			return
		}
		if len(b) > 0 && b[0] == ':' {
			b = b[1:]
		}
		om, b, ok = readDigits(b, 2)
		if !ok {
			return
		}
		offsetSec = sign * int32(oh*3600+om*60)
		hasOffset = true
		b = bytes.TrimSpace(b)
	default:
		ok = false
		return
	}
	ok = len(b) == 0
	return
}

// parse is the internal entry point time.go's Parse calls: the
// returned fields are the UTC wall-clock equivalent (an explicit
// offset has already been folded into sec before Date's carry/borrow
// normalization sees it).
func parse(data []byte) (year, month, day, hour, min, sec, ns int, ok bool) {
	var off int32
	var has bool
	year, month, day, hour, min, sec, ns, off, has, ok = parseOffset(data)
	if ok && has {
		sec -= int(off)
	}
	return
}

// ParseOffset is like Parse but additionally reports the UTC offset
// the input specified, letting a caller preserve both the normalized
// instant and the literal zone a row was written in (parsers/datetime.go
// uses this to populate typeinfer.DateTimeValue's HasOffset/OffsetSec).
func ParseOffset(data []byte) (t Time, offsetSec int32, hasOffset bool, ok bool) {
	year, month, day, hour, min, sec, ns, off, has, ok := parseOffset(data)
	if !ok {
		return Time{}, 0, false, false
	}
	if has {
		sec -= int(off)
	}
	return Date(year, month, day, hour, min, sec, ns), off, has, true
}

// parseDuration parses a sequence of <digits><unit> components where
// unit is 'y' (year), 'm' (month), or 'd' (day), e.g. "1y6m15d". Digit
// runs are capped per unit (3/4/5 for year/month/day) to keep results
// representable as plain ints elsewhere in the package.
func parseDuration(b []byte) (year, month, day int, ok bool) {
	if len(b) == 0 {
		return 0, 0, 0, false
	}
	any := false
	for len(b) > 0 {
		n := 0
		for n < len(b) && isDigit(b[n]) {
			n++
		}
		if n == 0 || n == len(b) {
			return 0, 0, 0, false
		}
		v := 0
		for _, c := range b[:n] {
			v = v*10 + int(c-'0')
		}
		unit := b[n]
		b = b[n+1:]
		switch unit {
		case 'y':
			if n > 3 {
				return 0, 0, 0, false
			}
			year = v
		case 'm':
			if n > 4 {
				return 0, 0, 0, false
			}
			month = v
		case 'd':
			if n > 5 {
				return 0, 0, 0, false
			}
			day = v
		default:
			return 0, 0, 0, false
		}
		any = true
	}
	return year, month, day, any
}
