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
	"github.com/google/uuid"

	"github.com/SnellerInc/typedcsv/typeinfer"
)

// Column is one column's outcome: its resolved name and the data type
// the typing engine committed it to (spec.md §6, "a sink handle per
// column, type-tagged").
type Column struct {
	Name     string
	DataType typeinfer.DataType
}

// Result is the output object of spec.md §6: numRows, numCols, and
// each column's name and inferred type (the values themselves went to
// the caller's SinkFactory), plus an ID tagging this run the way Sneller
// tags query/tenant IDs for cross-run correlation in logs and metrics.
type Result struct {
	ID      uuid.UUID
	NumRows int
	NumCols int
	Columns []Column
}
