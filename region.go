/*
Copyright © 2018 the InMAP authors.
This file is part of InMAP.

InMAP is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

InMAP is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with InMAP.  If not, see <http://www.gnu.org/licenses/>.
*/

package landcover

import (
	"fmt"

	"github.com/ctessum/geom"
)

// Region maps a rectangular geographic subregion of a grid onto
// region-local rows and columns. A bin is in the region if its center is
// within the envelope. Region is read-only once created.
type Region struct {
	grid Grid

	RowOffset, ColOffset int
	NumRows, NumCols     int

	// BinIndexOffset and BinIndexMax are the global indices of the
	// north-western and south-eastern bins of the region.
	BinIndexOffset, BinIndexMax int
}

// NewRegion returns the part of g covered by envelope, which is in degrees
// with X as longitude and Y as latitude. Envelopes that cross the
// antimeridian are not supported.
func NewRegion(g Grid, envelope *geom.Bounds) (*Region, error) {
	if envelope == nil || envelope.Empty() ||
		envelope.Min.X < -180 || envelope.Max.X > 180 ||
		envelope.Min.Y < -90 || envelope.Max.Y > 90 {
		return nil, fmt.Errorf("landcover: envelope %v is not within [-180, 180] x [-90, 90]: %w",
			envelope, ErrRegionOutsideGrid)
	}
	firstRow, lastRow := -1, -1
	for row := 0; row < g.NumRows(); row++ {
		lat := g.CenterLat(row)
		if lat > envelope.Max.Y || lat < envelope.Min.Y {
			continue
		}
		if firstRow < 0 {
			firstRow = row
		}
		lastRow = row
	}
	if firstRow < 0 {
		return nil, fmt.Errorf("landcover: no grid row centers between latitudes %g and %g: %w",
			envelope.Min.Y, envelope.Max.Y, ErrRegionOutsideGrid)
	}
	numCols := g.NumCols(firstRow)
	for row := firstRow; row <= lastRow; row++ {
		if g.NumCols(row) != numCols {
			return nil, fmt.Errorf("landcover: rows %d and %d have different numbers of columns: %w",
				firstRow, row, ErrRegionOutsideGrid)
		}
	}
	first := g.FirstBinIndex(firstRow)
	firstCol, lastCol := -1, -1
	for col := 0; col < numCols; col++ {
		_, lon := g.CenterLatLon(first + col)
		if lon > envelope.Max.X || lon < envelope.Min.X {
			continue
		}
		if firstCol < 0 {
			firstCol = col
		}
		lastCol = col
	}
	if firstCol < 0 {
		return nil, fmt.Errorf("landcover: no grid column centers between longitudes %g and %g: %w",
			envelope.Min.X, envelope.Max.X, ErrRegionOutsideGrid)
	}
	return &Region{
		grid:           g,
		RowOffset:      firstRow,
		ColOffset:      firstCol,
		NumRows:        lastRow - firstRow + 1,
		NumCols:        lastCol - firstCol + 1,
		BinIndexOffset: g.FirstBinIndex(firstRow) + firstCol,
		BinIndexMax:    g.FirstBinIndex(lastRow) + lastCol,
	}, nil
}

// Contains returns whether the global bin is in the region.
func (r *Region) Contains(bin int) bool {
	if bin < r.BinIndexOffset || bin > r.BinIndexMax {
		return false
	}
	row, col := r.rowCol(bin)
	return row >= r.RowOffset && row < r.RowOffset+r.NumRows &&
		col >= r.ColOffset && col < r.ColOffset+r.NumCols
}

// RowCol returns the region-local row and column of the global bin. The
// result is only meaningful if Contains(bin) is true.
func (r *Region) RowCol(bin int) (row, col int) {
	row, col = r.rowCol(bin)
	return row - r.RowOffset, col - r.ColOffset
}

func (r *Region) rowCol(bin int) (row, col int) {
	row = r.grid.RowIndex(bin)
	return row, bin - r.grid.FirstBinIndex(row)
}
