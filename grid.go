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
	"math"
	"sort"
)

// Grid is a planetary grid of target bins. Rows run from north to south
// and bins are numbered row by row, so that the bins of row r are
// FirstBinIndex(r) ... FirstBinIndex(r)+NumCols(r)-1.
type Grid interface {
	// NumRows returns the number of latitude rows.
	NumRows() int

	// NumCols returns the number of bins in row.
	NumCols(row int) int

	// NumBins returns the total number of bins.
	NumBins() int

	// FirstBinIndex returns the index of the westernmost bin in row.
	FirstBinIndex(row int) int

	// RowIndex returns the row that bin is in.
	RowIndex(bin int) int

	// BinIndex returns the bin containing the point (lat, lon).
	BinIndex(lat, lon float64) int

	// CenterLat returns the latitude of the center of row.
	CenterLat(row int) float64

	// CenterLatLon returns the center of bin.
	CenterLatLon(bin int) (lat, lon float64)
}

// GridType identifies a planetary grid geometry.
type GridType string

// Supported grid geometries.
const (
	PlateCarree     GridType = "platecarree"
	RegularGaussian GridType = "gaussian"
)

// NewGrid creates a grid of the given type with numRows latitude rows.
func NewGrid(t GridType, numRows int) (Grid, error) {
	if numRows < 2 {
		return nil, fmt.Errorf("landcover: grid needs at least 2 rows, got %d", numRows)
	}
	switch t {
	case PlateCarree:
		return NewPlateCarreeGrid(numRows), nil
	case RegularGaussian:
		return NewGaussianGrid(numRows), nil
	default:
		return nil, fmt.Errorf("landcover: unsupported grid type %q", t)
	}
}

// PlateCarreeGrid is a regular latitude/longitude grid with numRows rows of
// 2*numRows square bins. The western edge of column 0 is at -180°.
type PlateCarreeGrid struct {
	numRows, numCols int
	delta            float64
}

// NewPlateCarreeGrid returns a plate carrée grid with numRows rows.
func NewPlateCarreeGrid(numRows int) *PlateCarreeGrid {
	return &PlateCarreeGrid{
		numRows: numRows,
		numCols: 2 * numRows,
		delta:   180 / float64(numRows),
	}
}

func (g *PlateCarreeGrid) NumRows() int              { return g.numRows }
func (g *PlateCarreeGrid) NumCols(int) int           { return g.numCols }
func (g *PlateCarreeGrid) NumBins() int              { return g.numRows * g.numCols }
func (g *PlateCarreeGrid) FirstBinIndex(row int) int { return row * g.numCols }
func (g *PlateCarreeGrid) RowIndex(bin int) int      { return bin / g.numCols }

func (g *PlateCarreeGrid) CenterLat(row int) float64 {
	return 90 - (float64(row)+0.5)*g.delta
}

func (g *PlateCarreeGrid) CenterLatLon(bin int) (lat, lon float64) {
	row := bin / g.numCols
	col := bin % g.numCols
	return g.CenterLat(row), -180 + (float64(col)+0.5)*g.delta
}

func (g *PlateCarreeGrid) BinIndex(lat, lon float64) int {
	row := clamp(int(math.Floor((90-lat)/g.delta)), 0, g.numRows-1)
	col := clamp(int(math.Floor((normalizeLon(lon)+180)/g.delta)), 0, g.numCols-1)
	return row*g.numCols + col
}

// GaussianGrid is a regular gaussian grid: numRows rows at the gaussian
// latitudes, each with 2*numRows bins. Bin centers of column 0 are on the
// antimeridian.
type GaussianGrid struct {
	numCols int
	lats    []float64
	delta   float64
}

// NewGaussianGrid returns a regular gaussian grid with numRows rows.
func NewGaussianGrid(numRows int) *GaussianGrid {
	return &GaussianGrid{
		numCols: 2 * numRows,
		lats:    gaussianLatitudes(numRows),
		delta:   180 / float64(numRows),
	}
}

func (g *GaussianGrid) NumRows() int              { return len(g.lats) }
func (g *GaussianGrid) NumCols(int) int           { return g.numCols }
func (g *GaussianGrid) NumBins() int              { return len(g.lats) * g.numCols }
func (g *GaussianGrid) FirstBinIndex(row int) int { return row * g.numCols }
func (g *GaussianGrid) RowIndex(bin int) int      { return bin / g.numCols }
func (g *GaussianGrid) CenterLat(row int) float64 { return g.lats[row] }

func (g *GaussianGrid) CenterLatLon(bin int) (lat, lon float64) {
	row := bin / g.numCols
	col := bin % g.numCols
	return g.lats[row], normalizeLon(-180 + float64(col)*g.delta)
}

func (g *GaussianGrid) BinIndex(lat, lon float64) int {
	// Rows are sorted by decreasing latitude.
	n := len(g.lats)
	i := sort.Search(n, func(i int) bool { return g.lats[i] <= lat })
	row := i
	switch {
	case i == n:
		row = n - 1
	case i > 0 && g.lats[i-1]-lat < lat-g.lats[i]:
		row = i - 1
	}
	col := int(math.Floor((normalizeLon(lon)+180)/g.delta+0.5)) % g.numCols
	return row*g.numCols + col
}

// gaussianLatitudes returns the n gaussian latitudes in degrees, north to
// south. They are the arcsines of the roots of the Legendre polynomial of
// degree n, found by Newton iteration.
func gaussianLatitudes(n int) []float64 {
	lats := make([]float64, n)
	for i := 0; i < (n+1)/2; i++ {
		z := math.Cos(math.Pi * (float64(i) + 0.75) / (float64(n) + 0.5))
		for iter := 0; iter < 100; iter++ {
			p1, p2 := 1.0, 0.0
			for j := 1; j <= n; j++ {
				p3 := p2
				p2 = p1
				p1 = (float64(2*j-1)*z*p2 - float64(j-1)*p3) / float64(j)
			}
			pp := float64(n) * (z*p1 - p2) / (z*z - 1)
			z1 := z
			z = z1 - p1/pp
			if math.Abs(z-z1) < 1e-15 {
				break
			}
		}
		lat := math.Asin(z) * 180 / math.Pi
		lats[i] = lat
		lats[n-1-i] = -lat
	}
	return lats
}

// rowBounds returns the southern and northern edges of row. Edges are half
// way between adjacent row centers; the first row extends to 90° and the
// last row to -90°.
func rowBounds(g Grid, row int) (south, north float64) {
	north, south = 90, -90
	lat := g.CenterLat(row)
	if row > 0 {
		north = (g.CenterLat(row-1) + lat) / 2
	}
	if row < g.NumRows()-1 {
		south = (lat + g.CenterLat(row+1)) / 2
	}
	return south, north
}

// normalizeLon maps lon into [-180, 180).
func normalizeLon(lon float64) float64 {
	if lon >= -180 && lon < 180 {
		return lon
	}
	lon = math.Mod(lon+180, 360)
	if lon < 0 {
		lon += 360
	}
	return lon - 180
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
