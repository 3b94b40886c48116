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

	"github.com/ctessum/sparse"
)

// AuxMap is an additional classification sampled at observation locations,
// such as a user supplied map of regions.
type AuxMap interface {
	// ClassAt returns the class at (lat, lon). ok is false if the map has
	// no valid value there.
	ClassAt(lat, lon float64) (class float64, ok bool)
}

// RasterMap is an AuxMap on a regular latitude/longitude raster.
type RasterMap struct {
	lats, lons []float64
	data       *sparse.DenseArray // [lat, lon]
	fill       float64
	descending bool
}

// NewRasterMap creates a raster map from the pixel center coordinates and
// a [len(lats), len(lons)] array of classes. Pixels equal to fill or NaN
// are treated as missing.
func NewRasterMap(lats, lons []float64, data *sparse.DenseArray, fill float64) (*RasterMap, error) {
	if len(lats) < 2 || len(lons) < 2 {
		return nil, fmt.Errorf("landcover: raster map needs at least 2 pixels in each direction")
	}
	if len(data.Shape) != 2 || data.Shape[0] != len(lats) || data.Shape[1] != len(lons) {
		return nil, fmt.Errorf("landcover: raster map data has shape %v but the axes have lengths %d and %d",
			data.Shape, len(lats), len(lons))
	}
	return &RasterMap{
		lats:       lats,
		lons:       lons,
		data:       data,
		fill:       fill,
		descending: lats[0] > lats[len(lats)-1],
	}, nil
}

// ClassAt returns the class of the pixel nearest to (lat, lon).
func (m *RasterMap) ClassAt(lat, lon float64) (float64, bool) {
	i, ok := nearest(m.lats, lat, m.descending)
	if !ok {
		return math.NaN(), false
	}
	j, ok := nearest(m.lons, lon, false)
	if !ok {
		return math.NaN(), false
	}
	v := m.data.Get(i, j)
	if math.IsNaN(v) || v == m.fill {
		return math.NaN(), false
	}
	return v, true
}

// nearest returns the index of the axis value closest to v. ok is false if
// v is more than half a pixel outside the axis.
func nearest(axis []float64, v float64, descending bool) (int, bool) {
	n := len(axis)
	half := math.Abs(axis[1]-axis[0]) / 2
	var i int
	if descending {
		i = sort.Search(n, func(i int) bool { return axis[i] <= v })
	} else {
		i = sort.Search(n, func(i int) bool { return axis[i] >= v })
	}
	if i == n {
		i = n - 1
	} else if i > 0 && math.Abs(axis[i-1]-v) < math.Abs(axis[i]-v) {
		i--
	}
	if math.Abs(axis[i]-v) > half {
		return 0, false
	}
	return i, true
}
