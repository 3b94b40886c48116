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
	"math"
	"sync"

	"github.com/ctessum/geom"
	"github.com/golang/groupcache/lru"
)

// rectCacheSize is the maximum number of bin rectangles held in memory.
const rectCacheSize = 5000

// Footprint is the rectangle covered by one source pixel, in degrees.
type Footprint struct {
	CenterLon, CenterLat  float64
	HalfWidth, HalfHeight float64
}

// Bounds returns the rectangle of f. Max.X may be larger than 180 or Min.X
// smaller than -180 if the pixel straddles the antimeridian.
func (f Footprint) Bounds() *geom.Bounds {
	return &geom.Bounds{
		Min: geom.Point{X: f.CenterLon - f.HalfWidth, Y: f.CenterLat - f.HalfHeight},
		Max: geom.Point{X: f.CenterLon + f.HalfWidth, Y: f.CenterLat + f.HalfHeight},
	}
}

// AreaCalculator calculates the fraction of the area of a grid bin that is
// covered by a source pixel. Bin rectangles are cached in a bounded LRU
// cache; the cache is guarded by a mutex so an AreaCalculator can be shared
// among goroutines.
type AreaCalculator struct {
	grid Grid

	mu    sync.Mutex
	rects *lru.Cache
}

// NewAreaCalculator returns an area calculator for bins of grid g.
func NewAreaCalculator(g Grid) *AreaCalculator {
	return &AreaCalculator{
		grid:  g,
		rects: lru.New(rectCacheSize),
	}
}

// BinRect returns the rectangle of bin. Bins whose center is on the
// antimeridian extend past ±180°.
func (a *AreaCalculator) BinRect(bin int) *geom.Bounds {
	a.mu.Lock()
	if r, ok := a.rects.Get(bin); ok {
		a.mu.Unlock()
		return r.(*geom.Bounds)
	}
	a.mu.Unlock()

	r := binRect(a.grid, bin)

	a.mu.Lock()
	a.rects.Add(bin, r)
	a.mu.Unlock()
	return r
}

func binRect(g Grid, bin int) *geom.Bounds {
	row := g.RowIndex(bin)
	south, north := rowBounds(g, row)
	_, lon := g.CenterLatLon(bin)
	halfWidth := 180 / float64(g.NumCols(row))
	return &geom.Bounds{
		Min: geom.Point{X: lon - halfWidth, Y: south},
		Max: geom.Point{X: lon + halfWidth, Y: north},
	}
}

// FractionCovered returns the fraction of the area of bin that is covered
// by footprint f. The result is in [0, 1].
func (a *AreaCalculator) FractionCovered(f Footprint, bin int) float64 {
	b := a.BinRect(bin)
	binArea := rectArea(b)
	if binArea <= 0 {
		return 0
	}
	return math.Min(1, overlapArea(b, f.Bounds())/binArea)
}

// overlapArea returns the area of the intersection of rectangles a and b
// in square degrees. A rectangle whose Max.X is less than its Min.X crosses
// the antimeridian. Both rectangles are unwrapped so that Min.X < Max.X and
// b is compared in the frames shifted by ±360°, so rectangles that straddle
// the antimeridian intersect the same way as their shifted equivalents.
func overlapArea(a, b *geom.Bounds) float64 {
	a = unwrap(a)
	b = unwrap(b)
	pa := rectPolygon(a)
	var area float64
	for _, shift := range [...]float64{-360, 0, 360} {
		s := &geom.Bounds{
			Min: geom.Point{X: b.Min.X + shift, Y: b.Min.Y},
			Max: geom.Point{X: b.Max.X + shift, Y: b.Max.Y},
		}
		if !a.Overlaps(s) || touching(a, s) {
			continue
		}
		switch {
		case contains(s, a):
			area += pa.Area()
		case contains(a, s):
			area += rectPolygon(s).Area()
		default:
			if isect := pa.Intersection(rectPolygon(s)); isect != nil {
				area += isect.Area()
			}
		}
	}
	return area
}

// rectPolygon returns b as a counter-clockwise polygon.
func rectPolygon(b *geom.Bounds) geom.Polygon {
	return geom.Polygon{{
		{X: b.Min.X, Y: b.Min.Y},
		{X: b.Max.X, Y: b.Min.Y},
		{X: b.Max.X, Y: b.Max.Y},
		{X: b.Min.X, Y: b.Max.Y},
	}}
}

// touching returns whether a and b, which overlap, only share an edge or a
// corner.
func touching(a, b *geom.Bounds) bool {
	return a.Max.X == b.Min.X || b.Max.X == a.Min.X || a.Max.Y == b.Min.Y || b.Max.Y == a.Min.Y
}

// contains returns whether b lies within a, allowing for rounding in the
// edge coordinates.
func contains(a, b *geom.Bounds) bool {
	const tol = 1e-10
	return b.Min.X >= a.Min.X-tol && b.Max.X <= a.Max.X+tol &&
		b.Min.Y >= a.Min.Y-tol && b.Max.Y <= a.Max.Y+tol
}

func unwrap(b *geom.Bounds) *geom.Bounds {
	if b.Max.X >= b.Min.X {
		return b
	}
	o := b.Copy()
	o.Max.X += 360
	return o
}

func rectArea(b *geom.Bounds) float64 {
	return rectPolygon(unwrap(b)).Area()
}
