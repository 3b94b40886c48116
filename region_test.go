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
	"errors"
	"testing"

	"github.com/ctessum/geom"
)

func envelope(minLon, minLat, maxLon, maxLat float64) *geom.Bounds {
	return &geom.Bounds{
		Min: geom.Point{X: minLon, Y: minLat},
		Max: geom.Point{X: maxLon, Y: maxLat},
	}
}

func TestRegion(t *testing.T) {
	g := NewPlateCarreeGrid(18) // 10° bins, 36 columns
	r, err := NewRegion(g, envelope(-10, 0, 30, 40))
	if err != nil {
		t.Fatal(err)
	}
	if r.RowOffset != 5 || r.NumRows != 4 || r.ColOffset != 17 || r.NumCols != 4 {
		t.Errorf("region = %+v", r)
	}
	if r.BinIndexOffset != 5*36+17 || r.BinIndexMax != 8*36+20 {
		t.Errorf("bin indices %d to %d", r.BinIndexOffset, r.BinIndexMax)
	}
	for bin, want := range map[int]bool{
		5*36 + 17: true,
		5*36 + 16: false,
		6*36 + 21: false,
		8*36 + 20: true,
		9*36 + 17: false,
		0:         false,
	} {
		if have := r.Contains(bin); have != want {
			t.Errorf("Contains(%d) = %v, want %v", bin, have, want)
		}
	}
	if row, col := r.RowCol(6*36 + 18); row != 1 || col != 1 {
		t.Errorf("RowCol = (%d, %d), want (1, 1)", row, col)
	}
}

func TestRegionGlobal(t *testing.T) {
	g := NewGaussianGrid(8)
	r, err := NewRegion(g, envelope(-180, -90, 180, 90))
	if err != nil {
		t.Fatal(err)
	}
	if r.NumRows != g.NumRows() || r.NumCols != g.NumCols(0) {
		t.Errorf("region = %+v", r)
	}
	for bin := 0; bin < g.NumBins(); bin++ {
		if !r.Contains(bin) {
			t.Fatalf("bin %d not in global region", bin)
		}
	}
}

func TestRegionOutsideGrid(t *testing.T) {
	g := NewPlateCarreeGrid(18)
	for name, env := range map[string]*geom.Bounds{
		"nil":          nil,
		"longitude":    envelope(-200, 0, 10, 10),
		"latitude":     envelope(0, 0, 10, 95),
		"antimeridian": envelope(170, 0, -170, 10),
		"no rows":      envelope(0, 1, 10, 4),
		"no columns":   envelope(1, 0, 4, 10),
	} {
		t.Run(name, func(t *testing.T) {
			if _, err := NewRegion(g, env); !errors.Is(err, ErrRegionOutsideGrid) {
				t.Errorf("error = %v, want %v", err, ErrRegionOutsideGrid)
			}
		})
	}
}
