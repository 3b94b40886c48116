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
	"testing"

	"github.com/ctessum/sparse"
)

func TestRasterMap(t *testing.T) {
	// 2 x 3 map with 1° pixels, north to south.
	data := sparse.ZerosDense(2, 3)
	data.Elements = []float64{
		1, 2, 3,
		4, -1, math.NaN(),
	}
	m, err := NewRasterMap([]float64{10.5, 9.5}, []float64{0.5, 1.5, 2.5}, data, -1)
	if err != nil {
		t.Fatal(err)
	}
	for _, test := range []struct {
		lat, lon float64
		want     float64
		ok       bool
	}{
		{lat: 10.5, lon: 0.5, want: 1, ok: true},
		{lat: 10.9, lon: 2.9, want: 3, ok: true},
		{lat: 9.2, lon: 0.1, want: 4, ok: true},
		{lat: 9.5, lon: 1.5, ok: false},   // fill value
		{lat: 9.5, lon: 2.5, ok: false},   // NaN
		{lat: 12, lon: 0.5, ok: false},    // north of the map
		{lat: 10.5, lon: -0.6, ok: false}, // west of the map
	} {
		v, ok := m.ClassAt(test.lat, test.lon)
		if ok != test.ok || (ok && v != test.want) {
			t.Errorf("ClassAt(%g, %g) = %g, %v; want %g, %v", test.lat, test.lon, v, ok, test.want, test.ok)
		}
	}
}

func TestRasterMapAscending(t *testing.T) {
	data := sparse.ZerosDense(2, 2)
	data.Elements = []float64{5, 6, 7, 8}
	m, err := NewRasterMap([]float64{-1, 1}, []float64{-1, 1}, data, math.NaN())
	if err != nil {
		t.Fatal(err)
	}
	if v, ok := m.ClassAt(0.5, -0.5); !ok || v != 7 {
		t.Errorf("ClassAt = %g, %v; want 7", v, ok)
	}
}

func TestNewRasterMapErrors(t *testing.T) {
	if _, err := NewRasterMap([]float64{1}, []float64{1, 2}, sparse.ZerosDense(1, 2), 0); err == nil {
		t.Error("expected error for a single row")
	}
	if _, err := NewRasterMap([]float64{1, 2}, []float64{1, 2}, sparse.ZerosDense(2, 3), 0); err == nil {
		t.Error("expected error for mismatched shape")
	}
}
