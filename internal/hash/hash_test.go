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

package hash

import (
	"math"
	"testing"
)

func TestHash(t *testing.T) {
	type table struct {
		Names []string
		Rows  map[int][]float64
	}
	a := table{Names: []string{"a", "b"}, Rows: map[int][]float64{1: {0.5, math.NaN()}, 2: {1, 0}, 3: {0, 1}}}
	b := table{Names: []string{"a", "b"}, Rows: map[int][]float64{3: {0, 1}, 2: {1, 0}, 1: {0.5, math.NaN()}}}
	if Hash(a) != Hash(b) {
		t.Error("equal objects have different hashes")
	}
	b.Rows[2][0] = 0.9
	if Hash(a) == Hash(b) {
		t.Error("different objects have the same hash")
	}
	if len(Hash(a)) != 32 {
		t.Errorf("hash %q should have 32 hex digits", Hash(a))
	}
}
