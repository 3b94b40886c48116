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
	"math"
	"reflect"
	"strings"
	"testing"
)

const testTable = `# test table v1
LCCS|Crops|Water|Bare soil
0|||
10|90|10|
210||100|
`

const testOverrideTable = `# irrigated regions
LCCS|user|Crops|Water|Bare soil
10|3|50||50
210|3||100|
`

func testLookupTable(t *testing.T, c *Catalog) *LookupTable {
	table, err := ReadLookupTable(strings.NewReader(testTable), c, 0.01)
	if err != nil {
		t.Fatal(err)
	}
	return table
}

// sameFactors compares factor rows, treating NaN values as equal.
func sameFactors(a, b []float64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if math.IsNaN(a[i]) != math.IsNaN(b[i]) {
			return false
		}
		if !math.IsNaN(a[i]) && different(a[i], b[i], 1e-12) {
			return false
		}
	}
	return true
}

func TestReadLookupTable(t *testing.T) {
	c := testCatalog(t)
	table := testLookupTable(t, c)
	nan := math.NaN()

	if want := []string{"Crops", "Water", "Bare_soil"}; !reflect.DeepEqual(table.PFTNames(), want) {
		t.Errorf("PFT names %v != %v", table.PFTNames(), want)
	}
	if table.Comment != "test table v1" {
		t.Errorf("comment = %q", table.Comment)
	}
	want := [][]float64{{nan, nan, nan}, {0.9, 0.1, nan}, {nan, 1, nan}}
	for i, w := range want {
		if f := table.FactorsFor(i); !sameFactors(f, w) {
			t.Errorf("class %d: %v != %v", i, f, w)
		}
	}
	if table.HasOverrides() {
		t.Error("table should not have overrides")
	}
	// The returned factors are a copy.
	table.FactorsFor(1)[0] = 7
	if table.FactorsFor(1)[0] == 7 {
		t.Error("FactorsFor returned the internal row")
	}
}

func TestReadLookupTableErrors(t *testing.T) {
	c := testCatalog(t)
	for name, text := range map[string]string{
		"row sum":       "LCCS|A|B\n0||\n10|80|10\n210||100\n",
		"missing row":   "LCCS|A|B\n0||\n10|90|10\n",
		"order":         "LCCS|A|B\n0||\n210||100\n10|90|10\n",
		"columns":       "LCCS|A|B\n0||\n10|90|10|0\n210||100\n",
		"value":         "LCCS|A|B\n0||\n10|ninety|10\n210||100\n",
		"no header":     "# only a comment\n",
		"no PFT column": "LCCS\n0\n10\n210\n",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := ReadLookupTable(strings.NewReader(text), c, 0.01)
			if !errors.Is(err, ErrMalformedTable) {
				t.Errorf("error = %v, want %v", err, ErrMalformedTable)
			}
		})
	}
}

func TestReadLookupTableScale(t *testing.T) {
	c := testCatalog(t)
	table, err := ReadLookupTable(strings.NewReader(testTable), c, 1)
	if err != nil {
		t.Fatal(err)
	}
	if f := table.FactorsFor(1); different(f[0], 90, 1e-12) {
		t.Errorf("factor = %g, want 90", f[0])
	}
	if table.ScaleFactor() != 1 {
		t.Errorf("scale factor = %g", table.ScaleFactor())
	}
}

func TestWithOverride(t *testing.T) {
	c := testCatalog(t)
	base := testLookupTable(t, c)
	table, err := base.WithOverride(strings.NewReader(testOverrideTable))
	if err != nil {
		t.Fatal(err)
	}
	nan := math.NaN()

	if !table.HasOverrides() || base.HasOverrides() {
		t.Error("overrides should only be added to the copy")
	}
	if table.OverrideComment != "irrigated regions" {
		t.Errorf("override comment = %q", table.OverrideComment)
	}
	t.Run("match", func(t *testing.T) {
		if f := table.FactorsForUserClass(1, 3); !sameFactors(f, []float64{0.5, nan, 0.5}) {
			t.Errorf("factors = %v", f)
		}
	})
	t.Run("fallback", func(t *testing.T) {
		// No row for this user class, so the base row is used.
		if f := table.FactorsForUserClass(1, 4); !sameFactors(f, base.FactorsFor(1)) {
			t.Errorf("factors = %v", f)
		}
		// No row for this class.
		if f := table.FactorsForUserClass(0, 3); !sameFactors(f, base.FactorsFor(0)) {
			t.Errorf("factors = %v", f)
		}
		// No user class.
		if f := table.factors(1, nan); !sameFactors(f, base.FactorsFor(1)) {
			t.Errorf("factors = %v", f)
		}
	})
	t.Run("base unchanged", func(t *testing.T) {
		if f := table.FactorsFor(1); !sameFactors(f, []float64{0.9, 0.1, nan}) {
			t.Errorf("factors = %v", f)
		}
	})
}

func TestWithOverrideErrors(t *testing.T) {
	c := testCatalog(t)
	base := testLookupTable(t, c)
	for _, test := range []struct {
		name, text string
		err        error
	}{
		{
			name: "duplicate",
			text: "LCCS|user|Crops|Water|Bare soil\n10|3|50||50\n10|3|100||\n",
			err:  ErrDuplicateOverride,
		},
		{
			name: "unknown class",
			text: "LCCS|user|Crops|Water|Bare soil\n999|3|50||50\n",
			err:  ErrUnknownClass,
		},
		{
			name: "PFT names",
			text: "LCCS|user|Crops|Water|Trees\n10|3|50||50\n",
			err:  ErrMalformedTable,
		},
		{
			name: "row sum",
			text: "LCCS|user|Crops|Water|Bare soil\n10|3|50||40\n",
			err:  ErrMalformedTable,
		},
		{
			name: "user class",
			text: "LCCS|user|Crops|Water|Bare soil\n10|x|50||50\n",
			err:  ErrMalformedTable,
		},
	} {
		t.Run(test.name, func(t *testing.T) {
			_, err := base.WithOverride(strings.NewReader(test.text))
			if !errors.Is(err, test.err) {
				t.Errorf("error = %v, want %v", err, test.err)
			}
		})
	}
}

func TestFingerprint(t *testing.T) {
	c := testCatalog(t)
	a := testLookupTable(t, c)
	b := testLookupTable(t, c)
	if a.Fingerprint() != b.Fingerprint() {
		t.Error("equal tables have different fingerprints")
	}
	o, err := a.WithOverride(strings.NewReader(testOverrideTable))
	if err != nil {
		t.Fatal(err)
	}
	if o.Fingerprint() == a.Fingerprint() {
		t.Error("override rows do not change the fingerprint")
	}
}
