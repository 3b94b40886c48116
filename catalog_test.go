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
	"reflect"
	"strings"
	"testing"
)

// testCatalog is a small catalog used throughout the tests.
func testCatalog(t *testing.T) *Catalog {
	c, err := LoadCatalog(strings.NewReader(`0|No Data|no_data
10|Cropland, rainfed|cropland_rainfed
210|Water bodies|water
`))
	if err != nil {
		t.Fatal(err)
	}
	return c
}

func TestDefaultCatalog(t *testing.T) {
	c := DefaultCatalog()
	if c.Len() != 38 {
		t.Errorf("have %d classes, want 38", c.Len())
	}
	if c.NoDataCode() != 0 {
		t.Errorf("no data code = %d", c.NoDataCode())
	}
	if i := c.IndexOf(220); i != 37 {
		t.Errorf("index of snow and ice = %d, want 37", i)
	}
	if m := c.Class(c.IndexOf(210)).FlagMeaning; m != "water" {
		t.Errorf("flag meaning of 210 = %q", m)
	}
	for i, code := range c.Codes() {
		if c.IndexOf(code) != i {
			t.Errorf("index of code %d = %d, want %d", code, c.IndexOf(code), i)
		}
	}
}

func TestCatalog(t *testing.T) {
	c := testCatalog(t)
	t.Run("IndexOf", func(t *testing.T) {
		for code, want := range map[int]int{0: 0, 10: 1, 210: 2, 999: 0} {
			if have := c.IndexOf(code); have != want {
				t.Errorf("IndexOf(%d) = %d, want %d", code, have, want)
			}
		}
	})
	t.Run("Contains", func(t *testing.T) {
		if !c.Contains(210) || c.Contains(999) {
			t.Error("wrong membership")
		}
	})
	t.Run("CodeOf", func(t *testing.T) {
		code, err := c.CodeOf(2)
		if err != nil {
			t.Fatal(err)
		}
		if code != 210 {
			t.Errorf("CodeOf(2) = %d", code)
		}
		if _, err := c.CodeOf(3); !errors.Is(err, ErrIndexOutOfRange) {
			t.Errorf("CodeOf(3) error = %v", err)
		}
		if _, err := c.CodeOf(-1); !errors.Is(err, ErrIndexOutOfRange) {
			t.Errorf("CodeOf(-1) error = %v", err)
		}
	})
	t.Run("FlagMeanings", func(t *testing.T) {
		want := []string{"no_data", "cropland_rainfed", "water"}
		if have := c.FlagMeanings(); !reflect.DeepEqual(have, want) {
			t.Errorf("%v != %v", have, want)
		}
	})
}

func TestLoadCatalogErrors(t *testing.T) {
	for name, text := range map[string]string{
		"fields":    "0|No Data\n",
		"code":      "x|No Data|no_data\n",
		"duplicate": "0|No Data|no_data\n10|A|a\n10|B|b\n",
		"empty":     "\n\n",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := LoadCatalog(strings.NewReader(text))
			if !errors.Is(err, ErrMalformedCatalog) {
				t.Errorf("error = %v, want %v", err, ErrMalformedCatalog)
			}
		})
	}
}
