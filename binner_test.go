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
	"context"
	"errors"
	"math"
	"sort"
	"testing"
)

// testMapClasses is a 4 x 8 map of 45° pixels, north to south, which
// covers a plate carrée grid with 2 rows.
var testMapClasses = [][]float64{
	{10, 10, 210, 210, 10, 210, 0, 0},
	{10, 10, 210, 210, 10, 210, 0, 0},
	{10, 210, 10, 10, 210, 210, 10, 10},
	{10, 210, 10, 10, 210, 210, 10, 10},
}

var (
	testMapLats = []float64{67.5, 22.5, -22.5, -67.5}
	testMapLons = []float64{-157.5, -112.5, -67.5, -22.5, 22.5, 67.5, 112.5, 157.5}
)

type observations []Observation

func (o observations) Read(fn func(Observation) error) error {
	for _, obs := range o {
		if err := fn(obs); err != nil {
			return err
		}
	}
	return nil
}

// testObservations returns the pixels of the test map. The second value of
// each observation is the pixel number.
func testObservations() observations {
	var o observations
	for i, lat := range testMapLats {
		for j, lon := range testMapLons {
			o = append(o, Observation{Lat: lat, Lon: lon,
				Values: []float64{testMapClasses[i][j], float64(i*len(testMapLons) + j)}})
		}
	}
	return o
}

func testBinner(t *testing.T, workers int) *Binner {
	c := testCatalog(t)
	g := NewPlateCarreeGrid(2)
	area := NewAreaCalculator(g)
	lc, err := New(Config{Kind: LandCoverKind, LandCover: &LandCoverConfig{
		Catalog:            c,
		Area:               area,
		PixelWidth:         45,
		PixelHeight:        45,
		OutputClasses:      true,
		NumMajorityClasses: 1,
	}})
	if err != nil {
		t.Fatal(err)
	}
	med, err := New(Config{Kind: MedianKind, Median: &ReducerConfig{Variable: 1, Name: "pixel"}})
	if err != nil {
		t.Fatal(err)
	}
	return &Binner{
		Grid:        g,
		Area:        area,
		Aggregators: []Aggregator{lc, med},
		PixelWidth:  45,
		PixelHeight: 45,
		Workers:     workers,
	}
}

// sameFeatures compares feature vectors, treating NaN values as equal.
func sameFeatures(a, b []float64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if math.IsNaN(a[i]) && math.IsNaN(b[i]) {
			continue
		}
		if different(a[i], b[i], 1e-9) {
			return false
		}
	}
	return true
}

func TestBinnerRun(t *testing.T) {
	nan := math.NaN()
	want := map[int][]float64{
		// no_data, cropland_rainfed, water, majority_class_1, pixel_median
		0: {nan, 1, nan, 10, 4.5},
		1: {nan, nan, 1, 210, 6.5},
		2: {nan, 0.5, 0.5, 10, 8.5},
		3: {1, nan, nan, 0, 10.5},
		4: {nan, 0.5, 0.5, 10, 20.5},
		5: {nan, 1, nan, 10, 22.5},
		6: {nan, nan, 1, 210, 24.5},
		7: {nan, 1, nan, 10, 26.5},
	}
	for _, workers := range []int{1, 3, 0} {
		b := testBinner(t, workers)
		if names := b.OutputNames(); len(names) != 5 || names[3] != "majority_class_1" || names[4] != "pixel_median" {
			t.Fatalf("output names = %v", names)
		}
		results, err := b.Run(context.Background(), testObservations())
		if err != nil {
			t.Fatal(err)
		}
		if len(results) != len(want) {
			t.Fatalf("workers %d: have %d results, want %d", workers, len(results), len(want))
		}
		if !sort.SliceIsSorted(results, func(i, j int) bool { return results[i].Bin < results[j].Bin }) {
			t.Errorf("workers %d: results are not sorted", workers)
		}
		for _, r := range results {
			if !sameFeatures(r.Features, want[r.Bin]) {
				t.Errorf("workers %d, bin %d: %v != %v", workers, r.Bin, r.Features, want[r.Bin])
			}
		}
	}
}

func TestBinnerRegion(t *testing.T) {
	b := testBinner(t, 2)
	r, err := NewRegion(b.Grid, envelope(-180, -90, 0, 0))
	if err != nil {
		t.Fatal(err)
	}
	b.Region = r
	results, err := b.Run(context.Background(), testObservations())
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 2 || results[0].Bin != 4 || results[1].Bin != 5 {
		t.Errorf("results = %v", results)
	}
}

func TestBinnerErrors(t *testing.T) {
	t.Run("reader", func(t *testing.T) {
		b := testBinner(t, 2)
		readErr := errors.New("read failed")
		_, err := b.Run(context.Background(), readerFunc(func(fn func(Observation) error) error {
			return readErr
		}))
		if err != readErr {
			t.Errorf("error = %v, want %v", err, readErr)
		}
	})
	t.Run("cancel", func(t *testing.T) {
		b := testBinner(t, 1)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		obs := testObservations()
		_, err := b.Run(ctx, readerFunc(func(fn func(Observation) error) error {
			for i := 0; i < 1000000; i++ {
				if err := fn(obs[i%len(obs)]); err != nil {
					return err
				}
			}
			return nil
		}))
		if !errors.Is(err, context.Canceled) {
			t.Errorf("error = %v, want %v", err, context.Canceled)
		}
	})
	t.Run("config", func(t *testing.T) {
		b := testBinner(t, 1)
		b.Aggregators = nil
		if _, err := b.Run(context.Background(), testObservations()); err == nil {
			t.Error("expected an error")
		}
	})
}

type readerFunc func(fn func(Observation) error) error

func (r readerFunc) Read(fn func(Observation) error) error { return r(fn) }

func TestOverlappingBins(t *testing.T) {
	g := NewPlateCarreeGrid(2)
	b := &Binner{Grid: g, Area: NewAreaCalculator(g)}
	for _, test := range []struct {
		f    Footprint
		want []int
	}{
		{f: Footprint{CenterLon: 180, CenterLat: 45, HalfWidth: 0.5, HalfHeight: 0.5}, want: []int{0, 3}},
		{f: Footprint{CenterLon: -90, CenterLat: 0, HalfWidth: 1, HalfHeight: 1}, want: []int{0, 1, 4, 5}},
		{f: Footprint{CenterLon: -135, CenterLat: 45, HalfWidth: 45, HalfHeight: 45}, want: []int{0}},
		{f: Footprint{CenterLon: 10, CenterLat: 89.9, HalfWidth: 0.5, HalfHeight: 0.5}, want: []int{2}},
	} {
		bins := b.overlappingBins(test.f)
		sort.Ints(bins)
		if len(bins) != len(test.want) {
			t.Errorf("%+v: bins %v != %v", test.f, bins, test.want)
			continue
		}
		for i := range bins {
			if bins[i] != test.want[i] {
				t.Errorf("%+v: bins %v != %v", test.f, bins, test.want)
				break
			}
		}
	}
}
