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
	"strconv"

	"gonum.org/v1/gonum/floats"
)

// LandCoverConfig configures the land cover aggregator.
type LandCoverConfig struct {
	// Catalog is the land cover class catalog.
	Catalog *Catalog

	// Area calculates the fraction of each bin covered by a pixel.
	Area *AreaCalculator

	// ClassVariable is the index of the class code in Observation.Values.
	ClassVariable int

	// PixelWidth and PixelHeight are the source pixel size in degrees.
	PixelWidth, PixelHeight float64

	// OutputClasses specifies whether to output the area fraction of
	// every class.
	OutputClasses bool

	// NumMajorityClasses is the number of majority classes to output.
	NumMajorityClasses int

	// OutputPFTClasses specifies whether to output PFT fractions, which
	// requires Table.
	OutputPFTClasses bool

	// Table converts class fractions into PFT fractions.
	Table *LookupTable

	// UserMap is an optional additional map sampled once per bin. Its
	// class selects override rows of Table.
	UserMap AuxMap

	// OutputUserMapClass specifies whether to output the sampled user
	// map class, which requires UserMap.
	OutputUserMapClass bool
}

// UserMapOutputName is the name of the user map class output feature.
const UserMapOutputName = "user_map"

type landCoverAggregator struct {
	cfg        LandCoverConfig
	numClasses int
	codes      []float64
	names      []string
}

// NewLandCoverAggregator returns an aggregator that calculates area
// weighted class fractions, majority classes and PFT fractions.
func NewLandCoverAggregator(cfg LandCoverConfig) (Aggregator, error) {
	if cfg.Catalog == nil || cfg.Area == nil {
		return nil, fmt.Errorf("landcover: land cover aggregator needs a catalog and an area calculator")
	}
	if !(cfg.PixelWidth > 0) || !(cfg.PixelHeight > 0) {
		return nil, fmt.Errorf("landcover: invalid pixel size %g x %g", cfg.PixelWidth, cfg.PixelHeight)
	}
	if cfg.NumMajorityClasses < 0 {
		return nil, fmt.Errorf("landcover: invalid number of majority classes %d", cfg.NumMajorityClasses)
	}
	if cfg.OutputPFTClasses && cfg.Table == nil {
		return nil, fmt.Errorf("landcover: PFT output requires a lookup table")
	}
	if cfg.OutputUserMapClass && cfg.UserMap == nil {
		return nil, fmt.Errorf("landcover: user map output requires a user map")
	}
	a := &landCoverAggregator{
		cfg:        cfg,
		numClasses: cfg.Catalog.Len(),
		codes:      make([]float64, cfg.Catalog.Len()),
	}
	for i, c := range cfg.Catalog.Codes() {
		a.codes[i] = float64(c)
	}
	if cfg.OutputClasses {
		a.names = append(a.names, cfg.Catalog.FlagMeanings()...)
	}
	if cfg.OutputUserMapClass {
		a.names = append(a.names, UserMapOutputName)
	}
	for i := 1; i <= cfg.NumMajorityClasses; i++ {
		a.names = append(a.names, "majority_class_"+strconv.Itoa(i))
	}
	if cfg.OutputPFTClasses {
		a.names = append(a.names, cfg.Table.PFTNames()...)
	}
	return a, nil
}

func (a *landCoverAggregator) Kind() Kind { return LandCoverKind }

func (a *landCoverAggregator) OutputNames() []string {
	return append([]string(nil), a.names...)
}

func (a *landCoverAggregator) Open(bin int) Accumulator {
	n := a.numClasses
	if a.cfg.UserMap != nil {
		n++
	}
	areas := make([]float64, n)
	for i := range areas {
		areas[i] = math.NaN()
	}
	return &landCoverAccumulator{agg: a, bin: bin, areas: areas}
}

// landCoverAccumulator holds the class areas of one bin. The slot after
// the class slots, if present, holds the user map class.
type landCoverAccumulator struct {
	agg   *landCoverAggregator
	bin   int
	areas []float64
}

func (acc *landCoverAccumulator) Accumulate(obs Observation) {
	cfg := &acc.agg.cfg
	f := Footprint{
		CenterLon:  obs.Lon,
		CenterLat:  obs.Lat,
		HalfWidth:  cfg.PixelWidth / 2,
		HalfHeight: cfg.PixelHeight / 2,
	}
	fraction := cfg.Area.FractionCovered(f, acc.bin)
	if fraction <= 0 {
		return
	}
	i := 0
	if v := obs.Values[cfg.ClassVariable]; !math.IsNaN(v) {
		i = cfg.Catalog.IndexOf(int(v))
	}
	if math.IsNaN(acc.areas[i]) {
		acc.areas[i] = fraction
	} else {
		acc.areas[i] += fraction
	}
	if cfg.UserMap != nil {
		u := acc.agg.numClasses
		if math.IsNaN(acc.areas[u]) {
			if v, ok := cfg.UserMap.ClassAt(obs.Lat, obs.Lon); ok {
				acc.areas[u] = v
			}
		}
	}
}

// Close normalizes the class fractions so they sum to one. The geometry
// guarantees that the true sum is one for a fully covered bin; this
// removes rounding drift and rescales partially covered bins.
func (acc *landCoverAccumulator) Close() {
	classes := acc.areas[:acc.agg.numClasses]
	var sum float64
	for _, v := range classes {
		if !math.IsNaN(v) {
			sum += v
		}
	}
	if sum > 0 && sum != 1 {
		floats.Scale(1/sum, classes)
	}
}

func (acc *landCoverAccumulator) Output(dst []float64) {
	cfg := &acc.agg.cfg
	n := acc.agg.numClasses
	classes := acc.areas[:n]
	userClass := math.NaN()
	if cfg.UserMap != nil {
		userClass = acc.areas[n]
	}

	j := 0
	if cfg.OutputClasses {
		j += copy(dst[j:], classes)
	}
	if cfg.OutputUserMapClass {
		dst[j] = userClass
		j++
	}
	if cfg.NumMajorityClasses > 0 {
		majority := majorityClasses(classes, acc.agg.codes, cfg.NumMajorityClasses)
		j += copy(dst[j:], majority)
	}
	if cfg.OutputPFTClasses {
		pft := dst[j : j+len(cfg.Table.pftNames)]
		convertToPFT(pft, classes, userClass, cfg.Table)
	}
}

// majorityClasses returns the codes of the n classes with the largest
// areas, in order of decreasing area. Classes with equal areas are ordered
// by increasing class code. Slots beyond the number of classes with data
// are NaN.
func majorityClasses(areas, codes []float64, n int) []float64 {
	idx := make([]int, 0, len(areas))
	for i, v := range areas {
		if !math.IsNaN(v) {
			idx = append(idx, i)
		}
	}
	sort.Slice(idx, func(i, j int) bool {
		ai, aj := areas[idx[i]], areas[idx[j]]
		if ai != aj {
			return ai > aj
		}
		return codes[idx[i]] < codes[idx[j]]
	})
	o := make([]float64, n)
	for i := range o {
		if i < len(idx) {
			o[i] = codes[idx[i]]
		} else {
			o[i] = math.NaN()
		}
	}
	return o
}

// convertToPFT sets dst to the PFT fractions of the class fractions in
// areas. PFTs that no class contributes to are NaN.
func convertToPFT(dst, areas []float64, userClass float64, t *LookupTable) {
	for i := range dst {
		dst[i] = math.NaN()
	}
	for class, area := range areas {
		if math.IsNaN(area) {
			continue
		}
		for i, f := range t.factors(class, userClass) {
			if math.IsNaN(f) {
				continue
			}
			if math.IsNaN(dst[i]) {
				dst[i] = 0
			}
			dst[i] += area * f
		}
	}
}
