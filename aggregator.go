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

import "fmt"

// Observation is one source pixel: its center and a fixed-order vector of
// variable values, e.g. the class code followed by confidence bands.
type Observation struct {
	Lat, Lon float64
	Values   []float64
}

// Kind identifies an aggregation method.
type Kind int

// Available aggregation methods.
const (
	// LandCoverKind calculates class fractions, majority classes and
	// PFT fractions.
	LandCoverKind Kind = iota

	// MedianKind calculates the spatial median of one variable.
	MedianKind

	// MajorityKind calculates the most frequent value of one variable.
	MajorityKind
)

func (k Kind) String() string {
	switch k {
	case LandCoverKind:
		return "landcover"
	case MedianKind:
		return "median"
	case MajorityKind:
		return "majority"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Aggregator reduces the observations that fall within each grid bin to a
// fixed-length feature vector.
type Aggregator interface {
	// Kind returns the aggregation method.
	Kind() Kind

	// OutputNames returns the names of the output features, in output order.
	OutputNames() []string

	// Open starts the aggregation of bin.
	Open(bin int) Accumulator
}

// Accumulator holds the aggregation state of one bin. An Accumulator is
// owned by a single goroutine from Open until Output is called.
type Accumulator interface {
	// Accumulate adds an observation whose footprint overlaps the bin.
	Accumulate(obs Observation)

	// Close finishes the spatial aggregation.
	Close()

	// Output writes the features of the bin into dst, which has the
	// length of OutputNames.
	Output(dst []float64)
}

// InvalidCounter is implemented by accumulators that skip invalid
// observations.
type InvalidCounter interface {
	// Invalid returns the number of skipped observations.
	Invalid() int
}

// Config selects and configures an aggregation method. Only the field
// matching Kind is used.
type Config struct {
	Kind      Kind
	LandCover *LandCoverConfig
	Median    *ReducerConfig
	Majority  *ReducerConfig
}

// ReducerConfig configures a median or majority aggregator.
type ReducerConfig struct {
	// Variable is the index of the reduced variable in Observation.Values.
	Variable int

	// Name is the variable name; output features are named
	// <Name>_median or <Name>_majority.
	Name string
}

// New creates the aggregator described by cfg.
func New(cfg Config) (Aggregator, error) {
	switch cfg.Kind {
	case LandCoverKind:
		if cfg.LandCover == nil {
			return nil, fmt.Errorf("landcover: missing land cover configuration")
		}
		return NewLandCoverAggregator(*cfg.LandCover)
	case MedianKind:
		if cfg.Median == nil {
			return nil, fmt.Errorf("landcover: missing median configuration")
		}
		return newReducer(MedianKind, *cfg.Median)
	case MajorityKind:
		if cfg.Majority == nil {
			return nil, fmt.Errorf("landcover: missing majority configuration")
		}
		return newReducer(MajorityKind, *cfg.Majority)
	default:
		return nil, fmt.Errorf("landcover: unsupported aggregator %v", cfg.Kind)
	}
}
