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
)

// reducer is a median or majority aggregator of a single variable, used
// for confidence and flag bands.
type reducer struct {
	kind Kind
	cfg  ReducerConfig
	name string
}

func newReducer(kind Kind, cfg ReducerConfig) (*reducer, error) {
	if cfg.Variable < 0 {
		return nil, fmt.Errorf("landcover: invalid %v variable index %d", kind, cfg.Variable)
	}
	if cfg.Name == "" {
		return nil, fmt.Errorf("landcover: %v aggregator needs a variable name", kind)
	}
	return &reducer{kind: kind, cfg: cfg, name: cfg.Name + "_" + kind.String()}, nil
}

func (r *reducer) Kind() Kind            { return r.kind }
func (r *reducer) OutputNames() []string { return []string{r.name} }

func (r *reducer) Open(int) Accumulator {
	return &reducerAccumulator{r: r, result: math.NaN()}
}

type reducerAccumulator struct {
	r       *reducer
	values  []float64
	invalid int
	result  float64
}

// Accumulate collects the raw value; NaN values are counted as invalid.
func (acc *reducerAccumulator) Accumulate(obs Observation) {
	v := obs.Values[acc.r.cfg.Variable]
	if math.IsNaN(v) {
		acc.invalid++
		return
	}
	acc.values = append(acc.values, v)
}

func (acc *reducerAccumulator) Close() {
	sort.Float64s(acc.values)
	switch acc.r.kind {
	case MedianKind:
		acc.result = median(acc.values)
	case MajorityKind:
		acc.result = majority(acc.values)
	}
	acc.values = nil
}

func (acc *reducerAccumulator) Output(dst []float64) { dst[0] = acc.result }

func (acc *reducerAccumulator) Invalid() int { return acc.invalid }

// median returns the median of the sorted values: the middle element for
// an odd count, the mean of the two middle elements for an even count and
// NaN if there are no values.
func median(sorted []float64) float64 {
	n := len(sorted)
	switch {
	case n == 0:
		return math.NaN()
	case n%2 == 1:
		return sorted[n/2]
	default:
		return (sorted[n/2-1] + sorted[n/2]) / 2
	}
}

// majority returns the most frequent of the sorted values. Ties go to the
// smallest value because a run only replaces the current majority if it is
// strictly longer.
func majority(sorted []float64) float64 {
	if len(sorted) == 0 {
		return math.NaN()
	}
	best, bestRun := sorted[0], 0
	start := 0
	for i := 1; i <= len(sorted); i++ {
		if i < len(sorted) && sorted[i] == sorted[start] {
			continue
		}
		if run := i - start; run > bestRun {
			best, bestRun = sorted[start], run
		}
		start = i
	}
	return best
}
