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
	"fmt"
	"runtime"
	"sort"
	"sync"

	"github.com/sirupsen/logrus"
)

// ObservationReader is a source of observations.
type ObservationReader interface {
	// Read calls fn for every observation. The Values of an observation
	// passed to fn must not be modified afterwards.
	Read(fn func(Observation) error) error
}

// BinResult holds the output features of one bin.
type BinResult struct {
	Bin      int
	Features []float64
}

// Binner routes observations to the grid bins their footprints overlap
// and runs the aggregators on each bin. Bins are split among Workers
// goroutines and each bin is processed by exactly one of them.
type Binner struct {
	Grid        Grid
	Area        *AreaCalculator
	Aggregators []Aggregator

	// PixelWidth and PixelHeight are the source pixel size in degrees.
	PixelWidth, PixelHeight float64

	// Region, if not nil, restricts processing to the bins in the region.
	Region *Region

	// Workers is the number of worker goroutines. The default is
	// GOMAXPROCS.
	Workers int

	Log logrus.FieldLogger
}

// OutputNames returns the names of the features of each BinResult.
func (b *Binner) OutputNames() []string {
	var names []string
	for _, a := range b.Aggregators {
		names = append(names, a.OutputNames()...)
	}
	return names
}

type binObservation struct {
	bin int
	obs Observation
}

type binWorker struct {
	in      chan binObservation
	bins    map[int][]Accumulator
	results []BinResult
	invalid map[string]int
}

// Run aggregates the observations from r and returns the results of all
// bins that received at least one observation, sorted by bin index.
func (b *Binner) Run(ctx context.Context, r ObservationReader) ([]BinResult, error) {
	if b.Grid == nil || b.Area == nil {
		return nil, fmt.Errorf("landcover: binner needs a grid and an area calculator")
	}
	if len(b.Aggregators) == 0 {
		return nil, fmt.Errorf("landcover: no aggregators configured")
	}
	log := b.Log
	if log == nil {
		log = logrus.StandardLogger()
	}
	nprocs := b.Workers
	if nprocs <= 0 {
		nprocs = runtime.GOMAXPROCS(0)
	}
	names := b.OutputNames()

	workers := make([]*binWorker, nprocs)
	var wg sync.WaitGroup
	wg.Add(nprocs)
	for p := range workers {
		w := &binWorker{
			in:      make(chan binObservation, 1024),
			bins:    make(map[int][]Accumulator),
			invalid: make(map[string]int),
		}
		workers[p] = w
		go func() {
			w.run(b.Aggregators, len(names))
			wg.Done()
		}()
	}

	var nObs, nRouted int
	readErr := r.Read(func(obs Observation) error {
		nObs++
		if nObs%1000000 == 0 {
			log.WithFields(logrus.Fields{"observations": nObs}).Debug("landcover: reading observations")
		}
		f := Footprint{CenterLon: obs.Lon, CenterLat: obs.Lat,
			HalfWidth: b.PixelWidth / 2, HalfHeight: b.PixelHeight / 2}
		for _, bin := range b.overlappingBins(f) {
			if b.Region != nil && !b.Region.Contains(bin) {
				continue
			}
			select {
			case workers[bin%nprocs].in <- binObservation{bin: bin, obs: obs}:
			case <-ctx.Done():
				return ctx.Err()
			}
			nRouted++
		}
		return nil
	})
	for _, w := range workers {
		close(w.in)
	}
	wg.Wait()
	if readErr != nil {
		return nil, readErr
	}

	var results []BinResult
	invalid := make(map[string]int)
	for _, w := range workers {
		results = append(results, w.results...)
		for k, v := range w.invalid {
			invalid[k] += v
		}
	}
	sort.Slice(results, func(i, j int) bool { return results[i].Bin < results[j].Bin })

	fields := logrus.Fields{
		"observations": nObs,
		"routed":       nRouted,
		"bins":         len(results),
		"workers":      nprocs,
	}
	for k, v := range invalid {
		fields["invalid_"+k] = v
	}
	log.WithFields(fields).Info("landcover: aggregation finished")
	return results, nil
}

// run accumulates the routed observations and finishes every bin once the
// input channel is closed.
func (w *binWorker) run(aggs []Aggregator, numFeatures int) {
	for bo := range w.in {
		accs, ok := w.bins[bo.bin]
		if !ok {
			accs = make([]Accumulator, len(aggs))
			for i, a := range aggs {
				accs[i] = a.Open(bo.bin)
			}
			w.bins[bo.bin] = accs
		}
		for _, acc := range accs {
			acc.Accumulate(bo.obs)
		}
	}
	w.results = make([]BinResult, 0, len(w.bins))
	for bin, accs := range w.bins {
		features := make([]float64, numFeatures)
		j := 0
		for i, acc := range accs {
			acc.Close()
			n := len(aggs[i].OutputNames())
			acc.Output(features[j : j+n])
			j += n
			if c, ok := acc.(InvalidCounter); ok {
				w.invalid[aggs[i].OutputNames()[0]] += c.Invalid()
			}
		}
		w.results = append(w.results, BinResult{Bin: bin, Features: features})
	}
	w.bins = nil
}

// overlappingBins returns the bins that share a positive area with f.
func (b *Binner) overlappingBins(f Footprint) []int {
	g := b.Grid
	fb := f.Bounds()
	top := g.RowIndex(g.BinIndex(min(fb.Max.Y, 90), f.CenterLon))
	bottom := g.RowIndex(g.BinIndex(max(fb.Min.Y, -90), f.CenterLon))
	var bins []int
	for row := max(top-1, 0); row <= min(bottom+1, g.NumRows()-1); row++ {
		lat := g.CenterLat(row)
		ncols := g.NumCols(row)
		first := g.FirstBinIndex(row)
		c0 := g.BinIndex(lat, fb.Min.X) - first
		c1 := g.BinIndex(lat, fb.Max.X) - first
		if c1 < c0 {
			c1 += ncols
		}
		for k := c0 - 1; k <= c1+1 && k-c0 < ncols+1; k++ {
			col := ((k % ncols) + ncols) % ncols
			bin := first + col
			if overlapArea(b.Area.BinRect(bin), fb) > 0 && !containsInt(bins, bin) {
				bins = append(bins, bin)
			}
		}
	}
	return bins
}

func containsInt(s []int, v int) bool {
	for _, x := range s {
		if x == v {
			return true
		}
	}
	return false
}
