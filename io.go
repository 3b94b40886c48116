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
	"os"
	"sort"

	"github.com/ctessum/cdf"
	"github.com/ctessum/sparse"
)

// NetCDFMap is a land cover map in a NetCDF-3 file with 1-D "lat" and "lon"
// coordinate variables and one or more [lat, lon] data variables. Maps in
// NetCDF-4 format must be converted first, e.g. with
// `nccopy -k classic in.nc out.nc`.
type NetCDFMap struct {
	f         *cdf.File
	lats      []float64
	lons      []float64
	variables []string
	fills     []float64
}

// OpenMapNetCDF opens the map in rw. The variables are read, in order, into
// Observation.Values; typically the first one is the class variable.
func OpenMapNetCDF(rw cdf.ReaderWriterAt, variables ...string) (*NetCDFMap, error) {
	f, err := cdf.Open(rw)
	if err != nil {
		return nil, fmt.Errorf("landcover: opening map: %v", err)
	}
	m := &NetCDFMap{f: f, variables: variables}
	if m.lats, err = readAxis(f, "lat"); err != nil {
		return nil, err
	}
	if m.lons, err = readAxis(f, "lon"); err != nil {
		return nil, err
	}
	if len(variables) == 0 {
		return nil, fmt.Errorf("landcover: no map variables specified")
	}
	m.fills = make([]float64, len(variables))
	for i, v := range variables {
		dims := f.Header.Lengths(v)
		if len(dims) != 2 || dims[0] != len(m.lats) || dims[1] != len(m.lons) {
			return nil, fmt.Errorf("landcover: map variable %s has dimensions %v; it should be [%d %d]",
				v, dims, len(m.lats), len(m.lons))
		}
		m.fills[i] = fillValue(f, v)
	}
	return m, nil
}

// PixelSize returns the pixel width and height in degrees.
func (m *NetCDFMap) PixelSize() (width, height float64) {
	return math.Abs(m.lons[1] - m.lons[0]), math.Abs(m.lats[1] - m.lats[0])
}

// Read calls fn for every pixel of the map, one latitude row at a time.
// Fill values are returned as NaN.
func (m *NetCDFMap) Read(fn func(Observation) error) error {
	nlon := len(m.lons)
	rows := make([][]float64, len(m.variables))
	for i, lat := range m.lats {
		for j, v := range m.variables {
			r := m.f.Reader(v, []int{i, 0}, []int{i, nlon - 1})
			buf := r.Zero(nlon)
			if _, err := r.Read(buf); err != nil {
				return fmt.Errorf("landcover: reading %s row %d: %v", v, i, err)
			}
			rows[j] = toFloat64(buf)
			for k, val := range rows[j] {
				if val == m.fills[j] {
					rows[j][k] = math.NaN()
				}
			}
		}
		for k, lon := range m.lons {
			values := make([]float64, len(rows))
			for j := range rows {
				values[j] = rows[j][k]
			}
			if err := fn(Observation{Lat: lat, Lon: lon, Values: values}); err != nil {
				return err
			}
		}
	}
	return nil
}

// ReadAuxMapNetCDF reads variable from the NetCDF-3 file in rw as an
// additional user map.
func ReadAuxMapNetCDF(rw cdf.ReaderWriterAt, variable string) (*RasterMap, error) {
	f, err := cdf.Open(rw)
	if err != nil {
		return nil, fmt.Errorf("landcover: opening user map: %v", err)
	}
	lats, err := readAxis(f, "lat")
	if err != nil {
		return nil, err
	}
	lons, err := readAxis(f, "lon")
	if err != nil {
		return nil, err
	}
	if dims := f.Header.Lengths(variable); len(dims) != 2 || dims[0] != len(lats) || dims[1] != len(lons) {
		return nil, fmt.Errorf("landcover: user map variable %s has dimensions %v; it should be [%d %d]",
			variable, dims, len(lats), len(lons))
	}
	r := f.Reader(variable, nil, nil)
	buf := r.Zero(len(lats) * len(lons))
	if _, err := r.Read(buf); err != nil {
		return nil, fmt.Errorf("landcover: reading user map variable %s: %v", variable, err)
	}
	data := sparse.ZerosDense(len(lats), len(lons))
	data.Elements = toFloat64(buf)
	return NewRasterMap(lats, lons, data, fillValue(f, variable))
}

func readAxis(f *cdf.File, name string) ([]float64, error) {
	if dims := f.Header.Lengths(name); len(dims) != 1 {
		return nil, fmt.Errorf("landcover: map has no one-dimensional %s variable", name)
	}
	r := f.Reader(name, nil, nil)
	buf := r.Zero(-1)
	if _, err := r.Read(buf); err != nil {
		return nil, fmt.Errorf("landcover: reading %s: %v", name, err)
	}
	axis := toFloat64(buf)
	if len(axis) < 2 {
		return nil, fmt.Errorf("landcover: %s axis needs at least 2 values", name)
	}
	return axis, nil
}

// fillValue returns the _FillValue of v, or NaN if there is none.
func fillValue(f *cdf.File, v string) float64 {
	if fv := toFloat64(f.Header.GetAttribute(v, "_FillValue")); len(fv) > 0 {
		return fv[0]
	}
	return math.NaN()
}

func toFloat64(data interface{}) []float64 {
	switch d := data.(type) {
	case []uint8:
		o := make([]float64, len(d))
		for i, v := range d {
			o[i] = float64(v)
		}
		return o
	case []int16:
		o := make([]float64, len(d))
		for i, v := range d {
			o[i] = float64(v)
		}
		return o
	case []int32:
		o := make([]float64, len(d))
		for i, v := range d {
			o[i] = float64(v)
		}
		return o
	case []float32:
		o := make([]float64, len(d))
		for i, v := range d {
			o[i] = float64(v)
		}
		return o
	case []float64:
		return d
	default:
		return nil
	}
}

// WriteNetCDF writes the bin results to w as one [lat, lon] float32
// variable per output feature. If region is not nil only the bins in the
// region are written. Bins without results are NaN. attrs are added as
// global attributes.
func WriteNetCDF(w *os.File, g Grid, region *Region, names []string, results []BinResult, attrs map[string]string) error {
	rowOffset, colOffset := 0, 0
	nrows, ncols := g.NumRows(), g.NumCols(0)
	if region != nil {
		rowOffset, colOffset = region.RowOffset, region.ColOffset
		nrows, ncols = region.NumRows, region.NumCols
	}
	for row := rowOffset; row < rowOffset+nrows; row++ {
		if g.NumCols(row) != g.NumCols(rowOffset) {
			return fmt.Errorf("landcover: grids with varying row lengths cannot be written to NetCDF")
		}
	}

	lats := sparse.ZerosDense(nrows)
	for i := range lats.Elements {
		lats.Elements[i] = g.CenterLat(rowOffset + i)
	}
	lons := sparse.ZerosDense(ncols)
	first := g.FirstBinIndex(rowOffset)
	for i := range lons.Elements {
		_, lons.Elements[i] = g.CenterLatLon(first + colOffset + i)
	}

	fields := make([]*sparse.DenseArray, len(names))
	for i := range fields {
		fields[i] = sparse.ZerosDense(nrows, ncols)
		for j := range fields[i].Elements {
			fields[i].Elements[j] = math.NaN()
		}
	}
	for _, res := range results {
		var row, col int
		if region != nil {
			if !region.Contains(res.Bin) {
				continue
			}
			row, col = region.RowCol(res.Bin)
		} else {
			row = g.RowIndex(res.Bin)
			col = res.Bin - g.FirstBinIndex(row)
		}
		if len(res.Features) != len(names) {
			return fmt.Errorf("landcover: bin %d has %d features but there are %d output names",
				res.Bin, len(res.Features), len(names))
		}
		for i, v := range res.Features {
			fields[i].Set(v, row, col)
		}
	}

	h := cdf.NewHeader([]string{"lat", "lon"}, []int{nrows, ncols})
	keys := make([]string, 0, len(attrs))
	for k := range attrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		h.AddAttribute("", k, attrs[k])
	}
	h.AddVariable("lat", []string{"lat"}, []float32{0})
	h.AddAttribute("lat", "units", "degrees_north")
	h.AddAttribute("lat", "standard_name", "latitude")
	h.AddVariable("lon", []string{"lon"}, []float32{0})
	h.AddAttribute("lon", "units", "degrees_east")
	h.AddAttribute("lon", "standard_name", "longitude")
	for _, name := range names {
		h.AddVariable(name, []string{"lat", "lon"}, []float32{0})
		h.AddAttribute(name, "_FillValue", []float32{float32(math.NaN())})
	}
	h.Define()

	f, err := cdf.Create(w, h) // writes the header to w
	if err != nil {
		return err
	}
	if err := writeNCF(f, "lat", lats); err != nil {
		return fmt.Errorf("landcover: writing lat to netcdf file: %v", err)
	}
	if err := writeNCF(f, "lon", lons); err != nil {
		return fmt.Errorf("landcover: writing lon to netcdf file: %v", err)
	}
	for i, name := range names {
		if err := writeNCF(f, name, fields[i]); err != nil {
			return fmt.Errorf("landcover: writing variable %s to netcdf file: %v", name, err)
		}
	}
	return cdf.UpdateNumRecs(w)
}

func writeNCF(f *cdf.File, v string, data *sparse.DenseArray) error {
	// Check that data matches dimensions.
	n := 1
	for _, l := range f.Header.Lengths(v) {
		n *= l
	}
	if len(data.Elements) != n {
		return fmt.Errorf("dims are %d but array length is %d", n, len(data.Elements))
	}
	data32 := make([]float32, len(data.Elements))
	for i, e := range data.Elements {
		data32[i] = float32(e)
	}
	end := f.Header.Lengths(v)
	start := make([]int, len(end))
	w := f.Writer(v, start, end)
	_, err := w.Write(data32)
	return err
}
