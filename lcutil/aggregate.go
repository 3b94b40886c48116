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

package lcutil

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/ctessum/geom"
	"github.com/sirupsen/logrus"
	"github.com/spatialmodel/landcover"
)

// Aggregate aggregates the land cover map specified by cfg and writes the
// result to cfg.OutputFile.
func Aggregate(ctx context.Context, cfg *Config, log logrus.FieldLogger) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	catalog, err := loadCatalog(cfg.CatalogFile)
	if err != nil {
		return err
	}

	variables := append([]string{cfg.ClassVariable}, cfg.MedianVariables...)
	variables = append(variables, cfg.MajorityVariables...)
	in, err := os.Open(cfg.InputFile)
	if err != nil {
		return fmt.Errorf("landcover: opening input map: %v", err)
	}
	defer in.Close()
	m, err := landcover.OpenMapNetCDF(in, variables...)
	if err != nil {
		return err
	}
	pixelWidth, pixelHeight := m.PixelSize()

	g, err := landcover.NewGrid(landcover.GridType(cfg.Grid.Type), cfg.Grid.NumRows)
	if err != nil {
		return err
	}
	area := landcover.NewAreaCalculator(g)

	var region *landcover.Region
	if len(cfg.Region) == 4 {
		region, err = landcover.NewRegion(g, &geom.Bounds{
			Min: geom.Point{X: cfg.Region[0], Y: cfg.Region[1]},
			Max: geom.Point{X: cfg.Region[2], Y: cfg.Region[3]},
		})
		if err != nil {
			return err
		}
	}

	var table *landcover.LookupTable
	if cfg.PFTTable != "" {
		if table, err = loadTable(cfg, catalog); err != nil {
			return err
		}
	}

	var userMap landcover.AuxMap
	if cfg.AuxMapFile != "" {
		f, err := os.Open(cfg.AuxMapFile)
		if err != nil {
			return fmt.Errorf("landcover: opening user map: %v", err)
		}
		rm, err := landcover.ReadAuxMapNetCDF(f, cfg.AuxMapVariable)
		f.Close()
		if err != nil {
			return err
		}
		userMap = rm
	}

	var aggs []landcover.Aggregator
	if cfg.OutputLCCSClasses || cfg.OutputUserMapClass || cfg.NumMajorityClasses > 0 || cfg.OutputPFTClasses {
		a, err := landcover.New(landcover.Config{
			Kind: landcover.LandCoverKind,
			LandCover: &landcover.LandCoverConfig{
				Catalog:            catalog,
				Area:               area,
				ClassVariable:      0,
				PixelWidth:         pixelWidth,
				PixelHeight:        pixelHeight,
				OutputClasses:      cfg.OutputLCCSClasses,
				NumMajorityClasses: cfg.NumMajorityClasses,
				OutputPFTClasses:   cfg.OutputPFTClasses,
				Table:              table,
				UserMap:            userMap,
				OutputUserMapClass: cfg.OutputUserMapClass,
			},
		})
		if err != nil {
			return err
		}
		aggs = append(aggs, a)
	}
	for i, v := range cfg.MedianVariables {
		a, err := landcover.New(landcover.Config{
			Kind:   landcover.MedianKind,
			Median: &landcover.ReducerConfig{Variable: 1 + i, Name: v},
		})
		if err != nil {
			return err
		}
		aggs = append(aggs, a)
	}
	for i, v := range cfg.MajorityVariables {
		a, err := landcover.New(landcover.Config{
			Kind:     landcover.MajorityKind,
			Majority: &landcover.ReducerConfig{Variable: 1 + len(cfg.MedianVariables) + i, Name: v},
		})
		if err != nil {
			return err
		}
		aggs = append(aggs, a)
	}

	b := &landcover.Binner{
		Grid:        g,
		Area:        area,
		Aggregators: aggs,
		PixelWidth:  pixelWidth,
		PixelHeight: pixelHeight,
		Region:      region,
		Workers:     cfg.Workers,
		Log:         log,
	}
	log.WithFields(logrus.Fields{
		"input":    cfg.InputFile,
		"grid":     cfg.Grid.Type,
		"num_rows": cfg.Grid.NumRows,
		"features": len(b.OutputNames()),
	}).Info("landcover: starting aggregation")
	results, err := b.Run(ctx, m)
	if err != nil {
		return err
	}

	attrs := map[string]string{
		"title":          "aggregated land cover",
		"source":         cfg.InputFile,
		"grid_type":      cfg.Grid.Type,
		"landcover_tool": "landcover v" + landcover.Version,
	}
	if table != nil {
		attrs["pft_table"] = cfg.PFTTable
		attrs["pft_table_fingerprint"] = table.Fingerprint()
		if table.Comment != "" {
			attrs["pft_table_comment"] = table.Comment
		}
		if cfg.UserPFTTable != "" {
			attrs["user_pft_table"] = cfg.UserPFTTable
		}
		if table.OverrideComment != "" {
			attrs["user_pft_table_comment"] = table.OverrideComment
		}
	}
	if len(cfg.Region) == 4 {
		attrs["region"] = strings.Trim(fmt.Sprint(cfg.Region), "[]")
	}

	out, err := os.Create(cfg.OutputFile)
	if err != nil {
		return fmt.Errorf("landcover: creating output file: %v", err)
	}
	if err := landcover.WriteNetCDF(out, g, region, b.OutputNames(), results, attrs); err != nil {
		out.Close()
		return err
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("landcover: closing output file: %v", err)
	}
	log.WithFields(logrus.Fields{"output": cfg.OutputFile, "bins": len(results)}).Info("landcover: wrote output")
	return nil
}

func loadCatalog(path string) (*landcover.Catalog, error) {
	if path == "" {
		return landcover.DefaultCatalog(), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("landcover: opening class catalog: %v", err)
	}
	defer f.Close()
	return landcover.LoadCatalog(f)
}

func loadTable(cfg *Config, catalog *landcover.Catalog) (*landcover.LookupTable, error) {
	f, err := os.Open(cfg.PFTTable)
	if err != nil {
		return nil, fmt.Errorf("landcover: opening lookup table: %v", err)
	}
	defer f.Close()
	table, err := landcover.ReadLookupTable(f, catalog, cfg.PFTScaleFactor)
	if err != nil {
		return nil, err
	}
	if cfg.UserPFTTable == "" {
		return table, nil
	}
	uf, err := os.Open(cfg.UserPFTTable)
	if err != nil {
		return nil, fmt.Errorf("landcover: opening user lookup table: %v", err)
	}
	defer uf.Close()
	return table.WithOverride(uf)
}
