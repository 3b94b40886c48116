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
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/cast"
	"github.com/spf13/viper"
)

var validate = validator.New()

// Config holds the resolved configuration of an aggregation run.
type Config struct {
	InputFile     string `toml:"InputFile" validate:"required"`
	ClassVariable string `toml:"ClassVariable" validate:"required"`
	OutputFile    string `toml:"OutputFile" validate:"required"`

	Grid GridConfig `toml:"Grid"`

	// Region is the envelope minLon, minLat, maxLon, maxLat, or empty for
	// the whole globe.
	Region []float64 `toml:"Region,omitempty" validate:"omitempty,len=4"`

	CatalogFile    string  `toml:"CatalogFile"`
	PFTTable       string  `toml:"PFTTable" validate:"required_if=OutputPFTClasses true,required_with=UserPFTTable"`
	PFTScaleFactor float64 `toml:"PFTScaleFactor" validate:"gt=0"`
	UserPFTTable   string  `toml:"UserPFTTable"`
	AuxMapFile     string  `toml:"AuxMapFile" validate:"required_with=UserPFTTable"`
	AuxMapVariable string  `toml:"AuxMapVariable" validate:"required_with=AuxMapFile"`

	OutputLCCSClasses  bool `toml:"OutputLCCSClasses"`
	OutputUserMapClass bool `toml:"OutputUserMapClass"`
	NumMajorityClasses int  `toml:"NumMajorityClasses" validate:"gte=0"`
	OutputPFTClasses   bool `toml:"OutputPFTClasses"`

	MedianVariables   []string `toml:"MedianVariables"`
	MajorityVariables []string `toml:"MajorityVariables"`

	Workers int `toml:"Workers" validate:"gte=0"`
}

// GridConfig specifies the target grid.
type GridConfig struct {
	Type    string `toml:"Type" validate:"oneof=platecarree gaussian"`
	NumRows int    `toml:"NumRows" validate:"gte=2"`
}

// LoadConfig reads the configuration from cfg. Environment variables in
// file paths are expanded. The configuration is not validated; use
// Config.Validate for that.
func LoadConfig(cfg *viper.Viper) (*Config, error) {
	c := &Config{
		InputFile:     os.ExpandEnv(cfg.GetString("InputFile")),
		ClassVariable: cfg.GetString("ClassVariable"),
		OutputFile:    os.ExpandEnv(cfg.GetString("OutputFile")),
		Grid: GridConfig{
			Type:    strings.ToLower(cfg.GetString("Grid.Type")),
			NumRows: cfg.GetInt("Grid.NumRows"),
		},
		CatalogFile:        os.ExpandEnv(cfg.GetString("CatalogFile")),
		PFTTable:           os.ExpandEnv(cfg.GetString("PFTTable")),
		PFTScaleFactor:     cfg.GetFloat64("PFTScaleFactor"),
		UserPFTTable:       os.ExpandEnv(cfg.GetString("UserPFTTable")),
		AuxMapFile:         os.ExpandEnv(cfg.GetString("AuxMapFile")),
		AuxMapVariable:     cfg.GetString("AuxMapVariable"),
		OutputLCCSClasses:  cfg.GetBool("OutputLCCSClasses"),
		OutputUserMapClass: cfg.GetBool("OutputUserMapClass"),
		NumMajorityClasses: cfg.GetInt("NumMajorityClasses"),
		OutputPFTClasses:   cfg.GetBool("OutputPFTClasses"),
		MedianVariables:    cfg.GetStringSlice("MedianVariables"),
		MajorityVariables:  cfg.GetStringSlice("MajorityVariables"),
		Workers:            cfg.GetInt("Workers"),
	}
	var err error
	c.Region, err = parseRegion(cfg.Get("Region"))
	if err != nil {
		return nil, err
	}
	return c, nil
}

// parseRegion converts a "minLon,minLat,maxLon,maxLat" string or a list of
// four numbers into an envelope.
func parseRegion(v interface{}) ([]float64, error) {
	var items []interface{}
	switch r := v.(type) {
	case nil:
		return nil, nil
	case string:
		if strings.TrimSpace(r) == "" {
			return nil, nil
		}
		for _, s := range strings.Split(r, ",") {
			items = append(items, strings.TrimSpace(s))
		}
	case []string:
		for _, s := range r {
			items = append(items, s)
		}
	default:
		var err error
		if items, err = cast.ToSliceE(v); err != nil {
			return nil, fmt.Errorf("landcover: invalid Region %v: %v", v, err)
		}
	}
	if len(items) != 4 {
		return nil, fmt.Errorf("landcover: Region %v should have 4 values: minLon, minLat, maxLon, maxLat", v)
	}
	o := make([]float64, len(items))
	for i, item := range items {
		f, err := cast.ToFloat64E(item)
		if err != nil {
			return nil, fmt.Errorf("landcover: invalid Region value %v: %v", item, err)
		}
		o[i] = f
	}
	return o, nil
}

// Validate checks that c is complete and consistent.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("landcover: invalid configuration: %w", err)
	}
	if c.OutputUserMapClass && c.AuxMapFile == "" {
		return fmt.Errorf("landcover: invalid configuration: OutputUserMapClass requires AuxMapFile")
	}
	if !c.OutputLCCSClasses && !c.OutputUserMapClass && c.NumMajorityClasses == 0 &&
		!c.OutputPFTClasses && len(c.MedianVariables) == 0 && len(c.MajorityVariables) == 0 {
		return fmt.Errorf("landcover: invalid configuration: no output features selected")
	}
	return nil
}
