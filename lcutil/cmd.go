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

// Package lcutil holds the command-line interface and configuration layer
// of the land cover aggregation tools.
package lcutil

import (
	"fmt"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/sirupsen/logrus"
	"github.com/spatialmodel/landcover"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Cfg holds configuration information.
var Cfg *viper.Viper

var options []struct {
	name, usage, shorthand string
	defaultVal             interface{}
	flagsets               []*pflag.FlagSet
}

func init() {
	// Options are the configuration options available to the aggregator.
	options = []struct {
		name, usage, shorthand string
		defaultVal             interface{}
		flagsets               []*pflag.FlagSet
	}{
		{
			name: "config",
			usage: `
              config specifies the configuration file location.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "verbose",
			usage: `
              verbose turns on informational log messages.`,
			shorthand:  "v",
			defaultVal: false,
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "debug",
			usage: `
              debug turns on debugging log messages.`,
			defaultVal: false,
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "InputFile",
			usage: `
              InputFile is the path to the land cover map in NetCDF-3 format.
              It must have 1-D "lat" and "lon" variables. It can include
              environment variables.`,
			shorthand:  "i",
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{aggregateCmd.Flags(), configCmd.Flags()},
		},
		{
			name: "ClassVariable",
			usage: `
              ClassVariable is the name of the land cover class variable in InputFile.`,
			defaultVal: "lccs_class",
			flagsets:   []*pflag.FlagSet{aggregateCmd.Flags(), configCmd.Flags()},
		},
		{
			name: "OutputFile",
			usage: `
              OutputFile is the path of the NetCDF file to write the aggregated
              features to. It can include environment variables.`,
			shorthand:  "o",
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{aggregateCmd.Flags(), configCmd.Flags()},
		},
		{
			name: "Grid.Type",
			usage: `
              Grid.Type is the target grid geometry: "platecarree" for a regular
              latitude/longitude grid or "gaussian" for a regular gaussian grid.`,
			defaultVal: string(landcover.PlateCarree),
			flagsets:   []*pflag.FlagSet{aggregateCmd.Flags(), configCmd.Flags()},
		},
		{
			name: "Grid.NumRows",
			usage: `
              Grid.NumRows is the number of latitude rows of the target grid.
              Each row has 2*NumRows bins.`,
			defaultVal: 2160,
			flagsets:   []*pflag.FlagSet{aggregateCmd.Flags(), configCmd.Flags()},
		},
		{
			name: "Region",
			usage: `
              Region restricts the output to the bins within the envelope
              "minLon,minLat,maxLon,maxLat" in degrees. If it is empty, the
              whole globe is written.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{aggregateCmd.Flags(), configCmd.Flags()},
		},
		{
			name: "CatalogFile",
			usage: `
              CatalogFile is the path to a pipe-delimited land cover class catalog
              with "code|description|flag meaning" rows. If it is empty, the
              bundled LCCS catalog is used.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{aggregateCmd.Flags(), configCmd.Flags()},
		},
		{
			name: "PFTTable",
			usage: `
              PFTTable is the path to the lookup table that converts land cover
              classes to plant functional types.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{aggregateCmd.Flags(), configCmd.Flags()},
		},
		{
			name: "PFTScaleFactor",
			usage: `
              PFTScaleFactor multiplies the values in the lookup tables. The
              default converts percentages to fractions.`,
			defaultVal: 0.01,
			flagsets:   []*pflag.FlagSet{aggregateCmd.Flags(), configCmd.Flags()},
		},
		{
			name: "UserPFTTable",
			usage: `
              UserPFTTable is the path to a lookup table with rows for
              combinations of a land cover class and a class of the additional
              user map. They replace the PFTTable rows where they match.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{aggregateCmd.Flags(), configCmd.Flags()},
		},
		{
			name: "AuxMapFile",
			usage: `
              AuxMapFile is the path to an additional user map in NetCDF-3 format.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{aggregateCmd.Flags(), configCmd.Flags()},
		},
		{
			name: "AuxMapVariable",
			usage: `
              AuxMapVariable is the name of the class variable in AuxMapFile.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{aggregateCmd.Flags(), configCmd.Flags()},
		},
		{
			name: "OutputLCCSClasses",
			usage: `
              OutputLCCSClasses specifies whether to output the area fraction of
              every land cover class.`,
			defaultVal: true,
			flagsets:   []*pflag.FlagSet{aggregateCmd.Flags(), configCmd.Flags()},
		},
		{
			name: "OutputUserMapClass",
			usage: `
              OutputUserMapClass specifies whether to output the user map class
              sampled in each bin.`,
			defaultVal: false,
			flagsets:   []*pflag.FlagSet{aggregateCmd.Flags(), configCmd.Flags()},
		},
		{
			name: "NumMajorityClasses",
			usage: `
              NumMajorityClasses is the number of majority classes to output,
              ordered by decreasing area.`,
			defaultVal: 1,
			flagsets:   []*pflag.FlagSet{aggregateCmd.Flags(), configCmd.Flags()},
		},
		{
			name: "OutputPFTClasses",
			usage: `
              OutputPFTClasses specifies whether to output plant functional
              type fractions. It requires PFTTable.`,
			defaultVal: false,
			flagsets:   []*pflag.FlagSet{aggregateCmd.Flags(), configCmd.Flags()},
		},
		{
			name: "MedianVariables",
			usage: `
              MedianVariables are variables in InputFile, such as confidence
              levels, to calculate the spatial median of.`,
			defaultVal: []string{},
			flagsets:   []*pflag.FlagSet{aggregateCmd.Flags(), configCmd.Flags()},
		},
		{
			name: "MajorityVariables",
			usage: `
              MajorityVariables are variables in InputFile, such as processing
              flags, to calculate the most frequent value of.`,
			defaultVal: []string{},
			flagsets:   []*pflag.FlagSet{aggregateCmd.Flags(), configCmd.Flags()},
		},
		{
			name: "Workers",
			usage: `
              Workers is the number of bins processed in parallel. The default
              of 0 uses all processors.`,
			defaultVal: 0,
			flagsets:   []*pflag.FlagSet{aggregateCmd.Flags()},
		},
	}

	Cfg = viper.New()

	// Set the prefix for configuration environment variables.
	Cfg.SetEnvPrefix("LANDCOVER")
	Cfg.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	Cfg.AutomaticEnv()

	for _, option := range options {
		for i, set := range option.flagsets {
			if i != 0 { // We don't want to create the same flag twice.
				set.AddFlag(option.flagsets[0].Lookup(option.name))
				continue
			}
			// An empty shorthand registers a long flag only.
			switch v := option.defaultVal.(type) {
			case string:
				set.StringP(option.name, option.shorthand, v, option.usage)
			case []string:
				set.StringSliceP(option.name, option.shorthand, v, option.usage)
			case bool:
				set.BoolP(option.name, option.shorthand, v, option.usage)
			case int:
				set.IntP(option.name, option.shorthand, v, option.usage)
			case float64:
				set.Float64P(option.name, option.shorthand, v, option.usage)
			default:
				panic("invalid argument type")
			}
			Cfg.BindPFlag(option.name, set.Lookup(option.name))
		}
	}
}

func init() {
	// Link the commands together.
	Root.AddCommand(versionCmd)
	Root.AddCommand(aggregateCmd)
	Root.AddCommand(configCmd)
}

// setConfig finds and reads in the configuration file, if there is one,
// and sets the log level.
func setConfig() error {
	if cfgpath := Cfg.GetString("config"); cfgpath != "" {
		Cfg.SetConfigFile(os.ExpandEnv(cfgpath))
		if err := Cfg.ReadInConfig(); err != nil {
			return fmt.Errorf("landcover: problem reading configuration file: %v", err)
		}
	}
	setLogLevel()
	return nil
}

func setLogLevel() {
	switch {
	case Cfg.GetBool("debug"):
		logrus.SetLevel(logrus.DebugLevel)
	case Cfg.GetBool("verbose"):
		logrus.SetLevel(logrus.InfoLevel)
	default:
		logrus.SetLevel(logrus.WarnLevel)
	}
}

// Root is the main command.
var Root = &cobra.Command{
	Use:   "landcover",
	Short: "Aggregate land cover maps to climate model grids.",
	Long: `landcover aggregates fine-resolution land cover classification maps
onto coarser global grids. For each grid bin it calculates the area fraction
of every land cover class, the majority classes, and plant functional type
(PFT) fractions converted with configurable lookup tables.

Configuration can be changed by using a configuration file (and providing the
path to the file using the --config flag), by using command-line arguments,
or by setting environment variables in the format 'LANDCOVER_var' where 'var'
is the name of the variable to be set, with '.' replaced by '_'.
Refer to https://github.com/spf13/viper for additional configuration information.`,
	DisableAutoGenTag: true,
	PersistentPreRunE: func(*cobra.Command, []string) error { return setConfig() },
	SilenceUsage:      true,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Long:  "version prints the version number of this version of the land cover tools.",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Printf("landcover v%s\n", landcover.Version)
	},
	DisableAutoGenTag: true,
}

// aggregateCmd aggregates a land cover map.
var aggregateCmd = &cobra.Command{
	Use:   "aggregate",
	Short: "Aggregate a land cover map",
	Long: `aggregate reads the land cover map in InputFile, aggregates it onto the
grid specified by Grid.Type and Grid.NumRows and writes the output features to
OutputFile.

	Output variables, in order:
	<class flag meaning>: area fraction of each class (OutputLCCSClasses)
	user_map: user map class (OutputUserMapClass)
	majority_class_N: Nth most common class (NumMajorityClasses)
	<PFT name>: plant functional type fractions (OutputPFTClasses)
	<variable>_median: median of each of MedianVariables
	<variable>_majority: most frequent value of each of MajorityVariables`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := LoadConfig(Cfg)
		if err != nil {
			return err
		}
		return Aggregate(cmd.Context(), cfg, logrus.StandardLogger())
	},
	DisableAutoGenTag: true,
}

// configCmd prints the resolved configuration.
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the configuration",
	Long: `config prints the configuration that results from combining the
configuration file, environment variables and command-line arguments, in TOML
format. The output can be used as a configuration file.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := LoadConfig(Cfg)
		if err != nil {
			return err
		}
		return toml.NewEncoder(cmd.OutOrStdout()).Encode(cfg)
	},
	DisableAutoGenTag: true,
}
