/*
Copyright © 2023 the BoARIO-inputs authors.
This file is part of BoARIO-inputs.

BoARIO-inputs is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

BoARIO-inputs is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with BoARIO-inputs.  If not, see <http://www.gnu.org/licenses/>.
*/

// Package mrioutil contains the command line interface preparing the
// inputs of BoARIO simulations and treating their outputs.
package mrioutil

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/lnashier/viper"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spjuhel/BoARIO-inputs/floods"
	"github.com/spjuhel/BoARIO-inputs/indicators"
	"github.com/spjuhel/BoARIO-inputs/lossinterp"
	"github.com/spjuhel/BoARIO-inputs/mrio"
	"github.com/spjuhel/BoARIO-inputs/params"
	"github.com/spjuhel/BoARIO-inputs/summary"
)

// Version is the version of this program.
const Version = "0.3.0"

// Cfg holds configuration information.
var Cfg *viper.Viper

// options are the configuration options available to the commands.
var options []struct {
	name, usage, shorthand string
	defaultVal             interface{}
	flagsets               []*pflag.FlagSet
}

func init() {
	tableCmds := []*pflag.FlagSet{aggregateSectorsCmd.Flags(), aggregateRegionsCmd.Flags(), splitCmd.Flags()}

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
			name: "LogLevel",
			usage: `
              LogLevel is the minimum level of the log messages to print
              (panic, fatal, error, warn, info or debug).`,
			defaultVal: "info",
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "MRIO",
			usage: `
              MRIO is the path to an MRIO table saved by 'mrio build' (.gob or
              .mrio), or to an EXIOBASE3 zip file or directory.`,
			shorthand:  "i",
			defaultVal: "",
			flagsets:   append(tableCmds, paramsRunCmd.Flags()),
		},
		{
			name: "MRIOParams",
			usage: `
              MRIOParams is the path to the JSON parameters of the original MRIO.
              If set, the parameters of the transformed MRIO are written to
              ParamsOutput.`,
			defaultVal: "",
			flagsets:   tableCmds,
		},
		{
			name: "OutputFile",
			usage: `
              OutputFile is the path to the output file. It may be a blob storage
              location such as gs://bucket/mrio.gob or s3://bucket/mrio.gob.`,
			shorthand:  "o",
			defaultVal: "",
			flagsets:   append([]*pflag.FlagSet{buildCmd.Flags(), protectCmd.Flags()}, tableCmds...),
		},
		{
			name: "ParamsOutput",
			usage: `
              ParamsOutput is the path to write the parameters of the transformed
              MRIO to.`,
			defaultVal: "",
			flagsets:   tableCmds,
		},
		{
			name: "FloodBase",
			usage: `
              FloodBase is the path to the flood events catalogue (parquet or csv).`,
			shorthand:  "B",
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{protectCmd.Flags(), interpCmd.Flags()},
		},
		{
			name: "Protection",
			usage: `
              Protection is the path to the shapefile of flood protection levels.
              It is required by 'floods protect' and optional for 'interp'.`,
			shorthand:  "P",
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{protectCmd.Flags(), interpCmd.Flags()},
		},
		{
			name: "ProtectionField",
			usage: `
              ProtectionField is the attribute of the protection shapefile holding
              the protection return period.`,
			defaultVal: floods.DefaultProtectionField,
			flagsets:   []*pflag.FlagSet{protectCmd.Flags(), interpCmd.Flags()},
		},
		{
			name: "OutputDir",
			usage: `
              OutputDir is the directory to write the output tables to.`,
			shorthand:  "o",
			defaultVal: ".",
			flagsets:   []*pflag.FlagSet{collectCmd.Flags(), interpCmd.Flags()},
		},
		{
			name: "InputDir",
			usage: `
              InputDir is the directory holding the interpolation results. The
              summary tables are written there too.`,
			shorthand:  "i",
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{mapsCmd.Flags(), driasCmd.Flags()},
		},
		{
			name: "build.Path",
			usage: `
              build.Path is the path to the MRIO to parse: an EXIOBASE3 zip file,
              an OECD ICIO directory or an EUREGIO directory.`,
			shorthand:  "i",
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{buildCmd.Flags()},
		},
		{
			name: "build.Type",
			usage: `
              build.Type is the type of the MRIO, one of ` + strings.Join(mrio.AllTypes(), ", ") + `.`,
			shorthand:  "t",
			defaultVal: "EXIO3",
			flagsets:   []*pflag.FlagSet{buildCmd.Flags()},
		},
		{
			name: "build.Year",
			usage: `
              build.Year is the year to use when the input holds several years.`,
			shorthand:  "y",
			defaultVal: 0,
			flagsets:   []*pflag.FlagSet{buildCmd.Flags()},
		},
		{
			name: "Aggregator",
			usage: `
              Aggregator is the path to the sector aggregation spreadsheet, with
              the sheets "aggreg_input" and "name_input".`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{aggregateSectorsCmd.Flags()},
		},
		{
			name: "RegionAggregation",
			usage: `
              RegionAggregation is either a region classification to aggregate to
              (e.g. continent, EU27 or OECD) or the path to a .json or .toml file
              giving the aggregate of each region.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{aggregateRegionsCmd.Flags()},
		},
		{
			name: "split.Target",
			usage: `
              split.Target is the region to split and the number of subregions,
              in the form <region>_sliced_in_<n>, e.g. FR_sliced_in_3.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{splitCmd.Flags()},
		},
		{
			name: "split.InternalExchange",
			usage: `
              split.InternalExchange allows subregions to trade with one another.`,
			defaultVal: false,
			flagsets:   []*pflag.FlagSet{splitCmd.Flags()},
		},
		{
			name: "params.Spreadsheet",
			usage: `
              params.Spreadsheet is the path to the sector parameters spreadsheet.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{paramsBuildCmd.Flags()},
		},
		{
			name: "params.MonetaryUnit",
			usage: `
              params.MonetaryUnit is the unit prefix factor of the MRIO, e.g.
              1000000 for EXIOBASE3.`,
			defaultVal: 1000000,
			flagsets:   []*pflag.FlagSet{paramsBuildCmd.Flags()},
		},
		{
			name: "params.MainInventoryDuration",
			usage: `
              params.MainInventoryDuration is the principal inventory duration in days.`,
			defaultVal: 90,
			flagsets:   []*pflag.FlagSet{paramsBuildCmd.Flags()},
		},
		{
			name: "params.MRIOParamsOutput",
			usage: `
              params.MRIOParamsOutput is the path to write the MRIO parameters to.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{paramsBuildCmd.Flags()},
		},
		{
			name: "params.EventsParamsOutput",
			usage: `
              params.EventsParamsOutput is the path the event templates are named
              after: <stem>_rebuilding.json and <stem>_recover.json are written.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{paramsBuildCmd.Flags()},
		},
		{
			name: "run.RunsDir",
			usage: `
              run.RunsDir is the general output directory, holding the parameter
              templates in <RunsDir>/<MRIOName>/<Group>/.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{paramsRunCmd.Flags()},
		},
		{
			name: "run.MRIOName",
			usage: `
              run.MRIOName is the name of the MRIO to run the simulation with.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{paramsRunCmd.Flags()},
		},
		{
			name: "run.Region",
			usage: `
              run.Region is the flooded region.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{paramsRunCmd.Flags()},
		},
		{
			name: "run.Dmg",
			usage: `
              run.Dmg is the damage expressed as a fraction of the region GDP.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{paramsRunCmd.Flags()},
		},
		{
			name: "run.Duration",
			usage: `
              run.Duration is the duration of the flood in days.`,
			defaultVal: 1,
			flagsets:   []*pflag.FlagSet{paramsRunCmd.Flags()},
		},
		{
			name: "run.Group",
			usage: `
              run.Group is the parameters group to simulate with, e.g.
              psi_0_90_order_alt_inv_60_reb_365_evtype_rebuilding.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{paramsRunCmd.Flags()},
		},
		{
			name: "indicators.Folder",
			usage: `
              indicators.Folder is the experiment folder holding the run outputs.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{collectCmd.Flags()},
		},
		{
			name: "indicators.RunType",
			usage: `
              indicators.RunType is the type of runs to gather: raw, int or all.`,
			defaultVal: "int",
			flagsets:   []*pflag.FlagSet{collectCmd.Flags()},
		},
		{
			name: "interp.General",
			usage: `
              interp.General is the path to the general table of the runs.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{interpCmd.Flags()},
		},
		{
			name: "interp.Loss",
			usage: `
              interp.Loss is the path to the loss table of the runs.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{interpCmd.Flags()},
		},
		{
			name: "interp.LossType",
			usage: `
              interp.LossType is the type of loss treated: prod, fd or final.`,
			shorthand:  "T",
			defaultVal: "prod",
			flagsets:   []*pflag.FlagSet{interpCmd.Flags()},
		},
		{
			name: "interp.Representative",
			usage: `
              interp.Representative is the path to the table of the representative
              event of each flood class.`,
			shorthand:  "R",
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{interpCmd.Flags()},
		},
		{
			name: "interp.PeriodName",
			usage: `
              interp.PeriodName is the name of the period the events belong to.`,
			shorthand:  "N",
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{interpCmd.Flags()},
		},
		{
			name: "interp.Period",
			usage: `
              interp.Period, if set, holds the first and last years of the events
              to keep.`,
			defaultVal: []int{},
			flagsets:   []*pflag.FlagSet{interpCmd.Flags()},
		},
		{
			name: "interp.Semesters",
			usage: `
              interp.Semesters separates the losses by semester. A negative value
              sums all semesters, 0 keeps all of them and a positive value keeps
              the semesters up to it.`,
			defaultVal: -1,
			flagsets:   []*pflag.FlagSet{interpCmd.Flags()},
		},
		{
			name: "interp.Psi",
			usage: `
              interp.Psi, if not 0, keeps the runs simulated with this psi value.`,
			defaultVal: 0.0,
			flagsets:   []*pflag.FlagSet{interpCmd.Flags()},
		},
		{
			name: "interp.PlotDir",
			usage: `
              interp.PlotDir, if set, is the directory to plot the fitted curves to.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{interpCmd.Flags()},
		},
		{
			name: "summary.Semester",
			usage: `
              summary.Semester keeps the semesters separate in the tables for maps.`,
			defaultVal: false,
			flagsets:   []*pflag.FlagSet{mapsCmd.Flags()},
		},
	}

	Cfg = viper.New()

	// Set the prefix for configuration environment variables.
	Cfg.SetEnvPrefix("BOARIO")
	Cfg.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	Cfg.AutomaticEnv()

	for _, option := range options {
		for i, set := range option.flagsets {
			if i != 0 { // We don't want to create the same flag twice.
				set.AddFlag(option.flagsets[0].Lookup(option.name))
				continue
			}
			switch v := option.defaultVal.(type) {
			case string:
				set.StringP(option.name, option.shorthand, v, option.usage)
			case bool:
				set.BoolP(option.name, option.shorthand, v, option.usage)
			case int:
				set.IntP(option.name, option.shorthand, v, option.usage)
			case []int:
				set.IntSliceP(option.name, option.shorthand, v, option.usage)
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
	Root.AddCommand(mrioCmd)
	mrioCmd.AddCommand(buildCmd, aggregateSectorsCmd, aggregateRegionsCmd, splitCmd)
	Root.AddCommand(paramsCmd)
	paramsCmd.AddCommand(paramsBuildCmd, paramsRunCmd)
	Root.AddCommand(floodsCmd)
	floodsCmd.AddCommand(protectCmd)
	Root.AddCommand(indicatorsCmd)
	indicatorsCmd.AddCommand(collectCmd)
	Root.AddCommand(interpCmd)
	Root.AddCommand(summaryCmd)
	summaryCmd.AddCommand(mapsCmd, driasCmd)
}

// Root is the main command.
var Root = &cobra.Command{
	Use:   "boario-inputs",
	Short: "Prepare the inputs and treat the outputs of BoARIO simulations.",
	Long: `boario-inputs prepares the MRIO tables and parameters used by the BoARIO
model, collects the indicators of the simulation runs and interpolates their
losses over a catalogue of flood events.

Refer to the subcommand documentation for configuration options and default settings.
Configuration can be changed by using a configuration file (and providing the
path to the file using the --config flag), by using command-line arguments,
or by setting environment variables in the format 'BOARIO_var' where 'var' is the
name of the variable to be set, with dots replaced by underscores.
Input paths may be http(s), gs:// or s3:// URLs and are then downloaded first.`,
	DisableAutoGenTag: true,
	SilenceUsage:      true,
	PersistentPreRunE: func(*cobra.Command, []string) error {
		if err := setConfig(); err != nil {
			return err
		}
		return setLogging(Cfg.GetString("LogLevel"))
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Long:  "version prints the version number of this version of boario-inputs.",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Printf("boario-inputs v%s\n", Version)
	},
	DisableAutoGenTag: true,
}

var mrioCmd = &cobra.Command{
	Use:   "mrio",
	Short: "Build and transform MRIO tables.",
	Long: `mrio parses MRIO tables and aggregates or splits their sectors and regions.
Use the subcommands specified below.`,
	DisableAutoGenTag: true,
}

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Parse and save an MRIO table.",
	Long: `build parses an EXIOBASE3, OECD ICIO or EUREGIO table, computes its
missing components, sorts its labels and saves it to OutputFile.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		if err := required(Cfg, "build.Path", "OutputFile"); err != nil {
			return err
		}
		in, err := inputs(ctx, Cfg, "build.Path")
		if err != nil {
			return err
		}
		var u uploader
		output, err := checkOutputFile(Cfg.GetString("OutputFile"), &u)
		if err != nil {
			return err
		}
		if err := BuildMRIO(in[0], Cfg.GetString("build.Type"), Cfg.GetInt("build.Year"), output); err != nil {
			return err
		}
		return u.upload(ctx)
	},
	DisableAutoGenTag: true,
}

// transformTable runs one of the table transformations, handling the
// downloads and uploads of its inputs and outputs.
func transformTable(f func(mrioPath, mrioParams, output, paramsOutput string) error) error {
	ctx := context.Background()
	if err := required(Cfg, "MRIO", "OutputFile"); err != nil {
		return err
	}
	in, err := inputs(ctx, Cfg, "MRIO", "MRIOParams")
	if err != nil {
		return err
	}
	var u uploader
	output, err := checkOutputFile(Cfg.GetString("OutputFile"), &u)
	if err != nil {
		return err
	}
	paramsOutput, err := checkOutputFile(Cfg.GetString("ParamsOutput"), &u)
	if err != nil {
		return err
	}
	if err := f(in[0], in[1], output, paramsOutput); err != nil {
		return err
	}
	return u.upload(ctx)
}

var aggregateSectorsCmd = &cobra.Command{
	Use:   "aggregate-sectors",
	Short: "Aggregate the sectors of an MRIO table.",
	Long: `aggregate-sectors merges the sectors of an MRIO table as given by the
Aggregator spreadsheet. The capital ratios and inventory durations of
the merged sectors are averaged into the new parameters.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := required(Cfg, "Aggregator"); err != nil {
			return err
		}
		agg, err := inputs(context.Background(), Cfg, "Aggregator")
		if err != nil {
			return err
		}
		return transformTable(func(mrioPath, mrioParams, output, paramsOutput string) error {
			return AggregateSectors(mrioPath, agg[0], mrioParams, output, paramsOutput)
		})
	},
	DisableAutoGenTag: true,
}

var aggregateRegionsCmd = &cobra.Command{
	Use:   "aggregate-regions",
	Short: "Aggregate the regions of an MRIO table.",
	Long: `aggregate-regions merges the regions of an MRIO table, either to a region
classification or as given by an aggregation file. When a region
belongs to several aggregates, the most common one is selected.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := required(Cfg, "RegionAggregation"); err != nil {
			return err
		}
		agg, err := inputs(context.Background(), Cfg, "RegionAggregation")
		if err != nil {
			return err
		}
		return transformTable(func(mrioPath, mrioParams, output, paramsOutput string) error {
			return AggregateRegions(mrioPath, agg[0], mrioParams, output, paramsOutput)
		})
	},
	DisableAutoGenTag: true,
}

var splitCmd = &cobra.Command{
	Use:   "split",
	Short: "Split a region of an MRIO table in subregions.",
	Long: `split replaces a region of an MRIO table by identical subregions, each
holding an equal share of the region's flows.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := required(Cfg, "split.Target"); err != nil {
			return err
		}
		return transformTable(func(mrioPath, mrioParams, output, paramsOutput string) error {
			return SplitMRIO(mrioPath, Cfg.GetString("split.Target"), Cfg.GetBool("split.InternalExchange"),
				mrioParams, output, paramsOutput)
		})
	},
	DisableAutoGenTag: true,
}

var paramsCmd = &cobra.Command{
	Use:               "params",
	Short:             "Build simulation parameters.",
	DisableAutoGenTag: true,
}

var paramsBuildCmd = &cobra.Command{
	Use:   "build",
	Short: "Build MRIO parameters and event templates from a spreadsheet.",
	Long: `build reads the capital ratio, inventory duration, affected and rebuilding
columns of a sector spreadsheet and writes the MRIO parameters and the
rebuilding and recovery event templates.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		if err := required(Cfg, "params.Spreadsheet"); err != nil {
			return err
		}
		in, err := inputs(ctx, Cfg, "params.Spreadsheet")
		if err != nil {
			return err
		}
		var u uploader
		paramsOutput, err := checkOutputFile(Cfg.GetString("params.MRIOParamsOutput"), &u)
		if err != nil {
			return err
		}
		eventsOutput, err := checkOutputFile(Cfg.GetString("params.EventsParamsOutput"), &u)
		if err != nil {
			return err
		}
		if err := BuildParams(in[0], Cfg.GetInt("params.MonetaryUnit"), Cfg.GetInt("params.MainInventoryDuration"),
			paramsOutput, eventsOutput); err != nil {
			return err
		}
		return u.upload(ctx)
	},
	DisableAutoGenTag: true,
}

var paramsRunCmd = &cobra.Command{
	Use:   "run",
	Short: "Prepare the parameters of a simulation run.",
	Long: `run fills the simulation and event templates of a parameters group for
a region, a damage and a flood duration, and writes them to
<RunsDir>/<MRIOName>/<Group>/<Region>/. The damage to capital is the
damage fraction times the region GDP computed from MRIO.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := required(Cfg, "MRIO", "run.RunsDir", "run.MRIOName", "run.Region", "run.Dmg", "run.Group"); err != nil {
			return err
		}
		in, err := inputs(context.Background(), Cfg, "MRIO")
		if err != nil {
			return err
		}
		r, err := params.PrepareRun(params.RunOptions{
			RunsDir:  os.ExpandEnv(Cfg.GetString("run.RunsDir")),
			MRIOName: Cfg.GetString("run.MRIOName"),
			MRIOPath: in[0],
			Group:    Cfg.GetString("run.Group"),
			Region:   Cfg.GetString("run.Region"),
			Dmg:      Cfg.GetString("run.Dmg"),
			Duration: Cfg.GetInt("run.Duration"),
		})
		if err != nil {
			return err
		}
		cmd.Printf("run prepared in %s\n", r.Dir)
		return nil
	},
	DisableAutoGenTag: true,
}

var floodsCmd = &cobra.Command{
	Use:               "floods",
	Short:             "Treat flood event catalogues.",
	DisableAutoGenTag: true,
}

var protectCmd = &cobra.Command{
	Use:   "protect",
	Short: "Add flood protection levels to a flood catalogue.",
	Long: `protect finds the protection level of the location of each event of the
flood catalogue and marks as protected the events whose return period is
below it.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		if err := required(Cfg, "FloodBase", "Protection", "OutputFile"); err != nil {
			return err
		}
		in, err := inputs(ctx, Cfg, "FloodBase", "Protection")
		if err != nil {
			return err
		}
		var u uploader
		output, err := checkOutputFile(Cfg.GetString("OutputFile"), &u)
		if err != nil {
			return err
		}
		if err := Protect(in[0], in[1], Cfg.GetString("ProtectionField"), output); err != nil {
			return err
		}
		return u.upload(ctx)
	},
	DisableAutoGenTag: true,
}

var indicatorsCmd = &cobra.Command{
	Use:               "indicators",
	Short:             "Gather the indicators of simulation runs.",
	DisableAutoGenTag: true,
}

var collectCmd = &cobra.Command{
	Use:   "collect",
	Short: "Gather the indicators of an experiment into csv tables.",
	Long: `collect gathers the general indicators and the production and final
demand losses of the runs of an experiment into the tables
<RunType>_general.csv, <RunType>_prodloss.csv and <RunType>_fdloss.csv.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := required(Cfg, "indicators.Folder"); err != nil {
			return err
		}
		return indicators.Collect(os.ExpandEnv(Cfg.GetString("indicators.Folder")),
			Cfg.GetString("indicators.RunType"), os.ExpandEnv(Cfg.GetString("OutputDir")))
	},
	DisableAutoGenTag: true,
}

var interpCmd = &cobra.Command{
	Use:   "interp",
	Short: "Interpolate the losses of simulated floods over a flood catalogue.",
	Long: `interp fits, for each MRIO, flooded region, sector type and semester, the
losses of the simulated runs as a function of the damage share, and uses
these curves to project the losses of every event of the flood catalogue.
The results are written to OutputDir as <LossType>loss_full_flood_base_results.parquet.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		if err := required(Cfg, "interp.General", "interp.Loss", "FloodBase", "interp.Representative", "interp.PeriodName"); err != nil {
			return err
		}
		in, err := inputs(ctx, Cfg, "interp.General", "interp.Loss", "FloodBase", "interp.Representative", "Protection")
		if err != nil {
			return err
		}
		period, err := toIntSliceE(Cfg.Get("interp.Period"))
		if err != nil {
			return fmt.Errorf("mrioutil: interp.Period: %v", err)
		}
		if len(period) != 0 && len(period) != 2 {
			return fmt.Errorf("mrioutil: interp.Period needs a starting and an ending year, got %v", period)
		}
		_, err = lossinterp.Run(ctx, &lossinterp.Config{
			GeneralPath:        in[0],
			LossPath:           in[1],
			FloodBasePath:      in[2],
			RepresentativePath: in[3],
			ProtectionPath:     in[4],
			ProtectionField:    Cfg.GetString("ProtectionField"),
			LossType:           Cfg.GetString("interp.LossType"),
			PeriodName:         Cfg.GetString("interp.PeriodName"),
			Period:             period,
			Semesters:          Cfg.GetInt("interp.Semesters"),
			Psi:                Cfg.GetFloat64("interp.Psi"),
			PlotDir:            os.ExpandEnv(Cfg.GetString("interp.PlotDir")),
			OutputDir:          os.ExpandEnv(Cfg.GetString("OutputDir")),
		})
		return err
	},
	DisableAutoGenTag: true,
}

var summaryCmd = &cobra.Command{
	Use:               "summary",
	Short:             "Summarize interpolated losses.",
	DisableAutoGenTag: true,
}

var mapsCmd = &cobra.Command{
	Use:   "maps",
	Short: "Build the tables for maps.",
	Long: `maps sums the production and final demand losses of the unprotected
events per region, separating the losses due to local and foreign events,
and writes them to InputDir as df_for_maps.parquet and df_for_maps.csv.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := required(Cfg, "InputDir"); err != nil {
			return err
		}
		_, err := summary.Maps(os.ExpandEnv(Cfg.GetString("InputDir")), Cfg.GetBool("summary.Semester"))
		return err
	},
	DisableAutoGenTag: true,
}

var driasCmd = &cobra.Command{
	Use:   "drias",
	Short: "Build the DRIAS tables.",
	Long: `drias writes, for every results file of InputDir, the losses per flooded
region and output region in long format, per model and averaged over
models.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := required(Cfg, "InputDir"); err != nil {
			return err
		}
		return summary.DriasDir(os.ExpandEnv(Cfg.GetString("InputDir")))
	},
	DisableAutoGenTag: true,
}
