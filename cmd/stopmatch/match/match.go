// Copyright 2025 the original author or authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package match

import (
	"cmp"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"

	humanize "github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"m4o.io/stopmatch"
	"m4o.io/stopmatch/cmd/stopmatch/cli"
	"m4o.io/stopmatch/internal/config"
	"m4o.io/stopmatch/internal/logging"
	"m4o.io/stopmatch/internal/store"
	"m4o.io/stopmatch/model"
)

var out io.Writer = os.Stdout

// ErrInvalidResult is returned when a result breaks the matching invariants.
var ErrInvalidResult = errors.New("result failed validation")

type inputFlags struct {
	atlas, osm, gtfs, hrdf, osmRoutes, operators string
}

var inputs inputFlags

func init() {
	cli.RootCmd.AddCommand(matchCmd)

	flags := matchCmd.Flags()
	flags.String("config", "", "YAML configuration file")

	flags.Var(cli.NewPathValue("", &inputs.atlas, "csv"), "atlas", "ATLAS stops CSV")
	flags.Var(cli.NewPathValue("", &inputs.osm, "osm"), "osm", "OSM extract (.osm, .xml or .pbf)")
	flags.Var(cli.NewPathValue("", &inputs.gtfs, "csv"), "gtfs", "GTFS route table CSV")
	flags.Var(cli.NewPathValue("", &inputs.hrdf, "csv"), "hrdf", "HRDF route table CSV")
	flags.Var(cli.NewPathValue("", &inputs.osmRoutes, "csv"), "osm-routes", "OSM route table CSV")
	flags.Var(cli.NewPathValue("", &inputs.operators, "yaml"), "operators", "operator alias YAML")

	flags.StringP("output", "o", "", "write the result as JSON to this file")
	flags.String("db", "", "SQLite database holding manual overrides and results")

	flags.Float64("max-distance", 0, "maximum match distance in meters")
	flags.Float64("isolation-radius", 0, "isolation radius in meters")
	flags.Float64("route-max-distance", 0, "maximum route match distance in meters")
	flags.Float64("tie-break-min-second", 0, "minimum second-nearest distance in meters")
	flags.Float64("tie-break-ratio", 0, "minimum second-to-nearest distance ratio")
	flags.IntP("workers", "w", 0, "number of parallel spatial query workers")
}

var matchCmd = &cobra.Command{
	Use:   "match",
	Short: "Match ATLAS stops with OSM nodes",
	Long: `Run the matching pipeline over an ATLAS stop export and an OSM extract
and report the matches, the unmatched stops and the unmatched nodes.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		flags := cmd.Flags()

		cfg, err := loadConfig(flags)
		if err != nil {
			return err
		}

		logger := slog.Default()
		if !flags.Changed("log-level") && !flags.Changed("log-format") {
			if logger, err = logging.New(os.Stderr, cfg.Logging.Level, cfg.Logging.Format); err != nil {
				return err
			}
		}

		res, err := runMatch(cmd.Context(), cfg, logger)
		if err != nil {
			return err
		}

		renderSummary(res.Stats())

		return nil
	},
}

// loadConfig reads the configuration file, if any, and applies the flags the
// user set on top of it.
func loadConfig(flags *pflag.FlagSet) (*config.Config, error) {
	path, err := flags.GetString("config")
	if err != nil {
		return nil, err
	}

	cfg := config.Default()
	if path != "" {
		if cfg, err = config.Load(path); err != nil {
			return nil, err
		}
	}

	strs := []struct {
		flag string
		dst  *string
		src  string
	}{
		{"atlas", &cfg.Inputs.Atlas, inputs.atlas},
		{"osm", &cfg.Inputs.OSM, inputs.osm},
		{"gtfs", &cfg.Inputs.GTFS, inputs.gtfs},
		{"hrdf", &cfg.Inputs.HRDF, inputs.hrdf},
		{"osm-routes", &cfg.Inputs.OSMRoutes, inputs.osmRoutes},
		{"operators", &cfg.Inputs.Operators, inputs.operators},
	}
	for _, s := range strs {
		if flags.Changed(s.flag) {
			*s.dst = s.src
		}
	}

	for flag, dst := range map[string]*string{
		"output":     &cfg.Output.JSON,
		"db":         &cfg.Output.SQLite,
		"log-level":  &cfg.Logging.Level,
		"log-format": &cfg.Logging.Format,
	} {
		if flags.Lookup(flag) == nil || !flags.Changed(flag) {
			continue
		}

		if *dst, err = flags.GetString(flag); err != nil {
			return nil, err
		}
	}

	for flag, dst := range map[string]*float64{
		"max-distance":         &cfg.Matching.MaxDistance,
		"isolation-radius":     &cfg.Matching.IsolationRadius,
		"route-max-distance":   &cfg.Matching.RouteMaxDistance,
		"tie-break-min-second": &cfg.Matching.TieBreakMinSecond,
		"tie-break-ratio":      &cfg.Matching.TieBreakRatio,
	} {
		if !flags.Changed(flag) {
			continue
		}

		if *dst, err = flags.GetFloat64(flag); err != nil {
			return nil, err
		}
	}

	if flags.Changed("workers") {
		if cfg.Matching.Workers, err = flags.GetInt("workers"); err != nil {
			return nil, err
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// runMatch runs the pipeline described by cfg and writes the configured
// outputs.
func runMatch(ctx context.Context, cfg *config.Config, logger *slog.Logger) (res *stopmatch.Result, err error) {
	if ctx == nil {
		ctx = context.Background()
	}

	p := cfg.Params()
	opts := []stopmatch.Option{
		stopmatch.WithLogger(logger),
		stopmatch.WithMaxDistance(p.MaxDistance),
		stopmatch.WithIsolationRadius(p.IsolationRadius),
		stopmatch.WithRouteMaxDistance(p.RouteMaxDistance),
		stopmatch.WithTieBreak(p.TieBreakMinSecond, p.TieBreakRatio),
		stopmatch.WithWorkers(p.Workers),
	}

	var db *store.Store
	if cfg.Output.SQLite != "" {
		if db, err = store.Open(ctx, cfg.Output.SQLite); err != nil {
			return nil, err
		}
		defer func() {
			err = errors.Join(err, db.Close())
		}()

		overrides, err := db.Overrides(ctx)
		if err != nil {
			return nil, err
		}

		opts = append(opts, stopmatch.WithOverrides(overrides))
	}

	res, err = stopmatch.Run(ctx, stopmatch.Inputs{
		Atlas:     cfg.Inputs.Atlas,
		OSM:       cfg.Inputs.OSM,
		GTFS:      cfg.Inputs.GTFS,
		HRDF:      cfg.Inputs.HRDF,
		OSMRoutes: cfg.Inputs.OSMRoutes,
		Operators: cfg.Inputs.Operators,
	}, opts...)
	if err != nil {
		return nil, err
	}

	if err := res.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidResult, err)
	}

	if cfg.Output.JSON != "" {
		if err := writeJSON(cfg.Output.JSON, res); err != nil {
			return nil, err
		}
	}

	if db != nil {
		if err := db.SaveResult(ctx, res); err != nil {
			return nil, err
		}
	}

	return res, nil
}

func writeJSON(path string, res *stopmatch.Result) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer func() {
		err = errors.Join(err, f.Close())
	}()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")

	return enc.Encode(res)
}

func renderSummary(st stopmatch.Stats) {
	tw := table.NewWriter()
	tw.SetOutputMirror(out)
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"Method", "Match type", "Records"})

	types := st.Types()
	slices.SortStableFunc(types, func(a, b model.MatchType) int {
		return cmp.Compare(a.Method(), b.Method())
	})

	for _, t := range types {
		tw.AppendRow(table.Row{t.Method(), string(t), humanize.Comma(int64(st.ByType[t]))})
	}

	tw.AppendSeparator()
	tw.AppendRows([]table.Row{
		{"stops", "matched", fmt.Sprintf("%s / %s", humanize.Comma(int64(st.Matched)), humanize.Comma(int64(st.Stops)))},
		{"stops", "unmatched", humanize.Comma(int64(st.Unmatched))},
		{"stops", "no nearby counterpart", humanize.Comma(int64(st.NoNearby))},
		{"stops", "invalid rows", humanize.Comma(int64(st.Invalid))},
		{"nodes", "matched", fmt.Sprintf("%s / %s", humanize.Comma(int64(st.MatchedNodes)), humanize.Comma(int64(st.Nodes)))},
		{"nodes", "isolated", humanize.Comma(int64(st.IsolatedNodes))},
	})

	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignLeft, AutoMerge: true},
		{Number: 2, Align: text.AlignLeft},
		{Number: 3, Align: text.AlignRight, AlignHeader: text.AlignLeft},
	})

	tw.Render()
}
