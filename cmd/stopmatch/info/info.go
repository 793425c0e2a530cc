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

package info

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"runtime"

	humanize "github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"m4o.io/stopmatch/cmd/stopmatch/cli"
	"m4o.io/stopmatch/internal/osmgraph"
	"m4o.io/stopmatch/internal/source"
	"m4o.io/stopmatch/model"
)

var out io.Writer = os.Stdout

// summary describes an OSM file as the matcher sees it.
type summary struct {
	Nodes         int64              `json:"nodes"`
	Stations      int64              `json:"stations"`
	StopPositions int64              `json:"stop_positions"`
	WithUICRef    int64              `json:"with_uic_ref"`
	WithName      int64              `json:"with_name"`
	Routes        int64              `json:"routes"`
	Bounds        *model.BoundingBox `json:"bounds,omitempty"`
}

func init() {
	cli.RootCmd.AddCommand(infoCmd)

	flags := infoCmd.Flags()
	flags.BoolP("json", "j", false, "format information in JSON")
	flags.Uint16P("cpu", "c", uint16(runtime.GOMAXPROCS(-1)), "number of CPUs to use for scanning")
}

var infoCmd = &cobra.Command{
	Use:   "info <OSM file>",
	Short: "Print information about an OSM file",
	Long: `Print the number of public transport nodes, stations, stop positions
and route relations of an OSM file (.osm, .xml or .pbf, optionally compressed).`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := args[0]

		format, err := osmgraph.FormatOf(path)
		if err != nil {
			return err
		}

		f, err := os.Open(path)
		if err != nil {
			return err
		}

		wrapped, err := cli.WrapInputFile(f)
		if err != nil {
			_ = f.Close()

			return err
		}

		in, err := source.Wrap(wrapped, source.CompressionOf(path))
		if err != nil {
			_ = wrapped.Close()

			return err
		}
		defer in.Close()

		flags := cmd.Flags()

		ncpu, err := flags.GetUint16("cpu")
		if err != nil {
			return err
		}

		info, err := runInfo(cmd.Context(), in, format, ncpu)
		if err != nil {
			return err
		}

		jsonfmt, err := flags.GetBool("json")
		if err != nil {
			return err
		}

		if jsonfmt {
			return renderJSON(info)
		}

		renderTxt(info)

		return nil
	},
}

func runInfo(ctx context.Context, in io.Reader, format osmgraph.Format, ncpu uint16) (*summary, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	g, err := osmgraph.Decode(ctx, in, format,
		osmgraph.WithNCpus(int(ncpu)),
		osmgraph.WithLogger(slog.Default()))
	if err != nil {
		return nil, err
	}

	info := &summary{
		Nodes:  int64(len(g.Nodes)),
		Routes: int64(g.Routes),
	}

	if !g.Bounds.Empty() {
		info.Bounds = g.Bounds
	}

	for _, n := range g.Nodes {
		if n.IsStation() {
			info.Stations++
		}

		if n.IsStopPosition() {
			info.StopPositions++
		}

		if n.Tags.UICRef != "" {
			info.WithUICRef++
		}

		if n.Tags.Name != "" {
			info.WithName++
		}
	}

	return info, nil
}

func renderJSON(info *summary) error {
	b, err := json.Marshal(info)
	if err != nil {
		return err
	}

	fmt.Fprint(out, string(b))

	return nil
}

func renderTxt(info *summary) {
	if info.Bounds != nil {
		fmt.Fprintf(out, "BoundingBox: %s\n", info.Bounds)
	}
	fmt.Fprintf(out, "Nodes: %s\n", humanize.Comma(info.Nodes))
	fmt.Fprintf(out, "Stations: %s\n", humanize.Comma(info.Stations))
	fmt.Fprintf(out, "StopPositions: %s\n", humanize.Comma(info.StopPositions))
	fmt.Fprintf(out, "WithUICRef: %s\n", humanize.Comma(info.WithUICRef))
	fmt.Fprintf(out, "WithName: %s\n", humanize.Comma(info.WithName))
	fmt.Fprintf(out, "Routes: %s\n", humanize.Comma(info.Routes))
}
