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

package override

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"m4o.io/stopmatch/cmd/stopmatch/cli"
	"m4o.io/stopmatch/internal/store"
	"m4o.io/stopmatch/model"
)

var out io.Writer = os.Stdout

func init() {
	cli.RootCmd.AddCommand(overrideCmd)
	overrideCmd.AddCommand(addCmd, listCmd)

	overrideCmd.PersistentFlags().String("db", "stopmatch.db", "SQLite database holding the overrides")
}

var overrideCmd = &cobra.Command{
	Use:   "override",
	Short: "Manage manual stop to node overrides",
}

var addCmd = &cobra.Command{
	Use:   "add <sloid> <OSM node id>",
	Short: "Pin a stop to an OSM node",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.ParseInt(args[1], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid node id %q: %w", args[1], err)
		}

		path, err := cmd.Flags().GetString("db")
		if err != nil {
			return err
		}

		return addOverride(cmd.Context(), path, model.Override{Sloid: args[0], NodeID: model.NodeID(id)})
	},
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List the stored overrides",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		path, err := cmd.Flags().GetString("db")
		if err != nil {
			return err
		}

		return listOverrides(cmd.Context(), path)
	},
}

func addOverride(ctx context.Context, path string, o model.Override) error {
	if ctx == nil {
		ctx = context.Background()
	}

	db, err := store.Open(ctx, path)
	if err != nil {
		return err
	}
	defer db.Close()

	return db.AddOverride(ctx, o)
}

func listOverrides(ctx context.Context, path string) error {
	if ctx == nil {
		ctx = context.Background()
	}

	db, err := store.Open(ctx, path)
	if err != nil {
		return err
	}
	defer db.Close()

	overrides, err := db.Overrides(ctx)
	if err != nil {
		return err
	}

	tw := table.NewWriter()
	tw.SetOutputMirror(out)
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"Sloid", "OSM node"})

	for _, o := range overrides {
		tw.AppendRow(table.Row{o.Sloid, o.NodeID.String()})
	}

	tw.Render()

	return nil
}
