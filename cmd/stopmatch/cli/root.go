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

package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"m4o.io/stopmatch/internal/logging"
)

// RootCmd represents the base command when called without any subcommands.
var RootCmd = &cobra.Command{
	Use:   "stopmatch",
	Short: "Match ATLAS stops with OpenStreetMap nodes",
	Long: `stopmatch pairs the stops of the national stop registry (ATLAS)
with the public transport nodes of an OpenStreetMap extract.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		flags := cmd.Flags()

		level, err := flags.GetString("log-level")
		if err != nil {
			return err
		}

		format, err := flags.GetString("log-format")
		if err != nil {
			return err
		}

		logger, err := logging.New(os.Stderr, level, format)
		if err != nil {
			return err
		}

		slog.SetDefault(logger)

		return nil
	},
}

func init() {
	flags := RootCmd.PersistentFlags()
	flags.String("log-level", "info", "log level (debug, info, warn, error)")
	flags.String("log-format", "text", "log format (text, json)")
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := RootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
