// Copyright 2025 walteh LLC
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

package commands

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/ctt/cmd/ctt/opts"
	"github.com/walteh/ctt/pkg/config"
	"github.com/walteh/ctt/pkg/log"
	"github.com/walteh/ctt/pkg/operation"
)

// NewCleanCmd creates the clean command
func NewCleanCmd(global *opts.GlobalOpts) *cobra.Command {
	var (
		configFile string
		force      bool
	)

	cmd := &cobra.Command{
		Use:   "clean",
		Short: "Remove the destinations written by batch",
		Long: `Clean removes every destination recorded in the .ctt.lock file of a
project, then the lock file itself. Destinations edited after batch wrote
them are kept unless --force is given.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			l := log.FromContext(ctx)

			cfg, err := config.Load(ctx, configFile)
			if err != nil {
				return err
			}
			st, err := loadState(cmd, cfg)
			if err != nil {
				return err
			}

			res, err := operation.Clean(ctx, st, force)
			if err != nil {
				return errors.Errorf("cleaning: %w", err)
			}

			if !global.Quiet {
				for _, path := range res.Kept {
					fmt.Fprintf(cmd.OutOrStdout(), "%s %s %s\n",
						color.New(color.FgYellow).Sprint("•"),
						path,
						color.New(color.Faint).Sprint("(edited, kept)"))
				}
			}

			l.Successf("Removed %d files, kept %d.", len(res.Removed), len(res.Kept))
			return nil
		},
	}

	cmd.Flags().StringVarP(&configFile, "config", "c", "ctt.yaml", "project file path")
	cmd.Flags().BoolVarP(&force, "force", "f", false, "also remove destinations edited since they were written")

	return cmd
}
