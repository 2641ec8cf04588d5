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
	"github.com/walteh/ctt/pkg/operation"
)

// ErrOutOfDate is returned by status --check when a destination needs to be
// written again
var ErrOutOfDate = errors.New("destinations are out of date")

// NewStatusCmd creates the status command
func NewStatusCmd(global *opts.GlobalOpts) *cobra.Command {
	var (
		configFile string
		check      bool
	)

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Check which destinations of a project file are out of date",
		Long: `Status compares every transformation of a project file against the
.ctt.lock file written by batch and reports the destinations a batch run
would write again. Nothing is transformed.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			cfg, err := config.Load(ctx, configFile)
			if err != nil {
				return err
			}
			jobs, err := cfg.Jobs(ctx)
			if err != nil {
				return err
			}
			st, err := loadState(cmd, cfg)
			if err != nil {
				return err
			}

			stale := 0
			out := cmd.OutOrStdout()
			for _, js := range operation.Status(ctx, st, jobs) {
				if js.UpToDate() {
					if global.Verbose {
						fmt.Fprintf(out, "%s %s\n", color.New(color.FgGreen).Sprint("•"), js.Job.Destination)
					}
					continue
				}
				stale++
				if !global.Quiet {
					fmt.Fprintf(out, "%s %s %s\n",
						color.New(color.FgYellow).Sprint("⟳"),
						js.Job.Destination,
						color.New(color.Faint).Sprintf("(%s)", js.Reason))
				}
			}

			if stale == 0 {
				if !global.Quiet {
					fmt.Fprintln(out, "✅ Everything is up to date")
				}
				return nil
			}
			if check {
				return errors.Errorf("%w: %d of %d", ErrOutOfDate, stale, len(jobs))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&configFile, "config", "c", "ctt.yaml", "project file path")
	cmd.Flags().BoolVar(&check, "check", false, "fail when any destination is out of date")

	return cmd
}
