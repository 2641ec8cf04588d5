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
	"path/filepath"

	"github.com/spf13/cobra"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/ctt/pkg/config"
	"github.com/walteh/ctt/pkg/log"
	"github.com/walteh/ctt/pkg/operation"
	"github.com/walteh/ctt/pkg/state"
)

// NewBatchCmd creates the batch command
func NewBatchCmd() *cobra.Command {
	var (
		configFile string
		parallel   int
		force      bool
		noLock     bool
	)

	cmd := &cobra.Command{
		Use:   "batch",
		Short: "Run every transformation listed in a project file",
		Long: `Batch loads a project file (YAML, HCL or JSON) listing transformations
and runs them. A source may be a glob such as configs/**/*.config, in which
case the destination is a directory and each match keeps its relative path.

Every destination written is recorded in a .ctt.lock file next to the
project file. Later runs skip transformations whose source, transform,
parameters and settings are unchanged and whose destination was not edited.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			l := log.FromContext(ctx)

			cfg, err := config.Load(ctx, configFile)
			if err != nil {
				return err
			}

			jobs, err := cfg.Jobs(ctx)
			if err != nil {
				return err
			}
			if len(jobs) == 0 {
				l.Warningf("No files match the transformations in '%s'.", configFile)
				return nil
			}

			runner := operation.NewRunner(nil, parallel)

			var st *state.State
			if !noLock {
				st, err = loadState(cmd, cfg)
				if err != nil {
					return err
				}
				if force {
					st.GeneratedFiles = nil
				}
				runner.WithState(st)
			}

			_, err = runner.Run(ctx, jobs)
			l.Summary()

			if st != nil {
				if werr := st.Write(ctx); werr != nil {
					return werr
				}
			}
			if err != nil {
				return errors.Errorf("running batch: %w", err)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&configFile, "config", "c", "ctt.yaml", "project file path")
	cmd.Flags().IntVarP(&parallel, "parallel", "j", 1, "number of transformations to run at once")
	cmd.Flags().BoolVarP(&force, "force", "f", false, "run every transformation, even those up to date")
	cmd.Flags().BoolVar(&noLock, "no-lock", false, "neither read nor write the lock file")

	return cmd
}

func loadState(cmd *cobra.Command, cfg *config.Config) (*state.State, error) {
	return state.Load(cmd.Context(), filepath.Join(cfg.Dir(), state.FileName))
}
