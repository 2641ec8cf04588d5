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
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/ctt/cmd/ctt/opts"
	"github.com/walteh/ctt/pkg/log"
	"github.com/walteh/ctt/pkg/params"
	"github.com/walteh/ctt/pkg/status"
	"github.com/walteh/ctt/pkg/text"
	"github.com/walteh/ctt/pkg/transform"
)

// NewApplyCmd creates the apply command, which only fills placeholders
func NewApplyCmd(global *opts.GlobalOpts) *cobra.Command {
	var (
		parameters     string
		parametersFile string
		out            string
	)

	cmd := &cobra.Command{
		Use:   "apply [file]",
		Short: "Fill {Name:Default} placeholders in a file",
		Long: `Apply replaces {Name} and {Name:Default} placeholders in a file, or in
standard input when no file is given, and writes the result to standard
output or to --out. \{ and \} produce literal braces.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			l := log.FromContext(ctx)

			values, err := params.Accumulate(ctx, parameters, parametersFile)
			if err != nil {
				return err
			}

			in := cmd.InOrStdin()
			source := transform.Stdin
			if len(args) == 1 && args[0] != "-" && !strings.EqualFold(args[0], transform.Stdin) {
				source = args[0]
				f, err := os.Open(source)
				if err != nil {
					return errors.Errorf("opening template: %w", err)
				}
				defer f.Close()
				in = f
			}

			res, err := text.NewParameterReplacer().ReplaceText(ctx, in, values)
			if err != nil {
				return err
			}
			for _, name := range res.Unresolved {
				l.Warningf("Parameter '%s' has no value and no default.", name)
			}

			if out == "" || strings.EqualFold(out, transform.Stdout) {
				return write(cmd.OutOrStdout(), res.ModifiedContent)
			}

			info, err := status.NewWriter(global.Verbose).WriteFile(ctx, out, res.ModifiedContent)
			if err != nil {
				return errors.Errorf("writing output: %w", err)
			}
			l.LogFileOperation(ctx, log.FileOperation{
				Path:       out,
				Source:     source,
				Status:     info.Status.String(),
				IsNew:      info.Status == status.StatusNew,
				IsModified: info.Status == status.StatusModified,
				Parameters: res.ParameterCount,
			})
			return nil
		},
	}

	cmd.Flags().StringVarP(&parameters, "parameters", "p", "", `parameters as Name:Value;Other:"quoted value"`)
	cmd.Flags().StringVar(&parametersFile, "parameters-file", "", "parameters file (.xml, .yaml, .json, .hcl or .env)")
	cmd.Flags().StringVarP(&out, "out", "o", "", "output file (default standard output)")

	return cmd
}

func write(w io.Writer, data []byte) error {
	if _, err := w.Write(data); err != nil {
		return errors.Errorf("writing output: %w", err)
	}
	return nil
}
