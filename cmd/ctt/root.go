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

package main

import (
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/ctt/cmd/ctt/commands"
	"github.com/walteh/ctt/cmd/ctt/opts"
	"github.com/walteh/ctt/pkg/console"
	"github.com/walteh/ctt/pkg/log"
	"github.com/walteh/ctt/pkg/status"
	"github.com/walteh/ctt/pkg/transform"
)

var (
	errMissingArguments = errors.New("missing required arguments")
	errReported         = errors.New("transformation failed")
)

const envPrefix = "CTT"

// newRootCmd builds the ctt command tree. The root command runs a single
// transformation.
func newRootCmd() *cobra.Command {
	global := &opts.GlobalOpts{}
	t := &opts.TransformOpts{}

	cmd := &cobra.Command{
		Use:   "ctt",
		Short: "Apply XML Document Transforms to config files",
		Long: `ctt transforms an XML config file with an XDT transform file.
The transform may contain {Name} and {Name:Default} placeholders, which are
filled from --parameters and --parameters-file before it is applied.

Every flag can also be set through the environment, for example
CTT_ENCODING=utf-16 or CTT_INDENT=true.`,
		Example: `  ctt -s web.config -t web.release.config -d out/web.config
  ctt s:web.config t:web.release.config d:stdout p:Env:prod;Port:8080
  ctt batch -c ctt.yaml --parallel 4
  ctt status -c ctt.yaml --check`,
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := bindEnv(cmd); err != nil {
				return err
			}
			cmd.SetContext(global.Context(cmd.Context(), cmd.OutOrStdout(), cmd.ErrOrStderr()))
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if missing := t.Missing(); len(missing) > 0 {
				return errors.Errorf("%w: %s", errMissingArguments, strings.Join(missing, ", "))
			}
			return runTransform(cmd, global, t)
		},
	}

	pf := cmd.PersistentFlags()
	pf.BoolVarP(&global.Verbose, "verbose", "v", false, "print every step")
	pf.BoolVarP(&global.Quiet, "quiet", "q", false, "print nothing, not even errors")
	pf.BoolVar(&global.Debug, "debug", false, "enable debug logging")

	f := cmd.Flags()
	f.StringVarP(&t.Source, "source", "s", "", "source file path (stdin reads the console)")
	f.StringVarP(&t.Transform, "transform", "t", "", "transform file path")
	f.StringVarP(&t.Destination, "destination", "d", "", "destination file path (stdout writes the console)")
	f.StringVarP(&t.Parameters, "parameters", "p", "", `parameters as Name:Value;Other:"quoted value"`)
	f.StringVar(&t.ParametersFile, "parameters-file", "", "parameters file (.xml, .yaml, .json, .hcl or .env)")
	f.BoolVar(&t.ForceParameters, "force-parameters", false, "fill placeholder defaults even without parameters")
	f.BoolVar(&t.PreserveWhitespace, "preserve-whitespace", false, "preserve whitespace in element and attribute values")
	f.BoolVarP(&t.Indent, "indent", "i", false, "indent the output")
	f.StringVar(&t.IndentChars, "indent-chars", transform.DefaultIndentChars, `one level of indentation (\t for a tab)`)
	f.StringVarP(&t.Encoding, "encoding", "e", "", "default encoding of the files (utf8, utf16, windows-1252, ...)")
	f.BoolVar(&t.IgnoreMissingTransform, "ignore-missing-transform", false, "copy the source when the transform file is missing")

	cmd.AddCommand(
		commands.NewApplyCmd(global),
		commands.NewBatchCmd(),
		commands.NewStatusCmd(global),
		commands.NewCleanCmd(global),
		newVersionCmd(),
	)

	return cmd
}

func runTransform(cmd *cobra.Command, global *opts.GlobalOpts, t *opts.TransformOpts) error {
	ctx := cmd.Context()

	o, err := t.Options(ctx)
	if err != nil {
		return err
	}
	o.Console = console.New(cmd.InOrStdin(), cmd.OutOrStdout())
	o.Writer = status.NewWriter(global.Verbose)

	res := transform.Execute(ctx, o)
	if !res.Success {
		return errReported
	}

	log.FromContext(ctx).Successf("Transformed '%s' to '%s'.", t.Source, t.Destination)
	return nil
}

// bindEnv fills every flag not given on the command line from its CTT_
// environment variable.
func bindEnv(cmd *cobra.Command) error {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if err := v.BindPFlags(cmd.Flags()); err != nil {
		return errors.Errorf("binding flags: %w", err)
	}

	var bindErr error
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		if bindErr != nil || f.Changed || !v.IsSet(f.Name) {
			return
		}
		if err := f.Value.Set(v.GetString(f.Name)); err != nil {
			bindErr = errors.Errorf("%s_%s: %w", envPrefix, strings.ToUpper(strings.ReplaceAll(f.Name, "-", "_")), err)
		}
	})
	return bindErr
}

func quietRequested(cmd *cobra.Command) bool {
	if cmd == nil {
		return false
	}
	q, err := cmd.Root().PersistentFlags().GetBool("quiet")
	return err == nil && q
}
