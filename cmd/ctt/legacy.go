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
)

// legacyArgs maps the colon style argument names (source:file, s:file, v)
// to their flag names.
var legacyArgs = map[string]string{
	"source":                 "source",
	"s":                      "source",
	"transform":              "transform",
	"t":                      "transform",
	"destination":            "destination",
	"d":                      "destination",
	"parameters":             "parameters",
	"p":                      "parameters",
	"parameters.file":        "parameters-file",
	"pf":                     "parameters-file",
	"fpt":                    "force-parameters",
	"verbose":                "verbose",
	"v":                      "verbose",
	"quiet":                  "quiet",
	"q":                      "quiet",
	"preservewhitespace":     "preserve-whitespace",
	"pw":                     "preserve-whitespace",
	"indent":                 "indent",
	"i":                      "indent",
	"indentchars":            "indent-chars",
	"ic":                     "indent-chars",
	"encoding":               "encoding",
	"e":                      "encoding",
	"ignoremissingtransform": "ignore-missing-transform",
	"imt":                    "ignore-missing-transform",
}

var subcommands = map[string]bool{
	"apply":      true,
	"batch":      true,
	"status":     true,
	"clean":      true,
	"version":    true,
	"help":       true,
	"completion": true,
}

// rewriteLegacyArgs turns name:value arguments into --flag=value. Arguments
// in flag form, values of the flags of cmd, everything after "--" and
// everything after a subcommand name are kept.
func rewriteLegacyArgs(cmd *cobra.Command, args []string) []string {
	if len(args) > 0 && subcommands[args[0]] {
		return args
	}

	out := make([]string, 0, len(args))
	pendingValue := false
	for i, arg := range args {
		if pendingValue {
			out = append(out, arg)
			pendingValue = false
			continue
		}

		if arg == "--" {
			return append(out, args[i:]...)
		}

		if strings.HasPrefix(arg, "-") {
			out = append(out, arg)
			pendingValue = needsValue(cmd, arg)
			continue
		}

		name, value, hasValue := strings.Cut(arg, ":")
		flag, ok := legacyArgs[strings.ToLower(name)]
		if !ok {
			out = append(out, arg)
			continue
		}

		if !hasValue {
			out = append(out, "--"+flag)
			continue
		}
		out = append(out, "--"+flag+"="+trimQuotes(value))
	}
	return out
}

// needsValue reports whether arg is a flag of cmd that takes its value from
// the next argument.
func needsValue(cmd *cobra.Command, arg string) bool {
	if strings.Contains(arg, "=") {
		return false
	}

	if name, ok := strings.CutPrefix(arg, "--"); ok {
		f := lookupFlag(cmd, name)
		return f != nil && f.NoOptDefVal == ""
	}

	// Shorthands may be grouped (-vi) and a value may follow directly (-sweb.config).
	shorthands := arg[1:]
	for i := 0; i < len(shorthands); i++ {
		f := lookupShorthand(cmd, shorthands[i:i+1])
		if f == nil {
			return false
		}
		if f.NoOptDefVal == "" {
			return i == len(shorthands)-1
		}
	}
	return false
}

func lookupFlag(cmd *cobra.Command, name string) *pflag.Flag {
	if f := cmd.Flags().Lookup(name); f != nil {
		return f
	}
	return cmd.PersistentFlags().Lookup(name)
}

func lookupShorthand(cmd *cobra.Command, name string) *pflag.Flag {
	if f := cmd.Flags().ShorthandLookup(name); f != nil {
		return f
	}
	return cmd.PersistentFlags().ShorthandLookup(name)
}

func trimQuotes(s string) string {
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		return s[1 : len(s)-1]
	}
	return s
}
