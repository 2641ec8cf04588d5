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
	"encoding/json"
	"fmt"
	"io"
	"runtime"
	"runtime/debug"
	"strings"

	"github.com/spf13/cobra"
)

// modules whose versions change transform output
var engineModules = []string{
	"github.com/beevik/etree",
	"golang.org/x/text",
}

// 🏷️ buildVersion describes the running ctt binary
type buildVersion struct {
	Version  string            `json:"version"`
	Revision string            `json:"revision,omitempty"`
	Dirty    bool              `json:"dirty,omitempty"`
	Go       string            `json:"go"`
	Platform string            `json:"platform"`
	Engine   map[string]string `json:"engine,omitempty"`
}

// readBuildVersion collects version details from bi, which may be nil when
// the binary carries no build information.
func readBuildVersion(bi *debug.BuildInfo) buildVersion {
	v := buildVersion{
		Version:  "dev",
		Go:       runtime.Version(),
		Platform: runtime.GOOS + "/" + runtime.GOARCH,
	}
	if bi == nil {
		return v
	}

	if bi.Main.Version != "" && bi.Main.Version != "(devel)" {
		v.Version = bi.Main.Version
	}
	for _, s := range bi.Settings {
		switch s.Key {
		case "vcs.revision":
			v.Revision = s.Value
		case "vcs.modified":
			v.Dirty = s.Value == "true"
		}
	}
	for _, dep := range bi.Deps {
		for _, path := range engineModules {
			if dep.Path != path {
				continue
			}
			if v.Engine == nil {
				v.Engine = map[string]string{}
			}
			v.Engine[path] = dep.Version
		}
	}
	return v
}

// short is the one line form, e.g. "v1.2.0 (abc1234-dirty)".
func (v buildVersion) short() string {
	if v.Revision == "" {
		return v.Version
	}
	rev := v.Revision
	if len(rev) > 7 {
		rev = rev[:7]
	}
	if v.Dirty {
		rev += "-dirty"
	}
	return fmt.Sprintf("%s (%s)", v.Version, rev)
}

func (v buildVersion) write(w io.Writer) error {
	var b strings.Builder
	fmt.Fprintf(&b, "ctt %s\n", v.short())
	fmt.Fprintf(&b, "Go:        %s\n", v.Go)
	fmt.Fprintf(&b, "Platform:  %s\n", v.Platform)
	for _, path := range engineModules {
		if ver, ok := v.Engine[path]; ok {
			fmt.Fprintf(&b, "Engine:    %s %s\n", path, ver)
		}
	}
	_, err := io.WriteString(w, b.String())
	return err
}

func newVersionCmd() *cobra.Command {
	var asJSON, short bool

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			bi, _ := debug.ReadBuildInfo()
			v := readBuildVersion(bi)

			switch {
			case asJSON:
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(v)
			case short:
				_, err := fmt.Fprintln(cmd.OutOrStdout(), v.short())
				return err
			default:
				return v.write(cmd.OutOrStdout())
			}
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print version information as JSON")
	cmd.Flags().BoolVar(&short, "short", false, "print only the version")
	cmd.MarkFlagsMutuallyExclusive("json", "short")
	return cmd
}
