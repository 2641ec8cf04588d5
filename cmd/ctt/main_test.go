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
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testSource    = `<configuration><appSettings><add key="Env" value="dev"/></appSettings></configuration>`
	testTransform = `<configuration xmlns:xdt="http://schemas.microsoft.com/XML-Document-Transform"><appSettings><add key="Env" value="{Env:staging}" xdt:Transform="SetAttributes(value)" xdt:Locator="Match(key)"/></appSettings></configuration>`
)

type fixture struct {
	dir       string
	source    string
	transform string
	dest      string
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	dir := t.TempDir()
	f := fixture{
		dir:       dir,
		source:    filepath.Join(dir, "web.config"),
		transform: filepath.Join(dir, "web.release.config"),
		dest:      filepath.Join(dir, "out", "web.config"),
	}
	require.NoError(t, os.WriteFile(f.source, []byte(testSource), 0644))
	require.NoError(t, os.WriteFile(f.transform, []byte(testTransform), 0644))
	return f
}

func execute(t *testing.T, stdin string, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := run(context.Background(), args, strings.NewReader(stdin), &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

func TestRewriteLegacyArgs(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want []string
	}{
		{
			name: "long_names",
			args: []string{"source:a.config", "transform:t.config", "destination:out.config"},
			want: []string{"--source=a.config", "--transform=t.config", "--destination=out.config"},
		},
		{
			name: "short_names_and_switches",
			args: []string{"s:a.config", "t:t.config", "d:stdout", "v", "fpt", "i", "pw", "imt"},
			want: []string{"--source=a.config", "--transform=t.config", "--destination=stdout", "--verbose", "--force-parameters", "--indent", "--preserve-whitespace", "--ignore-missing-transform"},
		},
		{
			name: "parameters_keep_later_colons",
			args: []string{`p:Parameter1:"Value of parameter1";Parameter2:Value2`},
			want: []string{`--parameters=Parameter1:"Value of parameter1";Parameter2:Value2`},
		},
		{
			name: "quoted_value",
			args: []string{`source:"my file.config"`, `ic:"\t"`},
			want: []string{"--source=my file.config", `--indent-chars=\t`},
		},
		{
			name: "case_insensitive_names",
			args: []string{"Source:a.config", "PF:params.xml", "Encoding:utf-16", "Q"},
			want: []string{"--source=a.config", "--parameters-file=params.xml", "--encoding=utf-16", "--quiet"},
		},
		{
			name: "flags_untouched",
			args: []string{"-s", "a.config", "--transform", "t.config"},
			want: []string{"-s", "a.config", "--transform", "t.config"},
		},
		{
			name: "flag_values_that_look_like_legacy_names",
			args: []string{"--source", `d:\app\web.config`, "-t", `t:\x.config`, "-d", "stdout", "-p", "e:prod"},
			want: []string{"--source", `d:\app\web.config`, "-t", `t:\x.config`, "-d", "stdout", "-p", "e:prod"},
		},
		{
			name: "parameter_named_like_a_legacy_name",
			args: []string{"s:web.config", "-p", "s:1", "v"},
			want: []string{"--source=web.config", "-p", "s:1", "--verbose"},
		},
		{
			name: "grouped_shorthands_ending_in_value_flag",
			args: []string{"-vs", `d:\web.config`, "-vi", "d:out.config"},
			want: []string{"-vs", `d:\web.config`, "-vi", "--destination=out.config"},
		},
		{
			name: "value_attached_to_flag",
			args: []string{"--source=d:\\a.config", "-sd:b.config", "d:out.config"},
			want: []string{"--source=d:\\a.config", "-sd:b.config", "--destination=out.config"},
		},
		{
			name: "bool_flag_does_not_take_next_argument",
			args: []string{"--indent", "d:out.config", "-q", "t:x.config"},
			want: []string{"--indent", "--destination=out.config", "-q", "--transform=x.config"},
		},
		{
			name: "after_terminator_untouched",
			args: []string{"v", "--", "d:x"},
			want: []string{"--verbose", "--", "d:x"},
		},
		{
			name: "unknown_names_untouched",
			args: []string{`C:\configs\a.config`, "x:1"},
			want: []string{`C:\configs\a.config`, "x:1"},
		},
		{
			name: "subcommand_untouched",
			args: []string{"apply", "p:1", "v"},
			want: []string{"apply", "p:1", "v"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, rewriteLegacyArgs(newRootCmd(), tt.args))
		})
	}
}

func TestRun_Transform(t *testing.T) {
	tests := []struct {
		name  string
		args  func(f fixture) []string
		env   map[string]string
		want  string
		check func(t *testing.T, stdout, stderr string)
	}{
		{
			name: "flags",
			args: func(f fixture) []string {
				return []string{"-s", f.source, "-t", f.transform, "-d", f.dest, "-p", "Env:prod"}
			},
			want: `<configuration><appSettings><add key="Env" value="prod"/></appSettings></configuration>`,
		},
		{
			name: "legacy_arguments",
			args: func(f fixture) []string {
				return []string{"s:" + f.source, "t:" + f.transform, "d:" + f.dest, "p:Env:prod"}
			},
			want: `<configuration><appSettings><add key="Env" value="prod"/></appSettings></configuration>`,
		},
		{
			name: "parameters_named_like_legacy_arguments",
			args: func(f fixture) []string {
				return []string{"-s", f.source, "-t", f.transform, "-d", f.dest, "-p", "e:x;Env:prod"}
			},
			want: `<configuration><appSettings><add key="Env" value="prod"/></appSettings></configuration>`,
		},
		{
			name: "forced_parameters_use_default",
			args: func(f fixture) []string {
				return []string{"-s", f.source, "-t", f.transform, "-d", f.dest, "--force-parameters"}
			},
			want: `<configuration><appSettings><add key="Env" value="staging"/></appSettings></configuration>`,
		},
		{
			name: "environment_sets_flags",
			args: func(f fixture) []string {
				return []string{"-s", f.source, "-t", f.transform, "-d", f.dest}
			},
			env: map[string]string{"CTT_PARAMETERS": "Env:from-env", "CTT_INDENT": "true", "CTT_INDENT_CHARS": "  "},
			want: `<configuration>
  <appSettings>
    <add key="Env" value="from-env"/>
  </appSettings>
</configuration>`,
		},
		{
			name: "flag_beats_environment",
			args: func(f fixture) []string {
				return []string{"-s", f.source, "-t", f.transform, "-d", f.dest, "-p", "Env:from-flag"}
			},
			env:  map[string]string{"CTT_PARAMETERS": "Env:from-env"},
			want: `<configuration><appSettings><add key="Env" value="from-flag"/></appSettings></configuration>`,
		},
		{
			name: "verbose_prints_progress",
			args: func(f fixture) []string {
				return []string{"-s", f.source, "-t", f.transform, "-d", f.dest, "-v", "-p", "Env:prod"}
			},
			want: `<configuration><appSettings><add key="Env" value="prod"/></appSettings></configuration>`,
			check: func(t *testing.T, stdout, stderr string) {
				assert.Contains(t, stdout, "Start transformation")
				assert.Contains(t, stdout, "SetAttributes")
				assert.Empty(t, stderr)
			},
		},
		{
			name: "default_mode_is_silent_on_success",
			args: func(f fixture) []string {
				return []string{"-s", f.source, "-t", f.transform, "-d", f.dest}
			},
			want: `<configuration><appSettings><add key="Env" value="{Env:staging}"/></appSettings></configuration>`,
			check: func(t *testing.T, stdout, stderr string) {
				assert.Empty(t, stdout)
				assert.Empty(t, stderr)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			f := newFixture(t)

			code, stdout, stderr := execute(t, "", tt.args(f)...)
			require.Equal(t, exitOK, code, "stderr: %s", stderr)
			assert.Equal(t, tt.want, readFile(t, f.dest))
			if tt.check != nil {
				tt.check(t, stdout, stderr)
			}
		})
	}
}

func TestRun_ConsoleStreams(t *testing.T) {
	f := newFixture(t)

	code, stdout, stderr := execute(t, testSource, "-s", "stdin", "-t", f.transform, "-d", "stdout", "-p", "Env:prod")
	require.Equal(t, exitOK, code, "stderr: %s", stderr)
	assert.Equal(t, `<configuration><appSettings><add key="Env" value="prod"/></appSettings></configuration>`, stdout)
}

func TestRun_ExitCodes(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		name       string
		args       []string
		wantCode   int
		wantStdout string
		wantStderr string
	}{
		{
			name:       "no_arguments_prints_help",
			args:       nil,
			wantCode:   exitUsage,
			wantStdout: "Usage:",
		},
		{
			name:       "missing_destination",
			args:       []string{"-s", f.source, "-t", f.transform},
			wantCode:   exitUsage,
			wantStdout: "Usage:",
		},
		{
			name:       "missing_source_file",
			args:       []string{"-s", filepath.Join(f.dir, "nope.config"), "-t", f.transform, "-d", f.dest},
			wantCode:   exitFailure,
			wantStderr: "can't find source file",
		},
		{
			name:       "missing_transform_file",
			args:       []string{"-s", f.source, "-t", filepath.Join(f.dir, "nope.config"), "-d", f.dest},
			wantCode:   exitFailure,
			wantStderr: "can't find transform file",
		},
		{
			name:     "quiet_hides_errors",
			args:     []string{"-q", "-s", filepath.Join(f.dir, "nope.config"), "-t", f.transform, "-d", f.dest},
			wantCode: exitFailure,
		},
		{
			name:       "unknown_encoding",
			args:       []string{"-s", f.source, "-t", f.transform, "-d", f.dest, "-e", "klingon"},
			wantCode:   exitFailure,
			wantStderr: "unknown encoding",
		},
		{
			name:       "invalid_parameters",
			args:       []string{"-s", f.source, "-t", f.transform, "-d", f.dest, "-p", "novalue"},
			wantCode:   exitFailure,
			wantStderr: "invalid parameters",
		},
		{
			name:       "unknown_flag",
			args:       []string{"--frobnicate"},
			wantCode:   exitFailure,
			wantStderr: "unknown flag",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, stdout, stderr := execute(t, "", tt.args...)
			assert.Equal(t, tt.wantCode, code)
			if tt.wantStdout != "" {
				assert.Contains(t, stdout, tt.wantStdout)
			}
			if tt.wantStderr != "" {
				assert.Contains(t, stderr, tt.wantStderr)
			} else {
				assert.Empty(t, stderr)
			}
		})
	}
}

func TestRun_Apply(t *testing.T) {
	code, stdout, stderr := execute(t, `x={A:1} y={B} z=\{C\}`, "apply", "-p", "A:one")
	require.Equal(t, exitOK, code, "stderr: %s", stderr)
	assert.Equal(t, "x=one y={B} z={C}", stdout)

	dir := t.TempDir()
	in := filepath.Join(dir, "template.txt")
	out := filepath.Join(dir, "out", "result.txt")
	require.NoError(t, os.WriteFile(in, []byte("{Greeting:hello}, {Name}"), 0644))

	code, _, stderr = execute(t, "", "apply", in, "-p", "Name:world", "-o", out)
	require.Equal(t, exitOK, code, "stderr: %s", stderr)
	assert.Equal(t, "hello, world", readFile(t, out))
}

func TestRun_Batch(t *testing.T) {
	f := newFixture(t)
	cfg := filepath.Join(f.dir, "ctt.yaml")
	require.NoError(t, os.WriteFile(cfg, []byte(`
defaults:
  parameters:
    Env: batch
transformations:
  - source: web.config
    transform: web.release.config
    destination: out/web.config
`), 0644))

	code, _, stderr := execute(t, "", "batch", "-c", cfg, "--parallel", "2")
	require.Equal(t, exitOK, code, "stderr: %s", stderr)
	assert.Equal(t, `<configuration><appSettings><add key="Env" value="batch"/></appSettings></configuration>`, readFile(t, f.dest))

	code, _, stderr = execute(t, "", "batch", "-c", filepath.Join(f.dir, "missing.yaml"))
	assert.Equal(t, exitFailure, code)
	assert.Contains(t, stderr, "reading config file")
}

func TestRun_Version(t *testing.T) {
	code, stdout, _ := execute(t, "", "version")
	require.Equal(t, exitOK, code)
	assert.Contains(t, stdout, "ctt ")
	assert.Contains(t, stdout, "Go:")
}

func TestRun_BatchLockFile(t *testing.T) {
	f := newFixture(t)
	cfg := filepath.Join(f.dir, "ctt.yaml")
	require.NoError(t, os.WriteFile(cfg, []byte(`
transformations:
  - source: web.config
    transform: web.release.config
    destination: out/web.config
    parameters:
      Env: batch
`), 0644))

	code, _, stderr := execute(t, "", "batch", "-c", cfg)
	require.Equal(t, exitOK, code, "stderr: %s", stderr)
	_, err := os.Stat(filepath.Join(f.dir, ".ctt.lock"))
	require.NoError(t, err)

	code, stdout, _ := execute(t, "", "status", "-c", cfg, "--check")
	assert.Equal(t, exitOK, code)
	assert.Contains(t, stdout, "up to date")

	code, stdout, _ = execute(t, "", "batch", "-c", cfg, "-v")
	require.Equal(t, exitOK, code)
	assert.Contains(t, stdout, "Skipping")

	require.NoError(t, os.WriteFile(f.source, []byte(`<configuration><appSettings><add key="Env" value="test"/></appSettings></configuration>`), 0644))

	code, stdout, stderr = execute(t, "", "status", "-c", cfg, "--check")
	assert.Equal(t, exitFailure, code)
	assert.Contains(t, stdout, "inputs changed")
	assert.Contains(t, stderr, "out of date")

	code, _, stderr = execute(t, "", "batch", "-c", cfg)
	require.Equal(t, exitOK, code, "stderr: %s", stderr)

	code, _, stderr = execute(t, "", "clean", "-c", cfg)
	require.Equal(t, exitOK, code, "stderr: %s", stderr)
	_, err = os.Stat(f.dest)
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(filepath.Join(f.dir, ".ctt.lock"))
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(f.source)
	assert.NoError(t, err)
}
