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

package transform

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/walteh/ctt/pkg/console"
	"github.com/walteh/ctt/pkg/status"
)

const xdtNS = `xmlns:xdt="http://schemas.microsoft.com/XML-Document-Transform"`

type files struct {
	dir       string
	source    string
	transform string
	dest      string
}

func setup(t *testing.T, source, transform string) files {
	t.Helper()
	dir := t.TempDir()
	f := files{
		dir:       dir,
		source:    filepath.Join(dir, "app.config"),
		transform: filepath.Join(dir, "app.release.config"),
		dest:      filepath.Join(dir, "out", "app.config"),
	}
	require.NoError(t, os.WriteFile(f.source, []byte(source), 0644))
	if transform != "" {
		require.NoError(t, os.WriteFile(f.transform, []byte(transform), 0644))
	}
	return f
}

func readUTF8(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	s, err := console.Decode(console.UTF8, data)
	require.NoError(t, err)
	return s
}

func TestExecute(t *testing.T) {
	tests := []struct {
		name      string
		source    string
		transform string
		opts      Options
		want      string
		contains  []string
	}{
		{
			name: "replace_with_match_in_default_namespace",
			source: `<?xml version="1.0"?>

<configuration xmlns="http://schemas.itisnotadomain/Configuration/v2.0" >
	<custom>
		<groups>
			<group name="TestGroup1">
				<values>
					<value key="Test1" value="True" />
					<value key="Test2" value="600" />
				</values>
			</group>
		</groups>
	</custom>
</configuration>`,
			transform: `<?xml version="1.0"?>
<configuration ` + xdtNS + ` xmlns="http://schemas.itisnotadomain/Configuration/v2.0">
	<custom>
		<groups>
			<group name="TestGroup1">
				<values>
					<value key="Test2" value="601" xdt:Transform="Replace" xdt:Locator="Match(key)" />
				</values>
			</group>
		</groups>
	</custom>
</configuration>`,
			contains: []string{`value="601"`, `value="True"`},
		},
		{
			name: "indent_keeps_declaration_and_replaces_nested_element",
			source: `<?xml version="1.0"?>
<configuration>
    <userSettings>
        <Settings>
            <setting name="MyConfiguration" serializeAs="String">
                <value>ThisWillBeReplaced</value>
            </setting>
        </Settings>
    </userSettings>
</configuration>`,
			transform: `<?xml version="1.0"?>
<configuration ` + xdtNS + `>
    <userSettings>
        <Settings>
            <setting name="MyConfiguration" serializeAs="String" xdt:Transform="Replace" xdt:Locator="Match(name)">
                <value>ThisWasReplaced</value>
            </setting>
        </Settings>
    </userSettings>
</configuration>`,
			opts: Options{Indent: true, PreserveWhitespace: true},
			want: `<?xml version="1.0"?>
<configuration>
    <userSettings>
        <Settings>
            <setting name="MyConfiguration" serializeAs="String">
                <value>ThisWasReplaced</value>
            </setting>
        </Settings>
    </userSettings>
</configuration>`,
		},
		{
			name: "newline_in_attribute_value_is_kept",
			source: `<?xml version="1.0"?>
<configuration>
	<value key="Test1" value="Tru
e" />
</configuration>`,
			transform: `<?xml version="1.0"?>
<configuration ` + xdtNS + `>
	<value key="Test1" value="60
1&lt;group name=&quot;&quot;" xdt:Transform="Replace" xdt:Locator="Match(key)" />
</configuration>`,
			opts:     Options{PreserveWhitespace: true},
			contains: []string{"value=\"60\n1&lt;group name=&quot;&quot;\""},
		},
		{
			name: "multibyte_values",
			source: `<?xml version="1.0" encoding="utf-8"?>
<configuration>
	<custom key="Test" value="" />
</configuration>`,
			transform: `<?xml version="1.0" encoding="utf-8"?>
<configuration ` + xdtNS + `>
	<custom key="Test" value="倉頡; 仓颉" xdt:Transform="Replace" xdt:Locator="Match(key)" />
</configuration>`,
			opts:     Options{PreserveWhitespace: true},
			contains: []string{`value="倉頡; 仓颉"`},
		},
		{
			name: "replace_root_with_indent",
			source: `<?xml version="1.0"?>
<connectionStrings>
        <x></x>
        <x></x>
        <x></x>
</connectionStrings>`,
			transform: `<?xml version="1.0"?>
<connectionStrings xdt:Transform="Replace" ` + xdtNS + `>
        <a>aaa</a>
        <b>bbb</b>
        <c>ccc</c>
</connectionStrings>`,
			opts: Options{Indent: true, PreserveWhitespace: true},
			want: `<?xml version="1.0"?>
<connectionStrings>
    <a>aaa</a>
    <b>bbb</b>
    <c>ccc</c>
</connectionStrings>`,
		},
		{
			name:      "custom_indent_chars",
			source:    `<?xml version="1.0"?><connectionStrings><x/></connectionStrings>`,
			transform: `<?xml version="1.0"?><connectionStrings xdt:Transform="Replace" ` + xdtNS + `><a>aaa</a><b>bbb</b></connectionStrings>`,
			opts:      Options{Indent: true, IndentChars: "  "},
			want: `<?xml version="1.0"?>
<connectionStrings>
  <a>aaa</a>
  <b>bbb</b>
</connectionStrings>`,
		},
		{
			name:      "tab_indent_chars",
			source:    `<?xml version="1.0"?><connectionStrings><x/></connectionStrings>`,
			transform: `<?xml version="1.0"?><connectionStrings xdt:Transform="Replace" ` + xdtNS + `><a>aaa</a></connectionStrings>`,
			opts:      Options{Indent: true, IndentChars: "\t"},
			want:      "<?xml version=\"1.0\"?>\n<connectionStrings>\n\t<a>aaa</a>\n</connectionStrings>",
		},
		{
			name:      "mixed_indent_chars",
			source:    `<root><x/></root>`,
			transform: `<root ` + xdtNS + `><x><y xdt:Transform="Insert">1</y></x></root>`,
			opts:      Options{Indent: true, IndentChars: "-+"},
			want:      "<root>\n-+<x>\n-+-+<y>1</y>\n-+</x>\n</root>",
		},
		{
			name:      "mixed_indent_chars_leave_text_alone",
			source:    "<root><x><![CDATA[\n\tkeep]]></x><y>\n\ttext</y></root>",
			transform: `<root ` + xdtNS + `/>`,
			opts:      Options{Indent: true, IndentChars: "-+", PreserveWhitespace: true},
			want:      "<root>\n-+<x><![CDATA[\n\tkeep]]></x>\n-+<y>\n\ttext</y>\n</root>",
		},
		{
			name: "no_declaration_in_source_means_none_in_output",
			source: `<connectionStrings>
    <x></x>
</connectionStrings>`,
			transform: `<?xml version="1.0"?>
<connectionStrings xdt:Transform="Replace" ` + xdtNS + `>
    <a>aaa</a>
</connectionStrings>`,
			opts: Options{Indent: true},
			want: `<connectionStrings>
    <a>aaa</a>
</connectionStrings>`,
		},
		{
			name:      "whitespace_dropped_without_preserve",
			source:    "<root>\n  <a>1</a>\n  <b>2</b>\n</root>",
			transform: `<root ` + xdtNS + `><b xdt:Transform="Remove"/></root>`,
			want:      `<root><a>1</a></root>`,
		},
		{
			name:      "parameters_are_applied_to_transform",
			source:    `<root><add key="a" value="1"/></root>`,
			transform: `<root ` + xdtNS + `><add key="a" value="{Value:fallback}" xdt:Transform="SetAttributes(value)" xdt:Locator="Match(key)"/></root>`,
			opts:      Options{Parameters: map[string]string{"Value": "42"}},
			want:      `<root><add key="a" value="42"/></root>`,
		},
		{
			name:      "parameters_skipped_when_empty",
			source:    `<root><add key="a" value="1"/></root>`,
			transform: `<root ` + xdtNS + `><add key="a" value="{Value:fallback}" xdt:Transform="SetAttributes(value)" xdt:Locator="Match(key)"/></root>`,
			want:      `<root><add key="a" value="{Value:fallback}"/></root>`,
		},
		{
			name:      "forced_parameters_use_defaults",
			source:    `<root><add key="a" value="1"/></root>`,
			transform: `<root ` + xdtNS + `><add key="a" value="{Value:fallback}" xdt:Transform="SetAttributes(value)" xdt:Locator="Match(key)"/></root>`,
			opts:      Options{ForceParameters: true},
			want:      `<root><add key="a" value="fallback"/></root>`,
		},
		{
			name:      "escaped_braces_in_transform",
			source:    `<root><add key="a" value="1"/></root>`,
			transform: `<root ` + xdtNS + `><add key="a" value="\{literal\}" xdt:Transform="SetAttributes(value)" xdt:Locator="Match(key)"/></root>`,
			opts:      Options{ForceParameters: true},
			want:      `<root><add key="a" value="{literal}"/></root>`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := setup(t, tt.source, tt.transform)

			opts := tt.opts
			opts.SourcePath = f.source
			opts.TransformPath = f.transform
			opts.DestinationPath = f.dest

			res := Execute(context.Background(), opts)
			require.NoError(t, res.Err)
			assert.True(t, res.Success)
			assert.Equal(t, status.StatusNew, res.Status)

			got := readUTF8(t, f.dest)
			if tt.want != "" {
				assert.Equal(t, tt.want, got)
			}
			for _, c := range tt.contains {
				assert.Contains(t, got, c)
			}
			assert.NotContains(t, got, "xdt:")
		})
	}
}

func TestExecute_DeclaredEncoding(t *testing.T) {
	f := setup(t,
		`<?xml version="1.0" encoding="utf-16"?>
<configuration>
    <value>before</value>
</configuration>`,
		`<?xml version="1.0"?>
<configuration `+xdtNS+`>
    <value xdt:Transform="Replace">after</value>
</configuration>`)

	res := Execute(context.Background(), Options{
		SourcePath:         f.source,
		TransformPath:      f.transform,
		DestinationPath:    f.dest,
		Indent:             true,
		PreserveWhitespace: true,
	})
	require.NoError(t, res.Err)
	require.True(t, res.Success)

	data, err := os.ReadFile(f.dest)
	require.NoError(t, err)
	assert.Equal(t, []byte{0xFF, 0xFE}, data[:2], "utf-16 output starts with a byte order mark")

	assert.Equal(t, `<?xml version="1.0" encoding="utf-16"?>
<configuration>
    <value>after</value>
</configuration>`, readUTF8(t, f.dest))
}

func TestExecute_DefaultEncoding(t *testing.T) {
	enc, err := console.Lookup("windows-1252")
	require.NoError(t, err)

	src, err := console.Encode(enc, `<root><v>café</v></root>`)
	require.NoError(t, err)

	tr, err := console.Encode(enc, `<root `+xdtNS+`><w xdt:Transform="Insert">naïve</w></root>`)
	require.NoError(t, err)

	f := setup(t, "", "")
	require.NoError(t, os.WriteFile(f.source, src, 0644))
	require.NoError(t, os.WriteFile(f.transform, tr, 0644))

	res := Execute(context.Background(), Options{
		SourcePath:      f.source,
		TransformPath:   f.transform,
		DestinationPath: f.dest,
		Encoding:        enc,
	})
	require.NoError(t, res.Err)
	require.True(t, res.Success)

	want, err := console.Encode(enc, `<root><v>café</v><w>naïve</w></root>`)
	require.NoError(t, err)
	got, err := os.ReadFile(f.dest)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestExecute_Errors(t *testing.T) {
	f := setup(t, `<root/>`, `<root `+xdtNS+`/>`)

	tests := []struct {
		name    string
		opts    Options
		wantErr error
	}{
		{
			name:    "empty_destination",
			opts:    Options{SourcePath: f.source, TransformPath: f.transform, DestinationPath: "  "},
			wantErr: ErrInvalidOptions,
		},
		{
			name:    "missing_source",
			opts:    Options{SourcePath: filepath.Join(f.dir, "nope.config"), TransformPath: f.transform, DestinationPath: f.dest},
			wantErr: ErrSourceNotFound,
		},
		{
			name:    "empty_source",
			opts:    Options{TransformPath: f.transform, DestinationPath: f.dest},
			wantErr: ErrSourceNotFound,
		},
		{
			name:    "source_is_directory",
			opts:    Options{SourcePath: f.dir, TransformPath: f.transform, DestinationPath: f.dest},
			wantErr: ErrSourceNotFound,
		},
		{
			name:    "missing_transform",
			opts:    Options{SourcePath: f.source, TransformPath: filepath.Join(f.dir, "nope.config"), DestinationPath: f.dest},
			wantErr: ErrTransformNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := Execute(context.Background(), tt.opts)
			assert.False(t, res.Success)
			require.Error(t, res.Err)
			assert.ErrorIs(t, res.Err, tt.wantErr)
			assert.NoFileExists(t, f.dest)
		})
	}
}

func TestExecute_InvalidSource(t *testing.T) {
	f := setup(t, `<root><unclosed></root>`, `<root `+xdtNS+`/>`)

	res := Execute(context.Background(), Options{SourcePath: f.source, TransformPath: f.transform, DestinationPath: f.dest})
	assert.False(t, res.Success)
	require.Error(t, res.Err)
	assert.NoFileExists(t, f.dest)
}

func TestExecute_FailedInstructionStillWrites(t *testing.T) {
	f := setup(t, `<root><a/></root>`, `<root `+xdtNS+`><a xdt:Transform="Explode"/></root>`)

	res := Execute(context.Background(), Options{SourcePath: f.source, TransformPath: f.transform, DestinationPath: f.dest})
	require.NoError(t, res.Err)
	assert.False(t, res.Success)
	assert.Equal(t, `<root><a/></root>`, readUTF8(t, f.dest))
}

func TestExecute_IgnoreMissingTransform(t *testing.T) {
	const source = "<root>\n  <keep   spacing=\"yes\" />\n</root>"
	f := setup(t, source, "")

	res := Execute(context.Background(), Options{
		SourcePath:             f.source,
		TransformPath:          f.transform,
		DestinationPath:        f.dest,
		IgnoreMissingTransform: true,
		Indent:                 true,
	})
	require.NoError(t, res.Err)
	assert.True(t, res.Success)
	assert.Equal(t, source, readUTF8(t, f.dest))
}

func TestExecute_ConsoleStreams(t *testing.T) {
	f := setup(t, "", `<root `+xdtNS+`><b xdt:Transform="Insert"/></root>`)

	var out bytes.Buffer
	c := console.New(strings.NewReader(`<root><a/></root>`), &out)

	res := Execute(context.Background(), Options{
		SourcePath:      "STDIN",
		TransformPath:   f.transform,
		DestinationPath: "StdOut",
		Console:         c,
	})
	require.NoError(t, res.Err)
	assert.True(t, res.Success)
	assert.Equal(t, `<root><a/><b/></root>`, out.String())
	assert.Equal(t, console.UTF8, c.Encoding(), "console encoding is restored")
}

func TestExecute_UnchangedOnSecondRun(t *testing.T) {
	f := setup(t, `<root><a/></root>`, `<root `+xdtNS+`><b xdt:Transform="Insert"/></root>`)
	opts := Options{SourcePath: f.source, TransformPath: f.transform, DestinationPath: f.dest}

	first := Execute(context.Background(), opts)
	require.NoError(t, first.Err)
	assert.Equal(t, status.StatusNew, first.Status)

	second := Execute(context.Background(), opts)
	require.NoError(t, second.Err)
	assert.Equal(t, status.StatusUnchanged, second.Status)
}
