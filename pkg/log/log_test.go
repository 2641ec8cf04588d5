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

package log

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func lines(buf *bytes.Buffer) []string {
	output := strings.TrimSpace(buf.String())
	if output == "" {
		return nil
	}
	out := strings.Split(output, "\n")
	for i := range out {
		out[i] = strings.TrimSpace(out[i])
	}
	return out
}

func TestLogger(t *testing.T) {
	// Disable color for testing
	color.NoColor = true
	defer func() { color.NoColor = false }()

	emit := func(logger *Logger) {
		logger.Info("info message")
		logger.Warningf("warning %s", "message")
		logger.Errorf("error %s", "message")
		logger.Success("success message")
	}

	tests := []struct {
		name    string
		mode    Mode
		wantOut []string
		wantErr []string
	}{
		{
			name: "verbose",
			mode: ModeVerbose,
			wantOut: []string{
				"ℹ️  info message",
				"⚠️  warning message",
				"✅ success message",
			},
			wantErr: []string{"❌ error message"},
		},
		{
			name:    "error_only",
			mode:    ModeErrorOnly,
			wantErr: []string{"❌ error message"},
		},
		{
			name: "quiet",
			mode: ModeQuiet,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := &bytes.Buffer{}
			errOut := &bytes.Buffer{}
			emit(New(out, errOut, tt.mode, zerolog.Nop()))

			assert.Equal(t, tt.wantOut, lines(out))
			assert.Equal(t, tt.wantErr, lines(errOut))
		})
	}
}

func TestLoggerHeader(t *testing.T) {
	color.NoColor = true
	defer func() { color.NoColor = false }()

	out := &bytes.Buffer{}
	New(out, out, ModeVerbose, zerolog.Nop()).Header("transforming web.config")
	assert.Equal(t, []string{"ctt • transforming web.config"}, lines(out))
}

func TestLoggerForwardsToZerolog(t *testing.T) {
	zbuf := &bytes.Buffer{}
	logger := New(&bytes.Buffer{}, &bytes.Buffer{}, ModeQuiet, zerolog.New(zbuf))

	logger.Error("boom")
	assert.Contains(t, zbuf.String(), `"level":"error"`)
	assert.Contains(t, zbuf.String(), `"message":"boom"`)
}

func TestLoggerContext(t *testing.T) {
	logger := Nop()

	ctx := NewContext(context.Background(), logger)
	assert.Same(t, logger, FromContext(ctx), "logger from context should be the same instance")

	require.NotNil(t, FromContext(context.Background()), "missing logger falls back to a silent one")
}

func TestFileOperationFormatting(t *testing.T) {
	color.NoColor = true
	defer func() { color.NoColor = false }()

	tests := []struct {
		name string
		op   FileOperation
		want string
	}{
		{
			name: "new_file",
			op: FileOperation{
				Path:   "web.config",
				Status: "new",
				IsNew:  true,
			},
			want: "✓ web.config                          new",
		},
		{
			name: "modified_file_with_parameters",
			op: FileOperation{
				Path:       "web.config",
				Status:     "modified",
				IsModified: true,
				Parameters: 3,
			},
			want: "⟳ web.config                          modified    (3 parameters)",
		},
		{
			name: "failed_file",
			op: FileOperation{
				Path:     "web.config",
				Status:   "failed",
				IsFailed: true,
			},
			want: "✗ web.config                          failed",
		},
		{
			name: "unchanged_file",
			op: FileOperation{
				Path:   "web.config",
				Status: "unchanged",
			},
			want: "• web.config                          unchanged",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := &bytes.Buffer{}
			logger := New(buf, buf, ModeVerbose, zerolog.Nop())

			logger.LogFileOperation(context.Background(), tt.op)

			assert.Equal(t, tt.want, strings.TrimSpace(buf.String()))
		})
	}
}

func TestFileOperationHiddenUnlessVerbose(t *testing.T) {
	buf := &bytes.Buffer{}
	New(buf, buf, ModeErrorOnly, zerolog.Nop()).LogFileOperation(context.Background(), FileOperation{Path: "a"})
	assert.Empty(t, buf.String())
}

func TestSummary(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := New(buf, buf, ModeVerbose, zerolog.Nop())
	logger.LogFileOperation(context.Background(), FileOperation{Source: "a.config", Path: "out/a.config", Status: "new"})
	buf.Reset()

	logger.Summary()
	assert.Contains(t, buf.String(), "a.config")
	assert.Contains(t, buf.String(), "out/a.config")
}
