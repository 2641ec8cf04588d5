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

// Package transform runs one config transformation: it reads a source XML
// document, applies an XDT transform whose text may carry {Name:Default}
// parameters, and writes the result.
package transform

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
	"golang.org/x/text/encoding"

	"github.com/walteh/ctt/pkg/console"
	"github.com/walteh/ctt/pkg/log"
	"github.com/walteh/ctt/pkg/status"
	"github.com/walteh/ctt/pkg/text"
	"github.com/walteh/ctt/pkg/xdt"
)

const (
	// Stdin names the console input as the source
	Stdin = "stdin"
	// Stdout names the console output as the destination
	Stdout = "stdout"

	// DefaultIndentChars is used when Options.IndentChars is empty
	DefaultIndentChars = "    "
)

var (
	ErrInvalidOptions    = errors.New("invalid options")
	ErrSourceNotFound    = errors.New("can't find source file")
	ErrTransformNotFound = errors.New("can't find transform file")
)

// ⚙️ Options describes one transformation
type Options struct {
	SourcePath      string // File path or Stdin
	TransformPath   string // XDT transform file
	DestinationPath string // File path or Stdout

	PreserveWhitespace     bool              // Keep whitespace and decode &#xD; and &#xA;
	Indent                 bool              // Re-indent the output
	IndentChars            string            // One level of indentation, DefaultIndentChars when empty
	Encoding               encoding.Encoding // Default encoding, UTF-8 when nil
	IgnoreMissingTransform bool              // Copy the source when the transform is missing
	ForceParameters        bool              // Substitute even with no parameters
	Parameters             map[string]string // Values for {Name} placeholders

	Engine  xdt.Engine       // Defaults to xdt.New with the context logger
	Console *console.Console // Defaults to console.Std
	Writer  *status.Writer   // Defaults to status.NewWriter(false)
}

// 📊 Result is the outcome of Execute
type Result struct {
	Success bool              // Whether the transform applied cleanly
	Err     error             // Why the transformation could not run, if it could not
	Status  status.FileStatus // What happened to the destination file
}

// 🏃 Execute runs the transformation described by opts. It never panics;
// failures are reported through Result.
func Execute(ctx context.Context, opts Options) (res Result) {
	l := log.FromContext(ctx)

	defer func() {
		if r := recover(); r != nil {
			res = Result{Err: errors.Errorf("transformation panicked: %v", r)}
		}
		if res.Err != nil {
			l.Errorf("Exception while transforming: %v.", res.Err)
		}
	}()

	t, err := newTask(ctx, opts)
	if err != nil {
		return Result{Err: err}
	}
	return t.run(ctx)
}

// 🔧 task is a validated Options with defaults applied
type task struct {
	Options
	log         *log.Logger
	fromStdin   bool
	toStdout    bool
	skip        bool
	indentChars string
}

func isFile(path string) bool {
	if strings.TrimSpace(path) == "" {
		return false
	}
	st, err := os.Stat(path)
	return err == nil && !st.IsDir()
}

func newTask(ctx context.Context, opts Options) (*task, error) {
	if strings.TrimSpace(opts.DestinationPath) == "" {
		return nil, errors.Errorf("%w: destination file can't be empty", ErrInvalidOptions)
	}

	t := &task{
		Options:     opts,
		log:         log.FromContext(ctx),
		fromStdin:   strings.EqualFold(opts.SourcePath, Stdin),
		toStdout:    strings.EqualFold(opts.DestinationPath, Stdout),
		indentChars: opts.IndentChars,
	}

	t.log.Infof("Start transformation to '%s'.", opts.DestinationPath)

	if !t.fromStdin && !isFile(opts.SourcePath) {
		return nil, errors.Errorf("%w: %q", ErrSourceNotFound, opts.SourcePath)
	}

	if !isFile(opts.TransformPath) {
		if !opts.IgnoreMissingTransform {
			return nil, errors.Errorf("%w: %q", ErrTransformNotFound, opts.TransformPath)
		}
		t.skip = true
	}

	if t.Encoding == nil {
		t.Encoding = console.UTF8
	}
	if t.indentChars == "" {
		t.indentChars = DefaultIndentChars
	}
	if t.Console == nil {
		t.Console = console.Std
	}
	if t.Writer == nil {
		t.Writer = status.NewWriter(false)
	}
	if t.Engine == nil {
		t.Engine = xdt.New(t.log)
	}

	t.log.Infof("Source file: '%s'.", opts.SourcePath)
	if t.skip {
		t.log.Infof("Transform file not found. Copy source to destination.")
	} else {
		t.log.Infof("Transform file: '%s'.", opts.TransformPath)
	}

	return t, nil
}

func (t *task) run(ctx context.Context) Result {
	var (
		out     string
		enc     = t.Encoding
		success = true
		applied int
	)

	if t.skip {
		raw, err := t.readSourceText()
		if err != nil {
			return Result{Err: err}
		}
		out = raw
	} else {
		src, err := t.loadSource()
		if err != nil {
			return Result{Err: err}
		}
		enc = src.encoding

		t.log.Infof("Transformation task is using encoding '%s'. Change encoding in source file, or use the 'encoding' parameter if you want to change encoding.", console.Name(enc))

		transformText, n, err := t.loadTransform(ctx, enc)
		if err != nil {
			return Result{Err: err}
		}
		applied = n

		success, err = t.Engine.Apply(ctx, transformText, src.doc)
		if err != nil {
			return Result{Err: err}
		}

		out, err = t.serialize(src.doc)
		if err != nil {
			return Result{Err: err}
		}
	}

	fs, err := t.write(ctx, out, enc)
	if err != nil {
		return Result{Err: err}
	}

	t.log.LogFileOperation(ctx, log.FileOperation{
		Path:       t.DestinationPath,
		Source:     t.SourcePath,
		Status:     fs.String(),
		IsNew:      fs == status.StatusNew,
		IsModified: fs == status.StatusModified,
		IsFailed:   !success,
		Parameters: applied,
	})

	zerolog.Ctx(ctx).Debug().
		Str("source", t.SourcePath).
		Str("destination", t.DestinationPath).
		Bool("success", success).
		Stringer("status", fs).
		Msg("transformation finished")

	return Result{Success: success, Status: fs}
}

// loadTransform reads the transform file in enc and substitutes parameters
// when any are set or substitution is forced. It returns the number of
// placeholders filled from parameters.
func (t *task) loadTransform(ctx context.Context, enc encoding.Encoding) (string, int, error) {
	data, err := os.ReadFile(t.TransformPath)
	if err != nil {
		return "", 0, errors.Errorf("reading transform file: %w", err)
	}
	transformText, err := console.Decode(detect(data, enc), data)
	if err != nil {
		return "", 0, err
	}

	if len(t.Parameters) == 0 && !t.ForceParameters {
		return transformText, 0, nil
	}

	res, err := text.NewParameterReplacer().ReplaceText(ctx, strings.NewReader(transformText), t.Parameters)
	if err != nil {
		return "", 0, errors.Errorf("applying parameters: %w", err)
	}
	for _, name := range res.Unresolved {
		t.log.Warningf("Parameter '%s' has no value and no default.", name)
	}
	return string(res.ModifiedContent), res.ParameterCount, nil
}

// write sends out to the console or encodes it into the destination file.
func (t *task) write(ctx context.Context, out string, enc encoding.Encoding) (status.FileStatus, error) {
	if t.toStdout {
		scope := t.Console.Use(t.Encoding)
		defer scope.Release()
		if err := t.Console.WriteString(out); err != nil {
			return status.StatusUnknown, err
		}
		return status.StatusModified, nil
	}

	data, err := console.Encode(enc, out)
	if err != nil {
		return status.StatusUnknown, err
	}

	info, err := t.Writer.WriteFile(ctx, t.DestinationPath, data)
	if err != nil {
		return status.StatusUnknown, errors.Errorf("writing destination: %w", err)
	}
	if info.Diff != "" {
		t.log.Info(fmt.Sprintf("Changes in '%s':\n%s", t.DestinationPath, info.Diff))
	}
	return info.Status, nil
}
