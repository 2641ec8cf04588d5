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

// Package operation turns batch jobs into transformations and runs them,
// one at a time or with bounded concurrency.
package operation

import (
	"context"

	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/ctt/pkg/config"
	"github.com/walteh/ctt/pkg/console"
	"github.com/walteh/ctt/pkg/params"
	"github.com/walteh/ctt/pkg/transform"
)

// 🔌 Executor runs a single transformation
type Executor interface {
	Execute(ctx context.Context, opts transform.Options) transform.Result
}

// 🔧 ExecutorFunc adapts a function to Executor
type ExecutorFunc func(ctx context.Context, opts transform.Options) transform.Result

// Execute implements Executor.Execute
func (f ExecutorFunc) Execute(ctx context.Context, opts transform.Options) transform.Result {
	return f(ctx, opts)
}

// DefaultExecutor runs transform.Execute
var DefaultExecutor Executor = ExecutorFunc(transform.Execute)

// 🏗️ Options builds the transform options for job. Parameters from the
// settings come first and the parameters file overrides them.
func Options(ctx context.Context, job config.Job) (transform.Options, error) {
	s := job.Settings

	opts := transform.Options{
		SourcePath:             job.Source,
		TransformPath:          job.Transform,
		DestinationPath:        job.Destination,
		PreserveWhitespace:     config.Bool(s.PreserveWhitespace),
		Indent:                 config.Bool(s.Indent),
		IndentChars:            s.IndentChars,
		IgnoreMissingTransform: config.Bool(s.IgnoreMissingTransform),
		ForceParameters:        config.Bool(s.ForceParameters),
		Parameters:             map[string]string{},
	}

	if s.Encoding != "" {
		enc, err := console.Lookup(s.Encoding)
		if err != nil {
			return opts, err
		}
		opts.Encoding = enc
	}

	params.Merge(ctx, opts.Parameters, s.Parameters, "config")
	if s.ParametersFile != "" {
		if err := params.LoadFile(ctx, s.ParametersFile, opts.Parameters); err != nil {
			return opts, errors.Errorf("loading parameters for %s: %w", job.Source, err)
		}
	}

	zerolog.Ctx(ctx).Debug().
		Str("source", job.Source).
		Int("parameters", len(opts.Parameters)).
		Msg("prepared transformation")

	return opts, nil
}
