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

// Package opts holds the flag values shared by the ctt commands.
package opts

import (
	"context"
	"io"
	"strings"

	"github.com/rs/zerolog"

	"github.com/walteh/ctt/pkg/console"
	"github.com/walteh/ctt/pkg/log"
	"github.com/walteh/ctt/pkg/params"
	"github.com/walteh/ctt/pkg/transform"
)

// 🌍 GlobalOpts are the flags every command understands
type GlobalOpts struct {
	Verbose bool
	Quiet   bool
	Debug   bool
}

// Mode picks the console mode. Verbose wins over quiet.
func (g *GlobalOpts) Mode() log.Mode {
	switch {
	case g.Verbose:
		return log.ModeVerbose
	case g.Quiet:
		return log.ModeQuiet
	default:
		return log.ModeErrorOnly
	}
}

// 🪵 Context returns ctx carrying a zerolog logger (enabled by Debug) and
// the console logger writing to out and errOut
func (g *GlobalOpts) Context(ctx context.Context, out, errOut io.Writer) context.Context {
	zlog := zerolog.Nop()
	if g.Debug {
		zlog = zerolog.New(zerolog.ConsoleWriter{Out: errOut}).
			Level(zerolog.DebugLevel).
			With().Timestamp().Logger()
	}
	ctx = zlog.WithContext(ctx)
	return log.NewContext(ctx, log.New(out, errOut, g.Mode(), zlog))
}

// 🔧 TransformOpts are the flags of a single transformation
type TransformOpts struct {
	Source                 string
	Transform              string
	Destination            string
	Parameters             string
	ParametersFile         string
	ForceParameters        bool
	PreserveWhitespace     bool
	Indent                 bool
	IndentChars            string
	Encoding               string
	IgnoreMissingTransform bool
}

// Missing lists the required flags that were not given.
func (o *TransformOpts) Missing() []string {
	var missing []string
	if strings.TrimSpace(o.Source) == "" {
		missing = append(missing, "source")
	}
	if strings.TrimSpace(o.Transform) == "" {
		missing = append(missing, "transform")
	}
	if strings.TrimSpace(o.Destination) == "" {
		missing = append(missing, "destination")
	}
	return missing
}

var indentEscapes = strings.NewReplacer(`\t`, "\t")

// Options resolves the flags into transform options, loading parameters
// and the default encoding.
func (o *TransformOpts) Options(ctx context.Context) (transform.Options, error) {
	values, err := params.Accumulate(ctx, o.Parameters, o.ParametersFile)
	if err != nil {
		return transform.Options{}, err
	}

	out := transform.Options{
		SourcePath:             o.Source,
		TransformPath:          o.Transform,
		DestinationPath:        o.Destination,
		PreserveWhitespace:     o.PreserveWhitespace,
		Indent:                 o.Indent,
		IgnoreMissingTransform: o.IgnoreMissingTransform,
		ForceParameters:        o.ForceParameters,
		Parameters:             values,
	}

	if o.Indent {
		out.IndentChars = indentEscapes.Replace(o.IndentChars)
	}

	if o.Encoding != "" {
		enc, err := console.Lookup(o.Encoding)
		if err != nil {
			return transform.Options{}, err
		}
		out.Encoding = enc
	}

	return out, nil
}
