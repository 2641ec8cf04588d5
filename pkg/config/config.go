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

// Package config loads batch project files that describe many
// transformations at once. YAML, HCL and JSON are supported.
package config

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/ctt/pkg/console"
)

// 🔌 Parser is the interface for config parsers
type Parser interface {
	// 📝 Parse parses the config from bytes
	Parse(ctx context.Context, data []byte) (*Config, error)

	// 🔍 CanParse checks if this parser can handle the given file
	CanParse(filename string) bool
}

var (
	// 🗺️ parsers is a list of available parsers
	parsers []Parser
)

// 📝 Register registers a parser
func Register(p Parser) {
	parsers = append(parsers, p)
}

// 🎯 GetParser returns a parser that can handle the given file
func GetParser(filename string) Parser {
	for _, p := range parsers {
		if p.CanParse(filename) {
			return p
		}
	}
	return nil
}

// ⚙️ Settings are the per transformation options. Unset pointers inherit
// from the defaults.
type Settings struct {
	Encoding               string            `json:"encoding,omitempty" yaml:"encoding,omitempty"`
	Indent                 *bool             `json:"indent,omitempty" yaml:"indent,omitempty"`
	IndentChars            string            `json:"indent_chars,omitempty" yaml:"indent_chars,omitempty"`
	PreserveWhitespace     *bool             `json:"preserve_whitespace,omitempty" yaml:"preserve_whitespace,omitempty"`
	IgnoreMissingTransform *bool             `json:"ignore_missing_transform,omitempty" yaml:"ignore_missing_transform,omitempty"`
	ForceParameters        *bool             `json:"force_parameters,omitempty" yaml:"force_parameters,omitempty"`
	Parameters             map[string]string `json:"parameters,omitempty" yaml:"parameters,omitempty"`
	ParametersFile         string            `json:"parameters_file,omitempty" yaml:"parameters_file,omitempty"`
}

// 🔄 Transformation is one source, transform and destination triple
type Transformation struct {
	Source      string   `json:"source" yaml:"source"`                     // File path or doublestar glob
	Transform   string   `json:"transform" yaml:"transform"`               // XDT transform file
	Destination string   `json:"destination" yaml:"destination"`           // File, or directory when Source is a glob
	Ignore      []string `json:"ignore,omitempty" yaml:"ignore,omitempty"` // Glob patterns excluded from Source matches

	Settings `yaml:",inline"`
}

// 📚 Config represents a batch project file
type Config struct {
	Defaults        Settings         `json:"defaults,omitempty" yaml:"defaults,omitempty"`
	Transformations []Transformation `json:"transformations" yaml:"transformations"`

	location string
}

// Dir returns the directory relative paths are resolved against.
func (cfg *Config) Dir() string {
	if cfg.location == "" {
		return "."
	}
	return filepath.Dir(cfg.location)
}

// 🎯 Load loads the configuration from a file
func Load(ctx context.Context, path string) (*Config, error) {
	logger := zerolog.Ctx(ctx)
	logger.Debug().Str("path", path).Msg("loading configuration")

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Errorf("reading config file: %w", err)
	}

	p := GetParser(path)
	if p == nil {
		return nil, errors.Errorf("no parser found for file: %s", path)
	}

	cfg, err := p.Parse(ctx, data)
	if err != nil {
		return nil, errors.Errorf("parsing config: %w", err)
	}
	cfg.location = path

	if err := cfg.Validate(); err != nil {
		return nil, errors.Errorf("validating config: %w", err)
	}

	logger.Debug().Int("transformations", len(cfg.Transformations)).Msg("configuration loaded")
	return cfg, nil
}

// 🔍 Validate checks if the configuration is valid
func (cfg *Config) Validate() error {
	if len(cfg.Transformations) == 0 {
		return errors.Errorf("at least one transformation is required")
	}

	if err := cfg.Defaults.validate(); err != nil {
		return errors.Errorf("defaults: %w", err)
	}

	for i, t := range cfg.Transformations {
		if strings.TrimSpace(t.Source) == "" {
			return errors.Errorf("transformations[%d].source is required", i)
		}
		if strings.TrimSpace(t.Destination) == "" {
			return errors.Errorf("transformations[%d].destination is required", i)
		}
		if err := t.Settings.validate(); err != nil {
			return errors.Errorf("transformations[%d]: %w", i, err)
		}
	}

	return nil
}

func (s Settings) validate() error {
	if s.Encoding == "" {
		return nil
	}
	if _, err := console.Lookup(s.Encoding); err != nil {
		return err
	}
	return nil
}

// Merge returns s with every field o sets replaced by o's value. Parameter
// maps are merged, o winning on conflicts.
func (s Settings) Merge(o Settings) Settings {
	out := s
	if o.Encoding != "" {
		out.Encoding = o.Encoding
	}
	if o.Indent != nil {
		out.Indent = o.Indent
	}
	if o.IndentChars != "" {
		out.IndentChars = o.IndentChars
	}
	if o.PreserveWhitespace != nil {
		out.PreserveWhitespace = o.PreserveWhitespace
	}
	if o.IgnoreMissingTransform != nil {
		out.IgnoreMissingTransform = o.IgnoreMissingTransform
	}
	if o.ForceParameters != nil {
		out.ForceParameters = o.ForceParameters
	}
	if o.ParametersFile != "" {
		out.ParametersFile = o.ParametersFile
	}

	if len(s.Parameters) > 0 || len(o.Parameters) > 0 {
		out.Parameters = make(map[string]string, len(s.Parameters)+len(o.Parameters))
		for k, v := range s.Parameters {
			out.Parameters[k] = v
		}
		for k, v := range o.Parameters {
			out.Parameters[k] = v
		}
	}
	return out
}

// Bool dereferences an optional flag.
func Bool(b *bool) bool {
	return b != nil && *b
}
