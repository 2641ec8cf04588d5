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

package params

import (
	"context"
	"os"

	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
)

// 🔌 Parser is the interface for parameters file parsers
type Parser interface {
	// 📝 Parse parses name/value pairs from bytes
	Parse(ctx context.Context, data []byte) (map[string]string, error)

	// 🔍 CanParse checks if this parser can handle the given file
	CanParse(filename string) bool
}

var (
	// 🗺️ parsers is a list of available parsers
	parsers []Parser

	// fallback reads files no registered parser claims
	fallback Parser = &XMLParser{}
)

// 📝 Register registers a parser
func Register(p Parser) {
	parsers = append(parsers, p)
}

// 🎯 GetParser returns a parser that can handle the given file, or the XML
// parser when none claims it
func GetParser(filename string) Parser {
	for _, p := range parsers {
		if p.CanParse(filename) {
			return p
		}
	}
	return fallback
}

// 📥 LoadFile reads the parameters file at path into into
func LoadFile(ctx context.Context, path string, into map[string]string) error {
	logger := zerolog.Ctx(ctx)
	logger.Debug().Str("path", path).Msg("loading parameters file")

	data, err := os.ReadFile(path)
	if err != nil {
		return errors.Errorf("reading parameters file: %w", err)
	}

	loaded, err := GetParser(path).Parse(ctx, data)
	if err != nil {
		return errors.Errorf("parsing %s: %w", path, err)
	}

	logger.Debug().Int("count", len(loaded)).Msg("parameters loaded")
	Merge(ctx, into, loaded, path)
	return nil
}
