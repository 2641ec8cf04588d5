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
	"strings"

	"gitlab.com/tozd/go/errors"
)

const (
	pairSep  = ';'
	valueSep = ':'
	quote    = '"'
	escape   = '\\'
)

// ParseInline reads parameters written as name:value;name2:value2 into
// into. Values may be wrapped in double quotes to keep spaces, semicolons
// or colons, and \" inside quotes is a literal quote. Only the first colon of
// a pair separates the name, so values may contain more colons.
//
// Malformed pairs are collected into a single ErrInvalidParameters error;
// well formed pairs are stored regardless.
func ParseInline(ctx context.Context, s string, into map[string]string) error {
	var bad []string

	for _, pair := range splitUnquoted(s, pairSep) {
		if strings.TrimSpace(pair) == "" {
			continue
		}

		parts := splitUnquoted(pair, valueSep)
		name := strings.TrimSpace(unquote(parts[0]))
		if len(parts) < 2 || name == "" {
			bad = append(bad, pair)
			continue
		}

		value := strings.TrimSpace(pair[len(parts[0])+1:])
		set(ctx, into, name, unquote(value), "inline")
	}

	if len(bad) > 0 {
		return errors.Errorf("%w: %q", ErrInvalidParameters, bad)
	}

	return nil
}

// splitUnquoted splits s on sep wherever sep is outside double quotes.
func splitUnquoted(s string, sep byte) []string {
	var (
		parts   []string
		inQuote bool
		start   int
	)
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case escape:
			if i+1 < len(s) && s[i+1] == quote {
				i++
			}
		case quote:
			inQuote = !inQuote
		case sep:
			if !inQuote {
				parts = append(parts, s[start:i])
				start = i + 1
			}
		}
	}
	return append(parts, s[start:])
}

// unquote drops unescaped double quotes and turns \" into ".
func unquote(s string) string {
	if strings.IndexByte(s, quote) < 0 {
		return s
	}

	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		switch {
		case s[i] == escape && i+1 < len(s) && s[i+1] == quote:
			b.WriteByte(quote)
			i++
		case s[i] == quote:
		default:
			b.WriteByte(s[i])
		}
	}
	return b.String()
}
