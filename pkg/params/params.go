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

	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
)

var (
	// ErrInvalidParameters is returned for inline pairs that cannot be parsed
	ErrInvalidParameters = errors.New("invalid parameters")
	// ErrUnsupportedFormat is returned when a parameters file has a shape no parser accepts
	ErrUnsupportedFormat = errors.New("unsupported parameters format")
)

// 🎯 Accumulate builds the final parameter map from an inline parameter
// string and a parameters file. Either may be empty. Inline values are read
// first, so a file value with the same name wins.
func Accumulate(ctx context.Context, inline string, file string) (map[string]string, error) {
	parameters := map[string]string{}

	if inline != "" {
		if err := ParseInline(ctx, inline, parameters); err != nil {
			return parameters, errors.Errorf("parsing inline parameters: %w", err)
		}
	}

	if file != "" {
		if err := LoadFile(ctx, file, parameters); err != nil {
			return parameters, errors.Errorf("loading parameters file: %w", err)
		}
	}

	return parameters, nil
}

// Merge copies src into dst, src winning on conflicts.
func Merge(ctx context.Context, dst, src map[string]string, origin string) {
	for name, value := range src {
		set(ctx, dst, name, value, origin)
	}
}

func set(ctx context.Context, into map[string]string, name, value, origin string) {
	if prev, ok := into[name]; ok && prev != value {
		zerolog.Ctx(ctx).Debug().
			Str("name", name).
			Str("origin", origin).
			Msg("parameter overridden")
	}
	into[name] = value
}
