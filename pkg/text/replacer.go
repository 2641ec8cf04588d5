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

package text

import (
	"context"
	"io"

	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
)

// ReplacementResult contains the results of a parameter substitution
type ReplacementResult struct {
	// WasModified indicates if the output differs from the input
	WasModified bool

	// ParameterCount is the number of tokens replaced by a supplied value
	ParameterCount int

	// DefaultCount is the number of tokens replaced by their inline default
	DefaultCount int

	// Unresolved lists the names of tokens left untouched, in order
	Unresolved []string

	// OriginalContent is the content before substitution
	OriginalContent []byte

	// ModifiedContent is the content after substitution
	ModifiedContent []byte
}

// TextReplacer applies a parameter set to a stream of template text
type TextReplacer interface {
	ReplaceText(ctx context.Context, content io.Reader, parameters map[string]string) (*ReplacementResult, error)
}

// ParameterReplacer implements TextReplacer with ApplyParameters
type ParameterReplacer struct{}

// NewParameterReplacer creates a new ParameterReplacer
func NewParameterReplacer() *ParameterReplacer {
	return &ParameterReplacer{}
}

// ReplaceText implements TextReplacer.ReplaceText
func (r *ParameterReplacer) ReplaceText(ctx context.Context, content io.Reader, parameters map[string]string) (*ReplacementResult, error) {
	originalContent, err := io.ReadAll(content)
	if err != nil {
		return nil, errors.Errorf("reading content: %w", err)
	}

	out, subs := apply(string(originalContent), parameters)

	result := &ReplacementResult{
		OriginalContent: originalContent,
		ModifiedContent: []byte(out),
		WasModified:     out != string(originalContent),
	}

	logger := zerolog.Ctx(ctx)
	for _, sub := range subs {
		switch sub.Resolution {
		case ResolvedParameter:
			result.ParameterCount++
		case ResolvedDefault:
			result.DefaultCount++
		case ResolvedPassthrough:
			result.Unresolved = append(result.Unresolved, sub.Name)
		}
		logger.Trace().Str("name", sub.Name).Stringer("resolution", sub.Resolution).Msg("token resolved")
	}

	logger.Debug().
		Int("parameters", result.ParameterCount).
		Int("defaults", result.DefaultCount).
		Strs("unresolved", result.Unresolved).
		Bool("modified", result.WasModified).
		Msg("applied parameters")

	return result, nil
}
