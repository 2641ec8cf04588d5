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

import "strings"

const (
	openBrace  = '{'
	closeBrace = '}'
	escapeChar = '\\'
	nameSep    = ':'
)

// 🔖 spanKind tells a literal run apart from a closed token
type spanKind int

const (
	spanLiteral spanKind = iota
	spanToken
)

// 📄 span is one structural event produced by the scanner
type span struct {
	kind spanKind
	// text is the escape-resolved literal for spanLiteral and the raw,
	// still-escaped content between the braces for spanToken
	text string
	// raw is the exact source text of a token, braces included
	raw string
}

// 🔍 scanner walks a template left to right, one span at a time
type scanner struct {
	src string
	pos int
}

func newScanner(src string) *scanner {
	return &scanner{src: src}
}

// isEscape reports whether src[i:] starts with \{ or \}
func isEscape(src string, i int) bool {
	if src[i] != escapeChar || i+1 >= len(src) {
		return false
	}
	next := src[i+1]
	return next == openBrace || next == closeBrace
}

// next returns the following span, or false once the input is exhausted.
func (s *scanner) next() (span, bool) {
	if s.pos >= len(s.src) {
		return span{}, false
	}

	if s.src[s.pos] == openBrace {
		return s.token(), true
	}

	return s.literal(), true
}

// literal consumes text up to the next unescaped opening brace.
func (s *scanner) literal() span {
	var b strings.Builder
	start := s.pos
	i := s.pos
	for i < len(s.src) {
		if isEscape(s.src, i) {
			b.WriteString(s.src[start:i])
			b.WriteByte(s.src[i+1])
			i += 2
			start = i
			continue
		}
		if s.src[i] == openBrace {
			break
		}
		i++
	}
	b.WriteString(s.src[start:i])
	s.pos = i
	return span{kind: spanLiteral, text: b.String()}
}

// token consumes an unescaped opening brace and everything up to its
// unescaped closing brace. Without a closing brace the rest of the input
// becomes one final literal.
func (s *scanner) token() span {
	open := s.pos
	i := open + 1
	for i < len(s.src) {
		if isEscape(s.src, i) {
			i += 2
			continue
		}
		if s.src[i] == closeBrace {
			s.pos = i + 1
			return span{
				kind: spanToken,
				text: s.src[open+1 : i],
				raw:  s.src[open:s.pos],
			}
		}
		i++
	}

	s.pos = len(s.src)
	return span{kind: spanLiteral, text: unescape(s.src[open:])}
}

// unescape resolves \{ and \} into literal braces. Any other backslash is
// kept as is.
func unescape(s string) string {
	if strings.IndexByte(s, escapeChar) < 0 {
		return s
	}

	var b strings.Builder
	b.Grow(len(s))
	start := 0
	for i := 0; i < len(s); {
		if isEscape(s, i) {
			b.WriteString(s[start:i])
			b.WriteByte(s[i+1])
			i += 2
			start = i
			continue
		}
		i++
	}
	b.WriteString(s[start:])
	return b.String()
}
